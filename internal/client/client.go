// Package client talks to the listkeeper JSON API on behalf of the terminal
// UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/Joseda-hg/listkeeper/internal/flash"
	"github.com/Joseda-hg/listkeeper/internal/model"
)

var ErrNotFound = errors.New("not found")

// APIError is any non-validation failure reported by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope[T any] struct {
	Data T `json:"data"`
	flash.Message
}

type pageEnvelope[T any] struct {
	model.Page[T]
	flash.Message
}

func (c *Client) ListLists(ctx context.Context, filter model.Filter, page int) (model.Page[model.List], flash.Message, error) {
	return fetchPage[model.List](ctx, c, "/lists", filter, page)
}

// ListListTasks lazy-loads the tasks of one list.
func (c *Client) ListListTasks(ctx context.Context, listID int64, filter model.Filter, page int) (model.Page[model.Task], flash.Message, error) {
	return fetchPage[model.Task](ctx, c, fmt.Sprintf("/lists/%d/tasks", listID), filter, page)
}

func (c *Client) ListTasks(ctx context.Context, filter model.Filter, page int) (model.Page[model.Task], flash.Message, error) {
	return fetchPage[model.Task](ctx, c, "/tasks", filter, page)
}

func (c *Client) GetList(ctx context.Context, id int64) (model.List, error) {
	list, _, err := call[model.List](ctx, c, http.MethodGet, fmt.Sprintf("/lists/%d", id), nil)
	return list, err
}

func (c *Client) CreateList(ctx context.Context, input model.ListInput) (model.List, flash.Message, error) {
	return call[model.List](ctx, c, http.MethodPost, "/lists", input)
}

func (c *Client) UpdateList(ctx context.Context, id int64, input model.ListInput) (model.List, flash.Message, error) {
	return call[model.List](ctx, c, http.MethodPut, fmt.Sprintf("/lists/%d", id), input)
}

func (c *Client) DeleteList(ctx context.Context, id int64) (flash.Message, error) {
	_, msg, err := call[json.RawMessage](ctx, c, http.MethodDelete, fmt.Sprintf("/lists/%d", id), nil)
	return msg, err
}

func (c *Client) GetTask(ctx context.Context, id int64) (model.Task, error) {
	task, _, err := call[model.Task](ctx, c, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil)
	return task, err
}

func (c *Client) CreateTask(ctx context.Context, input model.TaskInput) (model.Task, flash.Message, error) {
	return call[model.Task](ctx, c, http.MethodPost, "/tasks", input)
}

func (c *Client) UpdateTask(ctx context.Context, id int64, input model.TaskInput) (model.Task, flash.Message, error) {
	return call[model.Task](ctx, c, http.MethodPut, fmt.Sprintf("/tasks/%d", id), input)
}

func (c *Client) DeleteTask(ctx context.Context, id int64) (flash.Message, error) {
	_, msg, err := call[json.RawMessage](ctx, c, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil)
	return msg, err
}

func (c *Client) TaskHistory(ctx context.Context, id int64) ([]model.HistoryEntry, error) {
	history, _, err := call[[]model.HistoryEntry](ctx, c, http.MethodGet, fmt.Sprintf("/tasks/%d/history", id), nil)
	return history, err
}

func fetchPage[T any](ctx context.Context, c *Client, path string, filter model.Filter, page int) (model.Page[T], flash.Message, error) {
	query := url.Values{}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Status != "" && filter.Status != model.StatusAll {
		query.Set("filter", string(filter.Status))
	}
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out pageEnvelope[T]
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return model.Page[T]{}, flash.Message{}, err
	}
	return out.Page, out.Message, nil
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, flash.Message, error) {
	var out envelope[T]
	if err := c.do(ctx, method, path, body, &out); err != nil {
		var zero T
		return zero, flash.Message{}, err
	}
	return out.Data, out.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var payload struct {
			Message string            `json:"message"`
			Errors  model.FieldErrors `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decode validation errors: %w", err)
		}
		if len(payload.Errors) == 0 {
			payload.Errors = model.FieldErrors{}
		}
		return &model.ValidationError{Fields: payload.Errors}
	case resp.StatusCode >= http.StatusBadRequest:
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
