package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"

	"github.com/Joseda-hg/listkeeper/internal/auth"
	"github.com/Joseda-hg/listkeeper/internal/db"
	"github.com/Joseda-hg/listkeeper/internal/flash"
	"github.com/Joseda-hg/listkeeper/internal/model"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed JSON body")

type Server struct {
	store   *db.Store
	issuer  *auth.Issuer
	flashes *flash.Store
	logger  *slog.Logger
	limits  *limiters
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithFlashes(flashes *flash.Store) Option {
	return func(s *Server) {
		if flashes != nil {
			s.flashes = flashes
		}
	}
}

// WithRateLimit caps requests per owner. A non-positive limit disables it.
func WithRateLimit(limit float64, burst int) Option {
	return func(s *Server) {
		if limit <= 0 {
			s.limits = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limits = newLimiters(rate.Limit(limit), burst, maxTrackedOwners)
	}
}

func NewServer(store *db.Store, issuer *auth.Issuer, opts ...Option) *Server {
	s := &Server{
		store:   store,
		issuer:  issuer,
		flashes: flash.NewStore(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /lists", s.listLists)
	api.HandleFunc("POST /lists", s.createList)
	api.HandleFunc("GET /lists/{id}", s.getList)
	api.HandleFunc("PUT /lists/{id}", s.updateList)
	api.HandleFunc("DELETE /lists/{id}", s.deleteList)
	api.HandleFunc("GET /lists/{id}/tasks", s.listTasksForList)
	api.HandleFunc("GET /tasks", s.listTasks)
	api.HandleFunc("POST /tasks", s.createTask)
	api.HandleFunc("GET /tasks/{id}", s.getTask)
	api.HandleFunc("PUT /tasks/{id}", s.updateTask)
	api.HandleFunc("DELETE /tasks/{id}", s.deleteTask)
	api.HandleFunc("GET /tasks/{id}/history", s.taskHistory)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/", s.authenticate(s.rateLimit(api)))

	return gzhttp.GzipHandler(s.logRequests(mux))
}

// dataResponse wraps a single entity (or nothing, after a delete) together
// with the pending flash message of the session.
type dataResponse struct {
	Data any `json:"data,omitempty"`
	flash.Message
}

type pageResponse[T any] struct {
	model.Page[T]
	flash.Message
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Message string            `json:"message"`
	Errors  model.FieldErrors `json:"errors"`
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

// render writes data and consumes the session's pending flash message.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data any) {
	msg := s.flashes.Pop(identity(r).SessionID)
	writeJSON(w, status, dataResponse{Data: data, Message: msg})
}

func renderPage[T any](s *Server, w http.ResponseWriter, r *http.Request, page model.Page[T]) {
	if page.Data == nil {
		page.Data = []T{}
	}
	msg := s.flashes.Pop(identity(r).SessionID)
	writeJSON(w, http.StatusOK, pageResponse[T]{Page: page, Message: msg})
}

// succeed records a success flash and renders it with data in the same
// step, so a concurrent request on the session cannot consume it first.
func (s *Server) succeed(w http.ResponseWriter, r *http.Request, status int, text string, data any) {
	msg := s.flashes.Deliver(identity(r).SessionID, flash.Success(text))
	writeJSON(w, status, dataResponse{Data: data, Message: msg})
}

// fail maps a store error onto the response. Validation failures carry
// field errors and no flash; a missing entity carries an error flash.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var invalid *model.ValidationError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Message: invalid.Error(), Errors: invalid.Fields})
	case errors.Is(err, db.ErrNotFound):
		msg := s.flashes.Deliver(identity(r).SessionID, flash.Error(notFound))
		writeJSON(w, http.StatusNotFound, errorResponse{Error: msg.Text()})
	case errors.Is(err, errMalformedBody):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Malformed JSON body."})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Something went wrong."})
	}
}

func queryFromRequest(r *http.Request) (model.Filter, int, error) {
	values := r.URL.Query()
	filter := model.Filter{
		Search: strings.TrimSpace(values.Get("search")),
		Status: model.StatusAll,
	}
	if value := strings.ToLower(strings.TrimSpace(values.Get("filter"))); value != "" {
		status := model.Status(value)
		if !status.Valid() {
			fields := model.FieldErrors{}
			fields.Add("filter", "The selected filter is invalid.")
			return model.Filter{}, 0, model.Invalid(fields)
		}
		filter.Status = status
	}

	page := 1
	if value := strings.TrimSpace(values.Get("page")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			page = parsed
		}
	}
	return filter, page, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", r.PathValue("id"), db.ErrNotFound)
	}
	return id, nil
}

// decodeJSON reads a request body into dst. An empty body leaves dst at its
// zero value so validation reports the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			fields := model.FieldErrors{}
			fields.Add(typeErr.Field, fmt.Sprintf("The %s field has an invalid type.", strings.ReplaceAll(typeErr.Field, "_", " ")))
			return model.Invalid(fields)
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
