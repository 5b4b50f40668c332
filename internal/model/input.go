package model

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxTitleLength = 255

// FieldErrors maps an input field to its validation messages.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

func (f FieldErrors) First(field string) string {
	if messages := f[field]; len(messages) > 0 {
		return messages[0]
	}
	return ""
}

type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "the given data was invalid"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return e.Fields.First(keys[0])
}

// Invalid returns nil when fields is empty so callers can return it directly.
func Invalid(fields FieldErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

type ListInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (in ListInput) Normalize() ListInput {
	return ListInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
	}
}

func (in ListInput) Validate() error {
	fields := FieldErrors{}
	validateTitle(fields, in.Title)
	return Invalid(fields)
}

// TaskInput is the editable field set of a Task. On update a zero ListID and
// a nil IsCompleted keep the stored values.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	ListID      int64  `json:"list_id"`
	IsCompleted *bool  `json:"is_completed"`
}

func (in TaskInput) Normalize() TaskInput {
	out := in
	out.Title = strings.TrimSpace(in.Title)
	out.Description = strings.TrimSpace(in.Description)
	out.DueDate = strings.TrimSpace(in.DueDate)
	return out
}

func (in TaskInput) Validate(requireList bool) error {
	fields := FieldErrors{}
	validateTitle(fields, in.Title)
	if in.DueDate != "" {
		if _, err := time.Parse(DateLayout, in.DueDate); err != nil {
			fields.Add("due_date", "The due date field must be a valid date (YYYY-MM-DD).")
		}
	}
	switch {
	case in.ListID < 0:
		fields.Add("list_id", "The selected list is invalid.")
	case requireList && in.ListID == 0:
		fields.Add("list_id", "The list id field is required.")
	}
	return Invalid(fields)
}

// Due parses DueDate; it is only meaningful after Validate succeeded.
func (in TaskInput) Due() *time.Time {
	if in.DueDate == "" {
		return nil
	}
	due, err := time.Parse(DateLayout, in.DueDate)
	if err != nil {
		return nil
	}
	return &due
}

func validateTitle(fields FieldErrors, title string) {
	if title == "" {
		fields.Add("title", "The title field is required.")
		return
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		fields.Add("title", "The title field must not be greater than 255 characters.")
	}
}
