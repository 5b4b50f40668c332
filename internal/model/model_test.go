package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestPageBounds(t *testing.T) {
	cases := []struct {
		name                             string
		total, perPage, requested        int
		page, lastPage, offset, from, to int
	}{
		{name: "empty", total: 0, perPage: 15, requested: 1, page: 1, lastPage: 1, offset: 0, from: 0, to: 0},
		{name: "single partial page", total: 4, perPage: 15, requested: 1, page: 1, lastPage: 1, offset: 0, from: 1, to: 4},
		{name: "second page", total: 31, perPage: 15, requested: 2, page: 2, lastPage: 3, offset: 15, from: 16, to: 30},
		{name: "last page partial", total: 31, perPage: 15, requested: 3, page: 3, lastPage: 3, offset: 30, from: 31, to: 31},
		{name: "below range", total: 31, perPage: 15, requested: 0, page: 1, lastPage: 3, offset: 0, from: 1, to: 15},
		{name: "above range", total: 31, perPage: 15, requested: 9, page: 3, lastPage: 3, offset: 30, from: 31, to: 31},
		{name: "exact multiple", total: 30, perPage: 15, requested: 2, page: 2, lastPage: 2, offset: 15, from: 16, to: 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, lastPage, offset, from, to := PageBounds(tc.total, tc.perPage, tc.requested)
			if page != tc.page || lastPage != tc.lastPage || offset != tc.offset || from != tc.from || to != tc.to {
				t.Fatalf("got page=%d last=%d offset=%d from=%d to=%d", page, lastPage, offset, from, to)
			}
			if tc.total > 0 {
				size := min(tc.perPage, tc.total-offset)
				if to-from+1 != size {
					t.Fatalf("expected to-from+1 == %d, got %d", size, to-from+1)
				}
			}
		})
	}
}

func TestTaskInputValidate(t *testing.T) {
	long := strings.Repeat("é", MaxTitleLength+1)
	exact := strings.Repeat("é", MaxTitleLength)

	cases := []struct {
		name        string
		input       TaskInput
		requireList bool
		fields      []string
	}{
		{name: "valid", input: TaskInput{Title: "Buy milk", ListID: 1}, requireList: true},
		{name: "missing title", input: TaskInput{ListID: 1}, requireList: true, fields: []string{"title"}},
		{name: "title at limit", input: TaskInput{Title: exact, ListID: 1}, requireList: true},
		{name: "title too long", input: TaskInput{Title: long, ListID: 1}, requireList: true, fields: []string{"title"}},
		{name: "bad due date", input: TaskInput{Title: "x", DueDate: "31/12/2026", ListID: 1}, requireList: true, fields: []string{"due_date"}},
		{name: "missing list on create", input: TaskInput{Title: "x"}, requireList: true, fields: []string{"list_id"}},
		{name: "missing list on update", input: TaskInput{Title: "x"}, requireList: false},
		{name: "negative list on update", input: TaskInput{Title: "x", ListID: -3}, requireList: false, fields: []string{"list_id"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Normalize().Validate(tc.requireList)
			if len(tc.fields) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			for _, field := range tc.fields {
				if verr.Fields.First(field) == "" {
					t.Fatalf("expected error on %q, got %v", field, verr.Fields)
				}
			}
		})
	}
}

func TestTaskInputNegativeListIsInvalidNotMissing(t *testing.T) {
	err := TaskInput{Title: "x", ListID: -1}.Normalize().Validate(true)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if got := verr.Fields.First("list_id"); got != "The selected list is invalid." {
		t.Fatalf("unexpected list_id message %q", got)
	}
}

func TestListInputNormalizeTrimsTitle(t *testing.T) {
	input := ListInput{Title: "   "}.Normalize()
	if err := input.Validate(); err == nil {
		t.Fatalf("expected whitespace-only title to be rejected")
	}
}

func TestStatusNextCycles(t *testing.T) {
	status := StatusAll
	seen := []Status{}
	for range 3 {
		status = status.Next()
		seen = append(seen, status)
	}
	if seen[0] != StatusPending || seen[1] != StatusCompleted || seen[2] != StatusAll {
		t.Fatalf("unexpected cycle %v", seen)
	}
	if Status("done").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
}

func TestTaskJSONDueDate(t *testing.T) {
	due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	data, err := json.Marshal(Task{ID: 3, Title: "Pay rent", DueDate: &due, ListID: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"due_date":"2026-11-02"`) {
		t.Fatalf("expected plain date in %s", data)
	}

	var decoded Task
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.DueDate == nil || !decoded.DueDate.Equal(due) {
		t.Fatalf("expected due date to survive, got %v", decoded.DueDate)
	}
}
