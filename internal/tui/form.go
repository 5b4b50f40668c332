package tui

import (
	"strings"

	"github.com/Joseda-hg/listkeeper/internal/model"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldToggle
	fieldChoice
)

type formField struct {
	Label string
	Key   string
	Value string
	Kind  fieldKind
}

// ListForm is the editable snapshot of a List.
type ListForm struct {
	Title       string
	Description string
}

const (
	listFieldTitle = iota
	listFieldDescription
)

func listFormFrom(list model.List) ListForm {
	return ListForm{Title: list.Title, Description: list.Description}
}

func (f ListForm) fields() []formField {
	return []formField{
		{Label: "Title", Key: "title", Value: f.Title},
		{Label: "Description", Key: "description", Value: f.Description},
	}
}

func (f *ListForm) setText(index int, value string) {
	switch index {
	case listFieldTitle:
		f.Title = value
	case listFieldDescription:
		f.Description = value
	}
}

func (f ListForm) input() model.ListInput {
	return model.ListInput{Title: f.Title, Description: f.Description}
}

// TaskForm is the editable snapshot of a Task. ListTitle only labels the
// picker.
type TaskForm struct {
	Title       string
	Description string
	DueDate     string
	ListID      int64
	ListTitle   string
	Completed   bool
}

const (
	taskFieldTitle = iota
	taskFieldDescription
	taskFieldDue
	taskFieldList
	taskFieldCompleted
)

func taskFormFrom(task model.Task, listTitle string) TaskForm {
	form := TaskForm{
		Title:       task.Title,
		Description: task.Description,
		ListID:      task.ListID,
		ListTitle:   listTitle,
		Completed:   task.IsCompleted,
	}
	if task.DueDate != nil {
		form.DueDate = task.DueDate.Format(model.DateLayout)
	}
	return form
}

func (f TaskForm) fields() []formField {
	list := f.ListTitle
	if list == "" {
		list = "none"
	}
	completed := "no"
	if f.Completed {
		completed = "yes"
	}
	return []formField{
		{Label: "Title", Key: "title", Value: f.Title},
		{Label: "Description", Key: "description", Value: f.Description},
		{Label: "Due (YYYY-MM-DD)", Key: "due_date", Value: f.DueDate},
		{Label: "List (space/←→)", Key: "list_id", Value: list, Kind: fieldChoice},
		{Label: "Completed (space)", Key: "is_completed", Value: completed, Kind: fieldToggle},
	}
}

func (f *TaskForm) setText(index int, value string) {
	switch index {
	case taskFieldTitle:
		f.Title = value
	case taskFieldDescription:
		f.Description = value
	case taskFieldDue:
		f.DueDate = value
	}
}

// pickList moves the list choice by delta through options, wrapping around.
func (f *TaskForm) pickList(options []model.List, delta int) {
	if len(options) == 0 {
		return
	}
	index := -1
	for i, list := range options {
		if list.ID == f.ListID {
			index = i
			break
		}
	}
	switch {
	case index < 0 && delta < 0:
		index = len(options) - 1
	case index < 0:
		index = 0
	default:
		index = (index + delta + len(options)) % len(options)
	}
	f.ListID = options[index].ID
	f.ListTitle = options[index].Title
}

func (f TaskForm) input() model.TaskInput {
	completed := f.Completed
	return model.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		DueDate:     strings.TrimSpace(f.DueDate),
		ListID:      f.ListID,
		IsCompleted: &completed,
	}
}

// taskInputFromTask carries every editable field of task so an update never
// drifts fields the caller did not mean to touch.
func taskInputFromTask(task model.Task) model.TaskInput {
	return taskFormFrom(task, "").input()
}
