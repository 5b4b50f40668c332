package model

import (
	"encoding/json"
	"time"
)

type taskJSON struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	DueDate     *string   `json:"due_date"`
	ListID      int64     `json:"list_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MarshalJSON renders due_date as a plain date instead of a timestamp.
func (t Task) MarshalJSON() ([]byte, error) {
	out := taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		ListID:      t.ListID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.DueDate != nil {
		value := t.DueDate.Format(DateLayout)
		out.DueDate = &value
	}
	return json.Marshal(out)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var in taskJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Task{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		IsCompleted: in.IsCompleted,
		ListID:      in.ListID,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
	if in.DueDate != nil && *in.DueDate != "" {
		due, err := time.Parse(DateLayout, *in.DueDate)
		if err != nil {
			return err
		}
		t.DueDate = &due
	}
	return nil
}
