package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/listkeeper/internal/model"
)

// ListHistory returns the entries of an existing task, newest first.
func (s *Store) ListHistory(ctx context.Context, ownerID string, taskID int64) ([]model.HistoryEntry, error) {
	if _, err := s.GetTask(ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, task_id, event_type, details, created_at FROM task_history WHERE owner_id = ? AND task_id = ? ORDER BY created_at DESC, id DESC",
		ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	history := []model.HistoryEntry{}
	for rows.Next() {
		var entry model.HistoryEntry
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.EventType, &entry.Details, &createdAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = fromNanos(createdAt)
		history = append(history, entry)
	}
	return history, rows.Err()
}

func addHistory(ctx context.Context, tx *sql.Tx, ownerID string, taskID int64, eventType, details string, at int64) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO task_history (owner_id, task_id, event_type, details, created_at) VALUES (?, ?, ?, ?, ?)",
		ownerID, taskID, eventType, details, at); err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	return nil
}

func formatCreatedDetails(task model.Task) string {
	return fmt.Sprintf("created: title='%s' completed=%t due=%s list=%d", task.Title, task.IsCompleted, formatDue(task.DueDate), task.ListID)
}

func formatDeletedDetails(task model.Task) string {
	return fmt.Sprintf("deleted: title='%s' completed=%t due=%s list=%d", task.Title, task.IsCompleted, formatDue(task.DueDate), task.ListID)
}

func formatTaskDiff(before, after model.Task) string {
	changes := []string{}
	if before.Title != after.Title {
		changes = append(changes, formatChange("title", before.Title, after.Title))
	}
	if before.Description != after.Description {
		changes = append(changes, formatChange("description", before.Description, after.Description))
	}
	if before.IsCompleted != after.IsCompleted {
		changes = append(changes, formatChange("completed", fmt.Sprintf("%t", before.IsCompleted), fmt.Sprintf("%t", after.IsCompleted)))
	}
	if formatDue(before.DueDate) != formatDue(after.DueDate) {
		changes = append(changes, formatChange("due", formatDue(before.DueDate), formatDue(after.DueDate)))
	}
	if before.ListID != after.ListID {
		changes = append(changes, formatChange("list", fmt.Sprintf("%d", before.ListID), fmt.Sprintf("%d", after.ListID)))
	}

	if len(changes) == 0 {
		return "updated: no changes"
	}

	return "updated: " + strings.Join(changes, "; ")
}

func formatChange(field, before, after string) string {
	return fmt.Sprintf("%s: '%s' -> '%s'", field, valueOrNone(before), valueOrNone(after))
}

func valueOrNone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	return trimmed
}

func formatDue(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.Format(model.DateLayout)
}
