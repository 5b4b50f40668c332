package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/listkeeper/internal/model"
)

const taskColumns = "t.id, t.list_id, t.title, t.description, t.is_completed, t.due_date, t.created_at, t.updated_at"

const ownedTasks = "FROM tasks t JOIN lists l ON l.id = t.list_id WHERE l.owner_id = ?"

// ListTasks returns a page of the owner's tasks. A non-zero listID narrows
// the result to that list, which must belong to the owner.
func (s *Store) ListTasks(ctx context.Context, ownerID string, listID int64, filter model.Filter, page int) (model.Page[model.Task], error) {
	where := []string{}
	args := []any{ownerID}
	if listID != 0 {
		where = append(where, "t.list_id = ?")
		args = append(args, listID)
	}
	switch filter.Status {
	case model.StatusCompleted:
		where = append(where, "t.is_completed = 1")
	case model.StatusPending:
		where = append(where, "t.is_completed = 0")
	}
	if clause, searchArgs := searchClause(filter.Search, "t.title", "t.description"); clause != "" {
		where = append(where, clause)
		args = append(args, searchArgs...)
	}
	whereSQL := ownedTasks
	if len(where) > 0 {
		whereSQL += " AND " + strings.Join(where, " AND ")
	}

	var result model.Page[model.Task]
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if listID != 0 {
			if _, err := getList(ctx, tx, ownerID, listID); err != nil {
				return err
			}
		}

		var total int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) "+whereSQL, args...).Scan(&total); err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}

		current, lastPage, offset, from, to := model.PageBounds(total, s.pageSize, page)
		result = model.Page[model.Task]{
			Data:        []model.Task{},
			CurrentPage: current,
			LastPage:    lastPage,
			PerPage:     s.pageSize,
			Total:       total,
			From:        from,
			To:          to,
		}
		if total == 0 {
			return nil
		}

		query := "SELECT " + taskColumns + " " + whereSQL +
			" ORDER BY t.updated_at DESC, t.created_at DESC, t.id DESC LIMIT ? OFFSET ?"
		rows, err := tx.QueryContext(ctx, query, append(args, s.pageSize, offset)...)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return err
			}
			result.Data = append(result.Data, task)
		}
		return rows.Err()
	})
	if err != nil {
		return model.Page[model.Task]{}, err
	}
	return result, nil
}

func (s *Store) GetTask(ctx context.Context, ownerID string, taskID int64) (model.Task, error) {
	return getTask(ctx, s.DB, ownerID, taskID)
}

func (s *Store) CreateTask(ctx context.Context, ownerID string, input model.TaskInput) (model.Task, error) {
	input = input.Normalize()
	if err := input.Validate(true); err != nil {
		return model.Task{}, err
	}

	var created model.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOwnedList(ctx, tx, ownerID, input.ListID); err != nil {
			return err
		}

		completed := false
		if input.IsCompleted != nil {
			completed = *input.IsCompleted
		}

		now := s.now()
		res, err := tx.ExecContext(ctx,
			"INSERT INTO tasks (list_id, title, description, is_completed, due_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			input.ListID, input.Title, input.Description, completed, nullDate(input.Due()), now, now)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		created, err = getTask(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		return addHistory(ctx, tx, ownerID, id, "created", formatCreatedDetails(created), now)
	})
	if err != nil {
		return model.Task{}, err
	}
	return created, nil
}

func (s *Store) UpdateTask(ctx context.Context, ownerID string, taskID int64, input model.TaskInput) (model.Task, error) {
	var after model.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		before, err := getTask(ctx, tx, ownerID, taskID)
		if err != nil {
			return err
		}

		input = input.Normalize()
		if err := input.Validate(false); err != nil {
			return err
		}

		listID := before.ListID
		if input.ListID != 0 && input.ListID != before.ListID {
			if err := requireOwnedList(ctx, tx, ownerID, input.ListID); err != nil {
				return err
			}
			listID = input.ListID
		}
		completed := before.IsCompleted
		if input.IsCompleted != nil {
			completed = *input.IsCompleted
		}

		now := s.now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET list_id = ?, title = ?, description = ?, is_completed = ?, due_date = ?, updated_at = ? WHERE id = ?",
			listID, input.Title, input.Description, completed, nullDate(input.Due()), now, taskID); err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		after, err = getTask(ctx, tx, ownerID, taskID)
		if err != nil {
			return err
		}
		return addHistory(ctx, tx, ownerID, taskID, "updated", formatTaskDiff(before, after), now)
	})
	if err != nil {
		return model.Task{}, err
	}
	return after, nil
}

func (s *Store) DeleteTask(ctx context.Context, ownerID string, taskID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		before, err := getTask(ctx, tx, ownerID, taskID)
		if err != nil {
			return err
		}

		if err := addHistory(ctx, tx, ownerID, taskID, "deleted", formatDeletedDetails(before), s.now()); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", taskID); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

func getTask(ctx context.Context, q queryer, ownerID string, taskID int64) (model.Task, error) {
	row := q.QueryRowContext(ctx, "SELECT "+taskColumns+" "+ownedTasks+" AND t.id = ?", ownerID, taskID)
	task, err := scanTask(row)
	if err != nil {
		return model.Task{}, notFound(err)
	}
	return task, nil
}

// requireOwnedList reports a missing or foreign list as a list_id field error.
func requireOwnedList(ctx context.Context, q queryer, ownerID string, listID int64) error {
	_, err := getList(ctx, q, ownerID, listID)
	if errors.Is(err, ErrNotFound) {
		fields := model.FieldErrors{}
		fields.Add("list_id", "The selected list is invalid.")
		return model.Invalid(fields)
	}
	return err
}

func scanTask(row scanner) (model.Task, error) {
	var task model.Task
	var dueDate sql.NullString
	var createdAt, updatedAt int64
	if err := row.Scan(&task.ID, &task.ListID, &task.Title, &task.Description, &task.IsCompleted, &dueDate, &createdAt, &updatedAt); err != nil {
		return model.Task{}, err
	}
	if dueDate.Valid && dueDate.String != "" {
		due, err := time.Parse(model.DateLayout, dueDate.String)
		if err != nil {
			return model.Task{}, fmt.Errorf("parse due date %q: %w", dueDate.String, err)
		}
		task.DueDate = &due
	}
	task.CreatedAt = fromNanos(createdAt)
	task.UpdatedAt = fromNanos(updatedAt)
	return task, nil
}

func nullDate(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.Format(model.DateLayout), Valid: true}
}
