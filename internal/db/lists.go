package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Joseda-hg/listkeeper/internal/model"
)

const listColumns = "id, owner_id, title, description, created_at, updated_at"

func (s *Store) ListLists(ctx context.Context, ownerID string, filter model.Filter, page int) (model.Page[model.List], error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}
	if clause, searchArgs := searchClause(filter.Search, "title", "description"); clause != "" {
		where = append(where, clause)
		args = append(args, searchArgs...)
	}
	whereSQL := strings.Join(where, " AND ")

	var result model.Page[model.List]
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var total int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM lists WHERE "+whereSQL, args...).Scan(&total); err != nil {
			return fmt.Errorf("count lists: %w", err)
		}

		current, lastPage, offset, from, to := model.PageBounds(total, s.pageSize, page)
		result = model.Page[model.List]{
			Data:        []model.List{},
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

		query := "SELECT " + listColumns + " FROM lists WHERE " + whereSQL +
			" ORDER BY updated_at DESC, created_at DESC, id DESC LIMIT ? OFFSET ?"
		rows, err := tx.QueryContext(ctx, query, append(args, s.pageSize, offset)...)
		if err != nil {
			return fmt.Errorf("list lists: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			list, err := scanList(rows)
			if err != nil {
				return err
			}
			result.Data = append(result.Data, list)
		}
		return rows.Err()
	})
	if err != nil {
		return model.Page[model.List]{}, err
	}
	return result, nil
}

func (s *Store) GetList(ctx context.Context, ownerID string, listID int64) (model.List, error) {
	return getList(ctx, s.DB, ownerID, listID)
}

func (s *Store) CreateList(ctx context.Context, ownerID string, input model.ListInput) (model.List, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return model.List{}, err
	}

	var created model.List
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		res, err := tx.ExecContext(ctx,
			"INSERT INTO lists (owner_id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			ownerID, input.Title, input.Description, now, now)
		if err != nil {
			return fmt.Errorf("insert list: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = getList(ctx, tx, ownerID, id)
		return err
	})
	if err != nil {
		return model.List{}, err
	}
	return created, nil
}

func (s *Store) UpdateList(ctx context.Context, ownerID string, listID int64, input model.ListInput) (model.List, error) {
	var updated model.List
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getList(ctx, tx, ownerID, listID); err != nil {
			return err
		}

		input = input.Normalize()
		if err := input.Validate(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE lists SET title = ?, description = ?, updated_at = ? WHERE id = ? AND owner_id = ?",
			input.Title, input.Description, s.now(), listID, ownerID); err != nil {
			return fmt.Errorf("update list: %w", err)
		}

		var err error
		updated, err = getList(ctx, tx, ownerID, listID)
		return err
	})
	if err != nil {
		return model.List{}, err
	}
	return updated, nil
}

// DeleteList removes the list and every task in it.
func (s *Store) DeleteList(ctx context.Context, ownerID string, listID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getList(ctx, tx, ownerID, listID); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks t WHERE t.list_id = ?", listID)
		if err != nil {
			return fmt.Errorf("load list tasks: %w", err)
		}
		tasks := []model.Task{}
		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				_ = rows.Close()
				return err
			}
			tasks = append(tasks, task)
		}
		if err := rows.Close(); err != nil {
			return err
		}

		now := s.now()
		for _, task := range tasks {
			if err := addHistory(ctx, tx, ownerID, task.ID, "deleted", formatDeletedDetails(task), now); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE list_id = ?", listID); err != nil {
			return fmt.Errorf("delete list tasks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM lists WHERE id = ? AND owner_id = ?", listID, ownerID); err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		return nil
	})
}

func getList(ctx context.Context, q queryer, ownerID string, listID int64) (model.List, error) {
	row := q.QueryRowContext(ctx, "SELECT "+listColumns+" FROM lists WHERE id = ? AND owner_id = ?", listID, ownerID)
	list, err := scanList(row)
	if err != nil {
		return model.List{}, notFound(err)
	}
	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanList(row scanner) (model.List, error) {
	var list model.List
	var createdAt, updatedAt int64
	if err := row.Scan(&list.ID, &list.OwnerID, &list.Title, &list.Description, &createdAt, &updatedAt); err != nil {
		return model.List{}, err
	}
	list.CreatedAt = fromNanos(createdAt)
	list.UpdatedAt = fromNanos(updatedAt)
	return list, nil
}
