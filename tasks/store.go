// Persistence gateway for the Task entity. Reads join the owning user row so
// that serialized tasks always embed the full user object.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/taskboard-go/apperror"
	"github.com/user/taskboard-go/users"
)

const pgForeignKeyViolation = "23503"

// Filter selects tasks by exact equality on the given fields. A nil field is
// not part of the filter.
type Filter struct {
	UserID *int
	Status *int
}

// Store is the persistence gateway consumed by handlers.
type Store interface {
	// Find returns the task with the given id, or a NotFoundError.
	Find(ctx context.Context, id int) (*Task, error)
	// FindBy returns the tasks matching the filter, in insertion order.
	FindBy(ctx context.Context, filter Filter) ([]*Task, error)
	// Save inserts the task when it has no id yet (assigning one), otherwise
	// updates the existing row. Executes immediately as one atomic statement.
	Save(ctx context.Context, task *Task) error
	// Remove deletes the task's row.
	Remove(ctx context.Context, task *Task) error
}

// PgStore is the pgx-backed Store implementation.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a PgStore on the given connection pool.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.deadline, t.status,
	       u.id, u.username, u.email, u.created_at, u.updated_at
	FROM task t
	JOIN "user" u ON u.id = t.user_id`

func scanTask(row pgx.Row) (*Task, error) {
	var (
		task        Task
		owner       users.User
		description sql.NullString
		deadline    sql.NullTime
		status      int
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&deadline,
		&status,
		&owner.ID,
		&owner.Username,
		&owner.Email,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		task.Description = &description.String
	}
	if deadline.Valid {
		task.Deadline = &deadline.Time
	}
	task.Status = &status
	task.User = &owner
	return &task, nil
}

// Find returns the task with the given id, including its owning user.
func (s *PgStore) Find(ctx context.Context, id int) (*Task, error) {
	query := taskSelect + ` WHERE t.id = $1`
	task, err := scanTask(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("task with ID %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get task", err)
	}
	return task, nil
}

// FindBy returns the tasks matching the filter, in insertion order.
// The WHERE clause is built dynamically from the filter's non-nil fields.
func (s *PgStore) FindBy(ctx context.Context, filter Filter) ([]*Task, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("t.user_id = $%d", argID))
		args = append(args, *filter.UserID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	query := taskSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to query tasks", err)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan task row", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read task rows", err)
	}
	return tasks, nil
}

// Save inserts or updates the task. On insert the assigned id is written back
// to the entity. A save referencing a user id that no longer exists is
// rejected by the foreign key and reported as a conflict.
func (s *PgStore) Save(ctx context.Context, task *Task) error {
	var err error
	if task.ID == 0 {
		query := `INSERT INTO task (user_id, title, description, deadline, status)
		          VALUES ($1, $2, $3, $4, $5)
		          RETURNING id`
		err = s.db.QueryRow(ctx, query,
			task.User.ID, task.Title, task.Description, task.Deadline, task.Status,
		).Scan(&task.ID)
	} else {
		query := `UPDATE task SET user_id = $1, title = $2, description = $3, deadline = $4, status = $5 WHERE id = $6`
		_, err = s.db.Exec(ctx, query,
			task.User.ID, task.Title, task.Description, task.Deadline, task.Status, task.ID,
		)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperror.NewConflictError(fmt.Sprintf("task references missing user %d", task.User.ID), err)
		}
		return apperror.NewDatabaseError("failed to save task", err)
	}
	return nil
}

// Remove deletes the task's row.
func (s *PgStore) Remove(ctx context.Context, task *Task) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM task WHERE id = $1`, task.ID); err != nil {
		return apperror.NewDatabaseError("failed to delete task", err)
	}
	return nil
}
