// Persistence gateway for the User entity. All SQL touching the "user" table
// lives here; handlers only see the Store interface and apperror values.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/taskboard-go/apperror"
)

// PostgreSQL error codes surfaced by the constraints on the schema.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Filter selects users by exact equality on the given fields. A nil field is
// not part of the filter.
type Filter struct {
	Username *string
	Email    *string
}

// Store is the persistence gateway consumed by handlers. Handlers depend on
// this interface rather than the pgx-backed implementation so tests can
// substitute mocks.
type Store interface {
	// Find returns the user with the given id, or a NotFoundError.
	Find(ctx context.Context, id int) (*User, error)
	// FindAll returns every user in insertion order.
	FindAll(ctx context.Context) ([]*User, error)
	// FindBy returns the users matching the filter, in insertion order.
	FindBy(ctx context.Context, filter Filter) ([]*User, error)
	// Save inserts the user when it has no id yet (assigning one), otherwise
	// updates the existing row. Executes immediately as one atomic statement.
	Save(ctx context.Context, user *User) error
	// Remove deletes the user's row. Fails with a ConflictError when tasks
	// still reference the user.
	Remove(ctx context.Context, user *User) error
}

// PgStore is the pgx-backed Store implementation.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a PgStore on the given connection pool.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

const userColumns = `id, username, email, password, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Find returns the user with the given id.
func (s *PgStore) Find(ctx context.Context, id int) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM "user" WHERE id = $1`, userColumns)
	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	return user, nil
}

// FindAll returns every user in insertion order.
func (s *PgStore) FindAll(ctx context.Context) ([]*User, error) {
	return s.FindBy(ctx, Filter{})
}

// FindBy returns the users matching the filter, in insertion order.
// The WHERE clause is built dynamically from the filter's non-nil fields.
func (s *PgStore) FindBy(ctx context.Context, filter Filter) ([]*User, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Username != nil {
		conditions = append(conditions, fmt.Sprintf("username = $%d", argID))
		args = append(args, *filter.Username)
		argID++
	}
	if filter.Email != nil {
		conditions = append(conditions, fmt.Sprintf("email = $%d", argID))
		args = append(args, strings.ToLower(*filter.Email))
		argID++
	}

	query := fmt.Sprintf(`SELECT %s FROM "user"`, userColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to query users", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan user row", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read user rows", err)
	}
	return users, nil
}

// Save inserts or updates the user. On insert the assigned id is written back
// to the entity. A duplicate email surfaces as a ConflictError.
func (s *PgStore) Save(ctx context.Context, user *User) error {
	var err error
	if user.ID == 0 {
		query := `INSERT INTO "user" (username, email, password, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5)
		          RETURNING id`
		err = s.db.QueryRow(ctx, query,
			user.Username, user.Email, user.HashedPassword, user.CreatedAt, user.UpdatedAt,
		).Scan(&user.ID)
	} else {
		query := `UPDATE "user" SET username = $1, email = $2, password = $3, updated_at = $4 WHERE id = $5`
		_, err = s.db.Exec(ctx, query,
			user.Username, user.Email, user.HashedPassword, user.UpdatedAt, user.ID,
		)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return apperror.NewConflictError(fmt.Sprintf("email '%s' already exists", user.Email), nil)
			}
			return apperror.NewConflictError("user already exists", nil)
		}
		return apperror.NewDatabaseError("failed to save user", err)
	}
	return nil
}

// Remove deletes the user's row. The task.user_id foreign key has no cascade,
// so deleting a user that still owns tasks is rejected by the store and
// reported as a conflict.
func (s *PgStore) Remove(ctx context.Context, user *User) error {
	_, err := s.db.Exec(ctx, `DELETE FROM "user" WHERE id = $1`, user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperror.NewConflictError(fmt.Sprintf("user %d still has tasks", user.ID), err)
		}
		return apperror.NewDatabaseError("failed to delete user", err)
	}
	return nil
}
