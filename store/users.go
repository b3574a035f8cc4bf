package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vinizap/lumi-notes/domain"
)

const userColumns = "id, username, email, password_hash, created_at, updated_at"

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                domain.User
		created, updated sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt = decodeTime(created)
	u.UpdatedAt = decodeTime(updated)
	return &u, nil
}

// uniqueError maps a unique constraint failure onto the message the API
// reports. Any other error is classified as usual.
func uniqueError(err error) error {
	column, ok := uniqueViolation(err)
	if !ok {
		return classify(err)
	}
	switch column {
	case "email":
		return domain.Validation("Email already exists")
	default:
		return domain.Validation("Username already exists")
	}
}

// CreateUser inserts a user. Duplicate usernames and emails are rejected by
// the unique constraints, so no row is written on conflict.
func (s *Store) CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, domain.Validation("Username and email are required")
	}

	ts := domain.FormatTimestamp(s.now())
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO users (username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), in.Username, in.Email, in.PasswordHash, ts, ts).Scan(&id)
	if err != nil {
		if uerr := uniqueError(err); domain.IsValidation(uerr) {
			return nil, uerr
		}
		return nil, fmt.Errorf("error saving user: %w", classify(err))
	}

	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("error finding user by ID: %w", classify(err))
	}
	return u, nil
}

// UserByUsername is used by password checks.
func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("error finding user by username: %w", classify(err))
	}
	return u, nil
}

// ListUsers returns every user, most recently created first.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("error finding all users: %w", classify(err))
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Username != nil {
		if strings.TrimSpace(*patch.Username) == "" {
			return nil, domain.Validation("Username cannot be empty")
		}
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		if strings.TrimSpace(*patch.Email) == "" {
			return nil, domain.Validation("Email cannot be empty")
		}
		u.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	if u.UpdatedAt != nil && !now.After(*u.UpdatedAt) {
		now = u.UpdatedAt.Add(time.Microsecond)
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE users SET username = ?, email = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`), u.Username, u.Email, u.PasswordHash, domain.FormatTimestamp(now), id)
	if err != nil {
		if uerr := uniqueError(err); domain.IsValidation(uerr) {
			return nil, uerr
		}
		return nil, fmt.Errorf("error saving user: %w", classify(err))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, domain.NotFound("User not found")
	}

	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("error deleting user: %w", classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
