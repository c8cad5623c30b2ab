package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/louisbranch/notekeep/internal/services/notes/account"
	"github.com/louisbranch/notekeep/internal/services/notes/storage"
)

const userColumns = "id, name, email, password_hash, created_at"

// CreateUser inserts u and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, u account.User) (account.User, error) {
	if err := s.ready(ctx); err != nil {
		return account.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, toMillis(u.CreatedAt),
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return account.User{}, storage.ErrEmailTaken
		}
		return account.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// GetUser returns the user with id.
func (s *Store) GetUser(ctx context.Context, id int64) (account.User, error) {
	if err := s.ready(ctx); err != nil {
		return account.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.User{}, storage.ErrNotFound
		}
		return account.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the user registered with email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (account.User, error) {
	if err := s.ready(ctx); err != nil {
		return account.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.User{}, storage.ErrNotFound
		}
		return account.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns a page of users, newest first. The page token is the id
// of the last user on the previous page.
func (s *Store) ListUsers(ctx context.Context, pageSize int, pageToken string) (account.Page, error) {
	if err := s.ready(ctx); err != nil {
		return account.Page{}, err
	}
	if pageSize <= 0 {
		return account.Page{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case pageToken == "":
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY id DESC LIMIT ?`,
			pageSize+1,
		)
	default:
		before, parseErr := strconv.ParseInt(pageToken, 10, 64)
		if parseErr != nil {
			return account.Page{}, fmt.Errorf("parse page token: %w", parseErr)
		}
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id < ? ORDER BY id DESC LIMIT ?`,
			before, pageSize+1,
		)
	}
	if err != nil {
		return account.Page{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	page := account.Page{Users: make([]account.User, 0, pageSize)}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return account.Page{}, fmt.Errorf("scan user: %w", err)
		}
		page.Users = append(page.Users, u)
	}
	if err := rows.Err(); err != nil {
		return account.Page{}, fmt.Errorf("list users: %w", err)
	}
	if len(page.Users) > pageSize {
		page.NextPageToken = strconv.FormatInt(page.Users[pageSize-1].ID, 10)
		page.Users = page.Users[:pageSize]
	}
	return page, nil
}

func scanUser(row rowScanner) (account.User, error) {
	var (
		u         account.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		return account.User{}, err
	}
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}
