package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aniview/models"
)

// UserRepo persists user accounts.
type UserRepo struct {
	conn *sql.DB
}

func NewUserRepo(conn *sql.DB) *UserRepo {
	return &UserRepo{conn: conn}
}

const userColumns = "id, username, email, password_hash, profile_pic, is_admin, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ProfilePic, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepo) Create(ctx context.Context, u models.User) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.ProfilePic, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapWriteErr(err))
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepo) Update(ctx context.Context, u models.User) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, password_hash = ?, profile_pic = ?, is_admin = ?, updated_at = ? WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, u.ProfilePic, u.IsAdmin, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", mapWriteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Stats aggregates registrations per month over the trailing year.
func (r *UserRepo) Stats(ctx context.Context) (models.UserStats, error) {
	var stats models.UserStats

	if err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return models.UserStats{}, fmt.Errorf("count users: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(-1, 0, 0)
	rows, err := r.conn.QueryContext(ctx,
		`SELECT strftime('%Y-%m', created_at) AS month, COUNT(*)
		 FROM users WHERE created_at >= ?
		 GROUP BY month ORDER BY month`, cutoff)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("aggregate registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mc models.MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return models.UserStats{}, fmt.Errorf("scan month bucket: %w", err)
		}
		stats.PerMonth = append(stats.PerMonth, mc)
	}
	return stats, rows.Err()
}
