package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aniview/models"
)

// ProfileRepo persists viewing profiles.
type ProfileRepo struct {
	conn *sql.DB
}

func NewProfileRepo(conn *sql.DB) *ProfileRepo {
	return &ProfileRepo{conn: conn}
}

const profileColumns = "id, user_id, name, avatar, type, max_content_rating, is_active, created_at, updated_at"

func scanProfile(row interface{ Scan(...any) error }) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Avatar, &p.Type, &p.MaxContentRating, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProfileRepo) Create(ctx context.Context, p models.Profile) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Avatar, p.Type, p.MaxContentRating, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", mapWriteErr(err))
	}
	return nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (models.Profile, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepo) ListByUser(ctx context.Context, userID string) ([]models.Profile, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *ProfileRepo) Update(ctx context.Context, p models.Profile) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE profiles SET name = ?, avatar = ?, type = ?, max_content_rating = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Avatar, p.Type, p.MaxContentRating, p.IsActive, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", mapWriteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
