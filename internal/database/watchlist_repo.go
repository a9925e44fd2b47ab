package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aniview/models"
)

// WatchlistRepo persists per-profile watchlist entries.
type WatchlistRepo struct {
	conn *sql.DB
}

func NewWatchlistRepo(conn *sql.DB) *WatchlistRepo {
	return &WatchlistRepo{conn: conn}
}

const watchlistColumns = "id, profile_id, anime_id, status, is_favorite, notes, last_watched, created_at, updated_at"

func scanEntry(row interface{ Scan(...any) error }) (models.WatchlistEntry, error) {
	var (
		e           models.WatchlistEntry
		lastWatched sql.NullTime
	)
	err := row.Scan(&e.ID, &e.ProfileID, &e.AnimeID, &e.Status, &e.IsFavorite, &e.Notes,
		&lastWatched, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.WatchlistEntry{}, err
	}
	if lastWatched.Valid {
		t := lastWatched.Time
		e.LastWatched = &t
	}
	return e, nil
}

func (r *WatchlistRepo) Create(ctx context.Context, e models.WatchlistEntry) error {
	var lastWatched sql.NullTime
	if e.LastWatched != nil {
		lastWatched = sql.NullTime{Time: *e.LastWatched, Valid: true}
	}
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO watchlist_entries (`+watchlistColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProfileID, e.AnimeID, e.Status, e.IsFavorite, e.Notes, lastWatched, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert watchlist entry: %w", mapWriteErr(err))
	}
	return nil
}

func (r *WatchlistRepo) GetByID(ctx context.Context, id string) (models.WatchlistEntry, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+watchlistColumns+` FROM watchlist_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WatchlistEntry{}, ErrNotFound
	}
	if err != nil {
		return models.WatchlistEntry{}, fmt.Errorf("select watchlist entry: %w", err)
	}
	return e, nil
}

func (r *WatchlistRepo) GetByProfileAndAnime(ctx context.Context, profileID, animeID string) (models.WatchlistEntry, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist_entries WHERE profile_id = ? AND anime_id = ?`,
		profileID, animeID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WatchlistEntry{}, ErrNotFound
	}
	if err != nil {
		return models.WatchlistEntry{}, fmt.Errorf("select watchlist entry: %w", err)
	}
	return e, nil
}

func (r *WatchlistRepo) listWhere(ctx context.Context, where string, args ...any) ([]models.WatchlistEntry, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist_entries `+where+` ORDER BY updated_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list watchlist entries: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchlistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *WatchlistRepo) ListByProfile(ctx context.Context, profileID string) ([]models.WatchlistEntry, error) {
	return r.listWhere(ctx, `WHERE profile_id = ?`, profileID)
}

func (r *WatchlistRepo) ListByProfileAndStatus(ctx context.Context, profileID string, status models.WatchStatus) ([]models.WatchlistEntry, error) {
	return r.listWhere(ctx, `WHERE profile_id = ? AND status = ?`, profileID, status)
}

func (r *WatchlistRepo) ListFavorites(ctx context.Context, profileID string) ([]models.WatchlistEntry, error) {
	return r.listWhere(ctx, `WHERE profile_id = ? AND is_favorite = 1`, profileID)
}

func (r *WatchlistRepo) Update(ctx context.Context, e models.WatchlistEntry) error {
	var lastWatched sql.NullTime
	if e.LastWatched != nil {
		lastWatched = sql.NullTime{Time: *e.LastWatched, Valid: true}
	}
	res, err := r.conn.ExecContext(ctx,
		`UPDATE watchlist_entries SET status = ?, is_favorite = ?, notes = ?, last_watched = ?, updated_at = ? WHERE id = ?`,
		e.Status, e.IsFavorite, e.Notes, lastWatched, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update watchlist entry: %w", mapWriteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WatchlistRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM watchlist_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete watchlist entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByProfileAndAnime removes the pair entry if present and reports
// whether a row was deleted.
func (r *WatchlistRepo) DeleteByProfileAndAnime(ctx context.Context, profileID, animeID string) (bool, error) {
	res, err := r.conn.ExecContext(ctx,
		`DELETE FROM watchlist_entries WHERE profile_id = ? AND anime_id = ?`, profileID, animeID)
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteByAnime clears every entry referencing a removed title.
func (r *WatchlistRepo) DeleteByAnime(ctx context.Context, animeID string) error {
	_, err := r.conn.ExecContext(ctx, `DELETE FROM watchlist_entries WHERE anime_id = ?`, animeID)
	if err != nil {
		return fmt.Errorf("clear watchlist references: %w", err)
	}
	return nil
}

// DeleteByProfile clears every entry belonging to the profile.
func (r *WatchlistRepo) DeleteByProfile(ctx context.Context, profileID string) error {
	_, err := r.conn.ExecContext(ctx, `DELETE FROM watchlist_entries WHERE profile_id = ?`, profileID)
	if err != nil {
		return fmt.Errorf("clear watchlist: %w", err)
	}
	return nil
}
