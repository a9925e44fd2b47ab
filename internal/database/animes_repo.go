package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aniview/models"
)

// AnimeRepo persists catalog titles.
type AnimeRepo struct {
	conn *sql.DB
}

func NewAnimeRepo(conn *sql.DB) *AnimeRepo {
	return &AnimeRepo{conn: conn}
}

const animeColumns = "id, title, image_url, synopsis, genres, rating, season_count, episode_count, status, release_year, studio, content_rating, external_id, created_at, updated_at"

// Column whitelist for user supplied sort keys.
var animeSortColumns = map[string]string{
	"title":       "title",
	"rating":      "rating",
	"releaseYear": "release_year",
	"createdAt":   "created_at",
}

func scanAnime(row interface{ Scan(...any) error }) (models.Anime, error) {
	var (
		a          models.Anime
		genres     string
		externalID sql.NullString
	)
	err := row.Scan(&a.ID, &a.Title, &a.ImageURL, &a.Synopsis, &genres, &a.Rating,
		&a.SeasonCount, &a.EpisodeCount, &a.Status, &a.ReleaseYear, &a.Studio,
		&a.ContentRating, &externalID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return models.Anime{}, err
	}
	if err := json.Unmarshal([]byte(genres), &a.Genres); err != nil {
		return models.Anime{}, fmt.Errorf("decode genres: %w", err)
	}
	a.ExternalID = externalID.String
	return a, nil
}

func encodeGenres(genres []string) (string, error) {
	if genres == nil {
		genres = []string{}
	}
	raw, err := json.Marshal(genres)
	if err != nil {
		return "", fmt.Errorf("encode genres: %w", err)
	}
	return string(raw), nil
}

func nullableID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

func (r *AnimeRepo) Create(ctx context.Context, a models.Anime) error {
	genres, err := encodeGenres(a.Genres)
	if err != nil {
		return err
	}
	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO animes (`+animeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.ImageURL, a.Synopsis, genres, a.Rating, a.SeasonCount, a.EpisodeCount,
		a.Status, a.ReleaseYear, a.Studio, a.ContentRating, nullableID(a.ExternalID), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert anime: %w", mapWriteErr(err))
	}
	return nil
}

func (r *AnimeRepo) GetByID(ctx context.Context, id string) (models.Anime, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+animeColumns+` FROM animes WHERE id = ?`, id)
	a, err := scanAnime(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Anime{}, ErrNotFound
	}
	if err != nil {
		return models.Anime{}, fmt.Errorf("select anime: %w", err)
	}
	return a, nil
}

func (r *AnimeRepo) GetByExternalID(ctx context.Context, externalID string) (models.Anime, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+animeColumns+` FROM animes WHERE external_id = ?`, externalID)
	a, err := scanAnime(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Anime{}, ErrNotFound
	}
	if err != nil {
		return models.Anime{}, fmt.Errorf("select anime by external id: %w", err)
	}
	return a, nil
}

func (r *AnimeRepo) Update(ctx context.Context, a models.Anime) error {
	genres, err := encodeGenres(a.Genres)
	if err != nil {
		return err
	}
	res, err := r.conn.ExecContext(ctx,
		`UPDATE animes SET title = ?, image_url = ?, synopsis = ?, genres = ?, rating = ?,
		 season_count = ?, episode_count = ?, status = ?, release_year = ?, studio = ?,
		 content_rating = ?, external_id = ?, updated_at = ? WHERE id = ?`,
		a.Title, a.ImageURL, a.Synopsis, genres, a.Rating, a.SeasonCount, a.EpisodeCount,
		a.Status, a.ReleaseYear, a.Studio, a.ContentRating, nullableID(a.ExternalID), a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update anime: %w", mapWriteErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AnimeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM animes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete anime: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func buildAnimeFilter(filter models.AnimeFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Genre != "" {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM json_each(animes.genres) WHERE json_each.value = ?)`)
		args = append(args, filter.Genre)
	}
	if filter.Status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, filter.Status)
	}
	if filter.ContentRating != "" {
		clauses = append(clauses, `content_rating = ?`)
		args = append(args, filter.ContentRating)
	}
	if len(filter.Ratings) > 0 {
		placeholders := strings.Repeat("?, ", len(filter.Ratings))
		clauses = append(clauses, `content_rating IN (`+placeholders[:len(placeholders)-2]+`)`)
		for _, rating := range filter.Ratings {
			args = append(args, rating)
		}
	}
	if filter.Search != "" {
		clauses = append(clauses, `(title LIKE ? OR synopsis LIKE ?)`)
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.ExternalID != "" {
		clauses = append(clauses, `external_id = ?`)
		args = append(args, filter.ExternalID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns a filtered, sorted page of titles plus the total match count.
func (r *AnimeRepo) List(ctx context.Context, filter models.AnimeFilter, opts models.ListOptions) ([]models.Anime, int, error) {
	where, args := buildAnimeFilter(filter)

	var total int
	if err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM animes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count animes: %w", err)
	}

	sortCol, ok := animeSortColumns[opts.Sort]
	if !ok {
		sortCol = "created_at"
	}
	direction := "ASC"
	if opts.Desc {
		direction = "DESC"
	}

	query := `SELECT ` + animeColumns + ` FROM animes` + where +
		fmt.Sprintf(" ORDER BY %s %s", sortCol, direction)
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Skip)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list animes: %w", err)
	}
	defer rows.Close()

	var animes []models.Anime
	for rows.Next() {
		a, err := scanAnime(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan anime: %w", err)
		}
		animes = append(animes, a)
	}
	return animes, total, rows.Err()
}

// Random samples up to limit titles, optionally restricted by filter.
func (r *AnimeRepo) Random(ctx context.Context, filter models.AnimeFilter, limit int) ([]models.Anime, error) {
	where, args := buildAnimeFilter(filter)
	args = append(args, limit)

	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+animeColumns+` FROM animes`+where+` ORDER BY RANDOM() LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sample animes: %w", err)
	}
	defer rows.Close()

	var animes []models.Anime
	for rows.Next() {
		a, err := scanAnime(rows)
		if err != nil {
			return nil, fmt.Errorf("scan anime: %w", err)
		}
		animes = append(animes, a)
	}
	return animes, rows.Err()
}

// Genres lists every distinct genre present in the catalog.
func (r *AnimeRepo) Genres(ctx context.Context) ([]string, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT DISTINCT json_each.value FROM animes, json_each(animes.genres) ORDER BY json_each.value`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}
