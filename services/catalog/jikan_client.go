package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"aniview/models"

	"github.com/avast/retry-go/v4"
)

const defaultJikanBaseURL = "https://api.jikan.moe/v4"

// jikanClient talks to the public Jikan API. The API enforces a strict
// per-second rate limit, hence the throttle between requests.
type jikanClient struct {
	baseURL string
	httpc   *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newJikanClient(baseURL string, timeout time.Duration) *jikanClient {
	if baseURL == "" {
		baseURL = defaultJikanBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &jikanClient{
		baseURL:     baseURL,
		httpc:       &http.Client{Timeout: timeout},
		minInterval: 350 * time.Millisecond,
	}
}

func (c *jikanClient) doGET(ctx context.Context, endpoint string, v any) error {
	return retry.Do(
		func() error {
			c.throttleMu.Lock()
			since := time.Since(c.lastRequest)
			if since < c.minInterval {
				time.Sleep(c.minInterval - since)
			}
			c.lastRequest = time.Now()
			c.throttleMu.Unlock()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("jikan request failed: %s", resp.Status)
			case resp.StatusCode >= 400:
				return retry.Unrecoverable(fmt.Errorf("jikan request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode jikan response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

type jikanAnime struct {
	MalID    int64 `json:"mal_id"`
	Images   struct {
		JPG struct {
			LargeImageURL string `json:"large_image_url"`
			ImageURL      string `json:"image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Title    string  `json:"title"`
	Synopsis string  `json:"synopsis"`
	Episodes int     `json:"episodes"`
	Status   string  `json:"status"`
	Rating   string  `json:"rating"`
	Score    float64 `json:"score"`
	Year     int     `json:"year"`
	Aired    struct {
		From string `json:"from"`
	} `json:"aired"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Studios []struct {
		Name string `json:"name"`
	} `json:"studios"`
}

type jikanSearchResponse struct {
	Data []jikanAnime `json:"data"`
}

type jikanDetailResponse struct {
	Data jikanAnime `json:"data"`
}

// Search queries the external catalog by free text.
func (c *jikanClient) Search(ctx context.Context, query string, limit int) ([]models.Anime, error) {
	endpoint := fmt.Sprintf("%s/anime?q=%s&limit=%d&sfw=false", c.baseURL, url.QueryEscape(query), limit)

	var resp jikanSearchResponse
	if err := c.doGET(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	animes := make([]models.Anime, 0, len(resp.Data))
	for _, item := range resp.Data {
		animes = append(animes, mapExternalAnime(item))
	}
	return animes, nil
}

// GetByID fetches one title by its external numeric ID.
func (c *jikanClient) GetByID(ctx context.Context, externalID string) (models.Anime, error) {
	endpoint := fmt.Sprintf("%s/anime/%s", c.baseURL, url.PathEscape(externalID))

	var resp jikanDetailResponse
	if err := c.doGET(ctx, endpoint, &resp); err != nil {
		return models.Anime{}, err
	}
	return mapExternalAnime(resp.Data), nil
}

func mapExternalAnime(item jikanAnime) models.Anime {
	genres := make([]string, 0, len(item.Genres))
	for _, g := range item.Genres {
		genres = append(genres, g.Name)
	}

	studio := ""
	if len(item.Studios) > 0 {
		studio = item.Studios[0].Name
	}

	imageURL := item.Images.JPG.LargeImageURL
	if imageURL == "" {
		imageURL = item.Images.JPG.ImageURL
	}

	episodes := item.Episodes
	if episodes <= 0 {
		episodes = 1
	}

	year := item.Year
	if year == 0 && len(item.Aired.From) >= 4 {
		if parsed, err := strconv.Atoi(item.Aired.From[:4]); err == nil {
			year = parsed
		}
	}

	return models.Anime{
		Title:         item.Title,
		ImageURL:      imageURL,
		Synopsis:      item.Synopsis,
		Genres:        genres,
		Rating:        item.Score,
		SeasonCount:   1,
		EpisodeCount:  episodes,
		Status:        mapExternalStatus(item.Status),
		ReleaseYear:   year,
		Studio:        studio,
		ContentRating: mapExternalRating(item.Rating),
		ExternalID:    strconv.FormatInt(item.MalID, 10),
	}
}

func mapExternalStatus(status string) models.AnimeStatus {
	switch status {
	case "Airing", "Currently Airing":
		return models.StatusAiring
	case "Finished Airing", "Complete":
		return models.StatusFinished
	case "Not yet aired", "Upcoming":
		return models.StatusAnnounced
	case "On Hiatus":
		return models.StatusOnHiatus
	default:
		return models.StatusFinished
	}
}

func mapExternalRating(rating string) models.ContentRating {
	switch rating {
	case "G - All Ages":
		return models.RatingG
	case "PG - Children":
		return models.RatingPG
	case "PG-13 - Teens 13 or older":
		return models.RatingPG13
	case "R - 17+ (violence & profanity)", "R+ - Mild Nudity":
		return models.RatingR
	case "Rx - Hentai":
		return models.RatingNC17
	default:
		return models.RatingPG13
	}
}
