// Package tmdb is a catalog provider backed by The Movie Database API.
package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chirino/media-tracker/internal/catalog"
	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/security"
	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Kind selects the TMDB collection a client searches.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTv    Kind = "tv"
)

// Options configures a client.
type Options struct {
	BaseURL      string
	ImageBaseURL string
	Token        string
	Language     string
	Timeout      time.Duration
	// RequestsPerSecond throttles requests. Zero disables throttling.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client implements catalog.Provider for one TMDB collection.
type Client struct {
	kind    Kind
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
}

// New creates a client for kind.
func New(kind Kind, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(1, int(opts.RequestsPerSecond)))
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{kind: kind, opts: opts, http: httpClient, limiter: limiter}
}

func (c *Client) Name() string { return "tmdb-" + string(c.kind) }

type searchResponse struct {
	Results []struct {
		ID           int    `json:"id"`
		Title        string `json:"title"`
		Name         string `json:"name"`
		PosterPath   string `json:"poster_path"`
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
	} `json:"results"`
}

type named struct {
	Name string `json:"name"`
}

type detailsResponse struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Genres       []named `json:"genres"`

	Runtime int `json:"runtime"`
	Credits struct {
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`

	CreatedBy        []named `json:"created_by"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	InProduction     bool    `json:"in_production"`
	NextEpisodeToAir *struct {
		AirDate string `json:"air_date"`
	} `json:"next_episode_to_air"`
	Seasons []struct {
		SeasonNumber int `json:"season_number"`
		EpisodeCount int `json:"episode_count"`
	} `json:"seasons"`
}

// Search returns the entries matching term in TMDB relevance order.
func (c *Client) Search(ctx context.Context, term string) ([]model.SearchCatalogResult, error) {
	q := url.Values{}
	q.Set("query", term)
	var resp searchResponse
	err := c.get(ctx, "/search/"+string(c.kind), q, &resp)
	security.RecordCatalogRequest(c.Name(), err)
	if err != nil {
		return nil, err
	}
	results := make([]model.SearchCatalogResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, model.SearchCatalogResult{
			CatalogID:   strconv.Itoa(r.ID),
			Name:        firstNonEmpty(r.Title, r.Name),
			ReleaseDate: parseDate(firstNonEmpty(r.ReleaseDate, r.FirstAirDate)),
			ImageURL:    c.imageURL(r.PosterPath),
		})
	}
	return results, nil
}

// Details fetches one entry. Concurrent lookups of the same id share a request.
func (c *Client) Details(ctx context.Context, catalogID string) (*model.CatalogMediaItem, error) {
	if _, err := strconv.Atoi(catalogID); err != nil {
		return nil, fmt.Errorf("%w: %q", catalog.ErrNotFound, catalogID)
	}
	v, err, _ := c.group.Do(catalogID, func() (any, error) {
		q := url.Values{}
		if c.kind == KindMovie {
			q.Set("append_to_response", "credits")
		}
		var resp detailsResponse
		err := c.get(ctx, "/"+string(c.kind)+"/"+catalogID, q, &resp)
		security.RecordCatalogRequest(c.Name(), err)
		if err != nil {
			return nil, err
		}
		return c.toItem(&resp), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.CatalogMediaItem), nil
}

func (c *Client) toItem(d *detailsResponse) *model.CatalogMediaItem {
	item := &model.CatalogMediaItem{
		CatalogID:   strconv.Itoa(d.ID),
		Name:        firstNonEmpty(d.Title, d.Name),
		Description: d.Overview,
		ReleaseDate: parseDate(firstNonEmpty(d.ReleaseDate, d.FirstAirDate)),
		ImageURL:    c.imageURL(d.PosterPath),
	}
	for _, g := range d.Genres {
		item.Genres = append(item.Genres, g.Name)
	}

	switch c.kind {
	case KindMovie:
		item.Duration = d.Runtime
		for _, member := range d.Credits.Crew {
			if member.Job == "Director" {
				item.Directors = append(item.Directors, member.Name)
			}
		}
	case KindTv:
		for _, creator := range d.CreatedBy {
			item.Creators = append(item.Creators, creator.Name)
		}
		if len(d.EpisodeRunTime) > 0 {
			total := 0
			for _, r := range d.EpisodeRunTime {
				total += r
			}
			item.AverageEpisodeRuntime = total / len(d.EpisodeRunTime)
		}
		item.EpisodesNumber = d.NumberOfEpisodes
		item.SeasonsNumber = d.NumberOfSeasons
		item.InProduction = d.InProduction
		if d.NextEpisodeToAir != nil {
			item.NextEpisodeAirDate = parseDate(d.NextEpisodeToAir.AirDate)
		}
		for _, s := range d.Seasons {
			// Season 0 holds specials.
			if s.SeasonNumber == 0 {
				continue
			}
			item.Seasons = append(item.Seasons, model.TvShowSeason{Number: s.SeasonNumber, EpisodesNumber: s.EpisodeCount})
		}
	}
	return item
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if c.opts.Language != "" {
		q.Set("language", c.opts.Language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: tmdb %s", catalog.ErrNotFound, path)
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tmdb %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tmdb %s: decode: %w", path, err)
	}
	return nil
}

func (c *Client) imageURL(path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(c.opts.ImageBaseURL, "/") + path
}

func parseDate(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Providers returns the movie and tv providers configured by cfg, or nil when
// no TMDB token is set.
func Providers(cfg *config.Config) map[model.MediaType]catalog.Provider {
	if !cfg.CatalogEnabled() {
		return nil
	}
	opts := Options{
		BaseURL:           cfg.TMDBBaseURL,
		ImageBaseURL:      cfg.TMDBImageBaseURL,
		Token:             strings.TrimSpace(cfg.TMDBToken),
		Language:          cfg.TMDBLanguage,
		Timeout:           cfg.CatalogTimeout,
		RequestsPerSecond: cfg.TMDBRequestsPerSecond,
	}
	return map[model.MediaType]catalog.Provider{
		model.MediaTypeMovie:  New(KindMovie, opts),
		model.MediaTypeTvShow: New(KindTv, opts),
	}
}
