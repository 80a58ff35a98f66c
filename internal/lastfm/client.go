package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"hexfm/internal/config"
	"hexfm/internal/logging"
)

const userAgent = "hexfm/0.1"

// requestsPerSecond paces API calls; last.fm asks clients to stay under 5/s.
const requestsPerSecond = 4

// Track is one play from the remote feed. PlayedAt is a unix timestamp.
type Track struct {
	Artist   string
	Album    string
	Name     string
	PlayedAt int64
}

// Page is one page of the recent-tracks feed with its pagination envelope.
type Page struct {
	Tracks     []Track
	Page       int
	TotalPages int
}

// Client talks to the last.fm web API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New builds a client from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.Lastfm.BaseURL,
		apiKey:     cfg.Account.LastfmAPIKey,
		pageSize:   cfg.Lastfm.PageSize,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     logging.WithComponent(logger, "lastfm"),
	}
}

// RecentTracks fetches one page of the user's recent tracks. A from of zero
// means no lower bound; a limit of zero leaves the API's default page size.
// Rows still playing (no timestamp) are dropped.
func (c *Client) RecentTracks(ctx context.Context, user string, page, limit int, from int64) (Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("method", "user.getRecentTracks")
	params.Set("user", user)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("page", strconv.Itoa(page))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if from > 0 {
		params.Set("from", strconv.FormatInt(from, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch recent tracks: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Page{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorPayload
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return Page{}, fmt.Errorf("last.fm error %d: %s", apiErr.Code, apiErr.Message)
		}
		return Page{}, fmt.Errorf("last.fm status %d", resp.StatusCode)
	}

	var payload recentTracksPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Page{}, fmt.Errorf("decode recent tracks: %w", err)
	}

	result := Page{
		Page:       payload.RecentTracks.Attr.Page.value(),
		TotalPages: payload.RecentTracks.Attr.TotalPages.value(),
	}
	for _, item := range payload.RecentTracks.Track {
		if item.Date == nil {
			// Now-playing entry, not a completed scrobble.
			continue
		}
		playedAt, err := strconv.ParseInt(item.Date.UTS, 10, 64)
		if err != nil {
			c.logger.Warn("skipping track with bad timestamp", "track", item.Name, "uts", item.Date.UTS)
			continue
		}
		result.Tracks = append(result.Tracks, Track{
			Artist:   item.Artist.Text,
			Album:    item.Album.Text,
			Name:     item.Name,
			PlayedAt: playedAt,
		})
	}
	return result, nil
}

// PullSince fetches every completed scrobble newer than the cursor. When the
// cursored pull is shallow it additionally backfills the newest uncursored
// pages up to page four, so scrobbles the feed reordered near the cursor are
// still seen; content hashing downstream absorbs the overlap. A page failure
// stops pagination but returns everything fetched so far alongside the error,
// so callers can keep the completed pages.
func (c *Client) PullSince(ctx context.Context, user string, sinceUTS int64) ([]Track, error) {
	var tracks []Track

	page, totalPages := 1, 1
	for page <= totalPages {
		fetched, err := c.RecentTracks(ctx, user, page, c.pageSize, sinceUTS)
		if err != nil {
			return tracks, fmt.Errorf("page %d: %w", page, err)
		}
		if fetched.TotalPages > 0 {
			totalPages = fetched.TotalPages
		}
		tracks = append(tracks, fetched.Tracks...)
		page++
	}

	if totalPages <= 3 {
		for backfill := totalPages; backfill <= 4; backfill++ {
			fetched, err := c.RecentTracks(ctx, user, backfill, 0, 0)
			if err != nil {
				return tracks, fmt.Errorf("backfill page %d: %w", backfill, err)
			}
			tracks = append(tracks, fetched.Tracks...)
		}
	}

	c.logger.Info("pulled recent tracks", "user", user, "since", sinceUTS, "tracks", len(tracks))
	return tracks, nil
}

type recentTracksPayload struct {
	RecentTracks struct {
		Track []trackPayload `json:"track"`
		Attr  pageAttr       `json:"@attr"`
	} `json:"recenttracks"`
}

type trackPayload struct {
	Artist textField `json:"artist"`
	Album  textField `json:"album"`
	Name   string    `json:"name"`
	Date   *struct {
		UTS string `json:"uts"`
	} `json:"date"`
}

type textField struct {
	Text string `json:"#text"`
}

// numeric tolerates last.fm's habit of returning pagination counters as
// strings.
type numeric string

func (n numeric) value() int {
	v, err := strconv.Atoi(string(n))
	if err != nil {
		return 0
	}
	return v
}

func (n *numeric) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*n = numeric(asString)
		return nil
	}
	var asInt int64
	if err := json.Unmarshal(data, &asInt); err != nil {
		return err
	}
	*n = numeric(strconv.FormatInt(asInt, 10))
	return nil
}

type pageAttr struct {
	Page       numeric `json:"page"`
	TotalPages numeric `json:"totalPages"`
}

type errorPayload struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}
