package seasonrun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
)

// HTTPClient wraps http.Client with JSON helpers for the matchday API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends body as JSON and decodes the response into out when the status
// is one of want.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, want ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if !statusIn(resp.StatusCode, want) {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusIn(status int, want []int) bool {
	for _, w := range want {
		if status == w {
			return true
		}
	}
	return false
}

// Health checks that the service answers on /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

// PutClub stores a club.
func (c *HTTPClient) PutClub(ctx context.Context, club model.Club) error {
	return c.do(ctx, http.MethodPut, "/clubs/"+url.PathEscape(club.ID), club, nil, http.StatusOK)
}

// ScheduleSeason queues a double round robin.
func (c *HTTPClient) ScheduleSeason(ctx context.Context, competitionID string, clubIDs []string) (Season, error) {
	var season Season
	body := map[string][]string{"club_ids": clubIDs}
	err := c.do(ctx, http.MethodPost, "/competitions/"+url.PathEscape(competitionID)+"/season", body, &season, http.StatusAccepted)
	return season, err
}

// Standings fetches the full table. A competition with no folded result yet
// returns an empty table.
func (c *HTTPClient) Standings(ctx context.Context, competitionID string, limit int) (Table, error) {
	path := "/competitions/" + url.PathEscape(competitionID) + "/standings"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var table Table
	err := c.do(ctx, http.MethodGet, path, nil, &table, http.StatusOK)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return Table{CompetitionID: competitionID}, nil
	}
	return table, err
}

// registerClubs stores clubs concurrently using a worker pool.
func registerClubs(ctx context.Context, client *HTTPClient, clubs []model.Club, workers int) error {
	log := logger.Named("seasonrun")
	log.Info(ctx, "registering clubs", logger.Int("clubs", len(clubs)), logger.Int("workers", workers))

	var (
		wg       sync.WaitGroup
		failed   atomic.Int64
		firstErr error
		once     sync.Once
	)
	clubChan := make(chan model.Club, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for club := range clubChan {
				if err := client.PutClub(ctx, club); err != nil {
					failed.Add(1)
					once.Do(func() { firstErr = err })
				}
			}
		}()
	}

feed:
	for _, club := range clubs {
		select {
		case <-ctx.Done():
			break feed
		case clubChan <- club:
		}
	}
	close(clubChan)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d clubs failed to register: %w", n, len(clubs), firstErr)
	}
	return nil
}
