// Package backend implements the relay's BackendNotifier: it reports
// resolved decisions to the trip backend over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/InnoCoGo/Telegram-Bot/internal/models"
)

const reportPath = "/api/v1/user/join_trip/res"

// Client posts decision reports to the backend. Calls are bounded by the
// HTTP client timeout and never retried; a lost report is logged by the
// caller and dropped.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a backend client authenticated with the shared secret.
func NewClient(baseURL, secret string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// ReportDecision posts the final decision for a join request.
func (c *Client) ReportDecision(ctx context.Context, tripID, askerInternalID int64, accepted bool) error {
	report := models.DecisionReport{
		TripID:          tripID,
		AskerInternalID: askerInternalID,
		SecretToken:     c.secret,
		Accepted:        accepted,
	}
	body, err := json.Marshal(report)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+reportPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	c.logger.Info().
		Int("status", resp.StatusCode).
		Str("response", string(respBody)).
		Msg("decision reported to backend")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend: decision report rejected with status %d", resp.StatusCode)
	}
	return nil
}
