package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/linguamate/server/config"
	"github.com/linguamate/server/social"
	"go.uber.org/zap"
)

// request is the wire shape sent to the scoring service.
type request struct {
	ID       int64                     `json:"id"`
	Profiles []social.CandidateProfile `json:"profiles"`
}

// response is the wire shape returned by the scoring service. Scores are
// keyed by candidate ID (JSON object keys are strings).
type response struct {
	Data struct {
		Scores map[string]float64 `json:"scores"`
	} `json:"data"`
}

// Client calls the external similarity scoring service. Every failure
// mode — transport error, non-2xx status, unparseable or empty payload —
// surfaces as social.ErrUpstream so the caller knows no usable scores
// exist and leaves its cache alone.
type Client struct {
	url    string
	hc     *http.Client
	logger *zap.Logger
}

// NewClient creates a scorer Client with a bounded request timeout.
func NewClient(cfg config.RecommendConfig, logger *zap.Logger) *Client {
	return &Client{
		url:    cfg.ScorerURL,
		hc:     &http.Client{Timeout: cfg.ScorerTimeout},
		logger: logger,
	}
}

// Score submits the owner and candidate profiles and returns the
// similarity score per candidate ID.
func (c *Client) Score(ctx context.Context, ownerID int64, profiles []social.CandidateProfile) (map[int64]float64, error) {
	body, err := json.Marshal(request{ID: ownerID, Profiles: profiles})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", social.ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", social.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", social.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("scorer returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.Int64("owner_id", ownerID))
		return nil, fmt.Errorf("%w: status %d", social.ErrUpstream, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", social.ErrUpstream, err)
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", social.ErrUpstream, err)
	}
	if len(parsed.Data.Scores) == 0 {
		return nil, fmt.Errorf("%w: missing score map", social.ErrUpstream)
	}

	scores := make(map[int64]float64, len(parsed.Data.Scores))
	for key, score := range parsed.Data.Scores {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed candidate id %q", social.ErrUpstream, key)
		}
		scores[id] = score
	}
	return scores, nil
}
