package spam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var errClassifierUnavailable = errors.New("moderation classifier unavailable")

// ClassifierClient calls an external moderation endpoint. Any failure,
// timeout or malformed response is reported as errClassifierUnavailable
// so that the caller falls back to the heuristic.
type ClassifierClient struct {
	endpoint string
	token    string
	client   http.Client
}

func NewClassifierClient(endpoint string, token string, timeout time.Duration) *ClassifierClient {
	return &ClassifierClient{
		endpoint: endpoint,
		token:    token,
		client: http.Client{
			Timeout: timeout,
		},
	}
}

type classifierRequest struct {
	Input string `json:"input"`
}

type classifierResponse struct {
	Results []classifierResult `json:"results"`
}

type classifierResult struct {
	CategoryScores map[string]float64 `json:"category_scores"`
}

// SpamScore submits text once and returns the per-category spam score.
func (s *ClassifierClient) SpamScore(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(classifierRequest{Input: text})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")

	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errClassifierUnavailable, err)
	}

	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("%w: status %d", errClassifierUnavailable, res.StatusCode)
	}

	var decoded classifierResponse

	err = json.NewDecoder(res.Body).Decode(&decoded)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errClassifierUnavailable, err)
	}

	if len(decoded.Results) == 0 {
		return 0, fmt.Errorf("%w: empty results", errClassifierUnavailable)
	}

	score, ok := decoded.Results[0].CategoryScores["spam"]
	if !ok {
		return 0, fmt.Errorf("%w: no spam category", errClassifierUnavailable)
	}

	return score, nil
}
