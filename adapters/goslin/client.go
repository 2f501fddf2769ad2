package goslin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nilshoffmann/iSLS10/domain/annotation"
	"github.com/nilshoffmann/iSLS10/internal/errors"
)

// Client calls the goslin REST service to standardize lipid names.
// The service is invoked once per pipeline run with the full
// deduplicated name set; there is no per-name retry, a failed or
// malformed response fails the whole normalization stage.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a goslin client with an explicit request timeout.
// The upstream service imposes no guard of its own, so the timeout is
// mandatory here.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type parseRequest struct {
	LipidNames []string `json:"lipidNames"`
	Grammar    string   `json:"grammar"`
}

// ParseNames submits the name set against the given nomenclature
// grammar. The returned annotations cover a subset of the submitted
// names; the caller is responsible for diffing against its input.
func (c *Client) ParseNames(ctx context.Context, names []string, grammar string) ([]annotation.Annotation, error) {
	if len(names) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(parseRequest{LipidNames: names, Grammar: grammar})
	if err != nil {
		return nil, errors.ParserServiceError(fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.ParserServiceError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ParserServiceError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ParserServiceError(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.ParserServiceError(fmt.Errorf("service returned status %d: %s", resp.StatusCode, string(body)))
	}

	var results []annotation.Annotation
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, errors.ParserServiceError(fmt.Errorf("malformed response: %w", err))
	}

	// The grammar may evolve between service versions; never assume
	// the mapping is stable across runs, only within this response.
	return results, nil
}
