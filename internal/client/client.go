// Package client issues authenticated HTTP requests against the remote
// store: SQL statements to the query endpoint and JSON requests to the
// telemetry API.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"

	"github.com/vegasq/logq/internal/config"
)

// TelemetryBaseURL is the directory service root.
const TelemetryBaseURL = "https://telemetry.betterstack.com/api/v1"

// DefaultTimeout bounds each network call.
const DefaultTimeout = 30 * time.Second

// Rows larger than the scanner default exist in practice; allow lines up
// to 16 MiB.
const maxLineSize = 16 << 20

// Client talks to the query and telemetry endpoints. The zero value is
// not usable; construct with New.
type Client struct {
	Token        string
	QueryBaseURL string
	TelemetryURL string
	Credentials  config.Credentials
	HTTPClient   *http.Client
	Verbose      bool

	// invocation tags verbose diagnostics so concurrent tails writing to
	// a shared stderr can be told apart.
	invocation string
}

// New builds a client with the default timeout.
func New(token, queryBaseURL string, creds config.Credentials) *Client {
	if queryBaseURL == "" {
		queryBaseURL = config.DefaultQueryBaseURL
	}
	return &Client{
		Token:        token,
		QueryBaseURL: queryBaseURL,
		TelemetryURL: TelemetryBaseURL,
		Credentials:  creds,
		HTTPClient:   &http.Client{Timeout: DefaultTimeout},
		invocation:   uuid.NewString(),
	}
}

// Query executes a finished SQL statement and decodes the
// newline-delimited JSON response.
func (c *Client) Query(ctx context.Context, sql string) ([]Entry, error) {
	if c.Verbose {
		log.Printf("[%s] executing query: %s", c.invocation, sql)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.QueryBaseURL, strings.NewReader(sql))
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	if !c.Credentials.Empty() {
		req.SetBasicAuth(c.Credentials.Username, c.Credentials.Password)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.timeout())
		}
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.queryFailure(resp)
	}

	return decodeRows(resp.Body)
}

// QuerySQL executes a raw SQL statement, appending the JSONEachRow output
// framing when the statement carries no FORMAT clause of its own.
func (c *Client) QuerySQL(ctx context.Context, sql string) ([]Entry, error) {
	if !strings.Contains(strings.ToLower(sql), "format") {
		sql += " FORMAT JSONEachRow"
	}
	return c.Query(ctx, sql)
}

// GetJSON performs an authenticated GET against a telemetry path and
// decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TelemetryURL+path, nil)
	if err != nil {
		return fmt.Errorf("building API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w after %s", ErrTimeout, c.timeout())
		}
		return fmt.Errorf("API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding API response: %w", err)
	}
	return nil
}

func (c *Client) timeout() time.Duration {
	if c.HTTPClient != nil && c.HTTPClient.Timeout > 0 {
		return c.HTTPClient.Timeout
	}
	return DefaultTimeout
}

// queryFailure classifies a non-2xx query response into the auth and
// execution error taxonomy.
func (c *Client) queryFailure(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	if resp.StatusCode == http.StatusBadRequest && strings.Contains(text, "Malformed token") {
		return malformedTokenError()
	}

	authStatus := resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden
	if authStatus || strings.Contains(text, "Authentication failed") {
		if c.Credentials.Empty() {
			return missingCredentialsError()
		}
		return genericAuthError()
	}

	return &QueryError{Status: resp.StatusCode, Body: strings.TrimSpace(text)}
}

// decodeRows reads newline-delimited JSON, skipping blank lines. A line
// that fails to parse, or parses to a non-object, is logged and skipped
// rather than failing the batch.
func decodeRows(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var rows []Entry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := DecodeEntry([]byte(line))
		if err != nil {
			if errors.Is(err, errNotObject) {
				log.Printf("unexpected row payload: %s", line)
			} else {
				log.Printf("failed to parse line: %s", line)
			}
			continue
		}
		rows = append(rows, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return rows, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
