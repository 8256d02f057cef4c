package rincon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// transport executes single HTTP calls against the registry and normalizes
// the outcome: connection failures and timeouts become ConnectionError,
// non-200 statuses are classified into the error taxonomy, and a 200
// response yields the raw body for typed decoding by the caller.
//
// The transport performs exactly one attempt per call. Retry policy, if
// desired, is a caller concern.
type transport struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
}

func newTransport(cfg Config) *transport {
	base := http.DefaultTransport.(*http.Transport).Clone()
	return &transport{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(base),
			Timeout:   cfg.Timeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
	}
}

// do executes one request and returns the response body on HTTP 200.
func (t *transport) do(ctx context.Context, req request) ([]byte, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, NewConnectionError(fmt.Sprintf("request to Rincon timed out: %s", req.path), err)
		}
		return nil, NewConnectionError(fmt.Sprintf("failed to connect to Rincon at %s", t.baseURL), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Sprintf("failed to read response from Rincon at %s", t.baseURL), err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, body)
	}
	return body, nil
}

// buildRequest constructs the *http.Request for one registry call.
func (t *transport) buildRequest(ctx context.Context, req request) (*http.Request, error) {
	url := t.baseURL + "/" + strings.TrimLeft(req.path, "/")

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, NewSessionError(fmt.Sprintf("encode request body: %v", err))
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, url, body)
	if err != nil {
		return nil, NewSessionError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	if req.auth {
		httpReq.SetBasicAuth(t.username, t.password)
	}

	return httpReq, nil
}

// close releases idle connections held by the underlying client.
func (t *transport) close() {
	t.httpClient.CloseIdleConnections()
}

// isTimeout reports whether a request failure was a timeout rather than a
// connection-level failure.
func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
