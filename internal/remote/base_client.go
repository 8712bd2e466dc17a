package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-catalogue-ws/internal/rows"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-OK status: %d: %s", e.Code, e.Body)
}

// baseClient is the JSON-over-HTTP transport shared by the row service
// clients. Every request waits on the limiter first.
type baseClient struct {
	backend string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func newBaseClient(backend string, timeout time.Duration, rps float64, log *zap.Logger) baseClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return baseClient{
		backend: backend,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     log.With(zap.String("backend", backend)),
	}
}

// sharedFetch runs fetch once for concurrent callers of the same key. The
// fetch runs detached from any one caller's cancellation, bounded by the
// client timeout; a caller whose ctx ends returns early without failing
// the others.
func (c *baseClient) sharedFetch(ctx context.Context, g *singleflight.Group, key string, fetch func(context.Context) ([]rows.Row, error)) ([]rows.Row, error) {
	ch := g.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.client.Timeout)
		defer cancel()
		return fetch(fctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]rows.Row), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *baseClient) do(ctx context.Context, req *http.Request, response interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("request was cancelled: %w", ctx.Err())
		default:
			return fmt.Errorf("failed to execute request: %w", err)
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > 512 {
			body = body[:512]
		}
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if response == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *baseClient) doJSON(ctx context.Context, method, url string, requestBody, response interface{}, header http.Header) error {
	var bodyBytes []byte
	if requestBody != nil {
		var err error
		bodyBytes, err = json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(ctx, req, response)
}
