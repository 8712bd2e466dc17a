package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go-catalogue-ws/internal/rows"
	"go-catalogue-ws/pkg/metrics"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// FacadeConfig configures the action-based HTTP facade in front of the
// spreadsheet.
type FacadeConfig struct {
	URL       string
	APIKey    string // sent as "Authorization: Bearer" and "apikey" when set
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
}

// FacadeClient implements RowService against the facade's
// {action, sheet} protocol.
type FacadeClient struct {
	baseClient
	url    string
	apiKey string
	group  singleflight.Group
}

func NewFacadeClient(cfg FacadeConfig, log *zap.Logger) *FacadeClient {
	return &FacadeClient{
		baseClient: newBaseClient("facade", cfg.Timeout, cfg.RateLimit, log),
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
	}
}

type facadeRequest struct {
	Action string   `json:"action"`
	Sheet  string   `json:"sheet"`
	Data   rows.Row `json:"data,omitempty"`
}

type facadeResponse struct {
	Data        []map[string]interface{} `json:"data"`
	Success     bool                     `json:"success"`
	Confirmed   bool                     `json:"confirmed"`
	UpdatedRows int                      `json:"updatedRows"`
	Message     string                   `json:"message"`
	Error       string                   `json:"error"`
}

func (c *FacadeClient) headers() http.Header {
	h := http.Header{}
	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
		h.Set("apikey", c.apiKey)
	}
	return h
}

// GetAll fetches a sheet. Concurrent fetches of the same sheet share one
// request.
func (c *FacadeClient) GetAll(ctx context.Context, sheet string) ([]rows.Row, error) {
	if err := checkSheet(sheet); err != nil {
		return nil, err
	}
	if c.url == "" {
		return nil, ErrNotConfigured
	}

	return c.sharedFetch(ctx, &c.group, sheet, func(ctx context.Context) ([]rows.Row, error) {
		start := time.Now()
		var resp facadeResponse
		err := c.doJSON(ctx, http.MethodPost, c.url, facadeRequest{Action: "getAll", Sheet: sheet}, &resp, c.headers())
		if err == nil && resp.Error != "" {
			err = fmt.Errorf("row service: %s", resp.Error)
		}
		metrics.RecordRemote(c.backend, "getAll", err, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("getAll %s: %w", sheet, err)
		}
		return stringRows(resp.Data), nil
	})
}

// Append posts an append action. The facade may accept the data without
// writing it, so the result is Confirmed only when the response says so.
func (c *FacadeClient) Append(ctx context.Context, sheet string, row rows.Row) (AppendResult, error) {
	if err := checkSheet(sheet); err != nil {
		return AppendResult{}, err
	}
	if c.url == "" {
		return AppendResult{}, ErrNotConfigured
	}

	start := time.Now()
	var resp facadeResponse
	err := c.doJSON(ctx, http.MethodPost, c.url, facadeRequest{Action: "append", Sheet: sheet, Data: row}, &resp, c.headers())
	if err == nil && resp.Error != "" {
		err = fmt.Errorf("row service: %s", resp.Error)
	}
	metrics.RecordRemote(c.backend, "append", err, time.Since(start))
	if err != nil {
		return AppendResult{}, fmt.Errorf("append %s: %w", sheet, err)
	}

	result := AppendResult{
		Confirmed: resp.Confirmed || resp.UpdatedRows > 0,
		Message:   resp.Message,
	}
	if !result.Confirmed {
		c.log.Warn("append accepted without confirmation", zap.String("sheet", sheet), zap.String("message", resp.Message))
	}
	return result, nil
}

// stringRows coerces every cell to a string; some facades emit numbers and
// booleans for typed cells.
func stringRows(data []map[string]interface{}) []rows.Row {
	out := make([]rows.Row, 0, len(data))
	for _, m := range data {
		r := make(rows.Row, len(m))
		for k, v := range m {
			if v == nil {
				r[k] = ""
				continue
			}
			r[k] = cast.ToString(v)
		}
		out = append(out, r)
	}
	return out
}
