package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go-catalogue-ws/internal/rows"
	"go-catalogue-ws/pkg/metrics"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultSheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	defaultTokenURL      = "https://oauth2.googleapis.com/token"
	sheetsScope          = "https://www.googleapis.com/auth/spreadsheets"
)

var ErrNoServiceAccount = errors.New("service account credentials are not configured")

// SheetsConfig configures direct access to the Google Sheets values API.
// Reads use the API key when present, otherwise a service account token.
// Writes always need the service account.
type SheetsConfig struct {
	SheetID             string
	APIKey              string
	ServiceAccountEmail string
	PrivateKeyPEM       string
	BaseURL             string
	TokenURL            string
	Timeout             time.Duration
	RateLimit           float64
}

// SheetsClient implements RowService on the spreadsheet itself, turning
// the first row of each sheet into column headers.
type SheetsClient struct {
	baseClient
	cfg   SheetsConfig
	group singleflight.Group

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

func NewSheetsClient(cfg SheetsConfig, log *zap.Logger) *SheetsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSheetsBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	cfg.PrivateKeyPEM = normalizePrivateKey(cfg.PrivateKeyPEM)
	return &SheetsClient{
		baseClient: newBaseClient("sheets", cfg.Timeout, cfg.RateLimit, log),
		cfg:        cfg,
		now:        time.Now,
	}
}

// normalizePrivateKey undoes the usual damage done to PEM keys stored in
// environment variables: literal "\n" sequences and surrounding quotes.
func normalizePrivateKey(key string) string {
	key = strings.ReplaceAll(key, `\n`, "\n")
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"'`)
	return key
}

func (c *SheetsClient) hasServiceAccount() bool {
	return c.cfg.ServiceAccountEmail != "" && c.cfg.PrivateKeyPEM != ""
}

type valuesResponse struct {
	Values [][]interface{} `json:"values"`
}

type appendResponse struct {
	Updates struct {
		UpdatedRows int `json:"updatedRows"`
	} `json:"updates"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *SheetsClient) valuesURL(rng string, query url.Values) string {
	u := fmt.Sprintf("%s/%s/values/%s", strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.SheetID), url.PathEscape(rng))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *SheetsClient) readAuth(ctx context.Context) (url.Values, http.Header, error) {
	query := url.Values{}
	header := http.Header{}
	if c.cfg.APIKey != "" {
		query.Set("key", c.cfg.APIKey)
		return query, header, nil
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, nil, err
	}
	header.Set("Authorization", "Bearer "+token)
	return query, header, nil
}

func (c *SheetsClient) readValues(ctx context.Context, rng string) ([][]string, error) {
	query, header, err := c.readAuth(ctx)
	if err != nil {
		return nil, err
	}
	var resp valuesResponse
	if err := c.doJSON(ctx, http.MethodGet, c.valuesURL(rng, query), nil, &resp, header); err != nil {
		return nil, err
	}
	out := make([][]string, len(resp.Values))
	for i, record := range resp.Values {
		out[i] = make([]string, len(record))
		for j, cell := range record {
			out[i][j] = cast.ToString(cell)
		}
	}
	return out, nil
}

// GetAll reads a whole sheet. The first row supplies the headers; a sheet
// without at least one record returns an empty slice.
func (c *SheetsClient) GetAll(ctx context.Context, sheet string) ([]rows.Row, error) {
	if err := checkSheet(sheet); err != nil {
		return nil, err
	}
	if c.cfg.SheetID == "" || (c.cfg.APIKey == "" && !c.hasServiceAccount()) {
		return nil, ErrNotConfigured
	}

	return c.sharedFetch(ctx, &c.group, sheet, func(ctx context.Context) ([]rows.Row, error) {
		start := time.Now()
		values, err := c.readValues(ctx, sheet)
		metrics.RecordRemote(c.backend, "getAll", err, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("getAll %s: %w", sheet, err)
		}
		return recordsFromValues(values), nil
	})
}

func recordsFromValues(values [][]string) []rows.Row {
	if len(values) < 2 {
		return []rows.Row{}
	}
	header := values[0]
	out := make([]rows.Row, 0, len(values)-1)
	for _, record := range values[1:] {
		out = append(out, rows.FromValues(header, record))
	}
	return out
}

// Append inserts one row with a service account token. Cells are ordered
// by the sheet's header row, or by the canonical columns when the sheet
// has no header yet. A successful response that reports updated rows is
// Confirmed.
func (c *SheetsClient) Append(ctx context.Context, sheet string, row rows.Row) (AppendResult, error) {
	if err := checkSheet(sheet); err != nil {
		return AppendResult{}, err
	}
	if c.cfg.SheetID == "" {
		return AppendResult{}, ErrNotConfigured
	}
	if !c.hasServiceAccount() {
		return AppendResult{}, ErrNoServiceAccount
	}

	start := time.Now()
	result, err := c.appendRow(ctx, sheet, row)
	metrics.RecordRemote(c.backend, "append", err, time.Since(start))
	if err != nil {
		return AppendResult{}, fmt.Errorf("append %s: %w", sheet, err)
	}
	return result, nil
}

func (c *SheetsClient) appendRow(ctx context.Context, sheet string, row rows.Row) (AppendResult, error) {
	header := rows.Columns(sheet)
	if values, err := c.readValues(ctx, sheet+"!1:1"); err == nil && len(values) > 0 && len(values[0]) > 0 {
		header = values[0]
	} else if err != nil {
		c.log.Debug("header lookup failed, using canonical columns", zap.String("sheet", sheet), zap.Error(err))
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return AppendResult{}, err
	}

	query := url.Values{}
	query.Set("valueInputOption", "USER_ENTERED")
	query.Set("insertDataOption", "INSERT_ROWS")
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+token)

	body := map[string]interface{}{"values": [][]string{row.Values(header)}}
	var resp appendResponse
	if err := c.doJSON(ctx, http.MethodPost, c.valuesURL(sheet+"!A1:append", query), body, &resp, hdr); err != nil {
		return AppendResult{}, err
	}
	return AppendResult{
		Confirmed: resp.Updates.UpdatedRows > 0,
		Message:   fmt.Sprintf("%d row(s) appended to %s", resp.Updates.UpdatedRows, sheet),
	}, nil
}

// accessToken exchanges a self-signed service account assertion for an
// OAuth access token, cached until shortly before it expires.
func (c *SheetsClient) accessToken(ctx context.Context) (string, error) {
	if !c.hasServiceAccount() {
		return "", ErrNoServiceAccount
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if c.token != "" && now.Before(c.tokenExpiry) {
		return c.token, nil
	}

	assertion, err := c.signAssertion(now)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp tokenResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", errors.New("access token missing in response")
	}

	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	c.token = resp.AccessToken
	c.tokenExpiry = now.Add(ttl - time.Minute)
	return c.token, nil
}

func (c *SheetsClient) signAssertion(now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.cfg.PrivateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("invalid service account key: %w", err)
	}
	claims := jwt.MapClaims{
		"iss":   c.cfg.ServiceAccountEmail,
		"sub":   c.cfg.ServiceAccountEmail,
		"scope": sheetsScope,
		"aud":   c.cfg.TokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}
