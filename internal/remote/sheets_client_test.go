package remote

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go-catalogue-ws/internal/rows"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	values     map[string][][]string
	appended   [][]string
	tokenCalls int32
	key        *rsa.PublicKey
	t          *testing.T
}

func (f *fakeSheets) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		if !assert.NoError(f.t, r.ParseForm()) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assertion := r.PostForm.Get("assertion")
		tok, err := jwt.Parse(assertion, func(*jwt.Token) (interface{}, error) { return f.key, nil },
			jwt.WithValidMethods([]string{"RS256"}))
		if err != nil || !tok.Valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		claims := tok.Claims.(jwt.MapClaims)
		assert.Equal(f.t, "svc@example.iam", claims["iss"])
		assert.Equal(f.t, sheetsScope, claims["scope"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok-1", "expires_in": 3600})
	})
	mux.HandleFunc("/sheet-1/values/", func(w http.ResponseWriter, r *http.Request) {
		rng := strings.TrimPrefix(r.URL.Path, "/sheet-1/values/")
		if strings.HasSuffix(rng, ":append") {
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var body struct {
				Values [][]string `json:"values"`
			}
			if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.appended = append(f.appended, body.Values...)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"updates": map[string]int{"updatedRows": len(body.Values)}})
			return
		}
		if r.URL.Query().Get("key") == "" && r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		sheet := rng
		if i := strings.Index(rng, "!"); i >= 0 {
			sheet = rng[:i]
		}
		vals := f.values[sheet]
		if strings.HasSuffix(rng, "!1:1") && len(vals) > 0 {
			vals = vals[:1]
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"values": vals})
	})
	return mux
}

func newRSAKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return key, string(pemKey)
}

func TestSheetsClient_GetAll(t *testing.T) {
	fake := &fakeSheets{t: t, values: map[string][][]string{
		"Products":   {{"id", "name", "price"}, {"1", "Saree A", "500"}, {"2", "Saree B"}},
		"Categories": {{"id", "name"}},
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := NewSheetsClient(SheetsConfig{SheetID: "sheet-1", APIKey: "k", BaseURL: srv.URL}, nil)

	got, err := c.GetAll(context.Background(), rows.SheetProducts)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rows.Row{"id": "2", "name": "Saree B", "price": ""}, got[1])

	empty, err := c.GetAll(context.Background(), rows.SheetCategories)
	require.NoError(t, err)
	assert.Empty(t, empty)

	missing, err := c.GetAll(context.Background(), rows.SheetClusters)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSheetsClient_AppendWithServiceAccount(t *testing.T) {
	key, pemKey := newRSAKey(t)
	fake := &fakeSheets{t: t, key: &key.PublicKey, values: map[string][][]string{
		"Users": {{"uid", "email", "name", "role", "createdAt"}},
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := NewSheetsClient(SheetsConfig{
		SheetID:             "sheet-1",
		ServiceAccountEmail: "svc@example.iam",
		PrivateKeyPEM:       `"` + strings.ReplaceAll(pemKey, "\n", `\n`) + `"`,
		BaseURL:             srv.URL,
		TokenURL:            srv.URL + "/token",
	}, nil)

	res, err := c.Append(context.Background(), rows.SheetUsers, rows.Row{"email": "a@b.c", "uid": "u1", "role": "retailer"})
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	require.Len(t, fake.appended, 1)
	assert.Equal(t, []string{"u1", "a@b.c", "", "retailer", ""}, fake.appended[0])

	_, err = c.Append(context.Background(), rows.SheetUsers, rows.Row{"email": "d@e.f"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.tokenCalls), "token should be cached")
}

func TestSheetsClient_NotConfigured(t *testing.T) {
	c := NewSheetsClient(SheetsConfig{SheetID: "sheet-1"}, nil)
	_, err := c.GetAll(context.Background(), rows.SheetProducts)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.Append(context.Background(), rows.SheetUsers, rows.Row{})
	assert.ErrorIs(t, err, ErrNoServiceAccount)
}

func TestRecordsFromValues(t *testing.T) {
	assert.Empty(t, recordsFromValues(nil))
	assert.Empty(t, recordsFromValues([][]string{{"id"}}))
	assert.Len(t, recordsFromValues([][]string{{"id"}, {"1"}, {"2"}}), 2)
}
