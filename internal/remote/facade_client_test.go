package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-catalogue-ws/internal/rows"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFacadeServer(t *testing.T, handler func(req facadeRequest) (int, interface{})) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req facadeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestFacadeClient_GetAll(t *testing.T) {
	srv, _ := newFacadeServer(t, func(req facadeRequest) (int, interface{}) {
		assert.Equal(t, "getAll", req.Action)
		assert.Equal(t, rows.SheetProducts, req.Sheet)
		return http.StatusOK, map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "1", "name": "Saree A", "price": 500, "available": true},
				{"id": "2", "name": "Saree B", "price": "1500", "images": nil},
			},
		}
	})

	c := NewFacadeClient(FacadeConfig{URL: srv.URL}, nil)
	got, err := c.GetAll(context.Background(), rows.SheetProducts)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "500", got[0]["price"])
	assert.Equal(t, "true", got[0]["available"])
	assert.Equal(t, "", got[1]["images"])
}

func TestFacadeClient_Errors(t *testing.T) {
	srv, _ := newFacadeServer(t, func(req facadeRequest) (int, interface{}) {
		return http.StatusInternalServerError, map[string]string{"error": "Missing Google Sheets configuration"}
	})
	c := NewFacadeClient(FacadeConfig{URL: srv.URL}, nil)

	_, err := c.GetAll(context.Background(), rows.SheetUsers)
	require.Error(t, err)
	var statusErr *StatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)

	_, err = c.GetAll(context.Background(), "Orders")
	assert.ErrorIs(t, err, ErrUnknownSheet)

	_, err = NewFacadeClient(FacadeConfig{}, nil).GetAll(context.Background(), rows.SheetUsers)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFacadeClient_AppendIsAdvisory(t *testing.T) {
	tests := []struct {
		name      string
		response  map[string]interface{}
		confirmed bool
	}{
		{
			name:      "accepted without write",
			response:  map[string]interface{}{"success": true, "message": "Write operations require OAuth setup"},
			confirmed: false,
		},
		{
			name:      "explicit confirmation",
			response:  map[string]interface{}{"success": true, "confirmed": true},
			confirmed: true,
		},
		{
			name:      "updated rows reported",
			response:  map[string]interface{}{"success": true, "updatedRows": 1},
			confirmed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newFacadeServer(t, func(req facadeRequest) (int, interface{}) {
				assert.Equal(t, "append", req.Action)
				assert.Equal(t, "a@b.c", req.Data["email"])
				return http.StatusOK, tt.response
			})
			c := NewFacadeClient(FacadeConfig{URL: srv.URL}, nil)
			res, err := c.Append(context.Background(), rows.SheetUsers, rows.Row{"email": "a@b.c"})
			require.NoError(t, err)
			assert.Equal(t, tt.confirmed, res.Confirmed)
		})
	}
}

func TestFacadeClient_ConcurrentFetchesShareRequest(t *testing.T) {
	release := make(chan struct{})
	srv, calls := newFacadeServer(t, func(req facadeRequest) (int, interface{}) {
		<-release
		return http.StatusOK, map[string]interface{}{"data": []map[string]string{{"id": "1"}}}
	})
	c := NewFacadeClient(FacadeConfig{URL: srv.URL, Timeout: 5 * time.Second}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.GetAll(context.Background(), rows.SheetCategories)
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(calls), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(calls), int32(1))
}

func TestUnconfigured(t *testing.T) {
	var svc RowService = Unconfigured{}
	_, err := svc.GetAll(context.Background(), rows.SheetProducts)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = svc.Append(context.Background(), rows.SheetUsers, rows.Row{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFacadeClient_SharedFetchSurvivesCancelledCaller(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv, _ := newFacadeServer(t, func(req facadeRequest) (int, interface{}) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		return http.StatusOK, map[string]interface{}{
			"data": []map[string]interface{}{{"email": "a@example.com", "role": "admin"}},
		}
	})
	c := NewFacadeClient(FacadeConfig{URL: srv.URL, Timeout: 5 * time.Second}, nil)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetAll(first, rows.SheetUsers)
		firstErr <- err
	}()
	<-arrived
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	var (
		wg  sync.WaitGroup
		got []rows.Row
		err error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		got, err = c.GetAll(context.Background(), rows.SheetUsers)
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "admin", got[0]["role"])
}
