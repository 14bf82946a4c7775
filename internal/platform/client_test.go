package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) *Client {
	t.Helper()
	c, err := NewClient(Config{
		ProjectKey: "proj",
		APIURL:     srv.URL,
		HTTPClient: srv.Client(),
		Retry:      RetryConfig{MaxRetries: retries, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond},
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{ProjectKey: "p"})
	assert.Error(t, err)
	_, err = NewClient(Config{APIURL: "http://x"})
	assert.Error(t, err)
	_, err = NewClient(Config{APIURL: "http://x", ProjectKey: "p", ClientID: "id"})
	assert.Error(t, err, "client credentials need an auth url")
}

func TestEndpoint_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/proj/products", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("withTotal"))
		assert.Equal(t, "id asc", r.URL.Query().Get("sort"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("X-Correlation-ID"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{"limit":20,"offset":0,"count":1,"results":[{"id":"a","key":"k","version":3}]}`)
	}))
	defer srv.Close()

	page, err := newTestClient(t, srv, 0).Endpoint("products").Get(context.Background(), Query{Sort: []string{"id asc"}, Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "a", page.Results[0].ID())
	assert.Equal(t, "k", page.Results[0].Key())
	assert.Equal(t, int64(3), page.Results[0].Version())
	assert.Nil(t, page.Total)
}

func TestEndpoint_UpdateAndDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/proj/types/key=my-type", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(2), body["version"])
			_, _ = io.WriteString(w, `{"id":"t1","version":3}`)
		case http.MethodDelete:
			assert.Equal(t, "/proj/types/key=my-type", r.URL.Path)
			assert.Equal(t, "3", r.URL.Query().Get("version"))
			_, _ = io.WriteString(w, `{"id":"t1","version":3}`)
		}
	}))
	defer srv.Close()

	ep := newTestClient(t, srv, 0).Endpoint("types")
	res, err := ep.UpdateByKey(context.Background(), "my-type", 2, []map[string]any{{"action": "changeName"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Version())

	_, err = ep.DeleteByKey(context.Background(), "my-type", 3)
	require.NoError(t, err)
}

func TestClient_RetriesOn429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"id":"x"}`)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, 3).Endpoint("products").GetByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", res.ID())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_NoRetryOn400(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"statusCode":400,"message":"bad where","errors":[{"code":"InvalidInput","message":"bad where"}]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Endpoint("products").Get(context.Background(), Query{Where: "bad"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad where", apiErr.Message)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "InvalidInput", apiErr.Errors[0].Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAllow404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ep := newTestClient(t, srv, 0).Endpoint("product-types")
	res, err := Allow404(ep.GetByKey(context.Background(), "missing"))
	assert.NoError(t, err)
	assert.Nil(t, res)

	_, err = Allow404[Resource](nil, errors.New("other"))
	assert.Error(t, err)
}

func TestQuery_Values(t *testing.T) {
	v := Query{
		Where:         `id > "a"`,
		Sort:          []string{"id asc"},
		Limit:         500,
		Expand:        []string{"productType"},
		PriceCurrency: "EUR",
	}.Values()
	assert.Equal(t, `id > "a"`, v.Get("where"))
	assert.Equal(t, "500", v.Get("limit"))
	assert.Equal(t, "false", v.Get("withTotal"))
	assert.Equal(t, "productType", v.Get("expand"))
	assert.Equal(t, "EUR", v.Get("priceCurrency"))
	assert.Empty(t, v.Get("offset"))
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, time.Duration(0), parseRetryAfter(h))
	h.Set("Retry-After", "2")
	assert.Equal(t, 2*time.Second, parseRetryAfter(h))
}

func TestShouldRetry(t *testing.T) {
	netErr := errors.New("connection reset")
	tests := []struct {
		name   string
		method string
		status int
		err    error
		want   bool
	}{
		{"get network error", http.MethodGet, 0, netErr, true},
		{"get 500", http.MethodGet, http.StatusInternalServerError, netErr, true},
		{"get 429", http.MethodGet, http.StatusTooManyRequests, netErr, true},
		{"get 404", http.MethodGet, http.StatusNotFound, netErr, false},
		{"delete 502", http.MethodDelete, http.StatusBadGateway, netErr, true},
		{"post network error", http.MethodPost, 0, netErr, false},
		{"post 500", http.MethodPost, http.StatusInternalServerError, netErr, false},
		{"post 502", http.MethodPost, http.StatusBadGateway, netErr, false},
		{"post 503", http.MethodPost, http.StatusServiceUnavailable, netErr, true},
		{"post 429", http.MethodPost, http.StatusTooManyRequests, netErr, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetry(tt.method, tt.status, tt.err))
		})
	}
}

func TestClient_CreateNotRetriedOn500(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Endpoint("products").Create(context.Background(), map[string]any{"key": "p1"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_CreateRetriedOn503(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "120")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"id":"p1"}`)
	}))
	defer srv.Close()

	start := time.Now()
	res, err := newTestClient(t, srv, 3).Endpoint("products").Create(context.Background(), map[string]any{"key": "p1"})
	require.NoError(t, err)
	assert.Equal(t, "p1", res.ID())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Less(t, time.Since(start), 5*time.Second, "Retry-After is capped by MaxBackoff")
}

func TestBackoff_CapsRetryAfter(t *testing.T) {
	rc := RetryConfig{InitialBackoff: time.Millisecond, MaxBackoff: time.Second}
	assert.Equal(t, time.Second, rc.backoff(0, time.Minute))
	assert.Equal(t, 200*time.Millisecond, rc.backoff(0, 200*time.Millisecond))
	assert.Equal(t, time.Minute, RetryConfig{}.backoff(0, time.Minute), "no cap without MaxBackoff")
}
