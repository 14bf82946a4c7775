package function

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"demotools/internal/config"
	"demotools/internal/function/handlers"
	"demotools/internal/metrics"
	"demotools/internal/task"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	results map[string]error
}

func (f fakeRunner) RunNow(_ context.Context, name string) (task.TaskResult, error) {
	err, ok := f.results[name]
	if !ok {
		return task.TaskResult{TaskName: name}, task.ErrTaskNotFound
	}
	return task.TaskResult{TaskName: name, Success: err == nil, Duration: 1500 * time.Millisecond, Error: err}, err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestServer(t *testing.T, deps *Dependencies) http.Handler {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return NewServer(&config.ServerConfig{Mode: gin.TestMode}, deps).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pinger     handlers.Pinger
		wantStatus int
		wantDB     string
	}{
		{name: "no databases", wantStatus: http.StatusOK, wantDB: "disabled"},
		{name: "healthy", pinger: fakePinger{}, wantStatus: http.StatusOK, wantDB: "ok"},
		{name: "degraded", pinger: fakePinger{err: errors.New("mongodb ping failed")}, wantStatus: http.StatusServiceUnavailable, wantDB: "mongodb ping failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &Dependencies{Pinger: tt.pinger})
			rec, body := do(t, h, http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDB, body["data"].(map[string]any)["databases"])
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewRegistry()
	m.ObservePage(500)
	h := newTestServer(t, &Dependencies{Metrics: m})

	rec, _ := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "demotools_items_fetched_total 500")
}

func TestMap(t *testing.T) {
	m := metrics.NewRegistry()
	h := newTestServer(t, &Dependencies{Metrics: m})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDocs   string
		wantError  string
	}{
		{
			name:       "maps records in order",
			body:       `{"rules":[{"src":"sku","dest":"key"},{"name":"title"}],"records":[{"title":"Shirt","sku":"A1"},{"sku":"A2"}]}`,
			wantStatus: http.StatusOK,
			wantDocs:   `[{"key":"A1","title":"Shirt"},{"key":"A2"}]`,
		},
		{
			name:       "invalid rule",
			body:       `{"rules":[{"src":"sku","dest":"key","convert":"teleport"}],"records":[{"sku":"A1"}]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "unknown convert",
		},
		{
			name:       "no rules",
			body:       `{"records":[{"sku":"A1"}]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "no rules given",
		},
		{
			name:       "malformed body",
			body:       `{"rules":`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPost, "/api/v1/functions/map", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantDocs != "" {
				docs, err := json.Marshal(body["data"].(map[string]any)["documents"])
				require.NoError(t, err)
				assert.JSONEq(t, tt.wantDocs, string(docs))
			}
			if tt.wantError != "" {
				assert.Contains(t, body["error"], tt.wantError)
			}
		})
	}
}

func TestTypeDiff(t *testing.T) {
	h := newTestServer(t, &Dependencies{})
	body := `{
		"old": {"key": "order-extra", "name": {"en": "Order"}, "resourceTypeIds": ["order"], "fieldDefinitions": [
			{"name": "gift", "type": {"name": "Boolean"}, "required": false}
		]},
		"new": {"key": "order-extra", "name": {"en": "Order"}, "resourceTypeIds": ["order"], "fieldDefinitions": [
			{"name": "gift", "type": {"name": "Boolean"}, "required": false},
			{"name": "note", "type": {"name": "String"}, "required": false}
		]}
	}`
	rec, resp := do(t, h, http.MethodPost, "/api/v1/functions/types/diff", body)
	require.Equal(t, http.StatusOK, rec.Code)

	actions := resp["data"].(map[string]any)["actions"].([]any)
	require.Len(t, actions, 1)
	assert.Equal(t, "addFieldDefinition", actions[0].(map[string]any)["action"])

	rec, resp = do(t, h, http.MethodPost, "/api/v1/functions/types/diff", `{"old":{},"new":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp["data"].(map[string]any)["actions"])
}

func TestRunJob(t *testing.T) {
	runner := fakeRunner{results: map[string]error{
		"products-export": nil,
		"broken":          errors.New("platform unavailable"),
		"busy":            task.ErrTaskRunning,
	}}
	h := newTestServer(t, &Dependencies{Runner: runner})

	tests := []struct {
		job        string
		wantStatus int
	}{
		{"products-export", http.StatusOK},
		{"broken", http.StatusInternalServerError},
		{"busy", http.StatusConflict},
		{"missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.job, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPost, "/api/v1/functions/jobs/"+tt.job+"/run", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				data := body["data"].(map[string]any)
				assert.Equal(t, true, data["success"])
				assert.Equal(t, float64(1500), data["duration_ms"])
			} else {
				assert.Equal(t, float64(tt.wantStatus), body["code"])
			}
		})
	}
}

func TestRunJob_NoScheduler(t *testing.T) {
	h := newTestServer(t, &Dependencies{})
	rec, _ := do(t, h, http.MethodPost, "/api/v1/functions/jobs/x/run", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListJobs(t *testing.T) {
	reg := task.NewTaskRegistry()
	h := newTestServer(t, &Dependencies{Registry: reg})
	rec, body := do(t, h, http.MethodGet, "/api/v1/functions/jobs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["data"], "jobs")
}
