package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, serverURL string) (*App, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	app, err := NewApp(NewClient(serverURL), out, zap.NewNop())
	require.NoError(t, err)
	return app, out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArgs []string
	}{
		{"", "", nil},
		{"   ", "", nil},
		{"HELP", "help", []string{}},
		{"run  products-export ", "run", []string{"products-export"}},
		{"map rules.yaml In.csv", "map", []string{"rules.yaml", "In.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, args := parseCommand(tt.input)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCommandRegistry(t *testing.T) {
	app, _ := newTestApp(t, "")
	registry := app.Registry()

	names := make([]string, 0)
	for _, cmd := range registry.List() {
		names = append(names, cmd.Name())
	}
	assert.Equal(t, []string{"diff-type", "exit", "help", "jobs", "map", "run"}, names)

	cmd, ok := registry.Get("q")
	require.True(t, ok)
	assert.Equal(t, "exit", cmd.Name())

	assert.Error(t, registry.Register(NewExitCommand(io.Discard)), "duplicate names are rejected")
	assert.Contains(t, registry.HelpForCommand("nope"), "未知命令")
	assert.Contains(t, registry.HelpForCommand("diff"), "diff-type <old.json> <new.json>")
}

func TestInteractive(t *testing.T) {
	app, out := newTestApp(t, "")
	err := app.Interactive(context.Background(), strings.NewReader("help\nbogus\n\nexit\nhelp map\n"))
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "可用命令:")
	assert.Contains(t, s, "错误: 未知命令: bogus")
	assert.Contains(t, s, "再见!")
	assert.NotContains(t, s, "命令: map", "input after exit is not read")
}

func TestExitCommand(t *testing.T) {
	app, _ := newTestApp(t, "")
	assert.True(t, errors.Is(app.Exec(context.Background(), "QUIT", nil), ErrExit))
}

func TestMapCommand(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", "rules:\n  - src: sku\n    dest: key\n  - name: title\n")
	input := writeFile(t, dir, "in.csv", "sku,title\nA1,Shirt\nA2,Hat\n")

	t.Run("prints documents", func(t *testing.T) {
		app, out := newTestApp(t, "")
		require.NoError(t, app.Exec(context.Background(), "map", []string{rules, input}))
		assert.JSONEq(t, `[{"key":"A1","title":"Shirt"},{"key":"A2","title":"Hat"}]`, out.String())
	})

	t.Run("writes output file", func(t *testing.T) {
		app, out := newTestApp(t, "")
		target := filepath.Join(dir, "out", "docs.json")
		require.NoError(t, app.Exec(context.Background(), "map", []string{rules, input, target}))
		assert.Contains(t, out.String(), "已映射 2 条记录")

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"key":"A1","title":"Shirt"},{"key":"A2","title":"Hat"}]`, string(data))
	})

	t.Run("missing arguments", func(t *testing.T) {
		app, _ := newTestApp(t, "")
		assert.Error(t, app.Exec(context.Background(), "map", []string{rules}))
	})

	t.Run("invalid rules", func(t *testing.T) {
		app, _ := newTestApp(t, "")
		bad := writeFile(t, dir, "bad.yaml", "rules:\n  - src: sku\n    dest: key\n    convert: teleport\n")
		assert.ErrorContains(t, app.Exec(context.Background(), "map", []string{bad, input}), "unknown convert")
	})
}

func TestDiffTypeCommand(t *testing.T) {
	dir := t.TempDir()
	oldType := writeFile(t, dir, "old.json", `{"key":"order-extra","name":{"en":"Order"},"resourceTypeIds":["order"],"fieldDefinitions":[]}`)
	newType := writeFile(t, dir, "new.json", `{"key":"order-extra","name":{"en":"Order"},"resourceTypeIds":["order"],"fieldDefinitions":[
		{"name":"note","type":{"name":"String"},"required":false}
	]}`)

	app, out := newTestApp(t, "")
	require.NoError(t, app.Exec(context.Background(), "diff-type", []string{oldType, newType}))
	assert.Contains(t, out.String(), `"addFieldDefinition"`)

	out.Reset()
	require.NoError(t, app.Exec(context.Background(), "diff", []string{oldType, oldType}))
	assert.Equal(t, "没有变化\n", out.String())
}

func TestRemoteCommands(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":404,"error":"task not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"code":0,"data":{"success":true}}`)
	}))
	defer srv.Close()

	tests := []struct {
		name       string
		command    string
		args       []string
		wantMethod string
		wantPath   string
		wantErr    string
	}{
		{name: "jobs", command: "jobs", wantMethod: http.MethodGet, wantPath: "/api/v1/functions/jobs"},
		{name: "run", command: "run", args: []string{"products-export"}, wantMethod: http.MethodPost, wantPath: "/api/v1/functions/jobs/products-export/run"},
		{name: "run missing", command: "run", args: []string{"missing"}, wantMethod: http.MethodPost, wantPath: "/api/v1/functions/jobs/missing/run", wantErr: "status code 404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, out := newTestApp(t, srv.URL+"/")
			err := app.Exec(context.Background(), tt.command, tt.args)
			assert.Equal(t, tt.wantMethod, gotMethod)
			assert.Equal(t, tt.wantPath, gotPath)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), `"success": true`)
		})
	}

	app, _ := newTestApp(t, srv.URL)
	assert.Error(t, app.Exec(context.Background(), "run", nil))
}
