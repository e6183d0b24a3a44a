package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	framesDir  string
	dbPath     string
	twitch     *httptest.Server
}

// setupCLITestEnv writes a config rooted in a temp dir whose Twitch API is a
// stub reporting every channel offline.
func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("TWITCH_CLIENT_ID", "")
	t.Setenv("TWITCH_OAUTH_TOKEN", "")
	t.Setenv("NTFY_TOPIC", "")
	t.Setenv("MAPWATCH_DATABASE_URL", "")

	twitch := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Client-ID") != "client" || r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(twitch.Close)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "mapwatch.toml"),
		framesDir:  filepath.Join(base, "frames"),
		dbPath:     filepath.Join(base, "data", "detections.db"),
		twitch:     twitch,
	}

	content := fmt.Sprintf(`[paths]
data_dir = %q
frames_dir = %q
log_dir = %q
lock_path = %q

[twitch]
client_id = "client"
oauth_token = "token"
api_base_url = %q

[roster]
streamers = ["alpha", "Bravo"]

[storage]
driver = "sqlite"
sqlite_path = %q
%s%s`,
		filepath.Join(base, "data"),
		env.framesDir,
		filepath.Join(base, "logs"),
		filepath.Join(base, "data", "mapwatch.lock"),
		twitch.URL,
		env.dbPath,
		defaultLogging(extra),
		extra,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

// defaultLogging quiets the logger unless extra brings its own [logging] table.
func defaultLogging(extra string) string {
	if strings.Contains(extra, "[logging]") {
		return ""
	}
	return "\n[logging]\nlevel = \"error\"\n"
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
