package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const overviewBody = `{"data": [
	{
		"domainDealerName": "Leclerc",
		"day0": "{'progress': 40, 'successPercent': 99}",
		"day1": "{'progress': 41, 'successPercent': 98}",
		"day2": "", "day3": "", "day4": "", "day5": ""
	},
	{
		"domainDealerName": "Casino",
		"day0": "{'progress': 45, 'successPercent': 0}",
		"day1": "{'progress': 44, 'successPercent': 0}",
		"day2": "{'progress': 46, 'successPercent': '0'}",
		"day3": "0", "day4": "", "day5": ""
	}
]}`

func TestAnalyzeCommand(t *testing.T) {
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/overview" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		authorization = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(overviewBody))
	}))
	defer server.Close()

	dir := t.TempDir()
	t.Setenv("SPIDER_VISION_API_BASE", server.URL)
	t.Setenv("SPIDER_VISION_JWT_TOKEN", "token-123")
	t.Setenv("THRESHOLDS_FILE", filepath.Join(dir, "thresholds.json5"))
	t.Setenv("REPORTS_DIR", dir)
	t.Setenv("TZ", "UTC")

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{
		"--config", filepath.Join(dir, "config.json5"),
		"--env-file", filepath.Join(dir, ".env"),
		"analyze", "--all", "--no-color",
	})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	require.NoError(t, err)

	require.True(t, *analyzeAll)
	require.True(t, config.IncludeSuccesses)
	require.Equal(t, server.URL, config.SpiderVision.BaseUrl)
	require.Equal(t, "Bearer token-123", authorization)

	printed := out.String()
	require.Contains(t, printed, "Leclerc")
	require.Contains(t, printed, "Casino")
	require.Contains(t, printed, "Critical-Error")
	require.Less(t, bytes.Index(out.Bytes(), []byte("Casino")), bytes.Index(out.Bytes(), []byte("Leclerc")))
}
