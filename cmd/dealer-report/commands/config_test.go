package commands

import (
	"os"
	"path/filepath"
	"testing"

	"spidervision-report/lib/publish/gcs"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "./reports", cfg.ReportsDir)
	require.Equal(t, gcs.DefaultLatestHTMLPath, cfg.Gcs.LatestHTMLPath)
	require.NotEmpty(t, cfg.Teams.DefaultMessage)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		spider_vision: {base_url: "https://from-file", email: "file@example.com"},
		gcs: {bucket: "file-bucket"},
		reports_dir: "/var/reports",
	}`), 0600))

	t.Setenv("SPIDER_VISION_URL", "https://from-env")
	t.Setenv("SPIDER_VISION_JWT_TOKEN", "token-123")
	t.Setenv("INCLUDE_SUCCESSES", "true")
	t.Setenv("TZ", "UTC")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://from-env", cfg.SpiderVision.BaseUrl)
	require.Equal(t, "file@example.com", cfg.SpiderVision.Email)
	require.Equal(t, "token-123", cfg.SpiderVision.Token)
	require.Equal(t, "file-bucket", cfg.Gcs.Bucket)
	require.Equal(t, gcs.DefaultLatestHTMLPath, cfg.Gcs.LatestHTMLPath)
	require.Equal(t, "/var/reports", cfg.ReportsDir)
	require.Equal(t, "UTC", cfg.Timezone)
	require.True(t, cfg.IncludeSuccesses)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{reports_dir: `), 0600))
	_, err := LoadConfig(path)
	require.Error(t, err)
}
