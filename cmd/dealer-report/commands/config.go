package commands

import (
	"errors"
	"os"

	"spidervision-report/lib/configutil"
	"spidervision-report/lib/notify/mail"
	"spidervision-report/lib/publish/gcs"
)

type SpiderVisionConfig struct {
	BaseUrl          string `json:"base_url"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Token            string `json:"token"`
	LoginEndpoint    string `json:"login_endpoint"`
	OverviewEndpoint string `json:"overview_endpoint"`
	// DashboardPath is scraped when the overview endpoint fails, empty
	// disables the fallback.
	DashboardPath string `json:"dashboard_path"`
}

type GcsConfig struct {
	Project        string `json:"project"`
	Bucket         string `json:"bucket"`
	LatestHTMLPath string `json:"latest_html_path"`
	DryRun         bool   `json:"dry_run"`
}

type TeamsConfig struct {
	WebhookURL     string `json:"webhook_url"`
	DefaultMessage string `json:"default_message"`
}

type Config struct {
	SpiderVision     SpiderVisionConfig `json:"spider_vision"`
	Gcs              GcsConfig          `json:"gcs"`
	Teams            TeamsConfig        `json:"teams"`
	Smtp             mail.SmtpConfig    `json:"smtp"`
	ReportsDir       string             `json:"reports_dir"`
	Timezone         string             `json:"timezone"`
	IncludeSuccesses bool               `json:"include_successes"`
	Thresholds       string             `json:"thresholds"`
}

func defaultConfig() Config {
	return Config{
		Gcs:        GcsConfig{LatestHTMLPath: gcs.DefaultLatestHTMLPath},
		Teams:      TeamsConfig{DefaultMessage: "The daily dealer report is available."},
		ReportsDir: "./reports",
		Timezone:   "Europe/Paris",
		Thresholds: "thresholds.json5",
	}
}

// LoadConfig reads `path` (and its .local override) when it exists, then
// applies the environment, which always wins.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		file, err := configutil.ReadConfig[Config](path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
		if err == nil {
			cfg = mergeConfig(cfg, file)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func mergeConfig(base, file Config) Config {
	if file.Gcs.LatestHTMLPath == "" {
		file.Gcs.LatestHTMLPath = base.Gcs.LatestHTMLPath
	}
	if file.Teams.DefaultMessage == "" {
		file.Teams.DefaultMessage = base.Teams.DefaultMessage
	}
	if file.ReportsDir == "" {
		file.ReportsDir = base.ReportsDir
	}
	if file.Timezone == "" {
		file.Timezone = base.Timezone
	}
	if file.Thresholds == "" {
		file.Thresholds = base.Thresholds
	}
	return file
}

func applyEnv(cfg *Config) {
	configutil.OverrideString(&cfg.SpiderVision.BaseUrl, "SPIDER_VISION_API_BASE")
	configutil.OverrideString(&cfg.SpiderVision.BaseUrl, "SPIDER_VISION_URL")
	configutil.OverrideString(&cfg.SpiderVision.Email, "SPIDER_VISION_EMAIL")
	configutil.OverrideString(&cfg.SpiderVision.Email, "SPIDER_VISION_USERNAME")
	configutil.OverrideString(&cfg.SpiderVision.Password, "SPIDER_VISION_PASSWORD")
	configutil.OverrideString(&cfg.SpiderVision.Token, "SPIDER_VISION_JWT_TOKEN")
	configutil.OverrideString(&cfg.SpiderVision.LoginEndpoint, "SPIDER_VISION_LOGIN_ENDPOINT")
	configutil.OverrideString(&cfg.SpiderVision.OverviewEndpoint, "SPIDER_VISION_OVERVIEW_ENDPOINT")
	configutil.OverrideString(&cfg.SpiderVision.DashboardPath, "SPIDER_VISION_DASHBOARD_PATH")

	configutil.OverrideString(&cfg.Gcs.Project, "GCP_PROJECT")
	configutil.OverrideString(&cfg.Gcs.Bucket, "GCS_BUCKET")
	configutil.OverrideString(&cfg.Gcs.LatestHTMLPath, "GCS_LATEST_HTML_PATH")
	configutil.OverrideBool(&cfg.Gcs.DryRun, "GCS_DRY_RUN")

	configutil.OverrideString(&cfg.Teams.WebhookURL, "TEAMS_WEBHOOK_URL")
	configutil.OverrideString(&cfg.Teams.DefaultMessage, "TEAMS_DEFAULT_MESSAGE")

	configutil.OverrideString(&cfg.ReportsDir, "REPORTS_DIR")
	configutil.OverrideString(&cfg.Timezone, "TZ")
	configutil.OverrideBool(&cfg.IncludeSuccesses, "INCLUDE_SUCCESSES")
	configutil.OverrideString(&cfg.Thresholds, "THRESHOLDS_FILE")
}
