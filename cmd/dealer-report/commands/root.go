package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"spidervision-report/lib/configutil"
	"spidervision-report/lib/restyutil"
	"spidervision-report/lib/telemetry"
	"spidervision-report/lib/timezone"

	"github.com/spf13/cobra"
)

var (
	verbose    *bool
	dumpHttp   *string
	configPath *string
	envFile    *string
)

// set up by the root command before any subcommand runs
var (
	config     Config
	tel        telemetry.Telemetry
	dumpOutput restyutil.InstrumentOutput
)

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
	dumpHttp = rootCmd.PersistentFlags().String("dump-http", "", "Write every http exchange to this directory (needs --verbose).")
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The configuration file, a sibling <name>.local.json5 overrides it.")
	envFile = rootCmd.PersistentFlags().String("env-file", ".env", "A dotenv file loaded before reading the environment.")
}

var rootCmd = &cobra.Command{
	Use:   "dealer-report",
	Short: "dealer-report turns the Spider Vision crawl overview into a daily dealer health report.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*verbose)

		err := configutil.LoadDotenv(*envFile)
		if err != nil {
			return err
		}
		config, err = LoadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		err = timezone.Set(config.Timezone)
		if err != nil {
			return err
		}

		if *dumpHttp != "" {
			output, err := restyutil.NewFilesystemOutput(*dumpHttp)
			if err != nil {
				return err
			}
			dumpOutput = output
		}

		tel, err = telemetry.SetupFromEnv(cmd.Context(), "dealer-report")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
		return nil
	},
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if shutdownErr := tel.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Warn("failed to flush telemetry", "err", shutdownErr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
