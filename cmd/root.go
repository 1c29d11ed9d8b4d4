// Package cmd implements the command-line interface for the SVT news
// crawler. It provides the root command and subcommands for crawling,
// corpus conversion, and store summaries.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdconvert "github.com/spraakbanken/svt-crawler/cmd/convert"
	cmdcrawl "github.com/spraakbanken/svt-crawler/cmd/crawl"
	cmdsummary "github.com/spraakbanken/svt-crawler/cmd/summary"
	"github.com/spraakbanken/svt-crawler/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	// rootCmd represents the root command for the svt-crawler CLI.
	rootCmd = &cobra.Command{
		Use:   "svt-crawler",
		Short: "Crawl SVT news articles and build annotation-ready corpora",
		Long: `svt-crawler walks the SVT news API topic by topic, stores every
article it has not seen before, and converts the stored articles into
per-year XML corpus files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early to get debug flag before creating the logger
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

// init initializes the root command and its subcommands.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("svt-crawler version %s\n", version)
		},
	})

	rootCmd.AddCommand(cmdcrawl.Command())
	rootCmd.AddCommand(cmdconvert.Command())
	rootCmd.AddCommand(cmdsummary.Command())
}

// initConfig reads in the config file and environment variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	// Environment variables take precedence over defaults.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// The config file is optional; defaults and environment cover everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindFlags(); err != nil {
		return err
	}
	if err := bindEnvVars(); err != nil {
		return err
	}

	setupDevelopmentLogging()

	return nil
}

// bindFlags binds command-line flags to viper.
func bindFlags() error {
	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	return nil
}

// bindEnvVars maps short environment variable names to config keys.
func bindEnvVars() error {
	binds := map[string][]string{
		"app.environment":     {"APP_ENV"},
		"app.debug":           {"APP_DEBUG"},
		"logger.level":        {"LOG_LEVEL"},
		"logger.encoding":     {"LOG_FORMAT"},
		"api.base_url":        {"SVT_API_BASE_URL"},
		"crawler.topics_file": {"SVT_TOPICS_FILE"},
		"storage.data_dir":    {"SVT_DATA_DIR"},
		"convert.output_dir":  {"SVT_OUTPUT_DIR"},
	}
	for key, envs := range binds {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setupDevelopmentLogging configures logging based on environment and the
// debug flag.
func setupDevelopmentLogging() {
	debugFlag := Debug || viper.GetBool("app.debug")
	isDev := viper.GetString("app.environment") == "development"

	if debugFlag {
		viper.Set("logger.level", "debug")
	}
	if isDev {
		viper.Set("logger.development", true)
		viper.Set("logger.encoding", "console")
	}

	Debug = debugFlag
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":        "svt-crawler",
		"version":     version,
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":       "info",
		"encoding":    "console",
		"development": false,
	})

	viper.SetDefault("api", map[string]any{
		"base_url":   config.DefaultBaseURL,
		"page_limit": config.DefaultPageLimit,
		"timeout":    "30s",
		"user_agent": config.DefaultUserAgent,
	})

	viper.SetDefault("crawler", map[string]any{
		"topics_file":    "",
		"stop_threshold": config.DefaultStopThreshold,
		"flush_every":    config.DefaultFlushEvery,
		"request_delay":  "0s",
		"retry": map[string]any{
			"max_attempts": 3,
			"initial_wait": "1s",
			"max_wait":     "30s",
		},
	})

	viper.SetDefault("storage", map[string]any{
		"data_dir":    config.DefaultDataDir,
		"store_file":  config.DefaultStoreFile,
		"failed_file": config.DefaultFailedFile,
	})

	viper.SetDefault("convert", map[string]any{
		"output_dir":    config.DefaultOutputDir,
		"corpus_prefix": config.DefaultCorpusPrefix,
	})
}
