// Package cmd contains the boxtop command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shroombox/boxtop/internal/api"
	"github.com/shroombox/boxtop/internal/app"
	"github.com/shroombox/boxtop/internal/config"
	"github.com/shroombox/boxtop/internal/control"
	"github.com/shroombox/boxtop/internal/log"
	"github.com/shroombox/boxtop/internal/mode"
	"github.com/shroombox/boxtop/internal/store"
	"github.com/shroombox/boxtop/internal/stream"
	"github.com/shroombox/boxtop/internal/tracing"
	"github.com/shroombox/boxtop/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "boxtop",
	Short:   "A terminal dashboard for the shroombox fruiting chamber controller",
	Long:    `A terminal dashboard for the shroombox mushroom fruiting chamber: live device logs, sensor readings, phase selection, and controller tuning over the box's web API.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/boxtop/config.yaml)")
	rootCmd.Flags().StringP("server", "s", "",
		"controller base URL (overrides server.url)")
	rootCmd.Flags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable the debug log file and Ctrl+X overlay")

	_ = viper.BindPFlag("server.url", rootCmd.Flags().Lookup("server"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("server.url", defaults.Server.URL)
	viper.SetDefault("server.request_timeout", defaults.Server.RequestTimeout)
	viper.SetDefault("server.poll_interval", defaults.Server.PollInterval)
	viper.SetDefault("server.cache_ttl", defaults.Server.CacheTTL)
	viper.SetDefault("stream.buffer_size", defaults.Stream.BufferSize)
	viper.SetDefault("stream.reconnect_min_delay", defaults.Stream.ReconnectMinDelay)
	viper.SetDefault("stream.reconnect_max_delay", defaults.Stream.ReconnectMaxDelay)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.mouse", defaults.UI.Mouse)
	viper.SetDefault("theme.highlight", defaults.Theme.Highlight)
	viper.SetDefault("theme.subtle", defaults.Theme.Subtle)
	viper.SetDefault("theme.error", defaults.Theme.Error)
	viper.SetDefault("theme.success", defaults.Theme.Success)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(filepath.Dir(config.DefaultPath()))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file anywhere yet; create the commented default.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := config.DefaultPath()
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If the write fails, continue with built-in defaults.
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	debug := debugFlag || os.Getenv("BOXTOP_DEBUG") != ""
	if debug {
		logPath := filepath.Join(filepath.Dir(config.DefaultPath()), "boxtop.log")
		closeLog, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer closeLog()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Subtle, cfg.Theme.Error, cfg.Theme.Success)

	tracer, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = tracer.Shutdown(ctx)
		cancel()
	}()

	client := api.New(api.Config{
		BaseURL:  cfg.Server.URL,
		Timeout:  cfg.Server.RequestTimeout,
		CacheTTL: cfg.Server.CacheTTL,
	})

	st := store.New(cfg.Stream.BufferSize)

	tailer := stream.New(stream.Config{
		Open:     client.OpenLogStream,
		MinDelay: cfg.Stream.ReconnectMinDelay,
		MaxDelay: cfg.Stream.ReconnectMaxDelay,
		Tracer:   tracer.Tracer(),
	})
	tailer.Start()

	dispatcher := control.New(control.Config{
		Store:   st,
		Confirm: control.APIConfirmer(client),
		Timeout: cfg.Server.RequestTimeout,
		Tracer:  tracer.Tracer(),
	})

	services := mode.Services{
		Client:     client,
		Store:      st,
		Dispatcher: dispatcher,
		Tailer:     tailer,
		Config:     &cfg,
		ConfigPath: viper.ConfigFileUsed(),
	}

	zone.NewGlobal()
	defer zone.Close()

	model := app.New(app.Config{Services: services, DebugMode: debug})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(model, opts...)
	_, err = p.Run()

	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
