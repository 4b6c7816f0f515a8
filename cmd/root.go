package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/loom/internal/config"
	"github.com/zjrosen/loom/internal/log"
	"github.com/zjrosen/loom/internal/ui/dashboard"
	"github.com/zjrosen/loom/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query the terminal background BEFORE
	// the Bubble Tea program starts, so the OSC response cannot race
	// the input loop.
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "loom",
	Short:   "Event-source and child-query plumbing for Bubble Tea, with a live dashboard",
	Long:    `Loom bridges push-based input (file watchers, timers, broker topics)
into cancellable message streams for Bubble Tea programs, and routes
typed queries into slot-addressed child components. The root command
runs a dashboard that feeds three panes from three independent sources.`,
	Version: version,
	RunE:    runDashboard,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/loom/config.yaml)")
	rootCmd.Flags().StringP("path", "p", "",
		"file or directory for the file feed")
	rootCmd.Flags().Bool("debug", false,
		"write a structured log file and show the log feed")

	_ = viper.BindPFlag("path", rootCmd.Flags().Lookup("path"))
	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("path", defaults.Path)
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("refresh.tick", defaults.Refresh.Tick)
	viper.SetDefault("refresh.debounce", defaults.Refresh.Debounce)
	viper.SetDefault("theme.highlight", defaults.Theme.Highlight)
	viper.SetDefault("theme.subtle", defaults.Theme.Subtle)
	viper.SetDefault("theme.error", defaults.Theme.Error)
	viper.SetDefault("theme.success", defaults.Theme.Success)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .loom/config.yaml (current directory)
		// 2. ~/.config/loom/config.yaml (user config)
		if _, err := os.Stat(".loom/config.yaml"); err == nil {
			viper.SetConfigFile(".loom/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "loom"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("LOOM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".loom/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If the write fails, continue with defaults.
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Debug {
		cleanup, err := log.Init("loom.log")
		if err != nil {
			return fmt.Errorf("initializing log: %w", err)
		}
		defer cleanup()
		log.Info(log.CatConfig, "config loaded", "file", viper.ConfigFileUsed())
	}

	styles.Apply(cfg.Theme)

	model := dashboard.New(cfg)
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()

	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
