package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/app"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

const banner = `
  .___   _____     _________.___ _______      _____  .___  _________
  |   | /  _  \   /   _____/|   |\      \    /  _  \ |   | /   _____/
  |   |/  /_\  \  \_____  \ |   |/   |   \  /  /_\  \|   | \_____  \
  |   /    |    \ /        \|   /    |    \/    |    \   | /        \
  |___\____|__  //_______  /|___\____|__  /\____|__  /___|/_______  /
              \/         \/             \/         \/             \/

        Binary Options Signal Engine
[]=========================================================================[]
`

var (
	cfgFile string
	cfg     utilities.AppConfig
	logger  *utilities.Logger
)

// rootCmd represents the base command for the IA-Sinais CLI.
var rootCmd = &cobra.Command{
	Use:   "iasinais",
	Short: "IA-Sinais binary options trading bot",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A local .env may carry broker credentials; missing is fine.
		_ = godotenv.Load()

		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("json")
		viper.AutomaticEnv()
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
		if email := os.Getenv("IQOPTION_EMAIL"); email != "" {
			cfg.IQOption.Email = email
		}
		if password := os.Getenv("IQOPTION_PASSWORD"); password != "" {
			cfg.IQOption.Password = password
		}

		level, err := utilities.ParseLogLevel(cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		logger = utilities.NewLogger(level)

		if err := cfg.Trading.Validate(); err != nil {
			return fmt.Errorf("trading config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(banner)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			logger.LogWarn("Received signal: %v, initiating graceful shutdown.", sig)
			cancel()
		}()

		application, err := app.New(&cfg, logger)
		if err != nil {
			return err
		}
		if err := application.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		logger.LogInfo("IA-Sinais shutdown complete.")
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.json", "config file (default is config/config.json)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
