package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"crashgram/internal/config"
	"crashgram/internal/environment"
	"crashgram/internal/format"
	"crashgram/internal/logging"
	"crashgram/internal/notifier"
)

// cfgFile holds the path to the configuration file specified via command-line flag.
// If empty, the application will look for config.yaml in the current directory.
var cfgFile string

// envFile is the optional .env file loaded before configuration is read.
var envFile string

// appConfig stores the parsed configuration.
var appConfig config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "crashgram",
	Short: "Report application exceptions to a Telegram chat",
	Long: `Crashgram delivers exception reports and plain messages to a chat through
the Telegram Bot API (or a compatible server).

Configuration is read from config.yaml (or --config) and can be overridden by
environment variables prefixed with CRASHGRAM_, e.g. CRASHGRAM_NOTIFIER_BOT_TOKEN.
The deployment environment comes from APP_ENV; reports are never sent when it
is one of APP_LOCAL_ENVS (default: local).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute is the main entry point for the CLI application.
// This function is called by main() and should only be invoked once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to .env file (default is ./.env)")

	rootCmd.AddCommand(sendCmd(), reportCmd(), serveCmd())
}

// initConfig loads the .env file, reads the configuration and sets up logging.
func initConfig() error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	cfg, used, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	logging.Setup(appConfig.Log.Level, appConfig.Log.Format)
	if used != "" {
		log.Debug().Str("file", used).Msg("Loaded configuration")
	}
	return nil
}

// newNotifier builds the notification client and the environment probe for
// the current invocation. console is true for command-line invocations.
func newNotifier(console bool) (*notifier.Client, environment.Probe, error) {
	env, err := environment.Load()
	if err != nil {
		return nil, environment.Probe{}, err
	}
	probe := environment.NewProbe(env, console)

	ncfg := appConfig.Notifier
	opts := []notifier.Option{
		notifier.WithLogger(log.Logger),
		notifier.WithEnvironment(probe),
		notifier.WithRegistry(ncfg.GetRegistry()),
	}
	if path := strings.TrimSpace(ncfg.TemplatesFile); path != "" {
		catalog, err := format.LoadCatalog(path, ncfg.GetLocale())
		if err != nil {
			return nil, environment.Probe{}, err
		}
		opts = append(opts, notifier.WithRenderer(catalog))
	}

	client, err := notifier.NewClient(ncfg.NotifierOptions(), opts...)
	if err != nil {
		return nil, environment.Probe{}, err
	}
	return client, probe, nil
}
