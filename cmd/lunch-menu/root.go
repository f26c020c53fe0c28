package main

import (
	"fmt"
	"os"

	"lunch-menu/internal/app"
	"lunch-menu/internal/config"
	"lunch-menu/internal/database"
	"lunch-menu/internal/menuapi"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/notify"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lunch-menu",
	Short: "Find and share school lunch menus",
	Long: `Lunch Menu scrapes a school's lunch menu page, shows today's lunch or a
whole week, and turns the week into a calendar image, a PDF or an email.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: $LUNCHMENU_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads --config when given, the environment otherwise.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.NewFromEnv()
}

// deps is what every command that talks to the backend needs.
type deps struct {
	cfg     *config.Config
	db      *database.DB
	metrics *metrics.Store
	app     *app.App
}

func newDeps() (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := database.NewDB(cfg.DatabasePath, metrics.Migrations())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := metrics.NewStore(db.SQL)
	client := menuapi.NewClient(cfg, store)

	return &deps{
		cfg:     cfg,
		db:      db,
		metrics: store,
		app:     app.NewApp(client),
	}, nil
}

func (r *deps) Close() error {
	return r.db.Close()
}

// cliSession prints notifications and the loading label to stderr so that
// stdout carries only the menu.
func (r *deps) cliSession() *app.Session {
	return r.app.NewSession("cli", nil,
		notify.WithNotifyHook(func(n notify.Notification) {
			fmt.Fprintf(os.Stderr, "%s %s\n", severityPrefix(n.Severity), n.Message)
		}),
		notify.WithLoadingHook(func(l notify.Loading) {
			if l.Visible {
				fmt.Fprintf(os.Stderr, "... %s\n", l.Text)
			}
		}),
	)
}

func severityPrefix(s notify.Severity) string {
	switch s {
	case notify.Success:
		return "[ok]"
	case notify.Error:
		return "[error]"
	default:
		return "[info]"
	}
}
