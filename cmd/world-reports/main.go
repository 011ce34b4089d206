package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vitebski/world-reports/internal/connector"
	"github.com/vitebski/world-reports/internal/render"
	"github.com/vitebski/world-reports/internal/report"
	"github.com/vitebski/world-reports/internal/utils"
)

// app holds the settings shared by every subcommand
type app struct {
	host       string
	user       string
	password   string
	database   string
	port       string
	envFile    string
	logLevel   string
	reportsDir string
	retries    int
	retryDelay time.Duration

	logger *logrus.Logger
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "world-reports",
		Short: "Population reports over the MySQL world dataset",
		Long: `World Population Reports

Ranked, filtered and aggregated population reports for countries, cities,
capital cities, languages and urbanization, printed as console tables and
exported as Markdown.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure()
		},
	}

	// Define flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.host, "host", "H", "", "MySQL host (default: localhost)")
	flags.StringVarP(&a.user, "user", "u", "", "MySQL user (default: root)")
	flags.StringVarP(&a.password, "password", "p", "", "MySQL password")
	flags.StringVarP(&a.database, "database", "d", "", "MySQL database name (default: world)")
	flags.StringVarP(&a.port, "port", "P", "", "MySQL port (default: 3306)")
	flags.StringVarP(&a.envFile, "env-file", "e", ".env", "Path to .env file")
	flags.StringVarP(&a.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	flags.StringVarP(&a.reportsDir, "reports-dir", "o", "", "Directory for Markdown reports (default: reports)")
	flags.IntVar(&a.retries, "retries", 0, "Connection attempts before giving up (default: 10)")
	flags.DurationVar(&a.retryDelay, "retry-delay", 0, "Wait between connection attempts (default: 5s)")

	rootCmd.AddCommand(
		a.countriesCmd(),
		a.citiesCmd(),
		a.capitalsCmd(),
		a.languagesCmd(),
		a.urbanCmd(),
		a.populationCmd(),
		a.allCmd(),
		a.checkCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configure sets up logging and fills unset flags from the environment
func (a *app) configure() error {
	a.logger = utils.SetupLogging(a.logLevel)
	if !utils.LoadEnvironmentVariables(a.envFile, a.logger) {
		if missing := defaulted(a.host, a.user); len(missing) > 0 {
			a.logger.Warnf("%s not set, using defaults", strings.Join(missing, ", "))
		}
	}

	if a.host == "" {
		a.host = utils.GetEnvString("MYSQL_HOST", "localhost")
	}
	if a.user == "" {
		a.user = utils.GetEnvString("MYSQL_USER", "root")
	}
	if a.password == "" {
		a.password = os.Getenv("MYSQL_PASSWORD")
	}
	if a.database == "" {
		a.database = utils.GetEnvString("MYSQL_DATABASE", connector.DefaultDatabase)
	}
	if a.port == "" {
		a.port = utils.GetEnvString("MYSQL_PORT", "3306")
	}
	if a.reportsDir == "" {
		a.reportsDir = utils.GetEnvString("WORLD_REPORTS_DIR", render.DefaultDir)
	}
	if a.retries <= 0 {
		a.retries = utils.GetEnvInt("WORLD_CONNECT_RETRIES", 10)
	}
	if a.retryDelay <= 0 {
		a.retryDelay = utils.GetEnvSeconds("WORLD_CONNECT_DELAY", 5*time.Second)
	}

	if !utils.ValidateConnectionParams(a.host, a.user, a.password, a.database, a.port, a.logger) {
		return fmt.Errorf("invalid connection parameters")
	}
	return nil
}

// defaulted names the connection settings given by neither flag nor
// environment
func defaulted(host, user string) []string {
	var missing []string
	if host == "" && os.Getenv("MYSQL_HOST") == "" {
		missing = append(missing, "MYSQL_HOST")
	}
	if user == "" && os.Getenv("MYSQL_USER") == "" {
		missing = append(missing, "MYSQL_USER")
	}
	return missing
}

// connect opens the database, retrying while the server comes up
func (a *app) connect() (*connector.DatabaseConnector, error) {
	db := connector.NewDatabaseConnector(a.host, a.user, a.password, a.database, a.port, a.logger)
	if err := db.ConnectWithRetry(a.retries, a.retryDelay); err != nil {
		a.logger.Errorf("Failed to connect to database: %v", err)
		return nil, err
	}
	return db, nil
}

// withReporter connects, runs fn with a reporter and disconnects
func (a *app) withReporter(fn func(r *report.Reporter) error) error {
	db, err := a.connect()
	if err != nil {
		return err
	}
	defer db.Disconnect()

	return fn(report.NewReporter(db, a.logger))
}
