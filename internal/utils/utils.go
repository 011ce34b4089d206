package utils

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/world-reports/internal/analyzer"
	"github.com/vitebski/world-reports/pkg/models"
)

// SetupLogging configures the logging system
func SetupLogging(logLevel string) *logrus.Logger {
	logger := logrus.New()

	// Get log level from parameter or environment variable
	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv("WORLD_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	// Reports go to stdout, so logs stay on stderr
	logger.SetOutput(os.Stderr)

	logger.Debugf("Logging configured with level: %s", level)
	return logger
}

// LoadEnvironmentVariables loads environment variables from .env file and
// reports whether the connection variables are all set
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) bool {
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		sampleEnvFile := envFile + ".sample"
		if _, err := os.Stat(sampleEnvFile); err == nil {
			logger.Infof("No %s file found, but %s exists. Consider copying %s to %s and updating it.",
				envFile, sampleEnvFile, sampleEnvFile, envFile)
		}
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.Warningf("Error loading %s file: %v", envFile, err)
		} else {
			logger.Infof("Loaded environment variables from %s", envFile)
		}
	} else {
		logger.Debugf("No %s file found, using existing environment variables", envFile)
	}

	requiredVars := []string{"MYSQL_HOST", "MYSQL_USER"}
	var missingVars []string

	for _, v := range requiredVars {
		if os.Getenv(v) == "" {
			missingVars = append(missingVars, v)
		}
	}

	if len(missingVars) > 0 {
		logger.Debugf("Unset connection variables: %s", strings.Join(missingVars, ", "))
		return false
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		for _, env := range os.Environ() {
			if strings.HasPrefix(env, "MYSQL_") || strings.HasPrefix(env, "WORLD_") {
				parts := strings.SplitN(env, "=", 2)
				if len(parts) == 2 {
					if parts[0] == "MYSQL_PASSWORD" {
						logger.Debugf("%s=********", parts[0])
					} else {
						logger.Debugf("%s=%s", parts[0], parts[1])
					}
				}
			}
		}
	}

	return true
}

// GetEnvInt gets an integer value from environment variable
func GetEnvInt(varName string, defaultValue int) int {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// GetEnvSeconds reads a whole number of seconds from an environment variable
func GetEnvSeconds(varName string, defaultValue time.Duration) time.Duration {
	seconds := GetEnvInt(varName, -1)
	if seconds < 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}

// GetEnvString gets a string value from environment variable
func GetEnvString(varName, defaultValue string) string {
	if value := os.Getenv(varName); value != "" {
		return value
	}
	return defaultValue
}

// ValidateConnectionParams validates database connection parameters
func ValidateConnectionParams(host, user, password, database, port string, logger *logrus.Logger) bool {
	if host == "" {
		logger.Error("Database host is required")
		return false
	}

	if user == "" {
		logger.Error("Database user is required")
		return false
	}

	if password == "" { // Empty password is allowed
		logger.Warning("Database password is empty")
	}

	if database == "" {
		logger.Error("Database name is required")
		return false
	}

	if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
		logger.Errorf("Invalid port number: %s", port)
		return false
	}

	return true
}

// PrintSummary prints a summary of a batch report run
func PrintSummary(w io.Writer, result models.BatchResult, dir string) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(w, "REPORT RUN SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Reports run: %d\n", result.Run)
	fmt.Fprintf(w, "Succeeded: %d\n", len(result.Succeeded))
	fmt.Fprintf(w, "Failed: %d\n", len(result.Failed))
	if dir != "" {
		fmt.Fprintf(w, "Markdown directory: %s\n", dir)
	}

	if len(result.Failed) > 0 {
		fmt.Fprintln(w, "\nFailed reports:")
		for _, title := range result.FailedTitles() {
			fmt.Fprintf(w, "  - %s: %v\n", title, result.Failed[title])
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 50))
}

// PrintSchemaCheck prints what the analyzer found for each report table
func PrintSchemaCheck(w io.Writer, schemaAnalyzer *analyzer.SchemaAnalyzer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 50))
	fmt.Fprintf(w, "WORLD SCHEMA CHECK: %s\n", schemaAnalyzer.DB.Database)
	fmt.Fprintln(w, strings.Repeat("=", 50))

	for _, table := range analyzer.RequiredTables {
		if !schemaAnalyzer.HasTable(table) {
			fmt.Fprintf(w, "❌ %-16s missing\n", table)
			continue
		}
		count, counted := schemaAnalyzer.RowCounts[table]
		rows := "not counted"
		if counted {
			rows = humanize.Comma(count) + " rows"
		}
		status := "✅"
		if counted && count == 0 {
			status = "⚠️ "
		}
		fmt.Fprintf(w, "%s %-16s %d columns, %s\n", status, table, len(schemaAnalyzer.TableColumns[table]), rows)
	}

	if missing := schemaAnalyzer.MissingColumns(); len(missing) > 0 {
		fmt.Fprintln(w, "\nMissing columns:")
		for _, col := range missing {
			fmt.Fprintf(w, "  - %s\n", col)
		}
	}

	if unlinked := schemaAnalyzer.UnlinkedTables(); len(unlinked) > 0 {
		fmt.Fprintf(w, "\nNo declared foreign key to %s: %s\n", analyzer.RootTable, strings.Join(unlinked, ", "))
	}

	fmt.Fprintln(w, strings.Repeat("=", 50))
}
