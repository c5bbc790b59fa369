// Package config resolves the CLI surface spec §6 describes: three
// flags, each with a matching environment variable and a default, bound
// through cobra/viper rather than the teacher's bare os.Getenv reading
// (that style can't express a short flag like -s alongside an env
// fallback and a default in one place).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the fully resolved startup configuration for cmd/remindee.
type Config struct {
	DatabasePath         string
	BotToken             string
	SQLiteMaxConnections int
}

// Bind registers the CLI flags spec §6 names onto cmd and binds each to
// its environment variable and default. Call Resolve after cmd parses
// its arguments to read back the final values.
func Bind(cmd *cobra.Command) {
	if err := godotenv.Load(); err != nil {
		// .env is optional; nothing to report.
	}

	cmd.Flags().StringP("database", "d", defaultDatabasePath(), "database file; created if absent")
	cmd.Flags().StringP("token", "t", "", "chat bot token (required)")
	cmd.Flags().IntP("sqlite-max-connections", "s", 1, "connection pool size")

	viper.BindPFlag("database", cmd.Flags().Lookup("database"))
	viper.BindPFlag("token", cmd.Flags().Lookup("token"))
	viper.BindPFlag("sqlite-max-connections", cmd.Flags().Lookup("sqlite-max-connections"))

	viper.BindEnv("database", "REMINDEE_DB")
	viper.BindEnv("token", "BOT_TOKEN")
	viper.BindEnv("sqlite-max-connections", "SQLITE_MAX_CONNECTIONS")
}

// Resolve reads back the bound values and validates the required ones.
func Resolve() (*Config, error) {
	cfg := &Config{
		DatabasePath:         viper.GetString("database"),
		BotToken:             viper.GetString("token"),
		SQLiteMaxConnections: viper.GetInt("sqlite-max-connections"),
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath()
	}
	if cfg.SQLiteMaxConnections <= 0 {
		cfg.SQLiteMaxConnections = 1
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("config: token is required (--token, -t, or BOT_TOKEN)")
	}
	return cfg, nil
}

// defaultDatabasePath mirrors original_source/src/cli.rs's fallback
// shape: prefer the platform config directory, fall back to a file in
// the working directory if it can't be resolved.
func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "remindee_db.sqlite"
	}
	return filepath.Join(dir, "remindee", "remindee_db.sqlite")
}
