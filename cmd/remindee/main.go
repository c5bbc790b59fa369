// Command remindee runs the chat bot and its scheduler loop: parse the
// CLI flags spec §6 defines, open and migrate the database, wire the
// repository/controller/scheduler/bot stack, and run until interrupted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hray3182/remindee/internal/bot"
	"github.com/hray3182/remindee/internal/config"
	"github.com/hray3182/remindee/internal/controller"
	"github.com/hray3182/remindee/internal/database"
	"github.com/hray3182/remindee/internal/repository"
	"github.com/hray3182/remindee/internal/scheduler"
)

const defaultTimezone = "UTC"

func main() {
	rootCmd := &cobra.Command{
		Use:   "remindee",
		Short: "A chat bot that schedules and delivers reminders",
		RunE:  run,
	}
	config.Bind(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}

	db, err := database.New(cfg.DatabasePath, cfg.SQLiteMaxConnections)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Printf("remindee: opened database %s", cfg.DatabasePath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	log.Println("remindee: migrations applied")

	reminders := repository.NewReminderRepository(db)
	occurrences := repository.NewOccurrenceRepository(db)
	messages := repository.NewReminderMessageRepository(db)
	prefs := repository.NewUserPrefsRepository(db)

	ctrl := controller.New(reminders, occurrences, messages, prefs, defaultTimezone)

	devMode := os.Getenv("REMINDEE_DEBUG") != ""
	b, err := bot.New(cfg.BotToken, ctrl, prefs, devMode)
	if err != nil {
		return err
	}

	sched := scheduler.New(b, db, reminders, occurrences, messages, prefs, nil)
	go sched.Start(ctx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("remindee: shutting down")
		cancel()
	}()

	log.Println("remindee: starting bot")
	if err := b.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
