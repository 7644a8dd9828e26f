package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/eringen/webstory"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "account":
		if len(args) == 0 || args[0] != "add" {
			fmt.Fprintln(os.Stderr, "Usage: webstory account add --email <email> --name <name> --password <password>")
			os.Exit(1)
		}
		err = runAccountAdd(args[1:])
	case "version":
		fmt.Printf("webstory %s\n", webstory.Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logrus.WithError(err).Fatal(cmd + " failed")
	}
}

func runServe(args []string) error {
	cfg, err := webstory.LoadConfig(args)
	if err != nil {
		return err
	}
	logger, err := webstory.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return webstory.New(cfg, webstory.WithLogger(logger)).Start(ctx)
}

func runAccountAdd(args []string) error {
	fs := pflag.NewFlagSet("account add", pflag.ContinueOnError)
	dbPath := fs.String("database-path", envOr("DATABASE_PATH", "data/webstory.db"), "SQLite database path")
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password (at least 8 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return eris.New("--email is required")
	}

	hash, err := webstory.HashPassword(*password)
	if err != nil {
		return err
	}
	logger := logrus.New()
	store, err := webstory.NewStore(*dbPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateAccount(context.Background(), webstory.Account{
		Email:        *email,
		Name:         *name,
		PasswordHash: hash,
	}); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"email": *email}).Info("account created")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println(`webstory - a web story publishing site

Usage:
  webstory [command] [flags]

Commands:
  serve          Run the site (default)
  account add    Create an admin account
  version        Print the version
  help           Show this help message

Serve flags:
  --addr, --database-path, --static-dir, --log-level, --metrics-enabled, --config

Examples:
  webstory --addr :8080
  webstory account add --email editor@example.com --name Editor --password s3cretpass`)
}
