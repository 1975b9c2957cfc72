package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/logger"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const usage = `usage: migrate [-dir ./migrations] <command> [args]

commands:
  up              apply all pending migrations
  up-to VERSION   apply migrations up to VERSION
  down            roll back the latest migration
  down-to VERSION roll back to VERSION
  redo            roll back and re-apply the latest migration
  reset           roll back every migration
  status          print migration status
  version         print the current schema version
  create NAME     create a new SQL migration`

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) { l.log.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.log.Fatalf(format, v...) }

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "./migrations", "directory holding the SQL migrations")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}
	command, arguments := args[0], args[1:]

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// create only writes a file; it needs no database
	if command == "create" {
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		goose.SetLogger(gooseLogger{log: log.Sugar()})
		if err := goose.Create(nil, *dir, arguments[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		return nil
	}

	cfg, err := config.LoadWithSecrets(context.Background(), log)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetLogger(gooseLogger{log: log.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	log.Info("running migrations",
		zap.String("command", command),
		zap.String("dir", *dir),
		zap.String("database", cfg.Database.Name),
	)

	switch command {
	case "up":
		err = goose.Up(db, *dir)
	case "up-to", "down-to":
		if len(arguments) == 0 {
			return fmt.Errorf("%s requires a version", command)
		}
		version, perr := strconv.ParseInt(arguments[0], 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid version %q: %w", arguments[0], perr)
		}
		if command == "up-to" {
			err = goose.UpTo(db, *dir, version)
		} else {
			err = goose.DownTo(db, *dir, version)
		}
	case "down":
		err = goose.Down(db, *dir)
	case "redo":
		err = goose.Redo(db, *dir)
	case "reset":
		err = goose.Reset(db, *dir)
	case "status":
		err = goose.Status(db, *dir)
	case "version":
		err = goose.Version(db, *dir)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command: %s", command)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", command, err)
	}

	log.Info("migration command completed", zap.String("command", command))
	return nil
}
