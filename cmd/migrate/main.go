package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/partfinderz-backend/pkg/config"
	"github.com/angelmondragon/partfinderz-backend/pkg/db"
	"github.com/angelmondragon/partfinderz-backend/pkg/logger"
	"github.com/angelmondragon/partfinderz-backend/pkg/migrate"
)

// gooseCommands run straight through goose against the configured database.
var gooseCommands = map[string]bool{
	"up":     true,
	"down":   true,
	"redo":   true,
	"reset":  true,
	"status": true,
}

var errUsage = errors.New("usage")

type invocation struct {
	command string
	dir     string
	name    string
	version string
}

// parseArgs accepts the command either as -cmd or as the first positional
// argument: `migrate up`, `migrate -cmd=version -version=20260101000000`.
func parseArgs(args []string, stderr io.Writer) (invocation, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var inv invocation
	fs.StringVar(&inv.command, "cmd", "up", "up|down|redo|reset|status|version|create|validate")
	fs.StringVar(&inv.dir, "dir", "", "migrations directory (defaults to the driver's directory)")
	fs.StringVar(&inv.name, "name", "", "migration name for create")
	fs.StringVar(&inv.version, "version", "", "target version (YYYYMMDDHHMMSS) for version")
	if err := fs.Parse(args); err != nil {
		return invocation{}, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		inv.command = rest[0]
	}

	switch inv.command {
	case "create":
		if inv.name == "" {
			return invocation{}, fmt.Errorf("%w: create needs -name", errUsage)
		}
	case "version":
		if inv.version == "" {
			return invocation{}, fmt.Errorf("%w: version needs -version", errUsage)
		}
	case "validate":
	default:
		if !gooseCommands[inv.command] {
			return invocation{}, fmt.Errorf("%w: unknown command %q", errUsage, inv.command)
		}
	}
	return inv, nil
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	inv, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg, inv, os.Stdout); err != nil {
		logg.Error(ctx, "migrate."+inv.command+"_failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, inv invocation, stdout io.Writer) error {
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"cmd":    inv.command,
		"driver": cfg.DB.Driver,
	})

	switch inv.command {
	case "create":
		dir := inv.dir
		if dir == "" {
			dir = migrate.DirFor(cfg.DB.Driver)
		}
		path, err := migrate.CreateSQLMigration(dir, inv.name)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "created migration:", path)
		return nil
	case "validate":
		return validate(inv.dir, cfg.DB.Driver, stdout)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	dialect := dbClient.Dialect()
	dir := inv.dir
	if dir == "" {
		dir = migrate.DirFor(dialect)
	}
	ctx = logg.WithField(ctx, "dir", dir)
	logg.Info(ctx, "migrate.start")

	if inv.command == "version" {
		err = migrate.MigrateToVersion(ctx, sqlDB, dialect, dir, inv.version)
	} else {
		err = migrate.Run(ctx, sqlDB, dialect, dir, inv.command)
	}
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate.done")
	return nil
}

// validate checks the given directory, or both the postgres and sqlite sets
// when none is given.
func validate(dir, driver string, stdout io.Writer) error {
	type target struct{ dir, dialect string }
	targets := []target{{dir, driver}}
	if dir == "" {
		targets = []target{
			{migrate.DefaultDir, config.DriverPostgres},
			{migrate.SQLiteDir, config.DriverSQLite},
		}
	}
	var errs []error
	for _, tg := range targets {
		if err := migrate.ValidateDir(tg.dir, tg.dialect); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tg.dir, err))
			continue
		}
		fmt.Fprintln(stdout, "migrations valid:", tg.dir)
	}
	return errors.Join(errs...)
}
