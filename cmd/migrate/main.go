package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/migrate"
)

const (
	serviceName = "storefront-migrate"
	sourceDir   = "pkg/migrate/migrations"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|redo|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory on disk (default: embedded migrations)")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate work on files only, so they skip config.
	switch opts.cmd {
	case "create":
		dir := opts.dir
		if dir == "" {
			dir = sourceDir
		}
		path, err := migrate.CreateSQLMigration(dir, opts.name, time.Now())
		exitOn(logg, "migrate.create_failed", err)
		fmt.Println("created migration:", path)
		return
	case "validate":
		exitOn(logg, "migrate.validate_failed", migrate.Validate(source(opts.dir)))
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	exitOn(logg, "migrate.config_failed", err)
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	exitOn(logg, "migrate.failed", run(context.Background(), cfg, logg, opts))
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) (err error) {
	src := source(opts.dir)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"source": src.String(),
		"driver": cfg.DB.Driver,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "migrate.started")
	switch opts.cmd {
	case "up", "down", "status", "redo":
		err = migrate.Run(ctx, sqlDB, dbClient.Driver(), src, opts.cmd)
	case "version":
		err = migrate.MigrateToVersion(ctx, sqlDB, dbClient.Driver(), src, opts.version)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate.completed")
	return nil
}

func source(dir string) migrate.Source {
	if dir == "" {
		return migrate.Embedded()
	}
	return migrate.OnDisk(dir)
}

func exitOn(logg *logger.Logger, event string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), event, err)
	os.Exit(1)
}
