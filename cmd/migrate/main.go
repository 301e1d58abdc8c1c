package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
	dialect string
}

// offline commands never open a database connection.
var offline = map[string]func(context.Context, options) error{
	"create": func(_ context.Context, o options) error {
		if o.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(_ context.Context, o options) error {
		if err := migrate.ValidateFS(migrate.Migrations(), migrate.EmbeddedDir); err != nil {
			return fmt.Errorf("embedded migrations: %w", err)
		}
		if err := migrate.ValidateDir(o.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

var online = map[string]func(context.Context, *sql.DB, options) error{
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"version": func(ctx context.Context, sqlDB *sql.DB, o options) error {
		if o.version == "" {
			return errors.New("missing -version for version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, o.dialect, o.version)
	},
}

func gooseCommand(command string) func(context.Context, *sql.DB, options) error {
	return func(ctx context.Context, sqlDB *sql.DB, o options) error {
		return migrate.Run(ctx, sqlDB, o.dialect, command)
	}
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: "+commandList())
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "on-disk migrations directory (create, validate)")
	flag.StringVar(&opts.name, "name", "", "migration name (create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	opts.dialect = cfg.DB.Dialect()

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"cmd":     *cmd,
		"dialect": opts.dialect,
	})

	if run, ok := offline[*cmd]; ok {
		exitOn(ctx, logg, run(ctx, opts))
		return
	}
	run, ok := online[*cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q (want one of %s)\n", *cmd, commandList())
		os.Exit(2)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	err = run(ctx, sqlDB, opts)
	_ = dbClient.Close()
	exitOn(ctx, logg, err)
	logg.Info(ctx, "migrate finished")
}

func commandList() string {
	names := make([]string, 0, len(offline)+len(online))
	for name := range offline {
		names = append(names, name)
	}
	for name := range online {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func exitOn(ctx context.Context, logg *logger.Logger, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "migrate command failed", err)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
