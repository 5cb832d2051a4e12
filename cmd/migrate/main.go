// Command migrate applies and authors the versioned postgres schema.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sultan/backend/internal/infrastructure/config"
	"github.com/sultan/backend/internal/infrastructure/logger"
	"github.com/sultan/backend/internal/infrastructure/migration"
)

const defaultDir = "migrations"

// invocation is what a command gets to work with. migrator is nil for
// commands that only touch the filesystem.
type invocation struct {
	args     []string
	dir      string
	log      *zap.Logger
	migrator *migration.Migrator
}

type command struct {
	usage   string
	help    string
	minArgs int
	offline bool
	run     func(inv *invocation) error
}

var commands = map[string]command{
	"up": {usage: "up", help: "Apply all pending migrations",
		run: func(inv *invocation) error { return inv.migrator.Up() }},
	"down": {usage: "down", help: "Roll back all migrations",
		run: func(inv *invocation) error { return inv.migrator.Down() }},
	"step": {usage: "step <n>", help: "Apply n migrations (negative rolls back)", minArgs: 1,
		run: func(inv *invocation) error {
			n, err := strconv.Atoi(inv.args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", inv.args[0])
			}
			return inv.migrator.Steps(n)
		}},
	"goto": {usage: "goto <version>", help: "Migrate to a specific version", minArgs: 1,
		run: func(inv *invocation) error {
			v, err := strconv.ParseUint(inv.args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", inv.args[0])
			}
			return inv.migrator.GoTo(uint(v))
		}},
	"force": {usage: "force <version>", help: "Force set migration version", minArgs: 1,
		run: func(inv *invocation) error {
			v, err := strconv.Atoi(inv.args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", inv.args[0])
			}
			return inv.migrator.Force(v)
		}},
	"version": {usage: "version", help: "Show current migration version",
		run: func(inv *invocation) error {
			v, dirty, err := inv.migrator.Version()
			if err != nil {
				return err
			}
			inv.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
			return nil
		}},
	"create": {usage: "create <name> [desc]", help: "Create a new migration file pair", minArgs: 1, offline: true,
		run: func(inv *invocation) error {
			description := ""
			if len(inv.args) > 1 {
				description = inv.args[1]
			}
			mf, err := migration.CreateMigration(inv.dir, inv.args[0], description)
			if err != nil {
				return err
			}
			inv.log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		}},
	"list": {usage: "list", help: "List available migrations", offline: true,
		run: func(inv *invocation) error {
			entries, err := migration.ListMigrations(inv.dir)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Println("  -", e)
			}
			return nil
		}},
}

var order = []string{"up", "down", "step", "goto", "version", "force", "create", "list"}

func main() {
	var dir, logLevel string
	flag.StringVar(&dir, "path", "", "Read migrations from this directory instead of the embedded schema")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}
	name := flag.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.DateTime,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	inv := &invocation{args: flag.Args()[1:], dir: dir, log: log}
	if len(inv.args) < cmd.minArgs {
		log.Fatal("Missing argument", zap.String("usage", "migrate "+cmd.usage))
	}

	if cmd.offline {
		if inv.dir == "" {
			inv.dir = defaultDir
		}
	} else {
		db, m, err := openMigrator(dir, log)
		if err != nil {
			log.Fatal("Failed to prepare migrations", zap.Error(err))
		}
		defer db.Close()
		defer m.Close()
		inv.migrator = m
	}

	if err := cmd.run(inv); err != nil {
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

// openMigrator connects to the configured postgres database and binds a
// migrator to either dir or the embedded schema.
func openMigrator(dir string, log *zap.Logger) (*sql.DB, *migration.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver != "postgres" {
		return nil, nil, errors.New("versioned migrations require the postgres driver; sqlite schemas are created on startup")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.NewFromDir(db, dir, migration.WithLogger(log))
	} else {
		m, err = migration.New(db, migration.WithLogger(log))
	}
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, m, nil
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Sultan database migration tool\n\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:")
	for _, name := range order {
		c := commands[name]
		fmt.Fprintf(out, "  %-22s%s\n", c.usage, c.help)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nThe connection comes from config.toml or SULTAN_DATABASE_* variables.")
}
