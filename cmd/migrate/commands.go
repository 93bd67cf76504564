package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"hisaab/internal/database"
	"hisaab/internal/logger"
)

// withManager opens the configured database, runs fn and closes it again.
func withManager(fn func(*database.Manager) error) subcommands.ExitStatus {
	log := logger.Get()

	cfg, err := database.NewConfig()
	if err != nil {
		log.Errorf("failed to load database configuration: %v", err)
		return subcommands.ExitFailure
	}

	manager, err := database.NewManager(cfg)
	if err != nil {
		log.Errorf("failed to open database: %v", err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := manager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	if err := fn(manager); err != nil {
		log.Errorf("Migration error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type upCmd struct{}

func (*upCmd) Name() string           { return "up" }
func (*upCmd) Synopsis() string       { return "apply all pending schema migrations" }
func (*upCmd) Usage() string          { return "migrate up\n" }
func (*upCmd) SetFlags(*flag.FlagSet) {}

func (*upCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withManager(func(m *database.Manager) error {
		return m.Migrate()
	})
}

type downCmd struct{}

func (*downCmd) Name() string     { return "down" }
func (*downCmd) Synopsis() string { return "roll back the last N migrations (default 1)" }
func (*downCmd) Usage() string {
	return `migrate down [N]

  Reverts the N most recently applied migrations. Rolling back past the
  first migration drops every ledger table.
`
}
func (*downCmd) SetFlags(*flag.FlagSet) {}

func (*downCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	steps := 1
	if f.NArg() > 0 {
		n, err := strconv.Atoi(f.Arg(0))
		if err != nil || n < 1 {
			fmt.Fprintf(f.Output(), "invalid step count %q\n", f.Arg(0))
			return subcommands.ExitUsageError
		}
		steps = n
	}

	return withManager(func(m *database.Manager) error {
		if err := m.Rollback(steps); err != nil {
			return err
		}
		logger.Get().Infof("Rolled back %d migration(s)", steps)
		return nil
	})
}

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print the current schema version" }
func (*versionCmd) Usage() string          { return "migrate version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (*versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withManager(func(m *database.Manager) error {
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)
		return nil
	})
}
