// Command migrate applies the embedded PostgreSQL schema.
//
//	migrate [-dsn url] up | down | steps N | version | force V | list
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/wyxpro/mindcare/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "MINDCARE_DB_DSN"

var errUsage = errors.New("usage: migrate [-dsn url] up|down|steps N|version|force V|list")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	fset := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fset.SetOutput(out)
	dsn := fset.String("dsn", "", "database URL (default $MINDCARE_DB_DSN, then service config)")
	if err := fset.Parse(args); err != nil {
		return err
	}

	cmd := fset.Args()
	if len(cmd) == 0 {
		return errUsage
	}

	if cmd[0] == "list" {
		return listVersions(out)
	}

	arg, err := commandArg(cmd)
	if err != nil {
		return err
	}

	m, err := open(resolveDSN(*dsn))
	if err != nil {
		return err
	}
	defer m.Close()

	switch cmd[0] {
	case "up":
		return report(out, m.Up(), "schema is up to date")
	case "down":
		return report(out, m.Down(), "schema reverted")
	case "steps":
		return report(out, m.Steps(arg), fmt.Sprintf("applied %d steps", arg))
	case "force":
		if err := m.Force(arg); err != nil {
			return fmt.Errorf("force version %d: %w", arg, err)
		}
		fmt.Fprintf(out, "forced to version %d\n", arg)
		return nil
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Fprintln(out, "version: none")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Fprintf(out, "version: %d, dirty: %v\n", v, dirty)
		return nil
	}
	return errUsage
}

// commandArg validates the command and parses its integer operand, if any.
func commandArg(cmd []string) (int, error) {
	switch cmd[0] {
	case "up", "down", "version":
		if len(cmd) != 1 {
			return 0, errUsage
		}
		return 0, nil
	case "steps", "force":
		if len(cmd) != 2 {
			return 0, errUsage
		}
		n, err := strconv.Atoi(cmd[1])
		if err != nil {
			return 0, fmt.Errorf("%s: invalid number %q", cmd[0], cmd[1])
		}
		return n, nil
	}
	return 0, errUsage
}

func resolveDSN(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envDSN); v != "" {
		return v
	}
	cfg, err := config.Load()
	if err != nil {
		return ""
	}
	return cfg.Database.URL()
}

func open(dsn string) (*migrate.Migrate, error) {
	if dsn == "" {
		return nil, fmt.Errorf("no database URL: set -dsn or %s", envDSN)
	}
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect migrator: %w", err)
	}
	return m, nil
}

func report(out io.Writer, err error, done string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintln(out, "no change")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, done)
	return nil
}

// listVersions prints the embedded migration versions in order.
func listVersions(out io.Writer) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	defer source.Close()

	v, err := source.First()
	for err == nil {
		fmt.Fprintln(out, v)
		v, err = source.Next(v)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
