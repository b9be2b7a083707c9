package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	clanbattlemigrations "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/repositories/migrations"
	clanbattlequeue "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/infrastructure/queue"
	"github.com/Black-And-White-Club/clanbattle-bot/config"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load configuration for database connection ONLY
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(pgdb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, clanbattlemigrations.Migrations)

	cliApp := &cli.App{
		Name: "bun",
		Commands: []*cli.Command{
			newDBCommand(migrator, cfg.Postgres.DSN),
		},
	}

	// flag.Parse consumed -config; hand the remaining words to the CLI.
	if err := cliApp.Run(append([]string{os.Args[0]}, flag.Args()...)); err != nil {
		log.Fatal(err)
	}
}

func newDBCommand(migrator *migrate.Migrator, dsn string) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return migrator.Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate clan battle tables, then River's",
				Action: func(c *cli.Context) error {
					if err := migrator.Lock(c.Context); err != nil {
						return err
					}
					defer migrator.Unlock(c.Context) //nolint:errcheck

					group, err := migrator.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No new clan battle migrations to run")
					} else {
						fmt.Printf("Migrated clan battle tables to %s\n", group)
					}

					res, err := clanbattlequeue.MigrateRiver(c.Context, dsn, rivermigrate.DirectionUp, 0)
					if err != nil {
						return err
					}
					printRiver("Applied", res)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last clan battle migration group",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "river", Usage: "also roll River's tables back one version"},
				},
				Action: func(c *cli.Context) error {
					if err := migrator.Lock(c.Context); err != nil {
						return err
					}
					defer migrator.Unlock(c.Context) //nolint:errcheck

					group, err := migrator.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No groups to roll back")
					} else {
						fmt.Printf("Rolled back %s\n", group)
					}

					if c.Bool("river") {
						res, err := clanbattlequeue.MigrateRiver(c.Context, dsn, rivermigrate.DirectionDown, 0)
						if err != nil {
							return err
						}
						printRiver("Rolled back", res)
					}
					return nil
				},
			},
			{
				Name:  "create_sql",
				Usage: "create up and down SQL migrations",
				Action: func(c *cli.Context) error {
					name := strings.Join(c.Args().Slice(), "_")
					files, err := migrator.CreateSQLMigrations(c.Context, name)
					if err != nil {
						return err
					}
					for _, mf := range files {
						fmt.Printf("Created migration %s (%s)\n", mf.Name, mf.Path)
					}
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					ms, err := migrator.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("migrations: %s\n", ms)
					fmt.Printf("unapplied migrations: %s\n", ms.Unapplied())
					fmt.Printf("last migration group: %s\n", ms.LastGroup())
					return nil
				},
			},
		},
	}
}

func printRiver(verb string, res *rivermigrate.MigrateResult) {
	if res == nil || len(res.Versions) == 0 {
		fmt.Println("River tables already at target version")
		return
	}
	for _, v := range res.Versions {
		fmt.Printf("%s River migration %03d (%s)\n", verb, v.Version, v.Duration)
	}
}
