package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/khoahotran/portfolio-site/adapters/persistence"
)

type migrateCmd struct {
	env        *environment
	schemaOnly bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply the schema and import a legacy document" }
func (*migrateCmd) Usage() string {
	return `portfolioctl migrate [-schema-only]

  Applies pending schema migrations, then moves a legacy single-document
  portfolio into the normalized tables. Safe to run repeatedly.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.schemaOnly, "schema-only", false, "skip the legacy document import")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	uc, conn, err := c.env.newMigrateUseCase()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer c.env.closeDB(conn)

	if err := persistence.ApplySchema(c.env.cfg.DB.MigrationsPath, conn.DSN(), c.env.logger); err != nil {
		fmt.Fprintf(os.Stderr, "schema migration failed: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("schema is up to date")
	if c.schemaOnly {
		return subcommands.ExitSuccess
	}

	out, err := uc.Execute(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "legacy migration failed: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(out.Message)
	return subcommands.ExitSuccess
}
