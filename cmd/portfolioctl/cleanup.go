package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type cleanupCmd struct {
	env *environment
}

func (*cleanupCmd) Name() string     { return "cleanup" }
func (*cleanupCmd) Synopsis() string { return "remove the legacy portfolio table" }
func (*cleanupCmd) Usage() string {
	return `portfolioctl cleanup

  Deletes leftover legacy rows and drops the legacy table once the normalized
  portfolio exists.
`
}

func (*cleanupCmd) SetFlags(*flag.FlagSet) {}

func (c *cleanupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	uc, conn, err := c.env.newMigrateUseCase()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer c.env.closeDB(conn)

	out, err := uc.ExecuteCleanup(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cleanup failed: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s (removed=%d, dropped=%t)\n", out.Message, out.Removed, out.Dropped)
	return subcommands.ExitSuccess
}
