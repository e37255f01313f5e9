package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type resetCmd struct {
	env *environment
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "restore the default portfolio" }
func (*resetCmd) Usage() string {
	return `portfolioctl reset -yes

  Replaces every section with the built-in defaults.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "confirm the reset")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(os.Stderr, "reset discards all content; pass -yes to confirm")
		return subcommands.ExitUsageError
	}

	client, err := c.env.newClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer c.env.close(client)

	res := client.Reset(ctx)
	if !res.Success {
		fmt.Fprintf(os.Stderr, "reset failed: %s\n", res.Error)
		return subcommands.ExitFailure
	}
	fmt.Printf("portfolio reset, version %d\n", res.Version)
	return subcommands.ExitSuccess
}
