package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/khoahotran/portfolio-site/internal/storage"
)

type watchCmd struct {
	env *environment
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "print invalidations as other clients save" }
func (*watchCmd) Usage() string {
	return `portfolioctl watch

  Listens on the local store (and Redis, when configured) and prints each new
  version along with the refreshed owner name. Stops on interrupt.
`
}

func (*watchCmd) SetFlags(*flag.FlagSet) {}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	versions := make(chan int64, 16)
	client, err := c.env.newClient(storage.WithOnInvalidate(func(v int64) {
		select {
		case versions <- v:
		default:
		}
	}))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer c.env.close(client)

	snap := client.Get(ctx, false)
	fmt.Printf("watching from version %d (%s)\n", client.Version(), snap.Document.Personal.Name)

	for {
		select {
		case <-ctx.Done():
			return subcommands.ExitSuccess
		case v := <-versions:
			snap := client.Get(ctx, false)
			fmt.Printf("version %d: %s (customized=%t)\n", v, snap.Document.Personal.Name, snap.IsCustomized)
		}
	}
}
