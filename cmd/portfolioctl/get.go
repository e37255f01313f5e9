package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
)

type getCmd struct {
	env      *environment
	core     bool
	sections string
	force    bool
	cached   bool
}

func (*getCmd) Name() string     { return "get" }
func (*getCmd) Synopsis() string { return "print the portfolio" }
func (*getCmd) Usage() string {
	return `portfolioctl get [-core | -sections <csv>] [-force | -cached]

  Prints the portfolio as JSON. Fresh data comes from the local cache when it
  is younger than the TTL, otherwise from the API. When the API cannot be
  reached the last persisted copy or the built-in defaults are printed.
`
}

func (c *getCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.core, "core", false, "print only personal and social details")
	f.StringVar(&c.sections, "sections", "", "comma separated sections to print (skills,projects,...)")
	f.BoolVar(&c.force, "force", false, "bypass the local cache")
	f.BoolVar(&c.cached, "cached", false, "never touch the network")
}

func (c *getCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client, err := c.env.newClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer c.env.close(client)

	var snap portfolio.Snapshot
	if c.cached {
		snap = client.Cached()
	} else {
		snap = client.Get(ctx, c.force)
	}
	if snap.IsDefault {
		fmt.Fprintln(os.Stderr, "note: showing built-in default content")
	}

	var out any = snap
	switch {
	case c.core:
		out = snap.Document.Core()
	case c.sections != "":
		sections := portfolio.ParseSections(c.sections)
		if len(sections) == 0 {
			fmt.Fprintf(os.Stderr, "no known sections in %q\n", c.sections)
			return subcommands.ExitUsageError
		}
		out = snap.Document.Pick(sections)
	}

	if err := printJSON(os.Stdout, out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
