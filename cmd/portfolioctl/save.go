package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
)

type saveCmd struct {
	env     *environment
	file    string
	partial bool
}

func (*saveCmd) Name() string     { return "save" }
func (*saveCmd) Synopsis() string { return "save a portfolio document from a JSON file" }
func (*saveCmd) Usage() string {
	return `portfolioctl save -file <path|-> [-partial]

  Posts the document to the API. With -partial only the keys present in the
  file are changed; personal and social are merged field by field and any
  listed section replaces the stored one.
`
}

func (c *saveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "-", "JSON file to upload, - for stdin")
	f.BoolVar(&c.partial, "partial", false, "merge into the stored portfolio instead of replacing it")
}

func (c *saveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	raw, err := readInput(c.file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if _, err := portfolio.ParsePatch(raw); err != nil {
		fmt.Fprintf(os.Stderr, "%s is not a valid portfolio document: %v\n", c.file, err)
		return subcommands.ExitUsageError
	}

	client, err := c.env.newClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer c.env.close(client)

	res := client.Save(ctx, json.RawMessage(raw), c.partial)
	if !res.Success {
		fmt.Fprintf(os.Stderr, "save failed: %s\n", res.Error)
		return subcommands.ExitFailure
	}
	fmt.Printf("saved version %d at %s\n", res.Version, res.Timestamp)
	return subcommands.ExitSuccess
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}
