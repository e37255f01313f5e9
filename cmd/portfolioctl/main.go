// Command portfolioctl administers a portfolio site from the terminal. Reads
// and writes go through the same cached client the site uses; migrate and
// cleanup talk to the database directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/khoahotran/portfolio-site/internal/config"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load config: %v\n", err)
		os.Exit(1)
	}

	env := &environment{cfg: cfg}
	flag.StringVar(&env.cfg.Client.APIURL, "api", cfg.Client.APIURL, "base URL of the portfolio API")
	flag.StringVar(&env.cfg.Client.StoreDir, "store", cfg.Client.StoreDir, "directory for the persisted client cache")
	flag.BoolVar(&env.verbose, "v", false, "log client diagnostics to stderr")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&getCmd{env: env}, "content")
	commander.Register(&saveCmd{env: env}, "content")
	commander.Register(&resetCmd{env: env}, "content")
	commander.Register(&watchCmd{env: env}, "content")
	commander.Register(&migrateCmd{env: env}, "database")
	commander.Register(&cleanupCmd{env: env}, "database")

	flag.Parse()
	env.logger = logger.NewNopLogger()
	if env.verbose {
		env.logger = logger.NewZapLogger("development")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
