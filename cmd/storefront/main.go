// storefront is the terminal client for the Glazia storefront backend.
//
// Usage:
//
//	storefront systems                          List system types
//	storefront series <type>                    List the series of a system type
//	storefront descriptions <type> <series>     List descriptions of a series
//	storefront options <type>                   Show pricing options of a system type
//	storefront token set <token>                Store a bearer token
//	storefront token clear                      Sign out
//	storefront config get                       Print the saved global configuration
//	storefront config set <file|->              Save a global configuration blob
//	storefront sync                             Keep the cached profile in sync until interrupted
//	storefront whoami                           Refresh and print the signed-in user
//	storefront admin create <user> <pass> [role] Add an admin account to MySQL
//
// Persistent state lives in Redis when REDIS_URL or REDIS_HOST answers,
// otherwise in process memory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/glazia/storefront/internal/api"
	"github.com/glazia/storefront/internal/config"
	"github.com/glazia/storefront/internal/logx"
	"github.com/glazia/storefront/internal/query"
	"github.com/glazia/storefront/internal/quotation"
	"github.com/glazia/storefront/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "storefront: load .env: %v\n", err)
	}

	cmd, args := parseArgs(os.Args[1:])
	if cmd == "" || cmd == "help" || cmd == "--help" || cmd == "-h" {
		printUsage(os.Stdout)
		if cmd == "" {
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
	logx.Init(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := newApp(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := a.run(ctx, cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		}
		stop()
		cleanup()
		os.Exit(1)
	}
}

// parseArgs splits the subcommand from its positional arguments.
func parseArgs(raw []string) (string, []string) {
	if len(raw) == 0 {
		return "", nil
	}
	return raw[0], raw[1:]
}

func newApp(cfg config.ClientConfig, out io.Writer) (*app, func(), error) {
	backend, err := api.New(api.Options{
		BaseURL:  cfg.BackendURL,
		Timeout:  cfg.BackendTimeout,
		UserPath: cfg.UserProfilePath,
	})
	if err != nil {
		return nil, nil, err
	}

	var st storage.Storage
	cleanup := func() {}
	if rdb := config.NewRedisClient(); rdb != nil {
		st = storage.NewRedis(rdb, cfg.StoragePrefix)
		cleanup = func() { _ = rdb.Close() }
	} else {
		logx.Debug().Msg("redis unavailable; storage is in-memory for this run")
		st = storage.NewMemory()
	}

	return &app{
		out:     out,
		cfg:     cfg,
		backend: backend,
		storage: st,
		queries: quotation.NewQueries(backend, query.New(query.Options{
			Retry:   query.RetryOnce{Delay: cfg.QueryRetryDelay},
			Timeout: 2*cfg.BackendTimeout + cfg.QueryRetryDelay,
		})),
	}, cleanup, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: storefront <command> [args]

Catalog:
  systems                          List system types
  series <type>                    List the series of a system type
  descriptions <type> <series>     List descriptions of a series
  options <type>                   Show pricing options of a system type

Session:
  token set <token>                Store a bearer token
  token clear                      Sign out
  whoami                           Refresh and print the signed-in user
  sync                             Keep the cached profile in sync until interrupted

Configuration:
  config get                       Print the saved global configuration
  config set <file|->              Save a global configuration blob

Admin:
  admin create <user> <pass> [role] Add an admin account (needs ADMIN_DB_*)
`)
}
