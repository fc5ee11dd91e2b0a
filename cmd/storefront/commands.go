package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/glazia/storefront/internal/api"
	"github.com/glazia/storefront/internal/config"
	"github.com/glazia/storefront/internal/configstore"
	"github.com/glazia/storefront/internal/database"
	"github.com/glazia/storefront/internal/query"
	"github.com/glazia/storefront/internal/quotation"
	"github.com/glazia/storefront/internal/repository"
	"github.com/glazia/storefront/internal/session"
	"github.com/glazia/storefront/internal/storage"
)

var errUsage = errors.New("invalid arguments")

// app holds what every command shares.
type app struct {
	out     io.Writer
	in      io.Reader
	cfg     config.ClientConfig
	backend *api.Client
	storage storage.Storage
	queries *quotation.Queries
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "systems":
		return a.cmdSystems(ctx)
	case "series":
		return a.cmdSeries(ctx, args)
	case "descriptions":
		return a.cmdDescriptions(ctx, args)
	case "options":
		return a.cmdOptions(ctx, args)
	case "token":
		return a.cmdToken(ctx, args)
	case "config":
		return a.cmdConfig(ctx, args)
	case "sync":
		return a.cmdSync(ctx)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "admin":
		return a.cmdAdmin(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) cmdSystems(ctx context.Context) error {
	st := a.queries.Systems(ctx)
	if st.Status == query.Error {
		return st.Err
	}
	return a.printLines(st.Data)
}

func (a *app) cmdSeries(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: series <type>", errUsage)
	}
	st := a.queries.Series(ctx, args[0])
	switch st.Status {
	case query.Idle:
		return fmt.Errorf("%w: system type is blank", errUsage)
	case query.Error:
		return st.Err
	}
	return a.printLines(st.Data)
}

func (a *app) cmdDescriptions(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: descriptions <type> <series>", errUsage)
	}
	st := a.queries.Descriptions(ctx, args[0], args[1])
	switch st.Status {
	case query.Idle:
		return fmt.Errorf("%w: system type and series are required", errUsage)
	case query.Error:
		return st.Err
	}
	return a.printJSON(st.Data)
}

func (a *app) cmdOptions(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: options <type>", errUsage)
	}
	st := a.queries.Options(ctx, args[0])
	switch st.Status {
	case query.Idle:
		return fmt.Errorf("%w: system type is blank", errUsage)
	case query.Error:
		return st.Err
	}
	return a.printJSON(st.Data)
}

func (a *app) cmdToken(ctx context.Context, args []string) error {
	store := session.NewStore(a.storage)
	switch {
	case len(args) == 2 && args[0] == "set":
		if strings.TrimSpace(args[1]) == "" {
			return fmt.Errorf("%w: token is blank", errUsage)
		}
		if err := store.Login(ctx, strings.TrimSpace(args[1])); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "token stored")
		return nil
	case len(args) == 1 && args[0] == "clear":
		if err := store.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "signed out")
		return nil
	}
	return fmt.Errorf("%w: token set <token> | token clear", errUsage)
}

func (a *app) cmdConfig(ctx context.Context, args []string) error {
	cs := configstore.New(a.backend, configstore.StorageToken{Storage: a.storage})
	switch {
	case len(args) == 1 && args[0] == "get":
		blob, ok, err := cs.Load(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "not signed in; nothing loaded")
			return nil
		}
		return a.printRaw(blob)
	case len(args) == 2 && args[0] == "set":
		blob, err := a.readInput(args[1])
		if err != nil {
			return err
		}
		if !json.Valid(blob) {
			return fmt.Errorf("%s is not valid JSON", args[1])
		}
		reply, ok, err := cs.Save(ctx, blob)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "not signed in; nothing saved")
			return nil
		}
		return a.printRaw(reply)
	}
	return fmt.Errorf("%w: config get | config set <file|->", errUsage)
}

func (a *app) cmdSync(ctx context.Context) error {
	store := session.NewStore(a.storage)
	if err := store.Bootstrap(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "syncing user data; press Ctrl+C to stop")
	return session.NewSyncer(store, a.backend).Run(ctx)
}

func (a *app) cmdWhoami(ctx context.Context) error {
	store := session.NewStore(a.storage)
	if err := store.Bootstrap(ctx); err != nil {
		return err
	}
	res := session.NewSyncer(store, a.backend).Refresh(ctx)
	if !res.Success {
		// a 404 or transient failure still leaves the cached profile usable
		if u := store.User(); u != nil && res.Error != session.MsgSessionExpired {
			fmt.Fprintf(a.out, "warning: %s; showing cached profile\n", res.Error)
			return a.printJSON(u)
		}
		return errors.New(res.Error)
	}
	return a.printJSON(res.User)
}

func (a *app) cmdAdmin(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 || args[0] != "create" {
		return fmt.Errorf("%w: admin create <user> <pass> [role]", errUsage)
	}
	if !a.cfg.AdminDB.Enabled() {
		return errors.New("ADMIN_DB_HOST, ADMIN_DB_USER and ADMIN_DB_NAME must be set")
	}
	role := "admin"
	if len(args) == 4 {
		role = args[3]
	}
	db, err := database.Open(a.cfg.AdminDB)
	if err != nil {
		return fmt.Errorf("open admin db: %w", err)
	}
	defer db.Close()

	repo := repository.NewAdminRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	id, err := repo.Create(ctx, args[1], args[2], role, []string{"read", "write"}, a.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	fmt.Fprintf(a.out, "created admin %s (id %s, role %s)\n", args[1], id, role)
	return nil
}

func (a *app) readInput(name string) ([]byte, error) {
	if name == "-" {
		in := a.in
		if in == nil {
			in = os.Stdin
		}
		return io.ReadAll(in)
	}
	return os.ReadFile(name)
}

func (a *app) printLines(lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(a.out, l); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printRaw(b json.RawMessage) error {
	if len(b) == 0 {
		b = json.RawMessage("null")
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		_, err = fmt.Fprintln(a.out, string(b))
		return err
	}
	return a.printJSON(v)
}
