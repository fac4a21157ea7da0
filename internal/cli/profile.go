package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dbconsole/dbconsole/internal/client"
	"github.com/dbconsole/dbconsole/internal/config"
	"github.com/dbconsole/dbconsole/internal/model"
	"github.com/dbconsole/dbconsole/internal/store"
)

// profileNamespace is the key/value namespace the terminal client uses
// inside the state database.
const profileNamespace = "cli"

// errNoActiveConnection is returned by commands that act on a database
// when the profile has no active connection.
var errNoActiveConnection = errors.New(`no active connection; run "dbconsole connections use <name>" first`)

// CommandContext holds everything a resource command needs.
type CommandContext struct {
	Config *config.Config
	Client *client.Client
	Store  *store.Store
	Out    io.Writer
	JSON   bool

	db *store.SQLiteDB
}

// NewCommandContext opens the terminal profile and builds a backend client.
// The returned cleanup closes the profile database.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := GetConfig(cmd.Context())

	db, err := store.OpenSQLite(cfg.State.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening profile: %w", err)
	}

	var storage store.Storage = db.Namespace(profileNamespace)
	if cfg.State.Secret != "" {
		storage = store.Sealed(storage, cfg.State.Secret)
	}

	st, err := store.New(storage)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("loading profile: %w", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")

	cc := &CommandContext{
		Config: cfg,
		Client: client.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, nil),
		Store:  st,
		Out:    cmd.OutOrStdout(),
		JSON:   asJSON,
		db:     db,
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			slog.Warn("closing profile", "path", db.Path(), "err", err)
		}
	}
	return cc, cleanup, nil
}

// Target returns the active connection or errNoActiveConnection.
func (cc *CommandContext) Target() (model.Connection, error) {
	active := cc.Store.ActiveConnection()
	if active == nil {
		return model.Connection{}, errNoActiveConnection
	}
	return *active, nil
}

// Printf writes a line of command output.
func (cc *CommandContext) Printf(format string, args ...any) {
	fmt.Fprintf(cc.Out, format+"\n", args...)
}

// withProfile runs fn with a freshly opened CommandContext.
func withProfile(cmd *cobra.Command, fn func(cc *CommandContext) error) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(cc)
}

// withTarget runs fn with the profile's active connection.
func withTarget(cmd *cobra.Command, fn func(cc *CommandContext, target model.Connection) error) error {
	return withProfile(cmd, func(cc *CommandContext) error {
		target, err := cc.Target()
		if err != nil {
			return err
		}
		return fn(cc, target)
	})
}
