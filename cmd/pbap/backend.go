package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spachava753/pbap/internal/logutil"
	"github.com/spachava753/pbap/phonebook"
	"github.com/spachava753/pbap/store/opimd"
	"github.com/spachava753/pbap/store/sqlstore"
)

// env is what every subcommand works against: an open contact store and a
// provider in front of it.
type env struct {
	logger   *slog.Logger
	backend  phonebook.Backend
	provider *phonebook.Provider
	sqlite   *sqlstore.Store
	opimd    *opimd.Backend
	close    func() error
	closeLog func() error
}

func (e *env) Close() error {
	var err error
	if e.close != nil {
		err = e.close()
	}
	if e.closeLog != nil {
		e.closeLog()
	}
	return err
}

// requestContext bounds one command by the configured timeout.
func requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("timeout")
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func loadLocation() (*time.Location, error) {
	name := strings.TrimSpace(viper.GetString("timezone"))
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func openEnv(ctx context.Context) (*env, error) {
	logger, closeLog, err := logutil.Open(logutil.ConfigFromViper())
	if err != nil {
		return nil, err
	}
	loc, err := loadLocation()
	if err != nil {
		closeLog()
		return nil, err
	}

	e := &env{logger: logger, closeLog: closeLog}
	kind := strings.ToLower(strings.TrimSpace(viper.GetString("backend")))
	switch kind {
	case "", "sqlite":
		path := viper.GetString("sqlite.path")
		s, err := sqlstore.Open(ctx, path)
		if err != nil {
			closeLog()
			return nil, err
		}
		e.sqlite, e.backend, e.close = s, s, s.Close
		logger.Debug("opened sqlite store", "path", path)
	case "opimd":
		bus := viper.GetString("opimd.bus")
		b, err := opimd.Dial(ctx, bus,
			opimd.WithOwner(viper.GetString("opimd.owner")),
			opimd.WithLogger(logger.With("backend", "opimd")),
		)
		if err != nil {
			closeLog()
			return nil, err
		}
		if err := b.Ping(ctx); err != nil {
			_ = b.Close()
			closeLog()
			return nil, err
		}
		e.opimd, e.backend, e.close = b, b, b.Close
		logger.Debug("connected to opimd", "bus", bus)
	default:
		closeLog()
		return nil, fmt.Errorf("unknown backend %q (want sqlite or opimd)", kind)
	}

	e.provider = phonebook.New(e.backend,
		phonebook.WithLogger(logger),
		phonebook.WithLocation(loc),
	)
	return e, nil
}

// requireSQLite fails commands that write to the store when the backend
// is read-only.
func (e *env) requireSQLite(cmd string) (*sqlstore.Store, error) {
	if e.sqlite == nil {
		return nil, fmt.Errorf("%s requires the sqlite backend", cmd)
	}
	return e.sqlite, nil
}
