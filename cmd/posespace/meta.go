// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/katalvlaran/posespace/compiler"
	"github.com/katalvlaran/posespace/config"
	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/rbf"
)

// Meta holds the state shared by every command.
type Meta struct {
	Ui        cli.Ui
	LogOutput io.Writer

	logLevel string
	rigPath  string
	dbPath   string
}

// flagSet returns a flag set carrying the shared -log-level flag. Parse
// errors are reported through the Ui by the caller.
func (m *Meta) flagSet(name string, rig, db bool) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&m.logLevel, "log-level", "warn", "log level")
	if rig {
		fs.StringVar(&m.rigPath, "rig", "", "rig file")
	}
	if db {
		fs.StringVar(&m.dbPath, "db", "", "sqlite snapshot file")
	}

	return fs
}

func (m *Meta) logger() (hclog.Logger, error) {
	w := m.LogOutput
	if w == nil {
		w = io.Discard
	}

	return config.NewLogger(m.logLevel, w)
}

// session is a rig built into a system with a compiler attached.
type session struct {
	logger hclog.Logger
	sys    *rbf.System
	store  *host.MemoryStore
	comp   *compiler.Compiler
	scene  host.MapScene
}

func (m *Meta) open() (*session, error) {
	if m.rigPath == "" {
		return nil, errors.New("-rig is required")
	}
	logger, err := m.logger()
	if err != nil {
		return nil, err
	}
	rig, err := config.Load(m.rigPath)
	if err != nil {
		return nil, err
	}

	s := &session{logger: logger}
	s.sys = rbf.NewSystem(rbf.WithLogger(logger))
	s.store = host.NewMemoryStore(host.WithLogger(logger))
	s.comp = compiler.New(s.sys, s.store, compiler.WithLogger(logger))
	if s.scene, err = rig.Build(s.sys); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *session) frame(ctx context.Context) (*host.Frame, error) {
	return host.NewRuntime(s.store, s.scene, host.WithLogger(s.logger)).Frame(ctx)
}

// save writes the session store to a snapshot at path.
func (s *session) save(ctx context.Context, path string) error {
	snap := host.NewSQLiteSnapshot(path)
	if err := snap.Init(ctx); err != nil {
		return err
	}
	defer snap.Close()

	return snap.Save(ctx, s.store)
}

func (m *Meta) drivers(sys *rbf.System, name string) ([]*rbf.Driver, error) {
	if name == "" {
		return sys.Drivers(), nil
	}
	d := sys.DriverByName(name)
	if d == nil {
		return nil, errors.New("no driver named " + name)
	}

	return []*rbf.Driver{d}, nil
}
