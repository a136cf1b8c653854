// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/katalvlaran/posespace/host"
)

// CompileCommand builds a rig, compiles it and optionally saves the slot
// store as a sqlite snapshot.
type CompileCommand struct {
	Meta
}

func (c *CompileCommand) Run(args []string) int {
	fs := c.flagSet("compile", true, true)
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	ctx := context.Background()

	s, err := c.open()
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	for _, d := range s.sys.Drivers() {
		st, _ := s.comp.Stats(d.ID())
		c.Ui.Output(fmt.Sprintf("driver %s: %d poses, %d inputs, solve %s, %d formulas written, %d unchanged",
			d.Name(), d.Poses().Len(), d.Inputs().Len(), d.SolveMethod(), st.Written, st.Unchanged))
	}

	err = s.store.View(func(r host.Reader) error {
		for _, name := range r.Names() {
			c.Ui.Output(fmt.Sprintf("  %-48s %d", name, r.Len(name)))
		}
		return nil
	})
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	if c.dbPath != "" {
		if err := s.save(ctx, c.dbPath); err != nil {
			c.Ui.Error(fmt.Sprintf("save snapshot: %s", err))
			return 1
		}
		c.Ui.Info("snapshot written to " + c.dbPath)
	}

	return 0
}

func (c *CompileCommand) Help() string {
	helpText := `
Usage: posespace compile -rig FILE [options]

  Builds the drivers of a rig, compiles their weight formulas into a slot
  store and lists the slots.

Options:

  -rig=FILE         YAML rig file.
  -db=FILE          Also write the slot store to a sqlite snapshot.
  -log-level=LEVEL  trace, debug, info, warn (default) or error.
`
	return strings.TrimSpace(helpText)
}

func (c *CompileCommand) Synopsis() string {
	return "Compile a rig into a slot store"
}
