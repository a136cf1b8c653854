// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/katalvlaran/posespace/compiler"
	"github.com/katalvlaran/posespace/host"
)

// InspectCommand lists the slots of a sqlite snapshot and the pose weight
// cells it contains.
type InspectCommand struct {
	Meta
}

func (c *InspectCommand) Run(args []string) int {
	fs := c.flagSet("inspect", false, true)
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if c.dbPath == "" {
		c.Ui.Error("-db is required")
		return 1
	}
	ctx := context.Background()
	logger, err := c.logger()
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	snap := host.NewSQLiteSnapshot(c.dbPath)
	if err := snap.Init(ctx); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer snap.Close()

	store := host.NewMemoryStore(host.WithLogger(logger))
	if err := snap.Load(ctx, store); err != nil {
		c.Ui.Error(fmt.Sprintf("load snapshot: %s", err))
		return 1
	}

	err = store.View(func(r host.Reader) error {
		for _, name := range r.Names() {
			n := r.Len(name)
			c.Ui.Output(fmt.Sprintf("%s\t%d", name, n))
			for i := 0; i < n; i++ {
				ref := host.SlotRef{Slot: name, Index: i}
				pose, ok := r.Annotation(ref, compiler.NotePose)
				if !ok {
					continue
				}
				f, _ := r.Formula(ref)
				c.Ui.Output(fmt.Sprintf("  [%d] pose %s: %s", i, pose, f.Expr))
			}
		}
		return nil
	})
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	return 0
}

func (c *InspectCommand) Help() string {
	helpText := `
Usage: posespace inspect -db FILE [options]

  Loads a sqlite snapshot written by compile or weights and lists its slots
  together with the weight formula of every pose.

Options:

  -db=FILE          sqlite snapshot file.
  -log-level=LEVEL  trace, debug, info, warn (default) or error.
`
	return strings.TrimSpace(helpText)
}

func (c *InspectCommand) Synopsis() string {
	return "List the slots of a snapshot"
}
