// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/katalvlaran/posespace/compiler"
)

// WeightsCommand evaluates one frame of a compiled rig against the live
// values declared in the rig and prints the weight of every pose.
type WeightsCommand struct {
	Meta
}

func (c *WeightsCommand) Run(args []string) int {
	var driver string
	fs := c.flagSet("weights", true, true)
	fs.StringVar(&driver, "driver", "", "driver name")
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
	drivers, err := c.drivers(s.sys, driver)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	fr, err := s.frame(ctx)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if err := fr.Err(); err != nil {
		c.Ui.Warn(fmt.Sprintf("some cells kept their stored value: %s", err))
	}

	for _, d := range drivers {
		for _, p := range d.Poses().All() {
			w, err := fr.Value(compiler.WeightRef(p))
			if err != nil {
				c.Ui.Error(err.Error())
				return 1
			}
			c.Ui.Output(fmt.Sprintf("%s\t%s\t%.4f", d.Name(), p.Name(), w))
		}
	}

	if c.dbPath != "" {
		if err := s.save(ctx, c.dbPath); err != nil {
			c.Ui.Error(fmt.Sprintf("save snapshot: %s", err))
			return 1
		}
	}

	return 0
}

func (c *WeightsCommand) Help() string {
	helpText := `
Usage: posespace weights -rig FILE [options]

  Evaluates the compiled formulas once against the live values of the rig
  and prints driver, pose and weight, tab separated.

Options:

  -rig=FILE         YAML rig file.
  -driver=NAME      Only print the named driver.
  -db=FILE          Also write the slot store to a sqlite snapshot.
  -log-level=LEVEL  trace, debug, info, warn (default) or error.
`
	return strings.TrimSpace(helpText)
}

func (c *WeightsCommand) Synopsis() string {
	return "Evaluate pose weights for the rig's live values"
}
