// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"
)

// MatrixCommand prints the distance matrices and solved weights of a rig.
type MatrixCommand struct {
	Meta
}

func (c *MatrixCommand) Run(args []string) int {
	var driver string
	fs := c.flagSet("matrix", true, false)
	fs.StringVar(&driver, "driver", "", "driver name")
	if err := fs.Parse(args); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

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

	for _, d := range drivers {
		c.Ui.Output(fmt.Sprintf("driver %s (%s, %s)", d.Name(), d.Smoothing(), d.SolveMethod()))
		for i, in := range d.Inputs().All() {
			state := "valid"
			if !in.IsValid() {
				state = "excluded"
			}
			c.Ui.Output(fmt.Sprintf("input %d %s %s (%s)", i, in.Type(), in.EffectiveMetric(), state))
			c.Ui.Output(strings.TrimRight(in.Distance().Matrix().String(), "\n"))
		}
		c.Ui.Output("distance:")
		c.Ui.Output(strings.TrimRight(d.Distance().Matrix().String(), "\n"))
		c.Ui.Output("weights:")
		c.Ui.Output(strings.TrimRight(d.Weights().String(), "\n"))
	}

	return 0
}

func (c *MatrixCommand) Help() string {
	helpText := `
Usage: posespace matrix -rig FILE [options]

  Prints every input distance matrix, the aggregated driver matrix and the
  solved variable matrix of each driver.

Options:

  -rig=FILE         YAML rig file.
  -driver=NAME      Only print the named driver.
  -log-level=LEVEL  trace, debug, info, warn (default) or error.
`
	return strings.TrimSpace(helpText)
}

func (c *MatrixCommand) Synopsis() string {
	return "Print distance and weight matrices"
}
