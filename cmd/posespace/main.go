// SPDX-License-Identifier: MIT

// Command posespace inspects pose-space rigs offline: it builds a YAML rig,
// compiles it into a slot store and prints matrices and live weights.
package main

import (
	"os"

	"github.com/mitchellh/cli"
)

const version = "0.1.0"

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	ui := &cli.BasicUi{Reader: os.Stdin, Writer: os.Stdout, ErrorWriter: os.Stderr}

	c := cli.NewCLI("posespace", version)
	c.Args = args
	c.Commands = commands(Meta{Ui: ui, LogOutput: os.Stderr})

	code, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	return code
}

func commands(meta Meta) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"compile": func() (cli.Command, error) { return &CompileCommand{Meta: meta}, nil },
		"matrix":  func() (cli.Command, error) { return &MatrixCommand{Meta: meta}, nil },
		"weights": func() (cli.Command, error) { return &WeightsCommand{Meta: meta}, nil },
		"inspect": func() (cli.Command, error) { return &InspectCommand{Meta: meta}, nil },
	}
}
