// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
)

// NewLogger returns a named logger writing to w at level ("trace", "debug",
// "info", "warn", "error" or "off"). An empty level means "warn".
func NewLogger(level string, w io.Writer) (hclog.Logger, error) {
	if level == "" {
		level = "warn"
	}
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return nil, fmt.Errorf("config: unknown log level %q", level)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "posespace",
		Level:  lvl,
		Output: w,
	}), nil
}
