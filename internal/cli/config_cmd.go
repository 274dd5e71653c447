// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/olla-cli/internal/config"
)

// HandleConfig implements "olla config" with show, get, set, reset, and
// path subcommands.
func HandleConfig(ctx context.Context, args *Args) error {
	_ = ctx
	SetupTheme(args.Theme)
	SetupTerminal(args)

	sub := args.Subcommand()
	switch sub {
	case "", "show":
		return configShow()
	case "get":
		key := args.Parser.Positional(2)
		if key == "" {
			return Usagef("usage: olla config get <key>")
		}
		return configGet(key)
	case "set":
		key := args.Parser.Positional(2)
		value := args.Parser.Positional(3)
		if key == "" || value == "" {
			return Usagef("usage: olla config set <key> <value>")
		}
		return configSet(key, value)
	case "reset":
		return configReset(args.Parser.BoolFlag("yes"))
	case "path":
		return configPath()
	default:
		return Usagef("unknown config subcommand %q (show, get, set, reset, path)", sub)
	}
}

// configShow prints the effective configuration as YAML, after env
// overrides, so users see what a command would actually use.
func configShow() error {
	cfg, err := config.Load()
	if err != nil {
		return &ConfigError{Message: "loading configuration", Cause: err}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	fmt.Fprint(stdout(), string(data))
	return nil
}

func configGet(key string) error {
	cfg, err := config.Load()
	if err != nil {
		return &ConfigError{Message: "loading configuration", Cause: err}
	}
	value, err := cfg.Get(key)
	if err != nil {
		return Usagef("%v", err)
	}
	fmt.Fprintln(stdout(), value)
	return nil
}

// configSet mutates the file contents only. LoadFile skips environment
// overrides so a transient OLLA_MODEL never gets persisted by an
// unrelated set.
func configSet(key, value string) error {
	cfg, err := config.LoadFile()
	if err != nil {
		return &ConfigError{Message: "loading configuration", Cause: err}
	}
	if err := cfg.Set(key, value); err != nil {
		return Usagef("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return &ConfigError{Message: "saving configuration", Cause: err}
	}
	fmt.Fprintf(stdout(), "%s = %s\n", key, value)
	return nil
}

func configReset(yes bool) error {
	if !yes && !confirm("Reset configuration to defaults?") {
		fmt.Fprintln(stdout(), "Aborted.")
		return nil
	}
	if err := config.Save(config.Default()); err != nil {
		return &ConfigError{Message: "saving configuration", Cause: err}
	}
	fmt.Fprintln(stdout(), "Configuration reset to defaults.")
	return nil
}

func configPath() error {
	path, err := config.ConfigPath()
	if err != nil {
		return &ConfigError{Message: "resolving configuration path", Cause: err}
	}
	fmt.Fprintln(stdout(), path)
	return nil
}
