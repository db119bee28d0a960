// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command pysymbols indexes a Python project's classes, functions, and
// methods and lets callers query a symbol's full definition together with
// its resolved dependencies.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pysymbols/internal/errors"
	"github.com/kraklabs/pysymbols/internal/ui"
)

const version = "0.1.0"

// GlobalFlags holds flags accepted before the subcommand name.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

func main() {
	var globals GlobalFlags
	var showVersion bool
	var configPath string

	flag.BoolVarP(&showVersion, "version", "V", false, "print version and exit")
	flag.StringVarP(&configPath, "config", "c", "", "path to the project root (defaults to discovery from cwd)")
	flag.BoolVar(&globals.JSON, "json", false, "emit machine-readable JSON output")
	flag.BoolVar(&globals.NoColor, "no-color", false, "disable colored output")
	flag.CountVarP(&globals.Verbose, "verbose", "v", "increase log verbosity (repeatable)")
	flag.BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress non-essential output")
	flag.SetInterspersed(false)
	flag.Usage = printUsage

	flag.Parse()

	if showVersion {
		fmt.Printf("pysymbols %s\n", version)
		return
	}

	if os.Getenv("NO_COLOR") != "" {
		globals.NoColor = true
	}
	if globals.Quiet && globals.Verbose > 0 {
		errors.FatalError(errors.NewInputError(
			"Conflicting flags",
			"--quiet and --verbose cannot be used together",
			"Choose one or the other",
			nil,
		))
	}
	if globals.JSON {
		globals.Quiet = true
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "init":
		err = runInit(rest, globals, configPath)
	case "index":
		err = runIndex(rest, globals, configPath)
	case "status":
		err = runStatus(rest, globals, configPath)
	case "query-class":
		err = runQueryClass(rest, globals, configPath)
	case "query-function":
		err = runQueryFunction(rest, globals, configPath)
	case "list-symbols":
		err = runListSymbols(rest, globals, configPath)
	case "rebuild-index":
		err = runRebuildIndex(rest, globals, configPath)
	case "watch":
		err = runWatch(rest, globals, configPath)
	case "reset":
		err = runReset(rest, globals, configPath)
	case "config":
		err = runConfigShow(rest, globals, configPath)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		errors.FatalError(err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `pysymbols - Python project symbol indexer and dependency resolver

Usage:
  pysymbols [global flags] <command> [command flags]

Commands:
  init            create a .pysymbols project configuration in the current directory
  index           build the symbol index, reusing cached freshness where possible
  rebuild-index   unconditionally rescan every file regardless of cached freshness
  status          show index freshness and symbol counts
  query-class     look up a class and its resolved dependencies
  query-function  look up a function or method and its resolved dependencies
  list-symbols    list every indexed class and function, optionally for one file
  watch           keep the index in sync as files change
  reset           clear the symbol index
  config          print the effective project configuration

Global flags:`)
	flag.PrintDefaults()
}
