// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui centralizes the CLI's terminal output: color setup, section
// headers, and small formatting helpers shared across subcommands.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Cyan   = color.New(color.FgCyan)
	Dim    = color.New(color.Faint)
)

// InitColors disables color output globally when noColor is true or stdout
// isn't attached to a real terminal (piped output, redirected to a file).
func InitColors(noColor bool) {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		color.NoColor = true
	}
	if noColor {
		color.NoColor = true
	}
}

// Header prints a bold section title.
func Header(title string) {
	bold := color.New(color.Bold)
	bold.Println(title)
}

// SubHeader prints a dimmer, indented section title under a Header.
func SubHeader(title string) {
	Dim.Printf("  %s\n", title)
}

// Info prints a plain informational line.
func Info(msg string) {
	fmt.Println(msg)
}

// Infof prints a formatted informational line.
func Infof(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// DimText renders s in the terminal's dim/faint style without a trailing newline.
func DimText(s string) string {
	return Dim.Sprint(s)
}

// CountText renders a count alongside its noun, pluralizing with a trailing
// "s" (or "es" for nouns ending in "s") for anything other than exactly one.
func CountText(count int, noun string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, noun)
	}
	suffix := "s"
	if strings.HasSuffix(noun, "s") {
		suffix = "es"
	}
	return fmt.Sprintf("%d %s%s", count, noun, suffix)
}

// Label renders a "key: value"-style line with a dimmed key.
func Label(key, value string) string {
	return fmt.Sprintf("%s %s", Dim.Sprint(key+":"), value)
}
