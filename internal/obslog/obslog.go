// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package obslog wires up structured logging for the CLI: a human-readable
// console handler, and an optional day-rotated file handler matching the
// upstream tool's "{name}_{YYYYMMDD}.log" rotation scheme.
package obslog

import (
	"context"
	"log/slog"
	"os"
)

// Options configures New.
type Options struct {
	Verbose bool   // enables debug-level logging
	Quiet   bool   // suppresses all but warnings and errors
	LogDir  string // when non-empty, also writes day-rotated files here
	Name    string // base name for rotated log files, defaults to "pysymbols"
}

// New builds the root *slog.Logger for the process. Callers should
// slog.SetDefault(logger) once at startup.
func New(opts Options) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.Verbose:
		level = slog.LevelDebug
	case opts.Quiet:
		level = slog.LevelWarn
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	console := slog.NewTextHandler(os.Stderr, handlerOpts)

	if opts.LogDir == "" {
		return slog.New(console)
	}

	name := opts.Name
	if name == "" {
		name = "pysymbols"
	}
	rotating := newRotatingWriter(opts.LogDir, name)
	file := slog.NewJSONHandler(rotating, handlerOpts)

	return slog.New(multiHandler{console: console, file: file})
}

// multiHandler fans every record out to a human-readable console handler and
// a machine-readable rotating file handler.
type multiHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return m.console.Enabled(ctx, level) || m.file.Enabled(ctx, level)
}

func (m multiHandler) Handle(ctx context.Context, record slog.Record) error {
	if m.console.Enabled(ctx, record.Level) {
		if err := m.console.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	if m.file.Enabled(ctx, record.Level) {
		if err := m.file.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return multiHandler{console: m.console.WithAttrs(attrs), file: m.file.WithAttrs(attrs)}
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	return multiHandler{console: m.console.WithGroup(name), file: m.file.WithGroup(name)}
}
