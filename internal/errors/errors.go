// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package errors gives the CLI a single error shape carrying a title, a
// detail, and an actionable suggestion, so the top-level command handler can
// render every failure consistently instead of leaking raw Go errors to the
// terminal.
package errors

import (
	"fmt"
	"os"
)

// Kind classifies an AppError for callers that want to branch on it (e.g.
// choosing an exit code).
type Kind string

const (
	KindConfig     Kind = "config"
	KindDatabase   Kind = "database"
	KindInput      Kind = "input"
	KindInternal   Kind = "internal"
	KindNetwork    Kind = "network"
	KindPermission Kind = "permission"
)

// AppError is the error type every command-level failure should resolve to
// before it reaches main.
type AppError struct {
	Kind       Kind
	Title      string
	Detail     string
	Suggestion string
	Cause      error
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

func (e *AppError) Unwrap() error { return e.Cause }

func newError(kind Kind, title, detail, suggestion string, cause error) *AppError {
	return &AppError{Kind: kind, Title: title, Detail: detail, Suggestion: suggestion, Cause: cause}
}

func NewConfigError(title, detail, suggestion string, cause error) *AppError {
	return newError(KindConfig, title, detail, suggestion, cause)
}

func NewDatabaseError(title, detail, suggestion string, cause error) *AppError {
	return newError(KindDatabase, title, detail, suggestion, cause)
}

func NewInputError(title, detail, suggestion string, cause error) *AppError {
	return newError(KindInput, title, detail, suggestion, cause)
}

func NewInternalError(title, detail, suggestion string, cause error) *AppError {
	return newError(KindInternal, title, detail, suggestion, cause)
}

func NewNetworkError(title, detail, suggestion string, cause error) *AppError {
	return newError(KindNetwork, title, detail, suggestion, cause)
}

func NewPermissionError(title, detail, suggestion string, cause error) *AppError {
	return newError(KindPermission, title, detail, suggestion, cause)
}

// FatalError prints err to stderr, rendering AppError's title/detail/
// suggestion/cause on separate lines when available, then exits with status
// 1. It does nothing when err is nil, so callers can defer it unconditionally
// at the end of a command's error path.
func FatalError(err error) {
	if err == nil {
		return
	}

	appErr, ok := err.(*AppError)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "error: %s\n", appErr.Title)
	if appErr.Detail != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", appErr.Detail)
	}
	if appErr.Cause != nil {
		fmt.Fprintf(os.Stderr, "  cause: %v\n", appErr.Cause)
	}
	if appErr.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "  suggestion: %s\n", appErr.Suggestion)
	}
	os.Exit(1)
}
