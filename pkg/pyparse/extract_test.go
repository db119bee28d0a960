// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pyparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, src string) *FileParseResult {
	t.Helper()
	p := NewParser(nil)
	result, err := ExtractFile(p, []byte(src), "fixture.py")
	require.NoError(t, err)
	return result
}

func TestExtractFile_ImportsDirectAndFrom(t *testing.T) {
	src := `
import os
import os.path as osp
from collections import OrderedDict
from . import sibling
from ..pkg.mod import Helper as H

def f():
    pass
`
	result := parseFixture(t, src)
	require.Len(t, result.Functions, 1)
	imports := result.Functions[0].Imports

	assert.Equal(t, "os", imports["os"])
	assert.Equal(t, "os.path", imports["osp"])
	assert.Equal(t, "collections.OrderedDict", imports["OrderedDict"])
	assert.Equal(t, "..pkg.mod.Helper", imports["H"])
}

func TestExtractFile_ClassAndMethodKinds(t *testing.T) {
	src := `
class Base:
    pass

class Widget(Base):
    def render(self):
        return self.paint()

    def paint(self):
        pass

def standalone():
    pass
`
	result := parseFixture(t, src)

	require.Len(t, result.Classes, 2)
	require.Len(t, result.Functions, 3)

	var render, paint, standalone *ParsedSymbol
	for i := range result.Functions {
		switch result.Functions[i].Name {
		case "render":
			render = &result.Functions[i]
		case "paint":
			paint = &result.Functions[i]
		case "standalone":
			standalone = &result.Functions[i]
		}
	}
	require.NotNil(t, render)
	require.NotNil(t, paint)
	require.NotNil(t, standalone)

	assert.Equal(t, KindMethod, render.Kind)
	assert.Equal(t, "Widget", render.HostClass)
	assert.Equal(t, KindMethod, paint.Kind)
	assert.Equal(t, "Widget", paint.HostClass)
	assert.Equal(t, KindFunction, standalone.Kind)
	assert.Empty(t, standalone.HostClass)

	var widget *ParsedSymbol
	for i := range result.Classes {
		if result.Classes[i].Name == "Widget" {
			widget = &result.Classes[i]
		}
	}
	require.NotNil(t, widget)
	assert.Equal(t, []string{"Base"}, widget.BaseClasses)
}

func TestExtractFile_CalleePatterns(t *testing.T) {
	src := `
def handler(request):
    validate(request)
    request.db.session.commit()
    logger.info
    result = Processor(request)
    return result
`
	result := parseFixture(t, src)
	require.Len(t, result.Functions, 1)
	callees := result.Functions[0].Callees

	assert.Contains(t, callees, "validate")
	assert.Contains(t, callees, "request.db.session")
	assert.Contains(t, callees, "logger.info")
	assert.Contains(t, callees, "Processor")
}

func TestExtractFile_SelfAndSuperExcluded(t *testing.T) {
	src := `
class Child(Base):
    def __init__(self):
        super().__init__()
        self.value = self.compute()
`
	result := parseFixture(t, src)
	require.Len(t, result.Functions, 1)
	init := result.Functions[0]

	assert.True(t, init.CallsSuper)
	assert.NotContains(t, init.Callees, "super")
	for _, c := range init.Callees {
		assert.NotContains(t, c, "self")
	}
}

func TestExtractFile_ErrorTolerance(t *testing.T) {
	src := `
def broken(:
    pass

def fine():
    return 1
`
	result := parseFixture(t, src)
	assert.GreaterOrEqual(t, result.ErrorCount, 1)

	var fine *ParsedSymbol
	for i := range result.Functions {
		if result.Functions[i].Name == "fine" {
			fine = &result.Functions[i]
		}
	}
	require.NotNil(t, fine)
}
