// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package semantic

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullAnalyzer_AlwaysEmpty(t *testing.T) {
	var a Analyzer = NullAnalyzer{}
	candidates, err := a.Resolve(context.Background(), "Foo", "Foo()", "/proj/mod.py")
	require.NoError(t, err)
	assert.Nil(t, candidates)
}

func TestNewLLMAnalyzer_Defaults(t *testing.T) {
	a := NewLLMAnalyzer("sk-test", "", 0)
	assert.Equal(t, "gpt-4o-mini", a.model)
	assert.Greater(t, a.timeout.Seconds(), 0.0)
}

func TestNewLLMAnalyzer_HonorsOverrides(t *testing.T) {
	a := NewLLMAnalyzer("sk-test", "gpt-4o", 5)
	assert.Equal(t, "gpt-4o", a.model)
	assert.EqualValues(t, 5, a.timeout)
}

// TestLLMCandidateListDecoding exercises the exact JSON shape Resolve expects
// back from the chat completion, without making any network call.
func TestLLMCandidateListDecoding(t *testing.T) {
	raw := `{"candidates": [{"name": "Helper", "file_path": "pkg/util/helper.py"}]}`
	var parsed llmCandidateList
	require.NoError(t, json.Unmarshal([]byte(raw), &parsed))
	require.Len(t, parsed.Candidates, 1)
	assert.Equal(t, "Helper", parsed.Candidates[0].Name)
	assert.Equal(t, "pkg/util/helper.py", parsed.Candidates[0].FilePath)
}

func TestLLMCandidateListDecoding_EmptyList(t *testing.T) {
	raw := `{"candidates": []}`
	var parsed llmCandidateList
	require.NoError(t, json.Unmarshal([]byte(raw), &parsed))
	assert.Empty(t, parsed.Candidates)
}
