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
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// LLMAnalyzer asks a chat-completion model to guess where a referenced
// symbol is defined. It is a best-effort substitute for jedi's static
// resolution: the resolver re-validates every candidate path against the
// filesystem before trusting it, so a hallucinated path is simply discarded
// rather than propagated.
type LLMAnalyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewLLMAnalyzer builds an analyzer against an OpenAI-compatible endpoint.
// model defaults to "gpt-4o-mini" and timeout to 10s when zero-valued.
func NewLLMAnalyzer(apiKey, model string, timeout time.Duration) *LLMAnalyzer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LLMAnalyzer{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

type llmCandidateList struct {
	Candidates []Candidate `json:"candidates"`
}

func (a *LLMAnalyzer) Resolve(ctx context.Context, symbolName, sourceCode, filePath string) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"You are assisting a Python symbol indexer. The snippet below, from %q, "+
			"references the name %q which could not be resolved from imports or "+
			"the project's own index. Guess likely source files (relative to the "+
			"project root) where %q might be defined. Respond with JSON only: "+
			`{"candidates": [{"name": "...", "file_path": "..."}]}. `+
			"Return an empty list if you have no confident guess.\n\n%s",
		filePath, symbolName, symbolName, sourceCode,
	)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: llm completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	var parsed llmCandidateList
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("semantic: parse llm response: %w", err)
	}
	return parsed.Candidates, nil
}
