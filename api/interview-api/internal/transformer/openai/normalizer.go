// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transformer_openai

import (
	"regexp"
	"strings"
)

// OpenAI TTS reads plain text only, so generated questions lose their
// markdown before they are spoken.
var (
	headingPattern   = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	emphasisPattern  = regexp.MustCompile(`\*{1,2}([^*]+?)\*{1,2}|_{1,2}([^_]+?)_{1,2}`)
	codeBlockPattern = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode       = regexp.MustCompile("`([^`]+)`")
	quotePattern     = regexp.MustCompile(`(?m)^>\s?`)
	linkPattern      = regexp.MustCompile(`!?\[(.*?)\]\(.*?\)`)
	numberedPattern  = regexp.MustCompile(`(?m)^\s*(?:Q(?:uestion)?\s*\d+\s*[:.]|\d+\.)\s*`)
	whitespace       = regexp.MustCompile(`\s+`)
)

func normalizeSpeech(text string) string {
	if text == "" {
		return text
	}
	out := codeBlockPattern.ReplaceAllString(text, "")
	out = headingPattern.ReplaceAllString(out, "")
	out = emphasisPattern.ReplaceAllString(out, "$1$2")
	out = inlineCode.ReplaceAllString(out, "$1")
	out = quotePattern.ReplaceAllString(out, "")
	out = linkPattern.ReplaceAllString(out, "$1")
	return strings.TrimSpace(whitespace.ReplaceAllString(out, " "))
}

// cleanQuestion strips the decoration models like to put around a single
// generated question.
func cleanQuestion(text string) string {
	out := strings.TrimSpace(text)
	out = numberedPattern.ReplaceAllString(out, "")
	out = strings.Trim(out, "\"")
	return strings.TrimSpace(out)
}
