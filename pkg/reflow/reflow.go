// SPDX-License-Identifier: MPL-2.0

// Package reflow joins hard-wrapped plain text into flowing paragraphs.
package reflow

import (
	"fmt"
	"os"
	"strings"
)

// Paragraphs removes carriage returns and joins the lines of each paragraph
// with a single space. A line feed survives when it follows another line
// feed, or when the next line is blank or starts with a tab. Applying
// Paragraphs to its own output returns the same text.
func Paragraphs(text string) string {
	text = strings.ReplaceAll(text, "\r", "")

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' && joinable(text, i) {
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func joinable(text string, i int) bool {
	if i > 0 && text[i-1] == '\n' {
		return false
	}
	if i+1 < len(text) && (text[i+1] == '\n' || text[i+1] == '\t') {
		return false
	}
	return true
}

// File reads the file at path and returns its reflowed contents.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Paragraphs(string(data)), nil
}
