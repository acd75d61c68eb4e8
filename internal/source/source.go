// Package source imports study text: plain-text and Markdown files from
// disk, and article extraction from web pages. All imports are bounded so
// a stray file or page cannot blow up a generation prompt.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Resource limits, matching the upload bounds of the web app this tool
// grew out of.
const (
	// MaxFileBytes bounds the size of an imported file.
	MaxFileBytes = 5 << 20 // 5 MB

	// MaxTextChars bounds the character count of any imported text.
	MaxTextChars = 1_000_000
)

// Sentinel errors for import failures.
var (
	ErrFileTooLarge    = errors.New("file exceeds the 5 MB import limit")
	ErrTextTooLong     = errors.New("text exceeds the 1,000,000 character limit")
	ErrUnsupportedFile = errors.New("unsupported file type, want .txt or .md")
	ErrEmptySource     = errors.New("source contains no text")
)

// FromFile reads study text from a plain-text or Markdown file.
func FromFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", ".text":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > MaxFileBytes {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	// Stat raced with the open; the reader enforces the bound regardless.
	data, err := io.ReadAll(io.LimitReader(f, MaxFileBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > MaxFileBytes {
		return "", fmt.Errorf("%w: %s", ErrFileTooLarge, path)
	}

	return boundText(string(data))
}

// boundText trims and applies the character limit shared by every import
// path.
func boundText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptySource
	}
	if utf8.RuneCountInString(text) > MaxTextChars {
		return "", ErrTextTooLong
	}
	return text, nil
}
