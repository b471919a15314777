// Package utils holds small file helpers shared by the CLI and the server.
package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotAFile     = errors.New("not a regular file")
	ErrFileTooLarge = errors.New("file too large")
)

// DocumentKind tells how an input document is turned into plain text.
type DocumentKind int

const (
	KindUnknown DocumentKind = iota
	KindText
	KindHTML
	KindPDF
)

var documentKinds = map[string]DocumentKind{
	".txt":      KindText,
	".text":     KindText,
	".md":       KindText,
	".markdown": KindText,
	".html":     KindHTML,
	".htm":      KindHTML,
	".pdf":      KindPDF,
}

// KindOf classifies filename by its extension, ignoring case.
func KindOf(filename string) DocumentKind {
	return documentKinds[strings.ToLower(filepath.Ext(filename))]
}

func (k DocumentKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindHTML:
		return "html"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// CheckInputFile stats filename and rejects directories and files larger
// than maxSize bytes. A non-positive maxSize disables the size check.
// Errors wrap os.ErrNotExist, ErrNotAFile or ErrFileTooLarge where they apply.
func CheckInputFile(filename string, maxSize int64) (os.FileInfo, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename cannot be empty: %w", ErrNotAFile)
	}
	info, err := os.Stat(filename)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", filename, ErrNotAFile)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%s is %s, over the %s limit: %w",
			filename, FormatFileSize(info.Size()), FormatFileSize(maxSize), ErrFileTooLarge)
	}
	return info, nil
}

// EnsureParentDir creates the directory that will hold filename.
func EnsureParentDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
