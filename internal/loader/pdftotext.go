package loader

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PdftotextExtractor shells out to poppler's pdftotext, which separates
// pages with a form feed.
type PdftotextExtractor struct {
	Runner CommandRunner
}

// NewPdftotextExtractor returns an extractor backed by os/exec.
func NewPdftotextExtractor() *PdftotextExtractor {
	return &PdftotextExtractor{Runner: ExecRunner{}}
}

func (e *PdftotextExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	out, err := e.Runner.Run(ctx, "pdftotext", "-enc", "UTF-8", "-layout", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("pdftotext not found: %s", InstallInstructions())
		}
		return nil, fmt.Errorf("pdftotext %s: %w", path, err)
	}
	return splitPages(string(out)), nil
}

// splitPages splits pdftotext output on form feeds. pdftotext terminates
// every page with one, so the trailing empty element is dropped.
func splitPages(out string) []string {
	if out == "" {
		return nil
	}
	pages := strings.Split(out, "\f")
	if pages[len(pages)-1] == "" || strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// InstallInstructions explains how to get pdftotext.
func InstallInstructions() string {
	return "install poppler to get pdftotext (macOS: brew install poppler, Debian/Ubuntu: apt install poppler-utils)"
}

// NewExtractor returns the extractor named by kind ("native" or "pdftotext").
func NewExtractor(kind string) (Extractor, error) {
	switch kind {
	case "", "native":
		return NativeExtractor{}, nil
	case "pdftotext":
		return NewPdftotextExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown pdf extractor %q", kind)
	}
}
