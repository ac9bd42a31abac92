// extractor.go - Multi-pass OCR text extraction via the tesseract binary

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Config holds OCR backend settings
type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Language  string // default "eng"
}

// Runner abstracts the external process invocation so tests can fake it
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// execRunner invokes the real binary
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// Extractor runs tesseract under several page-segmentation modes and merges
// the outputs
type Extractor struct {
	cfg    Config
	runner Runner
}

// NewExtractor creates an Extractor with defaults filled in
func NewExtractor(cfg Config) *Extractor {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}}
}

// NewExtractorWithRunner is used by tests to inject a fake process runner
func NewExtractorWithRunner(cfg Config, runner Runner) *Extractor {
	e := NewExtractor(cfg)
	e.runner = runner
	return e
}

// Page-segmentation modes tried in order:
//
//	6 - assume a single uniform block of text
//	4 - assume a single column of text of variable sizes
//	3 - fully automatic page segmentation
//
// Receipts defeat any single mode often enough that redundant text from
// multiple passes beats missing text from one; the downstream LLM tolerates
// repetition but not gaps.
var psmPasses = []int{6, 4, 3}

// Extract runs all OCR passes over the image and returns the newline-joined
// text of every pass that produced output. Failed passes are skipped
// independently; if every pass fails the result is an empty string. Extract
// never returns an error.
func (e *Extractor) Extract(ctx context.Context, imagePath string) string {
	var texts []string

	for _, psm := range psmPasses {
		args := []string{
			imagePath, "stdout",
			"-l", e.cfg.Language,
			"--oem", "3",
			"--psm", fmt.Sprintf("%d", psm),
		}

		out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
		if err != nil {
			continue
		}

		text := strings.TrimSpace(string(out))
		if text != "" {
			texts = append(texts, text)
		}
	}

	return strings.Join(texts, "\n")
}
