package docsink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgallion1/reportgen/internal/markup"
)

// Element is one rendered block plus its resolved image asset, if any.
// AssetPath is set for image blocks whose generation succeeded; an image
// block with an empty AssetPath renders as a failure placeholder.
type Element struct {
	Block     markup.Block
	AssetPath string
}

// SinkError is a durable-storage failure during checkpoint. It threatens
// artifact integrity, so callers abort the enclosing assembly run instead of
// skipping.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// DocumentSink owns the single in-progress output document. All mutation and
// persistence goes through one mutex: only one caller is inside Append or
// Checkpoint at a time.
type DocumentSink struct {
	mu      sync.Mutex
	path    string
	title   string
	order   []string
	entries map[string][]Element
	log     *slog.Logger
}

// New creates a sink writing the artifact at path.
func New(path, title string, log *slog.Logger) *DocumentSink {
	return &DocumentSink{
		path:    path,
		title:   title,
		entries: make(map[string][]Element),
		log:     log,
	}
}

// Path returns the artifact location.
func (s *DocumentSink) Path() string { return s.path }

// Append stores a rendered block sequence for a section. Re-appending the
// same section id replaces the previous entry in place, so re-rendering a
// section never duplicates output.
func (s *DocumentSink) Append(sectionID string, elems []Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.entries[sectionID]; !seen {
		s.order = append(s.order, sectionID)
	}
	s.entries[sectionID] = elems
}

// Checkpoint rebuilds the full document from the arena and atomically
// replaces the artifact file. Safe to call any number of times.
func (s *DocumentSink) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpointLocked()
}

func (s *DocumentSink) checkpointLocked() error {
	doc := buildDocument(s.title, s.order, s.entries, s.log)

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &SinkError{Op: "mkdir", Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".reportgen-*.docx")
	if err != nil {
		return &SinkError{Op: "create", Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := doc.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &SinkError{Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &SinkError{Op: "close", Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &SinkError{Op: "rename", Err: err}
	}
	return nil
}

// Finalize writes the last checkpoint.
func (s *DocumentSink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpointLocked()
}

// Sections returns the section ids in commit order, for traceability.
func (s *DocumentSink) Sections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// BlockCount returns the total number of committed blocks.
func (s *DocumentSink) BlockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, elems := range s.entries {
		n += len(elems)
	}
	return n
}

// ArtifactPath derives the deterministic artifact location for a document
// title: every non-alphanumeric character becomes an underscore.
func ArtifactPath(outputDir, title string) string {
	return filepath.Join(outputDir, SanitizeTitle(title)+".docx")
}

// SanitizeTitle maps a title to its filesystem-safe form.
func SanitizeTitle(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "report"
	}
	return string(out)
}
