package docsink

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/reportgen/internal/markup"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func paragraph(text string) Element {
	return Element{Block: markup.Block{Kind: markup.BlockParagraph, Text: text}}
}

func heading(level int, text string) Element {
	return Element{Block: markup.Block{Kind: markup.BlockHeading, Level: level, Text: text}}
}

func TestSink_AppendRecordsCommitOrder(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "out.docx"), "Doc", testLogger())
	s.Append("1", []Element{heading(1, "A")})
	s.Append("2", []Element{heading(1, "B")})
	s.Append("1.1", []Element{heading(2, "A1")})

	got := s.Sections()
	want := []string{"1", "2", "1.1"}
	if len(got) != len(want) {
		t.Fatalf("Sections() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sections()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSink_AppendReplacesExistingSection(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "out.docx"), "Doc", testLogger())
	s.Append("1", []Element{heading(1, "A"), paragraph("first draft")})
	s.Append("2", []Element{heading(1, "B")})
	s.Append("1", []Element{heading(1, "A"), paragraph("revised"), paragraph("extra")})

	if got := s.BlockCount(); got != 4 {
		t.Errorf("BlockCount() = %d, want 4 after replacement", got)
	}
	// Re-appending must not move the section in the order.
	got := s.Sections()
	if len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("Sections() = %v, want [1 2]", got)
	}
}

func TestSink_CheckpointWritesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.docx")
	s := New(path, "Doc", testLogger())
	s.Append("1", []Element{heading(1, "Intro"), paragraph("Some **bold** text.")})

	if err := s.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("artifact is empty")
	}

	// A second checkpoint overwrites in place.
	s.Append("2", []Element{heading(1, "More")})
	if err := s.Checkpoint(); err != nil {
		t.Fatalf("second Checkpoint: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("output dir holds %d entries, want only the artifact", len(entries))
	}
}

func TestSink_CheckpointFailsOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(filepath.Join(blocker, "out.docx"), "Doc", testLogger())
	s.Append("1", []Element{heading(1, "A")})

	err := s.Checkpoint()
	if err == nil {
		t.Fatal("Checkpoint should fail when the parent dir is a file")
	}
	sinkErr, ok := err.(*SinkError)
	if !ok {
		t.Fatalf("error type = %T, want *SinkError", err)
	}
	if sinkErr.Op == "" {
		t.Error("SinkError.Op is empty")
	}
}

func TestSink_FinalizeRendersEveryKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.docx")
	s := New(path, "Kitchen Sink", testLogger())
	s.Append("1", []Element{
		heading(1, "All Kinds"),
		paragraph("Plain with *italic*, **bold**, `code` and [link](https://example.com)."),
		{Block: markup.Block{Kind: markup.BlockBulletList, Items: []string{"one", "two"}}},
		{Block: markup.Block{Kind: markup.BlockNumberList, Items: []string{"first", "second"}}},
		{Block: markup.Block{Kind: markup.BlockTable, Caption: "Numbers", Rows: [][]string{{"a", "b"}, {"1", "2"}}}},
		{Block: markup.Block{Kind: markup.BlockQuote, Text: "quoted line"}},
		{Block: markup.Block{Kind: markup.BlockCode, Language: "go", Code: "func main() {}\n"}},
		{Block: markup.Block{Kind: markup.BlockImage, Caption: "Lost figure", Description: "a missing image"}},
	})

	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Plain", "Plain"},
		{"With Spaces", "With_Spaces"},
		{"Q3: Findings & Next", "Q3__Findings___Next"},
		{"", "report"},
		{"///", "___"},
	}
	for _, tt := range tests {
		if got := SanitizeTitle(tt.in); got != tt.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArtifactPath(t *testing.T) {
	got := ArtifactPath("out", "My Report")
	want := filepath.Join("out", "My_Report.docx")
	if got != want {
		t.Errorf("ArtifactPath = %q, want %q", got, want)
	}
}
