package report

import (
	"strings"
	"testing"
)

func TestParseOutline_HeadingHierarchy(t *testing.T) {
	input := `# Introduction

Pre-written intro text.

## Background

### History

## Scope

# Findings
`
	st, err := ParseOutline(strings.NewReader(input), "Annual Review")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.Title != "Annual Review" {
		t.Errorf("title = %q, want %q", st.Title, "Annual Review")
	}
	if len(st.Sections) != 2 {
		t.Fatalf("expected 2 top-level sections, got %d", len(st.Sections))
	}

	intro := st.Sections[0]
	if intro.Title != "Introduction" {
		t.Errorf("section title = %q", intro.Title)
	}
	if intro.Content != "Pre-written intro text." {
		t.Errorf("intro content = %q, want %q", intro.Content, "Pre-written intro text.")
	}
	if len(intro.Subsections) != 2 {
		t.Fatalf("expected 2 subsections under Introduction, got %d", len(intro.Subsections))
	}
	if intro.Subsections[0].Title != "Background" || intro.Subsections[1].Title != "Scope" {
		t.Errorf("subsections = %q, %q", intro.Subsections[0].Title, intro.Subsections[1].Title)
	}
	bg := intro.Subsections[0]
	if len(bg.Subsections) != 1 || bg.Subsections[0].Title != "History" {
		t.Fatalf("Background children wrong: %+v", bg.Subsections)
	}

	if st.Sections[1].Title != "Findings" {
		t.Errorf("second section = %q", st.Sections[1].Title)
	}
}

func TestParseOutline_SkippedLevels(t *testing.T) {
	input := `# Top

### Deep

## Shallow
`
	st, err := ParseOutline(strings.NewReader(input), "R")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top := st.Sections[0]
	if len(top.Subsections) != 2 {
		t.Fatalf("expected h3 and h2 both directly under h1, got %d", len(top.Subsections))
	}
	if top.Subsections[0].Title != "Deep" || top.Subsections[1].Title != "Shallow" {
		t.Errorf("children = %q, %q", top.Subsections[0].Title, top.Subsections[1].Title)
	}
}

func TestParseOutline_NoHeadings(t *testing.T) {
	input := `Just a paragraph of request text.

Another paragraph.`
	st, err := ParseOutline(strings.NewReader(input), "Freeform")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.Sections) != 1 {
		t.Fatalf("headingless outline should yield a single section, got %d", len(st.Sections))
	}
	sec := st.Sections[0]
	if sec.Title != "Freeform" {
		t.Errorf("section title = %q, want the document title", sec.Title)
	}
	want := "Just a paragraph of request text.\n\nAnother paragraph."
	if sec.Content != want {
		t.Errorf("content = %q, want %q", sec.Content, want)
	}
}

func TestParseOutline_EmptyInput(t *testing.T) {
	st, err := ParseOutline(strings.NewReader(""), "Empty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.Sections) != 0 {
		t.Errorf("expected no sections, got %d", len(st.Sections))
	}
}

func TestParseOutline_BodyTextAttachesToNearestHeading(t *testing.T) {
	input := `# A

## B

Text under B.

More text under B.

# C

Text under C.
`
	st, err := ParseOutline(strings.NewReader(input), "R")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := st.Sections[0].Subsections[0]
	if want := "Text under B.\n\nMore text under B."; b.Content != want {
		t.Errorf("B content = %q, want %q", b.Content, want)
	}
	if st.Sections[0].Content != "" {
		t.Errorf("A should have no direct content, got %q", st.Sections[0].Content)
	}
	if st.Sections[1].Content != "Text under C." {
		t.Errorf("C content = %q, want %q", st.Sections[1].Content, "Text under C.")
	}
}

func TestParseOutline_BodyKeptVerbatim(t *testing.T) {
	input := `# A

Text with **bold** and a [link](https://example.com).

- first item
- second item
`
	st, err := ParseOutline(strings.NewReader(input), "R")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Paragraph markup survives untouched; list markers are stripped but
	// each item's text appears exactly once.
	want := "Text with **bold** and a [link](https://example.com).\n\nfirst item\nsecond item"
	if got := st.Sections[0].Content; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}
