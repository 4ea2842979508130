package markup

import (
	"reflect"
	"testing"
)

func TestFormatInline_PlainOnly(t *testing.T) {
	runs := FormatInline("just plain text")
	want := []Run{{Kind: RunPlain, Text: "just plain text"}}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_BoldWithSurroundingText(t *testing.T) {
	runs := FormatInline("Some **bold** text.")
	want := []Run{
		{Kind: RunPlain, Text: "Some "},
		{Kind: RunBold, Text: "bold"},
		{Kind: RunPlain, Text: " text."},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_ItalicNotAdjacentToBoldMarkers(t *testing.T) {
	// "**bold**" must not produce an italic run from its asterisks.
	runs := FormatInline("**bold**")
	want := []Run{{Kind: RunBold, Text: "bold"}}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_Italic(t *testing.T) {
	runs := FormatInline("an *emphasized* word")
	want := []Run{
		{Kind: RunPlain, Text: "an "},
		{Kind: RunItalic, Text: "emphasized"},
		{Kind: RunPlain, Text: " word"},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_ItalicInsideBold(t *testing.T) {
	runs := FormatInline("**bold with *italic* inside**")
	want := []Run{
		{Kind: RunBold, Text: "bold with "},
		{Kind: RunBoldItalic, Text: "italic"},
		{Kind: RunBold, Text: " inside"},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_BoldInsideItalic(t *testing.T) {
	runs := FormatInline("*italic with **bold** inside*")
	want := []Run{
		{Kind: RunItalic, Text: "italic with "},
		{Kind: RunBoldItalic, Text: "bold"},
		{Kind: RunItalic, Text: " inside"},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_Link(t *testing.T) {
	runs := FormatInline("see [the docs](https://example.com/docs) here")
	want := []Run{
		{Kind: RunPlain, Text: "see "},
		{Kind: RunLink, Text: "the docs", URL: "https://example.com/docs"},
		{Kind: RunPlain, Text: " here"},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_Code(t *testing.T) {
	runs := FormatInline("run `go test` locally")
	want := []Run{
		{Kind: RunPlain, Text: "run "},
		{Kind: RunCode, Text: "go test"},
		{Kind: RunPlain, Text: " locally"},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_LinkBeatsBoldAtSameStart(t *testing.T) {
	// The link span starts first; bold inside the link text stays literal
	// within the link run.
	runs := FormatInline("[**bold link**](https://example.com)")
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d: %+v", len(runs), runs)
	}
	if runs[0].Kind != RunLink {
		t.Errorf("expected link run, got kind %d", runs[0].Kind)
	}
	if runs[0].Text != "**bold link**" {
		t.Errorf("expected literal link text, got %q", runs[0].Text)
	}
}

func TestFormatInline_MultipleSpansInOrder(t *testing.T) {
	runs := FormatInline("**a** then *b* then `c`")
	want := []Run{
		{Kind: RunBold, Text: "a"},
		{Kind: RunPlain, Text: " then "},
		{Kind: RunItalic, Text: "b"},
		{Kind: RunPlain, Text: " then "},
		{Kind: RunCode, Text: "c"},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_DeepNestingStaysLiteral(t *testing.T) {
	// Only one nesting level is supported: a second italic span inside bold
	// is left as literal asterisks.
	runs := FormatInline("**a *b* c *d* e**")
	want := []Run{
		{Kind: RunBold, Text: "a "},
		{Kind: RunBoldItalic, Text: "b"},
		{Kind: RunBold, Text: " c *d* e"},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestFormatInline_Empty(t *testing.T) {
	if runs := FormatInline(""); len(runs) != 0 {
		t.Errorf("expected no runs for empty input, got %+v", runs)
	}
}
