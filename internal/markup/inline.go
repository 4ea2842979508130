package markup

import (
	"regexp"
	"strings"
)

// RunKind classifies one inline span within a block.
type RunKind int

const (
	RunPlain RunKind = iota
	RunBold
	RunItalic
	RunBoldItalic
	RunCode
	RunLink
)

// Run is one inline-formatted span of text. URL is set for RunLink only.
type Run struct {
	Kind RunKind
	Text string
	URL  string
}

var (
	linkRe = regexp.MustCompile(`\[(.+?)\]\((.+?)\)`)
	boldRe = regexp.MustCompile(`\*\*(.+?)\*\*`)
	codeSp = regexp.MustCompile("`(.+?)`")
)

// FormatInline converts block text into an ordered sequence of typed runs,
// scanning left to right for the first occurring span. When spans start at
// the same position, precedence is link, bold, italic, code. Bold and italic
// spans are scanned once for one nested opposite-style sub-span; deeper
// markers are emitted as literal characters.
func FormatInline(text string) []Run {
	var runs []Run
	appendInline(&runs, text)
	return runs
}

type span struct {
	start, end int
	apply      func(runs *[]Run, inner string, groups []string)
	groups     []string
}

func appendInline(runs *[]Run, text string) {
	remaining := text
	for remaining != "" {
		best, ok := firstSpan(remaining)
		if !ok {
			appendRun(runs, Run{Kind: RunPlain, Text: remaining})
			return
		}

		if before := remaining[:best.start]; before != "" {
			appendInline(runs, before)
		}
		best.apply(runs, remaining[best.start:best.end], best.groups)
		remaining = remaining[best.end:]
	}
}

// firstSpan finds the earliest-starting inline span in text. Ties at the same
// start position resolve in precedence order.
func firstSpan(text string) (span, bool) {
	candidates := make([]span, 0, 4)

	if m := linkRe.FindStringSubmatchIndex(text); m != nil {
		candidates = append(candidates, span{
			start:  m[0],
			end:    m[1],
			groups: []string{text[m[2]:m[3]], text[m[4]:m[5]]},
			apply: func(runs *[]Run, _ string, groups []string) {
				appendRun(runs, Run{Kind: RunLink, Text: groups[0], URL: groups[1]})
			},
		})
	}
	if m := boldRe.FindStringSubmatchIndex(text); m != nil {
		candidates = append(candidates, span{
			start:  m[0],
			end:    m[1],
			groups: []string{text[m[2]:m[3]]},
			apply: func(runs *[]Run, _ string, groups []string) {
				appendNested(runs, groups[0], RunBold)
			},
		})
	}
	if start, end, inner, ok := findItalic(text); ok {
		candidates = append(candidates, span{
			start:  start,
			end:    end,
			groups: []string{inner},
			apply: func(runs *[]Run, _ string, groups []string) {
				appendNested(runs, groups[0], RunItalic)
			},
		})
	}
	if m := codeSp.FindStringSubmatchIndex(text); m != nil {
		candidates = append(candidates, span{
			start:  m[0],
			end:    m[1],
			groups: []string{text[m[2]:m[3]]},
			apply: func(runs *[]Run, _ string, groups []string) {
				appendRun(runs, Run{Kind: RunCode, Text: groups[0]})
			},
		})
	}

	if len(candidates) == 0 {
		return span{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.start < best.start {
			best = c
		}
	}
	return best, true
}

// appendNested emits a bold or italic span, scanning its content once for a
// single nested opposite-style sub-span.
func appendNested(runs *[]Run, inner string, outer RunKind) {
	var start, end int
	var nested string
	found := false

	if outer == RunBold {
		if s, e, in, ok := findItalic(inner); ok {
			start, end, nested, found = s, e, in, true
		}
	} else {
		if m := boldRe.FindStringSubmatchIndex(inner); m != nil {
			start, end, nested, found = m[0], m[1], inner[m[2]:m[3]], true
		}
	}

	if !found {
		appendRun(runs, Run{Kind: outer, Text: inner})
		return
	}
	if before := inner[:start]; before != "" {
		appendRun(runs, Run{Kind: outer, Text: before})
	}
	appendRun(runs, Run{Kind: RunBoldItalic, Text: nested})
	if after := inner[end:]; after != "" {
		appendRun(runs, Run{Kind: outer, Text: after})
	}
}

// findItalic locates the first single-asterisk span: an opening '*' not
// adjacent to another '*', closed by a '*' equally non-adjacent, with
// non-empty content. Returns the span bounds and the inner text.
func findItalic(text string) (start, end int, inner string, ok bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '*' {
			continue
		}
		if i > 0 && text[i-1] == '*' {
			continue
		}
		if i+1 < len(text) && text[i+1] == '*' {
			continue
		}
		for j := i + 2; j < len(text); j++ {
			if text[j] != '*' || text[j-1] == '*' {
				continue
			}
			if j+1 < len(text) && text[j+1] == '*' {
				continue
			}
			content := text[i+1 : j]
			if strings.TrimSpace(content) == "" {
				break
			}
			return i, j + 1, content, true
		}
	}
	return 0, 0, "", false
}

// appendRun coalesces consecutive plain runs so prefix accumulation does not
// fragment the output.
func appendRun(runs *[]Run, r Run) {
	if r.Kind == RunPlain && len(*runs) > 0 {
		last := &(*runs)[len(*runs)-1]
		if last.Kind == RunPlain {
			last.Text += r.Text
			return
		}
	}
	*runs = append(*runs, r)
}
