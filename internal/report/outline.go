package report

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseOutline builds a Structure from a markdown outline. Headings become
// sections nested by level; body text under a heading becomes pre-filled
// section content (which the scheduler renders as-is instead of generating).
func ParseOutline(r io.Reader, title string) (*Structure, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	type stackEntry struct {
		section *Section
		level   int
	}

	// Root is level 0 so every h1+ nests under it.
	root := &Section{Title: title}
	stack := []stackEntry{{section: root, level: 0}}

	var currentText bytes.Buffer

	flushText := func() {
		t := strings.TrimSpace(currentText.String())
		if t != "" {
			top := stack[len(stack)-1].section
			if top.Content != "" {
				top.Content += "\n\n" + t
			} else {
				top.Content = t
			}
		}
		currentText.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			flushText()
			level := node.Level
			heading := string(node.Text(src))

			sec := &Section{Title: heading}

			for len(stack) > 1 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}

			parent := stack[len(stack)-1].section
			parent.Subsections = append(parent.Subsections, sec)
			stack = append(stack, stackEntry{section: sec, level: level})

		default:
			t := blockText(n, src)
			if t != "" {
				if currentText.Len() > 0 {
					currentText.WriteString("\n\n")
				}
				currentText.WriteString(t)
			}
		}
	}
	flushText()

	structure := &Structure{
		Title:    title,
		Sections: root.Subsections,
	}
	// A headingless outline still gets one section holding all the text.
	if len(structure.Sections) == 0 && root.Content != "" {
		structure.Sections = []*Section{{Title: title, Content: root.Content}}
	}
	return structure, nil
}

// blockText gets the raw text content of a goldmark AST node. A block that
// carries source lines reports those directly; its inline children cover the
// same bytes, so descending too would repeat them. Container blocks without
// lines collect text from their children instead.
func blockText(n ast.Node, src []byte) string {
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines.Len() > 0 {
			var buf bytes.Buffer
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			return strings.TrimSpace(buf.String())
		}
	}
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		var t string
		if txt, ok := c.(*ast.Text); ok {
			t = string(txt.Value(src))
		} else {
			t = blockText(c, src)
		}
		if t == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(t)
	}
	return strings.TrimSpace(buf.String())
}
