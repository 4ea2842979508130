package research

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownLoader handles markdown sources using goldmark. Headings nest
// nodes by level; body blocks attach to the nearest heading above them.
type markdownLoader struct{}

func (l *markdownLoader) Load(r io.Reader, filename string) (*document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	parsed := md.Parser().Parse(text.NewReader(src))

	doc := &document{
		title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
	}

	type stackEntry struct {
		node  *node
		level int
	}
	root := &node{heading: doc.title}
	stack := []stackEntry{{node: root, level: 0}}

	var currentText bytes.Buffer
	flushText := func() {
		t := strings.TrimSpace(currentText.String())
		if t != "" {
			top := stack[len(stack)-1].node
			if top.text != "" {
				top.text += "\n\n" + t
			} else {
				top.text = t
			}
		}
		currentText.Reset()
	}

	for n := parsed.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			flushText()
			sec := &node{heading: string(h.Text(src))}
			for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			parent := stack[len(stack)-1].node
			parent.children = append(parent.children, sec)
			stack = append(stack, stackEntry{node: sec, level: h.Level})
			continue
		}
		if t := astText(n, src); t != "" {
			if currentText.Len() > 0 {
				currentText.WriteString("\n\n")
			}
			currentText.WriteString(t)
		}
	}
	flushText()

	doc.nodes = root.children
	if len(doc.nodes) == 0 && root.text != "" {
		doc.nodes = []*node{{text: root.text}}
	}
	return doc, nil
}

// astText collects the raw text of a goldmark block node. A block with
// source lines reports those alone; its inlines cover the same bytes, so
// visiting both would repeat the text. Containers without lines gather
// text from their children.
func astText(n ast.Node, src []byte) string {
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
			t = astText(c, src)
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
