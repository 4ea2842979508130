package research

import (
	"bufio"
	"io"
	"strings"
)

// textLoader handles plain text sources. Blank lines split paragraphs and
// each paragraph becomes one node.
type textLoader struct{}

func (l *textLoader) Load(r io.Reader, filename string) (*document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doc := &document{title: strings.TrimSuffix(filename, ".txt")}
	for _, para := range paragraphs {
		doc.nodes = append(doc.nodes, &node{text: para})
	}
	return doc, nil
}
