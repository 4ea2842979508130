package research

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/reportgen/internal/report"
)

// document is the intermediate form a loader produces: a title plus a
// heading-structured node tree. Itemization flattens it into research items.
type document struct {
	title string
	nodes []*node
}

// node is one section of a loaded source document.
type node struct {
	heading  string
	text     string
	page     int
	children []*node
}

// Loader converts raw source bytes into a document tree.
type Loader interface {
	Load(r io.Reader, filename string) (*document, error)
}

// supported maps file extensions to the credibility score assigned to
// research extracted from them. Structured and reviewed formats rank above
// scraped ones.
var supported = map[string]float64{
	".pdf":      0.9,
	".md":       0.8,
	".markdown": 0.8,
	".csv":      0.7,
	".html":     0.6,
	".htm":      0.6,
	".txt":      0.5,
}

// Supported reports whether the file can be loaded as research.
func Supported(filename string) bool {
	_, ok := supported[strings.ToLower(filepath.Ext(filename))]
	return ok
}

func loaderFor(filename string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return &textLoader{}, nil
	case ".md", ".markdown":
		return &markdownLoader{}, nil
	case ".csv":
		return &csvLoader{}, nil
	case ".html", ".htm":
		return &htmlLoader{}, nil
	case ".pdf":
		return &pdfLoader{}, nil
	default:
		return nil, fmt.Errorf("research: unsupported file extension %q", filepath.Ext(filename))
	}
}

// LoadFile loads one source file into research items.
func LoadFile(path string) ([]report.ResearchItem, error) {
	loader, err := loaderFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("research: open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := loader.Load(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("research: load %s: %w", path, err)
	}
	cred := supported[strings.ToLower(filepath.Ext(path))]
	return itemize(doc, filepath.Base(path), cred, defaultChunkConfig()), nil
}

// LoadDir walks dir and loads every supported file into one research corpus.
// Unsupported files are skipped; a file that fails to load is skipped too so
// one corrupt source does not sink the whole corpus.
func LoadDir(dir string) ([]report.ResearchItem, error) {
	var corpus []report.ResearchItem
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}
		items, err := LoadFile(path)
		if err != nil {
			return nil
		}
		corpus = append(corpus, items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("research: walk %s: %w", dir, err)
	}
	return corpus, nil
}

// itemize flattens a document tree into research items, splitting oversized
// sections and carrying the heading breadcrumb as the item title.
func itemize(doc *document, source string, credibility float64, cfg chunkConfig) []report.ResearchItem {
	var items []report.ResearchItem
	for _, n := range doc.nodes {
		items = itemizeNode(n, nil, doc.title, source, credibility, cfg, items)
	}
	return items
}

func itemizeNode(n *node, breadcrumb []string, docTitle, source string, credibility float64, cfg chunkConfig, items []report.ResearchItem) []report.ResearchItem {
	bc := breadcrumb
	if n.heading != "" {
		bc = append(append([]string{}, breadcrumb...), n.heading)
	}

	if strings.TrimSpace(n.text) != "" {
		title := docTitle
		if len(bc) > 0 {
			title = strings.Join(bc, " / ")
		}
		meta := map[string]string{"document": docTitle}
		if n.page > 0 {
			meta["page"] = fmt.Sprintf("%d", n.page)
		}
		for _, part := range splitText(n.text, cfg) {
			items = append(items, report.ResearchItem{
				Title:       title,
				Content:     part,
				Source:      source,
				Credibility: credibility,
				Metadata:    meta,
			})
		}
	}

	for _, child := range n.children {
		items = itemizeNode(child, bc, docTitle, source, credibility, cfg, items)
	}
	return items
}
