package markup

import (
	"regexp"
	"strings"
)

// BlockKind classifies one structural unit of section text.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockBulletList
	BlockNumberList
	BlockTable
	BlockQuote
	BlockCode
	BlockImage
)

// Block is one classified chunk of section content. Which fields are set
// depends on Kind: Text for headings/paragraphs/quotes, Items for lists,
// Rows for tables, Language/Code for code blocks, Caption/Description for
// image references. Caption also carries an optional table caption.
type Block struct {
	Kind        BlockKind
	Level       int // heading level 1-6
	Text        string
	Items       []string
	Rows        [][]string
	Language    string
	Code        string
	Caption     string
	Description string
}

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	numberedRe = regexp.MustCompile(`^\d+\.\s`)
	imageRe    = regexp.MustCompile(`!\[(.+?)\]\((.+?)\)`)
	codeRe     = regexp.MustCompile("(?s)^```(.*?)\n(.*?)```$")
)

// Parse splits raw marked-up text into an ordered sequence of typed blocks.
// Chunks are blank-line delimited; each chunk is classified by the first
// matching rule: heading, list, table, image reference, quote, fenced code,
// paragraph. Parsing is pure; image references only carry caption and
// description, resolution happens at render time.
func Parse(text string) []Block {
	chunks := splitChunks(text)

	var blocks []Block
	for i := 0; i < len(chunks); i++ {
		chunk := strings.TrimSpace(chunks[i])
		if chunk == "" {
			continue
		}

		if m := headingRe.FindStringSubmatch(chunk); m != nil {
			blocks = append(blocks, Block{
				Kind:  BlockHeading,
				Level: len(m[1]),
				Text:  m[2],
			})
			continue
		}

		if isListChunk(chunk) {
			blocks = append(blocks, parseList(chunk))
			continue
		}

		if rows, ok := parseTable(chunk); ok {
			blocks = append(blocks, Block{Kind: BlockTable, Rows: rows})
			continue
		}

		if loc := imageRe.FindStringSubmatchIndex(chunk); loc != nil {
			blocks = append(blocks, Block{
				Kind:        BlockImage,
				Caption:     chunk[loc[2]:loc[3]],
				Description: chunk[loc[4]:loc[5]],
			})
			// Any non-image text in the chunk is re-queued as a new
			// chunk immediately following.
			rest := strings.TrimSpace(chunk[:loc[0]] + chunk[loc[1]:])
			if rest != "" {
				chunks = append(chunks[:i+1], append([]string{rest}, chunks[i+1:]...)...)
			}
			continue
		}

		if strings.HasPrefix(chunk, "> ") {
			blocks = append(blocks, Block{
				Kind: BlockQuote,
				Text: stripQuoteMarkers(chunk),
			})
			continue
		}

		if m := codeRe.FindStringSubmatch(chunk); m != nil {
			blocks = append(blocks, Block{
				Kind:     BlockCode,
				Language: strings.TrimSpace(m[1]),
				Code:     m[2],
			})
			continue
		}

		blocks = append(blocks, Block{Kind: BlockParagraph, Text: chunk})
	}
	return blocks
}

// splitChunks splits text into paragraph candidates on blank-line boundaries.
func splitChunks(text string) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	var chunks []string
	var current strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
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
		chunks = append(chunks, current.String())
	}
	return chunks
}

func isListChunk(chunk string) bool {
	first := chunk
	if idx := strings.IndexByte(chunk, '\n'); idx >= 0 {
		first = chunk[:idx]
	}
	return strings.HasPrefix(first, "- ") ||
		strings.HasPrefix(first, "* ") ||
		numberedRe.MatchString(first)
}

// parseList builds a list block. The first line's marker decides the kind.
// Numbered items are renumbered sequentially by emission order regardless of
// the digits in the source, which normalizes malformed numbering like
// "41.", "42." into "1.", "2.". Lines without a marker are dropped.
func parseList(chunk string) Block {
	kind := BlockBulletList
	first := chunk
	if idx := strings.IndexByte(chunk, '\n'); idx >= 0 {
		first = chunk[:idx]
	}
	if numberedRe.MatchString(first) {
		kind = BlockNumberList
	}

	var items []string
	for _, line := range strings.Split(chunk, "\n") {
		switch {
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			items = append(items, line[2:])
		case numberedRe.MatchString(line):
			items = append(items, numberedRe.ReplaceAllString(line, ""))
		}
	}
	return Block{Kind: kind, Items: items}
}

// parseTable returns the table rows if every non-separator line in the chunk
// contains a pipe. Separator lines (only '-', '|' and whitespace) are dropped;
// the first remaining row is the header.
func parseTable(chunk string) ([][]string, bool) {
	lines := strings.Split(chunk, "\n")
	var rows [][]string
	for _, line := range lines {
		if isTableSeparator(line) {
			continue
		}
		if !strings.Contains(line, "|") {
			return nil, false
		}
		trimmed := strings.Trim(strings.TrimSpace(line), "|")
		cells := strings.Split(trimmed, "|")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return nil, false
	}
	return rows, true
}

func isTableSeparator(line string) bool {
	seen := false
	for _, r := range line {
		switch r {
		case '-', '|', ' ', '\t', ':':
			if r == '-' {
				seen = true
			}
		default:
			return false
		}
	}
	return seen
}

func stripQuoteMarkers(chunk string) string {
	lines := strings.Split(chunk, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "> ")
	}
	return strings.Join(lines, "\n")
}
