package docsink

import (
	"log/slog"
	"strconv"

	"github.com/dgallion1/reportgen/internal/markup"
	"github.com/fumiama/go-docx"
)

const monospaceFont = "Courier New"

// Half-point font sizes per heading level. Level 0 is the document title.
var headingSizes = map[int]string{
	0: "52",
	1: "36",
	2: "32",
	3: "28",
	4: "26",
	5: "24",
	6: "24",
}

// buildDocument renders the whole arena into a fresh docx. Checkpoints always
// rebuild from scratch, so repeated saves overwrite rather than accumulate.
func buildDocument(title string, order []string, entries map[string][]Element, log *slog.Logger) *docx.Docx {
	doc := docx.New().WithDefaultTheme()

	titlePara := doc.AddParagraph().Justification("center")
	titlePara.AddText(title).Size(headingSizes[0]).Bold()
	doc.AddParagraph()

	for _, id := range order {
		for _, elem := range entries[id] {
			renderElement(doc, elem, log)
		}
	}
	return doc
}

func renderElement(doc *docx.Docx, elem Element, log *slog.Logger) {
	b := elem.Block
	switch b.Kind {
	case markup.BlockHeading:
		level := b.Level
		if level > 6 {
			level = 6
		}
		doc.AddParagraph().AddText(b.Text).Size(headingSizes[level]).Bold()

	case markup.BlockParagraph:
		p := doc.AddParagraph()
		addRuns(p, markup.FormatInline(b.Text))

	case markup.BlockBulletList:
		for _, item := range b.Items {
			p := doc.AddParagraph()
			p.AddText("• ")
			addRuns(p, markup.FormatInline(item))
		}

	case markup.BlockNumberList:
		for i, item := range b.Items {
			p := doc.AddParagraph()
			p.AddText(strconv.Itoa(i+1) + ". ")
			addRuns(p, markup.FormatInline(item))
		}

	case markup.BlockTable:
		renderTable(doc, b.Rows, b.Caption)

	case markup.BlockQuote:
		p := doc.AddParagraph()
		p.AddText("“").Color("666666")
		addRuns(p, markup.FormatInline(b.Text))
		p.AddText("”").Color("666666")

	case markup.BlockCode:
		p := doc.AddParagraph()
		if b.Language != "" {
			p.AddText(b.Language + ":\n").Bold().Font(monospaceFont, "", monospaceFont, "default").Size("18")
		}
		p.AddText(b.Code).Font(monospaceFont, "", monospaceFont, "default").Size("18")

	case markup.BlockImage:
		renderImage(doc, elem, log)
	}
}

// addRuns translates inline runs into docx runs with their presentation
// attributes.
func addRuns(p *docx.Paragraph, runs []markup.Run) {
	for _, r := range runs {
		switch r.Kind {
		case markup.RunBold:
			p.AddText(r.Text).Bold()
		case markup.RunItalic:
			p.AddText(r.Text).Italic()
		case markup.RunBoldItalic:
			p.AddText(r.Text).Bold().Italic()
		case markup.RunCode:
			p.AddText(r.Text).Font(monospaceFont, "", monospaceFont, "default")
		case markup.RunLink:
			p.AddLink(r.Text, r.URL)
		default:
			p.AddText(r.Text)
		}
	}
}

// renderTable writes rows as a grid table; the first row is the header.
func renderTable(doc *docx.Docx, rows [][]string, caption string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	cols := len(rows[0])
	tbl := doc.AddTable(len(rows), cols, 9000, nil)
	for i, row := range rows {
		for j := 0; j < cols && j < len(row); j++ {
			p := tbl.TableRows[i].TableCells[j].AddParagraph()
			if i == 0 {
				p.AddText(row[j]).Bold()
				continue
			}
			addRuns(p, markup.FormatInline(row[j]))
		}
	}
	if caption != "" {
		doc.AddParagraph().Justification("center").AddText("Table: " + caption).Italic()
	}
	doc.AddParagraph()
}

func renderImage(doc *docx.Docx, elem Element, log *slog.Logger) {
	if elem.AssetPath == "" {
		doc.AddParagraph().Justification("center").AddText("[Image generation failed]")
		return
	}
	doc.AddParagraph()
	p := doc.AddParagraph().Justification("center")
	if _, err := p.AddInlineDrawingFrom(elem.AssetPath); err != nil {
		log.Error("embed image failed", "path", elem.AssetPath, "error", err)
		doc.AddParagraph().Justification("center").AddText("[Image unavailable]")
		return
	}
	if elem.Block.Caption != "" {
		doc.AddParagraph().Justification("center").AddText("Figure: " + elem.Block.Caption).Italic()
	}
	doc.AddParagraph()
}
