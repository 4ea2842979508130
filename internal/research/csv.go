package research

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvLoader handles CSV sources. Rows are rendered as header-labeled text
// and grouped into batches so one giant table yields several research items.
type csvLoader struct{}

const csvBatchSize = 20

func (l *csvLoader) Load(r io.Reader, filename string) (*document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &document{title: strings.TrimSuffix(filename, ".csv")}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range dataRows[i:end] {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}

		doc.nodes = append(doc.nodes, &node{
			// 1-indexed row numbers, header excluded.
			heading: fmt.Sprintf("Rows %d-%d", i+2, end+1),
			text:    text.String(),
		})
	}
	return doc, nil
}
