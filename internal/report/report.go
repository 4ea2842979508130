package report

// Section is a recursive node in a report outline. Content is raw marked-up
// text; empty content means the section has not been generated yet.
type Section struct {
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Subsections []*Section  `json:"subsections,omitempty"`
	Images      []ImageSpec `json:"images,omitempty"`
	Tables      []TableSpec `json:"tables,omitempty"`
}

// ImageSpec is an explicit, precomputed image attached to a section,
// separate from images triggered by inline markup.
type ImageSpec struct {
	Path    string `json:"path"`
	Caption string `json:"caption"`
}

// TableSpec is an explicit table attached to a section.
type TableSpec struct {
	Caption string     `json:"caption,omitempty"`
	Rows    [][]string `json:"rows"`
}

// Structure is the full outline of a report.
type Structure struct {
	Title    string         `json:"title"`
	Sections []*Section     `json:"sections"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ResearchItem is one unit of the research corpus fed to content generation.
// Read-only input; never mutated during assembly.
type ResearchItem struct {
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Source      string            `json:"source"`
	Credibility float64           `json:"credibility_score"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CountSections returns the total number of nodes in the structure.
func (s *Structure) CountSections() int {
	n := 0
	var walk func(secs []*Section)
	walk = func(secs []*Section) {
		for _, sec := range secs {
			n++
			walk(sec.Subsections)
		}
	}
	walk(s.Sections)
	return n
}

// Outline returns a deep copy of the structure with all content stripped,
// suitable for the structure side-file written before generation begins.
func (s *Structure) Outline() *Structure {
	out := &Structure{
		Title:    s.Title,
		Metadata: s.Metadata,
	}
	var copySections func(secs []*Section) []*Section
	copySections = func(secs []*Section) []*Section {
		if len(secs) == 0 {
			return nil
		}
		copies := make([]*Section, 0, len(secs))
		for _, sec := range secs {
			copies = append(copies, &Section{
				Title:       sec.Title,
				Subsections: copySections(sec.Subsections),
			})
		}
		return copies
	}
	out.Sections = copySections(s.Sections)
	return out
}
