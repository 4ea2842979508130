package genai

import (
	"fmt"
	"strings"

	"github.com/dgallion1/reportgen/internal/report"
)

// WriterSystemPrompt frames every section-writing call.
const WriterSystemPrompt = `You are an expert content writer producing sections of a professional research report. Your task is to:
1. Write comprehensive, detailed content for the requested section
2. Maintain a professional, authoritative tone throughout
3. Break complex topics into clear subsections
4. Support claims with the supplied research

Format your response in Markdown, using only:
- Headings (# for h1, ## for h2, etc.)
- Emphasis (**bold** and *italic*)
- Lists (- item, or 1. item)
- Tables (| header | header |)
- Links [text](url)
- Inline code and fenced code blocks
- Blockquotes (> ) for direct quotations
- Images ![caption](description), where the description is a detailed
  50-100 word specification for a professional visualization`

const imageInstructions = `
## IMAGE INSTRUCTIONS:
- REQUIRED: include at least one image using the format ![caption](description)
- The image must be relevant to the section topic
- Descriptions must be detailed and specific: charts, diagrams, process flows,
  technical illustrations, or conceptual relationship maps`

const reinforceSuffix = `

WARNING: Your previous response did not include any images. YOU MUST INCLUDE AT LEAST ONE IMAGE using the format ![caption](description). This is a strict requirement.`

// BuildSectionPrompt creates the writing prompt for one section, including
// the research relevant to its title.
func BuildSectionPrompt(req GenerateRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Writing Task: Generate Comprehensive Content for %q\n\n", req.SectionTitle)

	sb.WriteString("## CONTENT REQUIREMENTS:\n")
	sb.WriteString("1. Create detailed, in-depth content for this section\n")
	sb.WriteString("2. Produce at least 1000-1500 words of high-quality content\n")
	sb.WriteString("3. Break the topic into clear subsections with descriptive headers\n")
	sb.WriteString("4. Provide thorough analysis, examples, and evidence\n")
	if req.IncludeImages {
		sb.WriteString("5. Include at least one relevant image or diagram\n")
	}

	if req.MainTopic != "" {
		fmt.Fprintf(&sb, "\n## DOCUMENT TOPIC:\n%s\n", req.MainTopic)
	}
	fmt.Fprintf(&sb, "\n## SECTION TOPIC:\n%s\n", req.SectionTitle)

	sb.WriteString("\n## RELEVANT RESEARCH:\n")
	sb.WriteString(FormatResearch(RelevantResearch(req.SectionTitle, req.Research)))

	if req.IncludeImages {
		sb.WriteString("\n")
		sb.WriteString(imageInstructions)
	}
	if req.Reinforce {
		sb.WriteString(reinforceSuffix)
	}
	return sb.String()
}

// RelevantResearch filters the corpus to items whose titles share a keyword
// with the section title. When nothing matches, the whole corpus is used.
func RelevantResearch(sectionTitle string, research []report.ResearchItem) []report.ResearchItem {
	keywords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(sectionTitle)) {
		keywords[w] = true
	}

	var matched []report.ResearchItem
	for _, item := range research {
		for _, w := range strings.Fields(strings.ToLower(item.Title)) {
			if keywords[w] || w == "all" {
				matched = append(matched, item)
				break
			}
		}
	}
	if len(matched) == 0 {
		return research
	}
	return matched
}

// FormatResearch renders research items for inclusion in a prompt.
func FormatResearch(research []report.ResearchItem) string {
	if len(research) == 0 {
		return "No specific research available for this section."
	}
	var sb strings.Builder
	for i, item := range research {
		title := item.Title
		if title == "" {
			title = "Untitled Research"
		}
		source := item.Source
		if source == "" {
			source = "Unknown Source"
		}
		fmt.Fprintf(&sb, "RESEARCH ITEM #%d:\nTITLE: %s\nSOURCE: %s\nCONTENT: %s\n---\n",
			i+1, title, source, item.Content)
	}
	return sb.String()
}
