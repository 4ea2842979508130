package research

import "strings"

// chunkConfig controls how oversized sections are split into items.
type chunkConfig struct {
	targetTokens  int
	overlapTokens int
	minTokens     int
}

func defaultChunkConfig() chunkConfig {
	return chunkConfig{
		targetTokens:  1000,
		overlapTokens: 120,
		minTokens:     20,
	}
}

// estimateTokens gives a rough token count from the word count. Exact
// tokenization is not required for sizing research items.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// splitText breaks section text into pieces of roughly targetTokens,
// preferring paragraph boundaries and falling back to sentences. Consecutive
// pieces share overlapTokens of trailing context. Pieces below minTokens are
// dropped.
func splitText(text string, cfg chunkConfig) []string {
	if estimateTokens(text) <= cfg.targetTokens {
		if estimateTokens(text) < cfg.minTokens {
			return nil
		}
		return []string{strings.TrimSpace(text)}
	}

	var result []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if currentTokens >= cfg.minTokens {
			result = append(result, current.String())
		}
		overlap := overlapTail(current.String(), cfg.overlapTokens)
		current.Reset()
		currentTokens = 0
		if overlap != "" {
			current.WriteString(overlap)
			currentTokens = estimateTokens(overlap)
		}
	}

	for _, para := range paragraphs(text) {
		paraTokens := estimateTokens(para)

		if paraTokens > cfg.targetTokens {
			if currentTokens > 0 {
				flush()
			}
			result = append(result, splitSentences(para, cfg)...)
			continue
		}
		if currentTokens+paraTokens > cfg.targetTokens && currentTokens > 0 {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}
	if currentTokens >= cfg.minTokens {
		result = append(result, current.String())
	}
	return result
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences chunks one oversized paragraph at sentence boundaries.
func splitSentences(text string, cfg chunkConfig) []string {
	var sentences []string
	var sb strings.Builder
	for i, r := range text {
		sb.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(sb.String()))
			sb.Reset()
		}
	}
	if sb.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(sb.String()))
	}

	var result []string
	var current strings.Builder
	currentTokens := 0
	for _, sent := range sentences {
		sentTokens := estimateTokens(sent)
		if currentTokens+sentTokens > cfg.targetTokens && currentTokens > 0 {
			if currentTokens >= cfg.minTokens {
				result = append(result, current.String())
			}
			overlap := overlapTail(current.String(), cfg.overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = estimateTokens(overlap)
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}
	if currentTokens >= cfg.minTokens {
		result = append(result, current.String())
	}
	return result
}

// overlapTail returns the last targetTokens worth of words, or "" when the
// text is not long enough to bother.
func overlapTail(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
