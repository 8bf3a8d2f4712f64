package textutil

import "strings"

// Excerpt shortens text to at most limit runes on a single line for log and
// table output. Newlines collapse to spaces; truncation appends an ellipsis.
func Excerpt(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := strings.Join(strings.Fields(replacer.Replace(trimmed)), " ")
	if limit <= 0 {
		limit = 80
	}
	runes := []rune(clean)
	if len(runes) <= limit {
		return clean
	}
	return string(runes[:limit]) + "..."
}

// Summary returns the first maxWords words of text followed by an ellipsis
// when the text is longer. Used for the post-finalization chapter summary.
func Summary(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 100
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

// NormalizeBlankLines collapses runs of blank lines in extracted page text to
// a single blank line and trims the result.
func NormalizeBlankLines(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var out []string
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, strings.TrimRight(line, " \t"))
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
