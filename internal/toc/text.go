// Package toc builds a navigable table of contents from a book tree.
package toc

import "strings"

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Excerpt returns the leading sentences of text, cut to at most maxWords
// words. A sentence that would overflow the limit is truncated with "…".
func Excerpt(text string, maxWords int) string {
	var out []string
	words := 0
	for _, para := range splitByParagraphs(text) {
		for _, sent := range splitSentences(para) {
			n := CountWords(sent)
			if words+n > maxWords {
				if words == 0 {
					return strings.Join(strings.Fields(sent)[:maxWords], " ") + "…"
				}
				return strings.Join(out, " ")
			}
			out = append(out, sent)
			words += n
		}
	}
	return strings.Join(out, " ")
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
