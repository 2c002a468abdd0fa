package services

import (
	"strings"
	"unicode/utf8"
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText packs paragraphs into chunks of at most maxChunkSize runes.
// Oversized paragraphs are split on lines, then hard-wrapped. Each chunk
// after the first starts with the last overlap runes of the previous one.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	limit := maxChunkSize - overlap - 2
	if limit < 1 {
		limit = 1
	}

	var pieces []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= limit {
			pieces = append(pieces, para)
			continue
		}
		for _, line := range strings.Split(para, "\n") {
			pieces = append(pieces, hardWrap(strings.TrimSpace(line), limit)...)
		}
	}

	var chunks []string
	var current strings.Builder
	currentLen, dirty := 0, false

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if dirty && currentLen+2+n > maxChunkSize {
			chunk := current.String()
			chunks = append(chunks, chunk)
			current.Reset()
			currentLen, dirty = 0, false

			if tail := lastNRunes(chunk, overlap); tail != "" {
				current.WriteString(tail)
				currentLen = utf8.RuneCountInString(tail)
			}
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(piece)
		currentLen += n
		dirty = true
	}

	if dirty {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func hardWrap(s string, size int) []string {
	if size <= 0 {
		size = 1
	}
	runes := []rune(s)
	var out []string
	for len(runes) > size {
		cut := size
		if i := lastSpace(runes[:size]); i > size/2 {
			cut = i
		}
		out = append(out, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		out = append(out, rest)
	}
	return out
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

func lastNRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
