// Package notes turns a formatted transcript into notes-page blocks and
// uploads them with a create-then-append protocol.
package notes

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits imposed by the destination store. Lengths are in characters (runes).
const (
	DefaultChunkLen = 1800 // target split threshold, kept under MaxBlockLen
	MaxBlockLen     = 2000
	MaxBlocks       = 1000
	BatchSize       = 100
	MaxTitleLen     = 2000
)

const paragraphSep = "\n\n"

// SplitParagraphs splits a document on blank lines and returns the trimmed,
// non-empty paragraphs in order.
func SplitParagraphs(doc string) []string {
	var paragraphs []string
	for _, p := range strings.Split(doc, paragraphSep) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

// Chunk splits text into pieces of at most maxLen characters, cutting at the
// rightmost whitespace that keeps the first piece at least half of maxLen.
// Without such a break it cuts exactly at maxLen, mid-word if needed.
// Text that already fits is returned unchanged as a single chunk.
func Chunk(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkLen
	}
	if runeLen(text) <= maxLen {
		return []string{text}
	}

	rest := trimRunes([]rune(text))
	var chunks []string
	for len(rest) > maxLen {
		cut := breakPoint(rest, maxLen)
		if piece := trimRunes(rest[:cut]); len(piece) > 0 {
			chunks = append(chunks, string(piece))
		}
		rest = trimRunes(rest[cut:])
	}
	if len(rest) > 0 || len(chunks) == 0 {
		chunks = append(chunks, string(rest))
	}
	return chunks
}

// breakPoint returns the index to cut text at. text must be longer than maxLen.
func breakPoint(text []rune, maxLen int) int {
	for i := maxLen; i > 0; i-- {
		if !unicode.IsSpace(text[i]) {
			continue
		}
		if i < maxLen/2 {
			break
		}
		return i
	}
	return maxLen
}

func trimRunes(r []rune) []rune {
	start, end := 0, len(r)
	for start < end && unicode.IsSpace(r[start]) {
		start++
	}
	for end > start && unicode.IsSpace(r[end-1]) {
		end--
	}
	return r[start:end]
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// truncateRunes shortens s to at most n characters.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
