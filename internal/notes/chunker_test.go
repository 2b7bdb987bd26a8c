package notes

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== SplitParagraphs ==========

func TestSplitParagraphs_Empty(t *testing.T) {
	assert.Empty(t, SplitParagraphs(""))
	assert.Empty(t, SplitParagraphs("\n\n  \n\n\t"))
}

func TestSplitParagraphs_TrimsAndDropsBlank(t *testing.T) {
	doc := "  # Title \n\nFirst paragraph.\n\n   \n\nSecond\nline two.\n\n"
	got := SplitParagraphs(doc)
	assert.Equal(t, []string{"# Title", "First paragraph.", "Second\nline two."}, got)
}

func TestSplitParagraphs_PreservesOrder(t *testing.T) {
	got := SplitParagraphs("c\n\nb\n\na")
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

// ========== Chunk ==========

func TestChunk_ShortTextUnchanged(t *testing.T) {
	for _, text := range []string{"", "Hello world.", strings.Repeat("x", DefaultChunkLen), " padded "} {
		got := Chunk(text, DefaultChunkLen)
		assert.Equal(t, []string{text}, got)
	}
}

func TestChunk_DefaultMaxLen(t *testing.T) {
	text := strings.Repeat("a", DefaultChunkLen+1)
	got := Chunk(text, 0)
	require.Len(t, got, 2)
	assert.Len(t, got[0], DefaultChunkLen)
}

func TestChunk_HardCutWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("A", 4000)
	got := Chunk(text, DefaultChunkLen)
	require.Len(t, got, 3)
	assert.Len(t, got[0], 1800)
	assert.Len(t, got[1], 1800)
	assert.Len(t, got[2], 400)
	assert.Equal(t, text, strings.Join(got, ""))
}

func TestChunk_SplitsAtRightmostWhitespace(t *testing.T) {
	// words of 9 letters + space: a break every 10 characters
	text := strings.TrimSpace(strings.Repeat("abcdefghi ", 400))
	got := Chunk(text, DefaultChunkLen)
	require.Greater(t, len(got), 1)
	for i, c := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), DefaultChunkLen, "chunk %d", i)
		assert.False(t, strings.HasPrefix(c, " ") || strings.HasSuffix(c, " "), "chunk %d not trimmed", i)
		for _, w := range strings.Fields(c) {
			assert.Equal(t, "abcdefghi", w, "chunk %d split a word", i)
		}
	}
	assert.Equal(t, text, strings.Join(got, " "))
}

func TestChunk_EarlyBreakFallsBackToHardCut(t *testing.T) {
	// the only whitespace sits before the halfway point
	text := "short " + strings.Repeat("B", 3000)
	got := Chunk(text, DefaultChunkLen)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Len(t, got[0], DefaultChunkLen)
	assert.True(t, strings.HasPrefix(got[0], "short B"))
}

func TestChunk_BreakAtHalfwayIsUsed(t *testing.T) {
	maxLen := 10
	text := "abcde fghijklmnop"
	got := Chunk(text, maxLen)
	assert.Equal(t, []string{"abcde", "fghijklmno", "p"}, got)
}

func TestChunk_MaxLenOne(t *testing.T) {
	got := Chunk("ab c", 1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestChunk_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("é", DefaultChunkLen)
	assert.Equal(t, []string{text}, Chunk(text, DefaultChunkLen))

	long := strings.Repeat("日本", 1000)
	got := Chunk(long, DefaultChunkLen)
	require.Len(t, got, 2)
	assert.Equal(t, DefaultChunkLen, utf8.RuneCountInString(got[0]))
	assert.Equal(t, 200, utf8.RuneCountInString(got[1]))
}

func TestChunk_AllChunksWithinLimit(t *testing.T) {
	inputs := []string{
		strings.Repeat("word ", 2000),
		strings.Repeat("x", 1799) + " " + strings.Repeat("y", 5000),
		strings.Repeat("a b\tc\nd ", 900),
		"lead   " + strings.Repeat("z", 2500) + "   trail",
	}
	for _, in := range inputs {
		got := Chunk(in, DefaultChunkLen)
		require.NotEmpty(t, got)
		for _, c := range got {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), DefaultChunkLen)
			assert.NotEmpty(t, c)
		}
	}
}

func TestChunk_Idempotent(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 300)
	for _, c := range Chunk(text, DefaultChunkLen) {
		assert.Equal(t, []string{c}, Chunk(c, DefaultChunkLen))
	}
}

func TestChunk_ReconstructsModuloWhitespace(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 120)
	got := Chunk(text, DefaultChunkLen)
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(got, " ")))
}
