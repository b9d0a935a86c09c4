package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", DefaultChunkConfig()))
	assert.Nil(t, ChunkText("   \n\n  ", DefaultChunkConfig()))
}

func TestChunkText_SingleShortParagraph(t *testing.T) {
	chunks := ChunkText("a short paragraph", ChunkConfig{MaxChars: 100, Overlap: 10})
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short paragraph", chunks[0])
}

func TestChunkText_HardSplitWindows(t *testing.T) {
	// 25 chars, max 10, no overlap: exactly [10, 10, 5].
	chunks := ChunkText(strings.Repeat("a", 25), ChunkConfig{MaxChars: 10, Overlap: 0})

	require.Len(t, chunks, 3)
	assert.Equal(t, 10, len(chunks[0]))
	assert.Equal(t, 10, len(chunks[1]))
	assert.Equal(t, 5, len(chunks[2]))
}

func TestChunkText_MaxCharsBound(t *testing.T) {
	text := strings.Repeat("word word word word.\n", 200)
	cfg := ChunkConfig{MaxChars: 300, Overlap: 40}

	for _, c := range ChunkText(text, cfg) {
		assert.LessOrEqual(t, len([]rune(c)), cfg.MaxChars)
	}
}

func TestChunkText_ParagraphGreedyAccumulation(t *testing.T) {
	p1 := strings.Repeat("x", 400)
	p2 := strings.Repeat("y", 400)
	p3 := strings.Repeat("z", 400)
	text := p1 + "\n" + p2 + "\n" + p3

	chunks := ChunkText(text, ChunkConfig{MaxChars: 900, Overlap: 0})

	require.Len(t, chunks, 2)
	assert.Equal(t, p1+"\n"+p2, chunks[0])
	assert.Equal(t, p3, chunks[1])
}

func TestChunkText_CoverageWithoutOverlap(t *testing.T) {
	// With overlap disabled, joining the chunks back with the paragraph
	// separator reconstructs the input exactly.
	p1 := strings.Repeat("x", 400)
	p2 := strings.Repeat("y", 400)
	p3 := strings.Repeat("z", 400)
	text := p1 + "\n" + p2 + "\n" + p3

	chunks := ChunkText(text, ChunkConfig{MaxChars: 900, Overlap: 0})

	assert.Equal(t, text, strings.Join(chunks, "\n"))
}

func TestChunkText_OverlapCarriesTailOfPreviousChunk(t *testing.T) {
	// Three paragraphs totaling ~1500 chars with max 1200 produce two
	// chunks; the second starts with the last 120 chars of the first.
	p1 := strings.Repeat("a", 600)
	p2 := strings.Repeat("b", 500)
	p3 := strings.Repeat("c", 380)
	text := p1 + "\n" + p2 + "\n" + p3

	chunks := ChunkText(text, ChunkConfig{MaxChars: 1200, Overlap: 120})

	require.Len(t, chunks, 2)
	assert.Equal(t, p1+"\n"+p2, chunks[0])
	tail := chunks[0][len(chunks[0])-120:]
	assert.True(t, strings.HasPrefix(chunks[1], tail))
	assert.True(t, strings.HasSuffix(chunks[1], p3))
}

func TestChunkText_OversizedParagraphOverlapStep(t *testing.T) {
	// One 30-char paragraph, max 10, overlap 3: windows advance by 7.
	chunks := ChunkText(strings.Repeat("a", 30), ChunkConfig{MaxChars: 10, Overlap: 3})

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
	// Window starts: 0,7,14,21,28.
	assert.Len(t, chunks, 5)
	assert.Equal(t, 2, len(chunks[4]))
}

func TestChunkText_OverlapClampedBelowMaxChars(t *testing.T) {
	// overlap >= max_chars must not loop forever; it is clamped to
	// max_chars-1 so the window step stays positive.
	chunks := ChunkText(strings.Repeat("a", 50), ChunkConfig{MaxChars: 10, Overlap: 10})

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
}

func TestChunkText_RuneSafety(t *testing.T) {
	text := strings.Repeat("한국어 텍스트입니다 ", 40)

	chunks := ChunkText(text, ChunkConfig{MaxChars: 50, Overlap: 10})

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.True(t, strings.ToValidUTF8(c, "") == c, "chunk must remain valid UTF-8")
		assert.LessOrEqual(t, len([]rune(c)), 50)
	}
}

func TestFilterChunks(t *testing.T) {
	chunks := []string{"tiny", strings.Repeat("a", 200), "small", strings.Repeat("b", 300)}

	kept := FilterChunks(chunks, 200)

	require.Len(t, kept, 2)
	assert.Equal(t, strings.Repeat("a", 200), kept[0])
	assert.Equal(t, strings.Repeat("b", 300), kept[1])
}

func TestFilterChunks_AllTooShort(t *testing.T) {
	kept := FilterChunks([]string{"a", "b"}, 100)
	assert.Empty(t, kept)
}
