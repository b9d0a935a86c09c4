package service

import "strings"

// ChunkConfig controls passage chunking for indexing.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
	MinChars int
}

// DefaultChunkConfig provides sane defaults for news-article chunking.
// 1200 characters is roughly 200 English words.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 1200,
		Overlap:  120,
		MinChars: 200,
	}
}

// ChunkText splits text into passages of at most cfg.MaxChars characters.
// Paragraphs (newline-separated) are accumulated greedily; when a paragraph
// no longer fits, the buffer is flushed and the next buffer is seeded with
// the last cfg.Overlap characters of the flushed chunk. Any chunk still
// over the limit (a single oversized paragraph) is hard-split into raw
// character windows advancing by MaxChars-Overlap, which may cut inside
// words. Lengths count runes, not bytes. The MinChars filter is applied by
// the caller, not here; an empty input yields nil.
func ChunkText(text string, cfg ChunkConfig) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultChunkConfig().MaxChars
	}
	overlap := cfg.Overlap
	if overlap >= cfg.MaxChars {
		// Keep the hard-split step strictly positive.
		overlap = cfg.MaxChars - 1
	}

	var paras [][]rune
	for _, p := range strings.Split(text, "\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, []rune(p))
		}
	}

	var chunks [][]rune
	var buf []rune
	for _, p := range paras {
		switch {
		case len(buf) == 0:
			buf = p
		case len(buf)+1+len(p) <= cfg.MaxChars:
			buf = append(append(buf, '\n'), p...)
		default:
			chunks = append(chunks, buf)
			var next []rune
			if overlap > 0 && len(buf) > overlap {
				next = append(next, buf[len(buf)-overlap:]...)
				next = append(next, '\n')
			}
			next = append(next, p...)
			buf = []rune(strings.TrimSpace(string(next)))
		}
	}
	if len(buf) > 0 {
		chunks = append(chunks, buf)
	}

	var final []string
	for _, c := range chunks {
		if len(c) <= cfg.MaxChars {
			final = append(final, string(c))
			continue
		}
		step := cfg.MaxChars - overlap
		for start := 0; start < len(c); start += step {
			end := start + cfg.MaxChars
			if end > len(c) {
				end = len(c)
			}
			final = append(final, string(c[start:end]))
		}
	}
	return final
}

// FilterChunks drops chunks shorter than minChars runes, preserving order.
func FilterChunks(chunks []string, minChars int) []string {
	if minChars <= 0 {
		return chunks
	}
	kept := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len([]rune(c)) >= minChars {
			kept = append(kept, c)
		}
	}
	return kept
}
