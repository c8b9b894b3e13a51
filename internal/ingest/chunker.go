// Package ingest turns legal document text into indexed corpus passages.
package ingest

import (
	"regexp"
	"strings"
)

// Chunk is one passage produced from a document.
type Chunk struct {
	Index    int
	Content  string
	Metadata map[string]string
}

// ChunkerConfig holds chunking configuration.
type ChunkerConfig struct {
	MaxWords     int // max words per chunk before an article is split
	OverlapWords int // words carried over between splits of one article
}

// Indonesian statutes follow a fixed structure: BAB (chapter) headings in
// Roman numerals, then numbered Pasal (articles). Articles are the natural
// retrieval unit; a chunk should never straddle two of them.
var (
	chapterRe = regexp.MustCompile(`(?m)^\s*BAB\s+[IVXLCDM]+\b.*$`)
	articleRe = regexp.MustCompile(`(?m)^\s*Pasal\s+(\d+[A-Z]?)\b`)
)

// Chunker splits legal text on article boundaries, packing long articles
// into word windows.
type Chunker struct {
	config ChunkerConfig
}

// NewChunker creates a chunker, applying defaults for zero values.
func NewChunker(cfg ChunkerConfig) *Chunker {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 350
	}
	if cfg.OverlapWords < 0 || cfg.OverlapWords >= cfg.MaxWords {
		cfg.OverlapWords = 40
	}
	return &Chunker{config: cfg}
}

// Chunk splits content into passages. Returns nil for empty content.
func (c *Chunker) Chunk(content string) []Chunk {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var chunks []Chunk
	for _, sec := range splitArticles(content) {
		for _, text := range c.packWords(sec.text) {
			meta := map[string]string{}
			if sec.chapter != "" {
				meta["chapter"] = sec.chapter
			}
			if sec.article != "" {
				meta["article"] = sec.article
			}
			chunks = append(chunks, Chunk{
				Index:    len(chunks),
				Content:  text,
				Metadata: meta,
			})
		}
	}

	return chunks
}

// section is a run of text belonging to one article (or the preamble before
// the first article).
type section struct {
	chapter string
	article string
	text    string
}

// splitArticles walks the document line by line, tracking the current BAB
// heading and cutting a new section at each Pasal heading.
func splitArticles(content string) []section {
	lines := strings.Split(content, "\n")

	var sections []section
	var buf []string
	var chapter, article string

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		if text != "" {
			sections = append(sections, section{chapter: chapter, article: article, text: text})
		}
		buf = buf[:0]
	}

	for _, line := range lines {
		if chapterRe.MatchString(line) {
			flush()
			chapter = strings.TrimSpace(line)
			article = ""
			continue
		}
		if m := articleRe.FindStringSubmatch(line); m != nil {
			flush()
			article = "Pasal " + m[1]
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}

// packWords splits text into windows of at most MaxWords words with
// OverlapWords carried between consecutive windows.
func (c *Chunker) packWords(text string) []string {
	words := strings.Fields(text)
	if len(words) <= c.config.MaxWords {
		return []string{text}
	}

	step := c.config.MaxWords - c.config.OverlapWords
	var parts []string
	for start := 0; start < len(words); start += step {
		end := start + c.config.MaxWords
		if end > len(words) {
			end = len(words)
		}
		parts = append(parts, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return parts
}
