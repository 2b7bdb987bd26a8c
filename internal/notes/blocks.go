package notes

import "strings"

// Block is a paragraph block as accepted by the notes API.
type Block struct {
	Object    string         `json:"object"`
	Type      string         `json:"type"`
	Paragraph *ParagraphBody `json:"paragraph,omitempty"`
}

// ParagraphBody holds the rich text runs of a paragraph block.
type ParagraphBody struct {
	RichText []RichText `json:"rich_text"`
}

// RichText is one plain text run.
type RichText struct {
	Type string      `json:"type"`
	Text TextContent `json:"text"`
}

// TextContent is the content of a text run, at most MaxBlockLen characters.
type TextContent struct {
	Content string `json:"content"`
}

// NewParagraph wraps text in a single-run paragraph block.
func NewParagraph(text string) Block {
	return Block{
		Object:    "block",
		Type:      "paragraph",
		Paragraph: &ParagraphBody{RichText: []RichText{textRun(text)}},
	}
}

// Text returns the concatenated plain text of the block.
func (b Block) Text() string {
	if b.Paragraph == nil {
		return ""
	}
	var sb strings.Builder
	for _, rt := range b.Paragraph.RichText {
		sb.WriteString(rt.Text.Content)
	}
	return sb.String()
}

func textRun(s string) RichText {
	return RichText{Type: "text", Text: TextContent{Content: s}}
}

// Options bounds chunking and upload. Zero fields take the package defaults.
type Options struct {
	ChunkLen    int
	MaxBlockLen int
	MaxBlocks   int
	BatchSize   int
	MaxTitleLen int
}

func (o Options) withDefaults() Options {
	if o.ChunkLen <= 0 {
		o.ChunkLen = DefaultChunkLen
	}
	if o.MaxBlockLen <= 0 {
		o.MaxBlockLen = MaxBlockLen
	}
	if o.MaxBlocks <= 0 {
		o.MaxBlocks = MaxBlocks
	}
	if o.BatchSize <= 0 {
		o.BatchSize = BatchSize
	}
	if o.MaxTitleLen <= 0 {
		o.MaxTitleLen = MaxTitleLen
	}
	return o
}

// BuildReport counts what BuildBlocks produced and what it had to drop.
type BuildReport struct {
	Paragraphs int
	Chunks     int
	Oversize   int // chunks dropped for exceeding MaxBlockLen
	Truncated  int // blocks dropped beyond MaxBlocks
}

// BuildBlocks chunks each paragraph and wraps every chunk in a paragraph
// block, preserving order. Chunks still over the block limit are skipped and
// the result is cut to the block ceiling; both are counted in the report.
func BuildBlocks(paragraphs []string, opts Options) ([]Block, BuildReport) {
	opts = opts.withDefaults()
	report := BuildReport{Paragraphs: len(paragraphs)}

	var blocks []Block
	for _, p := range paragraphs {
		for _, c := range Chunk(p, opts.ChunkLen) {
			report.Chunks++
			if len(trimRunes([]rune(c))) > opts.MaxBlockLen {
				report.Oversize++
				continue
			}
			blocks = append(blocks, NewParagraph(c))
		}
	}

	if len(blocks) > opts.MaxBlocks {
		report.Truncated = len(blocks) - opts.MaxBlocks
		blocks = blocks[:opts.MaxBlocks]
	}
	return blocks, report
}
