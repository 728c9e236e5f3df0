package indexer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// minChunkSize is the rune count below which a chunk gets merged with its neighbor.
const minChunkSize = 50

// MarkdownChunker chunks markdown content along its heading hierarchy,
// then enforces rune size bounds with overlapping splits.
type MarkdownChunker struct {
	parser    goldmark.Markdown
	chunkSize int
	overlap   int
}

// NewMarkdownChunker creates a chunker. chunkSize is the maximum chunk size
// in runes; overlap is the number of runes repeated between consecutive
// splits of an oversized section. overlap must be smaller than chunkSize.
func NewMarkdownChunker(chunkSize, overlap int) *MarkdownChunker {
	return &MarkdownChunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// ChunkMarkdown parses markdown content and returns the document title and
// its chunks. Chunks follow the heading hierarchy; sections larger than the
// chunk size are split with overlap so sentences near a boundary appear in
// both neighbors.
func (c *MarkdownChunker) ChunkMarkdown(content []byte, filename string) (title string, chunks []Chunk, err error) {
	if len(content) == 0 {
		return titleFromFilename(filename), []Chunk{}, nil
	}

	reader := text.NewReader(content)
	doc := c.parser.Parser().Parse(reader)

	title = extractTitle(doc, content, filename)
	chunks = c.buildChunks(doc, content, title)
	chunks = c.applySizeBounds(chunks)

	return title, chunks, nil
}

// extractTitle picks the document title: first H1, else first H2, else the
// filename without extension.
func extractTitle(doc ast.Node, content []byte, filename string) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		headingText := nodeText(heading, content)
		switch {
		case heading.Level == 1 && firstH1 == "":
			firstH1 = headingText
			return ast.WalkStop, nil
		case heading.Level == 2 && firstH2 == "":
			firstH2 = headingText
		}
		return ast.WalkContinue, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return titleFromFilename(filename)
}

func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

type headingLevel struct {
	level int
	text  string
}

// buildChunks walks the AST and emits one chunk per heading section.
// Content before the first heading is attributed to the document title.
func (c *MarkdownChunker) buildChunks(doc ast.Node, content []byte, docTitle string) []Chunk {
	var chunks []Chunk
	var current *Chunk
	var stack []headingLevel
	index := 0

	flush := func() {
		if current != nil && len(strings.TrimSpace(current.Text)) > 0 {
			chunks = append(chunks, *current)
			index++
		}
		current = nil
	}

	appendText := func(s string) {
		if current == nil {
			current = &Chunk{Index: index, Section: "# " + docTitle}
		}
		current.Text += s
	}

	ensureNewline := func() {
		if current != nil && len(current.Text) > 0 && !strings.HasSuffix(current.Text, "\n") {
			current.Text += "\n"
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			flush()

			for len(stack) > 0 && stack[len(stack)-1].level >= node.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, headingLevel{level: node.Level, text: nodeText(node, content)})

			current = &Chunk{Index: index, Section: sectionPath(stack)}
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			appendText(string(node.Segment.Value(content)))

		case *ast.String:
			appendText(string(node.Value))

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				appendText(string(seg.Value(content)))
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.List, *ast.ListItem:
			ensureNewline()

		default:
			kind := n.Kind().String()
			if strings.Contains(kind, "TableRow") || strings.Contains(kind, "TableHeader") {
				ensureNewline()
				appendText(tableRowText(n, content) + "\n")
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})

	flush()

	if len(chunks) == 0 && len(strings.TrimSpace(string(content))) > 0 {
		chunks = append(chunks, Chunk{
			Index:   0,
			Section: "# " + docTitle,
			Text:    string(content),
		})
	}

	return chunks
}

// sectionPath formats the heading stack as "# 개요 > ## 일정".
func sectionPath(stack []headingLevel) string {
	parts := make([]string, len(stack))
	for i, h := range stack {
		parts[i] = fmt.Sprintf("%s %s", strings.Repeat("#", h.level), h.text)
	}
	return strings.Join(parts, " > ")
}

// nodeText extracts the plain text of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var sb strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}

// tableRowText joins table cells with pipe separators.
func tableRowText(row ast.Node, content []byte) string {
	var cells []string

	_ = ast.Walk(row, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if strings.Contains(node.Kind().String(), "TableCell") {
			cells = append(cells, nodeText(node, content))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(cells, " | ")
}

// applySizeBounds merges undersized chunks into their successor and splits
// oversized chunks. Sizes are measured in runes so Korean text is not
// penalized by its UTF-8 byte width.
func (c *MarkdownChunker) applySizeBounds(chunks []Chunk) []Chunk {
	if len(chunks) == 0 {
		return chunks
	}

	var result []Chunk
	i := 0

	for i < len(chunks) {
		current := chunks[i]

		// Merge consecutive chunks that share a section path.
		for i+1 < len(chunks) && chunks[i+1].Section == current.Section {
			merged := current.Text + "\n\n" + chunks[i+1].Text
			if utf8.RuneCountInString(merged) > c.chunkSize {
				break
			}
			current.Text = merged
			i++
		}

		// Merge a tiny chunk forward when the result stays in bounds.
		if utf8.RuneCountInString(current.Text) < minChunkSize && i+1 < len(chunks) {
			merged := current.Text + "\n\n" + chunks[i+1].Text
			if utf8.RuneCountInString(merged) <= c.chunkSize {
				current.Text = merged
				i++
			}
		}

		if utf8.RuneCountInString(current.Text) > c.chunkSize {
			result = append(result, c.splitChunk(current)...)
		} else {
			result = append(result, current)
		}
		i++
	}

	for i := range result {
		result[i].Index = i
	}
	return result
}

// splitChunk splits an oversized chunk into windows of at most chunkSize
// runes. Splits prefer paragraph, newline, then sentence boundaries, and
// consecutive windows overlap by the configured rune count.
func (c *MarkdownChunker) splitChunk(chunk Chunk) []Chunk {
	runes := []rune(chunk.Text)
	if len(runes) <= c.chunkSize {
		return []Chunk{chunk}
	}

	var splits []Chunk
	start := 0

	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			splits = append(splits, Chunk{
				Section: chunk.Section,
				Text:    string(runes[start:]),
				Meta:    chunk.Meta,
			})
			break
		}

		window := string(runes[start:end])
		splitPoint := end
		if p := strings.LastIndex(window, "\n\n"); p != -1 {
			splitPoint = start + utf8.RuneCountInString(window[:p]) + 2
		} else if p := strings.LastIndex(window, "\n"); p != -1 {
			splitPoint = start + utf8.RuneCountInString(window[:p]) + 1
		} else if p := strings.LastIndex(window, ". "); p != -1 {
			splitPoint = start + utf8.RuneCountInString(window[:p]) + 2
		}

		splits = append(splits, Chunk{
			Section: chunk.Section,
			Text:    string(runes[start:splitPoint]),
			Meta:    chunk.Meta,
		})

		next := splitPoint - c.overlap
		if next <= start {
			// Guarantee forward progress when the boundary landed inside the overlap.
			next = start + (c.chunkSize - c.overlap)
		}
		start = next
	}

	for i := range splits {
		splits[i].Index = chunk.Index + i
	}
	return splits
}
