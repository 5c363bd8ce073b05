package symbols

import (
	"bufio"
	"bytes"
	"strings"
)

// MarkdownParser extracts document structure from Markdown files: one
// document record for the file, a section record per #/## heading, and
// a subsection record per deeper heading. This is what lets decisions
// link to design-doc fragments instead of whole files.
type MarkdownParser struct{}

// NewMarkdownParser creates a Markdown document parser.
func NewMarkdownParser() *MarkdownParser { return &MarkdownParser{} }

func (m *MarkdownParser) Extensions() []string { return []string{".md", ".markdown"} }

type heading struct {
	level int
	title string
	line  int // 1-based
}

func (m *MarkdownParser) Parse(path string, content []byte) ([]Record, error) {
	doc := moduleName(path)
	lineCount, headings := scanHeadings(content)

	records := []Record{{
		QualifiedName: doc,
		Kind:          KindDocument,
		FilePath:      path,
		LineStart:     1,
		LineEnd:       max(lineCount, 1),
		Preview:       firstLine(string(content)),
	}}

	// A heading's range runs to the line before the next heading of the
	// same or shallower level.
	for i, h := range headings {
		end := lineCount
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				end = next.line - 1
				break
			}
		}

		kind := KindSection
		if h.level >= 3 {
			kind = KindSubsection
		}
		parent := doc
		if kind == KindSubsection {
			if p := enclosingHeading(headings, i); p != "" {
				parent = doc + "." + slugify(p)
			}
		}

		records = append(records, Record{
			QualifiedName: doc + "." + slugify(h.title),
			Kind:          kind,
			FilePath:      path,
			LineStart:     h.line,
			LineEnd:       end,
			Parent:        parent,
			Preview:       h.title,
		})
	}
	return records, nil
}

func scanHeadings(content []byte) (lines int, headings []heading) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	inFence := false
	for scanner.Scan() {
		lines++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		// Headings inside fenced code blocks are not structure.
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(trimmed, "#") {
			continue
		}

		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		if level > 6 || level >= len(trimmed) || trimmed[level] != ' ' {
			continue
		}
		headings = append(headings, heading{
			level: level,
			title: strings.TrimSpace(trimmed[level:]),
			line:  lines,
		})
	}
	return lines, headings
}

// enclosingHeading finds the nearest prior heading with a shallower
// level than headings[i].
func enclosingHeading(headings []heading, i int) string {
	for j := i - 1; j >= 0; j-- {
		if headings[j].level < headings[i].level {
			return headings[j].title
		}
	}
	return ""
}

// slugify folds a heading title into a stable identifier segment.
func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
