package describe

import (
	"bytes"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"smartrouter/internal/domain"
)

// Options configures an Extractor.
type Options struct {
	Logger *zap.Logger
	// MaxLength bounds descriptions in runes. Zero uses domain.MaxDescriptionLength.
	MaxLength int
}

// Extractor derives a one-line description from a tool unit document.
type Extractor struct {
	logger    *zap.Logger
	maxLength int
	markdown  goldmark.Markdown
}

// NewExtractor builds an Extractor.
func NewExtractor(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = domain.MaxDescriptionLength
	}
	return &Extractor{
		logger:    logger.Named("describe"),
		maxLength: maxLength,
		markdown:  goldmark.New(),
	}
}

// Extract reads path and returns its description. An unreadable file yields the
// placeholder description and a warning; Extract never fails.
func (e *Extractor) Extract(path string) (string, *domain.Problem) {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("description unreadable", zap.String("path", path), zap.Error(err))
		problem := domain.Warn(domain.ProblemDescriptionUnreadable, path, err.Error())
		return domain.NoDescription, &problem
	}
	return e.FromBytes(data), nil
}

// FromBytes extracts a description from document content.
func (e *Extractor) FromBytes(data []byte) string {
	front, body, ok := SplitFrontmatter(string(data))
	if ok {
		if desc := frontmatterDescription(front); desc != "" {
			return truncate(desc, e.maxLength)
		}
	}
	if line := e.firstBodyLine([]byte(body)); line != "" {
		return truncate(line, e.maxLength)
	}
	return domain.NoDescription
}

// firstBodyLine returns the first non-empty source line of the first block that is not a
// heading or thematic break.
func (e *Extractor) firstBodyLine(src []byte) string {
	doc := e.markdown.Parser().Parse(text.NewReader(src))
	var found string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading, ast.KindThematicBreak:
			return ast.WalkSkipChildren, nil
		}
		if n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			line := string(bytes.TrimSpace(segment.Value(src)))
			if line == "" || line == "---" {
				continue
			}
			found = line
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
