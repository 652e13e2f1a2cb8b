package domain

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ratchet.dev/pkg/ratchet/internal/model"
)

// snippetWidth bounds the matched text carried in a violation.
const snippetWidth = 120

// violationCapture selects the reported node of a query match when present.
const violationCapture = "violation"

// EvaluateRegex scans the file bytes with the rule's compiled pattern. Byte
// offsets convert to 1-based line/column pairs through the file's line index.
func EvaluateRegex(rule *Rule, file *SourceFile) []model.Violation {
	matches := rule.compiled.FindAllIndex(file.Content, -1)
	if len(matches) == 0 {
		return nil
	}
	lines := file.Lines()
	violations := make([]model.Violation, 0, len(matches))
	for _, m := range matches {
		start, end := m[0], m[1]
		line, col := lines.Position(start)
		endLine, endCol := lines.Position(end)
		violations = append(violations, model.Violation{
			Rule:      rule.ID,
			Severity:  rule.Severity,
			File:      file.Entry.Rel,
			Line:      line,
			Column:    col,
			EndLine:   endLine,
			EndColumn: endCol,
			Snippet:   snippet(string(file.Content[start:end])),
			Message:   rule.Description,
		})
	}
	return violations
}

// EvaluateQuery runs the rule's query against the file's syntax tree. The
// reported node is the capture named @violation when the query defines one,
// otherwise the first capture of the match.
func EvaluateQuery(ctx context.Context, rule *Rule, file *SourceFile, parsers *ParserCache) ([]model.Violation, error) {
	tree, err := file.Tree(ctx, parsers)
	if err != nil {
		return nil, err
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(rule.query, tree.RootNode())

	var violations []model.Violation
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, file.Content)
		if len(match.Captures) == 0 {
			continue
		}
		node := match.Captures[0].Node
		for _, capture := range match.Captures {
			if rule.query.CaptureNameForId(capture.Index) == violationCapture {
				node = capture.Node
				break
			}
		}
		start, end := node.StartPoint(), node.EndPoint()
		violations = append(violations, model.Violation{
			Rule:      rule.ID,
			Severity:  rule.Severity,
			File:      file.Entry.Rel,
			Line:      int(start.Row) + 1,
			Column:    int(start.Column) + 1,
			EndLine:   int(end.Row) + 1,
			EndColumn: int(end.Column) + 1,
			Snippet:   snippet(node.Content(file.Content)),
			Message:   rule.Description,
		})
	}
	return violations, nil
}

// snippet flattens the matched text to one bounded line.
func snippet(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "\r")
	if len(s) > snippetWidth {
		s = s[:snippetWidth] + "…"
	}
	return s
}
