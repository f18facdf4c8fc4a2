package engine

import (
	"context"
	"regexp"
	"strings"
)

// HeuristicEngine is a local baseline that suggests the token most likely to
// complete the last code line before the cursor: a missing operand, closing
// parentheses or brackets, a statement terminator, a method body, a return
// of the last assigned variable, or a closing brace.
type HeuristicEngine struct {
	id string
}

// NewHeuristicEngine returns the baseline engine.
func NewHeuristicEngine(id string) *HeuristicEngine {
	if id == "" {
		id = "heuristic"
	}
	return &HeuristicEngine{id: id}
}

// Name returns the configured engine id.
func (e *HeuristicEngine) Name() string {
	return e.id
}

var (
	trailingOperators = []string{"&&", "||", "+", "-", "*", "/", "%", "=", ",", ".", "?", ":"}
	declarationHeader = regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract|synchronized)\s+)*[\w<>\[\],]+\s+\w+$`)
	methodSignature   = regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract|synchronized)\s+)*[\w<>\[\],]+\s+\w+\s*\(.*\)(?:\s*throws\s+[\w., ]+)?$`)
	typedMethodHeader = regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|static|final)\s+)*([\w<>\[\]]+)\s+\w+\s*\([^)]*\)\s*\{`)
	assignment        = regexp.MustCompile(`^(?:[\w<>\[\]]+\s+)?(\w+)\s*=[^=]`)
)

// Suggest analyzes the text before the cursor.
func (e *HeuristicEngine) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return Suggestion{}, err
	}
	text, confidence := suggestCompletion(req.Window.Before)
	if text == "" {
		return Suggestion{}, nil
	}
	return Suggestion{
		Text:       text,
		Confidence: Confidence(confidence),
		Changes: []Change{{
			Kind:       ChangeInsert,
			NewText:    text,
			Confidence: confidence,
		}},
	}, nil
}

func suggestCompletion(before string) (string, float64) {
	line, hasString := lastCodeLine(before)
	if line == "" {
		return "", 0
	}

	var out strings.Builder
	confidence := 0.9
	code := line
	for _, op := range trailingOperators {
		if strings.HasSuffix(code, op) {
			if hasString {
				out.WriteString(`""`)
			} else {
				out.WriteString("0")
			}
			confidence = 0.6
			code += " x"
			break
		}
	}

	opens := strings.Count(code, "(") - strings.Count(code, ")")
	brackets := strings.Count(code, "[") - strings.Count(code, "]")
	if brackets > 0 {
		out.WriteString(strings.Repeat("]", brackets))
		confidence = min(confidence, 0.8)
	}
	if opens > 0 {
		out.WriteString(strings.Repeat(")", opens))
		confidence = min(confidence, 0.8)
		code += strings.Repeat(")", opens)
	}

	switch {
	case declarationHeader.MatchString(code) && !isStatementKeyword(code):
		return "() {\n}", 0.5
	case methodSignature.MatchString(code) && !strings.Contains(code, "="):
		out.WriteString(" {\n}")
		return out.String(), 0.5
	case strings.HasSuffix(code, ";"):
		if out.Len() > 0 {
			return out.String(), confidence
		}
		if ret := returnOfLastAssignment(before, code); ret != "" {
			return ret, 0.6
		}
		if braceDepth(before) > 0 {
			return "}", 0.5
		}
		return "", 0
	case strings.HasSuffix(code, "{") || strings.HasSuffix(code, "}"):
		if braceDepth(before) > 0 {
			return "}", 0.5
		}
		return out.String(), confidence
	default:
		out.WriteString(";")
		return out.String(), confidence
	}
}

func isStatementKeyword(code string) bool {
	first := strings.Fields(code)[0]
	switch first {
	case "return", "throw", "new", "else", "break", "continue":
		return true
	}
	return false
}

// returnOfLastAssignment suggests returning the variable assigned on the
// last line when the enclosing method declares a non-void result.
func returnOfLastAssignment(before, code string) string {
	headers := typedMethodHeader.FindAllStringSubmatch(before, -1)
	if len(headers) == 0 {
		return ""
	}
	if headers[len(headers)-1][1] == "void" {
		return ""
	}
	match := assignment.FindStringSubmatch(code)
	if match == nil {
		return ""
	}
	return "return " + match[1] + ";"
}

// braceDepth counts unclosed braces outside literals and comments.
func braceDepth(text string) int {
	depth := 0
	for _, line := range strings.Split(text, "\n") {
		code, _ := stripLine(line)
		depth += strings.Count(code, "{") - strings.Count(code, "}")
	}
	return depth
}

// lastCodeLine returns the last non-blank, non-comment line before the
// cursor with literals and trailing comments removed.
func lastCodeLine(before string) (string, bool) {
	lines := strings.Split(before, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") {
			continue
		}
		code, hasString := stripLine(trimmed)
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		return code, hasString
	}
	return "", false
}

// stripLine blanks string and char literal contents and drops a trailing
// line comment.
func stripLine(line string) (string, bool) {
	var out strings.Builder
	hasString := false
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				out.WriteByte(c)
				quote = 0
			}
			continue
		}
		if c == '/' && i+1 < len(line) && line[i+1] == '/' {
			break
		}
		if c == '"' || c == '\'' {
			quote = c
			if c == '"' {
				hasString = true
			}
		}
		out.WriteByte(c)
	}
	return out.String(), hasString
}
