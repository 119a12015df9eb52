package strata

import "fmt"

// SyntaxError reports an unbalanced bracket in a source file.
type SyntaxError struct {
	File string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: syntax error: %s", e.File, e.Line, e.Msg)
}

var closing = map[rune]rune{')': '(', ']': '[', '}': '{'}

// checkBalance verifies that (), [] and {} nest properly outside of string
// literals and comments.
func checkBalance(file, src string) error {
	type open struct {
		r    rune
		line int
	}
	var stack []open

	line := 1
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\n':
			line++
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			i--
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			start := line
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				if runes[i] == '\n' {
					line++
				}
				i++
			}
			if i >= len(runes) {
				return &SyntaxError{File: file, Line: start, Msg: "unterminated comment"}
			}
			i++
		case r == '"':
			start := line
			i++
			for i < len(runes) && runes[i] != '"' {
				if runes[i] == '\\' {
					i++
				} else if runes[i] == '\n' {
					line++
				}
				i++
			}
			if i >= len(runes) {
				return &SyntaxError{File: file, Line: start, Msg: "unterminated string"}
			}
		case r == '(' || r == '[' || r == '{':
			stack = append(stack, open{r: r, line: line})
		case closing[r] != 0:
			if len(stack) == 0 || stack[len(stack)-1].r != closing[r] {
				return &SyntaxError{File: file, Line: line, Msg: fmt.Sprintf("unexpected '%c'", r)}
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return &SyntaxError{File: file, Line: top.line, Msg: fmt.Sprintf("unclosed '%c'", top.r)}
	}
	return nil
}
