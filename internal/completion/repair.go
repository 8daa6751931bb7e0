package completion

import (
	"strings"

	"github.com/reoring/yamlls/ast"
)

// repair patches the line being typed so that it parses into a node at the
// cursor. Offsets before the cursor line are unchanged.
//
// A whitespace-only text becomes an empty flow mapping. A line without ':'
// that is blank or a lone '-' gets a placeholder "holder:" key, and any other
// line without ':' or '[' gets a trailing ':'.
func repair(text string, lines *ast.LineIndex, line int) string {
	if strings.TrimSpace(text) == "" {
		return "{" + text + "}\n"
	}
	start := lines.LineStart(line)
	next := len(text)
	if line+1 < lines.LineCount() {
		next = lines.LineStart(line + 1)
	}
	end := next
	for end > start && (text[end-1] == '\n' || text[end-1] == '\r') {
		end--
	}
	current := text[start:end]
	if strings.Contains(current, ":") {
		return text
	}
	trimmed := strings.TrimSpace(current)
	rest := text[next:]
	switch {
	case trimmed == "" || trimmed == "-":
		keep := 0
		if strings.Contains(current, " ") {
			keep = len(current)
		}
		sep := ""
		if trimmed == "-" && !strings.HasSuffix(current, " ") {
			sep = " "
		}
		return text[:start+keep] + sep + "holder:\r\n" + rest
	case !strings.Contains(trimmed, "["):
		return text[:end] + ":\r\n" + rest
	}
	return text
}

// guessIndentation returns the indentation unit used by text: a tab when most
// indented lines start with one, otherwise the most frequent increase in
// leading spaces between consecutive lines. def spaces are used when the text
// shows no indentation.
func guessIndentation(text string, def int) string {
	var deltas [9]int
	tabs, spaces, prev := 0, 0, 0
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		if l[0] == '\t' {
			tabs++
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if n > 0 {
			spaces++
		}
		if d := n - prev; d > 0 && d < len(deltas) {
			deltas[d]++
		}
		prev = n
	}
	if tabs > spaces {
		return "\t"
	}
	best, count := def, 0
	for d := 1; d < len(deltas); d++ {
		if deltas[d] > count {
			best, count = d, deltas[d]
		}
	}
	return strings.Repeat(" ", best)
}
