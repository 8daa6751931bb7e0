package ast

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	"go.lsp.dev/protocol"
)

// LineIndex maps byte offsets to LSP positions. Characters are counted in
// UTF-16 code units.
type LineIndex struct {
	text   string
	starts []int
}

// NewLineIndex indexes text. "\n", "\r\n" and "\r" end lines.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		case '\n':
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// LineCount returns the number of lines.
func (li *LineIndex) LineCount() int { return len(li.starts) }

// LineStart returns the offset of the first byte of line.
func (li *LineIndex) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(li.starts) {
		return len(li.text)
	}
	return li.starts[line]
}

// LineEnd returns the offset of the line terminator of line (or the text end).
func (li *LineIndex) LineEnd(line int) int {
	end := li.LineStart(line + 1)
	if line+1 >= len(li.starts) {
		return len(li.text)
	}
	for end > li.starts[line] && (li.text[end-1] == '\n' || li.text[end-1] == '\r') {
		end--
	}
	return end
}

// Line returns the zero-based line containing offset.
func (li *LineIndex) Line(offset int) int {
	offset = li.clamp(offset)
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
}

// Position converts a byte offset into a position.
func (li *LineIndex) Position(offset int) protocol.Position {
	offset = li.clamp(offset)
	line := li.Line(offset)
	return protocol.Position{Line: uint32(line), Character: uint32(utf16Len(li.text[li.starts[line]:offset]))}
}

// Offset converts a position into a byte offset. Characters past the line end
// are clamped to it.
func (li *LineIndex) Offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(li.starts) {
		return len(li.text)
	}
	start, end := li.starts[line], li.LineEnd(line)
	units := int(pos.Character)
	i := start
	for i < end && units > 0 {
		r, size := utf8.DecodeRuneInString(li.text[i:])
		units -= utf16.RuneLen(r)
		if units < 0 {
			break
		}
		i += size
	}
	return i
}

// Range returns the range covering [offset, offset+length).
func (li *LineIndex) Range(offset, length int) protocol.Range {
	return protocol.Range{Start: li.Position(offset), End: li.Position(offset + length)}
}

// RuneColumnOffset converts a one-based line and one-based rune column (the
// yaml.v3 convention) into a byte offset.
func (li *LineIndex) RuneColumnOffset(line, column int) int {
	i := li.LineStart(line - 1)
	end := li.LineEnd(line - 1)
	for c := 1; c < column && i < end; c++ {
		_, size := utf8.DecodeRuneInString(li.text[i:])
		i += size
	}
	return i
}

func (li *LineIndex) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(li.text) {
		return len(li.text)
	}
	return offset
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
