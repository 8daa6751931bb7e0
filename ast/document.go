package ast

import "fmt"

// ProblemCode classifies parser problems.
type ProblemCode int

const (
	SyntaxError ProblemCode = iota + 1
	DuplicateKey
	UnresolvedTag
)

func (c ProblemCode) String() string {
	switch c {
	case SyntaxError:
		return "syntax_error"
	case DuplicateKey:
		return "duplicate_key"
	case UnresolvedTag:
		return "unresolved_tag"
	}
	return "unknown"
}

// Problem is a parser diagnostic located by byte offset.
type Problem struct {
	Offset  int
	Length  int
	Message string
	Code    ProblemCode
}

func (p Problem) Error() string { return fmt.Sprintf("%s at %d: %s", p.Code, p.Offset, p.Message) }

// Comment is a full-line comment. Text starts with '#'.
type Comment struct {
	Offset int
	Text   string
}

// Document is one YAML document of a file. Root is nil only when the source of
// the document could not be parsed.
type Document struct {
	Root     Node
	Errors   []Problem
	Warnings []Problem
	Comments []Comment
	// Offset and End delimit the document inside the file text.
	Offset int
	End    int
	// Index is the position of the document in the file, starting at 0.
	Index int
}

// Contains reports whether offset belongs to the document (end inclusive).
func (d *Document) Contains(offset int) bool {
	return offset >= d.Offset && offset <= d.End
}

// File is a parsed YAML text with all its documents.
type File struct {
	Text      string
	Lines     *LineIndex
	Documents []*Document
}

// DocumentAt returns the document holding offset, or the last one.
func (f *File) DocumentAt(offset int) *Document {
	for _, d := range f.Documents {
		if offset < d.End || offset == d.End && d == f.Documents[len(f.Documents)-1] {
			if offset >= d.Offset {
				return d
			}
		}
	}
	if len(f.Documents) == 0 {
		return nil
	}
	return f.Documents[len(f.Documents)-1]
}
