package ast

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/yamlls/i18n"
)

// Options controls parsing.
type Options struct {
	CustomTags []string
	// AddRootObject wraps a whitespace-only text in "{}" so an empty document
	// still has an object root.
	AddRootObject bool
}

const maxAliasDepth = 64

// Parse splits text into documents and builds the tree of each one.
func Parse(text string, opts Options) *File {
	if opts.AddRootObject && strings.TrimSpace(text) == "" {
		text = "{" + text + "}"
	}
	f := &File{Text: text, Lines: NewLineIndex(text)}
	tags := ParseCustomTags(opts.CustomTags)
	for i, sp := range splitDocuments(text, f.Lines) {
		b := &builder{text: text, lines: f.Lines, span: sp, tags: tags}
		doc := b.build()
		doc.Index = i
		f.Documents = append(f.Documents, doc)
	}
	return f
}

type span struct {
	start, end int
	line       int // zero-based line of start
}

// splitDocuments cuts text at "---" and "..." marker lines. Comments and
// directives before the first marker belong to the first document.
func splitDocuments(text string, li *LineIndex) []span {
	var spans []span
	cur := span{start: 0, line: 0}
	hasContent, hasMarker := false, false
	for line := 0; line < li.LineCount(); line++ {
		ls, le := li.LineStart(line), li.LineEnd(line)
		l := text[ls:le]
		switch {
		case isMarker(l, "---"):
			if hasContent || hasMarker {
				cur.end = ls
				spans = append(spans, cur)
				cur = span{start: ls, line: line}
				hasContent = false
			}
			hasMarker = true
			if rest := strings.TrimSpace(l[3:]); rest != "" && !strings.HasPrefix(rest, "#") {
				hasContent = true
			}
		case isMarker(l, "..."):
			next := li.LineStart(line + 1)
			cur.end = next
			spans = append(spans, cur)
			cur = span{start: next, line: line + 1}
			hasContent, hasMarker = false, false
		default:
			t := strings.TrimSpace(l)
			if t != "" && !strings.HasPrefix(t, "#") && !(strings.HasPrefix(t, "%") && !hasContent && !hasMarker) {
				hasContent = true
			}
		}
	}
	cur.end = len(text)
	if hasContent || hasMarker || len(spans) == 0 {
		spans = append(spans, cur)
	} else if n := len(spans); n > 0 {
		// trailing comments after "..." stay with the last document
		spans[n-1].end = len(text)
	}
	return spans
}

func isMarker(line, marker string) bool {
	if !strings.HasPrefix(line, marker) {
		return false
	}
	return len(line) == 3 || line[3] == ' ' || line[3] == '\t'
}

type builder struct {
	text    string
	lines   *LineIndex
	span    span
	tags    CustomTags
	doc     *Document
	inAlias int
}

var yamlErrLine = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

func (b *builder) build() *Document {
	b.doc = &Document{Offset: b.span.start, End: b.span.end}
	b.collectComments()
	src := b.text[b.span.start:b.span.end]
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(src), &root); err != nil {
		b.syntaxError(err)
		return b.doc
	}
	var content *yaml.Node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		content = root.Content[0]
	}
	if content == nil || isImplicitNull(content) {
		obj := &Object{}
		obj.offset, obj.length = b.span.start, b.span.end-b.span.start
		b.doc.Root = obj
		return b.doc
	}
	b.doc.Root = b.convert(content, nil)
	return b.doc
}

func (b *builder) collectComments() {
	first := b.lines.Line(b.span.start)
	last := b.lines.Line(b.span.end)
	for line := first; line <= last && line < b.lines.LineCount(); line++ {
		ls, le := b.lines.LineStart(line), b.lines.LineEnd(line)
		if ls >= b.span.end && line != first {
			break
		}
		l := b.text[ls:le]
		t := strings.TrimLeft(l, " \t")
		if strings.HasPrefix(t, "#") {
			b.doc.Comments = append(b.doc.Comments, Comment{Offset: ls + len(l) - len(t), Text: t})
		}
	}
}

func (b *builder) syntaxError(err error) {
	msg := err.Error()
	offset, length := b.span.start, 0
	if m := yamlErrLine.FindStringSubmatch(msg); m != nil {
		msg = m[2]
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			line := b.span.line + n - 1
			ls, le := b.lines.LineStart(line), b.lines.LineEnd(line)
			l := b.text[ls:le]
			indent := len(l) - len(strings.TrimLeft(l, " \t"))
			offset = ls + indent
			length = len(strings.TrimRight(l, " \t")) - indent
			if length < 0 {
				length = 0
			}
		}
	} else {
		msg = strings.TrimPrefix(msg, "yaml: ")
	}
	b.doc.Errors = append(b.doc.Errors, Problem{Offset: offset, Length: length, Message: msg, Code: SyntaxError})
}

// pos converts a yaml.v3 line/column to an absolute byte offset.
func (b *builder) pos(n *yaml.Node) int {
	if n.Line == 0 {
		return b.span.start
	}
	return b.lines.RuneColumnOffset(b.span.line+n.Line, n.Column)
}

func isImplicitNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "" && n.Style == 0 && n.ShortTag() == "!!null"
}

func (b *builder) convert(n *yaml.Node, parent Node) Node {
	switch n.Kind {
	case yaml.AliasNode:
		if b.inAlias >= maxAliasDepth || n.Alias == nil {
			out := &Null{}
			out.parent, out.offset, out.length = parent, b.pos(n), len(n.Value)+1
			return out
		}
		b.inAlias++
		defer func() { b.inAlias-- }()
		return b.convert(n.Alias, parent)
	case yaml.MappingNode:
		return b.mapping(n, parent)
	case yaml.SequenceNode:
		return b.sequence(n, parent)
	default:
		return b.scalar(n, parent)
	}
}

// props skips anchor and tag tokens before a node's content and reports
// undeclared tags.
func (b *builder) props(n *yaml.Node, off int) int {
	i := off
	for i < b.span.end && (b.text[i] == '&' || b.text[i] == '!') {
		j := i
		for j < b.span.end && !isSpace(b.text[j]) && b.text[j] != ',' {
			j++
		}
		if b.text[i] == '!' {
			b.checkTag(n, i, j-i)
		}
		i = skipSpaceAndComments(b.text, j, b.span.end)
	}
	return i
}

func (b *builder) checkTag(n *yaml.Node, offset, length int) {
	if b.inAlias > 0 || !isLocalTag(n.Tag) || b.tags.Accepts(n.Tag, n.Kind) {
		return
	}
	b.doc.Warnings = append(b.doc.Warnings, Problem{
		Offset:  offset,
		Length:  length,
		Message: i18n.T(i18n.UnresolvedTag, n.Tag),
		Code:    UnresolvedTag,
	})
}

func (b *builder) scalar(n *yaml.Node, parent Node) Node {
	start := b.props(n, b.pos(n))
	length := b.scalarLength(n, start)
	var out Node
	switch n.ShortTag() {
	case "!!null":
		v := &Null{}
		v.base = base{parent: parent, offset: start, length: length}
		out = v
	case "!!bool":
		var val bool
		if err := n.Decode(&val); err == nil {
			v := &Boolean{Value: val}
			v.base = base{parent: parent, offset: start, length: length}
			out = v
		}
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			v := &Number{Value: f, IsInteger: n.ShortTag() == "!!int" || isWhole(f)}
			v.base = base{parent: parent, offset: start, length: length}
			out = v
		}
	}
	if out == nil {
		v := &String{Value: n.Value}
		v.base = base{parent: parent, offset: start, length: length}
		out = v
	}
	return out
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

func (b *builder) scalarLength(n *yaml.Node, start int) int {
	text, end := b.text, b.span.end
	if start >= end {
		return 0
	}
	switch {
	case n.Style&yaml.DoubleQuotedStyle != 0:
		for i := start + 1; i < end; i++ {
			switch text[i] {
			case '\\':
				i++
			case '"':
				return i + 1 - start
			}
		}
		return end - start
	case n.Style&yaml.SingleQuotedStyle != 0:
		for i := start + 1; i < end; i++ {
			if text[i] == '\'' {
				if i+1 < end && text[i+1] == '\'' {
					i++
					continue
				}
				return i + 1 - start
			}
		}
		return end - start
	case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		return b.blockScalarEnd(start) - start
	}
	return plainEnd(text, start, end, n.Value) - start
}

// plainEnd matches the characters of a plain scalar's value against the source.
// Folded line breaks in the value match any run of source whitespace.
func plainEnd(text string, start, end int, value string) int {
	i := start
	for j := 0; j < len(value); j++ {
		c := value[j]
		if c == ' ' || c == '\n' || c == '\t' {
			if i < end && isSpace(text[i]) {
				for i < end && isSpace(text[i]) {
					i++
				}
			}
			continue
		}
		if i >= end || text[i] != c {
			break
		}
		i++
	}
	return i
}

func (b *builder) blockScalarEnd(start int) int {
	header := b.lines.Line(start)
	headerLine := b.text[b.lines.LineStart(header):b.lines.LineEnd(header)]
	headerIndent := indentOf(headerLine)
	end := b.lines.LineEnd(header)
	contentIndent := -1
	for line := header + 1; line < b.lines.LineCount(); line++ {
		ls, le := b.lines.LineStart(line), b.lines.LineEnd(line)
		if ls >= b.span.end {
			break
		}
		l := b.text[ls:le]
		if strings.TrimSpace(l) == "" {
			continue
		}
		ind := indentOf(l)
		if contentIndent < 0 {
			if ind <= headerIndent {
				break
			}
			contentIndent = ind
		}
		if ind < contentIndent {
			break
		}
		end = le
	}
	return end
}

func indentOf(l string) int {
	return len(l) - len(strings.TrimLeft(l, " "))
}

func (b *builder) mapping(n *yaml.Node, parent Node) Node {
	obj := &Object{}
	obj.parent = parent
	start := b.props(n, b.pos(n))
	flow := n.Style&yaml.FlowStyle != 0
	seen := map[string]bool{}
	cursor := start
	if flow {
		cursor = start + 1
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		prop := &Property{ColonOffset: -1}
		prop.parent = obj
		prop.Key = b.key(k, prop)
		keyEnd := End(prop.Key)
		prop.ColonOffset = b.findColon(keyEnd)
		prop.Value = b.propertyValue(v, prop)
		end := keyEnd
		if prop.ColonOffset >= 0 {
			end = prop.ColonOffset + 1
		}
		if prop.Value != nil && End(prop.Value) > end {
			end = End(prop.Value)
		}
		prop.offset, prop.length = prop.Key.offset, end-prop.Key.offset
		if seen[prop.Key.Value] && b.inAlias == 0 {
			b.doc.Errors = append(b.doc.Errors, Problem{
				Offset:  prop.Key.offset,
				Length:  prop.Key.length,
				Message: i18n.T(i18n.DuplicateKey),
				Code:    DuplicateKey,
			})
		}
		seen[prop.Key.Value] = true
		obj.Properties = append(obj.Properties, prop)
		if end > cursor {
			cursor = end
		}
	}
	switch {
	case flow:
		obj.offset = start
		obj.length = b.closeBracket('}', cursor) - start
	case len(obj.Properties) > 0:
		obj.offset = obj.Properties[0].offset
		last := obj.Properties[len(obj.Properties)-1]
		obj.length = max(End(last), cursor) - obj.offset
	default:
		obj.offset = start
	}
	return obj
}

func (b *builder) key(k *yaml.Node, prop *Property) *String {
	switch k.Kind {
	case yaml.ScalarNode:
		n := b.scalar(k, prop)
		if s, ok := n.(*String); ok {
			return s
		}
		s := &String{Value: k.Value}
		s.base = base{parent: prop, offset: n.Offset(), length: n.Length()}
		return s
	case yaml.AliasNode:
		off := b.pos(k)
		s := &String{Value: k.Value}
		if k.Alias != nil && k.Alias.Kind == yaml.ScalarNode {
			s.Value = k.Alias.Value
		}
		s.base = base{parent: prop, offset: off, length: len(k.Value) + 1}
		return s
	}
	b.inAlias++
	n := b.convert(k, prop)
	b.inAlias--
	s := &String{Value: strings.TrimSpace(b.text[n.Offset():End(n)])}
	s.base = base{parent: prop, offset: n.Offset(), length: n.Length()}
	return s
}

func (b *builder) propertyValue(v *yaml.Node, prop *Property) Node {
	if isImplicitNull(v) {
		out := &Null{}
		off := End(prop.Key)
		if prop.ColonOffset >= 0 {
			off = prop.ColonOffset + 1
		}
		out.base = base{parent: prop, offset: off}
		return out
	}
	return b.convert(v, prop)
}

func (b *builder) findColon(from int) int {
	i := from
	for i < b.span.end && isSpace(b.text[i]) {
		i++
	}
	if i < b.span.end && b.text[i] == ':' {
		return i
	}
	return -1
}

func (b *builder) sequence(n *yaml.Node, parent Node) Node {
	arr := &Array{}
	arr.parent = parent
	start := b.props(n, b.pos(n))
	flow := n.Style&yaml.FlowStyle != 0
	cursor := start
	if flow {
		cursor = start + 1
	}
	for _, c := range n.Content {
		var item Node
		if isImplicitNull(c) {
			off := cursor
			if !flow {
				if d := strings.IndexByte(b.text[cursor:b.span.end], '-'); d >= 0 {
					off = cursor + d + 1
				}
			}
			null := &Null{}
			null.base = base{parent: arr, offset: off}
			item = null
		} else {
			item = b.convert(c, arr)
		}
		arr.Items = append(arr.Items, item)
		if End(item) > cursor {
			cursor = End(item)
		}
	}
	switch {
	case flow:
		arr.offset = start
		arr.length = b.closeBracket(']', cursor) - start
	case start < b.span.end && b.text[start] == '-':
		arr.offset = start
		arr.length = max(cursor, start+1) - start
	case len(arr.Items) > 0:
		arr.offset = arr.Items[0].Offset()
		arr.length = cursor - arr.offset
	default:
		arr.offset = start
	}
	return arr
}

func (b *builder) closeBracket(ch byte, from int) int {
	i := from
	for i < b.span.end {
		c := b.text[i]
		switch {
		case c == ch:
			return i + 1
		case c == '#':
			for i < b.span.end && b.text[i] != '\n' {
				i++
			}
			continue
		case isSpace(c) || c == ',':
		default:
			return from
		}
		i++
	}
	return from
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func skipSpaceAndComments(text string, i, end int) int {
	for i < end {
		switch {
		case isSpace(text[i]):
			i++
		case text[i] == '#' && (i == 0 || isSpace(text[i-1])):
			for i < end && text[i] != '\n' {
				i++
			}
		default:
			return i
		}
	}
	return i
}
