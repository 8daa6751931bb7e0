package jsonschema

import (
	"bytes"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
)

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type dupFrame struct {
	kind         containerKind
	pointer      string
	keys         map[string]struct{}
	expectingKey bool
	index        int
}

// DuplicateKeys returns the JSON pointers of object keys repeated in data, in
// document order. Schema decoding keeps the last occurrence of such keys.
// maxIssues <= 0 means unlimited.
func DuplicateKeys(data []byte, maxIssues int) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var (
		dups  []string
		stack []dupFrame
		key   string
	)

	// child is the pointer of the value starting at the current token.
	child := func() string {
		if len(stack) == 0 {
			return ""
		}
		top := &stack[len(stack)-1]
		if top.kind == kindArray {
			p := top.pointer + "/" + strconv.Itoa(top.index)
			top.index++
			return p
		}
		top.expectingKey = true
		return top.pointer + "/" + EscapePointer(key)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return dups, nil
		}
		if err != nil {
			return dups, err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, dupFrame{kind: kindObject, pointer: child(), keys: map[string]struct{}{}, expectingKey: true})
			case '[':
				stack = append(stack, dupFrame{kind: kindArray, pointer: child()})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.kind == kindObject && top.expectingKey {
					if _, ok := top.keys[v]; ok {
						dups = append(dups, top.pointer+"/"+EscapePointer(v))
						if maxIssues > 0 && len(dups) >= maxIssues {
							return dups, nil
						}
					}
					top.keys[v] = struct{}{}
					top.expectingKey = false
					key = v
					continue
				}
			}
			child()
		default:
			child()
		}
	}
}
