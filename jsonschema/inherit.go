package jsonschema

import "reflect"

// Inherit copies into s every keyword that src sets and s lacks. Values are
// shared, not copied. Boolean sources contribute nothing. Keywords that span
// several fields (type, items, default, const) move as a unit.
func (s *Schema) Inherit(src *Schema) {
	if s == nil || src == nil || src.Bool != nil || s == src {
		return
	}
	if len(s.Type) == 0 && len(src.Type) > 0 {
		s.Type, s.TypeList = src.Type, src.TypeList
	}
	if s.Items == nil && s.ItemsList == nil {
		s.Items, s.ItemsList = src.Items, src.ItemsList
	}
	if !s.HasDefault && src.HasDefault {
		s.Default, s.HasDefault = src.Default, true
	}
	if !s.HasConst && src.HasConst {
		s.Const, s.HasConst = src.Const, true
	}
	if src.Extensions != nil {
		for k, v := range src.Extensions.All() {
			if s.Extensions == nil {
				s.Extensions = NewOrderedMap[any]()
			}
			if !s.Extensions.Has(k) {
				s.Extensions.Set(k, v)
			}
		}
	}

	dst, from := reflect.ValueOf(s).Elem(), reflect.ValueOf(src).Elem()
	for i := 0; i < dst.NumField(); i++ {
		if _, skip := compound[dst.Type().Field(i).Name]; skip {
			continue
		}
		if f := dst.Field(i); f.IsZero() {
			f.Set(from.Field(i))
		}
	}
}

var compound = map[string]struct{}{
	"Bool": {}, "Type": {}, "TypeList": {}, "Items": {}, "ItemsList": {},
	"Default": {}, "HasDefault": {}, "Const": {}, "HasConst": {}, "Extensions": {},
}
