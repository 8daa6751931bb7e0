package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T(TypeMismatch, "string"); msg != `Incorrect type. Expected "string".` {
		t.Fatalf("unexpected english message %q", msg)
	}

	SetLanguage("ja")
	if msg := T(TypeMismatch, "string"); msg == `Incorrect type. Expected "string".` {
		t.Fatalf("expected japanese message, got %q", msg)
	}
	// keys without a japanese entry fall back to english
	if msg := T(ArrayItem); msg != "- (array item)" {
		t.Fatalf("fallback: %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

type upper struct{}

func (upper) Message(key string) (string, bool) {
	if key == MinProp {
		return "FEWER THAN {0}", true
	}
	return "", false
}

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if msg := T(MinProp, "3"); msg != "FEWER THAN 3" {
		t.Fatalf("custom translator: %q", msg)
	}
	if msg := T(MaxProp, "3"); msg != "Object has more properties than limit of 3." {
		t.Fatalf("english fallback: %q", msg)
	}
	if msg := T("no.such.key"); msg != "no.such.key" {
		t.Fatalf("unknown key: %q", msg)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		tpl  string
		args []string
		want string
	}{
		{"Object is missing property {0} required by property {1}.", []string{"a", "b"}, "Object is missing property a required by property b."},
		{"{1}{0}", []string{"x", "y"}, "yx"},
		{"keep {2} and {x}", []string{"a"}, "keep {2} and {x}"},
		{"no args {0}", nil, "no args {0}"},
	}
	for _, c := range cases {
		if got := Format(c.tpl, c.args...); got != c.want {
			t.Fatalf("Format(%q)=%q want %q", c.tpl, got, c.want)
		}
	}
}
