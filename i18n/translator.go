package i18n

import (
	"strconv"
	"strings"
	"sync"
)

// Message keys. Templates use {0}, {1}, ... placeholders.
const (
	ColorHexFormat      = "colorHexFormatWarning"
	DateTimeFormat      = "dateTimeFormatWarning"
	DateFormat          = "dateFormatWarning"
	TimeFormat          = "timeFormatWarning"
	EmailFormat         = "emailFormatWarning"
	Enum                = "enumWarning"
	TypeArrayMismatch   = "typeArrayMismatchWarning"
	TypeMismatch        = "typeMismatchWarning"
	MissingRequiredProp = "missingRequiredPropWarning"
	Const               = "constWarning"
	NotSchema           = "notSchemaWarning"
	OneOf               = "oneOfWarning"
	MultipleOf          = "multipleOfWarning"
	ExclusiveMinimum    = "exclusiveMinimumWarning"
	ExclusiveMaximum    = "exclusiveMaximumWarning"
	Minimum             = "minimumWarning"
	Maximum             = "maximumWarning"
	MinLength           = "minLengthWarning"
	MaxLength           = "maxLengthWarning"
	Pattern             = "patternWarning"
	URIEmpty            = "uriEmpty"
	URISchemeMissing    = "uriSchemeMissing"
	URIFormat           = "uriFormatWarning"
	AdditionalItems     = "additionalItemsWarning"
	RequiredItemMissing = "requiredItemMissingWarning"
	MinItems            = "minItemsWarning"
	MaxItems            = "maxItemsWarning"
	UniqueItems         = "uniqueItemsWarning"
	DisallowedExtraProp = "DisallowedExtraPropWarning"
	MaxProp             = "MaxPropWarning"
	MinProp             = "MinPropWarning"
	RequiredDependent   = "RequiredDependentPropWarning"
	InvalidRef          = "json.schema.invalidref"
	ProblemLoadingRef   = "json.schema.problemloadingref"
	NoContent           = "json.schema.nocontent"
	UnableToLoad        = "json.schema.unabletoload"
	InvalidFormat       = "json.schema.invalidFormat"
	DuplicateKey        = "yaml.duplicateKey"
	UnresolvedTag       = "yaml.unresolvedTag"
	DefaultValue        = "json.suggest.default"
	ArrayItem           = "json.suggest.arrayItem"
	PathExpectsNumber   = "schema.path.expectsNumber"
	PathExpectsString   = "schema.path.expectsString"
	PathMissing         = "schema.path.missing"
	SchemaModelineTwice = "yaml.modeline.duplicate"
)

var en = map[string]string{
	ColorHexFormat:      "Invalid color format. Use #RGB, #RGBA, #RRGGBB or #RRGGBBAA.",
	DateTimeFormat:      "String is not a RFC3339 date-time.",
	DateFormat:          "String is not a RFC3339 date.",
	TimeFormat:          "String is not a RFC3339 time.",
	EmailFormat:         "String is not an e-mail address.",
	Enum:                "Value is not accepted. Valid values: {0}.",
	TypeArrayMismatch:   "Incorrect type. Expected one of {0}.",
	TypeMismatch:        `Incorrect type. Expected "{0}".`,
	MissingRequiredProp: `Missing property "{0}".`,
	Const:               "Value must be {0}.",
	NotSchema:           "Matches a schema that is not allowed.",
	OneOf:               "Matches multiple schemas when only one must validate.",
	MultipleOf:          "Value is not divisible by {0}.",
	ExclusiveMinimum:    "Value is below the exclusive minimum of {0}.",
	ExclusiveMaximum:    "Value is above the exclusive maximum of {0}.",
	Minimum:             "Value is below the minimum of {0}.",
	Maximum:             "Value is above the maximum of {0}.",
	MinLength:           "String is shorter than the minimum length of {0}.",
	MaxLength:           "String is longer than the maximum length of {0}.",
	Pattern:             `String does not match the pattern of "{0}".`,
	URIEmpty:            "URI expected.",
	URISchemeMissing:    "URI with a scheme is expected.",
	URIFormat:           "String is not a URI: {0}",
	AdditionalItems:     "Array has too many items according to schema. Expected {0} or fewer.",
	RequiredItemMissing: "Array does not contain required item.",
	MinItems:            "Array has too few items. Expected {0} or more.",
	MaxItems:            "Array has too many items. Expected {0} or fewer.",
	UniqueItems:         "Array has duplicate items.",
	DisallowedExtraProp: "Property {0} is not allowed.",
	MaxProp:             "Object has more properties than limit of {0}.",
	MinProp:             "Object has fewer properties than the required number of {0}",
	RequiredDependent:   "Object is missing property {0} required by property {1}.",
	InvalidRef:          "$ref '{0}' in '{1}' can not be resolved.",
	ProblemLoadingRef:   "Problems loading reference '{0}': {1}",
	NoContent:           "Unable to load schema from '{0}': No content.",
	UnableToLoad:        "Unable to load schema from '{0}': {1}.",
	InvalidFormat:       "Unable to parse content from '{0}': {1}.",
	DuplicateKey:        "Map keys must be unique",
	UnresolvedTag:       "Unresolved tag: {0}",
	DefaultValue:        "Default value",
	ArrayItem:           "- (array item)",
	PathExpectsNumber:   "Expected a number after the array object",
	PathExpectsString:   "Expected a string after the object",
	PathMissing:         "Path segment {0} does not exist",
	SchemaModelineTwice: "Several $schema attributes have been found in the yaml-language-server modeline. The first one will be picked.",
}

var ja = map[string]string{
	ColorHexFormat:      "色の形式が不正です。#RGB、#RGBA、#RRGGBB、#RRGGBBAA のいずれかを使用してください。",
	DateTimeFormat:      "文字列が RFC3339 の日時ではありません。",
	DateFormat:          "文字列が RFC3339 の日付ではありません。",
	TimeFormat:          "文字列が RFC3339 の時刻ではありません。",
	EmailFormat:         "文字列がメールアドレスではありません。",
	Enum:                "値が許可されていません。有効な値: {0}。",
	TypeArrayMismatch:   "型が不正です。{0} のいずれかが必要です。",
	TypeMismatch:        "型が不正です。\"{0}\" が必要です。",
	MissingRequiredProp: "プロパティ \"{0}\" がありません。",
	Const:               "値は {0} でなければなりません。",
	NotSchema:           "許可されていないスキーマに一致します。",
	OneOf:               "1 つだけ一致すべきところ、複数のスキーマに一致します。",
	MultipleOf:          "値が {0} で割り切れません。",
	ExclusiveMinimum:    "値が排他的最小値 {0} を下回っています。",
	ExclusiveMaximum:    "値が排他的最大値 {0} を上回っています。",
	Minimum:             "値が最小値 {0} を下回っています。",
	Maximum:             "値が最大値 {0} を上回っています。",
	MinLength:           "文字列が最小長 {0} より短いです。",
	MaxLength:           "文字列が最大長 {0} より長いです。",
	Pattern:             "文字列がパターン \"{0}\" に一致しません。",
	URIEmpty:            "URI が必要です。",
	URISchemeMissing:    "スキームを含む URI が必要です。",
	URIFormat:           "文字列が URI ではありません: {0}",
	AdditionalItems:     "配列の要素が多すぎます。{0} 個以下にしてください。",
	RequiredItemMissing: "配列に必要な要素が含まれていません。",
	MinItems:            "配列の要素が少なすぎます。{0} 個以上必要です。",
	MaxItems:            "配列の要素が多すぎます。{0} 個以下にしてください。",
	UniqueItems:         "配列に重複した要素があります。",
	DisallowedExtraProp: "プロパティ {0} は許可されていません。",
	MaxProp:             "オブジェクトのプロパティ数が上限 {0} を超えています。",
	MinProp:             "オブジェクトのプロパティ数が必要数 {0} に足りません",
	RequiredDependent:   "プロパティ {1} が必要とするプロパティ {0} がありません。",
	InvalidRef:          "'{1}' 内の $ref '{0}' を解決できません。",
	ProblemLoadingRef:   "参照 '{0}' の読み込みに失敗しました: {1}",
	NoContent:           "'{0}' からスキーマを読み込めません: 内容がありません。",
	UnableToLoad:        "'{0}' からスキーマを読み込めません: {1}。",
	InvalidFormat:       "'{0}' の内容を解析できません: {1}。",
	DuplicateKey:        "マップのキーは一意でなければなりません",
	UnresolvedTag:       "未解決のタグ: {0}",
	DefaultValue:        "既定値",
	PathExpectsNumber:   "配列オブジェクトの後には数値が必要です",
	PathExpectsString:   "オブジェクトの後には文字列が必要です",
	PathMissing:         "パス要素 {0} が存在しません",
}

// Translator retrieves the message template for a key. ok is false when the
// translator has no entry, in which case the English catalog is used.
type Translator interface {
	Message(key string) (template string, ok bool)
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(key string) (string, bool) {
	if t.lang == "ja" {
		if m, ok := ja[key]; ok {
			return m, true
		}
	}
	m, ok := en[key]
	return m, ok
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T returns the localized message for key with args substituted. Unknown keys
// are returned as is.
func T(key string, args ...string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	tpl, ok := tr.Message(key)
	if !ok {
		if tpl, ok = en[key]; !ok {
			tpl = key
		}
	}
	return Format(tpl, args...)
}

// Format replaces {N} placeholders with args[N]. Placeholders without an
// argument are left untouched.
func Format(tpl string, args ...string) string {
	if len(args) == 0 || !strings.Contains(tpl, "{") {
		return tpl
	}
	var b strings.Builder
	for i := 0; i < len(tpl); i++ {
		if tpl[i] == '{' {
			if j := strings.IndexByte(tpl[i:], '}'); j > 1 {
				if n, err := strconv.Atoi(tpl[i+1 : i+j]); err == nil && n >= 0 && n < len(args) {
					b.WriteString(args[n])
					i += j
					continue
				}
			}
		}
		b.WriteByte(tpl[i])
	}
	return b.String()
}
