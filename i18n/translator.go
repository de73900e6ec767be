package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg := t.lookup(code)
	if len(data) == 0 {
		return msg
	}
	// Placeholders use the {name} form.
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

func (t dictTranslator) lookup(code string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "schema_parse":
			return "スキーマを解析できません"
		case "missing_attribute":
			return "必須属性 {attribute} がありません"
		case "duplicate_name":
			return "名前 {name} が重複しています"
		case "unknown_type":
			return "未知の型 {type} です"
		case "invalid_schema":
			return "スキーマが不正です"
		case "duplicate_key":
			return "キーが重複しています"
		case "parse_error":
			return "解析エラー"
		case "incompatible":
			return "リーダースキーマはライタースキーマを読めません"
		case "invalid_type":
			return "型が不正です"
		case "invalid_enum":
			return "列挙値が不正です"
		case "no_union_branch":
			return "一致するユニオン分岐がありません"
		case "truncated":
			return "入力が途中で終わりました"
		case "invalid_utf8":
			return "UTF-8 として不正な文字列です"
		case "overflow":
			return "数値が範囲外です"
		case "too_big":
			return "長さが上限を超えています"
		}
	default: // "en"
		switch code {
		case "schema_parse":
			return "cannot parse schema"
		case "missing_attribute":
			return "missing required attribute {attribute}"
		case "duplicate_name":
			return "duplicate schema name {name}"
		case "unknown_type":
			return "unknown type {type}"
		case "invalid_schema":
			return "invalid schema"
		case "duplicate_key":
			return "duplicate key"
		case "parse_error":
			return "parse error"
		case "incompatible":
			return "reader schema cannot read writer schema"
		case "invalid_type":
			return "invalid type"
		case "invalid_enum":
			return "invalid enum symbol"
		case "no_union_branch":
			return "no union branch matches value"
		case "truncated":
			return "truncated input"
		case "invalid_utf8":
			return "invalid UTF-8 string"
		case "overflow":
			return "numeric overflow"
		case "too_big":
			return "length exceeds limit"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
