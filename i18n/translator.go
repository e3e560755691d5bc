package i18n

import "sync"

// Translator retrieves localized messages for issue codes and error kinds.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var en = map[string]string{
	// kinds
	"success":               "success",
	"invalid_argument":      "invalid argument",
	"malformed_schema_text": "malformed schema text",
	"malformed_value_text":  "malformed value text",
	"schema_violation":      "schema validation failed",
	"encode_failure":        "serialization failed",
	"decode_failure":        "deserialization failed",
	"file_not_found":        "file not found",
	"file_read_mismatch":    "file read size mismatch",
	"unknown":               "unknown error",
	// codes
	"closed":           "engine is closed",
	"parse_error":      "parse error",
	"schema_syntax":    "schema syntax error",
	"invalid_schema":   "invalid schema keyword value",
	"duplicate_key":    "duplicate key",
	"max_depth":        "maximum nesting depth exceeded",
	"invalid_type":     "invalid type",
	"required":         "required property missing",
	"unsupported_type": "unsupported type tag",
	"too_large":        "length does not fit in 32 bits",
	"key_id_mismatch":  "stream key id does not match schema",
	"truncated":        "truncated input",
	"unknown_tag":      "unknown type tag",
	"invalid_payload":  "invalid payload",
	"trailing_bytes":   "trailing bytes after value",
	"write_failed":     "writing the stream failed",
}

var ja = map[string]string{
	"success":               "成功",
	"invalid_argument":      "引数が不正です",
	"malformed_schema_text": "スキーマの構文が不正です",
	"malformed_value_text":  "値の構文が不正です",
	"schema_violation":      "スキーマ検証に失敗しました",
	"encode_failure":        "シリアライズに失敗しました",
	"decode_failure":        "デシリアライズに失敗しました",
	"file_not_found":        "ファイルが見つかりません",
	"file_read_mismatch":    "ファイルの読み込みサイズが一致しません",
	"unknown":               "不明なエラー",
	"closed":                "エンジンは終了しています",
	"parse_error":           "解析エラー",
	"schema_syntax":         "スキーマ構文エラー",
	"invalid_schema":        "スキーマのキーワード値が不正です",
	"duplicate_key":         "キーが重複しています",
	"max_depth":             "ネストが深すぎます",
	"invalid_type":          "型が不正です",
	"required":              "必須プロパティが不足しています",
	"unsupported_type":      "未対応の型タグです",
	"too_large":             "長さが32ビットに収まりません",
	"key_id_mismatch":       "ストリームのキーIDがスキーマと一致しません",
	"truncated":             "打ち切られました",
	"unknown_tag":           "未知の型タグです",
	"invalid_payload":       "ペイロードが不正です",
	"trailing_bytes":        "値の後に余分なバイトがあります",
	"write_failed":          "ストリームの書き込みに失敗しました",
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	dict := en
	if t.lang == "ja" {
		dict = ja
	}
	if msg, ok := dict[code]; ok {
		return msg
	}
	if msg, ok := en[code]; ok {
		return msg
	}
	return code
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
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
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

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
