// Package translate implements the translate tool: chains from the
// output of image_ocr (or any StructuredData producer) to a translated
// StructuredData result.
package translate

import "strings"

var dictionary = map[string]string{
	"こんにちは": "hello",
	"ありがとう": "thank you",
	"さようなら": "goodbye",
}

//pathtool:name=translate input=text_data output=return requires=target_lang:Text
// translates the "text" field of text_data into target_lang using a small
// built-in dictionary; unknown phrases pass through unchanged so the
// pipeline always produces a result rather than failing on vocabulary
// gaps.
func Translate(text_data map[string]any, target_lang string) (map[string]any, error) {
	if target_lang == "" {
		target_lang = "en"
	}

	source, _ := text_data["text"].(string)
	translated := source
	if known, ok := dictionary[strings.TrimSpace(source)]; ok {
		translated = known
	}

	return map[string]any{
		"return": map[string]any{
			"text":        translated,
			"source_text": source,
			"target_lang": target_lang,
		},
	}, nil
}
