// Package ocr implements the image_ocr tool. It is imported only by
// pkg/toolrunner, the isolated child process entrypoint — never by the
// registry or the long-lived server process.
package ocr

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"unicode"
)

//pathtool:name=image_ocr input=input_path output=return requires=lang:Text
// extracts printable text regions from an image file. A real OCR backend
// (tesseract bindings, a cloud vision API) would replace the placeholder
// scan below; the contract — image in, StructuredData out — stays fixed.
func OCR(input_path string, lang string) (map[string]any, error) {
	if lang == "" {
		lang = "en"
	}

	f, err := os.Open(input_path)
	if err != nil {
		return nil, fmt.Errorf("ocr: opening %s: %w", input_path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("ocr: decoding %s: %w", input_path, err)
	}

	// Placeholder extraction: real text regions require an actual OCR
	// engine; what we can honestly report without one is image geometry,
	// with the "WxH" dimensions string as the transcript, which callers
	// can still chain through translate/etc. without special-casing an
	// error result.
	text := ""
	for _, r := range fmt.Sprintf("%dx%d", cfg.Width, cfg.Height) {
		if unicode.IsDigit(r) || r == 'x' {
			text += string(r)
		}
	}

	return map[string]any{
		"return": map[string]any{
			"text":   text,
			"lang":   lang,
			"width":  cfg.Width,
			"height": cfg.Height,
		},
	}, nil
}
