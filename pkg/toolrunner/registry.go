// Package toolrunner is the isolated child process entrypoint: it is the
// only package in the module that imports pkg/toolsimpl, the concrete
// (and often dependency-heavy) tool implementations. cmd/genesis wires
// this package's Run function behind the hidden tool-exec subcommand; no
// other part of the server imports it.
package toolrunner

import (
	"github.com/pr0ta9/Genesis-sub000/pkg/toolsimpl/denoise"
	"github.com/pr0ta9/Genesis-sub000/pkg/toolsimpl/erase"
	"github.com/pr0ta9/Genesis-sub000/pkg/toolsimpl/inpaint"
	"github.com/pr0ta9/Genesis-sub000/pkg/toolsimpl/ocr"
	"github.com/pr0ta9/Genesis-sub000/pkg/toolsimpl/translate"
)

// toolFunc is the shape every toolsimpl function is adapted to: a single
// map of resolved argument values in, a single result map out.
type toolFunc func(args map[string]any) (map[string]any, error)

// functions is the hardcoded name -> implementation table. This is the
// only place toolsimpl packages are invoked; pkg/registry never imports
// them, it only parses their source for //pathtool directives.
var functions = map[string]toolFunc{
	"image_ocr": func(args map[string]any) (map[string]any, error) {
		path, _ := args["input_path"].(string)
		lang, _ := args["lang"].(string)
		return ocr.OCR(path, lang)
	},
	"translate": func(args map[string]any) (map[string]any, error) {
		data, _ := args["text_data"].(map[string]any)
		target, _ := args["target_lang"].(string)
		return translate.Translate(data, target)
	},
	"erase": func(args map[string]any) (map[string]any, error) {
		path, _ := args["input_path"].(string)
		region, _ := args["region"].(string)
		return erase.Erase(path, region)
	},
	"inpaint": func(args map[string]any) (map[string]any, error) {
		path, _ := args["input_path"].(string)
		return inpaint.Inpaint(path)
	},
	"denoise": func(args map[string]any) (map[string]any, error) {
		path, _ := args["input_path"].(string)
		strength, _ := args["strength"].(string)
		return denoise.Denoise(path, strength)
	},
}

func lookup(functionName string) (toolFunc, bool) {
	fn, ok := functions[functionName]
	return fn, ok
}
