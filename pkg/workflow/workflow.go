// Package workflow defines the closed set of semantic input/output tags
// that the tool registry, path generator, and agent graph all key off of.
package workflow

import "fmt"

// Type is a closed enum of semantic input/output tags used to chain tools
// into pipelines. Every tool's input_key parameter and output key must
// resolve to one of these.
type Type string

const (
	Text           Type = "Text"
	AudioFile      Type = "AudioFile"
	ImageFile      Type = "ImageFile"
	VideoFile      Type = "VideoFile"
	TextFile       Type = "TextFile"
	DocumentFile   Type = "DocumentFile"
	StructuredData Type = "StructuredData"
)

// All lists every recognized tag, in declaration order. Useful for
// validation and for stable iteration when building prompts.
var All = []Type{Text, AudioFile, ImageFile, VideoFile, TextFile, DocumentFile, StructuredData}

// Valid reports whether t is one of the closed set of tags.
func (t Type) Valid() bool {
	switch t {
	case Text, AudioFile, ImageFile, VideoFile, TextFile, DocumentFile, StructuredData:
		return true
	default:
		return false
	}
}

// ParseType maps a symbolic type name to a Type, returning an error if the
// name is not one of the closed set. Used where resolution must succeed
// (input_key parameters, output keys); callers that tolerate unresolved
// names (e.g. non-routing parameters) should use LookupType instead.
func ParseType(name string) (Type, error) {
	t, ok := LookupType(name)
	if !ok {
		return "", fmt.Errorf("workflow: unrecognized type tag %q", name)
	}
	return t, nil
}

// LookupType maps a symbolic type name (as it would appear as a parameter
// annotation in a tool's source) to a Type. The lookup table is the single
// hard-coded point where tool-source symbols become WorkflowType tags; the
// Tool Registry must not grow this table implicitly from unknown names.
func LookupType(name string) (Type, bool) {
	switch name {
	case "Text", "text", "str", "string":
		return Text, true
	case "AudioFile", "Audio", "audio":
		return AudioFile, true
	case "ImageFile", "Image", "image":
		return ImageFile, true
	case "VideoFile", "Video", "video":
		return VideoFile, true
	case "TextFile":
		return TextFile, true
	case "DocumentFile", "Document", "document":
		return DocumentFile, true
	case "StructuredData", "dict", "Dict", "map[string]interface{}":
		return StructuredData, true
	default:
		return "", false
	}
}

// NonSerializable is the sentinel set of symbolic type names that denote
// rich objects (LLM clients and similar) which cannot cross a process
// boundary through JSON. The executor passes null for parameters whose
// declared type is in this set; tools are responsible for reconstructing
// a sensible default when invoked with a null value for them.
var NonSerializable = map[string]bool{
	"BaseChatModel": true,
	"LLMClient":     true,
	"ChatModel":     true,
}

// IsNonSerializable reports whether a symbolic type name denotes a
// non-serializable parameter per the sentinel set above.
func IsNonSerializable(name string) bool {
	return NonSerializable[name]
}
