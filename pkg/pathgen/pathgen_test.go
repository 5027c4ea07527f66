package pathgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

type fakeRegistry struct {
	byInput map[workflow.Type][]toolspec.ToolMetadata
}

func (f *fakeRegistry) ListByInputType(tag workflow.Type) []toolspec.ToolMetadata {
	return f.byInput[tag]
}

func tool(name string, in, out workflow.Type) toolspec.ToolMetadata {
	return toolspec.ToolMetadata{
		Name:         name,
		InputKey:     "in",
		OutputParams: []string{"return"},
		InputParams:  []string{"in"},
		ParamTypes:   map[string]string{"in": string(in), "return": string(out)},
	}
}

func TestFindAllPathsSingleTool(t *testing.T) {
	ocr := tool("image_ocr", workflow.ImageFile, workflow.StructuredData)
	reg := &fakeRegistry{byInput: map[workflow.Type][]toolspec.ToolMetadata{
		workflow.ImageFile: {ocr},
	}}
	g := New(reg)
	paths := g.FindAllPaths(workflow.ImageFile, workflow.StructuredData)
	require.Len(t, paths, 1)
	assert.Equal(t, []toolspec.ToolMetadata{ocr}, paths[0])
}

func TestFindAllPathsChained(t *testing.T) {
	ocr := tool("image_ocr", workflow.ImageFile, workflow.StructuredData)
	translate := tool("translate", workflow.StructuredData, workflow.StructuredData)
	reg := &fakeRegistry{byInput: map[workflow.Type][]toolspec.ToolMetadata{
		workflow.ImageFile:      {ocr},
		workflow.StructuredData: {translate},
	}}
	g := New(reg)
	paths := g.FindAllPaths(workflow.ImageFile, workflow.StructuredData)
	// [ocr] (length 1, target reached immediately) must sort before
	// [ocr, translate] (length 2).
	require.Len(t, paths, 2)
	assert.Len(t, paths[0], 1)
	assert.Len(t, paths[1], 2)
	assert.Equal(t, "image_ocr", paths[1][0].Name)
	assert.Equal(t, "translate", paths[1][1].Name)
}

func TestFindAllPathsSameTypeReturnsNoEmptyPath(t *testing.T) {
	reg := &fakeRegistry{byInput: map[workflow.Type][]toolspec.ToolMetadata{}}
	g := New(reg)
	paths := g.FindAllPaths(workflow.Text, workflow.Text)
	assert.Empty(t, paths)
}

func TestFindAllPathsNoToolRepeatsInOnePath(t *testing.T) {
	loop := tool("loop", workflow.Text, workflow.Text)
	reg := &fakeRegistry{byInput: map[workflow.Type][]toolspec.ToolMetadata{
		workflow.Text: {loop},
	}}
	g := NewWithDepth(reg, 4)
	paths := g.FindAllPaths(workflow.Text, workflow.StructuredData)
	assert.Empty(t, paths, "loop never reaches StructuredData and must not repeat itself in a path")
}

func TestMaxDepthBoundsSearch(t *testing.T) {
	a := tool("a", workflow.Text, workflow.AudioFile)
	b := tool("b", workflow.AudioFile, workflow.VideoFile)
	c := tool("c", workflow.VideoFile, workflow.ImageFile)
	reg := &fakeRegistry{byInput: map[workflow.Type][]toolspec.ToolMetadata{
		workflow.Text:      {a},
		workflow.AudioFile:  {b},
		workflow.VideoFile: {c},
	}}
	g := NewWithDepth(reg, 2)
	paths := g.FindAllPaths(workflow.Text, workflow.ImageFile)
	assert.Empty(t, paths, "target requires depth 3 but generator is bounded to 2")
}
