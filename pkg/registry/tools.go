package registry

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

// directive is the parsed form of a "//pathtool:" doc-comment line.
// Go has no runtime decorators, so the registry recovers the same
// declaration-without-import property by reading this line straight out
// of the AST rather than evaluating any code.
type directive struct {
	name           string
	input          string
	output         string
	requires       []string // "name:Type" pairs
	outputKeyTypes []string // "key:Type" pairs, for mapping-returning tools
}

const directivePrefix = "pathtool:"

// ToolRegistry discovers ToolMetadata by source-parsing Go files under a
// tools directory, without importing any of them. It has no operation that
// invokes a tool; the name -> function table lives in pkg/toolrunner and
// is used only inside the isolated child process.
type ToolRegistry struct {
	*BaseRegistry[toolspec.ToolMetadata]
}

// NewToolRegistry builds an empty registry. Call Register to populate it.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{BaseRegistry: NewBaseRegistry[toolspec.ToolMetadata]()}
}

// Register scans directory recursively for Go source files declaring
// pathtool-annotated functions and registers each exactly once. Files
// whose base name starts with an underscore are skipped, matching the
// registry's skip convention for non-tool helper files. Duplicate tool
// names across files are a fatal registration error.
func (r *ToolRegistry) Register(directory string) error {
	return filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, "_") || !strings.HasSuffix(base, ".go") || strings.HasSuffix(base, "_test.go") {
			return nil
		}
		metas, err := parseToolFile(path)
		if err != nil {
			return fmt.Errorf("registry: parsing %s: %w", path, err)
		}
		for _, m := range metas {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("registry: %w", err)
			}
			if err := r.BaseRegistry.Register(m.Name, m); err != nil {
				return fmt.Errorf("registry: %w", err)
			}
		}
		return nil
	})
}

// ListByInputType returns every registered tool whose input_key resolves
// to the given WorkflowType tag.
func (r *ToolRegistry) ListByInputType(tag workflow.Type) []toolspec.ToolMetadata {
	out := make([]toolspec.ToolMetadata, 0)
	for _, m := range r.List() {
		t, err := m.InputType()
		if err == nil && t == tag {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// parseToolFile parses one Go source file and extracts ToolMetadata from
// every function bearing a pathtool directive in its doc comment.
func parseToolFile(path string) ([]toolspec.ToolMetadata, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	moduleRef := modulePath(path)

	var out []toolspec.ToolMetadata
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		dir, found := extractDirective(fn.Doc)
		if !found {
			continue
		}
		meta, err := buildMetadata(fn, dir, moduleRef)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

// modulePath derives an opaque module reference from a file path: the
// package directory relative form the child process re-resolves via
// ResolveFunction. The core never interprets this string beyond passing
// it through.
func modulePath(path string) string {
	dir := filepath.Dir(path)
	return filepath.ToSlash(dir)
}

func extractDirective(doc *ast.CommentGroup) (directive, bool) {
	for _, c := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if !strings.HasPrefix(text, directivePrefix) {
			continue
		}
		return parseDirectiveLine(strings.TrimPrefix(text, directivePrefix)), true
	}
	return directive{}, false
}

// parseDirectiveLine parses "name=image_ocr input=image_path output=return
// requires=lang:Text output_key_types=caption:Text,boxes:StructuredData"
// into a directive.
func parseDirectiveLine(s string) directive {
	var d directive
	for _, field := range splitFields(s) {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch key {
		case "name":
			d.name = val
		case "input":
			d.input = val
		case "output":
			d.output = val
		case "requires":
			d.requires = splitCSV(val)
		case "output_key_types":
			d.outputKeyTypes = splitCSV(val)
		}
	}
	return d
}

func splitFields(s string) []string {
	return strings.Fields(s)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// buildMetadata turns a function declaration plus its parsed directive
// into a ToolMetadata: parameter names/annotations come from the AST,
// everything else from the directive's keyword arguments.
func buildMetadata(fn *ast.FuncDecl, dir directive, moduleRef string) (toolspec.ToolMetadata, error) {
	name := dir.name
	if name == "" {
		name = fn.Name.Name
	}

	meta := toolspec.ToolMetadata{
		Name:          name,
		Description:   docDescription(fn.Doc),
		InputKey:      dir.input,
		OutputKey:     defaultString(dir.output, "return"),
		ParamTypes:    map[string]string{},
		DefaultParams: map[string]any{},
		ModuleRef:     moduleRef + "#" + fn.Name.Name,
	}

	if fn.Type.Params != nil {
		for _, field := range fn.Type.Params.List {
			typeName := exprTypeName(field.Type)
			names := field.Names
			if len(names) == 0 {
				// Unnamed parameter; skip, it cannot be addressed by
				// name in param_values.
				continue
			}
			for _, n := range names {
				meta.InputParams = append(meta.InputParams, n.Name)
				meta.ParamTypes[n.Name] = typeName
			}
		}
	}

	if meta.InputKey == "" && len(meta.InputParams) > 0 {
		meta.InputKey = meta.InputParams[0]
	}
	if meta.InputKey == "" {
		return meta, fmt.Errorf("tool %q has no input_key and no parameters", meta.Name)
	}
	if _, ok := meta.ParamTypes[meta.InputKey]; !ok {
		return meta, fmt.Errorf("tool %q: input_key %q has no matching parameter annotation", meta.Name, meta.InputKey)
	}
	if _, err := workflow.ParseType(meta.ParamTypes[meta.InputKey]); err != nil {
		return meta, fmt.Errorf("tool %q: input_key %q annotation %q is not a recognized workflow type: %w", meta.Name, meta.InputKey, meta.ParamTypes[meta.InputKey], err)
	}

	if meta.OutputKey == "return" {
		meta.OutputParams = []string{"return"}
		retType, err := returnTypeName(fn)
		if err != nil {
			return meta, fmt.Errorf("tool %q: %w", meta.Name, err)
		}
		meta.ParamTypes["return"] = retType
		if _, err := workflow.ParseType(retType); err != nil {
			return meta, fmt.Errorf("tool %q: return annotation %q is not a recognized workflow type: %w", meta.Name, retType, err)
		}
	} else {
		meta.OutputParams = []string{meta.OutputKey}
		for _, kv := range dir.outputKeyTypes {
			parts := strings.SplitN(kv, ":", 2)
			if len(parts) != 2 {
				continue
			}
			meta.ParamTypes["output:"+parts[0]] = parts[1]
		}
		if _, ok := meta.ParamTypes["output:"+meta.OutputKey]; !ok {
			return meta, fmt.Errorf("tool %q: output key %q has no output_key_types annotation", meta.Name, meta.OutputKey)
		}
	}

	for _, req := range dir.requires {
		parts := strings.SplitN(req, ":", 2)
		if len(parts) != 2 {
			return meta, fmt.Errorf("tool %q: malformed requires entry %q", meta.Name, req)
		}
		pname, ptype := parts[0], parts[1]
		if !containsStr(meta.InputParams, pname) {
			return meta, fmt.Errorf("tool %q: requires entry %q has no matching function parameter", meta.Name, pname)
		}
		t, err := workflow.ParseType(ptype)
		if err != nil {
			// A requires type outside the WorkflowType table is accepted,
			// and left out of RequiredInputs, only when the parameter's
			// own annotation is in the non-serializable sentinel set;
			// any other unrecognized type fails registration.
			if workflow.IsNonSerializable(meta.ParamTypes[pname]) {
				continue
			}
			return meta, fmt.Errorf("tool %q: requires entry %q type %q: %w", meta.Name, pname, ptype, err)
		}
		meta.RequiredInputs = append(meta.RequiredInputs, toolspec.RequiredInput{Name: pname, Type: t})
	}

	if fn.Body != nil {
		meta.DefaultParams = extractDefaults(fn, meta.InputParams)
	}

	return meta, nil
}

// extractDefaults looks for a guard idiom at the top of the function body
// of the shape:
//
//	if lang == "" { lang = "en" }
//
// and records the literal as that parameter's default. This mirrors how
// the teacher's source-parse based tool declarations recover defaults
// without evaluating the function.
func extractDefaults(fn *ast.FuncDecl, params []string) map[string]any {
	defaults := map[string]any{}
	paramSet := map[string]bool{}
	for _, p := range params {
		paramSet[p] = true
	}
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		ifStmt, ok := n.(*ast.IfStmt)
		if !ok {
			return true
		}
		bin, ok := ifStmt.Cond.(*ast.BinaryExpr)
		if !ok || bin.Op != token.EQL {
			return true
		}
		ident, ok := bin.X.(*ast.Ident)
		if !ok || !paramSet[ident.Name] {
			return true
		}
		lit, ok := bin.Y.(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		if len(ifStmt.Body.List) != 1 {
			return true
		}
		assign, ok := ifStmt.Body.List[0].(*ast.AssignStmt)
		if !ok || len(assign.Rhs) != 1 {
			return true
		}
		valueLit, ok := assign.Rhs[0].(*ast.BasicLit)
		if !ok || valueLit.Kind != token.STRING {
			return true
		}
		if unq, err := strconv.Unquote(valueLit.Value); err == nil {
			defaults[ident.Name] = unq
		}
		return true
	})
	return defaults
}

func docDescription(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	var lines []string
	for _, c := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if strings.HasPrefix(text, directivePrefix) {
			continue
		}
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, " ")
}

func exprTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return exprTypeName(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return exprTypeName(t.X)
	case *ast.MapType:
		return "map[" + exprTypeName(t.Key) + "]" + exprTypeName(t.Value)
	case *ast.InterfaceType:
		return "interface{}"
	default:
		return fmt.Sprintf("%T", expr)
	}
}

func returnTypeName(fn *ast.FuncDecl) (string, error) {
	if fn.Type.Results == nil || len(fn.Type.Results.List) == 0 {
		return "", fmt.Errorf("no return values to annotate as output")
	}
	// By convention the tool's declared output is the first return value;
	// the second, if any, is the trailing error.
	first := fn.Type.Results.List[0]
	return exprTypeName(first.Type), nil
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func containsStr(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// ResolveFunction is deliberately not implemented in this package: the
// only code path permitted to turn a tool into an invocable function is
// pkg/toolrunner, running inside the isolated child process. See
// pkg/toolrunner's functions table and its lookup helper.
