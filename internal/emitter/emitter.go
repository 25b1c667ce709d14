// Package emitter is the code-generation stage: it walks a module already
// decorated by internal/analyzer and lowered by internal/rewriter and
// prints GLSL source text, using an output-buffer/indent line writer in
// front of a tagged-union dispatch over declaration/statement/
// expression kind.
package emitter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"codeberg.org/saruga/shaderxc/internal/analyzer"
	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/diagnostic"
	"codeberg.org/saruga/shaderxc/internal/intrinsic"
	"codeberg.org/saruga/shaderxc/internal/types"
)

// Options controls how the emitter renders a module.
type Options struct {
	// TargetVersion is the GLSL core-profile version number (e.g. 330, 450).
	TargetVersion int
	// AllowExtensions permits `#extension` directives for intrinsics that
	// need a newer core version than TargetVersion; when false, such
	// intrinsics are emitted anyway but the emitter records a warning
	// instead of silently assuming the runtime supports them.
	AllowExtensions bool
	// PreserveComments is accepted for interface parity with the external
	// contract; this compiler has no parser/lexer collaborator to have
	// captured source comments in the first place, so it is a no-op here.
	PreserveComments bool
	// Prefix is prepended to every synthetic identifier the emitter
	// introduces (flattened struct-I/O globals, synthetic return temps).
	Prefix string
	// LineMarks emits a `#line` directive before each top-level declaration,
	// tracking the source range it was decorated from.
	LineMarks bool
}

func (o Options) targetVersion() int {
	if o.TargetVersion == 0 {
		return 450
	}
	return o.TargetVersion
}

func (o Options) prefix() string { return o.Prefix }

// BindingInfo names one emitted resource binding.
type BindingInfo struct {
	Name         string
	BindingIndex int
}

// EntryPointInfo names one emitted entry point's stage and (for compute)
// workgroup size.
type EntryPointInfo struct {
	Name          string
	Stage         string
	WorkgroupSize [3]int
}

// Statistics is an opt-in output record: every emitted texture binding,
// every emitted uniform-buffer binding, and every emitted entry point's
// stage/workgroup size, mirroring internal/reflect's reflection contract
// over HLSL's register-slot binding model.
type Statistics struct {
	TextureBindings       []BindingInfo
	UniformBufferBindings []BindingInfo
	EntryPoints           []EntryPointInfo
}

// emitter holds all per-compilation mutable state; a fresh one is created
// per Emit call, matching the analyzer's and rewriter's stateless-package
// convention.
type emitter struct {
	module   *ast.Module
	typeInfo *analyzer.TypeInfo
	options  Options

	out    strings.Builder
	indent int

	diags      *diagnostic.DiagnosticList
	extensions map[string]bool
	stats      *Statistics

	// remap substitutes a flattened entry-point parameter reference with
	// the GLSL identifier (builtin or flattened global) that replaces it;
	// populated only while printing the current entry point's body.
	remap map[ast.Ref]string
	// fieldRemap substitutes param-ref+field-name with a GLSL identifier,
	// for struct-shaped entry-point parameters.
	fieldRemap map[ast.Ref]map[string]string

	// entryReturnRemap/entryReturnIsStruct/entryReturnType describe how the
	// current entry point's ReturnStmt nodes must be lowered: a struct
	// return flattens field-by-field (entryReturnRemap keyed by field
	// name), a semantic-tagged scalar/vector return assigns through the
	// single "" key, and a function with neither simply returns void.
	entryReturnRemap    map[string]string
	entryReturnIsStruct bool
	entryReturnType     types.Type

	tempCounter int
	fatal       error
}

// Emit renders module as GLSL source text. typeInfo comes from the
// preceding analyzer.Analyze call and module must already have passed
// through rewriter.Rewrite. It returns the rendered source (valid only when
// err is nil), any opt-in Statistics, and the diagnostics accumulated along
// the way (warnings may be present even on success; the emitter treats its
// own first error as fatal for the pass).
func Emit(module *ast.Module, typeInfo *analyzer.TypeInfo, options Options) (string, *Statistics, *diagnostic.DiagnosticList, error) {
	e := &emitter{
		module:     module,
		typeInfo:   typeInfo,
		options:    options,
		diags:      diagnostic.NewDiagnosticList(module.Source),
		extensions: make(map[string]bool),
		stats:      &Statistics{},
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				e.fatal = fmt.Errorf("%w: %v", ast.ErrInternal, r)
			}
		}()
		e.run()
	}()

	if e.fatal != nil {
		return "", nil, e.diags, e.fatal
	}
	return e.out.String(), e.stats, e.diags, nil
}

func (e *emitter) run() {
	e.scanExtensions()
	e.writeHeader()

	for _, d := range e.module.Declarations {
		if e.fatal != nil {
			return
		}
		if !d.Flags().IsReachable {
			continue
		}
		e.emitDecl(d)
	}
}

// scanExtensions walks the reachability pass's recorded UsedIntrinsics set
// against the intrinsic->extension table before any body is printed, so
// the header is complete before the first declaration line.
func (e *emitter) scanExtensions() {
	target := e.options.targetVersion()
	names := make([]string, 0, len(e.module.UsedIntrinsics))
	for name, used := range e.module.UsedIntrinsics {
		if used {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		req, ok := intrinsicExtensions[name]
		if !ok || target >= req.minVersion {
			continue
		}
		if e.options.AllowExtensions {
			e.extensions[req.extension] = true
		} else {
			e.diags.AddWarning(0, diagnostic.CategorySemanticMapping,
				fmt.Sprintf("%q requires GLSL >= %d or allow_extensions; emitting against target version %d", name, req.minVersion, target))
		}
	}
}

func (e *emitter) writeHeader() {
	target := e.options.targetVersion()
	if target >= 150 {
		e.writeLine(fmt.Sprintf("#version %d core", target))
	} else {
		e.writeLine(fmt.Sprintf("#version %d", target))
	}
	exts := make([]string, 0, len(e.extensions))
	for ext := range e.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		e.writeLine(fmt.Sprintf("#extension %s : enable", ext))
	}
	e.out.WriteByte('\n')
}

func (e *emitter) writeLine(s string) {
	e.out.WriteString(strings.Repeat("\t", e.indent))
	e.out.WriteString(s)
	e.out.WriteByte('\n')
}

func (e *emitter) write(s string) { e.out.WriteString(s) }

func (e *emitter) fail(format string, args ...any) {
	if e.fatal == nil {
		e.fatal = fmt.Errorf(format, args...)
	}
}

func (e *emitter) nextTemp(hint string) string {
	e.tempCounter++
	return fmt.Sprintf("%s_%s%d", e.options.prefix(), hint, e.tempCounter)
}

// emitDecl dispatches on declaration kind, the same tagged-union dispatch
// idiom used throughout this module's passes.
func (e *emitter) emitDecl(d ast.Decl) {
	if e.options.LineMarks {
		e.writeLine(fmt.Sprintf("#line %d", d.Range().Start.Line))
	}
	switch v := d.(type) {
	case *ast.VarDecl:
		e.emitVarDecl(v)
	case *ast.BufferDecl:
		e.emitBufferDecl(v)
	case *ast.SamplerDecl:
		// Dropped by design: HLSL's separate sampler-state object has no
		// standalone GLSL declaration under the combined-sampler
		// simplification this emitter applies (see DESIGN.md).
	case *ast.StructDecl:
		e.emitStructDecl(v)
	case *ast.AliasDecl:
		// No GLSL output: every use site resolves through
		// types.Type.Aliased() before glslTypeName renders it, so the
		// alias name itself never needs a target-side declaration.
	case *ast.FunctionDecl:
		e.emitFunctionDecl(v)
	default:
		e.fail("%w: unhandled declaration kind %T", ast.ErrInternal, d)
	}
}

func (e *emitter) registerSlot(reg *ast.Register) int {
	if reg == nil || len(reg.Slot) < 2 {
		return 0
	}
	n, err := strconv.Atoi(reg.Slot[1:])
	if err != nil {
		return 0
	}
	return n
}

// resolveType rebuilds a types.Type from a surface ast.Type, mirroring
// analyzer.resolveSurfaceType/rewriter.resolveAstType's pattern: the three
// passes each run independently and have no shared collaborator to resolve
// surface syntax through, so each keeps its own narrow copy.
func (e *emitter) resolveType(t ast.Type) types.Type {
	switch v := t.(type) {
	case *ast.IdentType:
		if bt := parseBuiltinTypeName(v.Name); bt != nil {
			return bt
		}
		if st, ok := e.typeInfo.Structs[v.Name]; ok {
			return *st
		}
		if al, ok := e.typeInfo.Aliases[v.Name]; ok {
			return types.Alias{Name: v.Name, Elem: al}
		}
		return nil
	case *ast.ArrayType:
		elem := e.resolveType(v.ElemType)
		if elem == nil {
			return nil
		}
		dims := make([]int, len(v.Dims))
		for i, d := range v.Dims {
			dims[i] = literalDimSize(d)
		}
		return types.Array{Elem: elem, Dims: dims}
	case *ast.BufferType:
		var elem types.Type
		if v.ElemType != nil {
			elem = e.resolveType(v.ElemType)
		}
		return types.Buffer{Kind: types.BufferKind(v.Kind), Elem: elem}
	case *ast.SamplerTypeSpec:
		return types.Sampler{Dim: types.SamplerDim(v.Dim)}
	default:
		return nil
	}
}

func literalDimSize(d ast.ArrayDim) int {
	lit, ok := d.Size.(*ast.LiteralExpr)
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(lit.Value)
	return n
}

var scalarPrefixes = []struct {
	prefix string
	kind   types.ScalarKind
}{
	{"bool", types.Bool}, {"int", types.Int}, {"uint", types.UInt},
	{"double", types.Double}, {"float", types.Float},
}

func parseBuiltinTypeName(name string) types.Type {
	for _, sp := range scalarPrefixes {
		if !strings.HasPrefix(name, sp.prefix) {
			continue
		}
		rest := name[len(sp.prefix):]
		if rest == "" {
			return types.Scalar(sp.kind)
		}
		if x := strings.IndexByte(rest, 'x'); x >= 0 {
			var rows, cols int
			if _, err := fmt.Sscanf(rest, "%dx%d", &rows, &cols); err == nil {
				return types.Mat(sp.kind, rows, cols)
			}
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n >= 2 && n <= 4 {
			return types.Vec(sp.kind, n)
		}
	}
	if name == "void" {
		return types.Void
	}
	return nil
}

// typeOf returns an expression's static type, preferring the cached value
// left by the analyzer/rewriter and otherwise deriving it directly — the
// emitter's own narrow get_type_denoter, needed for the handful of
// statement-position lowerings (clip, sincos) that must inspect an
// argument's shape to choose their GLSL spelling.
func (e *emitter) typeOf(expr ast.Expr) (types.Type, bool) {
	if expr == nil {
		return nil, false
	}
	if cached := expr.CachedType(); cached != nil {
		if t, ok := cached.(types.Type); ok {
			return t, true
		}
	}
	switch v := expr.(type) {
	case *ast.BracketExpr:
		return e.typeOf(v.Inner)
	case *ast.CastExpr:
		t := e.resolveType(v.Target)
		return t, t != nil
	case *ast.ObjectExpr:
		if v.SymbolRef.IsValid() {
			if t, ok := e.typeInfo.SymbolTypes[v.SymbolRef]; ok {
				return t, true
			}
		}
	case *ast.CallExpr:
		ad, ok := intrinsic.ByTag(v.Intrinsic)
		if !ok {
			return nil, false
		}
		args := make([]types.Type, len(v.Args))
		for i, a := range v.Args {
			at, aok := e.typeOf(a)
			if !aok {
				return nil, false
			}
			args[i] = at
		}
		return ad.ReturnType(args)
	case *ast.BinaryExpr:
		lt, lok := e.typeOf(v.Lhs)
		rt, rok := e.typeOf(v.Rhs)
		if lok && rok {
			return types.CommonType(lt, rt)
		}
	case *ast.UnaryExpr:
		return e.typeOf(v.Operand)
	}
	return nil, false
}
