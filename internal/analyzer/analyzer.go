// Package analyzer implements the decoration pass: name binding, type
// inference, overload resolution, implicit-cast validation, constant
// evaluation, and reachability/control-path marking over a parsed Module.
// It runs a five-phase Options/Result pipeline, with the symbol-table
// plumbing (OpenScope/CloseScope/Register/Fetch, and the "did you mean X?"
// suggestion on an undeclared identifier). The reachability sub-pass runs
// a dead-code-elimination walk, extended to also collect the entry
// point's transitively-used intrinsic set.
package analyzer

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/diagnostic"
	"codeberg.org/saruga/shaderxc/internal/intrinsic"
	"codeberg.org/saruga/shaderxc/internal/types"
)

// Options controls analysis behavior.
type Options struct {
	// StrictMode escalates every warning to an error.
	StrictMode bool
	// DiagnosticFilters is stored with the options (nil is replaced by an
	// empty filter); Analyze does not consult it, so every diagnostic is
	// reported.
	DiagnosticFilters *diagnostic.DiagnosticFilter
	// TypeCacheSize bounds the memoized get_type_denoter LRU; 0 selects
	// a sane default.
	TypeCacheSize int
}

// TypeInfo carries the decorated type information a caller (emitter,
// reflector, tooling) needs after a successful Analyze.
type TypeInfo struct {
	SymbolTypes map[ast.Ref]types.Type
	Structs     map[string]*types.Struct
	// Aliases resolves a declared alias name straight to the type it
	// transitively resolves to, so a downstream pass (the rewriter's
	// surface-type resolution) can rebuild a types.Type from a Param or
	// FunctionDecl's ast.Type without repeating phase 2's declaration walk.
	Aliases map[string]types.Type
}

// Result is the outcome of one Analyze call.
type Result struct {
	Valid       bool
	Diagnostics *diagnostic.DiagnosticList
	TypeInfo    *TypeInfo
}

const defaultTypeCacheSize = 512

// analyzer holds all per-compilation mutable state; a fresh one is created
// per Analyze call so the package itself is stateless and concurrency-safe.
type analyzer struct {
	module  *ast.Module
	diags   *diagnostic.DiagnosticList
	options Options

	structTypes map[string]*types.Struct
	aliasTypes  map[string]types.Type
	symbolTypes map[ast.Ref]types.Type

	// typeCache memoizes get_type_denoter results per expression node,
	// keyed by the node's identity (its pointer, boxed as `any`), bounded
	// by an LRU so a very large shader can't grow this without limit.
	typeCache *lru.Cache[ast.Expr, types.Type]

	currentFunc *funcContext
}

// funcContext tracks the state that's only meaningful while walking one
// function body: its declared return type, loop/switch nesting (for
// break/continue validation), and whether every control path seen so far
// returns.
type funcContext struct {
	decl         *ast.FunctionDecl
	returnType   types.Type
	loopDepth    int
	switchDepth  int
	sawReturn    bool
	allPathsEnd  bool
}

// Analyze performs semantic decoration on module and returns the collected
// diagnostics plus resolved type information. It never panics on malformed
// but structurally valid input; a recover() at this single pass boundary
// converts any unexpected panic into an internal-error diagnostic rather
// than crashing the whole compile.
func Analyze(module *ast.Module, options Options) (result *Result) {
	a := &analyzer{
		module:      module,
		diags:       diagnostic.NewDiagnosticList(module.Source),
		options:     options,
		structTypes: make(map[string]*types.Struct),
		aliasTypes:  make(map[string]types.Type),
		symbolTypes: make(map[ast.Ref]types.Type),
	}
	if a.options.DiagnosticFilters == nil {
		a.options.DiagnosticFilters = diagnostic.NewDiagnosticFilter()
	}
	cacheSize := options.TypeCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultTypeCacheSize
	}
	a.typeCache, _ = lru.New[ast.Expr, types.Type](cacheSize)

	defer func() {
		if r := recover(); r != nil {
			a.diags.AddErrorWithCode(0, diagnostic.CategoryInternal, string(diagnostic.CodeInternal),
				fmt.Sprintf("internal error during analysis: %v", r))
			result = a.finish()
		}
	}()

	// Phase 1: name binding — register every top-level declaration into
	// the module scope.
	a.bindDeclarations()

	// Phase 2: resolve struct/alias surface types into the TypeDenoter
	// lattice, so later phases only ever deal with types.Type.
	a.resolveTypeDeclarations()

	// Phase 3: type-check every function body, inferring and memoizing
	// each expression's static type, validating implicit casts and
	// overload resolution as it goes.
	a.checkFunctions()

	// Phase 4: reachability marking from the entry point (a
	// dead-code-elimination style walk), collecting UsedIntrinsics.
	a.markReachability()

	// Phase 5: control-path and unused-declaration warnings.
	a.checkControlPaths()
	a.checkUnusedSymbols()

	return a.finish()
}

func (a *analyzer) finish() *Result {
	return &Result{
		Valid:       !a.diags.HasErrors(),
		Diagnostics: a.diags,
		TypeInfo: &TypeInfo{
			SymbolTypes: a.symbolTypes,
			Structs:     a.structTypes,
			Aliases:     a.aliasTypes,
		},
	}
}

// ----------------------------------------------------------------------------
// Diagnostic helpers
// ----------------------------------------------------------------------------

func (a *analyzer) errorAt(rng ast.Range, category diagnostic.Category, code diagnostic.DiagnosticCode, format string, args ...any) {
	a.diags.AddErrorWithCode(rng.Start.Offset, category, string(code), fmt.Sprintf(format, args...))
}

func (a *analyzer) warnAt(rng ast.Range, category diagnostic.Category, format string, args ...any) {
	if a.options.StrictMode {
		a.diags.AddErrorRange(rng.Start.Offset, rng.End.Offset, category, fmt.Sprintf(format, args...))
		return
	}
	a.diags.AddWarning(rng.Start.Offset, category, fmt.Sprintf(format, args...))
}

// errorUndeclaredIdent reports a missing identifier, suggesting the
// closest name actually in scope when one is close enough — mirroring
// Analyzer::ErrorUndeclaredIdent's FetchSimilarIdent call.
func (a *analyzer) errorUndeclaredIdent(rng ast.Range, scope *ast.Scope, ident string) {
	msg := fmt.Sprintf("undeclared identifier '%s'", ident)
	if suggestion := fetchSimilarIdent(scope, ident); suggestion != "" {
		msg = fmt.Sprintf("%s; did you mean '%s'?", msg, suggestion)
	}
	a.errorAt(rng, diagnostic.CategoryUndeclaredIdent, diagnostic.CodeUndeclaredIdent, "%s", msg)
}

// fetchSimilarIdent searches every name visible from scope for the closest
// one to ident by edit distance, returning "" if nothing is close enough
// to be worth suggesting.
func fetchSimilarIdent(scope *ast.Scope, ident string) string {
	if scope == nil {
		return ""
	}
	best := ""
	bestDist := len(ident)/2 + 1 // only suggest reasonably close matches
	if bestDist > 3 {
		bestDist = 3 // never suggest beyond edit distance 2
	}
	for _, name := range scope.AllNames() {
		d := levenshtein(ident, name)
		if d < bestDist {
			bestDist = d
			best = name
		}
	}
	return best
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// ----------------------------------------------------------------------------
// Phase 1: name binding
// ----------------------------------------------------------------------------

func (a *analyzer) bindDeclarations() {
	for i, decl := range a.module.Declarations {
		switch d := decl.(type) {
		case *ast.StructDecl:
			a.declareGlobal(d.Name, ast.SymbolStruct, i)
		case *ast.AliasDecl:
			a.declareGlobal(d.Name, ast.SymbolAlias, i)
		case *ast.BufferDecl:
			a.declareGlobal(d.Name, ast.SymbolBuffer, i)
		case *ast.SamplerDecl:
			a.declareGlobal(d.Name, ast.SymbolSampler, i)
		case *ast.VarDecl:
			kind := ast.SymbolVar
			if d.IsConst {
				kind = ast.SymbolConst
			}
			a.declareGlobal(d.Name, kind, i)
		case *ast.FunctionDecl:
			a.declareGlobal(d.Name, ast.SymbolFunction, i)
			if d.Flags().IsEntryPoint {
				a.module.EntryPointRef = d.Name
			}
		}
	}
}

func (a *analyzer) declareGlobal(ref ast.Ref, kind ast.SymbolKind, declIndex int) {
	name := a.module.Name(ref)
	if name == "" {
		return
	}
	if sym := a.module.Symbol(ref); sym != nil {
		sym.Kind = kind
		sym.DeclIndex = declIndex
	}
	a.module.Scope.Declare(name, ref)
}

// ----------------------------------------------------------------------------
// Phase 2: resolve struct/alias surface types
// ----------------------------------------------------------------------------

func (a *analyzer) resolveTypeDeclarations() {
	// Structs first (placeholders), so self/mutually-referential field
	// types can resolve against a DeclName even before fields are filled.
	for _, decl := range a.module.Declarations {
		if d, ok := decl.(*ast.StructDecl); ok {
			name := a.module.Name(d.Name)
			if name != "" {
				a.structTypes[name] = &types.Struct{DeclName: name}
			}
		}
	}
	for _, decl := range a.module.Declarations {
		switch d := decl.(type) {
		case *ast.StructDecl:
			st := a.structTypes[a.module.Name(d.Name)]
			if st == nil {
				continue
			}
			for _, field := range d.Fields {
				fname := a.module.Name(field.Name)
				ftype := a.resolveSurfaceType(field.Type)
				if ftype == nil {
					a.errorAt(field.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeTypeMismatch,
						"cannot resolve type for struct field '%s'", fname)
					continue
				}
				st.Fields = append(st.Fields, types.StructField{Name: fname, Type: ftype})
			}
		case *ast.AliasDecl:
			name := a.module.Name(d.Name)
			if name == "" {
				continue
			}
			a.aliasTypes[name] = a.resolveSurfaceType(d.Type)
		}
	}
}

// resolveSurfaceType maps an ast.Type surface specifier to its resolved
// types.Type, consulting the struct/alias tables built above for
// user-named types.
func (a *analyzer) resolveSurfaceType(t ast.Type) types.Type {
	switch v := t.(type) {
	case *ast.IdentType:
		return a.resolveIdentType(v.Name)
	case *ast.ArrayType:
		elem := a.resolveSurfaceType(v.ElemType)
		if elem == nil {
			return nil
		}
		dims := make([]int, len(v.Dims))
		for i, d := range v.Dims {
			dims[i] = a.arrayDimSize(d)
		}
		return types.Array{Elem: elem, Dims: dims}
	case *ast.BufferType:
		var elem types.Type
		if v.ElemType != nil {
			elem = a.resolveSurfaceType(v.ElemType)
		}
		return types.Buffer{Kind: types.BufferKind(v.Kind), Elem: elem}
	case *ast.SamplerTypeSpec:
		return types.Sampler{Dim: types.SamplerDim(v.Dim)}
	default:
		return nil
	}
}

// arrayDimSize extracts a constant array dimension from its declared size
// expression via the constant sub-evaluator, so a dimension spelled as
// `kCount` (a const-declared int) resolves the same as a literal;
// returns 0 (unspecified-length) when the size is absent or doesn't fold
// to a constant.
func (a *analyzer) arrayDimSize(d ast.ArrayDim) int {
	if d.Size == nil {
		return 0
	}
	n, ok := a.evalConstInt(d.Size)
	if !ok {
		return 0
	}
	return int(n)
}

func (a *analyzer) resolveIdentType(name string) types.Type {
	if t := parseScalarName(name); t != nil {
		return t
	}
	if st, ok := a.structTypes[name]; ok {
		return *st
	}
	if al, ok := a.aliasTypes[name]; ok {
		return types.Alias{Name: name, Elem: al}
	}
	return nil
}

var scalarPrefixes = []struct {
	prefix string
	kind   types.ScalarKind
}{
	{"bool", types.Bool}, {"int", types.Int}, {"uint", types.UInt},
	{"double", types.Double}, {"float", types.Float},
}

// parseScalarName parses HLSL's `<kind><rows>x<cols>` / `<kind><dim>` /
// `<kind>` scalar-family spelling (float, float3, float4x4, ...).
func parseScalarName(name string) types.Type {
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
		var n int
		if _, err := fmt.Sscanf(rest, "%d", &n); err == nil && n >= 2 && n <= 4 {
			return types.Vec(sp.kind, n)
		}
	}
	if name == "void" {
		return types.Void
	}
	return nil
}

// ----------------------------------------------------------------------------
// Phase 3: type-check function bodies
// ----------------------------------------------------------------------------

func (a *analyzer) checkFunctions() {
	for _, decl := range a.module.Declarations {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		a.checkFunction(fn)
	}
}

func (a *analyzer) checkFunction(fn *ast.FunctionDecl) {
	retType := a.resolveSurfaceType(fn.ReturnType)
	if retType == nil {
		retType = types.Void
	}
	prevFunc := a.currentFunc
	a.currentFunc = &funcContext{decl: fn, returnType: retType}
	defer func() { a.currentFunc = prevFunc }()

	scope := ast.NewScope(a.module.Scope)
	for i := range fn.Parameters {
		p := &fn.Parameters[i]
		pname := a.module.Name(p.Name)
		if pname == "" {
			continue
		}
		ptype := a.resolveSurfaceType(p.Type)
		if sym := a.module.Symbol(p.Name); sym != nil {
			sym.Kind = ast.SymbolParam
		}
		a.symbolTypes[p.Name] = ptype
		scope.Declare(pname, p.Name)
	}

	if fn.Body != nil {
		a.checkCompoundIn(fn.Body, scope)
	}
}

// checkCompoundIn type-checks a compound statement's own declarations into
// a scope that's already been opened by the caller (used for function
// bodies, where parameters must share the body's top scope).
func (a *analyzer) checkCompoundIn(c *ast.CompoundStmt, scope *ast.Scope) {
	c.Scope = scope
	for _, s := range c.Stmts {
		a.checkStmt(s, scope)
	}
}

func (a *analyzer) checkStmt(s ast.Stmt, scope *ast.Scope) {
	switch st := s.(type) {
	case *ast.CompoundStmt:
		inner := ast.NewScope(scope)
		a.checkCompoundIn(st, inner)

	case *ast.DeclStmt:
		a.checkLocalDecl(st.Decl, scope)

	case *ast.ForStmt:
		loopScope := ast.NewScope(scope)
		if st.Init != nil {
			a.checkStmt(st.Init, loopScope)
		}
		if st.Condition != nil {
			a.checkExpr(st.Condition, loopScope)
		}
		if st.Update != nil {
			a.checkStmt(st.Update, loopScope)
		}
		a.currentFunc.loopDepth++
		if st.Body != nil {
			a.checkStmt(st.Body, loopScope)
		}
		a.currentFunc.loopDepth--

	case *ast.WhileStmt:
		if st.Condition != nil {
			a.checkExpr(st.Condition, scope)
		}
		a.currentFunc.loopDepth++
		if st.Body != nil {
			a.checkStmt(st.Body, scope)
		}
		a.currentFunc.loopDepth--

	case *ast.DoWhileStmt:
		a.currentFunc.loopDepth++
		if st.Body != nil {
			a.checkStmt(st.Body, scope)
		}
		a.currentFunc.loopDepth--
		if st.Condition != nil {
			a.checkExpr(st.Condition, scope)
		}

	case *ast.IfStmt:
		if st.Condition != nil {
			a.checkExpr(st.Condition, scope)
		}
		if st.Then != nil {
			a.checkStmt(st.Then, scope)
		}
		if st.Else != nil {
			a.checkStmt(st.Else, scope)
		}

	case *ast.SwitchStmt:
		if st.Selector != nil {
			a.checkExpr(st.Selector, scope)
		}
		a.currentFunc.switchDepth++
		for _, c := range st.Cases {
			for _, sel := range c.Selectors {
				a.checkExpr(sel, scope)
				if res := a.evalConst(sel); !res.isConst() {
					a.errorAt(sel.Range(), diagnostic.CategoryTypeError, diagnostic.CodeTypeMismatch,
						"case label is not a constant expression")
				}
			}
			caseScope := ast.NewScope(scope)
			for _, bs := range c.Body {
				a.checkStmt(bs, caseScope)
			}
		}
		a.currentFunc.switchDepth--

	case *ast.ExprStmt:
		if st.Expr != nil {
			a.checkExpr(st.Expr, scope)
		}

	case *ast.ReturnStmt:
		a.currentFunc.sawReturn = true
		if st.Value != nil {
			rt := a.checkExpr(st.Value, scope)
			if rt != nil && a.currentFunc.returnType != nil && !rt.Equals(a.currentFunc.returnType) && !rt.IsCastableTo(a.currentFunc.returnType) {
				a.errorAt(st.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeTypeMismatch,
					"cannot return '%s' from a function declared to return '%s'", rt.String(), a.currentFunc.returnType.String())
			}
		} else if a.currentFunc.returnType != nil && !a.currentFunc.returnType.Equals(types.Void) {
			a.errorAt(st.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeTypeMismatch,
				"missing return value in function declared to return '%s'", a.currentFunc.returnType.String())
		}

	case *ast.ControlTransferStmt:
		if st.Kind != ast.CtrlDiscard && a.currentFunc.loopDepth == 0 && a.currentFunc.switchDepth == 0 {
			a.errorAt(st.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeTypeMismatch,
				"break/continue outside of a loop or switch")
		}

	case *ast.NullStmt:
		// nothing to check; dangling empty-body diagnostics are left to
		// the parser/pretty-printer stage this compiler doesn't own.
	}
}

func (a *analyzer) checkLocalDecl(d ast.Decl, scope *ast.Scope) {
	v, ok := d.(*ast.VarDecl)
	if !ok {
		return
	}
	name := a.module.Name(v.Name)
	vtype := a.resolveSurfaceType(v.Type)
	if sym := a.module.Symbol(v.Name); sym != nil {
		sym.Kind = ast.SymbolVar
		if v.IsConst {
			sym.Kind = ast.SymbolConst
		}
	}
	a.symbolTypes[v.Name] = vtype
	if name != "" {
		scope.Declare(name, v.Name)
	}
	if v.Initializer != nil {
		initType := a.checkExpr(v.Initializer, scope)
		if vtype != nil && initType != nil && !initType.Equals(vtype) && !initType.IsCastableTo(vtype) {
			a.errorAt(v.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeInvalidCast,
				"cannot initialize '%s' of type '%s' with a value of type '%s'", name, vtype.String(), initType.String())
		}
	}
}

// checkExpr infers e's static type, memoizes it onto the node (and the
// bounded LRU cache), and returns it; nil means type inference failed and
// a diagnostic has already been reported.
func (a *analyzer) checkExpr(e ast.Expr, scope *ast.Scope) types.Type {
	if e == nil {
		return nil
	}
	if cached, ok := a.typeCache.Get(e); ok {
		return cached
	}

	t := a.inferExpr(e, scope)
	if t != nil {
		e.SetCachedType(t)
		a.typeCache.Add(e, t)
	}
	return t
}

func (a *analyzer) inferExpr(e ast.Expr, scope *ast.Scope) types.Type {
	switch expr := e.(type) {
	case *ast.LiteralExpr:
		return literalType(expr.Kind)

	case *ast.ObjectExpr:
		return a.inferObjectExpr(expr, scope)

	case *ast.ArrayExpr:
		return a.inferArrayExpr(expr, scope)

	case *ast.CallExpr:
		return a.inferCallExpr(expr, scope)

	case *ast.CastExpr:
		for _, arg := range expr.Args {
			a.checkExpr(arg, scope)
		}
		return a.resolveSurfaceType(expr.Target)

	case *ast.BracketExpr:
		return a.checkExpr(expr.Inner, scope)

	case *ast.UnaryExpr:
		return a.checkExpr(expr.Operand, scope)

	case *ast.BinaryExpr:
		return a.inferBinaryExpr(expr, scope)

	case *ast.TernaryExpr:
		return a.inferTernaryExpr(expr, scope)

	case *ast.AssignExpr:
		return a.inferAssignExpr(expr, scope)

	case *ast.SequenceExpr:
		var last types.Type
		for _, sub := range expr.Exprs {
			last = a.checkExpr(sub, scope)
		}
		return last

	case *ast.InitializerExpr:
		for _, sub := range expr.Exprs {
			a.checkExpr(sub, scope)
		}
		return nil // resolved against the target type by the rewriter's ConvertInitializer pass

	case *ast.TypeExpr:
		return a.resolveSurfaceType(expr.Type)

	default:
		return nil
	}
}

func literalType(k ast.LiteralKind) types.Type {
	switch k {
	case ast.LitBool:
		return types.Scalar(types.Bool)
	case ast.LitInt:
		return types.Scalar(types.Int)
	case ast.LitUInt:
		return types.Scalar(types.UInt)
	case ast.LitFloat:
		return types.Scalar(types.Float)
	case ast.LitDouble:
		return types.Scalar(types.Double)
	default:
		return nil
	}
}

func (a *analyzer) inferObjectExpr(expr *ast.ObjectExpr, scope *ast.Scope) types.Type {
	if expr.Prefix != nil {
		prefixType := a.checkExpr(expr.Prefix, scope)
		return a.inferMemberAccess(expr, prefixType)
	}

	refs, declScope := scope.Lookup(expr.Ident)
	if len(refs) == 0 {
		if swizzleType, ok := trySwizzleOfUnknown(expr); ok {
			return swizzleType
		}
		a.errorUndeclaredIdent(expr.NodeRange, scope, expr.Ident)
		return nil
	}
	_ = declScope
	ref := refs[len(refs)-1] // most-recent declaration in scope order
	expr.SymbolRef = ref
	if sym := a.module.Symbol(ref); sym != nil {
		sym.Flags |= ast.IsReadFrom
	}
	return a.symbolTypes[ref]
}

// trySwizzleOfUnknown is a narrow fallback for `.xyzw`/`.rgba` member
// chains whose prefix type didn't resolve (already reported elsewhere);
// avoids a cascade of undeclared-identifier noise for swizzle letters.
func trySwizzleOfUnknown(expr *ast.ObjectExpr) (types.Type, bool) {
	if expr.IsSwizzle {
		return nil, true
	}
	return nil, false
}

func (a *analyzer) inferMemberAccess(expr *ast.ObjectExpr, prefixType types.Type) types.Type {
	if prefixType == nil {
		return nil
	}
	if swizzle, ok := swizzleType(prefixType, expr.Ident); ok {
		expr.IsSwizzle = true
		return swizzle
	}
	st, ok := prefixType.Aliased().(types.Struct)
	if !ok {
		a.errorAt(expr.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeNoSuchMember,
			"type '%s' has no member '%s'", prefixType.String(), expr.Ident)
		return nil
	}
	field := st.Field(expr.Ident)
	if field == nil {
		a.errorAt(expr.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeNoSuchMember,
			"struct '%s' has no field '%s'", st.DeclName, expr.Ident)
		return nil
	}
	return field.Type
}

// swizzleType implements vector swizzle member access (.x, .xyz, .rgba, ...).
func swizzleType(base types.Type, member string) (types.Type, bool) {
	b, ok := base.Aliased().(types.Base)
	if !ok || !b.IsVector() && !b.IsScalar() {
		return nil, false
	}
	if len(member) == 0 || len(member) > 4 {
		return nil, false
	}
	const xyzw = "xyzw"
	const rgba = "rgba"
	for _, c := range member {
		if strings.IndexRune(xyzw, c) < 0 && strings.IndexRune(rgba, c) < 0 {
			return nil, false
		}
	}
	if len(member) == 1 {
		return types.Scalar(b.Elem), true
	}
	return types.Vec(b.Elem, len(member)), true
}

func (a *analyzer) inferArrayExpr(expr *ast.ArrayExpr, scope *ast.Scope) types.Type {
	prefixType := a.checkExpr(expr.Prefix, scope)
	for _, idx := range expr.Indices {
		idxType := a.checkExpr(idx, scope)
		if idxType != nil && !types.IsScalar(idxType) && !types.IsVector(idxType) {
			a.errorAt(idx.Range(), diagnostic.CategoryTypeError, diagnostic.CodeTypeMismatch,
				"array index must be a scalar or vector of integers, got '%s'", idxType.String())
		}
	}
	result := prefixType
	for range expr.Indices {
		sub, ok := types.Sub(result)
		if !ok {
			if result != nil {
				a.errorAt(expr.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeNotIndexable,
					"type '%s' cannot be indexed", result.String())
			}
			return nil
		}
		result = sub
	}
	return result
}

func (a *analyzer) inferCallExpr(expr *ast.CallExpr, scope *ast.Scope) types.Type {
	argTypes := make([]types.Type, len(expr.Args))
	for i, arg := range expr.Args {
		argTypes[i] = a.checkExpr(arg, scope)
	}

	if adept, ok := intrinsic.Lookup(expr.Name); ok {
		// Tag the node with its intrinsic kind here so phase 4's
		// reachability walk can recognize it, but don't record it into
		// Module.UsedIntrinsics yet: reachability isn't known at this
		// point, and this pass runs over every function regardless of
		// whether the entry point ever calls it (see checkFunctions).
		// Only a call the phase-4 walk actually reaches belongs in the
		// set the emitter's extension-requirement scan consumes.
		expr.Intrinsic = adept.Intrinsic
		if !adept.Supported {
			a.errorAt(expr.NodeRange, diagnostic.CategorySemanticMapping, diagnostic.CodeUnsupportedIntrinsic,
				"intrinsic '%s' has no supported target-dialect mapping", expr.Name)
			return nil
		}
		if len(expr.Args) != adept.MinArgs {
			a.errorAt(expr.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeInvalidArgCount,
				"intrinsic '%s' expects %d argument(s), got %d", expr.Name, adept.MinArgs, len(expr.Args))
			return nil
		}
		rt, ok := adept.ReturnType(argTypes)
		if !ok {
			a.errorAt(expr.NodeRange, diagnostic.CategoryOverloadResolution, diagnostic.CodeNoMatchingOverload,
				"no matching overload of intrinsic '%s' for the given argument types", expr.Name)
			return nil
		}
		return rt
	}

	refs, _ := scope.Lookup(expr.Name)
	fn, ambiguous := a.resolveFunctionOverload(expr, refs, argTypes)
	if fn == nil {
		switch {
		case ambiguous:
			// resolveFunctionOverload already reported the ambiguity.
		case len(refs) == 0:
			a.errorUndeclaredIdent(expr.NodeRange, scope, expr.Name)
		default:
			a.errorAt(expr.NodeRange, diagnostic.CategoryOverloadResolution, diagnostic.CodeNoMatchingOverload,
				"no overload of '%s' matches the given argument types", expr.Name)
		}
		return nil
	}
	expr.FuncRef = fn.ref
	if sym := a.module.Symbol(fn.ref); sym != nil {
		sym.Flags |= ast.IsReadFrom
	}
	return fn.returnType
}

type resolvedFunc struct {
	ref        ast.Ref
	decl       *ast.FunctionDecl
	returnType types.Type
}

// resolveFunctionOverload implements §3.3's resolution rule: prefer an
// exact-type match; otherwise the candidate needing the fewest implicit
// casts; ties among implicit-cast matches break by earliest declaration
// (the order refs already carries, since Scope.Declare appends in
// declaration order). Per §4.1 ("On ambiguity (multiple exact-match
// candidates), error"), ambiguity is reported only when more than one
// candidate ties at the exact-match (zero-cast) tier; an implicit-cast
// tie is resolved silently by the earliest-declaration rule instead, since
// the spec reserves the error for exact-match collisions. The second
// return value reports whether an ambiguity diagnostic was already
// emitted, so the caller doesn't also report "no matching overload".
func (a *analyzer) resolveFunctionOverload(expr *ast.CallExpr, refs []ast.Ref, argTypes []types.Type) (*resolvedFunc, bool) {
	var tied []*resolvedFunc
	bestCasts := -1
	for _, ref := range refs {
		sym := a.module.Symbol(ref)
		if sym == nil || sym.Kind != ast.SymbolFunction {
			continue
		}
		fn, ok := a.module.Declarations[sym.DeclIndex].(*ast.FunctionDecl)
		if !ok || len(argTypes) < fn.MinArgs() || len(argTypes) > fn.MaxArgs() {
			continue
		}
		casts := 0
		matched := true
		for i, p := range fn.Parameters {
			ptype := a.resolveSurfaceType(p.Type)
			if ptype == nil || argTypes[i] == nil {
				matched = false
				break
			}
			if ptype.Equals(argTypes[i]) {
				continue
			}
			if argTypes[i].IsCastableTo(ptype) {
				casts++
				continue
			}
			matched = false
			break
		}
		if !matched {
			continue
		}
		rt := a.resolveSurfaceType(fn.ReturnType)
		if rt == nil {
			rt = types.Void
		}
		cand := &resolvedFunc{ref: ref, decl: fn, returnType: rt}
		switch {
		case bestCasts == -1 || casts < bestCasts:
			bestCasts = casts
			tied = []*resolvedFunc{cand}
		case casts == bestCasts:
			tied = append(tied, cand)
		}
	}
	switch {
	case len(tied) == 0:
		return nil, false
	case len(tied) > 1 && bestCasts == 0:
		a.errorAt(expr.NodeRange, diagnostic.CategoryOverloadResolution, diagnostic.CodeAmbiguousOverload,
			"call to '%s' is ambiguous among %d exact-match overloads", expr.Name, len(tied))
		return nil, true
	default:
		return tied[0], false
	}
}

func (a *analyzer) inferBinaryExpr(expr *ast.BinaryExpr, scope *ast.Scope) types.Type {
	lhs := a.checkExpr(expr.Lhs, scope)
	rhs := a.checkExpr(expr.Rhs, scope)
	if lhs == nil || rhs == nil {
		return nil
	}
	if expr.Op.IsLogical() {
		return types.Scalar(types.Bool)
	}
	common, ok := types.CommonType(lhs, rhs)
	if !ok {
		a.errorAt(expr.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeTypeMismatch,
			"incompatible operand types '%s' and '%s'", lhs.String(), rhs.String())
		return nil
	}
	if expr.Op.IsCompare() {
		if types.IsVector(common) {
			// ConvertVectorCompare will retag this node during lowering;
			// here it still type-checks to a bool vector of the same
			// dimension (the rewriter's job is to pick the intrinsic).
			b, _ := common.Aliased().(types.Base)
			return types.Vec(types.Bool, b.Dim())
		}
		return types.Scalar(types.Bool)
	}
	return common
}

func (a *analyzer) inferTernaryExpr(expr *ast.TernaryExpr, scope *ast.Scope) types.Type {
	condType := a.checkExpr(expr.Cond, scope)
	thenType := a.checkExpr(expr.Then, scope)
	elseType := a.checkExpr(expr.Else, scope)
	if condType != nil && !types.IsScalar(condType) && !types.IsVector(condType) {
		a.errorAt(expr.Cond.Range(), diagnostic.CategoryTypeError, diagnostic.CodeNonScalarCond,
			"ternary condition must be a scalar or vector of bool, got '%s'", condType.String())
	}
	if thenType == nil || elseType == nil {
		return nil
	}
	common, ok := types.CommonType(thenType, elseType)
	if !ok {
		a.errorAt(expr.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeTypeMismatch,
			"ternary branches have incompatible types '%s' and '%s'", thenType.String(), elseType.String())
		return nil
	}
	return common
}

func (a *analyzer) inferAssignExpr(expr *ast.AssignExpr, scope *ast.Scope) types.Type {
	lhsType := a.checkExpr(expr.Lvalue, scope)
	rhsType := a.checkExpr(expr.Rvalue, scope)
	if lhsType == nil || rhsType == nil {
		return lhsType
	}
	if !rhsType.Equals(lhsType) && !rhsType.IsCastableTo(lhsType) {
		a.errorAt(expr.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeInvalidAssignment,
			"cannot assign a value of type '%s' to a target of type '%s'", rhsType.String(), lhsType.String())
	}
	if ident, ok := lvalueSymbol(expr.Lvalue); ok {
		if sym := a.module.Symbol(ident); sym != nil {
			sym.Flags |= ast.IsMemberStorage
		}
	}
	return lhsType
}

func lvalueSymbol(e ast.Expr) (ast.Ref, bool) {
	switch v := e.(type) {
	case *ast.ObjectExpr:
		if v.Prefix == nil {
			return v.SymbolRef, v.SymbolRef.IsValid()
		}
		return lvalueSymbol(v.Prefix)
	case *ast.ArrayExpr:
		return lvalueSymbol(v.Prefix)
	case *ast.BracketExpr:
		return lvalueSymbol(v.Inner)
	default:
		return ast.Ref{}, false
	}
}

// ----------------------------------------------------------------------------
// Phase 4: reachability (folds in the former dce sub-phase)
// ----------------------------------------------------------------------------

// markReachability performs a depth-first walk from the entry point
// through every function it calls (directly or transitively), marking
// each visited FunctionDecl and its callees' Symbol reachable, and
// recording every intrinsic name called along the way into
// Module.UsedIntrinsics. Declarations never reached from the entry point
// are left unmarked so the emitter can skip emitting them (dead-code
// elimination).
func (a *analyzer) markReachability() {
	entry := a.findEntryPoint()
	if entry == nil {
		return
	}
	visited := make(map[*ast.FunctionDecl]bool)
	a.markFunctionReachable(entry, visited)
}

func (a *analyzer) findEntryPoint() *ast.FunctionDecl {
	for _, decl := range a.module.Declarations {
		if fn, ok := decl.(*ast.FunctionDecl); ok && fn.Flags().IsEntryPoint {
			return fn
		}
	}
	// Fall back to the named entry point if no declaration flag was set
	// (a lenient caller can name an entry point by string alone).
	if a.module.EntryPointName != "" {
		for _, decl := range a.module.Declarations {
			if fn, ok := decl.(*ast.FunctionDecl); ok && a.module.Name(fn.Name) == a.module.EntryPointName {
				return fn
			}
		}
	}
	return nil
}

func (a *analyzer) markFunctionReachable(fn *ast.FunctionDecl, visited map[*ast.FunctionDecl]bool) {
	if visited[fn] {
		return
	}
	visited[fn] = true
	fn.Flags().IsReachable = true
	if sym := a.module.Symbol(fn.Name); sym != nil {
		sym.Flags |= ast.IsReachable
	}
	if fn.Body != nil {
		a.walkStmtForReachability(fn.Body, visited)
	}
}

func (a *analyzer) walkStmtForReachability(s ast.Stmt, visited map[*ast.FunctionDecl]bool) {
	switch st := s.(type) {
	case *ast.CompoundStmt:
		for _, sub := range st.Stmts {
			a.walkStmtForReachability(sub, visited)
		}
	case *ast.DeclStmt:
		if v, ok := st.Decl.(*ast.VarDecl); ok && v.Initializer != nil {
			a.walkExprForReachability(v.Initializer, visited)
		}
	case *ast.ForStmt:
		if st.Init != nil {
			a.walkStmtForReachability(st.Init, visited)
		}
		a.walkExprForReachability(st.Condition, visited)
		if st.Update != nil {
			a.walkStmtForReachability(st.Update, visited)
		}
		if st.Body != nil {
			a.walkStmtForReachability(st.Body, visited)
		}
	case *ast.WhileStmt:
		a.walkExprForReachability(st.Condition, visited)
		if st.Body != nil {
			a.walkStmtForReachability(st.Body, visited)
		}
	case *ast.DoWhileStmt:
		if st.Body != nil {
			a.walkStmtForReachability(st.Body, visited)
		}
		a.walkExprForReachability(st.Condition, visited)
	case *ast.IfStmt:
		a.walkExprForReachability(st.Condition, visited)
		if st.Then != nil {
			a.walkStmtForReachability(st.Then, visited)
		}
		if st.Else != nil {
			a.walkStmtForReachability(st.Else, visited)
		}
	case *ast.SwitchStmt:
		a.walkExprForReachability(st.Selector, visited)
		for _, c := range st.Cases {
			for _, sel := range c.Selectors {
				a.walkExprForReachability(sel, visited)
			}
			for _, bs := range c.Body {
				a.walkStmtForReachability(bs, visited)
			}
		}
	case *ast.ExprStmt:
		a.walkExprForReachability(st.Expr, visited)
	case *ast.ReturnStmt:
		a.walkExprForReachability(st.Value, visited)
	}
}

func (a *analyzer) walkExprForReachability(e ast.Expr, visited map[*ast.FunctionDecl]bool) {
	if e == nil {
		return
	}
	switch expr := e.(type) {
	case *ast.CallExpr:
		if expr.Intrinsic != ast.IntrinsicNone {
			a.module.UsedIntrinsics[expr.Name] = true
		} else if expr.FuncRef.IsValid() {
			if sym := a.module.Symbol(expr.FuncRef); sym != nil && sym.DeclIndex >= 0 {
				if fn, ok := a.module.Declarations[sym.DeclIndex].(*ast.FunctionDecl); ok {
					a.markFunctionReachable(fn, visited)
				}
			}
		}
		for _, arg := range expr.Args {
			a.walkExprForReachability(arg, visited)
		}
	case *ast.ObjectExpr:
		if sym := a.module.Symbol(expr.SymbolRef); sym != nil {
			sym.Flags |= ast.IsReachable
		}
		a.walkExprForReachability(expr.Prefix, visited)
	case *ast.ArrayExpr:
		a.walkExprForReachability(expr.Prefix, visited)
		for _, idx := range expr.Indices {
			a.walkExprForReachability(idx, visited)
		}
	case *ast.CastExpr:
		for _, arg := range expr.Args {
			a.walkExprForReachability(arg, visited)
		}
	case *ast.BracketExpr:
		a.walkExprForReachability(expr.Inner, visited)
	case *ast.UnaryExpr:
		a.walkExprForReachability(expr.Operand, visited)
	case *ast.BinaryExpr:
		a.walkExprForReachability(expr.Lhs, visited)
		a.walkExprForReachability(expr.Rhs, visited)
	case *ast.TernaryExpr:
		a.walkExprForReachability(expr.Cond, visited)
		a.walkExprForReachability(expr.Then, visited)
		a.walkExprForReachability(expr.Else, visited)
	case *ast.AssignExpr:
		a.walkExprForReachability(expr.Lvalue, visited)
		a.walkExprForReachability(expr.Rvalue, visited)
	case *ast.SequenceExpr:
		for _, sub := range expr.Exprs {
			a.walkExprForReachability(sub, visited)
		}
	case *ast.InitializerExpr:
		for _, sub := range expr.Exprs {
			a.walkExprForReachability(sub, visited)
		}
	}
}

// ----------------------------------------------------------------------------
// Phase 5: control-path and unused-declaration warnings
// ----------------------------------------------------------------------------

func (a *analyzer) checkControlPaths() {
	for _, decl := range a.module.Declarations {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue
		}
		retType := a.resolveSurfaceType(fn.ReturnType)
		if retType == nil || retType.Equals(types.Void) {
			continue
		}
		fn.AllPathsReturn = stmtsAlwaysReturn(fn.Body.Stmts)
		if !fn.AllPathsReturn {
			a.errorAt(fn.NodeRange, diagnostic.CategoryTypeError, diagnostic.CodeTypeMismatch,
				"function '%s' does not return a value on all control paths", a.module.Name(fn.Name))
		}
	}
}

// stmtsAlwaysReturn is a conservative, syntactic control-path check: every
// path through the statement list must end in a return (or, for an
// if/else, both arms must). Loops are never assumed to guarantee
// execution, the same conservative rule used for the "missing return"
// diagnostic.
func stmtsAlwaysReturn(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	return stmtAlwaysReturns(stmts[len(stmts)-1])
}

func stmtAlwaysReturns(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.CompoundStmt:
		return stmtsAlwaysReturn(st.Stmts)
	case *ast.IfStmt:
		if st.Else == nil {
			return false
		}
		return stmtAlwaysReturns(st.Then) && stmtAlwaysReturns(st.Else)
	case *ast.SwitchStmt:
		hasDefault := false
		for _, c := range st.Cases {
			if len(c.Selectors) == 0 {
				hasDefault = true
			}
			if len(c.Body) == 0 || !stmtAlwaysReturns(c.Body[len(c.Body)-1]) {
				return false
			}
		}
		return hasDefault
	default:
		return false
	}
}

// checkUnusedSymbols reports a warning for every local variable that was
// declared but never read, the on-scope-release hook
// Analyzer::CloseScope's OnReleaseSymbol callback performs in the
// original compiler.
func (a *analyzer) checkUnusedSymbols() {
	names := make([]ast.Ref, 0, len(a.module.Symbols))
	for i := range a.module.Symbols {
		names = append(names, ast.Ref{InnerIndex: uint32(i)})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].InnerIndex < names[j].InnerIndex })
	for _, ref := range names {
		sym := a.module.Symbol(ref)
		if sym == nil {
			continue
		}
		if (sym.Kind == ast.SymbolVar || sym.Kind == ast.SymbolConst) && sym.DeclIndex < 0 && !sym.Flags.Has(ast.IsReadFrom) {
			a.warnAt(ast.Range{Start: sym.Loc, End: sym.Loc}, diagnostic.CategoryTypeError,
				"local variable '%s' is declared but never read", sym.OriginalName)
		}
	}
}
