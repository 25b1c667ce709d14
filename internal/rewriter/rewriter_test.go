package rewriter

import (
	"testing"

	"codeberg.org/saruga/shaderxc/internal/analyzer"
	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/intrinsic"
	"codeberg.org/saruga/shaderxc/internal/types"
)

// ----------------------------------------------------------------------------
// Fixture helpers — mirrors internal/emitter's test style, since this
// package also has no parser to build real source through.
// ----------------------------------------------------------------------------

func newModule() *ast.Module { return ast.NewModule("", "test.hlsl") }

func declSymbol(m *ast.Module, name string, kind ast.SymbolKind) ast.Ref {
	return m.AddSymbol(ast.Symbol{OriginalName: name, Kind: kind})
}

func obRef(name string, ref ast.Ref) *ast.ObjectExpr {
	return &ast.ObjectExpr{Ident: name, SymbolRef: ref}
}

func floatLit(v string) *ast.LiteralExpr { return &ast.LiteralExpr{Kind: ast.LitFloat, Value: v} }

func emptyTypeInfo() *analyzer.TypeInfo {
	return &analyzer.TypeInfo{
		SymbolTypes: make(map[ast.Ref]types.Type),
		Structs:     make(map[string]*types.Struct),
		Aliases:     make(map[string]types.Type),
	}
}

// ----------------------------------------------------------------------------
// ConvertLog10
// ----------------------------------------------------------------------------

func TestConvertLog10LowersToLogDivision(t *testing.T) {
	ti := emptyTypeInfo()
	m := newModule()
	xRef := declSymbol(m, "x", ast.SymbolParam)
	ti.SymbolTypes[xRef] = types.Scalar(types.Float)

	call := &ast.CallExpr{Name: "log10", Intrinsic: intrinsic.Log10, Args: []ast.Expr{obRef("x", xRef)}}
	result := rewriteSingleExprOn(t, m, ti, ConvertLog10, call)

	bracket, ok := result.(*ast.BracketExpr)
	if !ok {
		t.Fatalf("expected log10(x) to lower to a BracketExpr, got %T", result)
	}
	bin, ok := bracket.Inner.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.BinDiv {
		t.Fatalf("expected the bracket to wrap a division, got %#v", bracket.Inner)
	}
	lhsCall, ok := bin.Lhs.(*ast.CallExpr)
	if !ok || lhsCall.Name != "log" || lhsCall.Intrinsic != intrinsic.Log {
		t.Errorf("expected lhs to be the retagged log(x) call, got %#v", bin.Lhs)
	}
	rhsCall, ok := bin.Rhs.(*ast.CallExpr)
	if !ok || rhsCall.Name != "log" {
		t.Fatalf("expected rhs to be log(10), got %#v", bin.Rhs)
	}
	tenLit, ok := rhsCall.Args[0].(*ast.LiteralExpr)
	if !ok || tenLit.Value != "10" || tenLit.Kind != ast.LitFloat {
		t.Errorf("expected the 10 literal to be cast to x's float base kind, got %#v", rhsCall.Args[0])
	}
}

// rewriteSingleExprOn builds a single-function module around expr (so
// callers can register symbols on the module first), runs Rewrite, and
// returns the lowered expression.
func rewriteSingleExprOn(t *testing.T, m *ast.Module, ti *analyzer.TypeInfo, flags Flags, expr ast.Expr) ast.Expr {
	t.Helper()
	fnName := declSymbol(m, "f", ast.SymbolFunction)
	holder := &ast.ReturnStmt{Value: expr}
	fn := &ast.FunctionDecl{
		Name:       fnName,
		ReturnType: &ast.IdentType{Name: "float4"},
		Body: &ast.CompoundStmt{
			Stmts: []ast.Stmt{holder},
		},
		AllPathsReturn: true,
	}
	m.Declarations = append(m.Declarations, fn)
	if err := Rewrite(m, ti, flags); err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	return holder.Value
}

// ----------------------------------------------------------------------------
// ConvertVectorCompare
// ----------------------------------------------------------------------------

func TestConvertVectorCompareBinaryLowersToIntrinsic(t *testing.T) {
	m := newModule()
	aRef := declSymbol(m, "a", ast.SymbolParam)
	bRef := declSymbol(m, "b", ast.SymbolParam)
	ti := emptyTypeInfo()
	ti.SymbolTypes[aRef] = types.Vec(types.Float, 4)
	ti.SymbolTypes[bRef] = types.Vec(types.Float, 4)

	cmp := &ast.BinaryExpr{Op: ast.BinLt, Lhs: obRef("a", aRef), Rhs: obRef("b", bRef)}
	cmp.SetCachedType(types.Vec(types.Bool, 4))

	result := rewriteSingleExprOn(t, m, ti, ConvertVectorCompare, cmp)
	call, ok := result.(*ast.CallExpr)
	if !ok || call.Name != "lessThan" || call.Intrinsic != intrinsic.LessThan {
		t.Fatalf("expected `a < b` on vectors to lower to lessThan(a, b), got %#v", result)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected exactly 2 arguments, got %d", len(call.Args))
	}
}

func TestConvertVectorCompareUnaryNotLowersToIntrinsic(t *testing.T) {
	m := newModule()
	vRef := declSymbol(m, "v", ast.SymbolParam)
	ti := emptyTypeInfo()
	ti.SymbolTypes[vRef] = types.Vec(types.Bool, 3)

	not := &ast.UnaryExpr{Op: ast.UnaryNot, Operand: obRef("v", vRef)}
	not.SetCachedType(types.Vec(types.Bool, 3))

	result := rewriteSingleExprOn(t, m, ti, ConvertVectorCompare, not)
	call, ok := result.(*ast.CallExpr)
	if !ok || call.Name != "not" {
		t.Fatalf("expected `!v` on a bool vector to lower to not(v), got %#v", result)
	}
}

func TestConvertVectorCompareScalarNotIsUntouched(t *testing.T) {
	m := newModule()
	bRef := declSymbol(m, "b", ast.SymbolParam)
	ti := emptyTypeInfo()
	ti.SymbolTypes[bRef] = types.Scalar(types.Bool)

	not := &ast.UnaryExpr{Op: ast.UnaryNot, Operand: obRef("b", bRef)}
	not.SetCachedType(types.Scalar(types.Bool))

	result := rewriteSingleExprOn(t, m, ti, ConvertVectorCompare, not)
	if _, ok := result.(*ast.UnaryExpr); !ok {
		t.Errorf("expected a scalar `!b` to remain a plain UnaryExpr, got %#v", result)
	}
}

func TestConvertVectorCompareTernaryLowersToLerp(t *testing.T) {
	m := newModule()
	condRef := declSymbol(m, "cond", ast.SymbolParam)
	thenRef := declSymbol(m, "a", ast.SymbolParam)
	elseRef := declSymbol(m, "b", ast.SymbolParam)
	ti := emptyTypeInfo()
	ti.SymbolTypes[condRef] = types.Vec(types.Bool, 4)
	ti.SymbolTypes[thenRef] = types.Vec(types.Float, 4)
	ti.SymbolTypes[elseRef] = types.Vec(types.Float, 4)

	tern := &ast.TernaryExpr{
		Cond: obRef("cond", condRef),
		Then: obRef("a", thenRef),
		Else: obRef("b", elseRef),
	}
	tern.SetCachedType(types.Vec(types.Float, 4))

	result := rewriteSingleExprOn(t, m, ti, ConvertVectorCompare, tern)
	call, ok := result.(*ast.CallExpr)
	if !ok || call.Name != "lerp" || len(call.Args) != 3 {
		t.Fatalf("expected a vector-conditioned ternary to lower to lerp(then, else, cond), got %#v", result)
	}
}

// ----------------------------------------------------------------------------
// mul/dot retagging
// ----------------------------------------------------------------------------

func TestMulWithTwoVectorArgsRetagsToDot(t *testing.T) {
	m := newModule()
	aRef := declSymbol(m, "a", ast.SymbolParam)
	bRef := declSymbol(m, "b", ast.SymbolParam)
	ti := emptyTypeInfo()
	ti.SymbolTypes[aRef] = types.Vec(types.Float, 3)
	ti.SymbolTypes[bRef] = types.Vec(types.Float, 3)

	call := &ast.CallExpr{Name: "mul", Intrinsic: intrinsic.Mul, Args: []ast.Expr{obRef("a", aRef), obRef("b", bRef)}}
	// Zero flags skip the whole visitor; the retag has no flag of its own,
	// so any unrelated non-zero flag set (here ConvertLog10) runs it.
	result := rewriteSingleExprOn(t, m, ti, ConvertLog10, call)
	got, ok := result.(*ast.CallExpr)
	if !ok || got.Name != "dot" || got.Intrinsic != intrinsic.Dot {
		t.Errorf("expected mul(vec,vec) to retag to dot(), got %#v", result)
	}
}

func TestMulMatrixLayoutSwapsArguments(t *testing.T) {
	m := newModule()
	mRef := declSymbol(m, "M", ast.SymbolParam)
	vRef := declSymbol(m, "v", ast.SymbolParam)
	ti := emptyTypeInfo()
	ti.SymbolTypes[mRef] = types.Mat(types.Float, 4, 4)
	ti.SymbolTypes[vRef] = types.Vec(types.Float, 4)

	call := &ast.CallExpr{Name: "mul", Intrinsic: intrinsic.Mul, Args: []ast.Expr{obRef("M", mRef), obRef("v", vRef)}}
	result := rewriteSingleExprOn(t, m, ti, ConvertMatrixLayout, call)
	got, ok := result.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected mul() call to remain a CallExpr, got %#v", result)
	}
	arg0, ok := got.Args[0].(*ast.ObjectExpr)
	if !ok || arg0.Ident != "v" {
		t.Errorf("expected ConvertMatrixLayout to swap mul's arguments (v first), got %#v", got.Args[0])
	}
}

// ----------------------------------------------------------------------------
// ConvertImageAccess
// ----------------------------------------------------------------------------

func TestConvertImageAccessReadLowersToImageLoad(t *testing.T) {
	m := newModule()
	texRef := declSymbol(m, "tex", ast.SymbolBuffer)
	uvRef := declSymbol(m, "uv", ast.SymbolParam)
	ti := emptyTypeInfo()
	ti.SymbolTypes[texRef] = types.Buffer{Kind: types.KindRWTexture2D, Elem: types.Vec(types.Float, 4)}
	ti.SymbolTypes[uvRef] = types.Vec(types.UInt, 2)

	arr := &ast.ArrayExpr{Prefix: obRef("tex", texRef), Indices: []ast.Expr{obRef("uv", uvRef)}}
	result := rewriteSingleExprOn(t, m, ti, ConvertImageAccess, arr)
	call, ok := result.(*ast.CallExpr)
	if !ok || call.Name != "imageLoad" {
		t.Fatalf("expected tex[uv] to lower to imageLoad(tex, uv), got %#v", result)
	}
}

func TestConvertImageAccessCompoundAssignLowersToLoadThenStore(t *testing.T) {
	m := newModule()
	texRef := declSymbol(m, "t", ast.SymbolBuffer)
	uvRef := declSymbol(m, "uv", ast.SymbolParam)
	ti := emptyTypeInfo()
	ti.SymbolTypes[texRef] = types.Buffer{Kind: types.KindRWTexture2D, Elem: types.Vec(types.Float, 4)}
	ti.SymbolTypes[uvRef] = types.Vec(types.UInt, 2)

	arr := &ast.ArrayExpr{Prefix: obRef("t", texRef), Indices: []ast.Expr{obRef("uv", uvRef)}}
	one := floatLit("1.0")
	one.SetCachedType(types.Scalar(types.Float))
	assign := &ast.AssignExpr{Op: ast.AssignAdd, Lvalue: arr, Rvalue: one}

	result := rewriteSingleExprOn(t, m, ti, ConvertImageAccess, assign)
	store, ok := result.(*ast.CallExpr)
	if !ok || store.Name != "imageStore" {
		t.Fatalf("expected `t[uv] += 1.0` to lower to an imageStore call, got %#v", result)
	}
	if len(store.Args) != 3 {
		t.Fatalf("expected imageStore(image, coord, value), got %d args", len(store.Args))
	}
	load, ok := store.Args[2].(*ast.BinaryExpr)
	if !ok || load.Op != ast.BinAdd {
		t.Fatalf("expected the stored value to be imageLoad(...) + vec4(1.0), got %#v", store.Args[2])
	}
	if _, ok := load.Lhs.(*ast.CallExpr); !ok {
		t.Errorf("expected the addition's lhs to be the imageLoad call, got %#v", load.Lhs)
	}
	cast, ok := load.Rhs.(*ast.CastExpr)
	if !ok {
		t.Fatalf("expected the addition's rhs to be widened to a float4(1.0) constructor cast, got %#v", load.Rhs)
	}
	ident, ok := cast.Target.(*ast.IdentType)
	if !ok || ident.Name != "float4" {
		t.Errorf("expected the rhs cast target to be float4 (emitted as vec4 by the emitter), got %#v", cast.Target)
	}
}

// ----------------------------------------------------------------------------
// ConvertVectorSubscripts
// ----------------------------------------------------------------------------

func TestConvertVectorSubscriptsScalarSwizzleBecomesConstructor(t *testing.T) {
	m := newModule()
	sRef := declSymbol(m, "s", ast.SymbolParam)
	ti := emptyTypeInfo()
	ti.SymbolTypes[sRef] = types.Scalar(types.Float)

	swizzle := &ast.ObjectExpr{Ident: "xxx", Prefix: obRef("s", sRef), IsSwizzle: true, SymbolRef: ast.InvalidRef()}

	result := rewriteSingleExprOn(t, m, ti, ConvertVectorSubscripts, swizzle)
	cast, ok := result.(*ast.CastExpr)
	if !ok {
		t.Fatalf("expected `s.xxx` to lower to a float3(s) constructor cast, got %#v", result)
	}
	target, ok := cast.Target.(*ast.IdentType)
	if !ok || target.Name != "float3" {
		t.Errorf("expected the cast target to be float3, got %#v", cast.Target)
	}
	if len(cast.Args) != 1 {
		t.Errorf("expected exactly one constructor argument (the scalar), got %d", len(cast.Args))
	}
}

// ----------------------------------------------------------------------------
// Flags plumbing
// ----------------------------------------------------------------------------

func TestRewriteNoopWhenFlagsZero(t *testing.T) {
	m := newModule()
	call := &ast.CallExpr{Name: "log10", Intrinsic: intrinsic.Log10, Args: []ast.Expr{floatLit("2.0")}}
	result := rewriteSingleExprOn(t, m, emptyTypeInfo(), 0, call)
	if _, ok := result.(*ast.CallExpr); !ok {
		t.Errorf("expected Rewrite with zero flags to leave the call untouched, got %#v", result)
	}
}

func TestFlagsHasRequiresEveryBit(t *testing.T) {
	f := ConvertLog10 | ConvertVectorCompare
	if !f.Has(ConvertLog10) {
		t.Error("expected Has to report true for a subset bit")
	}
	if f.Has(ConvertImageAccess) {
		t.Error("expected Has to report false for an unset bit")
	}
	if !f.Has(ConvertLog10 | ConvertVectorCompare) {
		t.Error("expected Has to report true when every requested bit is set")
	}
}
