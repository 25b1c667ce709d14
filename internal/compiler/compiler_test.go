package compiler

import (
	"context"
	"strings"
	"testing"

	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/diagnostic"
)

// ----------------------------------------------------------------------------
// Fixture helpers — no lexer/parser in this repo, so every end-to-end test
// hand-builds a Module the way a parser would have produced one, then lets
// Compile run Analyze -> Rewrite -> Emit exactly as a real caller would.
// ----------------------------------------------------------------------------

func ident(name string) *ast.IdentType { return &ast.IdentType{Name: name} }

func ob(name string) *ast.ObjectExpr { return &ast.ObjectExpr{Ident: name} }

func floatLit(v string) *ast.LiteralExpr { return &ast.LiteralExpr{Kind: ast.LitFloat, Value: v} }

// entryModule builds a module with a single parameterless void entry-point
// function whose body is the given statements, suitable for exercising the
// analyzer's name-binding-by-scope-lookup path end to end (every ObjectExpr
// below is a bare, unresolved identifier — exactly what a parser emits).
func entryModule(stmts ...ast.Stmt) *ast.Module {
	m := ast.NewModule("", "test.hlsl")
	entryName := m.AddSymbol(ast.Symbol{OriginalName: "main", Kind: ast.SymbolFunction})
	entry := &ast.FunctionDecl{
		Name:       entryName,
		ReturnType: ident("void"),
		Body:       &ast.CompoundStmt{Stmts: stmts},
	}
	entry.Flags().IsEntryPoint = true
	m.Declarations = append(m.Declarations, entry)
	return m
}

func localDecl(m *ast.Module, name string, typeName string, init ast.Expr) *ast.DeclStmt {
	// DeclIndex -1 marks a locally scoped symbol, matching what
	// checkLocalDecl/checkUnusedSymbols expect a non-top-level var to carry
	// (see ast.Symbol.DeclIndex's doc comment).
	ref := m.AddSymbol(ast.Symbol{OriginalName: name, Kind: ast.SymbolVar, DeclIndex: -1})
	return &ast.DeclStmt{Decl: &ast.VarDecl{Name: ref, Type: ident(typeName), Initializer: init}}
}

func compile(t *testing.T, m *ast.Module) ShaderOutput {
	t.Helper()
	out, err := Compile(context.Background(), ShaderInput{Module: m}, Options{})
	if err != nil {
		t.Fatalf("Compile returned an error: %v", err)
	}
	if !out.Success {
		t.Fatalf("expected a successful compile, got diagnostics: %v", out.Diagnostics)
	}
	return out
}

// ----------------------------------------------------------------------------
// Scenario 1 — vector comparison
// ----------------------------------------------------------------------------

func TestEndToEndVectorComparisonLowersToLessThan(t *testing.T) {
	m := entryModule()
	aDecl := localDecl(m, "a", "float4", nil)
	bDecl := localDecl(m, "b", "float4", nil)
	cmp := &ast.BinaryExpr{Op: ast.BinLt, Lhs: ob("a"), Rhs: ob("b")}
	cDecl := localDecl(m, "c", "bool4", cmp)
	m.Declarations[0].(*ast.FunctionDecl).Body.Stmts = []ast.Stmt{aDecl, bDecl, cDecl}

	out := compile(t, m)
	if !strings.Contains(out.Code, "bvec4 c = lessThan(a, b);") {
		t.Errorf("expected lowered vector-comparison assignment, got:\n%s", out.Code)
	}
}

// ----------------------------------------------------------------------------
// Scenario 2 — log10 lowering
// ----------------------------------------------------------------------------

func TestEndToEndLog10Lowering(t *testing.T) {
	m := entryModule()
	xDecl := localDecl(m, "x", "float", floatLit("2.0"))
	log10Call := &ast.CallExpr{Name: "log10", Args: []ast.Expr{ob("x")}}
	yDecl := localDecl(m, "y", "float", log10Call)
	m.Declarations[0].(*ast.FunctionDecl).Body.Stmts = []ast.Stmt{xDecl, yDecl}

	out := compile(t, m)
	if !strings.Contains(out.Code, "float y = (log(x) / log(10.0));") {
		t.Errorf("expected log10(x) lowered to (log(x) / log(10.0)), got:\n%s", out.Code)
	}
}

// ----------------------------------------------------------------------------
// Scenario 4 — mul() row-major/column-major layout swap
// ----------------------------------------------------------------------------

func TestEndToEndMatrixMulLayoutSwap(t *testing.T) {
	m := entryModule()
	mDecl := localDecl(m, "M", "float4x4", nil)
	vDecl := localDecl(m, "v", "float4", nil)
	mulCall := &ast.CallExpr{Name: "mul", Args: []ast.Expr{ob("M"), ob("v")}}
	pDecl := localDecl(m, "p", "float4", mulCall)
	m.Declarations[0].(*ast.FunctionDecl).Body.Stmts = []ast.Stmt{mDecl, vDecl, pDecl}

	out := compile(t, m)
	if !strings.Contains(out.Code, "vec4 p = (v * M);") {
		t.Errorf("expected mul(M, v) under ConvertMatrixLayout to lower to (v * M), got:\n%s", out.Code)
	}
}

// ----------------------------------------------------------------------------
// Scenario 6 — unused-variable warning, compile still succeeds
// ----------------------------------------------------------------------------

func TestEndToEndUnusedVariableWarning(t *testing.T) {
	m := entryModule()
	kDecl := localDecl(m, "k", "int", &ast.LiteralExpr{Kind: ast.LitInt, Value: "3"})
	m.Declarations[0].(*ast.FunctionDecl).Body.Stmts = []ast.Stmt{kDecl}

	out, err := Compile(context.Background(), ShaderInput{Module: m}, Options{})
	if err != nil {
		t.Fatalf("Compile returned an error: %v", err)
	}
	if !out.Success {
		t.Fatalf("expected compile to still succeed on a warnings-only result, got: %v", out.Diagnostics)
	}
	var unusedWarnings int
	for _, d := range out.Diagnostics {
		if d.Severity == diagnostic.Warning && strings.Contains(d.Message, "k") {
			unusedWarnings++
		}
	}
	if unusedWarnings == 0 {
		t.Errorf("expected at least one warning mentioning the unused variable 'k', got diagnostics: %v", out.Diagnostics)
	}
}

// ----------------------------------------------------------------------------
// Error-handling policy — output is discarded on any error.
// ----------------------------------------------------------------------------

func TestEndToEndOutputDiscardedOnTypeError(t *testing.T) {
	m := entryModule()
	// `int k = undeclaredThing;` where undeclaredThing is never declared: an
	// undeclared-identifier error, which must discard all emitted output.
	badDecl := localDecl(m, "k", "int", ob("undeclaredThing"))
	m.Declarations[0].(*ast.FunctionDecl).Body.Stmts = []ast.Stmt{badDecl}

	out, err := Compile(context.Background(), ShaderInput{Module: m}, Options{})
	if err != nil {
		t.Fatalf("Compile returned an unexpected transport error: %v", err)
	}
	if out.Success {
		t.Fatalf("expected compile to fail on an undeclared identifier")
	}
	if out.Code != "" {
		t.Errorf("expected no emitted code on failure, got:\n%s", out.Code)
	}
	if len(out.Diagnostics) == 0 {
		t.Errorf("expected at least one diagnostic reporting the undeclared identifier")
	}
}
