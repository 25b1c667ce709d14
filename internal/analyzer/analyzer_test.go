package analyzer

import (
	"strings"
	"testing"

	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/diagnostic"
)

// ----------------------------------------------------------------------------
// Fixture helpers — no lexer/parser in this repo, so every test hand-builds
// the Module a parser would have produced, using bare unresolved identifiers
// to exercise Analyze's own scope-lookup name binding.
// ----------------------------------------------------------------------------

func ident(name string) *ast.IdentType { return &ast.IdentType{Name: name} }

func ob(name string) *ast.ObjectExpr { return &ast.ObjectExpr{Ident: name} }

func intLit(v string) *ast.LiteralExpr { return &ast.LiteralExpr{Kind: ast.LitInt, Value: v} }

func localDecl(m *ast.Module, name string, typeName string, init ast.Expr) *ast.DeclStmt {
	ref := m.AddSymbol(ast.Symbol{OriginalName: name, Kind: ast.SymbolVar, DeclIndex: -1})
	return &ast.DeclStmt{Decl: &ast.VarDecl{Name: ref, Type: ident(typeName), Initializer: init}}
}

// fn builds a single void entry-point function with the given body, wired
// up the same way bindDeclarations expects a top-level FunctionDecl to be.
func fn(retType string, stmts ...ast.Stmt) *ast.Module {
	m := ast.NewModule("", "test.hlsl")
	name := m.AddSymbol(ast.Symbol{OriginalName: "main", Kind: ast.SymbolFunction})
	decl := &ast.FunctionDecl{
		Name:       name,
		ReturnType: ident(retType),
		Body:       &ast.CompoundStmt{Stmts: stmts},
	}
	decl.Flags().IsEntryPoint = true
	m.Declarations = append(m.Declarations, decl)
	return m
}

func analyze(m *ast.Module) *Result {
	return Analyze(m, Options{})
}

// ----------------------------------------------------------------------------
// Phase 1/3 — name binding and undeclared-identifier reporting
// ----------------------------------------------------------------------------

func TestUndeclaredIdentifierReportsError(t *testing.T) {
	m := fn("void", &ast.ExprStmt{Expr: ob("nope")})
	res := analyze(m)
	if res.Valid {
		t.Fatal("expected analysis to fail on an undeclared identifier")
	}
	found := false
	for _, d := range res.Diagnostics.Diagnostics() {
		if strings.Contains(d.Message, "undeclared identifier 'nope'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an undeclared-identifier diagnostic, got: %v", res.Diagnostics.Diagnostics())
	}
}

func TestUndeclaredIdentifierSuggestsCloseMatch(t *testing.T) {
	// "colour" is a typo one edit away from a variable actually in scope,
	// "color" — close enough that fetchSimilarIdent should propose it.
	m := fn("void")
	body := m.Declarations[0].(*ast.FunctionDecl).Body
	cDecl := localDecl(m, "color", "float", nil)
	use := &ast.ExprStmt{Expr: ob("colour")}
	body.Stmts = []ast.Stmt{cDecl, use}

	res := analyze(m)
	if res.Valid {
		t.Fatal("expected analysis to fail on the undeclared 'colour'")
	}
	found := false
	for _, d := range res.Diagnostics.Diagnostics() {
		if strings.Contains(d.Message, "did you mean 'color'?") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 'did you mean' suggestion, got: %v", res.Diagnostics.Diagnostics())
	}
}

// ----------------------------------------------------------------------------
// Phase 3 — type checking
// ----------------------------------------------------------------------------

func TestVarDeclScalarSplatInitializerSucceeds(t *testing.T) {
	// int -> float3 is a scalar-splat-after-promotion case, which IS
	// castable under Base.IsCastableTo's vector-splat rule.
	m := fn("void")
	body := m.Declarations[0].(*ast.FunctionDecl).Body
	decl := localDecl(m, "count", "float3", intLit("3"))
	body.Stmts = []ast.Stmt{decl}

	res := analyze(m)
	if !res.Valid {
		t.Fatalf("expected int -> float3 splat-initialization to type-check, got: %v", res.Diagnostics.Diagnostics())
	}
}

func TestVarDeclInitializerShapeMismatchReportsError(t *testing.T) {
	m := fn("void")
	body := m.Declarations[0].(*ast.FunctionDecl).Body
	mDecl := &ast.VarDecl{
		Name:        m.AddSymbol(ast.Symbol{OriginalName: "m", Kind: ast.SymbolVar, DeclIndex: -1}),
		Type:        ident("float4x4"),
		Initializer: &ast.CastExpr{Target: ident("float3")},
	}
	body.Stmts = []ast.Stmt{&ast.DeclStmt{Decl: mDecl}}

	res := analyze(m)
	if res.Valid {
		t.Fatal("expected float4x4 <- float3 initializer to fail type-checking")
	}
}

func TestMissingReturnValueReportsError(t *testing.T) {
	m := fn("float", &ast.ReturnStmt{})
	res := analyze(m)
	if res.Valid {
		t.Fatal("expected a bare 'return;' in a float-returning function to fail")
	}
	found := false
	for _, d := range res.Diagnostics.Diagnostics() {
		if strings.Contains(d.Message, "missing return value") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a missing-return-value diagnostic, got: %v", res.Diagnostics.Diagnostics())
	}
}

func TestReturnValueMatchingTypeSucceeds(t *testing.T) {
	m := fn("float", &ast.ReturnStmt{Value: &ast.LiteralExpr{Kind: ast.LitFloat, Value: "1.0"}})
	res := analyze(m)
	if !res.Valid {
		t.Fatalf("expected a matching return type to succeed, got: %v", res.Diagnostics.Diagnostics())
	}
}

func TestBreakOutsideLoopOrSwitchReportsError(t *testing.T) {
	m := fn("void", &ast.ControlTransferStmt{Kind: ast.CtrlBreak})
	res := analyze(m)
	if res.Valid {
		t.Fatal("expected a bare 'break;' outside any loop/switch to fail")
	}
	found := false
	for _, d := range res.Diagnostics.Diagnostics() {
		if strings.Contains(d.Message, "break/continue outside of a loop or switch") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a break-outside-loop diagnostic, got: %v", res.Diagnostics.Diagnostics())
	}
}

func TestBreakInsideForLoopSucceeds(t *testing.T) {
	forStmt := &ast.ForStmt{
		Body: &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ControlTransferStmt{Kind: ast.CtrlBreak}}},
	}
	m := fn("void", forStmt)
	res := analyze(m)
	if !res.Valid {
		t.Fatalf("expected 'break;' inside a for-loop to succeed, got: %v", res.Diagnostics.Diagnostics())
	}
}

func TestCaseLabelMustBeConstantExpression(t *testing.T) {
	m := fn("void")
	body := m.Declarations[0].(*ast.FunctionDecl).Body
	xDecl := localDecl(m, "x", "int", intLit("1"))
	sw := &ast.SwitchStmt{
		Selector: ob("x"),
		Cases: []ast.SwitchCase{
			{Selectors: []ast.Expr{ob("x")}}, // not a constant expression
		},
	}
	body.Stmts = []ast.Stmt{xDecl, sw}

	res := analyze(m)
	if res.Valid {
		t.Fatal("expected a non-constant case selector to fail")
	}
	found := false
	for _, d := range res.Diagnostics.Diagnostics() {
		if strings.Contains(d.Message, "case label is not a constant expression") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a non-constant-case-label diagnostic, got: %v", res.Diagnostics.Diagnostics())
	}
}

func TestCaseLabelConstantLiteralSucceeds(t *testing.T) {
	m := fn("void")
	body := m.Declarations[0].(*ast.FunctionDecl).Body
	xDecl := localDecl(m, "x", "int", intLit("1"))
	sw := &ast.SwitchStmt{
		Selector: ob("x"),
		Cases: []ast.SwitchCase{
			{Selectors: []ast.Expr{intLit("1")}},
		},
	}
	body.Stmts = []ast.Stmt{xDecl, sw}

	res := analyze(m)
	if !res.Valid {
		t.Fatalf("expected a literal case selector to succeed, got: %v", res.Diagnostics.Diagnostics())
	}
}

// ----------------------------------------------------------------------------
// Phase 5 — unused-symbol warnings
// ----------------------------------------------------------------------------

func TestUnusedLocalVariableWarnsButStillSucceeds(t *testing.T) {
	m := fn("void")
	body := m.Declarations[0].(*ast.FunctionDecl).Body
	decl := localDecl(m, "k", "int", intLit("3"))
	body.Stmts = []ast.Stmt{decl}

	res := analyze(m)
	if !res.Valid {
		t.Fatalf("expected a warnings-only result to still be Valid, got: %v", res.Diagnostics.Diagnostics())
	}
	found := false
	for _, d := range res.Diagnostics.Diagnostics() {
		if strings.Contains(d.Message, "'k'") && strings.Contains(d.Message, "never read") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unused-variable warning for 'k', got: %v", res.Diagnostics.Diagnostics())
	}
}

func TestReadLocalVariableDoesNotWarn(t *testing.T) {
	m := fn("void")
	body := m.Declarations[0].(*ast.FunctionDecl).Body
	decl := localDecl(m, "k", "int", intLit("3"))
	use := &ast.ExprStmt{Expr: ob("k")}
	body.Stmts = []ast.Stmt{decl, use}

	res := analyze(m)
	if !res.Valid {
		t.Fatalf("expected the compile to succeed, got: %v", res.Diagnostics.Diagnostics())
	}
	for _, d := range res.Diagnostics.Diagnostics() {
		if strings.Contains(d.Message, "never read") {
			t.Errorf("expected no unused-variable warning once 'k' is read, got: %v", res.Diagnostics.Diagnostics())
		}
	}
}

// ----------------------------------------------------------------------------
// StrictMode — warnings escalate to errors
// ----------------------------------------------------------------------------

func TestStrictModeEscalatesUnusedWarningToError(t *testing.T) {
	m := fn("void")
	body := m.Declarations[0].(*ast.FunctionDecl).Body
	decl := localDecl(m, "k", "int", intLit("3"))
	body.Stmts = []ast.Stmt{decl}

	res := Analyze(m, Options{StrictMode: true})
	if res.Valid {
		t.Fatal("expected StrictMode to escalate the unused-variable warning into a hard error")
	}
}

// ----------------------------------------------------------------------------
// Overload resolution — ambiguity
// ----------------------------------------------------------------------------

// TestAmbiguousExactMatchOverloadsReportError builds two top-level
// functions sharing a name and an identical single-float parameter, so a
// call with a float argument matches both exactly (zero casts each). Per
// §4.1 this must be reported as an ambiguous-overload error rather than
// silently resolving to whichever declaration came first.
func TestAmbiguousExactMatchOverloadsReportError(t *testing.T) {
	m := ast.NewModule("", "test.hlsl")

	p1 := m.AddSymbol(ast.Symbol{OriginalName: "x", Kind: ast.SymbolParam, DeclIndex: -1})
	f1Ref := m.AddSymbol(ast.Symbol{OriginalName: "pick", Kind: ast.SymbolFunction})
	f1 := &ast.FunctionDecl{
		Name:       f1Ref,
		Parameters: []ast.Param{{Name: p1, Type: ident("float")}},
		ReturnType: ident("float"),
		Body:       &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: ob("x")}}},
	}

	p2 := m.AddSymbol(ast.Symbol{OriginalName: "x", Kind: ast.SymbolParam, DeclIndex: -1})
	f2Ref := m.AddSymbol(ast.Symbol{OriginalName: "pick", Kind: ast.SymbolFunction})
	f2 := &ast.FunctionDecl{
		Name:       f2Ref,
		Parameters: []ast.Param{{Name: p2, Type: ident("float")}},
		ReturnType: ident("float"),
		Body:       &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: ob("x")}}},
	}

	entryRef := m.AddSymbol(ast.Symbol{OriginalName: "main", Kind: ast.SymbolFunction})
	entry := &ast.FunctionDecl{
		Name:       entryRef,
		ReturnType: ident("void"),
		Body: &ast.CompoundStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.CallExpr{Name: "pick", Args: []ast.Expr{&ast.LiteralExpr{Kind: ast.LitFloat, Value: "1.0"}}}},
		}},
	}
	entry.Flags().IsEntryPoint = true

	m.Declarations = append(m.Declarations, f1, f2, entry)

	res := Analyze(m, Options{})
	if res.Valid {
		t.Fatal("expected analysis to fail on an ambiguous call to 'pick'")
	}
	found := false
	for _, d := range res.Diagnostics.Diagnostics() {
		if strings.Contains(d.Message, "ambiguous") && strings.Contains(d.Message, "pick") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an ambiguous-overload diagnostic naming 'pick', got: %v", res.Diagnostics.Diagnostics())
	}
}

// TestImplicitCastTieBreaksByEarliestDeclarationWithoutError is the
// negative case for the rule above: two candidates tied on cast count but
// NOT on exact-match (both require one implicit cast) resolve silently to
// the earliest declaration per §3.3's tie-break rule, with no ambiguity
// diagnostic.
func TestImplicitCastTieBreaksByEarliestDeclarationWithoutError(t *testing.T) {
	m := ast.NewModule("", "test.hlsl")

	p1 := m.AddSymbol(ast.Symbol{OriginalName: "x", Kind: ast.SymbolParam, DeclIndex: -1})
	f1Ref := m.AddSymbol(ast.Symbol{OriginalName: "widen", Kind: ast.SymbolFunction})
	f1 := &ast.FunctionDecl{
		Name:       f1Ref,
		Parameters: []ast.Param{{Name: p1, Type: ident("float3")}},
		ReturnType: ident("float3"),
		Body:       &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: ob("x")}}},
	}

	p2 := m.AddSymbol(ast.Symbol{OriginalName: "x", Kind: ast.SymbolParam, DeclIndex: -1})
	f2Ref := m.AddSymbol(ast.Symbol{OriginalName: "widen", Kind: ast.SymbolFunction})
	f2 := &ast.FunctionDecl{
		Name:       f2Ref,
		Parameters: []ast.Param{{Name: p2, Type: ident("float4")}},
		ReturnType: ident("float4"),
		Body:       &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: ob("x")}}},
	}

	entryRef := m.AddSymbol(ast.Symbol{OriginalName: "main", Kind: ast.SymbolFunction})
	entry := &ast.FunctionDecl{
		Name:       entryRef,
		ReturnType: ident("void"),
		Body: &ast.CompoundStmt{Stmts: []ast.Stmt{
			// A scalar argument splats to either float3 or float4 at one
			// implicit cast each — tied, but not an exact match, so this
			// must resolve (to f1, the earliest declaration) rather than
			// error.
			&ast.ExprStmt{Expr: &ast.CallExpr{Name: "widen", Args: []ast.Expr{&ast.LiteralExpr{Kind: ast.LitFloat, Value: "1.0"}}}},
		}},
	}
	entry.Flags().IsEntryPoint = true

	m.Declarations = append(m.Declarations, f1, f2, entry)

	res := Analyze(m, Options{})
	if !res.Valid {
		t.Fatalf("expected an implicit-cast tie to resolve without error, got: %v", res.Diagnostics.Diagnostics())
	}
	for _, d := range res.Diagnostics.Diagnostics() {
		if strings.Contains(d.Message, "ambiguous") {
			t.Errorf("implicit-cast ties must not be reported as ambiguous, got: %v", res.Diagnostics.Diagnostics())
		}
	}
}

// TestIntrinsicCallWrongArgCountReportsError covers §7's "wrong argument
// count" type-error kind and §3.3's [min_args, max_args] window: sin takes
// exactly one argument, so sin(x, x) must fail to type-check with
// CodeInvalidArgCount rather than silently folding elementwiseCommonType
// over the extra argument.
func TestIntrinsicCallWrongArgCountReportsError(t *testing.T) {
	m := ast.NewModule("", "test.hlsl")

	p := m.AddSymbol(ast.Symbol{OriginalName: "x", Kind: ast.SymbolParam, DeclIndex: -1})
	entryRef := m.AddSymbol(ast.Symbol{OriginalName: "main", Kind: ast.SymbolFunction})
	entry := &ast.FunctionDecl{
		Name:       entryRef,
		Parameters: []ast.Param{{Name: p, Type: ident("float")}},
		ReturnType: ident("void"),
		Body: &ast.CompoundStmt{Stmts: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.CallExpr{Name: "sin", Args: []ast.Expr{ob("x"), ob("x")}}},
		}},
	}
	entry.Flags().IsEntryPoint = true
	m.Declarations = append(m.Declarations, entry)

	res := Analyze(m, Options{})
	if res.Valid {
		t.Fatalf("expected sin(x, x) to fail with a wrong-argument-count error")
	}
	var found bool
	for _, d := range res.Diagnostics.Diagnostics() {
		if d.Code == string(diagnostic.CodeInvalidArgCount) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a CodeInvalidArgCount diagnostic, got: %v", res.Diagnostics.Diagnostics())
	}
}

// ----------------------------------------------------------------------------
// Reachability — UsedIntrinsics must reflect only reachable calls
// ----------------------------------------------------------------------------

// TestUsedIntrinsicsExcludesCallsFromUnreachableFunctions builds a helper
// function that is never called from the entry point and calls an
// intrinsic; that intrinsic must not end up in Module.UsedIntrinsics, per
// SPEC_FULL.md invariant 5 ("present in usedIntrinsics iff referenced by
// some reachable call").
func TestUsedIntrinsicsExcludesCallsFromUnreachableFunctions(t *testing.T) {
	m := ast.NewModule("", "test.hlsl")

	p1 := m.AddSymbol(ast.Symbol{OriginalName: "x", Kind: ast.SymbolParam, DeclIndex: -1})
	deadRef := m.AddSymbol(ast.Symbol{OriginalName: "dead", Kind: ast.SymbolFunction})
	dead := &ast.FunctionDecl{
		Name:       deadRef,
		Parameters: []ast.Param{{Name: p1, Type: ident("float")}},
		ReturnType: ident("float"),
		Body: &ast.CompoundStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.CallExpr{Name: "sin", Args: []ast.Expr{ob("x")}}},
		}},
	}

	entryRef := m.AddSymbol(ast.Symbol{OriginalName: "main", Kind: ast.SymbolFunction})
	entry := &ast.FunctionDecl{
		Name:       entryRef,
		ReturnType: ident("void"),
		Body:       &ast.CompoundStmt{},
	}
	entry.Flags().IsEntryPoint = true

	m.Declarations = append(m.Declarations, dead, entry)

	res := Analyze(m, Options{})
	if !res.Valid {
		t.Fatalf("expected analysis to succeed, got: %v", res.Diagnostics.Diagnostics())
	}
	if m.UsedIntrinsics["sin"] {
		t.Error("expected 'sin' to be absent from UsedIntrinsics since it's only called from an unreachable function")
	}
}
