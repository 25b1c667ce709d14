package api

import (
	"strings"
	"testing"

	"codeberg.org/saruga/shaderxc/internal/ast"
)

// Fixture helpers mirror internal/compiler's test fixtures: this repo owns
// no HLSL lexer/parser, so a caller of pkg/api always supplies an
// already-built *ast.Module, exactly as these tests do.

func ident(name string) *ast.IdentType { return &ast.IdentType{Name: name} }

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

func localDecl(m *ast.Module, name, typeName string, init ast.Expr) *ast.DeclStmt {
	ref := m.AddSymbol(ast.Symbol{OriginalName: name, Kind: ast.SymbolVar, DeclIndex: -1})
	return &ast.DeclStmt{Decl: &ast.VarDecl{Name: ref, Type: ident(typeName), Initializer: init}}
}

func TestCompileProducesGLSLForLog10Lowering(t *testing.T) {
	m := entryModule()
	xDecl := localDecl(m, "x", "float", &ast.LiteralExpr{Kind: ast.LitFloat, Value: "2.0"})
	log10Call := &ast.CallExpr{Name: "log10", Args: []ast.Expr{&ast.ObjectExpr{Ident: "x"}}}
	yDecl := localDecl(m, "y", "float", log10Call)
	m.Declarations[0].(*ast.FunctionDecl).Body.Stmts = []ast.Stmt{xDecl, yDecl}

	result := Compile(m)
	if !result.Success {
		t.Fatalf("expected a successful compile, got diagnostics: %v", result.Diagnostics)
	}
	if !strings.Contains(result.Code, "(log(x) / log(10.0))") {
		t.Errorf("expected log10(x) lowered in the emitted code, got:\n%s", result.Code)
	}
}

func TestCompileDiscardsOutputOnError(t *testing.T) {
	m := entryModule()
	badDecl := localDecl(m, "k", "int", &ast.ObjectExpr{Ident: "undeclaredThing"})
	m.Declarations[0].(*ast.FunctionDecl).Body.Stmts = []ast.Stmt{badDecl}

	result := Compile(m)
	if result.Success {
		t.Fatalf("expected compile to fail on an undeclared identifier")
	}
	if result.Code != "" {
		t.Errorf("expected no emitted code on failure, got:\n%s", result.Code)
	}
	if len(result.Diagnostics) == 0 {
		t.Errorf("expected at least one diagnostic reporting the undeclared identifier")
	}
}

func TestReflectReportsUniformBufferBinding(t *testing.T) {
	m := ast.NewModule("", "test.hlsl")
	structName := m.AddSymbol(ast.Symbol{OriginalName: "Scene", Kind: ast.SymbolStruct})
	fieldName := m.AddSymbol(ast.Symbol{OriginalName: "tint", Kind: ast.SymbolStructField, DeclIndex: -1})
	m.Declarations = append(m.Declarations, &ast.StructDecl{
		Name:          structName,
		Fields:        []ast.StructField{{Name: fieldName, Type: ident("float4")}},
		IsConstantBuf: true,
		Register:      &ast.Register{Slot: "b0"},
	})

	result := Reflect(m)
	if len(result.Diagnostics) > 0 {
		t.Fatalf("unexpected reflect diagnostics: %v", result.Diagnostics)
	}
	if len(result.UniformBufferBindings) != 1 {
		t.Fatalf("expected 1 uniform buffer binding, got %d", len(result.UniformBufferBindings))
	}
	if result.UniformBufferBindings[0].Name != "Scene" {
		t.Errorf("expected binding name 'Scene', got %q", result.UniformBufferBindings[0].Name)
	}
	if layout, ok := result.Structs["Scene"]; !ok || layout.Size != 16 {
		t.Errorf("expected a 16-byte Scene layout, got %+v", result.Structs["Scene"])
	}
}
