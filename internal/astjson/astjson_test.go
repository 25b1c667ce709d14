package astjson

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"codeberg.org/saruga/shaderxc/internal/ast"
)

// buildSampleModule hand-constructs a module exercising every syntactic
// category the wire format covers: a uniform buffer struct, a read-write
// texture, a helper function with a for-loop and a ternary, and an entry
// point with a semantic-annotated parameter and return value.
func buildSampleModule() *ast.Module {
	m := ast.NewModule("", "sample.hlsl")
	m.EntryPointName = "VS"
	m.Stage = ast.StageVertex

	mvpRef := m.AddSymbol(ast.Symbol{OriginalName: "mvp", Kind: ast.SymbolVar})
	cbufRef := m.AddSymbol(ast.Symbol{OriginalName: "Transform", Kind: ast.SymbolStruct})
	cbuf := &ast.StructDecl{
		Name: cbufRef,
		Fields: []ast.StructField{
			{Name: mvpRef, Type: &ast.IdentType{Name: "float4x4"}},
		},
		IsConstantBuf: true,
		Register:      &ast.Register{Slot: "b0"},
	}

	helperRef := m.AddSymbol(ast.Symbol{OriginalName: "scaleBy", Kind: ast.SymbolFunction})
	paramRef := m.AddSymbol(ast.Symbol{OriginalName: "x", Kind: ast.SymbolParam, DeclIndex: -1})
	factorRef := m.AddSymbol(ast.Symbol{OriginalName: "factor", Kind: ast.SymbolParam, DeclIndex: -1})
	loopVarRef := m.AddSymbol(ast.Symbol{OriginalName: "i", Kind: ast.SymbolVar, DeclIndex: -1})

	helper := &ast.FunctionDecl{
		Name:       helperRef,
		Parameters: []ast.Param{{Name: paramRef, Type: &ast.IdentType{Name: "float"}}, {Name: factorRef, Type: &ast.IdentType{Name: "float"}}},
		ReturnType: &ast.IdentType{Name: "float"},
		Body: &ast.CompoundStmt{Stmts: []ast.Stmt{
			&ast.ForStmt{
				Init: &ast.DeclStmt{Decl: &ast.VarDecl{Name: loopVarRef, Type: &ast.IdentType{Name: "int"}, Initializer: &ast.LiteralExpr{Kind: ast.LitInt, Value: "0"}}},
				Condition: &ast.BinaryExpr{
					Op:  ast.BinLt,
					Lhs: &ast.ObjectExpr{Ident: "i"},
					Rhs: &ast.LiteralExpr{Kind: ast.LitInt, Value: "4"},
				},
				Update: &ast.ExprStmt{Expr: &ast.UnaryExpr{Op: ast.UnaryPostIncr, Operand: &ast.ObjectExpr{Ident: "i"}, IsPost: true}},
				Body:   &ast.CompoundStmt{},
			},
			&ast.ReturnStmt{Value: &ast.TernaryExpr{
				Cond: &ast.BinaryExpr{Op: ast.BinGt, Lhs: &ast.ObjectExpr{Ident: "factor"}, Rhs: &ast.LiteralExpr{Kind: ast.LitFloat, Value: "0.0"}},
				Then: &ast.BinaryExpr{Op: ast.BinMul, Lhs: &ast.ObjectExpr{Ident: "x"}, Rhs: &ast.ObjectExpr{Ident: "factor"}},
				Else: &ast.ObjectExpr{Ident: "x"},
			}},
		}},
	}

	posInRef := m.AddSymbol(ast.Symbol{OriginalName: "pos", Kind: ast.SymbolParam, DeclIndex: -1})
	entryRef := m.AddSymbol(ast.Symbol{OriginalName: "VS", Kind: ast.SymbolFunction})
	entry := &ast.FunctionDecl{
		Name: entryRef,
		Parameters: []ast.Param{
			{Name: posInRef, Type: &ast.IdentType{Name: "float3"}, Semantic: &ast.Semantic{Name: "POSITION"}},
		},
		ReturnType:     &ast.IdentType{Name: "float4"},
		ReturnSemantic: &ast.Semantic{Name: "SV_Position"},
		Attributes:     []ast.Attribute{{Name: "earlydepthstencil"}},
		Body: &ast.CompoundStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.CastExpr{
				Target: &ast.IdentType{Name: "float4"},
				Args: []ast.Expr{
					&ast.ObjectExpr{Ident: "pos"},
					&ast.LiteralExpr{Kind: ast.LitFloat, Value: "1.0"},
				},
			}},
		}},
	}
	entry.Flags().IsEntryPoint = true

	m.Declarations = append(m.Declarations, cbuf, helper, entry)
	return m
}

// TestRoundTripPreservesWireShape checks that Decode(Encode(m)) re-encodes
// to byte-identical JSON: the invariant every real caller (CLI, c-archive,
// WASM) depends on when it feeds a JSON document through this package and
// expects to get the same tree back out. go-cmp diffs the two decoded
// ModuleDoc values directly instead of only comparing marshaled bytes, so a
// failure here points at exactly which field regressed rather than just
// "the JSON differs".
func TestRoundTripPreservesWireShape(t *testing.T) {
	m := buildSampleModule()

	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	data2, err := Encode(decoded)
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}

	var first, second ModuleDoc
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("unmarshal first pass: %v", err)
	}
	if err := json.Unmarshal(data2, &second); err != nil {
		t.Fatalf("unmarshal second pass: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("round trip changed the wire document (-first +second):\n%s", diff)
	}
}

// TestDecodeRejectsUnknownDiscriminator exercises the discriminated-union
// error path: an unrecognized "kind" tag on any syntactic category must
// fail decode rather than silently producing a zero-value node.
func TestDecodeRejectsUnknownDiscriminator(t *testing.T) {
	doc := `{"declarations":[{"kind":"enum","name":"Bogus"}]}`
	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatal("expected an error for an unknown decl kind, got nil")
	}
}

// TestDecodeEntryPointFlagSurvivesRoundTrip isolates the one boolean that
// Analyze's entry-point lookup depends on (see analyzer.findEntryPoint):
// a function's isEntryPoint wire flag must decode onto Flags().IsEntryPoint.
func TestDecodeEntryPointFlagSurvivesRoundTrip(t *testing.T) {
	m := buildSampleModule()
	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	var entryCount int
	for _, d := range decoded.Declarations {
		fn, ok := d.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		if fn.Flags().IsEntryPoint {
			entryCount++
			if decoded.Name(fn.Name) != "VS" {
				t.Errorf("expected the entry point to be named VS, got %q", decoded.Name(fn.Name))
			}
		}
	}
	if entryCount != 1 {
		t.Errorf("expected exactly one entry point after round trip, got %d", entryCount)
	}
}
