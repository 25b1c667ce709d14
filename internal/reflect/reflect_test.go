package reflect

import (
	"testing"

	"codeberg.org/saruga/shaderxc/internal/analyzer"
	"codeberg.org/saruga/shaderxc/internal/ast"
)

func ident(name string) *ast.IdentType { return &ast.IdentType{Name: name} }

// cbufferModule builds a module declaring one constant buffer struct bound
// to register b0, mirroring how internal/compiler's fixtures hand-build a
// Module in place of a parser.
func cbufferModule() *ast.Module {
	m := ast.NewModule("", "test.hlsl")
	structName := m.AddSymbol(ast.Symbol{OriginalName: "Scene", Kind: ast.SymbolStruct})
	posField := m.AddSymbol(ast.Symbol{OriginalName: "position", Kind: ast.SymbolStructField, DeclIndex: -1})
	colorField := m.AddSymbol(ast.Symbol{OriginalName: "tint", Kind: ast.SymbolStructField, DeclIndex: -1})
	m.Declarations = append(m.Declarations, &ast.StructDecl{
		Name: structName,
		Fields: []ast.StructField{
			{Name: posField, Type: ident("float3")},
			{Name: colorField, Type: ident("float4")},
		},
		IsConstantBuf: true,
		Register:      &ast.Register{Slot: "b0", Space: 0},
	})
	return m
}

func TestReflectComputesStructLayoutWithVec3Padding(t *testing.T) {
	m := cbufferModule()
	result := Reflect(m)

	layout, ok := result.Structs["Scene"]
	if !ok {
		t.Fatalf("expected a layout for struct Scene, got: %+v", result.Structs)
	}
	if len(layout.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(layout.Fields))
	}
	if layout.Fields[0].Offset != 0 || layout.Fields[0].Size != 12 {
		t.Errorf("expected position at offset 0 size 12 (vec3), got offset=%d size=%d",
			layout.Fields[0].Offset, layout.Fields[0].Size)
	}
	// float4 after a float3 must start at the vec4-rounded offset 16, not 12,
	// per std140's "vec3 aligns like vec4" rule.
	if layout.Fields[1].Offset != 16 {
		t.Errorf("expected tint at offset 16 (past vec3's vec4 alignment), got offset=%d", layout.Fields[1].Offset)
	}
	if layout.Size != 32 {
		t.Errorf("expected struct size 32, got %d", layout.Size)
	}
}

func TestReflectUniformBufferBindingCarriesRegisterSlot(t *testing.T) {
	m := cbufferModule()
	result := Reflect(m)

	if len(result.UniformBufferBindings) != 1 {
		t.Fatalf("expected 1 uniform buffer binding, got %d", len(result.UniformBufferBindings))
	}
	b := result.UniformBufferBindings[0]
	if b.Name != "Scene" || b.Slot != 0 || b.Space != 0 {
		t.Errorf("expected binding {Scene, slot 0, space 0}, got %+v", b)
	}
	if b.Layout == nil || b.Layout.Size != 32 {
		t.Errorf("expected the binding to carry the computed struct layout, got %+v", b.Layout)
	}
}

func TestReflectTextureBindingParsesRegisterSlot(t *testing.T) {
	m := ast.NewModule("", "test.hlsl")
	texName := m.AddSymbol(ast.Symbol{OriginalName: "AlbedoMap", Kind: ast.SymbolBuffer})
	m.Declarations = append(m.Declarations, &ast.BufferDecl{
		Name:     texName,
		Kind:     ast.BufferTexture2D,
		ElemType: ident("float4"),
		Register: &ast.Register{Slot: "t3", Space: 1},
	})

	result := Reflect(m)
	if len(result.TextureBindings) != 1 {
		t.Fatalf("expected 1 texture binding, got %d", len(result.TextureBindings))
	}
	b := result.TextureBindings[0]
	if b.Name != "AlbedoMap" || b.Slot != 3 || b.Space != 1 || b.Kind != "texture2d" {
		t.Errorf("expected {AlbedoMap, slot 3, space 1, texture2d}, got %+v", b)
	}
}

func TestReflectComputeEntryPointReportsWorkgroupSize(t *testing.T) {
	m := ast.NewModule("", "test.hlsl")
	m.Stage = ast.StageCompute
	m.EntryPointName = "CSMain"
	entryName := m.AddSymbol(ast.Symbol{OriginalName: "CSMain", Kind: ast.SymbolFunction})
	entry := &ast.FunctionDecl{
		Name:       entryName,
		ReturnType: ident("void"),
		Attributes: []ast.Attribute{
			{Name: "numthreads", Args: []ast.Expr{
				&ast.LiteralExpr{Kind: ast.LitInt, Value: "8"},
				&ast.LiteralExpr{Kind: ast.LitInt, Value: "4"},
				&ast.LiteralExpr{Kind: ast.LitInt, Value: "1"},
			}},
		},
		Body: &ast.CompoundStmt{},
	}
	entry.Flags().IsEntryPoint = true
	m.Declarations = append(m.Declarations, entry)

	result := Reflect(m)
	if len(result.EntryPoints) != 1 {
		t.Fatalf("expected 1 entry point, got %d", len(result.EntryPoints))
	}
	ep := result.EntryPoints[0]
	if ep.Name != "CSMain" || ep.Stage != "compute" {
		t.Errorf("expected {CSMain, compute}, got %+v", ep)
	}
	if len(ep.WorkgroupSize) != 3 || ep.WorkgroupSize[0] != 8 || ep.WorkgroupSize[1] != 4 || ep.WorkgroupSize[2] != 1 {
		t.Errorf("expected workgroup size [8 4 1], got %v", ep.WorkgroupSize)
	}
}

func TestReflectModuleReusesAnalyzeResult(t *testing.T) {
	m := cbufferModule()
	analyzeResult := analyzer.Analyze(m, analyzer.Options{})
	if !analyzeResult.Valid {
		t.Fatalf("expected a valid analysis, got: %v", analyzeResult.Diagnostics.Diagnostics())
	}
	result := ReflectModule(m, analyzeResult.TypeInfo)
	if _, ok := result.Structs["Scene"]; !ok {
		t.Errorf("expected ReflectModule to compute the Scene layout from the supplied TypeInfo")
	}
}
