package emitter

import (
	"fmt"
	"strings"

	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/types"
)

func (e *emitter) declTypeString(t ast.Type) string {
	if rt := e.resolveType(t); rt != nil {
		return glslTypeName(rt)
	}
	if it, ok := t.(*ast.IdentType); ok {
		return it.Name
	}
	return "float"
}

func (e *emitter) arrayDimsSuffix(dims []ast.ArrayDim) string {
	var b strings.Builder
	for _, d := range dims {
		if lit, ok := d.Size.(*ast.LiteralExpr); ok {
			b.WriteString("[" + lit.Value + "]")
		} else {
			b.WriteString("[]")
		}
	}
	return b.String()
}

// emitVarDecl renders a global variable: a loose uniform, a compile-time
// constant, or a plain initialized global. Resource-bound globals (buffers,
// samplers) are modeled by BufferDecl/SamplerDecl instead, so the Register
// field here (when present, e.g. a loose uniform with an explicit slot) is
// informational only — GLSL's `layout(binding=N)` qualifier is reserved for
// opaque/buffer-backed uniforms.
func (e *emitter) emitVarDecl(v *ast.VarDecl) {
	name := e.module.Name(v.Name)
	typeName := e.declTypeString(v.Type)
	qualifier := ""
	switch {
	case v.IsConst:
		qualifier = "const "
	case v.IsUniform:
		qualifier = "uniform "
	}
	line := fmt.Sprintf("%s%s %s%s", qualifier, typeName, name, e.arrayDimsSuffix(v.ArrayDims))
	if v.Initializer != nil {
		line += " = " + e.exprString(v.Initializer)
	}
	line += ";"
	e.writeLine(line)
}

// emitBufferDecl renders a resource buffer/texture as a GLSL sampler or
// image uniform with an explicit binding, per the combined-sampler
// simplification recorded in DESIGN.md (the companion SamplerDecl is never
// emitted; HLSL's separate sampler-state argument to .Sample()-style calls
// is dropped at the call site instead).
func (e *emitter) emitBufferDecl(b *ast.BufferDecl) {
	name := e.module.Name(b.Name)
	slot := e.registerSlot(b.Register)

	elem := e.resolveType(b.ElemType)
	resolved := types.Buffer{Kind: types.BufferKind(b.Kind), Elem: elem}
	glslType := glslSamplerName(resolved)

	if resolved.Kind.IsReadWrite() {
		format := imageFormatQualifier(elem)
		e.writeLine(fmt.Sprintf("layout(binding = %d%s) uniform %s %s;", slot, format, glslType, name))
		e.stats.TextureBindings = append(e.stats.TextureBindings, BindingInfo{Name: name, BindingIndex: slot})
		return
	}

	e.writeLine(fmt.Sprintf("layout(binding = %d) uniform %s %s;", slot, glslType, name))
	e.stats.TextureBindings = append(e.stats.TextureBindings, BindingInfo{Name: name, BindingIndex: slot})
}

// imageFormatQualifier guesses a GLSL image-format layout qualifier from a
// read-write buffer's generic element type; HLSL's RWTexture/RWBuffer
// declarations don't carry an explicit pixel format, so this is a
// best-effort default rather than a faithful translation (documented as a
// simplification in DESIGN.md).
func imageFormatQualifier(elem types.Type) string {
	if elem == nil {
		return ", rgba32f"
	}
	base, ok := elem.Aliased().(types.Base)
	if !ok {
		return ", rgba32f"
	}
	switch base.Elem {
	case types.Int:
		return ", rgba32i"
	case types.UInt:
		return ", rgba32ui"
	default:
		return ", rgba32f"
	}
}

// emitStructDecl renders either a plain struct type or, for a
// constant-buffer-backed struct, an anonymous GLSL interface block — chosen
// so the block's members land directly in the global namespace, matching
// HLSL cbuffer members being referenced unqualified (grounded on
// other_examples/.../glsl/struct_io_test.go's layout(location=N) emission
// pattern for the member-list shape, adapted here to a binding-qualified
// block instead of a location-qualified I/O list).
func (e *emitter) emitStructDecl(s *ast.StructDecl) {
	name := e.module.Name(s.Name)
	if s.IsConstantBuf {
		slot := e.registerSlot(s.Register)
		e.writeLine(fmt.Sprintf("layout(binding = %d, std140) uniform %s {", slot, name))
		e.indent++
		for _, f := range s.Fields {
			e.emitStructField(f)
		}
		e.indent--
		e.writeLine("};")
		e.stats.UniformBufferBindings = append(e.stats.UniformBufferBindings, BindingInfo{Name: name, BindingIndex: slot})
		return
	}

	e.writeLine(fmt.Sprintf("struct %s {", name))
	e.indent++
	for _, f := range s.Fields {
		e.emitStructField(f)
	}
	e.indent--
	e.writeLine("};")
}

func (e *emitter) emitStructField(f ast.StructField) {
	typeName := e.declTypeString(f.Type)
	name := e.module.Name(f.Name)
	e.writeLine(fmt.Sprintf("%s %s%s;", typeName, name, e.arrayDimsSuffix(f.ArrayDims)))
}

// emitFunctionDecl dispatches to the entry-point-flattening path or the
// ordinary-function path.
func (e *emitter) emitFunctionDecl(fn *ast.FunctionDecl) {
	if fn.Flags().IsEntryPoint {
		e.emitEntryPoint(fn)
		return
	}
	e.emitOrdinaryFunction(fn)
}

// emitOrdinaryFunction renders a non-entry function with in/out/inout
// parameter qualifiers, matching GLSL's own parameter-direction qualifiers
// one-for-one against ast.Param.IsOutput/IsInout.
func (e *emitter) emitOrdinaryFunction(fn *ast.FunctionDecl) {
	name := e.module.Name(fn.Name)
	returnType := e.declTypeString(fn.ReturnType)

	params := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		qualifier := "in"
		switch {
		case p.IsInout:
			qualifier = "inout"
		case p.IsOutput:
			qualifier = "out"
		}
		params[i] = fmt.Sprintf("%s %s %s", qualifier, e.declTypeString(p.Type), e.module.Name(p.Name))
	}

	e.writeLine(fmt.Sprintf("%s %s(%s) {", returnType, name, strings.Join(params, ", ")))
	e.indent++
	if fn.Body != nil {
		e.emitStmtList(fn.Body.Stmts)
	}
	// Invariant #4: a non-void function whose static paths don't all
	// return gets a synthetic trailing return so the emitted GLSL is a
	// legal function body regardless of what the source proved.
	if !fn.AllPathsReturn {
		if rt := e.resolveType(fn.ReturnType); rt != nil {
			if _, isVoid := rt.(types.VoidType); !isVoid {
				e.writeLine(fmt.Sprintf("return %s(0);", returnType))
			}
		}
	}
	e.indent--
	e.writeLine("}")
}
