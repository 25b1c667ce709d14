// Package reflect computes binding and layout metadata for a decorated
// module without running the rewrite/emit stages: available standalone for
// tooling that only wants to introspect a shader's resource surface
// (register slots, constant-buffer field offsets, entry-point workgroup
// size) rather than produce GLSL. It exposes the same convenience split as
// the compile path: Reflect runs analysis first for a caller with only
// source, while ReflectModule takes a TypeInfo a caller has already
// computed, applied here to HLSL's register-slot binding model.
package reflect

import (
	"fmt"
	"strconv"

	"codeberg.org/saruga/shaderxc/internal/analyzer"
	"codeberg.org/saruga/shaderxc/internal/ast"
)

// BindingInfo describes one resource binding's HLSL register slot.
type BindingInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Slot   int    `json:"slot"`
	Space  int    `json:"space"`
	Type   string `json:"type"`
	Layout *StructLayout `json:"layout,omitempty"` // constant buffers only
}

// StructLayout describes the memory layout of a struct under std140 rules.
type StructLayout struct {
	Size      int         `json:"size"`
	Alignment int         `json:"alignment"`
	Fields    []FieldInfo `json:"fields"`
}

// FieldInfo describes a single struct field's offset and size.
type FieldInfo struct {
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Offset    int           `json:"offset"`
	Size      int           `json:"size"`
	Alignment int           `json:"alignment"`
	Layout    *StructLayout `json:"layout,omitempty"` // for nested structs
}

// EntryPointInfo describes a shader entry point function.
type EntryPointInfo struct {
	Name          string `json:"name"`
	Stage         string `json:"stage"`
	WorkgroupSize []int  `json:"workgroupSize,omitempty"` // compute stage only
}

// Result is the reflection outcome for one module.
type Result struct {
	TextureBindings       []BindingInfo           `json:"textureBindings"`
	UniformBufferBindings []BindingInfo           `json:"uniformBufferBindings"`
	Structs               map[string]StructLayout `json:"structs"`
	EntryPoints            []EntryPointInfo       `json:"entryPoints"`
	Diagnostics            []string               `json:"diagnostics,omitempty"`
}

// Reflect runs Analyze over module and, on success, extracts its binding
// and layout metadata. Analysis errors are surfaced as Diagnostics rather
// than a Go error; when analysis fails, the result carries only those
// Diagnostics and an empty Structs map, and nothing else is reflected.
func Reflect(module *ast.Module) Result {
	analyzeResult := analyzer.Analyze(module, analyzer.Options{})
	if !analyzeResult.Valid {
		diags := make([]string, 0, len(analyzeResult.Diagnostics.Diagnostics()))
		for _, d := range analyzeResult.Diagnostics.Diagnostics() {
			diags = append(diags, d.Message)
		}
		return Result{
			Structs:     make(map[string]StructLayout),
			Diagnostics: diags,
		}
	}
	return ReflectModule(module, analyzeResult.TypeInfo)
}

// ReflectModule extracts reflection information from a module already
// decorated by a prior Analyze call.
func ReflectModule(module *ast.Module, typeInfo *analyzer.TypeInfo) Result {
	result := Result{
		Structs: make(map[string]StructLayout),
	}

	lc := NewLayoutComputer(typeInfo)

	for _, decl := range module.Declarations {
		switch d := decl.(type) {
		case *ast.BufferDecl:
			result.TextureBindings = append(result.TextureBindings, extractBufferBinding(module, d))

		case *ast.SamplerDecl:
			result.TextureBindings = append(result.TextureBindings, extractSamplerBinding(module, d))

		case *ast.StructDecl:
			if !d.IsConstantBuf {
				continue
			}
			name := module.Name(d.Name)
			layout := lc.GetStructLayout(name)
			if layout == nil {
				continue
			}
			result.Structs[name] = *layout
			binding := BindingInfo{Name: name, Kind: "cbuffer", Type: name, Layout: layout}
			binding.Slot, binding.Space = parseRegister(d.Register)
			result.UniformBufferBindings = append(result.UniformBufferBindings, binding)

		case *ast.FunctionDecl:
			if entry := extractEntryPoint(module, d); entry != nil {
				result.EntryPoints = append(result.EntryPoints, *entry)
			}
		}
	}

	return result
}

// extractBufferBinding builds a BindingInfo for a resource buffer/texture
// declaration.
func extractBufferBinding(module *ast.Module, d *ast.BufferDecl) BindingInfo {
	info := BindingInfo{Name: module.Name(d.Name), Kind: bufferKindName(d.Kind)}
	if d.ElemType != nil {
		info.Type = typeName(d.ElemType)
	}
	info.Slot, info.Space = parseRegister(d.Register)
	return info
}

// extractSamplerBinding builds a BindingInfo for a sampler-state declaration.
func extractSamplerBinding(module *ast.Module, d *ast.SamplerDecl) BindingInfo {
	info := BindingInfo{Name: module.Name(d.Name), Kind: "sampler", Type: "sampler"}
	info.Slot, info.Space = parseRegister(d.Register)
	return info
}

// extractEntryPoint builds an EntryPointInfo for fn if it is the module's
// entry point, using the same lenient detection the analyzer's
// findEntryPoint uses: an explicit IsEntryPoint flag, or a name match
// against module.EntryPointName.
func extractEntryPoint(module *ast.Module, fn *ast.FunctionDecl) *EntryPointInfo {
	isEntry := fn.Flags().IsEntryPoint
	if !isEntry && module.EntryPointName != "" {
		isEntry = module.Name(fn.Name) == module.EntryPointName
	}
	if !isEntry {
		return nil
	}

	info := &EntryPointInfo{Name: module.Name(fn.Name), Stage: module.Stage.String()}
	if module.Stage == ast.StageCompute {
		size := computeNumthreads(fn)
		info.WorkgroupSize = []int{size[0], size[1], size[2]}
	}
	return info
}

// computeNumthreads reads the `[numthreads(x, y, z)]` attribute, defaulting
// to {1,1,1} for any component it can't find, mirroring
// internal/emitter/entrypoint.go's computeNumthreads.
func computeNumthreads(fn *ast.FunctionDecl) [3]int {
	size := [3]int{1, 1, 1}
	for _, attr := range fn.Attributes {
		if attr.Name != "numthreads" || len(attr.Args) != 3 {
			continue
		}
		for i, arg := range attr.Args {
			if lit, ok := arg.(*ast.LiteralExpr); ok {
				fmt.Sscanf(lit.Value, "%d", &size[i])
			}
		}
	}
	return size
}

// parseRegister splits an HLSL `: register(bN[, spaceM])` annotation into
// its slot index and space. A nil reg or a slot shorter than two
// characters yields slot 0, space 0; a slot whose number doesn't parse
// yields slot 0 with reg's own space (an unbound resource still reflects,
// just at slot 0).
func parseRegister(reg *ast.Register) (slot, space int) {
	if reg == nil || len(reg.Slot) < 2 {
		return 0, 0
	}
	n, err := strconv.Atoi(reg.Slot[1:])
	if err != nil {
		return 0, reg.Space
	}
	return n, reg.Space
}

// bufferKindName renders a BufferKind the way a reflection consumer expects
// to see it in a binding report (lowercase, underscore-free).
func bufferKindName(k ast.BufferKind) string {
	switch k {
	case ast.BufferGeneric:
		return "buffer"
	case ast.BufferRWGeneric:
		return "rwbuffer"
	case ast.BufferTexture1D:
		return "texture1d"
	case ast.BufferTexture1DArray:
		return "texture1darray"
	case ast.BufferTexture2D:
		return "texture2d"
	case ast.BufferTexture2DArray:
		return "texture2darray"
	case ast.BufferTexture2DMS:
		return "texture2dms"
	case ast.BufferTexture2DMSArray:
		return "texture2dmsarray"
	case ast.BufferTexture3D:
		return "texture3d"
	case ast.BufferTextureCube:
		return "texturecube"
	case ast.BufferTextureCubeArray:
		return "texturecubearray"
	case ast.BufferRWTexture1D:
		return "rwtexture1d"
	case ast.BufferRWTexture1DArray:
		return "rwtexture1darray"
	case ast.BufferRWTexture2D:
		return "rwtexture2d"
	case ast.BufferRWTexture2DArray:
		return "rwtexture2darray"
	case ast.BufferRWTexture3D:
		return "rwtexture3d"
	default:
		return "buffer"
	}
}

// typeName renders a surface ast.Type's identifier name for the report;
// any type node other than an IdentType renders as "".
func typeName(t ast.Type) string {
	if id, ok := t.(*ast.IdentType); ok {
		return id.Name
	}
	return ""
}
