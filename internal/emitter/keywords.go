package emitter

import "codeberg.org/saruga/shaderxc/internal/types"

// semanticBuiltin describes how one HLSL system-value semantic projects
// onto a GLSL builtin variable for a given shader stage and I/O direction.
// Backend keyword tables are modeled as a pure mapping injected into the
// emitter, built directly from the well-known HLSL SV_* / GLSL gl_*
// correspondence.
type semanticBuiltin struct {
	name      string // GLSL builtin identifier, e.g. "gl_Position"
	glslType  types.Type
	isOutput  bool // true if this builtin is only valid as a stage output
	perVertex bool // gl_Position-family: only valid in vertex/tess/geometry
}

var systemValueBuiltins = map[string]semanticBuiltin{
	"SV_Position":       {name: "gl_Position", glslType: types.Vec(types.Float, 4), perVertex: true},
	"SV_VertexID":       {name: "gl_VertexID", glslType: types.Scalar(types.Int)},
	"SV_InstanceID":     {name: "gl_InstanceID", glslType: types.Scalar(types.Int)},
	"SV_IsFrontFace":    {name: "gl_FrontFacing", glslType: types.Scalar(types.Bool)},
	"SV_Depth":          {name: "gl_FragDepth", glslType: types.Scalar(types.Float), isOutput: true},
	"SV_DispatchThreadID": {name: "gl_GlobalInvocationID", glslType: types.Vec(types.UInt, 3)},
	"SV_GroupID":          {name: "gl_WorkGroupID", glslType: types.Vec(types.UInt, 3)},
	"SV_GroupThreadID":    {name: "gl_LocalInvocationID", glslType: types.Vec(types.UInt, 3)},
	"SV_GroupIndex":       {name: "gl_LocalInvocationIndex", glslType: types.Scalar(types.UInt)},
}

// isSystemValueSemantic reports whether name is a recognized SV_* builtin
// semantic (as opposed to a plain interpolant semantic like TEXCOORD0).
func isSystemValueSemantic(name string) bool {
	_, ok := systemValueBuiltins[name]
	return ok
}

// isFragmentTargetSemantic reports whether name is one of the SV_TargetN
// render-target-output semantics, returning its target index.
func isFragmentTargetSemantic(name string) (int, bool) {
	if name == "SV_Target" {
		return 0, true
	}
	if len(name) > len("SV_Target") && name[:len("SV_Target")] == "SV_Target" {
		n := 0
		for _, c := range name[len("SV_Target"):] {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		return n, true
	}
	return 0, false
}

// glslTypeName renders a resolved types.Type as the GLSL spelling used for
// declarations, casts, and constructor calls.
func glslTypeName(t types.Type) string {
	switch v := t.Aliased().(type) {
	case types.VoidType:
		return "void"
	case types.Base:
		return glslBaseName(v)
	case types.Struct:
		return v.DeclName
	case types.Array:
		return glslTypeName(v.Elem)
	case types.Buffer:
		return glslSamplerName(v)
	case types.Sampler:
		return "sampler"
	}
	return "float"
}

func glslBaseName(b types.Base) string {
	prefix := ""
	switch b.Elem {
	case types.Bool:
		prefix = "b"
	case types.Int:
		prefix = "i"
	case types.UInt:
		prefix = "u"
	case types.Double:
		prefix = "d"
	case types.Float:
		prefix = ""
	}
	switch {
	case b.IsMatrix():
		// HLSL floatRxC is spelled matRxC, indices in the same order.
		// GLSL reads the first index as the column count, so the GLSL
		// matrix is the transpose of the HLSL one; the rewriter's
		// ConvertMatrixLayout swap of mul's operands accounts for that.
		if b.Rows == b.Cols {
			return "mat" + itoa(b.Cols)
		}
		return "mat" + itoa(b.Rows) + "x" + itoa(b.Cols)
	case b.IsVector():
		return prefix + "vec" + itoa(b.Cols)
	default:
		switch b.Elem {
		case types.Bool:
			return "bool"
		case types.Int:
			return "int"
		case types.UInt:
			return "uint"
		case types.Float:
			return "float"
		case types.Double:
			return "double"
		}
		return "float"
	}
}

func itoa(n int) string {
	if n < 0 || n > 9 {
		return "?"
	}
	return string(rune('0' + n))
}

// glslSamplerName maps a resource-buffer TypeDenoter to the GLSL
// sampler/image type used for its declaration.
func glslSamplerName(b types.Buffer) string {
	prefix := ""
	if b.Elem != nil {
		if base, ok := b.Elem.Aliased().(types.Base); ok {
			switch base.Elem {
			case types.Int:
				prefix = "i"
			case types.UInt:
				prefix = "u"
			}
		}
	}
	image := b.Kind.IsReadWrite()
	kind := "sampler"
	if image {
		kind = "image"
	}
	switch b.Kind {
	case types.KindBuffer, types.KindRWBuffer:
		return prefix + kind + "Buffer"
	case types.KindTexture1D, types.KindRWTexture1D:
		return prefix + kind + "1D"
	case types.KindTexture1DArray, types.KindRWTexture1DArray:
		return prefix + kind + "1DArray"
	case types.KindTexture2D, types.KindRWTexture2D:
		return prefix + kind + "2D"
	case types.KindTexture2DArray, types.KindRWTexture2DArray:
		return prefix + kind + "2DArray"
	case types.KindTexture2DMS:
		return prefix + kind + "2DMS"
	case types.KindTexture2DMSArray:
		return prefix + kind + "2DMSArray"
	case types.KindTexture3D, types.KindRWTexture3D:
		return prefix + kind + "3D"
	case types.KindTextureCube:
		return prefix + kind + "Cube"
	case types.KindTextureCubeArray:
		return prefix + kind + "CubeArray"
	}
	return prefix + kind + "2D"
}

// extensionRequirement records the GLSL extension (and minimum core
// version where it becomes unnecessary) a lowered intrinsic call may need.
// The header emitter scans the module's used-intrinsics set against this
// table before any declaration body is printed. The table entries here
// cover the handful of intrinsics this compiler actually lowers to
// image/bit builtins, not an exhaustive catalogue.
type extensionRequirement struct {
	minVersion int
	extension  string
}

var intrinsicExtensions = map[string]extensionRequirement{
	"imageLoad":        {420, "GL_ARB_shader_image_load_store"},
	"imageStore":       {420, "GL_ARB_shader_image_load_store"},
	"texelFetch":       {130, "GL_ARB_texture_rectangle"},
	"bitfieldReverse":  {400, "GL_ARB_gpu_shader5"},
	"findMSB":          {400, "GL_ARB_gpu_shader5"},
	"findLSB":          {400, "GL_ARB_gpu_shader5"},
	"packHalf2x16":     {420, "GL_ARB_shading_language_packing"},
	"unpackHalf2x16":   {420, "GL_ARB_shading_language_packing"},
}
