// Package intrinsic is the adept: a pure, table-driven component that
// derives a call's return type, parameter types, and output-parameter
// indices from its name and argument types, without consulting scope or
// emitting diagnostics itself (that's the analyzer's job, using this
// package's Lookup result). It answers three queries per intrinsic call
// site — return type, expected parameter types, and the indices of any
// output parameters (for intrinsics like sincos whose results escape via
// out-parameters) — over HLSL's intrinsic set.
package intrinsic

import (
	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/types"
)

// Stable enum values for every intrinsic the analyzer or rewriter can tag a
// CallExpr with. ast.IntrinsicNone (0) is reserved for user-defined calls.
const (
	Mul ast.Intrinsic = iota + 1
	Transpose
	Dot
	Cross
	Normalize
	Length
	Distance
	Reflect
	Refract
	Lerp
	Saturate
	Clamp
	Min
	Max
	Abs
	Sign
	Floor
	Ceil
	Round
	Frac
	Fmod
	Mad
	Pow
	Exp
	Exp2
	Log
	Log2
	Log10
	Sqrt
	Rsqrt
	Sin
	Cos
	Tan
	Asin
	Acos
	Atan
	Atan2
	Sinh
	Cosh
	Tanh
	Sincos
	Step
	Smoothstep
	Clip
	Any
	All
	Not
	Isnan
	Isinf
	Asfloat
	Asint
	Asuint
	F16tof32
	F32tof16
	Countbits
	Reversebits
	Firstbithigh
	Firstbitlow
	Ddx
	Ddy
	DdxCoarse
	DdyCoarse
	DdxFine
	DdyFine
	Fwidth
	Equal
	NotEqual
	LessThan
	LessThanEqual
	GreaterThan
	GreaterThanEqual
	Load
	Sample
	SampleLevel
	SampleGrad
	SampleBias
	SampleCmp
	SampleCmpLevelZero
	ImageLoad
	ImageStore
)

// Arity classifies how an adept derives its shapes, mirroring the private
// Derive* helper split in HLSLIntrinsics.h (DeriveReturnType vs.
// DeriveReturnTypeMul vs. DeriveReturnTypeTranspose vs.
// DeriveReturnTypeVectorCompare).
type Arity uint8

const (
	// ArityElementwise derives scalar/vector shape from the common type of
	// its float/numeric arguments (sin, abs, lerp, clamp, ...).
	ArityElementwise Arity = iota
	// ArityFixed always returns a declared type regardless of arguments
	// (cross always returns float3, length always returns a scalar, ...).
	ArityFixed
	// ArityMul is mul's special two-argument derivation (scalar*scalar,
	// vector*matrix, matrix*matrix, matrix*vector).
	ArityMul
	// ArityTranspose swaps a matrix's row/column counts.
	ArityTranspose
	// ArityVectorCompare always returns a bool vector of the same
	// dimension as its (non-bool) operands.
	ArityVectorCompare
)

// Adept is one intrinsic's derivation recipe: name, stable tag, arity
// class, fixed return type (for ArityFixed), and output-parameter indices
// (e.g. sincos's two by-reference outputs).
type Adept struct {
	Name          string
	Intrinsic     ast.Intrinsic
	Arity         Arity
	FixedReturn   types.Type // only meaningful when Arity == ArityFixed
	OutputIndices []int      // parameter positions written through, not read
	MinArgs       int
	Supported     bool // false => semantic-mapping-failure, never lowered
}

var table = make(map[string]*Adept)

func register(a *Adept) {
	table[a.Name] = a
}

func registerSupported(name string, intr ast.Intrinsic, arity Arity, fixed types.Type, minArgs int, outputs ...int) {
	register(&Adept{
		Name:          name,
		Intrinsic:     intr,
		Arity:         arity,
		FixedReturn:   fixed,
		OutputIndices: outputs,
		MinArgs:       minArgs,
		Supported:     true,
	})
}

func registerUnsupported(name string, intr ast.Intrinsic) {
	register(&Adept{Name: name, Intrinsic: intr, Supported: false})
}

func init() {
	f1 := types.Scalar(types.Float)
	f3 := types.Vec(types.Float, 3)
	uintScalar := types.Scalar(types.UInt)
	boolScalar := types.Scalar(types.Bool)

	// Elementwise math: return type tracks the common type of the
	// arguments (DeriveReturnType's default path).
	registerSupported("abs", Abs, ArityElementwise, nil, 1)
	registerSupported("sign", Sign, ArityElementwise, nil, 1)
	registerSupported("floor", Floor, ArityElementwise, nil, 1)
	registerSupported("ceil", Ceil, ArityElementwise, nil, 1)
	registerSupported("round", Round, ArityElementwise, nil, 1)
	registerSupported("frac", Frac, ArityElementwise, nil, 1)
	registerSupported("fmod", Fmod, ArityElementwise, nil, 2)
	registerSupported("mad", Mad, ArityElementwise, nil, 3)
	registerSupported("pow", Pow, ArityElementwise, nil, 2)
	registerSupported("exp", Exp, ArityElementwise, nil, 1)
	registerSupported("exp2", Exp2, ArityElementwise, nil, 1)
	registerSupported("log", Log, ArityElementwise, nil, 1)
	registerSupported("log2", Log2, ArityElementwise, nil, 1)
	// log10 has no GLSL equivalent; the rewriter's ConvertLog10 pass
	// rewrites every log10(x) call into log(x)/log(10) before this ever
	// reaches the emitter, but the adept still reports its HLSL-side
	// shape for the analyzer's type-check pass that runs first.
	registerSupported("log10", Log10, ArityElementwise, nil, 1)
	registerSupported("sqrt", Sqrt, ArityElementwise, nil, 1)
	registerSupported("rsqrt", Rsqrt, ArityElementwise, nil, 1)
	registerSupported("sin", Sin, ArityElementwise, nil, 1)
	registerSupported("cos", Cos, ArityElementwise, nil, 1)
	registerSupported("tan", Tan, ArityElementwise, nil, 1)
	registerSupported("asin", Asin, ArityElementwise, nil, 1)
	registerSupported("acos", Acos, ArityElementwise, nil, 1)
	registerSupported("atan", Atan, ArityElementwise, nil, 1)
	registerSupported("atan2", Atan2, ArityElementwise, nil, 2)
	registerSupported("sinh", Sinh, ArityElementwise, nil, 1)
	registerSupported("cosh", Cosh, ArityElementwise, nil, 1)
	registerSupported("tanh", Tanh, ArityElementwise, nil, 1)
	registerSupported("saturate", Saturate, ArityElementwise, nil, 1)
	registerSupported("clamp", Clamp, ArityElementwise, nil, 3)
	registerSupported("min", Min, ArityElementwise, nil, 2)
	registerSupported("max", Max, ArityElementwise, nil, 2)
	registerSupported("lerp", Lerp, ArityElementwise, nil, 3)
	registerSupported("step", Step, ArityElementwise, nil, 2)
	registerSupported("smoothstep", Smoothstep, ArityElementwise, nil, 3)
	registerSupported("reflect", Reflect, ArityElementwise, nil, 2)
	registerSupported("refract", Refract, ArityElementwise, nil, 3)
	registerSupported("isnan", Isnan, ArityElementwise, nil, 1)
	registerSupported("isinf", Isinf, ArityElementwise, nil, 1)
	registerSupported("asfloat", Asfloat, ArityElementwise, nil, 1)
	registerSupported("asint", Asint, ArityElementwise, nil, 1)
	registerSupported("asuint", Asuint, ArityElementwise, nil, 1)
	registerSupported("countbits", Countbits, ArityElementwise, nil, 1)
	registerSupported("reversebits", Reversebits, ArityElementwise, nil, 1)
	registerSupported("firstbithigh", Firstbithigh, ArityElementwise, nil, 1)
	registerSupported("firstbitlow", Firstbitlow, ArityElementwise, nil, 1)
	registerSupported("ddx", Ddx, ArityElementwise, nil, 1)
	registerSupported("ddy", Ddy, ArityElementwise, nil, 1)
	registerSupported("ddx_coarse", DdxCoarse, ArityElementwise, nil, 1)
	registerSupported("ddy_coarse", DdyCoarse, ArityElementwise, nil, 1)
	registerSupported("ddx_fine", DdxFine, ArityElementwise, nil, 1)
	registerSupported("ddy_fine", DdyFine, ArityElementwise, nil, 1)
	registerSupported("fwidth", Fwidth, ArityElementwise, nil, 1)

	// Fixed-return-type intrinsics (DeriveReturnType's declared-type path).
	registerSupported("dot", Dot, ArityFixed, nil, 2) // scalar of the operand's element kind, computed per-call
	registerSupported("cross", Cross, ArityFixed, f3, 2)
	registerSupported("length", Length, ArityFixed, f1, 1)
	registerSupported("distance", Distance, ArityFixed, f1, 2)
	registerSupported("normalize", Normalize, ArityElementwise, nil, 1)
	registerSupported("any", Any, ArityFixed, boolScalar, 1)
	registerSupported("all", All, ArityFixed, boolScalar, 1)
	registerSupported("clip", Clip, ArityFixed, types.Void, 1)
	registerSupported("f16tof32", F16tof32, ArityFixed, f1, 1)
	registerSupported("f32tof16", F32tof16, ArityFixed, uintScalar, 1)

	// mul/transpose: computed shapes (DeriveReturnTypeMul/...Transpose).
	registerSupported("mul", Mul, ArityMul, nil, 2)
	registerSupported("transpose", Transpose, ArityTranspose, nil, 1)

	// sincos writes through its 2nd and 3rd parameters (0-based indices 1
	// and 2) rather than returning a value, per
	// GetIntrinsicOutputParameterIndices.
	registerSupported("sincos", Sincos, ArityFixed, types.Void, 3, 1, 2)

	// Vector-compare intrinsics the rewriter's ConvertVectorCompare pass
	// introduces in place of a source-level relational operator.
	registerSupported("equal", Equal, ArityVectorCompare, nil, 2)
	registerSupported("notEqual", NotEqual, ArityVectorCompare, nil, 2)
	registerSupported("lessThan", LessThan, ArityVectorCompare, nil, 2)
	registerSupported("lessThanEqual", LessThanEqual, ArityVectorCompare, nil, 2)
	registerSupported("greaterThan", GreaterThan, ArityVectorCompare, nil, 2)
	registerSupported("greaterThanEqual", GreaterThanEqual, ArityVectorCompare, nil, 2)
	registerSupported("not", Not, ArityElementwise, nil, 1)

	// Resource-access intrinsics; Load's return shape is computed from the
	// generic element type of the buffer/texture argument (see
	// bufferAccessReturnType), not fixed here.
	registerSupported("Load", Load, ArityFixed, nil, 1)
	registerSupported("Sample", Sample, ArityFixed, nil, 2)
	registerSupported("SampleLevel", SampleLevel, ArityFixed, nil, 3)
	registerSupported("SampleGrad", SampleGrad, ArityFixed, nil, 4)
	registerSupported("SampleBias", SampleBias, ArityFixed, nil, 3)

	// imageLoad/imageStore are GLSL-side names the rewriter's
	// ConvertImageAccess pass introduces. They are registered under those
	// names like every other adept, so Lookup and IsIntrinsic find them
	// as well as ByTag.
	register(&Adept{Name: "imageLoad", Intrinsic: ImageLoad, Arity: ArityFixed, Supported: true})
	register(&Adept{Name: "imageStore", Intrinsic: ImageStore, Arity: ArityFixed, FixedReturn: types.Void, Supported: true})

	// Comparison-sampling intrinsics with no GLSL target mapping in this
	// compiler's supported subset: reported as a semantic-mapping-failure
	// diagnostic rather than silently degraded to a non-comparison sample.
	registerUnsupported("SampleCmp", SampleCmp)
	registerUnsupported("SampleCmpLevelZero", SampleCmpLevelZero)
}

// Lookup returns the adept entry for a source-level identifier, or
// (nil, false) if name does not name a known intrinsic (the analyzer then
// falls back to user-defined function resolution).
func Lookup(name string) (*Adept, bool) {
	a, ok := table[name]
	return a, ok
}

// ByTag returns the adept entry for a stable ast.Intrinsic tag, used by the
// rewriter and emitter once a CallExpr has already been decorated.
func ByTag(tag ast.Intrinsic) (*Adept, bool) {
	for _, a := range table {
		if a.Intrinsic == tag {
			return a, true
		}
	}
	return nil, false
}

// IsIntrinsic reports whether name is a known intrinsic identifier at all
// (supported or not) — used to distinguish "unknown identifier" from
// "known but unsupported intrinsic" in diagnostics.
func IsIntrinsic(name string) bool {
	_, ok := table[name]
	return ok
}

// ReturnType implements GetIntrinsicReturnType: the type a call to this
// adept, applied to the decorated argument types, evaluates to.
func (a *Adept) ReturnType(args []types.Type) (types.Type, bool) {
	switch a.Arity {
	case ArityFixed:
		if a.FixedReturn != nil {
			return a.FixedReturn, true
		}
		return a.fixedReturnComputed(args)
	case ArityElementwise:
		return elementwiseCommonType(args)
	case ArityMul:
		return mulReturnType(args)
	case ArityTranspose:
		return transposeReturnType(args)
	case ArityVectorCompare:
		return vectorCompareReturnType(args)
	default:
		return nil, false
	}
}

// fixedReturnComputed handles the ArityFixed adepts whose return type isn't
// a single constant (dot, Load/Sample family), mirroring
// HLSLIntrinsicAdept's few hand-written special cases beyond the lookup
// table.
func (a *Adept) fixedReturnComputed(args []types.Type) (types.Type, bool) {
	switch a.Name {
	case "dot":
		if len(args) != 2 {
			return nil, false
		}
		k, ok := types.ElementKind(args[0])
		if !ok {
			return nil, false
		}
		return types.Scalar(k), true
	case "Load", "Sample", "SampleLevel", "SampleGrad", "SampleBias", "imageLoad":
		if len(args) == 0 {
			return nil, false
		}
		return bufferAccessReturnType(args[0])
	}
	return nil, false
}

// bufferAccessReturnType implements MakeBufferAccessCallTypeDenoter: a
// Buffer/Texture's generic element type if declared, else a 4-component
// vector of float (the GLSL target always returns a 4-component vector
// from imageLoad/texelFetch regardless of declared arity, so untyped
// buffers widen to vec4).
func bufferAccessReturnType(resource types.Type) (types.Type, bool) {
	buf, ok := resource.Aliased().(types.Buffer)
	if !ok {
		return nil, false
	}
	if buf.Elem != nil {
		return buf.Elem, true
	}
	return types.Vec(types.Float, 4), true
}

// elementwiseCommonType folds CommonType across every argument left to
// right, matching the C++ adept's default "widen to the common type of all
// float-convertible arguments" derivation.
func elementwiseCommonType(args []types.Type) (types.Type, bool) {
	if len(args) == 0 {
		return nil, false
	}
	result := args[0]
	for _, a := range args[1:] {
		common, ok := types.CommonType(result, a)
		if !ok {
			return nil, false
		}
		result = common
	}
	return result, true
}

// mulReturnType implements DeriveReturnTypeMul: scalar*scalar stays
// scalar; vector*matrix and matrix*vector both project to a vector sized
// by the matrix's other dimension; matrix*matrix yields lhs.Rows x
// rhs.Cols (both operands already required to share the inner dimension
// by the analyzer's arg-count/shape check).
func mulReturnType(args []types.Type) (types.Type, bool) {
	if len(args) != 2 {
		return nil, false
	}
	lhs, lok := args[0].Aliased().(types.Base)
	rhs, rok := args[1].Aliased().(types.Base)
	if !lok || !rok {
		return nil, false
	}
	kind := lhs.Elem
	switch {
	case lhs.IsMatrix() && rhs.IsMatrix():
		return types.Mat(kind, lhs.Rows, rhs.Cols), true
	case lhs.IsMatrix() && rhs.IsVector():
		return types.Vec(kind, lhs.Rows), true
	case lhs.IsVector() && rhs.IsMatrix():
		return types.Vec(kind, rhs.Cols), true
	case lhs.IsVector() && rhs.IsVector():
		// vector*vector is the dot product in HLSL's overload set; the
		// rewriter retags this call to Dot before the emitter ever sees
		// it (see the rewriter's mul-with-two-vector-args special case).
		return types.Scalar(kind), true
	default:
		return types.Scalar(kind), true
	}
}

// transposeReturnType implements DeriveReturnTypeTranspose: swap row and
// column counts.
func transposeReturnType(args []types.Type) (types.Type, bool) {
	if len(args) != 1 {
		return nil, false
	}
	m, ok := args[0].Aliased().(types.Base)
	if !ok || !m.IsMatrix() {
		return nil, false
	}
	return types.Mat(m.Elem, m.Cols, m.Rows), true
}

// vectorCompareReturnType implements DeriveReturnTypeVectorCompare: a bool
// vector of the same dimension as the (non-bool) operand vectors.
func vectorCompareReturnType(args []types.Type) (types.Type, bool) {
	if len(args) == 0 {
		return nil, false
	}
	b, ok := args[0].Aliased().(types.Base)
	if !ok {
		return nil, false
	}
	return types.Vec(types.Bool, b.Dim()), true
}

// ParameterTypes implements GetIntrinsicParameterTypes: the expected
// parameter type for each argument position, used by the analyzer to
// decide whether an implicit cast is needed. Most adepts accept the
// common type of all arguments at every position (DeriveParameterTypes'
// default, non-minimum-dimension path); mul and transpose pass arguments
// through unchanged since their shapes are position-dependent rather than
// unified.
func (a *Adept) ParameterTypes(args []types.Type) []types.Type {
	switch a.Arity {
	case ArityMul, ArityTranspose:
		return args
	default:
		common, ok := elementwiseCommonType(args)
		if !ok {
			return args
		}
		out := make([]types.Type, len(args))
		for i := range out {
			out[i] = common
		}
		return out
	}
}

// OutputParameterIndices implements GetIntrinsicOutputParameterIndices:
// the 0-based positions of parameters this intrinsic writes through
// rather than reads (only sincos has any, in this compiler's subset).
func (a *Adept) OutputParameterIndices() []int {
	return a.OutputIndices
}
