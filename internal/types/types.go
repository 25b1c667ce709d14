// Package types implements the TypeDenoter lattice: the compile-time
// description of the static type of every expression and declaration the
// analyzer decorates. It builds an HLSL-like numeric ladder
// (bool -> int -> uint -> float -> double) around a `Type` interface with
// one concrete variant per kind, plus the Alias and Buffer/Sampler
// resource variants this dialect needs.
package types

import (
	"fmt"

	"github.com/mitchellh/hashstructure/v2"
)

// ScalarKind is one of the five primitive data kinds in the numeric ladder.
type ScalarKind uint8

const (
	Bool ScalarKind = iota
	Int
	UInt
	Float
	Double
)

// Rank returns this scalar's position in the promotion ladder
// bool < int < uint < float < double, used by find_common/CommonType.
func (k ScalarKind) Rank() int { return int(k) }

func (k ScalarKind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case UInt:
		return "uint"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return "?"
	}
}

// IsNumeric reports whether values of this kind support arithmetic.
func (k ScalarKind) IsNumeric() bool { return k != Bool }

// IsInteger reports whether this is an exact integral kind.
func (k ScalarKind) IsInteger() bool { return k == Int || k == UInt }

// IsFloat reports whether this is a floating-point kind (single or double).
func (k ScalarKind) IsFloat() bool { return k == Float || k == Double }

// Type is the interface every TypeDenoter variant implements.
type Type interface {
	fmt.Stringer
	isType()

	// Aliased strips alias layers, returning the first non-alias type this
	// one transitively resolves to.
	Aliased() Type

	// Equals reports structural equality, ignoring back-references
	// (two distinct Struct values naming the same declaration are equal).
	Equals(other Type) bool

	// IsCastableTo implements the dialect's implicit-cast predicate.
	IsCastableTo(dst Type) bool

	// Copy returns a deep copy excluding back-references.
	Copy() Type
}

// structuralHash computes a cheap fingerprint used as a pre-check before an
// expensive field-by-field Equals comparison; collisions fall through to the
// full comparison so correctness never depends on the hash alone.
func structuralHash(v any) uint64 {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

// ----------------------------------------------------------------------------
// Void
// ----------------------------------------------------------------------------

// VoidType is the type of a function with no return value.
type VoidType struct{}

var Void = VoidType{}

func (VoidType) isType()           {}
func (VoidType) String() string    { return "void" }
func (VoidType) Aliased() Type     { return Void }
func (VoidType) Copy() Type        { return Void }
func (VoidType) Equals(o Type) bool {
	_, ok := o.Aliased().(VoidType)
	return ok
}
func (VoidType) IsCastableTo(Type) bool { return false }

// ----------------------------------------------------------------------------
// Base (scalar / vector / matrix)
// ----------------------------------------------------------------------------

// Base is a primitive, vector, or matrix type: {bool,int,uint,float,double}
// crossed with {scalar, vec2..4, mat2x2..4x4}.
type Base struct {
	Elem ScalarKind
	Rows int // 1 for scalar and vectors
	Cols int // 1 for scalar; vector length for vectors; matrix columns for matrices
}

// Scalar constructs a bare scalar Base type.
func Scalar(k ScalarKind) Base { return Base{Elem: k, Rows: 1, Cols: 1} }

// Vec constructs a vector Base type of the given length.
func Vec(k ScalarKind, n int) Base { return Base{Elem: k, Rows: 1, Cols: n} }

// Mat constructs a matrix Base type of rows x cols.
func Mat(k ScalarKind, rows, cols int) Base { return Base{Elem: k, Rows: rows, Cols: cols} }

func (b Base) isType() {}

func (b Base) IsScalar() bool { return b.Rows == 1 && b.Cols == 1 }
func (b Base) IsVector() bool { return b.Rows == 1 && b.Cols > 1 }
func (b Base) IsMatrix() bool { return b.Rows > 1 }

// Dim returns the vector dimension (1 for scalars and matrices).
func (b Base) Dim() int {
	if b.IsVector() {
		return b.Cols
	}
	return 1
}

func (b Base) String() string {
	switch {
	case b.IsScalar():
		return b.Elem.String()
	case b.IsVector():
		return fmt.Sprintf("%s%d", b.Elem.String(), b.Cols)
	default:
		return fmt.Sprintf("%s%dx%d", b.Elem.String(), b.Rows, b.Cols)
	}
}

func (b Base) Aliased() Type { return b }
func (b Base) Copy() Type    { return b }

func (b Base) Equals(o Type) bool {
	other, ok := o.Aliased().(Base)
	return ok && other == b
}

// IsCastableTo implements §3.2's base-type castability: a matrix casts
// only to a matrix of the same rows x cols (never to a vector or scalar);
// scalar/vector<->scalar/vector is castable if dims are equal or either
// is 1 (scalar splat).
func (b Base) IsCastableTo(dst Type) bool {
	other, ok := dst.Aliased().(Base)
	if !ok {
		return false
	}
	if b.IsMatrix() || other.IsMatrix() {
		return b.IsMatrix() && other.IsMatrix() && b.Rows == other.Rows && b.Cols == other.Cols
	}
	return b.Dim() == other.Dim() || b.Dim() == 1 || other.Dim() == 1
}

// ----------------------------------------------------------------------------
// Buffer / resource types
// ----------------------------------------------------------------------------

// BufferKind enumerates the resource-buffer/texture kind tag a Buffer
// TypeDenoter carries, mirroring ast.BufferKind (kept as a distinct type so
// internal/types has no import-cycle dependency on internal/ast).
type BufferKind uint8

const (
	KindBuffer BufferKind = iota
	KindRWBuffer
	KindTexture1D
	KindTexture1DArray
	KindTexture2D
	KindTexture2DArray
	KindTexture2DMS
	KindTexture2DMSArray
	KindTexture3D
	KindTextureCube
	KindTextureCubeArray
	KindRWTexture1D
	KindRWTexture1DArray
	KindRWTexture2D
	KindRWTexture2DArray
	KindRWTexture3D
)

func (k BufferKind) String() string {
	names := map[BufferKind]string{
		KindBuffer: "Buffer", KindRWBuffer: "RWBuffer",
		KindTexture1D: "Texture1D", KindTexture1DArray: "Texture1DArray",
		KindTexture2D: "Texture2D", KindTexture2DArray: "Texture2DArray",
		KindTexture2DMS: "Texture2DMS", KindTexture2DMSArray: "Texture2DMSArray",
		KindTexture3D: "Texture3D", KindTextureCube: "TextureCube", KindTextureCubeArray: "TextureCubeArray",
		KindRWTexture1D: "RWTexture1D", KindRWTexture1DArray: "RWTexture1DArray",
		KindRWTexture2D: "RWTexture2D", KindRWTexture2DArray: "RWTexture2DArray",
		KindRWTexture3D: "RWTexture3D",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "Buffer?"
}

// IsReadWrite reports whether this buffer kind supports image store (the
// RW-prefixed kinds).
func (k BufferKind) IsReadWrite() bool {
	switch k {
	case KindRWBuffer, KindRWTexture1D, KindRWTexture1DArray, KindRWTexture2D, KindRWTexture2DArray, KindRWTexture3D:
		return true
	}
	return false
}

// Dimension returns the number of coordinate components this buffer kind's
// image load/store addressing needs (used by ConvertImageAccess's cast
// insertion).
func (k BufferKind) Dimension() int {
	switch k {
	case KindBuffer, KindRWBuffer, KindTexture1D, KindRWTexture1D:
		return 1
	case KindTexture1DArray, KindRWTexture1DArray, KindTexture2D, KindRWTexture2D, KindTexture2DMS:
		return 2
	case KindTexture2DArray, KindRWTexture2DArray, KindTexture2DMSArray, KindTexture3D, KindRWTexture3D, KindTextureCube:
		return 3
	case KindTextureCubeArray:
		return 4
	default:
		return 2
	}
}

// Buffer is a parametric resource-buffer/texture TypeDenoter.
type Buffer struct {
	Kind     BufferKind
	Elem     Type // generic element type, e.g. float4 in RWTexture2D<float4>
	DeclName string
}

func (b Buffer) isType()        {}
func (b Buffer) Aliased() Type  { return b }
func (b Buffer) Copy() Type     { c := b; if b.Elem != nil { c.Elem = b.Elem.Copy() }; return c }
func (b Buffer) String() string {
	if b.Elem != nil {
		return fmt.Sprintf("%s<%s>", b.Kind.String(), b.Elem.String())
	}
	return b.Kind.String()
}
func (b Buffer) Equals(o Type) bool {
	other, ok := o.Aliased().(Buffer)
	if !ok || other.Kind != b.Kind {
		return false
	}
	if b.Elem == nil || other.Elem == nil {
		return b.Elem == other.Elem
	}
	return b.Elem.Equals(other.Elem)
}
func (b Buffer) IsCastableTo(Type) bool { return false }

// SamplerDim enumerates sampler dimensionalities.
type SamplerDim uint8

const (
	SamplerDim1D SamplerDim = iota
	SamplerDim2D
	SamplerDim3D
	SamplerDimCube
	SamplerDimComparison
)

func (d SamplerDim) String() string {
	switch d {
	case SamplerDim1D:
		return "sampler1D"
	case SamplerDim2D:
		return "sampler2D"
	case SamplerDim3D:
		return "sampler3D"
	case SamplerDimCube:
		return "samplerCube"
	case SamplerDimComparison:
		return "samplerShadow"
	default:
		return "sampler?"
	}
}

// Sampler is a sampler-state TypeDenoter.
type Sampler struct {
	Dim SamplerDim
}

func (s Sampler) isType()            {}
func (s Sampler) String() string     { return s.Dim.String() }
func (s Sampler) Aliased() Type      { return s }
func (s Sampler) Copy() Type         { return s }
func (s Sampler) Equals(o Type) bool { other, ok := o.Aliased().(Sampler); return ok && other.Dim == s.Dim }
func (s Sampler) IsCastableTo(Type) bool { return false }

// ----------------------------------------------------------------------------
// Struct
// ----------------------------------------------------------------------------

// StructField describes one member's name and type for layout/equality
// purposes (kept separate from ast.StructField to avoid an import cycle).
type StructField struct {
	Name string
	Type Type
}

// Struct is a structure TypeDenoter; DeclName identifies the originating
// declaration (structural equality for two Struct values is "same
// DeclName" — two different structs with identical field lists are NOT
// equal).
type Struct struct {
	DeclName string
	Fields   []StructField
}

func (s Struct) isType()        {}
func (s Struct) String() string { return s.DeclName }
func (s Struct) Aliased() Type  { return s }

func (s Struct) Copy() Type {
	fields := make([]StructField, len(s.Fields))
	for i, f := range s.Fields {
		nf := f
		if f.Type != nil {
			nf.Type = f.Type.Copy()
		}
		fields[i] = nf
	}
	return Struct{DeclName: s.DeclName, Fields: fields}
}

func (s Struct) Equals(o Type) bool {
	other, ok := o.Aliased().(Struct)
	if !ok {
		return false
	}
	// Equality here is nominal (same DeclName), not structural: two
	// structs with identical field lists but different declarations are
	// not equal. A hash pre-check would only re-hash the same DeclName
	// string being compared right below, never the expensive recursive
	// comparison a pre-check is meant to short-circuit, so there's no
	// structuralHash call to wire in here — see Array.Equals for the
	// variant that actually has a recursive comparison worth guarding.
	return s.DeclName == other.DeclName
}

func (s Struct) IsCastableTo(Type) bool { return false }

// Field returns the named member, or nil.
func (s Struct) Field(name string) *StructField {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Alias
// ----------------------------------------------------------------------------

// Alias holds a name plus the type it transitively resolves to, matching
// §3.2's "Alias: holds a name plus a back-reference to an AliasDecl;
// resolves transitively."
type Alias struct {
	Name string
	Elem Type
}

func (a Alias) isType()        {}
func (a Alias) String() string { return a.Name }

// Aliased strips every layer of alias, returning the first concrete type.
func (a Alias) Aliased() Type {
	if a.Elem == nil {
		return Void
	}
	return a.Elem.Aliased()
}

func (a Alias) Copy() Type {
	c := a
	if a.Elem != nil {
		c.Elem = a.Elem.Copy()
	}
	return c
}

func (a Alias) Equals(o Type) bool { return a.Aliased().Equals(o.Aliased()) }

func (a Alias) IsCastableTo(dst Type) bool { return a.Aliased().IsCastableTo(dst) }

// ----------------------------------------------------------------------------
// Array
// ----------------------------------------------------------------------------

// Array is an array TypeDenoter; a Dim of 0 denotes unspecified length
// (matching §3.2's "a dimension value of 0 denotes unspecified-length").
type Array struct {
	Elem Type
	Dims []int
}

func (a Array) isType() {}

func (a Array) String() string {
	s := a.Elem.String()
	for _, d := range a.Dims {
		if d == 0 {
			s += "[]"
		} else {
			s += fmt.Sprintf("[%d]", d)
		}
	}
	return s
}

func (a Array) Aliased() Type { return a }

func (a Array) Copy() Type {
	dims := append([]int(nil), a.Dims...)
	return Array{Elem: a.Elem.Copy(), Dims: dims}
}

func (a Array) Equals(o Type) bool {
	other, ok := o.Aliased().(Array)
	if !ok || len(a.Dims) != len(other.Dims) {
		return false
	}
	for i := range a.Dims {
		if a.Dims[i] != other.Dims[i] {
			return false
		}
	}
	// Dims already matched above; structuralHash over the full value (Dims
	// and Elem both) gives a cheap pre-check that can reject a deeply
	// nested element-type mismatch before paying for the recursive
	// Elem.Equals walk below. A collision falls through to that walk, so
	// correctness never depends on the hash alone.
	if structuralHash(a) != structuralHash(other) {
		return false
	}
	return a.Elem.Equals(other.Elem)
}

func (a Array) IsCastableTo(dst Type) bool {
	other, ok := dst.Aliased().(Array)
	if !ok || len(a.Dims) != len(other.Dims) {
		return false
	}
	return a.Elem.IsCastableTo(other.Elem)
}

// Sub returns the element type after one indexing step: array -> element.
func (a Array) Sub() Type {
	if len(a.Dims) <= 1 {
		return a.Elem
	}
	return Array{Elem: a.Elem, Dims: a.Dims[1:]}
}

// ----------------------------------------------------------------------------
// Shared operations (free functions, since Go has no Type-generic methods
// that can add new variants post hoc)
// ----------------------------------------------------------------------------

// Sub implements §3.2's `sub()`/`sub(arrayExpr)`: element type after one
// indexing step (array -> element; buffer -> generic; struct -> error
// (reported by caller via the ok=false result); base -> smaller-rank base).
func Sub(t Type) (Type, bool) {
	switch v := t.Aliased().(type) {
	case Array:
		return v.Sub(), true
	case Buffer:
		if v.Elem != nil {
			return v.Elem, true
		}
		return Vec(Float, 4), true
	case Base:
		if v.IsVector() {
			return Scalar(v.Elem), true
		}
		if v.IsMatrix() {
			return Vec(v.Elem, v.Cols), true
		}
		return nil, false
	default:
		return nil, false
	}
}

// CommonType implements §3.2's `find_common(lhs, rhs)`: the common type for
// a binary operator following the ladder bool -> int -> uint -> float ->
// double, with vector dimension = max(lhs, rhs) when compatible.
func CommonType(lhs, rhs Type) (Type, bool) {
	lb, lok := lhs.Aliased().(Base)
	rb, rok := rhs.Aliased().(Base)
	if !lok || !rok {
		if lhs.Equals(rhs) {
			return lhs, true
		}
		return nil, false
	}
	if lb.IsMatrix() || rb.IsMatrix() {
		if lb.IsMatrix() && rb.IsMatrix() && lb.Rows == rb.Rows && lb.Cols == rb.Cols {
			return Mat(higherRank(lb.Elem, rb.Elem), lb.Rows, lb.Cols), true
		}
		return nil, false
	}
	dim := lb.Dim()
	if rb.Dim() > dim {
		dim = rb.Dim()
	}
	if lb.Dim() != rb.Dim() && lb.Dim() != 1 && rb.Dim() != 1 {
		return nil, false
	}
	kind := higherRank(lb.Elem, rb.Elem)
	if dim == 1 {
		return Scalar(kind), true
	}
	return Vec(kind, dim), true
}

func higherRank(a, b ScalarKind) ScalarKind {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

// IsScalar/IsVector/IsMatrix report the shape of t after alias resolution.
func IsScalar(t Type) bool { b, ok := t.Aliased().(Base); return ok && b.IsScalar() }
func IsVector(t Type) bool { b, ok := t.Aliased().(Base); return ok && b.IsVector() }
func IsMatrix(t Type) bool { b, ok := t.Aliased().(Base); return ok && b.IsMatrix() }

// ElementKind returns the scalar element kind of a Base type (scalar,
// vector, or matrix), or false if t is not a Base.
func ElementKind(t Type) (ScalarKind, bool) {
	b, ok := t.Aliased().(Base)
	if !ok {
		return 0, false
	}
	return b.Elem, true
}
