package types

import "testing"

func TestScalarKindRank(t *testing.T) {
	if !(Bool.Rank() < Int.Rank() && Int.Rank() < UInt.Rank() && UInt.Rank() < Float.Rank() && Float.Rank() < Double.Rank()) {
		t.Fatalf("expected bool < int < uint < float < double ladder, got ranks %d %d %d %d %d",
			Bool.Rank(), Int.Rank(), UInt.Rank(), Float.Rank(), Double.Rank())
	}
}

func TestBaseStringRendering(t *testing.T) {
	cases := []struct {
		b    Base
		want string
	}{
		{Scalar(Float), "float"},
		{Vec(Float, 3), "float3"},
		{Mat(Float, 4, 4), "float4x4"},
		{Vec(Bool, 4), "bool4"},
	}
	for _, c := range cases {
		if got := c.b.String(); got != c.want {
			t.Errorf("Base.String() = %q, want %q", got, c.want)
		}
	}
}

func TestBaseIsCastableToVectorScalarSplat(t *testing.T) {
	f1 := Scalar(Float)
	f4 := Vec(Float, 4)
	if !f1.IsCastableTo(f4) {
		t.Error("expected scalar -> vector4 splat to be castable")
	}
	if !f4.IsCastableTo(f1) {
		t.Error("expected vector4 -> scalar narrowing to be reported castable (dim==1 side)")
	}
}

func TestBaseIsCastableToMismatchedVectorDims(t *testing.T) {
	f2 := Vec(Float, 2)
	f3 := Vec(Float, 3)
	if f2.IsCastableTo(f3) {
		t.Error("expected float2 -> float3 (neither dim is 1) to be non-castable")
	}
}

func TestBaseIsCastableToMatrixRequiresMatchingShape(t *testing.T) {
	m1 := Mat(Float, 4, 4)
	m2 := Mat(Float, 3, 3)
	if m1.IsCastableTo(m2) {
		t.Error("expected float4x4 -> float3x3 to be non-castable")
	}
	if !m1.IsCastableTo(Mat(Float, 4, 4)) {
		t.Error("expected identical matrix shapes to be castable")
	}
	if m1.IsCastableTo(Vec(Float, 4)) {
		t.Error("expected matrix -> vector to be non-castable")
	}
}

func TestBaseIsCastableToRejectsNonBaseDestination(t *testing.T) {
	f1 := Scalar(Float)
	if f1.IsCastableTo(Struct{DeclName: "Foo"}) {
		t.Error("expected base -> struct to be non-castable")
	}
}

func TestAliasAliasedStripsTransitively(t *testing.T) {
	inner := Scalar(Float)
	mid := Alias{Name: "Meters", Elem: inner}
	outer := Alias{Name: "Distance", Elem: mid}

	got := outer.Aliased()
	base, ok := got.(Base)
	if !ok || base != inner {
		t.Fatalf("expected Aliased() to strip both layers down to float, got %#v", got)
	}
	// Idempotent: aliasing an already-concrete type is a no-op.
	if again := base.Aliased(); !again.Equals(base) {
		t.Errorf("expected Aliased() to be idempotent on a concrete type")
	}
}

func TestAliasEqualsComparesThroughToConcreteType(t *testing.T) {
	a := Alias{Name: "Meters", Elem: Scalar(Float)}
	if !a.Equals(Scalar(Float)) {
		t.Error("expected an alias to equal the concrete type it resolves to")
	}
}

func TestAliasIsCastableToDelegates(t *testing.T) {
	a := Alias{Name: "Meters", Elem: Scalar(Float)}
	if !a.IsCastableTo(Vec(Float, 4)) {
		t.Error("expected alias castability to delegate to its resolved type")
	}
}

func TestStructEqualsByDeclNameNotFieldShape(t *testing.T) {
	a := Struct{DeclName: "Vertex", Fields: []StructField{{Name: "pos", Type: Vec(Float, 3)}}}
	b := Struct{DeclName: "Vertex", Fields: []StructField{{Name: "pos", Type: Vec(Float, 3)}, {Name: "uv", Type: Vec(Float, 2)}}}
	c := Struct{DeclName: "Other", Fields: a.Fields}

	if !a.Equals(b) {
		t.Error("expected two Struct values with the same DeclName to be equal regardless of field-list drift")
	}
	if a.Equals(c) {
		t.Error("expected different DeclNames to never be equal, even with identical field lists")
	}
}

func TestStructFieldLookup(t *testing.T) {
	s := Struct{DeclName: "Vertex", Fields: []StructField{
		{Name: "pos", Type: Vec(Float, 3)},
		{Name: "uv", Type: Vec(Float, 2)},
	}}
	if f := s.Field("uv"); f == nil || !f.Type.Equals(Vec(Float, 2)) {
		t.Errorf("expected to find field 'uv', got %#v", f)
	}
	if f := s.Field("missing"); f != nil {
		t.Errorf("expected no field for 'missing', got %#v", f)
	}
}

func TestArrayEqualsRequiresMatchingDims(t *testing.T) {
	a := Array{Elem: Scalar(Float), Dims: []int{4}}
	b := Array{Elem: Scalar(Float), Dims: []int{4}}
	c := Array{Elem: Scalar(Float), Dims: []int{8}}
	if !a.Equals(b) {
		t.Error("expected identical array shapes to be equal")
	}
	if a.Equals(c) {
		t.Error("expected mismatched dims to be unequal")
	}
}

func TestArraySubSteps(t *testing.T) {
	// float[4][2] -> (after one index) float[2] -> (after another) float.
	outer := Array{Elem: Scalar(Float), Dims: []int{4, 2}}
	inner := outer.Sub()
	innerArr, ok := inner.(Array)
	if !ok || len(innerArr.Dims) != 1 || innerArr.Dims[0] != 2 {
		t.Fatalf("expected one dimension to remain after Sub(), got %#v", inner)
	}
	scalar := innerArr.Sub()
	if !scalar.Equals(Scalar(Float)) {
		t.Errorf("expected Sub() to unwrap to a bare float, got %#v", scalar)
	}
}

func TestSubFreeFunction(t *testing.T) {
	// array -> element
	arr := Array{Elem: Scalar(Int), Dims: []int{3}}
	if sub, ok := Sub(arr); !ok || !sub.Equals(Scalar(Int)) {
		t.Errorf("expected array Sub to yield int, got %#v ok=%v", sub, ok)
	}
	// buffer -> generic element
	buf := Buffer{Kind: KindBuffer, Elem: Vec(Float, 4)}
	if sub, ok := Sub(buf); !ok || !sub.Equals(Vec(Float, 4)) {
		t.Errorf("expected buffer Sub to yield its generic element, got %#v ok=%v", sub, ok)
	}
	// untyped buffer -> defaults to vec4 float
	untyped := Buffer{Kind: KindBuffer}
	if sub, ok := Sub(untyped); !ok || !sub.Equals(Vec(Float, 4)) {
		t.Errorf("expected untyped buffer Sub to default to float4, got %#v ok=%v", sub, ok)
	}
	// vector -> scalar
	if sub, ok := Sub(Vec(Float, 3)); !ok || !sub.Equals(Scalar(Float)) {
		t.Errorf("expected vector Sub to yield its scalar element, got %#v ok=%v", sub, ok)
	}
	// matrix -> row vector
	if sub, ok := Sub(Mat(Float, 4, 4)); !ok || !sub.Equals(Vec(Float, 4)) {
		t.Errorf("expected matrix Sub to yield a vector of its column count, got %#v ok=%v", sub, ok)
	}
	// struct -> error (ok=false)
	if _, ok := Sub(Struct{DeclName: "Vertex"}); ok {
		t.Error("expected struct Sub to report failure")
	}
	// scalar -> error (no smaller rank below scalar)
	if _, ok := Sub(Scalar(Float)); ok {
		t.Error("expected scalar Sub to report failure")
	}
}

func TestCommonTypePromotionLadder(t *testing.T) {
	common, ok := CommonType(Scalar(Int), Scalar(Float))
	if !ok || !common.Equals(Scalar(Float)) {
		t.Fatalf("expected int,float -> float, got %#v ok=%v", common, ok)
	}
	common, ok = CommonType(Scalar(Bool), Scalar(UInt))
	if !ok || !common.Equals(Scalar(UInt)) {
		t.Fatalf("expected bool,uint -> uint, got %#v ok=%v", common, ok)
	}
}

func TestCommonTypeVectorDimIsMax(t *testing.T) {
	common, ok := CommonType(Scalar(Float), Vec(Float, 4))
	if !ok || !common.Equals(Vec(Float, 4)) {
		t.Fatalf("expected scalar,vec4 -> vec4 (max dim), got %#v ok=%v", common, ok)
	}
}

func TestCommonTypeIncompatibleVectorDimsFails(t *testing.T) {
	if _, ok := CommonType(Vec(Float, 2), Vec(Float, 3)); ok {
		t.Error("expected float2,float3 to have no common type")
	}
}

func TestCommonTypeMatrixRequiresIdenticalShape(t *testing.T) {
	common, ok := CommonType(Mat(Float, 4, 4), Mat(Int, 4, 4))
	if !ok || !common.Equals(Mat(Float, 4, 4)) {
		t.Fatalf("expected matching-shape matrices to promote their element kind, got %#v ok=%v", common, ok)
	}
	if _, ok := CommonType(Mat(Float, 4, 4), Mat(Float, 3, 3)); ok {
		t.Error("expected mismatched matrix shapes to have no common type")
	}
}

func TestIsScalarIsVectorIsMatrix(t *testing.T) {
	if !IsScalar(Scalar(Float)) || IsVector(Scalar(Float)) || IsMatrix(Scalar(Float)) {
		t.Error("scalar classification wrong")
	}
	if !IsVector(Vec(Float, 3)) || IsScalar(Vec(Float, 3)) {
		t.Error("vector classification wrong")
	}
	if !IsMatrix(Mat(Float, 4, 4)) || IsVector(Mat(Float, 4, 4)) {
		t.Error("matrix classification wrong")
	}
}

func TestCopyIsDeepForArrayAndStruct(t *testing.T) {
	orig := Array{Elem: Scalar(Float), Dims: []int{4}}
	cp := orig.Copy().(Array)
	cp.Dims[0] = 99
	if orig.Dims[0] == 99 {
		t.Error("expected Copy() to deep-copy the Dims slice")
	}
}

func TestVoidEqualsOnlyVoid(t *testing.T) {
	if !Void.Equals(Void) {
		t.Error("expected Void to equal itself")
	}
	if Void.Equals(Scalar(Float)) {
		t.Error("expected Void to not equal a float")
	}
	if Void.IsCastableTo(Scalar(Float)) {
		t.Error("expected Void to never be castable")
	}
}
