package reflect

import "codeberg.org/saruga/shaderxc/internal/types"

// TypeLayout holds size and alignment information for a resolved TypeDenoter
// under GLSL's std140 uniform-block layout rules.
type TypeLayout struct {
	Size      int
	Alignment int
	Stride    int // For arrays and matrix columns only (0 otherwise)
}

// scalarElemSize returns a base-kind element's size in bytes; every kind in
// this dialect's numeric ladder is 4 bytes except double, which is 8.
func scalarElemSize(k types.ScalarKind) int {
	if k == types.Double {
		return 8
	}
	return 4
}

// computeVecLayout computes the layout for a vector type.
// For vec2<T>: align = 2*sizeof(T), size = 2*sizeof(T)
// For vec3<T>: align = 4*sizeof(T), size = 3*sizeof(T)
// For vec4<T>: align = 4*sizeof(T), size = 4*sizeof(T)
func computeVecLayout(n int, elemSize int) TypeLayout {
	switch n {
	case 2:
		return TypeLayout{Size: elemSize * 2, Alignment: elemSize * 2}
	case 3:
		// vec3 has the alignment of vec4 but the size of 3 elements.
		return TypeLayout{Size: elemSize * 3, Alignment: elemSize * 4}
	case 4:
		return TypeLayout{Size: elemSize * 4, Alignment: elemSize * 4}
	default:
		return TypeLayout{Size: elemSize, Alignment: elemSize}
	}
}

// computeMatLayout computes the layout for a matrix type.
// A matCxR is C columns of vecR vectors; std140 rounds every column up to
// its own alignment, so the per-column stride is roundUp(colSize, colAlign).
func computeMatLayout(rows, cols int, elemSize int) TypeLayout {
	colVec := computeVecLayout(rows, elemSize)
	stride := roundUp(colVec.Size, colVec.Alignment)
	return TypeLayout{Size: cols * stride, Alignment: colVec.Alignment, Stride: stride}
}

// roundUp rounds x up to the nearest multiple of align.
func roundUp(x, align int) int {
	if align == 0 {
		return x
	}
	return ((x + align - 1) / align) * align
}
