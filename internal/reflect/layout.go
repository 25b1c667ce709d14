package reflect

import (
	"codeberg.org/saruga/shaderxc/internal/analyzer"
	"codeberg.org/saruga/shaderxc/internal/types"
)

// LayoutComputer computes std140 memory layouts for resolved TypeDenoters.
// It is built from one Analyze call's TypeInfo so struct field types are
// already resolved into the types.Type lattice rather than raw surface
// syntax, matching the pattern the rewriter and emitter each use to rebuild
// a types.Type from a decorated declaration.
type LayoutComputer struct {
	typeInfo    *analyzer.TypeInfo
	structCache map[string]*StructLayout
}

// NewLayoutComputer creates a layout computer scoped to one Analyze result.
func NewLayoutComputer(typeInfo *analyzer.TypeInfo) *LayoutComputer {
	return &LayoutComputer{
		typeInfo:    typeInfo,
		structCache: make(map[string]*StructLayout),
	}
}

// ComputeTypeLayout computes the std140 layout for any resolved TypeDenoter.
func (lc *LayoutComputer) ComputeTypeLayout(t types.Type) TypeLayout {
	if t == nil {
		return TypeLayout{}
	}

	switch typ := t.Aliased().(type) {
	case types.VoidType:
		return TypeLayout{}

	case types.Base:
		return lc.computeBaseLayout(typ)

	case types.Array:
		return lc.computeArrayLayout(typ)

	case types.Struct:
		if layout := lc.GetStructLayout(typ.DeclName); layout != nil {
			return TypeLayout{Size: layout.Size, Alignment: layout.Alignment}
		}
		return TypeLayout{}

	case types.Buffer, types.Sampler:
		// Resource handles have no host-addressable layout.
		return TypeLayout{}

	default:
		return TypeLayout{}
	}
}

// computeBaseLayout dispatches a scalar/vector/matrix Base type to the
// matching std140 layout rule.
func (lc *LayoutComputer) computeBaseLayout(b types.Base) TypeLayout {
	elemSize := scalarElemSize(b.Elem)
	switch {
	case b.IsScalar():
		return TypeLayout{Size: elemSize, Alignment: elemSize}
	case b.IsVector():
		return computeVecLayout(b.Dim(), elemSize)
	default:
		return computeMatLayout(b.Rows, b.Cols, elemSize)
	}
}

// computeArrayLayout computes an array's layout, folding nested dimensions
// from innermost to outermost; each dimension's stride rounds the inner
// element's size up to its alignment, per std140's array-stride rule.
func (lc *LayoutComputer) computeArrayLayout(a types.Array) TypeLayout {
	elem := lc.ComputeTypeLayout(a.Elem)
	if elem.Alignment == 0 {
		return TypeLayout{}
	}

	layout := elem
	for i := len(a.Dims) - 1; i >= 0; i-- {
		stride := roundUp(layout.Size, layout.Alignment)
		dim := a.Dims[i]
		size := 0
		if dim > 0 {
			size = dim * stride
		}
		layout = TypeLayout{Size: size, Alignment: layout.Alignment, Stride: stride}
	}
	return layout
}

// GetStructLayout returns the layout for the struct declared under name, or
// nil if no such struct was resolved during analysis.
func (lc *LayoutComputer) GetStructLayout(name string) *StructLayout {
	if cached, ok := lc.structCache[name]; ok {
		return cached
	}
	s, ok := lc.typeInfo.Structs[name]
	if !ok || s == nil {
		return nil
	}
	return lc.computeStructLayout(s)
}

// computeStructLayout computes the memory layout for a resolved struct,
// placing a cache entry before recursing so a self-referential array member
// (a struct containing an array of itself) can't loop forever.
func (lc *LayoutComputer) computeStructLayout(s *types.Struct) *StructLayout {
	if cached, ok := lc.structCache[s.DeclName]; ok {
		return cached
	}

	layout := &StructLayout{Fields: make([]FieldInfo, 0, len(s.Fields))}
	lc.structCache[s.DeclName] = layout

	var offset, maxAlign int
	maxAlign = 1

	for _, f := range s.Fields {
		fieldLayout := lc.ComputeTypeLayout(f.Type)
		if fieldLayout.Alignment == 0 {
			fieldLayout.Alignment = 1
		}

		offset = roundUp(offset, fieldLayout.Alignment)

		field := FieldInfo{
			Name:      f.Name,
			Type:      f.Type.String(),
			Offset:    offset,
			Size:      fieldLayout.Size,
			Alignment: fieldLayout.Alignment,
		}
		if st, ok := f.Type.Aliased().(types.Struct); ok {
			field.Layout = lc.GetStructLayout(st.DeclName)
		}
		if arr, ok := f.Type.Aliased().(types.Array); ok {
			if st, ok := arr.Elem.Aliased().(types.Struct); ok {
				field.Layout = lc.GetStructLayout(st.DeclName)
			}
		}

		layout.Fields = append(layout.Fields, field)
		offset += fieldLayout.Size
		if fieldLayout.Alignment > maxAlign {
			maxAlign = fieldLayout.Alignment
		}
	}

	layout.Alignment = maxAlign
	layout.Size = roundUp(offset, maxAlign)
	return layout
}
