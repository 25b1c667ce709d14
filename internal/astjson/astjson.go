// Package astjson is the JSON wire format the CLI, C-library, and WASM
// entry points decode into an *ast.Module (and encode a Result back out
// of). This repo owns no HLSL lexer/parser, so parsing is treated as an
// external collaborator, and every genuinely functional entry point needs
// *some* concrete artifact to read: a JSON-encoded syntax tree is the
// natural "a frontend already produced this" substitute, using the same
// Kind-string-plus-payload discriminated-union idiom Go's own ecosystem
// reaches for whenever a closed set of node types needs polymorphic
// encoding (encoding/json has no native sum-type support).
//
// The format is intentionally flat rather than a fully normalized
// envelope-of-RawMessage-per-variant scheme: one wire struct per syntactic
// category (Decl/Stmt/Expr/Type) carries every variant's fields with
// `omitempty`, tagged by a `kind` discriminator. For a grammar this size
// that trades a few unused fields per node for much less boilerplate than
// a RawMessage-per-kind scheme would need, while staying just as decodable
// without reflection tricks.
package astjson

import (
	"encoding/json"
	"fmt"

	"codeberg.org/saruga/shaderxc/internal/ast"
)

// ----------------------------------------------------------------------------
// Module (top-level document)
// ----------------------------------------------------------------------------

// ModuleDoc is the wire format for a whole compilation unit.
type ModuleDoc struct {
	SourcePath     string      `json:"sourcePath,omitempty"`
	EntryPointName string      `json:"entryPointName,omitempty"`
	Stage          string      `json:"stage,omitempty"`
	Declarations   []DeclWire  `json:"declarations"`
}

var stageNames = map[string]ast.ShaderStage{
	"vertex": ast.StageVertex, "tess_control": ast.StageTessControl,
	"tess_eval": ast.StageTessEval, "geometry": ast.StageGeometry,
	"fragment": ast.StageFragment, "compute": ast.StageCompute,
}

// Decode parses a JSON document into a fresh *ast.Module.
func Decode(data []byte) (*ast.Module, error) {
	var doc ModuleDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("astjson: %w", err)
	}

	m := ast.NewModule("", doc.SourcePath)
	m.EntryPointName = doc.EntryPointName
	if doc.Stage != "" {
		stage, ok := stageNames[doc.Stage]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown stage %q", doc.Stage)
		}
		m.Stage = stage
	}

	for _, dw := range doc.Declarations {
		decl, err := decodeTopLevelDecl(m, dw)
		if err != nil {
			return nil, err
		}
		m.Declarations = append(m.Declarations, decl)
	}
	return m, nil
}

// Encode renders module back to its JSON wire form (used by tooling that
// wants to inspect or round-trip a compiled-from-JSON module).
func Encode(m *ast.Module) ([]byte, error) {
	doc := ModuleDoc{
		SourcePath:     m.SourcePath,
		EntryPointName: m.EntryPointName,
		Stage:          m.Stage.String(),
	}
	for _, d := range m.Declarations {
		dw, err := encodeDecl(m, d)
		if err != nil {
			return nil, err
		}
		doc.Declarations = append(doc.Declarations, dw)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ----------------------------------------------------------------------------
// Auxiliaries: register, packoffset, semantic, array-dim, attribute
// ----------------------------------------------------------------------------

type RegisterWire struct {
	Slot  string `json:"slot"`
	Space int    `json:"space,omitempty"`
}

type PackOffsetWire struct {
	Component    int    `json:"component"`
	Subcomponent string `json:"subcomponent,omitempty"`
}

type SemanticWire struct {
	Name  string `json:"name"`
	Index int    `json:"index,omitempty"`
}

type ArrayDimWire struct {
	Size *ExprWire `json:"size,omitempty"` // nil means unspecified-length
}

type AttributeWire struct {
	Name string      `json:"name"`
	Args []*ExprWire `json:"args,omitempty"`
}

func decodeRegister(w *RegisterWire) *ast.Register {
	if w == nil {
		return nil
	}
	return &ast.Register{Slot: w.Slot, Space: w.Space}
}

func encodeRegister(r *ast.Register) *RegisterWire {
	if r == nil {
		return nil
	}
	return &RegisterWire{Slot: r.Slot, Space: r.Space}
}

func decodePackOffset(w *PackOffsetWire) *ast.PackOffset {
	if w == nil {
		return nil
	}
	return &ast.PackOffset{Component: w.Component, Subcomponent: w.Subcomponent}
}

func encodePackOffset(p *ast.PackOffset) *PackOffsetWire {
	if p == nil {
		return nil
	}
	return &PackOffsetWire{Component: p.Component, Subcomponent: p.Subcomponent}
}

func decodeSemantic(w *SemanticWire) *ast.Semantic {
	if w == nil {
		return nil
	}
	return &ast.Semantic{Name: w.Name, Index: w.Index}
}

func encodeSemantic(s *ast.Semantic) *SemanticWire {
	if s == nil {
		return nil
	}
	return &SemanticWire{Name: s.Name, Index: s.Index}
}

func decodeArrayDims(ws []ArrayDimWire) ([]ast.ArrayDim, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	dims := make([]ast.ArrayDim, len(ws))
	for i, w := range ws {
		size, err := decodeExpr(w.Size)
		if err != nil {
			return nil, err
		}
		dims[i] = ast.ArrayDim{Size: size}
	}
	return dims, nil
}

func encodeArrayDims(dims []ast.ArrayDim) ([]ArrayDimWire, error) {
	if len(dims) == 0 {
		return nil, nil
	}
	ws := make([]ArrayDimWire, len(dims))
	for i, d := range dims {
		size, err := encodeExpr(d.Size)
		if err != nil {
			return nil, err
		}
		ws[i] = ArrayDimWire{Size: size}
	}
	return ws, nil
}

func decodeAttributes(ws []AttributeWire) ([]ast.Attribute, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	attrs := make([]ast.Attribute, len(ws))
	for i, w := range ws {
		args, err := decodeExprs(w.Args)
		if err != nil {
			return nil, err
		}
		attrs[i] = ast.Attribute{Name: w.Name, Args: args}
	}
	return attrs, nil
}

func encodeAttributes(attrs []ast.Attribute) ([]AttributeWire, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	ws := make([]AttributeWire, len(attrs))
	for i, a := range attrs {
		args, err := encodeExprs(a.Args)
		if err != nil {
			return nil, err
		}
		ws[i] = AttributeWire{Name: a.Name, Args: args}
	}
	return ws, nil
}

// ----------------------------------------------------------------------------
// Types
// ----------------------------------------------------------------------------

// TypeWire is the flat wire form for every ast.Type variant.
type TypeWire struct {
	Kind       string         `json:"kind"` // "ident" | "array" | "buffer" | "sampler"
	Name       string         `json:"name,omitempty"`
	Elem       *TypeWire      `json:"elem,omitempty"`
	Dims       []ArrayDimWire `json:"dims,omitempty"`
	BufferKind string         `json:"bufferKind,omitempty"`
	SamplerDim string         `json:"samplerDim,omitempty"`
}

var bufferKindNames = map[string]ast.BufferKind{
	"Buffer": ast.BufferGeneric, "RWBuffer": ast.BufferRWGeneric,
	"Texture1D": ast.BufferTexture1D, "Texture1DArray": ast.BufferTexture1DArray,
	"Texture2D": ast.BufferTexture2D, "Texture2DArray": ast.BufferTexture2DArray,
	"Texture2DMS": ast.BufferTexture2DMS, "Texture2DMSArray": ast.BufferTexture2DMSArray,
	"Texture3D": ast.BufferTexture3D, "TextureCube": ast.BufferTextureCube,
	"TextureCubeArray": ast.BufferTextureCubeArray, "RWTexture1D": ast.BufferRWTexture1D,
	"RWTexture1DArray": ast.BufferRWTexture1DArray, "RWTexture2D": ast.BufferRWTexture2D,
	"RWTexture2DArray": ast.BufferRWTexture2DArray, "RWTexture3D": ast.BufferRWTexture3D,
}

var bufferKindToName = func() map[ast.BufferKind]string {
	m := make(map[ast.BufferKind]string, len(bufferKindNames))
	for name, k := range bufferKindNames {
		m[k] = name
	}
	return m
}()

var samplerDimNames = map[string]ast.SamplerDim{
	"1D": ast.Sampler1D, "2D": ast.Sampler2D, "3D": ast.Sampler3D,
	"Cube": ast.SamplerCubeDim, "Comparison": ast.SamplerComparison,
}

var samplerDimToName = func() map[ast.SamplerDim]string {
	m := make(map[ast.SamplerDim]string, len(samplerDimNames))
	for name, d := range samplerDimNames {
		m[d] = name
	}
	return m
}()

func decodeType(w *TypeWire) (ast.Type, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "ident":
		return &ast.IdentType{Name: w.Name}, nil
	case "array":
		elem, err := decodeType(w.Elem)
		if err != nil {
			return nil, err
		}
		dims, err := decodeArrayDims(w.Dims)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayType{ElemType: elem, Dims: dims}, nil
	case "buffer":
		kind, ok := bufferKindNames[w.BufferKind]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown bufferKind %q", w.BufferKind)
		}
		elem, err := decodeType(w.Elem)
		if err != nil {
			return nil, err
		}
		return &ast.BufferType{Kind: kind, ElemType: elem}, nil
	case "sampler":
		dim, ok := samplerDimNames[w.SamplerDim]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown samplerDim %q", w.SamplerDim)
		}
		return &ast.SamplerTypeSpec{Dim: dim}, nil
	default:
		return nil, fmt.Errorf("astjson: unknown type kind %q", w.Kind)
	}
}

func encodeType(t ast.Type) (*TypeWire, error) {
	if t == nil {
		return nil, nil
	}
	switch v := t.(type) {
	case *ast.IdentType:
		return &TypeWire{Kind: "ident", Name: v.Name}, nil
	case *ast.ArrayType:
		elem, err := encodeType(v.ElemType)
		if err != nil {
			return nil, err
		}
		dims, err := encodeArrayDims(v.Dims)
		if err != nil {
			return nil, err
		}
		return &TypeWire{Kind: "array", Elem: elem, Dims: dims}, nil
	case *ast.BufferType:
		elem, err := encodeType(v.ElemType)
		if err != nil {
			return nil, err
		}
		return &TypeWire{Kind: "buffer", BufferKind: bufferKindToName[v.Kind], Elem: elem}, nil
	case *ast.SamplerTypeSpec:
		return &TypeWire{Kind: "sampler", SamplerDim: samplerDimToName[v.Dim]}, nil
	default:
		return nil, fmt.Errorf("astjson: unhandled type node %T", t)
	}
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// ExprWire is the flat wire form for every ast.Expr variant.
type ExprWire struct {
	Kind string `json:"kind"`

	// literal
	LitKind string `json:"litKind,omitempty"`
	Value   string `json:"value,omitempty"`

	// object (identifier / member chain)
	Ident     string    `json:"ident,omitempty"`
	Prefix    *ExprWire `json:"prefix,omitempty"`
	Next      *ExprWire `json:"next,omitempty"`
	IsSwizzle bool      `json:"isSwizzle,omitempty"`

	// array access
	Indices []*ExprWire `json:"indices,omitempty"`

	// call
	Name string      `json:"name,omitempty"`
	Args []*ExprWire `json:"args,omitempty"`

	// cast / typeExpr
	Target *TypeWire `json:"target,omitempty"`
	Type   *TypeWire `json:"type,omitempty"`

	// bracket
	Inner *ExprWire `json:"inner,omitempty"`

	// unary
	Op      string    `json:"op,omitempty"`
	Operand *ExprWire `json:"operand,omitempty"`
	IsPost  bool      `json:"isPost,omitempty"`

	// binary
	Lhs *ExprWire `json:"lhs,omitempty"`
	Rhs *ExprWire `json:"rhs,omitempty"`

	// ternary
	Cond *ExprWire `json:"cond,omitempty"`
	Then *ExprWire `json:"then,omitempty"`
	Else *ExprWire `json:"else,omitempty"`

	// assign
	Lvalue *ExprWire `json:"lvalue,omitempty"`
	Rvalue *ExprWire `json:"rvalue,omitempty"`

	// sequence / initializer
	Exprs []*ExprWire `json:"exprs,omitempty"`
}

var litKindNames = map[string]ast.LiteralKind{
	"bool": ast.LitBool, "int": ast.LitInt, "uint": ast.LitUInt,
	"float": ast.LitFloat, "double": ast.LitDouble, "string": ast.LitString,
}
var litKindToName = func() map[ast.LiteralKind]string {
	m := make(map[ast.LiteralKind]string, len(litKindNames))
	for name, k := range litKindNames {
		m[k] = name
	}
	return m
}()

var unaryOpNames = map[string]ast.UnaryOp{
	"neg": ast.UnaryNeg, "not": ast.UnaryNot, "bitnot": ast.UnaryBitNot,
	"preincr": ast.UnaryPreIncr, "predecr": ast.UnaryPreDecr,
	"postincr": ast.UnaryPostIncr, "postdecr": ast.UnaryPostDecr,
}
var unaryOpToName = func() map[ast.UnaryOp]string {
	m := make(map[ast.UnaryOp]string, len(unaryOpNames))
	for name, op := range unaryOpNames {
		m[op] = name
	}
	return m
}()

var binaryOpNames = map[string]ast.BinaryOp{
	"add": ast.BinAdd, "sub": ast.BinSub, "mul": ast.BinMul, "div": ast.BinDiv, "mod": ast.BinMod,
	"eq": ast.BinEq, "ne": ast.BinNe, "lt": ast.BinLt, "le": ast.BinLe, "gt": ast.BinGt, "ge": ast.BinGe,
	"and": ast.BinLogicalAnd, "or": ast.BinLogicalOr,
	"bitand": ast.BinBitAnd, "bitor": ast.BinBitOr, "bitxor": ast.BinBitXor,
	"shl": ast.BinShl, "shr": ast.BinShr,
}
var binaryOpToName = func() map[ast.BinaryOp]string {
	m := make(map[ast.BinaryOp]string, len(binaryOpNames))
	for name, op := range binaryOpNames {
		m[op] = name
	}
	return m
}()

var assignOpNames = map[string]ast.AssignOp{
	"set": ast.AssignSet, "add": ast.AssignAdd, "sub": ast.AssignSub, "mul": ast.AssignMul,
	"div": ast.AssignDiv, "mod": ast.AssignMod, "bitand": ast.AssignBitAnd,
	"bitor": ast.AssignBitOr, "bitxor": ast.AssignBitXor, "shl": ast.AssignShl, "shr": ast.AssignShr,
}
var assignOpToName = func() map[ast.AssignOp]string {
	m := make(map[ast.AssignOp]string, len(assignOpNames))
	for name, op := range assignOpNames {
		m[op] = name
	}
	return m
}()

func decodeExpr(w *ExprWire) (ast.Expr, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "literal":
		kind, ok := litKindNames[w.LitKind]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown litKind %q", w.LitKind)
		}
		return &ast.LiteralExpr{Kind: kind, Value: w.Value}, nil

	case "object":
		prefix, err := decodeExpr(w.Prefix)
		if err != nil {
			return nil, err
		}
		var next *ast.ObjectExpr
		if w.Next != nil {
			n, err := decodeExpr(w.Next)
			if err != nil {
				return nil, err
			}
			obj, ok := n.(*ast.ObjectExpr)
			if !ok {
				return nil, fmt.Errorf("astjson: object.next must itself be an object node")
			}
			next = obj
		}
		return &ast.ObjectExpr{Ident: w.Ident, Prefix: prefix, Next: next, IsSwizzle: w.IsSwizzle}, nil

	case "array":
		prefix, err := decodeExpr(w.Prefix)
		if err != nil {
			return nil, err
		}
		indices, err := decodeExprs(w.Indices)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayExpr{Prefix: prefix, Indices: indices}, nil

	case "call":
		prefix, err := decodeExpr(w.Prefix)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(w.Args)
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr{Prefix: prefix, Name: w.Name, Args: args}, nil

	case "cast":
		target, err := decodeType(w.Target)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(w.Args)
		if err != nil {
			return nil, err
		}
		return &ast.CastExpr{Target: target, Args: args}, nil

	case "bracket":
		inner, err := decodeExpr(w.Inner)
		if err != nil {
			return nil, err
		}
		return &ast.BracketExpr{Inner: inner}, nil

	case "unary":
		op, ok := unaryOpNames[w.Op]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown unary op %q", w.Op)
		}
		operand, err := decodeExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, Operand: operand, IsPost: w.IsPost}, nil

	case "binary":
		op, ok := binaryOpNames[w.Op]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown binary op %q", w.Op)
		}
		lhs, err := decodeExpr(w.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(w.Rhs)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: op, Lhs: lhs, Rhs: rhs}, nil

	case "ternary":
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeExpr(w.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeExpr(w.Else)
		if err != nil {
			return nil, err
		}
		return &ast.TernaryExpr{Cond: cond, Then: then, Else: els}, nil

	case "assign":
		op, ok := assignOpNames[w.Op]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown assign op %q", w.Op)
		}
		lvalue, err := decodeExpr(w.Lvalue)
		if err != nil {
			return nil, err
		}
		rvalue, err := decodeExpr(w.Rvalue)
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpr{Op: op, Lvalue: lvalue, Rvalue: rvalue}, nil

	case "sequence":
		exprs, err := decodeExprs(w.Exprs)
		if err != nil {
			return nil, err
		}
		return &ast.SequenceExpr{Exprs: exprs}, nil

	case "initializer":
		exprs, err := decodeExprs(w.Exprs)
		if err != nil {
			return nil, err
		}
		return &ast.InitializerExpr{Exprs: exprs}, nil

	case "typeExpr":
		typ, err := decodeType(w.Type)
		if err != nil {
			return nil, err
		}
		return &ast.TypeExpr{Type: typ}, nil

	default:
		return nil, fmt.Errorf("astjson: unknown expr kind %q", w.Kind)
	}
}

func decodeExprs(ws []*ExprWire) ([]ast.Expr, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	exprs := make([]ast.Expr, len(ws))
	for i, w := range ws {
		e, err := decodeExpr(w)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	return exprs, nil
}

func encodeExpr(e ast.Expr) (*ExprWire, error) {
	if e == nil {
		return nil, nil
	}
	switch v := e.(type) {
	case *ast.LiteralExpr:
		return &ExprWire{Kind: "literal", LitKind: litKindToName[v.Kind], Value: v.Value}, nil

	case *ast.ObjectExpr:
		prefix, err := encodeExpr(v.Prefix)
		if err != nil {
			return nil, err
		}
		var next *ExprWire
		if v.Next != nil {
			next, err = encodeExpr(v.Next)
			if err != nil {
				return nil, err
			}
		}
		return &ExprWire{Kind: "object", Ident: v.Ident, Prefix: prefix, Next: next, IsSwizzle: v.IsSwizzle}, nil

	case *ast.ArrayExpr:
		prefix, err := encodeExpr(v.Prefix)
		if err != nil {
			return nil, err
		}
		indices, err := encodeExprs(v.Indices)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "array", Prefix: prefix, Indices: indices}, nil

	case *ast.CallExpr:
		prefix, err := encodeExpr(v.Prefix)
		if err != nil {
			return nil, err
		}
		args, err := encodeExprs(v.Args)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "call", Prefix: prefix, Name: v.Name, Args: args}, nil

	case *ast.CastExpr:
		target, err := encodeType(v.Target)
		if err != nil {
			return nil, err
		}
		args, err := encodeExprs(v.Args)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "cast", Target: target, Args: args}, nil

	case *ast.BracketExpr:
		inner, err := encodeExpr(v.Inner)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "bracket", Inner: inner}, nil

	case *ast.UnaryExpr:
		operand, err := encodeExpr(v.Operand)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "unary", Op: unaryOpToName[v.Op], Operand: operand, IsPost: v.IsPost}, nil

	case *ast.BinaryExpr:
		lhs, err := encodeExpr(v.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := encodeExpr(v.Rhs)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "binary", Op: binaryOpToName[v.Op], Lhs: lhs, Rhs: rhs}, nil

	case *ast.TernaryExpr:
		cond, err := encodeExpr(v.Cond)
		if err != nil {
			return nil, err
		}
		then, err := encodeExpr(v.Then)
		if err != nil {
			return nil, err
		}
		els, err := encodeExpr(v.Else)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "ternary", Cond: cond, Then: then, Else: els}, nil

	case *ast.AssignExpr:
		lvalue, err := encodeExpr(v.Lvalue)
		if err != nil {
			return nil, err
		}
		rvalue, err := encodeExpr(v.Rvalue)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "assign", Op: assignOpToName[v.Op], Lvalue: lvalue, Rvalue: rvalue}, nil

	case *ast.SequenceExpr:
		exprs, err := encodeExprs(v.Exprs)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "sequence", Exprs: exprs}, nil

	case *ast.InitializerExpr:
		exprs, err := encodeExprs(v.Exprs)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "initializer", Exprs: exprs}, nil

	case *ast.TypeExpr:
		typ, err := encodeType(v.Type)
		if err != nil {
			return nil, err
		}
		return &ExprWire{Kind: "typeExpr", Type: typ}, nil

	default:
		return nil, fmt.Errorf("astjson: unhandled expr node %T", e)
	}
}

func encodeExprs(exprs []ast.Expr) ([]*ExprWire, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	ws := make([]*ExprWire, len(exprs))
	for i, e := range exprs {
		w, err := encodeExpr(e)
		if err != nil {
			return nil, err
		}
		ws[i] = w
	}
	return ws, nil
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// SwitchCaseWire is one `case`/`default` arm of a switch statement.
type SwitchCaseWire struct {
	Selectors []*ExprWire `json:"selectors,omitempty"` // empty means default
	Body      []*StmtWire `json:"body,omitempty"`
}

// StmtWire is the flat wire form for every ast.Stmt variant.
type StmtWire struct {
	Kind string `json:"kind"`

	// compound
	Stmts []*StmtWire `json:"stmts,omitempty"`

	// decl-stmt
	Decl *DeclWire `json:"decl,omitempty"`

	// expr-stmt / return
	Expr *ExprWire `json:"expr,omitempty"`

	// for
	Init      *StmtWire `json:"init,omitempty"`
	Condition *ExprWire `json:"condition,omitempty"`
	Update    *StmtWire `json:"update,omitempty"`
	Body      *StmtWire `json:"body,omitempty"`

	// if
	Then *StmtWire `json:"then,omitempty"`
	Else *StmtWire `json:"else,omitempty"`

	// switch
	Selector *ExprWire        `json:"selector,omitempty"`
	Cases    []SwitchCaseWire `json:"cases,omitempty"`

	// control-transfer
	CtrlKind string `json:"ctrlKind,omitempty"`
}

var ctrlKindNames = map[string]ast.ControlTransferKind{
	"break": ast.CtrlBreak, "continue": ast.CtrlContinue, "discard": ast.CtrlDiscard,
}
var ctrlKindToName = func() map[ast.ControlTransferKind]string {
	m := make(map[ast.ControlTransferKind]string, len(ctrlKindNames))
	for name, k := range ctrlKindNames {
		m[k] = name
	}
	return m
}()

func decodeStmt(m *ast.Module, w *StmtWire) (ast.Stmt, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "compound":
		stmts, err := decodeStmts(m, w.Stmts)
		if err != nil {
			return nil, err
		}
		return &ast.CompoundStmt{Stmts: stmts}, nil

	case "null":
		return &ast.NullStmt{}, nil

	case "declStmt":
		decl, err := decodeTopLevelDecl(m, *w.Decl, withLocalDecl())
		if err != nil {
			return nil, err
		}
		return &ast.DeclStmt{Decl: decl}, nil

	case "for":
		init, err := decodeStmt(m, w.Init)
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Condition)
		if err != nil {
			return nil, err
		}
		update, err := decodeStmt(m, w.Update)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(m, w.Body)
		if err != nil {
			return nil, err
		}
		return &ast.ForStmt{Init: init, Condition: cond, Update: update, Body: body}, nil

	case "while":
		cond, err := decodeExpr(w.Condition)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(m, w.Body)
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Condition: cond, Body: body}, nil

	case "doWhile":
		body, err := decodeStmt(m, w.Body)
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Condition)
		if err != nil {
			return nil, err
		}
		return &ast.DoWhileStmt{Body: body, Condition: cond}, nil

	case "if":
		cond, err := decodeExpr(w.Condition)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmt(m, w.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeStmt(m, w.Else)
		if err != nil {
			return nil, err
		}
		return &ast.IfStmt{Condition: cond, Then: then, Else: els}, nil

	case "switch":
		selector, err := decodeExpr(w.Selector)
		if err != nil {
			return nil, err
		}
		cases := make([]ast.SwitchCase, len(w.Cases))
		for i, c := range w.Cases {
			selectors, err := decodeExprs(c.Selectors)
			if err != nil {
				return nil, err
			}
			body, err := decodeStmts(m, c.Body)
			if err != nil {
				return nil, err
			}
			cases[i] = ast.SwitchCase{Selectors: selectors, Body: body}
		}
		return &ast.SwitchStmt{Selector: selector, Cases: cases}, nil

	case "exprStmt":
		expr, err := decodeExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Expr: expr}, nil

	case "return":
		value, err := decodeExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Value: value}, nil

	case "ctrlTransfer":
		kind, ok := ctrlKindNames[w.CtrlKind]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown ctrlKind %q", w.CtrlKind)
		}
		return &ast.ControlTransferStmt{Kind: kind}, nil

	default:
		return nil, fmt.Errorf("astjson: unknown stmt kind %q", w.Kind)
	}
}

func decodeStmts(m *ast.Module, ws []*StmtWire) ([]ast.Stmt, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	stmts := make([]ast.Stmt, len(ws))
	for i, w := range ws {
		s, err := decodeStmt(m, w)
		if err != nil {
			return nil, err
		}
		stmts[i] = s
	}
	return stmts, nil
}

func encodeStmt(m *ast.Module, s ast.Stmt) (*StmtWire, error) {
	if s == nil {
		return nil, nil
	}
	switch v := s.(type) {
	case *ast.CompoundStmt:
		stmts, err := encodeStmts(m, v.Stmts)
		if err != nil {
			return nil, err
		}
		return &StmtWire{Kind: "compound", Stmts: stmts}, nil

	case *ast.NullStmt:
		return &StmtWire{Kind: "null"}, nil

	case *ast.DeclStmt:
		dw, err := encodeDecl(m, v.Decl)
		if err != nil {
			return nil, err
		}
		return &StmtWire{Kind: "declStmt", Decl: &dw}, nil

	case *ast.ForStmt:
		init, err := encodeStmt(m, v.Init)
		if err != nil {
			return nil, err
		}
		cond, err := encodeExpr(v.Condition)
		if err != nil {
			return nil, err
		}
		update, err := encodeStmt(m, v.Update)
		if err != nil {
			return nil, err
		}
		body, err := encodeStmt(m, v.Body)
		if err != nil {
			return nil, err
		}
		return &StmtWire{Kind: "for", Init: init, Condition: cond, Update: update, Body: body}, nil

	case *ast.WhileStmt:
		cond, err := encodeExpr(v.Condition)
		if err != nil {
			return nil, err
		}
		body, err := encodeStmt(m, v.Body)
		if err != nil {
			return nil, err
		}
		return &StmtWire{Kind: "while", Condition: cond, Body: body}, nil

	case *ast.DoWhileStmt:
		body, err := encodeStmt(m, v.Body)
		if err != nil {
			return nil, err
		}
		cond, err := encodeExpr(v.Condition)
		if err != nil {
			return nil, err
		}
		return &StmtWire{Kind: "doWhile", Body: body, Condition: cond}, nil

	case *ast.IfStmt:
		cond, err := encodeExpr(v.Condition)
		if err != nil {
			return nil, err
		}
		then, err := encodeStmt(m, v.Then)
		if err != nil {
			return nil, err
		}
		els, err := encodeStmt(m, v.Else)
		if err != nil {
			return nil, err
		}
		return &StmtWire{Kind: "if", Condition: cond, Then: then, Else: els}, nil

	case *ast.SwitchStmt:
		selector, err := encodeExpr(v.Selector)
		if err != nil {
			return nil, err
		}
		cases := make([]SwitchCaseWire, len(v.Cases))
		for i, c := range v.Cases {
			selectors, err := encodeExprs(c.Selectors)
			if err != nil {
				return nil, err
			}
			body, err := encodeStmts(m, c.Body)
			if err != nil {
				return nil, err
			}
			cases[i] = SwitchCaseWire{Selectors: selectors, Body: body}
		}
		return &StmtWire{Kind: "switch", Selector: selector, Cases: cases}, nil

	case *ast.ExprStmt:
		expr, err := encodeExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return &StmtWire{Kind: "exprStmt", Expr: expr}, nil

	case *ast.ReturnStmt:
		value, err := encodeExpr(v.Value)
		if err != nil {
			return nil, err
		}
		return &StmtWire{Kind: "return", Expr: value}, nil

	case *ast.ControlTransferStmt:
		return &StmtWire{Kind: "ctrlTransfer", CtrlKind: ctrlKindToName[v.Kind]}, nil

	default:
		return nil, fmt.Errorf("astjson: unhandled stmt node %T", s)
	}
}

func encodeStmts(m *ast.Module, stmts []ast.Stmt) ([]*StmtWire, error) {
	if len(stmts) == 0 {
		return nil, nil
	}
	ws := make([]*StmtWire, len(stmts))
	for i, s := range stmts {
		w, err := encodeStmt(m, s)
		if err != nil {
			return nil, err
		}
		ws[i] = w
	}
	return ws, nil
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// FieldWire is one StructDecl member.
type FieldWire struct {
	Name      string         `json:"name"`
	Type      *TypeWire      `json:"type"`
	Semantic  *SemanticWire  `json:"semantic,omitempty"`
	ArrayDims []ArrayDimWire `json:"arrayDims,omitempty"`
}

// ParamWire is one FunctionDecl parameter.
type ParamWire struct {
	Name     string        `json:"name"`
	Type     *TypeWire     `json:"type"`
	Semantic *SemanticWire `json:"semantic,omitempty"`
	IsOutput bool          `json:"isOutput,omitempty"`
	IsInout  bool          `json:"isInout,omitempty"`
}

// DeclWire is the flat wire form for every ast.Decl variant.
type DeclWire struct {
	Kind string `json:"kind"` // "var" | "buffer" | "sampler" | "struct" | "alias" | "function"
	Name string `json:"name"`

	// var
	Type        *TypeWire       `json:"type,omitempty"`
	Initializer *ExprWire       `json:"initializer,omitempty"`
	IsConst     bool            `json:"isConst,omitempty"`
	IsUniform   bool            `json:"isUniform,omitempty"`
	IsStatic    bool            `json:"isStatic,omitempty"`
	Semantic    *SemanticWire   `json:"semantic,omitempty"`
	Register    *RegisterWire   `json:"register,omitempty"`
	PackOffset  *PackOffsetWire `json:"packOffset,omitempty"`
	ArrayDims   []ArrayDimWire  `json:"arrayDims,omitempty"`

	// buffer
	BufferKind string    `json:"bufferKind,omitempty"`
	ElemType   *TypeWire `json:"elemType,omitempty"`

	// sampler
	SamplerDim string `json:"samplerDim,omitempty"`

	// struct
	Fields        []FieldWire `json:"fields,omitempty"`
	IsConstantBuf bool        `json:"isConstantBuf,omitempty"`

	// function
	Parameters     []ParamWire     `json:"parameters,omitempty"`
	ReturnType     *TypeWire       `json:"returnType,omitempty"`
	ReturnSemantic *SemanticWire   `json:"returnSemantic,omitempty"`
	Attributes     []AttributeWire `json:"attributes,omitempty"`
	Body           *StmtWire       `json:"body,omitempty"`
	IsEntryPoint   bool            `json:"isEntryPoint,omitempty"`
}

// decodeOpts controls how decodeTopLevelDecl registers the declaration's
// symbol: top-level declarations get DeclIndex set to their slot in
// Module.Declarations, while locally scoped ones (statement-position var
// decls, struct fields, parameters) get DeclIndex -1, per ast.Symbol's own
// doc comment.
type decodeOpts struct{ local bool }

func withLocalDecl() decodeOpts { return decodeOpts{local: true} }

func declIndex(m *ast.Module, opts decodeOpts) int {
	if opts.local {
		return -1
	}
	return len(m.Declarations)
}

func decodeTopLevelDecl(m *ast.Module, w DeclWire, opts ...decodeOpts) (ast.Decl, error) {
	var o decodeOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	idx := declIndex(m, o)

	switch w.Kind {
	case "var":
		symKind := ast.SymbolVar
		if w.IsConst {
			symKind = ast.SymbolConst
		}
		ref := m.AddSymbol(ast.Symbol{OriginalName: w.Name, Kind: symKind, DeclIndex: idx})
		typ, err := decodeType(w.Type)
		if err != nil {
			return nil, err
		}
		init, err := decodeExpr(w.Initializer)
		if err != nil {
			return nil, err
		}
		dims, err := decodeArrayDims(w.ArrayDims)
		if err != nil {
			return nil, err
		}
		return &ast.VarDecl{
			Name:        ref,
			Type:        typ,
			Initializer: init,
			Semantic:    decodeSemantic(w.Semantic),
			Register:    decodeRegister(w.Register),
			PackOffset:  decodePackOffset(w.PackOffset),
			ArrayDims:   dims,
			IsConst:     w.IsConst,
			IsUniform:   w.IsUniform,
			IsStatic:    w.IsStatic,
		}, nil

	case "buffer":
		ref := m.AddSymbol(ast.Symbol{OriginalName: w.Name, Kind: ast.SymbolBuffer, DeclIndex: idx})
		kind, ok := bufferKindNames[w.BufferKind]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown bufferKind %q", w.BufferKind)
		}
		elem, err := decodeType(w.ElemType)
		if err != nil {
			return nil, err
		}
		return &ast.BufferDecl{Name: ref, Kind: kind, ElemType: elem, Register: decodeRegister(w.Register)}, nil

	case "sampler":
		ref := m.AddSymbol(ast.Symbol{OriginalName: w.Name, Kind: ast.SymbolSampler, DeclIndex: idx})
		dim, ok := samplerDimNames[w.SamplerDim]
		if !ok {
			return nil, fmt.Errorf("astjson: unknown samplerDim %q", w.SamplerDim)
		}
		return &ast.SamplerDecl{Name: ref, Dim: dim, Register: decodeRegister(w.Register)}, nil

	case "struct":
		ref := m.AddSymbol(ast.Symbol{OriginalName: w.Name, Kind: ast.SymbolStruct, DeclIndex: idx})
		fields := make([]ast.StructField, len(w.Fields))
		for i, f := range w.Fields {
			fieldRef := m.AddSymbol(ast.Symbol{OriginalName: f.Name, Kind: ast.SymbolStructField, DeclIndex: -1})
			typ, err := decodeType(f.Type)
			if err != nil {
				return nil, err
			}
			dims, err := decodeArrayDims(f.ArrayDims)
			if err != nil {
				return nil, err
			}
			fields[i] = ast.StructField{Name: fieldRef, Type: typ, Semantic: decodeSemantic(f.Semantic), ArrayDims: dims}
		}
		return &ast.StructDecl{Name: ref, Fields: fields, IsConstantBuf: w.IsConstantBuf, Register: decodeRegister(w.Register)}, nil

	case "alias":
		ref := m.AddSymbol(ast.Symbol{OriginalName: w.Name, Kind: ast.SymbolAlias, DeclIndex: idx})
		typ, err := decodeType(w.Type)
		if err != nil {
			return nil, err
		}
		return &ast.AliasDecl{Name: ref, Type: typ}, nil

	case "function":
		ref := m.AddSymbol(ast.Symbol{OriginalName: w.Name, Kind: ast.SymbolFunction, DeclIndex: idx})
		params := make([]ast.Param, len(w.Parameters))
		for i, p := range w.Parameters {
			paramRef := m.AddSymbol(ast.Symbol{OriginalName: p.Name, Kind: ast.SymbolParam, DeclIndex: -1})
			typ, err := decodeType(p.Type)
			if err != nil {
				return nil, err
			}
			params[i] = ast.Param{Name: paramRef, Type: typ, Semantic: decodeSemantic(p.Semantic), IsOutput: p.IsOutput, IsInout: p.IsInout}
		}
		retType, err := decodeType(w.ReturnType)
		if err != nil {
			return nil, err
		}
		attrs, err := decodeAttributes(w.Attributes)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(m, w.Body)
		if err != nil {
			return nil, err
		}
		compound, _ := body.(*ast.CompoundStmt)
		if body != nil && compound == nil {
			return nil, fmt.Errorf("astjson: function body must be a compound statement")
		}
		fn := &ast.FunctionDecl{
			Name:           ref,
			Parameters:     params,
			ReturnType:     retType,
			ReturnSemantic: decodeSemantic(w.ReturnSemantic),
			Attributes:     attrs,
			Body:           compound,
		}
		fn.Flags().IsEntryPoint = w.IsEntryPoint
		return fn, nil

	default:
		return nil, fmt.Errorf("astjson: unknown decl kind %q", w.Kind)
	}
}

func encodeDecl(m *ast.Module, d ast.Decl) (DeclWire, error) {
	switch v := d.(type) {
	case *ast.VarDecl:
		typ, err := encodeType(v.Type)
		if err != nil {
			return DeclWire{}, err
		}
		init, err := encodeExpr(v.Initializer)
		if err != nil {
			return DeclWire{}, err
		}
		dims, err := encodeArrayDims(v.ArrayDims)
		if err != nil {
			return DeclWire{}, err
		}
		return DeclWire{
			Kind: "var", Name: m.Name(v.Name), Type: typ, Initializer: init,
			IsConst: v.IsConst, IsUniform: v.IsUniform, IsStatic: v.IsStatic,
			Semantic: encodeSemantic(v.Semantic), Register: encodeRegister(v.Register),
			PackOffset: encodePackOffset(v.PackOffset), ArrayDims: dims,
		}, nil

	case *ast.BufferDecl:
		elem, err := encodeType(v.ElemType)
		if err != nil {
			return DeclWire{}, err
		}
		return DeclWire{
			Kind: "buffer", Name: m.Name(v.Name), BufferKind: bufferKindToName[v.Kind],
			ElemType: elem, Register: encodeRegister(v.Register),
		}, nil

	case *ast.SamplerDecl:
		return DeclWire{
			Kind: "sampler", Name: m.Name(v.Name), SamplerDim: samplerDimToName[v.Dim],
			Register: encodeRegister(v.Register),
		}, nil

	case *ast.StructDecl:
		fields := make([]FieldWire, len(v.Fields))
		for i, f := range v.Fields {
			typ, err := encodeType(f.Type)
			if err != nil {
				return DeclWire{}, err
			}
			dims, err := encodeArrayDims(f.ArrayDims)
			if err != nil {
				return DeclWire{}, err
			}
			fields[i] = FieldWire{Name: m.Name(f.Name), Type: typ, Semantic: encodeSemantic(f.Semantic), ArrayDims: dims}
		}
		return DeclWire{
			Kind: "struct", Name: m.Name(v.Name), Fields: fields,
			IsConstantBuf: v.IsConstantBuf, Register: encodeRegister(v.Register),
		}, nil

	case *ast.AliasDecl:
		typ, err := encodeType(v.Type)
		if err != nil {
			return DeclWire{}, err
		}
		return DeclWire{Kind: "alias", Name: m.Name(v.Name), Type: typ}, nil

	case *ast.FunctionDecl:
		params := make([]ParamWire, len(v.Parameters))
		for i, p := range v.Parameters {
			typ, err := encodeType(p.Type)
			if err != nil {
				return DeclWire{}, err
			}
			params[i] = ParamWire{Name: m.Name(p.Name), Type: typ, Semantic: encodeSemantic(p.Semantic), IsOutput: p.IsOutput, IsInout: p.IsInout}
		}
		retType, err := encodeType(v.ReturnType)
		if err != nil {
			return DeclWire{}, err
		}
		attrs, err := encodeAttributes(v.Attributes)
		if err != nil {
			return DeclWire{}, err
		}
		var body *StmtWire
		if v.Body != nil {
			body, err = encodeStmt(m, v.Body)
			if err != nil {
				return DeclWire{}, err
			}
		}
		return DeclWire{
			Kind: "function", Name: m.Name(v.Name), Parameters: params, ReturnType: retType,
			ReturnSemantic: encodeSemantic(v.ReturnSemantic), Attributes: attrs, Body: body,
			IsEntryPoint: v.Flags().IsEntryPoint,
		}, nil

	default:
		return DeclWire{}, fmt.Errorf("astjson: unhandled decl node %T", d)
	}
}
