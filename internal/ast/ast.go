// Package ast defines the typed syntax tree shared by every stage of the
// cross-compiler: the analyzer decorates it, the rewriter mutates it in
// place, and the emitter walks the decorated, lowered result.
//
// Ownership is a tree rooted at Module; every cross-reference (symbolRef,
// bufferDeclRef, structDeclRef, aliasDeclRef, ...) is a non-owning Ref into
// the Module's flat symbol table rather than a pointer, so the graph stays
// acyclic for allocation purposes even though the logical references cycle
// (a struct's field type can name the struct that contains it transitively
// through an array).
package ast

import "fmt"

// ----------------------------------------------------------------------------
// Source locations
// ----------------------------------------------------------------------------

// Loc is a single byte offset plus its 1-based line/column, matching how the
// diagnostic package renders caret snippets.
type Loc struct {
	Offset int
	Line   int
	Column int
}

// Range is a half-open [Start,End) source span.
type Range struct {
	Start Loc
	End   Loc
}

// ----------------------------------------------------------------------------
// Symbol references
// ----------------------------------------------------------------------------

// Ref is a non-owning reference to a Symbol in Module.Symbols.
type Ref struct {
	InnerIndex uint32
}

// InvalidRef returns the sentinel "no symbol" reference.
func InvalidRef() Ref { return Ref{InnerIndex: ^uint32(0)} }

// IsValid reports whether the reference names a real symbol slot.
func (r Ref) IsValid() bool { return r.InnerIndex != ^uint32(0) }

// Index32 is an optional 32-bit index (e.g. an output-parameter position).
type Index32 struct {
	value uint32
	valid bool
}

// NewIndex32 builds a present index.
func NewIndex32(v int) Index32 { return Index32{value: uint32(v), valid: true} }

// IsValid reports whether the index is present.
func (i Index32) IsValid() bool { return i.valid }

// Value returns the index; only meaningful when IsValid is true.
func (i Index32) Value() int { return int(i.value) }

// ----------------------------------------------------------------------------
// Symbols and scopes
// ----------------------------------------------------------------------------

// SymbolKind classifies what a Symbol names.
type SymbolKind uint8

const (
	SymbolVar SymbolKind = iota
	SymbolConst
	SymbolBuffer
	SymbolSampler
	SymbolStruct
	SymbolAlias
	SymbolFunction
	SymbolStructField
	SymbolParam
)

// SymbolFlags are the decoration bits a symbol accumulates across passes.
type SymbolFlags uint16

const (
	IsEntryPoint SymbolFlags = 1 << iota
	IsReachable
	IsReadFrom
	IsStaticStorage
	IsMemberStorage
	MustNotBeRenamed
	IsAPIFacing
)

// Has reports whether all bits in mask are set.
func (f SymbolFlags) Has(mask SymbolFlags) bool { return f&mask == mask }

// Symbol is an entry in Module's flat symbol table: one per declared
// identifier (variables, buffers, samplers, structs, aliases, functions,
// struct fields, and function parameters all share the table so that a Ref
// is always resolvable the same way regardless of what it names).
type Symbol struct {
	OriginalName string
	Loc          Loc
	Kind         SymbolKind
	Flags        SymbolFlags
	// DeclIndex points back at the owning Decl in Module.Declarations for
	// top-level symbols; -1 for symbols owned by a nested scope (locals,
	// struct fields, parameters), which are instead reached through their
	// declaring node.
	DeclIndex int
}

// Scope is one lexical level of the symbol table: a map from identifier to
// an overload set of symbol refs sharing that name.
type Scope struct {
	Parent   *Scope
	Children []*Scope
	Members  map[string][]Ref
}

// NewScope creates a scope nested under parent (nil for the root/module scope).
func NewScope(parent *Scope) *Scope {
	s := &Scope{Parent: parent, Members: make(map[string][]Ref)}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Declare adds ref under name in this scope's overload set.
func (s *Scope) Declare(name string, ref Ref) {
	s.Members[name] = append(s.Members[name], ref)
}

// Lookup walks from this scope up through parents, returning the first
// overload set found for name.
func (s *Scope) Lookup(name string) ([]Ref, *Scope) {
	for cur := s; cur != nil; cur = cur.Parent {
		if refs, ok := cur.Members[name]; ok {
			return refs, cur
		}
	}
	return nil, nil
}

// LookupLocal returns only this scope's own overload set for name, without
// walking to parents.
func (s *Scope) LookupLocal(name string) ([]Ref, bool) {
	refs, ok := s.Members[name]
	return refs, ok
}

// AllNames returns every identifier visible from this scope, nearest first,
// used by the "did you mean X?" suggestion search.
func (s *Scope) AllNames() []string {
	seen := make(map[string]bool)
	var names []string
	for cur := s; cur != nil; cur = cur.Parent {
		for name := range cur.Members {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// ----------------------------------------------------------------------------
// Module (Program root)
// ----------------------------------------------------------------------------

// ShaderStage is one of the pipeline stages a shading dialect recognizes.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageTessControl
	StageTessEval
	StageGeometry
	StageFragment
	StageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageTessControl:
		return "tess_control"
	case StageTessEval:
		return "tess_eval"
	case StageGeometry:
		return "geometry"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Module is the Program root: the entire compilation unit's AST.
type Module struct {
	Source     string
	SourcePath string

	Declarations []Decl
	Symbols      []Symbol
	Scope        *Scope

	EntryPointName string
	EntryPointRef  Ref
	Stage          ShaderStage

	// UsedIntrinsics is populated by the analyzer's reference-marking
	// sub-pass: the set of intrinsic names transitively called from the
	// entry point. The emitter scans this set against its header/extension
	// table.
	UsedIntrinsics map[string]bool
}

// NewModule creates an empty module ready for declarations to be appended.
func NewModule(source, path string) *Module {
	return &Module{
		Source:         source,
		SourcePath:     path,
		Scope:          NewScope(nil),
		UsedIntrinsics: make(map[string]bool),
	}
}

// AddSymbol appends a new symbol and returns its Ref.
func (m *Module) AddSymbol(sym Symbol) Ref {
	ref := Ref{InnerIndex: uint32(len(m.Symbols))}
	m.Symbols = append(m.Symbols, sym)
	return ref
}

// Symbol resolves a Ref back to its Symbol, or nil if invalid/out of range.
func (m *Module) Symbol(ref Ref) *Symbol {
	if !ref.IsValid() || int(ref.InnerIndex) >= len(m.Symbols) {
		return nil
	}
	return &m.Symbols[ref.InnerIndex]
}

// Name returns the original source name for ref, or "" if unresolvable.
func (m *Module) Name(ref Ref) string {
	if sym := m.Symbol(ref); sym != nil {
		return sym.OriginalName
	}
	return ""
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// Decl is the marker interface every declaration node implements.
type Decl interface {
	isDecl()
	Range() Range
	Flags() *DeclFlags
}

// DeclFlags are the decoration bits attached to every declaration.
type DeclFlags struct {
	IsReachable    bool
	IsEntryPoint   bool
	IsShaderInput  bool
	IsShaderOutput bool
	DisableCodeGen bool
}

// Attribute is a `[name(args...)]`-style auxiliary annotation (numthreads,
// earlydepthstencil, and similar entry-point attributes).
type Attribute struct {
	NodeRange Range
	Name      string
	Args      []Expr
}

// Register models an HLSL `: register(bN[, space])` resource binding.
type Register struct {
	NodeRange Range
	Slot      string // e.g. "b0", "t1", "u2", "s3"
	Space     int
}

// PackOffset models an HLSL `: packoffset(cN[.x])` constant-buffer layout hint.
type PackOffset struct {
	NodeRange   Range
	Component   int
	Subcomponent string
}

// Semantic is a `: NAME` annotation binding a parameter/field to a hardware
// role (e.g. SV_Position, TEXCOORD0, POSITION).
type Semantic struct {
	NodeRange Range
	Name      string
	Index     int
}

// ArrayDim is one `[N]` array-dimension suffix; Size == nil means
// unspecified-length.
type ArrayDim struct {
	NodeRange Range
	Size      Expr
}

// VarDecl is a global or local variable declaration.
type VarDecl struct {
	NodeRange   Range
	flags       DeclFlags
	Name        Ref
	Type        Type
	Initializer Expr
	Semantic    *Semantic
	Register    *Register
	PackOffset  *PackOffset
	ArrayDims   []ArrayDim
	IsConst     bool
	IsUniform   bool
	IsStatic    bool
}

func (d *VarDecl) isDecl()           {}
func (d *VarDecl) Range() Range      { return d.NodeRange }
func (d *VarDecl) Flags() *DeclFlags { return &d.flags }

// BufferKind enumerates the HLSL structured/typed buffer and texture kinds.
type BufferKind uint8

const (
	BufferGeneric BufferKind = iota
	BufferRWGeneric
	BufferTexture1D
	BufferTexture1DArray
	BufferTexture2D
	BufferTexture2DArray
	BufferTexture2DMS
	BufferTexture2DMSArray
	BufferTexture3D
	BufferTextureCube
	BufferTextureCubeArray
	BufferRWTexture1D
	BufferRWTexture1DArray
	BufferRWTexture2D
	BufferRWTexture2DArray
	BufferRWTexture3D
)

// BufferDecl declares a resource buffer or texture, optionally parametric
// over an element type (`Buffer<float4>`, `RWTexture2D<float4>`).
type BufferDecl struct {
	NodeRange Range
	flags     DeclFlags
	Name      Ref
	Kind      BufferKind
	ElemType  Type
	Register  *Register
}

func (d *BufferDecl) isDecl()           {}
func (d *BufferDecl) Range() Range      { return d.NodeRange }
func (d *BufferDecl) Flags() *DeclFlags { return &d.flags }

// SamplerDim enumerates sampler dimensionalities.
type SamplerDim uint8

const (
	Sampler1D SamplerDim = iota
	Sampler2D
	Sampler3D
	SamplerCubeDim
	SamplerComparison
)

// SamplerDecl declares a sampler state object.
type SamplerDecl struct {
	NodeRange Range
	flags     DeclFlags
	Name      Ref
	Dim       SamplerDim
	Register  *Register
}

func (d *SamplerDecl) isDecl()           {}
func (d *SamplerDecl) Range() Range      { return d.NodeRange }
func (d *SamplerDecl) Flags() *DeclFlags { return &d.flags }

// StructField is one member of a StructDecl.
type StructField struct {
	NodeRange Range
	Name      Ref
	Type      Type
	Semantic  *Semantic
	ArrayDims []ArrayDim
}

// StructDecl declares a structure, possibly used as a constant-buffer body
// or as a shader I/O boundary type.
type StructDecl struct {
	NodeRange     Range
	flags         DeclFlags
	Name          Ref
	Fields        []StructField
	IsConstantBuf bool
	Register      *Register
}

func (d *StructDecl) isDecl()           {}
func (d *StructDecl) Range() Range      { return d.NodeRange }
func (d *StructDecl) Flags() *DeclFlags { return &d.flags }

// GetField returns the field named name, or nil.
func (d *StructDecl) GetField(module *Module, name string) *StructField {
	for i := range d.Fields {
		if module.Name(d.Fields[i].Name) == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// AliasDecl declares a `typedef`-style name for another type.
type AliasDecl struct {
	NodeRange Range
	flags     DeclFlags
	Name      Ref
	Type      Type
}

func (d *AliasDecl) isDecl()           {}
func (d *AliasDecl) Range() Range      { return d.NodeRange }
func (d *AliasDecl) Flags() *DeclFlags { return &d.flags }

// Param is one function parameter.
type Param struct {
	NodeRange Range
	Name      Ref
	Type      Type
	Semantic  *Semantic
	IsOutput  bool
	IsInout   bool
}

// FunctionDecl declares a function; entry points additionally carry a
// stage-specific Attribute set (numthreads for compute, etc.) and a return
// Semantic.
type FunctionDecl struct {
	NodeRange      Range
	flags          DeclFlags
	Name           Ref
	Parameters     []Param
	ReturnType     Type
	ReturnSemantic *Semantic
	Attributes     []Attribute
	Body           *CompoundStmt
	AllPathsReturn bool
}

func (d *FunctionDecl) isDecl()           {}
func (d *FunctionDecl) Range() Range      { return d.NodeRange }
func (d *FunctionDecl) Flags() *DeclFlags { return &d.flags }

// MinArgs and MaxArgs describe the arity window used during overload
// resolution.
func (d *FunctionDecl) MinArgs() int { return len(d.Parameters) }
func (d *FunctionDecl) MaxArgs() int { return len(d.Parameters) }

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// Stmt is the marker interface every statement node implements.
type Stmt interface {
	isStmt()
	Range() Range
}

// StmtFlags decorate a statement with control-path information.
type StmtFlags struct {
	IsEndOfFunction bool
}

// CompoundStmt is a `{ ... }` code block.
type CompoundStmt struct {
	NodeRange Range
	Stmts     []Stmt
	Scope     *Scope
}

func (s *CompoundStmt) isStmt()     {}
func (s *CompoundStmt) Range() Range { return s.NodeRange }

// NullStmt is an empty `;` statement. The analyzer accepts it without
// checks or diagnostics; the emitter prints it as a bare `;`.
type NullStmt struct{ NodeRange Range }

func (s *NullStmt) isStmt()      {}
func (s *NullStmt) Range() Range { return s.NodeRange }

// DeclStmt wraps a local declaration (var/const) as a statement.
type DeclStmt struct {
	NodeRange Range
	Decl      Decl
}

func (s *DeclStmt) isStmt()      {}
func (s *DeclStmt) Range() Range { return s.NodeRange }

// ForStmt is a C-style for loop.
type ForStmt struct {
	NodeRange Range
	Init      Stmt
	Condition Expr
	Update    Stmt
	Body      Stmt
}

func (s *ForStmt) isStmt()      {}
func (s *ForStmt) Range() Range { return s.NodeRange }

// WhileStmt is a pre-test loop.
type WhileStmt struct {
	NodeRange Range
	Condition Expr
	Body      Stmt
}

func (s *WhileStmt) isStmt()      {}
func (s *WhileStmt) Range() Range { return s.NodeRange }

// DoWhileStmt is a post-test loop.
type DoWhileStmt struct {
	NodeRange Range
	Body      Stmt
	Condition Expr
}

func (s *DoWhileStmt) isStmt()      {}
func (s *DoWhileStmt) Range() Range { return s.NodeRange }

// IfStmt is an if/else. Else may be nil.
type IfStmt struct {
	NodeRange Range
	Condition Expr
	Then      Stmt
	Else      Stmt
}

func (s *IfStmt) isStmt()      {}
func (s *IfStmt) Range() Range { return s.NodeRange }

// SwitchCase is one `case expr:`/`default:` arm.
type SwitchCase struct {
	NodeRange Range
	Selectors []Expr // empty means default
	Body      []Stmt
}

// SwitchStmt is a switch statement.
type SwitchStmt struct {
	NodeRange Range
	Selector  Expr
	Cases     []SwitchCase
}

func (s *SwitchStmt) isStmt()      {}
func (s *SwitchStmt) Range() Range { return s.NodeRange }

// ExprStmt is an expression used for its side effects.
type ExprStmt struct {
	NodeRange Range
	Expr      Expr
}

func (s *ExprStmt) isStmt()      {}
func (s *ExprStmt) Range() Range { return s.NodeRange }

// ReturnStmt returns from the enclosing function; Value may be nil for void.
type ReturnStmt struct {
	NodeRange Range
	Value     Expr
	Flags     StmtFlags
}

func (s *ReturnStmt) isStmt()      {}
func (s *ReturnStmt) Range() Range { return s.NodeRange }

// ControlTransferKind distinguishes break/continue/discard.
type ControlTransferKind uint8

const (
	CtrlBreak ControlTransferKind = iota
	CtrlContinue
	CtrlDiscard
)

// ControlTransferStmt is break/continue/discard.
type ControlTransferStmt struct {
	NodeRange Range
	Kind      ControlTransferKind
}

func (s *ControlTransferStmt) isStmt()      {}
func (s *ControlTransferStmt) Range() Range { return s.NodeRange }

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// ExprFlags are decoration bits attached to every expression.
type ExprFlags uint8

const (
	WasConverted ExprFlags = 1 << iota
	HasSideEffects
)

// Has reports whether every bit in mask is set.
func (f ExprFlags) Has(mask ExprFlags) bool { return f&mask == mask }

// Expr is the marker interface every expression node implements.
type Expr interface {
	isExpr()
	Range() Range
	Flags() *ExprFlags
	// CachedType holds the memoized static type of this node; nil until
	// the analyzer's type-inference rule has run (see internal/analyzer
	// and internal/types). Stored as `any` here to avoid an import cycle
	// with internal/types; callers type-assert to types.Type.
	CachedType() any
	SetCachedType(t any)
	ResetCachedType()
}

// exprBase factors the decoration bookkeeping shared by every Expr.
type exprBase struct {
	NodeRange Range
	flags     ExprFlags
	typeCache any
}

func (b *exprBase) Range() Range       { return b.NodeRange }
func (b *exprBase) Flags() *ExprFlags  { return &b.flags }
func (b *exprBase) CachedType() any    { return b.typeCache }
func (b *exprBase) SetCachedType(t any) { b.typeCache = t }
func (b *exprBase) ResetCachedType()   { b.typeCache = nil }

// LiteralKind tags which constant-variant a LiteralExpr holds.
type LiteralKind uint8

const (
	LitBool LiteralKind = iota
	LitInt
	LitUInt
	LitFloat
	LitDouble
	LitString
)

// LiteralExpr is a literal constant.
type LiteralExpr struct {
	exprBase
	Kind  LiteralKind
	Value string
}

func (e *LiteralExpr) isExpr() {}

// ObjectExpr is an identifier or a `.`-chained member access; Prefix is nil
// for a bare identifier. The chain `a.b.c` is modeled as three ObjectExpr
// nodes, each owning its Next exclusively: root is `a` with Next `b`, whose
// Next is `c`.
type ObjectExpr struct {
	exprBase
	Ident     string
	Prefix    Expr // nil for a bare identifier use
	Next      *ObjectExpr
	SymbolRef Ref // resolved declaration; invalid until analyzer runs
	IsSwizzle bool
}

func (e *ObjectExpr) isExpr() {}

// ArrayExpr is `prefix[index0][index1]...`, with all index steps of one
// access collected together so lowering passes can see the whole access at
// once.
type ArrayExpr struct {
	exprBase
	Prefix  Expr
	Indices []Expr
}

func (e *ArrayExpr) isExpr() {}

// NumIndices returns how many `[...]` steps this access chains.
func (e *ArrayExpr) NumIndices() int { return len(e.Indices) }

// Intrinsic identifies a builtin function by a stable enum rather than by
// name, so the rewriter can switch on it without string comparison. The
// concrete values live in internal/intrinsic; only IntrinsicNone (the
// user-defined-call sentinel) is declared here to keep this package free of
// an intrinsic-table dependency.
type Intrinsic uint16

// IntrinsicNone marks a CallExpr that resolved to a user-defined function
// rather than a builtin.
const IntrinsicNone Intrinsic = 0

// CallExpr is a function call; Intrinsic is IntrinsicNone for user-defined
// function calls, and FuncRef names the resolved FunctionDecl's symbol.
type CallExpr struct {
	exprBase
	Prefix    Expr // nil for a free function/intrinsic call
	Name      string
	Intrinsic Intrinsic
	FuncRef   Ref
	Args      []Expr
}

func (e *CallExpr) isExpr() {}

// CastExpr is an explicit `(T)expr` or `T(expr, ...)` constructor-style cast
// inserted by the rewriter or written by the source.
type CastExpr struct {
	exprBase
	Target Type
	Args   []Expr
}

func (e *CastExpr) isExpr() {}

// BracketExpr is a parenthesized sub-expression; the emitter always emits
// literal parentheses for this node.
type BracketExpr struct {
	exprBase
	Inner Expr
}

func (e *BracketExpr) isExpr() {}

// UnaryOp enumerates prefix/postfix unary operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
	UnaryBitNot
	UnaryPreIncr
	UnaryPreDecr
	UnaryPostIncr
	UnaryPostDecr
)

// UnaryExpr is a unary or post-unary expression.
type UnaryExpr struct {
	exprBase
	Op      UnaryOp
	Operand Expr
	IsPost  bool
}

func (e *UnaryExpr) isExpr() {}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinLogicalAnd
	BinLogicalOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
)

// IsCompare reports whether op is a relational/equality comparison.
func (op BinaryOp) IsCompare() bool {
	switch op {
	case BinEq, BinNe, BinLt, BinLe, BinGt, BinGe:
		return true
	}
	return false
}

// IsLogical reports whether op is a boolean logical connective.
func (op BinaryOp) IsLogical() bool {
	return op == BinLogicalAnd || op == BinLogicalOr
}

// BinaryExpr is a binary operator expression.
type BinaryExpr struct {
	exprBase
	Op  BinaryOp
	Lhs Expr
	Rhs Expr
}

func (e *BinaryExpr) isExpr() {}

// TernaryExpr is `cond ? then : else`.
type TernaryExpr struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

func (e *TernaryExpr) isExpr() {}

// IsVectorCondition reports whether Cond's static type (once resolved) is a
// vector, which forces the vector-select lowering in the rewriter.
func (e *TernaryExpr) IsVectorCondition(isVector func(Expr) bool) bool {
	return isVector(e.Cond)
}

// AssignOp enumerates `=` and the compound assignment operators.
type AssignOp uint8

const (
	AssignSet AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
	AssignBitAnd
	AssignBitOr
	AssignBitXor
	AssignShl
	AssignShr
)

// ToBinaryOp maps a compound assignment operator to its underlying binary
// operator (AssignAdd -> BinAdd), used when expanding `x += y` into an
// equivalent `x = x + y`-shaped lowering.
func (op AssignOp) ToBinaryOp() (BinaryOp, bool) {
	switch op {
	case AssignAdd:
		return BinAdd, true
	case AssignSub:
		return BinSub, true
	case AssignMul:
		return BinMul, true
	case AssignDiv:
		return BinDiv, true
	case AssignMod:
		return BinMod, true
	case AssignBitAnd:
		return BinBitAnd, true
	case AssignBitOr:
		return BinBitOr, true
	case AssignBitXor:
		return BinBitXor, true
	case AssignShl:
		return BinShl, true
	case AssignShr:
		return BinShr, true
	default:
		return 0, false
	}
}

// AssignExpr is an assignment, simple or compound.
type AssignExpr struct {
	exprBase
	Op     AssignOp
	Lvalue Expr
	Rvalue Expr
}

func (e *AssignExpr) isExpr() {}

// SequenceExpr is a comma-operator sequence `(a, b, c)`.
type SequenceExpr struct {
	exprBase
	Exprs []Expr
}

func (e *SequenceExpr) isExpr() {}

// InitializerExpr is a brace initializer list `{a, b, c}`.
type InitializerExpr struct {
	exprBase
	Exprs []Expr
}

func (e *InitializerExpr) isExpr() {}

// TypeExpr wraps a Type used in expression position (as a type-constructor
// callee, e.g. the `float4` in `float4(1,2,3,4)`).
type TypeExpr struct {
	exprBase
	Type Type
}

func (e *TypeExpr) isExpr() {}

// ----------------------------------------------------------------------------
// Types (surface type specifiers — see internal/types for the resolved
// TypeDenoter lattice these desugar to during analysis)
// ----------------------------------------------------------------------------

// Type is the marker interface for surface type specifiers as written in
// source (as opposed to internal/types.Type, the resolved lattice element).
type Type interface {
	isType()
	Range() Range
}

type typeBase struct{ NodeRange Range }

func (t typeBase) Range() Range { return t.NodeRange }

// IdentType names a type by identifier: a builtin scalar/vector/matrix
// keyword, or a user struct/alias name. Passes resolve it by Name; they do
// not fill in Ref.
type IdentType struct {
	typeBase
	Name string
	Ref  Ref
}

func (t *IdentType) isType() {}

// ArrayType is `elem[dim0][dim1]...`.
type ArrayType struct {
	typeBase
	ElemType Type
	Dims     []ArrayDim
}

func (t *ArrayType) isType() {}

// BufferType names a resource buffer/texture type with an optional generic
// element type.
type BufferType struct {
	typeBase
	Kind     BufferKind
	ElemType Type // nil for untyped raw buffers
}

func (t *BufferType) isType() {}

// SamplerTypeSpec names a sampler state type.
type SamplerTypeSpec struct {
	typeBase
	Dim SamplerDim
}

func (t *SamplerTypeSpec) isType() {}

// ----------------------------------------------------------------------------
// Errors
// ----------------------------------------------------------------------------

// ErrInternal is wrapped with context when a pass discovers an invariant
// violation rather than a source-level semantic error.
var ErrInternal = fmt.Errorf("internal compiler error")
