package analyzer

import (
	"strconv"

	"codeberg.org/saruga/shaderxc/internal/ast"
)

// constKind tags which arm of the {bool, int, real, string} variant a
// constValue carries.
type constKind uint8

const (
	constBool constKind = iota
	constInt
	constReal
	constString
)

// constValue is the tagged constant-expression result the sub-evaluator
// below produces: a dedicated evaluator reduces expressions to this tagged
// variant instead of folding them inline during type checking.
type constValue struct {
	kind constKind
	b    bool
	i    int64
	r    float64
	s    string
}

func (c constValue) asReal() float64 {
	switch c.kind {
	case constInt:
		return float64(c.i)
	case constReal:
		return c.r
	case constBool:
		if c.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (c constValue) asInt() int64 {
	switch c.kind {
	case constInt:
		return c.i
	case constReal:
		return int64(c.r)
	case constBool:
		if c.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (c constValue) asBool() bool {
	switch c.kind {
	case constBool:
		return c.b
	case constInt:
		return c.i != 0
	case constReal:
		return c.r != 0
	default:
		return c.s != ""
	}
}

// constEvalResult is either a value, or a failure tagged with the AST node
// that isn't const-evaluable — a non-exception replacement for the
// original compiler's "throw a node reference to bail out" control flow.
type constEvalResult struct {
	value    *constValue
	failNode ast.Expr
}

func constOK(v constValue) constEvalResult  { return constEvalResult{value: &v} }
func constFail(n ast.Expr) constEvalResult { return constEvalResult{failNode: n} }

func (r constEvalResult) isConst() bool { return r.value != nil }

// evalConst attempts to reduce e to a compile-time constant, folding
// literals, unary/binary/ternary operators, casts, and references to
// `const`/`uniform` variables whose own initializer is itself
// const-evaluable. Any other leaf (a non-const variable read, a function
// call, an unresolved identifier) fails the fold at that node rather than
// panicking; the caller decides whether a constant was required here.
func (a *analyzer) evalConst(e ast.Expr) constEvalResult {
	switch expr := e.(type) {
	case *ast.LiteralExpr:
		return a.evalConstLiteral(expr)

	case *ast.ObjectExpr:
		return a.evalConstObject(expr)

	case *ast.BracketExpr:
		return a.evalConst(expr.Inner)

	case *ast.UnaryExpr:
		return a.evalConstUnary(expr)

	case *ast.BinaryExpr:
		return a.evalConstBinary(expr)

	case *ast.TernaryExpr:
		cond := a.evalConst(expr.Cond)
		if !cond.isConst() {
			return cond
		}
		if cond.value.asBool() {
			return a.evalConst(expr.Then)
		}
		return a.evalConst(expr.Else)

	case *ast.CastExpr:
		return a.evalConstCast(expr)

	default:
		return constFail(e)
	}
}

func (a *analyzer) evalConstLiteral(l *ast.LiteralExpr) constEvalResult {
	switch l.Kind {
	case ast.LitBool:
		return constOK(constValue{kind: constBool, b: l.Value == "true"})
	case ast.LitInt, ast.LitUInt:
		n, err := strconv.ParseInt(l.Value, 0, 64)
		if err != nil {
			return constFail(l)
		}
		return constOK(constValue{kind: constInt, i: n})
	case ast.LitFloat, ast.LitDouble:
		f, err := strconv.ParseFloat(l.Value, 64)
		if err != nil {
			return constFail(l)
		}
		return constOK(constValue{kind: constReal, r: f})
	case ast.LitString:
		return constOK(constValue{kind: constString, s: l.Value})
	default:
		return constFail(l)
	}
}

// evalConstObject resolves a bare identifier reference to its declared
// initializer, if it names a `const` (or `uniform`, per §4.1's rule — a
// uniform's value isn't actually known at compile time, but the original
// compiler folds through it the same way a preprocessor-style specialized
// build would) variable whose own initializer is const-evaluable. A
// swizzle or struct-member chain, or a reference to anything else
// (ordinary var, function, buffer), fails the fold.
func (a *analyzer) evalConstObject(o *ast.ObjectExpr) constEvalResult {
	if o.Prefix != nil || o.Next != nil {
		return constFail(o)
	}
	ref := o.SymbolRef
	if a.module.Name(ref) != o.Ident {
		// Array-dimension expressions never pass through checkExpr, so
		// their identifiers are bound against the module scope here.
		refs, _ := a.module.Scope.Lookup(o.Ident)
		if len(refs) == 0 {
			return constFail(o)
		}
		ref = refs[0]
	}
	sym := a.module.Symbol(ref)
	if sym == nil || (sym.Kind != ast.SymbolConst && sym.Kind != ast.SymbolVar) {
		return constFail(o)
	}
	if sym.DeclIndex < 0 || sym.DeclIndex >= len(a.module.Declarations) {
		return constFail(o)
	}
	vd, ok := a.module.Declarations[sym.DeclIndex].(*ast.VarDecl)
	if !ok || !(vd.IsConst || vd.IsUniform) || vd.Initializer == nil {
		return constFail(o)
	}
	return a.evalConst(vd.Initializer)
}

func (a *analyzer) evalConstUnary(u *ast.UnaryExpr) constEvalResult {
	operand := a.evalConst(u.Operand)
	if !operand.isConst() {
		return operand
	}
	v := *operand.value
	switch u.Op {
	case ast.UnaryNeg:
		if v.kind == constInt {
			return constOK(constValue{kind: constInt, i: -v.i})
		}
		return constOK(constValue{kind: constReal, r: -v.asReal()})
	case ast.UnaryNot:
		return constOK(constValue{kind: constBool, b: !v.asBool()})
	case ast.UnaryBitNot:
		return constOK(constValue{kind: constInt, i: ^v.asInt()})
	default:
		return constFail(u)
	}
}

func (a *analyzer) evalConstBinary(b *ast.BinaryExpr) constEvalResult {
	lhs := a.evalConst(b.Lhs)
	if !lhs.isConst() {
		return lhs
	}
	rhs := a.evalConst(b.Rhs)
	if !rhs.isConst() {
		return rhs
	}
	l, r := *lhs.value, *rhs.value

	if b.Op.IsLogical() {
		switch b.Op {
		case ast.BinLogicalAnd:
			return constOK(constValue{kind: constBool, b: l.asBool() && r.asBool()})
		case ast.BinLogicalOr:
			return constOK(constValue{kind: constBool, b: l.asBool() || r.asBool()})
		}
	}

	if b.Op.IsCompare() {
		return constOK(constValue{kind: constBool, b: compareConst(b.Op, l, r)})
	}

	bothInt := l.kind == constInt && r.kind == constInt
	switch b.Op {
	case ast.BinAdd:
		if bothInt {
			return constOK(constValue{kind: constInt, i: l.i + r.i})
		}
		return constOK(constValue{kind: constReal, r: l.asReal() + r.asReal()})
	case ast.BinSub:
		if bothInt {
			return constOK(constValue{kind: constInt, i: l.i - r.i})
		}
		return constOK(constValue{kind: constReal, r: l.asReal() - r.asReal()})
	case ast.BinMul:
		if bothInt {
			return constOK(constValue{kind: constInt, i: l.i * r.i})
		}
		return constOK(constValue{kind: constReal, r: l.asReal() * r.asReal()})
	case ast.BinDiv:
		if bothInt {
			if r.i == 0 {
				return constFail(b)
			}
			return constOK(constValue{kind: constInt, i: l.i / r.i})
		}
		return constOK(constValue{kind: constReal, r: l.asReal() / r.asReal()})
	case ast.BinMod:
		if bothInt {
			if r.i == 0 {
				return constFail(b)
			}
			return constOK(constValue{kind: constInt, i: l.i % r.i})
		}
		return constFail(b)
	case ast.BinBitAnd:
		return constOK(constValue{kind: constInt, i: l.asInt() & r.asInt()})
	case ast.BinBitOr:
		return constOK(constValue{kind: constInt, i: l.asInt() | r.asInt()})
	case ast.BinBitXor:
		return constOK(constValue{kind: constInt, i: l.asInt() ^ r.asInt()})
	case ast.BinShl:
		return constOK(constValue{kind: constInt, i: l.asInt() << uint(r.asInt())})
	case ast.BinShr:
		return constOK(constValue{kind: constInt, i: l.asInt() >> uint(r.asInt())})
	default:
		return constFail(b)
	}
}

func compareConst(op ast.BinaryOp, l, r constValue) bool {
	if l.kind == constString || r.kind == constString {
		switch op {
		case ast.BinEq:
			return l.s == r.s
		case ast.BinNe:
			return l.s != r.s
		default:
			return false
		}
	}
	lv, rv := l.asReal(), r.asReal()
	switch op {
	case ast.BinEq:
		return lv == rv
	case ast.BinNe:
		return lv != rv
	case ast.BinLt:
		return lv < rv
	case ast.BinLe:
		return lv <= rv
	case ast.BinGt:
		return lv > rv
	case ast.BinGe:
		return lv >= rv
	default:
		return false
	}
}

// evalConstCast folds a constructor/cast call whose sole argument is
// itself const-evaluable, covering the common `array[N]`-dimension idiom
// of `float(3)` or `(uint)kCount`. Multi-argument constructors (vector
// splats) aren't scalar constants and fail the fold.
func (a *analyzer) evalConstCast(c *ast.CastExpr) constEvalResult {
	if len(c.Args) != 1 {
		return constFail(c)
	}
	inner := a.evalConst(c.Args[0])
	if !inner.isConst() {
		return inner
	}
	v := *inner.value
	name, _ := c.Target.(*ast.IdentType)
	if name == nil {
		return constFail(c)
	}
	switch name.Name {
	case "bool":
		return constOK(constValue{kind: constBool, b: v.asBool()})
	case "int", "uint", "dword":
		return constOK(constValue{kind: constInt, i: v.asInt()})
	case "float", "double", "half":
		return constOK(constValue{kind: constReal, r: v.asReal()})
	default:
		return constFail(c)
	}
}

// evalConstInt is the narrow entry point the rest of the analyzer needs:
// an integer-valued compile-time constant, used for array dimensions and
// to validate switch-case selectors are actually constant expressions.
func (a *analyzer) evalConstInt(e ast.Expr) (int64, bool) {
	res := a.evalConst(e)
	if !res.isConst() {
		return 0, false
	}
	if res.value.kind == constString {
		return 0, false
	}
	return res.value.asInt(), true
}
