package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/intrinsic"
	"codeberg.org/saruga/shaderxc/internal/types"
)

// exprString renders any expression node to its GLSL text. Sub-expressions
// that need protection from operator-precedence surprises go through
// operandString instead of calling this directly.
func (e *emitter) exprString(expr ast.Expr) string {
	switch v := expr.(type) {
	case nil:
		return ""
	case *ast.LiteralExpr:
		return e.literalString(v)
	case *ast.ObjectExpr:
		return e.objectString(v)
	case *ast.ArrayExpr:
		return e.arrayString(v)
	case *ast.CallExpr:
		return e.callExprString(v)
	case *ast.CastExpr:
		return e.castString(v)
	case *ast.BracketExpr:
		return "(" + e.exprString(v.Inner) + ")"
	case *ast.UnaryExpr:
		return e.unaryString(v)
	case *ast.BinaryExpr:
		return e.binaryString(v)
	case *ast.TernaryExpr:
		return fmt.Sprintf("%s ? %s : %s", e.operandString(v.Cond), e.operandString(v.Then), e.operandString(v.Else))
	case *ast.AssignExpr:
		return e.assignString(v)
	case *ast.SequenceExpr:
		parts := make([]string, len(v.Exprs))
		for i, sub := range v.Exprs {
			parts[i] = e.exprString(sub)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.InitializerExpr:
		parts := make([]string, len(v.Exprs))
		for i, sub := range v.Exprs {
			parts[i] = e.exprString(sub)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ast.TypeExpr:
		return glslTypeName(e.resolveType(v.Type))
	default:
		e.fail("%w: unhandled expression kind %T", ast.ErrInternal, expr)
		return ""
	}
}

// operandString wraps expr in parentheses unless it's already an atom
// (identifier, literal, call, or already self-delimiting), so composing
// binary/unary/ternary expressions never needs a precedence table: every
// non-atomic operand is always fully parenthesized.
func (e *emitter) operandString(expr ast.Expr) string {
	s := e.exprString(expr)
	switch expr.(type) {
	case *ast.LiteralExpr, *ast.ObjectExpr, *ast.ArrayExpr, *ast.CallExpr, *ast.CastExpr, *ast.BracketExpr, *ast.TypeExpr:
		return s
	default:
		return "(" + s + ")"
	}
}

func (e *emitter) literalString(l *ast.LiteralExpr) string {
	switch l.Kind {
	case ast.LitBool:
		return l.Value
	case ast.LitInt:
		return l.Value
	case ast.LitUInt:
		return l.Value + "u"
	case ast.LitFloat, ast.LitDouble:
		v := l.Value
		if !strings.ContainsAny(v, ".eE") {
			v += ".0"
		}
		return v
	case ast.LitString:
		return strconv.Quote(l.Value)
	default:
		return l.Value
	}
}

// objectString prints an identifier or `.`-chained member access, resolving
// through remapEntryIdent first so references to a flattened entry-point
// parameter or struct field print the GLSL global/builtin that replaced
// them instead of the original HLSL name.
func (e *emitter) objectString(o *ast.ObjectExpr) string {
	if name, rest, ok := e.remapEntryIdent(o); ok {
		return e.appendChain(name, rest)
	}
	var base string
	if o.Prefix != nil {
		base = e.operandString(o.Prefix)
	} else {
		base = o.Ident
	}
	return e.appendChain(base, o.Next)
}

func (e *emitter) appendChain(base string, next *ast.ObjectExpr) string {
	for next != nil {
		base += "." + next.Ident
		next = next.Next
	}
	return base
}

func (e *emitter) arrayString(a *ast.ArrayExpr) string {
	base := e.operandString(a.Prefix)
	var b strings.Builder
	b.WriteString(base)
	for _, idx := range a.Indices {
		b.WriteString("[" + e.exprString(idx) + "]")
	}
	return b.String()
}

func (e *emitter) castString(c *ast.CastExpr) string {
	typeName := glslTypeName(e.resolveType(c.Target))
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = e.exprString(a)
	}
	return fmt.Sprintf("%s(%s)", typeName, strings.Join(parts, ", "))
}

var unaryPrefixSymbols = map[ast.UnaryOp]string{
	ast.UnaryNeg:     "-",
	ast.UnaryNot:     "!",
	ast.UnaryBitNot:  "~",
	ast.UnaryPreIncr: "++",
	ast.UnaryPreDecr: "--",
}

func (e *emitter) unaryString(u *ast.UnaryExpr) string {
	operand := e.operandString(u.Operand)
	switch u.Op {
	case ast.UnaryPostIncr:
		return operand + "++"
	case ast.UnaryPostDecr:
		return operand + "--"
	default:
		return unaryPrefixSymbols[u.Op] + operand
	}
}

var binaryOpSymbols = map[ast.BinaryOp]string{
	ast.BinAdd:        "+",
	ast.BinSub:        "-",
	ast.BinMul:        "*",
	ast.BinDiv:        "/",
	ast.BinMod:        "%",
	ast.BinEq:         "==",
	ast.BinNe:         "!=",
	ast.BinLt:         "<",
	ast.BinLe:         "<=",
	ast.BinGt:         ">",
	ast.BinGe:         ">=",
	ast.BinLogicalAnd: "&&",
	ast.BinLogicalOr:  "||",
	ast.BinBitAnd:     "&",
	ast.BinBitOr:      "|",
	ast.BinBitXor:     "^",
	ast.BinShl:        "<<",
	ast.BinShr:        ">>",
}

func (e *emitter) binaryString(b *ast.BinaryExpr) string {
	return fmt.Sprintf("%s %s %s", e.operandString(b.Lhs), binaryOpSymbols[b.Op], e.operandString(b.Rhs))
}

var assignOpSymbols = map[ast.AssignOp]string{
	ast.AssignSet:    "=",
	ast.AssignAdd:    "+=",
	ast.AssignSub:    "-=",
	ast.AssignMul:    "*=",
	ast.AssignDiv:    "/=",
	ast.AssignMod:    "%=",
	ast.AssignBitAnd: "&=",
	ast.AssignBitOr:  "|=",
	ast.AssignBitXor: "^=",
	ast.AssignShl:    "<<=",
	ast.AssignShr:    ">>=",
}

func (e *emitter) assignString(a *ast.AssignExpr) string {
	return fmt.Sprintf("%s %s %s", e.exprString(a.Lvalue), assignOpSymbols[a.Op], e.exprString(a.Rvalue))
}

func (e *emitter) callString(name string, args []ast.Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = e.exprString(a)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// intrinsicGLSLNames maps a tagged HLSL intrinsic to its GLSL builtin name
// for the common case of a straight name swap (possibly with the same
// name). mul, saturate, and asfloat need their own derivation logic below
// and are deliberately absent from this table; sincos and clip never reach
// here because stmts.go lowers them at the enclosing ExprStmt. Built
// directly from each intrinsic's documented GLSL equivalent.
var intrinsicGLSLNames = map[ast.Intrinsic]string{
	intrinsic.Transpose:         "transpose",
	intrinsic.Dot:               "dot",
	intrinsic.Cross:             "cross",
	intrinsic.Normalize:         "normalize",
	intrinsic.Length:            "length",
	intrinsic.Distance:          "distance",
	intrinsic.Reflect:           "reflect",
	intrinsic.Refract:           "refract",
	intrinsic.Lerp:              "mix",
	intrinsic.Clamp:             "clamp",
	intrinsic.Min:               "min",
	intrinsic.Max:               "max",
	intrinsic.Abs:               "abs",
	intrinsic.Sign:              "sign",
	intrinsic.Floor:             "floor",
	intrinsic.Ceil:              "ceil",
	intrinsic.Round:             "round",
	intrinsic.Frac:              "fract",
	intrinsic.Fmod:              "mod",
	intrinsic.Mad:               "fma",
	intrinsic.Pow:               "pow",
	intrinsic.Exp:               "exp",
	intrinsic.Exp2:              "exp2",
	intrinsic.Log:               "log",
	intrinsic.Log2:              "log2",
	intrinsic.Sqrt:              "sqrt",
	intrinsic.Rsqrt:             "inversesqrt",
	intrinsic.Sin:               "sin",
	intrinsic.Cos:               "cos",
	intrinsic.Tan:               "tan",
	intrinsic.Asin:              "asin",
	intrinsic.Acos:              "acos",
	intrinsic.Atan:              "atan",
	intrinsic.Atan2:             "atan",
	intrinsic.Sinh:              "sinh",
	intrinsic.Cosh:              "cosh",
	intrinsic.Tanh:              "tanh",
	intrinsic.Step:              "step",
	intrinsic.Smoothstep:        "smoothstep",
	intrinsic.Any:               "any",
	intrinsic.All:               "all",
	intrinsic.Not:               "not",
	intrinsic.Isnan:             "isnan",
	intrinsic.Isinf:             "isinf",
	intrinsic.Asint:             "floatBitsToInt",
	intrinsic.Asuint:            "floatBitsToUint",
	intrinsic.F16tof32:          "unpackHalf2x16",
	intrinsic.F32tof16:          "packHalf2x16",
	intrinsic.Countbits:         "bitCount",
	intrinsic.Reversebits:       "bitfieldReverse",
	intrinsic.Firstbithigh:      "findMSB",
	intrinsic.Firstbitlow:       "findLSB",
	intrinsic.Ddx:               "dFdx",
	intrinsic.Ddy:                "dFdy",
	intrinsic.DdxCoarse:         "dFdxCoarse",
	intrinsic.DdyCoarse:         "dFdyCoarse",
	intrinsic.DdxFine:           "dFdxFine",
	intrinsic.DdyFine:           "dFdyFine",
	intrinsic.Fwidth:            "fwidth",
	intrinsic.Equal:             "equal",
	intrinsic.NotEqual:          "notEqual",
	intrinsic.LessThan:          "lessThan",
	intrinsic.LessThanEqual:     "lessThanEqual",
	intrinsic.GreaterThan:       "greaterThan",
	intrinsic.GreaterThanEqual:  "greaterThanEqual",
	intrinsic.ImageLoad:         "imageLoad",
	intrinsic.ImageStore:        "imageStore",
}

// texFuncMap renders an HLSL texture-object method call to its GLSL free
// function. The sampler-state argument every one of these methods takes as
// its first parameter (Load excepted) is dropped here per the
// combined-sampler simplification: GLSL's sampler type already carries the
// filtering state a separate HLSL SamplerState object would have supplied.
var texFuncMap = map[string]string{
	"Load":        "texelFetch",
	"Sample":      "texture",
	"SampleBias":  "textureOffset",
	"SampleGrad":  "textureGrad",
	"SampleLevel": "textureLod",
}

func (e *emitter) callExprString(c *ast.CallExpr) string {
	if c.Prefix != nil {
		if glslFunc, ok := texFuncMap[c.Name]; ok {
			return e.textureCallString(c, glslFunc)
		}
	}
	switch c.Intrinsic {
	case intrinsic.Mul:
		// By the time this reaches the emitter, the rewriter has already
		// retagged vector*vector mul() calls to Dot; every remaining mul()
		// call involves a matrix, which GLSL spells as a plain `*`.
		return fmt.Sprintf("(%s * %s)", e.exprString(c.Args[0]), e.exprString(c.Args[1]))
	case intrinsic.Saturate:
		return fmt.Sprintf("clamp(%s, 0.0, 1.0)", e.exprString(c.Args[0]))
	case intrinsic.Asfloat:
		return e.asfloatString(c)
	}
	if glslFunc, ok := intrinsicGLSLNames[c.Intrinsic]; ok {
		return e.callString(glslFunc, c.Args)
	}
	if c.Intrinsic != ast.IntrinsicNone {
		e.fail("%w: intrinsic %q has no GLSL mapping", ast.ErrInternal, c.Name)
		return ""
	}
	return e.callString(c.Name, c.Args)
}

// textureCallString renders one Sample/SampleLevel/SampleGrad/SampleBias/
// Load method call, folding the receiving texture expression in as the
// free function's first argument and dropping the sampler-state argument
// (every one of these but Load carries it as Args[0]).
func (e *emitter) textureCallString(c *ast.CallExpr, glslFunc string) string {
	args := c.Args
	if c.Name != "Load" && len(args) > 0 {
		args = args[1:]
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, e.exprString(c.Prefix))
	for _, a := range args {
		parts = append(parts, e.exprString(a))
	}
	return fmt.Sprintf("%s(%s)", glslFunc, strings.Join(parts, ", "))
}

// asfloatString picks intBitsToFloat vs. uintBitsToFloat by the argument's
// resolved element type, since HLSL's asfloat() overloads both reinterprets
// under one name but GLSL splits them.
func (e *emitter) asfloatString(c *ast.CallExpr) string {
	fn := "intBitsToFloat"
	if t, ok := e.typeOf(c.Args[0]); ok {
		if b, isBase := t.Aliased().(types.Base); isBase && b.Elem == types.UInt {
			fn = "uintBitsToFloat"
		}
	}
	return e.callString(fn, c.Args)
}
