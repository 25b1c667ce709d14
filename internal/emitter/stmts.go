package emitter

import (
	"fmt"

	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/intrinsic"
	"codeberg.org/saruga/shaderxc/internal/types"
)

func (e *emitter) emitStmtList(stmts []ast.Stmt) {
	for _, s := range stmts {
		if e.fatal != nil {
			return
		}
		e.emitStmt(s)
	}
}

func (e *emitter) emitStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.CompoundStmt:
		e.writeLine("{")
		e.indent++
		e.emitStmtList(v.Stmts)
		e.indent--
		e.writeLine("}")
	case *ast.NullStmt:
		e.writeLine(";")
	case *ast.DeclStmt:
		e.emitLocalDeclStmt(v)
	case *ast.ForStmt:
		e.emitForStmt(v)
	case *ast.WhileStmt:
		e.writeLine(fmt.Sprintf("while (%s)", e.exprString(v.Condition)))
		e.emitStmt(v.Body)
	case *ast.DoWhileStmt:
		e.writeLine("do")
		e.emitStmt(v.Body)
		e.writeLine(fmt.Sprintf("while (%s);", e.exprString(v.Condition)))
	case *ast.IfStmt:
		e.emitIfStmt(v)
	case *ast.SwitchStmt:
		e.emitSwitchStmt(v)
	case *ast.ExprStmt:
		e.emitExprStmt(v)
	case *ast.ReturnStmt:
		e.emitReturnStmt(v)
	case *ast.ControlTransferStmt:
		e.emitControlTransferStmt(v)
	default:
		e.fail("%w: unhandled statement kind %T", ast.ErrInternal, s)
	}
}

func (e *emitter) emitLocalDeclStmt(s *ast.DeclStmt) {
	vd, ok := s.Decl.(*ast.VarDecl)
	if !ok {
		e.fail("%w: unsupported local declaration kind %T", ast.ErrInternal, s.Decl)
		return
	}
	e.emitVarDecl(vd)
}

// forClauseFragment renders the init/update slot of a C-style for loop as
// an inline fragment (no trailing newline or semicolon), since ast.ForStmt
// models both as full Stmt nodes but GLSL's for-header packs them on one
// line.
func (e *emitter) forClauseFragment(s ast.Stmt) string {
	switch v := s.(type) {
	case nil:
		return ""
	case *ast.NullStmt:
		return ""
	case *ast.ExprStmt:
		return e.exprString(v.Expr)
	case *ast.DeclStmt:
		if vd, ok := v.Decl.(*ast.VarDecl); ok {
			frag := fmt.Sprintf("%s %s", e.declTypeString(vd.Type), e.module.Name(vd.Name))
			if vd.Initializer != nil {
				frag += " = " + e.exprString(vd.Initializer)
			}
			return frag
		}
	}
	return ""
}

func (e *emitter) emitForStmt(s *ast.ForStmt) {
	init := e.forClauseFragment(s.Init)
	update := e.forClauseFragment(s.Update)
	cond := ""
	if s.Condition != nil {
		cond = e.exprString(s.Condition)
	}
	e.writeLine(fmt.Sprintf("for (%s; %s; %s)", init, cond, update))
	e.emitStmt(s.Body)
}

func (e *emitter) emitIfStmt(s *ast.IfStmt) {
	e.writeLine(fmt.Sprintf("if (%s)", e.exprString(s.Condition)))
	e.emitStmt(s.Then)
	if s.Else == nil {
		return
	}
	e.writeLine("else")
	e.emitStmt(s.Else)
}

func (e *emitter) emitSwitchStmt(s *ast.SwitchStmt) {
	e.writeLine(fmt.Sprintf("switch (%s) {", e.exprString(s.Selector)))
	e.indent++
	for _, c := range s.Cases {
		if len(c.Selectors) == 0 {
			e.writeLine("default:")
		} else {
			for _, sel := range c.Selectors {
				e.writeLine(fmt.Sprintf("case %s:", e.exprString(sel)))
			}
		}
		e.indent++
		e.emitStmtList(c.Body)
		e.indent--
	}
	e.indent--
	e.writeLine("}")
}

// emitExprStmt prints an expression used for its side effects, special-
// casing the two intrinsics whose HLSL shape (output parameters, an
// implicit discard-if-negative) has no single-expression GLSL equivalent:
// sincos must become two assignment statements, and clip must become a
// conditional discard.
func (e *emitter) emitExprStmt(s *ast.ExprStmt) {
	if call, ok := s.Expr.(*ast.CallExpr); ok {
		switch call.Intrinsic {
		case intrinsic.Sincos:
			if len(call.Args) == 3 {
				x := e.exprString(call.Args[0])
				e.writeLine(fmt.Sprintf("%s = sin(%s);", e.exprString(call.Args[1]), x))
				e.writeLine(fmt.Sprintf("%s = cos(%s);", e.exprString(call.Args[2]), x))
				return
			}
		case intrinsic.Clip:
			if len(call.Args) == 1 {
				e.emitClip(call.Args[0])
				return
			}
		}
	}
	e.writeLine(e.exprString(s.Expr) + ";")
}

func (e *emitter) emitClip(arg ast.Expr) {
	t, ok := e.typeOf(arg)
	if ok && types.IsVector(t) {
		dim := 4
		if b, isBase := t.Aliased().(types.Base); isBase {
			dim = b.Dim()
		}
		zero := fmt.Sprintf("vec%d(0.0)", dim)
		e.writeLine(fmt.Sprintf("if (any(lessThan(%s, %s))) discard;", e.exprString(arg), zero))
		return
	}
	e.writeLine(fmt.Sprintf("if (%s < 0.0) discard;", e.exprString(arg)))
}

// emitReturnStmt lowers a return statement; inside the current entry
// point's body this flattens the returned value to the builtin/output
// globals set up by emitEntryPoint instead of a value-carrying return,
// since GLSL entry points are void.
func (e *emitter) emitReturnStmt(s *ast.ReturnStmt) {
	if e.entryReturnRemap != nil {
		e.emitEntryReturn(s)
		return
	}
	if s.Value == nil {
		e.writeLine("return;")
		return
	}
	e.writeLine("return " + e.exprString(s.Value) + ";")
}

func (e *emitter) emitEntryReturn(s *ast.ReturnStmt) {
	if s.Value == nil {
		e.writeLine("return;")
		return
	}
	if e.entryReturnIsStruct {
		tmp := e.nextTemp("ret")
		typeName := glslTypeName(e.entryReturnType)
		e.writeLine(fmt.Sprintf("%s %s = %s;", typeName, tmp, e.exprString(s.Value)))
		if st, ok := e.entryReturnType.Aliased().(types.Struct); ok {
			for _, f := range st.Fields {
				if glslName, has := e.entryReturnRemap[f.Name]; has {
					e.writeLine(fmt.Sprintf("%s = %s.%s;", glslName, tmp, f.Name))
				}
			}
		}
		e.writeLine("return;")
		return
	}
	if glslName, ok := e.entryReturnRemap[""]; ok {
		e.writeLine(fmt.Sprintf("%s = %s;", glslName, e.exprString(s.Value)))
	}
	e.writeLine("return;")
}

func (e *emitter) emitControlTransferStmt(s *ast.ControlTransferStmt) {
	switch s.Kind {
	case ast.CtrlBreak:
		e.writeLine("break;")
	case ast.CtrlContinue:
		e.writeLine("continue;")
	case ast.CtrlDiscard:
		e.writeLine("discard;")
	}
}
