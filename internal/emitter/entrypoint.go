package emitter

import (
	"fmt"

	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/types"
)

// ioBinding is one flattened shader-boundary variable: either a builtin
// (gl_Position, gl_FragDepth, ...) or a generic in/out global at an
// explicit location.
type ioBinding struct {
	glslName string
	glslType string
	isInput  bool
	builtin  bool
	location int
}

// emitEntryPoint lowers the HLSL entry-point function into `main()`,
// flattening its parameter list and return value to the global in/out
// variables and builtins GLSL's shader-boundary model requires: the entry
// point is rewritten as a `void main()` whose parameters and return value
// are projected onto global `in`/`out` variables or builtin variables
// keyed by semantic.
func (e *emitter) emitEntryPoint(fn *ast.FunctionDecl) {
	e.remap = make(map[ast.Ref]string)
	e.fieldRemap = make(map[ast.Ref]map[string]string)

	var bindings []ioBinding
	nextInLoc := 0

	for _, p := range fn.Parameters {
		paramType := e.resolveType(p.Type)
		if st, ok := paramType.Aliased().(types.Struct); ok {
			fields := make(map[string]string)
			e.fieldRemap[p.Name] = fields
			sd := e.structDeclFor(st.DeclName)
			if sd != nil {
				for _, f := range sd.Fields {
					fieldName := e.module.Name(f.Name)
					glslName, binding := e.declareInput(fieldName, f.Semantic, e.resolveType(f.Type), &nextInLoc)
					fields[fieldName] = glslName
					bindings = append(bindings, binding)
				}
			}
			continue
		}
		name := e.module.Name(p.Name)
		glslName, binding := e.declareInput(name, p.Semantic, paramType, &nextInLoc)
		e.remap[p.Name] = glslName
		bindings = append(bindings, binding)
	}

	nextOutLoc := 0
	var outputFields []ast.StructField
	returnType := e.resolveType(fn.ReturnType)
	structReturn, isStructReturn := returnType.Aliased().(types.Struct)
	if isStructReturn {
		if sd := e.structDeclFor(structReturn.DeclName); sd != nil {
			outputFields = sd.Fields
		}
	}
	outRemap := make(map[string]string)
	if isStructReturn {
		for _, f := range outputFields {
			fieldName := e.module.Name(f.Name)
			glslName, binding := e.declareOutput(fieldName, f.Semantic, e.resolveType(f.Type), &nextOutLoc)
			outRemap[fieldName] = glslName
			bindings = append(bindings, binding)
		}
	} else if fn.ReturnSemantic != nil {
		glslName, binding := e.declareOutput("result", fn.ReturnSemantic, returnType, &nextOutLoc)
		outRemap[""] = glslName
		bindings = append(bindings, binding)
	}

	for _, b := range bindings {
		if b.builtin {
			continue
		}
		qualifier := "in"
		if !b.isInput {
			qualifier = "out"
		}
		e.writeLine(fmt.Sprintf("layout(location = %d) %s %s %s;", b.location, qualifier, b.glslType, b.glslName))
	}

	if fn.Flags().IsEntryPoint && e.module.Stage == ast.StageCompute {
		e.writeComputeLayout(fn)
	}

	e.writeLine("void main() {")
	e.indent++
	e.entryReturnRemap = outRemap
	e.entryReturnIsStruct = isStructReturn
	e.entryReturnType = returnType
	if fn.Body != nil {
		e.emitStmtList(fn.Body.Stmts)
	}
	e.entryReturnRemap = nil
	e.indent--
	e.writeLine("}")

	stage := e.module.Stage.String()
	info := EntryPointInfo{Name: e.module.Name(fn.Name), Stage: stage}
	if e.module.Stage == ast.StageCompute {
		info.WorkgroupSize = computeNumthreads(fn)
	}
	e.stats.EntryPoints = append(e.stats.EntryPoints, info)

	e.remap = nil
	e.fieldRemap = nil
}

func (e *emitter) structDeclFor(name string) *ast.StructDecl {
	for _, d := range e.module.Declarations {
		if sd, ok := d.(*ast.StructDecl); ok && e.module.Name(sd.Name) == name {
			return sd
		}
	}
	return nil
}

// declareInput resolves one flattened input field/parameter to either a
// builtin read or a `layout(location=i) in` global, advancing *loc only for
// the generic (non-builtin) case so system-value semantics don't consume a
// location slot, matching scenario 7's "one per non-system field" rule.
func (e *emitter) declareInput(name string, sem *ast.Semantic, t types.Type, loc *int) (string, ioBinding) {
	if sem != nil {
		if b, ok := systemValueBuiltins[sem.Name]; ok {
			return b.name, ioBinding{glslName: b.name, builtin: true}
		}
	}
	glslName := e.qualifiedGlobalName(name)
	location := *loc
	*loc++
	return glslName, ioBinding{glslName: glslName, glslType: glslTypeName(t), isInput: true, location: location}
}

// declareOutput mirrors declareInput for the return-value side; SV_TargetN
// semantics use their literal N as the location instead of the sequential
// counter, since fragment-output target indices are meaningful, not just
// positional.
func (e *emitter) declareOutput(name string, sem *ast.Semantic, t types.Type, loc *int) (string, ioBinding) {
	if sem != nil {
		if b, ok := systemValueBuiltins[sem.Name]; ok {
			return b.name, ioBinding{glslName: b.name, builtin: true}
		}
		if idx, ok := isFragmentTargetSemantic(sem.Name); ok {
			glslName := e.qualifiedGlobalName(name)
			return glslName, ioBinding{glslName: glslName, glslType: glslTypeName(t), isInput: false, location: idx}
		}
	}
	glslName := e.qualifiedGlobalName(name)
	location := *loc
	*loc++
	return glslName, ioBinding{glslName: glslName, glslType: glslTypeName(t), isInput: false, location: location}
}

func (e *emitter) qualifiedGlobalName(name string) string {
	if e.options.prefix() == "" {
		return name
	}
	return e.options.prefix() + "_" + name
}

func (e *emitter) writeComputeLayout(fn *ast.FunctionDecl) {
	size := computeNumthreads(fn)
	e.writeLine(fmt.Sprintf("layout(local_size_x = %d, local_size_y = %d, local_size_z = %d) in;", size[0], size[1], size[2]))
}

func computeNumthreads(fn *ast.FunctionDecl) [3]int {
	size := [3]int{1, 1, 1}
	for _, attr := range fn.Attributes {
		if attr.Name != "numthreads" || len(attr.Args) != 3 {
			continue
		}
		for i, arg := range attr.Args {
			if lit, ok := arg.(*ast.LiteralExpr); ok {
				fmt.Sscanf(lit.Value, "%d", &size[i])
			}
		}
	}
	return size
}

// remapEntryIdent resolves an ObjectExpr rooted at an entry-point parameter
// (or one of its flattened struct fields) to the GLSL identifier that
// replaces it, plus whatever chain remains to be appended after the match
// (e.g. the ".xyz" in "input.position.xyz", once "input.position" has been
// replaced by the flattened global's name). Returns ("", nil, false) when
// obj isn't such a reference.
func (e *emitter) remapEntryIdent(obj *ast.ObjectExpr) (string, *ast.ObjectExpr, bool) {
	if obj.Prefix != nil || !obj.SymbolRef.IsValid() {
		return "", nil, false
	}
	if fields, ok := e.fieldRemap[obj.SymbolRef]; ok && obj.Next != nil {
		if name, ok2 := fields[obj.Next.Ident]; ok2 {
			return name, obj.Next.Next, true
		}
	}
	if name, ok := e.remap[obj.SymbolRef]; ok {
		return name, obj.Next, true
	}
	return "", nil, false
}
