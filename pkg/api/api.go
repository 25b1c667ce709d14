// Package api provides the public API for the HLSL-to-GLSL shader
// cross-compiler.
//
// This package is intended for programmatic use of the compiler by a
// caller that already holds a parsed *ast.Module — parsing HLSL source
// text is an external collaborator this module doesn't own (see
// internal/compiler's ShaderInput doc comment). For CLI usage, see
// cmd/shaderxc.
package api

import (
	"context"

	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/compiler"
	"codeberg.org/saruga/shaderxc/internal/reflect"
	"codeberg.org/saruga/shaderxc/internal/rewriter"
)

// CompileOptions controls cross-compilation behavior. It mirrors
// internal/compiler.Options field-for-field but is declared separately so
// this public surface doesn't shift every time an internal package does.
type CompileOptions struct {
	// StrictMode escalates every warning to an error.
	StrictMode bool

	// TargetVersion selects the emitted `#version` directive (e.g. 330, 450).
	TargetVersion int

	// AllowExtensions permits the emitter to request GL extensions for
	// constructs the target version doesn't natively support.
	AllowExtensions bool

	// PreserveComments keeps source comments in the emitted output.
	PreserveComments bool

	// Prefix is prepended (with an underscore) to the synthetic names the
	// emitter introduces (flattened struct-I/O globals, return temps);
	// user-declared names are emitted unchanged.
	Prefix string

	// LineMarks emits `#line` directives mapping output back to source.
	LineMarks bool

	// RewriteFlags selects which lowering rules apply; zero means every
	// rule (rewriter.All), the dialect pair's default.
	RewriteFlags rewriter.Flags
}

// CompileResult contains the cross-compilation output.
type CompileResult struct {
	// Success reports whether compilation completed without error; on
	// failure Code is empty (output is discarded on any error).
	Success bool

	// Code is the emitted GLSL source code.
	Code string

	// Diagnostics contains every message produced across analysis,
	// rewriting, and emission, formatted for display.
	Diagnostics []string

	// TextureBindingCount and UniformBufferBindingCount summarize the
	// emitted resource surface: a cheap at-a-glance stat without exposing
	// the full internal Statistics shape.
	TextureBindingCount       int
	UniformBufferBindingCount int
}

// Compile cross-compiles module to GLSL using default options (every
// rewriter lowering rule enabled, no strict mode, no target-version
// extensions).
func Compile(module *ast.Module) CompileResult {
	return CompileWithOptions(module, CompileOptions{})
}

// CompileWithOptions cross-compiles module to GLSL with custom options.
func CompileWithOptions(module *ast.Module, opts CompileOptions) CompileResult {
	out, err := compiler.Compile(context.Background(), compiler.ShaderInput{Module: module}, compiler.Options{
		StrictMode:       opts.StrictMode,
		TargetVersion:    opts.TargetVersion,
		AllowExtensions:  opts.AllowExtensions,
		PreserveComments: opts.PreserveComments,
		Prefix:           opts.Prefix,
		LineMarks:        opts.LineMarks,
		RewriteFlags:     opts.RewriteFlags,
	})

	diags := make([]string, 0, len(out.Diagnostics))
	for i := range out.Diagnostics {
		diags = append(diags, out.Diagnostics[i].Error())
	}
	if err != nil {
		diags = append(diags, err.Error())
	}

	result := CompileResult{
		Success:     out.Success,
		Code:        out.Code,
		Diagnostics: diags,
	}
	if out.Statistics != nil {
		result.TextureBindingCount = len(out.Statistics.TextureBindings)
		result.UniformBufferBindingCount = len(out.Statistics.UniformBufferBindings)
	}
	return result
}

// ReflectResult summarizes a module's resource bindings and struct layouts
// without running the rewrite/emit stages.
type ReflectResult struct {
	TextureBindings       []reflect.BindingInfo
	UniformBufferBindings []reflect.BindingInfo
	Structs               map[string]reflect.StructLayout
	EntryPoints           []reflect.EntryPointInfo
	Diagnostics           []string
}

// Reflect extracts binding and layout metadata from module, running
// semantic analysis internally (see internal/reflect.Reflect).
func Reflect(module *ast.Module) ReflectResult {
	r := reflect.Reflect(module)
	return ReflectResult{
		TextureBindings:       r.TextureBindings,
		UniformBufferBindings: r.UniformBufferBindings,
		Structs:               r.Structs,
		EntryPoints:           r.EntryPoints,
		Diagnostics:           r.Diagnostics,
	}
}
