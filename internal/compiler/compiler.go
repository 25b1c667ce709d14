// Package compiler sequences the three semantic stages —
// internal/analyzer, internal/rewriter, internal/emitter — into a single
// synchronous compile call. It owns none of the stages' logic; it only
// wires them together, running each pass strictly in sequence, and
// applies the discard-output-on-error policy: on any error the emitted
// output is discarded, but on warnings-only output is still produced.
package compiler

import (
	"context"
	"fmt"

	"codeberg.org/saruga/shaderxc/internal/analyzer"
	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/diagnostic"
	"codeberg.org/saruga/shaderxc/internal/emitter"
	"codeberg.org/saruga/shaderxc/internal/rewriter"
)

// IncludeResolver resolves an HLSL `#include` target to its source text;
// nil means the caller's module graph already has every include flattened.
// This package owns no lexer or preprocessor of its own.
type IncludeResolver func(path string) (string, error)

// ShaderInput is the compiler's sole entry artifact: an already-parsed
// module, since parsing is handled upstream by the caller, plus the
// entry point and stage metadata needed to drive analysis and emission.
type ShaderInput struct {
	Module          *ast.Module
	EntryPointName  string
	Stage           ast.ShaderStage
	IncludeResolver IncludeResolver
}

// Options is the compile-wide option set, composed of the per-stage
// options each of the three stages recognizes.
type Options struct {
	StrictMode       bool
	DiagnosticFilter *diagnostic.DiagnosticFilter
	TargetVersion    int
	AllowExtensions  bool
	PreserveComments bool
	Prefix           string
	LineMarks        bool
	// RewriteFlags selects which lowering rules internal/rewriter applies;
	// zero means rewriter.All (every rule on), the dialect pair's default.
	RewriteFlags rewriter.Flags
}

func (o Options) rewriteFlags() rewriter.Flags {
	if o.RewriteFlags == 0 {
		return rewriter.All
	}
	return o.RewriteFlags
}

// ShaderOutput is the compile result: the emitted source (empty when
// Success is false, per the discard-on-error policy), the collected
// statistics record, and every diagnostic produced across all three
// stages.
type ShaderOutput struct {
	Success     bool
	Code        string
	Statistics  *emitter.Statistics
	Diagnostics []diagnostic.Diagnostic
}

// Compile runs Analyze -> Rewrite -> Emit over input.Module in sequence,
// checking ctx for cancellation between each stage. There are no internal
// suspension points; ctx is accepted purely for cancellation/deadline
// propagation. It never panics: each stage already recovers internally
// and reports an internal-error diagnostic instead.
func Compile(ctx context.Context, input ShaderInput, opts Options) (ShaderOutput, error) {
	if input.Module == nil {
		return ShaderOutput{}, fmt.Errorf("%w: compiler requires an already-parsed module", ast.ErrInternal)
	}
	if input.EntryPointName != "" {
		input.Module.EntryPointName = input.EntryPointName
	}
	input.Module.Stage = input.Stage

	if err := ctx.Err(); err != nil {
		return ShaderOutput{}, err
	}

	analyzeResult := analyzer.Analyze(input.Module, analyzer.Options{
		StrictMode:        opts.StrictMode,
		DiagnosticFilters: opts.DiagnosticFilter,
	})
	if !analyzeResult.Valid {
		return ShaderOutput{Diagnostics: analyzeResult.Diagnostics.Diagnostics()}, nil
	}

	if err := ctx.Err(); err != nil {
		return ShaderOutput{}, err
	}

	if err := rewriter.Rewrite(input.Module, analyzeResult.TypeInfo, opts.rewriteFlags()); err != nil {
		diags := append([]diagnostic.Diagnostic{}, analyzeResult.Diagnostics.Diagnostics()...)
		return ShaderOutput{Diagnostics: diags}, err
	}

	if err := ctx.Err(); err != nil {
		return ShaderOutput{}, err
	}

	code, stats, emitDiags, err := emitter.Emit(input.Module, analyzeResult.TypeInfo, emitter.Options{
		TargetVersion:    opts.TargetVersion,
		AllowExtensions:  opts.AllowExtensions,
		PreserveComments: opts.PreserveComments,
		Prefix:           opts.Prefix,
		LineMarks:        opts.LineMarks,
	})

	all := append([]diagnostic.Diagnostic{}, analyzeResult.Diagnostics.Diagnostics()...)
	if emitDiags != nil {
		all = append(all, emitDiags.Diagnostics()...)
	}

	if err != nil || (emitDiags != nil && emitDiags.HasErrors()) {
		return ShaderOutput{Diagnostics: all}, err
	}

	return ShaderOutput{Success: true, Code: code, Statistics: stats, Diagnostics: all}, nil
}
