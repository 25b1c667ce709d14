//go:build js && wasm

// Command shaderxc-wasm is the WebAssembly build of the HLSL-to-GLSL
// shader cross-compiler. It exposes compile/reflect/analyze functions to
// JavaScript via syscall/js. Every entry point takes the shader as an
// already-parsed AST encoded as JSON (see internal/astjson) — this module
// owns no HLSL lexer/parser, so the JS caller is expected to supply that
// artifact.
package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"codeberg.org/saruga/shaderxc/internal/analyzer"
	"codeberg.org/saruga/shaderxc/internal/astjson"
	"codeberg.org/saruga/shaderxc/internal/compiler"
	"codeberg.org/saruga/shaderxc/internal/diagnostic"
	"codeberg.org/saruga/shaderxc/internal/reflect"
	"codeberg.org/saruga/shaderxc/internal/rewriter"
)

var version = "0.1.0"

// jsCompileOptions mirrors the JavaScript compile options object.
type jsCompileOptions struct {
	StrictMode       *bool    `json:"strictMode"`
	TargetVersion    *int     `json:"targetVersion"`
	AllowExtensions  *bool    `json:"allowExtensions"`
	PreserveComments *bool    `json:"preserveComments"`
	Prefix           *string  `json:"prefix"`
	LineMarks        *bool    `json:"lineMarks"`
	RewriteFlags     []string `json:"rewriteFlags"`
}

func main() {
	js.Global().Set("__shaderxc", js.ValueOf(map[string]interface{}{
		"compile":  js.FuncOf(compileJS),
		"reflect":  js.FuncOf(reflectJS),
		"analyze":  js.FuncOf(analyzeJS),
		"version":  version,
	}))

	// Keep the Go runtime alive
	select {}
}

var rewriteFlagNames = map[string]rewriter.Flags{
	"log10":               rewriter.ConvertLog10,
	"vectorCompare":       rewriter.ConvertVectorCompare,
	"imageAccess":         rewriter.ConvertImageAccess,
	"samplerBufferAccess": rewriter.ConvertSamplerBufferAccess,
	"vectorSubscripts":    rewriter.ConvertVectorSubscripts,
	"unaryExpr":           rewriter.ConvertUnaryExpr,
	"implicitCasts":       rewriter.ConvertImplicitCasts,
	"initializer":         rewriter.ConvertInitializer,
	"matrixLayout":        rewriter.ConvertMatrixLayout,
}

// compileJS is the JavaScript-callable cross-compile function.
// Signature: __shaderxc.compile(astJSON: string, options?: object) => object
func compileJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeCompileError("compile requires at least 1 argument (astJSON)")
	}

	module, err := astjson.Decode([]byte(args[0].String()))
	if err != nil {
		return makeCompileError(err.Error())
	}

	opts := compiler.Options{RewriteFlags: rewriter.All}
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		jsOpts := parseCompileOptions(args[1])
		if jsOpts.StrictMode != nil {
			opts.StrictMode = *jsOpts.StrictMode
		}
		if jsOpts.TargetVersion != nil {
			opts.TargetVersion = *jsOpts.TargetVersion
		}
		if jsOpts.AllowExtensions != nil {
			opts.AllowExtensions = *jsOpts.AllowExtensions
		}
		if jsOpts.PreserveComments != nil {
			opts.PreserveComments = *jsOpts.PreserveComments
		}
		if jsOpts.Prefix != nil {
			opts.Prefix = *jsOpts.Prefix
		}
		if jsOpts.LineMarks != nil {
			opts.LineMarks = *jsOpts.LineMarks
		}
		if len(jsOpts.RewriteFlags) > 0 {
			var flags rewriter.Flags
			for _, name := range jsOpts.RewriteFlags {
				if bit, ok := rewriteFlagNames[name]; ok {
					flags |= bit
				}
			}
			opts.RewriteFlags = flags
		}
	}

	out, compileErr := compiler.Compile(context.Background(), compiler.ShaderInput{Module: module}, opts)
	if compileErr != nil {
		return makeCompileError(compileErr.Error())
	}

	return map[string]interface{}{
		"success":     out.Success,
		"code":        out.Code,
		"diagnostics": convertDiagnosticsToJS(out.Diagnostics),
	}
}

// parseCompileOptions extracts compile options from a JS object.
func parseCompileOptions(jsVal js.Value) jsCompileOptions {
	var opts jsCompileOptions
	jsonStr := js.Global().Get("JSON").Call("stringify", jsVal).String()
	json.Unmarshal([]byte(jsonStr), &opts)
	return opts
}

// makeCompileError creates a compile result object reporting a single error.
func makeCompileError(msg string) interface{} {
	return map[string]interface{}{
		"success": false,
		"code":    "",
		"diagnostics": []interface{}{
			map[string]interface{}{"severity": "error", "message": msg},
		},
	}
}

// convertDiagnosticsToJS converts a diagnostic slice to JS-friendly objects.
func convertDiagnosticsToJS(diags []diagnostic.Diagnostic) []interface{} {
	result := make([]interface{}, len(diags))
	for i, d := range diags {
		entry := map[string]interface{}{
			"severity": d.Severity.String(),
			"category": d.Category.String(),
			"message":  d.Message,
			"line":     d.Range.Start.Line,
			"column":   d.Range.Start.Column,
		}
		if d.Code != "" {
			entry["code"] = d.Code
		}
		result[i] = entry
	}
	return result
}

// reflectJS is the JavaScript-callable reflect function.
// Signature: __shaderxc.reflect(astJSON: string) => object
func reflectJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeReflectError("reflect requires 1 argument (astJSON)")
	}

	module, err := astjson.Decode([]byte(args[0].String()))
	if err != nil {
		return makeReflectError(err.Error())
	}

	result := reflect.Reflect(module)

	errors := make([]interface{}, len(result.Diagnostics))
	for i, e := range result.Diagnostics {
		errors[i] = e
	}

	return map[string]interface{}{
		"textureBindings":       convertBindingsToJS(result.TextureBindings),
		"uniformBufferBindings": convertBindingsToJS(result.UniformBufferBindings),
		"structs":               convertStructsToJS(result.Structs),
		"entryPoints":           convertEntryPointsToJS(result.EntryPoints),
		"errors":                errors,
	}
}

// makeReflectError creates a reflect result object reporting a single error.
func makeReflectError(msg string) interface{} {
	return map[string]interface{}{
		"textureBindings":       []interface{}{},
		"uniformBufferBindings": []interface{}{},
		"structs":               map[string]interface{}{},
		"entryPoints":           []interface{}{},
		"errors":                []interface{}{msg},
	}
}

// convertBindingsToJS converts bindings to JS-friendly format.
func convertBindingsToJS(bindings []reflect.BindingInfo) []interface{} {
	result := make([]interface{}, len(bindings))
	for i, b := range bindings {
		result[i] = map[string]interface{}{
			"name":  b.Name,
			"kind":  b.Kind,
			"slot":  b.Slot,
			"space": b.Space,
			"type":  b.Type,
		}
	}
	return result
}

// convertStructsToJS converts the struct-layout map to JS-friendly format.
func convertStructsToJS(structs map[string]reflect.StructLayout) map[string]interface{} {
	result := make(map[string]interface{}, len(structs))
	for name, s := range structs {
		result[name] = map[string]interface{}{
			"size":      s.Size,
			"alignment": s.Alignment,
			"fields":    convertFieldsToJS(s.Fields),
		}
	}
	return result
}

// convertFieldsToJS converts struct fields to JS-friendly format.
func convertFieldsToJS(fields []reflect.FieldInfo) []interface{} {
	result := make([]interface{}, len(fields))
	for i, f := range fields {
		result[i] = map[string]interface{}{
			"name":      f.Name,
			"type":      f.Type,
			"offset":    f.Offset,
			"size":      f.Size,
			"alignment": f.Alignment,
		}
	}
	return result
}

// convertEntryPointsToJS converts entry points to JS-friendly format.
func convertEntryPointsToJS(entryPoints []reflect.EntryPointInfo) []interface{} {
	result := make([]interface{}, len(entryPoints))
	for i, ep := range entryPoints {
		entry := map[string]interface{}{
			"name":          ep.Name,
			"stage":         ep.Stage,
			"workgroupSize": nil,
		}
		if ep.WorkgroupSize != nil {
			wg := make([]interface{}, len(ep.WorkgroupSize))
			for j, v := range ep.WorkgroupSize {
				wg[j] = v
			}
			entry["workgroupSize"] = wg
		}
		result[i] = entry
	}
	return result
}

// jsAnalyzeOptions mirrors the JavaScript analyze options object.
type jsAnalyzeOptions struct {
	StrictMode        *bool             `json:"strictMode"`
	DiagnosticFilters map[string]string `json:"diagnosticFilters"`
}

// analyzeJS is the JavaScript-callable semantic-analysis-only function,
// for editor tooling that wants diagnostics without a full compile.
// Signature: __shaderxc.analyze(astJSON: string, options?: object) => object
func analyzeJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeAnalyzeError("analyze requires at least 1 argument (astJSON)")
	}

	module, err := astjson.Decode([]byte(args[0].String()))
	if err != nil {
		return makeAnalyzeError(err.Error())
	}

	var opts jsAnalyzeOptions
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		jsonStr := js.Global().Get("JSON").Call("stringify", args[1]).String()
		json.Unmarshal([]byte(jsonStr), &opts)
	}

	var filters *diagnostic.DiagnosticFilter
	if len(opts.DiagnosticFilters) > 0 {
		filters = diagnostic.NewDiagnosticFilter()
		for rule, severity := range opts.DiagnosticFilters {
			switch severity {
			case "off":
				filters.DisableRule(rule)
			case "error":
				filters.SetRule(rule, diagnostic.Error)
			case "warning":
				filters.SetRule(rule, diagnostic.Warning)
			case "info":
				filters.SetRule(rule, diagnostic.Info)
			}
		}
	}

	strictMode := false
	if opts.StrictMode != nil {
		strictMode = *opts.StrictMode
	}

	result := analyzer.Analyze(module, analyzer.Options{
		StrictMode:        strictMode,
		DiagnosticFilters: filters,
	})

	return map[string]interface{}{
		"valid":       result.Valid,
		"diagnostics": convertDiagnosticsToJS(result.Diagnostics.Diagnostics()),
	}
}

// makeAnalyzeError creates an analyze result object reporting a single error.
func makeAnalyzeError(msg string) interface{} {
	return map[string]interface{}{
		"valid": false,
		"diagnostics": []interface{}{
			map[string]interface{}{"severity": "error", "message": msg},
		},
	}
}
