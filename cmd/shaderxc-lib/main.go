// Package main provides a C-callable static library for HLSL-to-GLSL
// shader cross-compilation and reflection.
//
// This is built with -buildmode=c-archive to produce libshaderxc.a
// that can be linked into Zig/C/Rust programs.
//
// Build:
//
//	make lib
//	# or: CGO_ENABLED=1 go build -buildmode=c-archive -o build/libshaderxc.a ./cmd/shaderxc-lib
//
// Exported functions:
//
//	shaderxc_compile(ast_json, ast_len, options_json, options_len, out_code, out_code_len, out_json, out_json_len) -> error_code
//	shaderxc_reflect(ast_json, ast_len, out_json, out_len) -> error_code
//	shaderxc_free(ptr) -> void
//	shaderxc_version() -> *char
package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"context"
	"encoding/json"
	"unsafe"

	"codeberg.org/saruga/shaderxc/internal/astjson"
	"codeberg.org/saruga/shaderxc/internal/compiler"
	"codeberg.org/saruga/shaderxc/internal/reflect"
	"codeberg.org/saruga/shaderxc/internal/rewriter"
)

// Version should match the release version
const version = "0.1.0"

// Error codes
const (
	SHADERXC_OK              = 0
	SHADERXC_ERR_JSON_ENCODE = 1
	SHADERXC_ERR_NULL_INPUT  = 2
	SHADERXC_ERR_JSON_DECODE = 3
	SHADERXC_ERR_COMPILE     = 4
)

// CompileOptions mirrors pkg/api.CompileOptions for JSON parsing across
// the cgo boundary.
type CompileOptions struct {
	StrictMode       bool     `json:"strictMode"`
	TargetVersion    int      `json:"targetVersion"`
	AllowExtensions  bool     `json:"allowExtensions"`
	PreserveComments bool     `json:"preserveComments"`
	Prefix           string   `json:"prefix"`
	LineMarks        bool     `json:"lineMarks"`
	RewriteFlags     []string `json:"rewriteFlags"`
}

// CompileResult is the JSON result structure for a cross-compilation.
type CompileResult struct {
	Success     bool     `json:"success"`
	Code        string   `json:"code"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// shaderxc_compile cross-compiles an HLSL AST (given as JSON, see
// internal/astjson) to GLSL source.
//
// Parameters:
//   - ast_json: pointer to the JSON-encoded AST
//   - ast_len: length of ast_json in bytes
//   - options_json: pointer to JSON CompileOptions (can be NULL for defaults)
//   - options_len: length of options JSON
//   - out_code: pointer to receive emitted GLSL code (caller must free with shaderxc_free)
//   - out_code_len: pointer to receive code length
//   - out_json: pointer to receive JSON CompileResult (caller must free with shaderxc_free)
//   - out_json_len: pointer to receive JSON length
//
// Returns 0 on success, a non-zero error code on failure.
//
//export shaderxc_compile
func shaderxc_compile(
	ast_json *C.char, ast_len C.int,
	options_json *C.char, options_len C.int,
	out_code **C.char, out_code_len *C.int,
	out_json **C.char, out_json_len *C.int,
) C.int {
	if ast_json == nil || out_code == nil || out_code_len == nil {
		return SHADERXC_ERR_NULL_INPUT
	}

	module, err := astjson.Decode([]byte(C.GoStringN(ast_json, ast_len)))
	if err != nil {
		return SHADERXC_ERR_JSON_DECODE
	}

	opts := compiler.Options{RewriteFlags: rewriter.All}
	if options_json != nil && options_len > 0 {
		var jsonOpts CompileOptions
		if err := json.Unmarshal([]byte(C.GoStringN(options_json, options_len)), &jsonOpts); err != nil {
			return SHADERXC_ERR_JSON_DECODE
		}
		opts.StrictMode = jsonOpts.StrictMode
		opts.TargetVersion = jsonOpts.TargetVersion
		opts.AllowExtensions = jsonOpts.AllowExtensions
		opts.PreserveComments = jsonOpts.PreserveComments
		opts.Prefix = jsonOpts.Prefix
		opts.LineMarks = jsonOpts.LineMarks
		if flags, ok := resolveRewriteFlags(jsonOpts.RewriteFlags); ok {
			opts.RewriteFlags = flags
		}
	}

	out, compileErr := compiler.Compile(context.Background(), compiler.ShaderInput{Module: module}, opts)
	if compileErr != nil {
		return SHADERXC_ERR_COMPILE
	}

	*out_code = C.CString(out.Code)
	*out_code_len = C.int(len(out.Code))

	if out_json != nil && out_json_len != nil {
		diags := make([]string, 0, len(out.Diagnostics))
		for _, d := range out.Diagnostics {
			diags = append(diags, d.Error())
		}
		jsonResult := CompileResult{
			Success:     out.Success,
			Code:        out.Code,
			Diagnostics: diags,
		}
		jsonBytes, err := json.Marshal(jsonResult)
		if err != nil {
			return SHADERXC_ERR_JSON_ENCODE
		}
		*out_json = C.CString(string(jsonBytes))
		*out_json_len = C.int(len(jsonBytes))
	}

	return SHADERXC_OK
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

func resolveRewriteFlags(names []string) (rewriter.Flags, bool) {
	if len(names) == 0 {
		return 0, false
	}
	var flags rewriter.Flags
	for _, n := range names {
		if bit, ok := rewriteFlagNames[n]; ok {
			flags |= bit
		}
	}
	return flags, true
}

// shaderxc_reflect performs binding/layout reflection on an HLSL AST (given
// as JSON) and returns JSON.
//
// Parameters:
//   - ast_json: pointer to the JSON-encoded AST
//   - ast_len: length of ast_json in bytes
//   - out_json: pointer to receive JSON result (caller must free with shaderxc_free)
//   - out_len: pointer to receive JSON length
//
// Returns 0 on success, a non-zero error code on failure.
//
//export shaderxc_reflect
func shaderxc_reflect(ast_json *C.char, ast_len C.int, out_json **C.char, out_len *C.int) C.int {
	if ast_json == nil || out_json == nil || out_len == nil {
		return SHADERXC_ERR_NULL_INPUT
	}

	module, err := astjson.Decode([]byte(C.GoStringN(ast_json, ast_len)))
	if err != nil {
		return SHADERXC_ERR_JSON_DECODE
	}

	result := reflect.Reflect(module)
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return SHADERXC_ERR_JSON_ENCODE
	}

	*out_json = C.CString(string(jsonBytes))
	*out_len = C.int(len(jsonBytes))

	return SHADERXC_OK
}

// shaderxc_free frees memory allocated by shaderxc functions.
//
// Parameters:
//   - ptr: pointer returned from shaderxc_compile or shaderxc_reflect
//
//export shaderxc_free
func shaderxc_free(ptr *C.char) {
	if ptr != nil {
		C.free(unsafe.Pointer(ptr))
	}
}

// shaderxc_version returns the library version string.
// The returned pointer is static and must NOT be freed.
//
//export shaderxc_version
func shaderxc_version() *C.char {
	return versionCString
}

// versionCString is allocated once and shared by every shaderxc_version call.
var versionCString = C.CString(version)

// Required for c-archive build mode
func main() {}
