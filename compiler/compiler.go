// Package compiler is the public entry point: it feeds source text through
// the full pipeline (parse, lower, SSA, liveness, scope construction, tree
// reconstruction, emission) and returns transformed source text.
package compiler

import (
	"fmt"
	"strings"

	"memoc/internal/codegen"
	"memoc/internal/errors"
	"memoc/internal/hir"
	"memoc/internal/parser"
	"memoc/internal/reactive"
)

// SourceKind describes the flavor of the input module. The surface parser
// accepts the shared subset for every kind; the distinction is carried for
// callers that route files by extension.
type SourceKind int

const (
	// Module is plain source.
	Module SourceKind = iota
	// ModuleWithTypeHints is source annotated with type hints.
	ModuleWithTypeHints
	// ModuleWithTypeHintsAndMarkup adds embedded markup on top of hints.
	ModuleWithTypeHintsAndMarkup
	// ModuleWithMarkup is source with embedded markup.
	ModuleWithMarkup
)

// Options tune a compilation.
type Options struct {
	// StrictLowering turns recovered lowering errors into a returned
	// error instead of emitting the function with dead temporaries.
	StrictLowering bool
}

// Compile transforms every function declaration in the source and returns
// the emitted functions joined by newlines. A parse failure is reported as
// a diagnostic payload starting with "Parse Errors:", not as an error.
func Compile(sourceText string, kind SourceKind) (string, error) {
	return CompileWithOptions(sourceText, kind, Options{})
}

// CompileWithOptions is Compile with explicit options.
func CompileWithOptions(sourceText string, kind SourceKind, opts Options) (string, error) {
	module, parseErrors := parser.ParseSource(sourceName(kind), sourceText)
	if len(parseErrors) > 0 {
		return formatParseErrors(parseErrors), nil
	}

	var output strings.Builder
	for _, fn := range module.Functions {
		hirFunc, lowerErrs := hir.Lower(fn)
		if opts.StrictLowering && len(lowerErrs) > 0 {
			return "", lowerErrs[0]
		}

		ssaFunc := hir.EnterSSA(hirFunc)
		sched := hir.NewSchedule(ssaFunc)
		liveness := hir.InferLiveness(ssaFunc, sched)
		scopes := hir.BuildScopes(ssaFunc, sched, liveness)

		tree := reactive.Build(ssaFunc, sched, scopes)
		output.WriteString(codegen.Generate(tree, scopes))
		output.WriteString("\n")
	}

	return output.String(), nil
}

// DebugIR dumps the SSA IR, the reactive scopes and the emitted source for
// every function. The format is not guaranteed to be stable.
func DebugIR(sourceText string, kind SourceKind) (string, error) {
	module, parseErrors := parser.ParseSource(sourceName(kind), sourceText)
	if len(parseErrors) > 0 {
		return formatParseErrors(parseErrors), nil
	}

	var output strings.Builder
	for _, fn := range module.Functions {
		hirFunc, _ := hir.Lower(fn)
		ssaFunc := hir.EnterSSA(hirFunc)
		sched := hir.NewSchedule(ssaFunc)
		liveness := hir.InferLiveness(ssaFunc, sched)
		scopes := hir.BuildScopes(ssaFunc, sched, liveness)

		output.WriteString("=== HIR (SSA) ===\n")
		output.WriteString(hir.Print(ssaFunc))

		if len(scopes.Scopes) > 0 {
			output.WriteString("\n=== Reactive Scopes ===\n")
			for _, scope := range scopes.Scopes {
				fmt.Fprintf(&output, "Scope %d: range [%d, %d)\n", scope.ID, scope.Range.Start, scope.Range.End)
				if len(scope.Dependencies) > 0 {
					output.WriteString("  Dependencies:")
					for _, dep := range scope.Dependencies {
						output.WriteString(" " + hir.FormatIdentifier(dep.Identifier))
					}
					output.WriteString("\n")
				}
				if len(scope.Declarations) > 0 {
					output.WriteString("  Declarations:")
					for _, decl := range scope.Declarations {
						output.WriteString(" " + hir.FormatIdentifier(decl.Identifier))
					}
					output.WriteString("\n")
				}
			}
		}

		tree := reactive.Build(ssaFunc, sched, scopes)
		output.WriteString("\n=== Generated Code ===\n")
		output.WriteString(codegen.Generate(tree, scopes))
	}

	return output.String(), nil
}

func sourceName(kind SourceKind) string {
	switch kind {
	case ModuleWithTypeHints:
		return "module.ts"
	case ModuleWithTypeHintsAndMarkup:
		return "module.tsx"
	case ModuleWithMarkup:
		return "module.jsx"
	default:
		return "module.js"
	}
}

func formatParseErrors(parseErrors []errors.CompilerError) string {
	var sb strings.Builder
	sb.WriteString("Parse Errors:\n")
	for _, err := range parseErrors {
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}
