// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"memoc/compiler"
)

func main() {
	output := flag.String("o", "", "write compiled output to this file instead of stdout")
	strict := flag.Bool("strict", false, "treat recovered lowering errors as failures")
	verbosity := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: memoc-cli [-o out.js] [-strict] <file.js>...")
		os.Exit(1)
	}

	commonlog.Configure(*verbosity, nil)

	var compiled strings.Builder
	for _, path := range flag.Args() {
		source, err := os.ReadFile(path)
		if err != nil {
			color.Red("Failed to read %s: %s", path, err)
			os.Exit(1)
		}

		result, err := compiler.CompileWithOptions(string(source), kindFromPath(path), compiler.Options{
			StrictLowering: *strict,
		})
		if err != nil {
			color.Red("Failed to compile %s: %s", path, err)
			os.Exit(1)
		}
		if strings.HasPrefix(result, "Parse Errors:") {
			color.Red("%s", result)
			os.Exit(1)
		}

		compiled.WriteString(result)
	}

	if *output == "" {
		fmt.Print(compiled.String())
		return
	}

	if err := os.WriteFile(*output, []byte(compiled.String()), 0o644); err != nil {
		color.Red("Failed to write %s: %s", *output, err)
		os.Exit(1)
	}
	color.Green("✅ Wrote %s", *output)
}

func kindFromPath(path string) compiler.SourceKind {
	switch {
	case strings.HasSuffix(path, ".tsx"):
		return compiler.ModuleWithTypeHintsAndMarkup
	case strings.HasSuffix(path, ".ts"):
		return compiler.ModuleWithTypeHints
	case strings.HasSuffix(path, ".jsx"):
		return compiler.ModuleWithMarkup
	default:
		return compiler.Module
	}
}
