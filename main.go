// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"memoc/compiler"
	"memoc/repl"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: memoc <file.js> | memoc -repl")
		os.Exit(1)
	}

	if os.Args[1] == "-repl" {
		repl.Start(os.Stdin, os.Stdout)
		return
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	output, err := compiler.DebugIR(string(source), kindFromPath(path))
	if err != nil {
		color.Red("Compilation failed: %s", err)
		os.Exit(1)
	}

	fmt.Print(output)
	color.Green("✅ Successfully processed %s", path)
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
