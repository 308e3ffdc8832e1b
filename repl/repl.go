// SPDX-License-Identifier: Apache-2.0

// Package repl provides an interactive loop: paste a function declaration,
// terminate it with a blank line, and read the compiled output.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"memoc/compiler"
)

const prompt = ">> "

// Start runs the loop until the input is exhausted.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	var buffer strings.Builder

	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) != "" {
			buffer.WriteString(line)
			buffer.WriteString("\n")
			fmt.Fprint(out, ".. ")
			continue
		}

		source := buffer.String()
		buffer.Reset()
		if strings.TrimSpace(source) == "" {
			fmt.Fprint(out, prompt)
			continue
		}

		result, err := compiler.Compile(source, compiler.Module)
		if err != nil {
			fmt.Fprintf(out, "error: %s\n", err)
		} else {
			fmt.Fprint(out, result)
		}
		fmt.Fprint(out, prompt)
	}
}
