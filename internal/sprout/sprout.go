// Package sprout verifies runtime equivalence: it executes the original
// and the compiled source under a host interpreter and compares the
// JSON-serialized results of invoking the fixture entrypoint.
package sprout

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Result captures one verification run.
type Result struct {
	OriginalOutput string
	CompiledOutput string
	OriginalError  string
	CompiledError  string
	Passed         bool
}

// HostAvailable reports whether the node interpreter is on PATH.
func HostAvailable() bool {
	_, err := exec.LookPath("node")
	return err == nil
}

// runnerTemplate invokes FIXTURE_ENTRYPOINT.fn(...params) and prints a
// JSON result for comparison.
const runnerTemplate = `
%s

if (typeof FIXTURE_ENTRYPOINT !== 'undefined') {
    const { fn, params } = FIXTURE_ENTRYPOINT;
    try {
        const result = fn(...params);
        console.log(JSON.stringify({ success: true, result }));
    } catch (error) {
        console.log(JSON.stringify({ success: false, error: error.message }));
    }
} else {
    console.log(JSON.stringify({ success: false, error: "No FIXTURE_ENTRYPOINT defined" }));
}
`

// mockCache provides the _c cache and the sentinel the emitted code
// expects from the host runtime.
const mockCache = `function _c(size) { return new Array(size).fill(Symbol.for("react.memo_cache_sentinel")); }`

// ExtractEntrypoint pulls the FIXTURE_ENTRYPOINT declaration out of a
// fixture source so it can be appended to the compiled code.
func ExtractEntrypoint(source string) (string, bool) {
	start := strings.Index(source, "const FIXTURE_ENTRYPOINT")
	if start < 0 {
		return "", false
	}
	rest := source[start:]
	end := strings.Index(rest, "};")
	if end < 0 {
		return "", false
	}
	return rest[:end+2], true
}

// PrepareCompiled glues the cache mock, the compiled functions and the
// fixture entrypoint into one executable source.
func PrepareCompiled(compiledCode, entrypoint string) string {
	return fmt.Sprintf("%s\n%s\n\n%s", mockCache, compiledCode, entrypoint)
}

// Verify executes both sources and compares their trimmed outputs.
func Verify(originalCode, compiledCode string) (*Result, error) {
	originalOut, originalErr, err := executeJS(fmt.Sprintf(runnerTemplate, originalCode))
	if err != nil {
		return nil, err
	}
	compiledOut, compiledErr, err := executeJS(fmt.Sprintf(runnerTemplate, compiledCode))
	if err != nil {
		return nil, err
	}

	return &Result{
		OriginalOutput: originalOut,
		CompiledOutput: compiledOut,
		OriginalError:  originalErr,
		CompiledError:  compiledErr,
		Passed: strings.TrimSpace(originalOut) == strings.TrimSpace(compiledOut) &&
			originalErr == "" && compiledErr == "",
	}, nil
}

// executeJS writes the code to a temp file and runs it with node.
func executeJS(code string) (stdout, stderr string, err error) {
	file, err := os.CreateTemp("", "sprout-*.mjs")
	if err != nil {
		return "", "", err
	}
	defer os.Remove(file.Name())

	if _, err := file.WriteString(code); err != nil {
		file.Close()
		return "", "", err
	}
	if err := file.Close(); err != nil {
		return "", "", err
	}

	cmd := exec.Command("node", file.Name())
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			return "", "", err
		}
		return outBuf.String(), errBuf.String(), nil
	}
	return outBuf.String(), "", nil
}
