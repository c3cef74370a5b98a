package fsmodel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/enetx/g"
)

// DefaultCompiler is the RFSM compiler executable looked up in PATH.
const DefaultCompiler = "rfsmc"

// waitDelay bounds how long a killed compiler may keep its output pipes open.
const waitDelay = time.Second

// CompilerChecker checks fragments by running the RFSM compiler in its
// fragment checking mode. Each check writes the scope and the fragment to a
// temporary file and runs
//
//	<Path> <Args...> -check_fragment <file>
//
// A non-zero exit status is a rejection whose diagnostics are the lines the
// compiler printed.
type CompilerChecker struct {
	// Path of the compiler executable. Defaults to DefaultCompiler.
	Path string
	// Args are extra arguments placed before -check_fragment.
	Args []string
	// Timeout bounds each invocation. Zero means no bound beyond ctx.
	Timeout time.Duration
	// Dir is the working directory of the compiler process.
	Dir    string
	Logger *slog.Logger
}

func (c *CompilerChecker) CheckFragment(ctx context.Context, kind FragmentKind, text g.String, scope *Scope) error {
	file, err := c.writeFragment(kind, text, scope)
	if err != nil {
		return fmt.Errorf("fsmodel: fragment checker: %w", err)
	}
	defer os.Remove(file)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	path := c.Path
	if path == "" {
		path = DefaultCompiler
	}

	args := append(append([]string{}, c.Args...), "-check_fragment", file)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()

	c.logger().Debug("fragment checked",
		"kind", kind.String(),
		"fragment", text,
		"automaton", scope.Automaton,
		"elapsed", time.Since(start),
		"ok", err == nil,
	)

	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("fsmodel: fragment checker %s: %w", path, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Reject(diagnostics(stderr.String(), stdout.String())...)
	}

	return fmt.Errorf("fsmodel: fragment checker %s: %w", path, err)
}

func (c *CompilerChecker) writeFragment(kind FragmentKind, text g.String, scope *Scope) (string, error) {
	f, err := os.CreateTemp("", "fsmodel-fragment-*.fsm")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("-- context\n")
	b.WriteString(scope.Declarations())
	b.WriteString("-- fragment\n")
	fmt.Fprintf(&b, "%s %s;\n", kind, string(text))

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

func (c *CompilerChecker) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func diagnostics(outputs ...string) []string {
	var lines []string
	for _, out := range outputs {
		for _, line := range strings.Split(out, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}
