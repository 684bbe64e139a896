// Package replcli implements the interactive read-eval-print loop for the
// rtfs CLI: line editing and history via peterh/liner, colored output via
// fatih/color, driving an internal/runtime.Runtime the same way the CLI's
// run command does.
package replcli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/parser"
	"github.com/rtfs-lang/rtfs/internal/runtime"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

// REPL drives one interactive session against a Runtime.
type REPL struct {
	rt      *runtime.Runtime
	parser  *parser.Parser
	version string
	history []string
}

// New constructs a REPL over an already-configured Runtime.
func New(rt *runtime.Runtime, version string) *REPL {
	if version == "" {
		version = "dev"
	}
	return &REPL{rt: rt, parser: parser.New(), version: version}
}

// Start runs the prompt loop until EOF or :quit. Line history persists to a
// file in the user's temp directory across sessions.
func (r *REPL) Start(out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	historyFile := filepath.Join(os.TempDir(), ".rtfs_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(func(s string) (c []string) {
		if strings.HasPrefix(s, ":") {
			for _, cmd := range []string{":help", ":quit", ":reset"} {
				if strings.HasPrefix(cmd, s) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	fmt.Fprintf(out, "%s %s\n", bold("rtfs"), bold(r.version))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit"))
	fmt.Fprintln(out)

	for {
		input, err := line.Prompt("rtfs> ")
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)
		r.history = append(r.history, input)

		if strings.HasPrefix(input, ":") {
			if r.handleCommand(input, out) {
				break
			}
			continue
		}

		r.evalOne(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

// handleCommand runs a leading-colon REPL command. It returns true when the
// session should end.
func (r *REPL) handleCommand(input string, out io.Writer) bool {
	switch {
	case input == ":quit" || input == ":q" || input == ":exit":
		fmt.Fprintln(out, green("Goodbye!"))
		return true
	case input == ":help":
		fmt.Fprintln(out, dim(":quit, :q, :exit   end the session"))
		fmt.Fprintln(out, dim(":history           show entered forms"))
		fmt.Fprintln(out, dim(":reset             no-op: the root environment is kept"))
		return false
	case input == ":history":
		for i, h := range r.history {
			fmt.Fprintf(out, "%3d  %s\n", i+1, h)
		}
		return false
	case input == ":reset":
		fmt.Fprintln(out, dim("(no-op: the runtime's root environment is shared across the process)"))
		return false
	default:
		fmt.Fprintf(out, "%s: unknown command %q\n", red("Error"), input)
		return false
	}
}

func (r *REPL) evalOne(input string, out io.Writer) {
	forms, err := r.parser.ParseProgram([]byte(input), "<repl>")
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("parse error"), err)
		return
	}
	result, report := r.rt.Evaluate(forms)
	if report != nil {
		fmt.Fprintf(out, "%s: %v\n", red("error"), errors.Wrap(report))
		return
	}
	if result != nil {
		fmt.Fprintln(out, result.String())
	}
}
