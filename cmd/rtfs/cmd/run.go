package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtfs-lang/rtfs/internal/errors"
)

var evalExpr string

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run an RTFS program",
	Long: `Execute an RTFS program from a file or inline expression.

Examples:
  rtfs run program.rtfs
  rtfs run -e "(+ 1 2)"
  rtfs run --strategy=ast --module-path=./lib program.rtfs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
}

func runScript(_ *cobra.Command, args []string) error {
	var src []byte
	var filename string

	switch {
	case evalExpr != "":
		src = []byte(evalExpr)
		filename = "<eval>"
	case len(args) == 1:
		filename = args[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		src = content
	default:
		return fmt.Errorf("either provide a file path or use -e for inline code")
	}

	p := newParser()
	forms, err := p.ParseProgram(src, filename)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	rt, err := buildRuntime()
	if err != nil {
		return err
	}

	result, report := rt.Evaluate(forms)
	if report != nil {
		return errors.Wrap(report)
	}

	if result != nil {
		fmt.Println(result.String())
	}
	return nil
}
