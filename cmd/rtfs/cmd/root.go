package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "rtfs",
	Short: "RTFS expression language compiler and runtime",
	Long: `rtfs is a Go implementation of the RTFS expression language.

RTFS is a homoiconic, Lisp-family expression language with:
  - A typed intermediate representation and an optimizing pipeline
  - Structured concurrency via parallel bindings
  - Scoped resource lifecycles via with-resource
  - A file-based module system with qualified symbol resolution`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&strategyFlag, "strategy", "ir", "execution strategy: ast, ir, or ir-fallback")
	rootCmd.PersistentFlags().StringArrayVar(&modulePathFlag, "module-path", nil, "module search root (repeatable)")
	rootCmd.PersistentFlags().StringVar(&optimizeFlag, "optimize", "basic", "optimization level: none, basic, or aggressive")
}

var (
	strategyFlag   string
	modulePathFlag []string
	optimizeFlag   string
)
