package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rtfs-lang/rtfs/internal/replcli"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive RTFS session",
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(_ *cobra.Command, _ []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	r := replcli.New(rt, Version)
	r.Start(os.Stdout)
	return nil
}
