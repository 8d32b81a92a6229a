package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	grit "github.com/grit-scm/grit"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty repository",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return initCmd(cmd.OutOrStdout())
	}

	return cmd
}

func initCmd(out io.Writer) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	r, err := grit.InitRepository(wd)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(filepath.Join(r.Root(), ".git"))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Initialized empty Git repository in %s/\n", abs)
	return nil
}
