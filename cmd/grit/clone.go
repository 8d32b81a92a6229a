package main

import (
	"fmt"
	"io"

	grit "github.com/grit-scm/grit"
	"github.com/spf13/cobra"
)

func newCloneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone URL [directory]",
		Short: "Clone a repository over smart HTTP into a new directory",
		Args:  cobra.RangeArgs(1, 2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 1 {
			dir = args[1]
		}
		return cloneCmd(cmd.OutOrStdout(), args[0], dir)
	}
	return cmd
}

func cloneCmd(out io.Writer, repoURL, dir string) error {
	if dir == "" {
		dir = grit.DefaultCloneDirectory(repoURL)
	}

	fmt.Fprintf(out, "Cloning into '%s'...\n", dir)
	if _, err := grit.Clone(repoURL, dir); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cloned %s into '%s'\n", repoURL, dir)
	return nil
}
