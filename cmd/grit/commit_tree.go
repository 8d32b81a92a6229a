package main

import (
	"fmt"
	"io"

	grit "github.com/grit-scm/grit"
	"github.com/grit-scm/grit/ginternals"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newCommitTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit-tree TREE",
		Short: "Create a commit object from a tree",
		Args:  cobra.ExactArgs(1),
	}

	parent := cmd.Flags().StringP("parent", "p", "", "SHA of the parent commit, if any.")
	message := cmd.Flags().StringP("message", "m", "", "Commit message.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return commitTreeCmd(cmd.OutOrStdout(), args[0], *parent, *message)
	}
	return cmd
}

func commitTreeCmd(out io.Writer, treeName, parentName, message string) error {
	r, err := loadRepository()
	if err != nil {
		return err
	}

	treeID, err := ginternals.NewOidFromStr(treeName)
	if err != nil {
		return xerrors.Errorf("not a valid tree name %s: %w", treeName, err)
	}

	opts := grit.CommitOptions{}
	if parentName != "" {
		parentID, err := ginternals.NewOidFromStr(parentName)
		if err != nil {
			return xerrors.Errorf("not a valid parent name %s: %w", parentName, err)
		}
		opts.ParentIDs = []ginternals.Oid{parentID}
	}

	c, err := r.CommitTree(treeID, message, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, c.ID().String())
	return nil
}
