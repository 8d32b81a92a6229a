package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/grit-scm/grit/ginternals"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newLsTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls-tree TREE",
		Short: "List the contents of a tree object",
		Args:  cobra.ExactArgs(1),
	}

	nameOnly := cmd.Flags().Bool("name-only", false, "List only filenames, one per line.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return lsTreeCmd(cmd.OutOrStdout(), args[0], *nameOnly)
	}
	return cmd
}

func lsTreeCmd(out io.Writer, objectName string, nameOnly bool) error {
	if !nameOnly {
		return errors.New("a --name-only option is required")
	}

	r, err := loadRepository()
	if err != nil {
		return err
	}

	oid, err := ginternals.NewOidFromStr(objectName)
	if err != nil {
		return xerrors.Errorf("not a valid object name %s: %w", objectName, err)
	}

	o, err := r.Object(oid)
	if err != nil {
		return err
	}
	tree, err := o.AsTree()
	if err != nil {
		return err
	}

	for _, e := range tree.Entries() {
		fmt.Fprintln(out, e.Path)
	}
	return nil
}
