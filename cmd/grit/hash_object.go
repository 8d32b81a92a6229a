package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/grit-scm/grit/ginternals/object"
	"github.com/spf13/cobra"
)

func newHashObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-object FILE",
		Short: "Compute object ID and create a blob from a file",
		Args:  cobra.ExactArgs(1),
	}

	write := cmd.Flags().BoolP("write", "w", false, "Actually write the object into the object database.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return hashObjectCmd(cmd.OutOrStdout(), args[0], *write)
	}

	return cmd
}

func hashObjectCmd(out io.Writer, filePath string, write bool) error {
	if !write {
		return errors.New("a -w option is required")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	r, err := loadRepository()
	if err != nil {
		return err
	}

	oid, err := r.WriteObject(object.New(object.TypeBlob, content))
	if err != nil {
		return err
	}

	fmt.Fprintln(out, oid.String())
	return nil
}
