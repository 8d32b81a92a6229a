package main

import (
	"errors"
	"io"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newCatFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat-file OBJECT",
		Short: "Provide content information for repository objects",
		Args:  cobra.ExactArgs(1),
	}

	prettyPrint := cmd.Flags().BoolP("p", "p", false, "Pretty-print the contents of <object> based on its type.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return catFileCmd(cmd.OutOrStdout(), args[0], *prettyPrint)
	}
	return cmd
}

func catFileCmd(out io.Writer, objectName string, prettyPrint bool) error {
	if !prettyPrint {
		return errors.New("a -p option is required")
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

	switch o.Type() {
	case object.TypeBlob, object.TypeCommit:
		if _, err := out.Write(o.Bytes()); err != nil {
			return err
		}
		return nil
	default:
		return xerrors.Errorf("pretty-print not supported for type %s", o.Type().String())
	}
}
