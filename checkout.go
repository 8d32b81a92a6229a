package grit

import (
	"path"
	"path/filepath"

	"github.com/grit-scm/grit/ginternals"
	"github.com/grit-scm/grit/ginternals/object"
	"github.com/grit-scm/grit/ginternals/transport"
	"github.com/grit-scm/grit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
	"gopkg.in/ini.v1"
)

// writeRemoteRefs persists the refs advertised by a remote.
//
// The first advertised entry is the remote's HEAD tip. If another
// advertised ref points at the same oid, HEAD is written as a
// symbolic ref to it, which is how the default branch survives a
// clone. If nothing matches, HEAD ends up detached on the tip
func (r *Repository) writeRemoteRefs(refs []transport.Ref) error {
	if len(refs) == 0 {
		return xerrors.Errorf("empty ref list: %w", ginternals.ErrRefInvalid)
	}

	headTip := refs[0].ID
	headTarget := ""
	for i, ref := range refs {
		if err := r.dotGit.WriteReference(ginternals.NewReference(ref.Name, ref.ID)); err != nil {
			return xerrors.Errorf("could not write ref %s: %w", ref.Name, err)
		}
		if i > 0 && headTarget == "" && ref.ID == headTip {
			headTarget = ref.Name
		}
	}

	head := ginternals.NewReference(ginternals.Head, headTip)
	if headTarget != "" {
		head = ginternals.NewSymbolicReference(ginternals.Head, headTarget)
	}
	if err := r.dotGit.WriteReference(head); err != nil {
		return xerrors.Errorf("could not write HEAD: %w", err)
	}
	return nil
}

// CheckoutHead materializes the tree of the commit referenced by
// HEAD into the working tree. Existing files are overwritten
func (r *Repository) CheckoutHead() error {
	head, err := r.dotGit.Reference(ginternals.Head)
	if err != nil {
		return xerrors.Errorf("could not resolve HEAD: %w", err)
	}

	o, err := r.Object(head.Target())
	if err != nil {
		return xerrors.Errorf("could not read the commit targeted by HEAD: %w", err)
	}
	commit, err := o.AsCommit()
	if err != nil {
		return xerrors.Errorf("could not parse the commit targeted by HEAD: %w", err)
	}

	return r.materializeTree(commit.TreeID(), r.repoRoot)
}

// materializeTree writes the content of a tree at the given path,
// recursing into sub trees
func (r *Repository) materializeTree(treeID ginternals.Oid, dir string) error {
	o, err := r.Object(treeID)
	if err != nil {
		return xerrors.Errorf("could not read tree %s: %w", treeID.String(), err)
	}
	tree, err := o.AsTree()
	if err != nil {
		return xerrors.Errorf("could not parse tree %s: %w", treeID.String(), err)
	}

	for _, e := range tree.Entries() {
		target := filepath.Join(dir, e.Path)
		switch e.Mode.ObjectType() {
		case object.TypeTree:
			if err := r.wt.MkdirAll(target, 0o755); err != nil {
				return xerrors.Errorf("could not create directory %s: %w", target, err)
			}
			if err := r.materializeTree(e.ID, target); err != nil {
				return err
			}
		default:
			blob, err := r.Object(e.ID)
			if err != nil {
				return xerrors.Errorf("could not read blob %s: %w", e.ID.String(), err)
			}
			if err := afero.WriteFile(r.wt, target, blob.Bytes(), 0o644); err != nil {
				return xerrors.Errorf("could not write file %s: %w", target, err)
			}
		}
	}
	return nil
}

// writeConfig writes the .git/config of a freshly cloned repository:
// the core flags, the origin remote, and the tracking section of the
// branch HEAD points to
func (r *Repository) writeConfig(repoURL string) error {
	cfg := ini.Empty()

	core, err := cfg.NewSection("core")
	if err != nil {
		return xerrors.Errorf("could not create the core section: %w", err)
	}
	coreCfg := [][2]string{
		{"repositoryformatversion", "0"},
		{"filemode", "true"},
		{"bare", "false"},
		{"logallrefupdates", "true"},
	}
	for _, kv := range coreCfg {
		if _, err := core.NewKey(kv[0], kv[1]); err != nil {
			return xerrors.Errorf("could not set core.%s: %w", kv[0], err)
		}
	}

	remote, err := cfg.NewSection(`remote "origin"`)
	if err != nil {
		return xerrors.Errorf("could not create the remote section: %w", err)
	}
	if _, err := remote.NewKey("url", repoURL); err != nil {
		return xerrors.Errorf("could not set the remote url: %w", err)
	}
	if _, err := remote.NewKey("fetch", "+refs/heads/*:refs/remotes/origin/*"); err != nil {
		return xerrors.Errorf("could not set the remote fetchspec: %w", err)
	}

	// the branch section only exists when HEAD is symbolic
	head, err := r.dotGit.Reference(ginternals.Head)
	if err != nil {
		return xerrors.Errorf("could not resolve HEAD: %w", err)
	}
	if head.Type() == ginternals.SymbolicReference {
		branchName := path.Base(head.SymbolicTarget())
		branch, err := cfg.NewSection(`branch "` + branchName + `"`)
		if err != nil {
			return xerrors.Errorf("could not create the branch section: %w", err)
		}
		if _, err := branch.NewKey("remote", "origin"); err != nil {
			return xerrors.Errorf("could not set the branch remote: %w", err)
		}
		if _, err := branch.NewKey("merge", head.SymbolicTarget()); err != nil {
			return xerrors.Errorf("could not set the branch merge ref: %w", err)
		}
	}

	f, err := r.wt.Create(filepath.Join(r.dotGit.Root(), gitpath.ConfigPath))
	if err != nil {
		return xerrors.Errorf("could not create the config file: %w", err)
	}
	defer f.Close() //nolint:errcheck // WriteTo's error covers the write

	if _, err := cfg.WriteTo(f); err != nil {
		return xerrors.Errorf("could not write the config file: %w", err)
	}
	return nil
}
