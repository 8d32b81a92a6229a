// Package gitpath contains consts to work with paths inside the .git
// directory
package gitpath

// .git/ files and directories
//
// The refs paths are kept in unix format since this is how they are
// stored on disk and how they travel over the wire. The backend is in
// charge of converting them to the current system when needed.
const (
	DotGitPath    = ".git"
	ConfigPath    = "config"
	HEADPath      = "HEAD"
	ObjectsPath   = "objects"
	RefsPath      = "refs"
	RefsHeadsPath = RefsPath + "/heads"
	RefsTagsPath  = RefsPath + "/tags"
)
