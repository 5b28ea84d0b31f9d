package store

import (
	"path/filepath"

	"github.com/nvandessel/epigraph/internal/constants"
)

// DBFile is the run store's file name inside the .epigraph directory.
const DBFile = "runs.db"

// LocalPath returns the path to the local .epigraph directory
// for the given project root.
func LocalPath(projectRoot string) string {
	return filepath.Join(projectRoot, constants.DirName)
}
