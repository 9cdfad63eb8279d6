package render

import (
	"path/filepath"

	"github.com/KisaragiIchigo/MovieAutoCutter/pkg/util"
)

// outputSubdir is the folder created beside the source for results.
const outputSubdir = "[MovieAutoCutter]"

// OutputPath returns a collision-avoided destination for the processed
// copy of source: a fixed subfolder next to the source, with _1, _2, ...
// suffixing when a same-named file already exists. Never overwrites.
func OutputPath(source string) (string, error) {
	dir := filepath.Dir(source)
	editedDir := filepath.Join(dir, outputSubdir)
	if err := util.EnsureDir(editedDir); err != nil {
		return "", err
	}
	name := util.UniqueFilename(editedDir, filepath.Base(source))
	return filepath.Join(editedDir, name), nil
}
