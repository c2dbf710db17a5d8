package output

import (
	"path/filepath"

	"github.com/disiqueira/gotree/v3"
)

// VisualFileTree renders relative paths below a labelled root as an ASCII tree.
// Intermediate directories are created on demand, a directory inserted explicitly keeps its annotated label.
type VisualFileTree struct {
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

func NewVisualFileTree(rootLabel string) VisualFileTree {
	return VisualFileTree{tree: gotree.New(rootLabel), dirs: make(map[string]gotree.Tree)}
}

func (t VisualFileTree) getDir(dirPath string, label string) (dir gotree.Tree) {
	if dirPath == "." {
		return t.tree
	}
	dir = t.dirs[dirPath]
	if dir == nil {
		if label == "" {
			label = filepath.Base(dirPath)
		}
		parentDir := t.getDir(filepath.Dir(dirPath), "")
		dir = parentDir.Add(label)
		t.dirs[dirPath] = dir
	}
	return
}

// InsertPath adds a file node labelled with its base name and the given suffix.
func (t VisualFileTree) InsertPath(filePath string, nodeSuffix string) {
	dir := t.getDir(filepath.Dir(filePath), "")
	dir.Add(filepath.Base(filePath) + nodeSuffix)
}

// InsertDir adds a directory node labelled with its base name and the given suffix.
// It must be inserted before anything below it to keep the suffix.
func (t VisualFileTree) InsertDir(dirPath string, nodeSuffix string) {
	if filepath.Clean(dirPath) == "." {
		return
	}
	t.getDir(filepath.Clean(dirPath), filepath.Base(dirPath)+nodeSuffix)
}

func (t VisualFileTree) Render() string {
	return t.tree.Print()
}
