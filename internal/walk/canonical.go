package walk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
)

const maxSymlinkHops = 255

const separator = string(filepath.Separator)

// Canonical resolves every symbolic link of an absolute path, component by component.
func Canonical(fs billy.Filesystem, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("path is not absolute: %s", path)
	}
	resolved := separator
	remaining := splitComponents(path)
	hops := 0
	for len(remaining) > 0 {
		name := remaining[0]
		remaining = remaining[1:]
		switch name {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}
		next := filepath.Join(resolved, name)
		info, err := fs.Lstat(next)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			resolved = next
			continue
		}
		if hops++; hops > maxSymlinkHops {
			return "", fmt.Errorf("too many levels of symbolic links: %s", path)
		}
		target, err := fs.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			resolved = separator
		}
		remaining = append(splitComponents(target), remaining...)
	}
	return resolved, nil
}

func splitComponents(path string) []string {
	return strings.Split(strings.Trim(path, separator), separator)
}
