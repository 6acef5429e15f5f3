package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const maxLinkHops = 40

// BuildLocal walks every file under root, with no depth limit, and returns
// them keyed by their relative path. Local items carry no fingerprint.
//
// A root that is a symlink is resolved first. Symlinked files are recorded
// with the size and modification time of their target; links to directories
// and dangling links are skipped.
func BuildLocal(ctx context.Context, fsys billy.Filesystem, root string, excludes []string) (*Inventory, error) {
	walkRoot, err := resolveLink(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	inv := New()

	err = util.Walk(fsys, walkRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := fsys.Stat(path)
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			if err != nil {
				return err
			}
			info = target
		}

		if info.IsDir() {
			return nil
		}

		rel, err := LocalRelativePath(walkRoot, path)
		if err != nil {
			return err
		}

		excluded, err := IsExcluded(rel, excludes)
		if err != nil {
			return fmt.Errorf("check exclude pattern for %s: %w", rel, err)
		}
		if excluded {
			return nil
		}

		inv.Add(Item{
			RelativePath: rel,
			Source:       path,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return inv, nil
}

// resolveLink follows path while it is a symlink and returns the first
// non-link path.
func resolveLink(fsys billy.Filesystem, path string) (string, error) {
	for range maxLinkHops {
		info, err := fsys.Lstat(path)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}

		target, err := fsys.Readlink(path)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = target
	}
	return "", fmt.Errorf("%s: too many levels of symbolic links", path)
}
