package efs

import (
	"strings"

	"github.com/bgrewell/sgidisk-kit/pkg/errs"
)

// ResolvePath walks a '/'-separated path from the partition's root
// directory (inode RootInode) and returns the inode it names. An
// empty path, or "/", resolves to the root directory itself.
func (e *EFS) ResolvePath(path string) (uint64, *Inode, error) {
	segments := splitPath(path)

	inodeNumber := uint64(RootInode)
	inode, err := e.ReadInode(inodeNumber)
	if err != nil {
		return 0, nil, err
	}

	for i, segment := range segments {
		if inode.Type != TypeDirectory {
			return 0, nil, errs.Value("path segment %q: %q is not a directory", segment, strings.Join(segments[:i], "/"))
		}
		dir, err := e.ReadDirectory(inodeNumber)
		if err != nil {
			return 0, nil, err
		}
		child, ok := dir.Entries[segment]
		if !ok {
			return 0, nil, errs.Value("path segment %q not found", segment)
		}
		inodeNumber = child.InodeNumber
		inode = child.Inode
	}

	return inodeNumber, inode, nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
