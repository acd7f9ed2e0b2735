package efs

import (
	"unicode/utf8"

	"github.com/bgrewell/sgidisk-kit/pkg/errs"
)

// DirectoryChild pairs a directory entry's inode number with its
// fully-read inode.
type DirectoryChild struct {
	InodeNumber uint64
	Inode       *Inode
}

// Directory is a fully resolved directory listing: the directory's own
// inode plus a name-keyed map of its children.
type Directory struct {
	Inode   *Inode
	Entries map[string]DirectoryChild
}

// ReadDirectory reads the directory listing rooted at the given inode
// number. The inode must be of type Directory. Every child name is
// validated as UTF-8; a non-UTF-8 name fails the whole listing rather
// than being silently dropped or lossily converted.
func (e *EFS) ReadDirectory(inodeNumber uint64) (*Directory, error) {
	dirInode, err := e.ReadInode(inodeNumber)
	if err != nil {
		return nil, err
	}
	if dirInode.Type != TypeDirectory {
		return nil, errs.Value("inode %d is not a directory (is %s)", inodeNumber, dirInode.Type)
	}

	entries := make(map[string]DirectoryChild)
	it := dirInode.Blocks()
	for {
		block, ok := it.Next()
		if !ok {
			break
		}

		if err := e.checkReadBlock(block, BlockSize); err != nil {
			return nil, err
		}
		raw, err := e.ReadBlock(block)
		if err != nil {
			return nil, err
		}
		dirBlock, err := unmarshalDirectoryBlock(raw)
		if err != nil {
			return nil, err
		}

		blockEntries, err := dirBlock.Entries()
		if err != nil {
			return nil, err
		}
		for _, entry := range blockEntries {
			if !utf8.Valid(entry.Name) {
				return nil, errs.Value("directory entry (inode %d, block %d) name is not valid UTF-8: % x", inodeNumber, block, entry.Name)
			}
			name := string(entry.Name)
			childInode, err := e.ReadInode(uint64(entry.Inode))
			if err != nil {
				return nil, err
			}
			entries[name] = DirectoryChild{InodeNumber: uint64(entry.Inode), Inode: childInode}
		}
	}

	return &Directory{Inode: dirInode, Entries: entries}, nil
}
