package contracts

import (
	"io"
	"os"
	"time"
)

// All paths are slash-separated and relative to the file system's root.

type PathLister interface {
	Listing() ([]FileInfo, error)
}

type FileOpener interface {
	Open(path string) (io.ReadCloser, error)
}

type FileCreator interface {
	Create(path string) (io.WriteCloser, error)
}

type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

type FileWriter interface {
	WriteFile(path string, content []byte) error
}

type DirectoryCreator interface {
	Mkdir(path string) error
}

type Deleter interface {
	Delete(path string) error
}

type FileChecker interface {
	Stat(path string) (FileInfo, error)
}

type Renamer interface {
	Rename(oldPath, newPath string) error
}

type Chmod interface {
	Chmod(path string, mode os.FileMode) error
}

type RootPath interface {
	RootPath() string
}

type FileSystem interface {
	PathLister
	FileOpener
	FileCreator
	FileReader
	FileWriter
	DirectoryCreator
	Deleter
	FileChecker
	Renamer
	Chmod
	RootPath
}

type FileInfo interface {
	Path() string
	Size() int64
	ModTime() time.Time
	Mode() os.FileMode
}

func IsExecutable(mode os.FileMode) bool {
	return mode.Perm()&0111 > 0
}
