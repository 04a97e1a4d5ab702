package shell

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/smarty/upkeep/contracts"
)

// DiskFileSystem exposes one directory tree through the file system contracts.
// All contract paths are slash-separated and relative to the root.
type DiskFileSystem struct{ root string }

func NewDiskFileSystem(root string) *DiskFileSystem {
	return &DiskFileSystem{root: filepath.Clean(root)}
}

func (this *DiskFileSystem) RootPath() string {
	return this.root
}

func (this *DiskFileSystem) resolve(path string) string {
	return filepath.Join(this.root, filepath.FromSlash(path))
}

func (this *DiskFileSystem) Listing() (listing []contracts.FileInfo, err error) {
	err = filepath.Walk(this.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == this.root {
			return nil
		}
		relative, err := filepath.Rel(this.root, path)
		if err != nil {
			return err
		}
		listing = append(listing, FileInfo{
			path: filepath.ToSlash(relative),
			size: info.Size(),
			mod:  info.ModTime(),
			mode: info.Mode(),
		})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (this *DiskFileSystem) Stat(path string) (contracts.FileInfo, error) {
	info, err := os.Stat(this.resolve(path))
	if err != nil {
		return nil, err
	}
	return FileInfo{path: path, size: info.Size(), mod: info.ModTime(), mode: info.Mode()}, nil
}

func (this *DiskFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(this.resolve(path))
}

func (this *DiskFileSystem) Create(path string) (io.WriteCloser, error) {
	full := this.resolve(path)
	err := os.MkdirAll(filepath.Dir(full), 0755)
	if err != nil {
		return nil, err
	}
	return os.Create(full)
}

func (this *DiskFileSystem) ReadFile(path string) ([]byte, error) {
	return ioutil.ReadFile(this.resolve(path))
}

func (this *DiskFileSystem) WriteFile(path string, content []byte) error {
	full := this.resolve(path)
	err := os.MkdirAll(filepath.Dir(full), 0755)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(full, content, 0644)
}

func (this *DiskFileSystem) Mkdir(path string) error {
	return os.MkdirAll(this.resolve(path), 0755)
}

// Delete removes the entry and prunes any directories the removal left empty,
// stopping at the root. An already-absent entry is not an error.
func (this *DiskFileSystem) Delete(path string) error {
	full := this.resolve(path)
	err := os.Remove(full)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for parent := filepath.Dir(full); parent != this.root; parent = filepath.Dir(parent) {
		if os.Remove(parent) != nil {
			break
		}
	}
	return nil
}

func (this *DiskFileSystem) Rename(oldPath, newPath string) error {
	return os.Rename(this.resolve(oldPath), this.resolve(newPath))
}

func (this *DiskFileSystem) Chmod(path string, mode os.FileMode) error {
	return os.Chmod(this.resolve(path), mode)
}

////////////////////////////////////////

type FileInfo struct {
	path string
	size int64
	mod  time.Time
	mode os.FileMode
}

func (this FileInfo) Path() string       { return this.path }
func (this FileInfo) Size() int64        { return this.size }
func (this FileInfo) ModTime() time.Time { return this.mod }
func (this FileInfo) Mode() os.FileMode  { return this.mode }
