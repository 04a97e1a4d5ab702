package fs

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"time"

	"github.com/smarty/upkeep/contracts"
)

// InMemoryFileSystem implements contracts.FileSystem over a map for tests.
// Error injection maps allow specific paths to fail specific operations.
type InMemoryFileSystem struct {
	fileSystem map[string]*file
	Root       string

	ErrOpen   map[string]error
	ErrCreate map[string]error
	ErrDelete map[string]error
	ErrWrite  map[string]error
	ErrRename map[string]error
}

func NewInMemoryFileSystem() *InMemoryFileSystem {
	return &InMemoryFileSystem{
		fileSystem: make(map[string]*file),
		ErrOpen:    make(map[string]error),
		ErrCreate:  make(map[string]error),
		ErrDelete:  make(map[string]error),
		ErrWrite:   make(map[string]error),
		ErrRename:  make(map[string]error),
	}
}

func (this *InMemoryFileSystem) RootPath() string {
	return this.Root
}

func (this *InMemoryFileSystem) Listing() (files []contracts.FileInfo, err error) {
	for _, item := range this.fileSystem {
		files = append(files, item)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path() < files[j].Path() })
	return files, nil
}

func (this *InMemoryFileSystem) Stat(path string) (contracts.FileInfo, error) {
	item, found := this.fileSystem[path]
	if !found {
		return nil, os.ErrNotExist
	}
	return item, nil
}

func (this *InMemoryFileSystem) Open(path string) (io.ReadCloser, error) {
	if err := this.ErrOpen[path]; err != nil {
		return nil, err
	}
	item, found := this.fileSystem[path]
	if !found {
		return nil, os.ErrNotExist
	}
	return ioutil.NopCloser(bytes.NewReader(item.contents)), nil
}

func (this *InMemoryFileSystem) Create(path string) (io.WriteCloser, error) {
	if err := this.ErrCreate[path]; err != nil {
		return nil, err
	}
	this.fileSystem[path] = &file{path: path, mod: InMemoryModTime, mode: 0644}
	return this.fileSystem[path], nil
}

func (this *InMemoryFileSystem) ReadFile(path string) ([]byte, error) {
	item, found := this.fileSystem[path]
	if !found {
		return nil, os.ErrNotExist
	}
	return item.contents, nil
}

func (this *InMemoryFileSystem) WriteFile(path string, content []byte) error {
	if err := this.ErrWrite[path]; err != nil {
		return err
	}
	this.fileSystem[path] = &file{path: path, contents: content, mod: InMemoryModTime, mode: 0644}
	return nil
}

func (this *InMemoryFileSystem) Mkdir(path string) error {
	this.fileSystem[path] = &file{path: path, mod: InMemoryModTime, mode: os.ModeDir | 0755}
	return nil
}

func (this *InMemoryFileSystem) Delete(path string) error {
	if err := this.ErrDelete[path]; err != nil {
		return err
	}
	delete(this.fileSystem, path)
	return nil
}

func (this *InMemoryFileSystem) Rename(oldPath, newPath string) error {
	if err := this.ErrRename[oldPath]; err != nil {
		return err
	}
	item, found := this.fileSystem[oldPath]
	if !found {
		return os.ErrNotExist
	}
	item.path = newPath
	this.fileSystem[newPath] = item
	delete(this.fileSystem, oldPath)
	return nil
}

func (this *InMemoryFileSystem) Chmod(path string, mode os.FileMode) error {
	item, found := this.fileSystem[path]
	if !found {
		return os.ErrNotExist
	}
	item.mode = mode
	return nil
}

func (this *InMemoryFileSystem) Exists(path string) bool {
	_, found := this.fileSystem[path]
	return found
}

func (this *InMemoryFileSystem) Paths() (paths []string) {
	for path := range this.fileSystem {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (this *InMemoryFileSystem) ModePerm(path string) os.FileMode {
	return this.fileSystem[path].mode
}

func (this *InMemoryFileSystem) SetMode(path string, mode os.FileMode) {
	this.fileSystem[path].mode = mode
}

/////////////////////////////////////////////////

type file struct {
	path     string
	contents []byte
	mod      time.Time
	mode     os.FileMode
}

var InMemoryModTime = time.Now()

func (this *file) Path() string       { return this.path }
func (this *file) Size() int64        { return int64(len(this.contents)) }
func (this *file) ModTime() time.Time { return this.mod }
func (this *file) Mode() os.FileMode  { return this.mode }

func (this *file) Write(p []byte) (n int, err error) {
	this.contents = append(this.contents, p...)
	return len(p), nil
}

func (this *file) Close() error { return nil }
