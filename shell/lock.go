package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// RunLock serializes update cycles against one installation directory.
// The installer's file operations are not transactionally isolated, so
// overlapping runs are refused rather than interleaved.
type RunLock struct {
	path string
}

func NewRunLock(root, filename string) *RunLock {
	return &RunLock{path: filepath.Join(root, filename)}
}

func (this *RunLock) Acquire() error {
	file, err := os.OpenFile(this.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if os.IsExist(err) {
		return fmt.Errorf("another update cycle holds the lock at %q", this.path)
	}
	if err != nil {
		return err
	}
	_, _ = file.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	return file.Close()
}

func (this *RunLock) Release() {
	_ = os.Remove(this.path)
}
