package contracts

import (
	"errors"
	"fmt"
)

var (
	NetworkErr            = errors.New("network failure")
	NotFoundErr           = errors.New("remote reference not found")
	ProtocolErr           = errors.New("unexpected remote response")
	DownloadIncompleteErr = errors.New("download incomplete")
	ExtractionErr         = errors.New("archive extraction failure")
)

// FilesystemError records the failure of a single file operation.
// Failures are collected per path rather than aborting an installation.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (this *FilesystemError) Error() string {
	return fmt.Sprintf("%s %q: %s", this.Op, this.Path, this.Err)
}

func (this *FilesystemError) Unwrap() error {
	return this.Err
}
