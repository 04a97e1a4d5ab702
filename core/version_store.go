package core

import (
	"strings"

	"github.com/smartystreets/logging"

	"github.com/smarty/upkeep/contracts"
)

type VersionStoreFileSystem interface {
	contracts.FileReader
	contracts.FileWriter
	contracts.Renamer
}

// VersionStore persists the revision currently installed. A missing or
// unparsable record reads as "", meaning never installed.
type VersionStore struct {
	logger *logging.Logger

	storage  VersionStoreFileSystem
	filename string
}

func NewVersionStore(storage VersionStoreFileSystem, filename string) *VersionStore {
	return &VersionStore{storage: storage, filename: filename}
}

func (this *VersionStore) ReadInstalledRevision() string {
	raw, err := this.storage.ReadFile(this.filename)
	if err != nil {
		return ""
	}
	revision := strings.TrimSpace(string(raw))
	if strings.ContainsAny(revision, " \t\r\n") {
		return ""
	}
	return revision
}

func (this *VersionStore) WriteInstalledRevision(revision string) error {
	temp := this.filename + ".tmp"
	err := this.storage.WriteFile(temp, []byte(revision+"\n"))
	if err != nil {
		return err
	}
	err = this.storage.Rename(temp, this.filename)
	if err != nil {
		return err
	}
	this.logger.Printf("Recorded installed revision: %s", revision)
	return nil
}
