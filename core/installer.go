package core

import (
	"io"

	"github.com/smartystreets/logging"

	"github.com/smarty/upkeep/contracts"
)

type InstallerFileSystem interface {
	contracts.FileCreator
	contracts.DirectoryCreator
	contracts.Deleter
	contracts.Chmod
}

type InstallerSnapshotFileSystem interface {
	contracts.FileOpener
	contracts.FileChecker
}

// Installer applies an update plan to the live installation directory.
// All writes happen before any deletes so that an interruption leaves the
// smallest possible window with required files absent. Per-path failures are
// collected and reported; the remaining plan still runs.
type Installer struct {
	logger *logging.Logger

	local     InstallerFileSystem
	snapshot  InstallerSnapshotFileSystem
	protected contracts.ProtectedPaths
}

func NewInstaller(local InstallerFileSystem, snapshot InstallerSnapshotFileSystem, protected contracts.ProtectedPaths) *Installer {
	return &Installer{local: local, snapshot: snapshot, protected: protected}
}

func (this *Installer) Apply(plan contracts.UpdatePlan) (failures []contracts.FilesystemError) {
	for _, path := range plan.ToWrite {
		if this.refused("write", path) {
			continue
		}
		err := this.write(path)
		if err != nil {
			this.logger.Printf("[WARN] write failed for %q: %s", path, err)
			failures = append(failures, contracts.FilesystemError{Op: "write", Path: path, Err: err})
			continue
		}
		this.logger.Printf("Wrote %q", path)
	}
	// Deletes run children-first so emptied directories can be removed.
	for x := len(plan.ToDelete) - 1; x >= 0; x-- {
		path := plan.ToDelete[x]
		if this.refused("delete", path) {
			continue
		}
		err := this.local.Delete(path)
		if err != nil {
			this.logger.Printf("[WARN] delete failed for %q: %s", path, err)
			failures = append(failures, contracts.FilesystemError{Op: "delete", Path: path, Err: err})
			continue
		}
		this.logger.Printf("Deleted %q", path)
	}
	return failures
}

// refused re-checks the plan's protected invariant before any destructive action.
func (this *Installer) refused(operation, path string) bool {
	if !this.protected.Contains(path) {
		return false
	}
	this.logger.Printf("[WARN] refusing to %s protected path %q", operation, path)
	return true
}

func (this *Installer) write(path string) error {
	info, err := this.snapshot.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().IsDir() {
		return this.local.Mkdir(path)
	}
	reader, err := this.snapshot.Open(path)
	if err != nil {
		return err
	}
	defer closeResource(reader)
	writer, err := this.local.Create(path)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, reader)
	if err != nil {
		_ = writer.Close()
		return err
	}
	err = writer.Close()
	if err != nil {
		return err
	}
	if contracts.IsExecutable(info.Mode()) {
		return this.local.Chmod(path, 0755)
	}
	return nil
}
