package core

import (
	"bytes"
	"crypto/md5"
	"hash"
	"io"
	"sort"
	"strings"

	"github.com/smarty/upkeep/contracts"
)

type PlannerFileSystem interface {
	contracts.PathLister
	contracts.FileOpener
}

// UpdatePlanner classifies every path found in the local tree or the snapshot
// into write/delete/unchanged sets. Protected paths are excluded outright.
// Content equality is byte-for-byte via checksum; size differences short-circuit.
// Directories participate by existence alone.
type UpdatePlanner struct {
	local     PlannerFileSystem
	snapshot  PlannerFileSystem
	protected contracts.ProtectedPaths
	hasher    func() hash.Hash
}

func NewUpdatePlanner(local, snapshot PlannerFileSystem, protected contracts.ProtectedPaths) *UpdatePlanner {
	return &UpdatePlanner{
		local:     local,
		snapshot:  snapshot,
		protected: protected,
		hasher:    md5.New,
	}
}

func (this *UpdatePlanner) Plan() (plan contracts.UpdatePlan, err error) {
	localFiles, err := this.inventory(this.local)
	if err != nil {
		return plan, err
	}
	remoteFiles, err := this.inventory(this.snapshot)
	if err != nil {
		return plan, err
	}

	for path, remote := range remoteFiles {
		local, present := localFiles[path]
		if !present {
			plan.ToWrite = append(plan.ToWrite, path)
			continue
		}
		same, err := this.sameContent(path, local, remote)
		if err != nil {
			return contracts.UpdatePlan{}, err
		}
		if same {
			plan.Unchanged = append(plan.Unchanged, path)
		} else {
			plan.ToWrite = append(plan.ToWrite, path)
		}
	}
	for path := range localFiles {
		if _, present := remoteFiles[path]; !present {
			plan.ToDelete = append(plan.ToDelete, path)
		}
	}

	sort.Strings(plan.ToWrite)
	sort.Strings(plan.ToDelete)
	sort.Strings(plan.Unchanged)
	return plan, nil
}

func (this *UpdatePlanner) inventory(tree PlannerFileSystem) (map[string]contracts.FileInfo, error) {
	listing, err := tree.Listing()
	if err != nil {
		return nil, err
	}
	files := make(map[string]contracts.FileInfo, len(listing))
	for _, file := range listing {
		if this.excluded(file.Path()) {
			continue
		}
		files[file.Path()] = file
	}
	return files, nil
}

func (this *UpdatePlanner) excluded(path string) bool {
	return this.protected.Contains(path) || isAuxiliary(path)
}

func (this *UpdatePlanner) sameContent(path string, local, remote contracts.FileInfo) (bool, error) {
	if local.Mode().IsDir() || remote.Mode().IsDir() {
		// Directories compare by existence alone.
		return local.Mode().IsDir() == remote.Mode().IsDir(), nil
	}
	if local.Size() != remote.Size() {
		return false, nil
	}
	localSum, err := this.checksum(this.local, path)
	if err != nil {
		return false, nil // unreadable locally, rewrite it
	}
	remoteSum, err := this.checksum(this.snapshot, path)
	if err != nil {
		return false, err
	}
	return bytes.Equal(localSum, remoteSum), nil
}

func (this *UpdatePlanner) checksum(tree contracts.FileOpener, path string) ([]byte, error) {
	reader, err := tree.Open(path)
	if err != nil {
		return nil, err
	}
	defer closeResource(reader)
	hasher := this.hasher()
	_, err = io.Copy(hasher, reader)
	if err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}

// isAuxiliary reports cache artifacts that never participate in an update.
func isAuxiliary(path string) bool {
	if strings.HasSuffix(path, ".pyc") {
		return true
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "__pycache__" {
			return true
		}
	}
	return false
}
