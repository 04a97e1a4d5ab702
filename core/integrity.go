package core

import (
	"io"
	"os"
	"strings"

	"github.com/smartystreets/logging"

	"github.com/smarty/upkeep/contracts"
)

type KnownGoodSource interface {
	contracts.FileOpener
	contracts.FileChecker
}

type IntegrityFileSystem interface {
	contracts.FileChecker
	contracts.FileCreator
}

// IntegrityChecker verifies the required-file manifest against the local tree
// and restores whatever is missing from a known-good source. It runs at every
// process start so an interrupted prior install self-heals before use.
type IntegrityChecker struct {
	logger *logging.Logger

	manifest []string
	local    IntegrityFileSystem
}

func NewIntegrityChecker(manifest []string, local IntegrityFileSystem) *IntegrityChecker {
	return &IntegrityChecker{manifest: manifest, local: local}
}

func (this *IntegrityChecker) Missing() (missing []string) {
	for _, path := range this.manifest {
		_, err := this.local.Stat(path)
		if os.IsNotExist(err) {
			missing = append(missing, path)
		}
	}
	return missing
}

func (this *IntegrityChecker) RestoreMissing(knownGood KnownGoodSource) (restored []string) {
	for _, path := range this.Missing() {
		err := this.restore(knownGood, path)
		if err != nil {
			this.logger.Printf("[WARN] could not restore %q: %s", path, err)
			continue
		}
		this.logger.Printf("Restored missing file: %q", path)
		restored = append(restored, path)
	}
	return restored
}

func (this *IntegrityChecker) restore(knownGood KnownGoodSource, path string) error {
	reader, err := knownGood.Open(path)
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
	return writer.Close()
}

// ParseRequiredFileManifest reads one required path per line, skipping blank
// lines and '#' comments.
func ParseRequiredFileManifest(raw []byte) (manifest []string) {
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		manifest = append(manifest, line)
	}
	return manifest
}
