package shell

import (
	"fmt"
	"os"

	"github.com/mholt/archiver"
	"github.com/smartystreets/logging"

	"github.com/smarty/upkeep/contracts"
)

// BaselineArchive is a known-good bundle shipped alongside the updater,
// used by the integrity checker when no snapshot is available and the
// remote cannot be reached.
type BaselineArchive struct {
	logger *logging.Logger

	path string
}

func NewBaselineArchive(path string) *BaselineArchive {
	return &BaselineArchive{path: path}
}

func (this *BaselineArchive) Available() bool {
	_, err := os.Stat(this.path)
	return err == nil
}

// Extract unpacks the baseline into a fresh temporary directory and returns it.
func (this *BaselineArchive) Extract() (string, error) {
	root, err := os.MkdirTemp("", "upkeep-baseline-")
	if err != nil {
		return "", err
	}
	err = archiver.Unarchive(this.path, root)
	if err != nil {
		_ = os.RemoveAll(root)
		return "", fmt.Errorf("%w: %s", contracts.ExtractionErr, err)
	}
	this.logger.Printf("Baseline %q extracted to %q", this.path, root)
	return root, nil
}
