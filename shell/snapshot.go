package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/smartystreets/logging"

	"github.com/smarty/upkeep/contracts"
	"github.com/smarty/upkeep/core"
)

// SnapshotFetcher downloads the revision archive to a temporary file and
// extracts it into a fresh temporary directory, reporting byte progress
// through the caller's callback. The single top-level directory hosting
// providers wrap archives in is stripped.
type SnapshotFetcher struct {
	logger *logging.Logger

	archives contracts.ArchiveDownloader
}

func NewSnapshotFetcher(archives contracts.ArchiveDownloader) *SnapshotFetcher {
	return &SnapshotFetcher{archives: archives}
}

func (this *SnapshotFetcher) FetchSnapshot(revision string, progress contracts.ProgressFunc) (contracts.Snapshot, error) {
	body, length, err := this.archives.DownloadArchive(revision)
	if err != nil {
		return contracts.Snapshot{}, err
	}
	defer func() { _ = body.Close() }()

	archive, size, err := this.downloadToTemp(body, length, progress)
	if err != nil {
		return contracts.Snapshot{}, err
	}
	defer func() {
		_ = archive.Close()
		_ = os.Remove(archive.Name())
	}()

	if length >= 0 && size != length {
		return contracts.Snapshot{}, fmt.Errorf("%w: received %d of %d bytes",
			contracts.DownloadIncompleteErr, size, length)
	}

	root, err := this.extract(archive, size)
	if err != nil {
		return contracts.Snapshot{}, err
	}
	this.logger.Printf("Snapshot of revision %q extracted to %q", revision, root)
	return contracts.Snapshot{Revision: revision, Root: root}, nil
}

func (this *SnapshotFetcher) Discard(snapshot contracts.Snapshot) {
	if snapshot.Root == "" {
		return
	}
	err := os.RemoveAll(snapshot.Root)
	if err != nil {
		this.logger.Printf("[WARN] could not discard snapshot at %q: %s", snapshot.Root, err)
		return
	}
	this.logger.Printf("Discarded snapshot at %q", snapshot.Root)
}

func (this *SnapshotFetcher) downloadToTemp(body io.Reader, length int64, progress contracts.ProgressFunc) (*os.File, int64, error) {
	temp, err := os.CreateTemp("", "upkeep-*.zip")
	if err != nil {
		return nil, 0, err
	}
	counter := core.NewProgressCounter("Downloading", length, progress)
	size, err := streamArchive(temp, counter, body)
	_ = counter.Close()
	if err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return nil, 0, err
	}
	return temp, size, nil
}

// streamArchive keeps remote read failures (retryable) distinct from local
// write failures (not retryable).
func streamArchive(archive, counter io.Writer, body io.Reader) (int64, error) {
	tracked := &failureTrackingWriter{Writer: archive}
	size, err := io.Copy(io.MultiWriter(tracked, counter), body)
	if tracked.err != nil {
		return size, fmt.Errorf("%w: local write: %s", contracts.DownloadIncompleteErr, tracked.err)
	}
	if err != nil {
		return size, fmt.Errorf("%w: %s", contracts.NetworkErr, err)
	}
	return size, nil
}

type failureTrackingWriter struct {
	io.Writer
	err error
}

func (this *failureTrackingWriter) Write(p []byte) (n int, err error) {
	n, err = this.Writer.Write(p)
	if err != nil {
		this.err = err
	}
	return n, err
}

func (this *SnapshotFetcher) extract(archive *os.File, size int64) (string, error) {
	reader, err := zip.NewReader(archive, size)
	if err != nil {
		return "", fmt.Errorf("%w: %s", contracts.ExtractionErr, err)
	}
	root, err := os.MkdirTemp("", "upkeep-snapshot-")
	if err != nil {
		return "", err
	}
	for _, entry := range reader.File {
		err = this.extractEntry(entry, root)
		if err != nil {
			_ = os.RemoveAll(root)
			return "", fmt.Errorf("%w: %q: %s", contracts.ExtractionErr, entry.Name, err)
		}
	}
	return root, nil
}

func (this *SnapshotFetcher) extractEntry(entry *zip.File, root string) error {
	relative, ok := stripTopLevel(entry.Name)
	if !ok {
		return nil
	}
	directory := strings.HasSuffix(relative, "/")
	relative = strings.TrimSuffix(relative, "/")
	if !filepath.IsLocal(filepath.FromSlash(relative)) {
		return fmt.Errorf("entry escapes the extraction root")
	}
	destination := filepath.Join(root, filepath.FromSlash(relative))
	if directory {
		return os.MkdirAll(destination, 0755)
	}
	err := os.MkdirAll(filepath.Dir(destination), 0755)
	if err != nil {
		return err
	}
	source, err := entry.Open()
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()
	mode := os.FileMode(0644)
	if contracts.IsExecutable(entry.Mode()) {
		mode = 0755
	}
	target, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	_, err = io.Copy(target, source)
	if err != nil {
		_ = target.Close()
		return err
	}
	return target.Close()
}

// stripTopLevel drops the "repository-revision/" prefix from an archive entry.
func stripTopLevel(name string) (string, bool) {
	parts := strings.SplitN(name, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
