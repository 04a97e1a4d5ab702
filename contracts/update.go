package contracts

import "io"

type RevisionResolver interface {
	ResolveLatest() (revision string, err error)
}

type ArchiveDownloader interface {
	DownloadArchive(revision string) (body io.ReadCloser, length int64, err error)
}

type RawFileDownloader interface {
	DownloadRaw(path string) ([]byte, error)
}

type RemoteRepository interface {
	RevisionResolver
	ArchiveDownloader
}

// Snapshot is an extracted copy of the full remote tree at one revision.
// It lives in a temporary directory for the duration of a single update cycle.
type Snapshot struct {
	Revision string
	Root     string
}

type SnapshotFetcher interface {
	FetchSnapshot(revision string, progress ProgressFunc) (Snapshot, error)
	Discard(snapshot Snapshot)
}

// UpdatePlan classifies every relative path found in either the local tree or
// the snapshot. The three sets are disjoint and exclude protected paths.
type UpdatePlan struct {
	ToWrite   []string
	ToDelete  []string
	Unchanged []string
}

type UpdateProgress struct {
	Phase      string
	BytesDone  int64
	BytesTotal int64 // -1 when unknown
}

type ProgressFunc func(progress UpdateProgress)
