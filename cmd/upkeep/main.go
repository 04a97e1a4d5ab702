package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/smarty/upkeep/contracts"
	"github.com/smarty/upkeep/core"
	"github.com/smarty/upkeep/shell"
)

const lockFilename = ".upkeep.lock"

// Exit codes: 0 means the host may launch as-is (up to date, or the check
// failed and the log has details); 3 means an update was installed and a
// restart of the host process is recommended.
func main() {
	log.SetFlags(log.LstdFlags)

	config, err := parseConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(run(config))
}

func run(config Config) int {
	logFile := attachLogFile(config)
	if logFile != nil {
		defer func() { _ = logFile.Close() }()
	}

	lock := shell.NewRunLock(config.Root, lockFilename)
	err := lock.Acquire()
	if err != nil {
		log.Printf("[WARN] %s", err)
		return 0
	}
	defer lock.Release()

	disk := shell.NewDiskFileSystem(config.Root)
	client := shell.NewHTTPClient()
	github := shell.NewGitHubClient(client, config.Update)

	archives := contracts.ArchiveDownloader(github)
	if config.Update.MirrorAddress != nil {
		parser := core.NewGoogleCredentialParser(shell.NewDiskFileSystem("/"), shell.NewEnvironment())
		credentials, err := parser.Parse()
		if err != nil {
			log.Printf("[WARN] Mirror configured but unusable: %s", err)
		} else {
			archives = shell.NewGoogleCloudStorageMirror(client, credentials, *config.Update.MirrorAddress.Value())
		}
	}
	remote := core.NewRetryClient(remoteRepository{
		RevisionResolver:  github,
		ArchiveDownloader: archives,
	}, config.MaxRetry)

	fetcher := shell.NewSnapshotFetcher(remote)
	versions := core.NewVersionStore(disk, config.Update.VersionFile)
	protected := contracts.NewProtectedPaths(append(config.Update.Protected,
		config.Update.VersionFile, config.Update.LogFile, lockFilename))

	restoreMissing(config, disk, github, remote, fetcher, versions)

	orchestrator := core.NewUpdateOrchestrator(
		config.Update,
		shell.NewEnvironment(),
		versions,
		remote,
		fetcher,
		disk,
		openDiskTree,
		protected,
	)
	if orchestrator.CheckForUpdates(nil, progressPrinter(config.Quiet)) {
		log.Print("Update installed; restart recommended.")
		return 3
	}
	return 0
}

// restoreMissing runs before any version check so a partially deleted or
// interrupted prior install self-heals even when the update check is skipped.
func restoreMissing(
	config Config,
	disk *shell.DiskFileSystem,
	raw contracts.RawFileDownloader,
	resolver contracts.RevisionResolver,
	fetcher contracts.SnapshotFetcher,
	versions *core.VersionStore,
) {
	manifest := loadRequiredFileManifest(config, disk, raw)
	if len(manifest) == 0 {
		return
	}
	checker := core.NewIntegrityChecker(manifest, disk)
	missing := checker.Missing()
	if len(missing) == 0 {
		return
	}
	log.Printf("[WARN] Missing required files: %v", missing)

	knownGood, cleanup := acquireKnownGood(config, resolver, fetcher, versions)
	if knownGood == nil {
		log.Print("[WARN] No known-good source available; missing files were not restored.")
		return
	}
	defer cleanup()

	restored := checker.RestoreMissing(knownGood)
	log.Printf("Restored %d of %d missing file(s).", len(restored), len(missing))
}

func loadRequiredFileManifest(config Config, disk *shell.DiskFileSystem, raw contracts.RawFileDownloader) []string {
	content, err := disk.ReadFile(config.Update.ManifestFile)
	if err != nil {
		content, err = raw.DownloadRaw(config.Update.ManifestFile)
	}
	if err != nil {
		log.Printf("[WARN] Could not load required-file manifest %q: %s", config.Update.ManifestFile, err)
		return nil
	}
	return core.ParseRequiredFileManifest(content)
}

func acquireKnownGood(
	config Config,
	resolver contracts.RevisionResolver,
	fetcher contracts.SnapshotFetcher,
	versions *core.VersionStore,
) (core.KnownGoodSource, func()) {
	baseline := shell.NewBaselineArchive(config.Baseline)
	if config.Baseline != "" && baseline.Available() {
		root, err := baseline.Extract()
		if err != nil {
			log.Printf("[WARN] Could not extract baseline: %s", err)
			return nil, nil
		}
		return shell.NewDiskFileSystem(root), func() { _ = os.RemoveAll(root) }
	}

	revision := versions.ReadInstalledRevision()
	if revision == "" {
		latest, err := resolver.ResolveLatest()
		if err != nil {
			log.Printf("[WARN] Could not resolve a known-good revision: %s", err)
			return nil, nil
		}
		revision = latest
	}
	snapshot, err := fetcher.FetchSnapshot(revision, nil)
	if err != nil {
		log.Printf("[WARN] Could not fetch a known-good snapshot: %s", err)
		return nil, nil
	}
	return shell.NewDiskFileSystem(snapshot.Root), func() { fetcher.Discard(snapshot) }
}

func openDiskTree(root string) core.SnapshotTree {
	return shell.NewDiskFileSystem(root)
}

func progressPrinter(quiet bool) contracts.ProgressFunc {
	if quiet {
		return nil
	}
	return func(progress contracts.UpdateProgress) {
		if progress.BytesDone == 0 && progress.BytesTotal < 0 {
			fmt.Printf("\033[2K\r%s...", progress.Phase)
			return
		}
		if progress.BytesTotal < 0 {
			fmt.Printf("\033[2K\r%s... %s.", progress.Phase, core.HumanFileSize(float64(progress.BytesDone)))
			return
		}
		fmt.Printf("\033[2K\r%s... %s of %s.", progress.Phase,
			core.HumanFileSize(float64(progress.BytesDone)),
			core.HumanFileSize(float64(progress.BytesTotal)))
	}
}

// attachLogFile mirrors every log line into the append-only log inside the
// installation root. Logging still reaches stderr when the file cannot open.
func attachLogFile(config Config) *os.File {
	path := filepath.Join(config.Root, filepath.FromSlash(config.Update.LogFile))
	logFile, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("[WARN] Could not open log file %q: %s", path, err)
		return nil
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return logFile
}

type remoteRepository struct {
	contracts.RevisionResolver
	contracts.ArchiveDownloader
}
