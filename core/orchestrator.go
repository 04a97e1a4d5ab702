package core

import (
	"github.com/smartystreets/logging"

	"github.com/smarty/upkeep/contracts"
)

// SkipEnvVar short-circuits the version check when set, for launchers that
// have already run the updater in this session.
const SkipEnvVar = "UPKEEP_SKIP"

type UpdateState int

const (
	StateIdle UpdateState = iota
	StateCheckingVersion
	StateUpToDate
	StateDownloading
	StatePlanning
	StateInstalling
	StateFinalizing
	StateDone
	StateError
)

func (this UpdateState) String() string {
	switch this {
	case StateIdle:
		return "Idle"
	case StateCheckingVersion:
		return "CheckingVersion"
	case StateUpToDate:
		return "UpToDate"
	case StateDownloading:
		return "Downloading"
	case StatePlanning:
		return "Planning"
	case StateInstalling:
		return "Installing"
	case StateFinalizing:
		return "Finalizing"
	case StateDone:
		return "Done"
	default:
		return "Error"
	}
}

type SnapshotTree interface {
	contracts.PathLister
	contracts.FileOpener
	contracts.FileChecker
}

// UpdateOrchestrator sequences one update cycle: read the installed revision,
// resolve the latest remote revision, and when they differ download, plan,
// install, and finalize. Failures never propagate to the caller as errors; the
// host application must always be able to launch.
type UpdateOrchestrator struct {
	logger *logging.Logger

	config      contracts.UpdateConfig
	environment contracts.Environment
	versions    *VersionStore
	resolver    contracts.RevisionResolver
	fetcher     contracts.SnapshotFetcher
	local       contracts.FileSystem
	openTree    func(root string) SnapshotTree
	protected   contracts.ProtectedPaths
	state       UpdateState
}

func NewUpdateOrchestrator(
	config contracts.UpdateConfig,
	environment contracts.Environment,
	versions *VersionStore,
	resolver contracts.RevisionResolver,
	fetcher contracts.SnapshotFetcher,
	local contracts.FileSystem,
	openTree func(root string) SnapshotTree,
	protected contracts.ProtectedPaths,
) *UpdateOrchestrator {
	return &UpdateOrchestrator{
		config:      config,
		environment: environment,
		versions:    versions,
		resolver:    resolver,
		fetcher:     fetcher,
		local:       local,
		openTree:    openTree,
		protected:   protected,
		state:       StateIdle,
	}
}

func (this *UpdateOrchestrator) State() UpdateState {
	return this.state
}

// CheckForUpdates returns true when a newer revision was installed and a
// restart of the host process is recommended. A nil confirm always answers
// yes; a nil progress callback is ignored.
func (this *UpdateOrchestrator) CheckForUpdates(confirm func(message string) bool, progress contracts.ProgressFunc) (updated bool) {
	this.transition(StateCheckingVersion, progress)

	if this.skipRequested() {
		this.logger.Printf("Skipping version check: %s is set", SkipEnvVar)
		this.transition(StateDone, progress)
		return false
	}

	current := this.versions.ReadInstalledRevision()
	latest, err := this.resolver.ResolveLatest()
	if err != nil {
		return this.fail("resolve latest revision", err, progress)
	}
	this.logger.Printf("Installed revision: %q, latest revision: %q", current, latest)

	if current == latest {
		this.transition(StateUpToDate, progress)
		this.transition(StateDone, progress)
		return false
	}

	if confirm != nil && !confirm("Update available: "+latest) {
		this.logger.Println("Update declined by caller.")
		this.transition(StateDone, progress)
		return false
	}

	this.transition(StateDownloading, progress)
	snapshot, err := this.fetcher.FetchSnapshot(latest, progress)
	if err != nil {
		return this.fail("fetch snapshot", err, progress)
	}
	defer this.fetcher.Discard(snapshot)

	this.transition(StatePlanning, progress)
	remoteTree := this.openTree(snapshot.Root)
	plan, err := NewUpdatePlanner(this.local, remoteTree, this.protected).Plan()
	if err != nil {
		return this.fail("plan update", err, progress)
	}
	this.logger.Printf("Plan: %d to write, %d to delete, %d unchanged.",
		len(plan.ToWrite), len(plan.ToDelete), len(plan.Unchanged))

	this.transition(StateInstalling, progress)
	failures := NewInstaller(this.local, remoteTree, this.protected).Apply(plan)
	for _, failure := range failures {
		if this.intolerable(failure) {
			return this.fail("install update", &failure, progress)
		}
	}
	if len(failures) > 0 {
		this.logger.Printf("[WARN] %d file operation(s) failed; the update will be re-attempted on next launch.", len(failures))
	}

	this.transition(StateFinalizing, progress)
	err = this.versions.WriteInstalledRevision(latest)
	if err != nil {
		return this.fail("record installed revision", err, progress)
	}

	this.logger.Printf("Update installed: %s", latest)
	this.transition(StateDone, progress)
	return true
}

func (this *UpdateOrchestrator) skipRequested() bool {
	value, set := this.environment.LookupEnv(SkipEnvVar)
	return set && value != ""
}

// intolerable flags failures that should never happen: the version record or
// a protected path failing indicates the plan invariant was violated.
func (this *UpdateOrchestrator) intolerable(failure contracts.FilesystemError) bool {
	return failure.Path == this.config.VersionFile || this.protected.Contains(failure.Path)
}

func (this *UpdateOrchestrator) transition(state UpdateState, progress contracts.ProgressFunc) {
	this.state = state
	this.logger.Printf("State: %s", state)
	if progress != nil {
		progress(contracts.UpdateProgress{Phase: state.String(), BytesTotal: -1})
	}
}

func (this *UpdateOrchestrator) fail(action string, err error, progress contracts.ProgressFunc) bool {
	this.state = StateError
	this.logger.Printf("[WARN] Failed to %s: %s", action, err)
	if progress != nil {
		progress(contracts.UpdateProgress{Phase: this.state.String(), BytesTotal: -1})
	}
	return false
}
