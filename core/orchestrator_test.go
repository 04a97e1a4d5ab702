package core

import (
	"fmt"
	"testing"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
	"github.com/smartystreets/logging"

	"github.com/smarty/upkeep/contracts"
	"github.com/smarty/upkeep/fs"
)

func TestUpdateOrchestratorFixture(t *testing.T) {
	gunit.Run(new(UpdateOrchestratorFixture), t)
}

type UpdateOrchestratorFixture struct {
	*gunit.Fixture

	config       contracts.UpdateConfig
	environment  *FakeEnvironment
	local        *fs.InMemoryFileSystem
	snapshotTree *fs.InMemoryFileSystem
	resolver     *FakeResolver
	fetcher      *FakeSnapshotFetcher
	versions     *VersionStore
	orchestrator *UpdateOrchestrator
	phases       []string
}

func (this *UpdateOrchestratorFixture) Setup() {
	this.config = contracts.UpdateConfig{
		Owner:       "owner",
		Repository:  "repository",
		Branch:      "main",
		VersionFile: "VERSION",
		LogFile:     "update.log",
	}
	this.environment = &FakeEnvironment{values: map[string]string{}}
	this.local = fs.NewInMemoryFileSystem()
	this.snapshotTree = fs.NewInMemoryFileSystem()
	this.resolver = &FakeResolver{revision: "bbb222"}
	this.fetcher = &FakeSnapshotFetcher{}
	this.versions = NewVersionStore(this.local, "VERSION")
	this.versions.logger = logging.Capture()
	this.orchestrator = NewUpdateOrchestrator(
		this.config,
		this.environment,
		this.versions,
		this.resolver,
		this.fetcher,
		this.local,
		func(root string) SnapshotTree { return this.snapshotTree },
		contracts.NewProtectedPaths([]string{"VERSION", "update.log"}),
	)
	this.orchestrator.logger = logging.Capture()
}

func (this *UpdateOrchestratorFixture) check() bool {
	return this.orchestrator.CheckForUpdates(nil, func(progress contracts.UpdateProgress) {
		this.phases = append(this.phases, progress.Phase)
	})
}

func (this *UpdateOrchestratorFixture) TestUpToDate() {
	_ = this.local.WriteFile("VERSION", []byte("bbb222"))

	this.So(this.check(), should.BeFalse)
	this.So(this.orchestrator.State(), should.Equal, StateDone)
	this.So(this.phases, should.Contain, "UpToDate")
	this.So(this.fetcher.fetched, should.Equal, 0)
}

func (this *UpdateOrchestratorFixture) TestResolutionFailureDoesNotBlockTheCaller() {
	_ = this.local.WriteFile("VERSION", []byte("aaa111"))
	this.resolver.err = fmt.Errorf("%w: timeout", contracts.NetworkErr)

	this.So(this.check(), should.BeFalse)
	this.So(this.orchestrator.State(), should.Equal, StateError)
	this.So(this.versions.ReadInstalledRevision(), should.Equal, "aaa111")
}

func (this *UpdateOrchestratorFixture) TestNewRevisionInstalled() {
	_ = this.local.WriteFile("VERSION", []byte("aaa111"))
	_ = this.local.WriteFile("old.txt", []byte("obsolete"))
	_ = this.local.WriteFile("same.txt", []byte("identical"))
	_ = this.snapshotTree.WriteFile("same.txt", []byte("identical"))
	_ = this.snapshotTree.WriteFile("extra.txt", []byte("brand new"))

	this.So(this.check(), should.BeTrue)
	this.So(this.orchestrator.State(), should.Equal, StateDone)
	this.So(this.versions.ReadInstalledRevision(), should.Equal, "bbb222")
	this.So(this.local.Exists("extra.txt"), should.BeTrue)
	this.So(this.local.Exists("old.txt"), should.BeFalse)
	this.So(this.local.Exists("same.txt"), should.BeTrue)
	this.So(this.fetcher.discarded, should.Equal, 1)
	this.So(this.phases, should.Resemble, []string{
		"CheckingVersion", "Downloading", "Planning", "Installing", "Finalizing", "Done",
	})
}

func (this *UpdateOrchestratorFixture) TestNeverInstalledTreatedAsUpdateAvailable() {
	_ = this.snapshotTree.WriteFile("main.py", []byte("print('hi')"))

	this.So(this.check(), should.BeTrue)
	this.So(this.versions.ReadInstalledRevision(), should.Equal, "bbb222")
	this.So(this.local.Exists("main.py"), should.BeTrue)
}

func (this *UpdateOrchestratorFixture) TestFetchFailureLeavesInstallationAlone() {
	_ = this.local.WriteFile("VERSION", []byte("aaa111"))
	_ = this.local.WriteFile("app.py", []byte("source"))
	this.fetcher.err = fmt.Errorf("%w: truncated stream", contracts.DownloadIncompleteErr)

	this.So(this.check(), should.BeFalse)
	this.So(this.orchestrator.State(), should.Equal, StateError)
	this.So(this.versions.ReadInstalledRevision(), should.Equal, "aaa111")
	raw, _ := this.local.ReadFile("app.py")
	this.So(string(raw), should.Equal, "source")
}

func (this *UpdateOrchestratorFixture) TestRemoteDirectoryCreatedLocally() {
	_ = this.snapshotTree.Mkdir("assets")

	this.So(this.check(), should.BeTrue)
	this.So(this.local.Exists("assets"), should.BeTrue)
}

func (this *UpdateOrchestratorFixture) TestSecondRunIsIdempotent() {
	_ = this.snapshotTree.WriteFile("main.py", []byte("print('hi')"))

	this.So(this.check(), should.BeTrue)
	firstPaths := this.local.Paths()

	this.So(this.check(), should.BeFalse)
	this.So(this.fetcher.fetched, should.Equal, 1)
	this.So(this.local.Paths(), should.Resemble, firstPaths)
}

func (this *UpdateOrchestratorFixture) TestSkipEnvironmentVariableShortCircuits() {
	this.environment.values[SkipEnvVar] = "1"

	this.So(this.check(), should.BeFalse)
	this.So(this.orchestrator.State(), should.Equal, StateDone)
	this.So(this.resolver.attempts, should.Equal, 0)
}

func (this *UpdateOrchestratorFixture) TestDeclinedConfirmationAbandonsTheUpdate() {
	updated := this.orchestrator.CheckForUpdates(func(string) bool { return false }, nil)

	this.So(updated, should.BeFalse)
	this.So(this.fetcher.fetched, should.Equal, 0)
	this.So(this.versions.ReadInstalledRevision(), should.Equal, "")
}

/////////////////////////////////////////////////////////////////////////////////

type FakeEnvironment struct {
	values map[string]string
}

func (this *FakeEnvironment) LookupEnv(key string) (string, bool) {
	value, set := this.values[key]
	return value, set
}

type FakeResolver struct {
	revision string
	err      error
	attempts int
}

func (this *FakeResolver) ResolveLatest() (string, error) {
	this.attempts++
	return this.revision, this.err
}

type FakeSnapshotFetcher struct {
	err       error
	fetched   int
	discarded int
}

func (this *FakeSnapshotFetcher) FetchSnapshot(revision string, progress contracts.ProgressFunc) (contracts.Snapshot, error) {
	this.fetched++
	if this.err != nil {
		return contracts.Snapshot{}, this.err
	}
	return contracts.Snapshot{Revision: revision, Root: "snapshot"}, nil
}

func (this *FakeSnapshotFetcher) Discard(snapshot contracts.Snapshot) {
	this.discarded++
}
