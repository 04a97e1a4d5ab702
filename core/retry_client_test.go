package core

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/clock"
	"github.com/smartystreets/gunit"
	"github.com/smartystreets/logging"

	"github.com/smarty/upkeep/contracts"
)

func TestRetryClientFixture(t *testing.T) {
	gunit.Run(new(RetryClientFixture), t)
}

type RetryClientFixture struct {
	*gunit.Fixture

	client     *RetryClient
	fakeRemote *FakeRemoteRepository
}

func (this *RetryClientFixture) Setup() {
	this.fakeRemote = &FakeRemoteRepository{revision: "aaa111", archive: "archive-bytes"}
	this.client = NewRetryClient(this.fakeRemote, 4)
	this.client.sleeper = clock.StayAwake()
	this.client.logger = logging.Capture()
}

func (this *RetryClientFixture) TestResolveCallsInner() {
	revision, err := this.client.ResolveLatest()

	this.So(err, should.BeNil)
	this.So(revision, should.Equal, "aaa111")
	this.So(this.fakeRemote.resolveAttempts, should.Equal, 1)
}

func (this *RetryClientFixture) TestResolveRetriesNetworkFailures() {
	this.fakeRemote.err = fmt.Errorf("%w: connection refused", contracts.NetworkErr)

	_, err := this.client.ResolveLatest()

	this.So(errors.Is(err, contracts.NetworkErr), should.BeTrue)
	this.So(this.fakeRemote.resolveAttempts, should.Equal, 5)
	this.So(this.client.sleeper.Naps, should.Resemble, []time.Duration{
		time.Second * 3,
		time.Second * 3,
		time.Second * 3,
		time.Second * 3,
	})
}

func (this *RetryClientFixture) TestResolveDoesNotRetryOtherFailures() {
	this.fakeRemote.err = fmt.Errorf("%w: bad branch", contracts.NotFoundErr)

	_, err := this.client.ResolveLatest()

	this.So(errors.Is(err, contracts.NotFoundErr), should.BeTrue)
	this.So(this.fakeRemote.resolveAttempts, should.Equal, 1)
	this.So(this.client.sleeper.Naps, should.BeEmpty)
}

func (this *RetryClientFixture) TestDownloadCallsInner() {
	body, length, err := this.client.DownloadArchive("aaa111")

	this.So(err, should.BeNil)
	this.So(length, should.Equal, int64(len("archive-bytes")))
	all, _ := ioutil.ReadAll(body)
	this.So(string(all), should.Equal, "archive-bytes")
	this.So(this.fakeRemote.downloadedRevision, should.Equal, "aaa111")
}

func (this *RetryClientFixture) TestDownloadRetriesNetworkFailures() {
	this.fakeRemote.err = fmt.Errorf("%w: reset by peer", contracts.NetworkErr)

	_, _, err := this.client.DownloadArchive("aaa111")

	this.So(errors.Is(err, contracts.NetworkErr), should.BeTrue)
	this.So(this.fakeRemote.downloadAttempts, should.Equal, 5)
}

func (this *RetryClientFixture) TestDownloadDoesNotRetryProtocolFailures() {
	this.fakeRemote.err = fmt.Errorf("%w: status 500", contracts.ProtocolErr)

	_, _, err := this.client.DownloadArchive("aaa111")

	this.So(errors.Is(err, contracts.ProtocolErr), should.BeTrue)
	this.So(this.fakeRemote.downloadAttempts, should.Equal, 1)
}

/////////////////////////////////////////////////////////////////////////////////

type FakeRemoteRepository struct {
	revision string
	archive  string
	err      error

	resolveAttempts    int
	downloadAttempts   int
	downloadedRevision string
}

func (this *FakeRemoteRepository) ResolveLatest() (string, error) {
	this.resolveAttempts++
	if this.err != nil {
		return "", this.err
	}
	return this.revision, nil
}

func (this *FakeRemoteRepository) DownloadArchive(revision string) (io.ReadCloser, int64, error) {
	this.downloadAttempts++
	this.downloadedRevision = revision
	if this.err != nil {
		return nil, 0, this.err
	}
	return ioutil.NopCloser(strings.NewReader(this.archive)), int64(len(this.archive)), nil
}
