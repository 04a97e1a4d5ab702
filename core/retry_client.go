package core

import (
	"errors"
	"io"
	"time"

	"github.com/smartystreets/clock"
	"github.com/smartystreets/logging"

	"github.com/smarty/upkeep/contracts"
)

// RetryClient decorates a remote repository with the orchestrator's retry
// policy: transient network failures are retried, everything else surfaces
// immediately.
type RetryClient struct {
	sleeper *clock.Sleeper
	logger  *logging.Logger

	inner    contracts.RemoteRepository
	maxRetry int
}

func NewRetryClient(inner contracts.RemoteRepository, maxRetry int) *RetryClient {
	return &RetryClient{inner: inner, maxRetry: maxRetry}
}

func (this *RetryClient) ResolveLatest() (revision string, err error) {
	for x := 0; x <= this.maxRetry; x++ {
		revision, err = this.inner.ResolveLatest()
		if err == nil {
			return revision, nil
		}
		if !errors.Is(err, contracts.NetworkErr) {
			return "", err
		}
		if x < this.maxRetry {
			this.logger.Println("[WARN] revision resolution failed, retry imminent.")
			this.sleeper.Sleep(time.Second * 3)
		}
	}
	return "", err
}

func (this *RetryClient) DownloadArchive(revision string) (body io.ReadCloser, length int64, err error) {
	for x := 0; x <= this.maxRetry; x++ {
		body, length, err = this.inner.DownloadArchive(revision)
		if err == nil {
			return body, length, nil
		}
		if !errors.Is(err, contracts.NetworkErr) {
			return nil, 0, err
		}
		if x < this.maxRetry {
			this.logger.Println("[WARN] archive download failed, retry imminent.")
			this.sleeper.Sleep(time.Second * 3)
		}
	}
	return nil, 0, err
}
