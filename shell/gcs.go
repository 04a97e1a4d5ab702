package shell

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/smartystreets/gcs"

	"github.com/smarty/upkeep/contracts"
)

// GoogleCloudStorageMirror downloads revision archives from a GCS bucket for
// deployments that mirror the repository rather than reaching the hosting
// provider directly. Archives are stored as <prefix>/<revision>.zip.
type GoogleCloudStorageMirror struct {
	client      *http.Client
	credentials gcs.Credentials
	address     url.URL
}

func NewGoogleCloudStorageMirror(client *http.Client, credentials gcs.Credentials, address url.URL) *GoogleCloudStorageMirror {
	return &GoogleCloudStorageMirror{client: client, credentials: credentials, address: address}
}

func (this *GoogleCloudStorageMirror) DownloadArchive(revision string) (io.ReadCloser, int64, error) {
	request, err := gcs.NewRequest("GET",
		gcs.WithCredentials(this.credentials),
		gcs.WithBucket(this.address.Host),
		gcs.WithResource(path.Join(this.address.Path, revision+".zip")),
	)
	if err != nil {
		return nil, 0, err
	}
	response, err := this.client.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", contracts.NetworkErr, err)
	}
	if response.StatusCode == http.StatusNotFound {
		_ = response.Body.Close()
		return nil, 0, fmt.Errorf("%w: mirrored revision %q", contracts.NotFoundErr, revision)
	}
	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()
		return nil, 0, fmt.Errorf("%w: unexpected status: %s", contracts.ProtocolErr, response.Status)
	}
	return response.Body, response.ContentLength, nil
}
