package shell

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/smarty/upkeep/contracts"
)

// GitHubClient issues the two read-only, unauthenticated requests the engine
// needs: latest commit on a branch, and the archived tree at an exact revision.
type GitHubClient struct {
	client *http.Client
	config contracts.UpdateConfig
}

func NewGitHubClient(client *http.Client, config contracts.UpdateConfig) *GitHubClient {
	return &GitHubClient{client: client, config: config}
}

func (this *GitHubClient) ResolveLatest() (string, error) {
	address := fmt.Sprintf("https://api.github.com/repos/%s/%s/commits/%s",
		this.config.Owner, this.config.Repository, this.config.Branch)
	response, err := this.client.Get(address)
	if err != nil {
		return "", fmt.Errorf("%w: %s", contracts.NetworkErr, err)
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s/%s@%s",
			contracts.NotFoundErr, this.config.Owner, this.config.Repository, this.config.Branch)
	}
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status: %s", contracts.ProtocolErr, response.Status)
	}
	var payload struct {
		SHA string `json:"sha"`
	}
	err = json.NewDecoder(response.Body).Decode(&payload)
	if err != nil {
		return "", fmt.Errorf("%w: %s", contracts.ProtocolErr, err)
	}
	if payload.SHA == "" {
		return "", fmt.Errorf("%w: response missing commit sha", contracts.ProtocolErr)
	}
	return payload.SHA, nil
}

// DownloadArchive fetches the archive for the exact revision, not the branch
// tip, so the content always matches the resolved identifier even if the
// branch advances mid-operation.
func (this *GitHubClient) DownloadArchive(revision string) (io.ReadCloser, int64, error) {
	address := fmt.Sprintf("https://codeload.github.com/%s/%s/zip/%s",
		this.config.Owner, this.config.Repository, revision)
	response, err := this.client.Get(address)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", contracts.NetworkErr, err)
	}
	if response.StatusCode == http.StatusNotFound {
		_ = response.Body.Close()
		return nil, 0, fmt.Errorf("%w: revision %q", contracts.NotFoundErr, revision)
	}
	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()
		return nil, 0, fmt.Errorf("%w: unexpected status: %s", contracts.ProtocolErr, response.Status)
	}
	return response.Body, response.ContentLength, nil
}

func (this *GitHubClient) DownloadRaw(path string) ([]byte, error) {
	address := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s",
		this.config.Owner, this.config.Repository, this.config.Branch, path)
	response, err := this.client.Get(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", contracts.NetworkErr, err)
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %q", contracts.NotFoundErr, path)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status: %s", contracts.ProtocolErr, response.Status)
	}
	return ioutil.ReadAll(response.Body)
}
