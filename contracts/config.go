package contracts

import "errors"

// UpdateConfig identifies the remote repository tracked by one installation
// directory. Loaded once at startup and treated as immutable for the run.
type UpdateConfig struct {
	Owner         string   `json:"owner"`
	Repository    string   `json:"repository"`
	Branch        string   `json:"branch"`
	VersionFile   string   `json:"version_file"`
	ManifestFile  string   `json:"manifest_file"`
	LogFile       string   `json:"log_file"`
	Protected     []string `json:"protected"`
	MirrorAddress *URL     `json:"mirror_address,omitempty"`
}

func (this UpdateConfig) Validate() error {
	if this.Owner == "" {
		return errors.New("owner is required")
	}
	if this.Repository == "" {
		return errors.New("repository is required")
	}
	if this.Branch == "" {
		return errors.New("branch is required")
	}
	if this.VersionFile == "" {
		return errors.New("version file is required")
	}
	if this.LogFile == "" {
		return errors.New("log file is required")
	}
	return nil
}
