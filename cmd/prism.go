package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"
)

// AppVersion is set at build time with -ldflags "-X ...cmd.AppVersion=v1.2.3".
var AppVersion = "v0.0.0"

const releasesURL = "https://api.github.com/repos/%s/releases/latest"

type GitHubRelease struct {
	TagName string `json:"tag_name"`
}

// UpdateInfo is the outcome of a release check.
type UpdateInfo struct {
	Current  string
	Latest   string
	Outdated bool
}

// CheckForUpdates asks GitHub for the latest release of repo ("owner/name")
// and compares it against AppVersion.
func CheckForUpdates(ctx context.Context, repo string) (*UpdateInfo, error) {
	return checkForUpdates(ctx, &http.Client{Timeout: 2 * time.Second}, fmt.Sprintf(releasesURL, repo), AppVersion)
}

func checkForUpdates(ctx context.Context, client *http.Client, url, current string) (*UpdateInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release check: unexpected status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("release check: %w", err)
	}

	cur, err := version.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("current version %q: %w", current, err)
	}

	latest, err := version.NewVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("latest version %q: %w", release.TagName, err)
	}

	return &UpdateInfo{
		Current:  current,
		Latest:   release.TagName,
		Outdated: cur.LessThan(latest),
	}, nil
}
