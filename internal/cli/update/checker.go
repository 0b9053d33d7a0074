package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	GitHubAPIURL = "https://api.github.com/repos/Herculano1234/MuseuCom/releases/latest"
	UserAgent    = "museucom-cli"
)

// Release represents a GitHub release
type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// Checker looks up the latest published release.
type Checker struct {
	URL        string
	HTTPClient *http.Client
}

// NewChecker returns a Checker for the MuseuCom release feed.
func NewChecker() *Checker {
	return &Checker{
		URL:        GitHubAPIURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Latest fetches the latest release from GitHub
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &release, nil
}

// Check reports whether a release newer than currentVersion exists.
func (c *Checker) Check(ctx context.Context, currentVersion string) (bool, *Release, error) {
	release, err := c.Latest(ctx)
	if err != nil {
		return false, nil, err
	}

	return IsNewer(currentVersion, release.TagName), release, nil
}

// IsNewer returns true if latest is newer than current
func IsNewer(current, latest string) bool {
	current = strings.TrimPrefix(current, "v")
	latest = strings.TrimPrefix(latest, "v")

	if current == "dev" {
		return latest != ""
	}

	cur, okCur := parseVersion(current)
	lat, okLat := parseVersion(latest)
	if !okCur || !okLat {
		return current != latest
	}

	for i := range cur {
		if lat[i] != cur[i] {
			return lat[i] > cur[i]
		}
	}
	return false
}

// parseVersion reads MAJOR.MINOR.PATCH, ignoring any pre-release suffix.
func parseVersion(v string) ([3]int, bool) {
	var out [3]int
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}
