package repos

import "strings"

const (
	// DefaultWebHost is the host token of repository web URLs.
	DefaultWebHost = "github"
	// DefaultRawHost replaces DefaultWebHost to address raw file content.
	DefaultRawHost = "raw.githubusercontent"
	// DefaultRepoSuffix is stripped from repository URLs before deriving.
	DefaultRepoSuffix = ".git"
	// DefaultManifestFile is the dependency manifest looked up in every
	// discovered repository.
	DefaultManifestFile = "build_depends.repos"
)

// Deriver builds raw-content URLs from repository URLs and versions.
// The zero value is not useful; start from [DefaultDeriver].
type Deriver struct {
	WebHost      string // Host token found in repository URLs (e.g. "github")
	RawHost      string // Replacement token addressing raw content
	RepoSuffix   string // Trailing marker removed first (e.g. ".git")
	ManifestFile string // File name appended after the version
}

// DefaultDeriver returns a Deriver for GitHub-hosted build_depends.repos files.
func DefaultDeriver() Deriver {
	return Deriver{
		WebHost:      DefaultWebHost,
		RawHost:      DefaultRawHost,
		RepoSuffix:   DefaultRepoSuffix,
		ManifestFile: DefaultManifestFile,
	}
}

// WithManifest returns a copy of d that appends file instead of d.ManifestFile.
func (d Deriver) WithManifest(file string) Deriver {
	d.ManifestFile = file
	return d
}

// RawURL returns the raw-content URL of d.ManifestFile in repoURL at version.
//
// The trailing RepoSuffix is stripped, the first WebHost token is replaced by
// RawHost, and "/<version>/<ManifestFile>" is appended. RawURL never fails:
// a malformed repoURL yields a URL that will fail to fetch.
func (d Deriver) RawURL(repoURL, version string) string {
	u := repoURL
	if d.RepoSuffix != "" {
		u = strings.TrimSuffix(u, d.RepoSuffix)
	}
	if d.WebHost != "" {
		u = strings.Replace(u, d.WebHost, d.RawHost, 1)
	}
	return u + "/" + version + "/" + d.ManifestFile
}

// RawURL derives a raw-content URL with [DefaultDeriver].
func RawURL(repoURL, version string) string {
	return DefaultDeriver().RawURL(repoURL, version)
}
