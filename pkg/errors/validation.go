package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateURL validates a repository or raw-content URL.
// It requires an http or https scheme and a non-empty host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, r := range rawURL {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "URL contains invalid characters: %q", rawURL)
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme: %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL has no host: %q", rawURL)
	}
	return nil
}

// ValidateRef validates a git ref (branch, tag or commit) used to build a
// raw-content URL.
//
// The rules are a conservative subset of git-check-ref-format:
//   - No empty refs
//   - No whitespace or control characters
//   - No ".." sequences, backslashes or leading slashes
//   - Maximum length of 256 characters
func ValidateRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidInput, "ref cannot be empty")
	}
	if len(ref) > 256 {
		return New(ErrCodeInvalidInput, "ref too long (max 256 characters)")
	}
	for _, r := range ref {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "ref contains invalid characters: %q", ref)
		}
	}
	for _, pattern := range []string{"..", "\\", "//"} {
		if strings.Contains(ref, pattern) {
			return New(ErrCodeInvalidInput, "ref contains invalid sequence %q", pattern)
		}
	}
	if strings.HasPrefix(ref, "/") {
		return New(ErrCodeInvalidInput, "ref cannot start with /")
	}
	return nil
}

// ValidateManifestFilename validates a manifest filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateManifestFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "manifest filename cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidInput, "manifest filename cannot contain path separators")
	}
	if filename == "." || filename == ".." {
		return New(ErrCodeInvalidInput, "manifest filename %q is not a file", filename)
	}
	return nil
}
