package repos

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	text := `repositories:
  core/autoware_msgs:
    type: git
    url: https://github.com/autowarefoundation/autoware_msgs.git
    version: main
  universe/external/tier4_ad_api_adaptor:
    type: git
    url: https://github.com/tier4/tier4_ad_api_adaptor.git
    version: "1.0"
  core/autoware_adapi_msgs:
    type: git
    url: https://github.com/autowarefoundation/autoware_adapi_msgs.git
    version: v1.2.0
`
	entries, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Name: "core/autoware_msgs", Type: "git", URL: "https://github.com/autowarefoundation/autoware_msgs.git", Version: "main"},
		{Name: "universe/external/tier4_ad_api_adaptor", Type: "git", URL: "https://github.com/tier4/tier4_ad_api_adaptor.git", Version: "1.0"},
		{Name: "core/autoware_adapi_msgs", Type: "git", URL: "https://github.com/autowarefoundation/autoware_adapi_msgs.git", Version: "v1.2.0"},
	}, entries)
}

func TestParsePreservesDocumentOrder(t *testing.T) {
	text := `repositories:
  zeta: {type: git, url: "https://github.com/org/zeta.git", version: v1}
  alpha: {type: git, url: "https://github.com/org/alpha.git", version: v1}
  mid: {type: git, url: "https://github.com/org/mid.git", version: v1}
`
	entries, err := Parse(text)
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestParseTypeNotInterpreted(t *testing.T) {
	entries, err := Parse(`repositories: {a: {type: tar, url: "https://example.com/a.tgz", version: "x"}}`)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tar", entries[0].Type)
}

func TestParseEmptyRepositories(t *testing.T) {
	entries, err := Parse("repositories: {}\n")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseOnlyFirstDocument(t *testing.T) {
	text := `repositories:
  a: {type: git, url: "https://github.com/org/a.git", version: v1}
---
not: [valid, for, us]
`
	entries, err := Parse(text)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestParseAliases(t *testing.T) {
	text := `defaults: &def
  type: git
  url: https://github.com/org/a.git
  version: main
repositories:
  a: *def
`
	entries, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{Name: "a", Type: "git", URL: "https://github.com/org/a.git", Version: "main"}, entries[0])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		kind    error
		key     string
		message string
	}{
		{
			name: "empty text",
			text: "",
			kind: ErrEmpty,
		},
		{
			name: "comments only",
			text: "# nothing here\n",
			kind: ErrEmpty,
		},
		{
			name: "sequence document",
			text: "- a\n- b\n",
			kind: ErrNotAMapping,
		},
		{
			name: "scalar document",
			text: "404: Not Found",
			kind: ErrMissingKey,
			key:  "repositories",
		},
		{
			name: "plain text document",
			text: "hello",
			kind: ErrNotAMapping,
		},
		{
			name:    "missing repositories",
			text:    "other: {}\n",
			kind:    ErrMissingKey,
			key:     "repositories",
			message: "repositories was not found",
		},
		{
			name: "repositories not a mapping",
			text: "repositories: [a, b]\n",
			kind: ErrInvalidEntry,
		},
		{
			name: "repositories null",
			text: "repositories:\n",
			kind: ErrInvalidEntry,
		},
		{
			name: "entry not a mapping",
			text: "repositories:\n  a: https://github.com/org/a.git\n",
			kind: ErrInvalidEntry,
			key:  "a",
		},
		{
			name: "entry name not a string",
			text: "repositories:\n  42: {type: git, url: u, version: v}\n",
			kind: ErrInvalidEntry,
			key:  "42",
		},
		{
			name:    "missing type",
			text:    "repositories:\n  a: {url: u, version: v}\n",
			kind:    ErrMissingKey,
			key:     "type",
			message: "type was not found",
		},
		{
			name:    "missing url",
			text:    "repositories:\n  a: {type: git, version: v}\n",
			kind:    ErrMissingKey,
			key:     "url",
			message: "url was not found",
		},
		{
			name:    "missing version",
			text:    "repositories:\n  a: {type: git, url: u}\n",
			kind:    ErrMissingKey,
			key:     "version",
			message: "version was not found",
		},
		{
			name: "numeric version",
			text: "repositories:\n  a: {type: git, url: u, version: 1.0}\n",
			kind: ErrInvalidEntry,
			key:  "a",
		},
		{
			name: "null url",
			text: "repositories:\n  a: {type: git, url: ~, version: v}\n",
			kind: ErrInvalidEntry,
			key:  "a",
		},
		{
			name: "invalid yaml",
			text: "repositories: {a: [\n",
			kind: ErrSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Parse(tt.text)
			require.Error(t, err)
			assert.Nil(t, entries)
			assert.ErrorIs(t, err, tt.kind)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			if tt.key != "" {
				assert.Equal(t, tt.key, pe.Key)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}
}

func TestParseNoPartialResult(t *testing.T) {
	text := `repositories:
  good: {type: git, url: "https://github.com/org/good.git", version: v1}
  bad: {type: git, url: "https://github.com/org/bad.git"}
`
	entries, err := Parse(text)
	require.ErrorIs(t, err, ErrMissingKey)
	assert.Nil(t, entries)
}

func TestParseErrorFragment(t *testing.T) {
	_, err := Parse("repositories:\n  broken:\n    type: git\n    url: u\n    version: [1, 2]\n")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Fragment, "broken:")
	assert.Contains(t, pe.Fragment, "version:")
}
