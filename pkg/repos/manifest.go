package repos

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	keyRepositories = "repositories"
	keyType         = "type"
	keyURL          = "url"
	keyVersion      = "version"

	tagString = "!!str"
)

// Sentinel kinds of [*ParseError]. Use errors.Is to test for them.
var (
	// ErrSyntax is reported when the text is not valid YAML.
	ErrSyntax = errors.New("invalid yaml")

	// ErrEmpty is reported when the text holds no YAML document.
	ErrEmpty = errors.New("manifest is empty")

	// ErrNotAMapping is reported when the first document is not a mapping.
	ErrNotAMapping = errors.New("manifest is not a mapping")

	// ErrMissingKey is reported when "repositories" or one of an entry's
	// "type", "url", "version" keys is absent.
	ErrMissingKey = errors.New("missing key")

	// ErrInvalidEntry is reported when a repository entry has the wrong shape:
	// a non-string name, a non-mapping body, or a non-string field.
	ErrInvalidEntry = errors.New("invalid entry")
)

// Entry is one repository listed in a manifest.
type Entry struct {
	Name    string // Key under "repositories"; unique within a manifest
	Type    string // VCS type (e.g. "git"); carried through, not interpreted
	URL     string // Repository display URL
	Version string // Branch, tag or commit the dependency is pinned to
}

// ParseError describes why a manifest was rejected.
type ParseError struct {
	Kind     error  // One of ErrSyntax, ErrEmpty, ErrNotAMapping, ErrMissingKey, ErrInvalidEntry
	Key      string // Missing key, or the entry name when known
	Fragment string // YAML echo of the offending entry, if any
	Cause    error  // Underlying decoder error for ErrSyntax
}

func (e *ParseError) Error() string {
	switch {
	case e.Kind == ErrMissingKey:
		return fmt.Sprintf("%s was not found", e.Key)
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	case e.Key != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Key)
	default:
		return e.Kind.Error()
	}
}

// Is lets errors.Is match the sentinel kind.
func (e *ParseError) Is(target error) bool { return target == e.Kind }

// Unwrap returns the decoder error, if any.
func (e *ParseError) Unwrap() error { return e.Cause }

// Parse decodes manifest text into its repository entries, in document order.
//
// Only the first YAML document is considered. It must be a mapping holding a
// "repositories" mapping whose values are mappings with string "type", "url"
// and "version" fields. Any deviation aborts the whole parse with a
// [*ParseError]; no partial result is returned.
func Parse(text string) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(strings.NewReader(text)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Kind: ErrEmpty}
		}
		return nil, &ParseError{Kind: ErrSyntax, Cause: err}
	}
	if len(doc.Content) == 0 {
		return nil, &ParseError{Kind: ErrEmpty}
	}

	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Kind: ErrNotAMapping}
	}

	list, ok := lookup(root, keyRepositories)
	if !ok {
		return nil, &ParseError{Kind: ErrMissingKey, Key: keyRepositories}
	}
	if list.Kind != yaml.MappingNode {
		return nil, &ParseError{Kind: ErrInvalidEntry, Key: keyRepositories, Fragment: echo(nil, list)}
	}

	entries := make([]Entry, 0, len(list.Content)/2)
	for i := 0; i+1 < len(list.Content); i += 2 {
		e, err := parseEntry(resolve(list.Content[i]), resolve(list.Content[i+1]))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseEntry(key, val *yaml.Node) (Entry, error) {
	if !isString(key) || val.Kind != yaml.MappingNode {
		return Entry{}, &ParseError{Kind: ErrInvalidEntry, Key: key.Value, Fragment: echo(key, val)}
	}

	fields := make(map[string]*yaml.Node, 3)
	for _, k := range []string{keyType, keyURL, keyVersion} {
		n, ok := lookup(val, k)
		if !ok {
			return Entry{}, &ParseError{Kind: ErrMissingKey, Key: k, Fragment: echo(key, val)}
		}
		fields[k] = n
	}
	for _, n := range fields {
		if !isString(n) {
			return Entry{}, &ParseError{Kind: ErrInvalidEntry, Key: key.Value, Fragment: echo(key, val)}
		}
	}

	return Entry{
		Name:    key.Value,
		Type:    fields[keyType].Value,
		URL:     fields[keyURL].Value,
		Version: fields[keyVersion].Value,
	}, nil
}

// lookup returns the value stored under the first string key equal to name.
func lookup(m *yaml.Node, name string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := resolve(m.Content[i])
		if isString(k) && k.Value == name {
			return resolve(m.Content[i+1]), true
		}
	}
	return nil, false
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == tagString
}

// echo renders key: val back to YAML for diagnostics.
func echo(key, val *yaml.Node) string {
	var n *yaml.Node
	if key == nil {
		n = val
	} else {
		n = &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{key, val}}
	}
	out, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Sprintf("<unprintable: %v>", err)
	}
	return strings.TrimRight(string(out), "\n")
}
