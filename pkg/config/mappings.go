package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/stubd/pkg/stub"
)

// ErrInvalidMapping is returned (wrapped) when a mapping document has an
// unexpected shape.
var ErrInvalidMapping = errors.New("invalid mapping document")

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} references with values
// from the environment.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

// mappingList is the object form of a mapping document.
type mappingList struct {
	Mappings []*stub.Stub `json:"mappings"`
}

// ParseMappings decodes a mapping document. isYAML selects the input syntax.
// The document may be a single mapping, a list, or {"mappings": [...]}.
func ParseMappings(data []byte, isYAML bool) ([]*stub.Stub, error) {
	if isYAML {
		converted, err := YAMLToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var stubs []*stub.Stub
		if err := decodeStrict(trimmed, &stubs); err != nil {
			return nil, err
		}
		return dropNil(stubs), nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if _, ok := fields["mappings"]; ok {
			var list mappingList
			if err := decodeStrict(trimmed, &list); err != nil {
				return nil, err
			}
			return dropNil(list.Mappings), nil
		}
		var s stub.Stub
		if err := decodeStrict(trimmed, &s); err != nil {
			return nil, err
		}
		return []*stub.Stub{&s}, nil
	default:
		return nil, fmt.Errorf("%w: expected an object or a list", ErrInvalidMapping)
	}
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	return nil
}

func dropNil(stubs []*stub.Stub) []*stub.Stub {
	return slices.DeleteFunc(stubs, func(s *stub.Stub) bool { return s == nil })
}

// LoadMappingFile reads one mapping file. ${VAR} references are expanded
// before parsing.
func LoadMappingFile(path string) ([]*stub.Stub, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	stubs, err := ParseMappings([]byte(ExpandEnvVars(string(data))), isYAML(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stubs, nil
}

// LoadMappings expands each glob pattern relative to baseDir and loads the
// matching files. Files are loaded in pattern order, and in lexical order
// within a pattern; a file matched by several patterns is loaded once.
// A pattern without glob characters must name an existing file.
func LoadMappings(patterns []string, baseDir string) ([]*stub.Stub, error) {
	var (
		result []*stub.Stub
		seen   = make(map[string]bool)
	)

	for _, pattern := range patterns {
		resolved := ResolvePath(baseDir, pattern)

		var files []string
		if hasMeta(pattern) {
			matches, err := doublestar.FilepathGlob(resolved, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding glob pattern %q: %w", pattern, err)
			}
			slices.Sort(matches)
			files = matches
		} else {
			files = []string{resolved}
		}

		for _, file := range files {
			if seen[file] {
				continue
			}
			seen[file] = true

			stubs, err := LoadMappingFile(file)
			if err != nil {
				return nil, err
			}
			result = append(result, stubs...)
		}
	}

	return result, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// ResolvePath resolves targetPath against basePath unless it is absolute.
// A leading ~/ is expanded to the user's home directory.
func ResolvePath(basePath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	if strings.HasPrefix(targetPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, targetPath[2:])
		}
	}
	return filepath.Join(basePath, targetPath)
}

// ConfigBaseDir returns the directory used to resolve mapping globs named in
// the config file at configPath. With no config file it is the working
// directory.
func ConfigBaseDir(configPath string) string {
	if configPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			return cwd
		}
		return "."
	}
	return filepath.Dir(configPath)
}
