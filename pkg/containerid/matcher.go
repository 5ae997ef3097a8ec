package containerid

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ShortIDLen is the number of leading hex characters users typically pass
// around as a "short" container ID (docker CLI convention).
const ShortIDLen = 12

// Matcher recognizes a container identifier inside a cgroup v2 path.
// It is the single extension point for alternate runtimes or cgroup drivers:
// construct one with the pattern and prefixes your target uses and the rest
// of the pipeline never needs to know about naming conventions.
type Matcher interface {
	// Find returns the container ID embedded in the given cgroup path,
	// or false if the path carries none.
	Find(cgroupPath string) (string, bool)
}

const defaultPatternStr = `(?:docker[-/]|crio-|cri-containerd[-:]|containerd-|libpod-)?([0-9a-f]{64})`

// hex chars that must not directly surround a candidate ID, otherwise the
// match is a substring of something longer and not an ID at all.
const idCoreChars = "0123456789abcdefABCDEF"

const matcherCacheSize = 1024

type matcher struct {
	pattern  *regexp.Regexp
	prefixes []string
	cache    *lru.Cache[string, cacheEntry]
}

type cacheEntry struct {
	id string
	ok bool
}

// NewDefaultMatcher returns a matcher for the common Docker naming schemes on
// cgroup v2: `system.slice/docker-<id>.scope` (systemd driver),
// `/docker/<id>` (cgroupfs driver) and the user.slice rootless variant, plus
// the containerd/crio/podman prefixes.
func NewDefaultMatcher() Matcher {
	m, _ := NewMatcher("", nil)
	return m
}

// NewMatcher builds a matcher from a custom pattern and prefix list.
// An empty pattern selects the default one. The pattern must have at least
// one capture group holding the ID. If prefixes are given, a path matches
// only if one of them appears before the ID.
func NewMatcher(pattern string, prefixes []string) (Matcher, error) {
	if pattern == "" {
		pattern = defaultPatternStr
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid container ID pattern %q: %w", pattern, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("container ID pattern %q has no capture group", pattern)
	}
	cache, err := lru.New[string, cacheEntry](matcherCacheSize)
	if err != nil {
		return nil, err
	}
	return &matcher{pattern: re, prefixes: prefixes, cache: cache}, nil
}

func (m *matcher) Find(cgroupPath string) (string, bool) {
	if entry, ok := m.cache.Get(cgroupPath); ok {
		return entry.id, entry.ok
	}
	id, ok := m.find(cgroupPath)
	m.cache.Add(cgroupPath, cacheEntry{id: id, ok: ok})
	return id, ok
}

func (m *matcher) find(cgroupPath string) (string, bool) {
	for _, loc := range m.pattern.FindAllStringSubmatchIndex(cgroupPath, -1) {
		// first capture group holds the bare ID
		start, end := loc[2], loc[3]
		if start < 0 || end < 0 {
			continue
		}
		// reject matches glued to more hex, e.g. a 64-char slice of a longer token
		if loc[0] > 0 && strings.ContainsAny(string(cgroupPath[loc[0]-1]), idCoreChars) {
			continue
		}
		if loc[1] < len(cgroupPath) && strings.ContainsAny(string(cgroupPath[loc[1]]), idCoreChars) {
			continue
		}
		// the prefix gate looks at everything before the ID itself, so a
		// runtime prefix consumed by the pattern still counts
		if len(m.prefixes) > 0 && !m.prefixMatches(cgroupPath[:start]) {
			continue
		}
		return cgroupPath[start:end], true
	}
	return "", false
}

func (m *matcher) prefixMatches(before string) bool {
	for _, p := range m.prefixes {
		if strings.HasSuffix(before, p) || strings.Contains(before, p) {
			return true
		}
	}
	return false
}

// ShortID truncates a full container ID to its short form.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

// IDMatches reports whether candidate (full or short, any case) identifies
// the container with the given full ID.
func IDMatches(fullID, candidate string) bool {
	if candidate == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(fullID), strings.ToLower(candidate))
}
