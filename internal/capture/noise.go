package capture

import (
	"path/filepath"
	"strings"

	"github.com/HendryAvila/recall/internal/transcript"
)

// searchTools only locate things. They never change state and their results
// are reproducible on demand.
var searchTools = map[string]bool{
	"Grep":       true,
	"Glob":       true,
	"LS":         true,
	"WebSearch":  true,
	"ToolSearch": true,
	"TodoRead":   true,
}

// vendoredDirs are path components whose contents are third-party or
// generated.
var vendoredDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"target":       true,
}

// trivialShellPrefixes are read-only commands with no memory value. Bare
// words also match when they are the whole command.
var trivialShellPrefixes = []string{"ls", "pwd", "echo", "cat ", "head ", "tail ", "wc "}

// SeenSet records the read targets already observed in one session.
type SeenSet struct {
	targets map[string]struct{}
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{targets: make(map[string]struct{})}
}

// Visit reports whether target was already seen and records it otherwise.
func (s *SeenSet) Visit(target string) bool {
	key := filepath.Clean(target)
	if _, ok := s.targets[key]; ok {
		return true
	}
	s.targets[key] = struct{}{}
	return false
}

// Len returns the number of distinct targets seen.
func (s *SeenSet) Len() int { return len(s.targets) }

// Filter drops tool invocations that carry no memory value. One Filter is
// used per session; its only state is the seen-set.
type Filter struct {
	seen *SeenSet
}

// NewFilter returns a filter with a fresh seen-set.
func NewFilter() *Filter {
	return &Filter{seen: NewSeenSet()}
}

// Seen exposes the filter's seen-set.
func (f *Filter) Seen() *SeenSet { return f.seen }

// Ignore reports whether call is noise. Rules apply in order and the first
// that fires decides.
func (f *Filter) Ignore(call *transcript.ToolCall) bool {
	if call == nil {
		return true
	}
	if searchTools[call.Name] {
		return true
	}

	if KindOf(call.Name) == EventRead {
		target := readTarget(call)
		if target != "" {
			if f.seen.Visit(target) {
				return true
			}
			if underVendoredDir(target) {
				return true
			}
		}
	}

	if KindOf(call.Name) == EventShell && isTrivialShell(call.InputString("command")) {
		return true
	}

	return strings.TrimSpace(call.Result) == ""
}

func readTarget(call *transcript.ToolCall) string {
	if p := call.InputString("file_path"); p != "" {
		return p
	}
	return call.InputString("notebook_path")
}

func underVendoredDir(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if vendoredDirs[part] {
			return true
		}
	}
	return false
}

func isTrivialShell(command string) bool {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return false
	}
	for _, prefix := range trivialShellPrefixes {
		word := strings.TrimSpace(prefix)
		if cmd == word || strings.HasPrefix(cmd, word+" ") {
			return true
		}
	}
	return false
}
