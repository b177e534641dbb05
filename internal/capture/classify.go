// Package capture turns transcript tool calls and assistant text into
// observation drafts.
//
// The flow for one transcript is Filter (drop noise) then Classifier (map
// what remains onto typed drafts) then the Pipeline, which writes drafts to
// the memory store. Filtering and classification are synchronous and touch
// no I/O.
package capture

import (
	"path/filepath"
	"strings"

	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/transcript"
)

// Per-source detail bounds.
const (
	maxFileDetail = 500
	maxTextDetail = 1000
	maxEvidence   = 2000
)

// EventKind groups tool names by what they do to the workspace.
type EventKind int

const (
	EventOther EventKind = iota
	EventWrite
	EventRead
	EventShell
)

func (k EventKind) String() string {
	switch k {
	case EventWrite:
		return "write"
	case EventRead:
		return "read"
	case EventShell:
		return "shell"
	default:
		return "other"
	}
}

var toolKinds = map[string]EventKind{
	"Write":        EventWrite,
	"Edit":         EventWrite,
	"MultiEdit":    EventWrite,
	"NotebookEdit": EventWrite,
	"Read":         EventRead,
	"NotebookRead": EventRead,
	"Bash":         EventShell,
}

// KindOf maps a tool name onto its event kind.
func KindOf(toolName string) EventKind {
	return toolKinds[toolName]
}

// Options configures what the classifier treats as worth remembering.
type Options struct {
	// PlansDir is matched as a path prefix, relative to the project root
	// when not absolute.
	PlansDir string
	// KnowledgeSources are file basenames whose reads are always kept.
	KnowledgeSources []string
	// ProjectRoot is stripped from paths used in titles.
	ProjectRoot string
}

type toolHandler func(c *Classifier, call *transcript.ToolCall) *observation.Draft

// Classifier maps events onto observation drafts.
type Classifier struct {
	opts     Options
	handlers map[EventKind]toolHandler
	shell    []shellMatcher
}

// NewClassifier builds a classifier with the default dispatch table.
func NewClassifier(opts Options) *Classifier {
	return &Classifier{
		opts: opts,
		handlers: map[EventKind]toolHandler{
			EventWrite: (*Classifier).classifyWrite,
			EventRead:  (*Classifier).classifyRead,
			EventShell: (*Classifier).classifyShell,
		},
		shell: defaultShellMatchers(),
	}
}

// ClassifyTool returns the draft for call, or nil when the call is not
// memory-worthy.
func (c *Classifier) ClassifyTool(call *transcript.ToolCall) *observation.Draft {
	if call == nil {
		return nil
	}
	h, ok := c.handlers[KindOf(call.Name)]
	if !ok {
		return nil
	}
	d := h(c, call)
	if d != nil && d.ToolName == "" {
		d.ToolName = call.Name
	}
	return d
}

// ─── Write ───────────────────────────────────────────────────────────────────

func (c *Classifier) classifyWrite(call *transcript.ToolCall) *observation.Draft {
	path := writeTarget(call)
	if path == "" {
		return nil
	}
	content := writtenContent(call)
	short := c.shortPath(path)

	verb := "Edited"
	if call.Name == "Write" {
		verb = "Created"
	}

	outcome := observation.OutcomeSuccess
	if call.IsError {
		outcome = observation.OutcomeFailure
	}

	d := &observation.Draft{
		Type:    observation.FileChange,
		Title:   verb + " " + short,
		Detail:  observation.Truncate(strings.TrimSpace(content), maxFileDetail),
		Outcome: outcome,
		Files:   []string{short},
	}
	ExtractRefs(content, path).applyTo(d)
	return d
}

func writeTarget(call *transcript.ToolCall) string {
	if p := call.InputString("file_path"); p != "" {
		return p
	}
	return call.InputString("notebook_path")
}

// writtenContent collects the new text a write tool put on disk.
func writtenContent(call *transcript.ToolCall) string {
	switch call.Name {
	case "Write":
		return call.InputString("content")
	case "Edit":
		return call.InputString("new_string")
	case "NotebookEdit":
		return call.InputString("new_source")
	case "MultiEdit":
		edits, _ := call.Input["edits"].([]any)
		var parts []string
		for _, e := range edits {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if s, ok := m["new_string"].(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// ─── Read ────────────────────────────────────────────────────────────────────

func (c *Classifier) classifyRead(call *transcript.ToolCall) *observation.Draft {
	path := readTarget(call)
	if path == "" {
		return nil
	}
	short := c.shortPath(path)

	var title string
	switch {
	case c.underPlansDir(path, short):
		title = "Read plan " + short
	case c.isKnowledgeSource(path):
		title = "Read knowledge source " + short
	default:
		return nil
	}

	d := &observation.Draft{
		Type:   observation.Discovery,
		Title:  title,
		Detail: observation.Truncate(strings.TrimSpace(call.Result), maxFileDetail),
		Files:  []string{short},
	}
	ExtractRefs(path, call.Result).applyTo(d)
	return d
}

func (c *Classifier) underPlansDir(path, short string) bool {
	dir := strings.Trim(filepath.ToSlash(c.opts.PlansDir), "/")
	if dir == "" {
		return false
	}
	p := filepath.ToSlash(path)
	if filepath.IsAbs(c.opts.PlansDir) {
		return strings.HasPrefix(p, filepath.ToSlash(c.opts.PlansDir)+"/")
	}
	return strings.HasPrefix(filepath.ToSlash(short), dir+"/") || strings.Contains(p, "/"+dir+"/")
}

func (c *Classifier) isKnowledgeSource(path string) bool {
	base := filepath.Base(path)
	for _, name := range c.opts.KnowledgeSources {
		if strings.EqualFold(base, name) {
			return true
		}
	}
	return false
}

// shortPath renders path relative to the project root, or as its last three
// components when it lies outside it. Titles never carry absolute paths.
func (c *Classifier) shortPath(path string) string {
	if root := c.opts.ProjectRoot; root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	p := filepath.ToSlash(path)
	if !filepath.IsAbs(path) && !strings.HasPrefix(p, "/") {
		return strings.TrimPrefix(p, "./")
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	return strings.Join(parts, "/")
}
