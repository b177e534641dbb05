// Package transcript parses AI coding-session transcripts into typed records.
//
// A transcript is newline-delimited JSON. Each line is one entry with a
// "type" ("user", "assistant", or bookkeeping types that are ignored) and a
// "message.content" that is either a plain string or an array of content
// blocks: text, tool_use and tool_result. Tool invocations are paired with
// their results by tool_use id so downstream consumers see one ToolCall per
// invocation with its outcome attached.
package transcript

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// maxLineSize bounds a single transcript line. Longer lines are skipped and
// counted. Tool results that embed whole files routinely exceed 64 KiB.
var maxLineSize = 16 * 1024 * 1024

// Kind identifies the record variant.
type Kind int

const (
	KindToolCall Kind = iota + 1
	KindAssistantText
	KindUserMessage
)

func (k Kind) String() string {
	switch k {
	case KindToolCall:
		return "tool_call"
	case KindAssistantText:
		return "assistant_text"
	case KindUserMessage:
		return "user_message"
	default:
		return "unknown"
	}
}

// ToolCall is one tool invocation with its result. Answered is false until
// the matching tool_result has been read.
type ToolCall struct {
	ID       string
	Name     string
	Input    map[string]any
	Result   string
	IsError  bool
	Answered bool
}

// InputString returns a string field of the tool input, or "".
func (c *ToolCall) InputString(key string) string {
	if c == nil || c.Input == nil {
		return ""
	}
	v, _ := c.Input[key].(string)
	return v
}

// Record is one typed transcript entry. Tool is set only for KindToolCall;
// Text only for the text kinds. Line is the 1-based source line.
type Record struct {
	Kind      Kind
	Tool      *ToolCall
	Text      string
	Timestamp time.Time
	Line      int
}

// Stats counts what the reader saw. Lines counts non-empty lines, Skipped
// the malformed or oversized ones among them, and Complete is the number of
// physical lines fully read. A trailing line still being written is not
// complete and is left for the next read.
type Stats struct {
	Lines    int
	Skipped  int
	Complete int
}

// Transcript is the parsed form of one session transcript. Source is the
// absolute path for transcripts read from a file.
type Transcript struct {
	SessionID string
	Branch    string
	Cwd       string
	Source    string
	Records   []Record
	Stats     Stats

	lastUserLine int
}

// ToolCalls returns only the tool invocation records, in order.
func (t *Transcript) ToolCalls() []*ToolCall {
	var calls []*ToolCall
	for _, r := range t.Records {
		if r.Kind == KindToolCall {
			calls = append(calls, r.Tool)
		}
	}
	return calls
}

// ReadFile parses the transcript at path.
func ReadFile(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: open: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		t.Source = abs
	} else {
		t.Source = path
	}
	return t, nil
}

// Read parses a transcript stream. Malformed and oversized lines are counted
// in Stats.Skipped and otherwise ignored; only I/O failures are returned.
func Read(r io.Reader) (*Transcript, error) {
	t := &Transcript{}
	pending := make(map[string]*ToolCall)
	br := bufio.NewReaderSize(r, 64*1024)

	for lineNo := 1; ; lineNo++ {
		raw, tooLong, terminated, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("transcript: read: %w", err)
		}
		if !terminated && len(raw) == 0 && !tooLong {
			break
		}
		line := bytes.TrimSpace(raw)

		switch {
		case len(line) == 0:
		case tooLong:
			t.Stats.Lines++
			t.Stats.Skipped++
		case !gjson.ValidBytes(line):
			if !terminated {
				// Partially written final line.
				return t, nil
			}
			t.Stats.Lines++
			t.Stats.Skipped++
		default:
			t.Stats.Lines++
			t.readEntry(gjson.ParseBytes(line), lineNo, pending)
		}
		t.Stats.Complete = lineNo

		if !terminated {
			break
		}
	}
	return t, nil
}

// readLine returns the next line without its newline. A line longer than
// maxLineSize is drained and reported as tooLong with no content.
// terminated is false for a final line that has no newline; at end of input
// it is false with an empty line.
func readLine(br *bufio.Reader) (line []byte, tooLong, terminated bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineSize+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		switch {
		case err == nil:
			return bytes.TrimSuffix(line, []byte("\n")), tooLong, true, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return line, tooLong, false, nil
		default:
			return nil, false, false, err
		}
	}
}

func (t *Transcript) readEntry(entry gjson.Result, lineNo int, pending map[string]*ToolCall) {
	t.captureMetadata(entry)

	ts := parseTimestamp(entry.Get("timestamp").String())
	switch entry.Get("type").String() {
	case "assistant":
		t.readAssistant(entry.Get("message.content"), ts, lineNo, pending)
	case "user":
		t.lastUserLine = lineNo
		t.readUser(entry.Get("message.content"), ts, lineNo, pending)
	}
}

// Settled returns the last line whose records can no longer change. It stops
// before a tool call at the tail that has no result yet, since the result
// may still be appended. A call followed by a later user entry will never be
// answered and does not hold the line back.
func (t *Transcript) Settled() int {
	settled := t.Stats.Complete
	for _, r := range t.Records {
		if r.Kind == KindToolCall && !r.Tool.Answered && r.Line > t.lastUserLine {
			if r.Line-1 < settled {
				settled = r.Line - 1
			}
			break
		}
	}
	return settled
}

func (t *Transcript) captureMetadata(entry gjson.Result) {
	if t.SessionID == "" {
		t.SessionID = entry.Get("sessionId").String()
	}
	if t.Branch == "" {
		t.Branch = entry.Get("gitBranch").String()
	}
	if t.Cwd == "" {
		t.Cwd = entry.Get("cwd").String()
	}
}

func (t *Transcript) readAssistant(content gjson.Result, ts time.Time, lineNo int, pending map[string]*ToolCall) {
	if content.Type == gjson.String {
		if text := strings.TrimSpace(content.String()); text != "" {
			t.Records = append(t.Records, Record{Kind: KindAssistantText, Text: text, Timestamp: ts, Line: lineNo})
		}
		return
	}

	content.ForEach(func(_, block gjson.Result) bool {
		switch block.Get("type").String() {
		case "text":
			if text := strings.TrimSpace(block.Get("text").String()); text != "" {
				t.Records = append(t.Records, Record{Kind: KindAssistantText, Text: text, Timestamp: ts, Line: lineNo})
			}
		case "tool_use":
			call := &ToolCall{
				ID:    block.Get("id").String(),
				Name:  block.Get("name").String(),
				Input: inputMap(block.Get("input")),
			}
			if call.ID != "" {
				pending[call.ID] = call
			}
			t.Records = append(t.Records, Record{Kind: KindToolCall, Tool: call, Timestamp: ts, Line: lineNo})
		}
		return true
	})
}

func (t *Transcript) readUser(content gjson.Result, ts time.Time, lineNo int, pending map[string]*ToolCall) {
	if content.Type == gjson.String {
		if text := strings.TrimSpace(content.String()); text != "" {
			t.Records = append(t.Records, Record{Kind: KindUserMessage, Text: text, Timestamp: ts, Line: lineNo})
		}
		return
	}

	content.ForEach(func(_, block gjson.Result) bool {
		switch block.Get("type").String() {
		case "text":
			if text := strings.TrimSpace(block.Get("text").String()); text != "" {
				t.Records = append(t.Records, Record{Kind: KindUserMessage, Text: text, Timestamp: ts, Line: lineNo})
			}
		case "tool_result":
			call, ok := pending[block.Get("tool_use_id").String()]
			if !ok {
				return true
			}
			call.Result = resultText(block.Get("content"))
			call.IsError = block.Get("is_error").Bool()
			call.Answered = true
			delete(pending, call.ID)
		}
		return true
	})
}

// resultText flattens a tool_result content value, which is either a string
// or an array of text blocks.
func resultText(content gjson.Result) string {
	if !content.IsArray() {
		return content.String()
	}
	var parts []string
	content.ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").String() == "text" {
			parts = append(parts, block.Get("text").String())
		}
		return true
	})
	return strings.Join(parts, "\n")
}

func inputMap(input gjson.Result) map[string]any {
	if !input.IsObject() {
		return map[string]any{}
	}
	m, ok := input.Value().(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
