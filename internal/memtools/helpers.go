// Package memtools provides MCP tool handlers for session memory.
//
// Each tool handler follows the same pattern:
//   - A struct holding the store configuration, injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() opens the store for the duration of one request, does its
//     work and returns a result
//
// Validation and precondition failures are reported as tool errors
// (mcp.NewToolResultError), never as Go errors.
package memtools

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// listArg accepts either a JSON array of strings or a comma-separated string.
// Blank entries are dropped.
func listArg(req mcp.CallToolRequest, key string) []string {
	var raw []string
	switch v := req.GetArguments()[key].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	case []string:
		raw = v
	}
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// idsArg parses observation ids from an array of numbers or a
// comma-separated string. A leading '#' is tolerated.
func idsArg(req mcp.CallToolRequest, key string) ([]int64, error) {
	var ids []int64
	for _, s := range listArg(req, key) {
		id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid observation id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// sinceArg parses an RFC 3339 timestamp or a YYYY-MM-DD date. Empty means
// no lower bound.
func sinceArg(req mcp.CallToolRequest, key string) (time.Time, error) {
	s := strings.TrimSpace(req.GetString(key, ""))
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("'%s' must be RFC 3339 or YYYY-MM-DD, got %q", key, s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
