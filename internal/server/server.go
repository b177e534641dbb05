// Package server wires the MCP tools, prompts and resources into one server.
//
// This is the composition root. Every handler receives the memory and
// capture configuration it needs and opens the store per call, so the
// server itself holds no database connection.
package server

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/recall/internal/config"
	"github.com/HendryAvila/recall/internal/memtools"
	"github.com/HendryAvila/recall/internal/prompts"
	"github.com/HendryAvila/recall/internal/resources"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name reported to hosts.
const Name = "recall"

// New creates the MCP server with all tools, prompts and resources
// registered.
func New(cfg *config.Config) (*server.MCPServer, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerMemoryTools(s, cfg)

	// --- Prompts ---

	recallPrompt := prompts.NewRecallBeforeFixPrompt()
	s.AddPrompt(recallPrompt.Definition(), recallPrompt.Handle)

	reviewPrompt := prompts.NewSessionReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(cfg.Memory())
	s.AddResource(resourceHandler.ActiveSessionResource(), resourceHandler.HandleActiveSession)

	return s, nil
}

// registerMemoryTools registers the ten memory tools.
func registerMemoryTools(s *server.MCPServer, cfg *config.Config) {
	mem := cfg.Memory()

	// --- Session lifecycle ---
	sessionStart := memtools.NewSessionStartTool(mem)
	s.AddTool(sessionStart.Definition(), sessionStart.Handle)

	sessionEnd := memtools.NewSessionEndTool(mem)
	s.AddTool(sessionEnd.Definition(), sessionEnd.Handle)

	sessions := memtools.NewSessionsTool(mem)
	s.AddTool(sessions.Definition(), sessions.Handle)

	// --- Ingest & capture ---
	ingest := memtools.NewIngestTool(mem)
	s.AddTool(ingest.Definition(), ingest.Handle)

	captureTool := memtools.NewCaptureTool(mem, cfg.Capture())
	s.AddTool(captureTool.Definition(), captureTool.Handle)

	// --- Retrieval ---
	search := memtools.NewSearchTool(mem)
	s.AddTool(search.Definition(), search.Handle)

	failures := memtools.NewFailuresTool(mem)
	s.AddTool(failures.Definition(), failures.Handle)

	timeline := memtools.NewTimelineTool(mem)
	s.AddTool(timeline.Definition(), timeline.Handle)

	getObs := memtools.NewGetObservationsTool(mem)
	s.AddTool(getObs.Definition(), getObs.Handle)

	// --- Statistics ---
	stats := memtools.NewStatsTool(mem)
	s.AddTool(stats.Definition(), stats.Handle)
}

// serverInstructions tells the host model how to use session memory.
func serverInstructions() string {
	return `You have access to recall, a session memory for coding work.

## How memory fills up

Call mem_session_start when work begins. Everything you learn from then on
is recorded against that session:
- The host's transcript is captured after each turn (mem_capture or the
  "recall capture" hook). File edits, plan and rule reads, test runs,
  commits, decisions and failed attempts become observations on their own.
- Use mem_ingest for anything the transcript will not show: a rule you
  checked by hand, a plan item you finished, a decision made out loud.

Saving the same thing twice is safe. A repeated observation is counted as a
recurrence instead of stored again, and results show how often it was seen.
Capturing after every turn records each transcript event once.

## Before you fix something

Call mem_failures with a short description of the problem. If an approach
already failed, do not repeat it. Then mem_search for related bugfixes and
decisions. The recall-before-fix prompt walks through this.

## Progressive disclosure

1. mem_search returns compact one-line results (detail_level: summary).
2. mem_timeline shows what happened around one observation.
3. mem_get_observations returns the full record for chosen IDs.

Start narrow and only ask for full detail on the observations you need.

## Privacy

Observations that touch secrets (.env files, credentials, tokens) are stored
as private. They are searchable here but excluded from exports.

## Ending

Call mem_session_end with a short summary when the work is done, or with
status abandoned if it was dropped.`
}
