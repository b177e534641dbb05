package capture

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/HendryAvila/recall/internal/memory"
	"github.com/HendryAvila/recall/internal/observation"
	"github.com/HendryAvila/recall/internal/transcript"
)

// Result summarizes one capture run. FromLine and ToLine bound the
// transcript lines classified by this run: (FromLine, ToLine].
type Result struct {
	SessionID   string `json:"session_id"`
	FromLine    int    `json:"from_line"`
	ToLine      int    `json:"to_line"`
	Records     int    `json:"records"`
	ToolCalls   int    `json:"tool_calls"`
	Ignored     int    `json:"ignored"`
	Drafts      int    `json:"drafts"`
	Saved       int    `json:"saved"`
	Recurrences int    `json:"recurrences"`
	Skipped     int    `json:"skipped_lines"`
}

func (r Result) String() string {
	return fmt.Sprintf("lines=%d-%d records=%d tool_calls=%d ignored=%d saved=%d recurrences=%d skipped_lines=%d",
		r.FromLine+1, r.ToLine, r.Records, r.ToolCalls, r.Ignored, r.Saved, r.Recurrences, r.Skipped)
}

// Pipeline turns a transcript into stored observations.
type Pipeline struct {
	cfg  memory.Config
	opts Options
}

// NewPipeline returns a pipeline writing to the store described by cfg.
func NewPipeline(cfg memory.Config, opts Options) *Pipeline {
	return &Pipeline{cfg: cfg, opts: opts}
}

// Classify filters and classifies every settled record of tr without
// touching the store.
func (p *Pipeline) Classify(tr *transcript.Transcript) ([]observation.Draft, Result) {
	return p.classifyRange(tr, 0, tr.Settled())
}

// classifyRange classifies records on lines (from, through]. Earlier tool
// calls only prime the filter's seen-set so a repeated read stays noise
// across runs.
func (p *Pipeline) classifyRange(tr *transcript.Transcript, from, through int) ([]observation.Draft, Result) {
	opts := p.opts
	if opts.ProjectRoot == "" {
		opts.ProjectRoot = tr.Cwd
	}
	classifier := NewClassifier(opts)
	filter := NewFilter()

	res := Result{FromLine: from, ToLine: through, Skipped: tr.Stats.Skipped}
	var drafts []observation.Draft

	for _, rec := range tr.Records {
		if rec.Line > through {
			break
		}
		if rec.Line <= from {
			if rec.Kind == transcript.KindToolCall {
				filter.Ignore(rec.Tool)
			}
			continue
		}
		res.Records++

		switch rec.Kind {
		case transcript.KindToolCall:
			res.ToolCalls++
			if filter.Ignore(rec.Tool) {
				res.Ignored++
				continue
			}
			if d := classifier.ClassifyTool(rec.Tool); d != nil {
				drafts = append(drafts, *d)
			}
			if d := classifier.DetectStructural(rec.Tool); d != nil {
				drafts = append(drafts, *d)
			}
		case transcript.KindAssistantText:
			drafts = append(drafts, classifier.ClassifyText(rec.Text)...)
		}
	}
	res.Drafts = len(drafts)
	return drafts, res
}

// source names tr for capture marks: its file path, else the host session
// id. An empty source disables marks.
func source(tr *transcript.Transcript) string {
	if tr.Source != "" {
		return tr.Source
	}
	if tr.SessionID != "" {
		return "session:" + tr.SessionID
	}
	return ""
}

// Run classifies the part of tr not yet captured into the target session
// and writes it in one transaction. An empty sessionID resolves to the
// active session; with none, nothing is written and
// memory.ErrNoActiveSession is returned. A named session must be active.
//
// Each session remembers how far every transcript has been captured, so a
// hook can run after every turn on a growing transcript and each event is
// recorded once.
func (p *Pipeline) Run(tr *transcript.Transcript, sessionID string) (*Result, error) {
	src := source(tr)
	settled := tr.Settled()
	var res Result

	err := memory.With(p.cfg, func(s *memory.Store) error {
		return s.InTx(func(s *memory.Store) error {
			target, err := resolveSession(s, sessionID)
			if err != nil {
				return err
			}

			from := 0
			if src != "" {
				if from, err = s.CaptureMark(target, src); err != nil {
					return err
				}
			}
			if from > settled {
				log.Warn().
					Str("source", src).
					Int("mark", from).
					Int("settled", settled).
					Msg("capture: transcript is shorter than its capture mark, lowering the mark")
				from = settled
			}

			var drafts []observation.Draft
			drafts, res = p.classifyRange(tr, from, settled)
			res.SessionID = target

			for _, d := range drafts {
				w, err := s.AddObservation(target, d)
				if err != nil {
					return fmt.Errorf("capture: save %s %q: %w", d.Type, d.Title, err)
				}
				if w.Recurred {
					res.Recurrences++
				} else {
					res.Saved++
				}
				log.Debug().
					Int64("id", w.ID).
					Str("type", string(d.Type)).
					Bool("recurred", w.Recurred).
					Str("visibility", string(w.Visibility)).
					Msg("capture: observation written")
			}

			if src != "" {
				return s.SetCaptureMark(target, src, settled)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session", res.SessionID).
		Int("from_line", res.FromLine).
		Int("to_line", res.ToLine).
		Int("saved", res.Saved).
		Int("recurrences", res.Recurrences).
		Int("ignored", res.Ignored).
		Msg("capture: transcript processed")
	return &res, nil
}

func resolveSession(s *memory.Store, sessionID string) (string, error) {
	if sessionID == "" {
		active, err := s.ActiveSession()
		if err != nil {
			return "", err
		}
		return active.ID, nil
	}
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return "", err
	}
	if sess.Status != memory.StatusActive {
		return "", fmt.Errorf("capture: session %s is %s: %w", sess.ID, sess.Status, memory.ErrSessionNotActive)
	}
	return sess.ID, nil
}

// RunFile reads the transcript at path and runs it.
func (p *Pipeline) RunFile(path, sessionID string) (*Result, error) {
	tr, err := transcript.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Run(tr, sessionID)
}
