// Package engine runs adaptive assessment sessions. One generic state
// machine serves every skill; skills differ only in their SkillConfig:
// the difficulty rule, the item factory, the budget and the batch size.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/difficulty"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/logging"
)

// Evaluation is a scorer's judgment of an open response.
type Evaluation struct {
	Grade              difficulty.Grade
	PredictedLevel     string
	Feedback           string
	PronunciationScore *float64

	// Transcript, when set, replaces the submitted transcript in the
	// answer log, e.g. after ASR clean-up.
	Transcript string
}

// Scorer grades responses to items without options, e.g. speaking.
type Scorer interface {
	Score(ctx context.Context, item itemgen.Item, ans Answer) (Evaluation, error)
}

// SummarySink receives session snapshots worth persisting.
type SummarySink interface {
	Record(ctx context.Context, s *Session) error
}

// SkillConfig parameterizes the state machine for one skill.
type SkillConfig struct {
	Skill itemgen.Skill

	// DefaultStart is used when Start is called without a level.
	DefaultStart cefr.Level

	// ForcedStart, when set, overrides any requested start level.
	ForcedStart *cefr.Level

	// Total is the item budget; BatchSize the items presented at once.
	Total     int
	BatchSize int

	// GenerateSize is the number of items requested per factory call,
	// when larger than BatchSize. Items not yet presented wait in the
	// session's pending queue.
	GenerateSize int

	Rule    difficulty.Rule
	Factory itemgen.Factory

	// Scorer grades open responses. Required when the factory produces
	// items without options.
	Scorer Scorer

	// PersistEachTurn sends a snapshot to the sink after every turn, not
	// only when the session finishes.
	PersistEachTurn bool

	// CompactOnFinish stores only the counters and the summary of a
	// finished session. Later submissions still see it as ended until
	// Sweep evicts it.
	CompactOnFinish bool
}

func (c SkillConfig) validate() error {
	switch {
	case c.Total < 1:
		return fmt.Errorf("%s: total must be positive", c.Skill)
	case c.BatchSize < 1:
		return fmt.Errorf("%s: batch size must be positive", c.Skill)
	case c.GenerateSize != 0 && c.GenerateSize < c.BatchSize:
		return fmt.Errorf("%s: generate size below batch size", c.Skill)
	case c.Rule == nil:
		return fmt.Errorf("%s: no difficulty rule", c.Skill)
	case c.Factory == nil:
		return fmt.Errorf("%s: no item factory", c.Skill)
	case !c.DefaultStart.Valid():
		return fmt.Errorf("%s: invalid default start level", c.Skill)
	}
	return nil
}

func (c SkillConfig) generateSize() int {
	return max(c.BatchSize, c.GenerateSize)
}

// Options configures an Engine.
type Options struct {
	Skills map[itemgen.Skill]SkillConfig

	// Repo defaults to a MemoryRepository.
	Repo Repository

	// Sink may be nil.
	Sink SummarySink

	// Logger defaults to a no-op logger.
	Logger *logging.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Engine drives sessions for every configured skill.
type Engine struct {
	skills map[itemgen.Skill]SkillConfig
	repo   Repository
	sink   SummarySink
	log    *logging.Logger
	now    func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New validates opts and creates an engine.
func New(opts Options) (*Engine, error) {
	if len(opts.Skills) == 0 {
		return nil, errors.New("engine: no skills configured")
	}
	skills := make(map[itemgen.Skill]SkillConfig, len(opts.Skills))
	for sk, cfg := range opts.Skills {
		cfg.Skill = sk
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		skills[sk] = cfg
	}

	e := &Engine{
		skills:   skills,
		repo:     opts.Repo,
		sink:     opts.Sink,
		log:      opts.Logger,
		now:      opts.Clock,
		inflight: make(map[string]struct{}),
	}
	if e.repo == nil {
		e.repo = NewMemoryRepository()
	}
	if e.log == nil {
		e.log = logging.Nop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Skills returns the configured skills in name order.
func (e *Engine) Skills() []itemgen.Skill {
	out := make([]itemgen.Skill, 0, len(e.skills))
	for sk := range e.skills {
		out = append(out, sk)
	}
	slices.Sort(out)
	return out
}

// Config returns the configuration of one skill.
func (e *Engine) Config(skill itemgen.Skill) (SkillConfig, bool) {
	cfg, ok := e.skills[skill]
	return cfg, ok
}

// Start opens a session for username and generates its first batch.
// startLevel may be empty to use the skill default; it is ignored when the
// skill forces a start level.
func (e *Engine) Start(ctx context.Context, username string, skill itemgen.Skill, startLevel string) (*Turn, error) {
	cfg, ok := e.skills[skill]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, skill)
	}

	level := cfg.DefaultStart
	switch {
	case cfg.ForcedStart != nil:
		level = *cfg.ForcedStart
	case strings.TrimSpace(startLevel) != "":
		l, err := cefr.Parse(startLevel)
		if err != nil {
			return nil, err
		}
		level = l
	}

	now := e.now().UTC()
	s := &Session{
		ID:         uuid.NewString(),
		Username:   username,
		Skill:      skill,
		StartLevel: level,
		Level:      level,
		Total:      cfg.Total,
		Phase:      PhaseActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := fill(ctx, cfg, s); err != nil {
		return nil, err
	}
	if err := e.repo.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if cfg.PersistEachTurn {
		e.record(ctx, s)
	}

	e.log.Info("session started", "session", s.ID, "user", username, "skill", skill, "level", level)
	return newTurn(s, nil), nil
}

// Submit applies one or more answers to the active batch. All answers are
// validated before any is applied. When the batch is used up and budget
// remains, the next batch is generated at the adapted level; when the
// budget is exhausted the session is finalized. If generation or scoring
// fails the stored session is left exactly as it was.
func (e *Engine) Submit(ctx context.Context, username, sessionID string, answers ...Answer) (*Turn, error) {
	if !e.acquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer e.release(sessionID)

	s, err := e.load(ctx, username, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Finished() {
		return nil, ErrSessionAlreadyEnded
	}
	cfg, ok := e.skills[s.Skill]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, s.Skill)
	}
	if len(answers) == 0 {
		return nil, &UnknownItemError{}
	}
	if err := validateAnswers(s, answers); err != nil {
		return nil, err
	}

	next := s.Clone()
	now := e.now().UTC()
	results := make([]AnswerRecord, 0, len(answers))

	for _, ans := range answers {
		item, _ := next.ActiveItem(ans.ItemID)
		rec, outcome, err := e.evaluate(ctx, cfg, item, ans)
		if err != nil {
			return nil, err
		}

		next.History = append(next.History, outcome)
		next.Asked++
		next.removeActive(item.ID)
		next.Level = cfg.Rule.Next(next.Level, next.History)

		rec.Number = next.Asked
		rec.LevelAfter = next.Level
		rec.AnsweredAt = now
		next.Answers = append(next.Answers, rec)
		results = append(results, rec)
	}

	if next.Asked >= next.Total {
		next.Level = difficulty.Final(cfg.Rule, next.Level, next.History)
		next.Phase = PhaseFinished
		next.Active = nil
		next.Pending = nil
		// The final bump lands after the last answer was logged.
		results[len(results)-1].LevelAfter = next.Level
		next.Answers[len(next.Answers)-1].LevelAfter = next.Level
		sum := Finalize(next)
		next.Summary = &sum
	} else if len(next.Active) == 0 {
		if err := fill(ctx, cfg, next); err != nil {
			e.log.Warn("next batch generation failed", "session", s.ID, "level", next.Level, "error", err)
			return nil, err
		}
	}
	next.UpdatedAt = now

	stored := next
	if next.Finished() && cfg.CompactOnFinish {
		stored = next.compact()
	}
	if err := e.repo.Put(ctx, stored); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if next.Finished() || cfg.PersistEachTurn {
		e.record(ctx, next)
	}

	if next.Finished() {
		e.log.Info("session finished", "session", next.ID, "skill", next.Skill,
			"start_level", next.StartLevel, "final_level", next.Level,
			"correct", next.Summary.Correct, "total", next.Total)
	} else {
		e.log.Debug("answers recorded", "session", next.ID, "asked", next.Asked, "level", next.Level)
	}
	return newTurn(next, results), nil
}

// fill presents the next batch, drawing from the pending queue and
// calling the factory only once the queue is empty.
func fill(ctx context.Context, cfg SkillConfig, s *Session) error {
	if len(s.Pending) == 0 {
		items, err := cfg.Factory.GenerateBatch(ctx, s.Level, min(cfg.generateSize(), s.Remaining()))
		if err != nil {
			return err
		}
		s.Pending = items
	}
	n := min(cfg.BatchSize, s.Remaining(), len(s.Pending))
	s.Active = slices.Clone(s.Pending[:n])
	s.Pending = slices.Clone(s.Pending[n:])
	s.Shown = append(s.Shown, s.Active...)
	return nil
}

func validateAnswers(s *Session, answers []Answer) error {
	seen := make(map[string]bool, len(answers))
	for _, ans := range answers {
		item, ok := s.ActiveItem(ans.ItemID)
		if !ok || seen[ans.ItemID] {
			return &UnknownItemError{ItemID: ans.ItemID}
		}
		seen[ans.ItemID] = true
		if item.MultipleChoice() && (ans.Choice < 0 || ans.Choice >= len(item.Options)) {
			return &InvalidChoiceError{ItemID: ans.ItemID, Choice: ans.Choice, Options: len(item.Options)}
		}
	}
	return nil
}

// evaluate grades one answer. Choice items are correct by exact index
// equality; open items are graded by the skill's scorer, and count as
// correct only when graded better than their level.
func (e *Engine) evaluate(ctx context.Context, cfg SkillConfig, item itemgen.Item, ans Answer) (AnswerRecord, difficulty.Outcome, error) {
	rec := AnswerRecord{
		ItemID:       item.ID,
		Choice:       ans.Choice,
		CorrectIndex: item.CorrectIndex,
		Rationale:    item.Rationale,
		Level:        item.Level,
		ExamTag:      item.ExamTag,
	}

	if item.MultipleChoice() {
		rec.Correct = ans.Choice == item.CorrectIndex
		return rec, difficulty.Outcome{Correct: rec.Correct}, nil
	}

	if cfg.Scorer == nil {
		return rec, difficulty.Outcome{}, fmt.Errorf("%s: no scorer for open items", cfg.Skill)
	}
	ev, err := cfg.Scorer.Score(ctx, item, ans)
	if err != nil {
		return rec, difficulty.Outcome{}, fmt.Errorf("score answer: %w", err)
	}
	if _, ok := difficulty.ParseGrade(string(ev.Grade)); !ok {
		ev.Grade = difficulty.GradeEqual
	}

	rec.Choice = -1
	rec.CorrectIndex = -1
	rec.Grade = ev.Grade
	rec.Correct = ev.Grade == difficulty.GradeBetter
	rec.Transcript = ans.Transcript
	if ev.Transcript != "" {
		rec.Transcript = ev.Transcript
	}
	rec.Feedback = ev.Feedback
	rec.PredictedLevel = ev.PredictedLevel
	rec.PronunciationScore = ev.PronunciationScore
	return rec, difficulty.Outcome{Correct: rec.Correct, Grade: ev.Grade}, nil
}

// Get returns a copy of the session.
func (e *Engine) Get(ctx context.Context, username, sessionID string) (*Session, error) {
	return e.load(ctx, username, sessionID)
}

// Summary returns the final summary of a finished session, or a
// provisional one for an active session as if it ended now.
func (e *Engine) Summary(ctx context.Context, username, sessionID string) (*Summary, error) {
	s, err := e.load(ctx, username, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Finished() && s.Summary != nil {
		return s.Summary, nil
	}
	sum := provisional(s, e.skills[s.Skill].Rule)
	return &sum, nil
}

// provisional summarizes an active session with the final adjustment
// applied to a copy.
func provisional(s *Session, rule difficulty.Rule) Summary {
	c := s.Clone()
	if rule != nil {
		c.Level = difficulty.Final(rule, c.Level, c.History)
	}
	return Finalize(c)
}

// Sweep removes sessions not updated within idle and returns how many
// were removed. Sessions with a submission in flight are left alone.
func (e *Engine) Sweep(ctx context.Context, idle time.Duration) (int, error) {
	sessions, err := e.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := e.now().Add(-idle)
	removed := 0
	for _, s := range sessions {
		if !s.UpdatedAt.Before(cutoff) || !e.acquire(s.ID) {
			continue
		}
		err := e.repo.Remove(ctx, s.ID)
		e.release(s.ID)
		if err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		e.log.Info("idle sessions evicted", "count", removed, "idle", idle.String())
	}
	return removed, nil
}

func (e *Engine) load(ctx context.Context, username, sessionID string) (*Session, error) {
	s, err := e.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Username != username {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// record hands a snapshot to the sink. Persistence problems are logged
// and never fail the turn.
func (e *Engine) record(ctx context.Context, s *Session) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Record(ctx, s); err != nil {
		e.log.Warn("persist session summary failed", "session", s.ID, "error", err)
	}
}

func (e *Engine) acquire(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[id]; busy {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

func (e *Engine) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, id)
}
