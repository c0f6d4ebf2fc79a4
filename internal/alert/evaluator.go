package alert

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/futusense/futusense/internal/core"
)

// Evaluator compares consecutive records per symbol and fires events
// through its notifiers. A per-symbol-per-kind cooldown absorbs bands
// oscillating around a threshold between closely spaced runs.
type Evaluator struct {
	notifiers []Notifier
	cooldown  time.Duration
	logger    *zap.Logger

	lastFired map[string]time.Time

	// For testing: allow time control
	now func() time.Time

	mu sync.Mutex
}

// NewEvaluator creates an evaluator over the given notifiers.
func NewEvaluator(notifiers []Notifier, cooldown time.Duration, logger *zap.Logger) *Evaluator {
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		notifiers: notifiers,
		cooldown:  cooldown,
		logger:    logger,
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Observe compares the previous record with the current one and fires
// whatever changed. A nil previous record fires nothing: the first
// sighting of a symbol is not a change.
func (e *Evaluator) Observe(prev, cur *core.FusionRecord) {
	if prev == nil || cur == nil || len(e.notifiers) == 0 {
		return
	}

	if prev.Sentiment.Band != cur.Sentiment.Band {
		e.fire(Event{
			Kind:       KindBandChange,
			Symbol:     cur.Symbol,
			Date:       cur.Date,
			From:       string(prev.Sentiment.Band),
			To:         string(cur.Sentiment.Band),
			Index:      cur.Sentiment.Index,
			Confidence: cur.Agents.Final.Confidence,
		})
	}

	prevDir, okPrev := planDirection(prev.Plan)
	curDir, okCur := planDirection(cur.Plan)
	if okPrev && okCur && prevDir != curDir {
		e.fire(Event{
			Kind:       KindDirectionChange,
			Symbol:     cur.Symbol,
			Date:       cur.Date,
			From:       string(prevDir),
			To:         string(curDir),
			Index:      cur.Sentiment.Index,
			Confidence: cur.Agents.Final.Confidence,
		})
	}
}

// planDirection reads the swing-horizon direction; all horizons share
// one direction when the plan is present.
func planDirection(plan core.TradePlan) (core.Direction, bool) {
	if plan.Status == core.StatusUnavailable || plan.Swing == nil {
		return "", false
	}
	return plan.Swing.Direction, true
}

func (e *Evaluator) fire(event Event) {
	e.mu.Lock()
	key := event.Symbol.ID + "/" + string(event.Kind)
	now := e.now()
	if last, ok := e.lastFired[key]; ok && now.Sub(last) < e.cooldown {
		e.mu.Unlock()
		return
	}
	e.lastFired[key] = now
	e.mu.Unlock()

	event.At = now
	for _, n := range e.notifiers {
		if err := n.Send(event); err != nil {
			e.logger.Warn("alert delivery failed",
				zap.String("notifier", n.Name()),
				zap.String("symbol", event.Symbol.ID),
				zap.Error(err))
		}
	}
}
