// Package agent hosts the three scoring agents (macro, symbol, market).
// Each is a stateless function of its input slice and the as-of date:
// an LLM attempt under a hard timeout, validated against the output
// contract, falling through deterministically to the heuristic scorer.
// No error ever escapes an agent; the worst outcome is an explicit
// unavailable result.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futusense/futusense/internal/core"
	"github.com/futusense/futusense/internal/llm"
	"github.com/futusense/futusense/internal/news"
	"go.uber.org/zap"
)

const maxTitles = 30

// Config wires the scoring agents.
type Config struct {
	Provider   llm.Provider // nil disables the LLM path
	Timeout    time.Duration
	Lexicon    Lexicon
	News       news.Params
	Logger     *zap.Logger
	OnFallback func(agent, reason string) // invoked when the LLM path fails
}

// Agents runs the macro, symbol and market scorers.
type Agents struct {
	provider   llm.Provider
	timeout    time.Duration
	heuristic  *Heuristic
	logger     *zap.Logger
	onFallback func(agent, reason string)
}

// New creates the agent set.
func New(cfg Config) *Agents {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.Lexicon.Bull) == 0 && len(cfg.Lexicon.Bear) == 0 {
		cfg.Lexicon = DefaultLexicon()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agents{
		provider:   cfg.Provider,
		timeout:    cfg.Timeout,
		heuristic:  NewHeuristic(cfg.Lexicon, news.NewWeighter(cfg.News)),
		logger:     logger,
		onFallback: cfg.OnFallback,
	}
}

const scoringSystemPrompt = `You are a trading sentiment scoring agent.
Respond with a JSON object containing exactly these fields and no others:
index (number, -1 to 1), confidence (number, 0.5 to 0.95), rationale (array of at most 5 short strings).
Use only the facts and figures given in the input. If data is missing, say so in the rationale and lower the confidence. Never invent numbers.`

// Macro scores global, non-symbol news.
func (a *Agents) Macro(ctx context.Context, asof time.Time, items []core.NewsItem) core.AgentResult {
	prompt := newsPrompt("Global macro news headlines", asof, items)
	return a.score(ctx, "macro", prompt, len(items) > 0, func() core.AgentResult {
		return a.heuristic.ScoreNews(items, asof)
	})
}

// SymbolNews scores news tagged to one symbol.
func (a *Agents) SymbolNews(ctx context.Context, sym core.Symbol, asof time.Time, items []core.NewsItem) core.AgentResult {
	prompt := newsPrompt(fmt.Sprintf("News headlines for %s", sym.Name), asof, items)
	return a.score(ctx, "symbol", prompt, len(items) > 0, func() core.AgentResult {
		return a.heuristic.ScoreNews(items, asof)
	})
}

// Market scores the precomputed technical scalars plus whatever
// fundamentals modules are present. Raw OHLCV never reaches the prompt.
func (a *Agents) Market(ctx context.Context, sym core.Symbol, asof time.Time, price core.PriceSnapshot, fundamentals core.FundamentalsSnapshot) core.AgentResult {
	attemptLLM := price.Status == core.StatusOK
	prompt := marketPrompt(sym, asof, price, fundamentals)
	result := a.score(ctx, "market", prompt, attemptLLM, func() core.AgentResult {
		return a.heuristic.ScoreMarket(price, fundamentals)
	})

	// The fundamentals ceiling applies to both paths.
	if result.Status != core.StatusUnavailable && !fundamentals.Available() {
		if result.Confidence > degradedFundamentalsCeiling {
			result.Confidence = degradedFundamentalsCeiling
		}
		if result.Reason == "" {
			result.Reason = "fundamentals missing"
		}
	}
	return result
}

// score runs the LLM-then-heuristic chain for one agent.
func (a *Agents) score(ctx context.Context, name, prompt string, attemptLLM bool, fallback func() core.AgentResult) core.AgentResult {
	if a.provider == nil || !attemptLLM {
		return fallback()
	}

	result, err := a.callLLM(ctx, prompt)
	if err == nil {
		return result
	}

	reason := "llm_invalid_output"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, core.ErrLLMTimeout) {
		reason = "llm_timeout"
	} else if !errors.Is(err, core.ErrValidationFailed) {
		reason = "llm_error"
	}
	a.logger.Warn("agent falling back to heuristic",
		zap.String("agent", name),
		zap.String("reason", reason),
		zap.Error(err),
	)
	if a.onFallback != nil {
		a.onFallback(name, reason)
	}

	fb := fallback()
	if fb.Status == core.StatusOK {
		// A fallback after a failed LLM attempt is usable but degraded.
		fb.Status = core.StatusDegraded
		if fb.Reason == "" {
			fb.Reason = reason
		}
	}
	return fb
}

// callLLM performs one bounded LLM request and validates the output.
// No retry: a retry, if any, belongs to the provider, not here.
func (a *Agents) callLLM(parent context.Context, prompt string) (core.AgentResult, error) {
	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()

	resp, err := a.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: scoringSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:    1024,
		Temperature:  0.2,
		JSONMode:     true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return core.AgentResult{}, core.WrapError(core.ErrLLMTimeout, err)
		}
		return core.AgentResult{}, core.WrapError(core.ErrLLMFailed, err)
	}
	return validateLLM(resp.Content)
}

func newsPrompt(heading string, asof time.Time, items []core.NewsItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Date: %s\n%s:\n", asof.Format("2006-01-02"), heading)
	for i, it := range items {
		if i >= maxTitles {
			break
		}
		title := it.Title
		if len(title) > 200 {
			title = title[:200]
		}
		fmt.Fprintf(&sb, "- %s\n", title)
	}
	sb.WriteString("Score the overall trading sentiment of these headlines.\n")
	return sb.String()
}

func marketPrompt(sym core.Symbol, asof time.Time, price core.PriceSnapshot, fundamentals core.FundamentalsSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Date: %s, instrument: %s.\n", asof.Format("2006-01-02"), sym.Name)
	sb.WriteString("Authoritative technical signals (cite only these values):\n")
	fmt.Fprintf(&sb, "close=%.4f ma20=%.4f ma60=%.4f atr14=%.6f", price.Close, price.MA20, price.MA60, price.ATR14)
	if price.VolRatio20 > 0 {
		fmt.Fprintf(&sb, " vol_ratio20=%.4f", price.VolRatio20)
	} else {
		sb.WriteString(" vol_ratio20=unknown")
	}
	sb.WriteString("\nFundamentals modules:\n")
	for _, name := range []string{core.ModuleInventory, core.ModuleSpotBasis, core.ModuleRollYield, core.ModulePositionsRank} {
		m, ok := fundamentals.Modules[name]
		if !ok {
			fmt.Fprintf(&sb, "- %s: absent\n", name)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s", name, m.Status)
		if m.Hint != "" {
			fmt.Fprintf(&sb, " (%s)", m.Hint)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Combine the technical and fundamental picture into one sentiment score.\n")
	return sb.String()
}
