// Package chat orchestrates the response resolution chain: blank-input
// check, semantic FAQ match, exact cache hit, and finally streamed
// generation with quality gating and persistence.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ChantelleAA/response-aigent/internal/cache"
	"github.com/ChantelleAA/response-aigent/internal/faq"
	"github.com/ChantelleAA/response-aigent/internal/llm"
	"github.com/ChantelleAA/response-aigent/internal/log"
	"github.com/ChantelleAA/response-aigent/internal/prompt"
	"github.com/ChantelleAA/response-aigent/internal/store"
)

// Fixed user-facing messages for the non-generated outcomes.
const (
	// msgAskForDetail is returned for blank or whitespace-only input.
	msgAskForDetail = "Could you share a bit more detail about your question so I can help?"

	// msgEngineFallback is returned when the generation engine fails.
	msgEngineFallback = "I apologize, but I'm having trouble generating a response right now. Please try again in a moment."

	// msgWeakFallback is returned when the engine produced nothing usable.
	msgWeakFallback = "I apologize, but I couldn't come up with a useful answer. Please try rephrasing your question."
)

// ErrAborted indicates the caller stopped the stream, either through
// context cancellation or by returning an error from the token callback.
// Aborted requests produce no fallback message and are never cached.
var ErrAborted = errors.New("response aborted by caller")

// Source identifies which stage of the resolution chain produced an answer.
type Source string

const (
	SourceSemantic  Source = "semantic_cache"
	SourceExact     Source = "exact_cache"
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// Result is the outcome of one resolved request.
type Result struct {
	Answer    string
	Source    Source
	RequestID string
}

// TokenCallback receives each answer fragment as it becomes available.
// Returning an error aborts the stream.
type TokenCallback func(ctx context.Context, token string) error

// Config carries the controller's collaborators and tuning knobs.
type Config struct {
	Cache     *cache.Cache
	Matcher   *faq.Matcher
	Assembler *prompt.Assembler
	Engine    llm.Engine
	Logger    log.Logger

	// Store is optional; nil disables persistence.
	Store       *store.Store
	QuestionLog *store.QuestionLog

	// Generation parameters passed to the engine.
	GenOptions llm.Options

	// TokenSafetyCap stops consumption after this many tokens even if
	// the engine never emits a stop condition. Must be positive.
	TokenSafetyCap int

	// MinAnswerWords is the quality bar below which a generated answer
	// is discarded. Must be positive.
	MinAnswerWords int

	// RetryConfig governs retries of stream initiation. Zero value uses
	// defaults.
	RetryConfig RetryConfig

	// RateLimiter proactively throttles engine calls. Nil disables.
	RateLimiter *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Cache == nil {
		return errors.New("cache is required")
	}
	if cfg.Matcher == nil {
		return errors.New("matcher is required")
	}
	if cfg.Assembler == nil {
		return errors.New("assembler is required")
	}
	if cfg.Engine == nil {
		return errors.New("engine is required")
	}
	if cfg.TokenSafetyCap <= 0 {
		return errors.New("token safety cap must be positive")
	}
	if cfg.MinAnswerWords <= 0 {
		return errors.New("minimum answer words must be positive")
	}
	return nil
}

// Controller resolves questions through the priority chain and owns the
// shared mutable state (answer cache, question log) on behalf of all
// concurrent callers.
//
// Controller is safe for concurrent use. Retrieval, embedding, and
// generation never run while a cache lock is held; the matcher works on
// a snapshot copied out of the cache.
type Controller struct {
	cache     *cache.Cache
	matcher   *faq.Matcher
	assembler *prompt.Assembler
	engine    llm.Engine
	st        *store.Store
	qlog      *store.QuestionLog
	logger    log.Logger

	genOpts     llm.Options
	safetyCap   int
	minWords    int
	retryConfig RetryConfig
	limiter     *rate.Limiter
}

// New creates a Controller from the given configuration.
func New(cfg Config) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid controller config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	qlog := cfg.QuestionLog
	if qlog == nil {
		qlog = store.NewQuestionLog(nil)
	}
	retryCfg := cfg.RetryConfig
	if retryCfg.MaxRetries == 0 && retryCfg.InitialInterval == 0 {
		retryCfg = DefaultRetryConfig()
	}

	return &Controller{
		cache:       cfg.Cache,
		matcher:     cfg.Matcher,
		assembler:   cfg.Assembler,
		engine:      cfg.Engine,
		st:          cfg.Store,
		qlog:        qlog,
		logger:      logger.With("component", "chat"),
		genOpts:     cfg.GenOptions,
		safetyCap:   cfg.TokenSafetyCap,
		minWords:    cfg.MinAnswerWords,
		retryConfig: retryCfg,
		limiter:     cfg.RateLimiter,
	}, nil
}

// Respond resolves one question. Each stage short-circuits the rest:
// blank input, semantic FAQ match, exact cache hit, then generation.
// Tokens from the generation path are forwarded to onToken as they
// arrive; earlier stages deliver the whole answer in one call. onToken
// may be nil when the caller only wants the final Result.
//
// The only error condition is caller abort (ErrAborted); every other
// failure resolves to a fallback message inside the Result.
func (c *Controller) Respond(ctx context.Context, question string, history []prompt.Turn, onToken TokenCallback) (Result, error) {
	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID)

	key := cache.Normalize(question)
	if key == "" {
		return c.deliver(ctx, Result{Answer: msgAskForDetail, Source: SourceFallback, RequestID: requestID}, onToken)
	}

	// The log measures demand, so every non-blank question is recorded
	// no matter which stage resolves it.
	c.qlog.Append(question)

	// Matching runs on a snapshot so no embedding call happens while
	// the cache lock is held.
	candidates := c.cache.Snapshot()
	if answer, ok := c.matcher.Match(ctx, question, candidates); ok {
		logger.Info("resolved by semantic match", "question_length", len(question))
		return c.deliver(ctx, Result{Answer: answer, Source: SourceSemantic, RequestID: requestID}, onToken)
	}

	if entry, ok := c.cache.Lookup(key); ok {
		logger.Info("resolved by exact cache hit", "question_length", len(question))
		return c.deliver(ctx, Result{Answer: entry.Answer, Source: SourceExact, RequestID: requestID}, onToken)
	}

	promptText := c.assembler.Assemble(ctx, question, history)

	text, emitted, err := c.generate(ctx, logger, promptText, onToken)
	if err != nil {
		if errors.Is(err, ErrAborted) {
			logger.Info("request aborted", "tokens_emitted", emitted)
			return Result{Source: SourceGenerated, RequestID: requestID}, err
		}
		logger.Warn("generation failed", "error", err, "tokens_emitted", emitted)
		return c.deliver(ctx, Result{Answer: msgEngineFallback, Source: SourceFallback, RequestID: requestID}, onToken)
	}

	answer := strings.TrimSpace(text)
	if len(strings.Fields(answer)) < c.minWords {
		logger.Warn("discarding weak answer", "length", len(answer))
		return c.deliver(ctx, Result{Answer: msgWeakFallback, Source: SourceFallback, RequestID: requestID}, onToken)
	}

	c.cache.Insert(key, answer, time.Now())
	c.persist()

	logger.Info("resolved by generation", "tokens", emitted, "answer_length", len(answer))
	return Result{Answer: answer, Source: SourceGenerated, RequestID: requestID}, nil
}

// generate drives the engine stream, retrying initiation failures.
// A failure is an initiation failure only while no token has been
// forwarded; once output reached the caller the stream is not
// restartable and errors are final.
func (c *Controller) generate(ctx context.Context, logger log.Logger, promptText string, onToken TokenCallback) (string, int, error) {
	var lastErr error
	delay := c.retryConfig.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", 0, fmt.Errorf("%w: %w", ErrAborted, err)
			}
		}

		text, emitted, err := c.consumeStream(ctx, promptText, onToken)
		if err == nil {
			logger.Debug("stream completed", "attempts", attempt+1, "elapsed", time.Since(start))
			return text, emitted, nil
		}
		if errors.Is(err, ErrAborted) || emitted > 0 || !retryableError(err) {
			return text, emitted, err
		}

		lastErr = err
		if attempt == c.retryConfig.MaxRetries {
			break
		}

		logger.Debug("retrying stream initiation", "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return "", 0, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, c.retryConfig.MaxInterval)
		}
	}

	return "", 0, fmt.Errorf("stream failed after %d retries (elapsed %v): %w",
		c.retryConfig.MaxRetries, time.Since(start), lastErr)
}

// consumeStream pulls tokens until completion, engine failure, caller
// abort, or the safety cap. The accumulated text mirrors exactly what
// was forwarded to onToken.
func (c *Controller) consumeStream(ctx context.Context, promptText string, onToken TokenCallback) (string, int, error) {
	var b strings.Builder
	emitted := 0

	for token, err := range c.engine.Stream(ctx, promptText, c.genOpts) {
		if err != nil {
			if ctx.Err() != nil {
				return b.String(), emitted, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
			}
			return b.String(), emitted, err
		}
		if token == "" {
			continue
		}
		if ctx.Err() != nil {
			return b.String(), emitted, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		}
		if onToken != nil {
			if cbErr := onToken(ctx, token); cbErr != nil {
				return b.String(), emitted, fmt.Errorf("%w: %w", ErrAborted, cbErr)
			}
		}
		b.WriteString(token)
		emitted++
		if emitted >= c.safetyCap {
			c.logger.Warn("token safety cap reached", "cap", c.safetyCap)
			break
		}
	}

	return b.String(), emitted, nil
}

// deliver flushes a synchronously resolved answer through onToken and
// returns the result. A callback abort on this path still resolves the
// request; the answer is already final.
func (c *Controller) deliver(ctx context.Context, res Result, onToken TokenCallback) (Result, error) {
	if onToken != nil && res.Answer != "" {
		if err := onToken(ctx, res.Answer); err != nil {
			return res, fmt.Errorf("%w: %w", ErrAborted, err)
		}
	}
	return res, nil
}

// persist writes the cache and question log snapshots to disk. Runs
// outside any cache lock; failures were already logged by the store.
func (c *Controller) persist() {
	if c.st == nil {
		return
	}
	_ = c.st.SaveCache(c.cache.Snapshot())
	_ = c.st.SaveQuestionLog(c.qlog.Snapshot())
}

// SaveState performs the best-effort shutdown flush.
func (c *Controller) SaveState() {
	c.persist()
}

// CacheSize reports the current number of cached answers.
func (c *Controller) CacheSize() int {
	return c.cache.Size()
}

// QuestionCount reports how many questions have been logged.
func (c *Controller) QuestionCount() int {
	return c.qlog.Len()
}
