// Package enhance adds model-written coaching text to a generated program. The
// deterministic plan is always the fallback: any failure returns it unchanged.
package enhance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/llm"
	"alcyxob/movement-program/internal/logger"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"
)

// ErrEnhancementDiscarded marks a model response that was not used. It is logged,
// never returned to callers of Enhance.
var ErrEnhancementDiscarded = errors.New("enhancement discarded")

const DefaultTimeout = 5 * time.Second

type Options struct {
	Timeout        time.Duration
	QuotaPerMinute int           // 0 disables the quota
	Limiter        *rate.Limiter // Overrides QuotaPerMinute
}

// Enhancer is safe for concurrent use.
type Enhancer struct {
	client  llm.Client // nil means passthrough
	timeout time.Duration
	limiter *rate.Limiter
	schema  map[string]any
	checker *jsonschema.Schema
	log     *logger.Logger
}

// New builds an Enhancer. A nil client yields a passthrough enhancer.
func New(client llm.Client, opts Options, log *logger.Logger) (*Enhancer, error) {
	schema := responseSchema()
	checker, err := compileSchema(schema)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limiter := opts.Limiter
	if limiter == nil && opts.QuotaPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.QuotaPerMinute)), opts.QuotaPerMinute)
	}

	return &Enhancer{
		client:  client,
		timeout: timeout,
		limiter: limiter,
		schema:  schema,
		checker: checker,
		log:     log.With("service", "Enhancer"),
	}, nil
}

// Enabled reports whether a model client is configured.
func (e *Enhancer) Enabled() bool {
	return e != nil && e.client != nil
}

// Enhance returns an enhanced copy of plan, or plan itself when enhancement is
// disabled or the model output is rejected. It never fails.
func (e *Enhancer) Enhance(ctx context.Context, plan *domain.Program, profile domain.UserProgramProfile) *domain.Program {
	if !e.Enabled() || plan == nil {
		return plan
	}

	start := time.Now()
	enhanced, err := e.attempt(ctx, plan, profile)
	if err != nil {
		e.log.Warn("Enhancement discarded",
			"error", fmt.Errorf("%w: %w", ErrEnhancementDiscarded, err).Error(),
			"provider", e.client.Provider(),
			"scoring_version", plan.ScoringVersion,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return plan
	}
	e.log.Info("Program enhanced",
		"provider", e.client.Provider(),
		"fingerprint", enhanced.Fingerprint,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return enhanced
}

func (e *Enhancer) attempt(ctx context.Context, plan *domain.Program, profile domain.UserProgramProfile) (*domain.Program, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("model quota: %w", err)
		}
	}

	user, err := buildUserPrompt(plan, profile)
	if err != nil {
		return nil, err
	}
	raw, err := e.client.GenerateJSON(ctx, systemPrompt, user, schemaName, e.schema)
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Validate(plan, profile, raw)
}
