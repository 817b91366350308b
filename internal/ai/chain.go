package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/logger"
	"github.com/spigell/matchcv/internal/resume"
	"github.com/spigell/matchcv/internal/utils"
)

const defaultMaxLogLength = 200

// Chain tries its providers one after another and returns the first
// adaptation that parses. Providers are never called in parallel and a
// failed provider is not retried.
type Chain struct {
	specs     []*Spec
	log       *zap.Logger
	maxLogLen int
	prompt    string
}

func NewChain(specs []*Spec, log *zap.Logger, maxLogLength int) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Chain{
		specs:     specs,
		log:       log,
		maxLogLen: maxLogLength,
		prompt:    SystemPrompt(),
	}
}

// Specs returns the configured providers in chain order.
func (c *Chain) Specs() []*Spec {
	return c.specs
}

// Adapt rewrites the résumé for the offer with the first provider that
// succeeds. It fails with *AllProvidersFailedError once every enabled
// provider failed.
func (c *Chain) Adapt(ctx context.Context, candidateText, offerText string) (*resume.Adaptation, error) {
	requestID := logger.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := logger.WithRequestID(c.log, requestID)

	failed := &AllProvidersFailedError{}
	for _, spec := range c.specs {
		if spec == nil || spec.Disabled {
			continue
		}

		attemptLog := logger.WithProvider(log, spec.Name, spec.Model)
		started := time.Now()

		adaptation, err := c.attempt(ctx, spec, attemptLog, candidateText, offerText)
		if err == nil {
			attemptLog.Info("adaptation generated",
				zap.Duration("took", time.Since(started)),
				zap.Int("added_keywords", len(adaptation.AddedKeywords)),
			)
			return adaptation, nil
		}

		failure := &AttemptError{Provider: spec.Name, Err: err}
		failed.Attempts = append(failed.Attempts, failure)
		failed.Last = failure

		if IsConfiguration(err) {
			attemptLog.Info("provider skipped", zap.Error(err))
		} else {
			var transportErr *TransportError
			rateLimited := errors.As(err, &transportErr) && transportErr.RateLimited()
			attemptLog.Warn("provider failed, trying next",
				zap.Error(err),
				zap.Bool("rate_limited", rateLimited),
				zap.Duration("took", time.Since(started)),
			)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("adaptation cancelled: %w", ctxErr)
		}
	}

	log.Error("all providers failed", zap.Int("attempts", len(failed.Attempts)))
	return nil, failed
}

func (c *Chain) attempt(ctx context.Context, spec *Spec, log *zap.Logger, candidateText, offerText string) (*resume.Adaptation, error) {
	if err := validateCredentials(spec.Name, spec.Credentials); err != nil {
		return nil, err
	}
	if spec.Provider == nil {
		return nil, &ConfigurationError{Provider: spec.Name, Reason: "backend non initialisé"}
	}

	userPrompt := BuildUserPrompt(candidateText, offerText, spec.budget())

	log.Debug("generate request",
		zap.Int("prompt_length", utf8.RuneCountInString(userPrompt)),
		zap.String("prompt_preview", utils.TruncateForLog(userPrompt, c.maxLogLen)),
	)

	callCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	raw, err := spec.Provider.Generate(callCtx, c.prompt, userPrompt)
	if err != nil {
		return nil, asProviderError(spec.Name, err)
	}

	log.Debug("generate response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	adaptation, err := ParseAdaptation(raw)
	if err != nil {
		return nil, err
	}

	adaptation.Provider = spec.Name
	return adaptation, nil
}

// asProviderError keeps typed errors and classifies anything else as a transport failure.
func asProviderError(provider string, err error) error {
	var (
		cfgErr       *ConfigurationError
		transportErr *TransportError
		parseErr     *ParseError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &transportErr), errors.As(err, &parseErr):
		return err
	default:
		return &TransportError{Provider: provider, Err: err}
	}
}
