// Package ats estimates how well a résumé matches a job offer, the way an
// applicant tracking system would screen it.
package ats

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/embedding"
	"github.com/spigell/matchcv/internal/logger"
)

type Level string

const (
	Excellent Level = "Excellent"
	Good      Level = "Good"
	Average   Level = "Average"
	Weak      Level = "Weak"
)

// Result is the score of one résumé against one offer.
type Result struct {
	Score  int    `json:"score"`
	Level  Level  `json:"level"`
	Color  string `json:"color"`
	Advice string `json:"advice"`
}

type band struct {
	min    int
	level  Level
	color  string
	advice string
}

// bands are ordered by decreasing lower bound; the bound is inclusive.
var bands = []band{
	{min: 75, level: Excellent, color: "#6EE7B7", advice: "Votre profil correspond très bien à ce poste. Postulez en confiance !"},
	{min: 55, level: Good, color: "#FBBF24", advice: "Bon alignement. L'adaptation IA va maximiser vos chances."},
	{min: 35, level: Average, color: "#F97316", advice: "Plusieurs écarts détectés. L'adaptation IA est fortement recommandée."},
	{min: 0, level: Weak, color: "#F472B6", advice: "Profil peu aligné. L'IA va retravailler en profondeur votre CV."},
}

// ResultFor bands a 0-100 score.
func ResultFor(score int) Result {
	for _, b := range bands {
		if score >= b.min {
			return Result{Score: score, Level: b.level, Color: b.color, Advice: b.advice}
		}
	}
	last := bands[len(bands)-1]
	return Result{Score: score, Level: last.level, Color: last.color, Advice: last.advice}
}

// Strategy computes a raw similarity, nominally in [0, 1].
type Strategy interface {
	Name() string
	Raw(ctx context.Context, candidateText, offerText string) (float64, error)
}

type Scorer struct {
	strategy Strategy
	logger   *zap.Logger
}

// New selects the strategy once: embeddings when the handle yields a working
// embedder, keywords otherwise. An unavailable embedder is not an error.
func New(ctx context.Context, handle *embedding.Handle, log *zap.Logger) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}

	var strategy Strategy = KeywordStrategy{}
	if embedder, err := handle.Get(ctx); err == nil {
		strategy = NewEmbeddingStrategy(embedder)
	} else {
		log.Info("embedding backend unavailable, using keyword scoring", zap.String("reason", err.Error()))
	}

	return NewWithStrategy(strategy, log)
}

func NewWithStrategy(strategy Strategy, log *zap.Logger) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{
		strategy: strategy,
		logger:   logger.WithFields(log, zap.String(logger.FieldStrategy, strategy.Name())),
	}
}

func (s *Scorer) Strategy() string { return s.strategy.Name() }

// Score rates candidateText against offerText. An offer without meaningful
// content scores 0. Callers reject empty inputs beforehand.
func (s *Scorer) Score(ctx context.Context, candidateText, offerText string) (Result, error) {
	if strings.TrimSpace(offerText) == "" {
		return ResultFor(0), nil
	}

	raw, err := s.strategy.Raw(ctx, candidateText, offerText)
	if err != nil {
		return Result{}, err
	}

	result := ResultFor(toScore(raw))
	logger.WithRequestID(s.logger, logger.RequestIDFromContext(ctx)).Debug("ats score computed",
		zap.Float64("raw", raw),
		zap.Int("score", result.Score),
		zap.String("level", string(result.Level)),
	)

	return result, nil
}

// toScore clamps raw to [0, 1] and scales it to a whole percentage, rounding
// half to even.
func toScore(raw float64) int {
	if math.IsNaN(raw) {
		return 0
	}
	clamped := math.Max(0, math.Min(1, raw))
	return int(math.RoundToEven(clamped * 100))
}
