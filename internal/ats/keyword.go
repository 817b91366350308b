package ats

import (
	"context"
	"math"
)

const (
	// keywordBoost spreads the usual 0.1-0.5 overlap over the display range.
	keywordBoost   = 2.2
	keywordCeiling = 0.98
)

// KeywordStrategy scores the lexical overlap of the offer's words with the résumé.
// It needs no external service.
type KeywordStrategy struct{}

func (KeywordStrategy) Name() string { return "keyword" }

func (KeywordStrategy) Raw(_ context.Context, candidateText, offerText string) (float64, error) {
	return math.Min(Overlap(candidateText, offerText)*keywordBoost, keywordCeiling), nil
}

// Overlap returns the share of offer words, repeats included, that the résumé
// covers. Each distinct word counts at most as often as it appears in the résumé.
func Overlap(candidateText, offerText string) float64 {
	offerTokens := Tokenize(offerText)
	if len(offerTokens) == 0 {
		return 0
	}

	cvCounts := counts(Tokenize(candidateText))
	offerCounts := counts(offerTokens)

	matched := 0
	for word, inOffer := range offerCounts {
		if inCV, ok := cvCounts[word]; ok {
			matched += min(inCV, inOffer)
		}
	}

	return float64(matched) / float64(len(offerTokens))
}

func counts(tokens []string) map[string]int {
	out := make(map[string]int, len(tokens))
	for _, t := range tokens {
		out[t]++
	}
	return out
}
