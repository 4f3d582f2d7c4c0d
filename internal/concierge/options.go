package concierge

import (
	"time"

	"campus-concierge/internal/common/config"
)

type Options struct {
	Weights           Weights
	KB                KBWeights
	AllowLLM          bool
	LLMTimeout        time.Duration
	ContextTimeout    time.Duration
	DirectLookupLimit int
}

func DefaultOptions() Options {
	return Options{
		Weights:           DefaultWeights(),
		KB:                DefaultKBWeights(),
		AllowLLM:          true,
		LLMTimeout:        10 * time.Second,
		ContextTimeout:    4 * time.Second,
		DirectLookupLimit: 3,
	}
}

// OptionsFromConfig overlays non-zero config values on DefaultOptions.
func OptionsFromConfig(cfg config.ConciergeConfig) Options {
	opts := DefaultOptions()
	opts.AllowLLM = cfg.LLMAllowed()

	if cfg.LLMTimeout > 0 {
		opts.LLMTimeout = time.Duration(cfg.LLMTimeout) * time.Millisecond
	}
	if cfg.ContextTimeout > 0 {
		opts.ContextTimeout = time.Duration(cfg.ContextTimeout) * time.Millisecond
	}
	if cfg.DirectLookupLimit > 0 {
		opts.DirectLookupLimit = cfg.DirectLookupLimit
	}

	s := cfg.Scoring
	override(&opts.Weights.Alias, s.AliasScore)
	override(&opts.Weights.Exact, s.ExactScore)
	override(&opts.Weights.Contains, s.ContainsScore)
	override(&opts.Weights.NameToken, s.NameTokenScore)
	override(&opts.Weights.IDToken, s.IDTokenScore)
	override(&opts.Weights.TextToken, s.TextTokenScore)
	override(&opts.Weights.Confidence, s.ConfidenceThreshold)
	override(&opts.KB.Pattern, s.KBPatternScore)
	override(&opts.KB.Keyword, s.KBKeywordScore)
	override(&opts.KB.Threshold, s.KBThreshold)
	return opts
}

func override(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}
