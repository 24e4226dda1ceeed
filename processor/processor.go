// Package processor holds the post-acceptance text transforms and the
// chain that applies them. Transforms are pure text-to-text functions;
// every phrase choice is keyed off a hash of the local text so the same
// input always yields the same output.
package processor

import (
	"hash/fnv"

	"go.uber.org/zap"

	"inkforge/content"
)

// Name identifies a processor in configuration and in Content metadata.
type Name string

const (
	NameHumanizer  Name = "humanizer"
	NameEngagement Name = "engagement"
	NamePlatform   Name = "platform"
)

// Result is a processor's output: the transformed text plus any advice it
// wants surfaced alongside the final content.
type Result struct {
	Text  string
	Tips  []string
	Notes []string
}

// Processor transforms text for a request. Implementations must be pure;
// an error means the transform is skipped, never that the pipeline stops.
type Processor interface {
	Name() Name
	Apply(text string, req content.Request) (Result, error)
}

// Chain applies processors left to right; the output of one is the input
// to the next.
type Chain struct {
	procs  []Processor
	logger *zap.Logger
}

// ChainOutput is the accumulated result of running a chain.
type ChainOutput struct {
	Text    string
	Applied []string
	Tips    []string
	Notes   []string
}

// NewChain builds a chain in the given order. A nil logger is replaced
// with a no-op one.
func NewChain(logger *zap.Logger, procs ...Processor) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{procs: procs, logger: logger}
}

// DefaultChain is the fixed default order: humanizer, engagement
// optimizer, platform optimizer. The platform pass must run last because
// the earlier passes may alter paragraph structure it reformats. enabled
// filters the set without changing relative positions; nil enables all.
func DefaultChain(logger *zap.Logger, enabled []Name) *Chain {
	all := []Processor{NewHumanizer(), NewEngagementOptimizer(), NewPlatformOptimizer()}
	if enabled == nil {
		return NewChain(logger, all...)
	}
	on := make(map[Name]bool, len(enabled))
	for _, n := range enabled {
		on[n] = true
	}
	var procs []Processor
	for _, p := range all {
		if on[p.Name()] {
			procs = append(procs, p)
		}
	}
	return NewChain(logger, procs...)
}

// Run feeds text through the chain. A failing processor is logged and
// skipped; the chain continues with the next one.
func (c *Chain) Run(text string, req content.Request) ChainOutput {
	out := ChainOutput{Text: text}
	for _, p := range c.procs {
		res, err := p.Apply(out.Text, req)
		if err != nil {
			c.logger.Warn("processor failed, skipping",
				zap.String("processor", string(p.Name())),
				zap.Error(err))
			continue
		}
		out.Text = res.Text
		out.Applied = append(out.Applied, string(p.Name()))
		out.Tips = append(out.Tips, res.Tips...)
		out.Notes = append(out.Notes, res.Notes...)
	}
	return out
}

// pick deterministically selects an index in [0, n) from the seed text.
func pick(seed string, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(seed))
	return int(h.Sum32() % uint32(n))
}
