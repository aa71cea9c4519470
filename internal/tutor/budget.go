package tutor

import (
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// per-message overhead of the chat format
const turnOverhead = 4

type TokenCounter func(text string) int

// NewTokenCounter loads the model's BPE encoding right away (downloading it
// when not cached). When it is unavailable an estimate of 4 chars per token is
// returned together with the error.
func NewTokenCounter(model string) (TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return EstimateTokens, err
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}

func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Budget trims the dialogue sent upstream. The session keeps everything.
type Budget struct {
	Limit int
	Count TokenCounter
}

// Fit keeps the system turn and the longest suffix of the remaining turns
// that fits into Limit. The newest turn is always kept.
func (b Budget) Fit(turns []Turn) []Turn {
	if b.Limit <= 0 || len(turns) <= 2 {
		return turns
	}
	count := b.Count
	if count == nil {
		count = EstimateTokens
	}

	total := count(turns[0].Content) + turnOverhead
	start := len(turns)
	for i := len(turns) - 1; i >= 1; i-- {
		cost := count(turns[i].Content) + turnOverhead
		if total+cost > b.Limit && i < len(turns)-1 {
			break
		}
		total += cost
		start = i
	}

	out := make([]Turn, 0, 1+len(turns)-start)
	out = append(out, turns[0])
	return append(out, turns[start:]...)
}
