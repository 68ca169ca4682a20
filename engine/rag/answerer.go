package rag

import (
	"context"
	"fmt"
	"strings"
)

// FallbackAnswer is the fixed sentinel returned when the retrieved context
// cannot answer the question. The prompt instructs the model to emit it, and
// an empty retrieval short-circuits to it without calling the model.
const FallbackAnswer = "I don't have enough information."

// SafeErrorAnswer is the fixed user-facing string for infrastructure
// failures inside Query. Details are logged, never surfaced.
const SafeErrorAnswer = "Error: Unable to generate response."

// promptTemplate grounds the model strictly in the retrieved context.
const promptTemplate = `You are a helpful financial analyst assistant for CrediTrust.
Answer the question based ONLY on the following context.
If the answer is not in the context, say "I don't have enough information."

Context:
%s

Question:
%s

Answer:`

// answer renders the grounded prompt and invokes the generation model
// through the circuit breaker.
func (s *Service) answer(ctx context.Context, question string, sources []Source) (string, error) {
	if len(sources) == 0 {
		return FallbackAnswer, nil
	}

	prompt := fmt.Sprintf(promptTemplate, buildContext(sources, s.opts.MaxContextChars), question)

	var reply string
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var genErr error
		reply, genErr = s.gen.Generate(ctx, prompt)
		return genErr
	})
	if err != nil {
		return "", fmt.Errorf("rag: generate: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// buildContext joins chunk texts in retrieval order, separated by blank
// lines, within the character budget. When the budget is exceeded the
// lowest-ranked chunks are dropped first; the top-ranked chunk is never
// dropped, only tail-truncated if it alone exceeds the budget.
func buildContext(sources []Source, maxChars int) string {
	var b strings.Builder
	for i, src := range sources {
		sep := 0
		if i > 0 {
			sep = 2
		}
		if b.Len()+sep+len(src.Text) > maxChars {
			if i == 0 {
				return src.Text[:maxChars]
			}
			break
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(src.Text)
	}
	return b.String()
}
