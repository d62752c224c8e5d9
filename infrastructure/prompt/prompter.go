// Package prompt answers engine prompts on behalf of clients that cannot
// be asked interactively.
package prompt

import (
	"context"

	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
)

type answerKey struct{}

type answer struct {
	text      string
	dismissed bool
}

// WithAnswer attaches the reply to the next prompt raised under ctx
func WithAnswer(ctx context.Context, text string) context.Context {
	return context.WithValue(ctx, answerKey{}, answer{text: text})
}

// WithDismissed makes prompts raised under ctx report a cancelled dialog
func WithDismissed(ctx context.Context) context.Context {
	return context.WithValue(ctx, answerKey{}, answer{dismissed: true})
}

// ContextPrompter implements ports.Prompter from answers carried by the
// request context. Without one the suggested default is accepted.
type ContextPrompter struct {
	logger *zap.Logger
}

// NewContextPrompter creates a prompter
func NewContextPrompter(logger *zap.Logger) *ContextPrompter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextPrompter{logger: logger}
}

// Prompt implements ports.Prompter
func (p *ContextPrompter) Prompt(ctx context.Context, req ports.PromptRequest) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	a, ok := ctx.Value(answerKey{}).(answer)
	switch {
	case !ok:
		p.logger.Debug("Prompt answered with default",
			zap.String("message", req.Message), zap.String("default", req.Default))
		return req.Default, true, nil
	case a.dismissed:
		return "", false, nil
	default:
		return a.text, true, nil
	}
}
