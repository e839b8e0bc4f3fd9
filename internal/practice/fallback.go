package practice

import (
	"context"

	"go.uber.org/zap"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

// FallbackCoach asks primary first and falls back to secondary on error.
type FallbackCoach struct {
	primary   Coach
	secondary Coach
	logger    *zap.Logger
}

func NewFallbackCoach(primary, secondary Coach, logger *zap.Logger) *FallbackCoach {
	return &FallbackCoach{primary: primary, secondary: secondary, logger: logger}
}

func (f *FallbackCoach) GenerateQuestions(ctx context.Context, setup model.InterviewSetup, n int) ([]model.GeneratedQuestion, error) {
	qs, err := f.primary.GenerateQuestions(ctx, setup, n)
	if err == nil && len(qs) > 0 {
		return qs, nil
	}
	f.logger.Warn("question generation failed, using question bank",
		zap.String("round", setup.Round),
		zap.Int("count", n),
		zap.Error(err),
	)
	return f.secondary.GenerateQuestions(ctx, setup, n)
}

func (f *FallbackCoach) EvaluateAnswer(ctx context.Context, question, expected, transcript string) (model.Evaluation, error) {
	ev, err := f.primary.EvaluateAnswer(ctx, question, expected, transcript)
	if err == nil {
		return ev, nil
	}
	f.logger.Warn("answer evaluation failed, using keyword grading", zap.Error(err))
	return f.secondary.EvaluateAnswer(ctx, question, expected, transcript)
}
