// Package practice holds the mock interview rules: how many questions a
// session gets, how answers are graded and scored, and the built-in
// question bank used when no language model is configured.
package practice

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

type Generator interface {
	GenerateQuestions(ctx context.Context, setup model.InterviewSetup, n int) ([]model.GeneratedQuestion, error)
}

type Evaluator interface {
	EvaluateAnswer(ctx context.Context, question, expected, transcript string) (model.Evaluation, error)
}

// Coach generates questions and grades answers.
type Coach interface {
	Generator
	Evaluator
}

const DefaultQuestionCount = 5

// QuestionCount maps the duration picked in the setup form to a number of
// questions: 5 minutes → 5, 15 → 10, 30 → 15. Unknown durations get 5.
func QuestionCount(duration string) int {
	s := strings.TrimSpace(duration)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == 0 {
		return DefaultQuestionCount
	}
	if end > 0 {
		s = s[:end]
	}
	minutes, err := strconv.Atoi(s)
	if err != nil {
		return DefaultQuestionCount
	}
	switch minutes {
	case 15:
		return 10
	case 30:
		return 15
	}
	return DefaultQuestionCount
}

var ratingPoints = map[model.Rating]int{
	model.RatingExcellent: 100,
	model.RatingGood:      75,
	model.RatingAverage:   50,
	model.RatingPoor:      25,
}

func RatingPoints(r model.Rating) int {
	return ratingPoints[r]
}

// Score is the rounded mean of rating points over answered responses.
func Score(responses []model.MockResponse) int {
	total, answered := 0, 0
	for _, r := range responses {
		if !r.Answered() {
			continue
		}
		total += RatingPoints(r.Rating)
		answered++
	}
	if answered == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(answered)))
}

// OverallFeedback summarises a session for the candidate.
func OverallFeedback(iv *model.Interview) string {
	answered := iv.AnsweredCount()
	if answered == 0 {
		return ""
	}
	var advice string
	switch {
	case iv.Score >= 85:
		advice = "Excellent work. Your answers were complete and precise."
	case iv.Score >= 65:
		advice = "Good job. Tighten your answers by naming the key concepts explicitly."
	case iv.Score >= 45:
		advice = "Fair attempt. Review the expected answers and practise explaining them out loud."
	default:
		advice = "Keep practising. Study the expected answers before your next session."
	}
	return "You answered " + strconv.Itoa(answered) + " of " + strconv.Itoa(len(iv.Responses)) +
		" questions with an overall score of " + strconv.Itoa(iv.Score) + "/100. " + advice
}

// ApplyAnswer stores an evaluated transcript on the matching question and
// refreshes the score and summary. It returns false if the interview has no
// such question.
func ApplyAnswer(iv *model.Interview, questionText, transcript string, ev model.Evaluation, at time.Time) (model.MockResponse, bool) {
	idx := FindQuestion(iv, questionText)
	if idx < 0 {
		return model.MockResponse{}, false
	}
	answeredAt := at
	r := &iv.Responses[idx]
	r.UserAnswer = transcript
	r.Feedback = ev.Feedback
	r.Rating = ev.Rating
	r.AnsweredAt = &answeredAt

	iv.Score = Score(iv.Responses)
	iv.Feedback = OverallFeedback(iv)
	return *r, true
}

// FindQuestion returns the index of the response whose question matches
// text, ignoring surrounding whitespace and case, or -1.
func FindQuestion(iv *model.Interview, text string) int {
	want := strings.TrimSpace(text)
	for i, r := range iv.Responses {
		if strings.EqualFold(strings.TrimSpace(r.Question), want) {
			return i
		}
	}
	return -1
}
