package groq

import (
	"context"
	"fmt"
	"strings"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

const questionsSystemMsg = `You are an experienced technical interviewer preparing a mock interview.

Output ONLY a valid JSON object, no markdown, no backticks, with this schema:
{
  "questions": [
    {"question": "string", "correct_answer": "string"}
  ]
}

Rules:
- Return exactly the number of questions requested.
- Every question must be answerable verbally in about one minute.
- "correct_answer" is a concise model answer (2-4 sentences) naming the key concepts a strong candidate mentions.
- Match the round type:
    • "Coding" for algorithm and data structure problems explained verbally
    • "Technical Theory" for concepts of the language or role
    • "Scenario" for situational and behavioural questions
    • "Mix" for a blend of all three
- Match the difficulty: "Beginner" for fundamentals, "Professional" for in-depth experience.
- Never repeat a question.
`

type generatedQuestions struct {
	Questions []model.GeneratedQuestion `json:"questions"`
}

func (c *Client) GenerateQuestions(ctx context.Context, setup model.InterviewSetup, n int) ([]model.GeneratedQuestion, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Number of questions: %d\n", n)
	fmt.Fprintf(&b, "Interview mode: %s\n", setup.Mode)
	if setup.Mode == model.ModeSpecific {
		fmt.Fprintf(&b, "Job role: %s\n", clip(setup.Role, maxQuestionLen))
		fmt.Fprintf(&b, "Job description:\n%s\n", clip(setup.JobDescription, maxDescriptionLen))
	} else {
		fmt.Fprintf(&b, "Language or technology: %s\n", clip(setup.Topic(), maxQuestionLen))
	}
	fmt.Fprintf(&b, "Candidate experience: %s\n", clip(setup.Experience, maxQuestionLen))
	fmt.Fprintf(&b, "Round: %s\n", setup.Round)
	fmt.Fprintf(&b, "Difficulty: %s\n", setup.Difficulty)

	var out generatedQuestions
	if err := c.chatJSON(ctx, questionsSystemMsg, b.String(), 4000, &out); err != nil {
		return nil, err
	}

	qs := make([]model.GeneratedQuestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		q.Question = strings.TrimSpace(q.Question)
		q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
		if q.Question == "" || q.CorrectAnswer == "" {
			continue
		}
		qs = append(qs, q)
		if len(qs) == n {
			break
		}
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("model returned no usable questions")
	}
	return qs, nil
}
