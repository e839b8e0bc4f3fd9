package groq

import (
	"context"
	"fmt"
	"strings"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

const evaluateSystemMsg = `You grade answers given in a mock job interview.

Output ONLY a valid JSON object, no markdown, no backticks:
{"rating": "excellent" | "good" | "average" | "poor", "feedback": "string"}

Rules:
- Compare the candidate's transcript with the model answer. The transcript comes from speech recognition, so ignore filler words and minor transcription errors.
- "excellent": covers all key concepts correctly. "good": mostly correct with small gaps. "average": partially correct. "poor": wrong, off-topic or empty.
- "feedback" is 1-3 sentences addressed to the candidate saying what was good and what was missing.
`

func (c *Client) EvaluateAnswer(ctx context.Context, question, expected, transcript string) (model.Evaluation, error) {
	user := fmt.Sprintf("Question:\n%s\n\nModel answer:\n%s\n\nCandidate transcript:\n%s\n",
		clip(question, maxQuestionLen), clip(expected, maxAnswerLen), clip(transcript, maxAnswerLen))

	var ev model.Evaluation
	if err := c.chatJSON(ctx, evaluateSystemMsg, user, 500, &ev); err != nil {
		return model.Evaluation{}, err
	}
	ev.Rating = model.Rating(strings.ToLower(strings.TrimSpace(string(ev.Rating))))
	if !ev.Rating.Valid() {
		return model.Evaluation{}, fmt.Errorf("model returned unknown rating %q", ev.Rating)
	}
	ev.Feedback = strings.TrimSpace(ev.Feedback)
	return ev, nil
}
