package handler

import (
	"errors"
	"math"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/practice"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/repository"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/response"
)

const (
	msgInterviewNotFound = "Interview not found"
	msgQuestionNotFound  = "Question not found in interview"

	defaultPageSize = 20
	maxPageSize     = 100
	// keeps (page-1)*page_size from overflowing
	maxPage = math.MaxInt32 / maxPageSize
)

var errQuestionNotFound = errors.New("question not found in interview")

func trimSetup(req *model.GenerateQuestionsReq) {
	req.InterviewID = strings.TrimSpace(req.InterviewID)
	req.Mode = model.Mode(strings.ToLower(strings.TrimSpace(string(req.Mode))))
	req.Language = strings.TrimSpace(req.Language)
	req.Role = strings.TrimSpace(req.Role)
	req.Experience = strings.TrimSpace(req.Experience)
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	req.SelectedRound = strings.TrimSpace(req.SelectedRound)
	req.Difficulty = strings.TrimSpace(req.Difficulty)
	req.Duration = strings.TrimSpace(req.Duration)
}

// validateSetup returns the client message for an incomplete setup form.
func validateSetup(req *model.GenerateQuestionsReq) string {
	switch req.Mode {
	case "":
		req.Mode = model.ModeGeneral
	case model.ModeGeneral, model.ModeSpecific:
	default:
		return "mode must be general or specific"
	}
	if req.Mode == model.ModeGeneral && req.Language == "" {
		return "language is required"
	}
	if req.Mode == model.ModeSpecific {
		if req.Role == "" {
			return "role is required"
		}
		if req.JobDescription == "" {
			return "jobDescription is required"
		}
	}
	if req.Experience == "" {
		return "experience is required"
	}
	if req.SelectedRound == "" {
		req.SelectedRound = practice.RoundMix
	}
	if req.Difficulty == "" {
		req.Difficulty = "Beginner"
	}
	return ""
}

func questionList(iv *model.Interview) []model.QuestionRes {
	out := make([]model.QuestionRes, 0, len(iv.Responses))
	for i, r := range iv.Responses {
		out = append(out, model.QuestionRes{Index: i, Question: r.Question, Answered: r.Answered()})
	}
	return out
}

// GenerateQuestions creates an interview with a fixed list of questions
// for the submitted setup.
func (h *Handler) GenerateQuestions(c *gin.Context) {
	var req model.GenerateQuestionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Sugar().Warnw("generate questions bad request", "err", err)
		response.BadRequest(c, msgInvalidBody)
		return
	}
	trimSetup(&req)
	if msg := validateSetup(&req); msg != "" {
		response.BadRequest(c, msg)
		return
	}

	ctx := c.Request.Context()
	if req.InterviewID != "" {
		if _, err := uuid.Parse(req.InterviewID); err != nil {
			response.BadRequest(c, "interviewId must be a valid UUID")
			return
		}
		_, err := h.Repository.GetInterviewByID(ctx, req.InterviewID)
		if err == nil {
			response.Conflict(c, "Interview already exists")
			return
		}
		if !errors.Is(err, repository.ErrNotFound) {
			h.Logger.Error("interview lookup failed", zap.String("interview_id", req.InterviewID), zap.Error(err))
			response.InternalError(c, "")
			return
		}
	}

	iv := &model.Interview{
		InterviewID:    req.InterviewID,
		Mode:           req.Mode,
		Role:           req.Role,
		Language:       req.Language,
		Experience:     req.Experience,
		JobDescription: req.JobDescription,
		Round:          req.SelectedRound,
		Difficulty:     req.Difficulty,
		Duration:       req.Duration,
	}
	if claims := h.GetClaimsFromContext(c); claims != nil {
		userID := claims.UserID
		iv.UserID = &userID
	}

	n := practice.QuestionCount(req.Duration)
	qs, err := h.Coach.GenerateQuestions(ctx, iv.Setup(), n)
	if err != nil || len(qs) == 0 {
		h.Logger.Error("question generation failed",
			zap.String("round", iv.Round),
			zap.Int("count", n),
			zap.Error(err),
		)
		response.InternalError(c, "Failed to generate questions")
		return
	}
	iv.Responses = make([]model.MockResponse, 0, len(qs))
	for _, q := range qs {
		iv.Responses = append(iv.Responses, model.MockResponse{Question: q.Question, CorrectAnswer: q.CorrectAnswer})
	}

	if err := h.Repository.CreateInterview(ctx, iv); err != nil {
		if errors.Is(err, repository.ErrDuplicateInterview) {
			response.Conflict(c, "Interview already exists")
			return
		}
		h.Logger.Error("failed to create interview", zap.Error(err))
		response.InternalError(c, "")
		return
	}

	response.Created(c, "Questions generated successfully", gin.H{
		"interviewId": iv.InterviewID,
		"questions":   questionList(iv),
	})
}

// loadInterview fetches the interview named by the :id path parameter and
// writes the error response when it cannot.
func (h *Handler) loadInterview(c *gin.Context) (*model.Interview, bool) {
	id := strings.TrimSpace(c.Param("id"))
	iv, err := h.Repository.GetInterviewByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, msgInterviewNotFound)
			return nil, false
		}
		h.Logger.Error("failed to load interview", zap.String("interview_id", id), zap.Error(err))
		response.InternalError(c, "")
		return nil, false
	}
	return iv, true
}

// GetQuestions lists the questions of an interview without their expected answers.
func (h *Handler) GetQuestions(c *gin.Context) {
	iv, ok := h.loadInterview(c)
	if !ok {
		return
	}
	response.OK(c, "", gin.H{
		"interviewId": iv.InterviewID,
		"role":        iv.Role,
		"round":       iv.Round,
		"difficulty":  iv.Difficulty,
		"questions":   questionList(iv),
	})
}

// RecordAnswerText grades a transcript and stores it on its question.
func (h *Handler) RecordAnswerText(c *gin.Context) {
	var req model.RecordAnswerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, msgInvalidBody)
		return
	}
	req.InterviewID = strings.TrimSpace(req.InterviewID)
	req.Transcript = strings.TrimSpace(req.Transcript)
	if req.InterviewID == "" || strings.TrimSpace(req.QuestionText) == "" || req.Transcript == "" {
		response.BadRequest(c, "interviewId, questionText and transcript are required")
		return
	}

	ctx := c.Request.Context()
	iv, err := h.Repository.GetInterviewByID(ctx, req.InterviewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, msgInterviewNotFound)
			return
		}
		h.Logger.Error("failed to load interview", zap.String("interview_id", req.InterviewID), zap.Error(err))
		response.InternalError(c, "")
		return
	}
	idx := practice.FindQuestion(iv, req.QuestionText)
	if idx < 0 {
		response.NotFound(c, msgQuestionNotFound)
		return
	}
	question := iv.Responses[idx]

	// grading can call out to the model, so it happens before the update
	ev, err := h.Coach.EvaluateAnswer(ctx, question.Question, question.CorrectAnswer, req.Transcript)
	if err != nil {
		h.Logger.Error("answer evaluation failed", zap.String("interview_id", iv.InterviewID), zap.Error(err))
		response.InternalError(c, "Failed to evaluate answer")
		return
	}

	var saved model.MockResponse
	updated, err := h.Repository.UpdateInterview(ctx, iv.InterviewID, func(cur *model.Interview) error {
		r, ok := practice.ApplyAnswer(cur, req.QuestionText, req.Transcript, ev, h.now())
		if !ok {
			return errQuestionNotFound
		}
		saved = r
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.NotFound(c, msgInterviewNotFound)
		case errors.Is(err, errQuestionNotFound):
			response.NotFound(c, msgQuestionNotFound)
		default:
			h.Logger.Error("failed to record answer", zap.String("interview_id", iv.InterviewID), zap.Error(err))
			response.InternalError(c, "")
		}
		return
	}

	response.OK(c, "Answer recorded", gin.H{
		"userAnswer": model.AnswerRes{
			QuestionText: saved.Question,
			Transcript:   saved.UserAnswer,
			Feedback:     saved.Feedback,
			Rating:       saved.Rating,
			AnsweredAt:   saved.AnsweredAt,
		},
		"score": updated.Score,
	})
}

// GetFeedback returns the answered questions as a bare array.
func (h *Handler) GetFeedback(c *gin.Context) {
	iv, ok := h.loadInterview(c)
	if !ok {
		return
	}
	out := make([]model.AnswerRes, 0, iv.AnsweredCount())
	for _, r := range iv.Responses {
		if !r.Answered() {
			continue
		}
		out = append(out, model.AnswerRes{
			QuestionText:  r.Question,
			Transcript:    r.UserAnswer,
			CorrectAnswer: r.CorrectAnswer,
			Feedback:      r.Feedback,
			Rating:        r.Rating,
			AnsweredAt:    r.AnsweredAt,
		})
	}
	response.Raw(c, out)
}

func (h *Handler) GetInterview(c *gin.Context) {
	iv, ok := h.loadInterview(c)
	if !ok {
		return
	}
	response.OK(c, "", gin.H{"interview": iv.Summary()})
}

// ListInterviews pages through the caller's interviews, newest first.
func (h *Handler) ListInterviews(c *gin.Context) {
	var q model.ListInterviewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "page and page_size must be integers")
		return
	}
	claims := h.GetClaimsFromContext(c)
	if claims == nil {
		response.Unauthorized(c, "")
		return
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > maxPage {
		response.BadRequest(c, "page is out of range")
		return
	}
	limit := q.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset := (q.Page - 1) * limit

	ivs, total, err := h.Repository.ListInterviewByUser(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		h.Logger.Sugar().Errorw("list interviews failed", "user_id", claims.UserID, "err", err)
		response.InternalError(c, "")
		return
	}
	out := make([]model.InterviewSummaryRes, 0, len(ivs))
	for i := range ivs {
		out = append(out, ivs[i].Summary())
	}
	response.OK(c, "", gin.H{
		"interviews": out,
		"meta":       response.NewMeta(q.Page, limit, total),
	})
}
