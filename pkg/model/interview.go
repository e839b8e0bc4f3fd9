package model

import "time"

type Mode string

const (
	ModeGeneral  Mode = "general"
	ModeSpecific Mode = "specific"
)

type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingAverage   Rating = "average"
	RatingPoor      Rating = "poor"
)

// Valid reports whether r is one of the known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingExcellent, RatingGood, RatingAverage, RatingPoor:
		return true
	}
	return false
}

type MockResponse struct {
	Question      string     `json:"question" bson:"question"`
	CorrectAnswer string     `json:"correct_answer" bson:"correct_answer"`
	UserAnswer    string     `json:"user_answer" bson:"user_answer"`
	Feedback      string     `json:"feedback" bson:"feedback"`
	Rating        Rating     `json:"rating,omitempty" bson:"rating,omitempty"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty" bson:"answered_at,omitempty"`
}

func (m MockResponse) Answered() bool {
	return m.AnsweredAt != nil
}

type Interview struct {
	InterviewID    string         `json:"interview_id" bson:"_id"`
	UserID         *string        `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Mode           Mode           `json:"mode" bson:"mode"`
	Role           string         `json:"role" bson:"role"`
	Language       string         `json:"language" bson:"language"`
	Experience     string         `json:"experience" bson:"experience"`
	JobDescription string         `json:"job_description" bson:"job_description"`
	Round          string         `json:"round" bson:"round"`
	Difficulty     string         `json:"difficulty" bson:"difficulty"`
	Duration       string         `json:"duration" bson:"duration"`
	Responses      []MockResponse `json:"responses" bson:"responses"`
	Score          int            `json:"score" bson:"score"`
	Feedback       string         `json:"feedback" bson:"feedback"`
	Version        int64          `json:"-" bson:"version"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" bson:"updated_at"`
}

// Setup returns the parameters the questions were generated from.
func (i *Interview) Setup() InterviewSetup {
	return InterviewSetup{
		Mode:           i.Mode,
		Role:           i.Role,
		Language:       i.Language,
		Experience:     i.Experience,
		JobDescription: i.JobDescription,
		Round:          i.Round,
		Difficulty:     i.Difficulty,
		Duration:       i.Duration,
	}
}

// AnsweredCount returns how many questions have a recorded answer.
func (i *Interview) AnsweredCount() int {
	n := 0
	for _, r := range i.Responses {
		if r.Answered() {
			n++
		}
	}
	return n
}

// InterviewSetup is what a candidate chooses before questions are generated.
type InterviewSetup struct {
	Mode           Mode
	Role           string
	Language       string
	Experience     string
	JobDescription string
	Round          string
	Difficulty     string
	Duration       string
}

// Topic is the subject questions are about: the job role for specific
// interviews and the language/technology for general ones.
func (s InterviewSetup) Topic() string {
	if s.Mode == ModeSpecific && s.Role != "" {
		return s.Role
	}
	if s.Language != "" {
		return s.Language
	}
	return s.Role
}

// GeneratedQuestion is a question with the answer it is graded against.
type GeneratedQuestion struct {
	Question      string `json:"question" yaml:"question"`
	CorrectAnswer string `json:"correct_answer" yaml:"answer"`
}

// Evaluation is the grading of one transcript.
type Evaluation struct {
	Rating   Rating `json:"rating"`
	Feedback string `json:"feedback"`
}

type GenerateQuestionsReq struct {
	InterviewID    string `json:"interviewId"`
	Mode           Mode   `json:"mode"`
	Language       string `json:"language"`
	Role           string `json:"role"`
	Experience     string `json:"experience"`
	JobDescription string `json:"jobDescription"`
	SelectedRound  string `json:"selectedRound"`
	Difficulty     string `json:"difficulty"`
	Duration       string `json:"duration"`
}

type QuestionRes struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Answered bool   `json:"answered"`
}

type RecordAnswerReq struct {
	InterviewID  string `json:"interviewId"`
	QuestionText string `json:"questionText"`
	Transcript   string `json:"transcript"`
}

type AnswerRes struct {
	QuestionText  string     `json:"questionText"`
	Transcript    string     `json:"transcript"`
	CorrectAnswer string     `json:"correctAnswer,omitempty"`
	Feedback      string     `json:"feedback"`
	Rating        Rating     `json:"rating"`
	AnsweredAt    *time.Time `json:"answeredAt"`
}

type InterviewSummaryRes struct {
	InterviewID    string    `json:"interviewId"`
	Mode           Mode      `json:"mode"`
	Role           string    `json:"role"`
	Language       string    `json:"language"`
	Experience     string    `json:"experience"`
	JobDescription string    `json:"jobDescription"`
	Round          string    `json:"round"`
	Difficulty     string    `json:"difficulty"`
	Duration       string    `json:"duration"`
	TotalQuestions int       `json:"totalQuestions"`
	Answered       int       `json:"answered"`
	Score          int       `json:"score"`
	Feedback       string    `json:"feedback"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (i *Interview) Summary() InterviewSummaryRes {
	return InterviewSummaryRes{
		InterviewID:    i.InterviewID,
		Mode:           i.Mode,
		Role:           i.Role,
		Language:       i.Language,
		Experience:     i.Experience,
		JobDescription: i.JobDescription,
		Round:          i.Round,
		Difficulty:     i.Difficulty,
		Duration:       i.Duration,
		TotalQuestions: len(i.Responses),
		Answered:       i.AnsweredCount(),
		Score:          i.Score,
		Feedback:       i.Feedback,
		CreatedAt:      i.CreatedAt,
	}
}

type ListInterviewQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}
