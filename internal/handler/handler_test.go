package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/auth"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/cache"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/mailer"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/repository"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "0123456789abcdef0123456789abcdef"

// memStore is an in-memory repository.Store.
type memStore struct {
	mu         sync.Mutex
	users      map[string]model.User
	interviews map[string]model.Interview
}

func newMemStore() *memStore {
	return &memStore{users: map[string]model.User{}, interviews: map[string]model.Interview{}}
}

func (s *memStore) Ping(ctx context.Context) error { return nil }

func (s *memStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[u.UserID] = *u
	return nil
}

func (s *memStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *memStore) UpdateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.UserID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[u.UserID] = *u
	return nil
}

func (s *memStore) RecordOTPFailure(ctx context.Context, userID string, purpose model.OTPPurpose, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	attempts := &u.VerifyOTPAttempts
	if purpose == model.OTPReset {
		attempts = &u.ResetOTPAttempts
	}
	*attempts++
	n := *attempts
	if n >= limit {
		if purpose == model.OTPReset {
			u.ResetOTPHash, u.ResetOTPExpireAt = "", nil
		} else {
			u.VerifyOTPHash, u.VerifyOTPExpireAt = "", nil
		}
	}
	s.users[userID] = u
	return n, nil
}

func cloneInterview(iv model.Interview) model.Interview {
	iv.Responses = append([]model.MockResponse(nil), iv.Responses...)
	return iv
}

func (s *memStore) CreateInterview(ctx context.Context, iv *model.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if iv.InterviewID == "" {
		iv.InterviewID = uuid.NewString()
	}
	if _, ok := s.interviews[iv.InterviewID]; ok {
		return repository.ErrDuplicateInterview
	}
	iv.CreatedAt = time.Now().UTC().Add(time.Duration(len(s.interviews)) * time.Second)
	iv.UpdatedAt = iv.CreatedAt
	s.interviews[iv.InterviewID] = cloneInterview(*iv)
	return nil
}

func (s *memStore) GetInterviewByID(ctx context.Context, id string) (*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	iv = cloneInterview(iv)
	return &iv, nil
}

func (s *memStore) ListInterviewByUser(ctx context.Context, userID string, limit, offset int) ([]model.Interview, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Interview
	for _, iv := range s.interviews {
		if iv.UserID != nil && *iv.UserID == userID {
			all = append(all, cloneInterview(iv))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return []model.Interview{}, total, nil
	}
	return all[offset:min(offset+limit, total)], total, nil
}

func (s *memStore) UpdateInterview(ctx context.Context, id string, fn func(*model.Interview) error) (*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	iv = cloneInterview(iv)
	if err := fn(&iv); err != nil {
		return nil, err
	}
	iv.Version++
	s.interviews[id] = cloneInterview(iv)
	return &iv, nil
}

// fakeMailer records every email it is asked to send.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, email mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *fakeMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *fakeMailer) last(subject string) (mailer.Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Subject == subject {
			return m.sent[i], true
		}
	}
	return mailer.Email{}, false
}

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

func (m *fakeMailer) lastOTP(t *testing.T, subject string) string {
	t.Helper()
	email, ok := m.last(subject)
	require.True(t, ok, "no %q email sent", subject)
	otp := otpPattern.FindString(email.Body)
	require.NotEmpty(t, otp)
	return otp
}

// fakeCoach returns numbered questions and a fixed rating.
type fakeCoach struct {
	genErr  error
	evalErr error
	rating  model.Rating
}

func (f *fakeCoach) GenerateQuestions(ctx context.Context, setup model.InterviewSetup, n int) ([]model.GeneratedQuestion, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	qs := make([]model.GeneratedQuestion, n)
	for i := range qs {
		qs[i] = model.GeneratedQuestion{
			Question:      fmt.Sprintf("Question %d about %s", i+1, setup.Topic()),
			CorrectAnswer: fmt.Sprintf("Answer %d", i+1),
		}
	}
	return qs, nil
}

func (f *fakeCoach) EvaluateAnswer(ctx context.Context, question, expected, transcript string) (model.Evaluation, error) {
	if f.evalErr != nil {
		return model.Evaluation{}, f.evalErr
	}
	return model.Evaluation{Rating: f.rating, Feedback: "Feedback for " + question}, nil
}

type testEnv struct {
	h      *Handler
	store  *memStore
	cache  *cache.MemoryStore
	mailer *fakeMailer
	coach  *fakeCoach
	router *gin.Engine
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  newMemStore(),
		cache:  cache.NewMemoryStore(),
		mailer: &fakeMailer{},
		coach:  &fakeCoach{rating: model.RatingGood},
		now:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.h = &Handler{
		Logger:            zap.NewNop(),
		Repository:        env.store,
		Cache:             env.cache,
		Mailer:            env.mailer,
		Coach:             env.coach,
		TokenMaker:        auth.NewJWTMaker(testSecret),
		JwtTTL:            time.Hour,
		CookieName:        "jwt",
		OTPTTL:            time.Hour,
		OTPResendCooldown: time.Minute,
		OTPResetWindow:    15 * time.Minute,
		nowF:              func() time.Time { return env.now },
	}
	env.router = testRouter(env.h)
	return env
}

// testAuth mirrors the production middleware closely enough for handler tests.
func testAuth(h *Handler, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, h.CookieName)
		if token == "" {
			if required {
				response.Unauthorized(c, "Not authorized, no token")
				return
			}
			c.Next()
			return
		}
		claims, err := h.TokenMaker.VerifyToken(token)
		if err == nil {
			var revoked bool
			revoked, err = h.Cache.IsRevoked(c.Request.Context(), claims.ID)
			if revoked {
				err = errors.New("revoked")
			}
		}
		var user *model.User
		if err == nil {
			user, err = h.Repository.GetUserByID(c.Request.Context(), claims.UserID)
		}
		if err != nil {
			if required {
				response.Unauthorized(c, "Not authorized, token failed")
				return
			}
			c.Next()
			return
		}
		c.Set(ClaimsKey, claims)
		c.Set(UserKey, user)
		c.Next()
	}
}

func testRouter(h *Handler) *gin.Engine {
	r := gin.New()
	a := r.Group("/api/auth")
	a.POST("/signup", h.SignUp)
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)
	a.POST("/send-reset-otp", h.SendResetOTP)
	a.POST("/verify-reset-otp", h.VerifyResetOTP)
	a.POST("/reset-password", h.ResetPassword)
	p := a.Group("/", testAuth(h, true))
	p.GET("/is-auth", h.IsAuth)
	p.POST("/send-verify-otp", h.SendVerifyOTP)
	p.POST("/resend-otp", h.ResendOTP)
	p.POST("/verify-account", h.VerifyAccount)

	u := r.Group("/api/users", testAuth(h, true))
	u.GET("/", h.ListUsers)
	u.GET("/me", h.Me)

	i := r.Group("/api/interview", testAuth(h, false))
	i.POST("/generate-questions", h.GenerateQuestions)
	i.GET("/questions/:id", h.GetQuestions)
	i.POST("/record-answer-text", h.RecordAnswerText)
	i.GET("/feedback/:id", h.GetFeedback)
	i.GET("/:id", h.GetInterview)
	i.GET("", testAuth(h, true), h.ListInterviews)
	return r
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// signUp registers a user and returns its token.
func (e *testEnv) signUp(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/signup", gin.H{"name": "Asha", "email": email, "password": password}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, token)
	return token
}
