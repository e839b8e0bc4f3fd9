package practice

import (
	"context"
	_ "embed"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

const (
	RoundCoding   = "Coding"
	RoundTheory   = "Technical Theory"
	RoundScenario = "Scenario"
	RoundMix      = "Mix"
	LevelBeginner = "beginner"
	LevelPro      = "professional"
	topicToken    = "{topic}"
	fallbackTopic = "your primary language"
)

//go:embed bank.yaml
var bankYAML []byte

type bankItem struct {
	Level    string `yaml:"level"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Bank is a question bank keyed by interview round.
type Bank struct {
	Rounds map[string][]bankItem `yaml:"rounds"`
}

// LoadBank parses a YAML question bank.
func LoadBank(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(b.Rounds) == 0 {
		return nil, fmt.Errorf("question bank has no rounds")
	}
	for round, items := range b.Rounds {
		for i, it := range items {
			if strings.TrimSpace(it.Question) == "" || strings.TrimSpace(it.Answer) == "" {
				return nil, fmt.Errorf("question bank round %q item %d: question and answer are required", round, i)
			}
		}
	}
	return &b, nil
}

// DefaultBank returns the embedded question bank.
func DefaultBank() *Bank {
	b, err := LoadBank(bankYAML)
	if err != nil {
		panic(err)
	}
	return b
}

// StaticCoach answers from a Bank and grades by keyword coverage.
type StaticCoach struct {
	bank *Bank
}

func NewStaticCoach(bank *Bank) *StaticCoach {
	return &StaticCoach{bank: bank}
}

// GenerateQuestions picks n questions for the setup. The same setup always
// yields the same questions. Questions of the requested round and level come
// first; when they run out the rest of the bank fills the list.
func (s *StaticCoach) GenerateQuestions(ctx context.Context, setup model.InterviewSetup, n int) ([]model.GeneratedQuestion, error) {
	if n <= 0 {
		return nil, nil
	}
	rng := rand.New(rand.NewPCG(seed(setup), 0))
	level := strings.ToLower(strings.TrimSpace(setup.Difficulty))

	var preferred, rest []bankItem
	for _, round := range s.sortedRounds() {
		inRound := setup.Round == "" || setup.Round == RoundMix || strings.EqualFold(round, setup.Round)
		for _, it := range s.bank.Rounds[round] {
			if inRound && (level == "" || it.Level == "" || it.Level == level) {
				preferred = append(preferred, it)
			} else {
				rest = append(rest, it)
			}
		}
	}
	rng.Shuffle(len(preferred), func(i, j int) { preferred[i], preferred[j] = preferred[j], preferred[i] })
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

	pool := append(preferred, rest...)
	if len(pool) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	topic := setup.Topic()
	if topic == "" {
		topic = fallbackTopic
	}

	out := make([]model.GeneratedQuestion, 0, n)
	for i := 0; i < n && i < len(pool); i++ {
		out = append(out, model.GeneratedQuestion{
			Question:      strings.ReplaceAll(pool[i].Question, topicToken, topic),
			CorrectAnswer: strings.ReplaceAll(pool[i].Answer, topicToken, topic),
		})
	}
	return out, nil
}

func (s *StaticCoach) EvaluateAnswer(ctx context.Context, question, expected, transcript string) (model.Evaluation, error) {
	return KeywordEvaluation(expected, transcript), nil
}

func (s *StaticCoach) sortedRounds() []string {
	rounds := make([]string, 0, len(s.bank.Rounds))
	for r := range s.bank.Rounds {
		rounds = append(rounds, r)
	}
	sort.Strings(rounds)
	return rounds
}

func seed(setup model.InterviewSetup) uint64 {
	h := fnv.New64a()
	for _, part := range []string{string(setup.Mode), setup.Topic(), setup.Experience, setup.Round, setup.Difficulty} {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
