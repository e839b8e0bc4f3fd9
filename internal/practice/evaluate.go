package practice

import (
	"strings"
	"unicode"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

const maxMissingHints = 5

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "your": true, "with": true, "that": true, "this": true, "from": true,
	"then": true, "than": true, "when": true, "into": true, "each": true, "every": true,
	"its": true, "it's": true, "has": true, "have": true, "was": true, "were": true,
	"can": true, "use": true, "using": true, "which": true, "what": true, "while": true,
	"until": true, "otherwise": true, "both": true, "all": true, "any": true,
	"also": true, "only": true, "more": true, "most": true, "such": true, "some": true,
	"they": true, "them": true, "their": true, "there": true, "these": true,
	"those": true, "will": true, "would": true, "should": true, "could": true,
	"been": true, "being": true, "does": true, "did": true, "how": true, "why": true,
	"one": true, "two": true, "first": true, "next": true, "other": true,
	"typically": true, "usually": true, "often": true,
}

// Keywords returns the distinct significant words of text in order of
// first appearance.
func Keywords(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range tokenize(text) {
		if len(w) < 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Coverage is the share of expected keywords present in transcript.
func Coverage(expected, transcript string) (float64, []string) {
	keywords := Keywords(expected)
	if len(keywords) == 0 {
		return 0, nil
	}
	said := map[string]bool{}
	for _, w := range tokenize(transcript) {
		said[w] = true
		// crude plural/verb folding: "pointers" covers "pointer"
		said[strings.TrimSuffix(w, "s")] = true
	}
	hit := 0
	var missing []string
	for _, k := range keywords {
		if said[k] || said[strings.TrimSuffix(k, "s")] {
			hit++
		} else {
			missing = append(missing, k)
		}
	}
	return float64(hit) / float64(len(keywords)), missing
}

// RatingFor maps keyword coverage to a rating.
func RatingFor(coverage float64) model.Rating {
	switch {
	case coverage >= 0.6:
		return model.RatingExcellent
	case coverage >= 0.4:
		return model.RatingGood
	case coverage >= 0.2:
		return model.RatingAverage
	}
	return model.RatingPoor
}

// KeywordEvaluation grades transcript against the expected answer.
func KeywordEvaluation(expected, transcript string) model.Evaluation {
	if strings.TrimSpace(transcript) == "" {
		return model.Evaluation{Rating: model.RatingPoor, Feedback: "No answer was given."}
	}
	coverage, missing := Coverage(expected, transcript)
	if len(Keywords(expected)) == 0 {
		return model.Evaluation{Rating: model.RatingAverage, Feedback: "Answer recorded."}
	}
	rating := RatingFor(coverage)

	var b strings.Builder
	switch rating {
	case model.RatingExcellent:
		b.WriteString("Strong answer that covers the key points.")
	case model.RatingGood:
		b.WriteString("Good answer, but some important points are missing.")
	case model.RatingAverage:
		b.WriteString("Partially correct. Several key concepts were not mentioned.")
	default:
		b.WriteString("The answer misses most of the expected concepts.")
	}
	if len(missing) > 0 && rating != model.RatingExcellent {
		if len(missing) > maxMissingHints {
			missing = missing[:maxMissingHints]
		}
		b.WriteString(" Consider mentioning: ")
		b.WriteString(strings.Join(missing, ", "))
		b.WriteString(".")
	}
	return model.Evaluation{Rating: rating, Feedback: b.String()}
}
