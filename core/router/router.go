// Package router classifies natural language questions into query intents.
// Classification is rule based and fully deterministic; the same question
// always yields the same intent, so routing never depends on a model call.
package router

import (
	"regexp"
	"strings"

	"github.com/siherrmann/newsgraph/model"
)

// Router classifies questions into intents with a fixed rule order
type Router struct {
	rules []rule
}

type rule struct {
	kind       model.IntentKind
	confidence float64
	matches    func(question string, subjects []string) bool
}

var (
	comparisonPattern = regexp.MustCompile(`(?i)\b(compare|versus|vs\.?|difference between|better than|similar to|differ)\b`)
	investmentPattern = regexp.MustCompile(`(?i)\b(invest(ed|ors?|ments?|ing)?|fund(ed|ing|raise)?|raise[ds]?|valuation|round|series [a-e]|backers?|portfolio)\b`)
	trendPattern      = regexp.MustCompile(`(?i)\b(trend(s|ing)?|over time|recently|lately|emerging|growth|momentum|this (year|month|quarter)|past (year|month|quarter))\b`)
	relationalPattern = regexp.MustCompile(`(?i)\b(connect(ed|ion|ions)?|relat(ed|ion|ionship|ionships)?|link(ed|s)?|between|through|path|via|how does .+ know)\b`)
	profilePattern    = regexp.MustCompile(`(?i)\b(who is|what is|tell me about|describe|profile of|overview of|background (on|of))\b`)

	// Capitalized word runs, e.g. "Sam Altman" or "OpenAI". Lowercase
	// connectives inside a run are kept so "Bank of America" is one subject.
	subjectPattern = regexp.MustCompile(`\b[A-Z][\w&.-]*(?:\s+(?:of|the|de|von)\s+[A-Z][\w&.-]*|\s+[A-Z][\w&.-]*)*`)

	// Leading question words are capitalized but never subjects
	stopSubjects = map[string]bool{
		"What": true, "Who": true, "Which": true, "Where": true, "When": true,
		"Why": true, "How": true, "Is": true, "Are": true, "Was": true,
		"Were": true, "Does": true, "Do": true, "Did": true, "Can": true,
		"Tell": true, "Describe": true, "Compare": true, "List": true,
		"Give": true, "Show": true, "Explain": true, "The": true, "A": true,
		"I": true, "In": true, "On": true,
	}
)

// NewRouter creates a router with the default rule set. Rules are checked
// in order and the first match wins, so more specific intents are listed
// before more general ones.
func NewRouter() *Router {
	return &Router{
		rules: []rule{
			{
				kind:       model.IntentComparison,
				confidence: 0.9,
				matches: func(question string, subjects []string) bool {
					return comparisonPattern.MatchString(question) && len(subjects) >= 2
				},
			},
			{
				kind:       model.IntentInvestmentInfo,
				confidence: 0.85,
				matches: func(question string, subjects []string) bool {
					return investmentPattern.MatchString(question)
				},
			},
			{
				kind:       model.IntentTrendAnalysis,
				confidence: 0.8,
				matches: func(question string, subjects []string) bool {
					return trendPattern.MatchString(question)
				},
			},
			{
				kind:       model.IntentMultiHop,
				confidence: 0.75,
				matches: func(question string, subjects []string) bool {
					return relationalPattern.MatchString(question) && len(subjects) >= 2
				},
			},
			{
				kind:       model.IntentEntityProfile,
				confidence: 0.8,
				matches: func(question string, subjects []string) bool {
					return profilePattern.MatchString(question) && len(subjects) >= 1
				},
			},
			{
				kind:       model.IntentEntityProfile,
				confidence: 0.6,
				matches: func(question string, subjects []string) bool {
					// A bare named subject with no other signal reads as a
					// profile request
					return len(subjects) >= 1
				},
			},
		},
	}
}

// Classify determines the intent of a question. Unclassifiable input falls
// through to the general intent with low confidence rather than an error.
func (r *Router) Classify(question string) *model.Intent {
	question = strings.TrimSpace(question)
	if question == "" {
		return &model.Intent{Kind: model.IntentGeneral, Confidence: 0.1}
	}

	subjects := Subjects(question)

	for _, rule := range r.rules {
		if rule.matches(question, subjects) {
			return &model.Intent{
				Kind:       rule.kind,
				Confidence: rule.confidence,
				Subjects:   subjects,
			}
		}
	}

	return &model.Intent{Kind: model.IntentGeneral, Confidence: 0.1, Subjects: subjects}
}

// Subjects extracts candidate entity names from a question, in order of
// appearance and without duplicates
func Subjects(question string) []string {
	matches := subjectPattern.FindAllString(question, -1)

	seen := map[string]bool{}
	var subjects []string
	for _, match := range matches {
		match = trimStopWords(match)
		if match == "" || seen[match] {
			continue
		}
		seen[match] = true
		subjects = append(subjects, match)
	}
	return subjects
}

// trimStopWords strips leading question words from a capitalized run, so
// "Who is Sam Altman" yields "Sam Altman" instead of the whole run
func trimStopWords(match string) string {
	words := strings.Fields(match)
	for len(words) > 0 && stopSubjects[words[0]] {
		words = words[1:]
	}
	// A single lowercase connective left over is not a subject
	if len(words) == 0 {
		return ""
	}
	return strings.Join(words, " ")
}
