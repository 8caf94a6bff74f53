// Package content screens proposed market questions before a creation
// transaction may be assembled. The screen is heuristic and intentionally
// conservative: explicit blocklist matches and a missing evidence source are
// hard blocks, soft signals are warnings.
package content

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Tables holds the pattern families and the approved-source list. They are
// data, not logic: deployments override them with a JSON file so rule updates
// do not require a redeploy.
type Tables struct {
	// SubjectiveTerms imply a judged or opinion-based resolution.
	SubjectiveTerms []string `json:"subjective_terms"`
	// ManipulationTerms invite self-referential or easily gamed outcomes.
	ManipulationTerms []string `json:"manipulation_terms"`
	// ApprovedSources are independently verifiable evidence sources; a
	// question must reference at least one.
	ApprovedSources []string `json:"approved_sources"`
	// SoftSignals produce warnings only.
	SoftSignals []string `json:"soft_signals"`
}

// DefaultTables returns the built-in pattern tables.
func DefaultTables() Tables {
	return Tables{
		SubjectiveTerms: []string{
			"best",
			"worst",
			"most beautiful",
			"funniest",
			"coolest",
			"in my opinion",
			"i think",
			"better than",
			"greatest of all time",
			"deserves",
			"should win",
			"overrated",
			"underrated",
		},
		ManipulationTerms: []string{
			"this market",
			"this question",
			"number of bettors",
			"pool reaches",
			"total bets",
			"resolves yes if someone",
			"if i",
			"if we",
			"anyone who bets",
			"self-fulfilling",
		},
		ApprovedSources: []string{
			"coingecko",
			"coinmarketcap",
			"binance",
			"reuters",
			"associated press",
			"apnews",
			"bloomberg",
			"espn",
			"official results",
			"official announcement",
			"weather.gov",
			"noaa",
			"nasa",
			"sec.gov",
			"on-chain data",
			"solscan",
		},
		SoftSignals: []string{
			"roughly",
			"approximately",
			"around",
			"about",
			"famous",
			"popular",
			"viral",
		},
	}
}

// LoadTables reads pattern tables from a JSON file.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read content tables: %w", err)
	}

	var t Tables
	if err := json.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("failed to parse content tables: %w", err)
	}
	if len(t.ApprovedSources) == 0 {
		return Tables{}, fmt.Errorf("content tables must list at least one approved source")
	}
	return t, nil
}

// Verdict is the outcome of screening one question.
type Verdict struct {
	Blocked    bool     `json:"blocked"`
	Violations []string `json:"violations,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Validate screens a proposed question. A question is blocked when it matches
// either blocklist family or cites no approved source.
func (t Tables) Validate(question string) Verdict {
	q := normalize(question)
	v := Verdict{}

	for _, term := range t.SubjectiveTerms {
		if strings.Contains(q, term) {
			v.Blocked = true
			v.Violations = append(v.Violations, fmt.Sprintf("subjective outcome term %q", term))
		}
	}

	for _, term := range t.ManipulationTerms {
		if strings.Contains(q, term) {
			v.Blocked = true
			v.Violations = append(v.Violations, fmt.Sprintf("manipulation-risk term %q", term))
		}
	}

	cited := false
	for _, src := range t.ApprovedSources {
		if strings.Contains(q, src) {
			cited = true
			break
		}
	}
	if !cited {
		v.Blocked = true
		v.Violations = append(v.Violations, "question does not reference an approved evidence source")
	}

	for _, signal := range t.SoftSignals {
		if strings.Contains(q, signal) {
			v.Warnings = append(v.Warnings, fmt.Sprintf("imprecise term %q may make resolution contestable", signal))
		}
	}

	return v
}
