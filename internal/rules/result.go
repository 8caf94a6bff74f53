// Package rules holds the timing and bet-legality checks that gate every
// write action. All checks are pure functions over their inputs; a failed
// check stops the request before any transaction is assembled.
package rules

import "fmt"

// Violation identifies one broken rule with its required and actual values.
type Violation struct {
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Required string `json:"required"`
	Actual   string `json:"actual"`
}

// Result carries the outcome of a validation pass.
type Result struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
}

func (r *Result) reject(rule, message, required, actual string) {
	r.OK = false
	r.Violations = append(r.Violations, Violation{
		Rule:     rule,
		Message:  message,
		Required: required,
		Actual:   actual,
	})
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// FirstMessage returns the first violation's message, the one surfaced to the
// caller as the actionable error.
func (r *Result) FirstMessage() string {
	if len(r.Violations) == 0 {
		return ""
	}
	return r.Violations[0].Message
}
