package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholder selects the positional marker a backend expects.
type Placeholder int

const (
	// Dollar renders $1, $2, ... (PostgreSQL).
	Dollar Placeholder = iota
	// Question renders ? for every parameter (MySQL).
	Question
	// QuestionNumbered renders ?1, ?2, ... (SQLite).
	QuestionNumbered
)

// Marker returns the marker for the n-th parameter, counting from 1.
func (p Placeholder) Marker(n int) string {
	switch p {
	case Question:
		return "?"
	case QuestionNumbered:
		return "?" + strconv.Itoa(n)
	default:
		return "$" + strconv.Itoa(n)
	}
}

func (p Placeholder) String() string {
	switch p {
	case Question:
		return "question"
	case QuestionNumbered:
		return "question-numbered"
	default:
		return "dollar"
	}
}

// ParsePlaceholder parses the names produced by Placeholder.String.
// An empty string selects Dollar.
func ParsePlaceholder(s string) (Placeholder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dollar", "postgres":
		return Dollar, nil
	case "question", "mysql":
		return Question, nil
	case "question-numbered", "sqlite":
		return QuestionNumbered, nil
	}
	return Dollar, fmt.Errorf("unknown placeholder style %q", s)
}
