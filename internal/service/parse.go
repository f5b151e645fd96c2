// Package service implements business logic on top of ports.
package service

import (
	"regexp"
	"strconv"
	"strings"
)

var parenScoreRe = regexp.MustCompile(`\((\d+)\)`)

// scoreVocabulary maps free-text score words to numeric scores.
var scoreVocabulary = map[string]int{
	"none":     0,
	"minor":    1,
	"some":     2,
	"moderate": 3,
	"major":    4,
	"high":     4,
	"low":      1,
}

// ScoreFromLabel extracts a 0-4 score from a spreadsheet label. It
// tries, in order: a parenthesized digit such as "High Alignment (3)",
// a bare number, then a word from the fixed vocabulary. Unrecognized
// labels score 0.
func ScoreFromLabel(label string) int {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0
	}

	if m := parenScoreRe.FindStringSubmatch(label); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}

	if f, err := strconv.ParseFloat(label, 64); err == nil {
		return int(f)
	}

	if n, ok := scoreVocabulary[strings.ToLower(label)]; ok {
		return n
	}
	return 0
}

// QuartileRank normalizes the many quartile spellings seen in uploads
// to a 1-4 rank. Quartile 1 is the most aligned. Unrecognized values
// rank 4.
func QuartileRank(quartile string) int {
	q := strings.ToLower(strings.TrimSpace(quartile))
	if q == "" {
		return 4
	}

	if f, err := strconv.ParseFloat(q, 64); err == nil {
		if n := int(f); n >= 1 && n <= 4 {
			return n
		}
		return 4
	}

	if strings.HasPrefix(q, "quartile") {
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(q, "quartile"))); err == nil && n >= 1 && n <= 4 {
			return n
		}
		return 4
	}

	switch {
	case strings.Contains(q, "most aligned"):
		return 1
	case strings.Contains(q, "more aligned"):
		return 2
	case strings.Contains(q, "less aligned"):
		return 3
	case strings.Contains(q, "least aligned"):
		return 4
	}
	return 4
}
