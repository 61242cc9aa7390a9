// Package grading scores submitted answer maps against frozen answer keys.
// Pure functions only: no side effects, no I/O.
package grading

import "math"

// Q is the minimal view of a question needed for grading. Keep in sync with
// the store's question shape.
type Q struct {
	ID      string
	Correct int // zero-based correct option index
}

// Breakdown is the outcome of grading a whole attempt.
type Breakdown struct {
	Score          float64 // percentage, rounded to one decimal
	TotalQuestions int
	Answered       int
	Correct        int
	Incorrect      int
	Unattempted    int
}

// Grade scores an answer map (question id -> selected option index, nil for
// unanswered) against the answer key. total is the declared question count
// for the unit; when it is not positive the key length is used. Score is
// correct/total*100 rounded to one decimal, 0.0 for an empty set.
func Grade(questions []Q, answers map[string]*int, total int) Breakdown {
	if total <= 0 {
		total = len(questions)
	}

	correct := 0
	answered := 0
	for _, q := range questions {
		selected, ok := answers[q.ID]
		if !ok || selected == nil || *selected < 0 {
			continue
		}
		answered++
		if *selected == q.Correct {
			correct++
		}
	}

	score := 0.0
	if total > 0 {
		score = round1(float64(correct) / float64(total) * 100)
	}

	return Breakdown{
		Score:          score,
		TotalQuestions: total,
		Answered:       answered,
		Correct:        correct,
		Incorrect:      answered - correct,
		Unattempted:    max(total-answered, 0),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
