package questiongen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/exampulse/exampulse/internal/assessment"
)

// normalizeCandidates validates one decoded AI batch and shapes it into a
// stored question set. All-or-nothing: a single invalid item rejects the whole
// batch so the caller can retry or fall back.
//
// Some models answer with human-style 1-based option numbers. When every
// correct value across the batch lies in [1,4] and 0 never appears, the whole
// batch is treated as 1-based and shifted down by one.
func normalizeCandidates(parsed interface{}, subject string, count int, difficulty string) []assessment.Question {
	items, ok := candidateList(parsed)
	if !ok {
		return nil
	}
	if len(items) > count {
		items = items[:count]
	}

	type rawQuestion struct {
		text        string
		options     []string
		correct     int
		explanation string
	}

	raws := make([]rawQuestion, 0, count)
	correctValues := make([]int, 0, count)
	for _, it := range items {
		obj, ok := it.(map[string]interface{})
		if !ok {
			return nil
		}

		text, _ := obj["text"].(string)
		if strings.TrimSpace(text) == "" {
			return nil
		}

		opts, ok := obj["options"].([]interface{})
		if !ok || len(opts) < 4 {
			return nil
		}
		options := make([]string, 0, 4)
		for _, o := range opts[:4] {
			s := strings.TrimSpace(stringify(o))
			if s == "" {
				return nil
			}
			options = append(options, s)
		}

		correct, ok := coerceInt(obj["correct"])
		if !ok {
			return nil
		}

		explanation, _ := obj["explanation"].(string)
		raws = append(raws, rawQuestion{
			text:        strings.TrimSpace(text),
			options:     options,
			correct:     correct,
			explanation: explanation,
		})
		correctValues = append(correctValues, correct)
	}

	if len(raws) < count {
		return nil
	}

	oneBased := len(correctValues) > 0
	for _, v := range correctValues {
		if v < 1 || v > 4 {
			oneBased = false
			break
		}
	}

	questions := make([]assessment.Question, 0, count)
	for i, rq := range raws {
		correct := rq.correct
		if oneBased {
			correct--
		}
		if correct < 0 || correct > 3 {
			return nil
		}

		explanation := strings.TrimSpace(rq.explanation)
		if explanation == "" {
			explanation = genericExplanation
		}
		questions = append(questions, assessment.Question{
			ID:          fmt.Sprintf("q%d", i+1),
			Subject:     subject,
			Text:        fmt.Sprintf("Q%d. [%s] %s", i+1, difficulty, rq.text),
			Options:     rq.options,
			Correct:     correct,
			Explanation: explanation,
		})
	}
	return questions
}

const genericExplanation = "Review this concept and practice similar JEE questions."

// candidateList accepts either a top-level array or an object wrapping one
// under "questions" or "items".
func candidateList(parsed interface{}) ([]interface{}, bool) {
	switch v := parsed.(type) {
	case []interface{}:
		return v, true
	case map[string]interface{}:
		for _, key := range []string{"questions", "items"} {
			if list, ok := v[key].([]interface{}); ok {
				return list, true
			}
		}
	}
	return nil, false
}

func coerceInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
