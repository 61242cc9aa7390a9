package assessment

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit kinds.
const (
	KindTest     = "test"
	KindTaskQuiz = "task_quiz"
)

// Unit statuses.
const (
	StatusDraft    = "draft"
	StatusAssigned = "assigned"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Attempt statuses. Submitted is terminal.
const (
	AttemptInProgress = "in_progress"
	AttemptSubmitted  = "submitted"
)

// Question set provenance.
const (
	SourceAI       = "ai"
	SourceTemplate = "template"
	SourceNone     = "none"
)

// Question is one multiple-choice item. Options always has exactly 4 entries
// and Correct is a zero-based index into it.
type Question struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
}

// Validate enforces the shape invariants a stored question must hold.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question id is empty")
	}
	if q.Text == "" {
		return fmt.Errorf("question %s: text is empty", q.ID)
	}
	if len(q.Options) != 4 {
		return fmt.Errorf("question %s: expected 4 options, got %d", q.ID, len(q.Options))
	}
	for i, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("question %s: option %d is empty", q.ID, i)
		}
	}
	if q.Correct < 0 || q.Correct > 3 {
		return fmt.Errorf("question %s: correct index %d out of range", q.ID, q.Correct)
	}
	return nil
}

// PublicQuestion is the student-facing projection: no answer key, no explanation.
type PublicQuestion struct {
	ID      string   `json:"id"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{ID: q.ID, Subject: q.Subject, Text: q.Text, Options: q.Options}
}

// ValidateSet checks every question and that ids are unique within the set.
func ValidateSet(qs []Question) error {
	seen := make(map[string]struct{}, len(qs))
	for _, q := range qs {
		if err := q.Validate(); err != nil {
			return err
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question id %s duplicated in set", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// PublicSet projects a whole frozen set for client delivery.
func PublicSet(qs []Question) []PublicQuestion {
	out := make([]PublicQuestion, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Public())
	}
	return out
}

// Unit is anything a student can attempt: a teacher-authored test paper or a
// generated task quiz. QuestionSet is nil until the first successful start
// freezes it; after that it never changes for the life of the unit.
type Unit struct {
	ID             string     `json:"id"`
	Kind           string     `json:"kind"`
	Title          string     `json:"title"`
	Subject        string     `json:"subject"`
	Topic          string     `json:"topic,omitempty"`
	Difficulty     string     `json:"difficulty"`
	QuestionCount  int        `json:"question_count"`
	DurationMin    int        `json:"duration_min"`
	OwnerID        string     `json:"owner_id"`
	Year           string     `json:"year,omitempty"`
	Status         string     `json:"status"`
	Assigned       bool       `json:"assigned"` // legacy year-based assignment flag
	ClassIDs       []string   `json:"class_ids,omitempty"`
	QuestionSet    []Question `json:"question_set,omitempty"`
	QuestionSource string     `json:"question_source,omitempty"`
	CreatedAt      int64      `json:"created_at"`
	UpdatedAt      int64      `json:"updated_at"`
}

// Assignable reports whether students may start attempts against the unit.
func (u Unit) Assignable() bool {
	return u.Status == StatusAssigned || u.Status == StatusActive
}

// Attempt is one student's run at a unit. Answers maps question id to the
// selected option index; nil means unanswered. TimeSpent maps question id to
// elapsed seconds.
type Attempt struct {
	ID              string          `json:"id"`
	UnitID          string          `json:"unit_id"`
	StudentID       string          `json:"student_id"`
	Subject         string          `json:"subject"`
	Status          string          `json:"status"`
	QuestionSet     []Question      `json:"question_set,omitempty"`
	Answers         map[string]*int `json:"answers"`
	TimeSpent       map[string]int  `json:"time_spent"`
	Score           float64         `json:"score"`
	TotalQuestions  int             `json:"total_questions"`
	CorrectCount    int             `json:"correct_count"`
	IncorrectCount  int             `json:"incorrect_count"`
	Unattempted     int             `json:"unattempted"`
	AutoSubmitted   bool            `json:"auto_submitted"`
	ViolationReason string          `json:"violation_reason,omitempty"`
	StartedAt       int64           `json:"started_at"`
	SubmittedAt     int64           `json:"submitted_at,omitempty"`
	UpdatedAt       int64           `json:"updated_at"`
}

// NormalizeAnswer coerces an untrusted answer value to an option index.
// Anything non-integer or negative becomes nil (unanswered) rather than an
// error so a malformed autosave payload never corrupts stored state.
func NormalizeAnswer(v interface{}) *int {
	if v == nil {
		return nil
	}
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case int64:
		n = int(t)
	case float64:
		if t != float64(int(t)) {
			return nil
		}
		n = int(t)
	case string:
		var err error
		n, err = strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return nil
		}
	case *int:
		if t == nil {
			return nil
		}
		n = *t
	default:
		return nil
	}
	if n < 0 {
		return nil
	}
	return &n
}
