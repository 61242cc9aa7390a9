package assessment

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/exampulse/exampulse/internal/activity"
	"github.com/exampulse/exampulse/internal/grading"
)

// Student is the caller identity supplied by the auth layer. The engine
// trusts it and only checks unit authorization itself.
type Student struct {
	ID   string
	Name string
	Year string
}

// SynthesisRequest describes one question-set synthesis.
type SynthesisRequest struct {
	Subject    string
	Count      int
	Difficulty string
	Topic      string
	// RequireAI forbids the template fallback: if AI generation is exhausted
	// the call fails instead of silently degrading the answer key provenance.
	RequireAI bool
}

// Synthesizer is the question-source collaborator. Source is one of the
// Source* constants.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (qs []Question, source string, err error)
}

// Authorizer answers whether a student may attempt a unit (class roster or
// legacy year rule).
type Authorizer interface {
	AuthorizedForUnit(ctx context.Context, studentID, studentYear string, u Unit) (bool, error)
}

// Notifier delivers user notifications. Failures are absorbed.
type Notifier interface {
	Create(ctx context.Context, userID, title, message, kind string) error
}

// ServiceConfig carries the few policy knobs the engine honors.
type ServiceConfig struct {
	// RequireAIForTests forces AI-sourced question sets when freezing a test
	// paper (typically enabled when a provider key is configured). Task
	// quizzes always allow the template fallback.
	RequireAIForTests bool
	// QuizPassThreshold is the minimum score for a task quiz to count as
	// passed. Zero preserves the documented always-pass behavior.
	QuizPassThreshold float64
}

const taskQuizQuestionCount = 5

// Service is the attempt lifecycle controller: it enforces start/resume,
// answer-save and submit transitions with idempotency and authorization
// checks, and reconstructs results for review.
type Service struct {
	store    Store
	synth    Synthesizer
	roster   Authorizer
	notifier Notifier
	activity activity.Logger
	cfg      ServiceConfig
}

func NewService(store Store, synth Synthesizer, roster Authorizer, notifier Notifier, logger activity.Logger, cfg ServiceConfig) *Service {
	return &Service{store: store, synth: synth, roster: roster, notifier: notifier, activity: logger, cfg: cfg}
}

// StartResult is the public payload of a start or resume. Questions carry no
// answer keys or explanations.
type StartResult struct {
	AttemptID string           `json:"attempt_id"`
	Status    string           `json:"status"`
	StartedAt int64            `json:"started_at"`
	Duration  int              `json:"duration"`
	Questions []PublicQuestion `json:"questions"`
	Answers   map[string]*int  `json:"answers"`
}

// StartOrResume begins an attempt or returns the existing in-progress one
// unchanged. Exactly one non-submitted attempt exists per (student, unit);
// two concurrent starts converge on the same attempt.
func (s *Service) StartOrResume(ctx context.Context, student Student, unitID string) (StartResult, error) {
	unit, err := s.store.GetUnit(ctx, unitID)
	if err != nil {
		return StartResult{}, err
	}

	if err := s.authorize(ctx, student, unit); err != nil {
		return StartResult{}, err
	}

	// Re-starting a completed unit is a conflict, not a second attempt.
	if _, err := s.store.FindAttempt(ctx, unitID, student.ID, AttemptSubmitted); err == nil {
		return StartResult{}, Conflictf("unit already submitted")
	} else if !IsNotFound(err) {
		return StartResult{}, err
	}

	// First-start-wins freeze: synthesize only when the unit has no set yet.
	if len(unit.QuestionSet) == 0 {
		qs, source, err := s.synth.Synthesize(ctx, SynthesisRequest{
			Subject:    unit.Subject,
			Count:      unit.QuestionCount,
			Difficulty: unit.Difficulty,
			Topic:      unit.Topic,
			RequireAI:  unit.Kind == KindTest && s.cfg.RequireAIForTests,
		})
		if err != nil {
			return StartResult{}, err
		}
		unit, err = s.store.FreezeQuestionSet(ctx, unitID, qs, source)
		if err != nil {
			return StartResult{}, err
		}
	}

	if existing, err := s.store.FindAttempt(ctx, unitID, student.ID, AttemptInProgress); err == nil {
		return s.resume(ctx, existing, unit)
	} else if !IsNotFound(err) {
		return StartResult{}, err
	}

	now := time.Now().Unix()
	attempt := Attempt{
		ID:             uuid.NewString(),
		UnitID:         unitID,
		StudentID:      student.ID,
		Subject:        unit.Subject,
		Status:         AttemptInProgress,
		QuestionSet:    unit.QuestionSet,
		Answers:        map[string]*int{},
		TimeSpent:      map[string]int{},
		TotalQuestions: len(unit.QuestionSet),
		Unattempted:    len(unit.QuestionSet),
		StartedAt:      now,
	}
	if err := s.store.CreateAttempt(ctx, attempt); err != nil {
		if IsConflict(err) {
			// lost the race: converge on the winner's attempt
			winner, ferr := s.store.FindAttempt(ctx, unitID, student.ID, AttemptInProgress)
			if ferr != nil {
				return StartResult{}, err
			}
			return s.resume(ctx, winner, unit)
		}
		return StartResult{}, err
	}

	return StartResult{
		AttemptID: attempt.ID,
		Status:    attempt.Status,
		StartedAt: attempt.StartedAt,
		Duration:  unit.DurationMin,
		Questions: PublicSet(unit.QuestionSet),
		Answers:   map[string]*int{},
	}, nil
}

// resume returns an existing in-progress attempt, backfilling its frozen set
// from the unit when the attempt predates freezing.
func (s *Service) resume(ctx context.Context, attempt Attempt, unit Unit) (StartResult, error) {
	questions := attempt.QuestionSet
	if len(questions) == 0 {
		questions = unit.QuestionSet
		if len(questions) > 0 {
			if err := s.store.BackfillQuestionSet(ctx, attempt.ID, questions); err != nil {
				return StartResult{}, err
			}
		}
	}
	return StartResult{
		AttemptID: attempt.ID,
		Status:    attempt.Status,
		StartedAt: attempt.StartedAt,
		Duration:  unit.DurationMin,
		Questions: PublicSet(questions),
		Answers:   attempt.Answers,
	}, nil
}

// SaveResult reports how many questions hold a non-nil answer after a save.
type SaveResult struct {
	AttemptID    string `json:"attempt_id"`
	SavedAnswers int    `json:"saved_answers"`
}

// SaveAnswers merges the supplied answer and time-spent maps into the
// attempt: new keys added, existing keys overwritten, nothing replaced
// wholesale, so incremental autosave payloads compose. Malformed answer
// values become nil (unanswered) and invalid time values are dropped, never
// raised.
func (s *Service) SaveAnswers(ctx context.Context, student Student, attemptID string, answers map[string]interface{}, timeSpent map[string]interface{}) (SaveResult, error) {
	attempt, err := s.ownedAttempt(ctx, student, attemptID)
	if err != nil {
		return SaveResult{}, err
	}
	if attempt.Status != AttemptInProgress {
		return SaveResult{}, Conflictf("attempt is already submitted")
	}

	merged := attempt.Answers
	if merged == nil {
		merged = map[string]*int{}
	}
	for id, v := range answers {
		merged[id] = NormalizeAnswer(v)
	}

	times := attempt.TimeSpent
	if times == nil {
		times = map[string]int{}
	}
	mergeTimeSpent(times, timeSpent)

	if err := s.store.SaveProgress(ctx, attemptID, merged, times); err != nil {
		return SaveResult{}, err
	}

	saved := 0
	for _, v := range merged {
		if v != nil {
			saved++
		}
	}
	return SaveResult{AttemptID: attemptID, SavedAnswers: saved}, nil
}

// SubmitResult is the grading outcome returned to the student.
type SubmitResult struct {
	AttemptID      string  `json:"attempt_id"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Answered       int     `json:"answered"`
	CorrectCount   int     `json:"correct_answers"`
	IncorrectCount int     `json:"incorrect_answers"`
	Unattempted    int     `json:"unattempted"`
	AutoSubmitted  bool    `json:"auto_submitted"`
	// Passed is reported for task quizzes only.
	Passed *bool `json:"passed,omitempty"`
}

// Submit grades an in-progress attempt and transitions it to submitted,
// exactly once. A violation reason marks the submission as auto-submitted;
// that is the only proctoring signal the engine understands.
func (s *Service) Submit(ctx context.Context, student Student, attemptID, violationReason string, timeSpent map[string]interface{}) (SubmitResult, error) {
	attempt, err := s.ownedAttempt(ctx, student, attemptID)
	if err != nil {
		return SubmitResult{}, err
	}
	if attempt.Status != AttemptInProgress {
		return SubmitResult{}, Conflictf("attempt already submitted")
	}

	violation := strings.TrimSpace(violationReason)
	autoSubmitted := violation != ""

	times := attempt.TimeSpent
	if times == nil {
		times = map[string]int{}
	}
	mergeTimeSpent(times, timeSpent)

	// Legacy attempts may predate freezing; recover the key from the unit.
	// Grading without an answer key is never attempted.
	questions := attempt.QuestionSet
	var unit Unit
	haveUnit := false
	if len(questions) == 0 {
		if unit, err = s.store.GetUnit(ctx, attempt.UnitID); err == nil {
			haveUnit = true
			if len(unit.QuestionSet) > 0 {
				questions = unit.QuestionSet
				if err := s.store.BackfillQuestionSet(ctx, attemptID, questions); err != nil {
					return SubmitResult{}, err
				}
			}
		}
	}
	if len(questions) == 0 {
		return SubmitResult{}, Conflictf("attempt cannot be graded because answer key is missing")
	}

	total := attempt.TotalQuestions
	if total <= 0 {
		total = len(questions)
	}
	breakdown := grading.Grade(gradingView(questions), attempt.Answers, total)

	submittedAt := time.Now().Unix()
	ok, err := s.store.SubmitAttempt(ctx, attemptID, SubmitUpdate{
		Score:           breakdown.Score,
		TotalQuestions:  breakdown.TotalQuestions,
		CorrectCount:    breakdown.Correct,
		IncorrectCount:  breakdown.Incorrect,
		Unattempted:     breakdown.Unattempted,
		AutoSubmitted:   autoSubmitted,
		ViolationReason: violation,
		QuestionSet:     questions,
		TimeSpent:       times,
		SubmittedAt:     submittedAt,
	})
	if err != nil {
		return SubmitResult{}, err
	}
	if !ok {
		// another submit won the race; this caller observes a conflict
		return SubmitResult{}, Conflictf("attempt already submitted")
	}

	if !haveUnit {
		if unit, err = s.store.GetUnit(ctx, attempt.UnitID); err == nil {
			haveUnit = true
		}
	}
	s.emitSubmitEffects(ctx, student, attempt, unit, haveUnit, breakdown.Score, autoSubmitted, violation)

	result := SubmitResult{
		AttemptID:      attemptID,
		Score:          breakdown.Score,
		TotalQuestions: breakdown.TotalQuestions,
		Answered:       breakdown.Answered,
		CorrectCount:   breakdown.Correct,
		IncorrectCount: breakdown.Incorrect,
		Unattempted:    breakdown.Unattempted,
		AutoSubmitted:  autoSubmitted,
	}
	if haveUnit && unit.Kind == KindTaskQuiz {
		passed := breakdown.Score >= s.cfg.QuizPassThreshold
		result.Passed = &passed
	}
	return result, nil
}

// emitSubmitEffects fires the post-grading collaborators: activity log,
// result-ready notification, and an integrity alert to the unit owner on
// auto-submit. All failures are absorbed; they must never fail the
// submission.
func (s *Service) emitSubmitEffects(ctx context.Context, student Student, attempt Attempt, unit Unit, haveUnit bool, score float64, autoSubmitted bool, violation string) {
	name := student.Name
	if name == "" {
		name = "Student"
	}
	text := fmt.Sprintf("%s submitted test with score %.1f%%", name, score)
	if autoSubmitted {
		text = fmt.Sprintf("%s was auto-submitted for leaving test screen (%.1f%%)", name, score)
	}
	if s.activity != nil {
		err := s.activity.Append(ctx, activity.Event{
			Type:      "test",
			ActorID:   student.ID,
			ActorRole: "student",
			Key:       attempt.ID,
			Text:      text,
			Metadata: map[string]interface{}{
				"attempt_id":       attempt.ID,
				"score":            score,
				"subject":          attempt.Subject,
				"auto_submitted":   autoSubmitted,
				"violation_reason": violation,
			},
		})
		if err != nil {
			log.Printf("assessment: activity log failed for attempt %s: %v", attempt.ID, err)
		}
	}

	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Your result is ready. Score: %.1f%%", score)
	if err := s.notifier.Create(ctx, student.ID, "Result Ready", msg, "result"); err != nil {
		log.Printf("assessment: result notification failed for attempt %s: %v", attempt.ID, err)
	}
	if autoSubmitted && haveUnit && unit.OwnerID != "" && unit.OwnerID != student.ID {
		alert := fmt.Sprintf("%s's attempt for %q was auto-submitted for leaving the test screen.", name, unit.Title)
		if err := s.notifier.Create(ctx, unit.OwnerID, "Test Auto-Submitted", alert, "test"); err != nil {
			log.Printf("assessment: integrity alert failed for attempt %s: %v", attempt.ID, err)
		}
	}
}

// ReviewQuestion is one row of the post-submission review.
type ReviewQuestion struct {
	QuestionID     string   `json:"question_id"`
	Subject        string   `json:"subject"`
	QuestionText   string   `json:"question_text"`
	Options        []string `json:"options"`
	SelectedAnswer *int     `json:"selected_answer"`
	CorrectAnswer  int      `json:"correct_answer"`
	IsCorrect      bool     `json:"is_correct"`
	Explanation    string   `json:"explanation"`
}

// ResultView is the student-facing review of a submitted attempt.
type ResultView struct {
	AttemptID      string           `json:"attempt_id"`
	UnitID         string           `json:"unit_id"`
	Subject        string           `json:"subject"`
	Score          float64          `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	Answered       int              `json:"answered"`
	CorrectCount   int              `json:"correct_answers"`
	IncorrectCount int              `json:"incorrect_answers"`
	Unattempted    int              `json:"unattempted"`
	AutoSubmitted  bool             `json:"auto_submitted"`
	SubmittedAt    int64            `json:"submitted_at"`
	Questions      []ReviewQuestion `json:"questions"`
}

const reviewFallbackExplanation = "Review the concept for this question and retry a similar problem."

// Result rebuilds the per-question review from a submitted attempt.
// Results are never visible before submission: a non-submitted or foreign
// attempt reads as not found.
func (s *Service) Result(ctx context.Context, student Student, attemptID string) (ResultView, error) {
	attempt, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return ResultView{}, err
	}
	if attempt.StudentID != student.ID || attempt.Status != AttemptSubmitted {
		return ResultView{}, NotFoundf("result not found")
	}

	rows := make([]ReviewQuestion, 0, len(attempt.QuestionSet))
	for _, q := range attempt.QuestionSet {
		selected := attempt.Answers[q.ID]
		explanation := q.Explanation
		if strings.TrimSpace(explanation) == "" {
			explanation = reviewFallbackExplanation
		}
		rows = append(rows, ReviewQuestion{
			QuestionID:     q.ID,
			Subject:        q.Subject,
			QuestionText:   q.Text,
			Options:        q.Options,
			SelectedAnswer: selected,
			CorrectAnswer:  q.Correct,
			IsCorrect:      selected != nil && *selected == q.Correct,
			Explanation:    explanation,
		})
	}

	return ResultView{
		AttemptID:      attempt.ID,
		UnitID:         attempt.UnitID,
		Subject:        attempt.Subject,
		Score:          attempt.Score,
		TotalQuestions: attempt.TotalQuestions,
		Answered:       attempt.CorrectCount + attempt.IncorrectCount,
		CorrectCount:   attempt.CorrectCount,
		IncorrectCount: attempt.IncorrectCount,
		Unattempted:    attempt.Unattempted,
		AutoSubmitted:  attempt.AutoSubmitted,
		SubmittedAt:    attempt.SubmittedAt,
		Questions:      rows,
	}, nil
}

// UnitInput is the teacher-facing unit creation payload.
type UnitInput struct {
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"question_count"`
	DurationMin   int    `json:"duration_min"`
	Year          string `json:"year"`
}

// CreateUnit registers a draft test paper. The question set stays unfrozen
// until the first student start.
func (s *Service) CreateUnit(ctx context.Context, ownerID string, in UnitInput) (Unit, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Unit{}, Validationf("title is required")
	}
	if strings.TrimSpace(in.Subject) == "" {
		return Unit{}, Validationf("subject is required")
	}
	if in.QuestionCount <= 0 {
		return Unit{}, Validationf("question_count must be positive")
	}
	if in.Difficulty == "" {
		in.Difficulty = "Medium"
	}
	if in.DurationMin <= 0 {
		in.DurationMin = 60
	}
	unit := Unit{
		ID:            uuid.NewString(),
		Kind:          KindTest,
		Title:         in.Title,
		Subject:       in.Subject,
		Topic:         in.Topic,
		Difficulty:    in.Difficulty,
		QuestionCount: in.QuestionCount,
		DurationMin:   in.DurationMin,
		OwnerID:       ownerID,
		Year:          in.Year,
		Status:        StatusDraft,
	}
	if err := s.store.PutUnit(ctx, unit); err != nil {
		return Unit{}, err
	}
	return s.store.GetUnit(ctx, unit.ID)
}

// AssignUnit moves an owned unit into the assigned status for the given
// classes.
func (s *Service) AssignUnit(ctx context.Context, ownerID, unitID string, classIDs []string) (Unit, error) {
	unit, err := s.store.GetUnit(ctx, unitID)
	if err != nil {
		return Unit{}, err
	}
	if unit.OwnerID != ownerID {
		return Unit{}, NotFoundf("unit not found")
	}
	return s.store.AssignUnit(ctx, unitID, classIDs)
}

// ListUnits lists units owned by the caller, without answer keys.
func (s *Service) ListUnits(ctx context.Context, ownerID string) ([]Unit, error) {
	units, err := s.store.ListUnits(ctx, UnitListOpts{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	for i := range units {
		units[i].QuestionSet = nil
	}
	return units, nil
}

// StartTaskQuiz creates a five-question mastery quiz for a study task and
// starts an attempt at it in one call. The quiz unit is owned by the student
// and always permits the template fallback.
func (s *Service) StartTaskQuiz(ctx context.Context, student Student, subject, topic string) (StartResult, error) {
	if strings.TrimSpace(subject) == "" {
		subject = "Physics"
	}
	unit := Unit{
		ID:            uuid.NewString(),
		Kind:          KindTaskQuiz,
		Title:         strings.TrimSpace(topic),
		Subject:       subject,
		Topic:         strings.TrimSpace(topic),
		Difficulty:    "Medium",
		QuestionCount: taskQuizQuestionCount,
		DurationMin:   15,
		OwnerID:       student.ID,
		Status:        StatusActive,
	}
	if unit.Title == "" {
		unit.Title = subject + " quiz"
	}
	if err := s.store.PutUnit(ctx, unit); err != nil {
		return StartResult{}, err
	}
	return s.StartOrResume(ctx, student, unit.ID)
}

// SynthesizePreview lets a unit author preview a generated set without
// freezing anything.
func (s *Service) SynthesizePreview(ctx context.Context, req SynthesisRequest) ([]Question, string, error) {
	return s.synth.Synthesize(ctx, req)
}

func (s *Service) authorize(ctx context.Context, student Student, unit Unit) error {
	// Task quizzes belong to the student who spawned them.
	if unit.Kind == KindTaskQuiz {
		if unit.OwnerID != student.ID {
			return NotFoundf("unit not found")
		}
		return nil
	}
	ok, err := s.roster.AuthorizedForUnit(ctx, student.ID, student.Year, unit)
	if err != nil {
		return err
	}
	if !ok {
		return Forbiddenf("unit is not assigned to this student")
	}
	return nil
}

// ownedAttempt fetches an attempt and hides other students' attempts behind
// not-found (authorization by obscurity, same status as true absence).
func (s *Service) ownedAttempt(ctx context.Context, student Student, attemptID string) (Attempt, error) {
	attempt, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if attempt.StudentID != student.ID {
		return Attempt{}, NotFoundf("attempt not found")
	}
	return attempt, nil
}

// mergeTimeSpent merges untrusted per-question elapsed seconds into dst,
// dropping non-integer or negative values silently.
func mergeTimeSpent(dst map[string]int, src map[string]interface{}) {
	for id, v := range src {
		switch t := v.(type) {
		case float64:
			if t >= 0 && t == float64(int(t)) {
				dst[id] = int(t)
			}
		case int:
			if t >= 0 {
				dst[id] = t
			}
		}
	}
}

func gradingView(qs []Question) []grading.Q {
	out := make([]grading.Q, 0, len(qs))
	for _, q := range qs {
		out = append(out, grading.Q{ID: q.ID, Correct: q.Correct})
	}
	return out
}
