package assessment

import "context"

// UnitListOpts filters unit listings.
type UnitListOpts struct {
	OwnerID string
	Kind    string
	Subject string
	Limit   int
	Offset  int
}

// SubmitUpdate carries every field persisted by the exactly-once submit
// transition.
type SubmitUpdate struct {
	Score           float64
	TotalQuestions  int
	CorrectCount    int
	IncorrectCount  int
	Unattempted     int
	AutoSubmitted   bool
	ViolationReason string
	QuestionSet     []Question // recovered set, persisted alongside grading
	TimeSpent       map[string]int
	SubmittedAt     int64
}

// Store is the durable record of units and attempts. Implementations must
// make FreezeQuestionSet write-once, CreateAttempt unique per
// (unit, student, in_progress), and SubmitAttempt a compare-and-swap on
// status so concurrent submits converge on exactly one grading pass.
type Store interface {
	PutUnit(ctx context.Context, u Unit) error
	GetUnit(ctx context.Context, id string) (Unit, error)
	ListUnits(ctx context.Context, opts UnitListOpts) ([]Unit, error)
	// AssignUnit moves a unit into the assigned status for the given classes.
	AssignUnit(ctx context.Context, unitID string, classIDs []string) (Unit, error)
	// FreezeQuestionSet writes the set only if the unit has none yet and
	// returns the unit as frozen, whichever caller won.
	FreezeQuestionSet(ctx context.Context, unitID string, qs []Question, source string) (Unit, error)

	// CreateAttempt inserts a new in-progress attempt. A Conflict error means
	// another in-progress attempt for the same (unit, student) already exists.
	CreateAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	// FindAttempt looks up by (unit, student, status); NotFound when absent.
	FindAttempt(ctx context.Context, unitID, studentID, status string) (Attempt, error)
	// SaveProgress overwrites the answer and time-spent maps of an attempt.
	SaveProgress(ctx context.Context, attemptID string, answers map[string]*int, timeSpent map[string]int) error
	// BackfillQuestionSet attaches a frozen set to an attempt that predates
	// freezing.
	BackfillQuestionSet(ctx context.Context, attemptID string, qs []Question) error
	// SubmitAttempt transitions in_progress -> submitted, persisting the
	// grading outcome. Returns false when the attempt was not in progress,
	// so the losing racer observes a conflict rather than a double grade.
	SubmitAttempt(ctx context.Context, attemptID string, upd SubmitUpdate) (bool, error)
}
