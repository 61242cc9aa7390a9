package assessment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exampulse/exampulse/internal/activity"
	"github.com/exampulse/exampulse/internal/assessment"
	"github.com/exampulse/exampulse/internal/roster"
)

// fakeSynth returns a deterministic set sized to the request. Correct answers
// cycle 0..3 so grading outcomes are predictable.
type fakeSynth struct {
	mu      sync.Mutex
	calls   int
	lastReq assessment.SynthesisRequest
	err     error
	empty   bool
}

func (f *fakeSynth) Synthesize(_ context.Context, req assessment.SynthesisRequest) ([]assessment.Question, string, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()

	if f.err != nil {
		return nil, assessment.SourceNone, f.err
	}
	if f.empty {
		return []assessment.Question{}, assessment.SourceNone, nil
	}
	qs := make([]assessment.Question, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		qs = append(qs, assessment.Question{
			ID:          fmt.Sprintf("q%d", i+1),
			Subject:     req.Subject,
			Text:        fmt.Sprintf("Q%d. [%s] synthetic question", i+1, req.Difficulty),
			Options:     []string{"A", "B", "C", "D"},
			Correct:     i % 4,
			Explanation: fmt.Sprintf("Option %d is right.", i%4+1),
		})
	}
	return qs, assessment.SourceAI, nil
}

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sentNotification struct {
	UserID, Title, Kind string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) Create(_ context.Context, userID, title, _, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentNotification{UserID: userID, Title: title, Kind: kind})
	return nil
}

type fakeActivity struct {
	mu     sync.Mutex
	events []activity.Event
	err    error
}

func (f *fakeActivity) Append(_ context.Context, e activity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

type fixture struct {
	store    assessment.Store
	synth    *fakeSynth
	notifier *fakeNotifier
	events   *fakeActivity
	svc      *assessment.Service
}

func newFixture(t *testing.T, cfg assessment.ServiceConfig) *fixture {
	t.Helper()
	f := &fixture{
		store:    assessment.NewInMemoryStore(),
		synth:    &fakeSynth{},
		notifier: &fakeNotifier{},
		events:   &fakeActivity{},
	}
	members := &roster.StaticRoster{Members: map[string][]string{
		"class-a": {"stu-1", "stu-2"},
	}}
	f.svc = assessment.NewService(f.store, f.synth, members, f.notifier, f.events, cfg)
	return f
}

func (f *fixture) seedUnit(t *testing.T, u assessment.Unit) {
	t.Helper()
	require.NoError(t, f.store.PutUnit(context.Background(), u))
}

func assignedUnit(count int) assessment.Unit {
	return assessment.Unit{
		ID:            "unit-1",
		Kind:          assessment.KindTest,
		Title:         "Mechanics Paper",
		Subject:       "Physics",
		Difficulty:    "Medium",
		QuestionCount: count,
		DurationMin:   60,
		OwnerID:       "teacher-1",
		Status:        assessment.StatusAssigned,
		ClassIDs:      []string{"class-a"},
	}
}

var (
	alice    = assessment.Student{ID: "stu-1", Name: "Asha", Year: "12"}
	bob      = assessment.Student{ID: "stu-2", Name: "Bilal", Year: "12"}
	outsider = assessment.Student{ID: "stu-9", Name: "Omar", Year: "12"}
)

func TestStartFreezesSetAndResumeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	first, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, assessment.AttemptInProgress, first.Status)
	assert.Equal(t, 60, first.Duration)
	require.Len(t, first.Questions, 3)
	assert.Empty(t, first.Answers)

	_, err = f.svc.SaveAnswers(ctx, alice, first.AttemptID,
		map[string]interface{}{"q1": float64(2)}, nil)
	require.NoError(t, err)

	second, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, first.AttemptID, second.AttemptID)
	assert.Equal(t, first.StartedAt, second.StartedAt)
	require.NotNil(t, second.Answers["q1"])
	assert.Equal(t, 2, *second.Answers["q1"])
	assert.Equal(t, 1, f.synth.callCount())
}

func TestFrozenSetIsSharedAcrossStudents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	a, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)
	b, err := f.svc.StartOrResume(ctx, bob, "unit-1")
	require.NoError(t, err)

	assert.NotEqual(t, a.AttemptID, b.AttemptID)
	assert.Equal(t, a.Questions, b.Questions)
	assert.Equal(t, 1, f.synth.callCount(), "second start must reuse the frozen set")
}

func TestStartQuestionsCarryNoAnswerKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(2))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)
	for _, q := range res.Questions {
		assert.NotEmpty(t, q.ID)
		assert.Len(t, q.Options, 4)
	}
}

func TestStartUnassignedStudentForbidden(t *testing.T) {
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	_, err := f.svc.StartOrResume(context.Background(), outsider, "unit-1")
	require.Error(t, err)
	assert.Equal(t, assessment.KindForbidden, assessment.KindOf(err))
	assert.Equal(t, 0, f.synth.callCount(), "authorization precedes synthesis")
}

func TestStartDraftUnitForbidden(t *testing.T) {
	f := newFixture(t, assessment.ServiceConfig{})
	u := assignedUnit(3)
	u.Status = assessment.StatusDraft
	f.seedUnit(t, u)

	_, err := f.svc.StartOrResume(context.Background(), alice, "unit-1")
	require.Error(t, err)
	assert.Equal(t, assessment.KindForbidden, assessment.KindOf(err))
}

func TestStartUnknownUnitNotFound(t *testing.T) {
	f := newFixture(t, assessment.ServiceConfig{})
	_, err := f.svc.StartOrResume(context.Background(), alice, "nope")
	assert.True(t, assessment.IsNotFound(err))
}

func TestStartAfterSubmitConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(2))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	require.NoError(t, err)

	_, err = f.svc.StartOrResume(ctx, alice, "unit-1")
	require.Error(t, err)
	assert.True(t, assessment.IsConflict(err))
}

func TestConcurrentStartsConverge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
			errs[i] = err
			ids[i] = res.AttemptID
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}
	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i], "all racers must converge on one attempt")
	}
}

func TestSaveAnswersNormalizesValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)

	// strings parse, negatives and nulls read as unanswered
	saved, err := f.svc.SaveAnswers(ctx, alice, res.AttemptID, map[string]interface{}{
		"q1": "2",
		"q2": float64(-1),
		"q3": nil,
	}, map[string]interface{}{
		"q1": float64(30),
		"q2": float64(-5),   // dropped
		"q3": float64(12.5), // dropped
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved.SavedAnswers)

	attempt, err := f.store.GetAttempt(ctx, res.AttemptID)
	require.NoError(t, err)
	require.NotNil(t, attempt.Answers["q1"])
	assert.Equal(t, 2, *attempt.Answers["q1"])
	assert.Nil(t, attempt.Answers["q2"])
	assert.Nil(t, attempt.Answers["q3"])
	assert.Equal(t, map[string]int{"q1": 30}, attempt.TimeSpent)
}

func TestSaveAnswersMergesIncrementally(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)

	_, err = f.svc.SaveAnswers(ctx, alice, res.AttemptID,
		map[string]interface{}{"q1": float64(0)}, nil)
	require.NoError(t, err)
	saved, err := f.svc.SaveAnswers(ctx, alice, res.AttemptID,
		map[string]interface{}{"q2": float64(1)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.SavedAnswers)

	// overwrite one key, leave the other alone
	saved, err = f.svc.SaveAnswers(ctx, alice, res.AttemptID,
		map[string]interface{}{"q1": float64(3)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.SavedAnswers)

	attempt, err := f.store.GetAttempt(ctx, res.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, 3, *attempt.Answers["q1"])
	assert.Equal(t, 1, *attempt.Answers["q2"])
}

func TestSaveAnswersForeignAttemptHidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(2))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)

	_, err = f.svc.SaveAnswers(ctx, bob, res.AttemptID,
		map[string]interface{}{"q1": float64(1)}, nil)
	assert.True(t, assessment.IsNotFound(err))
}

func TestSaveAnswersAfterSubmitConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(2))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	require.NoError(t, err)

	_, err = f.svc.SaveAnswers(ctx, alice, res.AttemptID,
		map[string]interface{}{"q1": float64(1)}, nil)
	assert.True(t, assessment.IsConflict(err))
}

func TestSubmitGradesAndIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)

	// key is 0,1,2: one right, one wrong, one blank
	_, err = f.svc.SaveAnswers(ctx, alice, res.AttemptID, map[string]interface{}{
		"q1": float64(0),
		"q2": float64(3),
	}, nil)
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 33.3, result.Score)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 2, result.Answered)
	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 1, result.IncorrectCount)
	assert.Equal(t, 1, result.Unattempted)
	assert.False(t, result.AutoSubmitted)
	assert.Nil(t, result.Passed, "passed is a task-quiz field")

	_, err = f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	assert.True(t, assessment.IsConflict(err))
}

func TestConcurrentSubmitsSucceedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assessment.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected submit error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
}

func TestSubmitWithViolationAutoSubmitsAndAlertsOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(2))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, alice, res.AttemptID, "tab_switch", nil)
	require.NoError(t, err)
	assert.True(t, result.AutoSubmitted)

	f.notifier.mu.Lock()
	sent := append([]sentNotification(nil), f.notifier.sent...)
	f.notifier.mu.Unlock()
	require.Len(t, sent, 2)
	assert.Equal(t, alice.ID, sent[0].UserID)
	assert.Equal(t, "result", sent[0].Kind)
	assert.Equal(t, "teacher-1", sent[1].UserID)
	assert.Equal(t, "Test Auto-Submitted", sent[1].Title)

	f.events.mu.Lock()
	events := append([]activity.Event(nil), f.events.events...)
	f.events.mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "test", events[0].Type)
	assert.Equal(t, res.AttemptID, events[0].Key)
	assert.Equal(t, true, events[0].Metadata["auto_submitted"])
}

func TestSubmitSideEffectFailuresAreAbsorbed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.notifier.err = errors.New("smtp down")
	f.events.err = errors.New("log table locked")
	f.seedUnit(t, assignedUnit(2))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Unattempted)

	attempt, err := f.store.GetAttempt(ctx, res.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, assessment.AttemptSubmitted, attempt.Status)
}

func TestSubmitWithoutAnswerKeyConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.synth.empty = true
	f.seedUnit(t, assignedUnit(3))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	require.Error(t, err)
	assert.True(t, assessment.IsConflict(err))

	attempt, err := f.store.GetAttempt(ctx, res.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, assessment.AttemptInProgress, attempt.Status, "ungradable attempt stays open")
}

func TestResultReconstructsReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)
	_, err = f.svc.SaveAnswers(ctx, alice, res.AttemptID, map[string]interface{}{
		"q1": float64(0),
		"q2": float64(3),
	}, nil)
	require.NoError(t, err)

	// not visible before submission
	_, err = f.svc.Result(ctx, alice, res.AttemptID)
	assert.True(t, assessment.IsNotFound(err))

	_, err = f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	require.NoError(t, err)

	view, err := f.svc.Result(ctx, alice, res.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, "unit-1", view.UnitID)
	assert.Equal(t, 33.3, view.Score)
	assert.Equal(t, 2, view.Answered)
	require.Len(t, view.Questions, 3)

	q1, q2, q3 := view.Questions[0], view.Questions[1], view.Questions[2]
	assert.True(t, q1.IsCorrect)
	require.NotNil(t, q2.SelectedAnswer)
	assert.Equal(t, 3, *q2.SelectedAnswer)
	assert.False(t, q2.IsCorrect)
	assert.Equal(t, 1, q2.CorrectAnswer)
	assert.Nil(t, q3.SelectedAnswer)
	assert.False(t, q3.IsCorrect)
	assert.NotEmpty(t, q1.Explanation)

	// other students cannot read it
	_, err = f.svc.Result(ctx, bob, res.AttemptID)
	assert.True(t, assessment.IsNotFound(err))
}

func TestResultFallsBackToGenericExplanation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	u := assignedUnit(1)
	u.QuestionSet = []assessment.Question{{
		ID:      "q1",
		Subject: "Physics",
		Text:    "Q1. [Medium] pre-frozen",
		Options: []string{"A", "B", "C", "D"},
		Correct: 0,
	}}
	f.seedUnit(t, u)

	res, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	require.NoError(t, err)

	view, err := f.svc.Result(ctx, alice, res.AttemptID)
	require.NoError(t, err)
	require.Len(t, view.Questions, 1)
	assert.NotEmpty(t, view.Questions[0].Explanation)
	assert.Equal(t, 0, f.synth.callCount(), "pre-frozen sets skip synthesis")
}

func TestRequireAIForTestsSurfacesSynthesisFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{RequireAIForTests: true})
	f.synth.err = assessment.Unavailablef("ai question generation failed for this paper, please try again")
	f.seedUnit(t, assignedUnit(3))

	_, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.Error(t, err)
	assert.Equal(t, assessment.KindUnavailable, assessment.KindOf(err))
	assert.True(t, f.synth.lastReq.RequireAI)
}

func TestTaskQuizLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{RequireAIForTests: true})

	res, err := f.svc.StartTaskQuiz(ctx, alice, "Chemistry", "Equilibrium")
	require.NoError(t, err)
	require.Len(t, res.Questions, 5)
	assert.False(t, f.synth.lastReq.RequireAI, "task quizzes always allow the template fallback")

	// key is 0,1,2,3,0: answer two right
	_, err = f.svc.SaveAnswers(ctx, alice, res.AttemptID, map[string]interface{}{
		"q1": float64(0),
		"q2": float64(1),
	}, nil)
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.Score)
	require.NotNil(t, result.Passed)
	assert.True(t, *result.Passed, "zero threshold preserves always-pass")
}

func TestTaskQuizPassThreshold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{QuizPassThreshold: 60})

	res, err := f.svc.StartTaskQuiz(ctx, alice, "Physics", "Rotation")
	require.NoError(t, err)

	_, err = f.svc.SaveAnswers(ctx, alice, res.AttemptID, map[string]interface{}{
		"q1": float64(0),
		"q2": float64(1),
	}, nil)
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, alice, res.AttemptID, "", nil)
	require.NoError(t, err)
	require.NotNil(t, result.Passed)
	assert.False(t, *result.Passed)
}

func TestTaskQuizHiddenFromOtherStudents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})

	res, err := f.svc.StartTaskQuiz(ctx, alice, "Physics", "Optics")
	require.NoError(t, err)

	attempt, err := f.store.GetAttempt(ctx, res.AttemptID)
	require.NoError(t, err)
	_, err = f.svc.StartOrResume(ctx, bob, attempt.UnitID)
	assert.True(t, assessment.IsNotFound(err))
}

func TestCreateUnitValidatesAndDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})

	_, err := f.svc.CreateUnit(ctx, "teacher-1", assessment.UnitInput{Subject: "Physics", QuestionCount: 5})
	assert.Equal(t, assessment.KindValidation, assessment.KindOf(err))

	_, err = f.svc.CreateUnit(ctx, "teacher-1", assessment.UnitInput{Title: "T", Subject: "Physics"})
	assert.Equal(t, assessment.KindValidation, assessment.KindOf(err))

	unit, err := f.svc.CreateUnit(ctx, "teacher-1", assessment.UnitInput{
		Title: "Waves", Subject: "Physics", QuestionCount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, assessment.StatusDraft, unit.Status)
	assert.Equal(t, "Medium", unit.Difficulty)
	assert.Equal(t, 60, unit.DurationMin)
	assert.Equal(t, "teacher-1", unit.OwnerID)
	assert.Empty(t, unit.QuestionSet, "sets freeze on first start, not creation")
}

func TestAssignUnitRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})

	unit, err := f.svc.CreateUnit(ctx, "teacher-1", assessment.UnitInput{
		Title: "Waves", Subject: "Physics", QuestionCount: 10,
	})
	require.NoError(t, err)

	_, err = f.svc.AssignUnit(ctx, "teacher-2", unit.ID, []string{"class-a"})
	assert.True(t, assessment.IsNotFound(err))

	assigned, err := f.svc.AssignUnit(ctx, "teacher-1", unit.ID, []string{"class-a"})
	require.NoError(t, err)
	assert.Equal(t, assessment.StatusAssigned, assigned.Status)
	assert.Equal(t, []string{"class-a"}, assigned.ClassIDs)
}

func TestListUnitsStripsAnswerKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, assessment.ServiceConfig{})
	f.seedUnit(t, assignedUnit(3))

	_, err := f.svc.StartOrResume(ctx, alice, "unit-1")
	require.NoError(t, err)

	units, err := f.svc.ListUnits(ctx, "teacher-1")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Nil(t, units[0].QuestionSet)
	assert.Equal(t, assessment.SourceAI, units[0].QuestionSource)
}
