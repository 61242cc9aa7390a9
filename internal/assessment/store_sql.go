package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLStore persists units and attempts over database/sql. Works against
// sqlite (offline default) and postgres; both schemas keep question sets and
// answer maps as JSON text columns.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutUnit(ctx context.Context, u Unit) error {
	qs, err := marshalQuestions(u.QuestionSet)
	if err != nil {
		return err
	}
	classes, err := json.Marshal(u.ClassIDs)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	if u.CreatedAt == 0 {
		u.CreatedAt = now
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO units
		(id,kind,title,subject,topic,difficulty,question_count,duration_min,owner_id,year,status,assigned,class_ids_json,question_set_json,question_source,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO UPDATE SET
			title=EXCLUDED.title, subject=EXCLUDED.subject, topic=EXCLUDED.topic,
			difficulty=EXCLUDED.difficulty, question_count=EXCLUDED.question_count,
			duration_min=EXCLUDED.duration_min, year=EXCLUDED.year, status=EXCLUDED.status,
			assigned=EXCLUDED.assigned, class_ids_json=EXCLUDED.class_ids_json,
			updated_at=EXCLUDED.updated_at`,
		u.ID, u.Kind, u.Title, u.Subject, u.Topic, u.Difficulty, u.QuestionCount,
		u.DurationMin, u.OwnerID, u.Year, u.Status, u.Assigned, string(classes),
		qs, u.QuestionSource, u.CreatedAt, now)
	return err
}

const unitColumns = `id,kind,title,subject,topic,difficulty,question_count,duration_min,owner_id,year,status,assigned,class_ids_json,question_set_json,question_source,created_at,updated_at`

func (s *SQLStore) GetUnit(ctx context.Context, id string) (Unit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units WHERE id=$1`, id)
	return scanUnit(row)
}

func (s *SQLStore) ListUnits(ctx context.Context, opts UnitListOpts) ([]Unit, error) {
	q := `SELECT ` + unitColumns + ` FROM units WHERE 1=1`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return placeholder(len(args))
	}
	if opts.OwnerID != "" {
		q += ` AND owner_id=` + arg(opts.OwnerID)
	}
	if opts.Kind != "" {
		q += ` AND kind=` + arg(opts.Kind)
	}
	if opts.Subject != "" {
		q += ` AND subject=` + arg(opts.Subject)
	}
	q += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		q += ` LIMIT ` + arg(opts.Limit)
		if opts.Offset > 0 {
			q += ` OFFSET ` + arg(opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (s *SQLStore) AssignUnit(ctx context.Context, unitID string, classIDs []string) (Unit, error) {
	classes, err := json.Marshal(classIDs)
	if err != nil {
		return Unit{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE units SET status=$1, assigned=$2, class_ids_json=$3, updated_at=$4 WHERE id=$5`,
		StatusAssigned, true, string(classes), time.Now().Unix(), unitID)
	if err != nil {
		return Unit{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Unit{}, NotFoundf("unit not found")
	}
	return s.GetUnit(ctx, unitID)
}

func (s *SQLStore) FreezeQuestionSet(ctx context.Context, unitID string, qs []Question, source string) (Unit, error) {
	payload, err := marshalQuestions(qs)
	if err != nil {
		return Unit{}, err
	}
	// Write-once: only the first caller lands the set, everyone re-reads.
	_, err = s.db.ExecContext(ctx,
		`UPDATE units SET question_set_json=$1, question_source=$2, updated_at=$3
		 WHERE id=$4 AND (question_set_json IS NULL OR question_set_json='')`,
		payload, source, time.Now().Unix(), unitID)
	if err != nil {
		return Unit{}, err
	}
	return s.GetUnit(ctx, unitID)
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) error {
	qs, err := marshalQuestions(a.QuestionSet)
	if err != nil {
		return err
	}
	answers, err := json.Marshal(orEmptyAnswers(a.Answers))
	if err != nil {
		return err
	}
	timeSpent, err := json.Marshal(orEmptyTimes(a.TimeSpent))
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,unit_id,student_id,subject,status,question_set_json,answers_json,time_spent_json,
		 score,total_questions,correct_count,incorrect_count,unattempted,auto_submitted,
		 violation_reason,started_at,submitted_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		a.ID, a.UnitID, a.StudentID, a.Subject, a.Status, qs, string(answers), string(timeSpent),
		a.Score, a.TotalQuestions, a.CorrectCount, a.IncorrectCount, a.Unattempted,
		a.AutoSubmitted, nullString(a.ViolationReason), a.StartedAt, nullInt64(a.SubmittedAt), now)
	if isUniqueViolation(err) {
		return Conflictf("attempt already in progress for this unit")
	}
	return err
}

const attemptColumns = `id,unit_id,student_id,subject,status,question_set_json,answers_json,time_spent_json,score,total_questions,correct_count,incorrect_count,unattempted,auto_submitted,violation_reason,started_at,submitted_at,updated_at`

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) FindAttempt(ctx context.Context, unitID, studentID, status string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE unit_id=$1 AND student_id=$2 AND status=$3
		 ORDER BY started_at DESC LIMIT 1`,
		unitID, studentID, status)
	return scanAttempt(row)
}

func (s *SQLStore) SaveProgress(ctx context.Context, attemptID string, answers map[string]*int, timeSpent map[string]int) error {
	ajson, err := json.Marshal(orEmptyAnswers(answers))
	if err != nil {
		return err
	}
	tjson, err := json.Marshal(orEmptyTimes(timeSpent))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET answers_json=$1, time_spent_json=$2, updated_at=$3 WHERE id=$4`,
		string(ajson), string(tjson), time.Now().Unix(), attemptID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundf("attempt not found")
	}
	return nil
}

func (s *SQLStore) BackfillQuestionSet(ctx context.Context, attemptID string, qs []Question) error {
	payload, err := marshalQuestions(qs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE attempts SET question_set_json=$1, total_questions=$2, updated_at=$3 WHERE id=$4`,
		payload, len(qs), time.Now().Unix(), attemptID)
	return err
}

func (s *SQLStore) SubmitAttempt(ctx context.Context, attemptID string, upd SubmitUpdate) (bool, error) {
	qs, err := marshalQuestions(upd.QuestionSet)
	if err != nil {
		return false, err
	}
	tjson, err := json.Marshal(orEmptyTimes(upd.TimeSpent))
	if err != nil {
		return false, err
	}
	// CAS on status: the second concurrent submit affects zero rows.
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET status=$1, score=$2, total_questions=$3, correct_count=$4,
			incorrect_count=$5, unattempted=$6, auto_submitted=$7, violation_reason=$8,
			question_set_json=$9, time_spent_json=$10, submitted_at=$11, updated_at=$12
		 WHERE id=$13 AND status=$14`,
		AttemptSubmitted, upd.Score, upd.TotalQuestions, upd.CorrectCount,
		upd.IncorrectCount, upd.Unattempted, upd.AutoSubmitted, nullString(upd.ViolationReason),
		qs, string(tjson), upd.SubmittedAt, time.Now().Unix(),
		attemptID, AttemptInProgress)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUnit(row rowScanner) (Unit, error) {
	var u Unit
	var classes, qs sql.NullString
	var topic, year, source sql.NullString
	err := row.Scan(&u.ID, &u.Kind, &u.Title, &u.Subject, &topic, &u.Difficulty,
		&u.QuestionCount, &u.DurationMin, &u.OwnerID, &year, &u.Status, &u.Assigned,
		&classes, &qs, &source, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Unit{}, NotFoundf("unit not found")
	}
	if err != nil {
		return Unit{}, err
	}
	u.Topic = topic.String
	u.Year = year.String
	u.QuestionSource = source.String
	if classes.String != "" {
		if err := json.Unmarshal([]byte(classes.String), &u.ClassIDs); err != nil {
			u.ClassIDs = nil
		}
	}
	if qs.String != "" {
		if err := json.Unmarshal([]byte(qs.String), &u.QuestionSet); err != nil {
			return Unit{}, err
		}
	}
	return u, nil
}

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var qs, answers, timeSpent sql.NullString
	var violation sql.NullString
	var submittedAt sql.NullInt64
	err := row.Scan(&a.ID, &a.UnitID, &a.StudentID, &a.Subject, &a.Status,
		&qs, &answers, &timeSpent, &a.Score, &a.TotalQuestions, &a.CorrectCount,
		&a.IncorrectCount, &a.Unattempted, &a.AutoSubmitted, &violation,
		&a.StartedAt, &submittedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, NotFoundf("attempt not found")
	}
	if err != nil {
		return Attempt{}, err
	}
	a.ViolationReason = violation.String
	a.SubmittedAt = submittedAt.Int64
	if qs.String != "" {
		if err := json.Unmarshal([]byte(qs.String), &a.QuestionSet); err != nil {
			return Attempt{}, err
		}
	}
	a.Answers = map[string]*int{}
	if answers.String != "" {
		if err := json.Unmarshal([]byte(answers.String), &a.Answers); err != nil {
			a.Answers = map[string]*int{}
		}
	}
	a.TimeSpent = map[string]int{}
	if timeSpent.String != "" {
		if err := json.Unmarshal([]byte(timeSpent.String), &a.TimeSpent); err != nil {
			a.TimeSpent = map[string]int{}
		}
	}
	return a, nil
}

func marshalQuestions(qs []Question) (string, error) {
	if len(qs) == 0 {
		return "", nil
	}
	buf, err := json.Marshal(qs)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func orEmptyAnswers(m map[string]*int) map[string]*int {
	if m == nil {
		return map[string]*int{}
	}
	return m
}

func orEmptyTimes(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

// $N placeholders bind positionally under both drivers in use.
func placeholder(n int) string { return "$" + strconv.Itoa(n) }

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") // sqlite
}
