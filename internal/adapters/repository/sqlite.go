package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps order lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists records in a single SQLite database file.
type SQLiteStore struct {
	db           *sql.DB
	busyTimeout  time.Duration
	maxOpenConns int
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the schema.
func NewSQLiteStore(ctx context.Context, dbPath string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: 5 * time.Second, maxOpenConns: 1}
	for _, opt := range opts {
		opt(s)
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	s.db = db
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	pragma := fmt.Sprintf(`PRAGMA busy_timeout = %d;`, s.busyTimeout.Milliseconds())
	if _, err := s.db.ExecContext(ctx, pragma); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	const ddl = `
CREATE TABLE IF NOT EXISTS predictions (
  subject_id TEXT PRIMARY KEY,
  id TEXT NOT NULL,
  min_days INTEGER NOT NULL,
  avg_days INTEGER NOT NULL,
  max_days INTEGER NOT NULL,
  confidence INTEGER NOT NULL,
  factors TEXT NOT NULL,
  applied_on TEXT,
  suggested_follow_up TEXT,
  is_overdue INTEGER NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  resolved_at TEXT,
  actual_days INTEGER,
  accuracy REAL
);
CREATE TABLE IF NOT EXISTS scores (
  id TEXT PRIMARY KEY,
  subject_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  overall INTEGER NOT NULL,
  components TEXT NOT NULL,
  computed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS scores_subject_kind ON scores (subject_id, kind, computed_at);
CREATE TABLE IF NOT EXISTS activity (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  subject_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  at TEXT NOT NULL,
  quantity REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS activity_subject_at ON activity (subject_id, at);
CREATE TABLE IF NOT EXISTS engagement_snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  subject_id TEXT NOT NULL,
  engagement INTEGER NOT NULL,
  activity_frequency INTEGER NOT NULL,
  trend TEXT NOT NULL,
  computed_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS benchmarks (
  industry TEXT NOT NULL,
  company_size TEXT NOT NULL,
  level TEXT NOT NULL,
  sample_size INTEGER NOT NULL,
  min_days REAL NOT NULL,
  avg_days REAL NOT NULL,
  max_days REAL NOT NULL,
  PRIMARY KEY (industry, company_size, level)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPrediction(ctx context.Context, subjectID string) (p model.Prediction, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "get_prediction", start, ignoreNotFound(err)) }(time.Now())

	const q = `
SELECT id, subject_id, min_days, avg_days, max_days, confidence, factors, applied_on,
  suggested_follow_up, is_overdue, created_at, updated_at, resolved_at, actual_days, accuracy
FROM predictions WHERE subject_id = ?`
	var (
		factors                         string
		appliedOn, followUp, resolvedAt sql.NullString
		createdAt, updatedAt            string
		actualDays                      sql.NullInt64
		accuracy                        sql.NullFloat64
	)
	row := s.db.QueryRowContext(ctx, q, subjectID)
	err = row.Scan(&p.ID, &p.SubjectID, &p.MinDays, &p.AvgDays, &p.MaxDays, &p.Confidence, &factors,
		&appliedOn, &followUp, &p.IsOverdue, &createdAt, &updatedAt, &resolvedAt, &actualDays, &accuracy)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prediction{}, errs.ErrNotFound
	}
	if err != nil {
		return model.Prediction{}, fmt.Errorf("get prediction: %w", err)
	}
	if err = json.Unmarshal([]byte(factors), &p.Factors); err != nil {
		return model.Prediction{}, fmt.Errorf("decode factors: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Prediction{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Prediction{}, err
	}
	if p.AppliedOn, err = parseNullTime(appliedOn); err != nil {
		return model.Prediction{}, err
	}
	if p.SuggestedFollowUp, err = parseNullTime(followUp); err != nil {
		return model.Prediction{}, err
	}
	if p.ResolvedAt, err = parseNullTime(resolvedAt); err != nil {
		return model.Prediction{}, err
	}
	if actualDays.Valid {
		v := int(actualDays.Int64)
		p.ActualDays = &v
	}
	if accuracy.Valid {
		v := accuracy.Float64
		p.Accuracy = &v
	}
	return p, nil
}

// SavePrediction upserts by subject and returns the stored record. The update
// only applies while the stored row is unresolved and never touches id or
// created_at; a resolved row yields ErrAlreadyResolved.
func (s *SQLiteStore) SavePrediction(ctx context.Context, p model.Prediction) (_ model.Prediction, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "save_prediction", start, err) }(time.Now())

	if p.SubjectID == "" || p.ID == "" {
		return model.Prediction{}, fmt.Errorf("%w: prediction needs id and subject", ErrInvalidRecord)
	}
	factors, err := json.Marshal(p.Factors)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("encode factors: %w", err)
	}
	const stmt = `
INSERT INTO predictions (subject_id, id, min_days, avg_days, max_days, confidence, factors, applied_on,
  suggested_follow_up, is_overdue, created_at, updated_at, resolved_at, actual_days, accuracy)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(subject_id) DO UPDATE SET
  min_days=excluded.min_days,
  avg_days=excluded.avg_days,
  max_days=excluded.max_days,
  confidence=excluded.confidence,
  factors=excluded.factors,
  applied_on=excluded.applied_on,
  suggested_follow_up=excluded.suggested_follow_up,
  is_overdue=excluded.is_overdue,
  updated_at=excluded.updated_at,
  resolved_at=excluded.resolved_at,
  actual_days=excluded.actual_days,
  accuracy=excluded.accuracy
WHERE predictions.resolved_at IS NULL
RETURNING id, created_at;
`
	var actualDays sql.NullInt64
	if p.ActualDays != nil {
		actualDays = sql.NullInt64{Int64: int64(*p.ActualDays), Valid: true}
	}
	var accuracy sql.NullFloat64
	if p.Accuracy != nil {
		accuracy = sql.NullFloat64{Float64: *p.Accuracy, Valid: true}
	}
	var id, createdAt string
	err = s.db.QueryRowContext(ctx, stmt,
		p.SubjectID,
		p.ID,
		p.MinDays,
		p.AvgDays,
		p.MaxDays,
		p.Confidence,
		string(factors),
		formatNullTime(p.AppliedOn),
		formatNullTime(p.SuggestedFollowUp),
		p.IsOverdue,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
		formatNullTime(p.ResolvedAt),
		actualDays,
		accuracy,
	).Scan(&id, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prediction{}, errs.ErrAlreadyResolved
	}
	if err != nil {
		return model.Prediction{}, fmt.Errorf("upsert prediction: %w", err)
	}
	p.ID = id
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Prediction{}, fmt.Errorf("upsert prediction: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) AppendScore(ctx context.Context, sc model.CompositeScore) (err error) {
	defer func(start time.Time) { observe(DriverSQLite, "append_score", start, err) }(time.Now())

	if sc.ID == "" || sc.SubjectID == "" {
		return fmt.Errorf("%w: score needs id and subject", ErrInvalidRecord)
	}
	components, err := json.Marshal(sc.Components)
	if err != nil {
		return fmt.Errorf("encode components: %w", err)
	}
	const stmt = `
INSERT INTO scores (id, subject_id, kind, overall, components, computed_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`
	res, err := s.db.ExecContext(ctx, stmt, sc.ID, sc.SubjectID, sc.Kind, sc.Overall, string(components), formatTime(sc.ComputedAt))
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateScore, sc.ID)
	}
	return nil
}

func (s *SQLiteStore) ScoreHistory(ctx context.Context, subjectID, kind string) (out []model.CompositeScore, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "score_history", start, err) }(time.Now())

	const q = `
SELECT id, subject_id, kind, overall, components, computed_at FROM scores
WHERE subject_id = ? AND (? = '' OR kind = ?)
ORDER BY computed_at, rowid`
	rows, err := s.db.QueryContext(ctx, q, subjectID, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	return scanScores(rows)
}

func (s *SQLiteStore) LatestScores(ctx context.Context) (out []model.CompositeScore, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "latest_scores", start, err) }(time.Now())

	const q = `
SELECT id, subject_id, kind, overall, components, computed_at FROM scores s
WHERE s.rowid = (
  SELECT s2.rowid FROM scores s2
  WHERE s2.subject_id = s.subject_id AND s2.kind = s.kind
  ORDER BY s2.computed_at DESC, s2.rowid DESC LIMIT 1
)
ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query latest scores: %w", err)
	}
	return scanScores(rows)
}

func scanScores(rows *sql.Rows) ([]model.CompositeScore, error) {
	defer rows.Close()
	var out []model.CompositeScore
	for rows.Next() {
		var (
			sc         model.CompositeScore
			components string
			computedAt string
		)
		if err := rows.Scan(&sc.ID, &sc.SubjectID, &sc.Kind, &sc.Overall, &components, &computedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if err := json.Unmarshal([]byte(components), &sc.Components); err != nil {
			return nil, fmt.Errorf("decode components: %w", err)
		}
		t, err := parseTime(computedAt)
		if err != nil {
			return nil, err
		}
		sc.ComputedAt = t
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) RecordActivity(ctx context.Context, e model.ActivityEvent) (err error) {
	defer func(start time.Time) { observe(DriverSQLite, "record_activity", start, err) }(time.Now())

	if e.SubjectID == "" || !e.Kind.Valid() {
		return fmt.Errorf("%w: activity needs a subject and a known kind", ErrInvalidRecord)
	}
	const stmt = `INSERT INTO activity (subject_id, kind, at, quantity) VALUES (?, ?, ?, ?)`
	if _, err = s.db.ExecContext(ctx, stmt, e.SubjectID, string(e.Kind), formatTime(e.At), e.Quantity); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ActivityEvents returns the subject's events with At in [from, to).
func (s *SQLiteStore) ActivityEvents(ctx context.Context, subjectID string, from, to time.Time) (out []model.ActivityEvent, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "activity_events", start, err) }(time.Now())

	const q = `
SELECT subject_id, kind, at, quantity FROM activity
WHERE subject_id = ? AND at >= ? AND at < ?
ORDER BY at, id`
	rows, err := s.db.QueryContext(ctx, q, subjectID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			e    model.ActivityEvent
			kind string
			at   string
		)
		if err = rows.Scan(&e.SubjectID, &kind, &at, &e.Quantity); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Kind = model.ActivityKind(kind)
		if e.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveEngagement(ctx context.Context, snap model.EngagementSnapshot) (err error) {
	defer func(start time.Time) { observe(DriverSQLite, "save_engagement", start, err) }(time.Now())

	if snap.SubjectID == "" {
		return fmt.Errorf("%w: snapshot needs a subject", ErrInvalidRecord)
	}
	const stmt = `
INSERT INTO engagement_snapshots (subject_id, engagement, activity_frequency, trend, computed_at)
VALUES (?, ?, ?, ?, ?)`
	if _, err = s.db.ExecContext(ctx, stmt, snap.SubjectID, snap.Engagement, snap.ActivityFrequency, snap.Trend, formatTime(snap.ComputedAt)); err != nil {
		return fmt.Errorf("insert engagement snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) EngagementHistory(ctx context.Context, subjectID string) ([]model.EngagementSnapshot, error) {
	const q = `
SELECT subject_id, engagement, activity_frequency, trend, computed_at FROM engagement_snapshots
WHERE subject_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query engagement snapshots: %w", err)
	}
	defer rows.Close()
	var out []model.EngagementSnapshot
	for rows.Next() {
		var (
			snap       model.EngagementSnapshot
			computedAt string
		)
		if err := rows.Scan(&snap.SubjectID, &snap.Engagement, &snap.ActivityFrequency, &snap.Trend, &computedAt); err != nil {
			return nil, fmt.Errorf("scan engagement snapshot: %w", err)
		}
		if snap.ComputedAt, err = parseTime(computedAt); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engagement snapshots: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) PutBenchmarks(ctx context.Context, rows []model.Benchmark) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin benchmarks: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const stmt = `
INSERT INTO benchmarks (industry, company_size, level, sample_size, min_days, avg_days, max_days)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(industry, company_size, level) DO UPDATE SET
  sample_size=excluded.sample_size,
  min_days=excluded.min_days,
  avg_days=excluded.avg_days,
  max_days=excluded.max_days;
`
	for _, b := range rows {
		c := b.Context.Normalize()
		if _, err := tx.ExecContext(ctx, stmt, c.Industry, c.CompanySize, c.Level, b.SampleSize, b.Min, b.Avg, b.Max); err != nil {
			return fmt.Errorf("upsert benchmark: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit benchmarks: %w", err)
	}
	return nil
}

// LookupBenchmark matches key exactly; empty fields are part of the key.
func (s *SQLiteStore) LookupBenchmark(ctx context.Context, key model.BenchmarkContext) (b model.Benchmark, ok bool, err error) {
	defer func(start time.Time) { observe(DriverSQLite, "lookup_benchmark", start, err) }(time.Now())

	key = key.Normalize()
	const q = `
SELECT sample_size, min_days, avg_days, max_days FROM benchmarks
WHERE industry = ? AND company_size = ? AND level = ?`
	err = s.db.QueryRowContext(ctx, q, key.Industry, key.CompanySize, key.Level).
		Scan(&b.SampleSize, &b.Min, &b.Avg, &b.Max)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Benchmark{}, false, nil
	}
	if err != nil {
		return model.Benchmark{}, false, fmt.Errorf("lookup benchmark: %w", err)
	}
	b.Context = key
	return b, true, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Driver: DriverSQLite}
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM scores`, &st.Scores},
		{`SELECT COUNT(*) FROM predictions`, &st.Predictions},
		{`SELECT COUNT(*) FROM predictions WHERE resolved_at IS NULL`, &st.OpenPredictions},
		{`SELECT COUNT(*) FROM activity`, &st.ActivityEvents},
		{`SELECT COUNT(*) FROM engagement_snapshots`, &st.EngagementWrites},
		{`SELECT COUNT(*) FROM benchmarks`, &st.Benchmarks},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("stats: %w", err)
		}
	}
	return st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func ignoreNotFound(err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
