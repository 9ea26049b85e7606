package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Bootstrap performs a fast ping-only connectivity check; schema setup is
// handled by deployment migrations.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.PingContext(ctx)
}

// NewWithDB constructs a Postgres-backed store from an open connection.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users         { return &users{db: s.db} }
func (s *pgStore) Turns() store.Turns         { return &turns{db: s.db} }
func (s *pgStore) Facts() store.Facts         { return &facts{db: s.db} }
func (s *pgStore) Journals() store.Journals   { return &journals{db: s.db} }
func (s *pgStore) Reminders() store.Reminders { return &reminders{db: s.db} }
func (s *pgStore) Summaries() store.Summaries { return &summaries{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	avatar := m.Avatar
	if avatar == "" {
		avatar = "girl"
	}
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, username, email, avatar)
        VALUES ($1,$2,$3,$4)
        RETURNING creation_time
    `, id, m.Username, m.Email, avatar)
	if err := row.Scan(&created); err != nil {
		return nil, mapConstraint(err)
	}
	out := *m
	out.UserID = id
	out.Avatar = avatar
	out.CreationTime = created
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, username, email, avatar, creation_time
        FROM users WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.Username, &out.Email, &out.Avatar, &out.CreationTime); err != nil {
		return nil, mapNoRows(err)
	}
	return &out, nil
}

func (u *users) Delete(ctx context.Context, userID string) error {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM turns WHERE user_id=$1`,
		`DELETE FROM facts WHERE user_id=$1`,
		`DELETE FROM journal_entries WHERE user_id=$1`,
		`DELETE FROM reminders WHERE user_id=$1`,
		`DELETE FROM weekly_summaries WHERE user_id=$1`,
	} {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id=$1`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return tx.Commit()
}

// --- Turns ---

type turns struct{ db *sql.DB }

func (t *turns) Create(ctx context.Context, m *model.Turn) (*model.Turn, error) {
	id := uuid.New().String()
	var created time.Time
	row := t.db.QueryRowContext(ctx, `
        INSERT INTO turns (turn_id, user_id, role, content, mood, media_kind, media_description)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING creation_time
    `, id, m.UserID, string(m.Role), m.Content, moodPtr(m.Mood), kindPtr(m.MediaKind), m.MediaDescription)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.TurnID = id
	out.CreationTime = created
	return &out, nil
}

func (t *turns) List(ctx context.Context, req model.ListTurnsRequest) ([]*model.Turn, error) {
	query := `SELECT turn_id, user_id, role, content, mood, media_kind, media_description, creation_time
              FROM turns WHERE user_id=$1`
	args := []interface{}{req.UserID}
	if req.After != nil {
		query += ` AND creation_time >= $2`
		args = append(args, req.After.UTC())
	}
	if req.Ascending {
		query += ` ORDER BY seq ASC`
	} else {
		query += ` ORDER BY seq DESC`
	}
	if req.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, req.Limit)
	}
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Turn
	for rows.Next() {
		var m model.Turn
		var role string
		var mood, kind sql.NullString
		if err := rows.Scan(&m.TurnID, &m.UserID, &role, &m.Content, &mood, &kind, &m.MediaDescription, &m.CreationTime); err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		if mood.Valid {
			v := model.Mood(mood.String)
			m.Mood = &v
		}
		if kind.Valid {
			v := model.MediaKind(kind.String)
			m.MediaKind = &v
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (t *turns) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

func (t *turns) DeleteAll(ctx context.Context, userID string) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM turns WHERE user_id=$1`, userID)
	return err
}

// --- Facts ---

type facts struct{ db *sql.DB }

func (f *facts) Create(ctx context.Context, m *model.Fact) (*model.Fact, error) {
	id := uuid.New().String()
	content := store.TruncateFactContent(m.Content)
	imp := store.ClampImportance(m.Importance)
	var created time.Time
	row := f.db.QueryRowContext(ctx, `
        INSERT INTO facts (fact_id, user_id, fact_type, content, importance, last_referenced)
        VALUES ($1,$2,$3,$4,$5,now())
        RETURNING creation_time
    `, id, m.UserID, string(m.Type), content, imp)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.FactID = id
	out.Content = content
	out.Importance = imp
	out.LastReferenced = created
	out.CreationTime = created
	return &out, nil
}

func (f *facts) List(ctx context.Context, userID string, limit int) ([]*model.Fact, error) {
	query := `SELECT fact_id, user_id, fact_type, content, importance, last_referenced, creation_time
              FROM facts WHERE user_id=$1
              ORDER BY importance DESC, last_referenced DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	rows, err := f.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Fact
	for rows.Next() {
		var m model.Fact
		var typ string
		if err := rows.Scan(&m.FactID, &m.UserID, &typ, &m.Content, &m.Importance, &m.LastReferenced, &m.CreationTime); err != nil {
			return nil, err
		}
		m.Type = model.FactType(typ)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (f *facts) Delete(ctx context.Context, userID, factID string) error {
	res, err := f.db.ExecContext(ctx, `DELETE FROM facts WHERE user_id=$1 AND fact_id=$2`, userID, factID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (f *facts) UpsertBatch(ctx context.Context, userID string, candidates []model.Fact) (int, error) {
	tx, err := f.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, c := range candidates {
		prefix := store.FactPrefix(c.Content)
		var existingID string
		var existingImp int
		err := tx.QueryRowContext(ctx, `
            SELECT fact_id, importance FROM facts
            WHERE user_id=$1 AND fact_type=$2 AND position($3 in content) > 0
            LIMIT 1
        `, userID, string(c.Type), prefix).Scan(&existingID, &existingImp)
		switch {
		case err == sql.ErrNoRows:
			id := uuid.New().String()
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO facts (fact_id, user_id, fact_type, content, importance, last_referenced)
                VALUES ($1,$2,$3,$4,$5,now())
            `, id, userID, string(c.Type), store.TruncateFactContent(c.Content), store.ClampImportance(c.Importance)); err != nil {
				return 0, err
			}
			inserted++
		case err != nil:
			return 0, err
		default:
			imp := existingImp
			if v := store.ClampImportance(c.Importance); v > imp {
				imp = v
			}
			if _, err := tx.ExecContext(ctx, `
                UPDATE facts SET importance=$1, last_referenced=now() WHERE fact_id=$2
            `, imp, existingID); err != nil {
				return 0, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// --- Journals ---

type journals struct{ db *sql.DB }

func (j *journals) Create(ctx context.Context, m *model.JournalEntry) (*model.JournalEntry, error) {
	id := uuid.New().String()
	var created time.Time
	row := j.db.QueryRowContext(ctx, `
        INSERT INTO journal_entries (entry_id, user_id, title, content, mood)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING creation_time
    `, id, m.UserID, m.Title, m.Content, moodPtr(m.Mood))
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.EntryID = id
	out.CreationTime = created
	return &out, nil
}

func (j *journals) List(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	query := `SELECT entry_id, user_id, title, content, mood, creation_time
              FROM journal_entries WHERE user_id=$1 ORDER BY creation_time DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	rows, err := j.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.JournalEntry
	for rows.Next() {
		var m model.JournalEntry
		var mood sql.NullString
		if err := rows.Scan(&m.EntryID, &m.UserID, &m.Title, &m.Content, &mood, &m.CreationTime); err != nil {
			return nil, err
		}
		if mood.Valid {
			v := model.Mood(mood.String)
			m.Mood = &v
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (j *journals) Delete(ctx context.Context, userID, entryID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE user_id=$1 AND entry_id=$2`, userID, entryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Reminders ---

type reminders struct{ db *sql.DB }

func (r *reminders) Create(ctx context.Context, m *model.Reminder) (*model.Reminder, error) {
	id := uuid.New().String()
	repeat := m.Repeat
	if repeat == "" {
		repeat = "once"
	}
	var created time.Time
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO reminders (reminder_id, user_id, title, due_date, due_time, repeat, active)
        VALUES ($1,$2,$3,$4,$5,$6,true)
        RETURNING creation_time
    `, id, m.UserID, m.Title, m.Date, m.Time, repeat)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.ReminderID = id
	out.Repeat = repeat
	out.Active = true
	out.CreationTime = created
	return &out, nil
}

func (r *reminders) ListActive(ctx context.Context, userID string) ([]*model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT reminder_id, user_id, title, due_date, due_time, repeat, active, creation_time
        FROM reminders WHERE user_id=$1 AND active=true
        ORDER BY due_date, due_time
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Reminder
	for rows.Next() {
		var m model.Reminder
		if err := rows.Scan(&m.ReminderID, &m.UserID, &m.Title, &m.Date, &m.Time, &m.Repeat, &m.Active, &m.CreationTime); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *reminders) Delete(ctx context.Context, userID, reminderID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE user_id=$1 AND reminder_id=$2`, userID, reminderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Summaries ---

type summaries struct{ db *sql.DB }

func (s *summaries) Create(ctx context.Context, m *model.WeeklySummary) (*model.WeeklySummary, error) {
	id := uuid.New().String()
	topics, _ := json.Marshal(m.KeyTopics)
	var created time.Time
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO weekly_summaries (summary_id, user_id, summary, key_topics, emotional_tone, date_range)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING creation_time
    `, id, m.UserID, m.Summary, string(topics), m.EmotionalTone, m.DateRange)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.SummaryID = id
	out.CreationTime = created
	return &out, nil
}

func (s *summaries) Latest(ctx context.Context, userID string) (*model.WeeklySummary, error) {
	var m model.WeeklySummary
	var topics sql.NullString
	row := s.db.QueryRowContext(ctx, `
        SELECT summary_id, user_id, summary, key_topics, emotional_tone, date_range, creation_time
        FROM weekly_summaries WHERE user_id=$1
        ORDER BY creation_time DESC LIMIT 1
    `, userID)
	if err := row.Scan(&m.SummaryID, &m.UserID, &m.Summary, &topics, &m.EmotionalTone, &m.DateRange, &m.CreationTime); err != nil {
		return nil, mapNoRows(err)
	}
	if topics.Valid {
		_ = json.Unmarshal([]byte(topics.String), &m.KeyTopics)
	}
	return &m, nil
}

// --- helpers ---

func moodPtr(m *model.Mood) interface{} {
	if m == nil {
		return nil
	}
	return string(*m)
}

func kindPtr(k *model.MediaKind) interface{} {
	if k == nil {
		return nil
	}
	return string(*k)
}

func mapNoRows(err error) error {
	if err == sql.ErrNoRows {
		return model.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	// 23505 is unique_violation, 23503 foreign_key_violation.
	if errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23503") {
		return fmt.Errorf("%w: %v", model.ErrConflict, err)
	}
	return err
}
