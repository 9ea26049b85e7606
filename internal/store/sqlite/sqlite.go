package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

// Open opens (or creates) a SQLite database at the given path, enables WAL
// journal mode and foreign keys, and applies the schema.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens an isolated in-memory database, used by tests.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, err
	}
	// A single connection keeps the in-memory database alive and visible.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id       TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    avatar        TEXT NOT NULL DEFAULT 'girl',
    creation_time TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
    seq               INTEGER PRIMARY KEY AUTOINCREMENT,
    turn_id           TEXT NOT NULL UNIQUE,
    user_id           TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    role              TEXT NOT NULL,
    content           TEXT NOT NULL,
    mood              TEXT,
    media_kind        TEXT,
    media_description TEXT,
    creation_time     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_user_time ON turns(user_id, creation_time);
CREATE TABLE IF NOT EXISTS facts (
    fact_id         TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    fact_type       TEXT NOT NULL,
    content         TEXT NOT NULL,
    importance      INTEGER NOT NULL,
    last_referenced TIMESTAMP NOT NULL,
    creation_time   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_facts_user ON facts(user_id, fact_type);
CREATE TABLE IF NOT EXISTS journal_entries (
    entry_id      TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    title         TEXT,
    content       TEXT NOT NULL,
    mood          TEXT,
    creation_time TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS reminders (
    reminder_id   TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    title         TEXT NOT NULL,
    due_date      TEXT NOT NULL,
    due_time      TEXT NOT NULL,
    repeat        TEXT NOT NULL DEFAULT 'once',
    active        INTEGER NOT NULL DEFAULT 1,
    creation_time TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS weekly_summaries (
    summary_id     TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    summary        TEXT NOT NULL,
    key_topics     TEXT,
    emotional_tone TEXT,
    date_range     TEXT,
    creation_time  TIMESTAMP NOT NULL
);
`

// NewWithDB constructs a SQLite-backed store from an open connection.
func NewWithDB(db *sql.DB) store.Store { return &sqStore{db: db} }

type sqStore struct{ db *sql.DB }

func (s *sqStore) Users() store.Users         { return &users{db: s.db} }
func (s *sqStore) Turns() store.Turns         { return &turns{db: s.db} }
func (s *sqStore) Facts() store.Facts         { return &facts{db: s.db} }
func (s *sqStore) Journals() store.Journals   { return &journals{db: s.db} }
func (s *sqStore) Reminders() store.Reminders { return &reminders{db: s.db} }
func (s *sqStore) Summaries() store.Summaries { return &summaries{db: s.db} }

// HealthPing implements health.HealthPinger for the SQLite-backed store.
func (s *sqStore) HealthPing(ctx context.Context) error {
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
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, username, email, avatar, creation_time)
        VALUES (?,?,?,?,?)
    `, id, m.Username, m.Email, avatar, now)
	if err != nil {
		return nil, mapConstraint(err)
	}
	out := *m
	out.UserID = id
	out.Avatar = avatar
	out.CreationTime = now
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, username, email, avatar, creation_time
        FROM users WHERE user_id=?
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

	// Explicit child deletes keep behavior identical across drivers even when
	// foreign-key cascades are disabled.
	for _, q := range []string{
		`DELETE FROM turns WHERE user_id=?`,
		`DELETE FROM facts WHERE user_id=?`,
		`DELETE FROM journal_entries WHERE user_id=?`,
		`DELETE FROM reminders WHERE user_id=?`,
		`DELETE FROM weekly_summaries WHERE user_id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id=?`, userID)
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
	now := time.Now().UTC()
	_, err := t.db.ExecContext(ctx, `
        INSERT INTO turns (turn_id, user_id, role, content, mood, media_kind, media_description, creation_time)
        VALUES (?,?,?,?,?,?,?,?)
    `, id, m.UserID, string(m.Role), m.Content, moodPtr(m.Mood), kindPtr(m.MediaKind), m.MediaDescription, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.TurnID = id
	out.CreationTime = now
	return &out, nil
}

func (t *turns) List(ctx context.Context, req model.ListTurnsRequest) ([]*model.Turn, error) {
	query := `SELECT turn_id, user_id, role, content, mood, media_kind, media_description, creation_time
              FROM turns WHERE user_id=?`
	args := []interface{}{req.UserID}
	if req.After != nil {
		query += ` AND creation_time >= ?`
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
		m, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *turns) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns WHERE user_id=?`, userID).Scan(&n)
	return n, err
}

func (t *turns) DeleteAll(ctx context.Context, userID string) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM turns WHERE user_id=?`, userID)
	return err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanTurn(r rowScanner) (*model.Turn, error) {
	var m model.Turn
	var role string
	var mood, kind sql.NullString
	if err := r.Scan(&m.TurnID, &m.UserID, &role, &m.Content, &mood, &kind, &m.MediaDescription, &m.CreationTime); err != nil {
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
	return &m, nil
}

// --- Facts ---

type facts struct{ db *sql.DB }

func (f *facts) Create(ctx context.Context, m *model.Fact) (*model.Fact, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	content := store.TruncateFactContent(m.Content)
	imp := store.ClampImportance(m.Importance)
	_, err := f.db.ExecContext(ctx, `
        INSERT INTO facts (fact_id, user_id, fact_type, content, importance, last_referenced, creation_time)
        VALUES (?,?,?,?,?,?,?)
    `, id, m.UserID, string(m.Type), content, imp, now, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.FactID = id
	out.Content = content
	out.Importance = imp
	out.LastReferenced = now
	out.CreationTime = now
	return &out, nil
}

func (f *facts) List(ctx context.Context, userID string, limit int) ([]*model.Fact, error) {
	query := `SELECT fact_id, user_id, fact_type, content, importance, last_referenced, creation_time
              FROM facts WHERE user_id=?
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
	res, err := f.db.ExecContext(ctx, `DELETE FROM facts WHERE user_id=? AND fact_id=?`, userID, factID)
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

	now := time.Now().UTC()
	inserted := 0
	for _, c := range candidates {
		prefix := store.FactPrefix(c.Content)
		var existingID string
		var existingImp int
		err := tx.QueryRowContext(ctx, `
            SELECT fact_id, importance FROM facts
            WHERE user_id=? AND fact_type=? AND instr(content, ?) > 0
            LIMIT 1
        `, userID, string(c.Type), prefix).Scan(&existingID, &existingImp)
		switch {
		case err == sql.ErrNoRows:
			id := uuid.New().String()
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO facts (fact_id, user_id, fact_type, content, importance, last_referenced, creation_time)
                VALUES (?,?,?,?,?,?,?)
            `, id, userID, string(c.Type), store.TruncateFactContent(c.Content), store.ClampImportance(c.Importance), now, now); err != nil {
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
                UPDATE facts SET importance=?, last_referenced=? WHERE fact_id=?
            `, imp, now, existingID); err != nil {
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
	now := time.Now().UTC()
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO journal_entries (entry_id, user_id, title, content, mood, creation_time)
        VALUES (?,?,?,?,?,?)
    `, id, m.UserID, m.Title, m.Content, moodPtr(m.Mood), now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.EntryID = id
	out.CreationTime = now
	return &out, nil
}

func (j *journals) List(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	query := `SELECT entry_id, user_id, title, content, mood, creation_time
              FROM journal_entries WHERE user_id=? ORDER BY creation_time DESC`
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
	res, err := j.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE user_id=? AND entry_id=?`, userID, entryID)
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
	now := time.Now().UTC()
	repeat := m.Repeat
	if repeat == "" {
		repeat = "once"
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO reminders (reminder_id, user_id, title, due_date, due_time, repeat, active, creation_time)
        VALUES (?,?,?,?,?,?,1,?)
    `, id, m.UserID, m.Title, m.Date, m.Time, repeat, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.ReminderID = id
	out.Repeat = repeat
	out.Active = true
	out.CreationTime = now
	return &out, nil
}

func (r *reminders) ListActive(ctx context.Context, userID string) ([]*model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT reminder_id, user_id, title, due_date, due_time, repeat, active, creation_time
        FROM reminders WHERE user_id=? AND active=1
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE user_id=? AND reminder_id=?`, userID, reminderID)
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
	now := time.Now().UTC()
	topics, _ := json.Marshal(m.KeyTopics)
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO weekly_summaries (summary_id, user_id, summary, key_topics, emotional_tone, date_range, creation_time)
        VALUES (?,?,?,?,?,?,?)
    `, id, m.UserID, m.Summary, string(topics), m.EmotionalTone, m.DateRange, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.SummaryID = id
	out.CreationTime = now
	return &out, nil
}

func (s *summaries) Latest(ctx context.Context, userID string) (*model.WeeklySummary, error) {
	var m model.WeeklySummary
	var topics sql.NullString
	row := s.db.QueryRowContext(ctx, `
        SELECT summary_id, user_id, summary, key_topics, emotional_tone, date_range, creation_time
        FROM weekly_summaries WHERE user_id=?
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
	if err == nil {
		return nil
	}
	// modernc reports constraint violations in the error text.
	if strings.Contains(err.Error(), "constraint failed") {
		return fmt.Errorf("%w: %v", model.ErrConflict, err)
	}
	return err
}
