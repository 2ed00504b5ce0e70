package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ---------------------------------------------------------------------------
// Test helpers: mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	return assign(dest, row)
}

func assign(dest, row []any) error {
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *Status:
			*d = v.(Status)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		case *any:
			*d = v
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (db *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.queryRowFunc(ctx, sql, args...)
}

func (db *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return db.queryFunc(ctx, sql, args...)
}

func (db *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return db.execFunc(ctx, sql, args...)
}

func validLecture() *Lecture {
	return &Lecture{
		Title:               "intro to databases",
		Transcript:          []string{"hello", "today we cover indexes"},
		Translation:         []string{"hola", "hoy cubrimos los indices"},
		TranslationLanguage: "es",
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestLectureValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Lecture)
		wantErr string
	}{
		{name: "valid", mutate: func(*Lecture) {}},
		{
			name:    "missing title",
			mutate:  func(l *Lecture) { l.Title = "" },
			wantErr: "title",
		},
		{
			name:    "empty transcript",
			mutate:  func(l *Lecture) { l.Transcript = nil },
			wantErr: "transcript",
		},
		{
			name:    "unbalanced translation",
			mutate:  func(l *Lecture) { l.Translation = []string{"solo una"} },
			wantErr: "translation has 1 lines",
		},
		{
			name:    "unknown status",
			mutate:  func(l *Lecture) { l.Status = "pending" },
			wantErr: `unknown status "pending"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validLecture()
			tt.mutate(l)
			err := l.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusSaved, StatusArchived} {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"", "pending", "DRAFT"} {
		if s.IsValid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

// ---------------------------------------------------------------------------
// PostgresStore
// ---------------------------------------------------------------------------

func TestCreate_FillsGeneratedFields(t *testing.T) {
	now := time.Now()
	db := &mockDB{
		queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
			if !strings.Contains(sql, "INSERT INTO lectures") {
				t.Errorf("unexpected query: %s", sql)
			}
			if got := args[0].(string); got != "intro to databases" {
				t.Errorf("title arg = %q", got)
			}
			if got := args[7].(Status); got != StatusDraft {
				t.Errorf("status arg = %q, want draft default", got)
			}
			return &mockRow{scanFunc: func(dest ...any) error {
				return assign(dest, []any{"lec-1", StatusDraft, now, now})
			}}
		},
	}

	l := validLecture()
	if err := NewPostgresStore(db).Create(context.Background(), l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID != "lec-1" || l.Status != StatusDraft || !l.CreatedAt.Equal(now) {
		t.Errorf("lecture after create = %+v", l)
	}
}

func TestCreate_RejectsInvalidLecture(t *testing.T) {
	db := &mockDB{
		queryRowFunc: func(context.Context, string, ...any) pgx.Row {
			t.Fatal("query should not run for an invalid lecture")
			return nil
		},
	}
	err := NewPostgresStore(db).Create(context.Background(), &Lecture{})
	if err == nil {
		t.Fatal("Create returned nil error")
	}
}

func TestGet_NotFoundReturnsNilNil(t *testing.T) {
	db := &mockDB{
		queryRowFunc: func(context.Context, string, ...any) pgx.Row {
			return &mockRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
		},
	}
	l, err := NewPostgresStore(db).Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if l != nil {
		t.Errorf("lecture = %+v, want nil", l)
	}
}

func TestGet_UnmarshalsJSONColumns(t *testing.T) {
	now := time.Now()
	db := &mockDB{
		queryRowFunc: func(context.Context, string, ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				return assign(dest, []any{
					"lec-1", "intro", []byte(`["hello"]`), []byte(`["hola"]`), "es",
					"a summary", []byte(`["indexes"]`), []byte(`["what is an index?"]`),
					StatusSaved, now, now,
				})
			}}
		},
	}
	l, err := NewPostgresStore(db).Get(context.Background(), "lec-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if l.Transcript[0] != "hello" || l.Translation[0] != "hola" {
		t.Errorf("buffers = %q / %q", l.Transcript, l.Translation)
	}
	if l.Keywords[0] != "indexes" || l.Questions[0] != "what is an index?" {
		t.Errorf("enrichment = %q / %q", l.Keywords, l.Questions)
	}
}

func TestList_FiltersByStatus(t *testing.T) {
	now := time.Now()
	var gotSQL string
	var gotArgs []any
	db := &mockDB{
		queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			gotSQL = sql
			gotArgs = args
			return &mockRows{data: [][]any{{
				"lec-1", "intro", []byte(`[]`), []byte(`[]`), "",
				"", []byte(`[]`), []byte(`[]`), StatusSaved, now, now,
			}}}, nil
		},
	}

	lectures, err := NewPostgresStore(db).List(context.Background(), StatusSaved)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lectures) != 1 || lectures[0].ID != "lec-1" {
		t.Errorf("lectures = %+v", lectures)
	}
	if !strings.Contains(gotSQL, "WHERE status = $1") {
		t.Errorf("query missing status filter: %s", gotSQL)
	}
	if len(gotArgs) != 1 || gotArgs[0].(Status) != StatusSaved {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	db := &mockDB{
		queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			t.Fatal("query should not run for an unknown status")
			return nil, nil
		},
	}
	if _, err := NewPostgresStore(db).List(context.Background(), "pending"); err == nil {
		t.Fatal("List returned nil error")
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	db := &mockDB{
		queryRowFunc: func(context.Context, string, ...any) pgx.Row {
			return &mockRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
		},
	}
	err := NewPostgresStore(db).UpdateStatus(context.Background(), "missing", StatusArchived)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateEnrichment_MarshalsLists(t *testing.T) {
	now := time.Now()
	db := &mockDB{
		queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
			if !strings.Contains(sql, "summary = $2") {
				t.Errorf("unexpected query: %s", sql)
			}
			if got := string(args[2].([]byte)); got != `["indexes","joins"]` {
				t.Errorf("keywords arg = %s", got)
			}
			return &mockRow{scanFunc: func(dest ...any) error {
				return assign(dest, []any{now})
			}}
		},
	}
	err := NewPostgresStore(db).UpdateEnrichment(context.Background(), "lec-1", Enrichment{
		Summary:  "covers indexing",
		Keywords: []string{"indexes", "joins"},
	})
	if err != nil {
		t.Fatalf("UpdateEnrichment: %v", err)
	}
}

func TestDelete_PropagatesExecError(t *testing.T) {
	db := &mockDB{
		execFunc: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("connection refused")
		},
	}
	err := NewPostgresStore(db).Delete(context.Background(), "lec-1")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("err = %v", err)
	}
}
