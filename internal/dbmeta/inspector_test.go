package dbmeta

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableFixture is one table's canned schema.
type tableFixture struct {
	columns []string
	pk      []string
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Next() bool                                   { r.pos++; return r.pos <= len(r.rows) }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos-1], nil }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *bool:
			*p = row[i].(bool)
		default:
			return pgx.ErrNoRows
		}
	}
	return nil
}

// fakeQuerier serves information_schema lookups from fixtures.
type fakeQuerier struct {
	fixtures map[string]tableFixture
	// fkRows are (table, constraint, column, ref table, ref column) tuples,
	// in constraint order.
	fkRows [][]any
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	switch {
	case strings.Contains(sql, "information_schema.columns"):
		fx := q.fixtures[args[1].(string)]
		var rows [][]any
		for _, c := range fx.columns {
			rows = append(rows, []any{c, "text", true})
		}
		return &fakeRows{rows: rows}, nil
	case strings.Contains(sql, "PRIMARY KEY"):
		fx := q.fixtures[args[1].(string)]
		var rows [][]any
		for _, c := range fx.pk {
			rows = append(rows, []any{c})
		}
		return &fakeRows{rows: rows}, nil
	case strings.Contains(sql, "FOREIGN KEY"):
		return &fakeRows{rows: q.fkRows}, nil
	default:
		var rows [][]any
		for _, name := range sortedNames(q.fixtures) {
			rows = append(rows, []any{name})
		}
		return &fakeRows{rows: rows}, nil
	}
}

func sortedNames(fixtures map[string]tableFixture) []string {
	names := make([]string, 0, len(fixtures))
	for name := range fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newTestInspector wires a users/groups pair linked through a pure join
// table, plus a post table with a plain foreign key onto users.
func newTestInspector(t *testing.T) *Inspector {
	t.Helper()
	q := &fakeQuerier{
		fixtures: map[string]tableFixture{
			"auth_user":        {columns: []string{"id", "email"}, pk: []string{"id"}},
			"auth_group":       {columns: []string{"id", "name"}, pk: []string{"id"}},
			"auth_user_groups": {columns: []string{"id", "user_id", "group_id"}, pk: []string{"id"}},
			"blog_post":        {columns: []string{"id", "author_id", "title"}, pk: []string{"id"}},
		},
		fkRows: [][]any{
			{"auth_user_groups", "fk_a_user", "user_id", "auth_user", "id"},
			{"auth_user_groups", "fk_b_group", "group_id", "auth_group", "id"},
			{"blog_post", "fk_author", "author_id", "auth_user", "id"},
		},
	}
	inspector, err := NewInspector(q)
	require.NoError(t, err)
	return inspector
}

func TestDependencies(t *testing.T) {
	ctx := context.Background()

	t.Run("foreign keys become dependencies", func(t *testing.T) {
		deps, err := newTestInspector(t).Dependencies(ctx, "blog_post")
		require.NoError(t, err)
		assert.Equal(t, []string{"auth_user"}, deps)
	})

	t.Run("join edge is owned by the first-referenced side only", func(t *testing.T) {
		inspector := newTestInspector(t)

		// auth_user is the join table's first foreign-key target, so it owns
		// the edge and must wait for auth_group.
		deps, err := inspector.Dependencies(ctx, "auth_user")
		require.NoError(t, err)
		assert.Equal(t, []string{"auth_group"}, deps)

		// The far side gets no reverse edge; a users/groups pair would
		// otherwise be unorderable.
		deps, err = inspector.Dependencies(ctx, "auth_group")
		require.NoError(t, err)
		assert.Empty(t, deps)
	})
}

func TestTableNames(t *testing.T) {
	names, err := newTestInspector(t).TableNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"auth_group", "auth_user", "auth_user_groups", "blog_post"}, names)
}
