package store

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoql/internal/ir"
)

func testRecord() ir.RecordSpec {
	return ir.RecordSpec{
		Name:  "User",
		Table: "users",
		Fields: []ir.FieldSpec{
			{Name: "id", Type: ir.TypeString, PrimaryKey: true},
			{Name: "name", Type: ir.TypeString},
			{Name: "age", Type: ir.TypeInt},
			{Name: "salary", Type: ir.TypeFloat},
		},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:", hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/db.sqlite", nil)
	assert.Error(t, err)
}

func TestEnsureTable_Idempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.EnsureTable(ctx, testRecord()))
	require.NoError(t, st.EnsureTable(ctx, testRecord()))
}

func TestEnsureTable_RejectsInvalidSpec(t *testing.T) {
	st := openTestStore(t)
	bad := testRecord()
	bad.Fields = nil
	assert.Error(t, st.EnsureTable(context.Background(), bad))
}

func TestTableFields_RoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.EnsureTable(ctx, testRecord()))

	fields, err := st.TableFields(ctx, "users")
	require.NoError(t, err)
	require.Len(t, fields, 4)

	assert.Equal(t, "id", fields[0].Name)
	assert.True(t, fields[0].PrimaryKey)
	assert.Equal(t, ir.TypeInt, fields[2].Type)
	assert.Equal(t, ir.TypeFloat, fields[3].Type)
}

func TestTableFields_MissingTable(t *testing.T) {
	st := openTestStore(t)
	_, err := st.TableFields(context.Background(), "missing")
	assert.Error(t, err)
}

func TestInsertAndQueryRecords(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	record := testRecord()
	require.NoError(t, st.EnsureTable(ctx, record))

	require.NoError(t, st.InsertRecord(ctx, record, ir.Record{
		"id": "u1", "name": "John Doe", "age": 25, "salary": 50000.0,
	}))

	rows, err := st.QueryRecords(ctx, "SELECT id, name, age, salary FROM users WHERE id = ?", "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "John Doe", rows[0]["name"])
	assert.Equal(t, int64(25), rows[0]["age"])
	assert.Equal(t, 50000.0, rows[0]["salary"])
}

func TestQueryRecords_EmptyResultIsNotNil(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.EnsureTable(ctx, testRecord()))

	rows, err := st.QueryRecords(ctx, "SELECT id FROM users")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestInsertRecord_RejectsUnknownField(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	record := testRecord()
	require.NoError(t, st.EnsureTable(ctx, record))

	err := st.InsertRecord(ctx, record, ir.Record{"id": "u1", "nickname": "jd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "nickname"`)
}

func TestUpdateRecord(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	record := testRecord()
	require.NoError(t, st.EnsureTable(ctx, record))
	require.NoError(t, st.InsertRecord(ctx, record, ir.Record{"id": "u1", "name": "John", "age": 25}))

	updated, err := st.UpdateRecord(ctx, record, ir.Record{"id": "u1", "age": 26})
	require.NoError(t, err)
	assert.True(t, updated)

	rows, err := st.QueryRecords(ctx, "SELECT name, age FROM users WHERE id = ?", "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "John", rows[0]["name"]) // untouched field survives
	assert.Equal(t, int64(26), rows[0]["age"])

	updated, err = st.UpdateRecord(ctx, record, ir.Record{"id": "ghost", "age": 1})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestDeleteByKey(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	record := testRecord()
	require.NoError(t, st.EnsureTable(ctx, record))
	require.NoError(t, st.InsertRecord(ctx, record, ir.Record{"id": "u1", "name": "John"}))

	deleted, err := st.DeleteByKey(ctx, record, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = st.DeleteByKey(ctx, record, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	record := testRecord()
	require.NoError(t, st.EnsureTable(ctx, record))

	err := st.WithTx(ctx, func(ctx context.Context) error {
		return st.InsertRecord(ctx, record, ir.Record{"id": "u1", "name": "John"})
	})
	require.NoError(t, err)

	rows, err := st.QueryRecords(ctx, "SELECT id FROM users")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	record := testRecord()
	require.NoError(t, st.EnsureTable(ctx, record))

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(ctx context.Context) error {
		if err := st.InsertRecord(ctx, record, ir.Record{"id": "u1", "name": "John"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := st.QueryRecords(ctx, "SELECT id FROM users")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWithTx_NestedJoinsOuterScope(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	record := testRecord()
	require.NoError(t, st.EnsureTable(ctx, record))

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(ctx context.Context) error {
		if err := st.InsertRecord(ctx, record, ir.Record{"id": "u1", "name": "John"}); err != nil {
			return err
		}
		// The inner scope joins the outer transaction; its success must
		// not commit anything on its own.
		if err := st.WithTx(ctx, func(ctx context.Context) error {
			return st.InsertRecord(ctx, record, ir.Record{"id": "u2", "name": "Jane"})
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The outer rollback takes the nested insert with it.
	rows, err := st.QueryRecords(ctx, "SELECT id FROM users")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	record := testRecord()
	require.NoError(t, st.EnsureTable(ctx, record))

	assert.Panics(t, func() {
		_ = st.WithTx(ctx, func(ctx context.Context) error {
			_ = st.InsertRecord(ctx, record, ir.Record{"id": "u1", "name": "John"})
			panic("kaboom")
		})
	})

	rows, err := st.QueryRecords(ctx, "SELECT id FROM users")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
