package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) database.DB {
	t.Helper()
	db, err := Memory(context.Background())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestTableExists(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	exists, err := db.TableExists(ctx, "parent")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = db.Exec(ctx, `CREATE TABLE parent (id INTEGER PRIMARY KEY AUTOINCREMENT, code TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)

	exists, err = db.TableExists(ctx, "parent")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestConstraintErrors(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	_, err := db.Exec(ctx, `CREATE TABLE parent (id INTEGER PRIMARY KEY AUTOINCREMENT, code TEXT NOT NULL UNIQUE CHECK (code <> ''))`)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `CREATE TABLE child (id INTEGER PRIMARY KEY AUTOINCREMENT, parent_id INTEGER NOT NULL REFERENCES parent(id) ON DELETE CASCADE)`)
	require.NoError(t, err)

	id, err := db.Insert(ctx, `INSERT INTO parent (code) VALUES (?)`, "id", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = db.Insert(ctx, `INSERT INTO parent (code) VALUES (?)`, "id", "a")
	assert.True(t, errs.IsConflict(err), "unique: %v", err)
	assert.Equal(t, 1, strings.Count(err.Error(), "UNIQUE constraint failed"), err.Error())

	_, err = db.Insert(ctx, `INSERT INTO parent (code) VALUES (?)`, "id", "")
	assert.True(t, errs.IsInvalidInput(err), "check: %v", err)

	_, err = db.Insert(ctx, `INSERT INTO child (parent_id) VALUES (?)`, "id", 42)
	assert.True(t, errs.IsConflict(err), "foreign key: %v", err)

	_, err = db.Insert(ctx, `INSERT INTO child (parent_id) VALUES (?)`, "id", id)
	require.NoError(t, err)

	n, err := db.Exec(ctx, `DELETE FROM parent WHERE id = ?`, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM child`).Scan(&left))
	assert.Zero(t, left)
}

func TestQueryRow_NotFound(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	var one int
	err := db.QueryRow(ctx, `SELECT 1 WHERE 1 = 0`).Scan(&one)
	assert.True(t, errs.IsNotFound(err))
}

func TestRunInTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	_, err := db.Exec(ctx, `CREATE TABLE parent (id INTEGER PRIMARY KEY AUTOINCREMENT, code TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)

	err = database.RunInTx(ctx, db, func(tx database.Tx) error {
		if _, err := tx.Insert(ctx, `INSERT INTO parent (code) VALUES (?)`, "id", "x"); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, `INSERT INTO parent (code) VALUES (?)`, "id", "x")
		return err
	})
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))

	var count int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM parent`).Scan(&count))
	assert.Zero(t, count)
}

func TestClassifyCode(t *testing.T) {
	assert.Equal(t, errs.ErrKindConflict, classifyCode(2067))
	assert.Equal(t, errs.ErrKindConflict, classifyCode(787))
	assert.Equal(t, errs.ErrKindInvalidInput, classifyCode(275))
	assert.Equal(t, errs.ErrKindTimeout, classifyCode(5))
	assert.Equal(t, errs.ErrKindQueryFailed, classifyCode(1))
}
