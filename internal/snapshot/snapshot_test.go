package snapshot

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/koustreak/clientbook/internal/clients"
	"github.com/koustreak/clientbook/internal/database/sqlite"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/koustreak/clientbook/internal/filestore/memory"
	"github.com/koustreak/clientbook/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *clients.Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Memory(ctx)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s := clients.NewStore(db, clients.WithLogger(logger.Nop()))
	require.NoError(t, s.CreateSchema(ctx))
	return s
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestKey(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("x", 3600))
	assert.Equal(t, "snapshots/clients-20260304T040607.000Z.yaml", Key(at))

	at = at.Add(250 * time.Millisecond)
	assert.Equal(t, "snapshots/clients-20260304T040607.250Z.yaml", Key(at))
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	files := memory.New()

	src := newStore(t)
	_, err := src.AddClient(ctx, "Pavel", "Lomazov", "pavel.lomazov@mail.ru", nil)
	require.NoError(t, err)
	_, err = src.AddClient(ctx, "Stephen", "Hawking", "stephen.hawking@gmail.com", []string{"2135550123", "2135554567"})
	require.NoError(t, err)

	exporter := New(files, "backups", src, logger.Nop())
	exporter.now = fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	info, err := exporter.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/clients-20260102T030405.000Z.yaml", info.Key)
	assert.Positive(t, info.Size)

	dst := newStore(t)
	importer := New(files, "backups", dst, logger.Nop())
	n, err := importer.Import(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want, err := src.ListClients(ctx)
	require.NoError(t, err)
	got, err := dst.ListClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = importer.Import(ctx, info.Key)
	assert.True(t, errs.IsConflict(err), "second import into a non-empty store")
}

func TestList_OldestFirst(t *testing.T) {
	ctx := context.Background()
	files := memory.New()
	svc := New(files, "backups", newStore(t), logger.Nop())

	for _, at := range []time.Time{
		time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	} {
		svc.now = fixedClock(at)
		_, err := svc.Export(ctx)
		require.NoError(t, err)
	}

	snaps, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "snapshots/clients-20260401T000000.000Z.yaml", snaps[0].Key)
	assert.Equal(t, "snapshots/clients-20260501T000000.000Z.yaml", snaps[1].Key)

	latest, err := svc.latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snaps[1].Key, latest)
}

func TestExport_SameSecondKeepsBoth(t *testing.T) {
	ctx := context.Background()
	files := memory.New()
	svc := New(files, "backups", newStore(t), logger.Nop())

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{base.Add(100 * time.Millisecond), base.Add(900 * time.Millisecond)} {
		svc.now = fixedClock(at)
		_, err := svc.Export(ctx)
		require.NoError(t, err)
	}

	snaps, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	_, err = svc.Export(ctx)
	assert.True(t, errs.IsConflict(err), "same instant must not overwrite: %v", err)

	snaps, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

// putDoc stores doc under key in the backups bucket.
func putDoc(t *testing.T, files *memory.Store, key string, doc *Document) {
	t.Helper()
	ctx := context.Background()
	body, err := Encode(doc)
	require.NoError(t, err)
	require.NoError(t, files.EnsureBucket(ctx, "backups"))
	_, err = files.PutObject(ctx, "backups", key, bytes.NewReader(body), int64(len(body)), contentType)
	require.NoError(t, err)
}

func TestImport_ConflictingRecordLeavesStoreEmpty(t *testing.T) {
	ctx := context.Background()
	files := memory.New()
	dst := newStore(t)
	svc := New(files, "backups", dst, logger.Nop())

	doc := &Document{
		Version:   formatVersion,
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Clients: []clients.ClientRecord{
			{Client: clients.Client{Name: "Pavel", Surname: "Lomazov", Email: "pavel.lomazov@mail.ru"}, Phones: []string{"89338779256"}},
			{Client: clients.Client{Name: "Stephen", Surname: "Hawking", Email: "stephen.hawking@gmail.com"}, Phones: []string{"89338779256"}},
		},
	}
	putDoc(t, files, Key(doc.CreatedAt), doc)

	n, err := svc.Import(ctx, "")
	assert.True(t, errs.IsConflict(err), "got %v", err)
	assert.Zero(t, n)

	left, err := dst.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)

	doc.Clients[1].Phones = []string{"2135550123"}
	putDoc(t, files, Key(doc.CreatedAt), doc)

	n, err = svc.Import(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := dst.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"2135550123"}, got[1].Phones)
}

func TestImport_Errors(t *testing.T) {
	ctx := context.Background()
	files := memory.New()
	require.NoError(t, files.EnsureBucket(ctx, "backups"))
	svc := New(files, "backups", newStore(t), logger.Nop())

	_, err := svc.Import(ctx, "")
	assert.True(t, errs.IsNotFound(err))

	_, err = svc.Import(ctx, "snapshots/missing.yaml")
	assert.True(t, errs.IsNotFound(err))
}

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(`
version: 1
created_at: 2026-01-02T03:04:05Z
clients:
  - id: 7
    name: Elon
    surname: Mask
    email: elon.mask@gmail.com
    phones: ["5555551234"]
`))
	require.NoError(t, err)
	require.Len(t, doc.Clients, 1)
	assert.Equal(t, int64(7), doc.Clients[0].ID)
	assert.Equal(t, "Mask", doc.Clients[0].Surname)
	assert.Equal(t, []string{"5555551234"}, doc.Clients[0].Phones)

	_, err = Decode([]byte("version: 2\n"))
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Decode([]byte("clients: [unterminated"))
	assert.True(t, errs.IsInvalidInput(err))
}
