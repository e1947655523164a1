package clients

import (
	"context"
	"testing"

	"github.com/koustreak/clientbook/internal/database/sqlite"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/koustreak/clientbook/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlite.Memory(context.Background())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s := NewStore(db, WithLogger(logger.Nop()))
	require.NoError(t, s.CreateSchema(context.Background()))
	return s
}

func strPtr(s string) *string { return &s }

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSchema_CreateDropIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateSchema(ctx))
	ok, err := s.SchemaExists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DropSchema(ctx))
	require.NoError(t, s.DropSchema(ctx))
	ok, err = s.SchemaExists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddClient_PhonesInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	phones := []string{"2135550123", "2135554567", "1000000001"}
	id, err := s.AddClient(ctx, "Stephen", "Hawking", "stephen.hawking@gmail.com", phones)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := s.GetPhones(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, phones, got)

	c, err := s.GetClient(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &Client{ID: 1, Name: "Stephen", Surname: "Hawking", Email: "stephen.hawking@gmail.com"}, c)
}

func TestAddClient_DuplicateEmailLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.AddClient(ctx, "Elon", "Mask", "elon.mask@gmail.com", []string{"5555551234"})
	require.NoError(t, err)

	_, err = s.AddClient(ctx, "Other", "Person", "elon.mask@gmail.com", []string{"5555550000"})
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))

	assert.Equal(t, 1, countRows(t, s, "client"))
	assert.Equal(t, 1, countRows(t, s, "phone"))
}

func TestAddClient_DuplicatePhoneRollsBackClient(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.AddClient(ctx, "Elon", "Mask", "elon.mask@gmail.com", []string{"5555551234"})
	require.NoError(t, err)

	_, err = s.AddClient(ctx, "Other", "Person", "other@example.com", []string{"5555550000", "5555551234"})
	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))

	_, err = s.FindClient(ctx, Criteria{Email: "other@example.com"})
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, 1, countRows(t, s, "phone"))
}

func TestAddClient_Validation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tests := []struct {
		name   string
		first  string
		last   string
		email  string
		phones []string
	}{
		{"empty name", "", "Lomazov", "pavel@mail.ru", nil},
		{"empty surname", "Pavel", "", "pavel@mail.ru", nil},
		{"bad email", "Pavel", "Lomazov", "not-an-email", nil},
		{"bad phone", "Pavel", "Lomazov", "pavel@mail.ru", []string{"12-34"}},
		{"long phone", "Pavel", "Lomazov", "pavel@mail.ru", []string{"1234567890123456"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddClient(ctx, tt.first, tt.last, tt.email, tt.phones)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err), "got %v", err)
		})
	}
	assert.Equal(t, 0, countRows(t, s, "client"))
}

func TestAddPhone(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.AddClient(ctx, "Pavel", "Lomazov", "pavel.lomazov@mail.ru", nil)
	require.NoError(t, err)

	_, err = s.AddPhone(ctx, id, "89338779256")
	require.NoError(t, err)

	phones, err := s.GetPhones(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"89338779256"}, phones)

	_, err = s.AddPhone(ctx, id, "89338779256")
	assert.True(t, errs.IsConflict(err))

	_, err = s.AddPhone(ctx, 99, "1234567")
	assert.True(t, errs.IsNotFound(err))

	_, err = s.AddPhone(ctx, id, "abc")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestGetClient_Unknown(t *testing.T) {
	s := newTestStore(t)

	c, err := s.GetClient(context.Background(), 42)
	assert.Nil(t, c)
	assert.True(t, errs.IsNotFound(err))

	phones, err := s.GetPhones(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, phones)
}

func TestUpdateClient(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.AddClient(ctx, "Stephen", "Hawking", "stephen.hawking@gmail.com", []string{"2135550123", "2135554567"})
	require.NoError(t, err)

	t.Run("fields only keeps phones", func(t *testing.T) {
		require.NoError(t, s.UpdateClient(ctx, id, ClientUpdate{Name: strPtr("Anonymous")}))

		c, err := s.GetClient(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Anonymous", c.Name)
		assert.Equal(t, "Hawking", c.Surname)

		phones, err := s.GetPhones(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"2135550123", "2135554567"}, phones)
	})

	t.Run("phones are replaced", func(t *testing.T) {
		require.NoError(t, s.UpdateClient(ctx, id, ClientUpdate{Phones: []string{"123456789", "987654321"}}))

		phones, err := s.GetPhones(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"123456789", "987654321"}, phones)
	})

	t.Run("empty phones clears the list", func(t *testing.T) {
		require.NoError(t, s.UpdateClient(ctx, id, ClientUpdate{Phones: []string{}}))

		phones, err := s.GetPhones(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, phones)
	})

	t.Run("unknown client", func(t *testing.T) {
		err := s.UpdateClient(ctx, 99, ClientUpdate{Name: strPtr("x")})
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("conflicting email rolls back", func(t *testing.T) {
		_, err := s.AddClient(ctx, "Elon", "Mask", "elon.mask@gmail.com", nil)
		require.NoError(t, err)

		err = s.UpdateClient(ctx, id, ClientUpdate{Email: strPtr("elon.mask@gmail.com"), Phones: []string{"111"}})
		assert.True(t, errs.IsConflict(err))

		c, err := s.GetClient(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "stephen.hawking@gmail.com", c.Email)
	})
}

func TestDeletePhone(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.AddClient(ctx, "Pavel", "Lomazov", "pavel.lomazov@mail.ru", []string{"89338779256"})
	require.NoError(t, err)
	other, err := s.AddClient(ctx, "Elon", "Mask", "elon.mask@gmail.com", []string{"5555551234"})
	require.NoError(t, err)

	err = s.DeletePhone(ctx, id, "5555551234")
	assert.True(t, errs.IsNotFound(err), "number owned by another client")

	require.NoError(t, s.DeletePhone(ctx, id, "89338779256"))
	phones, err := s.GetPhones(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, phones)

	phones, err = s.GetPhones(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, []string{"5555551234"}, phones)

	assert.True(t, errs.IsNotFound(s.DeletePhone(ctx, 99, "89338779256")))
}

func TestDeleteClient(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.AddClient(ctx, "Stephen", "Hawking", "stephen.hawking@gmail.com", []string{"2135550123", "2135554567"})
	require.NoError(t, err)
	_, err = s.AddClient(ctx, "Elon", "Mask", "elon.mask@gmail.com", []string{"5555551234"})
	require.NoError(t, err)

	t.Run("unknown id changes nothing", func(t *testing.T) {
		err := s.DeleteClient(ctx, 99)
		assert.True(t, errs.IsNotFound(err))
		assert.Equal(t, 2, countRows(t, s, "client"))
		assert.Equal(t, 3, countRows(t, s, "phone"))
	})

	t.Run("removes client and phones", func(t *testing.T) {
		require.NoError(t, s.DeleteClient(ctx, id))

		_, err := s.GetClient(ctx, id)
		assert.True(t, errs.IsNotFound(err))
		phones, err := s.GetPhones(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, phones)
		assert.Equal(t, 1, countRows(t, s, "phone"))

		_, err = s.FindClient(ctx, Criteria{Surname: "Hawking"})
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("deleted numbers are reusable", func(t *testing.T) {
		_, err := s.AddClient(ctx, "New", "Owner", "new.owner@example.com", []string{"2135550123"})
		require.NoError(t, err)
	})
}

func TestListClients(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	records, err := s.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = s.AddClient(ctx, "Pavel", "Lomazov", "pavel.lomazov@mail.ru", nil)
	require.NoError(t, err)
	_, err = s.AddClient(ctx, "Stephen", "Hawking", "stephen.hawking@gmail.com", []string{"2135550123", "2135554567"})
	require.NoError(t, err)

	records, err = s.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Pavel", records[0].Name)
	assert.Equal(t, []string{}, records[0].Phones)
	assert.Equal(t, int64(2), records[1].ID)
	assert.Equal(t, []string{"2135550123", "2135554567"}, records[1].Phones)
}

// TestScenario walks the reference session end to end.
func TestScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.AddClient(ctx, "Pavel", "Lomazov", "pavel.lomazov@mail.ru", []string{})
	require.NoError(t, err)
	_, err = s.AddClient(ctx, "Stephen", "Hawking", "stephen.hawking@gmail.com", []string{"2135550123", "2135554567"})
	require.NoError(t, err)
	_, err = s.AddClient(ctx, "Elon", "Mask", "elon.mask@gmail.com", []string{"5555551234"})
	require.NoError(t, err)

	pavel, err := s.FindClient(ctx, Criteria{Name: "Pavel"})
	require.NoError(t, err)
	stephen, err := s.FindClient(ctx, Criteria{Surname: "Hawking"})
	require.NoError(t, err)
	elon, err := s.FindClient(ctx, Criteria{Email: "elon.mask@gmail.com"})
	require.NoError(t, err)
	elonByPhone, err := s.FindClient(ctx, Criteria{Phone: "5555551234"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), pavel)
	assert.Equal(t, int64(2), stephen)
	assert.Equal(t, int64(3), elon)
	assert.Equal(t, int64(3), elonByPhone)

	c, err := s.GetClient(ctx, pavel)
	require.NoError(t, err)
	assert.Equal(t, Client{ID: 1, Name: "Pavel", Surname: "Lomazov", Email: "pavel.lomazov@mail.ru"}, *c)

	_, err = s.AddPhone(ctx, pavel, "89338779256")
	require.NoError(t, err)
	phones, err := s.GetPhones(ctx, pavel)
	require.NoError(t, err)
	assert.Equal(t, []string{"89338779256"}, phones)

	require.NoError(t, s.DeletePhone(ctx, pavel, "89338779256"))
	phones, err = s.GetPhones(ctx, pavel)
	require.NoError(t, err)
	assert.Empty(t, phones)

	assert.Error(t, s.DeleteClient(ctx, 99))
	require.NoError(t, s.DeleteClient(ctx, pavel))

	_, err = s.FindClient(ctx, Criteria{Name: "Pavel"})
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, s.UpdateClient(ctx, stephen, ClientUpdate{
		Name:    strPtr("Anonymous"),
		Surname: strPtr("Hawkinggg"),
		Email:   strPtr("stephen.hawkinggg@gmail.com"),
		Phones:  []string{"123456789", "987654321"},
	}))

	c, err = s.GetClient(ctx, stephen)
	require.NoError(t, err)
	assert.Equal(t, Client{ID: stephen, Name: "Anonymous", Surname: "Hawkinggg", Email: "stephen.hawkinggg@gmail.com"}, *c)
	phones, err = s.GetPhones(ctx, stephen)
	require.NoError(t, err)
	assert.Equal(t, []string{"123456789", "987654321"}, phones)

	require.NoError(t, s.DropSchema(ctx))
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	records := []ClientRecord{
		{Client: Client{ID: 40, Name: "Pavel", Surname: "Lomazov", Email: "pavel.lomazov@mail.ru"}, Phones: []string{"89338779256"}},
		{Client: Client{ID: 41, Name: "Stephen", Surname: "Hawking", Email: "stephen.hawking@gmail.com"}, Phones: []string{"89338779256"}},
	}

	_, err := s.Restore(ctx, records)
	assert.True(t, errs.IsConflict(err), "got %v", err)
	got, err := s.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "failed restore must not leave earlier records behind")

	records[1].Email = "bad"
	_, err = s.Restore(ctx, records)
	assert.True(t, errs.IsInvalidInput(err), "got %v", err)

	records[1].Email = "stephen.hawking@gmail.com"
	records[1].Phones = []string{"2135550123", "2135554567"}
	n, err := s.Restore(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err = s.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, []string{"2135550123", "2135554567"}, got[1].Phones)

	_, err = s.Restore(ctx, records[:1])
	assert.True(t, errs.IsConflict(err), "restore into a non-empty store")
}
