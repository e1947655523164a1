package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/koustreak/clientbook/internal/logger"
)

const (
	insertClientSQL = `INSERT INTO client (name, surname, email) VALUES (?, ?, ?)`
	insertPhoneSQL  = `INSERT INTO phone (client_id, number) VALUES (?, ?)`
	selectClientSQL = `SELECT client_id, name, surname, email FROM client WHERE client_id = ?`
	selectPhonesSQL = `SELECT number FROM phone WHERE client_id = ? ORDER BY number_id`
	updateClientSQL = `UPDATE client SET name = ?, surname = ?, email = ? WHERE client_id = ?`
	deletePhonesSQL = `DELETE FROM phone WHERE client_id = ?`
	deletePhoneSQL  = `DELETE FROM phone WHERE client_id = ? AND number = ?`
	deleteClientSQL = `DELETE FROM client WHERE client_id = ?`
	listClientsSQL  = `SELECT client_id, name, surname, email FROM client ORDER BY client_id`
	listPhonesSQL   = `SELECT client_id, number FROM phone ORDER BY client_id, number_id`
	countClientsSQL = `SELECT COUNT(*) FROM client`
)

// Store runs client and phone operations against a database.DB.
// It holds no mutable state and is safe for concurrent use.
type Store struct {
	db      database.DB
	log     *logger.Logger
	timeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for operation diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithQueryTimeout bounds every operation. Zero means no extra deadline.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// NewStore returns a Store backed by db.
func NewStore(db database.DB, opts ...Option) *Store {
	s := &Store{db: db, log: logger.Global()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddClient inserts a client and its phones in one transaction and returns
// the new client id. A failing phone insert undoes the client insert.
func (s *Store) AddClient(ctx context.Context, name, surname, email string, phones []string) (int64, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()
	log := s.log.With().Str("op", "add_client").Str("email", email).Logger()

	rec := &ClientRecord{Client: Client{Name: name, Surname: surname, Email: email}, Phones: phones}
	if err := validateRecord(rec); err != nil {
		return 0, s.fail(log, "invalid client", err)
	}

	var id int64
	err := database.RunInTx(ctx, s.db, func(tx database.Tx) error {
		var err error
		id, err = tx.Insert(ctx, s.sql(insertClientSQL), "client_id", name, surname, email)
		if err != nil {
			return err
		}
		return s.insertPhones(ctx, tx, id, phones)
	})
	if err != nil {
		return 0, s.fail(log, "add client failed", err)
	}

	log.InfoWith("client added", map[string]interface{}{"client_id": id, "phones": len(phones)})
	return id, nil
}

// AddPhone attaches number to an existing client and returns the phone id.
func (s *Store) AddPhone(ctx context.Context, clientID int64, number string) (int64, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()
	log := s.log.With().Str("op", "add_phone").Int64("client_id", clientID).Str("number", number).Logger()

	if err := validatePhone(number); err != nil {
		return 0, s.fail(log, "invalid phone", err)
	}

	var id int64
	err := database.RunInTx(ctx, s.db, func(tx database.Tx) error {
		if _, err := s.getClient(ctx, tx, clientID); err != nil {
			return err
		}
		var err error
		id, err = tx.Insert(ctx, s.sql(insertPhoneSQL), "number_id", clientID, number)
		return err
	})
	if err != nil {
		return 0, s.fail(log, "add phone failed", err)
	}

	log.Debug("phone added")
	return id, nil
}

// GetClient returns the client row, or a not_found error when absent.
func (s *Store) GetClient(ctx context.Context, clientID int64) (*Client, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	c, err := s.getClient(ctx, s.db, clientID)
	if err != nil {
		return nil, s.fail(s.log.With().Str("op", "get_client").Int64("client_id", clientID).Logger(), "get client failed", err)
	}
	return c, nil
}

// GetPhones returns the client's numbers in insertion order. An unknown
// client simply has no phones.
func (s *Store) GetPhones(ctx context.Context, clientID int64) ([]string, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	phones, err := s.getPhones(ctx, s.db, clientID)
	if err != nil {
		return nil, s.fail(s.log.With().Str("op", "get_phones").Int64("client_id", clientID).Logger(), "get phones failed", err)
	}
	return phones, nil
}

// UpdateClient overwrites the fields set in upd and, when upd.Phones is
// non-nil, replaces the whole phone list.
func (s *Store) UpdateClient(ctx context.Context, clientID int64, upd ClientUpdate) error {
	ctx, cancel := s.scope(ctx)
	defer cancel()
	log := s.log.With().Str("op", "update_client").Int64("client_id", clientID).Logger()

	err := database.RunInTx(ctx, s.db, func(tx database.Tx) error {
		current, err := s.getClient(ctx, tx, clientID)
		if err != nil {
			return err
		}

		rec := &ClientRecord{Client: *current, Phones: upd.Phones}
		if upd.Name != nil {
			rec.Name = *upd.Name
		}
		if upd.Surname != nil {
			rec.Surname = *upd.Surname
		}
		if upd.Email != nil {
			rec.Email = *upd.Email
		}
		if err := validateRecord(rec); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, s.sql(updateClientSQL), rec.Name, rec.Surname, rec.Email, clientID); err != nil {
			return err
		}

		if upd.Phones == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, s.sql(deletePhonesSQL), clientID); err != nil {
			return err
		}
		return s.insertPhones(ctx, tx, clientID, upd.Phones)
	})
	if err != nil {
		return s.fail(log, "update client failed", err)
	}

	log.Info("client updated")
	return nil
}

// DeletePhone removes number from the client. Both an unknown client and a
// number the client does not own yield not_found.
func (s *Store) DeletePhone(ctx context.Context, clientID int64, number string) error {
	ctx, cancel := s.scope(ctx)
	defer cancel()
	log := s.log.With().Str("op", "delete_phone").Int64("client_id", clientID).Str("number", number).Logger()

	err := database.RunInTx(ctx, s.db, func(tx database.Tx) error {
		if _, err := s.getClient(ctx, tx, clientID); err != nil {
			return err
		}
		n, err := tx.Exec(ctx, s.sql(deletePhoneSQL), clientID, number)
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.Newf(errs.ErrKindNotFound, "phone %s not found for client %d", number, clientID)
		}
		return nil
	})
	if err != nil {
		return s.fail(log, "delete phone failed", err)
	}

	log.Debug("phone deleted")
	return nil
}

// DeleteClient removes the client and every phone it owns.
func (s *Store) DeleteClient(ctx context.Context, clientID int64) error {
	ctx, cancel := s.scope(ctx)
	defer cancel()
	log := s.log.With().Str("op", "delete_client").Int64("client_id", clientID).Logger()

	err := database.RunInTx(ctx, s.db, func(tx database.Tx) error {
		if _, err := s.getClient(ctx, tx, clientID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, s.sql(deletePhonesSQL), clientID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, s.sql(deleteClientSQL), clientID)
		return err
	})
	if err != nil {
		return s.fail(log, "delete client failed", err)
	}

	log.Info("client deleted")
	return nil
}

// Restore adds records to an empty store in a single transaction and returns
// how many clients were added. Stored ids are ignored and reassigned. Any
// failing record leaves the store as it was.
func (s *Store) Restore(ctx context.Context, records []ClientRecord) (int, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()
	log := s.log.With().Str("op", "restore").Int("records", len(records)).Logger()

	for i := range records {
		if err := validateRecord(&records[i]); err != nil {
			return 0, s.fail(log, "invalid record", errs.Wrap(errs.KindOf(err), fmt.Sprintf("record %d", i+1), err))
		}
	}

	err := database.RunInTx(ctx, s.db, func(tx database.Tx) error {
		var n int64
		if err := tx.QueryRow(ctx, countClientsSQL).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return errs.Newf(errs.ErrKindConflict, "restore needs an empty store, found %d clients", n)
		}

		for i, rec := range records {
			id, err := tx.Insert(ctx, s.sql(insertClientSQL), "client_id", rec.Name, rec.Surname, rec.Email)
			if err == nil {
				err = s.insertPhones(ctx, tx, id, rec.Phones)
			}
			if err != nil {
				return errs.Wrap(errs.KindOf(err), fmt.Sprintf("record %d (%s)", i+1, rec.Email), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, s.fail(log, "restore failed", err)
	}

	log.Info("clients restored")
	return len(records), nil
}

// ListClients returns every client with its phones, ordered by id.
func (s *Store) ListClients(ctx context.Context) ([]ClientRecord, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()
	log := s.log.With().Str("op", "list_clients").Logger()

	records, err := s.listClients(ctx)
	if err != nil {
		return nil, s.fail(log, "list clients failed", err)
	}
	return records, nil
}

func (s *Store) listClients(ctx context.Context) ([]ClientRecord, error) {
	rows, err := s.db.Query(ctx, listClientsSQL)
	if err != nil {
		return nil, err
	}
	records := make([]ClientRecord, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var rec ClientRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Surname, &rec.Email); err != nil {
			rows.Close()
			return nil, err
		}
		rec.Phones = []string{}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, listPhonesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			clientID int64
			number   string
		)
		if err := rows.Scan(&clientID, &number); err != nil {
			return nil, err
		}
		if i, ok := index[clientID]; ok {
			records[i].Phones = append(records[i].Phones, number)
		}
	}
	return records, rows.Err()
}

// --- helpers shared by operations ---

func (s *Store) getClient(ctx context.Context, q database.Querier, clientID int64) (*Client, error) {
	var c Client
	err := q.QueryRow(ctx, s.sql(selectClientSQL), clientID).Scan(&c.ID, &c.Name, &c.Surname, &c.Email)
	if errs.IsNotFound(err) {
		return nil, errs.Wrap(errs.ErrKindNotFound, "client wasn't found", err)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) getPhones(ctx context.Context, q database.Querier, clientID int64) ([]string, error) {
	rows, err := q.Query(ctx, s.sql(selectPhonesSQL), clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phones := make([]string, 0)
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		phones = append(phones, number)
	}
	return phones, rows.Err()
}

func (s *Store) insertPhones(ctx context.Context, tx database.Tx, clientID int64, phones []string) error {
	for _, number := range phones {
		if _, err := tx.Insert(ctx, s.sql(insertPhoneSQL), "number_id", clientID, number); err != nil {
			return err
		}
	}
	return nil
}

// sql rebinds a ? statement for the store's dialect.
func (s *Store) sql(q string) string {
	return s.db.Dialect().Rebind(q)
}

// scope applies the query timeout and attaches the store logger so the
// transaction helper reports rollback failures through it.
func (s *Store) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = s.log.WithContext(ctx)
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// fail logs err at a level matching its kind and returns it unchanged.
func (s *Store) fail(log *logger.Logger, msg string, err error) error {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound, errs.ErrKindInvalidInput, errs.ErrKindConflict:
		log.WarnWith(msg, map[string]interface{}{"error": err.Error(), "kind": errs.KindOf(err).String()})
	default:
		log.ErrorWith(msg, err, map[string]interface{}{"kind": errs.KindOf(err).String()})
	}
	return err
}
