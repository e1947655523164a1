package clients

import (
	"context"

	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/koustreak/clientbook/internal/logger"
)

// FindClient returns the id of the lowest-numbered client matching c.
//
// With MatchAll every non-empty field must hold for the same client; a phone
// criterion joins the phone table. With MatchPhoneFallback the client fields
// are tried first and the phone is looked up only when they match nothing.
// No criteria at all, or no match, is a not_found error.
func (s *Store) FindClient(ctx context.Context, c Criteria) (int64, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()
	log := s.log.With().Str("op", "find_client").Str("mode", c.Mode.String()).Logger()

	if c.empty() {
		return 0, s.fail(log, "find client failed", errs.New(errs.ErrKindNotFound, "no search criteria given"))
	}

	var (
		id  int64
		err error
	)
	switch c.Mode {
	case MatchPhoneFallback:
		id, err = s.findFallback(ctx, c)
	default:
		id, err = s.findFirst(ctx, c, true)
	}
	if err != nil {
		return 0, s.fail(log, "find client failed", err)
	}

	log.Debug("client found")
	return id, nil
}

func (s *Store) findFallback(ctx context.Context, c Criteria) (int64, error) {
	if c.hasClientFields() {
		id, err := s.findFirst(ctx, c, false)
		if err == nil || !errs.IsNotFound(err) || c.Phone == "" {
			return id, err
		}
	}
	return s.findFirst(ctx, Criteria{Phone: c.Phone}, true)
}

// findFirst runs one lookup. withPhone controls whether c.Phone takes part.
func (s *Store) findFirst(ctx context.Context, c Criteria, withPhone bool) (int64, error) {
	b := database.Select(clientTable, s.db.Dialect()).
		As("c").
		Columns("c.client_id")

	if withPhone && c.Phone != "" {
		b.Join(phoneTable, "p", "p.client_id", "c.client_id").
			Where("p.number", "=", c.Phone)
	}
	for _, f := range []struct{ col, val string }{
		{"c.name", c.Name},
		{"c.surname", c.Surname},
		{"c.email", c.Email},
	} {
		if f.val != "" {
			b.Where(f.col, "=", f.val)
		}
	}
	if !b.HasWhere() {
		return 0, errs.New(errs.ErrKindNotFound, "no search criteria given")
	}

	query, args, err := b.OrderBy("c.client_id", database.Asc).Limit(1).Build()
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Debugf("find query: %s", query)

	var id int64
	if err := s.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errs.IsNotFound(err) {
			return 0, errs.Wrap(errs.ErrKindNotFound, "no client matches the criteria", err)
		}
		return 0, err
	}
	return id, nil
}
