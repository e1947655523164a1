package clients

import (
	"context"

	"github.com/koustreak/clientbook/internal/database"
)

const (
	clientTable = "client"
	phoneTable  = "phone"
)

type schemaDDL struct {
	create []string
	drop   []string
}

var ddl = map[database.Dialect]schemaDDL{
	database.DialectPostgres: {
		create: []string{
			`CREATE TABLE IF NOT EXISTS client (
				client_id SERIAL PRIMARY KEY,
				name      VARCHAR(80)  NOT NULL,
				surname   VARCHAR(80)  NOT NULL,
				email     VARCHAR(320) NOT NULL UNIQUE
				          CHECK (email ~* '^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$')
			)`,
			`CREATE TABLE IF NOT EXISTS phone (
				number_id SERIAL PRIMARY KEY,
				number    VARCHAR(15) NOT NULL UNIQUE,
				client_id INTEGER     NOT NULL REFERENCES client(client_id) ON DELETE CASCADE
			)`,
		},
		drop: []string{
			`DROP TABLE IF EXISTS phone CASCADE`,
			`DROP TABLE IF EXISTS client CASCADE`,
		},
	},
	database.DialectMySQL: {
		create: []string{
			`CREATE TABLE IF NOT EXISTS client (
				client_id INT          NOT NULL AUTO_INCREMENT PRIMARY KEY,
				name      VARCHAR(80)  NOT NULL,
				surname   VARCHAR(80)  NOT NULL,
				email     VARCHAR(320) NOT NULL UNIQUE,
				CONSTRAINT client_email_format
					CHECK (email REGEXP '^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\\.[A-Za-z]{2,}$')
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS phone (
				number_id INT         NOT NULL AUTO_INCREMENT PRIMARY KEY,
				number    VARCHAR(15) NOT NULL UNIQUE,
				client_id INT         NOT NULL,
				CONSTRAINT phone_client_fk FOREIGN KEY (client_id)
					REFERENCES client(client_id) ON DELETE CASCADE
			) ENGINE=InnoDB`,
		},
		drop: []string{
			`DROP TABLE IF EXISTS phone`,
			`DROP TABLE IF EXISTS client`,
		},
	},
	database.DialectSQLite: {
		create: []string{
			`CREATE TABLE IF NOT EXISTS client (
				client_id INTEGER PRIMARY KEY AUTOINCREMENT,
				name      VARCHAR(80)  NOT NULL,
				surname   VARCHAR(80)  NOT NULL,
				email     VARCHAR(320) NOT NULL UNIQUE CHECK (email LIKE '%_@_%._%')
			)`,
			`CREATE TABLE IF NOT EXISTS phone (
				number_id INTEGER PRIMARY KEY AUTOINCREMENT,
				number    VARCHAR(15) NOT NULL UNIQUE,
				client_id INTEGER     NOT NULL REFERENCES client(client_id) ON DELETE CASCADE
			)`,
		},
		drop: []string{
			`DROP TABLE IF EXISTS phone`,
			`DROP TABLE IF EXISTS client`,
		},
	},
}

// CreateSchema creates the client and phone tables if they do not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	return s.runDDL(ctx, "create_schema", ddl[s.db.Dialect()].create)
}

// DropSchema drops both tables, phones first. Missing tables are not an error.
func (s *Store) DropSchema(ctx context.Context) error {
	return s.runDDL(ctx, "drop_schema", ddl[s.db.Dialect()].drop)
}

// SchemaExists reports whether both tables are present.
func (s *Store) SchemaExists(ctx context.Context) (bool, error) {
	for _, table := range []string{clientTable, phoneTable} {
		ok, err := s.db.TableExists(ctx, table)
		if err != nil {
			return false, s.fail(s.log.With().Str("op", "schema_exists").Logger(), "table lookup failed", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) runDDL(ctx context.Context, op string, stmts []string) error {
	ctx, cancel := s.scope(ctx)
	defer cancel()
	log := s.log.With().Str("op", op).Str("dialect", s.db.Dialect().String()).Logger()

	err := database.RunInTx(ctx, s.db, func(tx database.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.fail(log, "schema change failed", err)
	}
	log.Debug("schema change applied")
	return nil
}
