// Package postgres installs base32url encode, decode, normalize and valid
// functions into a PostgreSQL database so that NUMERIC values can be rendered
// and parsed in SQL exactly as the Go package does.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/paraglidehq/base32url"
)

// Config holds the default options baked into the SQL functions.
type Config struct {
	Length   int
	Split    int
	Checksum bool
}

// DefaultConfig returns a configuration producing bare encodings.
// Use this unless your application changes base32url.DefaultOptions.
func DefaultConfig() Config {
	return Config{}
}

// FromOptions returns the Config matching opts.
func FromOptions(opts base32url.Options) Config {
	return Config{Length: opts.Length, Split: opts.Split, Checksum: opts.Checksum}
}

// Options returns the Go options equivalent to c.
func (c Config) Options() base32url.Options {
	return base32url.Options{Length: c.Length, Split: c.Split, Checksum: c.Checksum}
}

var ErrConfigMismatch = errors.New("base32url: database config does not match application config")

// Migrate runs the idempotent base32url migration with the given configuration.
// If the database already has a different configuration, returns ErrConfigMismatch.
func Migrate(ctx context.Context, db *sql.DB, cfg Config) error {
	if cfg.Length < 0 || cfg.Split < 0 {
		return fmt.Errorf("%w: length=%d split=%d", base32url.ErrInvalidOptions, cfg.Length, cfg.Split)
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _base32url_config (
			id int PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			length int NOT NULL,
			split int NOT NULL,
			checksum boolean NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("base32url: create config table: %w", err)
	}

	stored, err := GetConfig(ctx, db)
	if err == nil {
		if stored != cfg {
			return fmt.Errorf("%w: db has %q, app has %q",
				ErrConfigMismatch, stored.Options(), cfg.Options())
		}
	} else if errors.Is(err, sql.ErrNoRows) {
		_, err = db.ExecContext(ctx, `INSERT INTO _base32url_config (length, split, checksum) VALUES ($1, $2, $3)`,
			cfg.Length, cfg.Split, cfg.Checksum)
		if err != nil {
			return fmt.Errorf("base32url: insert config: %w", err)
		}
	} else {
		return fmt.Errorf("base32url: read config: %w", err)
	}

	if _, err := db.ExecContext(ctx, generateSQL(cfg)); err != nil {
		return fmt.Errorf("base32url: run migrations: %w", err)
	}
	return nil
}

// GetConfig reads the base32url configuration from the database.
func GetConfig(ctx context.Context, db *sql.DB) (Config, error) {
	var cfg Config
	err := db.QueryRowContext(ctx, `SELECT length, split, checksum FROM _base32url_config`).
		Scan(&cfg.Length, &cfg.Split, &cfg.Checksum)
	return cfg, err
}

// Encode renders n with the database functions and the stored defaults.
func Encode(ctx context.Context, db *sql.DB, n base32url.ID) (string, error) {
	var s string
	err := db.QueryRowContext(ctx, `SELECT base32url_encode($1::numeric)`, n).Scan(&s)
	return s, err
}

// Decode parses s with the database functions and the stored defaults.
// Invalid input yields a NullID with Valid unset.
func Decode(ctx context.Context, db *sql.DB, s string) (base32url.NullID, error) {
	var id base32url.NullID
	err := db.QueryRowContext(ctx, `SELECT base32url_decode($1)`, s).Scan(&id)
	return id, err
}

func generateSQL(cfg Config) string {
	return fmt.Sprintf(`
-- Encode a non-negative integer
CREATE OR REPLACE FUNCTION base32url_encode(n numeric, width int DEFAULT %d, split int DEFAULT %d, checksum boolean DEFAULT %t)
  RETURNS text
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT
  AS $$
DECLARE
  alphabet text := '0123456789abcdefghjkmnpqrstvwxyz';
  rest numeric := n;
  result text := '';
  grouped text := '';
BEGIN
  IF n < 0 OR n <> trunc(n) THEN
    RAISE EXCEPTION 'base32url: cannot encode %%', n;
  END IF;
  IF rest = 0 THEN
    result := '0';
  END IF;
  WHILE rest > 0 LOOP
    result := substr(alphabet, mod(rest, 32)::int + 1, 1) || result;
    rest := div(rest, 32);
  END LOOP;
  IF checksum THEN
    result := result || lpad((98 - mod(n * 100, 97))::int::text, 2, '0');
  END IF;
  IF width > char_length(result) THEN
    result := lpad(result, width, '0');
  END IF;
  IF split > 0 THEN
    WHILE char_length(result) > split LOOP
      grouped := '-' || right(result, split) || grouped;
      result := left(result, char_length(result) - split);
    END LOOP;
    result := result || grouped;
  END IF;
  RETURN result;
END;
$$;

-- Decode, NULL when invalid
CREATE OR REPLACE FUNCTION base32url_decode(s text, checksum boolean DEFAULT %t)
  RETURNS numeric
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
DECLARE
  alphabet text := '0123456789abcdefghjkmnpqrstvwxyz';
  payload text := s;
  claimed int;
  c text;
  p int;
  result numeric := 0;
BEGIN
  IF checksum THEN
    IF right(s, 2) !~ '^[0-9]{2}$' THEN
      RETURN NULL;
    END IF;
    claimed := right(s, 2)::int;
    payload := left(s, -2);
  END IF;
  payload := replace(payload, '-', '');
  FOR i IN 1..char_length(payload) LOOP
    c := substr(payload, i, 1);
    IF c ~ '^[A-Za-z]$' THEN
      c := translate(lower(c), 'ilo', '110');
    END IF;
    p := strpos(alphabet, c);
    IF p = 0 THEN
      RETURN NULL;
    END IF;
    result := result * 32 + (p - 1);
  END LOOP;
  IF checksum AND 98 - mod(result * 100, 97) <> claimed THEN
    RETURN NULL;
  END IF;
  RETURN result;
END;
$$;

-- Canonical form, '?' for characters that cannot be decoded
CREATE OR REPLACE FUNCTION base32url_normalize(s text, checksum boolean DEFAULT %t)
  RETURNS text
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
DECLARE
  alphabet text := '0123456789abcdefghjkmnpqrstvwxyz';
  payload text := s;
  suffix text := '';
  c text;
  result text := '';
BEGIN
  IF checksum THEN
    suffix := right(s, 2);
    payload := left(s, -2);
  END IF;
  payload := replace(payload, '-', '');
  FOR i IN 1..char_length(payload) LOOP
    c := substr(payload, i, 1);
    IF c ~ '^[A-Za-z]$' THEN
      c := translate(lower(c), 'ilo', '110');
    END IF;
    IF strpos(alphabet, c) = 0 THEN
      c := '?';
    END IF;
    result := result || c;
  END LOOP;
  RETURN result || suffix;
END;
$$;

CREATE OR REPLACE FUNCTION base32url_valid(s text, checksum boolean DEFAULT %t)
  RETURNS boolean
  LANGUAGE sql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
  SELECT strpos(base32url_normalize(s, checksum), '?') = 0;
$$;
`,
		cfg.Length,   // width default in base32url_encode
		cfg.Split,    // split default in base32url_encode
		cfg.Checksum, // checksum default in base32url_encode
		cfg.Checksum, // checksum default in base32url_decode
		cfg.Checksum, // checksum default in base32url_normalize
		cfg.Checksum, // checksum default in base32url_valid
	)
}
