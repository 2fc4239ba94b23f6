package directory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	goGate "github.com/MrEthical07/goGate"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres resolves handles against a user table with the columns user_id,
// social_id and nickname. The pool is owned by the caller.
type Postgres struct {
	pool  *pgxpool.Pool
	table string

	subjectQuery string
	userIDQuery  string
}

var _ goGate.UserDirectory = (*Postgres)(nil)

// PostgresOption configures a Postgres directory.
type PostgresOption func(*postgresOptions) error

type postgresOptions struct {
	schema string
	table  string
}

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the schema holding the user table (default "public").
func WithSchema(schema string) PostgresOption {
	return func(o *postgresOptions) error {
		schema = strings.TrimSpace(schema)
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("directory: invalid schema identifier %q", schema)
		}
		o.schema = schema
		return nil
	}
}

// WithTable sets the user table name (default "user").
func WithTable(table string) PostgresOption {
	return func(o *postgresOptions) error {
		table = strings.TrimSpace(table)
		if !pgIdentRe.MatchString(table) {
			return fmt.Errorf("directory: invalid table identifier %q", table)
		}
		o.table = table
		return nil
	}
}

func NewPostgres(pool *pgxpool.Pool, opts ...PostgresOption) (*Postgres, error) {
	if pool == nil {
		return nil, errors.New("directory: nil pool")
	}
	o := postgresOptions{schema: "public", table: "user"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	table := pgx.Identifier{o.schema, o.table}.Sanitize()
	return &Postgres{
		pool:         pool,
		table:        table,
		subjectQuery: `SELECT nickname FROM ` + table + ` WHERE social_id = $1`,
		userIDQuery:  `SELECT user_id::text FROM ` + table + ` WHERE nickname = $1`,
	}, nil
}

func (p *Postgres) SubjectBySocialID(ctx context.Context, socialID string) (string, error) {
	return p.lookup(ctx, p.subjectQuery, socialID)
}

func (p *Postgres) UserIDBySubject(ctx context.Context, subject string) (string, error) {
	return p.lookup(ctx, p.userIDQuery, subject)
}

func (p *Postgres) lookup(ctx context.Context, query, arg string) (string, error) {
	var out string
	err := p.pool.QueryRow(ctx, query, arg).Scan(&out)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, pgx.ErrNoRows):
		return "", goGate.ErrUserNotFound
	default:
		return "", fmt.Errorf("directory: query %s: %w", p.table, err)
	}
}
