package supabase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/crimson-sun/preflight/internal/fetch"
	"github.com/crimson-sun/preflight/internal/model"
)

// connect opens a single connection. Failures name host:port only; the DSN
// carries the password.
func (c *Connector) connect(ctx context.Context, dsn string) (*pgx.Conn, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errors.New("supabase connector: invalid database url")
	}
	if c.opts.Timeout > 0 {
		cfg.ConnectTimeout = c.opts.Timeout
	}
	target := net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, connectError(target, err)
	}
	c.opts.Log().Debug("connected to postgres", "target", target)
	return conn, nil
}

// connectError tells a server that answered and refused (bad password,
// unknown database) apart from one that could not be reached.
func connectError(target string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &model.RejectedError{Target: target, Code: pgErr.Code, Message: pgErr.Message}
	}
	return &model.TransportError{Op: "connect", Target: target, Err: err}
}

func (c *Connector) checkPostgres(ctx context.Context, dsn, table string) error {
	conn, err := c.connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	rows, err := conn.Query(ctx, "SELECT id FROM "+pgx.Identifier{table}.Sanitize()+" LIMIT 1")
	if err != nil {
		return fmt.Errorf("supabase connector: %w", err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("supabase connector: %w", err)
	}
	return nil
}

func (c *Connector) fetchPostgres(ctx context.Context, dsn string, req fetch.Request) (fetch.Page, error) {
	conn, err := c.connect(ctx, dsn)
	if err != nil {
		return fetch.Page{}, err
	}
	defer conn.Close(context.Background())

	limit := requestLimit(req)
	sql, args := pageQuery(pgx.Identifier{req.ResourceID}.Sanitize(), limit)
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return fetch.Page{}, fmt.Errorf("supabase connector: query %s: %w", req.ResourceID, err)
	}
	defer rows.Close()

	records := []model.RawRecord{}
	var total int64
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fetch.Page{}, fmt.Errorf("supabase connector: read row: %w", err)
		}
		// The last column is the window count.
		last := len(values) - 1
		total, _ = values[last].(int64)
		fds := rows.FieldDescriptions()
		pairs := make([]model.Pair, last)
		for i := range pairs {
			pairs[i] = model.Pair{Key: fds[i].Name, Value: normalize(values[i])}
		}
		records = append(records, model.NewRecord(pairs...))
	}
	if err := rows.Err(); err != nil {
		return fetch.Page{}, fmt.Errorf("supabase connector: %w", err)
	}

	return fetch.Page{Records: records, Meta: pageMeta(int(total), limit)}, nil
}

// pageQuery selects up to limit rows of ident with the table's row count as a
// trailing column. The window runs before LIMIT, so one query yields both.
func pageQuery(ident string, limit int) (string, []any) {
	sql := "SELECT t.*, count(*) OVER () FROM " + ident + " AS t"
	if limit > 0 {
		return sql + " LIMIT $1", []any{limit}
	}
	return sql, nil
}

// normalize converts driver values into the shapes the JSON decoder would
// have produced for the same row over REST.
func normalize(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String()
	case pgtype.Numeric:
		if !t.Valid {
			return nil
		}
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case []byte:
		return string(t)
	default:
		return v
	}
}
