package device

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore serves device records from the central metadata database.
//
// Expected table shape:
//
//	devices(name text, ioc_type text, location_group text, metadata jsonb)
//
// where metadata holds the flat string fields (ioc_serial, ioc_channel,
// prefix, ...) keyed exactly as the schemas expect them.
type PGStore struct {
	pool *pgxpool.Pool
}

func OpenPG(ctx context.Context, databaseURL string) (*PGStore, error) {
	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	// Verify connectivity early.
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}

	return &PGStore{pool: p}, nil
}

func (s *PGStore) Search(ctx context.Context, locationGroup string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, ioc_type, metadata
		   FROM devices
		  WHERE location_group = $1
		  ORDER BY name`,
		locationGroup,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.Type, &rec.Metadata); err != nil {
			return nil, err
		}
		if rec.Metadata == nil {
			rec.Metadata = map[string]string{}
		}
		rec.Metadata["name"] = rec.Name
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
