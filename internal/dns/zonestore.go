package dns

import (
	"context"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the zone store needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ZoneStore writes blog records straight into the PowerDNS database
// (domains and records tables). The authoritative server picks them up
// without an API round trip.
type ZoneStore struct {
	db DB
}

func NewZoneStore(db DB) *ZoneStore {
	return &ZoneStore{db: db}
}

const defaultRecordTTL = 300

// ZoneID looks up a PowerDNS domain ID by zone name.
func (s *ZoneStore) ZoneID(ctx context.Context, zone string) (int, error) {
	var id int
	err := s.db.QueryRow(ctx, `SELECT id FROM domains WHERE name = $1`, zone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("lookup zone %s: %w", zone, err)
	}
	return id, nil
}

// EnsureZone returns the zone's domain ID, creating a NATIVE zone when none
// exists yet.
func (s *ZoneStore) EnsureZone(ctx context.Context, zone string) (int, error) {
	id, err := s.ZoneID(ctx, zone)
	if err == nil {
		return id, nil
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO domains (name, type) VALUES ($1, 'NATIVE') RETURNING id`, zone,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create zone %s: %w", zone, err)
	}
	return id, nil
}

// UpsertBlogRecord points fqdn at target inside the given zone. An IP target
// becomes an A record, anything else a CNAME. Existing records for the name
// are replaced.
func (s *ZoneStore) UpsertBlogRecord(ctx context.Context, zoneID int, fqdn, target string) error {
	recordType := "CNAME"
	if net.ParseIP(target) != nil {
		recordType = "A"
	}

	if _, err := s.db.Exec(ctx,
		`DELETE FROM records WHERE domain_id = $1 AND name = $2 AND type IN ('A', 'CNAME')`,
		zoneID, fqdn,
	); err != nil {
		return fmt.Errorf("clear records for %s: %w", fqdn, err)
	}

	if _, err := s.db.Exec(ctx,
		`INSERT INTO records (domain_id, name, type, content, ttl) VALUES ($1, $2, $3, $4, $5)`,
		zoneID, fqdn, recordType, target, defaultRecordTTL,
	); err != nil {
		return fmt.Errorf("write record for %s: %w", fqdn, err)
	}
	return nil
}

// DeleteBlogRecord removes the records for fqdn.
func (s *ZoneStore) DeleteBlogRecord(ctx context.Context, zoneID int, fqdn string) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM records WHERE domain_id = $1 AND name = $2`, zoneID, fqdn,
	); err != nil {
		return fmt.Errorf("delete records for %s: %w", fqdn, err)
	}
	return nil
}
