package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"unimerch_back_end/internal/config"
	"unimerch_back_end/internal/models"
)

const auditTable = `CREATE TABLE IF NOT EXISTS audit_logs (
	day date,
	ts timestamp,
	id uuid,
	user_id text,
	action text,
	resource text,
	resource_id text,
	old_value text,
	new_value text,
	ip_address text,
	user_agent text,
	success boolean,
	error_msg text,
	PRIMARY KEY ((day), ts, id)
) WITH CLUSTERING ORDER BY (ts DESC, id ASC)`

// auditLookbackDays bounds how many daily partitions Recent walks.
const auditLookbackDays = 7

// ScyllaAudit stores audit entries in ScyllaDB, one partition per day.
type ScyllaAudit struct {
	session *gocql.Session
	now     func() time.Time
}

func newScyllaCluster(cfg config.ScyllaConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 4
	cluster.ReconnectInterval = time.Second
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	if cfg.SSLEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.CACertPath,
			EnableHostVerification: true,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// NewScyllaAudit connects to the keyspace and creates the table if needed.
func NewScyllaAudit(cfg config.ScyllaConfig) (*ScyllaAudit, error) {
	session, err := newScyllaCluster(cfg).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("scylla session for %s: %w", cfg.Keyspace, err)
	}
	if err := session.Query(auditTable).Exec(); err != nil {
		session.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	log.Printf("✅ ScyllaDB audit log ready (keyspace '%s')", cfg.Keyspace)
	return &ScyllaAudit{session: session, now: time.Now}, nil
}

func (a *ScyllaAudit) Record(ctx context.Context, e models.AuditLog) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = a.now()
	}
	return a.session.Query(
		`INSERT INTO audit_logs (day, ts, id, user_id, action, resource, resource_id,
			old_value, new_value, ip_address, user_agent, success, error_msg)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		auditDay(e.Timestamp), e.Timestamp, gocql.UUID(e.ID), e.UserID, e.Action, e.Resource, e.ResourceID,
		e.OldValue, e.NewValue, e.IPAddress, e.UserAgent, e.Success, e.ErrorMsg,
	).WithContext(ctx).Exec()
}

// Recent returns up to limit entries, newest first, from the last days.
func (a *ScyllaAudit) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	day := auditDay(a.now())
	for i := 0; i < auditLookbackDays && len(out) < limit; i++ {
		iter := a.session.Query(
			`SELECT ts, id, user_id, action, resource, resource_id, old_value, new_value,
				ip_address, user_agent, success, error_msg
			 FROM audit_logs WHERE day = ? LIMIT ?`,
			day, limit-len(out),
		).WithContext(ctx).Iter()

		var (
			e  models.AuditLog
			id gocql.UUID
		)
		for iter.Scan(&e.Timestamp, &id, &e.UserID, &e.Action, &e.Resource, &e.ResourceID, &e.OldValue,
			&e.NewValue, &e.IPAddress, &e.UserAgent, &e.Success, &e.ErrorMsg) {
			e.ID = uuid.UUID(id)
			out = append(out, e)
			e = models.AuditLog{}
		}
		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("read audit logs: %w", err)
		}
		day = day.AddDate(0, 0, -1)
	}
	return out, nil
}

func (a *ScyllaAudit) Ping(ctx context.Context) error {
	return a.session.Query("SELECT now() FROM system.local").WithContext(ctx).Exec()
}

func (a *ScyllaAudit) Close() {
	a.session.Close()
	log.Println("🔌 ScyllaDB session closed")
}

// auditDay is the partition key of t: midnight UTC.
func auditDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
