package scylla

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

var keyspacePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Options describe how to reach the cluster.
type Options struct {
	Hosts             []string
	Keyspace          string
	Username          string
	Password          string
	Consistency       string
	Timeout           time.Duration
	ReplicationFactor int
}

// NewSession ensures schema exists and returns a connected Scylla session.
func NewSession(ctx context.Context, opts Options, logger *slog.Logger) (*gocql.Session, error) {
	if !keyspacePattern.MatchString(opts.Keyspace) {
		return nil, fmt.Errorf("scylla: invalid keyspace name: %s", opts.Keyspace)
	}
	consistency, err := parseConsistency(opts.Consistency)
	if err != nil {
		return nil, err
	}

	baseSession, err := newCluster(opts, consistency, "").CreateSession()
	if err != nil {
		return nil, fmt.Errorf("scylla: connect: %w", err)
	}
	defer baseSession.Close()
	if err := exec(ctx, baseSession, keyspaceCQL(opts.Keyspace, opts.ReplicationFactor)); err != nil {
		return nil, fmt.Errorf("scylla: create keyspace: %w", err)
	}

	session, err := newCluster(opts, consistency, opts.Keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("scylla: connect to keyspace %s: %w", opts.Keyspace, err)
	}
	for _, stmt := range tableCQL(opts.Keyspace) {
		if err := exec(ctx, session, stmt); err != nil {
			session.Close()
			return nil, fmt.Errorf("scylla: ensure schema: %w", err)
		}
	}
	if logger != nil {
		logger.Info("scylla connected", "hosts", opts.Hosts, "keyspace", opts.Keyspace)
	}
	return session, nil
}

func newCluster(opts Options, consistency gocql.Consistency, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(opts.Hosts...)
	if opts.Timeout > 0 {
		cluster.Timeout = opts.Timeout
		cluster.ConnectTimeout = opts.Timeout
	}
	cluster.Keyspace = keyspace
	cluster.Consistency = consistency
	cluster.SerialConsistency = gocql.LocalSerial
	if opts.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: opts.Username,
			Password: opts.Password,
		}
	}
	return cluster
}

func parseConsistency(raw string) (gocql.Consistency, error) {
	if strings.TrimSpace(raw) == "" {
		return gocql.Quorum, nil
	}
	c, err := gocql.ParseConsistencyWrapper(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("scylla: consistency %q: %w", raw, err)
	}
	return c, nil
}

func exec(ctx context.Context, session *gocql.Session, stmt string) error {
	return session.Query(stmt).WithContext(ctx).Exec()
}

func keyspaceCQL(keyspace string, rf int) string {
	if rf <= 0 {
		rf = 1
	}
	return fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		keyspace, rf,
	)
}

// tableCQL lists the schema. chats_by_pair and deals carry the uniqueness
// guarantees through lightweight transactions.
func tableCQL(keyspace string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.chats (
	id text PRIMARY KEY,
	listing_id text,
	seller_id text,
	buyer_id text,
	created_at timestamp
)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.chats_by_pair (
	listing_id text,
	buyer_id text,
	chat_id text,
	PRIMARY KEY ((listing_id, buyer_id))
)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.chats_by_user (
	user_id text,
	created_at timestamp,
	chat_id text,
	PRIMARY KEY (user_id, created_at, chat_id)
) WITH CLUSTERING ORDER BY (created_at DESC, chat_id ASC)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.messages (
	chat_id text,
	created_at timestamp,
	message_id text,
	sender_id text,
	text text,
	media_url text,
	media_kind text,
	is_read boolean,
	PRIMARY KEY (chat_id, created_at, message_id)
) WITH CLUSTERING ORDER BY (created_at ASC, message_id ASC)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.deals (
	chat_id text PRIMARY KEY,
	deal_id text,
	listing_id text,
	buyer_id text,
	seller_id text,
	status text,
	created_at timestamp
)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.deals_by_user (
	user_id text,
	created_at timestamp,
	chat_id text,
	PRIMARY KEY (user_id, created_at, chat_id)
) WITH CLUSTERING ORDER BY (created_at DESC, chat_id ASC)`, keyspace),
	}
}
