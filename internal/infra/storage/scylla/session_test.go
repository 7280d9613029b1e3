package scylla

import (
	"strings"
	"testing"

	"github.com/gocql/gocql"
)

func TestParseConsistency(t *testing.T) {
	cases := []struct {
		raw     string
		want    gocql.Consistency
		wantErr bool
	}{
		{raw: "", want: gocql.Quorum},
		{raw: "quorum", want: gocql.Quorum},
		{raw: "LOCAL_QUORUM", want: gocql.LocalQuorum},
		{raw: "one", want: gocql.One},
		{raw: "most", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := parseConsistency(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %v err=%v", got, err)
			}
		})
	}
}

func TestSchemaUsesKeyspaceAndLWTTables(t *testing.T) {
	if got := keyspaceCQL("unimate", 0); !strings.Contains(got, "'replication_factor': 1") {
		t.Fatalf("replication factor should default to 1: %s", got)
	}
	stmts := strings.Join(tableCQL("unimate"), "\n")
	for _, table := range []string{"unimate.chats_by_pair", "unimate.messages", "unimate.deals", "unimate.deals_by_user"} {
		if !strings.Contains(stmts, table) {
			t.Fatalf("schema misses %s", table)
		}
	}
	if !keyspacePattern.MatchString("unimate_dev") || keyspacePattern.MatchString("bad-name;") {
		t.Fatalf("keyspace validation mismatch")
	}
}
