package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grafana/cqlcursor/pkg/session"
)

func TestParseKeyspace(t *testing.T) {
	for _, tc := range []struct {
		query    string
		keyspace string
		rest     string
		ok       bool
	}{
		{query: "USE events", keyspace: "events", ok: true},
		{query: "  use Events ;", keyspace: "events", ok: true},
		{query: `USE "MixedCase"`, keyspace: "MixedCase", ok: true},
		{query: "USE ks; SELECT * FROM t", keyspace: "ks", rest: "SELECT * FROM t", ok: true},
		{query: "use ks;\nSELECT *\nFROM t;", keyspace: "ks", rest: "SELECT *\nFROM t;", ok: true},
		{query: "USE ks;;", keyspace: "ks", ok: true},
		{query: "SELECT * FROM ks.t"},
		{query: "USER ks"},
		{query: "USE ks SELECT * FROM t"},
		{query: ""},
	} {
		t.Run(tc.query, func(t *testing.T) {
			keyspace, rest, ok := session.ParseKeyspace(tc.query)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.keyspace, keyspace)
			assert.Equal(t, tc.rest, rest)
		})
	}
}
