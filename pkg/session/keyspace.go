package session

import (
	"strings"

	"github.com/grafana/regexp"
)

// useRe matches a leading `USE <keyspace>` clause, optionally followed by a
// semicolon and the statement to run in that keyspace.
var useRe = regexp.MustCompile(`(?is)^\s*use\s+(?:"([^"]+)"|(\w+))\s*(?:;(.*))?$`)

// ParseKeyspace extracts the keyspace selected by a leading USE clause. rest is
// the remaining statement, empty for a bare USE. Unquoted names are folded to
// lower case the way Cassandra folds them.
func ParseKeyspace(query string) (keyspace, rest string, ok bool) {
	m := useRe.FindStringSubmatch(query)
	if m == nil {
		return "", "", false
	}
	keyspace = m[1]
	if keyspace == "" {
		keyspace = strings.ToLower(m[2])
	}
	rest = strings.TrimSpace(m[3])
	if strings.Trim(rest, "; \t\r\n") == "" {
		rest = ""
	}
	return keyspace, rest, true
}
