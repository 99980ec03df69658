// Package session owns the connection to a single node and the keyspace
// state that queries run against.
package session

import (
	"context"
	"errors"
	"flag"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/cqlcursor/pkg/cqlerr"
	"github.com/grafana/cqlcursor/pkg/resultset"
	"github.com/grafana/cqlcursor/pkg/schema"
)

const defaultSchemaCacheSize = 16

// Config for a Session.
type Config struct {
	Keyspace        string `yaml:"keyspace"`
	Compression     bool   `yaml:"compression"`
	SchemaCacheSize int    `yaml:"schema_cache_size"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("session.", f)
}

// RegisterFlagsWithPrefix adds the flags required to config this to the given FlagSet, with prefix.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Keyspace, prefix+"keyspace", "", "Keyspace selected when the session is opened.")
	f.BoolVar(&cfg.Compression, prefix+"compression", false, "Request compressed responses.")
	f.IntVar(&cfg.SchemaCacheSize, prefix+"schema-cache-size", defaultSchemaCacheSize, "Number of keyspace schemas cached per session.")
}

type schemaKey struct {
	generation uint64
	keyspace   string
}

// Session drives one Transport. It tracks the selected keyspace and caches
// keyspace schemas for the lifetime of the underlying connection.
//
// A Session is not safe for concurrent use.
type Session struct {
	cfg       Config
	transport Transport
	logger    log.Logger
	metrics   *metrics

	keyspace    string
	hasKeyspace bool

	// generation counts physical opens of the transport.
	generation uint64
	schemas    *lru.Cache[schemaKey, *schema.Keyspace]
}

// New returns a Session over transport. The transport is opened lazily.
func New(cfg Config, transport Transport, logger log.Logger, reg prometheus.Registerer) (*Session, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	size := cfg.SchemaCacheSize
	if size <= 0 {
		size = defaultSchemaCacheSize
	}
	schemas, err := lru.New[schemaKey, *schema.Keyspace](size)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:       cfg,
		transport: transport,
		logger:    log.With(logger, "component", "session"),
		metrics:   newMetrics(reg),
		schemas:   schemas,
	}, nil
}

// ActiveKeyspace returns the keyspace queries currently run against.
func (s *Session) ActiveKeyspace() (string, bool) {
	return s.keyspace, s.hasKeyspace
}

// Compression reports whether the session requests compressed responses.
func (s *Session) Compression() bool {
	return s.cfg.Compression
}

// Open connects the transport if it is not already connected.
func (s *Session) Open(ctx context.Context) error {
	return s.metrics.instrument(ctx, "open", s.open)
}

func (s *Session) open(ctx context.Context) error {
	if !s.transport.IsOpen() {
		if err := s.transport.Open(ctx); err != nil {
			var perr *cqlerr.ProtocolError
			if !errors.As(err, &perr) {
				err = cqlerr.NewProtocolError(cqlerr.CondTransport, "%v", err)
			}
			return err
		}
		s.generation++
		s.schemas.Purge()
		level.Debug(s.logger).Log("msg", "transport opened", "generation", s.generation)
	}

	// The configured keyspace is selected once, before the first query.
	if s.cfg.Keyspace != "" && !s.hasKeyspace {
		return s.switchKeyspace(ctx, s.cfg.Keyspace)
	}
	return nil
}

// switchKeyspace selects keyspace if it is not already selected. The active
// keyspace is only recorded once the transport accepted the switch.
func (s *Session) switchKeyspace(ctx context.Context, keyspace string) error {
	if s.hasKeyspace && s.keyspace == keyspace {
		return nil
	}
	if err := s.transport.UseKeyspace(ctx, keyspace); err != nil {
		return err
	}
	level.Debug(s.logger).Log("msg", "switched keyspace", "from", s.keyspace, "to", keyspace)
	s.metrics.keyspaceSwitches.Inc()
	s.keyspace, s.hasKeyspace = keyspace, true
	s.schemas.Purge()
	return nil
}

// Execute runs query and returns its rows. A leading `USE <keyspace>` clause
// switches keyspace first; a bare USE statement returns an empty ResultSet.
// Failures are returned as *cqlerr.Error and no rows are returned with them.
func (s *Session) Execute(ctx context.Context, query string, compression bool) (*resultset.ResultSet, error) {
	var rs *resultset.ResultSet
	err := s.metrics.instrument(ctx, "execute", func(ctx context.Context) error {
		var err error
		rs, err = s.execute(ctx, query, compression)
		return err
	})
	if err != nil {
		cerr := cqlerr.Classify(err)
		level.Warn(s.logger).Log("msg", "query failed", "kind", cerr.Kind, "err", cerr.Message)
		return nil, err
	}
	return rs, nil
}

func (s *Session) execute(ctx context.Context, query string, compression bool) (*resultset.ResultSet, error) {
	if err := s.open(ctx); err != nil {
		return nil, err
	}

	if keyspace, rest, ok := ParseKeyspace(query); ok {
		if err := s.switchKeyspace(ctx, keyspace); err != nil {
			return nil, err
		}
		if rest == "" {
			return resultset.Empty(), nil
		}
		query = rest
	}

	rows, err := s.transport.ExecuteQuery(ctx, query, compression)
	if err != nil {
		return nil, err
	}
	level.Debug(s.logger).Log("msg", "query executed", "keyspace", s.keyspace, "rows", len(rows))
	return resultset.New(rows), nil
}

// DescribeKeyspace returns the schema of keyspace. Schemas are cached until the
// keyspace changes or the transport is reopened.
func (s *Session) DescribeKeyspace(ctx context.Context, keyspace string) (*schema.Keyspace, error) {
	var ks *schema.Keyspace
	err := s.metrics.instrument(ctx, "describe_keyspace", func(ctx context.Context) error {
		var err error
		ks, err = s.describeKeyspace(ctx, keyspace)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ks, nil
}

func (s *Session) describeKeyspace(ctx context.Context, keyspace string) (*schema.Keyspace, error) {
	if err := s.open(ctx); err != nil {
		return nil, err
	}
	key := schemaKey{generation: s.generation, keyspace: keyspace}
	if ks, ok := s.schemas.Get(key); ok {
		s.metrics.schemaCache.WithLabelValues("hit").Inc()
		return ks, nil
	}
	s.metrics.schemaCache.WithLabelValues("miss").Inc()

	ks, err := s.transport.DescribeKeyspace(ctx, keyspace)
	if err != nil {
		return nil, err
	}
	s.schemas.Add(key, ks)
	return ks, nil
}

// Close releases the transport.
func (s *Session) Close() error {
	s.schemas.Purge()
	if err := s.transport.Close(); err != nil {
		return cqlerr.Classify(err)
	}
	return nil
}
