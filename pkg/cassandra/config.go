package cassandra

import (
	"flag"
	"time"

	"github.com/gocql/gocql"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
)

// Config for a Transport.
type Config struct {
	Addresses                flagext.StringSliceCSV `yaml:"addresses"`
	Port                     int                    `yaml:"port"`
	Consistency              string                 `yaml:"consistency"`
	DisableInitialHostLookup bool                   `yaml:"disable_initial_host_lookup"`
	SSL                      bool                   `yaml:"SSL"`
	HostVerification         bool                   `yaml:"host_verification"`
	CAPath                   string                 `yaml:"CA_path"`
	Auth                     bool                   `yaml:"auth"`
	Username                 string                 `yaml:"username"`
	Password                 flagext.Secret         `yaml:"password"`
	Timeout                  time.Duration          `yaml:"timeout"`
	ConnectTimeout           time.Duration          `yaml:"connect_timeout"`
	ProtoVersion             int                    `yaml:"proto_version"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("cassandra.", f)
}

// RegisterFlagsWithPrefix adds the flags required to config this to the given FlagSet, with prefix.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.Var(&cfg.Addresses, prefix+"addresses", "Comma-separated hostnames or IPs of Cassandra instances.")
	f.IntVar(&cfg.Port, prefix+"port", 9042, "Port that Cassandra is running on")
	f.StringVar(&cfg.Consistency, prefix+"consistency", "QUORUM", "Consistency level for Cassandra.")
	f.BoolVar(&cfg.DisableInitialHostLookup, prefix+"disable-initial-host-lookup", false, "Instruct the cassandra driver to not attempt to get host info from the system.peers table.")
	f.BoolVar(&cfg.SSL, prefix+"ssl", false, "Use SSL when connecting to cassandra instances.")
	f.BoolVar(&cfg.HostVerification, prefix+"host-verification", true, "Require SSL certificate validation.")
	f.StringVar(&cfg.CAPath, prefix+"ca-path", "", "Path to certificate file to verify the peer.")
	f.BoolVar(&cfg.Auth, prefix+"auth", false, "Enable password authentication when connecting to cassandra.")
	f.StringVar(&cfg.Username, prefix+"username", "", "Username to use when connecting to cassandra.")
	f.Var(&cfg.Password, prefix+"password", "Password to use when connecting to cassandra.")
	f.DurationVar(&cfg.Timeout, prefix+"timeout", 2*time.Second, "Timeout when connecting to cassandra.")
	f.DurationVar(&cfg.ConnectTimeout, prefix+"connect-timeout", 5*time.Second, "Initial connection timeout, used during initial dial to server.")
	f.IntVar(&cfg.ProtoVersion, prefix+"proto-version", 0, "Native protocol version. 0 negotiates the highest version supported by the server.")
}

// Validate the config.
func (cfg *Config) Validate() error {
	if len(cfg.Addresses) == 0 {
		return errors.New("no cassandra addresses configured")
	}
	if _, err := gocql.ParseConsistencyWrapper(cfg.Consistency); err != nil {
		return errors.Wrap(err, "invalid consistency")
	}
	if cfg.Auth && cfg.Username == "" {
		return errors.New("password authentication requires a username")
	}
	return nil
}

// clusterConfig builds the gocql cluster config of one connection.
func (cfg *Config) clusterConfig(keyspace string, compression bool) (*gocql.ClusterConfig, error) {
	consistency, err := gocql.ParseConsistencyWrapper(cfg.Consistency)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cluster := gocql.NewCluster(cfg.Addresses...)
	cluster.Port = cfg.Port
	cluster.Keyspace = keyspace
	cluster.Consistency = consistency
	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.ProtoVersion = cfg.ProtoVersion
	cluster.DisableInitialHostLookup = cfg.DisableInitialHostLookup
	// One connection to one node; retries and pooling belong to the caller.
	cluster.NumConns = 1
	cluster.RetryPolicy = nil

	if compression {
		cluster.Compressor = &gocql.SnappyCompressor{}
	}
	if cfg.SSL {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.CAPath,
			EnableHostVerification: cfg.HostVerification,
		}
	}
	if cfg.Auth {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password.String(),
		}
	}
	return cluster, nil
}
