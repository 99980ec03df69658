package driver

import (
	"flag"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"

	"github.com/grafana/cqlcursor/pkg/cassandra"
	"github.com/grafana/cqlcursor/pkg/session"
)

// Config is everything needed to open a Statement's session.
type Config struct {
	Cassandra cassandra.Config `yaml:"cassandra"`
	Session   session.Config   `yaml:"session"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.Cassandra.RegisterFlags(f)
	cfg.Session.RegisterFlags(f)
}

// Validate the config.
func (cfg *Config) Validate() error {
	return cfg.Cassandra.Validate()
}

// ParseDSN parses a data source name of the form
//
//	host1,host2[:port]/keyspace?compression=true&consistency=one&timeout=2s
//
// Parameters not present keep their flag defaults.
func ParseDSN(dsn string) (Config, error) {
	var cfg Config
	flagext.DefaultValues(&cfg)

	hosts, rest, _ := strings.Cut(dsn, "/")
	keyspace, rawQuery, _ := strings.Cut(rest, "?")
	if hosts == "" {
		return cfg, errors.New("dsn: no hosts")
	}
	if err := cfg.Cassandra.Addresses.Set(hosts); err != nil {
		return cfg, errors.Wrap(err, "dsn: hosts")
	}
	cfg.Session.Keyspace = keyspace

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return cfg, errors.Wrap(err, "dsn: parameters")
	}
	for name, values := range params {
		value := values[len(values)-1]
		if err := cfg.set(name, value); err != nil {
			return cfg, errors.Wrapf(err, "dsn: parameter %s", name)
		}
	}
	return cfg, cfg.Validate()
}

func (cfg *Config) set(name, value string) error {
	var err error
	switch name {
	case "compression":
		cfg.Session.Compression, err = strconv.ParseBool(value)
	case "schema_cache_size":
		cfg.Session.SchemaCacheSize, err = strconv.Atoi(value)
	case "port":
		cfg.Cassandra.Port, err = strconv.Atoi(value)
	case "consistency":
		cfg.Cassandra.Consistency = value
	case "timeout":
		cfg.Cassandra.Timeout, err = time.ParseDuration(value)
	case "connect_timeout":
		cfg.Cassandra.ConnectTimeout, err = time.ParseDuration(value)
	case "proto_version":
		cfg.Cassandra.ProtoVersion, err = strconv.Atoi(value)
	case "disable_initial_host_lookup":
		cfg.Cassandra.DisableInitialHostLookup, err = strconv.ParseBool(value)
	case "ssl":
		cfg.Cassandra.SSL, err = strconv.ParseBool(value)
	case "host_verification":
		cfg.Cassandra.HostVerification, err = strconv.ParseBool(value)
	case "ca_path":
		cfg.Cassandra.CAPath = value
	case "username":
		cfg.Cassandra.Auth = true
		cfg.Cassandra.Username = value
	case "password":
		err = cfg.Cassandra.Password.Set(value)
	default:
		return errors.New("unknown parameter")
	}
	return err
}
