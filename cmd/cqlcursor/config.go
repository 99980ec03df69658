package main

import (
	"flag"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/gocql/gocql"

	"github.com/grafana/cqlcursor/pkg/cassandra"
	"github.com/grafana/cqlcursor/pkg/cfg"
	"github.com/grafana/cqlcursor/pkg/session"
	util_log "github.com/grafana/cqlcursor/pkg/util/log"
)

// Config is the configuration file layout.
type Config struct {
	Log       util_log.Config  `yaml:"log"`
	Cassandra cassandra.Config `yaml:"cassandra"`
	Session   session.Config   `yaml:"session"`
}

// RegisterFlags registers the defaults of every section.
func (c *Config) RegisterFlags(f *flag.FlagSet) {
	c.Log.RegisterFlags(f)
	c.Cassandra.RegisterFlags(f)
	c.Session.RegisterFlags(f)
}

// options are the flags shared by every command. Set flags override the
// config file.
type options struct {
	configFile  string
	expandEnv   bool
	addresses   string
	keyspace    string
	consistency string
	compression bool
	logLevel    string
}

func registerOptions(app *kingpin.Application) *options {
	o := &options{}
	app.Flag("config.file", "YAML file to load the configuration from.").StringVar(&o.configFile)
	app.Flag("config.expand-env", "Expand ${VAR} references in the config file.").BoolVar(&o.expandEnv)
	app.Flag("cassandra.addresses", "Comma-separated hostnames or IPs of Cassandra instances.").Envar("CASSANDRA_ADDRESSES").StringVar(&o.addresses)
	app.Flag("cassandra.consistency", "Consistency level for Cassandra.").StringVar(&o.consistency)
	app.Flag("keyspace", "Keyspace selected before the first query.").Short('k').StringVar(&o.keyspace)
	app.Flag("compression", "Request compressed responses.").BoolVar(&o.compression)
	app.Flag("log.level", "Only log messages with the given severity or above.").StringVar(&o.logLevel)
	return o
}

// overrides applies the flags that were set on the command line.
func (o *options) overrides() cfg.Source {
	return func(dst interface{}) error {
		c := dst.(*Config)
		if o.addresses != "" {
			if err := c.Cassandra.Addresses.Set(o.addresses); err != nil {
				return err
			}
		}
		if o.consistency != "" {
			c.Cassandra.Consistency = o.consistency
		}
		if o.keyspace != "" {
			c.Session.Keyspace = o.keyspace
		}
		if o.compression {
			c.Session.Compression = true
		}
		if o.logLevel != "" {
			return c.Log.Level.Set(o.logLevel)
		}
		return nil
	}
}

// load assembles the configuration and the process logger.
func (o *options) load() (Config, log.Logger, error) {
	var c Config
	err := cfg.Unmarshal(&c,
		cfg.Defaults(),
		cfg.YAMLFile(o.configFile, o.expandEnv),
		o.overrides(),
	)
	if err != nil {
		return c, nil, err
	}
	if err := c.Cassandra.Validate(); err != nil {
		return c, nil, err
	}
	logger, err := util_log.New(c.Log, os.Stderr)
	if err != nil {
		return c, nil, err
	}
	gocql.Logger = cassandra.NewGocqlLogger(logger)
	return c, logger, nil
}

// openSession builds a session over a gocql transport.
func openSession(c Config, logger log.Logger) (*session.Session, error) {
	transport, err := cassandra.NewTransport(c.Cassandra, c.Session.Compression, logger, nil)
	if err != nil {
		return nil, err
	}
	return session.New(c.Session, transport, logger, nil)
}

// withSession runs fn and closes s before returning, so callers may exit the
// process on the returned error.
func withSession(s *session.Session, fn func(*session.Session) error) error {
	err := fn(s)
	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}
