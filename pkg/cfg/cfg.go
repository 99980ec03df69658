// Package cfg assembles a configuration from a sequence of sources, each one
// overriding what the previous ones set.
package cfg

import (
	"os"

	"github.com/drone/envsubst"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Source is a generic configuration source. It is passed a pointer to the
// destination, which may already hold data from previous sources.
type Source func(interface{}) error

// Unmarshal merges the values of the various configuration sources and sets them on
// `dst`. The object must be compatible with `yaml.Unmarshal`.
func Unmarshal(dst interface{}, sources ...Source) error {
	if len(sources) == 0 {
		panic("No sources supplied to cfg.Unmarshal(). This is most likely a programming issue and should never happen. Check the code!")
	}
	for _, source := range sources {
		if err := source(dst); err != nil {
			return errors.Wrap(err, "sourcing")
		}
	}
	return nil
}

// Defaults sets the flag defaults of dst, which must register its flags.
func Defaults() Source {
	return func(dst interface{}) error {
		r, ok := dst.(flagext.Registerer)
		if !ok {
			return errors.Errorf("%T does not register flags", dst)
		}
		flagext.DefaultValues(r)
		return nil
	}
}

// YAML decodes buf onto dst. Unknown fields are an error. With expandEnv set,
// ${VAR} references are replaced from the environment first.
func YAML(buf []byte, expandEnv bool) Source {
	return func(dst interface{}) error {
		data := buf
		if expandEnv {
			s, err := envsubst.EvalEnv(string(buf))
			if err != nil {
				return errors.Wrap(err, "expanding env")
			}
			data = []byte(s)
		}
		return errors.Wrap(yaml.UnmarshalStrict(data, dst), "parsing yaml")
	}
}

// YAMLFile is YAML over the contents of path. An empty path is skipped.
func YAMLFile(path string, expandEnv bool) Source {
	return func(dst interface{}) error {
		if path == "" {
			return nil
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "reading config file")
		}
		return YAML(buf, expandEnv)(dst)
	}
}
