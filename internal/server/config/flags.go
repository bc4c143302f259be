package config

import (
	"flag"
	"fmt"
	"io"
)

type flagValues struct {
	configFile string
	set        map[string]string
}

// parseFlags reads the server flags from args.
//
// Supported flags:
//
//	-c, -config string   JSON config file
//	-a string            HTTP bind address (e.g. ":5000")
//	-storage string      storage backend: mongo, postgres or memory
//	-m string            MongoDB URI
//	-d string            PostgreSQL DSN
//	-s string            JWT HMAC secret
//	-t string            token lifetime ("7d", "12h", ...)
//
// Only explicitly given flags override earlier sources.
func parseFlags(args []string) (*flagValues, error) {
	fv := &flagValues{set: map[string]string{}}

	fs := flag.NewFlagSet("onboardkit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&fv.configFile, "config", "", "path to JSON config file")
	fs.StringVar(&fv.configFile, "c", "", "path to JSON config file (short)")
	fs.String("a", "", "address and port to run server")
	fs.String("storage", "", "storage backend (mongo, postgres, memory)")
	fs.String("m", "", "MongoDB URI")
	fs.String("d", "", "database DSN")
	fs.String("s", "", "JWT secret key")
	fs.String("t", "", "token lifetime")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		fv.set[f.Name] = f.Value.String()
	})

	return fv, nil
}

func (fv *flagValues) apply(cfg *Config) error {
	for name, v := range fv.set {
		switch name {
		case "a":
			cfg.HTTPAddr = v
		case "storage":
			cfg.StorageType = v
		case "m":
			cfg.MongoURI = v
		case "d":
			cfg.DatabaseDSN = v
		case "s":
			cfg.SecretKey = v
		case "t":
			d, err := ParseDuration(v)
			if err != nil {
				return fmt.Errorf("-t: %w", err)
			}
			cfg.TokenTTL = d
		}
	}
	return nil
}
