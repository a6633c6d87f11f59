package config

import (
	"flag"
	"io"

	"github.com/ai8future/sealedfield/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-s string     secret key
//	-k string     store driver (postgres, badger)
//	-d string     PostgreSQL DSN
//	-b string     Badger directory
//	-t duration   scan timeout (e.g. 10s)
//	-z int        compression threshold in bytes, 0 disables
//	-i bool       blind index
//	-n bool       dry run
//	-f string     look up entity.field=value instead of migrating
//	-l string     log level
//
// Arguments are first filtered to these flags with flagx.FilterArgs, so the
// -c/-config flag handled by parseJSON does not collide.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-s", "-k", "-d", "-b", "-t", "-z", "-i", "-n", "-f", "-l"})

	fs := flag.NewFlagSet("sealedfield", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.StoreDriver, "k", config.StoreDriver, "store driver (postgres, badger)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BadgerPath, "b", config.BadgerPath, "badger directory")
	fs.DurationVar(&config.ScanTimeout, "t", config.ScanTimeout, "scan timeout")
	fs.IntVar(&config.CompressionThreshold, "z", config.CompressionThreshold, "compression threshold in bytes")
	fs.BoolVar(&config.BlindIndex, "i", config.BlindIndex, "use blind indexes")
	fs.BoolVar(&config.DryRun, "n", config.DryRun, "dry run")
	fs.StringVar(&config.Lookup, "f", config.Lookup, "look up entity.field=value")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
