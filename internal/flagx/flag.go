// Package flagx holds small helpers for pulling a handful of bootstrap flags
// out of os.Args before the full flag set is parsed.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps only the flags named in allowedFlags together with their
// values. Both "-c conf.json" and "--config=conf.json" forms are recognised;
// a following token that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// Sources lists the files a process reads its settings from before flags.
type Sources struct {
	// JSON config file given with -c / -config.
	ConfigFile string
	// dotenv file given with -env; empty means the default ".env" lookup.
	EnvFile string
}

// SourceFlags extracts -c/-config and -env from args (usually os.Args[1:]).
// Everything else is ignored so the caller can parse its own flag set later.
func SourceFlags(args []string) Sources {
	var s Sources

	filtered := FilterArgs(args, []string{"-c", "-config", "--config", "-env", "--env"})

	fs := flag.NewFlagSet("sources", flag.ContinueOnError)
	fs.StringVar(&s.ConfigFile, "config", "", "Path to config file")
	fs.StringVar(&s.ConfigFile, "c", "", "Path to config file (short)")
	fs.StringVar(&s.EnvFile, "env", "", "Path to .env file")
	_ = fs.Parse(filtered)

	return s
}
