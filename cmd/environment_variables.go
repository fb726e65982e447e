package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const (
	EnvironmentVariablePrefix = "ROSTER_"

	// fileSuffix is appended to an env var name to indicate its value is a
	// path to a file containing the flag value.
	fileSuffix = "_FILE"
)

// SetFlagsFromEnvVariables sets flags from env variables. Each flag can be set
// with an env variable whose name starts with `ROSTER_`, or with an env
// variable suffixed with `_FILE` whose value is the path of a file containing
// the flag value.
func SetFlagsFromEnvVariables(fs *pflag.FlagSet) (err error) {
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		envVar := flagToEnvVarName(f)
		if val, present := os.LookupEnv(envVar); present {
			err = fs.Set(f.Name, val)
			return
		}
		// flags with names ending in _file are skipped to avoid ambiguity
		// with env vars ending in _FILE_FILE.
		if strings.HasSuffix(envVar, fileSuffix) {
			return
		}
		if path, present := os.LookupEnv(envVar + fileSuffix); present {
			var contents []byte
			contents, err = os.ReadFile(path)
			if err != nil {
				err = fmt.Errorf("reading file for flag %s: %w", f.Name, err)
				return
			}
			err = fs.Set(f.Name, string(contents))
		}
	})
	return err
}

func flagToEnvVarName(f *pflag.Flag) string {
	return fmt.Sprintf("%s%s", EnvironmentVariablePrefix, strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_"))
}
