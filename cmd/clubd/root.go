package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const profileFile = "client.json"

// EnvReplacer replaces `-` to `_`.
// This is used to map flag like `--my-param` to environment variables like `MY_PARAM`.
var envReplacer = strings.NewReplacer("-", "_")

func init() {
	viper.SetEnvPrefix("CLUBD")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(envReplacer)
	viper.SetDefault(urlFlagName, defaultUrl)
}

// loadProfile merges the client profile stored in the datadir, if any, with
// the flags given to the command. Flags win over the profile.
func loadProfile(ctx *cli.Context) error {
	viper.SetConfigFile(filepath.Join(ctx.String(datadirFlagName), profileFile))
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return fmt.Errorf("failed to read client profile: %w", err)
		}
	}
	for _, name := range []string{urlFlagName, requesterFlagName} {
		if ctx.IsSet(name) {
			viper.Set(name, ctx.String(name))
		}
	}
	return nil
}

func saveProfile(ctx *cli.Context) error {
	if err := makeDirectoryIfNotExists(ctx.String(datadirFlagName)); err != nil {
		return err
	}
	return viper.WriteConfigAs(filepath.Join(ctx.String(datadirFlagName), profileFile))
}

func serverUrl() string {
	return strings.TrimSuffix(viper.GetString(urlFlagName), "/")
}

func requester() string {
	return viper.GetString(requesterFlagName)
}
