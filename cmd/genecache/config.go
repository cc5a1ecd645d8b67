package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKey is a setting that can be stored in the config file.
type configKey struct {
	name  string
	usage string
	parse func(string) (any, error)
}

var configKeys = []configKey{
	{"assembly", "Default genome assembly: GRCh37 or GRCh38", parseAssembly},
	{"cache.path", "DuckDB cache file", parseString},
	{"combine.ensembl_gtf", "GENCODE/Ensembl GTF file", parseString},
	{"combine.refseq_gtf", "RefSeq GTF file", parseString},
	{"combine.hgnc", "HGNC complete set TSV file", parseString},
	{"combine.gene_info", "NCBI gene_info files, comma-separated", parseList},
	{"query.workers", "Annotation workers, 0 for one per CPU", parseWorkers},
}

func lookupConfigKey(name string) (configKey, bool) {
	for _, k := range configKeys {
		if k.name == name {
			return k, true
		}
	}
	return configKey{}, false
}

func parseString(s string) (any, error) { return s, nil }

func parseList(s string) (any, error) {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

func parseAssembly(s string) (any, error) {
	switch strings.ToUpper(s) {
	case "GRCH37":
		return "GRCh37", nil
	case "GRCH38":
		return "GRCh38", nil
	}
	return nil, fmt.Errorf("unknown assembly %q: want GRCh37 or GRCh38", s)
}

func parseWorkers(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid worker count %q", s)
	}
	return n, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage genecache configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.genecache.yaml.",
		Example: `  genecache config                                        # show all config
  genecache config keys                                   # list settable keys
  genecache config set cache.path /data/genecache.duckdb  # use a shared cache
  genecache config set combine.gene_info a.gene_info,b.gene_info
  genecache config get cache.path`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(viper.GetViper(), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(viper.GetViper())
			if err != nil {
				return err
			}
			return runConfigSet(viper.GetViper(), cmd.OutOrStdout(), path, args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(viper.GetViper(), cmd.OutOrStdout(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List the configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigKeys(viper.GetViper(), cmd.OutOrStdout())
		},
	})

	return cmd
}

// configFilePath returns the file config changes are written to.
func configFilePath(v *viper.Viper) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	if used := v.ConfigFileUsed(); used != "" {
		return used, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".genecache.yaml"), nil
}

func runConfigShow(v *viper.Viper, out io.Writer) error {
	settings := v.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintln(out, "# No configuration set. Config file: ~/.genecache.yaml")
		return nil
	}

	b, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = out.Write(b)
	return err
}

func runConfigSet(v *viper.Viper, out io.Writer, path, key, value string) error {
	k, ok := lookupConfigKey(key)
	if !ok {
		return usageErrorf("unknown config key %q (see: genecache config keys)", key)
	}
	parsed, err := k.parse(value)
	if err != nil {
		return &usageError{err: err}
	}
	v.Set(key, parsed)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(out, "Set %s = %v in %s\n", key, parsed, path)
	return nil
}

func runConfigGet(v *viper.Viper, out io.Writer, key string) error {
	val := v.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(out, val)
	return nil
}

func runConfigKeys(v *viper.Viper, out io.Writer) error {
	for _, k := range configKeys {
		current := "-"
		if v.IsSet(k.name) {
			current = fmt.Sprint(v.Get(k.name))
		}
		if _, err := fmt.Fprintf(out, "%-22s %-50s %s\n", k.name, k.usage, current); err != nil {
			return err
		}
	}
	return nil
}
