/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolve provides the resolve command for yevu.
package resolve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/yevu/config"
	"bennypowers.dev/yevu/fs"
	"bennypowers.dev/yevu/resolver"
)

// Cmd is the resolve cobra command.
var Cmd = &cobra.Command{
	Use:   "resolve <specifier> [specifiers...]",
	Short: "Resolve module specifiers to loadable files",
	Long: `Resolve one or more module specifiers, downloading and caching remote
packages as needed, and print the resolved identity of each.

Examples:
  # Resolve a relative import against a parent module
  yevu resolve ./util.ts --parent src/main.ts

  # Resolve a JSR package and print the cached file path
  yevu resolve jsr:@std/assert --local

  # Resolve a bare npm package
  yevu resolve lodash`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("parent", "p", "", "Parent module the specifiers are imported from")
	Cmd.Flags().BoolP("local", "l", false, "Print local file paths instead of identities")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")

	viper.BindPFlag("parent", Cmd.Flags().Lookup("parent"))
}

type result struct {
	Specifier string `json:"specifier"`
	Identity  string `json:"identity"`
	LocalPath string `json:"localPath,omitempty"`
	Error     string `json:"error,omitempty"`
}

func run(cmd *cobra.Command, args []string) error {
	local, _ := cmd.Flags().GetBool("local")
	format, _ := cmd.Flags().GetString("format")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	silent, _ := cmd.Flags().GetBool("silent")
	parent := viper.GetString("parent")

	filesystem := fs.NewOSFileSystem()

	cwd, err := filesystem.Getwd()
	if err != nil {
		return fmt.Errorf("error reading working directory: %w", err)
	}

	cfg := config.LoadOrDefault(filesystem, cwd)
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if silent {
		cfg.Silent = true
	}

	if parent != "" && !filepath.IsAbs(parent) {
		parent = filepath.Join(cwd, parent)
	}

	r := resolver.New(cfg, resolver.WithFileSystem(filesystem))

	results := make([]result, 0, len(args))
	failed := false
	for _, spec := range args {
		res := result{Specifier: spec}

		identity, err := r.Resolve(spec, parent)
		if err != nil {
			res.Error = err.Error()
			failed = true
			results = append(results, res)
			continue
		}
		res.Identity = identity

		if local {
			p, err := r.LocalPath(identity)
			if err != nil {
				res.Error = err.Error()
				failed = true
			} else {
				res.LocalPath = p
			}
		}
		results = append(results, res)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	default:
		for _, res := range results {
			if res.Error != "" {
				fmt.Fprintf(os.Stderr, "Error resolving %s: %s\n", res.Specifier, res.Error)
				continue
			}
			if local {
				fmt.Println(res.LocalPath)
			} else {
				fmt.Println(res.Identity)
			}
		}
	}

	if failed {
		return fmt.Errorf("some specifiers failed to resolve")
	}
	return nil
}
