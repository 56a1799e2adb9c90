/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmd provides CLI commands for yevu.
package cmd

import (
	"github.com/spf13/cobra"

	"bennypowers.dev/yevu/cmd/cache"
	"bennypowers.dev/yevu/cmd/resolve"
	"bennypowers.dev/yevu/cmd/version"
)

var rootCmd = &cobra.Command{
	Use:   "yevu",
	Short: "Resolve and fetch module dependencies",
	Long:  `yevu resolves module specifiers (relative, http(s), jsr:, npm bare names, node: builtins) to loadable files, fetching and caching remote packages as needed.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("cache-dir", "", "Override the dependency cache directory")
	rootCmd.PersistentFlags().Bool("silent", false, "Suppress log output")

	rootCmd.AddCommand(resolve.Cmd)
	rootCmd.AddCommand(cache.Cmd)
	rootCmd.AddCommand(version.Cmd)
}
