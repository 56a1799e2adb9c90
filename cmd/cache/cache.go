/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cache provides the cache command for yevu.
package cache

import (
	"fmt"

	"github.com/spf13/cobra"

	"bennypowers.dev/yevu/config"
	"bennypowers.dev/yevu/fs"
)

// Cmd is the cache cobra command.
var Cmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the dependency cache",
}

var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory path",
	RunE:  runDir,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached dependencies",
	RunE:  runClear,
}

func init() {
	Cmd.AddCommand(dirCmd)
	Cmd.AddCommand(clearCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, fs.FileSystem, error) {
	filesystem := fs.NewOSFileSystem()

	cwd, err := filesystem.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading working directory: %w", err)
	}

	cfg := config.LoadOrDefault(filesystem, cwd)
	if cacheDir, _ := cmd.Flags().GetString("cache-dir"); cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	return cfg, filesystem, nil
}

func runDir(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Println(cfg.CacheDir)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, filesystem, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !filesystem.Exists(cfg.CacheDir) {
		fmt.Printf("Cache directory %s is already empty\n", cfg.CacheDir)
		return nil
	}

	if err := filesystem.RemoveAll(cfg.CacheDir); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}

	fmt.Printf("Cleared %s\n", cfg.CacheDir)
	return nil
}
