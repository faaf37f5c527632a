package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/home-lang/pantry-sub012/pkg/installer"
)

// runLink registers the current directory under ~/.pantry/links/<name> so
// other projects can depend on it via "link:<name>" (spec §4.8). This is
// the companion command spec.md §4.8 refers to; the install engine core
// only consumes the registered symlink, never creates it itself.
func runLink(args []string) error {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	name := fs.String("name", "", "name to register under (defaults to the directory basename; package.json's name is not read)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	linkName := *name
	if linkName == "" {
		linkName = filepath.Base(cwd)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	linksDir := filepath.Join(homeDir, ".pantry", "links")
	if err := os.MkdirAll(linksDir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(linksDir, linkName)
	if err := installer.AtomicSymlink(cwd, dst); err != nil {
		return fmt.Errorf("registering link %s: %w", linkName, err)
	}
	fmt.Printf("linked %s -> %s\n", linkName, cwd)
	return nil
}
