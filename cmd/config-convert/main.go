package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/careforecast/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <careforecast.yaml> -sqlite <careforecast.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Check if SQLite file already exists
	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	configData, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}

	tunables, err := config.Overrides(configData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error comparing against defaults: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d setting(s) that differ from the defaults\n", len(tunables))
	for _, t := range tunables {
		fmt.Printf("  %s = %s\n", t.Path, t.Value)
	}

	if *dryRun {
		fmt.Println("DRY RUN - No changes were made")
		return
	}

	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing database: %v\n", err)
			os.Exit(1)
		}
	}

	provider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite database: %v\n", err)
		os.Exit(1)
	}
	defer provider.Close()

	if err := provider.InitSchema(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing schema: %v\n", err)
		os.Exit(1)
	}

	n, err := provider.ImportTunables(configData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error storing tunables: %v\n", err)
		os.Exit(1)
	}

	// Reload to prove the database reproduces the YAML
	loaded, err := provider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error verifying SQLite configuration: %v\n", err)
		os.Exit(1)
	}
	reloaded, err := config.Overrides(loaded)
	if err != nil || len(reloaded) != n {
		fmt.Fprintf(os.Stderr, "Error verifying SQLite configuration: stored %d tunables, database yields %d (%v)\n", n, len(reloaded), err)
		os.Exit(1)
	}

	fmt.Printf("✓ Stored %d tunable(s) in %s\n", n, *sqliteFile)
}
