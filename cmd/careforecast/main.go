package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/chrissnell/careforecast/internal/forecast"
	"github.com/chrissnell/careforecast/internal/log"
	"github.com/chrissnell/careforecast/internal/snapshot"
	"github.com/chrissnell/careforecast/pkg/config"
	"github.com/chrissnell/careforecast/pkg/responseformat"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// overrides collects repeated -set path=value flags
type overrides []string

func (o *overrides) String() string { return strings.Join(*o, ",") }

func (o *overrides) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected path=value, got %q", v)
	}
	*o = append(*o, v)
	return nil
}

// snapshotPaths collects repeated -snapshot flags
type snapshotPaths []string

func (p *snapshotPaths) String() string { return strings.Join(*p, ",") }

func (p *snapshotPaths) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	var sets overrides
	var snapshotFiles snapshotPaths

	cfgFile := flag.String("config", "", "Path to configuration source:\n\t\t\t  YAML: careforecast.yaml\n\t\t\t  SQLite: careforecast.db\n\t\t\t  Stock tunables are used when empty")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	flag.Var(&snapshotFiles, "snapshot", "Plant snapshot to forecast (JSON, or YAML by .yaml/.yml extension). Repeat to forecast a collection")
	partners := flag.Bool("partners", false, "Forecast as a collection and pair up plants for cross-pollination, even with a single snapshot")
	outFormat := flag.String("format", "json", "Output format: 'json' or 'msgpack'")
	nowFlag := flag.String("now", "", "Forecast as of this date or RFC 3339 time instead of the current time")
	flag.Var(&sets, "set", "Store a tunable override in the SQLite config, e.g. -set forecast.watering.ewma_alpha=0.4 (repeatable)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("careforecast %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if len(sets) > 0 {
		if err := storeOverrides(*cfgFile, *cfgBackend, sets); err != nil {
			log.Fatalf("Failed to store tunables: %v", err)
		}
		if len(snapshotFiles) == 0 {
			return
		}
	}

	if len(snapshotFiles) == 0 {
		log.Fatalf("No snapshot given. Pass -snapshot or run with -h for help")
	}

	format, err := responseformat.ParseFormat(*outFormat)
	if err != nil {
		log.Fatalf("%v", err)
	}

	now := time.Now().UTC()
	if *nowFlag != "" {
		if now, err = snapshot.ParseDate(*nowFlag); err != nil {
			log.Fatalf("Invalid -now: %v", err)
		}
	}

	// Load configuration
	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	orchestrator, err := forecast.New(cfgData.Forecast, log.Named("forecast"))
	if err != nil {
		log.Fatalf("Failed to build predictors: %v", err)
	}

	decoder, err := snapshot.NewDecoder(cfgData.Snapshot, log.Named("snapshot"))
	if err != nil {
		log.Fatalf("Failed to build snapshot decoder: %v", err)
	}

	snapshots := make([]forecast.Snapshot, 0, len(snapshotFiles))
	for _, path := range snapshotFiles {
		s, err := decoder.DecodeFile(path, now)
		if err != nil {
			log.Fatalf("Failed to read snapshot %s: %v", path, err)
		}
		snapshots = append(snapshots, s)
	}

	envelope := responseformat.NewEnvelope(forecastData(orchestrator, snapshots, *partners, now), now)
	if err := responseformat.NewFormatter(format == responseformat.FormatJSON).Write(os.Stdout, format, envelope); err != nil {
		log.Fatalf("Failed to write forecast: %v", err)
	}
}

// forecastData predicts a single plant, or the whole collection with its
// pollination partners when there are several snapshots or partners is set
func forecastData(o *forecast.Orchestrator, snapshots []forecast.Snapshot, partners bool, now time.Time) any {
	if len(snapshots) == 1 && !partners {
		bundle := o.Predict(snapshots[0], now)
		log.Infow("forecast complete",
			"plant", bundle.PlantID,
			"confidence", bundle.Metadata.ModelConfidence,
			"status", bundle.Metadata.PredictorStatus,
		)
		return bundle
	}

	collection := o.PredictCollection(snapshots, now)
	log.Infow("collection forecast complete",
		"plants", len(collection.Plants),
		"partners", len(collection.Partners),
		"status", collection.Status,
	)
	return collection
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	if cfgFile == "" {
		return config.DefaultConfigData(), nil
	}

	provider, err := openProvider(cfgFile, cfgBackend)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}

func openProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		if err := provider.InitSchema(); err != nil {
			provider.Close()
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}

func storeOverrides(cfgFile, cfgBackend string, sets overrides) error {
	if cfgFile == "" || cfgBackend != "sqlite" {
		return fmt.Errorf("-set needs -config-backend sqlite and a -config database")
	}

	provider, err := openProvider(cfgFile, cfgBackend)
	if err != nil {
		return err
	}
	defer provider.Close()

	db := provider.(*config.SQLiteProvider)
	for _, s := range sets {
		path, value, _ := strings.Cut(s, "=")
		if err := db.SetTunable(strings.TrimSpace(path), value); err != nil {
			return err
		}
		log.Infow("stored tunable", "path", path, "value", value)
	}
	return nil
}
