// Command store-backup dumps a time range of the sample store to a single
// portable file.  Paired with store-restore it also serves as the
// migration path between the SQLite and TimescaleDB backends.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chrissnell/cryo107/internal/app"
	"github.com/chrissnell/cryo107/internal/constants"
	"github.com/chrissnell/cryo107/internal/log"
	"github.com/chrissnell/cryo107/internal/types"
	"github.com/chrissnell/cryo107/pkg/config"
)

// backupFile is the on-disk shape shared with store-restore.
type backupFile struct {
	CreatedAt time.Time      `json:"created_at"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`
	Samples   []types.Sample `json:"samples"`
}

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	from := flag.String("from", "", "Start of the range to back up (default: everything)")
	to := flag.String("to", "", "End of the range to back up (default: now)")
	output := flag.String("output", "cryo107_backup", "Output file base name (extension added automatically)")
	format := flag.String("format", "json", "Backup format: json or msgpack")
	flag.Parse()

	if *showVersion {
		fmt.Printf("store-backup %s\n", constants.Version)
		os.Exit(0)
	}

	if *format != "json" && *format != "msgpack" {
		fmt.Fprintf(os.Stderr, "unknown format %q: want json or msgpack\n", *format)
		os.Exit(1)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	start := time.Time{} // zero time backs up from the beginning
	end := time.Now().UTC()
	var err error
	if *from != "" {
		if start, err = parseTime(*from); err != nil {
			log.Errorf("Bad -from value: %v", err)
			os.Exit(1)
		}
	}
	if *to != "" {
		if end, err = parseTime(*to); err != nil {
			log.Errorf("Bad -to value: %v", err)
			os.Exit(1)
		}
	}

	filename, _ := filepath.Abs(*cfgFile)
	application := app.New(config.NewYAMLProvider(filename), log.GetSugaredLogger())
	defer application.Close()

	ctx := context.Background()
	store, err := application.Store(ctx)
	if err != nil {
		log.Errorf("Failed to open sample store: %v", err)
		os.Exit(1)
	}

	table, err := store.FetchRange(ctx, start, end)
	if err != nil {
		log.Errorf("Failed to fetch samples: %v", err)
		os.Exit(1)
	}
	if len(table) == 0 {
		log.Errorf("No samples in the requested range, nothing to back up")
		os.Exit(1)
	}

	path := *output + "." + *format
	if err := writeBackup(path, *format, backupFile{
		CreatedAt: time.Now().UTC(),
		From:      start,
		To:        end,
		Samples:   table,
	}); err != nil {
		log.Errorf("Failed to write backup: %v", err)
		os.Exit(1)
	}

	log.Infof("Backed up %d samples to %s", len(table), path)
}

func writeBackup(path, format string, bf backupFile) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch format {
	case "msgpack":
		enc := msgpack.NewEncoder(f)
		enc.SetCustomStructTag("json")
		err = enc.Encode(bf)
	default:
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(bf)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a UTC time", s)
}
