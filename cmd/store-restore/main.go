// Command store-restore loads a store-backup file into the configured
// sample store.  Samples are appended per source file so the ingest audit
// trail is rebuilt alongside the data.
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

// backupFile mirrors the shape store-backup writes.
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
	input := flag.String("input", "", "Backup file to restore (.json or .msgpack)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("store-restore %s\n", constants.Version)
		os.Exit(0)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "-input is required")
		flag.Usage()
		os.Exit(1)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	bf, err := readBackup(*input)
	if err != nil {
		log.Errorf("Failed to read backup: %v", err)
		os.Exit(1)
	}
	if len(bf.Samples) == 0 {
		log.Errorf("Backup contains no samples")
		os.Exit(1)
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

	// Group by originating file, keeping first-seen order, so each source
	// gets its own ingest record just as a live ingest would.
	groups := make(map[string]types.Table)
	var order []string
	for _, s := range bf.Samples {
		if _, ok := groups[s.SourcePath]; !ok {
			order = append(order, s.SourcePath)
		}
		groups[s.SourcePath] = append(groups[s.SourcePath], s)
	}

	restored := 0
	for _, src := range order {
		if err := store.Append(ctx, groups[src], src); err != nil {
			log.Errorf("Failed to restore samples from %s: %v", src, err)
			os.Exit(1)
		}
		restored += len(groups[src])
	}

	log.Infof("Restored %d samples across %d sources from %s (backup taken %s)",
		restored, len(order), *input, bf.CreatedAt.Format(time.RFC3339))
}

func readBackup(path string) (backupFile, error) {
	var bf backupFile

	f, err := os.Open(path)
	if err != nil {
		return bf, err
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".msgpack":
		dec := msgpack.NewDecoder(f)
		dec.SetCustomStructTag("json")
		err = dec.Decode(&bf)
	case ".json":
		err = json.NewDecoder(f).Decode(&bf)
	default:
		return bf, fmt.Errorf("cannot tell the backup format from extension %q", filepath.Ext(path))
	}
	return bf, err
}
