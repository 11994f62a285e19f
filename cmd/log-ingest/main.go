package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/cryo107/internal/app"
	"github.com/chrissnell/cryo107/internal/constants"
	"github.com/chrissnell/cryo107/internal/log"
	"github.com/chrissnell/cryo107/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	list := flag.Bool("list", false, "List past ingests instead of ingesting")
	flag.Parse()

	if *showVersion {
		fmt.Printf("log-ingest %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	filename, _ := filepath.Abs(*cfgFile)
	application := app.New(config.NewYAMLProvider(filename), log.GetSugaredLogger())
	defer application.Close()

	ctx := context.Background()

	if *list {
		listIngests(ctx, application)
		return
	}

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: log-ingest [flags] file.csv [file.csv ...]")
		flag.Usage()
		os.Exit(1)
	}

	if err := application.IngestFiles(ctx, paths); err != nil {
		log.Errorf("Ingest finished with errors: %v", err)
		os.Exit(1)
	}
	log.Infof("Ingested %d files", len(paths))
}

func listIngests(ctx context.Context, application *app.App) {
	ingests, err := application.Ingests(ctx)
	if err != nil {
		log.Errorf("Failed to list ingests: %v", err)
		os.Exit(1)
	}

	if len(ingests) == 0 {
		fmt.Println("No files have been ingested yet.")
		return
	}

	fmt.Printf("%-36s | %-19s | %8s | %s\n", "ID", "Ingested (UTC)", "Rows", "File")
	fmt.Printf("-------------------------------------+---------------------+----------+------\n")
	for _, in := range ingests {
		fmt.Printf("%-36s | %-19s | %8d | %s\n",
			in.ID, in.IngestedAt.UTC().Format("2006-01-02 15:04:05"), in.Rows, in.Filepath)
	}
}
