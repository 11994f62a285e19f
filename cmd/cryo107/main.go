package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chrissnell/cryo107/internal/app"
	"github.com/chrissnell/cryo107/internal/constants"
	"github.com/chrissnell/cryo107/internal/log"
	"github.com/chrissnell/cryo107/internal/segment"
	"github.com/chrissnell/cryo107/pkg/config"
	"github.com/chrissnell/cryo107/pkg/export"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	file := flag.String("file", "", "Segment a single 107 log file instead of the sample store")
	from := flag.String("from", "", "Start of the store range to segment ('2006-01-02' or '2006-01-02 15:04:05', UTC)")
	to := flag.String("to", "", "End of the store range to segment ('2006-01-02' or '2006-01-02 15:04:05', UTC)")
	exportDir := flag.String("export", "", "Directory to write per-phase files into (omit to only print the report)")
	format := flag.String("format", "json", "Export format: json, msgpack or csv")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cryo107 %s\n", constants.Version)
		os.Exit(0)
	}

	if *file == "" && (*from == "" || *to == "") {
		fmt.Fprintln(os.Stderr, "either -file or both -from and -to are required")
		flag.Usage()
		os.Exit(1)
	}
	if *file != "" && (*from != "" || *to != "") {
		fmt.Fprintln(os.Stderr, "-file and -from/-to are mutually exclusive")
		os.Exit(1)
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

	var res *segment.Result
	var err error
	if *file != "" {
		res, err = application.SegmentFile(*file)
	} else {
		res, err = segmentRange(application, *from, *to)
	}
	if err != nil {
		log.Errorf("Segmentation failed: %v", err)
		os.Exit(1)
	}

	printReport(res)

	if *exportDir != "" {
		f, err := export.ParseFormat(*format)
		if err != nil {
			log.Errorf("Bad export format: %v", err)
			os.Exit(1)
		}
		paths, err := export.New(f).Export(res, *exportDir)
		if err != nil {
			log.Errorf("Export failed: %v", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote %d phase files to %s\n", len(paths), *exportDir)
	}
}

func segmentRange(application *app.App, from, to string) (*segment.Result, error) {
	start, err := parseTime(from)
	if err != nil {
		return nil, fmt.Errorf("bad -from value: %w", err)
	}
	end, err := parseTime(to)
	if err != nil {
		return nil, fmt.Errorf("bad -to value: %w", err)
	}
	return application.SegmentRange(context.Background(), start, end)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a UTC time", s)
}

func printReport(res *segment.Result) {
	fmt.Printf("Phase Segmentation Report\n")
	fmt.Printf("=========================\n\n")

	stats := segment.SummarizeAll(res)
	if len(stats) == 0 {
		fmt.Printf("No phases found.\n")
		return
	}

	fmt.Printf("%-10s | %6s | %8s | %12s | %12s | %8s | %8s\n",
		"Phase", "Rows", "Hours", "50mK mean K", "50mK min K", "Set K", "Peak A")
	fmt.Printf("-----------+--------+----------+--------------+--------------+----------+---------\n")
	for _, s := range stats {
		fmt.Printf("%-10s | %6d | %8.2f | %12s | %12s | %8s | %8s\n",
			s.Name, s.Rows, s.Hours,
			formatStat(s.Temp50mK.Mean), formatStat(s.Temp50mK.Min),
			formatStat(s.Setpoint.Median), formatStat(s.Current.Max))
	}
}

// formatStat renders a channel statistic, with "-" standing in for phases
// that have no valid readings on that channel.
func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
