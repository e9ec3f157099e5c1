package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"lansweep/internal/api"
	"lansweep/internal/scan"
)

const usage = `lansweep - IPv4 subnet sweep service

Usage:
  lansweep serve [-listen addr] [-names]   Run the HTTP scan API.
  lansweep sweep -cidr range [flags]       Scan a range and print results.

Flags (sweep):
  -cidr string       IPv4 range in CIDR notation, e.g. 192.168.1.0/24
  -timeout duration  per-host probe timeout (default 300ms)
  -names             resolve extra names (mDNS/NetBIOS) and MAC vendors
  -json              print all records as JSON instead of a live-host table

Environment:
  LANSWEEP_LISTEN    listen address for serve mode (default :8080)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// A .env next to the binary quietly provides defaults.
	_ = godotenv.Load()

	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	switch args[0] {
	case "serve":
		return runServe(args[1:], log)
	case "sweep":
		return runSweep(args[1:], log)
	case "help", "--help", "-h":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runServe(args []string, log zerolog.Logger) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := flags.String("listen", getenv("LANSWEEP_LISTEN", ":8080"), "listen address")
	names := flags.Bool("names", false, "resolve extra names and MAC vendors")
	if err := flags.Parse(args); err != nil {
		return err
	}

	store := scan.NewStore(0)
	defer store.Close()
	engine := scan.NewEngine(store, scan.Options{LookupNames: *names}, log)
	defer engine.Close()

	server := api.NewServer(engine, log)
	log.Info().Str("listen", *listen).Msg("starting scan API")
	return server.Router().Run(*listen)
}

func runSweep(args []string, log zerolog.Logger) error {
	flags := flag.NewFlagSet("sweep", flag.ContinueOnError)
	cidr := flags.String("cidr", "", "IPv4 range in CIDR notation")
	timeout := flags.Duration("timeout", scan.DefaultTimeout, "per-host probe timeout")
	names := flags.Bool("names", false, "resolve extra names and MAC vendors")
	jsonOut := flags.Bool("json", false, "print records as JSON")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *cidr == "" {
		return errors.New("sweep requires -cidr")
	}

	store := scan.NewStore(0)
	defer store.Close()
	engine := scan.NewEngine(store, scan.Options{LookupNames: *names}, log)
	defer engine.Close()

	id := engine.Start(*cidr, *timeout)
	progress := waitForScan(engine, id)
	return printRecords(os.Stdout, progress.Records, *jsonOut)
}

func waitForScan(engine *scan.Engine, id string) scan.JobProgress {
	for {
		progress, err := engine.Progress(id)
		if err != nil || progress.Finished {
			return progress
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func printRecords(w io.Writer, records []scan.DeviceRecord, asJSON bool) error {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Address < records[j].Address
	})

	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	alive := 0
	for _, rec := range records {
		if !rec.Reachable {
			continue
		}
		alive++
		line := fmt.Sprintf("%-15s  %4dms  %s", rec.Address, rec.LatencyMs, rec.Hostname)
		if rec.Manufacturer != "" {
			line += "  (" + rec.Manufacturer + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d of %d hosts answered\n", alive, len(records))
	return nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
