// Command mailward verifies a list of email addresses and writes the
// results to CSV. Input is a plain text file with one address per line
// or a CSV whose first column holds the addresses.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mailward/mailward"
	"github.com/mailward/mailward/config"
	"github.com/mailward/mailward/internal/logger"
)

func main() {
	configDir := flag.String("config", "", "directory containing config.yaml (optional)")
	output := flag.String("output", "", "output CSV path (overrides config)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: mailward [-config dir] [-output file] <addresses-file>\n")
		os.Exit(2)
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	outputFile := cfg.Batch.OutputFile
	if *output != "" {
		outputFile = *output
	}

	log := logger.New(cfg.Logging.Level)

	addresses, err := readAddresses(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Str("file", flag.Arg(0)).Msg("failed to read addresses")
	}
	if len(addresses) == 0 {
		log.Fatal().Str("file", flag.Arg(0)).Msg("no addresses found")
	}

	verifier, err := mailward.New(cfg.Options())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create verifier")
	}

	checkpoints := 0
	verifier.OnCheckpoint = func(results []mailward.Result) {
		checkpoints++
		path := checkpointPath(outputFile, checkpoints)
		if err := writeCSV(path, results); err != nil {
			log.Error().Err(err).Str("file", path).Msg("failed to write checkpoint")
			return
		}
		log.Info().Str("file", path).Int("results", len(results)).Msg("checkpoint written")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := verifier.ValidateBatch(ctx, addresses,
		func(current string, processed, total int, percent float64, eta *float64) {
			ev := log.Info().
				Str("email", current).
				Int("processed", processed).
				Int("total", total).
				Float64("percent", percent)
			if eta != nil {
				ev = ev.Float64("eta_seconds", *eta)
			}
			ev.Msg("progress")
		})
	if err != nil && len(results) == 0 {
		log.Fatal().Err(err).Msg("batch failed")
	}
	if err != nil {
		log.Warn().Err(err).Int("results", len(results)).Msg("batch interrupted, writing partial results")
	}

	if err := writeCSV(outputFile, results); err != nil {
		log.Fatal().Err(err).Str("file", outputFile).Msg("failed to write results")
	}
	log.Info().Str("file", outputFile).Int("results", len(results)).Msg("results written")
}

// readAddresses loads one address per line; lines containing commas
// are treated as CSV rows with the address in the first column.
func readAddresses(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var addresses []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if i := strings.Index(line, ","); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		line = strings.Trim(line, `"`)
		if line == "" || strings.EqualFold(line, "email") {
			continue
		}
		addresses = append(addresses, line)
	}
	return addresses, scanner.Err()
}

func checkpointPath(outputFile string, n int) string {
	base := strings.TrimSuffix(outputFile, ".csv")
	return fmt.Sprintf("%s.checkpoint-%d.csv", base, n)
}

var csvHeader = []string{
	"Email", "LocalPart", "Domain", "Valid", "Correct", "Reliability",
	"Disposable", "DnsMxOk", "SmtpConnected", "EmailActive", "Deliverable",
	"CatchAll", "MailboxFull", "RoleAccount", "ElapsedSeconds", "Attempts",
	"MxRecords",
}

func writeCSV(path string, results []mailward.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Email, r.LocalPart, r.Domain,
			yesNo(r.Valid), yesNo(r.Correct), string(r.Reliability),
			string(r.Disposable), string(r.DnsMxOk), string(r.SmtpConnected),
			string(r.EmailActive), string(r.Deliverable), string(r.CatchAll),
			string(r.MailboxFull), string(r.RoleAccount),
			strconv.FormatFloat(r.ElapsedSeconds, 'f', 2, 64),
			strconv.Itoa(r.Attempts),
			r.MxRecords,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
