// Fastreadbench generates a flat directory of files and compares a naive
// sequential read against both fastread iterators.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/calvinalkan/fastread"
	"github.com/calvinalkan/fastread/internal/bench"
)

type benchFlags struct {
	dir       string
	files     int
	size      int
	batch     int
	workers   int
	buffer    int
	strict    bool
	repeat    int
	keep      bool
	out       string
	compare   bool
	failAbove float64
	logFormat string
	logLevel  string
}

func parseFlags() *benchFlags {
	flags := &benchFlags{}

	flag.StringVar(&flags.dir, "dir", "", "dataset directory (empty = temporary directory)")
	flag.IntVar(&flags.files, "files", 10000, "number of files to generate")
	flag.IntVar(&flags.size, "size", 4096, "bytes per generated file")
	flag.IntVar(&flags.batch, "batch", 5, "batch size for the batch iterator")
	flag.IntVar(&flags.workers, "workers", 0, "read worker count (0=auto)")
	flag.IntVar(&flags.buffer, "buffer", 0, "result buffer capacity (0=auto)")
	flag.BoolVar(&flags.strict, "strict", false, "deliver in listing order")
	flag.IntVar(&flags.repeat, "repeat", 1, "repeat every pass N times")
	flag.BoolVar(&flags.keep, "keep", false, "keep the generated dataset")
	flag.StringVar(&flags.out, "out", "", "optional JSONL output file to append one result per run")
	flag.BoolVar(&flags.compare, "compare", false, "compare against the previous result in -out")
	flag.Float64Var(&flags.failAbove, "fail-above", 0, "with -compare, exit 1 if any pass is more than PCT percent slower")
	flag.StringVar(&flags.logFormat, "log-format", "text", "log format: text | json")
	flag.StringVar(&flags.logLevel, "log-level", "info", "log level: debug | info | warn | error")

	return flags
}

func main() {
	flags := parseFlags()

	flag.Parse()

	os.Exit(run(flags))
}

func run(flags *benchFlags) int {
	logger, err := newLogger(flags.logFormat, flags.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)

		return 2
	}

	if flags.files <= 0 || flags.size < 0 || flags.batch <= 0 || flags.repeat <= 0 {
		fmt.Fprintln(os.Stderr, "-files, -batch and -repeat must be >= 1, -size >= 0")

		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dir := flags.dir
	if dir == "" {
		tmp, tmpErr := os.MkdirTemp("", "fastreadbench-")
		if tmpErr != nil {
			logger.Error("create temp dir", "err", tmpErr)

			return 1
		}

		dir = filepath.Join(tmp, "data")

		if !flags.keep {
			defer func() { _ = os.RemoveAll(tmp) }()
		}
	}

	genStart := time.Now()

	dataset, err := bench.Generate(ctx, dir, bench.GenerateConfig{
		Files:   flags.files,
		Size:    flags.size,
		Writers: fastread.DefaultWorkers(),
	})
	if err != nil {
		logger.Error("generate dataset", "dir", dir, "err", err)

		return 1
	}

	logger.Info("dataset ready",
		"dir", dataset.Dir,
		"files", dataset.Files,
		"bytes", dataset.TotalBytes,
		"duration", time.Since(genStart),
	)

	opts := []fastread.Option{
		fastread.WithWorkers(flags.workers),
		fastread.WithBufferSize(flags.buffer),
		fastread.WithLogger(logger),
	}

	order := fastread.OrderCompletion
	if flags.strict {
		order = fastread.OrderStrict
	}

	opts = append(opts, fastread.WithOrder(order))

	res, err := bench.NewResult()
	if err != nil {
		logger.Error("new result", "err", err)

		return 1
	}

	res.Dataset = dataset
	res.BatchSize = flags.batch
	res.Workers = flags.workers
	res.Buffer = flags.buffer
	res.Order = order.String()
	res.Repeat = flags.repeat

	var all []bench.Pass

	for i := range flags.repeat {
		passes := []bench.Pass{
			bench.ReadNaive(ctx, dir),
			bench.ReadBatches(ctx, dir, flags.batch, opts...),
			bench.ReadFlatten(ctx, dir, opts...),
		}

		for _, p := range passes {
			logger.Info("pass",
				"run", i+1,
				"name", p.Name,
				"files", p.Digest.Files,
				"errors", p.Errors,
				"duration", p.Duration,
				"files_per_sec", fmt.Sprintf("%.0f", p.FilesPerSec()),
			)

			res.AddPass(p)
		}

		all = append(all, passes...)
	}

	verifyErr := bench.Verify(all)
	res.Verified = verifyErr == nil

	regressed := false

	if flags.compare && flags.out != "" {
		regressed, err = compareWithPrevious(flags.out, &res, flags.failAbove)
		if err != nil {
			logger.Error("compare", "path", flags.out, "err", err)

			return 1
		}
	}

	if flags.out != "" {
		err := bench.AppendJSONL(flags.out, &res)
		if err != nil {
			logger.Error("write -out", "path", flags.out, "err", err)

			return 1
		}
	}

	if verifyErr != nil {
		logger.Error("passes disagree", "err", verifyErr)

		return 1
	}

	if regressed {
		logger.Error("regression above threshold", "fail_above", flags.failAbove)

		return 1
	}

	logger.Info("done", "run_id", res.RunID, "verified", res.Verified)

	return 0
}

// compareWithPrevious prints latest against the last result stored at path.
// It reports whether the worst pass regressed by more than failAbove percent.
func compareWithPrevious(path string, latest *bench.Result, failAbove float64) (bool, error) {
	history, err := bench.LoadHistory(path)
	if err != nil {
		return false, err
	}

	if len(history) == 0 {
		fmt.Println("no previous result to compare against")

		return false, nil
	}

	c := bench.Compare(latest, &history[len(history)-1])

	err = bench.PrintComparison(os.Stdout, &c)
	if err != nil {
		return false, err
	}

	return failAbove > 0 && c.WorstRegression > failAbove, nil
}

func newLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level

	err := lvl.UnmarshalText([]byte(level))
	if err != nil {
		return nil, fmt.Errorf("invalid -log-level %q: %w", level, err)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid -log-format %q (expected: text | json)", format)
	}
}
