// Command sample-gen writes CSV fixtures: a valid sample, a large valid
// sample and a sample with periodically corrupted rows.
package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"txstats/internal/cli"
	"txstats/internal/core"
)

const (
	uuidPoolSize      = 10_000
	timestampPoolSize = 5_000
	corruptEvery      = 100_000
	letters           = "abcdefghijklmnopqrstuvwxyz"
)

type fixture struct {
	name    string
	rows    int
	corrupt bool
}

func main() {
	var (
		outDir = flag.String("out", "testdata", "Directory to write fixtures into")
		rows   = flag.Int("rows", 1_000_000, "Rows in the valid sample")
		large  = flag.Int("large-rows", 1_500_000, "Rows in the large sample")
		bad    = flag.Int("invalid-rows", 100_000, "Rows in the invalid sample")
		seed   = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		force  = flag.Bool("force", false, "Overwrite existing fixtures")
	)
	flag.Parse()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		logger.Error("Failed to create output directory", "error", err, "dir", *outDir)
		os.Exit(1)
	}

	fixtures := []fixture{
		{name: "valid_sample.csv", rows: *rows},
		{name: "large_sample.csv", rows: *large},
		{name: "invalid_sample.csv", rows: *bad, corrupt: true},
	}

	var g errgroup.Group
	for i, fx := range fixtures {
		path := filepath.Join(*outDir, fx.name)
		if !*force {
			if _, err := os.Stat(path); err == nil {
				logger.Info("Fixture exists, skipping", "path", path)
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				logger.Error("Failed to stat fixture", "error", err, "path", path)
				os.Exit(1)
			}
		}

		fxSeed := *seed + int64(i)
		fx := fx
		g.Go(func() error {
			start := time.Now()
			if err := writeFixture(path, fx, fxSeed); err != nil {
				return fmt.Errorf("%s: %w", fx.name, err)
			}
			logger.Info("Fixture written", "path", path, "rows", fx.rows, "duration", time.Since(start).String())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Failed to generate fixtures", "error", err)
		os.Exit(1)
	}
	slog.Info("Done", "dir", *outDir, "seed", *seed)
}

func writeFixture(path string, fx fixture, seed int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	gen := newGenerator(rand.New(rand.NewSource(seed)), time.Now().UTC())
	every := 0
	if fx.corrupt {
		every = corruptEvery
	}

	if err := gen.write(f, fx.rows, every); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

type generator struct {
	rng        *rand.Rand
	ids        []string
	timestamps []string
}

// newGenerator pre-builds id and timestamp pools spanning the year before now.
func newGenerator(rng *rand.Rand, now time.Time) *generator {
	g := &generator{rng: rng}

	g.ids = make([]string, uuidPoolSize)
	for i := range g.ids {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			id = uuid.New()
		}
		g.ids[i] = id.String()
	}

	span := int64(365 * 24 * time.Hour / time.Second)
	g.timestamps = make([]string, timestampPoolSize)
	for i := range g.timestamps {
		offset := time.Duration(rng.Int63n(span)) * time.Second
		g.timestamps[i] = now.Add(-offset).Format(core.TimestampLayout)
	}
	return g
}

// write emits a header and rows data rows. When corruptEvery > 0, every row
// whose index is a multiple of it gets a letter injected into its timestamp
// and its amount.
func (g *generator) write(w io.Writer, rows, corruptEvery int) error {
	bw := bufio.NewWriterSize(w, 1<<16)
	cw := csv.NewWriter(bw)

	if err := cw.Write(core.RequiredHeaders); err != nil {
		return err
	}

	record := make([]string, len(core.RequiredHeaders))
	for i := 0; i < rows; i++ {
		record[0] = g.ids[g.rng.Intn(len(g.ids))]
		record[1] = strconv.Itoa(1 + g.rng.Intn(1000))
		record[2] = strconv.Itoa(1 + g.rng.Intn(500))
		record[3] = g.timestamps[g.rng.Intn(len(g.timestamps))]
		record[4] = g.amount()

		if corruptEvery > 0 && i%corruptEvery == 0 {
			record[3] = g.inject(record[3], 3, letters)
			record[4] = g.inject(record[4], 5, letters[:8])
		}

		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// amount returns a value in [5.00, 500.00] with two decimals.
func (g *generator) amount() string {
	cents := 500 + g.rng.Int63n(49_501)
	return decimal.New(cents, -2).StringFixed(2)
}

func (g *generator) inject(s string, pos int, alphabet string) string {
	if pos > len(s) {
		pos = len(s)
	}
	c := alphabet[g.rng.Intn(len(alphabet))]
	return s[:pos] + string(c) + s[pos:]
}
