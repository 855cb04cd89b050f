// Command muscan scans LCIO event files for muons, computes their
// displacement features and writes the per-muon rows to a SQLite
// database. Files are processed concurrently; a single writer
// goroutine owns the database so each event lands atomically.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go-hep.org/x/hep/lcio"

	"github.com/dispmuon/displacement.report/internal/config"
	"github.com/dispmuon/displacement.report/internal/db"
	"github.com/dispmuon/displacement.report/internal/monitoring"
	"github.com/dispmuon/displacement.report/internal/muon"
)

func main() {
	var (
		output     = flag.String("o", "muons.db", "output SQLite database path")
		nThreads   = flag.Int("t", 2, "number of concurrent file readers")
		maxFiles   = flag.Int("m", 0, "maximum number of input files to scan (0 = all)")
		configPath = flag.String("config", "", "analysis config JSON (optional)")
		migrations = flag.String("migrations", "migrations", "schema migrations directory")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <input.slcio> [...]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.EmptyAnalysisConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAnalysisConfig(*configPath)
		if err != nil {
			monitoring.Logf("load config: %v", err)
			os.Exit(1)
		}
	}

	files := flag.Args()
	if *maxFiles > 0 && len(files) > *maxFiles {
		files = files[:*maxFiles]
	}

	database, err := db.NewDB(*output)
	if err != nil {
		monitoring.Logf("open database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	if _, statErr := os.Stat(*migrations); statErr == nil {
		err = database.MigrateUp(*migrations)
	} else {
		err = database.InitSchema()
	}
	if err != nil {
		monitoring.Logf("initialize schema: %v", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	if err := database.InsertRun(runID, fmt.Sprintf("muscan %d files", len(files)), time.Now()); err != nil {
		monitoring.Logf("record run: %v", err)
		os.Exit(1)
	}

	monitoring.ResetAncestryFaults()
	stats, err := scan(database, cfg, files, runID, *nThreads)
	if err != nil {
		monitoring.Logf("scan: %v", err)
		os.Exit(1)
	}

	if err := database.FinishRun(runID, time.Now(), stats.events, stats.muons, monitoring.AncestryFaults()); err != nil {
		monitoring.Logf("finish run: %v", err)
		os.Exit(1)
	}

	monitoring.Logf("run %s: %d events, %d muons, %d ancestry faults",
		runID, stats.events, stats.muons, monitoring.AncestryFaults())
}

type scanStats struct {
	events int64
	muons  int64
}

// scan fans the input files out over worker goroutines. Each worker
// owns an aggregator and streams completed frames to the writer; the
// writer goroutine is the only database client, which serializes the
// per-event inserts.
func scan(database *db.DB, cfg *config.AnalysisConfig, files []string, runID string, nThreads int) (scanStats, error) {
	if nThreads < 1 {
		nThreads = 1
	}

	fileCh := make(chan string, len(files))
	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)

	frameCh := make(chan muon.Frame, nThreads)
	errCh := make(chan error, nThreads+1)

	var stats scanStats
	var eventID atomic.Uint64

	var workers sync.WaitGroup
	for w := 0; w < nThreads; w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for path := range fileCh {
				if err := scanFile(path, cfg, &eventID, frameCh); err != nil {
					errCh <- fmt.Errorf("%s: %w", path, err)
					return
				}
			}
		}()
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		failed := false
		for frame := range frameCh {
			// Keep draining after a failure so no worker blocks on send.
			if failed {
				continue
			}
			if err := database.InsertFrame(runID, &frame); err != nil {
				errCh <- fmt.Errorf("event %d: %w", frame.EventID, err)
				failed = true
				continue
			}
			atomic.AddInt64(&stats.events, 1)
			atomic.AddInt64(&stats.muons, int64(frame.Rows()))
		}
	}()

	workers.Wait()
	close(frameCh)
	<-writerDone

	select {
	case err := <-errCh:
		return stats, err
	default:
		return stats, nil
	}
}

// scanFile walks one LCIO file event by event, pushing each finished
// frame to the writer. Event IDs are drawn from a shared counter so
// they stay unique across files.
func scanFile(path string, cfg *config.AnalysisConfig, eventID *atomic.Uint64, frameCh chan<- muon.Frame) error {
	reader, err := lcio.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	adapter := &eventAdapter{cfg: cfg}
	agg := muon.NewAggregator()

	for reader.Next() {
		evt := reader.Event()
		ev, err := adapter.adapt(&evt, eventID.Add(1))
		if err != nil {
			return err
		}
		frameCh <- agg.ProcessEvent(ev)
	}
	return reader.Err()
}
