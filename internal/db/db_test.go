package db

import (
	"testing"
	"time"

	"github.com/dispmuon/displacement.report/internal/muon"
	"github.com/dispmuon/displacement.report/internal/testutil"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(":memory:")
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { database.Close() })
	testutil.AssertNoError(t, database.InitSchema())
	return database
}

func testFrame() muon.Frame {
	frame := muon.Frame{EventID: 7}

	rec := muon.MuonFeatureRecord{Pt: 25, Eta: 0.3, Phi: 1.1, Charge: -1, SumExtraPt: 9, ExtraPtRatio: 1}
	rec.ExtraTracks[0] = 1
	rec.SumExtraTrackPt[0] = 9
	rec.ChargeWeightedRatios[9] = 0.25
	frame.Categories[muon.CategoryPrompt].Append(&rec)

	rec2 := muon.MuonFeatureRecord{Pt: 8, Eta: -2.0, Phi: 0.4, Charge: 1}
	frame.Categories[muon.CategoryPileup].Append(&rec2)

	frame.TruthRows = append(frame.TruthRows, muon.TruthMatchRecord{
		Index:    0,
		RecoPt:   25,
		TruthPt:  24.3,
		TruthPDG: 13,
		IsSignal: true,
		Prompt:   true,
	})
	return frame
}

func TestInsertFrameAndCounts(t *testing.T) {
	database := newTestDB(t)

	testutil.AssertNoError(t, database.InsertRun("run-1", "events.slcio", time.Now()))

	frame := testFrame()
	testutil.AssertNoError(t, database.InsertFrame("run-1", &frame))

	counts, err := database.CategoryCounts("run-1")
	testutil.AssertNoError(t, err)

	if counts["prompt"] != 1 {
		t.Errorf("prompt count = %d, want 1", counts["prompt"])
	}
	if counts["pileup"] != 1 {
		t.Errorf("pileup count = %d, want 1", counts["pileup"])
	}
	if counts["fromPhoton"] != 0 {
		t.Errorf("fromPhoton count = %d, want 0", counts["fromPhoton"])
	}
}

func TestFeatureColumnRoundTrip(t *testing.T) {
	database := newTestDB(t)
	frame := testFrame()
	testutil.AssertNoError(t, database.InsertFrame("run-1", &frame))

	pts, err := database.FeatureColumn("run-1", "prompt", "pt")
	testutil.AssertNoError(t, err)
	if len(pts) != 1 || pts[0] != 25 {
		t.Errorf("prompt pt column = %v, want [25]", pts)
	}

	sums, err := database.FeatureColumn("run-1", "prompt", "sum_extra_track_pt_0p5mm")
	testutil.AssertNoError(t, err)
	if len(sums) != 1 || sums[0] != 9 {
		t.Errorf("sum_extra_track_pt_0p5mm = %v, want [9]", sums)
	}
}

func TestFeatureColumnRejectsUnknownColumn(t *testing.T) {
	database := newTestDB(t)

	_, err := database.FeatureColumn("", "prompt", "pt; DROP TABLE muon_features")
	testutil.AssertError(t, err)
}

func TestMeanRatioCurve(t *testing.T) {
	database := newTestDB(t)
	frame := testFrame()
	testutil.AssertNoError(t, database.InsertFrame("run-1", &frame))

	curve, err := database.MeanRatioCurve("run-1", "prompt")
	testutil.AssertNoError(t, err)

	testutil.AssertInDelta(t, curve[9], 0.25, 1e-12, "mean ratio m10")
	testutil.AssertInDelta(t, curve[0], 0, 1e-12, "mean ratio m01")

	// A category with no rows yields a zero curve, not an error.
	curve, err = database.MeanRatioCurve("run-1", "fromPhoton")
	testutil.AssertNoError(t, err)
	testutil.AssertInDelta(t, curve[5], 0, 1e-12, "empty-category mean ratio")
}

func TestFinishRun(t *testing.T) {
	database := newTestDB(t)
	started := time.Now()
	testutil.AssertNoError(t, database.InsertRun("run-2", "a.slcio", started))
	testutil.AssertNoError(t, database.FinishRun("run-2", started.Add(time.Minute), 100, 42, 1))

	var events, muons, faults int64
	err := database.QueryRow(
		`SELECT events, muons, ancestry_faults FROM scan_runs WHERE run_id = ?`, "run-2",
	).Scan(&events, &muons, &faults)
	testutil.AssertNoError(t, err)

	if events != 100 || muons != 42 || faults != 1 {
		t.Errorf("run counters = (%d, %d, %d), want (100, 42, 1)", events, muons, faults)
	}
}

func TestFeatureColumnsMatchRecordWidth(t *testing.T) {
	cols := featureColumns()
	var rec muon.MuonFeatureRecord
	if len(cols) != len(rec.Values()) {
		t.Errorf("schema width %d differs from record width %d", len(cols), len(rec.Values()))
	}
}
