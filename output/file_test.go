package output

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"teamform-scraper/types"
)

func testRecordSet(rows ...[3]string) types.RecordSet {
	rs := types.RecordSet{Columns: []string{"league", "country", "value"}}
	for _, r := range rows {
		rs.Records = append(rs.Records, types.Record{"league": r[0], "country": r[1], "value": r[2]})
	}
	return rs
}

func readArtifact(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening artifact: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("decompressing artifact: %v", err)
	}
	defer gz.Close()
	rows, err := csv.NewReader(gz).ReadAll()
	if err != nil {
		t.Fatalf("reading artifact csv: %v", err)
	}
	return rows
}

func TestFileWriterRoundtrip(t *testing.T) {
	wc := &WriterConfig{DataDir: t.TempDir()}
	fw := NewFileWriter(wc, types.CategoryLeague)
	p := types.Period{Quarter: 3, Week: 12}
	rs := testRecordSet(
		[3]string{"Premier League", "England", "104.2"},
		[3]string{"La Liga", "Spain", "99.1"},
	)

	if err := fw.Write(context.Background(), p, rs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readArtifact(t, fw.ArtifactPath(p))
	want := [][]string{
		{"league", "country", "value"},
		{"Premier League", "England", "104.2"},
		{"La Liga", "Spain", "99.1"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("artifact rows = %v, want %v", rows, want)
	}
}

func TestFileWriterOverwrites(t *testing.T) {
	wc := &WriterConfig{DataDir: t.TempDir()}
	fw := NewFileWriter(wc, types.CategoryLeague)
	p := types.Period{Quarter: 1, Week: 1}

	first := testRecordSet(
		[3]string{"Premier League", "England", "104.2"},
		[3]string{"La Liga", "Spain", "99.1"},
		[3]string{"Serie A", "Italy", "95.7"},
	)
	if err := fw.Write(context.Background(), p, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := testRecordSet([3]string{"Bundesliga", "Germany", "91.3"})
	if err := fw.Write(context.Background(), p, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readArtifact(t, fw.ArtifactPath(p))
	if len(rows) != 2 {
		t.Errorf("expected header plus 1 record after overwrite, got %d rows", len(rows))
	}
	matches, err := filepath.Glob(filepath.Join(wc.DataDir, string(types.CategoryLeague), "*"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected exactly 1 artifact, found %d", len(matches))
	}
}

func TestAlreadyProcessed(t *testing.T) {
	wc := &WriterConfig{DataDir: t.TempDir()}
	fw := NewFileWriter(wc, types.CategoryLeague)
	rs := testRecordSet([3]string{"Premier League", "England", "104.2"})

	for _, p := range []types.Period{{Quarter: 1, Week: 1}, {Quarter: 3, Week: 12}} {
		if err := fw.Write(context.Background(), p, rs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	done := fw.AlreadyProcessed()
	if !done["1_q1"] || !done["12_q3"] {
		t.Errorf("expected both periods to be marked processed, got %v", done)
	}
	if len(done) != 2 {
		t.Errorf("expected 2 processed periods, got %d", len(done))
	}

	empty := NewFileWriter(wc, types.CategoryClub)
	if len(empty.AlreadyProcessed()) != 0 {
		t.Error("expected no processed periods for a different category")
	}
}

func TestFileWriterFailureLeavesOtherPeriodsAlone(t *testing.T) {
	// Pointing the data directory below a regular file makes every write
	// fail, standing in for a full or read-only disk.
	tmp := t.TempDir()
	blocked := filepath.Join(tmp, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rs := testRecordSet([3]string{"Premier League", "England", "104.2"})

	broken := NewFileWriter(&WriterConfig{DataDir: blocked}, types.CategoryLeague)
	if err := broken.Write(context.Background(), types.Period{Quarter: 1, Week: 1}, rs); err == nil {
		t.Fatal("expected write to fail")
	}

	working := NewFileWriter(&WriterConfig{DataDir: filepath.Join(tmp, "data")}, types.CategoryLeague)
	if err := working.Write(context.Background(), types.Period{Quarter: 1, Week: 2}, rs); err != nil {
		t.Errorf("expected an unrelated writer to keep working, got %v", err)
	}
}
