package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/cryo107/internal/log"
	"github.com/chrissnell/cryo107/internal/types"
)

func TestMain(m *testing.M) {
	log.Init(false)
	os.Exit(m.Run())
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "cryo107.sqlite"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTable(n int) types.Table {
	base := time.Date(2019, time.November, 1, 17, 38, 0, 0, time.UTC)
	table := make(types.Table, n)
	for i := range table {
		table[i] = types.Sample{
			Timestamp: base.Add(time.Duration(i) * 30 * time.Minute),
			Hours:     float64(i) * 0.5,
			Temp50mK:  0.1 + 0.001*float64(i),
			TempHe3:   1.2,
			Current:   0.1 * float64(i),
			Notes:     "",
		}
	}
	table[n-1].Notes = "Start Mag Cycle"
	return table
}

func TestAppendAndFetchRange(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	in := sampleTable(4)

	if err := s.Append(ctx, in, "2019_11_01_17;38snout.csv"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.FetchRange(ctx, in[0].Timestamp, in[3].Timestamp)
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("fetched %d rows, want 4", len(got))
	}

	for i := range got {
		if !got[i].Timestamp.Equal(in[i].Timestamp) {
			t.Errorf("row %d Timestamp = %v, want %v", i, got[i].Timestamp, in[i].Timestamp)
		}
		if got[i].Temp50mK != in[i].Temp50mK {
			t.Errorf("row %d Temp50mK = %v, want %v", i, got[i].Temp50mK, in[i].Temp50mK)
		}
		if got[i].Current != in[i].Current {
			t.Errorf("row %d Current = %v, want %v", i, got[i].Current, in[i].Current)
		}
		if got[i].SourcePath != "2019_11_01_17;38snout.csv" {
			t.Errorf("row %d SourcePath = %q, want the ingest source", i, got[i].SourcePath)
		}
	}
	if got[3].Notes != "Start Mag Cycle" {
		t.Errorf("row 3 Notes = %q", got[3].Notes)
	}
	if got[0].Notes != "" {
		t.Errorf("row 0 Notes = %q, want empty", got[0].Notes)
	}
}

func TestFetchRangeIsInclusive(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	in := sampleTable(4)

	if err := s.Append(ctx, in, "a.csv"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.FetchRange(ctx, in[1].Timestamp, in[2].Timestamp)
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("fetched %d rows, want 2 (both endpoints included)", len(got))
	}
	if !got[0].Timestamp.Equal(in[1].Timestamp) || !got[1].Timestamp.Equal(in[2].Timestamp) {
		t.Errorf("fetched wrong rows: %v, %v", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestFetchRangeEmptyStore(t *testing.T) {
	s := testStore(t)
	got, err := s.FetchRange(context.Background(),
		time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("fetched %d rows from an empty store", len(got))
	}
}

func TestAppendDoesNotDeduplicate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	in := sampleTable(3)

	if err := s.Append(ctx, in, "a.csv"); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := s.Append(ctx, in, "a.csv"); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	got, err := s.FetchRange(ctx, in[0].Timestamp, in[2].Timestamp)
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(got) != 6 {
		t.Errorf("fetched %d rows after double ingest, want 6", len(got))
	}
}

func TestAppendRecordsIngests(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, sampleTable(3), "a.csv"); err != nil {
		t.Fatalf("Append a: %v", err)
	}
	if err := s.Append(ctx, sampleTable(5), "b.csv"); err != nil {
		t.Fatalf("Append b: %v", err)
	}

	ingests, err := s.Ingests(ctx)
	if err != nil {
		t.Fatalf("Ingests: %v", err)
	}
	if len(ingests) != 2 {
		t.Fatalf("got %d ingest records, want 2", len(ingests))
	}

	byPath := map[string]types.Ingest{}
	for _, ing := range ingests {
		if _, err := uuid.Parse(ing.ID); err != nil {
			t.Errorf("ingest ID %q is not a UUID: %v", ing.ID, err)
		}
		if ing.IngestedAt.IsZero() {
			t.Errorf("ingest %s has a zero timestamp", ing.ID)
		}
		byPath[ing.Filepath] = ing
	}
	if byPath["a.csv"].Rows != 3 {
		t.Errorf("a.csv ingest rows = %d, want 3", byPath["a.csv"].Rows)
	}
	if byPath["b.csv"].Rows != 5 {
		t.Errorf("b.csv ingest rows = %d, want 5", byPath["b.csv"].Rows)
	}
}
