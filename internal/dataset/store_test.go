package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"visit-insights-go/internal/slots"
	"visit-insights-go/internal/types"
)

func makeRecord(i int) types.CustomerRecord {
	return types.CustomerRecord{
		Date:         "2025-12-21",
		CustomerID:   fmt.Sprintf("%04d", 6581+i),
		CustomerName: "程先生",
		SalesRepCode: "雁",
		RawFilename:  fmt.Sprintf("20251221_上海方松项目_营销_销售接待录音文本%04d程先生_雁_20251221.docx", 6581+i),
		Intention:    types.IntentLowRise,
		Answers: slots.Normalize(map[string]string{
			"budget":   fmt.Sprintf("%d万", 300+i),
			"distance": "离地铁站步行十分钟",
		}),
	}
}

func TestHeaderShape(t *testing.T) {
	hdr := Header()
	if len(hdr) != 6+15 {
		t.Fatalf("expected 21 columns, got %d", len(hdr))
	}
	if hdr[0] != "date" || hdr[5] != "intention" || hdr[6] != "budget" {
		t.Fatalf("unexpected column order: %v", hdr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	records, err := Load(filepath.Join(t.TempDir(), "absent.xlsx"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty dataset, got %d rows", len(records))
	}
}

func TestAppendCreatesAndGrows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")

	const n = 3
	for i := 0; i < n; i++ {
		total, err := Append(path, makeRecord(i))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if total != i+1 {
			t.Fatalf("append %d: total = %d", i, total)
		}
	}

	records, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != n {
		t.Fatalf("expected %d rows, got %d", n, len(records))
	}
	for i, rec := range records {
		want := makeRecord(i)
		assertRecordEqual(t, rec, want)
	}
}

func TestRoundTripEquality(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")
	want := makeRecord(0)
	if _, err := Append(path, want); err != nil {
		t.Fatalf("append: %v", err)
	}
	records, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 row, got %d", len(records))
	}
	assertRecordEqual(t, records[0], want)
}

func TestAppendSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xlsx")

	// legacy file with a different column set
	f := excelize.NewFile()
	row := []interface{}{"call_id", "audio_url", "city"}
	if err := f.SetSheetRow("Sheet1", "A1", &row); err != nil {
		t.Fatal(err)
	}
	data := []interface{}{"c-1", "https://example.com/a.mp3", "上海"}
	if err := f.SetSheetRow("Sheet1", "A2", &data); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Append(path, makeRecord(0))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %T: %v", err, err)
	}
	if se.Path != path {
		t.Fatalf("error should carry the dataset path, got %q", se.Path)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("failed append must leave the dataset byte-identical")
	}
}

func TestCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")
	if n, err := Count(path); err != nil || n != 0 {
		t.Fatalf("empty count = %d, %v", n, err)
	}
	if _, err := Append(path, makeRecord(0)); err != nil {
		t.Fatal(err)
	}
	if n, err := Count(path); err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func assertRecordEqual(t *testing.T, got, want types.CustomerRecord) {
	t.Helper()
	if got.Date != want.Date || got.CustomerID != want.CustomerID ||
		got.CustomerName != want.CustomerName || got.SalesRepCode != want.SalesRepCode ||
		got.RawFilename != want.RawFilename || got.Intention != want.Intention {
		t.Fatalf("record fields mismatch:\n got %+v\nwant %+v", got, want)
	}
	for _, key := range slots.Keys() {
		if got.Answers[key] != want.Answers[key] {
			t.Fatalf("answer %q = %q, want %q", key, got.Answers[key], want.Answers[key])
		}
	}
}
