package extract

import (
	"os"
	"path/filepath"
	"testing"

	"ventasetl/internal"
)

func TestExtractJSON(t *testing.T) {
	blob := `[
	  {"IDCLIENTE": 1, "IDDISTRIBUIDOR": 500, "NOMBRE DISTRIBUIDOR": "Norte", "TELEFONO": "999", "categoría": "A", "recomendados": [2, 3]},
	  {"IDCLIENTE": 2, "IDDISTRIBUIDOR": 501, "NOMBRE DISTRIBUIDOR": "Sur", "TELEFONO": "888", "categoría": "B", "recomendados": []}
	]`
	path := filepath.Join(t.TempDir(), "recs.json")
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := ExtractJSON(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("rows=%d", out.NumRows())
	}
	for _, col := range []string{
		internal.SrcClientID, internal.SrcDistributorID,
		internal.SrcDistributorName, internal.SrcPhone,
		internal.SrcCategory, internal.SrcReferrals,
	} {
		if out.ColumnIndex(col) < 0 {
			t.Fatalf("missing column %q in %v", col, out.Columns)
		}
	}
	if v := out.Cell(0, out.ColumnIndex(internal.SrcDistributorID)); v != 500.0 {
		t.Fatalf("distributor id=%v", v)
	}
}

func TestExtractJSONBadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recs.json")
	if err := os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ExtractJSON(path, nil); err == nil {
		t.Fatal("expected parse error")
	}
}
