package table

import "testing"

func sample() Table {
	t := New("id", "name", "city")
	t.AppendRow([]any{1, "ana", "lima"})
	t.AppendRow([]any{2, "bruno", "cusco"})
	return t
}

func TestSelect(t *testing.T) {
	out, err := sample().Select("city", "id")
	if err != nil {
		t.Fatal(err)
	}
	if out.Columns[0] != "city" || out.Cell(0, 1) != 1 {
		t.Fatalf("out=%+v", out)
	}
	if _, err := sample().Select("missing"); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestRenameAndWithColumns(t *testing.T) {
	out := sample().Rename(map[string]string{"id": "client_id"})
	if out.Columns[0] != "client_id" || out.Columns[1] != "name" {
		t.Fatalf("columns=%v", out.Columns)
	}

	if _, err := sample().WithColumns("a", "b"); err == nil {
		t.Fatal("expected arity error")
	}
	re, err := sample().WithColumns("a", "b", "c")
	if err != nil || re.Columns[2] != "c" {
		t.Fatalf("re=%+v err=%v", re.Columns, err)
	}
}

func TestSliceClampsBounds(t *testing.T) {
	s := sample().Slice(1, 99)
	if s.NumRows() != 1 || s.Cell(0, 1) != "bruno" {
		t.Fatalf("s=%+v", s.Rows)
	}
	if sample().Slice(5, 2).NumRows() != 0 {
		t.Fatal("inverted bounds must be empty")
	}
}

func TestDropColumn(t *testing.T) {
	out := sample().DropColumn("name")
	if out.NumColumns() != 2 || out.ColumnIndex("name") >= 0 {
		t.Fatalf("columns=%v", out.Columns)
	}
	if out.Cell(1, 1) != "cusco" {
		t.Fatalf("cell=%v", out.Cell(1, 1))
	}
}

func TestCellRaggedRow(t *testing.T) {
	tb := New("a", "b", "c")
	tb.AppendRow([]any{1})
	if tb.Cell(0, 2) != nil {
		t.Fatal("short row must read as nil")
	}
}
