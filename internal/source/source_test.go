package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/crimson-sun/sieve/internal/model"
)

func readAll(t *testing.T, tbl *Table) ([]Row, []error) {
	t.Helper()
	var rows []Row
	var errs []error
	for {
		row, err := tbl.Next()
		if errors.Is(err, io.EOF) {
			return rows, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rows = append(rows, row)
	}
}

func TestTableSkipsHeader(t *testing.T) {
	in := "Hostname,Process,Message\nhost-a,sshd,login ok\nhost-b,cron,job done\n"
	tbl, err := NewTable(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}

	if got := tbl.Header().Names(); !reflect.DeepEqual(got, []string{"Hostname", "Process", "Message"}) {
		t.Errorf("header = %v", got)
	}
	rows, errs := readAll(t, tbl)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Line() != "host-a,sshd,login ok\n" {
		t.Errorf("line 0 = %q", rows[0].Line())
	}
	if rows[1].Num != 3 {
		t.Errorf("row 1 Num = %d, want 3", rows[1].Num)
	}
}

func TestLineDoesNotRequote(t *testing.T) {
	in := "a,b,c\nh,p,\"disk full, retrying\"\n"
	tbl, _ := NewTable(strings.NewReader(in))
	row, err := tbl.Next()
	if err != nil {
		t.Fatal(err)
	}
	if got := row.Line(); got != "h,p,disk full, retrying\n" {
		t.Errorf("Line() = %q", got)
	}
}

func TestVaryingFieldCounts(t *testing.T) {
	in := "a,b,c\n1\n1,2,3,4\n,,\n"
	tbl, _ := NewTable(strings.NewReader(in))
	rows, errs := readAll(t, tbl)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []string{"1\n", "1,2,3,4\n", ",,\n"}
	for i, r := range rows {
		if r.Line() != want[i] {
			t.Errorf("row %d = %q, want %q", i, r.Line(), want[i])
		}
	}
}

func TestBlankLinesSkipped(t *testing.T) {
	in := "Hostname,Process,Message\nh1,p,m\n\n\r\nh2,p,m\n\n"
	tbl, _ := NewTable(strings.NewReader(in))
	rows, errs := readAll(t, tbl)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1].Line() != "h2,p,m\n" || rows[1].Num != 5 {
		t.Errorf("row 1 = %q at line %d, want h2 at line 5", rows[1].Line(), rows[1].Num)
	}
}

func TestEmptyInput(t *testing.T) {
	tbl, err := NewTable(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}

	tbl, _ = NewTable(strings.NewReader("Hostname,Process,Message\n"))
	if _, err := tbl.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("header only: expected io.EOF, got %v", err)
	}
}

func TestStrictRowErrorThenContinue(t *testing.T) {
	in := "a,b\nok,1\nbad\"quote,2\nok,3\n"
	tbl, err := NewTable(strings.NewReader(in), Strict())
	if err != nil {
		t.Fatal(err)
	}

	rows, errs := readAll(t, tbl)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	var re *RowError
	if !errors.As(errs[0], &re) {
		t.Fatalf("expected *RowError, got %T", errs[0])
	}
	if re.Num != 3 {
		t.Errorf("RowError.Num = %d, want 3", re.Num)
	}
	if len(rows) != 2 || rows[1].Line() != "ok,3\n" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestLazyQuotesByDefault(t *testing.T) {
	tbl, _ := NewTable(strings.NewReader("a,b\nbad\"quote,2\n"))
	row, err := tbl.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row.Line() != "bad\"quote,2\n" {
		t.Errorf("Line() = %q", row.Line())
	}
}

func TestRecord(t *testing.T) {
	tbl, _ := NewTable(strings.NewReader("Timestamp,Hostname,Process,Message\nt0,web-1,nginx,GET /\nt1,web-2\n"))
	h := tbl.Header()

	row, _ := tbl.Next()
	rec, err := row.Record(h)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	want := model.LogRecord{Hostname: "web-1", Process: "nginx", Message: "GET /"}
	if rec != want {
		t.Errorf("Record = %+v, want %+v", rec, want)
	}

	short, _ := tbl.Next()
	_, err = short.Record(h)
	var mf *MissingFieldsError
	if !errors.As(err, &mf) {
		t.Fatalf("expected *MissingFieldsError, got %v", err)
	}
	if !reflect.DeepEqual(mf.Fields, []string{"Process", "Message"}) {
		t.Errorf("missing = %v", mf.Fields)
	}
}

func TestOpenCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.csv")
	if err := os.WriteFile(path, []byte("Hostname,Process,Message\nh,p,m\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := OpenCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Close()
	rows, _ := readAll(t, tbl)
	if len(rows) != 1 {
		t.Errorf("got %d rows", len(rows))
	}

	if _, err := OpenCSV(filepath.Join(t.TempDir(), "absent.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
