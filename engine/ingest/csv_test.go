package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = `Date received,Product,Sub-product,Consumer complaint narrative,Company,State,Complaint ID
2024-01-15,Credit card,,"I was charged a late fee, twice.",Big Bank,CA,7001
2024-02-02,Checking or savings account,Savings account,"My savings account was closed without notice.",Credit Union,NY,7002
2024-02-10,Mortgage,Conventional,Unrelated mortgage complaint.,Lender Co,TX,7003
`

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "complaints.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadComplaints(t *testing.T) {
	records, err := LoadComplaints(writeTempCSV(t, sampleCSV))
	if err != nil {
		t.Fatalf("LoadComplaints: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.ComplaintID != "7001" {
		t.Errorf("complaint id: %q", first.ComplaintID)
	}
	if first.Product != "Credit card" {
		t.Errorf("product: %q", first.Product)
	}
	if first.Narrative != "I was charged a late fee, twice." {
		t.Errorf("narrative with embedded comma mishandled: %q", first.Narrative)
	}

	second := records[1]
	if second.SubProduct != "Savings account" || second.State != "NY" {
		t.Errorf("second record fields: %+v", second)
	}
}

func TestLoadComplaints_MissingColumn(t *testing.T) {
	path := writeTempCSV(t, "Date received,Company\n2024-01-01,Bank\n")
	if _, err := LoadComplaints(path); err == nil {
		t.Fatal("expected error for missing Product column")
	}
}

func TestLoadComplaints_MissingFile(t *testing.T) {
	if _, err := LoadComplaints(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
