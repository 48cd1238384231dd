package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsWhenConfigDirMissing(t *testing.T) {
	cfg := &Config{ConfigDir: filepath.Join(t.TempDir(), "nope")}

	cr := cfg.LoadCriteria()
	if cr.MinRent != 2400 || cr.MaxRent != 3200 {
		t.Errorf("default rent window: got %d-%d", cr.MinRent, cr.MaxRent)
	}
	if cr.Income != 110000 {
		t.Errorf("default income: got %d", cr.Income)
	}
	if len(cr.Neighborhoods) == 0 {
		t.Error("default neighborhoods should not be empty")
	}

	b := cfg.LoadBudget()
	if b.FixedExpenses() != 150+400+132 {
		t.Errorf("fixed expenses: got %d", b.FixedExpenses())
	}

	p := cfg.LoadProfile()
	if p.Name == "" || p.Email == "" {
		t.Errorf("default profile incomplete: %+v", p)
	}
}

func TestLoadCriteriaFromYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
min_rent: 2500
max_rent: 3000
bedrooms: 2
income: 120000
neighborhoods:
  - slug: inwood
    enabled: true
  - slug: harlem
    enabled: false
`)
	if err := os.WriteFile(filepath.Join(dir, "criteria.yaml"), yaml, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := &Config{ConfigDir: dir}
	cr := cfg.LoadCriteria()

	if cr.MinRent != 2500 || cr.MaxRent != 3000 || cr.Bedrooms != 2 {
		t.Errorf("criteria: %+v", cr)
	}
	if len(cr.Neighborhoods) != 2 {
		t.Fatalf("neighborhoods: got %d, want 2", len(cr.Neighborhoods))
	}
	if cr.Neighborhoods[0].Slug != "inwood" || !cr.Neighborhoods[0].Enabled {
		t.Errorf("first target: %+v", cr.Neighborhoods[0])
	}
	if cr.Neighborhoods[1].Enabled {
		t.Error("harlem should be disabled")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost:     "db",
		PostgresPort:     "5433",
		PostgresUser:     "u",
		PostgresPassword: "p",
		PostgresDB:       "apts",
		PostgresSSLMode:  "disable",
	}
	want := "host=db port=5433 user=u password=p dbname=apts sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
