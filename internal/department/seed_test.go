package department

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/boardwatch/boardwatch/internal/model"
)

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departments.yaml")
	content := `
departments:
  - name: Engineering
    keywords: [engineer, developer, backend]
  - name: Sales
    keywords: [account executive]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing seed: %v", err)
	}

	deps, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed returned error: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("got %d departments, want 2", len(deps))
	}
	if deps[0].Name != "Engineering" || len(deps[0].Keywords) != 3 {
		t.Errorf("first = %+v", deps[0])
	}
	if deps[0].ID == "" || deps[0].ID == deps[1].ID {
		t.Error("departments did not get distinct ids")
	}
}

func TestLoadSeed_EmptyName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departments.yaml")
	if err := os.WriteFile(path, []byte("departments:\n  - keywords: [x]\n"), 0o644); err != nil {
		t.Fatalf("writing seed: %v", err)
	}
	if _, err := LoadSeed(path); err == nil {
		t.Error("entry with empty name did not error")
	}
}

type recordingUpserter struct {
	names []string
}

func (r *recordingUpserter) UpsertDepartment(ctx context.Context, d model.Department) error {
	r.names = append(r.names, d.Name)
	return nil
}

func TestSync_PreservesOrder(t *testing.T) {
	up := &recordingUpserter{}
	deps := []model.Department{
		{ID: "1", Name: "Engineering"},
		{ID: "2", Name: "Sales"},
		{ID: "3", Name: "Design"},
	}
	if err := Sync(context.Background(), up, deps); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	want := []string{"Engineering", "Sales", "Design"}
	for i, name := range want {
		if up.names[i] != name {
			t.Errorf("order = %v, want %v", up.names, want)
			break
		}
	}
}
