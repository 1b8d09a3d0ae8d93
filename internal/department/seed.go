package department

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/boardwatch/boardwatch/internal/model"
)

type seedEntry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type seedFile struct {
	Departments []seedEntry `yaml:"departments"`
}

// Upserter is the slice of the store the seed sync needs.
type Upserter interface {
	UpsertDepartment(ctx context.Context, d model.Department) error
}

// LoadSeed parses a departments seed file into department records. Each
// entry gets a fresh id; the store keeps the original id for names it has
// already seen.
func LoadSeed(path string) ([]model.Department, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading departments file %s: %w", path, err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing departments file %s: %w", path, err)
	}

	// Creation times are staggered so listing by created_at preserves the
	// file order, which the classifier uses as its tie-break.
	now := time.Now().UTC()
	out := make([]model.Department, 0, len(file.Departments))
	for i, e := range file.Departments {
		if e.Name == "" {
			return nil, fmt.Errorf("departments file %s: entry with empty name", path)
		}
		out = append(out, model.Department{
			ID:        uuid.NewString(),
			Name:      e.Name,
			Keywords:  e.Keywords,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
	}
	return out, nil
}

// Sync upserts every seed department into the store, in file order so the
// classifier's tie-break follows the seed ordering.
func Sync(ctx context.Context, store Upserter, departments []model.Department) error {
	for _, d := range departments {
		if err := store.UpsertDepartment(ctx, d); err != nil {
			return fmt.Errorf("syncing department %s: %w", d.Name, err)
		}
	}
	return nil
}
