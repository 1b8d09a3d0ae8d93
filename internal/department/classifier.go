// Package department classifies jobs into canonical departments using the
// keyword lists stored alongside each department record.
package department

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/boardwatch/boardwatch/internal/model"
)

// Lister is the slice of the store the classifier needs.
type Lister interface {
	ListDepartments(ctx context.Context) ([]model.Department, error)
}

// Classifier matches job postings to departments. The department list is
// loaded once and cached until Invalidate is called; classification itself
// is pure string matching and safe for concurrent use.
type Classifier struct {
	lister Lister

	mu     sync.Mutex
	loaded bool
	cache  []model.Department
}

// NewClassifier creates a classifier backed by the given department lister.
func NewClassifier(lister Lister) *Classifier {
	return &Classifier{lister: lister}
}

// Invalidate drops the cached department list. The next Classify call
// reloads it from the store.
func (c *Classifier) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.cache = nil
	c.mu.Unlock()
}

func (c *Classifier) departments(ctx context.Context) ([]model.Department, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.cache, nil
	}
	deps, err := c.lister.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading departments: %w", err)
	}
	c.cache = deps
	c.loaded = true
	return deps, nil
}

// Classify resolves the department id for a posting. Match passes run in
// strict priority order, each pass checking every department before the
// next pass starts:
//
//  1. the posting's own department field equals a department name
//  2. a department keyword appears in the posting's department field
//  3. department name appears in the title
//  4. a keyword appears in the title
//  5. department name appears in the description
//  6. a keyword appears in the description
//
// The first pass is exact equality: a raw department like "Sales
// Engineering" must not resolve to Sales by name containment, it falls
// through to the keyword passes instead. Within a pass, ties go to the
// department stored first. Returns an empty id when nothing matches.
func (c *Classifier) Classify(ctx context.Context, rawDepartment, title, description string) (string, error) {
	deps, err := c.departments(ctx)
	if err != nil {
		return "", err
	}
	if len(deps) == 0 {
		return "", nil
	}

	rawDepartment = strings.ToLower(rawDepartment)
	title = strings.ToLower(title)
	description = strings.ToLower(description)

	passes := []struct {
		text     string
		keywords bool
		exact    bool
	}{
		{rawDepartment, false, true},
		{rawDepartment, true, false},
		{title, false, false},
		{title, true, false},
		{description, false, false},
		{description, true, false},
	}

	for _, pass := range passes {
		if pass.text == "" {
			continue
		}
		for _, dep := range deps {
			switch {
			case pass.keywords:
				if matchesAnyKeyword(pass.text, dep.Keywords) {
					return dep.ID, nil
				}
			case pass.exact:
				if pass.text == strings.ToLower(dep.Name) {
					return dep.ID, nil
				}
			default:
				if strings.Contains(pass.text, strings.ToLower(dep.Name)) {
					return dep.ID, nil
				}
			}
		}
	}

	return "", nil
}

func matchesAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
