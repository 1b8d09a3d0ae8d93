package department

import (
	"context"
	"errors"
	"testing"

	"github.com/boardwatch/boardwatch/internal/model"
)

type fakeLister struct {
	departments []model.Department
	err         error
	calls       int
}

func (f *fakeLister) ListDepartments(ctx context.Context) ([]model.Department, error) {
	f.calls++
	return f.departments, f.err
}

func testDepartments() []model.Department {
	return []model.Department{
		{ID: "d-eng", Name: "Engineering", Keywords: []string{"engineer", "developer", "backend"}},
		{ID: "d-sales", Name: "Sales", Keywords: []string{"account executive", "quota"}},
		{ID: "d-design", Name: "Design", Keywords: []string{"designer", "figma"}},
	}
}

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name        string
		rawDept     string
		title       string
		description string
		want        string
	}{
		{
			name:    "raw field equals department name",
			rawDept: "Engineering",
			title:   "Designer", // lower priority pass must not win
			want:    "d-eng",
		},
		{
			name:    "keyword in raw field",
			rawDept: "Backend Platform",
			want:    "d-eng",
		},
		{
			name:  "department name in title",
			title: "Head of Sales",
			want:  "d-sales",
		},
		{
			name:  "keyword in title",
			title: "Senior Account Executive",
			want:  "d-sales",
		},
		{
			name:        "department name in description",
			description: "Join our Design org.",
			want:        "d-design",
		},
		{
			name:        "keyword in description",
			description: "You will live in Figma all day.",
			want:        "d-design",
		},
		{
			name:  "case insensitive",
			title: "STAFF ENGINEER",
			want:  "d-eng",
		},
		{
			name:        "no match",
			rawDept:     "Facilities",
			title:       "Office Manager",
			description: "Keep the lights on.",
			want:        "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(&fakeLister{departments: testDepartments()})
			got, err := c.Classify(context.Background(), tc.rawDept, tc.title, tc.description)
			if err != nil {
				t.Fatalf("Classify returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Classify = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifier_RawNamePassIsExact(t *testing.T) {
	// "Sales Engineering" is not the Sales department even though Sales is
	// listed first; the raw field must equal a name outright, so the match
	// falls through to the keyword pass and lands on Engineering.
	lister := &fakeLister{departments: []model.Department{
		{ID: "d-sales", Name: "Sales", Keywords: []string{"quota"}},
		{ID: "d-eng", Name: "Engineering", Keywords: []string{"engineer"}},
	}}
	c := NewClassifier(lister)

	got, err := c.Classify(context.Background(), "Sales Engineering", "", "")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got != "d-eng" {
		t.Errorf("Classify = %q, want %q", got, "d-eng")
	}
}

func TestClassifier_TieBreakIsStoreOrder(t *testing.T) {
	lister := &fakeLister{departments: []model.Department{
		{ID: "d-first", Name: "Platform", Keywords: []string{"kubernetes"}},
		{ID: "d-second", Name: "Infrastructure", Keywords: []string{"kubernetes"}},
	}}
	c := NewClassifier(lister)

	got, err := c.Classify(context.Background(), "", "Kubernetes Operator", "")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got != "d-first" {
		t.Errorf("Classify = %q, want first-listed department to win", got)
	}
}

func TestClassifier_CachesUntilInvalidated(t *testing.T) {
	lister := &fakeLister{departments: testDepartments()}
	c := NewClassifier(lister)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Classify(ctx, "", "Engineer", ""); err != nil {
			t.Fatalf("Classify returned error: %v", err)
		}
	}
	if lister.calls != 1 {
		t.Errorf("store listed %d times, want 1", lister.calls)
	}

	c.Invalidate()
	if _, err := c.Classify(ctx, "", "Engineer", ""); err != nil {
		t.Fatalf("Classify after invalidate returned error: %v", err)
	}
	if lister.calls != 2 {
		t.Errorf("store listed %d times after invalidate, want 2", lister.calls)
	}
}

func TestClassifier_ListError(t *testing.T) {
	wantErr := errors.New("db down")
	c := NewClassifier(&fakeLister{err: wantErr})

	_, err := c.Classify(context.Background(), "", "Engineer", "")
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
}
