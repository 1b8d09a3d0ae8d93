package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "comma separated",
			input: "New York, NY, Remote",
			want:  []string{"New York", "NY", "Remote"},
		},
		{
			name:  "dash separated",
			input: "London - Berlin",
			want:  []string{"London", "Berlin"},
		},
		{
			name:  "slash separated",
			input: "Austin/Denver",
			want:  []string{"Austin", "Denver"},
		},
		{
			name:  "and separated",
			input: "Toronto and Vancouver",
			want:  []string{"Toronto", "Vancouver"},
		},
		{
			name:  "ampersand separated",
			input: "Paris & Lyon",
			want:  []string{"Paris", "Lyon"},
		},
		{
			name:  "middle dot separated",
			input: "Tokyo · Osaka",
			want:  []string{"Tokyo", "Osaka"},
		},
		{
			name:  "no delimiter",
			input: "  San Francisco  ",
			want:  []string{"San Francisco"},
		},
		{
			name:  "empty segments dropped",
			input: "Boston, , Seattle",
			want:  []string{"Boston", "Seattle"},
		},
		{
			name:  "empty string",
			input: "   ",
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitLocation(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SplitLocation(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSplitLocation_JoinRoundTrip(t *testing.T) {
	// Joining atomic locations with ", " and splitting again must recover
	// the original list, provided no element contains the join delimiter.
	lists := [][]string{
		{"New York"},
		{"New York", "Remote"},
		{"London", "Berlin", "Paris"},
	}
	for _, locs := range lists {
		joined := strings.Join(locs, ", ")
		got := SplitLocation(joined)
		if !reflect.DeepEqual(got, locs) {
			t.Errorf("round trip of %v via %q = %v", locs, joined, got)
		}
	}
}

func TestIsRemote(t *testing.T) {
	remote := []string{
		"Remote",
		"remote - US",
		"Work From Home",
		"WFH friendly",
		"Virtual",
		"Telecommute",
		"Anywhere in Europe",
		"Distributed team",
	}
	for _, s := range remote {
		if !IsRemote(s) {
			t.Errorf("IsRemote(%q) = false, want true", s)
		}
	}

	onsite := []string{"New York, NY", "London office", ""}
	for _, s := range onsite {
		if IsRemote(s) {
			t.Errorf("IsRemote(%q) = true, want false", s)
		}
	}
}

func TestLocationsFromText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "location phrase with delimiter",
			input: "Great role. Location: San Francisco / Remote. Apply now!",
			want:  []string{"San Francisco", "Remote"},
		},
		{
			name:  "based in phrase",
			input: "You will be based in Berlin.",
			want:  []string{"Berlin"},
		},
		{
			name:  "falls back to known city lexicon",
			input: "Our teams sit across Tokyo as well as Singapore hubs",
			want:  []string{"Singapore", "Tokyo"},
		},
		{
			name:  "nothing usable",
			input: "We value collaboration above all else.",
			want:  nil,
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := LocationsFromText(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("LocationsFromText(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
