package extract

import (
	"testing"

	"github.com/boardwatch/boardwatch/internal/model"
)

func TestSalary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMin  int64
		wantMax  int64
		interval model.SalaryInterval
	}{
		{
			name:     "mixed comma and k notation, per year",
			input:    "Compensation: $90,000 - $120k per year plus equity",
			wantMin:  90000,
			wantMax:  120000,
			interval: model.IntervalYearly,
		},
		{
			name:     "both k suffixed",
			input:    "$100k - $150k",
			wantMin:  100000,
			wantMax:  150000,
			interval: model.IntervalYearly, // defaulted
		},
		{
			name:     "to separator, hourly",
			input:    "Pay is $25 to $40 per hour depending on experience",
			wantMin:  25,
			wantMax:  40,
			interval: model.IntervalHourly,
		},
		{
			name:     "monthly keyword",
			input:    "$4,000 - $6,000 monthly stipend",
			wantMin:  4000,
			wantMax:  6000,
			interval: model.IntervalMonthly,
		},
		{
			name:     "fractional k",
			input:    "$7.5k - $9.5k per month",
			wantMin:  7500,
			wantMax:  9500,
			interval: model.IntervalMonthly,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Salary(tc.input)
			if got.Min == nil || got.Max == nil {
				t.Fatalf("Salary(%q) returned nil bounds: %+v", tc.input, got)
			}
			if *got.Min != tc.wantMin {
				t.Errorf("min = %d, want %d", *got.Min, tc.wantMin)
			}
			if *got.Max != tc.wantMax {
				t.Errorf("max = %d, want %d", *got.Max, tc.wantMax)
			}
			if got.Currency != "USD" {
				t.Errorf("currency = %q, want USD", got.Currency)
			}
			if got.Interval != tc.interval {
				t.Errorf("interval = %q, want %q", got.Interval, tc.interval)
			}
		})
	}
}

func TestSalary_NoMatch(t *testing.T) {
	inputs := []string{
		"",
		"Competitive salary and benefits",
		"Equity from 0.1% - 0.5%", // no dollar amounts
	}
	for _, in := range inputs {
		if got := Salary(in); !got.IsZero() {
			t.Errorf("Salary(%q) = %+v, want zero range", in, got)
		}
	}
}

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "named entities",
			input: "&lt;p&gt;Sales &amp; Marketing&lt;/p&gt;",
			want:  "<p>Sales & Marketing</p>",
		},
		{
			name:  "quotes and nbsp",
			input: "&quot;hybrid&quot;&nbsp;role",
			want:  `"hybrid" role`,
		},
		{
			name:  "decimal entity",
			input: "caf&#233; team",
			want:  "café team",
		},
		{
			name:  "hex slash and apostrophe",
			input: "us&#x2F;them&#x27;s",
			want:  "us/them's",
		},
		{
			name:  "plain text untouched",
			input: "no entities here",
			want:  "no entities here",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecodeEntities(tc.input); got != tc.want {
				t.Errorf("DecodeEntities(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
