package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/boardwatch/boardwatch/internal/model"
)

// Matches dollar ranges like "$100,000 - $150,000" or "$100k to $150k".
var salaryRangeRe = regexp.MustCompile(`(?i)\$(\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?k)\s*(?:-|to)\s*\$(\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?k)`)

var (
	yearlyRe  = regexp.MustCompile(`(?i)per\s+year|annual|yearly|annually`)
	monthlyRe = regexp.MustCompile(`(?i)per\s+month|monthly`)
	hourlyRe  = regexp.MustCompile(`(?i)per\s+hour|hourly`)
)

// Salary scans free text for a dollar salary range. "k" suffixes expand
// ×1000 and thousands separators are stripped. The interval is detected by
// keyword, defaulting to yearly when a range is present but no keyword is.
// Currency is always USD. Returns the zero SalaryRange when no range
// matches.
func Salary(text string) model.SalaryRange {
	m := salaryRangeRe.FindStringSubmatch(text)
	if m == nil {
		return model.SalaryRange{}
	}

	min, okMin := parseAmount(m[1])
	max, okMax := parseAmount(m[2])
	if !okMin || !okMax {
		return model.SalaryRange{}
	}

	interval := model.IntervalYearly
	switch {
	case yearlyRe.MatchString(text):
		interval = model.IntervalYearly
	case monthlyRe.MatchString(text):
		interval = model.IntervalMonthly
	case hourlyRe.MatchString(text):
		interval = model.IntervalHourly
	}

	return model.SalaryRange{
		Min:      &min,
		Max:      &max,
		Currency: "USD",
		Interval: interval,
	}
}

// parseAmount converts "90,000", "120k" or "7.5k" into a whole dollar
// amount.
func parseAmount(s string) (int64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	mult := 1.0
	if strings.HasSuffix(strings.ToLower(s), "k") {
		s = s[:len(s)-1]
		mult = 1000
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f * mult), true
}
