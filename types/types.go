// Package types defines shared types used across the application.
package types

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Category identifies the kind of ranking table to scrape. The set is
// closed; only CategoryLeague currently has scraping rules.
type Category string

const (
	CategoryLeague   Category = "league"
	CategoryClub     Category = "club"
	CategoryNational Category = "national"
)

// A Period identifies one ranking snapshot, a (quarter, week) pair.
type Period struct {
	Quarter int `yaml:"quarter"`
	Week    int `yaml:"week"`
}

// Key returns the identifier used for output artifacts and resume
// bookkeeping, eg. "12_q3".
func (p Period) Key() string {
	return fmt.Sprintf("%d_q%d", p.Week, p.Quarter)
}

func (p Period) String() string {
	return p.Key()
}

var (
	periodOptionRe = regexp.MustCompile(`^Q(\d+)\s*-\s*(\d+)$`)
	periodKeyRe    = regexp.MustCompile(`^(\d+)_q(\d+)$`)
)

// ParsePeriodOption parses a dropdown option label of the form "Q3 - 12".
func ParsePeriodOption(s string) (Period, error) {
	m := periodOptionRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Period{}, fmt.Errorf("cannot parse period option %q", s)
	}
	q, _ := strconv.Atoi(m[1])
	w, _ := strconv.Atoi(m[2])
	return Period{Quarter: q, Week: w}, nil
}

// ParsePeriodKey parses a period key of the form "12_q3", the inverse of Key.
func ParsePeriodKey(s string) (Period, error) {
	m := periodKeyRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Period{}, fmt.Errorf("cannot parse period key %q", s)
	}
	w, _ := strconv.Atoi(m[1])
	q, _ := strconv.Atoi(m[2])
	return Period{Quarter: q, Week: w}, nil
}

// SortPeriods orders periods by week first, then quarter, the order in which
// snapshots are published on the site.
func SortPeriods(ps []Period) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Week != ps[j].Week {
			return ps[i].Week < ps[j].Week
		}
		return ps[i].Quarter < ps[j].Quarter
	})
}

// A Record is one team's ranking entry, mapping field name to the cell text
// as rendered.
type Record map[string]string

// A RecordSet is one period's fully extracted table. Columns carries the
// field order for columnar output.
type RecordSet struct {
	Columns []string
	Records []Record
}

const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// PeriodStatus reports the outcome of processing a single period.
type PeriodStatus struct {
	Period      Period
	Outcome     string
	Rows        int
	Activations int
	Err         string
}
