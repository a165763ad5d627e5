package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"comicsort/pkg/models"
)

// DefaultPatterns drop reprints, variants and the one-off issues that never
// get a monthly folder of their own.
var DefaultPatterns = []string{
	`\[Second Printing\]`,
	`\[Variant\]`,
	"Special",
	"Annual",
	"-1",
	"Comic",
}

var ErrInvalidPattern = errors.New("invalid filter pattern")

// Filter is a user-extensible set of exclusion patterns applied to issue
// names. Patterns are regular expressions matched case-insensitively anywhere
// in the name.
type Filter struct {
	patterns []string
	compiled []*regexp.Regexp
}

func NewFilter() *Filter {
	f := &Filter{}
	f.Reset()
	return f
}

// Reset drops user patterns and restores DefaultPatterns.
func (f *Filter) Reset() {
	f.patterns = f.patterns[:0]
	f.compiled = f.compiled[:0]
	for _, p := range DefaultPatterns {
		f.patterns = append(f.patterns, p)
		f.compiled = append(f.compiled, regexp.MustCompile("(?i)"+p))
	}
}

// Add appends one pattern. How much a pattern removes is never checked; only
// a pattern that does not compile is refused.
func (f *Filter) Add(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	f.patterns = append(f.patterns, pattern)
	f.compiled = append(f.compiled, re)
	return nil
}

func (f *Filter) Patterns() []string {
	out := make([]string, len(f.patterns))
	copy(out, f.patterns)
	return out
}

// Apply returns the records whose issue name matches none of the patterns,
// in their original order. The input slice is left untouched.
func (f *Filter) Apply(records []models.IssueRecord) []models.IssueRecord {
	out := make([]models.IssueRecord, 0, len(records))
	for _, r := range records {
		if f.excluded(r.IssueName) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (f *Filter) excluded(name string) bool {
	for _, re := range f.compiled {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
