package runner

import (
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opsbolt/opsbolt/errors"
)

// Rule suppresses one class of known-benign stderr line. Non-regex rules
// match the whole line exactly after trimming trailing whitespace.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Regex   bool   `yaml:"regex,omitempty"`
}

// Filter drops known-benign diagnostic noise from captured stderr. Blank
// lines are always dropped. No semantic parsing is attempted; this is a
// small, operator-extensible line suppression list.
type Filter struct {
	exact map[string]struct{}
	res   []*regexp.Regexp
}

// NewFilter compiles the given rules.
func NewFilter(rules []Rule) (*Filter, error) {
	f := &Filter{exact: make(map[string]struct{})}
	for _, r := range rules {
		if r.Regex {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, errors.Wrapf(err, "bad filter pattern %q", r.Pattern)
			}
			f.res = append(f.res, re)
			continue
		}
		f.exact[r.Pattern] = struct{}{}
	}
	return f, nil
}

// LoadRules reads filter rules from a YAML file: a list of {pattern, regex}.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading filter rules %s", path)
	}
	var rules []Rule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, errors.Wrapf(err, "parsing filter rules %s", path)
	}
	return rules, nil
}

// Apply returns text with suppressed lines removed. Empty input yields empty
// output, and applying the filter twice yields the same result as once.
func (f *Filter) Apply(text string) string {
	if text == "" {
		return ""
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == "" {
			continue
		}
		if f.suppressed(trimmed) {
			continue
		}
		kept = append(kept, line)
	}

	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n") + "\n"
}

func (f *Filter) suppressed(line string) bool {
	if _, ok := f.exact[line]; ok {
		return true
	}
	for _, re := range f.res {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
