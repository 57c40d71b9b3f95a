package rulesdsl

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/rules"
)

type dslPack struct {
	Rules []dslRule `yaml:"rules"`
}

type dslRule struct {
	ID       string `yaml:"id"`
	Summary  string `yaml:"summary"`
	Docs     string `yaml:"docs"`
	Severity string `yaml:"severity"` // violation|warning
	Message  string `yaml:"message"`

	Where struct {
		Kind       string `yaml:"kind"`        // any|test|extra|setup|teardown|hook
		Callee     string `yaml:"callee"`      // regex on the call/assertion callee
		TextRegex  string `yaml:"text_regex"`  // regex on the call/assertion text
		ScopeRegex string `yaml:"scope_regex"` // regex on the full test name
	} `yaml:"where"`
}

type compiled struct {
	rule    dslRule
	reCall  *regexp.Regexp
	reText  *regexp.Regexp
	reScope *regexp.Regexp
}

// ValidationError lists schema violations in a rule pack.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid rule pack: " + strings.Join(e.Problems, "; ")
}

func LoadAndRegister(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rules pack: %w", err)
	}
	return RegisterPack(b)
}

// RegisterPack validates, compiles and registers every rule in a YAML pack.
// Nothing is registered unless the whole pack compiles.
func RegisterPack(data []byte) (int, error) {
	if err := validate(data); err != nil {
		return 0, err
	}
	var pack dslPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return 0, fmt.Errorf("parse yaml: %w", err)
	}
	cs := make([]*compiled, 0, len(pack.Rules))
	seen := make(map[string]bool, len(pack.Rules))
	for _, r := range pack.Rules {
		id := strings.ToLower(r.ID)
		if _, taken := rules.Get(id); taken || id == rules.UnsupportedConstructID {
			return 0, fmt.Errorf("rule %q is already registered", r.ID)
		}
		if seen[id] {
			return 0, fmt.Errorf("rule %q is defined twice in the pack", r.ID)
		}
		seen[id] = true
		c, err := compile(r)
		if err != nil {
			return 0, fmt.Errorf("compile rule %q: %w", r.ID, err)
		}
		cs = append(cs, c)
	}
	for _, c := range cs {
		rules.Register(c.toRule())
	}
	return len(cs), nil
}

func validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert pack to json: %w", err)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(packSchema), gojsonschema.NewBytesLoader(js))
	if err != nil {
		return fmt.Errorf("validate pack: %w", err)
	}
	if res.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, d := range res.Errors() {
		field := d.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Problems = append(verr.Problems, field+": "+d.Description())
	}
	return verr
}

func compile(r dslRule) (*compiled, error) {
	c := &compiled{rule: r}
	var err error
	if c.reCall, err = optRegexp(r.Where.Callee); err != nil {
		return nil, fmt.Errorf("callee: %w", err)
	}
	if c.reText, err = optRegexp(r.Where.TextRegex); err != nil {
		return nil, fmt.Errorf("text_regex: %w", err)
	}
	if c.reScope, err = optRegexp(r.Where.ScopeRegex); err != nil {
		return nil, fmt.Errorf("scope_regex: %w", err)
	}
	return c, nil
}

func optRegexp(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	return regexp.Compile(expr)
}

func (c *compiled) toRule() rules.Rule {
	return rules.Rule{
		ID:       c.rule.ID,
		Summary:  c.rule.Summary,
		Severity: ir.Severity(c.rule.Severity),
		Docs:     c.rule.Docs,
		Eval: func(suite *ir.Suite, _ rules.Settings) []ir.Finding {
			return c.eval(suite)
		},
	}
}

// site is one call or assertion inside a test.
type site struct {
	callee string
	text   string
	loc    ir.Location
}

func (c *compiled) eval(suite *ir.Suite) []ir.Finding {
	var out []ir.Finding
	for _, tc := range suite.Cases {
		if !kindMatches(c.rule.Where.Kind, tc.Kind) {
			continue
		}
		if c.reScope != nil && !c.reScope.MatchString(tc.FullName()) {
			continue
		}
		// Without call filters the rule applies to the test as a whole.
		if c.reCall == nil && c.reText == nil {
			out = append(out, c.finding(tc, tc.Loc, ""))
			continue
		}
		for _, s := range sites(tc) {
			if c.reCall != nil && !c.reCall.MatchString(s.callee) {
				continue
			}
			if c.reText != nil && !c.reText.MatchString(s.text) {
				continue
			}
			out = append(out, c.finding(tc, s.loc, s.text))
		}
	}
	return out
}

func (c *compiled) finding(tc ir.TestCase, loc ir.Location, evidence string) ir.Finding {
	return ir.Finding{
		RuleID:   c.rule.ID,
		Severity: ir.Severity(c.rule.Severity),
		Loc:      loc,
		Test:     tc.FullName(),
		Message:  c.rule.Message,
		Evidence: evidence,
	}
}

func sites(tc ir.TestCase) []site {
	out := make([]site, 0, len(tc.Assertions)+len(tc.Calls))
	for _, a := range tc.Assertions {
		out = append(out, site{callee: a.Callee, text: a.Text, loc: a.Loc})
	}
	for _, cl := range tc.Calls {
		text := cl.Callee + "(" + cl.FirstArg + ")"
		out = append(out, site{callee: cl.Callee, text: text, loc: cl.Loc})
	}
	return out
}

func kindMatches(want string, k ir.Kind) bool {
	switch want {
	case "", "any":
		return true
	case "hook":
		return k.IsHook()
	default:
		return string(k) == want
	}
}
