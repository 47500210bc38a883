package sanitizer

import (
	_ "embed"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var policyFile []byte

// Policy is the allow-list applied to note HTML. It is loaded from YAML so
// the lists can be reviewed in one place.
type Policy struct {
	Elements      []string        `yaml:"elements"`
	SkipContent   []string        `yaml:"skipContent"`
	URLSchemes    []string        `yaml:"urlSchemes"`
	RelativeURLs  bool            `yaml:"relativeURLs"`
	DataURIImages bool            `yaml:"dataURIImages"`
	Attributes    []AttributeRule `yaml:"attributes"`
}

// AttributeRule allows attributes either on the listed elements or on
// every element. Matching, when set, is a regular expression the value must
// match.
type AttributeRule struct {
	Names    []string `yaml:"names"`
	On       []string `yaml:"on"`
	Globally bool     `yaml:"globally"`
	Matching string   `yaml:"matching"`
}

// Validate implements validation.Validatable.
func (r AttributeRule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Names, validation.Required),
		validation.Field(&r.On, validation.When(!r.Globally, validation.Required).Else(validation.Empty)),
		validation.Field(&r.Matching, validation.By(isRegexp)),
	)
}

// Validate implements validation.Validatable.
func (p Policy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Elements, validation.Required),
		validation.Field(&p.Attributes),
	)
}

func isRegexp(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := regexp.Compile(s); err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	return nil
}

// LoadPolicy parses an allow-list from YAML.
func LoadPolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return &p, nil
}

// DefaultPolicy returns the embedded note allow-list.
func DefaultPolicy() *Policy {
	p, err := LoadPolicy(policyFile)
	if err != nil {
		// the embedded file is covered by tests
		panic(err)
	}
	return p
}

// Bluemonday builds the filter for this allow-list.
func (p *Policy) Bluemonday() *bluemonday.Policy {
	bm := bluemonday.NewPolicy()
	bm.AllowElements(p.Elements...)
	bm.SkipElementsContent(p.SkipContent...)
	bm.RequireParseableURLs(true)
	bm.AllowRelativeURLs(p.RelativeURLs)
	bm.AllowURLSchemes(p.URLSchemes...)
	if p.DataURIImages {
		bm.AllowDataURIImages()
	}

	for _, rule := range p.Attributes {
		b := bm.AllowAttrs(rule.Names...)
		if rule.Matching != "" {
			b = b.Matching(regexp.MustCompile(rule.Matching))
		}
		if rule.Globally {
			b.Globally()
		} else {
			b.OnElements(rule.On...)
		}
	}
	return bm
}
