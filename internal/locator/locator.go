// internal/locator/locator.go
// Package locator describes how to find DOM nodes. A Locator is plain data: it
// never holds a reference to a live node, so resolving it twice always goes
// back to the current document.
package locator

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy selects the lookup mechanism used to resolve a Locator.
type Strategy int

const (
	// ByID matches the element whose id attribute equals the value.
	ByID Strategy = iota + 1
	// ByCSS matches elements with a CSS selector.
	ByCSS
	// ByXPath matches element nodes with an XPath expression. Expressions that
	// start with "." are evaluated relative to the scope element.
	ByXPath
	// ByLinkText matches anchors whose trimmed visible text equals the value.
	ByLinkText
	// ByClassName matches elements carrying the given class.
	ByClassName
)

var strategyNames = map[Strategy]string{
	ByID:        "id",
	ByCSS:       "css",
	ByXPath:     "xpath",
	ByLinkText:  "link_text",
	ByClassName: "class_name",
}

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a configuration name onto a Strategy. Matching is case
// insensitive and accepts a few aliases used by other automation tools.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "id":
		return ByID, nil
	case "css", "css_selector", "css selector":
		return ByCSS, nil
	case "xpath":
		return ByXPath, nil
	case "link_text", "link text", "linktext":
		return ByLinkText, nil
	case "class_name", "class name", "class", "classname":
		return ByClassName, nil
	}
	return 0, fmt.Errorf("unknown locator strategy %q", name)
}

// Locator identifies zero or more DOM nodes. It is comparable, so two locators
// with the same strategy and value are equal and may be used as map keys.
type Locator struct {
	Strategy Strategy
	Value    string
}

func ID(value string) Locator        { return Locator{Strategy: ByID, Value: value} }
func CSS(value string) Locator       { return Locator{Strategy: ByCSS, Value: value} }
func XPath(value string) Locator     { return Locator{Strategy: ByXPath, Value: value} }
func LinkText(value string) Locator  { return Locator{Strategy: ByLinkText, Value: value} }
func ClassName(value string) Locator { return Locator{Strategy: ByClassName, Value: value} }

// New builds a Locator from its configuration form.
func New(strategy, value string) (Locator, error) {
	s, err := ParseStrategy(strategy)
	if err != nil {
		return Locator{}, err
	}
	l := Locator{Strategy: s, Value: value}
	if err := l.Validate(); err != nil {
		return Locator{}, err
	}
	return l, nil
}

// Validate reports structural problems. It does not check selector syntax,
// which only the browser can judge.
func (l Locator) Validate() error {
	if _, ok := strategyNames[l.Strategy]; !ok {
		return fmt.Errorf("locator has invalid strategy %d", int(l.Strategy))
	}
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("%s locator has an empty value", l.Strategy)
	}
	if l.Strategy == ByClassName && strings.ContainsAny(strings.TrimSpace(l.Value), " \t") {
		return fmt.Errorf("class_name locator %q must name a single class", l.Value)
	}
	return nil
}

// IsZero reports whether the locator was never set.
func (l Locator) IsZero() bool { return l == Locator{} }

// Relative reports whether an XPath locator is anchored to its scope element.
func (l Locator) Relative() bool {
	return l.Strategy == ByXPath && strings.HasPrefix(strings.TrimSpace(l.Value), ".")
}

func (l Locator) String() string {
	return l.Strategy.String() + "=" + l.Value
}

// Set is a named collection of locators loaded from configuration.
type Set map[string]Locator

// Get returns the named locator or an error naming the missing key.
func (s Set) Get(name string) (Locator, error) {
	l, ok := s[name]
	if !ok {
		return Locator{}, fmt.Errorf("locator %q is not configured", name)
	}
	return l, nil
}

// Require checks that every name is present and reports all that are not.
func (s Set) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := s[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing locators: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Names returns the configured names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
