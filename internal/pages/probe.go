// internal/pages/probe.go
package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/config"
	"github.com/xkilldash9x/jobflow/internal/locator"
)

// InteractivityProbe decides whether a hovered card is genuinely actionable.
type InteractivityProbe interface {
	Interactive(ctx context.Context, card browser.ElementHandle) (bool, error)
	String() string
}

// probeTarget returns the node a probe inspects: the card itself, or the
// first match of sub inside it.
func probeTarget(ctx context.Context, card browser.ElementHandle, sub locator.Locator) (browser.ElementHandle, error) {
	if sub.IsZero() {
		return card, nil
	}
	found, err := card.Locate(ctx, sub)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// ColorChangeProbe passes when a computed color differs from its resting value.
type ColorChangeProbe struct {
	Target   locator.Locator
	Property string
	Resting  string
}

func (p ColorChangeProbe) String() string {
	return fmt.Sprintf("%s != %s", p.Property, p.Resting)
}

func (p ColorChangeProbe) Interactive(ctx context.Context, card browser.ElementHandle) (bool, error) {
	el, err := probeTarget(ctx, card, p.Target)
	if err != nil || el == nil {
		return false, err
	}
	raw, err := el.ComputedStyle(ctx, p.Property)
	if err != nil {
		return false, err
	}
	got, err := NormalizeColor(raw)
	if err != nil {
		return false, err
	}
	resting, err := NormalizeColor(p.Resting)
	if err != nil {
		return false, err
	}
	return got != resting, nil
}

// AttributeProbe passes when the attribute is absent or differs from Inactive,
// for example aria-disabled="true".
type AttributeProbe struct {
	Target    locator.Locator
	Attribute string
	Inactive  string
}

func (p AttributeProbe) String() string {
	return fmt.Sprintf("%s != %q", p.Attribute, p.Inactive)
}

func (p AttributeProbe) Interactive(ctx context.Context, card browser.ElementHandle) (bool, error) {
	el, err := probeTarget(ctx, card, p.Target)
	if err != nil || el == nil {
		return false, err
	}
	v, present, err := el.Attribute(ctx, p.Attribute)
	if err != nil {
		return false, err
	}
	return !present || v != p.Inactive, nil
}

// ClassToggleProbe passes when the class is present after hover.
type ClassToggleProbe struct {
	Target locator.Locator
	Class  string
}

func (p ClassToggleProbe) String() string {
	return "class ." + p.Class
}

func (p ClassToggleProbe) Interactive(ctx context.Context, card browser.ElementHandle) (bool, error) {
	el, err := probeTarget(ctx, card, p.Target)
	if err != nil || el == nil {
		return false, err
	}
	classes, _, err := el.Attribute(ctx, "class")
	if err != nil {
		return false, err
	}
	for _, c := range strings.Fields(classes) {
		if c == p.Class {
			return true, nil
		}
	}
	return false, nil
}

// ProbeFromConfig builds the configured probe, inspecting target inside each card.
func ProbeFromConfig(cfg config.ProbeConfig, target locator.Locator) (InteractivityProbe, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "color":
		prop := cfg.Property
		if prop == "" {
			prop = "color"
		}
		resting := cfg.Resting
		if resting == "" {
			resting = "#000000"
		}
		if _, err := NormalizeColor(resting); err != nil {
			return nil, err
		}
		return ColorChangeProbe{Target: target, Property: prop, Resting: resting}, nil
	case "attribute":
		return AttributeProbe{Target: target, Attribute: cfg.Attribute, Inactive: cfg.Inactive}, nil
	case "class":
		return ClassToggleProbe{Target: target, Class: cfg.Class}, nil
	}
	return nil, fmt.Errorf("unknown probe kind %q", cfg.Kind)
}
