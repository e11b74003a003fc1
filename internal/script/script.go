// Package script converts transcripts between simplified and traditional Chinese.
package script

import (
	"fmt"
	"strings"
	"sync"

	"github.com/longbridgeapp/opencc"
)

// Variant is the target script of a conversion.
type Variant string

const (
	Simplified  Variant = "zh-Hans"
	Traditional Variant = "zh-Hant"
)

// VariantForLanguage maps a configured language code onto a conversion target.
func VariantForLanguage(language string) (Variant, bool) {
	switch strings.TrimSpace(language) {
	case string(Simplified):
		return Simplified, true
	case string(Traditional):
		return Traditional, true
	default:
		return "", false
	}
}

// profile returns the OpenCC configuration used for a variant. Simplified targets
// mainland phrasing from Taiwan traditional; traditional targets Taiwan phrasing.
func profile(variant Variant) (string, error) {
	switch variant {
	case Simplified:
		return "tw2sp", nil
	case Traditional:
		return "s2twp", nil
	default:
		return "", fmt.Errorf("unsupported script variant %q", variant)
	}
}

// OpenCC lazily builds one converter per variant and reuses it.
type OpenCC struct {
	mu         sync.Mutex
	converters map[Variant]*opencc.OpenCC
}

// NewOpenCC returns an empty converter cache.
func NewOpenCC() *OpenCC {
	return &OpenCC{converters: make(map[Variant]*opencc.OpenCC)}
}

// Convert rewrites text into variant.
func (c *OpenCC) Convert(variant Variant, text string) (string, error) {
	converter, err := c.converter(variant)
	if err != nil {
		return "", err
	}

	converted, err := converter.Convert(text)
	if err != nil {
		return "", fmt.Errorf("convert to %s: %w", variant, err)
	}
	return converted, nil
}

// Check builds both converters so doctor can report dictionary problems up front.
func (c *OpenCC) Check() error {
	for _, variant := range []Variant{Simplified, Traditional} {
		if _, err := c.converter(variant); err != nil {
			return err
		}
	}
	return nil
}

func (c *OpenCC) converter(variant Variant) (*opencc.OpenCC, error) {
	name, err := profile(variant)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if converter, ok := c.converters[variant]; ok {
		return converter, nil
	}

	converter, err := opencc.New(name)
	if err != nil {
		return nil, fmt.Errorf("initialize opencc %s: %w", name, err)
	}
	c.converters[variant] = converter
	return converter, nil
}
