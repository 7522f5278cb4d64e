package docs

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/correspondente/dossie-engine/constants"
)

// yamlRule mirrors Rule with optional fields so an override file only needs
// to state what it changes.
type yamlRule struct {
	WindowDays      *int  `yaml:"window_days"`
	UseStatedExpiry *bool `yaml:"use_stated_expiry"`
	Unbounded       *bool `yaml:"unbounded"`
}

// LoadPolicyFile applies YAML overrides on top of base. Keys are category
// labels ("comprovante_renda", "extrato fgts", canonical names all accepted).
// A key naming no known category is a configuration error, not an absence.
func LoadPolicyFile(path string, base PolicySet) (PolicySet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ApplyPolicyOverrides(raw, base)
}

func ApplyPolicyOverrides(raw []byte, base PolicySet) (PolicySet, error) {
	var overrides map[string]yamlRule
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("decode policy overrides: %w", err)
	}

	out := make(PolicySet, len(base))
	for cat, rule := range base {
		out[cat] = rule
	}

	for key, ov := range overrides {
		cat, ok := resolveCategory(key)
		if !ok {
			return nil, fmt.Errorf("policy overrides: unknown category %q", key)
		}
		rule := out[cat]
		if ov.WindowDays != nil {
			if *ov.WindowDays < 0 {
				return nil, fmt.Errorf("policy overrides: %s: negative window", key)
			}
			rule.WindowDays = *ov.WindowDays
		}
		if ov.UseStatedExpiry != nil {
			rule.UseStatedExpiry = *ov.UseStatedExpiry
		}
		if ov.Unbounded != nil {
			rule.Unbounded = *ov.Unbounded
		}
		out[cat] = rule
	}
	return out, nil
}

func resolveCategory(key string) (constants.Category, bool) {
	if cat, ok := constants.Canonicalize(key); ok {
		return cat, true
	}
	// allow the canonical constant spelled with underscores or spaces
	norm := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == ' ' {
			c = '_'
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		norm = append(norm, c)
	}
	for _, cat := range constants.AsStringSlice() {
		if string(norm) == cat {
			return constants.Category(cat), true
		}
	}
	return constants.Unknown, false
}
