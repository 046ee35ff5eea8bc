// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

// Package i18n holds the bilingual message catalog. Dutch is the default
// language; English is the alternative. Lookups fall back to Dutch when
// the requested language or key is missing.
package i18n

import (
	_ "embed"
	"fmt"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// DefaultLanguage is the catalog fallback language.
const DefaultLanguage = "nl"

// Catalog maps language codes to message keys to message templates.
type Catalog struct {
	messages map[string]map[string]string
}

// Load parses the embedded message catalog.
func Load() (*Catalog, error) {
	var messages map[string]map[string]string
	if err := yaml.Unmarshal(catalogYAML, &messages); err != nil {
		return nil, oops.Code("CATALOG_PARSE_FAILED").With("operation", "parse message catalog").Wrap(err)
	}
	if _, ok := messages[DefaultLanguage]; !ok {
		return nil, oops.Code("CATALOG_INCOMPLETE").Errorf("catalog is missing the %q fallback language", DefaultLanguage)
	}
	return &Catalog{messages: messages}, nil
}

// Text returns the message for key in the given language, falling back
// to Dutch when the language or key is unknown. Returns the key itself
// when even the fallback has no entry, so a missing translation shows up
// in output instead of vanishing.
func (c *Catalog) Text(lang, key string) string {
	if msgs, ok := c.messages[lang]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := c.messages[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// Format looks up the message for key and interpolates args into it.
func (c *Catalog) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(c.Text(lang, key), args...)
}

// Languages returns the language codes present in the catalog.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		langs = append(langs, lang)
	}
	return langs
}
