package services

import "sort"

// Language describes an analyzable language known to the platform
type Language struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// LanguageRegistry is the in-process registry of analyzable languages.
// Profile resolution starts from this set; profiles for languages that
// are not registered are invisible to the search endpoint.
type LanguageRegistry struct {
	byKey map[string]Language
}

// NewLanguageRegistry creates a registry with the platform's supported languages
func NewLanguageRegistry() *LanguageRegistry {
	return NewLanguageRegistryWith(
		Language{Key: "cs", Name: "C#"},
		Language{Key: "go", Name: "Go"},
		Language{Key: "java", Name: "Java"},
		Language{Key: "js", Name: "JavaScript"},
		Language{Key: "py", Name: "Python"},
		Language{Key: "ts", Name: "TypeScript"},
	)
}

// NewLanguageRegistryWith creates a registry with an explicit language set
func NewLanguageRegistryWith(languages ...Language) *LanguageRegistry {
	byKey := make(map[string]Language, len(languages))
	for _, lang := range languages {
		byKey[lang.Key] = lang
	}
	return &LanguageRegistry{byKey: byKey}
}

// Get returns the language for a key
func (r *LanguageRegistry) Get(key string) (Language, bool) {
	lang, ok := r.byKey[key]
	return lang, ok
}

// Has reports whether a language key is registered
func (r *LanguageRegistry) Has(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// Keys returns all registered language keys, sorted
func (r *LanguageRegistry) Keys() []string {
	keys := make([]string, 0, len(r.byKey))
	for key := range r.byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
