package reports

import (
	"context"
	"strings"
)

// TranslationService resolves UI strings for a locale.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// ResolveLocalizedValue picks the best value for locale. Keys match case-insensitively
// and region locales (es-mx) fall back to their base language (es), then "default".
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		for key, value := range values {
			if value != "" && strings.EqualFold(key, candidate) {
				return value
			}
		}
	}
	return fallback
}

// NameForLocale returns the entry display name for locale.
func (e PaletteEntry) NameForLocale(locale string) string {
	return ResolveLocalizedValue(e.NameLocalized, locale, e.Name)
}

// DescriptionForLocale returns the entry description for locale.
func (e PaletteEntry) DescriptionForLocale(locale string) string {
	return ResolveLocalizedValue(e.DescriptionLocalized, locale, e.Description)
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		key = normalizeLocale(key)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	out := []string{locale}
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		out = append(out, locale[:idx])
	}
	return append(out, "default")
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string) string {
	if svc != nil {
		if out, err := svc.Translate(ctx, key, locale, nil); err == nil && out != "" {
			return out
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
