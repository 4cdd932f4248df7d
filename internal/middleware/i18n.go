package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"postergen/internal/infra/geoip"
)

type localeContextKey struct{}

var LocaleKey = localeContextKey{}

// SupportedLocales are the copy languages offered to the model, in
// preference order. The first one is the fallback.
var SupportedLocales = []language.Tag{
	language.BrazilianPortuguese,
	language.English,
	language.Spanish,
}

// I18N negotiates the copy language from X-Locale, then Accept-Language,
// then defaultLocale.
func I18N(defaultLocale string) func(http.Handler) http.Handler {
	return I18NWithCountries(defaultLocale, nil)
}

// I18NWithCountries also consults countries, when set, for callers that send
// no language preference.
func I18NWithCountries(defaultLocale string, countries geoip.CountryResolver) func(http.Handler) http.Handler {
	fallback := NormalizeLocale(defaultLocale)
	if fallback == "" {
		fallback = SupportedLocales[0].String()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, fallback, countries)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var matcher = language.NewMatcher(SupportedLocales)

func detectLocale(r *http.Request, fallback string, countries geoip.CountryResolver) string {
	if v := NormalizeLocale(r.Header.Get("X-Locale")); v != "" {
		return v
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(tags) > 0 {
			if _, idx, conf := matcher.Match(tags...); conf != language.No {
				return SupportedLocales[idx].String()
			}
		}
	}
	if countries != nil {
		if code, err := countries.CountryCode(ClientIP(r)); err == nil {
			if locale := geoip.LocaleForCountry(code); locale != "" {
				return locale
			}
		}
	}
	return fallback
}

// NormalizeLocale maps a free-form tag to the closest supported locale, or
// "" when nothing matches.
func NormalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return ""
	}
	return SupportedLocales[idx].String()
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return SupportedLocales[0].String()
}
