package ninja

import (
	"net/url"
	"strings"
)

// buildDetailMaps turns a currencyDetails block into identifier->icon and
// identifier->display-name maps. Every available identifier (name, details
// slug, numeric id) keys both maps. Later entries overwrite earlier ones on
// key collision; pipeline order makes later sources more authoritative, so
// last write wins is the intended merge policy.
func buildDetailMaps(entries detailList) (icons, names map[string]string) {
	icons = make(map[string]string)
	names = make(map[string]string)

	for i := range entries {
		entry := &entries[i]
		name := firstStr(entry.Name, entry.CurrencyTypeName, entry.DisplayName)
		icon := entry.Icon.String()
		detailsID := entry.DetailsID.String()
		identifier := firstStr(Str(entry.ID), Str(entry.CurrencyID))
		if alt := entry.Details; alt != nil {
			name = firstStr(alt.Name, Str(name))
			icon = firstStr(alt.Icon, Str(icon))
			if detailsID == "" {
				detailsID = alt.DetailsID.String()
			}
			if identifier == "" {
				identifier = firstStr(Str(alt.ID), Str(alt.CurrencyID))
			}
		}

		var keys []string
		if name != "" {
			keys = append(keys, name)
		}
		if detailsID != "" {
			keys = append(keys, detailsID)
		}
		if identifier != "" {
			keys = append(keys, identifier)
		}
		for _, key := range keys {
			if icon != "" {
				icons[key] = icon
			}
			if name != "" {
				names[key] = name
			}
		}
	}
	return icons, names
}

// firstStr returns the first non-empty string.
func firstStr(values ...Str) string {
	for _, v := range values {
		if v != "" {
			return v.String()
		}
	}
	return ""
}

// normalizeIconURL resolves a relative icon path against the icon host.
// Already-absolute URLs pass through; blank input yields "".
func normalizeIconURL(icon, iconBase string) string {
	trimmed := strings.TrimSpace(icon)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return icon
	}
	base, err := url.Parse(iconBase)
	if err != nil {
		return icon
	}
	ref, err := url.Parse(trimmed)
	if err != nil {
		return icon
	}
	return base.ResolveReference(ref).String()
}

// mergeLookups copies overview-derived maps and overlays exchange-derived
// ones; the exchange source wins collisions.
func mergeLookups(overview, exchange map[string]string) map[string]string {
	merged := make(map[string]string, len(overview)+len(exchange))
	for k, v := range overview {
		merged[k] = v
	}
	for k, v := range exchange {
		merged[k] = v
	}
	return merged
}
