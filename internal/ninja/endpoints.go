package ninja

// Default poe.ninja endpoints. The exchange endpoints come in two server
// revisions with different query parameter names; both carry the same
// semantics and are tried in order.
const (
	defaultPoEBaseURL       = "https://poe.ninja/api/data"
	defaultPoE2BaseURL      = "https://poe.ninja/poe2/api/economy"
	defaultTempOverviewURL  = "https://poe.ninja/poe2/api/economy/temp/overview"
	defaultIconBaseURL      = "https://poe.ninja"
	defaultUserAgent        = "poe-market-tracker/0.1 (+https://github.com/exile-economy/market-data)"
	defaultMaxDetailEntries = 50
)

// exchangeEndpoint is one revision of an exchange-style endpoint together
// with the query parameter names that revision expects.
type exchangeEndpoint struct {
	URL           string
	LeagueParam   string
	CategoryParam string
}

// Endpoints groups every upstream URL the client talks to. Tests point all
// of them at a local server.
type Endpoints struct {
	PoEBase          string
	PoE2Base         string
	TempOverview     string
	IconBase         string
	ExchangeOverview []exchangeEndpoint
	ExchangeDetails  []exchangeEndpoint
}

// DefaultEndpoints returns the production poe.ninja endpoint set.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		PoEBase:      defaultPoEBaseURL,
		PoE2Base:     defaultPoE2BaseURL,
		TempOverview: defaultTempOverviewURL,
		IconBase:     defaultIconBaseURL,
		ExchangeOverview: []exchangeEndpoint{
			{"https://poe.ninja/poe2/api/economy/exchange/current/overview", "league", "type"},
			{"https://poe.ninja/poe2/api/economy/currencyexchange/overview", "leagueName", "overviewName"},
		},
		ExchangeDetails: []exchangeEndpoint{
			{"https://poe.ninja/poe2/api/economy/exchange/current/details", "league", "type"},
			{"https://poe.ninja/poe2/api/economy/currencyexchange/details", "leagueName", "overviewName"},
		},
	}
}

// overviewAliases maps a normalized category to the overview names the temp
// endpoint may know it under, in the order they should be tried.
var overviewAliases = map[string][]string{
	"currency":   {"Currency", "currency"},
	"fragments":  {"Fragments", "fragments", "fragment"},
	"essences":   {"Essences", "Essence", "essence"},
	"talismans":  {"Talismans", "Talisman", "talismans"},
	"delirium":   {"Delirium", "delirium", "delirious"},
	"abyss":      {"Abyss", "abyss"},
	"omens":      {"Ritual", "Omen", "omen"},
	"catalysts":  {"Breach", "Catalyst", "catalysts"},
	"soul-cores": {"Ultimatum", "SoulCores", "SoulCore"},
	"runes":      {"Runes", "rune"},
	"expeditions": {"Expedition", "expeditions"},
	"uncutgems":  {"UncutGems", "UncutGem", "uncutgems"},
}

// fallbackOverviews are tried after the category's own aliases are
// exhausted; exhaustion of this list too means the temp source has nothing.
var fallbackOverviews = []string{
	"Currency",
	"Fragments",
	"Essence",
	"Talismans",
	"Delirium",
	"Abyss",
	"Ritual",
	"Catalyst",
	"Ultimatum",
	"Runes",
	"Expedition",
	"UncutGems",
}
