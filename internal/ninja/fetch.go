package ninja

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// tempOverviewHeaders are required by the temp endpoint, which otherwise
// serves a cached shell page.
var tempOverviewHeaders = map[string]string{
	"Referer":       "https://poe.ninja/",
	"Pragma":        "no-cache",
	"Cache-Control": "no-cache",
}

// fetchLegacyOverview fetches the poe1 currency overview for a category.
func (c *Client) fetchLegacyOverview(ctx context.Context, league, category string) (*overviewPayload, error) {
	query := url.Values{}
	query.Set("league", league)
	query.Set("type", category)

	body, err := c.fetch(ctx, c.endpoints.PoEBase+"/currencyoverview?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	payload, ok := parseOverview(body)
	if !ok {
		return nil, &NoDataError{League: league, Category: category}
	}
	return payload, nil
}

// parseOverview decodes an overview body, unwrapping a payload envelope if
// present. Only syntactically invalid JSON is rejected; fields of an
// unexpected type degrade to absent.
func parseOverview(body []byte) (*overviewPayload, bool) {
	if !json.Valid(body) {
		return nil, false
	}
	var payload overviewPayload
	decodeTolerant(unwrapPayload(body), &payload)
	return &payload, true
}

// legacyLines picks the legacy overview's line list from its possible keys.
func legacyLines(p *overviewPayload) []Line {
	for _, lines := range [][]Line{p.Lines, p.LineItems, p.Entries, p.Result, p.Results, p.Data} {
		if len(lines) > 0 {
			return lines
		}
	}
	return nil
}

// fetchTempItems runs the temp-overview alias cascade for a category: the
// category's own aliases first, then the fixed fallback list. A failing or
// empty alias is not fatal; only exhaustion is. Returns the item list and
// the alias that supplied it.
func (c *Client) fetchTempItems(ctx context.Context, league, category string) ([]Line, string) {
	normalized := strings.ToLower(category)
	aliases, ok := overviewAliases[normalized]
	if !ok {
		aliases = []string{category}
	}

	tried := make(map[string]struct{})
	for _, alias := range append(append([]string{}, aliases...), fallbackOverviews...) {
		if alias == "" {
			continue
		}
		if _, dup := tried[alias]; dup {
			continue
		}
		tried[alias] = struct{}{}

		items := c.fetchTempItemsOnce(ctx, league, alias)
		if len(items) > 0 {
			return items, alias
		}
	}
	return nil, ""
}

// fetchTempItemsOnce queries the temp overview under one alias.
func (c *Client) fetchTempItemsOnce(ctx context.Context, league, alias string) []Line {
	query := url.Values{}
	query.Set("leagueName", league)
	query.Set("overviewName", alias)

	body, err := c.fetch(ctx, c.endpoints.TempOverview+"?"+query.Encode(), tempOverviewHeaders)
	if err != nil {
		c.logger.Debug("temp overview candidate failed", "alias", alias, "error", err)
		return nil
	}

	if !json.Valid(body) {
		c.logger.Debug("temp overview candidate unparseable", "alias", alias)
		return nil
	}
	var payload overviewPayload
	decodeTolerant(body, &payload)
	for _, lines := range [][]Line{payload.Items, payload.Lines, payload.Entries} {
		if lines != nil {
			return lines
		}
	}
	return nil
}

// fetchOverviewPayload fetches the poe2 currency overview used as the
// secondary merge source. Failure of any kind yields nil, never an error.
func (c *Client) fetchOverviewPayload(ctx context.Context, league, category string) *overviewPayload {
	query := url.Values{}
	query.Set("leagueName", league)
	query.Set("overviewName", category)

	body, err := c.fetch(ctx, c.endpoints.PoE2Base+"/currencyoverview?"+query.Encode(), nil)
	if err != nil {
		c.logger.Debug("overview fetch failed", "category", category, "error", err)
		return nil
	}

	payload, ok := parseOverview(body)
	if !ok {
		c.logger.Debug("overview unparseable", "category", category)
		return nil
	}
	return payload
}

// overviewLines picks the poe2 overview's line list from its possible keys.
func overviewLines(p *overviewPayload) []Line {
	if p == nil {
		return nil
	}
	for _, lines := range [][]Line{p.Lines, p.LineItems, p.Entries, p.Items} {
		if len(lines) > 0 {
			return lines
		}
	}
	return nil
}

// fetchExchangeOverview tries both exchange overview revisions in order and
// returns the first non-empty, parseable payload, nil when both fail.
func (c *Client) fetchExchangeOverview(ctx context.Context, league, category string) *exchangePayload {
	for _, ep := range c.endpoints.ExchangeOverview {
		query := url.Values{}
		query.Set(ep.LeagueParam, league)
		query.Set(ep.CategoryParam, category)

		body, err := c.fetch(ctx, ep.URL+"?"+query.Encode(), nil)
		if err != nil {
			c.logger.Debug("exchange overview candidate failed", "url", ep.URL, "error", err)
			continue
		}

		var keys map[string]json.RawMessage
		if json.Unmarshal(body, &keys) != nil || len(keys) == 0 {
			continue
		}

		var payload exchangePayload
		decodeTolerant(unwrapPayload(body), &payload)
		return &payload
	}
	return nil
}

// fetchExchangeDetails fetches per-item detail payloads, each id cascading
// over both detail endpoint revisions. The loop is capped at maxDetail
// requests regardless of how many ids are offered.
func (c *Client) fetchExchangeDetails(ctx context.Context, league, category string, ids []string) map[string]*detailPayload {
	details := make(map[string]*detailPayload)
	for i, id := range ids {
		if i >= c.maxDetail {
			break
		}
		for _, ep := range c.endpoints.ExchangeDetails {
			query := url.Values{}
			query.Set(ep.LeagueParam, league)
			query.Set(ep.CategoryParam, category)
			query.Set("id", id)

			body, err := c.fetch(ctx, ep.URL+"?"+query.Encode(), nil)
			if err != nil {
				c.logger.Debug("exchange detail candidate failed", "id", id, "url", ep.URL, "error", err)
				continue
			}

			var keys map[string]json.RawMessage
			if json.Unmarshal(body, &keys) != nil || len(keys) == 0 {
				continue
			}

			var payload detailPayload
			decodeTolerant(unwrapPayload(body), &payload)
			details[id] = &payload
			break
		}
	}
	return details
}
