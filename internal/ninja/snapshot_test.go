package ninja

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

const testExchangeBody = `{
	"core": {"primary": "exalt", "secondary": "chaos", "rates": {"chaos": 12, "divine": 180}},
	"items": [
		{"id": "divine-orb", "name": "Divine Orb", "detailsId": "divine-orb", "image": "/images/divine.png"},
		{"id": "exalted-orb", "name": "Exalted Orb", "detailsId": "exalted-orb"},
		{"id": "chaos-orb", "name": "Chaos Orb", "detailsId": "chaos-orb"}
	],
	"lines": [
		{"id": "divine-orb", "primaryValue": 15, "volume": 321},
		{"id": "exalted-orb", "primaryValue": 1},
		{"id": "chaos-orb", "secondaryValue": 1}
	]
}`

const testOverviewBody = `{
	"lines": [
		{
			"currencyTypeName": "Divine Orb",
			"detailsId": "divine-orb",
			"chaosEquivalent": 182,
			"receiveSparkLine": {"totalChange": 3.2, "data": [1, 2, 3]}
		}
	],
	"currencyDetails": [
		{"name": "Divine Orb", "detailsId": "divine-orb", "icon": "/img/divine.png"}
	]
}`

const testDivineDetailBody = `{
	"line": {"secondaryValue": 182},
	"name": "Divine Orb",
	"totalVolume": 400
}`

func TestFetchSnapshotModern(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/poe2/api/economy/exchange/current/overview":
			w.Write([]byte(testExchangeBody))
		case "/poe2/api/economy/currencyoverview":
			w.Write([]byte(testOverviewBody))
		case "/poe2/api/economy/exchange/current/details":
			if r.URL.Query().Get("id") == "divine-orb" {
				w.Write([]byte(testDivineDetailBody))
				return
			}
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	snap, err := c.FetchSnapshot(context.Background(), "Standard", "Currency")
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if snap.ID == uuid.Nil {
		t.Error("snapshot id not assigned")
	}
	if snap.League != "Standard" {
		t.Errorf("league = %q", snap.League)
	}
	if snap.Source != "Currency:poe2-exchange" {
		t.Errorf("source = %q, want Currency:poe2-exchange", snap.Source)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("fetched_at not stamped")
	}

	if len(snap.Entities) != 3 {
		t.Fatalf("entities = %d, want 3", len(snap.Entities))
	}
	var names []string
	for _, e := range snap.Entities {
		names = append(names, e.Name)
	}
	// Highest value first.
	want := []string{"Divine Orb", "Exalted Orb", "Chaos Orb"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("order = %v, want %v", names, want)
	}

	divine := snap.Entities[0]
	// The detail pass has the last word on value: 180 from the order book,
	// 182 once the per-item detail lands.
	if divine.ChaosValue != 182 {
		t.Errorf("divine chaos = %v, want 182", divine.ChaosValue)
	}
	if divine.DivineValue == nil || *divine.DivineValue != 182.0/180 {
		t.Errorf("divine self-rate = %v, want %v", divine.DivineValue, 182.0/180)
	}
	if divine.ChangePercent == nil || *divine.ChangePercent != 3.2 {
		t.Errorf("divine change = %v, want 3.2 from the overview", divine.ChangePercent)
	}
	if !reflect.DeepEqual(divine.Sparkline, []float64{1, 2, 3}) {
		t.Errorf("divine sparkline = %v", divine.Sparkline)
	}
	if divine.TradeCount == nil || *divine.TradeCount != 321 {
		t.Errorf("divine trade count = %v, want 321 from the order book", divine.TradeCount)
	}
	if divine.IconURL != "https://poe.ninja/images/divine.png" {
		t.Errorf("divine icon = %q, want the item image resolved absolute", divine.IconURL)
	}
	if divine.ExaltValue == nil || *divine.ExaltValue != 182.0/12 {
		t.Errorf("divine exalt value = %v, want %v", divine.ExaltValue, 182.0/12)
	}

	exalt := snap.Entities[1]
	if exalt.ChaosValue != 12 {
		t.Errorf("exalt chaos = %v, want 12", exalt.ChaosValue)
	}
	if exalt.ExaltValue == nil || *exalt.ExaltValue != 1 {
		t.Errorf("exalt self-ratio = %v, want 1", exalt.ExaltValue)
	}

	chaos := snap.Entities[2]
	if chaos.ChaosValue != 1 {
		t.Errorf("chaos orb = %v, want 1", chaos.ChaosValue)
	}
	if chaos.DivineValue == nil || *chaos.DivineValue != 1.0/180 {
		t.Errorf("chaos divine value = %v", chaos.DivineValue)
	}
}

func TestFetchSnapshotTiesKeepEncounterOrder(t *testing.T) {
	// Three equally-priced lines around one pricier one: the sort moves the
	// pricier line first and leaves the tie in source order.
	body := `{"lines":[
		{"currencyTypeName": "Orb of Alchemy", "chaosEquivalent": 5},
		{"currencyTypeName": "Orb of Fusing", "chaosEquivalent": 5},
		{"currencyTypeName": "Divine Orb", "chaosEquivalent": 50},
		{"currencyTypeName": "Orb of Alteration", "chaosEquivalent": 5}
	]}`
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}), WithGame(GamePoE))

	snap, err := c.FetchSnapshot(context.Background(), "Standard", "Currency")
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}

	var names []string
	for _, e := range snap.Entities {
		names = append(names, e.Name)
	}
	want := []string{"Divine Orb", "Orb of Alchemy", "Orb of Fusing", "Orb of Alteration"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("order = %v, want %v", names, want)
	}
}

func TestFetchSnapshotDeterministic(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/poe2/api/economy/exchange/current/overview":
			w.Write([]byte(testExchangeBody))
		case "/poe2/api/economy/currencyoverview":
			w.Write([]byte(testOverviewBody))
		case "/poe2/api/economy/exchange/current/details":
			if r.URL.Query().Get("id") == "divine-orb" {
				w.Write([]byte(testDivineDetailBody))
				return
			}
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	c := newTestClient(t, handler)

	first, err := c.FetchSnapshot(context.Background(), "Standard", "Currency")
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	second, err := c.FetchSnapshot(context.Background(), "Standard", "Currency")
	if err != nil {
		t.Fatalf("FetchSnapshot (repeat): %v", err)
	}
	if !reflect.DeepEqual(first.Entities, second.Entities) {
		t.Errorf("repeat run diverged:\nfirst  = %+v\nsecond = %+v", first.Entities, second.Entities)
	}

	// A fresh client over the same raw inputs agrees too.
	fresh, err := newTestClient(t, handler).FetchSnapshot(context.Background(), "Standard", "Currency")
	if err != nil {
		t.Fatalf("FetchSnapshot (fresh client): %v", err)
	}
	if !reflect.DeepEqual(first.Entities, fresh.Entities) {
		t.Errorf("fresh client diverged:\nfirst = %+v\nfresh = %+v", first.Entities, fresh.Entities)
	}
}

func TestFetchSnapshotTempFallbackProvenance(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/poe2/api/economy/temp/overview" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("overviewName") != "Ritual" {
			w.Write([]byte(`{"items":[]}`))
			return
		}
		w.Write([]byte(`{"items":[{"id":"omen-of-amelioration","name":"Omen of Amelioration","detailsId":"omen-of-amelioration","chaosValue":5}]}`))
	}))

	snap, err := c.FetchSnapshot(context.Background(), "Standard", "omens")
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if snap.Source != "omens:poe2-temp/Ritual" {
		t.Errorf("source = %q, want the winning alias recorded", snap.Source)
	}
	if len(snap.Entities) != 1 {
		t.Fatalf("entities = %d, want 1", len(snap.Entities))
	}
	e := snap.Entities[0]
	if e.Name != "Omen of Amelioration" || e.ChaosValue != 5 {
		t.Errorf("entity = %q/%v", e.Name, e.ChaosValue)
	}
	if e.DivineValue != nil {
		t.Errorf("divine value = %v, want nil without a rate", *e.DivineValue)
	}
}

func TestFetchSnapshotExhaustedSources(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/poe2/api/economy/temp/overview" {
			w.Write([]byte(`{"items":[]}`))
			return
		}
		http.NotFound(w, r)
	}))

	_, err := c.FetchSnapshot(context.Background(), "Standard", "omens")
	var noData *NoDataError
	if !errors.As(err, &noData) {
		t.Fatalf("err = %v, want *NoDataError", err)
	}
	if noData.Category != "omens" || noData.League != "Standard" {
		t.Errorf("error fields = %+v", noData)
	}
}

const testLegacyBody = `{
	"lines": [
		{
			"currencyTypeName": "Divine Orb",
			"detailsId": "divine-orb",
			"chaosEquivalent": 220,
			"receiveSparkLine": {"totalChange": 1.5, "data": [5, 6]},
			"receive": {"count": 12}
		},
		{"currencyTypeName": "Exalted Orb", "detailsId": "exalted-orb", "chaosEquivalent": 20},
		{
			"receiveCurrencyName": "Mirror of Kalandra",
			"payCurrencyName": "Divine Orb",
			"receive": {"value": 9000}
		}
	],
	"currencyDetails": [
		{"name": "Divine Orb", "detailsId": "divine-orb", "icon": "https://cdn.example/divine.png"}
	]
}`

func TestFetchSnapshotLegacy(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/data/currencyoverview" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("league") != "Standard" || r.URL.Query().Get("type") != "Currency" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Write([]byte(testLegacyBody))
	}), WithGame(GamePoE))

	snap, err := c.FetchSnapshot(context.Background(), "Standard", "Currency")
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if snap.Source != "Currency:currencyoverview" {
		t.Errorf("source = %q", snap.Source)
	}
	if len(snap.Entities) != 3 {
		t.Fatalf("entities = %d, want 3", len(snap.Entities))
	}

	mirror := snap.Entities[0]
	if mirror.Name != "Mirror of Kalandra for Divine Orb" {
		t.Errorf("pair listing name = %q", mirror.Name)
	}
	if mirror.ChaosValue != 9000 {
		t.Errorf("pair listing chaos = %v, want the receive leg's value", mirror.ChaosValue)
	}
	if mirror.ExaltValue == nil || *mirror.ExaltValue != 450 {
		t.Errorf("pair listing exalt value = %v, want 450", mirror.ExaltValue)
	}

	divine := snap.Entities[1]
	if divine.ChaosValue != 220 {
		t.Errorf("divine chaos = %v", divine.ChaosValue)
	}
	if divine.DivineValue == nil || *divine.DivineValue != 1 {
		t.Errorf("divine self-rate = %v, want 1", divine.DivineValue)
	}
	if divine.TradeCount == nil || *divine.TradeCount != 12 {
		t.Errorf("divine trade count = %v, want 12", divine.TradeCount)
	}
	if divine.ChangePercent == nil || *divine.ChangePercent != 1.5 {
		t.Errorf("divine change = %v", divine.ChangePercent)
	}
	if divine.IconURL != "https://cdn.example/divine.png" {
		t.Errorf("divine icon = %q, want the detail block's icon", divine.IconURL)
	}
}

func TestFetchSnapshotLegacyNoData(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lines":[]}`))
	}), WithGame(GamePoE))

	_, err := c.FetchSnapshot(context.Background(), "Standard", "Currency")
	var noData *NoDataError
	if !errors.As(err, &noData) {
		t.Fatalf("err = %v, want *NoDataError", err)
	}
}

func TestFetchSnapshotLegacyTransportError(t *testing.T) {
	// The single-candidate legacy overview has no fallback to try, so a
	// transport failure surfaces as-is rather than as "no data".
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}), WithGame(GamePoE))

	_, err := c.FetchSnapshot(context.Background(), "Standard", "Currency")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", apiErr.StatusCode)
	}
}
