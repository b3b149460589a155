package ninja

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// The upstream schema varies over time, so decoding is tolerant throughout:
// a malformed or unexpectedly-typed field is an absent field, never an
// error. Each scalar type below implements that rule; container types use
// decodeTolerant so one bad field cannot poison an otherwise valid record.

// decodeTolerant unmarshals data into v, discarding type mismatches.
// encoding/json keeps populating the remaining fields after a type error,
// so dropping the returned error leaves every well-typed field set.
func decodeTolerant(data []byte, v any) {
	_ = json.Unmarshal(data, v)
}

// Float is an optional numeric value. It decodes from a JSON number or a
// numeric string; anything else leaves it absent.
type Float struct {
	Value float64
	Valid bool
}

// UnmarshalJSON never fails.
func (f *Float) UnmarshalJSON(data []byte) error {
	*f = Float{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		*f = Float{Value: t, Valid: true}
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			*f = Float{Value: parsed, Valid: true}
		}
	}
	return nil
}

// Truthy reports whether the value is present and non-zero. Sources use 0
// for "unpriced", so multi-candidate cascades skip zeros.
func (f Float) Truthy() bool { return f.Valid && f.Value != 0 }

// firstTruthy returns the first present, non-zero candidate.
func firstTruthy(vals ...Float) (float64, bool) {
	for _, v := range vals {
		if v.Truthy() {
			return v.Value, true
		}
	}
	return 0, false
}

// orChain picks the first truthy candidate, falling back to the final
// operand as-is. Unlike firstTruthy this keeps a present zero in last
// position, which matters for change percentages that are legitimately
// flat.
func orChain(vals ...Float) Float {
	for _, v := range vals[:len(vals)-1] {
		if v.Truthy() {
			return v
		}
	}
	return vals[len(vals)-1]
}

// Str is an optional string: decodes JSON strings, leaves anything else
// empty.
type Str string

// UnmarshalJSON never fails.
func (s *Str) UnmarshalJSON(data []byte) error {
	*s = ""
	var v string
	if err := json.Unmarshal(data, &v); err == nil {
		*s = Str(v)
	}
	return nil
}

func (s Str) String() string { return string(s) }

// ID is a source identifier: a JSON string kept as-is, or a JSON number
// stringified as an integer ("7", never "7.0").
type ID string

// UnmarshalJSON never fails.
func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ""
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		*id = ID(t)
	case float64:
		*id = ID(strconv.FormatInt(int64(t), 10))
	}
	return nil
}

func (id ID) String() string { return string(id) }

// Spark is a trend series node: either a bare array of values or an object
// carrying the series under data/values/sparkLine plus a totalChange.
// Unparseable points are dropped, keeping order.
type Spark struct {
	Data        []float64
	TotalChange Float
}

// UnmarshalJSON never fails.
func (s *Spark) UnmarshalJSON(data []byte) error {
	*s = Spark{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '[' {
		var raw []Float
		decodeTolerant(trimmed, &raw)
		s.Data = floatValues(raw)
		return nil
	}
	var obj struct {
		Data        []Float `json:"data"`
		Values      []Float `json:"values"`
		SparkLine   []Float `json:"sparkLine"`
		TotalChange Float   `json:"totalChange"`
	}
	decodeTolerant(trimmed, &obj)
	s.TotalChange = obj.TotalChange
	switch {
	case len(obj.Data) > 0:
		s.Data = floatValues(obj.Data)
	case len(obj.Values) > 0:
		s.Data = floatValues(obj.Values)
	case len(obj.SparkLine) > 0:
		s.Data = floatValues(obj.SparkLine)
	}
	return nil
}

func floatValues(raw []Float) []float64 {
	var out []float64
	for _, v := range raw {
		if v.Valid {
			out = append(out, v.Value)
		}
	}
	return out
}

// sparkData returns the series of s, or nil when s is absent or empty.
func sparkData(s *Spark) []float64 {
	if s == nil || len(s.Data) == 0 {
		return nil
	}
	return s.Data
}

// sparkChange returns the totalChange of s as a Float.
func sparkChange(s *Spark) Float {
	if s == nil {
		return Float{}
	}
	return s.TotalChange
}

// Value is the polymorphic "value" field: a scalar, or an object exposing
// chaos/chaosValue/value.
type Value struct {
	Scalar     Float
	Chaos      Float
	ChaosValue Float
	Inner      Float
	Object     bool
}

// UnmarshalJSON never fails.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = Value{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		var obj struct {
			Chaos      Float `json:"chaos"`
			ChaosValue Float `json:"chaosValue"`
			Value      Float `json:"value"`
		}
		decodeTolerant(trimmed, &obj)
		v.Object = true
		v.Chaos = obj.Chaos
		v.ChaosValue = obj.ChaosValue
		v.Inner = obj.Value
		return nil
	}
	decodeTolerant(trimmed, &v.Scalar)
	return nil
}

// Rate is the nested per-item rate object. "chaos" is items-per-chaos (the
// reciprocal of a price), "chaosPerItem" the direct price.
type Rate struct {
	ChaosPerItem Float `json:"chaosPerItem"`
	Chaos        Float `json:"chaos"`
	ChaosValue   Float `json:"chaosValue"`
	Divine       Float `json:"divine"`
}

// UnmarshalJSON never fails.
func (r *Rate) UnmarshalJSON(data []byte) error {
	type rate Rate
	var raw rate
	decodeTolerant(data, &raw)
	*r = Rate(raw)
	return nil
}

// Node is any nested record a line may carry (item, currency, receive/pay
// legs, listing). One shape covers them all; absent fields stay zero.
type Node struct {
	ID                ID `json:"id"`
	CurrencyID        ID `json:"currencyId"`
	ReceiveCurrencyID ID `json:"receiveCurrencyId"`
	PayCurrencyID     ID `json:"payCurrencyId"`
	TargetCurrencyID  ID `json:"targetCurrencyId"`
	ItemID            ID `json:"itemId"`
	CurrencyTypeID    ID `json:"currencyTypeId"`

	DetailsID                Str `json:"detailsId"`
	DetailID                 Str `json:"detailId"`
	CurrencyDetailsID        Str `json:"currencyDetailsId"`
	PayCurrencyDetailsID     Str `json:"payCurrencyDetailsId"`
	ReceiveCurrencyDetailsID Str `json:"receiveCurrencyDetailsId"`

	Name             Str `json:"name"`
	DisplayName      Str `json:"displayName"`
	TypeName         Str `json:"typeName"`
	CurrencyTypeName Str `json:"currencyTypeName"`
	Icon             Str `json:"icon"`

	Value           Float `json:"value"`
	ValueChaos      Float `json:"valueChaos"`
	ChaosEquivalent Float `json:"chaosEquivalent"`
	ChaosValue      Float `json:"chaosValue"`
	Count           Float `json:"count"`
	Volume          Float `json:"volume"`
	ListingCount    Float `json:"listingCount"`
	Total           Float `json:"total"`
}

// UnmarshalJSON never fails.
func (n *Node) UnmarshalJSON(data []byte) error {
	type node Node
	var raw node
	decodeTolerant(data, &raw)
	*n = Node(raw)
	return nil
}

// Line is one raw record from any overview- or exchange-style source: the
// union of every field name the shapes are known to use.
type Line struct {
	ID                ID `json:"id"`
	CurrencyID        ID `json:"currencyId"`
	ReceiveCurrencyID ID `json:"receiveCurrencyId"`
	PayCurrencyID     ID `json:"payCurrencyId"`
	TargetCurrencyID  ID `json:"targetCurrencyId"`
	ItemID            ID `json:"itemId"`
	CurrencyTypeID    ID `json:"currencyTypeId"`

	DetailsID                Str `json:"detailsId"`
	DetailID                 Str `json:"detailId"`
	CurrencyDetailsID        Str `json:"currencyDetailsId"`
	PayCurrencyDetailsID     Str `json:"payCurrencyDetailsId"`
	ReceiveCurrencyDetailsID Str `json:"receiveCurrencyDetailsId"`

	Name                    Str `json:"name"`
	CurrencyTypeName        Str `json:"currencyTypeName"`
	DisplayName             Str `json:"displayName"`
	ItemName                Str `json:"itemName"`
	CurrencyName            Str `json:"currencyName"`
	ReceiveCurrencyName     Str `json:"receiveCurrencyName"`
	PayCurrencyName         Str `json:"payCurrencyName"`
	ReceiveCurrencyTypeName Str `json:"receiveCurrencyTypeName"`
	PayCurrencyTypeName     Str `json:"payCurrencyTypeName"`
	TypeName                Str `json:"typeName"`

	ChaosEquivalent      Float `json:"chaosEquivalent"`
	ChaosValue           Float `json:"chaosValue"`
	ValueChaos           Float `json:"valueChaos"`
	SecondaryValue       Float `json:"secondaryValue"`
	Secondary            Float `json:"secondary"`
	Chaos                Float `json:"chaos"`
	PrimaryValue         Float `json:"primaryValue"`
	VolumePrimaryValue   Float `json:"volumePrimaryValue"`
	VolumeSecondaryValue Float `json:"volumeSecondaryValue"`
	Volume               Float `json:"volume"`
	Change               Float `json:"change"`
	Count                Float `json:"count"`
	ListingCount         Float `json:"listingCount"`
	Total                Float `json:"total"`

	Value Value `json:"value"`
	Rate  *Rate `json:"rate"`

	SparkLine        *Spark `json:"sparkLine"`
	SparklineAlt     *Spark `json:"sparkline"`
	ReceiveSparkLine *Spark `json:"receiveSparkLine"`
	PaySparkLine     *Spark `json:"paySparkLine"`

	Receive        *Node `json:"receive"`
	Pay            *Node `json:"pay"`
	Listing        *Node `json:"listing"`
	ReceiveListing *Node `json:"receiveListing"`

	Item            *Node `json:"item"`
	Currency        *Node `json:"currency"`
	PayCurrency     *Node `json:"payCurrency"`
	TargetCurrency  *Node `json:"targetCurrency"`
	ReceiveCurrency *Node `json:"receiveCurrency"`
	CurrencyDetails *Node `json:"currencyDetails"`
	Details         *Node `json:"details"`
}

// UnmarshalJSON never fails.
func (l *Line) UnmarshalJSON(data []byte) error {
	type line Line
	var raw line
	decodeTolerant(data, &raw)
	*l = Line(raw)
	return nil
}

// detailEntry is one metadata record from a currencyDetails block, possibly
// nesting the interesting fields one level under "details".
type detailEntry struct {
	Name             Str          `json:"name"`
	CurrencyTypeName Str          `json:"currencyTypeName"`
	DisplayName      Str          `json:"displayName"`
	Icon             Str          `json:"icon"`
	DetailsID        Str          `json:"detailsId"`
	ID               ID           `json:"id"`
	CurrencyID       ID           `json:"currencyId"`
	Details          *detailEntry `json:"details"`
}

// UnmarshalJSON never fails.
func (d *detailEntry) UnmarshalJSON(data []byte) error {
	type entry detailEntry
	var raw entry
	decodeTolerant(data, &raw)
	*d = detailEntry(raw)
	return nil
}

// detailList decodes a currencyDetails block delivered either as an array
// or as an object keyed by identifier. For the object shape, keys are
// sorted so later-wins merging stays deterministic.
type detailList []detailEntry

// UnmarshalJSON never fails.
func (d *detailList) UnmarshalJSON(data []byte) error {
	*d = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '[':
		var entries []detailEntry
		decodeTolerant(trimmed, &entries)
		*d = entries
	case '{':
		var byKey map[string]detailEntry
		decodeTolerant(trimmed, &byKey)
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			*d = append(*d, byKey[k])
		}
	}
	return nil
}

// overviewPayload is the legacy/temp overview body: the line list may hide
// under several keys and the metadata block under several more. Pickers in
// fetch.go choose among them in per-source priority order.
type overviewPayload struct {
	Lines     []Line `json:"lines"`
	LineItems []Line `json:"lineItems"`
	Entries   []Line `json:"entries"`
	Items     []Line `json:"items"`
	Result    []Line `json:"result"`
	Results   []Line `json:"results"`
	Data      []Line `json:"data"`

	CurrencyDetails    detailList `json:"currencyDetails"`
	CurrencyDetailsMap detailList `json:"currencyDetailsMap"`
	CurrencyData       detailList `json:"currencyData"`
	DetailsBlock       detailList `json:"details"`
}

// details returns the first present metadata block.
func (p *overviewPayload) details() detailList {
	for _, block := range []detailList{p.CurrencyDetails, p.CurrencyDetailsMap, p.CurrencyData, p.DetailsBlock} {
		if len(block) > 0 {
			return block
		}
	}
	return nil
}

// exchangeItem is one entry of the exchange overview's item metadata list.
type exchangeItem struct {
	ID        ID  `json:"id"`
	Name      Str `json:"name"`
	DetailsID Str `json:"detailsId"`
	Image     Str `json:"image"`
}

// UnmarshalJSON never fails.
func (e *exchangeItem) UnmarshalJSON(data []byte) error {
	type item exchangeItem
	var raw item
	decodeTolerant(data, &raw)
	*e = exchangeItem(raw)
	return nil
}

// coreRates is the exchange core's rate table.
type coreRates struct {
	Chaos     Float `json:"chaos"`
	Secondary Float `json:"secondary"`
	Divine    Float `json:"divine"`
}

// UnmarshalJSON never fails.
func (r *coreRates) UnmarshalJSON(data []byte) error {
	type rates coreRates
	var raw rates
	decodeTolerant(data, &raw)
	*r = coreRates(raw)
	return nil
}

// exchangeCore declares the order book's unit pair and conversion rates.
type exchangeCore struct {
	Primary   Str       `json:"primary"`
	Secondary Str       `json:"secondary"`
	Rates     coreRates `json:"rates"`
}

// UnmarshalJSON never fails.
func (c *exchangeCore) UnmarshalJSON(data []byte) error {
	type core exchangeCore
	var raw core
	decodeTolerant(data, &raw)
	*c = exchangeCore(raw)
	return nil
}

// exchangePayload is the exchange overview body.
type exchangePayload struct {
	Items []exchangeItem `json:"items"`
	Lines []Line         `json:"lines"`
	Core  *exchangeCore  `json:"core"`
}

// detailPayload is one item's exchange detail body.
type detailPayload struct {
	Line             *Line   `json:"line"`
	SparkLine        *Spark  `json:"sparkLine"`
	ReceiveSparkLine *Spark  `json:"receiveSparkLine"`
	PaySparkLine     *Spark  `json:"paySparkLine"`
	History          history `json:"history"`
	TotalChange      Float   `json:"totalChange"`
	TotalVolume      Float   `json:"totalVolume"`
	Volume           Float   `json:"volume"`
	Icon             Str     `json:"icon"`
	Name             Str     `json:"name"`
}

// history is a detail page's price history: scalars, or points exposing
// value/chaosValue/secondaryValue. Unparseable points are dropped.
type history []float64

// UnmarshalJSON never fails.
func (h *history) UnmarshalJSON(data []byte) error {
	*h = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var points []json.RawMessage
	decodeTolerant(trimmed, &points)
	for _, p := range points {
		p = bytes.TrimSpace(p)
		if len(p) == 0 {
			continue
		}
		if p[0] == '{' {
			var obj struct {
				Value          Float `json:"value"`
				ChaosValue     Float `json:"chaosValue"`
				SecondaryValue Float `json:"secondaryValue"`
			}
			decodeTolerant(p, &obj)
			if v, ok := firstTruthy(obj.Value, obj.ChaosValue, obj.SecondaryValue); ok {
				*h = append(*h, v)
			}
			continue
		}
		var f Float
		decodeTolerant(p, &f)
		if f.Valid {
			*h = append(*h, f.Value)
		}
	}
	return nil
}

// payloadNode extracts a non-empty "payload" object from body, if any.
func payloadNode(body []byte) ([]byte, bool) {
	var env struct {
		Payload json.RawMessage `json:"payload"`
	}
	if json.Unmarshal(body, &env) != nil {
		return nil, false
	}
	var keys map[string]json.RawMessage
	if json.Unmarshal(env.Payload, &keys) != nil || len(keys) == 0 {
		return nil, false
	}
	return env.Payload, true
}

// unwrapPayload returns the payload object when present and non-empty, or
// the body itself.
func unwrapPayload(body []byte) []byte {
	if p, ok := payloadNode(body); ok {
		return p
	}
	return body
}
