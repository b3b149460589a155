package ninja

import "testing"

func fv(v float64) Float { return Float{Value: v, Valid: true} }

func TestChaosFromLine(t *testing.T) {
	tests := []struct {
		name       string
		line       Line
		divineRate float64
		want       float64
		wantNil    bool
	}{
		{
			name: "chaosEquivalent wins over everything",
			line: Line{
				ChaosEquivalent: fv(182),
				ChaosValue:      fv(100),
				PrimaryValue:    fv(5),
				Rate:            &Rate{ChaosPerItem: fv(7)},
			},
			divineRate: 180,
			want:       182,
		},
		{
			name: "zero chaosEquivalent falls through to chaosValue",
			line: Line{ChaosEquivalent: fv(0), ChaosValue: fv(95)},
			want: 95,
		},
		{
			name:       "primaryValue scaled by divine rate",
			line:       Line{PrimaryValue: fv(1.5)},
			divineRate: 180,
			want:       270,
		},
		{
			name:    "primaryValue unusable without a rate",
			line:    Line{PrimaryValue: fv(1.5)},
			wantNil: true,
		},
		{
			name:       "volumePrimaryValue scaled when primaryValue absent",
			line:       Line{VolumePrimaryValue: fv(2)},
			divineRate: 100,
			want:       200,
		},
		{
			name: "rate chaosPerItem, zero counts as present",
			line: Line{Rate: &Rate{ChaosPerItem: fv(0), Chaos: fv(4)}},
			want: 0,
		},
		{
			name: "rate chaos inverts",
			line: Line{Rate: &Rate{Chaos: fv(4)}},
			want: 0.25,
		},
		{
			name: "rate divine scaled",
			line: Line{Rate: &Rate{Divine: fv(2)}},

			divineRate: 150,
			want:       300,
		},
		{
			name:    "nothing resolves",
			line:    Line{},
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chaosFromLine(&tt.line, tt.divineRate)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("chaosFromLine() = %v, want nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatal("chaosFromLine() = nil, want value")
			}
			if *got != tt.want {
				t.Errorf("chaosFromLine() = %v, want %v", *got, tt.want)
			}
		})
	}
}

func TestRowChaosValue(t *testing.T) {
	tests := []struct {
		name    string
		row     Line
		rate    float64
		want    float64
		wantNil bool
	}{
		{
			name: "direct chaosValue wins, even zero",
			row:  Line{ChaosValue: fv(0), Rate: &Rate{ChaosPerItem: fv(9)}},
			want: 0,
		},
		{
			name: "rate chaos inversion beats chaosPerItem",
			row:  Line{Rate: &Rate{Chaos: fv(2), ChaosPerItem: fv(9)}},
			want: 0.5,
		},
		{
			name: "value object chaos",
			row:  Line{Value: Value{Object: true, Chaos: fv(33)}},
			want: 33,
		},
		{
			name: "scalar value fallback",
			row:  Line{Value: Value{Scalar: fv(12)}},
			want: 12,
		},
		{
			name:    "empty row",
			row:     Line{},
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rowChaosValue(&tt.row, tt.rate)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("rowChaosValue() = %v, want nil", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("rowChaosValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExchangeChaosValue(t *testing.T) {
	tests := []struct {
		name    string
		line    Line
		cpp     float64
		want    float64
		wantNil bool
	}{
		{
			name: "primary scaled by chaos-per-primary",
			line: Line{PrimaryValue: fv(3), SecondaryValue: fv(50)},
			cpp:  12,
			want: 36,
		},
		{
			name: "secondary used when no rate",
			line: Line{PrimaryValue: fv(3), SecondaryValue: fv(50)},
			want: 50,
		},
		{
			name: "chaosEquivalent chain",
			line: Line{ChaosEquivalent: fv(7)},
			want: 7,
		},
		{
			name: "rate inversion last",
			line: Line{Rate: &Rate{Chaos: fv(5)}},
			want: 0.2,
		},
		{
			name:    "nothing resolves",
			line:    Line{},
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exchangeChaosValue(&tt.line, tt.cpp)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("exchangeChaosValue() = %v, want nil", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("exchangeChaosValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChaosPerPrimary(t *testing.T) {
	tests := []struct {
		name string
		core *exchangeCore
		want float64
	}{
		{"nil core", nil, 0},
		{"primary is chaos", &exchangeCore{Primary: "chaos"}, 1},
		{"secondary is chaos with rate", &exchangeCore{Primary: "exalt", Secondary: "chaos", Rates: coreRates{Chaos: fv(12)}}, 12},
		{"secondary rate fallback", &exchangeCore{Primary: "exalt", Rates: coreRates{Secondary: fv(8)}}, 8},
		{"nothing declared", &exchangeCore{Primary: "exalt"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chaosPerPrimary(tt.core); got != tt.want {
				t.Errorf("chaosPerPrimary() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDivineRateFromCore(t *testing.T) {
	tests := []struct {
		name string
		core *exchangeCore
		cpp  float64
		want float64
	}{
		{"nil core passes through", nil, 12, 12},
		{"divine primary uses cpp", &exchangeCore{Primary: "divine"}, 180, 180},
		{"explicit divine rate", &exchangeCore{Primary: "exalt", Rates: coreRates{Divine: fv(175)}}, 12, 175},
		{"fallback to cpp", &exchangeCore{Primary: "exalt"}, 12, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := divineRateFromCore(tt.core, tt.cpp); got != tt.want {
				t.Errorf("divineRateFromCore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDivineRateFromRows(t *testing.T) {
	rows := []Line{
		{Name: "Exalted Orb", ChaosValue: fv(12)},
		{Name: "Divine Orb", ChaosValue: fv(0), Rate: &Rate{Chaos: fv(0.25)}},
	}
	if got := divineRateFromRows(rows); got != 4 {
		t.Errorf("divineRateFromRows() = %v, want 4", got)
	}

	// Nested item name also matches.
	rows = []Line{{Item: &Node{Name: "Divine Orb"}, PrimaryValue: fv(190)}}
	if got := divineRateFromRows(rows); got != 190 {
		t.Errorf("divineRateFromRows() with nested name = %v, want 190", got)
	}

	if got := divineRateFromRows([]Line{{Name: "Chaos Orb"}}); got != 0 {
		t.Errorf("divineRateFromRows() without a divine listing = %v, want 0", got)
	}
}

func TestLegacyDivineRateStopsAtFirstMatch(t *testing.T) {
	// The scan commits to the first matching line even when it carries no
	// usable value; a later divine listing must not be consulted.
	lines := []Line{
		{CurrencyTypeName: "Divine Orb"},
		{CurrencyTypeName: "Divine Orb", ChaosEquivalent: fv(210)},
	}
	if got := legacyDivineRate(lines); got != 0 {
		t.Errorf("legacyDivineRate() = %v, want 0 from the first match", got)
	}

	lines = []Line{
		{CurrencyTypeName: "Exalted Orb", ChaosEquivalent: fv(20)},
		{DetailsID: "divine-orb", ChaosEquivalent: fv(205)},
	}
	if got := legacyDivineRate(lines); got != 205 {
		t.Errorf("legacyDivineRate() = %v, want 205", got)
	}
}
