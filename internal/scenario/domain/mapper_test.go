package scenario

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func sampleCells() []string {
	return []string{
		"40.1", "-74.2", "1000", "2", "node1",
		"0.4", "1600", "20", "0.005", "5", "0.26", "0", "1", "16", "0", "180", "100",
		"2023", "0.95",
		"10", "7", "true", "0.6", "300", "200", "900", "450", "0.3", "0.96",
		"0.02", "0.06", "0.07", "0.26", "0.21", "0.025",
		"[0.5, 0.5]",
	}
}

func testSettings() Settings {
	return Settings{URDBLabel: "56f071345457a351557112bc", LoadProfilePath: "loads/test_load.csv"}
}

func newTestMapper(t *testing.T, mapping Mapping, profile Profile, optional ...string) *Mapper {
	t.Helper()
	mapper, err := NewMapper(mapping, profile, testSettings(), optional)
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}
	return mapper
}

func TestMapperDefaultMapping(t *testing.T) {
	mapper := newTestMapper(t, DefaultMapping(), ProfileTyped)
	doc, err := mapper.Map(Row{Index: 0, Cells: sampleCells()})
	if err != nil {
		t.Fatalf("map: %v", err)
	}

	wantSections := "Site,PV,ElectricLoad,ElectricStorage,ElectricTariff,Financial"
	if got := strings.Join(doc.SectionNames(), ","); got != wantSections {
		t.Fatalf("expected sections %s, got %s", wantSections, got)
	}

	checks := []struct {
		section, field string
		want           any
	}{
		{"Site", "longitude", 40.1},
		{"Site", "latitude", -74.2},
		{"Site", "roof_squarefeet", int64(1000)},
		{"Site", "node", "node1"},
		{"PV", "macrs_bonus_fraction", 0.4},
		{"PV", "macrs_option_years", int64(5)},
		{"PV", "module_type", int64(0)},
		{"PV", "array_type", int64(1)},
		{"PV", "federal_rebate_per_kw", int64(100)},
		{"ElectricLoad", "path_to_csv", "loads/test_load.csv"},
		{"ElectricLoad", "critical_load_fraction", 0.95},
		{"ElectricLoad", "year", "2023"},
		{"ElectricStorage", "macrs_option_years", int64(7)},
		{"ElectricStorage", "can_grid_charge", true},
		{"ElectricStorage", "charge_efficiency", 0.96},
		{"ElectricTariff", "urdb_label", "56f071345457a351557112bc"},
		{"Financial", "elec_cost_escalation_rate_fraction", 0.02},
		{"Financial", "om_cost_escalation_rate_fraction", 0.025},
	}
	for _, c := range checks {
		got, ok := doc.Lookup(c.section, c.field)
		if !ok {
			t.Fatalf("expected %s.%s to be present", c.section, c.field)
		}
		if got != c.want {
			t.Fatalf("%s.%s: expected %#v, got %#v", c.section, c.field, c.want, got)
		}
	}
	if _, ok := doc.Lookup("ElectricUtility", "outage_probabilities"); ok {
		t.Fatalf("expected optional section to be omitted")
	}
}

func TestMapperOptionalSection(t *testing.T) {
	mapper := newTestMapper(t, DefaultMapping(), ProfileTyped, "ElectricUtility")
	if mapper.Width() != 36 {
		t.Fatalf("expected width 36, got %d", mapper.Width())
	}
	doc, err := mapper.Map(Row{Cells: sampleCells()})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	got, ok := doc.Lookup("ElectricUtility", "outage_probabilities")
	if !ok || got != "[0.5, 0.5]" {
		t.Fatalf("expected outage probabilities text, got %#v", got)
	}
}

func TestMapperRejectsUnknownOptionalSection(t *testing.T) {
	_, err := NewMapper(DefaultMapping(), ProfileTyped, testSettings(), []string{"PV"})
	if !errors.Is(err, ErrInvalidMapping) {
		t.Fatalf("expected ErrInvalidMapping, got %v", err)
	}
}

func TestMapperRequiresSettings(t *testing.T) {
	_, err := NewMapper(DefaultMapping(), ProfileTyped, Settings{URDBLabel: "label"}, nil)
	if !errors.Is(err, ErrInvalidMapping) {
		t.Fatalf("expected ErrInvalidMapping for missing load profile path, got %v", err)
	}
}

func TestMapperMissingField(t *testing.T) {
	mapper := newTestMapper(t, DefaultMapping(), ProfileTyped, "ElectricUtility")
	cells := sampleCells()[:30]
	_, err := mapper.Map(Row{Index: 4, Cells: cells})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %T", err)
	}
	if missing.Row != 4 || missing.Column != 30 || missing.Field != "Financial.offtaker_discount_rate_fraction" {
		t.Fatalf("unexpected missing field report: %+v", missing)
	}
	if !strings.HasPrefix(err.Error(), "scenario: row 5: missing column 30") {
		t.Fatalf("expected 1-based row in message, got %q", err.Error())
	}
}

func TestMapperCoercionError(t *testing.T) {
	mapper := newTestMapper(t, AnnualLoadMapping(), ProfileTyped)
	cells := sampleCells()
	_, err := mapper.Map(Row{Index: 2, Cells: cells})
	if !errors.Is(err, ErrTypeCoercion) {
		t.Fatalf("expected ErrTypeCoercion for node1 as int, got %v", err)
	}
	var coercion *CoercionError
	if !errors.As(err, &coercion) || coercion.Column != 4 || coercion.Field != "Site.node" {
		t.Fatalf("unexpected coercion report: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "scenario: row 3: column 4") {
		t.Fatalf("expected 1-based row in message, got %q", err.Error())
	}
}

func TestMapperAnnualLoadMapping(t *testing.T) {
	mapper := newTestMapper(t, AnnualLoadMapping(), ProfileTyped)
	cells := sampleCells()
	cells[4] = "12"
	cells[18] = "1500000"
	doc, err := mapper.Map(Row{Cells: cells})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	checks := map[string]any{
		"Site.node":                           int64(12),
		"PV.macrs_bonus_fraction":             0.4,
		"ElectricLoad.annual_kwh":             int64(1500000),
		"ElectricLoad.doe_reference_name":     "LargeOffice",
		"ElectricLoad.critical_load_fraction": 0.4,
		"ElectricLoad.year":                   int64(2023),
	}
	for key, want := range checks {
		parts := strings.SplitN(key, ".", 2)
		got, _ := doc.Lookup(parts[0], parts[1])
		if got != want {
			t.Fatalf("%s: expected %#v, got %#v", key, want, got)
		}
	}
	if _, ok := doc.Lookup("ElectricLoad", "path_to_csv"); ok {
		t.Fatalf("annual-load mapping must not reference a load profile path")
	}
}

func TestMapperAllStringProfile(t *testing.T) {
	mapper := newTestMapper(t, AnnualLoadMapping(), ProfileAllString, "ElectricUtility")
	doc, err := mapper.Map(Row{Cells: sampleCells()})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	for _, section := range doc.Sections {
		for _, field := range section.Fields {
			if _, ok := field.Value.(string); !ok {
				t.Fatalf("%s.%s: expected string, got %T", section.Name, field.Name, field.Value)
			}
		}
	}
	if got, _ := doc.Lookup("Site", "node"); got != "node1" {
		t.Fatalf("expected raw node text, got %#v", got)
	}
	if got, _ := doc.Lookup("PV", "macrs_bonus_fraction"); got != "0.4" {
		t.Fatalf("expected constant rendered as text, got %#v", got)
	}
	if got, _ := doc.Lookup("ElectricStorage", "can_grid_charge"); got != "true" {
		t.Fatalf("expected raw grid charge text, got %#v", got)
	}
}

func TestCanGridCharge(t *testing.T) {
	mapper := newTestMapper(t, DefaultMapping(), ProfileTyped)
	cases := map[string]bool{
		"true":  true,
		"TRUE":  true,
		"True":  true,
		"True ": false,
		"1":     false,
		"":      false,
		"yes":   false,
	}
	for raw, want := range cases {
		cells := sampleCells()
		cells[21] = raw
		doc, err := mapper.Map(Row{Cells: cells})
		if err != nil {
			t.Fatalf("map %q: %v", raw, err)
		}
		got, _ := doc.Lookup("ElectricStorage", "can_grid_charge")
		if got != want {
			t.Fatalf("can_grid_charge(%q): expected %v, got %v", raw, want, got)
		}
	}
}

func TestModuleAndArrayCodesPassThrough(t *testing.T) {
	mapper := newTestMapper(t, DefaultMapping(), ProfileTyped)
	for code := 0; code <= 3; code++ {
		cells := sampleCells()
		cells[11] = string(rune('0' + code))
		cells[12] = string(rune('0' + code))
		doc, err := mapper.Map(Row{Cells: cells})
		if err != nil {
			t.Fatalf("map: %v", err)
		}
		module, _ := doc.Lookup("PV", "module_type")
		array, _ := doc.Lookup("PV", "array_type")
		if module != int64(code) || array != int64(code) {
			t.Fatalf("expected codes %d to pass through, got module=%v array=%v", code, module, array)
		}
	}
}

func TestDocumentEncodeDeterministic(t *testing.T) {
	mapper := newTestMapper(t, DefaultMapping(), ProfileTyped)
	row := Row{Cells: sampleCells()}
	first, err := mapper.Map(row)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	second, _ := mapper.Map(row)
	a, err := first.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, _ := second.Encode()
	if string(a) != string(b) {
		t.Fatalf("expected identical encodings")
	}
	if !strings.HasPrefix(string(a), "{\n    \"Site\": {\n        \"longitude\": 40.1,") {
		t.Fatalf("unexpected layout:\n%s", a)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(a, &decoded); err != nil {
		t.Fatalf("document is not valid json: %v", err)
	}
	if decoded["ElectricStorage"]["can_grid_charge"] != true {
		t.Fatalf("expected can_grid_charge true after decode")
	}
}

func TestDocumentName(t *testing.T) {
	if got := DocumentName("", 0); got != "case_1.json" {
		t.Fatalf("expected case_1.json, got %s", got)
	}
	if got := DocumentName("scenario-{n}.json", 41); got != "scenario-42.json" {
		t.Fatalf("expected scenario-42.json, got %s", got)
	}
}
