package scenario

import (
	"fmt"
	"strings"
)

const (
	// MappingDefault reads the load profile from a configured CSV path.
	MappingDefault = "default"
	// MappingAnnualLoad derives the load from an annual kWh column and a DOE reference building.
	MappingAnnualLoad = "annual-load"
)

// DefaultMapping is the canonical scenario table layout.
func DefaultMapping() Mapping {
	return Mapping{
		Name: MappingDefault,
		Sections: []SectionSpec{
			siteSection(CoerceAuto),
			pvSection(Col("macrs_bonus_fraction", 5, CoerceAuto)),
			{
				Name: "ElectricLoad",
				Fields: []FieldSpec{
					FromSetting("path_to_csv", SettingLoadProfilePath),
					Col("critical_load_fraction", 18, CoerceAuto),
					Col("year", 17, CoerceString),
				},
			},
			storageSection(),
			tariffSection(),
			financialSection(),
			utilitySection(),
		},
	}
}

// AnnualLoadMapping replaces the load profile path with annual consumption and
// pins the PV bonus depreciation fraction.
func AnnualLoadMapping() Mapping {
	return Mapping{
		Name: MappingAnnualLoad,
		Sections: []SectionSpec{
			siteSection(CoerceInt),
			pvSection(Const("macrs_bonus_fraction", 0.4)),
			{
				Name: "ElectricLoad",
				Fields: []FieldSpec{
					Col("annual_kwh", 18, CoerceAuto),
					Const("doe_reference_name", "LargeOffice"),
					Const("critical_load_fraction", 0.4),
					Col("year", 17, CoerceInt),
				},
			},
			storageSection(),
			tariffSection(),
			financialSection(),
			utilitySection(),
		},
	}
}

// BuiltinMapping resolves a built-in mapping by name; empty means default.
func BuiltinMapping(name string) (Mapping, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MappingDefault:
		return DefaultMapping(), nil
	case MappingAnnualLoad:
		return AnnualLoadMapping(), nil
	}
	return Mapping{}, fmt.Errorf("%w: unknown built-in mapping %q", ErrInvalidMapping, name)
}

func siteSection(node Coercion) SectionSpec {
	return SectionSpec{
		Name: "Site",
		Fields: []FieldSpec{
			Col("longitude", 0, CoerceAuto),
			Col("latitude", 1, CoerceAuto),
			Col("roof_squarefeet", 2, CoerceAuto),
			Col("land_acres", 3, CoerceAuto),
			Col("node", 4, node),
		},
	}
}

// module_type: 0 standard, 1 premium, 2 thin film.
// array_type: 1 fixed, 2 one axis, 3 one axis one track.
func pvSection(bonus FieldSpec) SectionSpec {
	return SectionSpec{
		Name: "PV",
		Fields: []FieldSpec{
			bonus,
			Col("installed_cost_per_kw", 6, CoerceAuto),
			Col("tilt", 7, CoerceAuto),
			Col("degradation_fraction", 8, CoerceAuto),
			Col("macrs_option_years", 9, CoerceInt),
			Col("federal_itc_fraction", 10, CoerceAuto),
			Col("module_type", 11, CoerceInt),
			Col("array_type", 12, CoerceInt),
			Col("om_cost_per_kw", 13, CoerceAuto),
			Col("macrs_itc_reduction", 14, CoerceAuto),
			Col("azimuth", 15, CoerceAuto),
			Col("federal_rebate_per_kw", 16, CoerceAuto),
		},
	}
}

func storageSection() SectionSpec {
	return SectionSpec{
		Name: "ElectricStorage",
		Fields: []FieldSpec{
			Col("total_rebate_per_kw", 19, CoerceAuto),
			Col("macrs_option_years", 20, CoerceInt),
			Col("can_grid_charge", 21, CoerceBool),
			Col("macrs_bonus_fraction", 22, CoerceAuto),
			Col("replace_cost_per_kw", 23, CoerceAuto),
			Col("replace_cost_per_kwh", 24, CoerceAuto),
			Col("installed_cost_per_kw", 25, CoerceAuto),
			Col("installed_cost_per_kwh", 26, CoerceAuto),
			Col("total_itc_fraction", 27, CoerceAuto),
			Col("charge_efficiency", 28, CoerceAuto),
		},
	}
}

func tariffSection() SectionSpec {
	return SectionSpec{
		Name:   "ElectricTariff",
		Fields: []FieldSpec{FromSetting("urdb_label", SettingURDBLabel)},
	}
}

func financialSection() SectionSpec {
	return SectionSpec{
		Name: "Financial",
		Fields: []FieldSpec{
			Col("elec_cost_escalation_rate_fraction", 29, CoerceAuto),
			Col("offtaker_discount_rate_fraction", 30, CoerceAuto),
			Col("owner_discount_rate_fraction", 31, CoerceAuto),
			Col("offtaker_tax_rate_fraction", 32, CoerceAuto),
			Col("owner_tax_rate_fraction", 33, CoerceAuto),
			Col("om_cost_escalation_rate_fraction", 34, CoerceAuto),
		},
	}
}

func utilitySection() SectionSpec {
	return SectionSpec{
		Name:     "ElectricUtility",
		Optional: true,
		Fields:   []FieldSpec{Col("outage_probabilities", 35, CoerceAuto)},
	}
}
