package results

var metricColumns = []string{
	"ElectricStorage.size_kw",
	"ElectricStorage.size_kwh",
	"ElectricStorage.initial_capital_cost",
	"ElectricUtility.lifecycle_emissions_tonnes_PM25",
	"ElectricUtility.lifecycle_emissions_tonnes_SO2",
	"ElectricUtility.lifecycle_emissions_tonnes_NOx",
	"ElectricUtility.lifecycle_emissions_tonnes_CO2",
	"ElectricTariff.lifecycle_fixed_cost_after_tax",
	"ElectricTariff.lifecycle_energy_cost_after_tax",
	"Site.total_renewable_energy_fraction",
	"Site.annual_emissions_tonnes_PM25",
	"PV.size_kw",
	"PV.annual_energy_produced_kwh",
	"PV.lcoe_per_kwh",
	"PV.lifecycle_om_cost_after_tax",
	"Financial.lcc",
	"Financial.lifecycle_om_costs_after_tax",
	"Financial.lifecycle_capital_costs_plus_om_after_tax",
	"Financial.lifecycle_emissions_cost_health",
	"Financial.lifecycle_outage_cost",
	"Financial.initial_capital_costs_after_incentives",
	"Financial.lifecycle_storage_capital_costs",
	"Financial.lifecycle_om_costs_before_tax",
	"Financial.lifecycle_emissions_cost_climate",
	"Financial.lifecycle_fuel_costs_after_tax",
	"Financial.lifecycle_capital_costs",
	"Financial.replacements_future_cost_after_tax",
	"Financial.developer_om_and_replacement_present_cost_after_tax",
}

// MetricColumns returns the reporting subset of REopt result columns.
func MetricColumns() []string {
	return append([]string(nil), metricColumns...)
}
