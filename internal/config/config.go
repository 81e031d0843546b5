package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	results "microgrid-scenarios/internal/results/domain"
	scenario "microgrid-scenarios/internal/scenario/domain"
	"microgrid-scenarios/internal/scenario/infrastructure/objectstore"
)

// EnvConfigPath names the environment variable pointing at the YAML config.
const EnvConfigPath = "SCENARIO_CONFIG"

// Config is shared by the scenario generator and the result combiner.
type Config struct {
	Scenario        ScenarioConfig `yaml:"scenario"`
	Results         ResultsConfig  `yaml:"results"`
	Workers         int            `yaml:"workers"`
	MetricsTextfile string         `yaml:"metrics_textfile"`
	ReportPDF       string         `yaml:"report_pdf"`
}

// ScenarioConfig drives scenariogen.
type ScenarioConfig struct {
	InputPath         string             `yaml:"input_path"`
	OutputDir         string             `yaml:"output_dir"`
	OutputNamePattern string             `yaml:"output_name_pattern"`
	URDBLabel         string             `yaml:"urdb_label"`
	LoadProfilePath   string             `yaml:"load_profile_path"`
	CoercionProfile   string             `yaml:"coercion_profile"`
	Mapping           string             `yaml:"mapping"`
	MappingFile       string             `yaml:"mapping_file"`
	OptionalSections  []string           `yaml:"optional_sections"`
	HasHeader         bool               `yaml:"has_header"`
	Sheet             string             `yaml:"sheet"`
	DryRun            bool               `yaml:"dry_run"`
	ObjectStore       objectstore.Config `yaml:"object_store"`
}

// ResultsConfig drives resultmerge.
type ResultsConfig struct {
	ResultsDir     string   `yaml:"results_dir"`
	DocumentExt    string   `yaml:"document_ext"`
	OutputPath     string   `yaml:"output_path"`
	Curated        bool     `yaml:"curated"`
	CuratedColumns []string `yaml:"curated_columns"`
	WithSource     bool     `yaml:"with_source"`
	PostgresDSN    string   `yaml:"postgres_dsn"`
}

// Default returns the environment-derived configuration.
func Default() Config {
	return Config{
		Scenario: ScenarioConfig{
			InputPath:         os.Getenv("SCENARIO_INPUT"),
			OutputDir:         getenvDefault("SCENARIO_OUTPUT_DIR", "scenarios"),
			OutputNamePattern: getenvDefault("SCENARIO_NAME_PATTERN", scenario.DefaultNamePattern),
			URDBLabel:         os.Getenv("SCENARIO_URDB_LABEL"),
			LoadProfilePath:   os.Getenv("SCENARIO_LOAD_PROFILE"),
			CoercionProfile:   getenvDefault("SCENARIO_PROFILE", string(scenario.ProfileTyped)),
			Mapping:           getenvDefault("SCENARIO_MAPPING", scenario.MappingDefault),
			MappingFile:       os.Getenv("SCENARIO_MAPPING_FILE"),
			OptionalSections:  SplitCSV(os.Getenv("SCENARIO_OPTIONAL_SECTIONS")),
			HasHeader:         getenvBoolDefault("SCENARIO_HAS_HEADER", true),
			Sheet:             os.Getenv("SCENARIO_SHEET"),
			DryRun:            getenvBoolDefault("SCENARIO_DRY_RUN", false),
			ObjectStore: objectstore.Config{
				Endpoint:  os.Getenv("MINIO_ENDPOINT"),
				AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				Bucket:    os.Getenv("MINIO_BUCKET"),
				Region:    os.Getenv("MINIO_REGION"),
				Prefix:    os.Getenv("MINIO_PREFIX"),
				UseSSL:    getenvBoolDefault("MINIO_USE_SSL", false),
			},
		},
		Results: ResultsConfig{
			ResultsDir:     getenvDefault("RESULTS_DIR", "results"),
			DocumentExt:    getenvDefault("RESULTS_DOCUMENT_EXT", ".json"),
			OutputPath:     getenvDefault("RESULTS_OUTPUT", "combined.csv"),
			Curated:        getenvBoolDefault("RESULTS_CURATED", false),
			CuratedColumns: SplitCSV(os.Getenv("RESULTS_CURATED_COLUMNS")),
			WithSource:     getenvBoolDefault("RESULTS_WITH_SOURCE", false),
			PostgresDSN:    os.Getenv("RESULTS_POSTGRES_DSN"),
		},
		Workers:         getenvIntDefault("SCENARIO_WORKERS", 1),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		ReportPDF:       os.Getenv("REPORT_PDF"),
	}
}

// Load reads the YAML file at path (or $SCENARIO_CONFIG) over the
// environment defaults. An empty path with no env override returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// Validate checks what scenariogen needs before reading the table.
func (c ScenarioConfig) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return errors.New("config: scenario input_path required")
	}
	if strings.TrimSpace(c.OutputDir) == "" && !c.DryRun {
		return errors.New("config: scenario output_dir required")
	}
	if !strings.Contains(c.OutputNamePattern, "{n}") {
		return fmt.Errorf("config: output_name_pattern %q must contain {n}", c.OutputNamePattern)
	}
	if _, err := scenario.ParseProfile(c.CoercionProfile); err != nil {
		return err
	}
	if c.ObjectStore.Enabled() {
		if err := c.ObjectStore.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Profile returns the parsed coercion profile.
func (c ScenarioConfig) Profile() (scenario.Profile, error) {
	return scenario.ParseProfile(c.CoercionProfile)
}

// Settings returns the run values mapped fields can reference.
func (c ScenarioConfig) Settings() scenario.Settings {
	return scenario.Settings{URDBLabel: c.URDBLabel, LoadProfilePath: c.LoadProfilePath}
}

// Validate checks what resultmerge needs before scanning the directory.
func (c ResultsConfig) Validate() error {
	if strings.TrimSpace(c.ResultsDir) == "" {
		return errors.New("config: results_dir required")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return errors.New("config: results output_path required")
	}
	return nil
}

// Columns returns the curated projection, or nil for the full union.
// Explicit curated_columns win over the built-in metric list.
func (c ResultsConfig) Columns() []string {
	if len(c.CuratedColumns) > 0 {
		return append([]string(nil), c.CuratedColumns...)
	}
	if c.Curated {
		return results.MetricColumns()
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// SplitCSV splits a comma separated list, dropping blanks.
func SplitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
