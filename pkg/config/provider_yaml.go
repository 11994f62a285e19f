package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Storage StorageYAML `yaml:"storage,omitempty"`
		Segment SegmentYAML `yaml:"segment,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{}

	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path: yamlConfig.Storage.SQLite.Path,
		}
	}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}

	config.Segment = SegmentData{
		Policy:          yamlConfig.Segment.Policy,
		RegenCurrentMin: yamlConfig.Segment.RegenCurrentMin,
		RegenHoursMin:   yamlConfig.Segment.RegenHoursMin,
		RegenHoursMax:   yamlConfig.Segment.RegenHoursMax,
		RegCurrentFloor: yamlConfig.Segment.RegCurrentFloor,
		RegCurrentCeil:  yamlConfig.Segment.RegCurrentCeil,
		HoldOffCurrent:  yamlConfig.Segment.HoldOffCurrent,
		WarmLow:         yamlConfig.Segment.WarmLow,
		WarmHigh:        yamlConfig.Segment.WarmHigh,
		ColdLow:         yamlConfig.Segment.ColdLow,
		ColdHigh:        yamlConfig.Segment.ColdHigh,
	}

	y.config = config
	return config, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// GetSegmentConfig returns segmentation threshold overrides
func (y *YAMLProvider) GetSegmentConfig() (*SegmentData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Segment, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the config file
type StorageYAML struct {
	SQLite      *SQLiteYAML      `yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
}

type SQLiteYAML struct {
	Path string `yaml:"path"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type SegmentYAML struct {
	Policy          string   `yaml:"policy,omitempty"`
	RegenCurrentMin *float64 `yaml:"regen-current-min,omitempty"`
	RegenHoursMin   *float64 `yaml:"regen-hours-min,omitempty"`
	RegenHoursMax   *float64 `yaml:"regen-hours-max,omitempty"`
	RegCurrentFloor *float64 `yaml:"reg-current-floor,omitempty"`
	RegCurrentCeil  *float64 `yaml:"reg-current-ceil,omitempty"`
	HoldOffCurrent  *float64 `yaml:"hold-off-current,omitempty"`
	WarmLow         *float64 `yaml:"warm-low,omitempty"`
	WarmHigh        *float64 `yaml:"warm-high,omitempty"`
	ColdLow         *float64 `yaml:"cold-low,omitempty"`
	ColdHigh        *float64 `yaml:"cold-high,omitempty"`
}
