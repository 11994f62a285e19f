// Package config loads runtime configuration for the cryo107 tools.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStorageConfig() (*StorageData, error)
	GetSegmentConfig() (*SegmentData, error)

	// IsReadOnly reports whether the source can be written back
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Storage StorageData `json:"storage,omitempty"`
	Segment SegmentData `json:"segment,omitempty"`
}

// StorageData selects and configures the sample store backend.  When both
// backends are configured, SQLite wins: it is the local, always-available
// option.
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

// SQLiteData configures the single-file store backend
type SQLiteData struct {
	Path string `json:"path"`
}

// TimescaleDBData configures the shared server store backend
type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

// SegmentData overrides the splitter's built-in thresholds.  Nil fields
// keep their defaults, so a config file only states what differs from the
// model 107 values.  Policy is "endpoints" or "tempspan"; empty lets the
// caller pick based on where the table came from.
type SegmentData struct {
	Policy          string   `json:"policy,omitempty"`
	RegenCurrentMin *float64 `json:"regen_current_min,omitempty"`
	RegenHoursMin   *float64 `json:"regen_hours_min,omitempty"`
	RegenHoursMax   *float64 `json:"regen_hours_max,omitempty"`
	RegCurrentFloor *float64 `json:"reg_current_floor,omitempty"`
	RegCurrentCeil  *float64 `json:"reg_current_ceil,omitempty"`
	HoldOffCurrent  *float64 `json:"hold_off_current,omitempty"`
	WarmLow         *float64 `json:"warm_low,omitempty"`
	WarmHigh        *float64 `json:"warm_high,omitempty"`
	ColdLow         *float64 `json:"cold_low,omitempty"`
	ColdHigh        *float64 `json:"cold_high,omitempty"`
}
