// Package config loads and validates amrvtk's run configuration.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, defaults filled in
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	InputDir  string `json:"input_dir" yaml:"input_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	StatsDir  string `json:"stats_dir" yaml:"stats_dir"`

	Conversion ConversionData  `json:"conversion" yaml:"conversion"`
	Log        LogData         `json:"log" yaml:"log"`
	Storage    StorageData     `json:"storage,omitempty" yaml:"storage,omitempty"`
	REST       *RESTServerData `json:"rest,omitempty" yaml:"rest,omitempty"`
}

// ConversionData holds the settings that shape every artifact of a run
type ConversionData struct {
	// DryTolerance is the depth (m) at or below which a cell is dry.
	DryTolerance float64 `json:"dry_tolerance" yaml:"dry_tolerance"`
	// TimeIncrement (s) dates snapshots whose fort.t file is missing.
	TimeIncrement float64 `json:"time_increment" yaml:"time_increment"`
	SeaLevel      float64 `json:"sea_level" yaml:"sea_level"`

	Resample     string   `json:"resample" yaml:"resample"`
	Encoding     string   `json:"encoding" yaml:"encoding"`
	Arrays       []string `json:"arrays" yaml:"arrays"`
	Prefix       string   `json:"prefix" yaml:"prefix"`
	ManifestName string   `json:"manifest_name" yaml:"manifest_name"`

	// Workers > 1 converts that many snapshots at once.
	Workers int `json:"workers" yaml:"workers"`
}

// LogData configures the process logger
type LogData struct {
	Debug      bool   `json:"debug" yaml:"debug"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
}

// StorageData holds the configuration for the optional statistics stores.
// Text reports are always written to StatsDir.
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path" yaml:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

// RESTServerData configures the playback API
type RESTServerData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	Port       int    `json:"port" yaml:"port"`
}
