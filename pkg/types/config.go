package types

// OutputFormat selects how the CLI encodes documents and reports.
type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// QueryStoreConfig holds settings for the SQLite store the query
// calculation method runs against.
type QueryStoreConfig struct {
	// Path is the database file, or ":memory:" (the default) for a
	// throwaway in-process database.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// InitScripts are SQL files executed in order after opening, used to
	// seed lookup tables the calculations query.
	InitScripts []string `json:"init_scripts,omitempty" yaml:"init_scripts,omitempty" mapstructure:"init_scripts"`
}

// ExpressionConfig holds settings for the expression calculation method.
type ExpressionConfig struct {
	// Packages whitelists the standard library packages expressions may
	// use. Empty means the built-in set: math, strconv, strings, time.
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty" mapstructure:"packages"`
}

// CalculationConfig groups the settings of the built-in calculation methods.
type CalculationConfig struct {
	QueryStore QueryStoreConfig `json:"query_store" yaml:"query_store" mapstructure:"query_store"`
	Expression ExpressionConfig `json:"expression" yaml:"expression" mapstructure:"expression"`
}

// EngineConfig is the top-level configuration of the instrument-engine CLI.
type EngineConfig struct {
	// LogLevel is one of debug, info, warn, error (default info).
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	// Format selects the output encoding: json or yaml.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`

	Calculation CalculationConfig `json:"calculation" yaml:"calculation" mapstructure:"calculation"`
}
