package domain

// Connector names.
const (
	ConnectorLocalFile = "local_file"
	ConnectorS3        = "s3"
	ConnectorGCS       = "gcs"
	ConnectorHTTPS     = "https"
)

// SourceDefinition is the YAML document describing a source.
type SourceDefinition struct {
	Type         string         `yaml:"type" mapstructure:"type"`
	URI          string         `yaml:"uri,omitempty" mapstructure:"uri"`
	Path         string         `yaml:"path,omitempty" mapstructure:"path"`
	Region       string         `yaml:"region,omitempty" mapstructure:"region"`
	CSVDelimiter string         `yaml:"csv.delimiter,omitempty" mapstructure:"csv.delimiter"`
	Extra        map[string]any `yaml:",inline" mapstructure:",remain"`
}
