package sources

import (
	"fmt"

	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// CompileCreateSourceYAML renders the source artifact for connector from the
// form values of a source. Remote connectors take "path" as their uri. The
// "sourceName" value names the artifact and is not part of its body.
// values is not modified.
func CompileCreateSourceYAML(values map[string]any, connector string) (string, error) {
	props := make(map[string]any, len(values))
	for k, v := range values {
		props[k] = v
	}
	delete(props, "sourceName")
	delete(props, "type")
	if connector != domain.ConnectorLocalFile {
		if p, ok := props["path"]; ok {
			props["uri"] = p
			delete(props, "path")
		}
	}

	var def domain.SourceDefinition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &def,
	})
	if err != nil {
		return "", err
	}
	if err := dec.Decode(props); err != nil {
		return "", fmt.Errorf("invalid source properties: %w", err)
	}
	def.Type = connector
	if len(def.Extra) == 0 {
		def.Extra = nil
	}

	out, err := yaml.Marshal(&def)
	if err != nil {
		return "", fmt.Errorf("failed to render source: %w", err)
	}
	return string(out), nil
}

// ParseSourceYAML decodes a source artifact.
func ParseSourceYAML(blob string) (*domain.SourceDefinition, error) {
	var def domain.SourceDefinition
	if err := yaml.Unmarshal([]byte(blob), &def); err != nil {
		return nil, fmt.Errorf("invalid source artifact: %w", err)
	}
	return &def, nil
}
