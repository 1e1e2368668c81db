package suppression

import "gopkg.in/yaml.v3"

// yamlSuppression is the intermediate struct for the YAML suppression format.
type yamlSuppression struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Frames []string `yaml:"frames"`
}

// yamlSuppressionsFile is the top-level structure of a YAML suppressions file.
// Entries stay as nodes so each suppression keeps its line number.
type yamlSuppressionsFile struct {
	Suppressions []yaml.Node `yaml:"suppressions"`
}
