package inspector

import (
	"io"

	yaml "gopkg.in/yaml.v2"
)

type TypeInfo struct {
	Name string `yaml:"name"`
}

type Config struct {
	Types               []TypeInfo `yaml:"types"`
	Concurrency         int        `yaml:"concurrency"`
	VerifyRelationships bool       `yaml:"verifyRelationships"`
	RejectDuplicates    bool       `yaml:"rejectDuplicates"`
}

func (cfg *Config) TypeNames() []string {
	names := make([]string, 0, len(cfg.Types))
	for _, t := range cfg.Types {
		names = append(names, t.Name)
	}
	return names
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)

	return cfg, err
}
