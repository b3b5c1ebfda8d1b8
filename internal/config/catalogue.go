package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

//go:embed topics.yaml
var embeddedTopics []byte

//go:embed aliases.yaml
var embeddedAliases []byte

// Dimension is one governance area the core topics are grouped under.
type Dimension struct {
	ID      string `yaml:"id" validate:"required"`
	Name    string `yaml:"name" validate:"required"`
	Summary string `yaml:"summary"`
}

// Topic is a core report topic bound to a survey question.
type Topic struct {
	ID          string `yaml:"id" validate:"required"`
	Title       string `yaml:"title" validate:"required"`
	Column      string `yaml:"column" validate:"required"`
	Description string `yaml:"description"`
	Dimension   string `yaml:"dimension" validate:"required"`
}

// TopicCatalogue lists the dimensions and topics of the descriptive report.
type TopicCatalogue struct {
	Introduction string      `yaml:"introduction"`
	Dimensions   []Dimension `yaml:"dimensions" validate:"required,min=1,dive"`
	Topics       []Topic     `yaml:"topics" validate:"dive"`
}

// TopicsIn returns the topics of one dimension in catalogue order.
func (c *TopicCatalogue) TopicsIn(dimensionID string) []Topic {
	var out []Topic
	for _, t := range c.Topics {
		if t.Dimension == dimensionID {
			out = append(out, t)
		}
	}
	return out
}

// AliasRule forces every column matching one of the patterns into one canonical question.
type AliasRule struct {
	Canonical string   `yaml:"canonical" validate:"required"`
	Patterns  []string `yaml:"patterns" validate:"required,min=1"`
	Regex     bool     `yaml:"regex"`
}

// LoadTopics reads the topic catalogue from path, or the embedded default when path is empty.
func LoadTopics(path string) (*TopicCatalogue, error) {
	data, err := readOrEmbedded(path, embeddedTopics)
	if err != nil {
		return nil, err
	}

	var catalogue TopicCatalogue
	if err := yaml.Unmarshal(data, &catalogue); err != nil {
		return nil, fmt.Errorf("failed to parse topic catalogue: %w", err)
	}
	if err := validator.New().Struct(&catalogue); err != nil {
		return nil, fmt.Errorf("invalid topic catalogue: %w", err)
	}

	known := make(map[string]bool, len(catalogue.Dimensions))
	for _, d := range catalogue.Dimensions {
		known[d.ID] = true
	}
	for _, t := range catalogue.Topics {
		if !known[t.Dimension] {
			return nil, fmt.Errorf("topic %s references unknown dimension %q", t.ID, t.Dimension)
		}
	}
	return &catalogue, nil
}

// LoadAliases reads alias rules from path, or the embedded default when path is empty.
func LoadAliases(path string) ([]AliasRule, error) {
	data, err := readOrEmbedded(path, embeddedAliases)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Aliases []AliasRule `yaml:"aliases" validate:"dive"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse alias rules: %w", err)
	}
	if err := validator.New().Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid alias rules: %w", err)
	}
	return doc.Aliases, nil
}

func readOrEmbedded(path string, embedded []byte) ([]byte, error) {
	if path == "" {
		return embedded, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
