package quiz

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// Catalogue is the fixed body of reference text the quiz draws topics from.
type Catalogue struct {
	reference string
	topics    []string
	hints     map[Difficulty]string
}

type yamlCatalogue struct {
	Reference       string            `yaml:"reference"`
	Topics          []string          `yaml:"topics"`
	DifficultyHints map[string]string `yaml:"difficulty_hints"`
}

var (
	catalogueOnce sync.Once
	catalogue     *Catalogue
)

// DefaultCatalogue returns the embedded ten-chapter catalogue.
func DefaultCatalogue() *Catalogue {
	catalogueOnce.Do(func() {
		c, err := ParseCatalogue(catalogueYAML)
		if err != nil {
			panic(fmt.Sprintf("quiz: embedded catalogue: %v", err))
		}
		catalogue = c
	})
	return catalogue
}

func ParseCatalogue(raw []byte) (*Catalogue, error) {
	var y yamlCatalogue
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	if strings.TrimSpace(y.Reference) == "" {
		return nil, errors.New("catalogue reference is required")
	}
	if len(y.Topics) == 0 {
		return nil, errors.New("catalogue must list at least one topic")
	}

	seen := make(map[string]struct{}, len(y.Topics))
	topics := make([]string, 0, len(y.Topics))
	for _, t := range y.Topics {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, errors.New("catalogue topic must be non-empty")
		}
		if _, dup := seen[t]; dup {
			return nil, fmt.Errorf("duplicate catalogue topic %q", t)
		}
		seen[t] = struct{}{}
		topics = append(topics, t)
	}

	hints := make(map[Difficulty]string, len(y.DifficultyHints))
	for k, v := range y.DifficultyHints {
		d, err := ParseDifficulty(k)
		if err != nil {
			return nil, fmt.Errorf("catalogue hint: %w", err)
		}
		hints[d] = strings.TrimSpace(v)
	}

	return &Catalogue{
		reference: strings.TrimSpace(y.Reference),
		topics:    topics,
		hints:     hints,
	}, nil
}

func (c *Catalogue) Reference() string { return c.reference }

func (c *Catalogue) Topics() []string {
	out := make([]string, len(c.topics))
	copy(out, c.topics)
	return out
}

func (c *Catalogue) HasTopic(topic string) bool {
	topic = strings.TrimSpace(topic)
	for _, t := range c.topics {
		if t == topic {
			return true
		}
	}
	return false
}

// Hint is the free-text guidance sent alongside a difficulty.
func (c *Catalogue) Hint(d Difficulty) string {
	if h := c.hints[d]; h != "" {
		return h
	}
	return fmt.Sprintf("Generate a %s question.", d)
}

// Rand is the slice of math/rand/v2 the topic picker needs.
type Rand interface {
	IntN(n int) int
}

// PickTopic draws uniformly with replacement; repeats are allowed.
func (c *Catalogue) PickTopic(r Rand) string {
	return c.topics[r.IntN(len(c.topics))]
}

// NewRequest builds the request for one question cycle.
func (c *Catalogue) NewRequest(r Rand, d Difficulty) Request {
	return Request{
		Topic:          c.PickTopic(r),
		Difficulty:     d,
		DifficultyHint: c.Hint(d),
	}
}
