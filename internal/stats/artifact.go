package stats

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// DefaultThreshold is the decision threshold used when the model artifact is
// unavailable or does not carry one.
const DefaultThreshold = 0.5

// Artifact is the persisted model: a decision threshold plus the precomputed
// per-customer statistics table.
type Artifact struct {
	Threshold     *float64         `json:"threshold"`
	CustomerStats []CustomerRecord `json:"customer_stats"`
}

// EffectiveThreshold returns the artifact threshold clamped into [0,1], or
// DefaultThreshold when absent.
func (a *Artifact) EffectiveThreshold() float64 {
	if a == nil || a.Threshold == nil {
		return DefaultThreshold
	}
	t := *a.Threshold
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// LoadArtifact reads and parses the JSON model artifact at path. Callers are
// expected to degrade to defaults on error rather than abort (the artifact
// being missing is a warning condition, not a fatal one).
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("customers", len(artifact.CustomerStats)).
		Float64("threshold", artifact.EffectiveThreshold()).
		Msg("Model artifact loaded")

	return &artifact, nil
}
