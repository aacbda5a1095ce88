package prompts

import (
	"encoding/json"
	"slices"
)

// Stage names a pipeline step whose model instructions can be overridden.
type Stage string

const (
	// StageClassify scores a leaf photo against the model's labels.
	StageClassify Stage = "classify"
	// StageRecommend turns a classification into a treatment recommendation.
	StageRecommend Stage = "recommend"
)

var stages = []Stage{StageClassify, StageRecommend}

// Stages returns the overridable stages.
func Stages() []Stage {
	return slices.Clone(stages)
}

// UnmarshalJSON rejects unknown stage names.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage returns ErrInvalidStage for unknown names.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
