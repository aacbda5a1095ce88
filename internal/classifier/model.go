package classifier

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metadata is the metadata.json document exported with a Teachable
// Machine image model.
type Metadata struct {
	TFJSVersion    string         `json:"tfjsVersion,omitempty"`
	TMVersion      string         `json:"tmVersion,omitempty"`
	PackageVersion string         `json:"packageVersion,omitempty"`
	PackageName    string         `json:"packageName,omitempty"`
	ModelName      string         `json:"modelName,omitempty"`
	TimeStamp      string         `json:"timeStamp,omitempty"`
	Labels         []string       `json:"labels"`
	UserMetadata   map[string]any `json:"userMetadata,omitempty"`
	GrayScale      bool           `json:"grayscale,omitempty"`
	ImageSize      int            `json:"imageSize,omitempty"`
}

// WeightSpec describes one tensor in a weights shard.
type WeightSpec struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
	Dtype string `json:"dtype"`
}

// WeightGroup lists the shard files holding a set of tensors.
type WeightGroup struct {
	Paths   []string     `json:"paths"`
	Weights []WeightSpec `json:"weights"`
}

// Topology is the model.json document of a TensorFlow.js layers model.
type Topology struct {
	Format          string          `json:"format,omitempty"`
	GeneratedBy     string          `json:"generatedBy,omitempty"`
	ConvertedBy     string          `json:"convertedBy,omitempty"`
	ModelTopology   json.RawMessage `json:"modelTopology"`
	WeightsManifest []WeightGroup   `json:"weightsManifest"`
}

// Model is a loaded classifier model.
type Model struct {
	Name      string    `json:"name"`
	Labels    []string  `json:"labels"`
	ImageSize int       `json:"image_size"`
	Tensors   int       `json:"tensors"`
	LoadedAt  time.Time `json:"loaded_at"`

	metadata Metadata
	topology Topology
}

// Metadata returns the metadata document the model was built from.
func (m *Model) Metadata() Metadata {
	return m.metadata
}

func buildModel(topology Topology, metadata Metadata, defaultSize int) (*Model, error) {
	if len(topology.ModelTopology) == 0 || string(topology.ModelTopology) == "null" {
		return nil, fmt.Errorf("model.json: missing modelTopology")
	}
	if len(topology.WeightsManifest) == 0 {
		return nil, fmt.Errorf("model.json: empty weightsManifest")
	}

	tensors := 0
	for _, g := range topology.WeightsManifest {
		if len(g.Paths) == 0 {
			return nil, fmt.Errorf("model.json: weight group without paths")
		}
		tensors += len(g.Weights)
	}

	if len(metadata.Labels) == 0 {
		return nil, fmt.Errorf("metadata.json: no labels")
	}
	seen := make(map[string]bool, len(metadata.Labels))
	for _, l := range metadata.Labels {
		if l == "" {
			return nil, fmt.Errorf("metadata.json: empty label")
		}
		if seen[l] {
			return nil, fmt.Errorf("metadata.json: duplicate label %q", l)
		}
		seen[l] = true
	}

	size := metadata.ImageSize
	if size <= 0 {
		size = defaultSize
	}

	return &Model{
		Name:      metadata.ModelName,
		Labels:    metadata.Labels,
		ImageSize: size,
		Tensors:   tensors,
		LoadedAt:  time.Now(),
		metadata:  metadata,
		topology:  topology,
	}, nil
}
