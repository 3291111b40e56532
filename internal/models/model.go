package models

import "time"

// ClusterModel is the fitted clustering model plus its provenance. Created
// only when a build job succeeds and immutable afterwards; the JSON form is
// the persisted artifact.
type ClusterModel struct {
	K            int         `json:"k"`
	Centers      [][]float64 `json:"centers"`
	Labels       []int       `json:"labels"`
	FeatureNames []string    `json:"feature_names"`
	Filter       string      `json:"filter"`
	ManifestPath string      `json:"manifest_path"`
	ImagePaths   []string    `json:"image_paths"`
	CreatedAt    time.Time   `json:"created_at"`
}
