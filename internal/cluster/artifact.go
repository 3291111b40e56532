package cluster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"nosferatu/internal/models"
)

// ArtifactName is the file written under the job's output directory.
const ArtifactName = "cluster_model.json"

func writeArtifact(outputDir string, model *models.ClusterModel) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode cluster model: %w", err)
	}

	path := filepath.Join(outputDir, ArtifactName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write cluster model to %s: %w", path, err)
	}

	return path, nil
}

// ReadArtifact loads a persisted cluster model. Provided for callers that
// inspect a finished job's output.
func ReadArtifact(path string) (*models.ClusterModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cluster model from %s: %w", path, err)
	}
	var model models.ClusterModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("decode cluster model from %s: %w", path, err)
	}
	return &model, nil
}
