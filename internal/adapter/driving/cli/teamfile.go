package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// teamFile is the import/export form of a team.
type teamFile struct {
	Name       string                    `json:"name" yaml:"name"`
	Members    []model.TeamMember        `json:"members" yaml:"members"`
	Thresholds *model.ThresholdOverrides `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	States     *model.StateCategories    `json:"states,omitempty" yaml:"states,omitempty"`
}

// loadTeamFile reads a team file (YAML or JSON). Format is detected by
// extension (.yaml/.yml or .json), otherwise by content.
func loadTeamFile(path string) (*teamFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read team file: %w", err)
	}
	return parseTeamFile(data, filepath.Ext(path))
}

func parseTeamFile(data []byte, ext string) (*teamFile, error) {
	var tf teamFile
	if isJSON(ext, data) {
		if err := json.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("parse team json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse team yaml: %w", err)
	}

	for i, m := range tf.Members {
		if strings.TrimSpace(m.Email) == "" {
			return nil, fmt.Errorf("member %d (%q) has no email", i+1, m.Name)
		}
	}
	return &tf, nil
}

// encodeTeamFile renders tf as JSON for a .json extension and YAML otherwise.
func encodeTeamFile(tf teamFile, ext string) ([]byte, error) {
	if strings.EqualFold(ext, ".json") {
		data, err := json.MarshalIndent(tf, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode team json: %w", err)
		}
		return append(data, '\n'), nil
	}
	data, err := yaml.Marshal(tf)
	if err != nil {
		return nil, fmt.Errorf("encode team yaml: %w", err)
	}
	return data, nil
}

func isJSON(ext string, data []byte) bool {
	switch strings.ToLower(ext) {
	case ".json":
		return true
	case ".yaml", ".yml":
		return false
	default:
		return strings.HasPrefix(strings.TrimSpace(string(data)), "{")
	}
}
