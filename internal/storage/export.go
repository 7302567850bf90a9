package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/trainer"
)

type ExportData struct {
	Run      RunMetadata         `json:"run"`
	Episodes []ExportEpisode     `json:"episodes"`
	Steps    []dynamo.Transition `json:"steps,omitempty"`
}

type ExportEpisode struct {
	Index   int                `json:"index"`
	Score   float64            `json:"score"`
	Average float64            `json:"average"`
	Ticks   int                `json:"ticks"`
	Reason  string             `json:"reason"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Export loads a whole run for ExportJSON.
func (s *Store) Export(runID string, withSteps bool) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	episodes, err := s.LoadScores(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		Run:      *meta,
		Episodes: make([]ExportEpisode, len(episodes)),
	}
	for i, ep := range episodes {
		data.Episodes[i] = exportEpisode(ep)
	}
	if withSteps {
		if data.Steps, err = s.LoadSteps(runID); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func exportEpisode(ep trainer.Episode) ExportEpisode {
	return ExportEpisode{
		Index:   ep.Index,
		Score:   ep.Score,
		Average: ep.Average,
		Ticks:   ep.Ticks,
		Reason:  ep.Reason.String(),
		Metrics: ep.Metrics,
	}
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
