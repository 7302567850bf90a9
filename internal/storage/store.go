package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/hoverlab/internal/config"
	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/termination"
	"github.com/san-kum/hoverlab/internal/trainer"
)

const (
	metadataFile = "metadata.json"
	scoresFile   = "scores.csv"
	stepsFile    = "steps.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string         `json:"id"`
	Agent      string         `json:"agent"`
	Timestamp  time.Time      `json:"timestamp"`
	Seed       int64          `json:"seed"`
	Episodes   int            `json:"episodes"`
	Steps      int            `json:"steps"`
	LearnSteps int            `json:"learn_steps"`
	Best       float64        `json:"best_average"`
	Penalty    float64        `json:"penalty"`
	Config     *config.Config `json:"config"`
}

// Save writes metadata.json, scores.csv and, when the result recorded
// transitions, steps.csv under a fresh run directory.
func (s *Store) Save(agentName string, cfg *config.Config, penalty float64, result *trainer.Result) (string, error) {
	now := time.Now()
	runID, runDir, err := s.mkRunDir(fmt.Sprintf("%s_%d", agentName, now.Unix()))
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Agent:      agentName,
		Timestamp:  now,
		Seed:       cfg.Seed,
		Episodes:   len(result.Episodes),
		Steps:      result.Steps,
		LearnSteps: result.LearnSteps,
		Best:       result.Best,
		Penalty:    penalty,
		Config:     cfg,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeScores(filepath.Join(runDir, scoresFile), result.Episodes); err != nil {
		return "", err
	}
	if len(result.Transitions) > 0 {
		if err := writeSteps(filepath.Join(runDir, stepsFile), result.Transitions); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (s *Store) mkRunDir(base string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	id := base
	for i := 1; ; i++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func metricNames(episodes []trainer.Episode) []string {
	if len(episodes) == 0 {
		return nil
	}
	names := make([]string, 0, len(episodes[0].Metrics))
	for name := range episodes[0].Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeScores(path string, episodes []trainer.Episode) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	names := metricNames(episodes)
	header := append([]string{"episode", "score", "average", "ticks", "reason", "duration"}, names...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, ep := range episodes {
		row := []string{
			strconv.Itoa(ep.Index),
			formatFloat(ep.Score),
			formatFloat(ep.Average),
			strconv.Itoa(ep.Ticks),
			string(ep.Reason),
			strconv.FormatFloat(ep.Duration.Seconds(), 'f', 3, 64),
		}
		for _, name := range names {
			row = append(row, formatFloat(ep.Metrics[name]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSteps(path string, steps []dynamo.Transition) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"episode", "tick", "dt"}
	for i := range steps[0].Next {
		header = append(header, fmt.Sprintf("o%d", i))
	}
	header = append(header, "action", "reward", "done")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, st := range steps {
		row := []string{
			strconv.Itoa(st.Episode),
			strconv.Itoa(st.Tick),
			formatFloat(st.Dt),
		}
		for _, v := range st.Next {
			row = append(row, formatFloat(v))
		}
		row = append(row,
			strconv.Itoa(int(st.Action)),
			formatFloat(st.Reward),
			strconv.FormatBool(st.Done),
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) readCSV(runID, name string) ([][]string, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// LoadScores reads the per-episode rows of a run. Rows that fail to parse
// are skipped.
func (s *Store) LoadScores(runID string) ([]trainer.Episode, error) {
	records, err := s.readCSV(runID, scoresFile)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []trainer.Episode{}, nil
	}

	header := records[0]
	episodes := make([]trainer.Episode, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 6 {
			continue
		}
		index, err1 := strconv.Atoi(record[0])
		score, err2 := strconv.ParseFloat(record[1], 64)
		avg, err3 := strconv.ParseFloat(record[2], 64)
		ticks, err4 := strconv.Atoi(record[3])
		secs, err5 := strconv.ParseFloat(record[5], 64)
		if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
			continue
		}

		ep := trainer.Episode{
			Index:    index,
			Score:    score,
			Average:  avg,
			Ticks:    ticks,
			Reason:   termination.Reason(record[4]),
			Duration: time.Duration(secs * float64(time.Second)),
			Metrics:  make(map[string]float64),
		}
		for j := 6; j < len(record) && j < len(header); j++ {
			if v, err := strconv.ParseFloat(record[j], 64); err == nil {
				ep.Metrics[header[j]] = v
			}
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

// LoadSteps reads the recorded transitions of a run. Only the returned
// observation of each tick is stored, so Observation is left empty.
func (s *Store) LoadSteps(runID string) ([]dynamo.Transition, error) {
	records, err := s.readCSV(runID, stepsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return []dynamo.Transition{}, nil
		}
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Transition{}, nil
	}

	width := len(records[0]) - 6
	steps := make([]dynamo.Transition, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != width+6 {
			continue
		}
		st, err := parseStep(record, width)
		if err != nil {
			continue
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func parseStep(record []string, width int) (dynamo.Transition, error) {
	var st dynamo.Transition
	var err error
	if st.Episode, err = strconv.Atoi(record[0]); err != nil {
		return st, err
	}
	if st.Tick, err = strconv.Atoi(record[1]); err != nil {
		return st, err
	}
	if st.Dt, err = strconv.ParseFloat(record[2], 64); err != nil {
		return st, err
	}
	st.Next = make(dynamo.Observation, width)
	for i := 0; i < width; i++ {
		if st.Next[i], err = strconv.ParseFloat(record[3+i], 64); err != nil {
			return st, err
		}
	}
	tail := record[3+width:]
	action, err := strconv.Atoi(tail[0])
	if err != nil {
		return st, err
	}
	st.Action = dynamo.Action(action)
	if st.Reward, err = strconv.ParseFloat(tail[1], 64); err != nil {
		return st, err
	}
	if st.Done, err = strconv.ParseBool(tail[2]); err != nil {
		return st, err
	}
	return st, nil
}
