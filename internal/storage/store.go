package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/pathtracer/internal/dynamo"
	"github.com/san-kum/pathtracer/internal/projection"
)

const (
	metadataFile = "metadata.json"
	windowFile   = "window.csv"
)

var (
	ErrNotFound = errors.New("storage: window not found")
	// ErrWindowTooLarge rejects snapshots longer than the window they claim to be.
	ErrWindowTooLarge = errors.New("storage: snapshot exceeds max_segments")
)

// Store keeps snapshots of the bounded trajectory window, one directory per snapshot.
// Only the window is ever written; a run's full history is never kept.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type WindowMetadata struct {
	ID          string    `json:"id"`
	Problem     string    `json:"problem"`
	Timestamp   time.Time `json:"timestamp"`
	Integrator  string    `json:"integrator"`
	Dt          float64   `json:"dt"`
	MaxFPS      int       `json:"max_fps"`
	FrameSkip   int       `json:"frame_skip"`
	MaxSegments int       `json:"max_segments"`
	Variables   []string  `json:"variables"`
	Parameters  []string  `json:"parameters"`
	XTransform  string    `json:"x_transform,omitempty"`
	YTransform  string    `json:"y_transform,omitempty"`
	// Viewport is the configured plot rectangle, before letterboxing.
	Viewport projection.Viewport `json:"viewport"`
	Steps    uint64              `json:"steps"`
	Emitted  uint64              `json:"emitted"`
	Points   int                 `json:"points"`
	// Error is the failure that ended the run, if any.
	Error string `json:"error,omitempty"`
}

// Save writes meta and points, which must be oldest first, as a new snapshot and returns
// its ID. meta.ID, meta.Timestamp and meta.Points are filled in.
func (s *Store) Save(meta WindowMetadata, points []dynamo.Point) (string, error) {
	if meta.MaxSegments > 0 && len(points) > meta.MaxSegments {
		return "", fmt.Errorf("%w: %d points, max %d", ErrWindowTooLarge, len(points), meta.MaxSegments)
	}
	for i, p := range points {
		if len(p.Vars) != len(meta.Variables) || len(p.Params) != len(meta.Parameters) {
			return "", fmt.Errorf("%w: point %d does not match the declared columns", dynamo.ErrInvalidState, i)
		}
	}

	problem := meta.Problem
	if problem == "" {
		problem = "problem"
	}
	meta.ID = fmt.Sprintf("%s_%s", problem, uuid.NewString())
	meta.Timestamp = time.Now().UTC()
	meta.Points = len(points)

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(dir, windowFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, meta.Variables, meta.Parameters, points); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns every readable snapshot, newest first.
func (s *Store) List() ([]WindowMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []WindowMetadata{}, nil
		}
		return nil, err
	}

	windows := make([]WindowMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		windows = append(windows, *meta)
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Timestamp.After(windows[j].Timestamp)
	})
	return windows, nil
}

func (s *Store) Load(id string) (*WindowMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta WindowMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", id, err)
	}
	return &meta, nil
}

// LoadWindow returns the snapshot's metadata and its points, oldest first.
func (s *Store) LoadWindow(id string) (*WindowMetadata, []dynamo.Point, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, id, windowFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	points, err := ReadCSV(file, len(meta.Variables), len(meta.Parameters))
	if err != nil {
		return nil, nil, fmt.Errorf("storage: %s: %w", id, err)
	}
	return meta, points, nil
}

// WriteCSV writes a header of t, the variable names and the parameter names, then one
// row per point.
func WriteCSV(w io.Writer, varNames, paramNames []string, points []dynamo.Point) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, 1+len(varNames)+len(paramNames))
	header = append(header, dynamo.TimeName)
	header = append(header, varNames...)
	header = append(header, paramNames...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, p := range points {
		row = row[:0]
		row = append(row, formatValue(p.T))
		for _, v := range p.Vars {
			row = append(row, formatValue(v))
		}
		for _, v := range p.Params {
			row = append(row, formatValue(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses rows written by WriteCSV.
func ReadCSV(r io.Reader, nvars, nparams int) ([]dynamo.Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 1 + nvars + nparams

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Point{}, nil
	}

	points := make([]dynamo.Point, 0, len(records)-1)
	for line, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", line+1, j, err)
			}
			values[j] = v
		}
		points = append(points, dynamo.Point{
			T:      values[0],
			Vars:   values[1 : 1+nvars : 1+nvars],
			Params: values[1+nvars:],
		})
	}
	return points, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
