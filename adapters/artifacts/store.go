// Package artifacts persists fitted models as one directory per model name:
// model.json holds the weights, train_data.csv the optional training frame
// and meta.json the feature columns, metrics, save time and direction.
package artifacts

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"studentperf/domain/core"
	"studentperf/domain/frame"
	"studentperf/domain/model"
	"studentperf/internal/storage"

	"github.com/rs/zerolog/log"
)

// File names inside an artifact directory
const (
	ModelFile = "model.json"
	TrainFile = "train_data.csv"
	MetaFile  = "meta.json"
)

// metadata is the meta.json document
type metadata struct {
	FeatureColumns []string             `json:"feature_columns"`
	Metrics        *model.MetricsBundle `json:"metrics"`
	SavedAt        core.Timestamp       `json:"saved_at"`
	DirectionID    core.DirectionID     `json:"direction_id"`
	TrainDataHash  core.Hash            `json:"train_data_sha256,omitempty"`
}

// Store saves, loads and deletes model artifacts. Writes to one name must be
// serialized by the caller; loads may run concurrently.
type Store struct {
	blobs *storage.LocalBlobStore
}

// New creates a store on top of a blob store
func New(blobs *storage.LocalBlobStore) *Store {
	return &Store{blobs: blobs}
}

// Open creates a store rooted at dir and removes staging leftovers older
// than an hour
func Open(ctx context.Context, dir string) (*Store, error) {
	blobs, err := storage.NewLocalBlobStore(dir)
	if err != nil {
		return nil, err
	}
	if n, err := blobs.CleanupExpired(ctx, time.Hour); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("artifact cleanup failed")
	} else if n > 0 {
		log.Info().Int("removed", n).Str("dir", dir).Msg("removed interrupted artifact writes")
	}
	return New(blobs), nil
}

// Save writes the artifact as one unit, superseding any artifact with the
// same name. The training frame is optional; a frame without columns is
// not written.
func (s *Store) Save(ctx context.Context, a *model.Artifact) error {
	name, err := core.ParseModelName(a.Name)
	if err != nil {
		return err
	}
	if a.Params == nil {
		return fmt.Errorf("save %s: %w", name, core.ErrModelNotFitted)
	}
	features := a.FeatureColumns
	if features == nil {
		features = a.Params.FeatureNames()
	}
	if want := a.Params.FeatureNames(); !sameNames(want, features) {
		return fmt.Errorf("save %s: %w", name, core.NewFeatureMismatchError(want, features))
	}
	savedAt := a.SavedAt
	if savedAt.IsZero() {
		savedAt = core.Now()
	}

	weights, err := json.MarshalIndent(a.Params, "", "  ")
	if err != nil {
		return fmt.Errorf("save %s: encode weights: %w", name, err)
	}
	meta := metadata{
		FeatureColumns: features,
		Metrics:        a.Metrics,
		SavedAt:        savedAt,
		DirectionID:    a.DirectionID,
	}
	var train []byte
	if a.TrainingFrame != nil && a.TrainingFrame.Width() > 0 {
		if train, err = encodeFrame(a.TrainingFrame); err != nil {
			return fmt.Errorf("save %s: encode training frame: %w", name, err)
		}
		meta.TrainDataHash = core.NewHash(train)
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("save %s: encode metadata: %w", name, err)
	}

	staging, err := s.blobs.Stage(ctx)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := staging.Put(ModelFile, weights); err != nil {
		staging.Abort()
		return fmt.Errorf("save %s: %w", name, err)
	}
	if train != nil {
		if err := staging.Put(TrainFile, train); err != nil {
			staging.Abort()
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	if err := staging.Put(MetaFile, metaJSON); err != nil {
		staging.Abort()
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := staging.Commit(ctx, name); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}

	log.Debug().Str("model", name).Str("kind", string(a.Params.Kind)).
		Bool("train_data", train != nil).Msg("artifact saved")
	return nil
}

// Load reads an artifact back. Missing names fail with core.ErrArtifactNotFound.
func (s *Store) Load(ctx context.Context, name string) (*model.Artifact, error) {
	name, err := core.ParseModelName(name)
	if err != nil {
		return nil, err
	}
	weights, err := s.read(ctx, name, ModelFile)
	if err != nil {
		return nil, err
	}
	metaJSON, err := s.read(ctx, name, MetaFile)
	if err != nil {
		return nil, err
	}

	var params model.FitResult
	if err := json.Unmarshal(weights, &params); err != nil {
		return nil, fmt.Errorf("load %s: decode weights: %w", name, err)
	}
	var meta metadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, fmt.Errorf("load %s: decode metadata: %w", name, err)
	}

	a := &model.Artifact{
		Name:           name,
		DirectionID:    meta.DirectionID,
		Params:         &params,
		FeatureColumns: meta.FeatureColumns,
		Metrics:        meta.Metrics,
		SavedAt:        meta.SavedAt,
	}

	train, err := s.blobs.ReadBlob(ctx, name+"/"+TrainFile)
	switch {
	case errors.Is(err, storage.ErrBlobNotFound):
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", name, err)
	default:
		if !meta.TrainDataHash.IsEmpty() && !meta.TrainDataHash.Equals(core.NewHash(train)) {
			return nil, fmt.Errorf("load %s: training frame does not match its recorded checksum", name)
		}
		if a.TrainingFrame, err = decodeFrame(train); err != nil {
			return nil, fmt.Errorf("load %s: decode training frame: %w", name, err)
		}
	}
	return a, nil
}

// Delete removes an artifact. Missing names fail with core.ErrArtifactNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	name, err := core.ParseModelName(name)
	if err != nil {
		return err
	}
	if err := s.blobs.RemoveUnit(ctx, name); err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return fmt.Errorf("%w: %s", core.ErrArtifactNotFound, name)
		}
		return err
	}
	log.Debug().Str("model", name).Msg("artifact deleted")
	return nil
}

// List returns the stored artifact names
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.blobs.ListUnits(ctx)
}

// Exists reports whether an artifact is stored under name
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	return s.blobs.BlobExists(ctx, name+"/"+ModelFile)
}

func (s *Store) read(ctx context.Context, name, file string) ([]byte, error) {
	data, err := s.blobs.ReadBlob(ctx, name+"/"+file)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrArtifactNotFound, name)
		}
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return data, nil
}

// encodeFrame writes a header row of column names followed by the values in
// shortest round-trip form
func encodeFrame(f *frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(f.Names()); err != nil {
		return nil, err
	}
	record := make([]string, f.Width())
	for r := 0; r < f.Rows(); r++ {
		for c := range record {
			record[c] = strconv.FormatFloat(f.At(r, c), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func decodeFrame(data []byte) (*frame.Frame, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("missing header")
	}
	names := records[0]
	rows := records[1:]
	cols := make([][]float64, len(names))
	for c := range cols {
		cols[c] = make([]float64, len(rows))
	}
	for r, rec := range rows {
		if len(rec) != len(names) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", r+1, len(rec), len(names))
		}
		for c, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", r+1, names[c], err)
			}
			cols[c][r] = v
		}
	}
	return frame.New(len(rows), names, cols)
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
