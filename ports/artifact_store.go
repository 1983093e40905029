package ports

import (
	"context"

	"studentperf/domain/model"
)

// ArtifactStore persists model artifacts by name. A save supersedes any
// artifact of the same name; load and delete of an absent name fail with
// core.ErrArtifactNotFound.
type ArtifactStore interface {
	Save(ctx context.Context, a *model.Artifact) error
	Load(ctx context.Context, name string) (*model.Artifact, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}
