// Package certstore persists PEM key material on disk, one file per
// certificate id and kind.
package certstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/rezonia/zatca-phase2/internal/model"
)

// Kinds of stored material
const (
	KindCSR        = "csr"
	KindPrivate    = "private"
	KindPublic     = "public"
	KindCompliance = "compliance"
	KindProduction = "production"
)

// FileStore reads and writes PEM files under a single directory as
// <kind>_<certificateId>.pem. The pipeline only ever reads from it, so
// no locking is needed on the hot path.
type FileStore struct {
	dir string
	log zerolog.Logger
}

// Option configures a FileStore
type Option func(*FileStore)

// WithLogger sets the store's logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *FileStore) {
		s.log = log
	}
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string, opts ...Option) *FileStore {
	s := &FileStore{dir: dir, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store writes certificate content for the given id and kind
func (s *FileStore) Store(_ context.Context, certificateID string, content []byte, kind string) error {
	s.log.Debug().Str("certificateId", certificateID).Str("kind", kind).Msg("storing certificate")

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return model.NewError(model.CodeCertStorage,
			fmt.Sprintf("failed to store %s certificate", kind), err)
	}
	if err := os.WriteFile(s.path(certificateID, kind), content, 0o600); err != nil {
		return model.NewError(model.CodeCertStorage,
			fmt.Sprintf("failed to store %s certificate", kind), err)
	}
	return nil
}

// Load reads certificate content for the given id and kind
func (s *FileStore) Load(_ context.Context, certificateID, kind string) ([]byte, error) {
	s.log.Debug().Str("certificateId", certificateID).Str("kind", kind).Msg("loading certificate")

	content, err := os.ReadFile(s.path(certificateID, kind))
	if err != nil {
		return nil, model.NewError(model.CodeCertLoading,
			fmt.Sprintf("failed to load %s certificate", kind), err)
	}
	return content, nil
}

func (s *FileStore) path(certificateID, kind string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.pem", kind, certificateID))
}
