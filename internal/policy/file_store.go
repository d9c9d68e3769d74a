// Package policy persists the advisor's self-tuned policy.
package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/types"
)

// FileStore keeps the policy as a flat JSON object, e.g.
//
//	{"threshold": 0.01, "learning_rate": 0.05, "min_threshold": 0.002, "max_threshold": 0.05}
type FileStore struct {
	path string
}

var _ interfaces.PolicyStore = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns the stored policy. On first run the defaults are written and
// returned. A file that exists but cannot be decoded is ErrCorruptState and
// is left untouched.
func (s *FileStore) Load(ctx context.Context) (types.Policy, error) {
	b, err := runWithContext(ctx, "read", func() ([]byte, error) {
		return os.ReadFile(s.path)
	})
	if errors.Is(err, fs.ErrNotExist) {
		p := types.DefaultPolicy()
		logger.Info(ctx, "No stored policy found, bootstrapping defaults", "path", s.path)
		if err := s.Save(ctx, p); err != nil {
			return types.Policy{}, err
		}
		return p, nil
	}
	if err != nil {
		if errors.Is(err, types.ErrIOFailure) {
			return types.Policy{}, err
		}
		return types.Policy{}, fmt.Errorf("%w: read policy %s: %w", types.ErrIOFailure, s.path, err)
	}

	var m map[string]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return types.Policy{}, fmt.Errorf("%w: policy file %s is not valid JSON (fix or delete it to reset): %v",
			types.ErrCorruptState, s.path, err)
	}
	p, err := types.PolicyFromMap(m)
	if err != nil {
		return types.Policy{}, fmt.Errorf("policy file %s: %w", s.path, err)
	}
	return p, nil
}

// Save atomically replaces the policy file. A copy of the previous file is
// kept next to it with a .bak suffix.
func (s *FileStore) Save(ctx context.Context, p types.Policy) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: refusing to save policy: %v", types.ErrInvalidInput, err)
	}
	b, err := json.MarshalIndent(p.ToMap(), "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode policy: %w", types.ErrIOFailure, err)
	}

	_, err = runWithContext(ctx, "write", func() (struct{}, error) {
		if prev, err := os.ReadFile(s.path); err == nil {
			if err := writeFileAtomic(s.path+".bak", prev, 0o644); err != nil {
				logger.Warn(ctx, "Failed to back up previous policy", "path", s.path+".bak", "error", err)
			}
		}
		return struct{}{}, writeFileAtomic(s.path, b, 0o644)
	})
	if err != nil {
		if errors.Is(err, types.ErrIOFailure) {
			return err
		}
		return fmt.Errorf("%w: write policy %s: %w", types.ErrIOFailure, s.path, err)
	}
	return nil
}
