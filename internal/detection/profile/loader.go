package profile

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"langpredict/internal/detection"
	"langpredict/pkg/logger"
)

// Source yields the profiles a Set is built from.
type Source interface {
	Profiles(ctx context.Context) ([]*Profile, error)
}

// Loader reads profiles from the filesystem and from in-memory documents.
type Loader struct {
	logger *logger.Logger
}

// NewLoader creates a new profile loader
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{
		logger: log.WithComponent("profile-loader"),
	}
}

// LoadDirectory loads every regular, non-hidden file in dir as a profile, in
// file name order. Subdirectories are not descended into. Any unreadable or
// malformed file aborts the load.
func (l *Loader) LoadDirectory(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, detection.WrapIO(err, "failed to read profile directory %s", dir)
	}

	var profiles []*Profile
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || !entry.Type().IsRegular() {
			continue
		}
		p, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	l.logger.Info().Int("count", len(profiles)).Str("dir", dir).Msg("loaded language profiles from directory")
	return profiles, nil
}

// LoadFile loads one profile file.
func (l *Loader) LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, detection.WrapIO(err, "failed to open profile %s", path)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		l.logger.Warn().Err(err).Str("file", path).Msg("failed to load profile")
		return nil, err
	}
	return p, nil
}

// ParseProfiles decodes profile documents held in memory.
func (l *Loader) ParseProfiles(docs []string) ([]*Profile, error) {
	profiles := make([]*Profile, 0, len(docs))
	for i, doc := range docs {
		p, err := Unmarshal([]byte(doc))
		if err != nil {
			l.logger.Warn().Err(err).Int("index", i).Msg("failed to parse profile")
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Directory returns a Source backed by dir.
func (l *Loader) Directory(dir string) Source {
	return dirSource{loader: l, dir: dir}
}

// Documents returns a Source backed by in-memory JSON documents.
func (l *Loader) Documents(docs []string) Source {
	return docSource{loader: l, docs: docs}
}

type dirSource struct {
	loader *Loader
	dir    string
}

func (s dirSource) Profiles(ctx context.Context) ([]*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loader.LoadDirectory(s.dir)
}

type docSource struct {
	loader *Loader
	docs   []string
}

func (s docSource) Profiles(ctx context.Context) ([]*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loader.ParseProfiles(s.docs)
}

// Static is a Source over profiles already in memory.
type Static []*Profile

func (s Static) Profiles(context.Context) ([]*Profile, error) { return s, nil }

// LoadSet builds a Set from src.
func LoadSet(ctx context.Context, src Source, opts ...SetOption) (*Set, error) {
	profiles, err := src.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	return NewSet(profiles, opts...)
}
