package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuetrack/internal/cue"
)

// DirectorySource treats the caption files in a directory as a track list.
// Files are named <name>.<language>.vtt; the language part is optional.
type DirectorySource struct {
	Dir       string
	Languages []string
	Logger    *slog.Logger
}

func (s DirectorySource) Describe() string { return s.Dir }

// Tracks lists the directory's caption files as subtitle tracks in name
// order. Label is the file name.
func (s DirectorySource) Tracks() ([]Track, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var tracks []Track
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".vtt") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		var lang string
		if i := strings.LastIndexByte(stem, '.'); i >= 0 {
			lang = stem[i+1:]
		}
		tracks = append(tracks, Track{Kind: KindSubtitles, Label: name, Language: lang})
	}
	return tracks, nil
}

// Cues reads the file of the selected track. An empty directory reports
// ErrNoCaptionsAvailable.
func (s DirectorySource) Cues(ctx context.Context) ([]cue.Cue, error) {
	tracks, err := s.Tracks()
	if err != nil {
		return nil, Wrap(ErrSourceFetchFailed, "list", s.Dir, err)
	}
	track, ok := SelectTrack(tracks, s.Languages)
	if !ok {
		return nil, Wrap(ErrNoCaptionsAvailable, "select track", s.Dir+" has no caption files", nil)
	}
	return FileSource{Path: filepath.Join(s.Dir, track.Label), Logger: s.Logger}.Cues(ctx)
}
