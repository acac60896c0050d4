package source

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"cuetrack/internal/cue"
	"cuetrack/internal/logging"
	"cuetrack/internal/webvtt"
)

// FileSource reads a caption document from disk on every call, so cues
// appended to the file after its first cue show up on later calls. A file
// without any cue yet is reported as having no captions; it is not waited on.
type FileSource struct {
	Path   string
	Logger *slog.Logger
}

func (s FileSource) Describe() string { return s.Path }

// Cues parses the file. A missing file is a fetch failure; a file without
// cues reports ErrNoCaptionsAvailable.
func (s FileSource) Cues(ctx context.Context) ([]cue.Cue, error) {
	if err := ctx.Err(); err != nil {
		return nil, Wrap(ErrSourceFetchFailed, "read", s.Path, err)
	}
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Wrap(ErrSourceFetchFailed, "open", "caption file missing", err)
		}
		return nil, Wrap(ErrSourceFetchFailed, "open", s.Path, err)
	}
	defer f.Close()

	doc, err := webvtt.Parse(f)
	if err != nil {
		return nil, Wrap(ErrSourceFetchFailed, "read", s.Path, err)
	}
	logSkipped(logging.NewComponentLogger(s.Logger, "source").With(logging.String(logging.FieldSource, s.Path)), doc)
	if len(doc.Cues) == 0 {
		return nil, Wrap(ErrNoCaptionsAvailable, "parse", s.Path+" has no cues", nil)
	}
	return doc.Cues, nil
}
