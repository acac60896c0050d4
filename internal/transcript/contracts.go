package transcript

import "cuetrack/internal/loading"

// Renderer draws the transcript. Index refers to the session's cue store.
type Renderer interface {
	ActiveCueChanged(index int, ok bool)
	LoadingStateChanged(state loading.State)
	CuesChanged(count int)
}

// Player is the media player a transcript controls for click-to-seek.
type Player interface {
	Seek(seconds float64) error
	Play() error
}

// Clock reports the player's current playback position in seconds.
type Clock interface {
	CurrentTime() float64
}

// RendererFuncs adapts plain functions to Renderer. Nil fields are skipped.
type RendererFuncs struct {
	OnActive  func(index int, ok bool)
	OnLoading func(state loading.State)
	OnCues    func(count int)
}

func (r RendererFuncs) ActiveCueChanged(index int, ok bool) {
	if r.OnActive != nil {
		r.OnActive(index, ok)
	}
}

func (r RendererFuncs) LoadingStateChanged(state loading.State) {
	if r.OnLoading != nil {
		r.OnLoading(state)
	}
}

func (r RendererFuncs) CuesChanged(count int) {
	if r.OnCues != nil {
		r.OnCues(count)
	}
}

// MultiRenderer fans events out to several renderers in order.
type MultiRenderer []Renderer

func (m MultiRenderer) ActiveCueChanged(index int, ok bool) {
	for _, r := range m {
		r.ActiveCueChanged(index, ok)
	}
}

func (m MultiRenderer) LoadingStateChanged(state loading.State) {
	for _, r := range m {
		r.LoadingStateChanged(state)
	}
}

func (m MultiRenderer) CuesChanged(count int) {
	for _, r := range m {
		r.CuesChanged(count)
	}
}
