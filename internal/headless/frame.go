package headless

import (
	"fmt"

	"github.com/1broseidon/wlframe/internal/platform"
)

// FrameCommit is one recorded frame commit.
type FrameCommit struct {
	Width  int
	Height int
	Serial uint32
}

// Frame is a recorded frame library handle.
type Frame struct {
	Surface    platform.SurfaceID
	Title      string
	AppID      string
	Commits    []FrameCommit
	MinW, MinH int
	MaxW, MaxH int
	Maximized  bool
	Fullscreen bool
	Minimized  bool
	Mapped     bool
	Destroyed  bool
}

func (f *Frame) Commit(w, h int, serial uint32) {
	f.Commits = append(f.Commits, FrameCommit{Width: w, Height: h, Serial: serial})
}
func (f *Frame) SetTitle(title string) { f.Title = title }
func (f *Frame) SetAppID(appID string) { f.AppID = appID }
func (f *Frame) SetMinSize(w, h int)   { f.MinW, f.MinH = w, h }
func (f *Frame) SetMaxSize(w, h int)   { f.MaxW, f.MaxH = w, h }
func (f *Frame) SetMaximized(v bool)   { f.Maximized = v }
func (f *Frame) SetFullscreen(v bool)  { f.Fullscreen = v }
func (f *Frame) SetMinimized()         { f.Minimized = true }
func (f *Frame) Map()                  { f.Mapped = true }
func (f *Frame) Destroy()              { f.Destroyed = true }

// FrameLibrary is a frame library that records the frames it creates.
type FrameLibrary struct {
	Frames []*Frame
	// Fail makes Decorate return an error.
	Fail bool
}

var _ platform.FrameLibrary = (*FrameLibrary)(nil)

// Decorate creates a recorded frame.
func (l *FrameLibrary) Decorate(surface platform.SurfaceID, title, appID string) (platform.Frame, error) {
	if l.Fail {
		return nil, fmt.Errorf("frame library unavailable")
	}
	f := &Frame{Surface: surface, Title: title, AppID: appID}
	l.Frames = append(l.Frames, f)
	return f, nil
}

// Last returns the most recently created frame.
func (l *FrameLibrary) Last() *Frame {
	if len(l.Frames) == 0 {
		return nil
	}
	return l.Frames[len(l.Frames)-1]
}
