package offer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/1broseidon/wlframe/internal/platform"
)

// identityPrefix starts the mime type a local source advertises to
// recognise its own offers.
const identityPrefix = "application/x-wlframe-source;id="

// IsIdentity reports whether mime is a source identity type.
func IsIdentity(mime string) bool {
	return strings.HasPrefix(mime, identityPrefix)
}

// SourceCompositor is the part of the compositor that handles data sources.
type SourceCompositor interface {
	CreateDataSource(primary bool, mimes []string) (platform.SourceID, error)
	DestroyDataSource(source platform.SourceID)
	SetSelection(source platform.SourceID, primary bool, serial uint32)
}

// Source is data this process offers on the clipboard or primary selection.
type Source struct {
	ID       platform.SourceID
	Primary  bool
	Identity string
	Mimes    []string
	data     map[string][]byte
}

// Sources owns the local data sources. The live source per selection is the
// last one set; replaced sources stay until the compositor cancels them.
type Sources struct {
	comp   SourceCompositor
	logger *slog.Logger
	pid    int

	next      uint64
	clipboard *Source
	primary   *Source
	byID      map[platform.SourceID]*Source
}

// NewSources creates an empty source set.
func NewSources(comp SourceCompositor, logger *slog.Logger) *Sources {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sources{
		comp:   comp,
		logger: logger,
		pid:    os.Getpid(),
		byID:   make(map[platform.SourceID]*Source),
	}
}

// Set offers data on the clipboard, or the primary selection when primary is
// set. data maps mime types to their bytes.
func (s *Sources) Set(primary bool, serial uint32, data map[string][]byte) (*Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data source needs at least one mime type")
	}
	s.next++
	src := &Source{
		Primary:  primary,
		Identity: fmt.Sprintf("%s%d-%d", identityPrefix, s.pid, s.next),
		data:     make(map[string][]byte, len(data)),
	}
	for mime, b := range data {
		src.Mimes = append(src.Mimes, mime)
		src.data[mime] = append([]byte(nil), b...)
	}
	sort.Strings(src.Mimes)

	advertised := append(append([]string(nil), src.Mimes...), src.Identity)
	id, err := s.comp.CreateDataSource(primary, advertised)
	if err != nil {
		return nil, fmt.Errorf("create data source: %w", err)
	}
	src.ID = id
	s.byID[id] = src
	if primary {
		s.primary = src
	} else {
		s.clipboard = src
	}
	s.comp.SetSelection(id, primary, serial)
	s.logger.Debug("data source set", "source", id, "primary", primary, "mimes", len(src.Mimes))
	return src, nil
}

// Live returns the current source of a selection.
func (s *Sources) Live(primary bool) *Source {
	if primary {
		return s.primary
	}
	return s.clipboard
}

// IsLocalIdentity reports whether identity belongs to a live local source.
func (s *Sources) IsLocalIdentity(identity string) bool {
	for _, src := range []*Source{s.clipboard, s.primary} {
		if src != nil && src.Identity == identity {
			return true
		}
	}
	return false
}

// LocalData returns the bytes for mime when identity is exactly that of a
// live local source. Replaced or cancelled sources never match.
func (s *Sources) LocalData(identity, mime string) ([]byte, bool) {
	for _, src := range []*Source{s.clipboard, s.primary} {
		if src == nil || src.Identity != identity {
			continue
		}
		b, ok := src.data[mime]
		return b, ok
	}
	return nil, false
}

// Send writes the bytes of mime for a compositor send request.
func (s *Sources) Send(id platform.SourceID, mime string, w io.Writer) error {
	src, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("send for unknown data source %d", id)
	}
	b, ok := src.data[mime]
	if !ok {
		return fmt.Errorf("data source %d %q: %w", id, mime, ErrMimeNotOffered)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write data source %d: %w", id, err)
	}
	return nil
}

// Cancelled destroys a source the compositor no longer uses.
func (s *Sources) Cancelled(id platform.SourceID) {
	src, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	s.comp.DestroyDataSource(id)
	if s.clipboard == src {
		s.clipboard = nil
	}
	if s.primary == src {
		s.primary = nil
	}
}

// Len returns the number of sources not yet cancelled.
func (s *Sources) Len() int {
	return len(s.byID)
}

// Close destroys every source.
func (s *Sources) Close() {
	for id := range s.byID {
		s.comp.DestroyDataSource(id)
	}
	s.byID = make(map[platform.SourceID]*Source)
	s.clipboard, s.primary = nil, nil
}
