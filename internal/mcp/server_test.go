package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/wlframe/internal/ipc"
	"github.com/1broseidon/wlframe/internal/logging"
	"github.com/1broseidon/wlframe/internal/offer"
	"github.com/1broseidon/wlframe/internal/window"
)

type fakeClient struct {
	status  ipc.StatusData
	windows []window.Info
	offers  []window.OfferInfo
	err     error
}

func (f *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.status, nil
}

func (f *fakeClient) GetWindows() (*ipc.WindowsData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.WindowsData{Windows: f.windows}, nil
}

func (f *fakeClient) GetWindow(id uint32) (*window.Info, error) {
	for _, w := range f.windows {
		if w.ID == id {
			return &w, nil
		}
	}
	return nil, errors.New("session error: unknown window")
}

func (f *fakeClient) GetOffers() (*ipc.OffersData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.OffersData{Offers: f.offers}, nil
}

func newTestServer(f *fakeClient) *Server {
	return NewServer(f, logging.Discard())
}

func TestHandleGetStatus(t *testing.T) {
	f := &fakeClient{status: ipc.StatusData{Source: "demo.yaml", Status: window.Status{Windows: 2, Offers: 1}}}
	_, out, err := newTestServer(f).handleGetStatus(context.Background(), nil, GetStatusInput{})
	if err != nil {
		t.Fatalf("handleGetStatus: %v", err)
	}
	if out.Source != "demo.yaml" || out.Status.Windows != 2 || out.Status.Offers != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestHandleListWindows_DecoratedFilter(t *testing.T) {
	f := &fakeClient{windows: []window.Info{
		{ID: 1, Title: "plain"},
		{ID: 2, Title: "framed", Decorations: &window.DecorInfo{TitlebarHeight: 30}},
	}}
	s := newTestServer(f)

	tests := []struct {
		name      string
		decorated bool
		want      []uint32
	}{
		{"all", false, []uint32{1, 2}},
		{"decorated only", true, []uint32{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{Decorated: tt.decorated})
			if err != nil {
				t.Fatalf("handleListWindows: %v", err)
			}
			if len(out.Windows) != len(tt.want) {
				t.Fatalf("got %d windows, want %d", len(out.Windows), len(tt.want))
			}
			for i, id := range tt.want {
				if out.Windows[i].ID != id {
					t.Errorf("window %d id = %d, want %d", i, out.Windows[i].ID, id)
				}
			}
		})
	}
}

func TestHandleGetWindow(t *testing.T) {
	s := newTestServer(&fakeClient{windows: []window.Info{{ID: 3, Title: "three"}}})

	_, out, err := s.handleGetWindow(context.Background(), nil, GetWindowInput{ID: 3})
	if err != nil {
		t.Fatalf("handleGetWindow: %v", err)
	}
	if out.Window.Title != "three" {
		t.Fatalf("unexpected window %+v", out.Window)
	}

	if _, _, err := s.handleGetWindow(context.Background(), nil, GetWindowInput{}); err == nil || !strings.Contains(err.Error(), "id is required") {
		t.Fatalf("expected id error, got %v", err)
	}
	if _, _, err := s.handleGetWindow(context.Background(), nil, GetWindowInput{ID: 9}); err == nil {
		t.Fatal("expected unknown window error")
	}
}

func TestHandleListOffers(t *testing.T) {
	f := &fakeClient{offers: []window.OfferInfo{
		{ID: 10, Type: offer.TypeClipboard.String()},
		{ID: 11, Type: offer.TypeDragAndDrop.String()},
	}}
	s := newTestServer(f)

	_, out, err := s.handleListOffers(context.Background(), nil, ListOffersInput{Type: "drag-and-drop"})
	if err != nil {
		t.Fatalf("handleListOffers: %v", err)
	}
	if len(out.Offers) != 1 || out.Offers[0].ID != 11 || out.Capacity != offer.Capacity {
		t.Fatalf("unexpected output %+v", out)
	}

	if _, _, err := s.handleListOffers(context.Background(), nil, ListOffersInput{Type: "carrier-pigeon"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestHandlers_PropagateClientErrors(t *testing.T) {
	s := newTestServer(&fakeClient{err: errors.New("failed to connect to session")})
	if _, _, err := s.handleGetStatus(context.Background(), nil, GetStatusInput{}); err == nil {
		t.Fatal("expected get_status error")
	}
	if _, _, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{}); err == nil {
		t.Fatal("expected list_windows error")
	}
	if _, _, err := s.handleListOffers(context.Background(), nil, ListOffersInput{}); err == nil {
		t.Fatal("expected list_offers error")
	}
}
