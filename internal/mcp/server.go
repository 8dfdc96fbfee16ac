// Package mcp exposes a running wlframe session to MCP clients. Every tool
// is a read-only query answered over the session's inspection socket.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wlframe/internal/ipc"
	"github.com/1broseidon/wlframe/internal/offer"
	"github.com/1broseidon/wlframe/internal/window"
)

const (
	ServerName    = "wlframe"
	ServerVersion = "0.1.0"
)

// SessionClient queries a running session. *ipc.Client implements it.
type SessionClient interface {
	GetStatus() (*ipc.StatusData, error)
	GetWindows() (*ipc.WindowsData, error)
	GetWindow(id uint32) (*window.Info, error)
	GetOffers() (*ipc.OffersData, error)
}

var _ SessionClient = (*ipc.Client)(nil)

// Server is the MCP server for session inspection.
type Server struct {
	mcpServer *mcpsdk.Server
	client    SessionClient
	logger    *slog.Logger
}

// NewServer creates an MCP server that answers through client.
func NewServer(client SessionClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{client: client, logger: logger}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Summarize the running session: live windows, data offers, clipboard sources, pending activation requests, scheduled timers and whether key repeat or a cursor animation is active.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List live windows with their committed size, pending size, state flags, decoration mode and client-side decoration counters.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window",
		Description: "Fetch one window by id.",
	}, s.handleGetWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_offers",
		Description: "List live data offers (clipboard, primary selection and drag-and-drop) with their mime types and negotiated drag actions.",
	}, s.handleListOffers)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	st, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	s.logger.Debug("mcp get_status", "windows", st.Windows, "offers", st.Offers)
	return nil, GetStatusOutput{Source: st.Source, Status: st.Status}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.client.GetWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	windows := make([]window.Info, 0, len(data.Windows))
	for _, w := range data.Windows {
		if args.Decorated && w.Decorations == nil {
			continue
		}
		windows = append(windows, w)
	}
	s.logger.Debug("mcp list_windows", "count", len(windows))
	return nil, ListWindowsOutput{Windows: windows}, nil
}

func (s *Server) handleGetWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args GetWindowInput) (*mcpsdk.CallToolResult, GetWindowOutput, error) {
	if args.ID == 0 {
		return nil, GetWindowOutput{}, errors.New("id is required")
	}
	info, err := s.client.GetWindow(args.ID)
	if err != nil {
		return nil, GetWindowOutput{}, err
	}
	return nil, GetWindowOutput{Window: *info}, nil
}

func (s *Server) handleListOffers(_ context.Context, _ *mcpsdk.CallToolRequest, args ListOffersInput) (*mcpsdk.CallToolResult, ListOffersOutput, error) {
	if args.Type != "" && !knownOfferType(args.Type) {
		return nil, ListOffersOutput{}, fmt.Errorf("unknown offer type %q", args.Type)
	}
	data, err := s.client.GetOffers()
	if err != nil {
		return nil, ListOffersOutput{}, err
	}
	offers := make([]window.OfferInfo, 0, len(data.Offers))
	for _, o := range data.Offers {
		if args.Type != "" && o.Type != args.Type {
			continue
		}
		offers = append(offers, o)
	}
	return nil, ListOffersOutput{Offers: offers, Capacity: offer.Capacity}, nil
}

func knownOfferType(name string) bool {
	for _, t := range []offer.Type{offer.TypeClipboard, offer.TypePrimarySelection, offer.TypeDragAndDrop, offer.TypeNew} {
		if t.String() == name {
			return true
		}
	}
	return false
}
