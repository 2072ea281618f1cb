package commands

import (
	"sync"

	"github.com/ZentaChain/adtp/pkg/protocol"
)

// MemoryStore answers requests from an in-memory map keyed by URI
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (s *MemoryStore) ServeADTP(req *protocol.Request) *protocol.Response {
	if !req.Version.Supported() {
		return protocol.NewResponse(protocol.StatusBadRequest).SetContent("unsupported version " + string(req.Version))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, exists := s.items[req.URI]
	switch req.Method {
	case protocol.MethodCheck:
		if !exists {
			return protocol.NewResponse(protocol.StatusNotFound)
		}
		return protocol.NewResponse(protocol.StatusOK)
	case protocol.MethodRead:
		if !exists {
			return protocol.NewResponse(protocol.StatusNotFound)
		}
		return protocol.NewResponse(protocol.StatusOK).SetContent(value)
	case protocol.MethodCreate:
		if exists {
			return protocol.NewResponse(protocol.StatusDenied).SetContent("already exists")
		}
		s.items[req.URI] = req.Content
		return protocol.NewResponse(protocol.StatusOK).SetContent(req.Content)
	case protocol.MethodUpdate:
		if !exists {
			return protocol.NewResponse(protocol.StatusNotFound)
		}
		s.items[req.URI] = req.Content
		return protocol.NewResponse(protocol.StatusOK)
	case protocol.MethodAppend:
		s.items[req.URI] = value + req.Content
		return protocol.NewResponse(protocol.StatusOK).SetContent(s.items[req.URI])
	case protocol.MethodDestroy:
		if !exists {
			return protocol.NewResponse(protocol.StatusNotFound)
		}
		delete(s.items, req.URI)
		return protocol.NewResponse(protocol.StatusOK)
	default:
		return protocol.NewResponse(protocol.StatusUnauthorized).SetContent("authentication is not supported")
	}
}
