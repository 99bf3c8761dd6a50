package registry

import (
	"errors"
	"fmt"

	"github.com/newsroomlabs/usage-insight/internal/config"
)

var ErrServiceNotFound = errors.New("service not found")

// KeyEncoding describes how a usage table packs identity and time into its
// partition and sort keys.
type KeyEncoding struct {
	PartitionKeyField   string
	SortKeyField        string
	PartitionKeyPattern string
	SortKeyPattern      string
}

// Service is the immutable descriptor of one registered micro-service,
// loaded at process start.
type Service struct {
	ID                 string
	Name               string
	DisplayName        string
	UsageTable         string
	ConversationsTable string
	Engines            []string
	Active             bool
	Keys               KeyEncoding

	engineIndex map[string]int
}

// EngineIndex returns the stable index of the engine within this service's
// vocabulary. Indexes are the positions in the configured engine list, so
// they survive restarts and are identical across concurrent instances.
func (s *Service) EngineIndex(engine string) (int, bool) {
	idx, ok := s.engineIndex[engine]
	return idx, ok
}

// KnowsEngine reports whether the engine belongs to this service's vocabulary.
func (s *Service) KnowsEngine(engine string) bool {
	_, ok := s.engineIndex[engine]
	return ok
}

// Registry holds the ordered set of service descriptors.
type Registry struct {
	services []*Service
	byID     map[string]*Service
}

// FromConfig builds the registry from configuration entries, preserving
// their order.
func FromConfig(entries []config.ServiceEntry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("registry requires at least one service")
	}
	r := &Registry{
		services: make([]*Service, 0, len(entries)),
		byID:     make(map[string]*Service, len(entries)),
	}
	for _, entry := range entries {
		if _, dup := r.byID[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate service id %q", entry.ID)
		}
		svc := &Service{
			ID:                 entry.ID,
			Name:               entry.Name,
			DisplayName:        entry.DisplayName,
			UsageTable:         entry.UsageTable,
			ConversationsTable: entry.ConversationsTable,
			Engines:            append([]string(nil), entry.Engines...),
			Active:             entry.Active,
			Keys: KeyEncoding{
				PartitionKeyField:   entry.Keys.PartitionKeyField,
				SortKeyField:        entry.Keys.SortKeyField,
				PartitionKeyPattern: entry.Keys.PartitionKeyPattern,
				SortKeyPattern:      entry.Keys.SortKeyPattern,
			},
			engineIndex: make(map[string]int, len(entry.Engines)),
		}
		for i, engine := range entry.Engines {
			if _, dup := svc.engineIndex[engine]; !dup {
				svc.engineIndex[engine] = i
			}
		}
		r.services = append(r.services, svc)
		r.byID[svc.ID] = svc
	}
	return r, nil
}

// Get returns the descriptor for the given service id.
func (r *Registry) Get(id string) (*Service, error) {
	svc, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}
	return svc, nil
}

// Services returns all descriptors in registration order.
func (r *Registry) Services() []*Service {
	return r.services
}

// First returns the first registered descriptor. Cross-service operations
// use it as the fallback key scheme when no single service is selected.
func (r *Registry) First() *Service {
	return r.services[0]
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	return len(r.services)
}
