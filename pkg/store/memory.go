package store

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-contractgen/pkg/model"
)

var errEmptyID = errors.New("store: id is required")

// Memory is an in-process Store. Values are cloned on the way in and out so
// callers never share slices or maps with the store.
type Memory struct {
	mu            sync.RWMutex
	templates     map[string]model.Template
	templateOrder []string
	contracts     map[string]model.Contract
	contractOrder []string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		templates: make(map[string]model.Template),
		contracts: make(map[string]model.Contract),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) GetTemplate(_ context.Context, id string) (model.Template, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tpl, ok := m.templates[id]
	if !ok {
		return model.Template{}, false, nil
	}
	return tpl.Clone(), true, nil
}

func (m *Memory) PutTemplate(_ context.Context, tpl model.Template) error {
	if tpl.ID == "" {
		return errEmptyID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.templates[tpl.ID]; !exists {
		m.templateOrder = append(m.templateOrder, tpl.ID)
	}
	m.templates[tpl.ID] = tpl.Clone()
	return nil
}

func (m *Memory) ListTemplates(_ context.Context) ([]model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Template, 0, len(m.templateOrder))
	for _, id := range m.templateOrder {
		out = append(out, m.templates[id].Clone())
	}
	return out, nil
}

func (m *Memory) GetContract(_ context.Context, id string) (model.Contract, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	contract, ok := m.contracts[id]
	if !ok {
		return model.Contract{}, false, nil
	}
	return contract.Clone(), true, nil
}

func (m *Memory) PutContract(_ context.Context, contract model.Contract) error {
	if contract.ID == "" {
		return errEmptyID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.contracts[contract.ID]; !exists {
		m.contractOrder = append(m.contractOrder, contract.ID)
	}
	m.contracts[contract.ID] = contract.Clone()
	return nil
}

func (m *Memory) ListContracts(_ context.Context) ([]model.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Contract, 0, len(m.contractOrder))
	for _, id := range m.contractOrder {
		out = append(out, m.contracts[id].Clone())
	}
	return out, nil
}
