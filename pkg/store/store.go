// Package store defines the persistence boundary of the engine. Templates and
// contracts are read and written by id; listings return insertion order.
package store

import (
	"context"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// TemplateStore persists templates.
type TemplateStore interface {
	GetTemplate(ctx context.Context, id string) (model.Template, bool, error)
	PutTemplate(ctx context.Context, tpl model.Template) error
	ListTemplates(ctx context.Context) ([]model.Template, error)
}

// ContractStore persists contracts.
type ContractStore interface {
	GetContract(ctx context.Context, id string) (model.Contract, bool, error)
	PutContract(ctx context.Context, contract model.Contract) error
	ListContracts(ctx context.Context) ([]model.Contract, error)
}

// Store combines both collections.
type Store interface {
	TemplateStore
	ContractStore
}
