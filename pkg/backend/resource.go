package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Resource is the CRUD surface for one backend collection.
type Resource[T any] struct {
	client *Client
	name   enums.Resource
}

func NewResource[T any](client *Client, name enums.Resource) *Resource[T] {
	return &Resource[T]{client: client, name: name}
}

func (r *Resource[T]) Name() enums.Resource {
	return r.name
}

// List returns the collection filtered by query.
func (r *Resource[T]) List(ctx context.Context, query map[string]string) ([]T, error) {
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	var out []T
	if err := r.client.do(ctx, http.MethodGet, r.collectionPath(), values, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	path, err := r.memberPath(id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := r.client.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Create(ctx context.Context, v T) (*T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodPost, r.collectionPath(), nil, v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Update(ctx context.Context, id string, v T) (*T, error) {
	path, err := r.memberPath(id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := r.client.do(ctx, http.MethodPut, path, nil, v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	path, err := r.memberPath(id)
	if err != nil {
		return err
	}
	return r.client.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (r *Resource[T]) collectionPath() string {
	return "/" + r.name.String()
}

func (r *Resource[T]) memberPath(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "id is required").WithDetails(map[string]string{"id": "is required"})
	}
	return r.collectionPath() + "/" + url.PathEscape(trimmed), nil
}

// Resources bundles a typed client per backend collection.
type Resources struct {
	Users            *Resource[User]
	Roles            *Resource[Role]
	Businesses       *Resource[Business]
	Categories       *Resource[Category]
	Items            *Resource[Item]
	Subscriptions    *Resource[Subscription]
	Orders           *Resource[Order]
	TelegramContacts *Resource[TelegramContact]
}

func NewResources(client *Client) *Resources {
	return &Resources{
		Users:            NewResource[User](client, enums.ResourceUsers),
		Roles:            NewResource[Role](client, enums.ResourceRoles),
		Businesses:       NewResource[Business](client, enums.ResourceBusinesses),
		Categories:       NewResource[Category](client, enums.ResourceCategories),
		Items:            NewResource[Item](client, enums.ResourceItems),
		Subscriptions:    NewResource[Subscription](client, enums.ResourceSubscriptions),
		Orders:           NewResource[Order](client, enums.ResourceOrders),
		TelegramContacts: NewResource[TelegramContact](client, enums.ResourceTelegramContacts),
	}
}

// Raw returns an untyped resource used to pass admin payloads through.
func Raw(client *Client, name enums.Resource) *Resource[json.RawMessage] {
	return NewResource[json.RawMessage](client, name)
}
