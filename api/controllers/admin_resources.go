package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const maxAdminBodyBytes = 1 << 20

// Filters forwarded to the backend on list requests.
var adminListFilters = []string{"businessId", "categoryId", "userId", "role", "status", "q", "page", "limit"}

// RawResource is the untyped CRUD surface of one backend collection.
type RawResource interface {
	List(ctx context.Context, query map[string]string) ([]json.RawMessage, error)
	Get(ctx context.Context, id string) (*json.RawMessage, error)
	Create(ctx context.Context, v json.RawMessage) (*json.RawMessage, error)
	Update(ctx context.Context, id string, v json.RawMessage) (*json.RawMessage, error)
	Delete(ctx context.Context, id string) error
}

// ResourceResolver returns the backend collection for a resource name.
type ResourceResolver func(name enums.Resource) RawResource

func adminResource(w http.ResponseWriter, r *http.Request, resolve ResourceResolver, logg *logger.Logger) (RawResource, bool) {
	name, err := enums.ParseResource(chi.URLParam(r, "resource"))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown resource"))
		return nil, false
	}
	if resolve == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backend unavailable"))
		return nil, false
	}
	return resolve(name), true
}

func AdminResourceList(resolve ResourceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := adminResource(w, r, resolve, logg)
		if !ok {
			return
		}
		items, err := res.List(r.Context(), validators.PassthroughQuery(r, adminListFilters...))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		responses.WriteSuccess(w, items)
	}
}

func AdminResourceGet(resolve ResourceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := adminResource(w, r, resolve, logg)
		if !ok {
			return
		}
		item, err := res.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func AdminResourceCreate(resolve ResourceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := adminResource(w, r, resolve, logg)
		if !ok {
			return
		}
		body, err := readJSONObject(w, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := res.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func AdminResourceUpdate(resolve ResourceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := adminResource(w, r, resolve, logg)
		if !ok {
			return
		}
		body, err := readJSONObject(w, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := res.Update(r.Context(), chi.URLParam(r, "id"), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func AdminResourceDelete(resolve ResourceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := adminResource(w, r, resolve, logg)
		if !ok {
			return
		}
		if err := res.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// readJSONObject reads the body as-is; the backend owns the resource schema.
func readJSONObject(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAdminBodyBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request body must be a json object")
	}
	return json.RawMessage(trimmed), nil
}
