package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/backend"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type businessGetter interface {
	Get(ctx context.Context, id string) (*backend.Business, error)
}

type categoryLister interface {
	List(ctx context.Context, query map[string]string) ([]backend.Category, error)
}

type itemStore interface {
	List(ctx context.Context, query map[string]string) ([]backend.Item, error)
	Get(ctx context.Context, id string) (*backend.Item, error)
}

// Menu is what a shopper browses for one business.
type Menu struct {
	Business   backend.Business   `json:"business"`
	Categories []backend.Category `json:"categories"`
	Items      []backend.Item     `json:"items"`
}

// Service reads the catalog from the remote backend.
type Service struct {
	businesses businessGetter
	categories categoryLister
	items      itemStore
}

func NewService(businesses businessGetter, categories categoryLister, items itemStore) (*Service, error) {
	if businesses == nil || categories == nil || items == nil {
		return nil, fmt.Errorf("catalog requires business, category and item resources")
	}
	return &Service{businesses: businesses, categories: categories, items: items}, nil
}

// FromResources wires the service to the backend resource clients.
func FromResources(res *backend.Resources) (*Service, error) {
	if res == nil {
		return nil, fmt.Errorf("backend resources required")
	}
	return NewService(res.Businesses, res.Categories, res.Items)
}

// Menu loads the business, its categories and its available items.
func (s *Service) Menu(ctx context.Context, businessID string) (*Menu, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}

	var (
		business   *backend.Business
		categories []backend.Category
		items      []backend.Item
	)
	filter := map[string]string{"businessId": businessID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		business, err = s.businesses.Get(gctx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.items.List(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	available := make([]backend.Item, 0, len(items))
	for _, item := range items {
		if item.BusinessID != "" && item.BusinessID != businessID {
			continue
		}
		if item.IsAvailable() {
			available = append(available, item)
		}
	}

	return &Menu{
		Business:   *business,
		Categories: categories,
		Items:      available,
	}, nil
}

// Item loads one orderable item of the business as a cart item.
func (s *Service) Item(ctx context.Context, businessID, itemID string) (cart.Item, error) {
	item, err := s.items.Get(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return cart.Item{}, err
	}
	if item.BusinessID != strings.TrimSpace(businessID) {
		return cart.Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if !item.IsAvailable() {
		return cart.Item{}, pkgerrors.New(pkgerrors.CodeUnprocessable, "item is not available").
			WithDetails(map[string]string{"item_id": item.ID})
	}
	if item.Price.IsNegative() {
		return cart.Item{}, pkgerrors.New(pkgerrors.CodeDependency, "item has an invalid price")
	}
	return cart.Item{
		ID:        item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		ImageRef:  item.Image,
	}, nil
}
