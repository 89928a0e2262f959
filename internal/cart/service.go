package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ariefcatur/go-shop-orders.git/internal/catalog"
)

var (
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrNotInCart          = errors.New("item not found in cart")
)

type Store interface {
	Lines(ctx context.Context, userID string) ([]Line, error)
	SetQty(ctx context.Context, userID, productID string, qty int) error
	Remove(ctx context.Context, userID, productID string) (bool, error)
	RemoveLines(ctx context.Context, userID string, productIDs []string) error
}

type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type Service struct {
	Carts   Store
	Catalog ProductCatalog
	Summary SummaryCache // optional
}

// Add merges qty into an existing line if present. The merged quantity must
// still fit within live stock or nothing is mutated.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	p, err := s.Catalog.GetProduct(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		return ErrProductUnavailable
	}
	if err != nil {
		return err
	}
	if p.ReviewStatus != catalog.ReviewApproved {
		return fmt.Errorf("%w: %s is not available", ErrProductUnavailable, p.Name)
	}

	lines, err := s.Carts.Lines(ctx, userID)
	if err != nil {
		return err
	}
	newQty := qty
	for _, l := range lines {
		if l.ProductID == productID {
			newQty += l.Qty
			break
		}
	}
	if p.Stock < newQty {
		return fmt.Errorf("%w: only %d of %s available", ErrInsufficientStock, p.Stock, p.Name)
	}
	if err := s.Carts.SetQty(ctx, userID, productID, newQty); err != nil {
		return err
	}
	s.refreshSummary(ctx, userID)
	return nil
}

// UpdateQuantity replaces a line's quantity. Zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		_, err := s.Carts.Remove(ctx, userID, productID)
		if err != nil {
			return err
		}
		s.refreshSummary(ctx, userID)
		return nil
	}

	lines, err := s.Carts.Lines(ctx, userID)
	if err != nil {
		return err
	}
	found := false
	for _, l := range lines {
		if l.ProductID == productID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotInCart
	}

	p, err := s.Catalog.GetProduct(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		return ErrProductUnavailable
	}
	if err != nil {
		return err
	}
	if p.Stock < qty {
		return fmt.Errorf("%w: only %d of %s available", ErrInsufficientStock, p.Stock, p.Name)
	}
	if err := s.Carts.SetQty(ctx, userID, productID, qty); err != nil {
		return err
	}
	s.refreshSummary(ctx, userID)
	return nil
}

func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	removed, err := s.Carts.Remove(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotInCart
	}
	s.refreshSummary(ctx, userID)
	return nil
}

// Get joins the cart with live products. Lines whose product no longer exists
// are pruned as a side effect; everything else is returned as-is, checkout
// does the strict validation.
func (s *Service) Get(ctx context.Context, userID string) ([]DisplayLine, Summary, error) {
	lines, err := s.Carts.Lines(ctx, userID)
	if err != nil {
		return nil, Summary{}, err
	}

	var out []DisplayLine
	var sum Summary
	var dangling []string
	for _, l := range lines {
		p, err := s.Catalog.GetProduct(ctx, l.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			log.Printf("cart: pruning dangling product %s for user %s", l.ProductID, userID)
			dangling = append(dangling, l.ProductID)
			continue
		}
		if err != nil {
			return nil, Summary{}, err
		}
		sub := p.PriceCents * l.Qty
		out = append(out, DisplayLine{
			ProductID:     p.ID,
			Name:          p.Name,
			PriceCents:    p.PriceCents,
			ImageURL:      p.ImageURL,
			Stock:         p.Stock,
			Qty:           l.Qty,
			SubtotalCents: sub,
		})
		sum.Items += l.Qty
		sum.TotalCents += sub
	}
	if len(dangling) > 0 {
		if err := s.Carts.RemoveLines(ctx, userID, dangling); err != nil {
			log.Printf("cart: prune failed for user %s: %v", userID, err)
		}
	}
	s.setSummary(ctx, userID, sum)
	return out, sum, nil
}

func (s *Service) refreshSummary(ctx context.Context, userID string) {
	if s.Summary == nil {
		return
	}
	lines, err := s.Carts.Lines(ctx, userID)
	if err != nil {
		log.Printf("cart: summary refresh read failed for user %s: %v", userID, err)
		return
	}
	var sum Summary
	for _, l := range lines {
		p, err := s.Catalog.GetProduct(ctx, l.ProductID)
		if err != nil {
			continue
		}
		sum.Items += l.Qty
		sum.TotalCents += p.PriceCents * l.Qty
	}
	s.setSummary(ctx, userID, sum)
}

func (s *Service) setSummary(ctx context.Context, userID string, sum Summary) {
	if s.Summary == nil {
		return
	}
	if err := s.Summary.Set(ctx, userID, sum); err != nil {
		log.Printf("cart: summary cache set failed for user %s: %v", userID, err)
	}
}
