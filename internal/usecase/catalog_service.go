package usecase

import (
	"context"
	"strings"
	"time"

	"brazadash/internal/domain"
)

// CatalogService exposes catalog reads and the admin upserts.
type CatalogService struct {
	Repo CatalogRepo
	Now  func() time.Time
}

func (s *CatalogService) Restaurants(ctx context.Context) ([]domain.Restaurant, error) {
	all, err := s.Repo.ListRestaurants(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if r.IsApproved {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *CatalogService) Restaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	return s.Repo.GetRestaurant(ctx, id)
}

func (s *CatalogService) Menu(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	if _, err := s.Repo.GetRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	return s.Repo.ListMenuItems(ctx, restaurantID)
}

func (s *CatalogService) Providers(ctx context.Context) ([]domain.ServiceProvider, error) {
	all, err := s.Repo.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.IsApproved {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *CatalogService) Provider(ctx context.Context, id string) (*domain.ServiceProvider, error) {
	return s.Repo.GetServiceProvider(ctx, id)
}

func (s *CatalogService) Services(ctx context.Context, providerID string) ([]domain.Service, error) {
	if _, err := s.Repo.GetServiceProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return s.Repo.ListServices(ctx, providerID)
}

func (s *CatalogService) SaveRestaurant(ctx context.Context, r *domain.Restaurant) error {
	if strings.TrimSpace(r.Name) == "" || r.OwnerID == "" {
		return domain.ErrValidation("restaurant name and owner required")
	}
	if r.DeliveryFee < 0 {
		return domain.ErrValidation("delivery fee must not be negative")
	}
	if r.ID == "" {
		r.ID = newID()
		r.CreatedAt = nowOr(s.Now)
	}
	r.DeliveryFee = domain.RoundCents(r.DeliveryFee)
	return s.Repo.PutRestaurant(ctx, r)
}

func (s *CatalogService) SaveMenuItem(ctx context.Context, m *domain.MenuItem) error {
	if strings.TrimSpace(m.Name) == "" || m.Price <= 0 {
		return domain.ErrValidation("menu item name and positive price required")
	}
	if _, err := s.Repo.GetRestaurant(ctx, m.RestaurantID); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = newID()
	}
	m.Price = domain.RoundCents(m.Price)
	return s.Repo.PutMenuItem(ctx, m)
}

func (s *CatalogService) SaveProvider(ctx context.Context, p *domain.ServiceProvider) error {
	if strings.TrimSpace(p.Name) == "" || p.UserID == "" {
		return domain.ErrValidation("provider name and user required")
	}
	if p.BasePrice < 0 {
		return domain.ErrValidation("base price must not be negative")
	}
	if p.ID == "" {
		p.ID = newID()
		p.CreatedAt = nowOr(s.Now)
	}
	p.BasePrice = domain.RoundCents(p.BasePrice)
	return s.Repo.PutServiceProvider(ctx, p)
}

func (s *CatalogService) SaveService(ctx context.Context, svc *domain.Service) error {
	if strings.TrimSpace(svc.Name) == "" || svc.Price <= 0 {
		return domain.ErrValidation("service name and positive price required")
	}
	if _, err := s.Repo.GetServiceProvider(ctx, svc.ProviderID); err != nil {
		return err
	}
	if svc.ID == "" {
		svc.ID = newID()
	}
	svc.Price = domain.RoundCents(svc.Price)
	return s.Repo.PutService(ctx, svc)
}
