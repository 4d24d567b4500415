package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"dealhawk/internal/models"
	"dealhawk/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Conditional operations mirror the database semantics: a mutation applies
// only when the state predicate still holds, under one lock, so concurrent
// calls race the same way two processes would against the real store.
type stubRepo struct {
	mu       sync.Mutex
	users    map[uint64]*models.User
	alerts   map[uint64]*models.PriceAlert
	wishlist map[uint64]*models.WishlistItem
	locks    map[string]time.Time
	nextID   uint64

	listAlertsErr   error
	saveWishlistErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:    map[uint64]*models.User{},
		alerts:   map[uint64]*models.PriceAlert{},
		wishlist: map[uint64]*models.WishlistItem{},
		locks:    map[string]time.Time{},
		nextID:   1,
	}
}

func (s *stubRepo) addUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID
		s.nextID++
	}
	s.users[u.ID] = &u
	return &u
}

func (s *stubRepo) addAlert(a models.PriceAlert) *models.PriceAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextID
		s.nextID++
	}
	if user, ok := s.users[a.UserID]; ok {
		a.User = *user
	}
	s.alerts[a.ID] = &a
	return &a
}

func (s *stubRepo) addWishlistItem(w models.WishlistItem) *models.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == 0 {
		w.ID = s.nextID
		s.nextID++
	}
	s.wishlist[w.ID] = &w
	return &w
}

func (s *stubRepo) AcquireJobLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if lockedAt, ok := s.locks[name]; ok && !lockedAt.Before(now.Add(-ttl)) {
		return false, nil
	}
	s.locks[name] = now
	return true, nil
}

func (s *stubRepo) ListJobLocks(ctx context.Context) ([]models.JobLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.JobLock
	for name, at := range s.locks {
		lockedAt := at
		items = append(items, models.JobLock{Name: name, LockedAt: &lockedAt})
	}
	return items, nil
}

func (s *stubRepo) ListActiveAlerts(ctx context.Context) ([]models.PriceAlert, error) {
	if s.listAlertsErr != nil {
		return nil, s.listAlertsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.PriceAlert
	for id := uint64(0); id < s.nextID; id++ {
		if a, ok := s.alerts[id]; ok && a.IsActive && !a.Notified {
			items = append(items, *a)
		}
	}
	return items, nil
}

func (s *stubRepo) MarkAlertChecked(ctx context.Context, alertID uint64, price decimal.Decimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[alertID]
	if !ok || !a.IsActive || a.Notified {
		return nil
	}
	a.CurrentPrice = price
	checked := at
	a.LastChecked = &checked
	return nil
}

func (s *stubRepo) TriggerAlert(ctx context.Context, alertID uint64, price decimal.Decimal, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[alertID]
	if !ok || !a.IsActive || a.Notified {
		return false, nil
	}
	a.CurrentPrice = price
	checked := at
	a.LastChecked = &checked
	a.Notified = true
	triggered := at
	a.TriggeredAt = &triggered
	a.IsActive = false
	return true, nil
}

func (s *stubRepo) AddUserSavings(ctx context.Context, userID uint64, savings decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.TotalSavings = u.TotalSavings.Add(savings)
	u.TargetsHit++
	return nil
}

func (s *stubRepo) DeleteResolvedAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, a := range s.alerts {
		if a.Notified && a.UpdatedAt.Before(cutoff) {
			delete(s.alerts, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *stubRepo) CreateAlert(ctx context.Context, alert *models.PriceAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert.ID = s.nextID
	s.nextID++
	copied := *alert
	s.alerts[copied.ID] = &copied
	return nil
}

func (s *stubRepo) GetAlertByID(ctx context.Context, id uint64) (*models.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (s *stubRepo) FindActiveDuplicateAlert(ctx context.Context, userID uint64, normalizedName string, normalizedWebsite *string) (*models.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.UserID != userID || !a.IsActive || a.NormalizedName != normalizedName {
			continue
		}
		switch {
		case a.NormalizedWebsite == nil && normalizedWebsite == nil:
		case a.NormalizedWebsite != nil && normalizedWebsite != nil && *a.NormalizedWebsite == *normalizedWebsite:
		default:
			continue
		}
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (s *stubRepo) ListAlerts(ctx context.Context, params repository.ListAlertsParams) ([]models.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.PriceAlert
	for id := uint64(0); id < s.nextID; id++ {
		a, ok := s.alerts[id]
		if !ok {
			continue
		}
		if params.UserID != 0 && a.UserID != params.UserID {
			continue
		}
		if params.ActiveOnly && !a.IsActive {
			continue
		}
		items = append(items, *a)
	}
	return items, nil
}

func (s *stubRepo) UpdateAlertTarget(ctx context.Context, id uint64, targetPrice decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || !a.IsActive {
		return nil
	}
	a.TargetPrice = targetPrice
	a.Notified = false
	a.TriggeredAt = nil
	return nil
}

func (s *stubRepo) DeactivateAlert(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.alerts[id]; ok {
		a.IsActive = false
	}
	return nil
}

func (s *stubRepo) CreateWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.nextID
	s.nextID++
	copied := *item
	s.wishlist[copied.ID] = &copied
	return nil
}

func (s *stubRepo) GetWishlistItemByID(ctx context.Context, id uint64) (*models.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wishlist[id]
	if !ok {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (s *stubRepo) FindWishlistItem(ctx context.Context, userID uint64, productName, website string) (*models.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wishlist {
		if w.UserID == userID && w.ProductName == productName && w.Website == website {
			copied := *w
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListWishlistItems(ctx context.Context) ([]models.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.WishlistItem
	for id := uint64(0); id < s.nextID; id++ {
		if w, ok := s.wishlist[id]; ok {
			items = append(items, *w)
		}
	}
	return items, nil
}

func (s *stubRepo) ListWishlistItemsByUser(ctx context.Context, userID uint64) ([]models.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.WishlistItem
	for id := uint64(0); id < s.nextID; id++ {
		if w, ok := s.wishlist[id]; ok && w.UserID == userID {
			items = append(items, *w)
		}
	}
	return items, nil
}

func (s *stubRepo) SaveWishlistPrices(ctx context.Context, item *models.WishlistItem) error {
	if s.saveWishlistErr != nil {
		return s.saveWishlistErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.wishlist[item.ID]
	if !ok {
		return nil
	}
	stored.CurrentPrice = item.CurrentPrice
	stored.PriceHistory = item.PriceHistory
	stored.LowestPrice = item.LowestPrice
	stored.HighestPrice = item.HighestPrice
	stored.Notes = item.Notes
	stored.URL = item.URL
	return nil
}

func (s *stubRepo) DeleteWishlistItem(ctx context.Context, id uint64, userID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wishlist[id]
	if !ok || w.UserID != userID {
		return false, nil
	}
	delete(s.wishlist, id)
	return true, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.nextID
	s.nextID++
	copied := *user
	s.users[copied.ID] = &copied
	return nil
}

func (s *stubRepo) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}
