package gateway

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/db/models"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
)

// SessionRepository manages durable payment session rows.
type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository
	Create(ctx context.Context, session *models.PaymentSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentSession, error)
	GetByProviderRef(ctx context.Context, providerRef string) (*models.PaymentSession, error)
	LatestForOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error)
	// Transition moves an initiated session to a terminal status. Returns
	// false when the session already resolved.
	Transition(ctx context.Context, id uuid.UUID, to enums.PaymentSessionStatus, failureCode *string) (bool, error)
	SetProviderRef(ctx context.Context, id uuid.UUID, providerRef, redirectURL string) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.PaymentSession, error)
	// DeleteTerminalBefore purges resolved sessions older than the cutoff.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository returns a session repository bound to the database.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) WithTx(tx *gorm.DB) SessionRepository {
	if tx == nil {
		return r
	}
	return &sessionRepository{db: tx}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.PaymentSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentSession, error) {
	var session models.PaymentSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) GetByProviderRef(ctx context.Context, providerRef string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("provider_ref = ?", providerRef).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) LatestForOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Transition(ctx context.Context, id uuid.UUID, to enums.PaymentSessionStatus, failureCode *string) (bool, error) {
	updates := map[string]any{"status": to}
	if failureCode != nil {
		updates["failure_code"] = *failureCode
	}
	res := r.db.WithContext(ctx).Model(&models.PaymentSession{}).
		Where("id = ? AND status = ?", id, enums.SessionStatusInitiated).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepository) SetProviderRef(ctx context.Context, id uuid.UUID, providerRef, redirectURL string) error {
	return r.db.WithContext(ctx).Model(&models.PaymentSession{}).
		Where("id = ?", id).
		Updates(map[string]any{"provider_ref": providerRef, "redirect_url": redirectURL}).Error
}

func (r *sessionRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.PaymentSession, error) {
	var rows []models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.SessionStatusInitiated, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *sessionRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status <> ? AND updated_at < ?", enums.SessionStatusInitiated, cutoff).
		Delete(&models.PaymentSession{})
	return res.RowsAffected, res.Error
}

type sessionCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PaymentSessionKey(sessionID string) string
}

// SessionStore pairs the durable session row with a Redis TTL mirror. The row
// is the source of truth; the mirror only makes the common who-is-live lookup
// cheap and self-expiring.
type SessionStore struct {
	repo  SessionRepository
	cache sessionCache
	ttl   time.Duration
}

// NewSessionStore builds the session store.
func NewSessionStore(repo SessionRepository, cache sessionCache, ttl time.Duration) (*SessionStore, error) {
	if repo == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("session cache required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &SessionStore{repo: repo, cache: cache, ttl: ttl}, nil
}

// TTL exposes the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Open records a new initiated session and mirrors it in Redis.
func (s *SessionStore) Open(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.PaymentSession, error) {
	session := &models.PaymentSession{
		ID:            uuid.New(),
		OrderID:       order.ID,
		UserID:        order.UserID,
		Method:        order.PaymentMethod,
		Status:        enums.SessionStatusInitiated,
		AmountHalalas: order.TotalHalalas,
		ExpiresAt:     time.Now().Add(s.ttl),
	}
	if err := s.repo.WithTx(tx).Create(ctx, session); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating payment session")
	}
	// Best effort: a missing mirror only costs a DB read later.
	_ = s.cache.Set(ctx, s.cache.PaymentSessionKey(session.ID.String()), order.ID.String(), s.ttl)
	return session, nil
}

// Attach saves the provider handle after a successful initiate call.
func (s *SessionStore) Attach(ctx context.Context, sessionID uuid.UUID, result *InitiateResult) error {
	if err := s.repo.SetProviderRef(ctx, sessionID, result.ProviderRef, result.RedirectURL); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "attaching provider ref")
	}
	return nil
}

// Resolve finds the live session behind a provider reference, falling back to
// the durable row when the Redis mirror has expired or the process restarted.
func (s *SessionStore) Resolve(ctx context.Context, providerRef string) (*models.PaymentSession, error) {
	session, err := s.repo.GetByProviderRef(ctx, providerRef)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "payment session not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading payment session")
	}
	return session, nil
}

// ForOrder returns the most recent session opened for an order.
func (s *SessionStore) ForOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	session, err := s.repo.LatestForOrder(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "payment session not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading payment session")
	}
	return session, nil
}

// Get loads a session by its id.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.PaymentSession, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "payment session not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading payment session")
	}
	return session, nil
}

// Close moves the session to a terminal status and drops the Redis mirror.
func (s *SessionStore) Close(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, to enums.PaymentSessionStatus, failureCode *string) (bool, error) {
	if !to.IsTerminal() {
		return false, errors.New(errors.CodeValidation, "close requires a terminal session status")
	}
	ok, err := s.repo.WithTx(tx).Transition(ctx, sessionID, to, failureCode)
	if err != nil {
		return false, errors.Wrap(errors.CodeInternal, err, "closing payment session")
	}
	if ok {
		_ = s.cache.Del(ctx, s.cache.PaymentSessionKey(sessionID.String()))
	}
	return ok, nil
}

// ExpiredSessions lists sessions whose deadline has passed without a verdict.
func (s *SessionStore) ExpiredSessions(ctx context.Context, now time.Time, limit int) ([]models.PaymentSession, error) {
	return s.repo.ListExpired(ctx, now, limit)
}

// PurgeResolved removes terminal sessions older than the cutoff. The order
// keeps the settlement record; resolved session rows are just plumbing.
func (s *SessionStore) PurgeResolved(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.repo.DeleteTerminalBefore(ctx, cutoff)
}
