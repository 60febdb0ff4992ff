package service

import (
	"context"
	"strings"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
	"github.com/pokedex-companion/pokedexservice/pkg/model"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TrimScheduler queues a retention pass for a user. Schedule must not block.
type TrimScheduler interface {
	Schedule(userID uint)
}

// HistoryRetention keeps at most limit search terms per user.
type HistoryRetention struct {
	repo  repo.HistoryRepository
	limit int
	log   *logrus.Logger
}

func NewHistoryRetention(r repo.HistoryRepository, log *logrus.Logger) *HistoryRetention {
	return &HistoryRetention{repo: r, limit: model.HistoryLimit, log: log}
}

// TrimHistory deletes everything older than the user's newest limit entries
// and reports how many rows went away. It is idempotent and may run
// concurrently with inserts and with other trims for the same user.
func (h *HistoryRetention) TrimHistory(ctx context.Context, userID uint) (int64, error) {
	recent, err := h.repo.ListRecent(ctx, userID, h.limit)
	if err != nil {
		return 0, errors.Wrapf(err, "load recent history for user %d", userID)
	}
	if len(recent) < h.limit {
		return 0, nil
	}

	keep := make([]uint, 0, len(recent))
	for _, e := range recent {
		keep = append(keep, e.ID)
	}
	cutoff := recent[len(recent)-1].CreatedAt

	n, err := h.repo.DeleteAllExcept(ctx, userID, keep, cutoff)
	if err != nil {
		return 0, errors.Wrapf(err, "trim history for user %d", userID)
	}
	if n > 0 {
		h.log.WithFields(logrus.Fields{"user_id": userID, "deleted": n}).Debug("search history trimmed")
	}
	return n, nil
}

type HistoryService interface {
	AddSearchTerm(ctx context.Context, userID uint, term string) (*model.SearchHistoryEntry, error)
	GetHistoryByUserID(ctx context.Context, userID uint) ([]*model.SearchHistoryEntry, error)
	RemoveSearchTerm(ctx context.Context, p Principal, entryID uint) error
}

type HistoryOption func(*historyService)

// WithClock replaces the wall clock used to stamp entries.
func WithClock(now func() time.Time) HistoryOption {
	return func(s *historyService) { s.now = now }
}

type historyService struct {
	repo  repo.HistoryRepository
	trims TrimScheduler
	log   *logrus.Logger
	now   func() time.Time
}

func NewHistoryService(r repo.HistoryRepository, trims TrimScheduler, log *logrus.Logger, opts ...HistoryOption) HistoryService {
	s := &historyService{
		repo:  r,
		trims: trims,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddSearchTerm records term as the user's most recent search. Retention runs
// afterwards on the trim worker and never affects this call's result.
func (s *historyService) AddSearchTerm(ctx context.Context, userID uint, term string) (*model.SearchHistoryEntry, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.Validation(apperr.MsgInvalidInput, map[string][]string{
			"searchTerm": {apperr.MsgSearchTermRequired},
		})
	}

	entry, err := s.repo.UpsertSearchTerm(ctx, userID, term, s.now())
	if err != nil {
		return nil, apperr.Internal(errors.Wrap(err, "upsert search term"))
	}

	s.trims.Schedule(userID)
	return entry, nil
}

func (s *historyService) GetHistoryByUserID(ctx context.Context, userID uint) ([]*model.SearchHistoryEntry, error) {
	entries, err := s.repo.ListRecent(ctx, userID, model.HistoryLimit)
	if err != nil {
		return nil, apperr.Internal(errors.Wrap(err, "list search history"))
	}
	return entries, nil
}

func (s *historyService) RemoveSearchTerm(ctx context.Context, p Principal, entryID uint) error {
	if _, err := Authorize(ctx, s.log, p.ID, entryID, HistoryResource, s.repo.GetEntry); err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, entryID); err != nil {
		return apperr.Internal(errors.Wrap(err, "delete search term"))
	}
	return nil
}
