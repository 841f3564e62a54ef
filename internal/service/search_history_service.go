package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"recipehub/internal/auth"
	apperrors "recipehub/internal/errors"
	"recipehub/internal/logging"
	"recipehub/internal/metrics"
	"recipehub/internal/model"
	"recipehub/internal/repository"
)

const (
	// SearchHistoryLimit caps the entries returned per user.
	SearchHistoryLimit = 20

	historyBatchSize     = 10
	historyFlushInterval = time.Second
	historyBufferSize    = 100
	historyWriteTimeout  = 5 * time.Second
)

// SearchHistoryService reads and appends per-user search history.
type SearchHistoryService interface {
	List(ctx context.Context, actor *auth.Principal) ([]model.SearchHistory, error)
	Create(ctx context.Context, actor *auth.Principal, query string) (*model.SearchHistory, error)
	// Record appends an entry without blocking the caller. The entry becomes
	// visible to List once the background writer flushes it.
	Record(userID uint, query string)
	// Close flushes buffered entries and stops the background writer.
	Close()
}

type searchHistoryService struct {
	repo repository.SearchHistoryRepository

	mu      sync.RWMutex
	closed  bool
	entries chan model.SearchHistory
	done    chan struct{}
}

// NewSearchHistoryService creates the service and starts its writer.
func NewSearchHistoryService(repo repository.SearchHistoryRepository) SearchHistoryService {
	s := &searchHistoryService{
		repo:    repo,
		entries: make(chan model.SearchHistory, historyBufferSize),
		done:    make(chan struct{}),
	}
	go s.writer()
	return s
}

// List returns the newest entries of the actor's history.
func (s *searchHistoryService) List(ctx context.Context, actor *auth.Principal) ([]model.SearchHistory, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	entries, err := s.repo.ListRecent(ctx, actor.UserID, SearchHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list search history: %w", err)
	}
	return entries, nil
}

// Create synchronously appends an entry for the actor.
func (s *searchHistoryService) Create(ctx context.Context, actor *auth.Principal, query string) (*model.SearchHistory, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query", "this field is required")
	}
	if utf8.RuneCountInString(query) > model.MaxSearchQueryLength {
		return nil, apperrors.NewValidationError("query", fmt.Sprintf("ensure this field has no more than %d characters", model.MaxSearchQueryLength))
	}

	entry := &model.SearchHistory{UserID: actor.UserID, Query: query, Timestamp: time.Now()}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create search history: %w", err)
	}
	return entry, nil
}

// Record queues an entry without ever blocking the caller. When the buffer
// is full the entry is dropped and counted; after Close entries are ignored.
func (s *searchHistoryService) Record(userID uint, query string) {
	if query == "" {
		return
	}
	entry := model.SearchHistory{
		UserID:    userID,
		Query:     truncateRunes(query, model.MaxSearchQueryLength),
		Timestamp: time.Now(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.entries <- entry:
	default:
		metrics.SearchHistoryWrites.WithLabelValues("dropped").Inc()
		logging.Warn().Uint("user_id", userID).Msg("search history buffer full, entry dropped")
	}
}

// Close is safe to call more than once.
func (s *searchHistoryService) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	s.mu.Unlock()
	<-s.done
}

// writer batches queued entries, flushing on size or interval.
func (s *searchHistoryService) writer() {
	defer close(s.done)

	batch := make([]model.SearchHistory, 0, historyBatchSize)
	ticker := time.NewTicker(historyFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-s.entries:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= historyBatchSize {
				s.flush(batch)
				batch = make([]model.SearchHistory, 0, historyBatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = make([]model.SearchHistory, 0, historyBatchSize)
			}
		}
	}
}

func (s *searchHistoryService) flush(batch []model.SearchHistory) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		metrics.SearchHistoryWrites.WithLabelValues("failed").Add(float64(len(batch)))
		logging.Error().Err(err).Int("entries", len(batch)).Msg("failed to flush search history")
		return
	}
	metrics.SearchHistoryWrites.WithLabelValues("batched").Add(float64(len(batch)))
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
