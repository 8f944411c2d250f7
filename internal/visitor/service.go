package visitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"visitors/internal/platform/metrics"
	dErrors "visitors/pkg/domain-errors"
	"visitors/pkg/platform/sentinel"
)

var tracer = otel.Tracer("visitors/internal/visitor")

// Service orchestrates visitor CRUD and reporting: it validates input,
// persists through the store, keeps the cache-aside keys fresh, and emits
// fire-and-forget events after successful mutations and fetches. It owns the
// bounded worker pool behind the awaitable fetch/sum operations; Close
// releases it.
type Service struct {
	store     Store
	cache     Cache
	events    EventPublisher
	topic     string
	validator Validator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	pool      *analyzer
	emitWG    sync.WaitGroup
	closeOnce sync.Once
}

func NewService(store Store, cache Cache, events EventPublisher, topic string, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		events:  events,
		topic:   topic,
		logger:  logger,
		metrics: m,
		pool:    newAnalyzer(analyzeWorkers),
	}
}

// Close drains in-flight event emissions and releases the analyze pool. It is
// safe to call more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.emitWG.Wait()
		s.pool.close()
	})
}

// GetAllVisitors returns every visitor projection in store order. The result
// is cached under a fixed key; the cache is consulted first.
func (s *Service) GetAllVisitors(ctx context.Context) ([]Projection, error) {
	ctx, span := s.startSpan(ctx, "visitor.GetAllVisitors")
	defer span.End()

	var cached []Projection
	if hit := s.cacheGet(ctx, cacheKeyAllVisitors, &cached); hit {
		return cached, nil
	}

	visitors, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.Error("failed to retrieve visitors", "error", err)
		return nil, dErrors.Wrap(dErrors.CodeRetrieval, "failed to retrieve visitors", err)
	}
	projections := ToProjectionList(visitors)
	s.cachePut(ctx, cacheKeyAllVisitors, projections)
	return projections, nil
}

// GetVisitorByID returns the projection for id. A cache hit returns
// immediately without emitting a fetched event, mirroring the read-through
// short-circuit; a store hit emits one asynchronously.
func (s *Service) GetVisitorByID(ctx context.Context, id int64) (Projection, error) {
	ctx, span := s.startSpan(ctx, "visitor.GetVisitorByID")
	span.SetAttributes(attribute.Int64("visitor.id", id))
	defer span.End()

	key := visitorCacheKey(id)
	var cached Projection
	if hit := s.cacheGet(ctx, key, &cached); hit {
		return cached, nil
	}

	v, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Projection{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("visitor not found with ID: %d", id))
	}
	if err != nil {
		s.logger.Error("failed to retrieve visitor", "visitor_id", id, "error", err)
		return Projection{}, dErrors.Wrap(dErrors.CodeRetrieval, fmt.Sprintf("failed to retrieve visitor %d", id), err)
	}

	s.emitAsync(fmt.Sprintf("Visitor fetched: %d", v.ID))
	p := ToProjection(v)
	s.cachePut(ctx, key, p)
	return p, nil
}

// AddVisitor validates and persists a new record. The store assigns the
// identifier; any identifier on the input is ignored. The saved record is
// serialized and emitted asynchronously.
func (s *Service) AddVisitor(ctx context.Context, v *Visitor) (Projection, error) {
	ctx, span := s.startSpan(ctx, "visitor.AddVisitor")
	defer span.End()

	if err := s.validator.Validate(v); err != nil {
		return Projection{}, err
	}
	record := *v
	record.ID = 0

	saved, err := s.store.Save(ctx, record)
	if err != nil {
		s.logger.Error("failed to save visitor", "error", err)
		return Projection{}, dErrors.Wrap(dErrors.CodePersistence, "failed to save visitor", err)
	}
	s.logger.Info("visitor saved", "visitor_id", saved.ID)

	s.emitAsync(s.recordMessage(saved))
	if s.metrics != nil {
		s.metrics.VisitorsCreated.Inc()
	}

	p := ToProjection(saved)
	s.cachePut(ctx, visitorCacheKey(saved.ID), p)
	s.cacheEvict(ctx, cacheKeyAllVisitors)
	return p, nil
}

// UpdateVisitor replaces the record at id wholesale. The replacement's
// identifier is forced to id regardless of what the caller supplied. The
// find-then-save sequence runs inside a transaction when the store supports
// one.
func (s *Service) UpdateVisitor(ctx context.Context, id int64, v *Visitor) (Projection, error) {
	ctx, span := s.startSpan(ctx, "visitor.UpdateVisitor")
	span.SetAttributes(attribute.Int64("visitor.id", id))
	defer span.End()

	if err := s.validator.Validate(v); err != nil {
		return Projection{}, err
	}

	var updated Visitor
	run := func(ctx context.Context) error {
		existing, err := s.store.FindByID(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("visitor not found with ID: %d", id))
		}
		if err != nil {
			return dErrors.Wrap(dErrors.CodeRetrieval, fmt.Sprintf("failed to retrieve visitor %d", id), err)
		}

		record := *v
		record.ID = existing.ID
		updated, err = s.store.Save(ctx, record)
		if err != nil {
			return dErrors.Wrap(dErrors.CodePersistence, fmt.Sprintf("failed to update visitor %d", id), err)
		}
		return nil
	}

	var err error
	if t, ok := s.store.(Transactor); ok {
		err = t.WithinTx(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.Error("failed to update visitor", "visitor_id", id, "error", err)
		}
		return Projection{}, err
	}
	s.logger.Info("visitor updated", "visitor_id", id)

	s.emitAsync(s.recordMessage(updated))
	p := ToProjection(updated)
	s.cachePut(ctx, visitorCacheKey(id), p)
	s.cacheEvict(ctx, cacheKeyAllVisitors)
	return p, nil
}

// DeleteVisitor removes the record at id, failing with not_found when it is
// absent.
func (s *Service) DeleteVisitor(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "visitor.DeleteVisitor")
	span.SetAttributes(attribute.Int64("visitor.id", id))
	defer span.End()

	exists, err := s.store.ExistsByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to check visitor existence", "visitor_id", id, "error", err)
		return dErrors.Wrap(dErrors.CodeRetrieval, fmt.Sprintf("failed to check visitor %d", id), err)
	}
	if !exists {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("visitor not found with ID: %d", id))
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		// The row can vanish between the existence check and the delete.
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("visitor not found with ID: %d", id))
		}
		s.logger.Error("failed to delete visitor", "visitor_id", id, "error", err)
		return dErrors.Wrap(dErrors.CodePersistence, fmt.Sprintf("failed to delete visitor %d", id), err)
	}
	s.logger.Info("visitor deleted", "visitor_id", id)

	s.emitAsync(fmt.Sprintf("Visitor deleted with ID: %d", id))
	if s.metrics != nil {
		s.metrics.VisitorsDeleted.Inc()
	}
	s.cacheEvict(ctx, visitorCacheKey(id))
	s.cacheEvict(ctx, cacheKeyAllVisitors)
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// emitAsync publishes a visitor event on a detached goroutine. The caller
// never waits on the outcome; failures are caught and logged inside the
// publisher. Close drains in-flight emissions during shutdown.
func (s *Service) emitAsync(message string) {
	s.emitWG.Add(1)
	go func() {
		defer s.emitWG.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("visitor event emission panicked", "panic", r)
			}
		}()
		s.events.Publish(context.Background(), s.topic, message)
	}()
}

func (s *Service) recordMessage(v Visitor) string {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to serialize visitor event", "visitor_id", v.ID, "error", err)
		return "{}"
	}
	return string(raw)
}

func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if s.metrics != nil {
		if hit {
			s.metrics.CacheHits.Inc()
		} else {
			s.metrics.CacheMisses.Inc()
		}
	}
	return hit
}

func (s *Service) cachePut(ctx context.Context, key string, value any) {
	if err := s.cache.Put(ctx, key, value); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func (s *Service) cacheEvict(ctx context.Context, key string) {
	if err := s.cache.Evict(ctx, key); err != nil {
		s.logger.Warn("cache evict failed", "key", key, "error", err)
	}
}
