package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/clubnft/clubd/internal/core/domain"
	dbutil "github.com/clubnft/clubd/internal/infrastructure/db/dbuitl"
	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const eventStoreDir = "events"

type eventDTO struct {
	Sequence    uint64 `badgerhold:"key"`
	Topic       string `badgerhold:"index"`
	AggregateId string `badgerhold:"index"`
	Payload     []byte
	CreatedAt   int64
}

type subscriber struct {
	topic   string
	handler func(events []domain.Event)
}

type eventRepository struct {
	store *badgerhold.Store

	subscribers    map[string][]subscriber // topic -> subscribers
	subscriberLock *sync.Mutex
}

func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}

	return &eventRepository{
		store:          store,
		subscribers:    make(map[string][]subscriber),
		subscriberLock: &sync.Mutex{},
	}, nil
}

func (r *eventRepository) Save(
	ctx context.Context, topic, id string, events []domain.Event,
) error {
	now := time.Now().UnixMilli()
	for _, event := range events {
		payload, err := dbutil.SerializeEvent(event)
		if err != nil {
			return fmt.Errorf("failed to serialize event: %w", err)
		}
		dto := eventDTO{
			Topic:       topic,
			AggregateId: id,
			Payload:     payload,
			CreatedAt:   now,
		}
		if err := r.store.Insert(badgerhold.NextSequence(), &dto); err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}
	}

	if err := r.dispatch(topic, id); err != nil {
		log.WithError(err).Error("failed to dispatch saved events")
	}
	return nil
}

func (r *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	r.subscriberLock.Lock()
	defer r.subscriberLock.Unlock()

	r.subscribers[topic] = append(r.subscribers[topic], subscriber{
		topic:   topic,
		handler: handler,
	})
}

func (r *eventRepository) ClearRegisteredHandlers(topics ...string) {
	r.subscriberLock.Lock()
	defer r.subscriberLock.Unlock()

	if len(topics) == 0 {
		r.subscribers = make(map[string][]subscriber)
		return
	}

	for _, topic := range topics {
		delete(r.subscribers, topic)
	}
}

func (r *eventRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *eventRepository) dispatch(topic, id string) error {
	events, err := r.getAllEvents(topic, id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	r.subscriberLock.Lock()
	defer r.subscriberLock.Unlock()
	for _, subscriber := range r.subscribers[topic] {
		go subscriber.handler(events)
	}
	return nil
}

func (r *eventRepository) getAllEvents(topic, id string) ([]domain.Event, error) {
	dtos := make([]eventDTO, 0)
	query := badgerhold.Where("AggregateId").Eq(id).Index("AggregateId").
		And("Topic").Eq(topic)
	if err := r.store.Find(&dtos, query); err != nil {
		return nil, fmt.Errorf(
			"failed to get events for topic %s with id %s: %w", topic, id, err,
		)
	}

	sort.SliceStable(dtos, func(i, j int) bool {
		return dtos[i].Sequence < dtos[j].Sequence
	})

	events := make([]domain.Event, 0, len(dtos))
	for _, dto := range dtos {
		event, err := dbutil.DeserializeEvent(dto.Payload)
		if err != nil {
			log.WithError(err).Warnf("failed to deserialize event: %s", string(dto.Payload))
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
