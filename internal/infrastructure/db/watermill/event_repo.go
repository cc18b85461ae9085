package watermilldb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/clubnft/clubd/internal/core/domain"
	dbutil "github.com/clubnft/clubd/internal/infrastructure/db/dbuitl"
	log "github.com/sirupsen/logrus"
)

type eventRepository struct {
	publisher message.Publisher
	db        *sql.DB

	handlers    map[string][]func(events []domain.Event)
	handlerLock *sync.RWMutex
}

// NewEventRepository expects a *sql.DB connected to postgres. Every topic is
// persisted in its own watermill_<topic> table.
func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config: expected 1 argument, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open event repository: expected *sql.DB but got %T", config[0],
		)
	}

	publisher, err := wmsql.NewPublisher(
		wmsql.BeginnerFromStdSQL(db),
		wmsql.PublisherConfig{
			SchemaAdapter:        wmsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		newLogrusAdapter(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	return NewWatermillEventRepository(publisher, db), nil
}

func NewWatermillEventRepository(publisher message.Publisher, db *sql.DB) domain.EventRepository {
	return &eventRepository{
		publisher:   publisher,
		db:          db,
		handlers:    make(map[string][]func(events []domain.Event)),
		handlerLock: &sync.RWMutex{},
	}
}

func (e *eventRepository) Save(
	ctx context.Context, topic string, id string, events []domain.Event,
) error {
	msgs := make([]*message.Message, 0, len(events))
	for _, event := range events {
		payload, err := dbutil.SerializeEvent(event)
		if err != nil {
			return fmt.Errorf("failed to serialize event: %w", err)
		}
		msgs = append(msgs, message.NewMessage(watermill.NewUUID(), payload))
	}
	if err := e.publisher.Publish(topic, msgs...); err != nil {
		return fmt.Errorf("failed to publish events for %s: %w", id, err)
	}

	history, err := e.history(ctx, topic, id)
	if err != nil {
		log.WithError(err).Error("failed to dispatch saved events")
		return nil
	}
	if len(history) <= 0 {
		return nil
	}

	e.handlerLock.RLock()
	defer e.handlerLock.RUnlock()
	for _, handler := range e.handlers[topic] {
		go handler(history)
	}
	return nil
}

func (e *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	e.handlerLock.Lock()
	defer e.handlerLock.Unlock()

	e.handlers[topic] = append(e.handlers[topic], handler)
}

func (e *eventRepository) ClearRegisteredHandlers(topics ...string) {
	e.handlerLock.Lock()
	defer e.handlerLock.Unlock()

	if len(topics) == 0 {
		e.handlers = make(map[string][]func(events []domain.Event))
		return
	}
	for _, topic := range topics {
		delete(e.handlers, topic)
	}
}

func (e *eventRepository) Close() {
	//nolint:errcheck
	e.publisher.Close()
	//nolint:errcheck
	e.db.Close()
}

// history returns every event ever published for the given id on the topic,
// filtering on the Id field of the jsonb payload.
func (e *eventRepository) history(
	ctx context.Context, topic, id string,
) ([]domain.Event, error) {
	query := fmt.Sprintf(
		`SELECT payload FROM watermill_%s WHERE payload->>'Id' = $1 ORDER BY "offset" ASC;`,
		topic,
	)
	rows, err := e.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s events of %s: %w", topic, id, err)
	}
	// nolint
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan event payload: %w", err)
		}
		event, err := dbutil.DeserializeEvent(payload)
		if err != nil {
			log.WithError(err).Warnf("skipping malformed event: %s", string(payload))
			continue
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s events of %s: %w", topic, id, err)
	}
	return events, nil
}
