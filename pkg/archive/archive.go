// Package archive keeps a MongoDB copy of every moderation log event.
// While the server is unreachable events are queued in memory and flushed
// after the next successful reconnect.
package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// CollectionName holds one document per modlog.Event.
	CollectionName = "moderation_log"

	defaultMaxQueue  = 1000
	reconnectBackoff = 15 * time.Second
)

// ErrNotConnected is returned by reads while the archive is offline.
var ErrNotConnected = errors.New("archive: not connected to database")

type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// Archive is a modlog.Sink backed by MongoDB.
type Archive struct {
	mongoURL string
	dbName   string

	mu          sync.RWMutex
	client      *mongo.Client
	col         collection
	isConnected bool

	queueMu  sync.Mutex
	queue    []modlog.Event
	maxQueue int

	reconnecting  bool
	stopReconnect chan struct{}
	stopOnce      sync.Once
}

func New(mongoURL, dbName string) *Archive {
	return &Archive{
		mongoURL:      mongoURL,
		dbName:        dbName,
		maxQueue:      defaultMaxQueue,
		stopReconnect: make(chan struct{}),
	}
}

// Connect dials MongoDB. On failure the archive stays usable in offline
// mode and retries in the background.
func (a *Archive) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.isConnected {
		a.mu.Unlock()
		return nil
	}

	logger.System("Intentando conectar al archivo de moderación...", "Archive")

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(a.mongoURL).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err == nil {
		err = client.Ping(ctx, readpref.Primary())
		if err != nil {
			_ = client.Disconnect(context.Background())
		}
	}
	if err != nil {
		a.mu.Unlock()
		logger.Critical("Fallo al conectar con el archivo de moderación.", "Archive")
		a.startReconnect()
		return err
	}

	col := client.Database(a.dbName).Collection(CollectionName)
	_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "guildId", Value: 1}, {Key: "occurredAt", Value: -1}},
	})
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo crear el índice del archivo: %v", err), "Archive")
	}

	a.client = client
	a.col = col
	a.isConnected = true
	a.mu.Unlock()

	logger.Success("Conectado exitosamente al archivo de moderación.", "Archive")
	go a.flush()
	return nil
}

func (a *Archive) startReconnect() {
	a.queueMu.Lock()
	if a.reconnecting {
		a.queueMu.Unlock()
		return
	}
	a.reconnecting = true
	a.queueMu.Unlock()

	go func() {
		ticker := time.NewTicker(reconnectBackoff)
		defer ticker.Stop()
		defer func() {
			a.queueMu.Lock()
			a.reconnecting = false
			a.queueMu.Unlock()
		}()

		for {
			select {
			case <-ticker.C:
				logger.Info("Intentando reconectar al archivo de moderación...", "Archive")
				if err := a.Connect(context.Background()); err == nil {
					return
				}
			case <-a.stopReconnect:
				return
			}
		}
	}()
}

// markOffline drops the connection flag after a failed write.
func (a *Archive) markOffline() {
	a.mu.Lock()
	wasConnected := a.isConnected
	a.isConnected = false
	a.mu.Unlock()

	if wasConnected {
		logger.Warn("Se perdió la conexión con el archivo. Activando modo offline.", "Archive")
		a.startReconnect()
	}
}

// Disconnect stops reconnect attempts and closes the client.
func (a *Archive) Disconnect(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stopReconnect) })

	a.mu.Lock()
	defer a.mu.Unlock()
	a.isConnected = false
	if a.client == nil {
		return nil
	}
	err := a.client.Disconnect(ctx)
	a.client = nil
	logger.Warn("El archivo de moderación ha sido desconectado", "Archive")
	return err
}

func (a *Archive) Name() string { return "mongo-archive" }

func (a *Archive) current() (collection, bool) {
	if a == nil {
		return nil, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.col, a.isConnected && a.col != nil
}

// Publish stores ev, or queues it while offline. It only fails when the
// event had to be queued after a write error. A duplicate id is success.
func (a *Archive) Publish(ctx context.Context, ev modlog.Event) error {
	col, ok := a.current()
	if !ok {
		a.enqueue(ev)
		return nil
	}

	if _, err := col.InsertOne(ctx, ev); err != nil {
		// The event id is the _id: a duplicate is already stored.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		a.enqueue(ev)
		a.markOffline()
		return fmt.Errorf("archive insert %s: %w", ev.ID, err)
	}
	return nil
}

func (a *Archive) enqueue(ev modlog.Event) {
	a.queueMu.Lock()
	defer a.queueMu.Unlock()
	if len(a.queue) >= a.maxQueue {
		a.queue = a.queue[1:]
	}
	a.queue = append(a.queue, ev)
}

// QueueLen reports how many events wait for a reconnect.
func (a *Archive) QueueLen() int {
	if a == nil {
		return 0
	}
	a.queueMu.Lock()
	defer a.queueMu.Unlock()
	return len(a.queue)
}

func (a *Archive) flush() {
	col, ok := a.current()
	if !ok {
		return
	}

	a.queueMu.Lock()
	pending := a.queue
	a.queue = nil
	a.queueMu.Unlock()
	if len(pending) == 0 {
		return
	}

	logger.System(fmt.Sprintf("Sincronizando %d eventos pendientes con el archivo...", len(pending)), "Archive-Sync")

	failed := 0
	for _, ev := range pending {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := col.InsertOne(ctx, ev)
		cancel()
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			a.enqueue(ev)
			failed++
		}
	}

	if failed > 0 {
		logger.Warn(fmt.Sprintf("%d eventos no pudieron sincronizarse y se reintentarán.", failed), "Archive-Sync")
	} else {
		logger.Success("Sincronización completada exitosamente.", "Archive-Sync")
	}
}

// ListForGuild returns the newest events of a guild, at most limit.
func (a *Archive) ListForGuild(ctx context.Context, guildID string, limit int64) ([]modlog.Event, error) {
	col, ok := a.current()
	if !ok {
		return nil, ErrNotConnected
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "occurredAt", Value: -1}}).
		SetLimit(limit)
	cur, err := col.Find(ctx, bson.M{"guildId": guildID}, opts)
	if err != nil {
		return nil, fmt.Errorf("archive find: %w", err)
	}
	defer cur.Close(ctx)

	events := make([]modlog.Event, 0)
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("archive decode: %w", err)
	}
	return events, nil
}

// GetStatus returns the status line shown by /status.
func (a *Archive) GetStatus() (string, bool) {
	if a == nil {
		return "⚪ | Deshabilitado", false
	}
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return "🔴 | Desconectado", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | En linea", true
}
