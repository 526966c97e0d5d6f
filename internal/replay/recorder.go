// Package replay хранит краткие записи планов по тикам для отладочного
// воспроизведения прогонов симулятора.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/botplanner/internal/logging"
	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// ErrNotFound запись отсутствует
var ErrNotFound = errors.New("replay: запись не найдена")

// ErrClosed рекордер закрыт
var ErrClosed = errors.New("replay: хранилище не готово")

// StepSummary один шаг плана
type StepSummary struct {
	Action     string     `json:"action"`
	Timestamp  int64      `json:"ts"`
	StepMillis int        `json:"ms"`
	Origin     [3]float64 `json:"origin"`
	Forward    int8       `json:"fwd,omitempty"`
	Right      int8       `json:"right,omitempty"`
	Up         int8       `json:"up,omitempty"`
	Special    bool       `json:"special,omitempty"`
}

// FrameRecord итог одного тика бота
type FrameRecord struct {
	Bot        int           `json:"bot"`
	Frame      int64         `json:"frame"`
	LevelTime  int64         `json:"level_time"`
	Action     string        `json:"action"`
	FromCache  bool          `json:"from_cache"`
	PlanSource string        `json:"plan_source"`
	Origin     [3]float64    `json:"origin"`
	Velocity   [3]float64    `json:"velocity"`
	Steps      []StepSummary `json:"steps,omitempty"`
}

// Recorder пишет записи тиков в BadgerDB. Значения сжаты zstd.
// Ключи имеют вид plan/<run>/<bot>/<frame>, кадры упорядочены лексикографически.
type Recorder struct {
	db      *badger.DB
	dbPath  string
	runID   uuid.UUID
	mutex   sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *logging.Logger
}

// Open открывает хранилище в dataPath и начинает новый прогон.
// Пустой dataPath открывает хранилище в памяти.
func Open(dataPath string) (*Recorder, error) {
	var opts badger.Options
	var dbPath string
	if dataPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbPath = filepath.Join(dataPath, "replay")
		opts = badger.DefaultOptions(dbPath)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("replay: zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("replay: zstd decoder: %w", err)
	}

	r := &Recorder{
		db:      db,
		dbPath:  dbPath,
		runID:   uuid.New(),
		isReady: true,
		encoder: encoder,
		decoder: decoder,
		logger:  logging.GetReplayLogger(),
	}
	r.logger.Info("💾 Реплей %s открыт (%s)", r.runID, r.location())
	return r, nil
}

func (r *Recorder) location() string {
	if r.dbPath == "" {
		return "в памяти"
	}
	return r.dbPath
}

// RunID идентификатор текущего прогона
func (r *Recorder) RunID() uuid.UUID { return r.runID }

// Close закрывает хранилище
func (r *Recorder) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.isReady {
		return nil
	}
	r.isReady = false
	r.encoder.Close()
	r.decoder.Close()
	return r.db.Close()
}

func frameKey(run uuid.UUID, bot int, frame int64) []byte {
	return []byte(fmt.Sprintf("plan/%s/%04d/%012d", run, bot, frame))
}

func botPrefix(run uuid.UUID, bot int) []byte {
	return []byte(fmt.Sprintf("plan/%s/%04d/", run, bot))
}

// Record сохраняет запись тика
func (r *Recorder) Record(rec FrameRecord) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return ErrClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %w", err)
	}
	value := r.encoder.EncodeAll(data, nil)

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(frameKey(r.runID, rec.Bot, rec.Frame), value)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Load читает запись тика прогона run
func (r *Recorder) Load(run uuid.UUID, bot int, frame int64) (*FrameRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return nil, ErrClosed
	}

	var rec *FrameRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(frameKey(run, bot, frame))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = r.decode(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return rec, nil
}

// Frames вызывает fn для записей бота по возрастанию кадра, пока fn
// возвращает true
func (r *Recorder) Frames(run uuid.UUID, bot int, fn func(*FrameRecord) bool) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.isReady {
		return ErrClosed
	}

	prefix := botPrefix(run, bot)
	return r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec *FrameRecord
			err := it.Item().Value(func(val []byte) error {
				var err error
				rec, err = r.decode(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("ошибка чтения %s: %w", it.Item().Key(), err)
			}
			if !fn(rec) {
				return nil
			}
		}
		return nil
	})
}

func (r *Recorder) decode(val []byte) (*FrameRecord, error) {
	data, err := r.decoder.DecodeAll(val, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки записи: %w", err)
	}
	var rec FrameRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("ошибка десериализации записи: %w", err)
	}
	return &rec, nil
}
