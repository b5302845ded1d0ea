package ident

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Компоновка 64-битного идентификатора (от старших бит к младшим):
// таймстемп (мс от epoch) | datacenter (10 бит) | worker (10 бит) | sequence (12 бит).
const (
	// snowflakeEpoch — 2022-01-01T00:00:00Z в миллисекундах.
	snowflakeEpoch int64 = 1640995200000

	workerIDBits     = 10
	datacenterIDBits = 10
	sequenceBits     = 12

	maxWorkerID     = -1 ^ (-1 << workerIDBits)
	maxDatacenterID = -1 ^ (-1 << datacenterIDBits)
	sequenceMask    = -1 ^ (-1 << sequenceBits)

	workerIDShift     = sequenceBits
	datacenterIDShift = sequenceBits + workerIDBits
	timestampShift    = sequenceBits + workerIDBits + datacenterIDBits
)

var (
	// ErrWorkerIDRange — workerID/datacenterID вне диапазона [0, 1023].
	ErrWorkerIDRange = errors.New("worker/datacenter id out of range")

	// ErrClockRegression — системные часы ушли назад относительно последнего
	// выданного идентификатора. Генерация прерывается: безопасного значения,
	// которое можно вернуть, не существует.
	ErrClockRegression = errors.New("clock moved backwards")
)

// Snowflake генерирует 64-битные составные идентификаторы (бизнес-коды).
//
// Состояние (lastTimestamp, sequence) защищено одним мьютексом на весь
// цикл Next: проверка часов, инкремент секвенса и ожидание следующей
// миллисекунды выполняются атомарно с точки зрения вызывающего.
type Snowflake struct {
	mu            sync.Mutex
	workerID      int64
	datacenterID  int64
	sequence      int64
	lastTimestamp int64

	// now возвращает unix-миллисекунды; подменяется в тестах.
	now func() int64
}

// NewSnowflake создаёт генератор с фиксированными workerID и datacenterID.
// Оба значения валидируются в диапазоне [0, 1023].
func NewSnowflake(workerID, datacenterID int64) (*Snowflake, error) {
	const op = "ident.NewSnowflake"

	if workerID < 0 || workerID > maxWorkerID {
		return nil, fmt.Errorf("%s: worker id %d: %w", op, workerID, ErrWorkerIDRange)
	}
	if datacenterID < 0 || datacenterID > maxDatacenterID {
		return nil, fmt.Errorf("%s: datacenter id %d: %w", op, datacenterID, ErrWorkerIDRange)
	}

	return &Snowflake{
		workerID:      workerID,
		datacenterID:  datacenterID,
		lastTimestamp: -1,
		now:           func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Next возвращает следующий идентификатор.
//
// При откате часов возвращается ErrClockRegression без выделения
// идентификатора. При переполнении секвенса внутри одной миллисекунды
// выполняется spin-wait до следующей миллисекунды (ожидание ограничено
// одной миллисекундой в типичном случае).
func (g *Snowflake) Next() (uint64, error) {
	const op = "ident.Snowflake.Next"

	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp := g.now()
	if timestamp < g.lastTimestamp {
		return 0, fmt.Errorf("%s: refusing to generate id for %dms: %w",
			op, g.lastTimestamp-timestamp, ErrClockRegression)
	}

	if timestamp == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & sequenceMask
		if g.sequence == 0 {
			timestamp = g.tilNextMillis(g.lastTimestamp)
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = timestamp

	return uint64(timestamp-snowflakeEpoch)<<timestampShift |
		uint64(g.datacenterID)<<datacenterIDShift |
		uint64(g.workerID)<<workerIDShift |
		uint64(g.sequence), nil
}

func (g *Snowflake) tilNextMillis(last int64) int64 {
	timestamp := g.now()
	for timestamp <= last {
		timestamp = g.now()
	}

	return timestamp
}
