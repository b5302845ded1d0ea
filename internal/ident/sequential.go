// ident реализует два независимых генератора уникальных идентификаторов:
//   - Sequential — 128-битные, примерно упорядоченные по времени
//     идентификаторы для первичных ключей;
//   - Snowflake — 64-битные составные идентификаторы для бизнес-кодов.
//
// Оба генератора — долгоживущие экземпляры (один на процесс), состояние
// каждого защищено собственным мьютексом и безопасно при конкурентных
// вызовах.
package ident

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sequential генерирует 128-битные идентификаторы, упорядоченные по времени.
//
// Схема: случайные 16 байт (uuid v4) как основа; первые 6 байт заменяются
// старшими 6 байтами big-endian таймстемпа (грубая сортируемость по времени),
// ниббл версии выставляется в 1 (временной вариант), последние 2 байта —
// big-endian счётчик, различающий вызовы внутри одного тика.
//
// Упорядоченность приблизительная: строгая сортируемость между горутинами
// не гарантируется и не требуется.
type Sequential struct {
	mu        sync.Mutex
	lastTicks int64
	counter   uint16

	// now возвращает таймстемп в 100-нс тиках; подменяется в тестах.
	now func() int64
}

// NewSequential создаёт генератор последовательных идентификаторов.
func NewSequential() *Sequential {
	return &Sequential{
		lastTicks: -1,
		now:       func() int64 { return time.Now().UnixNano() / 100 },
	}
}

// Next возвращает следующий идентификатор.
//
// Весь цикл чтение-изменение-запись выполняется под мьютексом: тот же
// дисциплинарный режим, что и у Snowflake.
func (g *Sequential) Next() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ticks := g.now()
	if ticks <= g.lastTicks {
		g.counter++
	} else {
		g.counter = 0
	}
	g.lastTicks = ticks

	id := uuid.New()

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(ticks))
	copy(id[0:6], ts[2:8])

	// Ниббл версии: временной вариант.
	id[7] = (id[7] & 0x0F) | 0x10

	binary.BigEndian.PutUint16(id[14:16], g.counter)

	return id
}
