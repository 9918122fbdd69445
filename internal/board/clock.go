package board

import (
	"sync"

	"github.com/google/uuid"
)

// Clock представляет логические часы Лампорта для версионирования записей
// доски без синхронизации физического времени между участниками.
type Clock struct {
	nodeID  string     // уникальный идентификатор узла (участника)
	counter int64      // монотонно возрастающий счетчик
	mu      sync.Mutex // мьютекс для потокобезопасности
}

// NewClock создает новые часы с уникальным идентификатором узла (UUID)
func NewClock() *Clock {
	return &Clock{nodeID: uuid.New().String()}
}

// NewClockWithNodeID создает часы с заданным идентификатором узла.
// Используется в тестах и при восстановлении состояния.
func NewClockWithNodeID(nodeID string) *Clock {
	return &Clock{nodeID: nodeID}
}

// Tick увеличивает счетчик и возвращает новый timestamp.
// Вызывается при каждой локальной мутации записи.
func (c *Clock) Tick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counter++
	return c.counter
}

// Observe обновляет счетчик по полученному удаленному timestamp:
// counter = max(counter, remote) + 1. Гарантирует, что следующая
// локальная мутация будет новее всего, что мы уже видели.
func (c *Clock) Observe(remote int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remote > c.counter {
		c.counter = remote
	}
	c.counter++
	return c.counter
}

// Now возвращает текущее значение счетчика без изменения
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counter
}

// NodeID возвращает идентификатор узла
func (c *Clock) NodeID() string {
	return c.nodeID
}
