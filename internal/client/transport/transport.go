package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/livedesk/pkg/api"
)

//go:generate go tool moq -out transport_mock.go . Transport

// Status состояние соединения с relay-сервером.
// Используется UI только для индикации: слой синхронизации продолжает
// принимать локальные правки в любом состоянии, а при разрыве просто
// перестает публиковать до переподключения.
type Status string

const (
	// StatusInitial соединение еще не открывалось
	StatusInitial Status = "initial"
	// StatusConnecting идет первое подключение
	StatusConnecting Status = "connecting"
	// StatusConnected соединение установлено
	StatusConnected Status = "connected"
	// StatusReconnecting соединение потеряно, идет переподключение
	StatusReconnecting Status = "reconnecting"
	// StatusDisconnected соединение закрыто окончательно
	StatusDisconnected Status = "disconnected"
)

// Transport определяет абстрактный канал доставки событий между
// участниками одной комнаты.
//
// Контракт:
//   - Publish - best-effort: ошибки логируются и не возвращаются наверх
//     как фатальные; публикация в отсутствие соединения - тихий дроп,
//     следующий flush/snapshot восстановит состояние.
//   - Subscribe - обработчик вызывается по одному разу на каждый
//     полученный конверт; порядок сообщений одного отправителя
//     сохраняется, порядок между отправителями не гарантируется.
type Transport interface {
	// Publish отправляет событие всем остальным участникам комнаты
	Publish(ctx context.Context, event api.Event) error

	// Subscribe регистрирует обработчик входящих конвертов.
	// Возвращает функцию отписки.
	Subscribe(fn func(*api.Envelope)) func()

	// Status возвращает текущее состояние соединения
	Status() Status

	// OnStatusChange регистрирует обработчик смены состояния соединения
	OnStatusChange(fn func(Status)) func()

	// ParticipantID возвращает стабильный идентификатор этого участника
	// в комнате
	ParticipantID() string

	// Close закрывает транспорт. Повторный вызов безопасен.
	Close() error
}

// WaitConnected блокирует до перехода транспорта в StatusConnected.
// Нужен разовым командам, которые публикуют и сразу выходят: Publish
// в отключенном состоянии - тихий дроп, и без ожидания такая команда
// молча теряет свои кадры.
func WaitConnected(tr Transport, timeout time.Duration) error {
	ready := make(chan struct{})
	var once sync.Once
	unsub := tr.OnStatusChange(func(status Status) {
		if status == StatusConnected {
			once.Do(func() { close(ready) })
		}
	})
	defer unsub()

	// Статус мог смениться до подписки
	if tr.Status() == StatusConnected {
		return nil
	}

	select {
	case <-ready:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("no relay connection after %s (status %s)", timeout, tr.Status())
	}
}
