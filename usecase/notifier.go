package usecase

import (
	"ghooey/domain"
	"ghooey/interface/exporter"
	"log"
	"sync"
)

// NotifierInteractor is the in-process notification bus. Publishers hand over
// a notification and move on; subscribers each get their own buffered channel
// and consume at their own pace. A subscriber that falls behind loses
// notifications instead of stalling a settlement.
type NotifierInteractor struct {
	mutex       sync.Mutex
	subscribers []chan domain.Notification
	closed      bool
}

func NewNotifierInteractor() *NotifierInteractor {
	return &NotifierInteractor{}
}

// Subscribe returns a channel that receives every notification published
// after the call.
func (interactor *NotifierInteractor) Subscribe() <-chan domain.Notification {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()

	ch := make(chan domain.Notification, 64)
	interactor.subscribers = append(interactor.subscribers, ch)
	return ch
}

// Publish fans the notification out to every subscriber. It never blocks.
func (interactor *NotifierInteractor) Publish(notification domain.Notification) {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()

	if interactor.closed {
		return
	}

	for _, ch := range interactor.subscribers {
		select {
		case ch <- notification:
		default:
			log.Printf("⚠️ dropping notification, slow subscriber [name: %v, symbol: %v]\n",
				notification.Name, notification.Symbol)
			exporter.IncDroppedNotificationCount()
		}
	}
}

// Close ends the bus; subscriber channels are closed so consumer loops end.
func (interactor *NotifierInteractor) Close() {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()

	if interactor.closed {
		return
	}
	interactor.closed = true
	for _, ch := range interactor.subscribers {
		close(ch)
	}
	interactor.subscribers = nil
}
