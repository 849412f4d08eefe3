package eventbus

import (
	"log"
	"reflect"
	"sync"
)

// Bus раздает входящие события подписчикам по имени события.
// Диспетчеризация синхронная, в порядке регистрации. Если подписчиков
// нет - событие молча теряется (без буферизации и повторов).
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]Handler
}

// Handler - колбэк подписчика
type Handler func(payload interface{})

// New создает новый Bus
func New() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe добавляет колбэк в конец списка подписчиков события.
// Дубликаты разрешены, за идемпотентность регистрации отвечает вызывающий.
func (b *Bus) Subscribe(event string, fn Handler) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], fn)
}

// Unsubscribe удаляет первую совпавшую регистрацию колбэка
func (b *Bus) Unsubscribe(event string, fn Handler) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	target := reflect.ValueOf(fn).Pointer()
	list := b.handlers[event]
	for i, h := range list {
		if reflect.ValueOf(h).Pointer() == target {
			b.handlers[event] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Dispatch вызывает всех текущих подписчиков события. Паника одного
// подписчика логируется и не мешает остальным.
func (b *Bus) Dispatch(event string, payload interface{}) {
	b.mu.Lock()
	list := b.handlers[event]
	snapshot := make([]Handler, len(list))
	copy(snapshot, list)
	b.mu.Unlock()

	for _, h := range snapshot {
		b.invoke(event, h, payload)
	}
}

func (b *Bus) invoke(event string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EVENTBUS] Subscriber panic on %q: %v", event, r)
		}
	}()
	h(payload)
}

// SubscriberCount возвращает число подписчиков события
func (b *Bus) SubscriberCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[event])
}
