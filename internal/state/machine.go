package state

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"storefront/client/internal/logging"
	"storefront/client/internal/pages"
	"storefront/client/internal/session"
)

// EventType представляет собой тип события из очереди event-loop.
type EventType string

const (
	EventUILaunch   EventType = "UI_LAUNCH"
	EventUINavigate EventType = "UI_NAVIGATE"
	EventUILogin    EventType = "UI_LOGIN"
	EventUIRegister EventType = "UI_REGISTER"
	EventUILogout   EventType = "UI_LOGOUT"

	EventUISearch EventType = "UI_SEARCH"
	EventUIFilter EventType = "UI_FILTER"
	EventUIPage   EventType = "UI_PAGE"

	EventUICartAdd    EventType = "UI_CART_ADD"
	EventUICartUpdate EventType = "UI_CART_UPDATE"
	EventUICartRemove EventType = "UI_CART_REMOVE"
	EventUICartClear  EventType = "UI_CART_CLEAR"
	EventUICheckout   EventType = "UI_CHECKOUT"

	EventUIOrderDetails EventType = "UI_ORDER_DETAILS"
	EventUIOrderCancel  EventType = "UI_ORDER_CANCEL"

	EventUIAdminTab          EventType = "UI_ADMIN_TAB"
	EventUIProductSave       EventType = "UI_PRODUCT_SAVE"
	EventUIProductDelete     EventType = "UI_PRODUCT_DELETE"
	EventUIAdminOrderDetails EventType = "UI_ADMIN_ORDER_DETAILS"
	EventUIOrderStatus       EventType = "UI_ORDER_STATUS"
	EventUIOrderFilter       EventType = "UI_ORDER_FILTER"
	EventUIUserToggle        EventType = "UI_USER_TOGGLE"

	EventUIDismissNotice EventType = "UI_DISMISS_NOTICE"
	EventUIExit          EventType = "UI_EXIT"
)

// Event инкапсулирует событие очереди и произвольную полезную нагрузку.
type Event struct {
	Type    EventType
	Payload any
	TS      time.Time
}

// Handler обрабатывает событие в горутине event-loop.
type Handler func(ctx context.Context, app *AppContext, evt Event)

// Callbacks содержит функции, вызываемые event-loop для побочных эффектов.
type Callbacks struct {
	// Render получает копию состояния после каждого обработанного события.
	Render         func(snapshot AppContext)
	ShowModalError func(info *ErrorInfo)
	CleanupAndExit func(app *AppContext)
}

// Machine инкапсулирует event-loop и текущее состояние приложения.
// Обработчики выполняются последовательно в одной горутине.
type Machine struct {
	ctx       *AppContext
	callbacks Callbacks
	logger    *logging.Logger
	handlers  map[EventType]Handler
	hmu       sync.RWMutex
	events    chan Event
	priority  chan Event
	done      chan struct{}
	finished  chan struct{}
	stopped   atomic.Bool
	loopOnce  sync.Once
	stopOnce  sync.Once
	runCtx    context.Context
	runCancel context.CancelFunc
}

// ErrMachineStopped возвращается при попытке отправить событие после остановки петли.
var ErrMachineStopped = errors.New("state machine stopped")

// NewMachine создаёт event-loop на экране входа.
func NewMachine(ctx *AppContext, logger *logging.Logger, callbacks Callbacks) *Machine {
	if ctx == nil {
		ctx = NewAppContext()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	return &Machine{
		ctx:       ctx,
		callbacks: callbacks,
		logger:    logger,
		handlers:  make(map[EventType]Handler),
		events:    make(chan Event, 64),
		priority:  make(chan Event, 8),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		runCtx:    runCtx,
		runCancel: runCancel,
	}
}

// Handle регистрирует обработчик события. Повторная регистрация заменяет прежний.
func (m *Machine) Handle(t EventType, h Handler) {
	m.hmu.Lock()
	defer m.hmu.Unlock()
	m.handlers[t] = h
}

// On регистрирует обработчик с типизированной полезной нагрузкой P.
// Событие с нагрузкой другого типа логируется и отбрасывается.
func On[P any](m *Machine, t EventType, h func(ctx context.Context, app *AppContext, payload P)) {
	m.Handle(t, func(ctx context.Context, app *AppContext, evt Event) {
		payload, ok := evt.Payload.(P)
		if !ok {
			var want P
			m.logger.Errorf("event %s: payload %T, want %T", evt.Type, evt.Payload, want)
			return
		}
		h(ctx, app, payload)
	})
}

// Start запускает event-loop в отдельной горутине.
func (m *Machine) Start() {
	m.loopOnce.Do(func() {
		go m.loopSafely()
	})
}

// Stop завершает event-loop и отменяет запросы, выполняемые обработчиками.
func (m *Machine) Stop() {
	m.stopOnce.Do(func() {
		m.stopped.Store(true)
		m.runCancel()
		close(m.done)
		close(m.priority)
		close(m.events)
	})
}

// Wait ждёт выхода из event-loop; false, если истёк timeout.
func (m *Machine) Wait(timeout time.Duration) bool {
	if m == nil {
		return true
	}
	if timeout <= 0 {
		<-m.finished
		return true
	}
	select {
	case <-m.finished:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Dispatch отправляет событие в очередь event-loop.
func (m *Machine) Dispatch(evt Event) error {
	if m.stopped.Load() {
		return ErrMachineStopped
	}
	m.logger.Debugf("event queued: %s", evt.Type)
	ch := m.events
	if m.isExitEvent(evt.Type) {
		ch = m.priority
	}
	if m.safeSend(ch, evt) {
		return nil
	}
	return ErrMachineStopped
}

func (m *Machine) loop() {
	for {
		if m.stopped.Load() {
			return
		}

		select {
		case evt, ok := <-m.priority:
			if !ok {
				return
			}
			m.handleEvent(evt)
			continue
		default:
		}

		select {
		case evt, ok := <-m.priority:
			if !ok {
				return
			}
			m.handleEvent(evt)
		case evt, ok := <-m.events:
			if !ok {
				return
			}
			m.handleEvent(evt)
		}
	}
}

func (m *Machine) loopSafely() {
	defer close(m.finished)
	defer m.logPanic("state loop")
	m.loop()
}

func (m *Machine) handleEvent(evt Event) {
	if evt.TS.IsZero() {
		evt.TS = time.Now()
	}
	m.logger.Debugf("event handle: %s route=%s", evt.Type, m.ctx.Route)
	if m.isExitEvent(evt.Type) {
		m.invokeCleanup()
		return
	}

	m.hmu.RLock()
	h, ok := m.handlers[evt.Type]
	m.hmu.RUnlock()
	if !ok {
		m.logger.Debugf("%s: ignored %s", m.ctx.Route, evt.Type)
		return
	}
	h(m.runCtx, m.ctx, evt)
	m.refreshUI()
}

// Navigate переключает экран. Вызывается только из обработчиков.
func (m *Machine) Navigate(next Route) {
	m.transition(next)
}

// Redirect реализует session.Navigator для проверок доступа внутри обработчиков.
func (m *Machine) Redirect(_ context.Context, to session.Route) {
	switch to {
	case session.RouteLogin:
		m.ctx.User = nil
		m.transition(RouteLogin)
	default:
		m.ctx.Notice = pages.AccessDeniedMessage
		m.transition(RouteProducts)
	}
}

func (m *Machine) transition(next Route) {
	if m.ctx.Route == next {
		return
	}
	prev := m.ctx.Route
	m.ctx.Route = next
	m.logger.Debugf("route transition %s → %s", prev, next)
}

// Fail фиксирует ошибку, не относящуюся к отдельной странице.
func (m *Machine) Fail(kind ErrorKind, userMessage, technical string) {
	info := &ErrorInfo{
		Kind:             kind,
		UserMessage:      userMessage,
		TechnicalMessage: technical,
		OccurredAt:       time.Now(),
	}
	m.ctx.LastError = info
	m.logger.Errorf("%s: %s", kind, technical)
	if m.callbacks.ShowModalError != nil {
		m.callbacks.ShowModalError(info)
	}
}

// Context возвращает контекст обработчиков; отменяется при Stop.
func (m *Machine) Context() context.Context {
	return m.runCtx
}

func (m *Machine) logPanic(scope string) {
	if r := recover(); r != nil {
		m.logger.Errorf("panic in %s: %v\n%s", scope, r, debug.Stack())
		panic(r)
	}
}

func (m *Machine) invokeCleanup() {
	if m.callbacks.CleanupAndExit != nil {
		m.callbacks.CleanupAndExit(m.ctx)
		return
	}
	if !m.stopped.Load() {
		m.Stop()
	}
}

func (m *Machine) refreshUI() {
	if m.callbacks.Render != nil {
		m.callbacks.Render(m.ctx.Snapshot())
	}
}

// Refresh отправляет текущее состояние в рендер. Вызывается только из обработчиков или до Start.
func (m *Machine) Refresh() {
	m.refreshUI()
}

func (m *Machine) isExitEvent(t EventType) bool {
	return t == EventUIExit
}

// safeSend блокируется, пока очередь заполнена; закрытый канал даёт false.
func (m *Machine) safeSend(ch chan Event, evt Event) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case <-m.done:
		return false
	case ch <- evt:
		return true
	}
}
