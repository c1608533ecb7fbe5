package ui

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"storefront/client/internal/logging"
	"storefront/client/internal/state"
)

// Options описывает параметры инициализации UI Manager.
type Options struct {
	AppID    string
	AppName  string
	Logger   *logging.Logger
	Dispatch func(state.Event) error
	// App позволяет передать готовое Fyne-приложение (например, test.NewApp()).
	App fyne.App
}

// Manager управляет окнами Fyne и связывает их с event-loop.
// Все поля, кроме каналов, принадлежат goroutine Fyne.
type Manager struct {
	app             fyne.App
	appName         string
	logger          *logging.Logger
	dispatch        func(state.Event) error
	loginWin        fyne.Window
	mainWin         fyne.Window
	loginWinVisible bool
	mainWinVisible  bool
	snap            state.AppContext

	login    *loginForm
	products *productsTab
	cart     *cartTab
	orders   *ordersTab
	admin    *adminTab

	tabs              *container.AppTabs
	tabItems          map[state.Route]*container.TabItem
	adminAttached     bool
	welcome           *widget.Label
	noticeLabel       *widget.Label
	noticeBar         *fyne.Container
	suppressTabEvents bool

	updateCh     chan state.AppContext
	stopCh       chan struct{}
	runOnce      sync.Once
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewManager создаёт новый UI Manager.
func NewManager(opts Options) *Manager {
	appID := strings.TrimSpace(opts.AppID)
	if appID == "" {
		appID = "storefront.client"
	}
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = "Storefront"
	}
	fyneApp := opts.App
	if fyneApp == nil {
		fyneApp = fyneapp.NewWithID(appID)
	}
	fyneApp.Settings().SetTheme(newStorefrontTheme())
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		app:      fyneApp,
		appName:  name,
		logger:   logger,
		dispatch: opts.Dispatch,
		snap:     *state.NewAppContext(),
		updateCh: make(chan state.AppContext, 16),
		stopCh:   make(chan struct{}),
	}
	m.buildLoginWindow()
	m.buildMainWindow()
	return m
}

// Start запускает фоновую goroutine применения снимков.
func (m *Manager) Start() {
	m.runOnce.Do(func() {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.processUpdates()
		}()
	})
}

// RunMainLoop блокирует текущую горутину до завершения цикла Fyne.
func (m *Manager) RunMainLoop() {
	if m.app == nil {
		return
	}
	m.app.Run()
}

// Shutdown останавливает обновления и закрывает Fyne-приложение.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.stopCh)
		m.callOnUI(func() {
			if m.mainWin != nil {
				m.mainWin.Close()
			}
			if m.loginWin != nil {
				m.loginWin.Close()
			}
			m.mainWinVisible = false
			m.loginWinVisible = false
			if m.app != nil {
				m.app.Quit()
			}
		})
	})
}

// WaitAsync ждёт завершения фоновых UI goroutine.
func (m *Manager) WaitAsync(timeout time.Duration) bool {
	if m == nil {
		return true
	}
	if timeout <= 0 {
		m.wg.Wait()
		return true
	}
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Render передаёт снимок состояния в goroutine UI. Если очередь заполнена,
// самый старый снимок отбрасывается: важен только последний.
func (m *Manager) Render(snap state.AppContext) {
	select {
	case <-m.stopCh:
		return
	case m.updateCh <- snap:
	default:
		select {
		case <-m.updateCh:
		default:
		}
		select {
		case m.updateCh <- snap:
		default:
		}
	}
}

// ShowModalError отображает модальное окно ошибки.
func (m *Manager) ShowModalError(info *state.ErrorInfo) {
	if info == nil {
		return
	}
	m.callOnUI(func() {
		message := strings.TrimSpace(info.UserMessage)
		if message == "" {
			message = "Something went wrong"
		}
		dialog.ShowError(errors.New(message), m.activeWindow())
	})
}

func (m *Manager) processUpdates() {
	for {
		select {
		case <-m.stopCh:
			return
		case snap := <-m.updateCh:
			m.callOnUI(func() { m.apply(snap) })
		}
	}
}

// apply выполняется в goroutine Fyne.
func (m *Manager) apply(snap state.AppContext) {
	m.snap = snap
	if snap.Route == state.RouteLogin {
		m.showLogin()
	} else {
		m.showMain()
	}
	m.login.render(snap.Login)
	m.renderHeader(snap)
	m.products.render(snap.Products)
	m.cart.render(snap.Cart)
	m.orders.render(snap.Orders)
	m.admin.render(snap.Admin)
	m.syncTabs(snap)
}

func (m *Manager) showLogin() {
	if m.mainWin != nil && m.mainWinVisible {
		m.mainWin.Hide()
		m.mainWinVisible = false
	}
	if m.loginWin != nil && !m.loginWinVisible {
		m.loginWin.Show()
		m.login.focus(m.loginWin)
		m.loginWinVisible = true
	}
}

func (m *Manager) showMain() {
	if m.loginWin != nil && m.loginWinVisible {
		m.loginWin.Hide()
		m.loginWinVisible = false
	}
	if m.mainWin != nil && !m.mainWinVisible {
		m.mainWin.Show()
		m.mainWin.RequestFocus()
		m.mainWinVisible = true
	}
}

func (m *Manager) renderHeader(snap state.AppContext) {
	if snap.User != nil {
		m.welcome.SetText(fmt.Sprintf("Welcome, %s", snap.User.DisplayName()))
	} else {
		m.welcome.SetText("")
	}
	if strings.TrimSpace(snap.Notice) == "" {
		m.noticeBar.Hide()
		return
	}
	m.noticeLabel.SetText(snap.Notice)
	m.noticeBar.Show()
}

// syncTabs показывает вкладку администратора только администратору и выбирает вкладку маршрута.
func (m *Manager) syncTabs(snap state.AppContext) {
	m.suppressTabEvents = true
	defer func() { m.suppressTabEvents = false }()

	adminItem := m.tabItems[state.RouteAdmin]
	switch {
	case snap.IsAdmin() && !m.adminAttached:
		m.tabs.Append(adminItem)
		m.adminAttached = true
	case !snap.IsAdmin() && m.adminAttached:
		m.tabs.Remove(adminItem)
		m.adminAttached = false
	}
	if item, ok := m.tabItems[snap.Route]; ok && m.tabs.Selected() != item {
		if snap.Route != state.RouteAdmin || m.adminAttached {
			m.tabs.Select(item)
		}
	}
}

func (m *Manager) buildMainWindow() {
	win := m.app.NewWindow(m.appName)
	win.Resize(fyne.NewSize(1000, 680))

	m.products = newProductsTab(m)
	m.cart = newCartTab(m)
	m.orders = newOrdersTab(m)
	m.admin = newAdminTab(m)

	m.tabItems = map[state.Route]*container.TabItem{
		state.RouteProducts: container.NewTabItem("Products", m.products.content),
		state.RouteCart:     container.NewTabItem("Cart", m.cart.content),
		state.RouteOrders:   container.NewTabItem("Orders", m.orders.content),
		state.RouteAdmin:    container.NewTabItem("Admin", m.admin.content),
	}
	m.tabs = container.NewAppTabs(
		m.tabItems[state.RouteProducts],
		m.tabItems[state.RouteCart],
		m.tabItems[state.RouteOrders],
	)
	m.tabs.OnSelected = m.handleTabSelected

	m.welcome = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	logoutBtn := widget.NewButton("Logout", func() { m.sendSimpleEvent(state.EventUILogout) })
	exitBtn := widget.NewButton("Exit", m.handleExitRequested)
	header := container.NewHBox(m.welcome, layout.NewSpacer(), logoutBtn, exitBtn)

	m.noticeLabel = widget.NewLabel("")
	m.noticeLabel.Wrapping = fyne.TextWrapWord
	m.noticeLabel.Importance = widget.WarningImportance
	dismissBtn := widget.NewButton("OK", func() { m.sendSimpleEvent(state.EventUIDismissNotice) })
	m.noticeBar = container.NewBorder(nil, nil, nil, dismissBtn, m.noticeLabel)
	m.noticeBar.Hide()

	top := container.NewVBox(header, m.noticeBar, widget.NewSeparator())
	win.SetContent(container.NewPadded(container.NewBorder(top, nil, nil, nil, m.tabs)))
	win.SetCloseIntercept(m.handleExitRequested)
	win.Hide()
	m.mainWin = win
}

func (m *Manager) handleTabSelected(item *container.TabItem) {
	if m.suppressTabEvents {
		return
	}
	for route, candidate := range m.tabItems {
		if candidate == item {
			m.dispatchEvent(state.Event{Type: state.EventUINavigate, Payload: state.NavigatePayload{Route: route}, TS: time.Now()})
			return
		}
	}
}

func (m *Manager) handleExitRequested() {
	m.sendSimpleEvent(state.EventUIExit)
}

func (m *Manager) sendSimpleEvent(t state.EventType) {
	evt := state.Event{Type: t, TS: time.Now()}
	m.dispatchEvent(evt)
}

func (m *Manager) send(t state.EventType, payload any) {
	m.dispatchEvent(state.Event{Type: t, Payload: payload, TS: time.Now()})
}

func (m *Manager) dispatchEvent(evt state.Event) {
	if m.dispatch == nil {
		return
	}
	if err := m.dispatch(evt); err != nil {
		m.logger.Errorf("ui dispatch %s failed: %v", evt.Type, err)
	}
}

func (m *Manager) activeWindow() fyne.Window {
	if m.loginWinVisible && m.loginWin != nil {
		return m.loginWin
	}
	if m.mainWinVisible && m.mainWin != nil {
		return m.mainWin
	}
	if m.loginWin != nil {
		return m.loginWin
	}
	return m.mainWin
}

func (m *Manager) callOnUI(fn func()) {
	if m.app == nil || fn == nil {
		return
	}
	if drv := m.app.Driver(); drv != nil {
		drv.DoFromGoroutine(fn, true)
		return
	}
	fn()
}

// statusLabel: строка ошибки или уведомления страницы.
func statusLabel() *widget.Label {
	label := widget.NewLabel("")
	label.Wrapping = fyne.TextWrapWord
	label.Hide()
	return label
}

func setStatus(label *widget.Label, notice, errText string) {
	switch {
	case errText != "":
		label.Importance = widget.DangerImportance
		label.SetText(errText)
		label.Show()
	case notice != "":
		label.Importance = widget.SuccessImportance
		label.SetText(notice)
		label.Show()
	default:
		label.SetText("")
		label.Hide()
	}
}
