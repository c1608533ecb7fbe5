package app

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront/client/internal/apiclient"
	"storefront/client/internal/config"
	"storefront/client/internal/logging"
	"storefront/client/internal/pages"
	"storefront/client/internal/session"
	"storefront/client/internal/shop"
	"storefront/client/internal/state"
	"storefront/client/internal/storage"
	"storefront/client/internal/ui"
)

const (
	appID   = "storefront.client"
	appName = "Storefront"

	uiStopTimeout      = 3 * time.Second
	machineStopTimeout = 3 * time.Second
)

// View получает снимки состояния из event-loop.
type View interface {
	Render(snapshot state.AppContext)
	ShowModalError(info *state.ErrorInfo)
}

// Application связывает event-loop, сессию и контроллеры страниц.
type Application struct {
	cfg        *config.Config
	logger     *logging.Logger
	store      storage.Store
	closeStore func() error
	api        *apiclient.Client
	shop       *shop.Client
	session    *session.Store

	login    *pages.Login
	products *pages.Products
	cart     *pages.Cart
	orders   *pages.Orders
	admin    *pages.Admin

	machine  *state.Machine
	ctx      *state.AppContext
	ui       *ui.Manager
	shutdown chan struct{}
	stopOnce sync.Once
}

// New создаёт Application с окнами Fyne.
func New(cfg *config.Config, logger *logging.Logger) (*Application, error) {
	app, err := build(cfg, logger)
	if err != nil {
		return nil, err
	}
	uiManager := ui.NewManager(ui.Options{
		AppID:    appID,
		AppName:  appName,
		Logger:   logger,
		Dispatch: app.dispatch,
	})
	app.ui = uiManager
	app.attach(uiManager)
	return app, nil
}

// build собирает всё, кроме представления.
func build(cfg *config.Config, logger *logging.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	store, closeStore, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("init session storage: %w", err)
	}
	api, err := apiclient.New(cfg.APIBaseURL, apiclient.Options{
		Logger:  logger,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		if closeStore != nil {
			_ = closeStore()
		}
		return nil, fmt.Errorf("init api client: %w", err)
	}
	client := shop.New(api)
	sess := session.New(store, client.Auth, nil, logger)
	api.SetTokenSource(sess)

	taxRate := decimal.NewFromFloat(cfg.TaxRate)
	return &Application{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		closeStore: closeStore,
		api:        api,
		shop:       client,
		session:    sess,
		login:      pages.NewLogin(sess, client.Auth, logger),
		products:   pages.NewProducts(client.Products, cfg.PageSize, logger),
		cart:       pages.NewCart(client.Carts, taxRate, logger),
		orders:     pages.NewOrders(client.Orders, logger),
		admin:      pages.NewAdmin(sess, client.Products, client.Orders, client.Users, logger),
		ctx:        state.NewAppContext(),
		shutdown:   make(chan struct{}),
	}, nil
}

// attach создаёт event-loop, рисующий в view, и регистрирует обработчики.
func (a *Application) attach(view View) {
	callbacks := state.Callbacks{
		CleanupAndExit: a.cleanupAndExit,
	}
	if view != nil {
		callbacks.Render = view.Render
		callbacks.ShowModalError = view.ShowModalError
	}
	a.machine = state.NewMachine(a.ctx, a.logger, callbacks)
	a.session.SetNavigator(a.machine)
	a.registerHandlers()
}

// newStore выбирает хранилище сессии по конфигурации. Второе значение закрывает соединение, если оно есть.
func newStore(cfg *config.Config) (storage.Store, func() error, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		return storage.NewMemoryStore(), nil, nil
	case config.SessionBackendRedis:
		store := storage.NewRedisStore(storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return store, store.Close, nil
	default:
		store, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "session"))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

// Run запускает event-loop и восстанавливает сессию.
func (a *Application) Run() error {
	if a.machine == nil {
		return fmt.Errorf("machine is not initialized")
	}
	if a.ui != nil {
		a.ui.Start()
	}
	a.machine.Refresh()
	a.machine.Start()
	return a.dispatch(state.Event{Type: state.EventUILaunch, TS: time.Now()})
}

// RunUILoop запускает главный цикл Fyne и блокирует вызывающую горутину до выхода.
func (a *Application) RunUILoop() {
	if a.ui == nil {
		return
	}
	a.ui.RunMainLoop()
}

// Stop останавливает UI, event-loop и закрывает хранилище.
func (a *Application) Stop() {
	a.stopOnce.Do(func() {
		if a.ui != nil {
			a.ui.Shutdown()
			if !a.ui.WaitAsync(uiStopTimeout) {
				a.logger.Errorf("ui background tasks did not finish before timeout")
			}
		}
		if a.machine != nil {
			a.machine.Stop()
			if !a.machine.Wait(machineStopTimeout) {
				a.logger.Errorf("state machine did not finish before timeout")
			}
		}
		if a.closeStore != nil {
			if err := a.closeStore(); err != nil {
				a.logger.Errorf("close session storage: %v", err)
			}
		}
		close(a.shutdown)
	})
}

func (a *Application) dispatch(evt state.Event) error {
	if err := a.machine.Dispatch(evt); err != nil {
		a.logger.Errorf("dispatch %s failed: %v", evt.Type, err)
		return err
	}
	return nil
}

// Done возвращает канал, закрывающийся после полной остановки приложения.
func (a *Application) Done() <-chan struct{} {
	return a.shutdown
}

// cleanupAndExit вызывается из event-loop, поэтому Stop уходит в отдельную горутину:
// иначе ожидание машины заблокировало бы её собственную петлю.
func (a *Application) cleanupAndExit(_ *state.AppContext) {
	a.logger.Infof("state machine requested shutdown")
	go a.Stop()
}
