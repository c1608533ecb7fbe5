package app

import (
	"context"
	"errors"
	"time"

	"storefront/client/internal/pages"
	"storefront/client/internal/session"
	"storefront/client/internal/state"
)

// Сообщения, которые event-loop показывает поверх страниц.
const (
	OrderPlacedNotice  = "Order placed successfully!"
	OrderFailedMessage = "Failed to create order"
	LogoutFailedNotice = "Could not clear the saved session"
)

func (a *Application) registerHandlers() {
	m := a.machine
	m.Handle(state.EventUILaunch, a.onLaunch)
	m.Handle(state.EventUILogout, a.onLogout)
	m.Handle(state.EventUIDismissNotice, func(_ context.Context, app *state.AppContext, _ state.Event) {
		app.Notice = ""
	})
	state.On(m, state.EventUINavigate, a.onNavigate)
	state.On(m, state.EventUILogin, a.onLogin)
	state.On(m, state.EventUIRegister, a.onRegister)

	state.On(m, state.EventUISearch, func(ctx context.Context, app *state.AppContext, p state.SearchPayload) {
		if a.signedIn(ctx, app) {
			app.Products = a.products.Search(ctx, app.Products, p.Term)
		}
	})
	state.On(m, state.EventUIFilter, func(ctx context.Context, app *state.AppContext, p state.FilterPayload) {
		if a.signedIn(ctx, app) {
			app.Products = a.products.Filter(ctx, app.Products, p.Category, p.SortBy)
		}
	})
	state.On(m, state.EventUIPage, func(ctx context.Context, app *state.AppContext, p state.PagePayload) {
		if a.signedIn(ctx, app) {
			app.Products = a.products.Step(ctx, app.Products, p.Delta)
		}
	})

	state.On(m, state.EventUICartAdd, func(ctx context.Context, app *state.AppContext, p state.CartAddPayload) {
		if a.signedIn(ctx, app) {
			app.Cart = a.cart.Add(ctx, app.Cart, app.User.ID, p.ProductID, p.Quantity)
		}
	})
	state.On(m, state.EventUICartUpdate, func(ctx context.Context, app *state.AppContext, p state.CartItemPayload) {
		if a.signedIn(ctx, app) {
			app.Cart = a.cart.UpdateQuantity(ctx, app.Cart, app.User.ID, p.ItemID, p.Quantity)
		}
	})
	state.On(m, state.EventUICartRemove, func(ctx context.Context, app *state.AppContext, p state.CartItemPayload) {
		if a.signedIn(ctx, app) {
			app.Cart = a.cart.Remove(ctx, app.Cart, app.User.ID, p.ItemID)
		}
	})
	m.Handle(state.EventUICartClear, func(ctx context.Context, app *state.AppContext, _ state.Event) {
		if a.signedIn(ctx, app) {
			app.Cart = a.cart.Clear(ctx, app.Cart, app.User.ID)
		}
	})
	state.On(m, state.EventUICheckout, a.onCheckout)

	state.On(m, state.EventUIOrderDetails, func(ctx context.Context, app *state.AppContext, p state.OrderPayload) {
		if !a.signedIn(ctx, app) {
			return
		}
		if p.OrderID == 0 {
			app.Orders = a.orders.CloseDetails(app.Orders)
			return
		}
		app.Orders = a.orders.Details(ctx, app.Orders, p.OrderID)
	})
	state.On(m, state.EventUIOrderCancel, func(ctx context.Context, app *state.AppContext, p state.OrderPayload) {
		if a.signedIn(ctx, app) {
			app.Orders = a.orders.Cancel(ctx, app.Orders, app.User.ID, p.OrderID)
		}
	})

	state.On(m, state.EventUIAdminTab, func(ctx context.Context, app *state.AppContext, p state.AdminTabPayload) {
		if a.adminAllowed(ctx) {
			app.Admin = a.admin.LoadTab(ctx, app.Admin, p.Tab)
		}
	})
	state.On(m, state.EventUIProductSave, func(ctx context.Context, app *state.AppContext, p state.ProductFormPayload) {
		if a.adminAllowed(ctx) {
			app.Admin = a.admin.SaveProduct(ctx, app.Admin, p.Form)
		}
	})
	state.On(m, state.EventUIProductDelete, func(ctx context.Context, app *state.AppContext, p state.ProductPayload) {
		if a.adminAllowed(ctx) {
			app.Admin = a.admin.DeleteProduct(ctx, app.Admin, p.ProductID)
		}
	})
	state.On(m, state.EventUIAdminOrderDetails, func(ctx context.Context, app *state.AppContext, p state.OrderPayload) {
		if !a.adminAllowed(ctx) {
			return
		}
		if p.OrderID == 0 {
			app.Admin.SelectedOrder = nil
			return
		}
		app.Admin = a.admin.OrderDetails(ctx, app.Admin, p.OrderID)
	})
	state.On(m, state.EventUIOrderStatus, func(ctx context.Context, app *state.AppContext, p state.OrderStatusPayload) {
		if a.adminAllowed(ctx) {
			app.Admin = a.admin.UpdateOrderStatus(ctx, app.Admin, p.OrderID, p.Status)
		}
	})
	state.On(m, state.EventUIOrderFilter, func(ctx context.Context, app *state.AppContext, p state.StatusFilterPayload) {
		if a.adminAllowed(ctx) {
			app.Admin = a.admin.FilterOrders(app.Admin, p.Status)
		}
	})
	state.On(m, state.EventUIUserToggle, func(ctx context.Context, app *state.AppContext, p state.UserPayload) {
		if a.adminAllowed(ctx) {
			app.Admin = a.admin.ToggleUserStatus(app.Admin, p.UserID)
		}
	})
}

// onLaunch восстанавливает сохранённую сессию: при наличии токена и профиля
// клиент сразу открывает каталог.
func (a *Application) onLaunch(ctx context.Context, app *state.AppContext, _ state.Event) {
	if !a.session.IsAuthenticated(ctx) {
		a.logger.Infof("launch: no saved session")
		return
	}
	user, ok := a.session.CurrentUser(ctx)
	if !ok {
		a.logger.Infof("launch: saved token without a valid profile, signing out")
		a.clearSession(ctx, app)
		return
	}
	a.logger.Infof("launch: restored session for %s", user.Username)
	if claims, ok := a.session.Claims(ctx); ok && claims.Expired(time.Now()) {
		// Бэкенд сам ответит 401; клиент токены не обновляет.
		a.logger.Infof("launch: saved token expired at %s", claims.ExpiresAt.Format(time.RFC3339))
	}
	a.enter(ctx, app, user)
}

func (a *Application) onLogin(ctx context.Context, app *state.AppContext, p state.CredentialsPayload) {
	view, ok := a.login.Submit(ctx, p.Username, p.Password)
	app.Login = view
	if !ok {
		return
	}
	user, found := a.session.CurrentUser(ctx)
	if !found {
		a.machine.Fail(state.ErrorKindStorageFailed, "Could not read the saved session", session.ErrNoUser.Error())
		return
	}
	a.enter(ctx, app, user)
}

func (a *Application) onRegister(ctx context.Context, app *state.AppContext, p state.RegisterPayload) {
	app.Login = a.login.Register(ctx, p.Request)
}

func (a *Application) onLogout(ctx context.Context, app *state.AppContext, _ state.Event) {
	a.clearSession(ctx, app)
	a.logger.Infof("logout: session cleared")
}

// clearSession удаляет сохранённую сессию и сбрасывает все страницы.
func (a *Application) clearSession(ctx context.Context, app *state.AppContext) {
	err := a.session.Logout(ctx)
	*app = *state.NewAppContext()
	if err != nil {
		a.machine.Fail(state.ErrorKindStorageFailed, LogoutFailedNotice, err.Error())
	}
}

// enter открывает каталог для вошедшего пользователя.
func (a *Application) enter(ctx context.Context, app *state.AppContext, user *session.User) {
	app.User = user
	app.Login = pages.LoginView{}
	app.Notice = ""
	a.machine.Navigate(state.RouteProducts)
	app.Products = a.products.Load(ctx, pages.ProductsQuery{})
}

// onNavigate загружает страницу заново при каждом переходе.
func (a *Application) onNavigate(ctx context.Context, app *state.AppContext, p state.NavigatePayload) {
	if p.Route == state.RouteLogin {
		a.machine.Navigate(state.RouteLogin)
		return
	}
	if !a.signedIn(ctx, app) {
		return
	}
	switch p.Route {
	case state.RouteProducts:
		app.Products = a.products.Load(ctx, app.Products.Query)
	case state.RouteCart:
		app.Cart = a.cart.Load(ctx, app.User.ID)
	case state.RouteOrders:
		app.Orders = a.orders.Load(ctx, app.User.ID)
	case state.RouteAdmin:
		view, ok := a.admin.Enter(ctx)
		if !ok {
			return
		}
		view.StatusFilter = app.Admin.StatusFilter
		app.Admin = view
	default:
		a.logger.Errorf("navigate: unknown route %q", p.Route)
		return
	}
	a.machine.Navigate(p.Route)
}

// onCheckout оформляет заказ из корзины и открывает историю заказов.
func (a *Application) onCheckout(ctx context.Context, app *state.AppContext, p state.CheckoutPayload) {
	if !a.signedIn(ctx, app) {
		return
	}
	ok, err := a.orders.Create(ctx, app.User.ID, p.ShippingAddress)
	switch {
	case errors.Is(err, pages.ErrEmptyAddress):
		app.Cart.Notice = ""
		app.Cart.Error = "Please enter a shipping address"
		return
	case err != nil:
		app.Cart.Notice = ""
		app.Cart.Error = pages.WithReason(OrderFailedMessage+": ", err)
		return
	case !ok:
		app.Cart.Notice = ""
		app.Cart.Error = OrderFailedMessage
		return
	}
	app.Cart = a.cart.Load(ctx, app.User.ID)
	app.Orders = a.orders.Load(ctx, app.User.ID)
	app.Notice = OrderPlacedNotice
	a.machine.Navigate(state.RouteOrders)
}

// signedIn проверяет токен и профиль. При отказе сессия сама уводит на вход.
func (a *Application) signedIn(ctx context.Context, app *state.AppContext) bool {
	if !a.session.RequireAuth(ctx) {
		return false
	}
	if app.User != nil {
		return true
	}
	user, ok := a.session.CurrentUser(ctx)
	if !ok {
		a.clearSession(ctx, app)
		return false
	}
	app.User = user
	return true
}

func (a *Application) adminAllowed(ctx context.Context) bool {
	return a.session.RequireAdmin(ctx)
}
