package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"storefront/client/internal/pages"
	"storefront/client/internal/shop"
	"storefront/client/internal/state"
)

// loginForm: окно входа с переключаемой формой регистрации.
type loginForm struct {
	m *Manager

	usernameEntry *widget.Entry
	passwordEntry *widget.Entry
	loginBtn      *widget.Button
	signIn        *fyne.Container

	regUsername  *widget.Entry
	regEmail     *widget.Entry
	regPassword  *widget.Entry
	regFirstName *widget.Entry
	regLastName  *widget.Entry
	register     *fyne.Container

	status      *widget.Label
	registering bool
}

func (m *Manager) buildLoginWindow() {
	win := m.app.NewWindow(fmt.Sprintf("%s — Sign in", m.appName))
	win.Resize(fyne.NewSize(460, 560))
	win.CenterOnScreen()
	win.SetFixedSize(true)

	f := &loginForm{m: m}
	title := widget.NewLabelWithStyle(m.appName, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	f.usernameEntry = widget.NewEntry()
	f.usernameEntry.SetPlaceHolder("Username")
	f.usernameEntry.OnSubmitted = func(string) { f.submitLogin() }
	f.passwordEntry = widget.NewPasswordEntry()
	f.passwordEntry.SetPlaceHolder("Password")
	f.passwordEntry.OnSubmitted = func(string) { f.submitLogin() }

	f.loginBtn = widget.NewButton("Login", f.submitLogin)
	f.loginBtn.Importance = widget.HighImportance
	toRegister := widget.NewButton("Create an account", func() { f.showRegister(true) })
	f.signIn = container.NewVBox(
		widget.NewLabelWithStyle("Username", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		f.usernameEntry,
		widget.NewLabelWithStyle("Password", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		f.passwordEntry,
		f.loginBtn,
		toRegister,
	)

	f.regUsername = widget.NewEntry()
	f.regUsername.SetPlaceHolder("Username")
	f.regEmail = widget.NewEntry()
	f.regEmail.SetPlaceHolder("Email")
	f.regPassword = widget.NewPasswordEntry()
	f.regPassword.SetPlaceHolder("Password (6+ characters)")
	f.regFirstName = widget.NewEntry()
	f.regFirstName.SetPlaceHolder("First name")
	f.regLastName = widget.NewEntry()
	f.regLastName.SetPlaceHolder("Last name")
	registerBtn := widget.NewButton("Register", f.submitRegister)
	registerBtn.Importance = widget.HighImportance
	toLogin := widget.NewButton("Back to login", func() { f.showRegister(false) })
	f.register = container.NewVBox(
		f.regUsername, f.regEmail, f.regPassword, f.regFirstName, f.regLastName,
		registerBtn, toLogin,
	)
	f.register.Hide()

	f.status = statusLabel()
	body := container.NewVBox(f.signIn, f.register, layout.NewSpacer())
	content := container.NewBorder(title, container.NewVBox(widget.NewSeparator(), f.status), nil, nil, body)
	win.SetContent(container.NewPadded(content))
	win.SetCloseIntercept(m.handleExitRequested)
	win.Show()
	m.loginWinVisible = true
	m.loginWin = win
	m.login = f
}

func (f *loginForm) submitLogin() {
	f.m.send(state.EventUILogin, state.CredentialsPayload{
		Username: f.usernameEntry.Text,
		Password: f.passwordEntry.Text,
	})
}

func (f *loginForm) submitRegister() {
	f.m.send(state.EventUIRegister, state.RegisterPayload{Request: shop.RegisterRequest{
		Username:  f.regUsername.Text,
		Email:     f.regEmail.Text,
		Password:  f.regPassword.Text,
		FirstName: f.regFirstName.Text,
		LastName:  f.regLastName.Text,
		Role:      shop.RoleCustomer,
	}})
}

func (f *loginForm) showRegister(on bool) {
	f.registering = on
	if on {
		f.signIn.Hide()
		f.register.Show()
		return
	}
	f.register.Hide()
	f.signIn.Show()
}

func (f *loginForm) focus(win fyne.Window) {
	if c := win.Canvas(); c != nil {
		c.Focus(f.usernameEntry)
	}
}

func (f *loginForm) render(view pages.LoginView) {
	if view.Registering != f.registering {
		f.showRegister(view.Registering)
	}
	if view.Username != "" && f.usernameEntry.Text == "" {
		f.usernameEntry.SetText(view.Username)
	}
	if f.m.snap.Route != state.RouteLogin {
		f.passwordEntry.SetText("")
		f.regPassword.SetText("")
	}
	setStatus(f.status, view.Notice, view.Error)
}
