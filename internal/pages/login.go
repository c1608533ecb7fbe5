package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront/client/internal/logging"
	"storefront/client/internal/shop"
)

// Сообщения формы входа.
const (
	MissingCredentialsMessage = "Please enter username and password"
	NoTokenMessage            = "Login failed: no token received"
	RegisteredNotice          = "Registration successful! Please login."
	RegisterFailedMessage     = "Registration failed"
	UsernameTakenMessage      = "Username is already taken!"
	EmailTakenMessage         = "Email is already in use!"
)

// Authenticator: вход и регистрация через сессию.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (bool, error)
	Register(ctx context.Context, req shop.RegisterRequest) (bool, error)
}

// Availability проверяет имя и email до отправки формы регистрации.
type Availability interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// LoginView: состояние формы входа.
type LoginView struct {
	Username    string
	Registering bool
	Notice      string
	Error       string
}

// Login: контроллер формы входа и регистрации.
type Login struct {
	auth   Authenticator
	checks Availability
	logger *logging.Logger
}

// NewLogin создаёт контроллер. checks может быть nil: тогда занятость имени проверяет только бэкенд.
func NewLogin(auth Authenticator, checks Availability, logger *logging.Logger) *Login {
	return &Login{auth: auth, checks: checks, logger: nopIfNil(logger)}
}

// Submit выполняет вход. Второе значение истинно при успехе.
// Ответ без токена и ошибка бэкенда дают разные сообщения.
func (l *Login) Submit(ctx context.Context, username, password string) (LoginView, bool) {
	username = strings.TrimSpace(username)
	view := LoginView{Username: username}
	if username == "" || password == "" {
		view.Error = MissingCredentialsMessage
		return view, false
	}
	ok, err := l.auth.Login(ctx, username, password)
	if err != nil {
		l.logger.Errorf("login: %s: %v", username, err)
		view.Error = WithReason("", err)
		return view, false
	}
	if !ok {
		view.Error = NoTokenMessage
		return view, false
	}
	return view, true
}

// Register создаёт учётную запись и возвращает форму входа с подсказкой.
func (l *Login) Register(ctx context.Context, req shop.RegisterRequest) LoginView {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if msg := l.unavailable(ctx, req); msg != "" {
		return LoginView{Username: req.Username, Registering: true, Error: RegisterFailedMessage + ": " + msg}
	}
	ok, err := l.auth.Register(ctx, req)
	if err != nil {
		l.logger.Errorf("register: %s: %v", req.Username, err)
		view := LoginView{Username: req.Username, Registering: true}
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			view.Error = RegisterFailedMessage + ": " + describeInvalid(invalid)
			return view
		}
		view.Error = WithReason(RegisterFailedMessage+": ", err)
		return view
	}
	if !ok {
		return LoginView{Username: req.Username, Registering: true, Error: RegisterFailedMessage}
	}
	l.logger.Infof("register: account %s created", req.Username)
	return LoginView{Username: req.Username, Notice: RegisteredNotice}
}

// unavailable возвращает причину отказа, если имя или email уже заняты.
// Сбой проверки только логируется: окончательно решает регистрация.
func (l *Login) unavailable(ctx context.Context, req shop.RegisterRequest) string {
	if l.checks == nil {
		return ""
	}
	if req.Username != "" {
		taken, err := l.checks.UsernameTaken(ctx, req.Username)
		switch {
		case err != nil:
			l.logger.Errorf("register: check username %s: %v", req.Username, err)
		case taken:
			return UsernameTakenMessage
		}
	}
	if req.Email != "" {
		taken, err := l.checks.EmailTaken(ctx, req.Email)
		switch {
		case err != nil:
			l.logger.Errorf("register: check email %s: %v", req.Email, err)
		case taken:
			return EmailTakenMessage
		}
	}
	return ""
}

func describeInvalid(invalid validator.ValidationErrors) string {
	fields := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, strings.ToLower(fe.Field())+" is invalid")
	}
	return strings.Join(fields, ", ")
}
