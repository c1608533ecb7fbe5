// Package session хранит bearer-токен и профиль вошедшего пользователя
// и реализует проверки доступа к страницам.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront/client/internal/apiclient"
	"storefront/client/internal/logging"
	"storefront/client/internal/shop"
	"storefront/client/internal/storage"
)

// Ключи записей в хранилище.
const (
	TokenKey = "jwt_token"
	UserKey  = "current_user"
)

// RegisteredMessage: ответ бэкенда на успешную регистрацию.
const RegisteredMessage = "User registered successfully!"

// ErrNoUser: профиль не сохранён или не прошёл проверку.
var ErrNoUser = errors.New("session: no valid user")

// User: сохранённый профиль вошедшего пользователя.
type User struct {
	ID        int64  `json:"id" validate:"gt=0"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Role      string `json:"role" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// DisplayName возвращает имя для приветствия.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Route: страница, на которую уводит неудачная проверка доступа.
type Route string

const (
	RouteLogin      Route = "login"
	RouteRestricted Route = "restricted"
)

// Navigator выполняет перенаправление при неудачной проверке доступа.
type Navigator interface {
	Redirect(ctx context.Context, to Route)
}

// Authenticator: вызовы входа и регистрации бэкенда.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (shop.LoginResponse, error)
	Register(ctx context.Context, req shop.RegisterRequest) (shop.MessageResponse, error)
}

// Store: сессия поверх постоянного хранилища.
type Store struct {
	store    storage.Store
	auth     Authenticator
	nav      Navigator
	logger   *logging.Logger
	validate *validator.Validate
}

// New создаёт сессию. nav может быть nil: тогда проверки только возвращают результат.
func New(store storage.Store, auth Authenticator, nav Navigator, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		store:    store,
		auth:     auth,
		nav:      nav,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetNavigator подключает навигацию после создания сессии.
func (s *Store) SetNavigator(nav Navigator) {
	s.nav = nav
}

// Token возвращает сохранённый токен или пустую строку.
func (s *Store) Token(ctx context.Context) string {
	token, ok, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		s.logger.Errorf("session: read token: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// IsAuthenticated истинно, если сохранён непустой токен.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// CurrentUser возвращает сохранённый профиль. Повреждённая или неполная запись
// считается отсутствующей: сессия трактуется как выход.
func (s *Store) CurrentUser(ctx context.Context) (*User, bool) {
	user, err := s.loadUser(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoUser) {
			s.logger.Errorf("session: %v", err)
		}
		return nil, false
	}
	return user, true
}

func (s *Store) loadUser(ctx context.Context) (*User, error) {
	raw, ok, err := s.store.Get(ctx, UserKey)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if !ok || raw == "" {
		return nil, ErrNoUser
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("stored user is malformed: %w", err)
	}
	if err := s.validate.Struct(user); err != nil {
		return nil, fmt.Errorf("stored user is invalid: %w", err)
	}
	return &user, nil
}

// Login отправляет учётные данные. При ответе с токеном сохраняет токен и профиль
// и возвращает true. Успешный ответ без токена даёт (false, nil); сбой транспорта
// или HTTP-ошибка возвращаются как *apiclient.Error.
func (s *Store) Login(ctx context.Context, username, password string) (bool, error) {
	resp, err := s.auth.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, shop.ErrUnexpectedResponse) {
			s.logger.Errorf("login: unreadable response: %v", err)
			return false, nil
		}
		return false, err
	}
	if resp.Token == "" {
		s.logger.Errorf("login: no token in response for %s", username)
		return false, nil
	}
	user := User{
		ID:        resp.ID,
		Username:  resp.Username,
		Email:     resp.Email,
		Role:      resp.Role,
		FirstName: resp.Username,
		LastName:  "",
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return false, fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, TokenKey, resp.Token); err != nil {
		return false, fmt.Errorf("store token: %w", err)
	}
	if err := s.store.Set(ctx, UserKey, string(payload)); err != nil {
		return false, fmt.Errorf("store user: %w", err)
	}
	s.logger.Infof("login: %s signed in as %s", user.Username, user.Role)
	return true, nil
}

// Register создаёт учётную запись; true, если бэкенд подтвердил регистрацию.
func (s *Store) Register(ctx context.Context, req shop.RegisterRequest) (bool, error) {
	if err := s.validate.Struct(req); err != nil {
		return false, fmt.Errorf("register: %w", err)
	}
	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		return false, err
	}
	ok := resp.Message == RegisteredMessage
	if !ok {
		s.logger.Errorf("register: unexpected response %q", resp.Message)
	}
	return ok, nil
}

// Logout удаляет обе записи. Повторный вызов безопасен.
func (s *Store) Logout(ctx context.Context) error {
	var errs []error
	if err := s.store.Remove(ctx, TokenKey); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Remove(ctx, UserKey); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("logout: %w", errors.Join(errs...))
	}
	return nil
}

// IsAdmin истинно, если роль сохранённого пользователя: ADMIN.
func (s *Store) IsAdmin(ctx context.Context) bool {
	user, ok := s.CurrentUser(ctx)
	return ok && user.Role == shop.RoleAdmin
}

// RequireAuth уводит на вход, если токена нет.
func (s *Store) RequireAuth(ctx context.Context) bool {
	if s.IsAuthenticated(ctx) {
		return true
	}
	s.redirect(ctx, RouteLogin)
	return false
}

// RequireAdmin сначала требует входа, затем роль ADMIN; иначе уводит на общую страницу.
func (s *Store) RequireAdmin(ctx context.Context) bool {
	if !s.RequireAuth(ctx) {
		return false
	}
	if s.IsAdmin(ctx) {
		return true
	}
	s.redirect(ctx, RouteRestricted)
	return false
}

func (s *Store) redirect(ctx context.Context, to Route) {
	s.logger.Debugf("session: redirect to %s", to)
	if s.nav != nil {
		s.nav.Redirect(ctx, to)
	}
}

var _ apiclient.TokenSource = (*Store)(nil)
