package backend

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"storefront/client/internal/logging"
	"storefront/client/internal/shop"
)

const shutdownTimeout = 5 * time.Second

// Server: HTTP-сервер магазина поверх Store.
type Server struct {
	cfg      *Config
	store    *Store
	tokens   *TokenIssuer
	validate *validator.Validate
	logger   *logging.Logger
}

// NewServer создаёт сервер и заполняет хранилище начальными данными.
func NewServer(cfg *Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg.applyDefaults()
	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := generateSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		logger.Infof("backend: jwt_secret is not set, tokens will not survive a restart")
	}
	s := &Server{
		cfg:      cfg,
		store:    NewStore(),
		tokens:   NewTokenIssuer(secret, cfg.TokenTTL),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	if err := s.seed(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) seed() error {
	for _, u := range s.cfg.Users {
		if err := s.validate.Struct(u); err != nil {
			return fmt.Errorf("invalid seed user %q: %w", u.Username, err)
		}
		hash, err := HashPassword(u.Password)
		if err != nil {
			return err
		}
		account := shop.Account{Username: u.Username, Email: u.Email, Role: u.Role, FirstName: u.FirstName, LastName: u.LastName}
		if _, err := s.store.AddUser(account, hash); err != nil {
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		}
	}

	products := s.cfg.Products
	if s.cfg.CatalogDir != "" {
		catalog, err := LoadCatalog(s.cfg.CatalogDir, s.validate)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		products = append(products, catalog...)
	}
	for _, p := range products {
		if err := s.validate.Struct(p); err != nil {
			return fmt.Errorf("invalid seed product %q: %w", p.Name, err)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		s.store.AddProduct(shop.Product{
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Category:    p.Category,
			Stock:       p.Stock,
			ImageURL:    p.ImageURL,
		})
	}
	s.logger.Infof("backend: loaded %d users, %d products", len(s.cfg.Users), len(products))
	return nil
}

// Store открывает хранилище для тестов и инструментов разработчика.
func (s *Server) Store() *Store { return s.store }

// Handler собирает маршрутизатор со всеми маршрутами API.
func (s *Server) Handler() http.Handler {
	zl := s.logger.Zap()
	authed := authenticate(s.tokens, zl)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(zl))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api/auth", func(r chi.Router) {
		r.With(httprate.LimitByIP(s.cfg.LoginRateLimit, time.Minute)).Post("/login", s.login)
		r.Post("/register", s.register)
		r.Get("/check-username/{username}", s.checkUsername)
		r.Get("/check-email/{email}", s.checkEmail)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.listProducts)
		r.Get("/all", s.allProducts)
		r.Get("/search/general", s.searchProducts)
		r.Get("/category/{category}", s.productsByCategory)
		r.Get("/{id}", s.getProduct)
		r.Group(func(r chi.Router) {
			r.Use(authed, requireAdmin)
			r.Post("/", s.createProduct)
			r.Put("/{id}", s.updateProduct)
			r.Delete("/{id}", s.deleteProduct)
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authed)
		r.Get("/user/{userID}", s.getCart)
		r.Post("/user/{userID}/add", s.addToCart)
		r.Delete("/user/{userID}/clear", s.clearCart)
		r.Put("/item/{itemID}", s.updateCartItem)
		r.Delete("/item/{itemID}", s.removeCartItem)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authed)
		r.With(requireAdmin).Get("/", s.allOrders)
		r.Get("/user/{userID}", s.userOrders)
		r.Post("/user/{userID}/create", s.createOrder)
		r.Get("/{id}", s.getOrder)
		r.With(requireAdmin).Put("/{id}/status", s.updateOrderStatus)
		r.Put("/{id}/cancel", s.cancelOrder)
	})

	r.With(authed, requireAdmin).Get("/api/users", s.listUsers)
	return r
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("backend: listening on %s", s.cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Infof("backend: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Infof("backend: stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "OK")
}

// generateSecret возвращает случайный ключ подписи.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
