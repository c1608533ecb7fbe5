package backend

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront/client/internal/shop"
)

type registerResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Message  string `json:"message"`
}

// login обрабатывает POST /api/auth/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req shop.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Error: Invalid request body!")
		return
	}

	account, hash, ok := s.store.UserByName(req.Username)
	if !ok || !checkPassword(hash, req.Password) {
		s.logger.Infof("backend: login failed for %q", req.Username)
		writeMessage(w, http.StatusUnauthorized, "Error: Invalid username or password!")
		return
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		s.logger.Errorf("backend: issue token for %q: %v", account.Username, err)
		writeMessage(w, http.StatusInternalServerError, "Error: Authentication failed!")
		return
	}
	s.logger.Infof("backend: login succeeded for %q", account.Username)
	writeJSON(w, http.StatusOK, shop.LoginResponse{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
		Role:     account.Role,
		Token:    token,
		Message:  "Login successful",
	})
}

// register обрабатывает POST /api/auth/register.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req shop.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Error: Invalid user data - malformed body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		field := "request"
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field = verrs[0].Field()
		}
		writeMessage(w, http.StatusBadRequest, "Error: Invalid user data - "+field+" is invalid")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		s.logger.Errorf("backend: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error: Could not register user!")
		return
	}
	account, err := s.store.AddUser(shop.Account{
		Username:  req.Username,
		Email:     req.Email,
		Role:      req.Role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, hash)
	if err != nil {
		var storeErr *Error
		if errors.As(err, &storeErr) {
			writeMessage(w, http.StatusBadRequest, "Error: "+storeErr.Message)
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Error: Registration failed - "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
		Role:     account.Role,
		Message:  "User registered successfully!",
	})
}

func (s *Server) checkUsername(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.UsernameExists(chi.URLParam(r, "username")))
}

func (s *Server) checkEmail(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.EmailExists(chi.URLParam(r, "email")))
}

// listUsers обрабатывает GET /api/users (только администратор).
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Users())
}
