package rest

import (
	"net/http"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.resp.error(w, r, err)
		return
	}

	if _, err := s.users.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		s.resp.error(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.resp.error(w, r, err)
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.resp.error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: res.Token,
		User:  loginUser{Email: res.Email, IsAdmin: res.IsAdmin},
	})
}
