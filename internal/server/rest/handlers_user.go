package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/gorilla/mux"
)

type profileResponse struct {
	Email               string  `json:"email"`
	Name                *string `json:"name"`
	GitHubUsername      *string `json:"githubUsername"`
	MicrosoftLearnEmail *string `json:"microsoftLearnEmail"`
	CompletedPages      []int   `json:"completedPages"`
	LastViewedPage      int     `json:"lastViewedPage"`
	IsAdmin             bool    `json:"isAdmin"`
}

type githubRequest struct {
	GitHubUsername string `json:"githubUsername"`
	ClearPrevious  bool   `json:"clearPrevious"`
}

type microsoftLearnRequest struct {
	Email         string `json:"email"`
	ClearPrevious bool   `json:"clearPrevious"`
}

type lastViewedRequest struct {
	Page *int `json:"page"`
}

type pagesResponse struct {
	Message        string `json:"message"`
	CompletedPages []int  `json:"completedPages"`
}

type lastViewedResponse struct {
	Message        string `json:"message"`
	LastViewedPage int    `json:"lastViewedPage"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNilPages(p []int) []int {
	if p == nil {
		return []int{}
	}
	return p
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	writeJSON(w, http.StatusOK, profileResponse{
		Email:               u.Email,
		Name:                nullable(u.Name),
		GitHubUsername:      nullable(u.GitHubUsername),
		MicrosoftLearnEmail: nullable(u.MicrosoftLearnEmail),
		CompletedPages:      nonNilPages(u.CompletedPages),
		LastViewedPage:      u.LastViewedPage,
		IsAdmin:             s.users.IsAdmin(u.Email),
	})
}

func (s *Server) saveGitHub(w http.ResponseWriter, r *http.Request) {
	var req githubRequest
	if err := decodeJSON(r, &req); err != nil {
		s.resp.error(w, r, err)
		return
	}

	u := UserFromContext(r.Context())
	pages, err := s.progress.SaveGitHubUsername(r.Context(), u.ID, req.GitHubUsername, req.ClearPrevious)
	if err != nil {
		s.resp.error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pagesResponse{Message: "GitHub username saved successfully", CompletedPages: nonNilPages(pages)})
}

func (s *Server) saveMicrosoftLearn(w http.ResponseWriter, r *http.Request) {
	var req microsoftLearnRequest
	if err := decodeJSON(r, &req); err != nil {
		s.resp.error(w, r, err)
		return
	}

	u := UserFromContext(r.Context())
	pages, err := s.progress.SaveMicrosoftLearnEmail(r.Context(), u.ID, req.Email, req.ClearPrevious)
	if err != nil {
		s.resp.error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pagesResponse{Message: "Microsoft Learn email saved successfully", CompletedPages: nonNilPages(pages)})
}

// pathPage parses the {page} route variable. Non-numeric input becomes 0 and
// is rejected by the page validation downstream.
func pathPage(r *http.Request) int {
	n, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) completePage(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	pages, err := s.progress.MarkPageComplete(r.Context(), u.ID, pathPage(r))
	if err != nil {
		s.resp.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pagesResponse{Message: "Page marked as complete", CompletedPages: nonNilPages(pages)})
}

func (s *Server) incompletePage(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	pages, err := s.progress.MarkPageIncomplete(r.Context(), u.ID, pathPage(r))
	if err != nil {
		s.resp.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pagesResponse{Message: "Page marked as incomplete", CompletedPages: nonNilPages(pages)})
}

func (s *Server) updateLastViewed(w http.ResponseWriter, r *http.Request) {
	var req lastViewedRequest
	if err := decodeJSON(r, &req); err != nil {
		s.resp.error(w, r, err)
		return
	}
	if req.Page == nil {
		s.resp.error(w, r, common.Validation("Page number must be a positive integer"))
		return
	}

	u := UserFromContext(r.Context())
	page, err := s.progress.UpdateLastViewedPage(r.Context(), u.ID, *req.Page)
	if err != nil {
		s.resp.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lastViewedResponse{Message: "Last viewed page updated", LastViewedPage: page})
}
