package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/dmitrijs2005/onboardkit/internal/server/services"
	"github.com/gorilla/mux"
)

type resourceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	URL         string `json:"url"`
}

func (req resourceRequest) patch() models.ResourcePatch {
	return models.ResourcePatch{
		Title:       req.Title,
		Description: req.Description,
		Type:        models.ResourceType(req.Type),
		URL:         req.URL,
	}
}

type resourceResponse struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	URL           string    `json:"url"`
	AttachmentKey string    `json:"attachmentKey,omitempty"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Completed     *bool     `json:"completed,omitempty"`
}

func toResourceResponse(r *models.Resource) resourceResponse {
	return resourceResponse{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Type:          string(r.Type),
		URL:           r.URL,
		AttachmentKey: r.AttachmentKey,
		CreatedBy:     r.CreatedByEmail,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type toggleResponse struct {
	Message   string `json:"message"`
	Completed bool   `json:"completed"`
}

type typeCountResponse struct {
	Type  string `json:"_id"`
	Count int64  `json:"count"`
}

type completionStatsResponse struct {
	TotalCompletions     int64   `json:"totalCompletions"`
	AvgCompletions       float64 `json:"avgCompletions"`
	UsersWithCompletions int64   `json:"usersWithCompletions"`
}

type recentResourceResponse struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

type analyticsResponse struct {
	TotalResources  int64                    `json:"totalResources"`
	TotalUsers      int64                    `json:"totalUsers"`
	ResourcesByType []typeCountResponse      `json:"resourcesByType"`
	CompletionStats completionStatsResponse  `json:"completionStats"`
	RecentResources []recentResourceResponse `json:"recentResources"`
}

type uploadURLResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	list, err := s.resources.List(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.resp.error(w, r, err)
		return
	}

	out := make([]resourceResponse, 0, len(list))
	for _, v := range list {
		item := toResourceResponse(v.Resource)
		completed := v.Completed
		item.Completed = &completed
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createResource(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.resp.error(w, r, err)
		return
	}

	res, err := s.resources.Create(r.Context(), UserFromContext(r.Context()), req.patch())
	if err != nil {
		s.resp.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResourceResponse(res))
}

func (s *Server) updateResource(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.resp.error(w, r, err)
		return
	}

	res, err := s.resources.Update(r.Context(), mux.Vars(r)["id"], req.patch())
	if err != nil {
		s.resp.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResourceResponse(res))
}

func (s *Server) deleteResource(w http.ResponseWriter, r *http.Request) {
	if err := s.resources.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.resp.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Resource deleted successfully"})
}

func (s *Server) toggleResource(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	completed, err := s.resources.ToggleCompletion(r.Context(), u.ID, mux.Vars(r)["id"])
	if err != nil {
		s.resp.error(w, r, err)
		return
	}

	msg := "Resource marked as incomplete"
	if completed {
		msg = "Resource marked as completed"
	}
	writeJSON(w, http.StatusOK, toggleResponse{Message: msg, Completed: completed})
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.resources.Analytics(r.Context())
	if err != nil {
		s.resp.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalyticsResponse(a))
}

func toAnalyticsResponse(a *services.Analytics) analyticsResponse {
	out := analyticsResponse{
		TotalResources:  a.TotalResources,
		TotalUsers:      a.TotalUsers,
		ResourcesByType: make([]typeCountResponse, 0, len(a.ResourcesByType)),
		CompletionStats: completionStatsResponse{
			TotalCompletions:     a.CompletionStats.TotalCompletions,
			AvgCompletions:       a.CompletionStats.AvgCompletions,
			UsersWithCompletions: a.CompletionStats.UsersWithCompletions,
		},
		RecentResources: make([]recentResourceResponse, 0, len(a.RecentResources)),
	}
	for _, tc := range a.ResourcesByType {
		out.ResourcesByType = append(out.ResourcesByType, typeCountResponse{Type: string(tc.Type), Count: tc.Count})
	}
	for _, r := range a.RecentResources {
		out.RecentResources = append(out.RecentResources, recentResourceResponse{
			ID:        r.ID,
			Title:     r.Title,
			CreatedAt: r.CreatedAt,
			CreatedBy: r.CreatedByEmail,
		})
	}
	return out
}

func (s *Server) uploadURL(w http.ResponseWriter, r *http.Request) {
	up, err := s.resources.PresignUpload(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.resp.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadURLResponse{Key: up.Key, UploadURL: up.URL, ExpiresAt: up.ExpiresAt})
}
