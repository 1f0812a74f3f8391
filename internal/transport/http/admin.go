package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/app"
	"github.com/cimillas/seatplan/internal/domain"
	"github.com/cimillas/seatplan/internal/logging"
)

// OccasionAdmin is the minimal interface needed for occasion endpoints.
type OccasionAdmin interface {
	CreateOccasion(ctx context.Context, in app.CreateOccasionInput) (domain.Occasion, error)
	ListOccasions(ctx context.Context) ([]domain.Occasion, error)
}

// PersonAdmin is the minimal interface needed for roster endpoints.
type PersonAdmin interface {
	CreatePerson(ctx context.Context, in app.CreatePersonInput) (domain.Person, error)
	ListPersons(ctx context.Context, status string) ([]domain.Person, error)
}

const dayLayout = "2006-01-02"

type createOccasionRequest struct {
	Name string `json:"name"`
	Day  string `json:"day,omitempty"`
}

type occasionResponse struct {
	ID   string `json:"id"`
	Seq  int64  `json:"seq"`
	Name string `json:"name"`
	Day  string `json:"day"`
}

func toOccasionResponse(o domain.Occasion) occasionResponse {
	return occasionResponse{ID: o.ID, Seq: o.Seq, Name: o.Name, Day: o.Day.Format(dayLayout)}
}

// HandleOccasions serves GET and POST /occasions.
func HandleOccasions(svc OccasionAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.For(r.Context(), logger)
		switch r.Method {
		case http.MethodGet:
			occasions, err := svc.ListOccasions(r.Context())
			if err != nil {
				writeDomainError(w, log, err)
				return
			}
			resp := make([]occasionResponse, 0, len(occasions))
			for _, o := range occasions {
				resp = append(resp, toOccasionResponse(o))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			var req createOccasionRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			var day *time.Time
			if req.Day != "" {
				parsed, err := time.Parse(dayLayout, req.Day)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidDay, "day must be YYYY-MM-DD")
					return
				}
				day = &parsed
			}

			occasion, err := svc.CreateOccasion(r.Context(), app.CreateOccasionInput{Name: req.Name, Day: day})
			if err != nil {
				writeDomainError(w, log, err)
				return
			}
			writeJSON(w, http.StatusCreated, toOccasionResponse(occasion))
		default:
			methodNotAllowed(w, "GET, POST")
		}
	}
}

type createPersonRequest struct {
	Name    string `json:"name"`
	Gender  string `json:"gender"`
	GroupID string `json:"group_id,omitempty"`
}

type personResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Gender  string `json:"gender"`
	GroupID string `json:"group_id,omitempty"`
	Status  string `json:"status"`
}

func toPersonResponse(p domain.Person) personResponse {
	return personResponse{
		ID:      p.ID,
		Name:    p.Name,
		Gender:  string(p.Gender),
		GroupID: p.GroupID,
		Status:  string(p.Status),
	}
}

// HandlePersons serves GET and POST /persons.
func HandlePersons(svc PersonAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.For(r.Context(), logger)
		switch r.Method {
		case http.MethodGet:
			people, err := svc.ListPersons(r.Context(), r.URL.Query().Get("status"))
			if err != nil {
				writeDomainError(w, log, err)
				return
			}
			resp := make([]personResponse, 0, len(people))
			for _, p := range people {
				resp = append(resp, toPersonResponse(p))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			var req createPersonRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			person, err := svc.CreatePerson(r.Context(), app.CreatePersonInput{
				Name:    req.Name,
				Gender:  req.Gender,
				GroupID: req.GroupID,
			})
			if err != nil {
				writeDomainError(w, log, err)
				return
			}
			writeJSON(w, http.StatusCreated, toPersonResponse(person))
		default:
			methodNotAllowed(w, "GET, POST")
		}
	}
}
