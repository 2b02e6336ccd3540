// internal/api/directory/handlers.go
package directory

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/fieldbook/internal/api/apiutil"
	appdb "github.com/codr1/fieldbook/internal/db"
	dbgen "github.com/codr1/fieldbook/internal/db/generated"
)

const directoryQueryTimeout = 5 * time.Second

var (
	queriesMu sync.RWMutex
	queries   *dbgen.Queries
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	queriesMu.Lock()
	defer queriesMu.Unlock()
	if database == nil {
		queries = nil
		return
	}
	queries = database.Queries
}

func loadQueries() *dbgen.Queries {
	queriesMu.RLock()
	defer queriesMu.RUnlock()
	return queries
}

// RegisterRoutes mounts the field, user and team endpoints.
func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/fields", HandleFieldsList)
	mux.HandleFunc("POST /api/v1/fields", HandleFieldCreate)
	mux.HandleFunc("GET /api/v1/fields/{id}", HandleFieldGet)
	mux.HandleFunc("POST /api/v1/users", HandleUserCreate)
	mux.HandleFunc("GET /api/v1/users/{id}", HandleUserGet)
	mux.HandleFunc("POST /api/v1/teams", HandleTeamCreate)
}

type fieldRequest struct {
	Name     string `json:"name"`
	Surface  string `json:"surface"`
	Timezone string `json:"timezone"`
}

type userRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type teamRequest struct {
	Name          string `json:"name"`
	CaptainUserID *int64 `json:"captain_user_id"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type teamResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	CaptainUserID *int64    `json:"captain_user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// GET /api/v1/fields
func HandleFieldsList(w http.ResponseWriter, r *http.Request) {
	q := loadQueries()
	if !requireQueries(w, r, q) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), directoryQueryTimeout)
	defer cancel()

	fields, err := q.ListFields(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if fields == nil {
		fields = []dbgen.Field{}
	}
	apiutil.Respond(w, r, http.StatusOK, fields)
}

// POST /api/v1/fields
func HandleFieldCreate(w http.ResponseWriter, r *http.Request) {
	q := loadQueries()
	if !requireQueries(w, r, q) {
		return
	}

	var req fieldRequest
	if err := apiutil.DecodeJSON(w, r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "name", Reason: "is required"})
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "timezone", Reason: "must be an IANA zone name"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), directoryQueryTimeout)
	defer cancel()

	field, err := q.CreateField(ctx, dbgen.CreateFieldParams{
		Name:     req.Name,
		Surface:  strings.TrimSpace(req.Surface),
		Timezone: req.Timezone,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Int64("field_id", field.ID).Str("name", field.Name).Msg("Field created")
	apiutil.Respond(w, r, http.StatusCreated, field)
}

// GET /api/v1/fields/{id}
func HandleFieldGet(w http.ResponseWriter, r *http.Request) {
	q := loadQueries()
	if !requireQueries(w, r, q) {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), directoryQueryTimeout)
	defer cancel()

	field, err := q.GetField(ctx, id)
	if err != nil {
		apiutil.WriteError(w, r, notFound(err, "field not found"))
		return
	}
	apiutil.Respond(w, r, http.StatusOK, field)
}

// POST /api/v1/users
func HandleUserCreate(w http.ResponseWriter, r *http.Request) {
	q := loadQueries()
	if !requireQueries(w, r, q) {
		return
	}

	var req userRequest
	if err := apiutil.DecodeJSON(w, r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "first_name", Reason: "is required"})
		return
	}
	if req.LastName == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "last_name", Reason: "is required"})
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "email", Reason: "must be a valid address"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), directoryQueryTimeout)
	defer cancel()

	user, err := q.CreateUser(ctx, dbgen.CreateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     sql.NullString{String: req.Email, Valid: req.Email != ""},
	})
	if err != nil {
		if appdb.IsUniqueViolation(err) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusConflict, Message: "email already registered", Err: err})
			return
		}
		apiutil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("User created")
	apiutil.Respond(w, r, http.StatusCreated, toUserResponse(user))
}

// GET /api/v1/users/{id}
func HandleUserGet(w http.ResponseWriter, r *http.Request) {
	q := loadQueries()
	if !requireQueries(w, r, q) {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), directoryQueryTimeout)
	defer cancel()

	user, err := q.GetUserByID(ctx, id)
	if err != nil {
		apiutil.WriteError(w, r, notFound(err, "user not found"))
		return
	}
	apiutil.Respond(w, r, http.StatusOK, toUserResponse(user))
}

// POST /api/v1/teams
func HandleTeamCreate(w http.ResponseWriter, r *http.Request) {
	q := loadQueries()
	if !requireQueries(w, r, q) {
		return
	}

	var req teamRequest
	if err := apiutil.DecodeJSON(w, r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "name", Reason: "is required"})
		return
	}

	captain := sql.NullInt64{}
	if req.CaptainUserID != nil {
		captain = sql.NullInt64{Int64: *req.CaptainUserID, Valid: true}
	}

	ctx, cancel := context.WithTimeout(r.Context(), directoryQueryTimeout)
	defer cancel()

	team, err := q.CreateTeam(ctx, dbgen.CreateTeamParams{Name: req.Name, CaptainUserID: captain})
	if err != nil {
		if appdb.IsForeignKeyViolation(err) {
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "captain_user_id", Reason: "does not exist"})
			return
		}
		apiutil.WriteError(w, r, err)
		return
	}

	resp := teamResponse{ID: team.ID, Name: team.Name, CreatedAt: team.CreatedAt}
	if team.CaptainUserID.Valid {
		resp.CaptainUserID = &team.CaptainUserID.Int64
	}
	apiutil.Respond(w, r, http.StatusCreated, resp)
}

func toUserResponse(user dbgen.User) userResponse {
	return userResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email.String,
		CreatedAt: user.CreatedAt,
	}
}

func notFound(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: message, Err: err}
	}
	return err
}

func requireQueries(w http.ResponseWriter, r *http.Request, q *dbgen.Queries) bool {
	if q != nil {
		return true
	}
	apiutil.WriteError(w, r, errors.New("database queries not initialized"))
	return false
}
