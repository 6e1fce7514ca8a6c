package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mw "github.com/padraicbc/gridpredict/middleware"
	"github.com/padraicbc/gridpredict/models"
	"github.com/padraicbc/gridpredict/service"
	"github.com/padraicbc/gridpredict/store"
)

var testKey = []byte("handler-secret")

type downStore struct{ store.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

type api struct {
	e     *echo.Echo
	store *store.Memory
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWith(t, store.NewMemory(), nil)
}

func newAPIWith(t *testing.T, mem *store.Memory, ping store.Store) *api {
	t.Helper()
	log := zap.NewNop()
	predictions := service.NewPredictionService(mem, nil, nil, log)
	h := New(mem, Services{
		Users:       service.NewUserService(mem, log),
		Leagues:     service.NewLeagueService(mem, log),
		Predictions: predictions,
		Races:       service.NewRaceService(mem, predictions, log),
		Admin:       service.NewAdminService(mem, log),
	}, log)
	if ping != nil {
		h.store = ping
	}
	e := echo.New()
	h.Register(e, mw.JWT(testKey))
	return &api{e: e, store: mem}
}

func (a *api) user(t *testing.T, name string, admin bool) *models.User {
	t.Helper()
	u := &models.User{Email: name + "@example.com", Username: name, Password: "x", IsActive: true, IsAdmin: admin}
	require.NoError(t, a.store.CreateUser(context.Background(), u))
	return u
}

func token(t *testing.T, id int64) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(id, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return s
}

// do sends body as JSON; as may be nil for anonymous requests.
func (a *api) do(t *testing.T, method, path string, as *models.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if as != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, as.ID))
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/health/live", nil, "").Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/health/ready", nil, "").Code)

	mem := store.NewMemory()
	down := newAPIWith(t, mem, downStore{mem})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health/ready", nil, "").Code)
}

func TestRegisterUser(t *testing.T) {
	a := newAPI(t)
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Created", `{"email":"max@example.com","username":"max33","password":"verstappen"}`, http.StatusCreated},
		{"DuplicateEmail", `{"email":"max@example.com","username":"other","password":"verstappen"}`, http.StatusConflict},
		{"ShortPassword", `{"email":"lando@example.com","username":"lando","password":"short"}`, http.StatusUnprocessableEntity},
		{"MalformedJSON", `{"email":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/users", nil, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := a.do(t, http.MethodPost, "/api/users", nil, `{"email":"oscar@example.com","username":"oscar","password":"papaya-rules"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "papaya-rules")
	assert.NotContains(t, rec.Body.String(), "assword")
}

func TestAuthentication(t *testing.T) {
	a := newAPI(t)
	u := a.user(t, "charles", false)

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/users/me", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/users/me", &models.User{ID: 999}, "").Code)

	rec := a.do(t, http.MethodGet, "/api/users/me", u, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "charles", decode[models.User](t, rec).Username)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/api/admin/stats", u, "").Code)
	admin := a.user(t, "toto", true)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/admin/stats", admin, "").Code)
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t)
	u := a.user(t, "george", false)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"UnknownLeague", http.MethodGet, "/api/leagues/42", "", http.StatusNotFound},
		{"BadID", http.MethodGet, "/api/leagues/abc", "", http.StatusBadRequest},
		{"BadYear", http.MethodGet, "/api/race-weekends?year=soon", "", http.StatusBadRequest},
		{"UnknownPrediction", http.MethodGet, "/api/predictions/7", "", http.StatusNotFound},
		{"InvalidTop10", http.MethodPost, "/api/predictions", `{"raceWeekendId":1,"top10Prediction":"1,2,3"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, u, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestPredictionScoring(t *testing.T) {
	a := newAPI(t)
	admin := a.user(t, "fia", true)
	driver := a.user(t, "lewis", false)

	session := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	rec := a.do(t, http.MethodPost, "/api/admin/race-weekends", admin,
		`{"year":2024,"roundNumber":1,"country":"Bahrain","location":"Sakhir","circuitName":"Bahrain International Circuit","sessionDate":"`+session+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	w := decode[models.RaceWeekend](t, rec)

	body := `{"raceWeekendId":` + strconv.FormatInt(w.ID, 10) + `,"top10Prediction":"1,11,16,55,4,81,44,63,14,18",` +
		`"polePosition":1,"mostPitStopsDriver":11,"fastestLapDriver":16,"mostPositionsGained":81}`
	rec = a.do(t, http.MethodPost, "/api/predictions", driver, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[models.UserPrediction](t, rec)

	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, "/api/predictions", driver, body).Code)

	scorePath := "/api/predictions/" + strconv.FormatInt(p.ID, 10) + "/score"
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, scorePath, driver, "").Code)

	var rows []string
	for i, d := range []int{1, 11, 16, 55, 4, 81, 44, 63, 14, 18} {
		pos := strconv.Itoa(i + 1)
		rows = append(rows, `{"position":`+pos+`,"driverNumber":`+strconv.Itoa(d)+`,"gridPosition":`+pos+`,"status":"Finished","points":"0"}`)
	}
	resultsPath := "/api/admin/race-weekends/" + strconv.FormatInt(w.ID, 10) + "/results"
	rec = a.do(t, http.MethodPut, resultsPath, admin, `{"raceResults":[`+strings.Join(rows, ",")+`]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[rescored](t, rec).Rescored)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPut, resultsPath, driver, `{"raceResults":[]}`).Code)

	rec = a.do(t, http.MethodGet, scorePath, driver, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	score := decode[models.PredictionScore](t, rec)
	assert.Equal(t, p.ID, score.PredictionID)
	assert.Positive(t, score.TotalScore)

	other := a.user(t, "kimi", false)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, scorePath, other, "").Code)
}

func TestLeagueFlow(t *testing.T) {
	a := newAPI(t)
	owner := a.user(t, "zak", false)
	member := a.user(t, "oscar", false)

	rec := a.do(t, http.MethodPost, "/api/leagues", owner, `{"name":"Papaya Cup"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	l := decode[models.League](t, rec)
	base := "/api/leagues/" + strconv.FormatInt(l.ID, 10)
	memberPath := base + "/members/" + strconv.FormatInt(member.ID, 10)

	assert.Equal(t, http.StatusUnprocessableEntity, a.do(t, http.MethodPut, base+"/owner", owner,
		`{"newOwnerId":`+strconv.FormatInt(member.ID, 10)+`}`).Code)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodPost, memberPath, owner, "").Code)
	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodPost, memberPath, owner, "").Code)

	rec = a.do(t, http.MethodGet, base+"/members", member, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Member](t, rec), 2)

	ownerPath := base + "/members/" + strconv.FormatInt(owner.ID, 10)
	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodDelete, ownerPath, owner, "").Code)

	rec = a.do(t, http.MethodGet, base+"/standings", member, "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[service.LeagueStandings](t, rec)
	assert.Equal(t, "Papaya Cup", st.LeagueName)
	require.Len(t, st.Standings, 2)
	assert.Equal(t, 1, st.Standings[0].Position)

	rec = a.do(t, http.MethodGet, "/api/leagues?q=papaya", member, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.League](t, rec), 1)

	rec = a.do(t, http.MethodPut, base+"/owner", owner, `{"newOwnerId":`+strconv.FormatInt(member.ID, 10)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, member.ID, decode[models.League](t, rec).OwnerID)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodPost, base+"/leave", owner, "").Code)
	rec = a.do(t, http.MethodGet, "/api/leagues/my", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.League](t, rec))

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, base, owner, "").Code)
	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, base, member, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, base, member, "").Code)
}

func TestAdminUsers(t *testing.T) {
	a := newAPI(t)
	admin := a.user(t, "fia", true)
	regular := a.user(t, "yuki", false)
	rolePath := "/api/admin/users/" + strconv.FormatInt(regular.ID, 10) + "/role"

	assert.Equal(t, http.StatusUnprocessableEntity, a.do(t, http.MethodPut, rolePath, admin, `{}`).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPut, rolePath, admin, `{"isAdmin":true,"isSuperadmin":true}`).Code)

	rec := a.do(t, http.MethodPut, rolePath, admin, `{"isAdmin":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[models.User](t, rec).IsAdmin)

	rec = a.do(t, http.MethodGet, "/api/admin/users?limit=1", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.User](t, rec), 1)
	assert.Equal(t, http.StatusUnprocessableEntity, a.do(t, http.MethodGet, "/api/admin/users?limit=5000", admin, "").Code)

	self := "/api/admin/users/" + strconv.FormatInt(admin.ID, 10)
	assert.Equal(t, http.StatusUnprocessableEntity, a.do(t, http.MethodDelete, self, admin, "").Code)
}
