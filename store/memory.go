package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/models"
)

// Memory is an in-process Store. Rows are copied in and out so callers
// never share memory with the store.
type Memory struct {
	mu sync.RWMutex

	nextID      int64
	users       map[int64]models.User
	leagues     map[int64]models.League
	members     map[int64][]models.LeagueMember // by league
	weekends    map[int64]models.RaceWeekend
	race        map[int64][]models.RaceResult // by weekend
	qualifying  map[int64][]models.QualifyingResult
	sprint      map[int64][]models.SprintResult
	predictions map[int64]models.UserPrediction
	scores      map[int64]models.PredictionScore // by prediction

	now func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-process Store.
func NewMemory() *Memory {
	return &Memory{
		users:       map[int64]models.User{},
		leagues:     map[int64]models.League{},
		members:     map[int64][]models.LeagueMember{},
		weekends:    map[int64]models.RaceWeekend{},
		race:        map[int64][]models.RaceResult{},
		qualifying:  map[int64][]models.QualifyingResult{},
		sprint:      map[int64][]models.SprintResult{},
		predictions: map[int64]models.UserPrediction{},
		scores:      map[int64]models.PredictionScore{},
		now:         time.Now,
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) stamp(t *time.Time) {
	if t.IsZero() {
		*t = m.now()
	}
}

func sortedValues[K cmp.Ordered, V any](in map[K]V) []V {
	keys := make([]K, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, in[k])
	}
	return out
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) || existing.Username == u.Username {
			return apperr.Conflict("user already exists")
		}
	}
	u.ID = m.id()
	m.stamp(&u.CreatedAt)
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) SaveUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	for id, existing := range m.users {
		if existing.Username == u.Username {
			existing.Password = u.Password
			existing.IsAdmin = u.IsAdmin
			existing.IsSuperadmin = u.IsSuperadmin
			m.users[id] = existing
			*u = existing
			m.mu.Unlock()
			return nil
		}
	}
	m.mu.Unlock()
	return m.CreateUser(ctx, u)
}

func (m *Memory) UserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (m *Memory) userWhere(match func(models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.userWhere(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *Memory) UserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.userWhere(func(u models.User) bool { return u.Username == username })
}

func (m *Memory) ListUsers(_ context.Context, offset, limit int) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return page(sortedValues(m.users), offset, limit), nil
}

func (m *Memory) UpdateUserRoles(_ context.Context, id int64, isAdmin, isSuperadmin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.IsAdmin, u.IsSuperadmin = isAdmin, isSuperadmin
	m.users[id] = u
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperr.NotFound("user not found")
	}

	for lid, l := range m.leagues {
		if l.OwnerID != id {
			continue
		}
		heir := int64(0)
		for _, mem := range m.members[lid] {
			if mem.UserID != id {
				heir = mem.UserID
				break
			}
		}
		if heir == 0 {
			delete(m.leagues, lid)
			delete(m.members, lid)
			continue
		}
		l.OwnerID = heir
		m.leagues[lid] = l
	}

	for pid, p := range m.predictions {
		if p.UserID == id {
			delete(m.scores, pid)
			delete(m.predictions, pid)
		}
	}
	for lid, mems := range m.members {
		m.members[lid] = slices.DeleteFunc(mems, func(mem models.LeagueMember) bool { return mem.UserID == id })
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) CreateLeague(_ context.Context, l *models.League) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.leagues {
		if existing.Name == l.Name {
			return apperr.Conflict("league already exists")
		}
	}
	l.ID = m.id()
	m.stamp(&l.CreatedAt)
	m.leagues[l.ID] = *l
	m.members[l.ID] = []models.LeagueMember{{LeagueID: l.ID, UserID: l.OwnerID, JoinedAt: l.CreatedAt}}
	return nil
}

func (m *Memory) LeagueByID(_ context.Context, id int64) (*models.League, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.leagues[id]
	if !ok {
		return nil, apperr.NotFound("league not found")
	}
	return &l, nil
}

func (m *Memory) ListLeagues(_ context.Context, offset, limit int) ([]models.League, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return page(sortedValues(m.leagues), offset, limit), nil
}

func (m *Memory) LeaguesForUser(_ context.Context, userID int64) ([]models.League, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.League
	for _, l := range sortedValues(m.leagues) {
		if slices.ContainsFunc(m.members[l.ID], func(mem models.LeagueMember) bool { return mem.UserID == userID }) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *Memory) DeleteLeague(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leagues[id]; !ok {
		return apperr.NotFound("league not found")
	}
	delete(m.leagues, id)
	delete(m.members, id)
	return nil
}

func (m *Memory) SetLeagueOwner(_ context.Context, leagueID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leagues[leagueID]
	if !ok {
		return apperr.NotFound("league not found")
	}
	l.OwnerID = userID
	m.leagues[leagueID] = l
	return nil
}

func (m *Memory) Members(_ context.Context, leagueID int64) ([]models.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Member, 0, len(m.members[leagueID]))
	for _, mem := range m.members[leagueID] {
		out = append(out, models.Member{
			UserID:   mem.UserID,
			Username: m.users[mem.UserID].Username,
			JoinedAt: mem.JoinedAt,
		})
	}
	return out, nil
}

func (m *Memory) IsMember(_ context.Context, leagueID, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.ContainsFunc(m.members[leagueID], func(mem models.LeagueMember) bool { return mem.UserID == userID }), nil
}

func (m *Memory) AddMember(_ context.Context, leagueID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leagues[leagueID]; !ok {
		return apperr.NotFound("league not found")
	}
	if _, ok := m.users[userID]; !ok {
		return apperr.NotFound("user not found")
	}
	mems := m.members[leagueID]
	if slices.ContainsFunc(mems, func(mem models.LeagueMember) bool { return mem.UserID == userID }) {
		return nil
	}
	m.members[leagueID] = append(mems, models.LeagueMember{LeagueID: leagueID, UserID: userID, JoinedAt: m.now()})
	return nil
}

func (m *Memory) RemoveMember(_ context.Context, leagueID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mems := m.members[leagueID]
	i := slices.IndexFunc(mems, func(mem models.LeagueMember) bool { return mem.UserID == userID })
	if i < 0 {
		return apperr.NotFound("league member not found")
	}
	m.members[leagueID] = slices.Delete(mems, i, i+1)
	return nil
}

func (m *Memory) MemberTotals(_ context.Context, leagueID int64) ([]models.MemberTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.MemberTotal, 0, len(m.members[leagueID]))
	for _, mem := range m.members[leagueID] {
		t := models.MemberTotal{UserID: mem.UserID, Username: m.users[mem.UserID].Username}
		for _, p := range m.predictions {
			if p.UserID != mem.UserID {
				continue
			}
			s, ok := m.scores[p.ID]
			if !ok {
				continue
			}
			t.TotalPoints += s.TotalScore
			t.PredictionsMade++
			if s.PerfectTop10Bonus > 0 {
				t.PerfectPredictions++
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *Memory) CreateRaceWeekend(_ context.Context, w *models.RaceWeekend) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.weekends {
		if existing.Year == w.Year && existing.RoundNumber == w.RoundNumber {
			return apperr.Conflict("race weekend already exists")
		}
	}
	w.ID = m.id()
	m.weekends[w.ID] = *w
	return nil
}

func (m *Memory) RaceWeekendByID(_ context.Context, id int64) (*models.RaceWeekend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.weekends[id]
	if !ok {
		return nil, apperr.NotFound("race weekend not found")
	}
	return &w, nil
}

func (m *Memory) ListRaceWeekends(_ context.Context, year int) ([]models.RaceWeekend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.RaceWeekend
	for _, w := range m.weekends {
		if year <= 0 || w.Year == year {
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b models.RaceWeekend) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.RoundNumber, b.RoundNumber))
	})
	return out, nil
}

func (m *Memory) DeleteRaceWeekend(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.weekends[id]; !ok {
		return apperr.NotFound("race weekend not found")
	}
	for pid, p := range m.predictions {
		if p.RaceWeekendID == id {
			delete(m.scores, pid)
			delete(m.predictions, pid)
		}
	}
	delete(m.race, id)
	delete(m.qualifying, id)
	delete(m.sprint, id)
	delete(m.weekends, id)
	return nil
}

func (m *Memory) WeekendResults(_ context.Context, weekendID int64) (models.WeekendResults, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.weekends[weekendID]
	if !ok {
		return models.WeekendResults{}, apperr.NotFound("race weekend not found")
	}
	res := models.WeekendResults{
		HasSprint:  w.HasSprint,
		Race:       slices.Clone(m.race[weekendID]),
		Qualifying: slices.Clone(m.qualifying[weekendID]),
		Sprint:     slices.Clone(m.sprint[weekendID]),
	}
	slices.SortStableFunc(res.Race, func(a, b models.RaceResult) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
	})
	slices.SortStableFunc(res.Qualifying, func(a, b models.QualifyingResult) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
	})
	slices.SortStableFunc(res.Sprint, func(a, b models.SprintResult) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
	})
	return res, nil
}

func (m *Memory) ReplaceResults(_ context.Context, weekendID int64, res models.WeekendResults) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.weekends[weekendID]; !ok {
		return apperr.NotFound("race weekend not found")
	}

	race := slices.Clone(res.Race)
	seen := map[int]struct{}{}
	for i := range race {
		if _, dup := seen[race[i].DriverNumber]; dup {
			return apperr.Conflict("race result already exists")
		}
		seen[race[i].DriverNumber] = struct{}{}
		race[i].ID, race[i].RaceWeekendID = m.id(), weekendID
	}
	quali := slices.Clone(res.Qualifying)
	for i := range quali {
		quali[i].ID, quali[i].RaceWeekendID = m.id(), weekendID
	}
	sprint := slices.Clone(res.Sprint)
	for i := range sprint {
		sprint[i].ID, sprint[i].RaceWeekendID = m.id(), weekendID
	}

	m.race[weekendID], m.qualifying[weekendID], m.sprint[weekendID] = race, quali, sprint
	return nil
}

func (m *Memory) RaceResultByID(_ context.Context, id int64) (*models.RaceResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rows := range m.race {
		for _, r := range rows {
			if r.ID == id {
				return &r, nil
			}
		}
	}
	return nil, apperr.NotFound("race result not found")
}

func (m *Memory) UpdateRaceResult(_ context.Context, r *models.RaceResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for wid, rows := range m.race {
		i := slices.IndexFunc(rows, func(row models.RaceResult) bool { return row.ID == r.ID })
		if i < 0 {
			continue
		}
		for _, other := range rows {
			if other.ID != r.ID && other.DriverNumber == r.DriverNumber {
				return apperr.Conflict("race result already exists")
			}
		}
		rows[i].Position, rows[i].DriverNumber = r.Position, r.DriverNumber
		m.race[wid] = rows
		return nil
	}
	return apperr.NotFound("race result not found")
}

func (m *Memory) CreatePrediction(_ context.Context, p *models.UserPrediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.predictions {
		if existing.UserID == p.UserID && existing.RaceWeekendID == p.RaceWeekendID {
			return apperr.Conflict("prediction already exists")
		}
	}
	p.ID = m.id()
	m.stamp(&p.CreatedAt)
	m.predictions[p.ID] = *p
	return nil
}

func (m *Memory) PredictionByID(_ context.Context, id int64) (*models.UserPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.predictions[id]
	if !ok {
		return nil, apperr.NotFound("prediction not found")
	}
	return &p, nil
}

func (m *Memory) RecentPredictions(_ context.Context, userID int64, limit int) ([]models.UserPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.UserPrediction
	for _, p := range m.predictions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.UserPrediction) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return page(out, 0, limit), nil
}

func (m *Memory) PredictionsForWeekend(_ context.Context, weekendID int64) ([]models.UserPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.UserPrediction
	for _, p := range sortedValues(m.predictions) {
		if p.RaceWeekendID == weekendID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) UnscoredPredictions(context.Context) ([]models.UserPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.UserPrediction
	for _, p := range sortedValues(m.predictions) {
		if _, scored := m.scores[p.ID]; scored {
			continue
		}
		if len(m.race[p.RaceWeekendID]) > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) ScoreByPrediction(_ context.Context, predictionID int64) (*models.PredictionScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scores[predictionID]
	if !ok {
		return nil, apperr.NotFound("score not found")
	}
	return &s, nil
}

func (m *Memory) ReplaceScore(_ context.Context, s *models.PredictionScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.predictions[s.PredictionID]; !ok {
		return apperr.NotFound("prediction not found")
	}
	s.ID = m.id()
	m.stamp(&s.CalculatedAt)
	m.scores[s.PredictionID] = *s
	return nil
}

func (m *Memory) DeleteScoresForWeekend(_ context.Context, weekendID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, p := range m.predictions {
		if p.RaceWeekendID != weekendID {
			continue
		}
		if _, ok := m.scores[id]; ok {
			delete(m.scores, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Stats(_ context.Context, since time.Time) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{
		Users:        len(m.users),
		Leagues:      len(m.leagues),
		Predictions:  len(m.predictions),
		RaceWeekends: len(m.weekends),
	}
	for _, u := range m.users {
		if !u.CreatedAt.Before(since) {
			st.NewUsers++
		}
	}
	for _, p := range m.predictions {
		if !p.CreatedAt.Before(since) {
			st.NewPredictions++
		}
	}
	return st, nil
}
