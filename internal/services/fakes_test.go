package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"couple-diary-backend/internal/models"
	"couple-diary-backend/internal/repository"
)

// In-memory store fakes shared by the service tests.

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	hashes   map[string]string // email -> password hash
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		profiles: make(map[string]*models.Profile),
		hashes:   make(map[string]string),
	}
}

func (f *fakeProfileStore) Create(ctx context.Context, p *models.Profile, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.profiles {
		if existing.Email == p.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *p
	f.profiles[p.ID] = &cp
	f.hashes[p.Email] = passwordHash
	return nil
}

func (f *fakeProfileStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfileStore) GetCredentials(ctx context.Context, email string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Email == email {
			return p.ID, f.hashes[email], nil
		}
	}
	return "", "", repository.ErrNotFound
}

func (f *fakeProfileStore) Update(ctx context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f *fakeProfileStore) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.AvatarURL = &avatarURL
	return nil
}

func (f *fakeProfileStore) UpdateDeviceToken(ctx context.Context, userID string, token *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.DeviceToken = token
	return nil
}

func (f *fakeProfileStore) LinkPartners(ctx context.Context, userID, partnerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, okA := f.profiles[userID]
	b, okB := f.profiles[partnerID]
	if !okA || !okB {
		return repository.ErrNotFound
	}
	a.PartnerID = &partnerID
	b.PartnerID = &userID
	return nil
}

func (f *fakeProfileStore) UnlinkPartners(ctx context.Context, userID, partnerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.profiles[userID]; ok && a.PartnerID != nil && *a.PartnerID == partnerID {
		a.PartnerID = nil
	}
	if b, ok := f.profiles[partnerID]; ok && b.PartnerID != nil && *b.PartnerID == userID {
		b.PartnerID = nil
	}
	return nil
}

type fakeDiaryStore struct {
	mu      sync.Mutex
	entries map[string]*models.DiaryEntry
}

func newFakeDiaryStore() *fakeDiaryStore {
	return &fakeDiaryStore{entries: make(map[string]*models.DiaryEntry)}
}

func (f *fakeDiaryStore) Create(ctx context.Context, e *models.DiaryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.entries[e.ID] = &cp
	return nil
}

func (f *fakeDiaryStore) GetByID(ctx context.Context, id string) (*models.DiaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeDiaryStore) List(ctx context.Context, userID string, partnerID *string) ([]*models.DiaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DiaryEntry
	for _, e := range f.entries {
		if e.OwnerID == userID || (partnerID != nil && e.OwnerID == *partnerID && !e.IsPrivate) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeDiaryStore) Update(ctx context.Context, e *models.DiaryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[e.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *e
	f.entries[e.ID] = &cp
	return nil
}

func (f *fakeDiaryStore) Delete(ctx context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok || e.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

type fakeGameStore struct {
	mu        sync.Mutex
	questions []*models.GameQuestion
	daily     map[string]*models.DailyQuestion // userID|date
	responses map[string]*models.GameResponse  // by id
	byUserDay map[string]string                // userID|date -> response id
	reactions map[string]bool                  // responseID|userID|emoji
	replies   []*models.GameReply

	streaks     *fakeStreakStore // committed streak writes land here
	streakErr   error            // forces the answer transaction to fail
	assignCalls int
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{
		daily:     make(map[string]*models.DailyQuestion),
		responses: make(map[string]*models.GameResponse),
		byUserDay: make(map[string]string),
		reactions: make(map[string]bool),
	}
}

func (f *fakeGameStore) CreateQuestion(ctx context.Context, q *models.GameQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *q
	f.questions = append(f.questions, &cp)
	return nil
}

func (f *fakeGameStore) GetDaily(ctx context.Context, userID, date string) (*models.DailyQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dq, ok := f.daily[userID+"|"+date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *dq
	return &cp, nil
}

func (f *fakeGameStore) AssignDaily(ctx context.Context, userID, date string) (*models.DailyQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignCalls++
	if dq, ok := f.daily[userID+"|"+date]; ok {
		cp := *dq
		return &cp, nil
	}
	for _, q := range f.questions {
		if q.IsActive {
			dq := &models.DailyQuestion{
				ID:         "daily-" + userID + "-" + date,
				QuestionID: q.ID,
				UserID:     userID,
				Date:       date,
				Question:   *q,
			}
			f.daily[userID+"|"+date] = dq
			cp := *dq
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGameStore) CreateResponseAndDeactivate(ctx context.Context, resp *models.GameResponse, streak *models.GameStreak) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := resp.UserID + "|" + resp.Date
	if _, ok := f.byUserDay[key]; ok {
		return repository.ErrDuplicate
	}
	if f.streakErr != nil {
		return f.streakErr
	}
	cp := *resp
	f.responses[resp.ID] = &cp
	f.byUserDay[key] = resp.ID
	for _, q := range f.questions {
		if q.ID == resp.QuestionID {
			q.IsActive = false
		}
	}
	if streak != nil && f.streaks != nil {
		f.streaks.put(streak)
	}
	return nil
}

func (f *fakeGameStore) GetResponseByID(ctx context.Context, id string) (*models.GameResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.responses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeGameStore) GetResponse(ctx context.Context, userID, date string) (*models.GameResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byUserDay[userID+"|"+date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f.responses[id]
	return &cp, nil
}

func (f *fakeGameStore) ListResponses(ctx context.Context, userIDs []string, date string) ([]*models.GameResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.GameResponse
	for _, uid := range userIDs {
		if id, ok := f.byUserDay[uid+"|"+date]; ok {
			cp := *f.responses[id]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeGameStore) AddReaction(ctx context.Context, responseID, userID, emoji string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := responseID + "|" + userID + "|" + emoji
	if f.reactions[key] {
		return false, nil
	}
	f.reactions[key] = true
	return true, nil
}

func (f *fakeGameStore) RemoveReaction(ctx context.Context, responseID, userID, emoji string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := responseID + "|" + userID + "|" + emoji
	if !f.reactions[key] {
		return false, nil
	}
	delete(f.reactions, key)
	return true, nil
}

func (f *fakeGameStore) CountReactions(ctx context.Context, responseID string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for key := range f.reactions {
		if strings.HasPrefix(key, responseID+"|") {
			emoji := key[strings.LastIndex(key, "|")+1:]
			counts[emoji]++
		}
	}
	return counts, nil
}

func (f *fakeGameStore) CreateReply(ctx context.Context, reply *models.GameReply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.responses[reply.ResponseID]; !ok {
		return repository.ErrNotFound
	}
	cp := *reply
	f.replies = append(f.replies, &cp)
	return nil
}

func (f *fakeGameStore) ListReplies(ctx context.Context, responseIDs []string) ([]*models.GameReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]bool, len(responseIDs))
	for _, id := range responseIDs {
		wanted[id] = true
	}
	var out []*models.GameReply
	for _, r := range f.replies {
		if wanted[r.ResponseID] {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeStreakStore struct {
	mu      sync.Mutex
	streaks map[string]*models.GameStreak
}

func newFakeStreakStore() *fakeStreakStore {
	return &fakeStreakStore{streaks: make(map[string]*models.GameStreak)}
}

func (f *fakeStreakStore) Get(ctx context.Context, userID string) (*models.GameStreak, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.streaks[userID]
	if !ok {
		return &models.GameStreak{UserID: userID}, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStreakStore) put(s *models.GameStreak) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.streaks[s.UserID] = &cp
}

type fakePlanStore struct {
	mu    sync.Mutex
	plans map[string]*models.SharedPlan
}

func newFakePlanStore() *fakePlanStore {
	return &fakePlanStore{plans: make(map[string]*models.SharedPlan)}
}

func (f *fakePlanStore) Create(ctx context.Context, p *models.SharedPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.plans[p.ID] = &cp
	return nil
}

func (f *fakePlanStore) GetByID(ctx context.Context, id string) (*models.SharedPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlanStore) List(ctx context.Context, userIDs []string) ([]*models.SharedPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var out []*models.SharedPlan
	for _, p := range f.plans {
		if wanted[p.CreatedBy] {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *fakePlanStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.plans, id)
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

type sentEvent struct {
	UserID string
	Event  Event
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeNotifier) Notify(ctx context.Context, userID string, ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{UserID: userID, Event: ev})
}

func (f *fakeNotifier) sent() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEvent, len(f.events))
	copy(out, f.events)
	return out
}
