// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package web

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/teambee/teambee/internal/auth"
)

// memStore is a single in-memory backing store shared by the repository
// implementations below, so the handler tests can drive real services
// without a database.
type memStore struct {
	mu        sync.Mutex
	clubs     map[int64]*auth.Club
	users     map[int64]*auth.User
	tokens    map[string]*auth.Token
	sessions  map[ulid.ULID]*auth.Session
	nextClub  int64
	nextUser  int64
	nextToken int64
}

func newMemStore() *memStore {
	return &memStore{
		clubs:    make(map[int64]*auth.Club),
		users:    make(map[int64]*auth.User),
		tokens:   make(map[string]*auth.Token),
		sessions: make(map[ulid.ULID]*auth.Session),
	}
}

func (s *memStore) clubName(clubID *int64) *string {
	if clubID == nil {
		return nil
	}
	club, ok := s.clubs[*clubID]
	if !ok {
		return nil
	}
	return &club.Name
}

type memClubs struct{ *memStore }

var _ auth.ClubRepository = memClubs{}

func (r memClubs) Create(_ context.Context, club *auth.Club) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clubs {
		if c.Name == club.Name {
			return 0, oops.Code(auth.CodeClubExists).Errorf("club with this name already exists")
		}
	}
	r.nextClub++
	stored := *club
	stored.ID = r.nextClub
	stored.CreatedAt = time.Now()
	r.clubs[stored.ID] = &stored
	return stored.ID, nil
}

func (r memClubs) GetByID(_ context.Context, id int64) (*auth.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	club, ok := r.clubs[id]
	if !ok {
		return nil, oops.Code("CLUB_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	copy := *club
	return &copy, nil
}

func (r memClubs) GetByName(_ context.Context, name string) (*auth.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, club := range r.clubs {
		if club.Name == name {
			copy := *club
			return &copy, nil
		}
	}
	return nil, oops.Code("CLUB_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (r memClubs) List(_ context.Context) ([]*auth.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*auth.Club, 0, len(r.clubs))
	for _, club := range r.clubs {
		copy := *club
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memUsers struct{ *memStore }

var _ auth.UserRepository = memUsers{}

func (r memUsers) Create(_ context.Context, user *auth.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return 0, oops.Code(auth.CodeUserExists).Errorf("user with this email already exists")
		}
	}
	r.nextUser++
	stored := *user
	stored.ID = r.nextUser
	stored.CreatedAt = time.Now()
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	copy := *user
	return &copy, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (r memUsers) GetWithClubName(_ context.Context, email string) (*auth.User, *string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copy := *user
			return &copy, r.clubName(user.ClubID), nil
		}
	}
	return nil, nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (r memUsers) GetProfile(_ context.Context, id int64) (*auth.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &auth.Profile{
		UserID:   user.ID,
		ClubID:   user.ClubID,
		Email:    user.Email,
		ClubName: r.clubName(user.ClubID),
	}, nil
}

func (r memUsers) RecordFailure(_ context.Context, id int64, threshold int, lockedUntil time.Time) (int, *time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return 0, nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	user.FailedAttempts++
	if user.FailedAttempts >= threshold {
		until := lockedUntil
		user.LockedUntil = &until
	}
	return user.FailedAttempts, user.LockedUntil, nil
}

func (r memUsers) RecordSuccess(_ context.Context, id int64, loginAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	user.FailedAttempts = 0
	user.LockedUntil = nil
	at := loginAt
	user.LastLogin = &at
	return nil
}

func (r memUsers) UpdateCredentials(_ context.Context, id int64, hash, salt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	user.PasswordHash = hash
	user.Salt = salt
	user.FailedAttempts = 0
	user.LockedUntil = nil
	return nil
}

func (r memUsers) List(_ context.Context) ([]auth.UserSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.UserSummary, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, auth.UserSummary{
			UserID:    user.ID,
			Email:     user.Email,
			ClubID:    user.ClubID,
			ClubName:  r.clubName(user.ClubID),
			LastLogin: user.LastLogin,
			CreatedAt: user.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

type memTokens struct{ *memStore }

var _ auth.TokenRepository = memTokens{}

func (r memTokens) Create(_ context.Context, token *auth.Token) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextToken++
	stored := *token
	stored.ID = r.nextToken
	stored.CreatedAt = time.Now()
	r.tokens[stored.Value] = &stored
	return stored.ID, nil
}

func (r memTokens) GetByValue(_ context.Context, value string) (*auth.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[value]
	if !ok {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	copy := *token
	return &copy, nil
}

func (r memTokens) MarkUsed(_ context.Context, value string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[value]
	if !ok || token.UsedAt != nil || token.ExpiresAt.Before(usedAt) {
		return oops.Code("TOKEN_SPENT").Wrap(auth.ErrNotFound)
	}
	at := usedAt
	token.UsedAt = &at
	return nil
}

func (r memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for value, token := range r.tokens {
		if token.UsedAt == nil && token.ExpiresAt.Before(now) {
			delete(r.tokens, value)
			n++
		}
	}
	return n, nil
}

func (r memTokens) DeleteUsedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for value, token := range r.tokens {
		if token.UsedAt != nil && token.UsedAt.Before(cutoff) {
			delete(r.tokens, value)
			n++
		}
	}
	return n, nil
}

type memSessions struct{ *memStore }

var _ auth.SessionRepository = memSessions{}

func (r memSessions) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *session
	r.sessions[copy.ID] = &copy
	return nil
}

func (r memSessions) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.TokenHash == tokenHash {
			copy := *session
			return &copy, nil
		}
	}
	return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (r memSessions) UpdateLastSeen(_ context.Context, id ulid.ULID, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	session.LastSeenAt = lastSeen
	return nil
}

func (r memSessions) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	delete(r.sessions, id)
	return nil
}

func (r memSessions) DeleteByUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, session := range r.sessions {
		if session.ExpiresAt.Before(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// memTx snapshots users and tokens before fn and restores them when fn
// fails, approximating rollback.
type memTx struct{ *memStore }

var _ auth.Transactor = memTx{}

func (t memTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	userSnap := make(map[int64]auth.User, len(t.users))
	for id, user := range t.users {
		userSnap[id] = *user
	}
	tokenSnap := make(map[string]auth.Token, len(t.tokens))
	for value, token := range t.tokens {
		tokenSnap[value] = *token
	}
	t.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.mu.Lock()
		t.users = make(map[int64]*auth.User, len(userSnap))
		for id, user := range userSnap {
			copy := user
			t.users[id] = &copy
		}
		t.tokens = make(map[string]*auth.Token, len(tokenSnap))
		for value, token := range tokenSnap {
			copy := token
			t.tokens[value] = &copy
		}
		t.mu.Unlock()
		return err
	}
	return nil
}

type capturedMail struct {
	To      string
	Subject string
	Body    string
}

type captureMailer struct {
	mu       sync.Mutex
	sent     []capturedMail
	failWith error
}

var _ auth.Mailer = (*captureMailer)(nil)

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, capturedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) sentMails() []capturedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]capturedMail(nil), m.sent...)
}
