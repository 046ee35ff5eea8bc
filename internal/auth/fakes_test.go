// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// In-memory repository fakes. They honor the same error contracts as the
// PostgreSQL implementations, including the conditional MarkUsed and the
// atomic failure counter.

type fakeClubRepo struct {
	mu     sync.Mutex
	clubs  map[int64]*Club
	nextID int64
}

func newFakeClubRepo() *fakeClubRepo {
	return &fakeClubRepo{clubs: make(map[int64]*Club)}
}

func (r *fakeClubRepo) Create(_ context.Context, club *Club) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clubs {
		if c.Name == club.Name {
			return 0, oops.Code(CodeClubExists).Errorf("club with this name already exists")
		}
	}
	r.nextID++
	stored := *club
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.clubs[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeClubRepo) GetByID(_ context.Context, id int64) (*Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	club, ok := r.clubs[id]
	if !ok {
		return nil, oops.Code("CLUB_NOT_FOUND").Wrap(ErrNotFound)
	}
	copy := *club
	return &copy, nil
}

func (r *fakeClubRepo) GetByName(_ context.Context, name string) (*Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, club := range r.clubs {
		if club.Name == name {
			copy := *club
			return &copy, nil
		}
	}
	return nil, oops.Code("CLUB_NOT_FOUND").Wrap(ErrNotFound)
}

func (r *fakeClubRepo) List(_ context.Context) ([]*Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Club, 0, len(r.clubs))
	for _, club := range r.clubs {
		copy := *club
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*User
	clubs  *fakeClubRepo
	nextID int64

	failCreate error // injected Create failure
}

func newFakeUserRepo(clubs *fakeClubRepo) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*User), clubs: clubs}
}

func (r *fakeUserRepo) Create(_ context.Context, user *User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return 0, r.failCreate
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return 0, oops.Code(CodeUserExists).Errorf("user with this email already exists")
		}
	}
	r.nextID++
	stored := *user
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.users[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(ErrNotFound)
	}
	copy := *user
	return &copy, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(ErrNotFound)
}

func (r *fakeUserRepo) GetWithClubName(ctx context.Context, email string) (*User, *string, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	return user, r.clubName(user.ClubID), nil
}

func (r *fakeUserRepo) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UserID:   user.ID,
		ClubID:   user.ClubID,
		Email:    user.Email,
		ClubName: r.clubName(user.ClubID),
	}, nil
}

func (r *fakeUserRepo) clubName(clubID *int64) *string {
	if clubID == nil || r.clubs == nil {
		return nil
	}
	club, err := r.clubs.GetByID(context.Background(), *clubID)
	if err != nil {
		return nil
	}
	return &club.Name
}

func (r *fakeUserRepo) RecordFailure(_ context.Context, id int64, threshold int, lockedUntil time.Time) (int, *time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return 0, nil, oops.Code("USER_NOT_FOUND").Wrap(ErrNotFound)
	}
	user.FailedAttempts++
	if user.FailedAttempts >= threshold {
		until := lockedUntil
		user.LockedUntil = &until
	}
	return user.FailedAttempts, user.LockedUntil, nil
}

func (r *fakeUserRepo) RecordSuccess(_ context.Context, id int64, loginAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(ErrNotFound)
	}
	user.FailedAttempts = 0
	user.LockedUntil = nil
	at := loginAt
	user.LastLogin = &at
	return nil
}

func (r *fakeUserRepo) UpdateCredentials(_ context.Context, id int64, hash, salt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(ErrNotFound)
	}
	user.PasswordHash = hash
	user.Salt = salt
	user.FailedAttempts = 0
	user.LockedUntil = nil
	return nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]UserSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]UserSummary, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, UserSummary{
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

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return oops.Code("USER_NOT_FOUND").Wrap(ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*Token
	nextID int64
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*Token)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *Token) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *token
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.tokens[stored.Value] = &stored
	return stored.ID, nil
}

func (r *fakeTokenRepo) GetByValue(_ context.Context, value string) (*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[value]
	if !ok {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(ErrNotFound)
	}
	copy := *token
	return &copy, nil
}

// MarkUsed mirrors the conditional UPDATE: only a still-pending,
// unexpired token qualifies.
func (r *fakeTokenRepo) MarkUsed(_ context.Context, value string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[value]
	if !ok || token.UsedAt != nil || token.ExpiresAt.Before(usedAt) {
		return oops.Code("TOKEN_SPENT").Wrap(ErrNotFound)
	}
	at := usedAt
	token.UsedAt = &at
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
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

func (r *fakeTokenRepo) DeleteUsedBefore(_ context.Context, cutoff time.Time) (int64, error) {
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

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[ulid.ULID]*Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[ulid.ULID]*Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *session
	r.sessions[copy.ID] = &copy
	return nil
}

func (r *fakeSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.TokenHash == tokenHash {
			copy := *session
			return &copy, nil
		}
	}
	return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
}

func (r *fakeSessionRepo) UpdateLastSeen(_ context.Context, id ulid.ULID, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}
	session.LastSeenAt = lastSeen
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
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

// fakeTransactor snapshots the fake stores before running fn and
// restores them when fn fails, approximating rollback.
type fakeTransactor struct {
	users  *fakeUserRepo
	tokens *fakeTokenRepo
}

func (t *fakeTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	userSnap := snapshotUsers(t.users)
	tokenSnap := snapshotTokens(t.tokens)

	if err := fn(ctx); err != nil {
		restoreUsers(t.users, userSnap)
		restoreTokens(t.tokens, tokenSnap)
		return err
	}
	return nil
}

func snapshotUsers(r *fakeUserRepo) map[int64]User {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[int64]User, len(r.users))
	for id, user := range r.users {
		snap[id] = *user
	}
	return snap
}

func restoreUsers(r *fakeUserRepo, snap map[int64]User) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[int64]*User, len(snap))
	for id, user := range snap {
		copy := user
		r.users[id] = &copy
	}
}

func snapshotTokens(r *fakeTokenRepo) map[string]Token {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]Token, len(r.tokens))
	for value, token := range r.tokens {
		snap[value] = *token
	}
	return snap
}

func restoreTokens(r *fakeTokenRepo, snap map[string]Token) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = make(map[string]*Token, len(snap))
	for value, token := range snap {
		copy := token
		r.tokens[value] = &copy
	}
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failWith error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) sentMails() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// fakeMessages renders deterministic content carrying the inputs, so
// tests can assert the right locale and link reached the mailer.
type fakeMessages struct{}

func (fakeMessages) PasswordReset(lang, link string) (string, string) {
	return "reset:" + lang, "reset link: " + link
}

func (fakeMessages) RegistrationInvite(lang, clubName, link string) (string, string) {
	return "invite:" + lang + ":" + clubName, "invite link: " + link
}
