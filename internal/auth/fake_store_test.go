package auth

import (
	"context"
	"time"
)

// fakeStore is an in-memory Store mirroring the Postgres repository's
// semantics, including which sentinel each lookup returns on a miss.
type fakeStore struct {
	users    map[string]User
	sessions map[string]DeviceSession // by session id

	touchErr error
	touched  []string
	replaced []DeviceSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]User),
		sessions: make(map[string]DeviceSession),
	}
}

func (f *fakeStore) addUser(u User) {
	f.users[u.ID] = u
}

func (f *fakeStore) addSession(s DeviceSession) {
	f.sessions[s.ID] = s
}

func (f *fakeStore) FindUser(ctx context.Context, id string) (User, error) {
	user, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (f *fakeStore) FindActiveDeviceSession(ctx context.Context, userID, deviceID string, now time.Time) (DeviceSession, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.DeviceID == deviceID && s.ExpiresAt.After(now) {
			return s, nil
		}
	}
	return DeviceSession{}, ErrSessionInvalid
}

func (f *fakeStore) FindActiveDeviceSessionByRefreshToken(ctx context.Context, userID, refreshToken string, now time.Time) (DeviceSession, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.RefreshToken == refreshToken && s.ExpiresAt.After(now) {
			return s, nil
		}
	}
	return DeviceSession{}, ErrInvalidRefreshToken
}

func (f *fakeStore) TouchDeviceSession(ctx context.Context, id string, now time.Time) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched = append(f.touched, id)
	if s, ok := f.sessions[id]; ok {
		s.LastActivityAt = now
		f.sessions[id] = s
	}
	return nil
}

func (f *fakeStore) ReplaceDeviceSession(ctx context.Context, session DeviceSession) error {
	for id, s := range f.sessions {
		if s.UserID == session.UserID && s.DeviceID == session.DeviceID {
			delete(f.sessions, id)
		}
	}
	f.sessions[session.ID] = session
	f.replaced = append(f.replaced, session)
	return nil
}

func (f *fakeStore) DeleteDeviceSession(ctx context.Context, userID, refreshToken string) (bool, error) {
	for id, s := range f.sessions {
		if s.UserID == userID && s.RefreshToken == refreshToken {
			delete(f.sessions, id)
			return true, nil
		}
	}
	return false, nil
}
