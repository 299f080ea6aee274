package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type userRepo Store

func copyUser(u *repository.User) *repository.User {
	cp := *u
	cp.Username = copyStr(u.Username)
	cp.Email = copyStr(u.Email)
	cp.Phone = copyStr(u.Phone)
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		cp.LastLoginAt = &t
	}
	if u.Profile != nil {
		cp.Profile = make(map[string]any, len(u.Profile))
		for k, v := range u.Profile {
			cp.Profile[k] = v
		}
	}
	return &cp
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// identifierTaken reporta si algún usuario del pool (distinto de excludeID)
// ya usa el valor como username, email o phone.
func (r *userRepo) identifierTaken(poolID, value, excludeID string) bool {
	for _, u := range r.users {
		if u.UserPoolID != poolID || u.ID == excludeID {
			continue
		}
		if matches(u.Username, value) || matches(u.Email, value) || matches(u.Phone, value) {
			return true
		}
	}
	return false
}

func matches(field *string, value string) bool {
	return field != nil && *field == value
}

func (r *userRepo) CreateUser(ctx context.Context, user *repository.User, creds []repository.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// El unique check y el insert corren bajo el mismo lock: equivalente
	// al constraint de la base como árbitro final de la carrera.
	for _, id := range []*string{user.Username, user.Email, user.Phone} {
		if id != nil && r.identifierTaken(user.UserPoolID, *id, "") {
			return repository.ErrConflict
		}
	}
	r.users[user.ID] = copyUser(user)
	for i := range creds {
		c := creds[i]
		r.creds[c.ID] = &c
	}
	return nil
}

func (r *userRepo) GetUser(ctx context.Context, id string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *userRepo) FindByIdentifier(ctx context.Context, poolID, identifier string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.UserPoolID != poolID {
			continue
		}
		if matches(u.Username, identifier) || matches(u.Email, identifier) || matches(u.Phone, identifier) {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) UpdateUser(ctx context.Context, id string, input repository.UpdateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if input.Username != nil && !matches(u.Username, *input.Username) {
		if r.identifierTaken(u.UserPoolID, *input.Username, id) {
			return nil, repository.ErrConflict
		}
		u.Username = copyStr(input.Username)
	}
	if input.Email != nil && !matches(u.Email, *input.Email) {
		if r.identifierTaken(u.UserPoolID, *input.Email, id) {
			return nil, repository.ErrConflict
		}
		u.Email = copyStr(input.Email)
		u.EmailVerified = false
	}
	if input.Phone != nil && !matches(u.Phone, *input.Phone) {
		if r.identifierTaken(u.UserPoolID, *input.Phone, id) {
			return nil, repository.ErrConflict
		}
		u.Phone = copyStr(input.Phone)
		u.PhoneVerified = false
	}
	if input.Nickname != nil {
		u.Nickname = *input.Nickname
	}
	if input.AvatarURL != nil {
		u.AvatarURL = *input.AvatarURL
	}
	if input.Profile != nil {
		u.Profile = input.Profile
	}
	if input.Status != nil {
		u.Status = *input.Status
	}
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

func (r *userRepo) ListUsers(ctx context.Context, poolID string, filter repository.ListUsersFilter) ([]repository.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kw := strings.ToLower(filter.Keyword)
	var all []*repository.User
	for _, u := range r.users {
		if u.UserPoolID != poolID {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if kw != "" && !userMatchesKeyword(u, kw) {
			continue
		}
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	out := make([]repository.User, 0, len(all))
	for _, u := range paginate(all, filter.Page, filter.PerPage) {
		out = append(out, *copyUser(u))
	}
	return out, total, nil
}

func userMatchesKeyword(u *repository.User, kw string) bool {
	for _, f := range []*string{u.Username, u.Email, u.Phone} {
		if f != nil && strings.Contains(strings.ToLower(*f), kw) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(u.Nickname), kw)
}

func (r *userRepo) SetLastLogin(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	t := at
	u.LastLoginAt = &t
	return nil
}

func (r *userRepo) GetCredential(ctx context.Context, userID string, typ repository.CredentialType) (*repository.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.creds {
		if c.UserID == userID && c.Type == typ {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) UpsertCredential(ctx context.Context, cred *repository.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.creds {
		if c.UserID == cred.UserID && c.Type == cred.Type && c.Identifier == cred.Identifier {
			delete(r.creds, id)
			break
		}
	}
	cp := *cred
	r.creds[cred.ID] = &cp
	return nil
}
