package backoffice

import (
	"encoding/json"
	"strings"
)

// Credential is a single username/password pair from configuration.
// Passwords are plaintext and compared verbatim: this service guards an
// internal back office behind a small shared credential set, and the weak
// comparison is a documented property of the deployment, not an accident.
type Credential struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// CredentialSource carries the raw configuration values the legacy formats
// live in. Several formats coexist in deployed environments; resolution
// tries them in priority order and the first non-empty one wins, without
// merging.
type CredentialSource struct {
	// UsersJSON is a JSON-encoded array of {"user":...,"pass":...} objects.
	UsersJSON string
	// UsersList is a delimited list of user:pass pairs ("," or ";").
	UsersList string
	// AdminUser/AdminPass are the single legacy pair.
	AdminUser string
	AdminPass string
}

// CredentialStore holds the credential set resolved at process start.
// It is immutable for the process lifetime.
type CredentialStore struct {
	creds []Credential
}

// ResolveCredentials assembles the credential set from src. Strategies are
// consulted in order (JSON array, delimited list, legacy pair); malformed
// entries are dropped silently.
func ResolveCredentials(src CredentialSource) *CredentialStore {
	strategies := []func() []Credential{
		func() []Credential { return parseUsersJSON(src.UsersJSON) },
		func() []Credential { return parseUsersList(src.UsersList) },
		func() []Credential { return parseAdminPair(src.AdminUser, src.AdminPass) },
	}

	for _, parse := range strategies {
		if creds := parse(); len(creds) > 0 {
			return &CredentialStore{creds: creds}
		}
	}

	return &CredentialStore{}
}

// Authenticate checks for an exact (user, pass) match in the set and
// returns ErrInvalidCredentials when there is none.
func (cs *CredentialStore) Authenticate(username, password string) error {
	for _, c := range cs.creds {
		if c.User == username && c.Pass == password {
			return nil
		}
	}
	return ErrInvalidCredentials
}

// Len returns the number of resolved credentials.
func (cs *CredentialStore) Len() int {
	return len(cs.creds)
}

func parseUsersJSON(raw string) []Credential {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var entries []Credential
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}

	return trimValid(entries)
}

// parseUsersList parses "user1:pass1, user2:pass2" (";" also accepted as a
// delimiter). Only the first ":" separates user from pass, so passwords may
// contain colons.
func parseUsersList(raw string) []Credential {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	pairs := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})

	entries := make([]Credential, 0, len(pairs))
	for _, pair := range pairs {
		user, pass, _ := strings.Cut(pair, ":")
		entries = append(entries, Credential{User: user, Pass: pass})
	}

	return trimValid(entries)
}

func parseAdminPair(user, pass string) []Credential {
	return trimValid([]Credential{{User: user, Pass: pass}})
}

func trimValid(entries []Credential) []Credential {
	valid := entries[:0:0]
	for _, e := range entries {
		e.User = strings.TrimSpace(e.User)
		e.Pass = strings.TrimSpace(e.Pass)
		if e.User != "" && e.Pass != "" {
			valid = append(valid, e)
		}
	}
	return valid
}
