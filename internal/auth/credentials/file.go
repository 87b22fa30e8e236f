package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrNotFound = errors.New("credentials: not found")

// Credential is one pre-provisioned entry from the credential file.
type Credential struct {
	UserID       string
	Username     string
	PasswordHash string
}

// File is a file-backed credential source. Each non-blank, non-comment
// line reads `username:user id:bcrypt hash`. The file is loaded once at
// boot; entries are immutable afterwards.
type File struct {
	byName map[string]*Credential
	byID   map[string]*Credential
}

func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	defer f.Close()

	src := &File{
		byName: make(map[string]*Credential),
		byID:   make(map[string]*Credential),
	}

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		// bcrypt hashes contain ':'-free base64, so a 3-way split is safe.
		parts := strings.SplitN(text, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("credentials: malformed entry at line %d", line)
		}

		cred := &Credential{
			Username:     parts[0],
			UserID:       parts[1],
			PasswordHash: parts[2],
		}

		if _, ok := src.byName[cred.Username]; ok {
			return nil, fmt.Errorf("credentials: duplicate username %q at line %d", cred.Username, line)
		}

		src.byName[cred.Username] = cred
		src.byID[cred.UserID] = cred
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}

	return src, nil
}

// Lookup returns the credential for a username or ErrNotFound.
func (f *File) Lookup(username string) (*Credential, error) {
	cred, ok := f.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	return cred, nil
}

// LookupByID returns the credential for a user id or ErrNotFound.
func (f *File) LookupByID(id string) (*Credential, error) {
	cred, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cred, nil
}
