package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// MaxFriends is the capacity of a User's friend list.
const MaxFriends = 100

// User is the persistent profile keyed by username. Password is stored
// in plaintext, matching the protocol this server implements.
type User struct {
	Username string
	Password string
	Bio      string
	Friends  []string
}

// LoadUser reads a user record. found is false (with a nil error) when
// no such user file exists, matching load_user's "no such user" signal.
func (s *Store) LoadUser(username string) (u *User, found bool, err error) {
	f, err := os.Open(s.userPath(username))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: load user %q: %w", username, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	u = &User{Username: username}
	if !sc.Scan() {
		return nil, false, fmt.Errorf("store: load user %q: missing password line", username)
	}
	u.Password = sc.Text()
	if !sc.Scan() {
		return nil, false, fmt.Errorf("store: load user %q: missing biography line", username)
	}
	u.Bio = sc.Text()

	for sc.Scan() {
		friend := strings.TrimSpace(sc.Text())
		if friend != "" {
			u.Friends = append(u.Friends, friend)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, false, fmt.Errorf("store: load user %q: %w", username, err)
	}
	return u, true, nil
}

// Exists reports whether a user file is present, without fully parsing it.
func (s *Store) Exists(username string) bool {
	_, err := os.Stat(s.userPath(username))
	return err == nil
}

// SaveUser overwrites the user's file with its current fields.
func (s *Store) SaveUser(u *User) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", u.Password, u.Bio)
	for _, friend := range u.Friends {
		if friend == "" {
			continue
		}
		fmt.Fprintf(&b, "%s\n", friend)
	}

	if err := os.WriteFile(s.userPath(u.Username), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("store: save user %q: %w", u.Username, err)
	}
	return nil
}

// AddFriend appends friend to username's list and persists it. Returns
// false (no error) if friend is already present; an error if the list is
// already at MaxFriends or the user cannot be loaded/saved.
func (s *Store) AddFriend(username, friend string) (bool, error) {
	u, found, err := s.LoadUser(username)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("store: add friend: user %q not found", username)
	}
	for _, f := range u.Friends {
		if f == friend {
			return false, nil
		}
	}
	if len(u.Friends) >= MaxFriends {
		return false, fmt.Errorf("store: add friend: %q's friend list is full", username)
	}
	u.Friends = append(u.Friends, friend)
	if err := s.SaveUser(u); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveFriend removes friend from username's list, compacting it, and
// persists the result. Returns false if friend was not present.
func (s *Store) RemoveFriend(username, friend string) (bool, error) {
	u, found, err := s.LoadUser(username)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("store: remove friend: user %q not found", username)
	}

	idx := -1
	for i, f := range u.Friends {
		if f == friend {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	u.Friends = append(u.Friends[:idx], u.Friends[idx+1:]...)
	if err := s.SaveUser(u); err != nil {
		return false, err
	}
	return true, nil
}

// IsFriend reports whether friend appears in username's friend list.
// Friendship is unilateral: it does not imply the reverse.
func (s *Store) IsFriend(username, friend string) (bool, error) {
	u, found, err := s.LoadUser(username)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	for _, f := range u.Friends {
		if f == friend {
			return true, nil
		}
	}
	return false, nil
}
