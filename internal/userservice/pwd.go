package userservice

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past this many bytes.
const passwordMaxBytes = 72

// placeholderHash is compared against when the username is unknown, so a
// failed login costs one bcrypt comparison whether or not the user exists.
var placeholderHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("placeholder password"), passwordCost)
	if err != nil {
		panic(err)
	}
	return hash
})

func (p *Password) set(pwd string) error {
	if len(pwd) > passwordMaxBytes {
		return bcrypt.ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), passwordCost)
	if err != nil {
		return err
	}

	p.Plain = pwd
	p.hash = hash

	return nil
}

// compare reports whether pwd matches the stored hash. A mismatch is not an error.
func (p *Password) compare(pwd string) (bool, error) {
	return compareHash(p.hash, pwd)
}

// burnCompare runs a comparison that always fails, for logins naming a user
// that does not exist.
func burnCompare(pwd string) {
	_, _ = compareHash(placeholderHash(), pwd)
}

func compareHash(hash []byte, pwd string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hash, []byte(pwd))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
