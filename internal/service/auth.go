package service

import (
	"crypto/subtle"
	"errors"

	"github.com/granrifa/rifa-api/internal/config"
)

var ErrWrongCredentials = errors.New("wrong username or password")

// AuthService checks the login form against the configured admin
// credentials. There is no user table; the admin pair comes from process
// configuration, so the compare is constant-time rather than a hash check.
type AuthService struct {
	conf *config.APIConfig
}

func NewAuthService(conf *config.APIConfig) *AuthService {
	return &AuthService{
		conf: conf,
	}
}

func (s *AuthService) Login(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.conf.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.conf.AdminPassword)) == 1

	if !userOK || !passOK {
		return ErrWrongCredentials
	}

	return nil
}
