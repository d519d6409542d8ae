package aukro

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
)

// Identity holds the credentials used to log in to the WebAPI
type Identity struct {
	username string
	apiKey   string
	password string
}

// NewIdentity creates an identity. The password must already be hashed, see HashPassword.
func NewIdentity(username, apiKey, passwordHash string) Identity {
	return Identity{
		username: username,
		apiKey:   apiKey,
		password: passwordHash,
	}
}

func (i Identity) Username() string { return i.username }

func (i Identity) APIKey() string { return i.apiKey }

// Password returns the pre-hashed password sent as userHashPassword
func (i Identity) Password() string { return i.password }

// HashPassword computes the value doLoginEnc expects: base64(sha256(plain))
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Known marketplace country ids
const (
	CountryPoland        = 1
	CountryCzechRepublic = 56
)

var countryAliases = map[string]int{
	"PL": CountryPoland,
	"CZ": CountryCzechRepublic,
}

// CountryCode identifies the marketplace a client talks to
type CountryCode struct {
	value int
}

func NewCountryCode(id int) CountryCode {
	return CountryCode{value: id}
}

func (c CountryCode) Value() int { return c.value }

func (c CountryCode) String() string { return strconv.Itoa(c.value) }

// ParseCountryCode accepts a numeric country id or an ISO alpha-2 code (PL, CZ)
func ParseCountryCode(s string) (CountryCode, error) {
	s = strings.TrimSpace(s)
	if id, ok := countryAliases[strings.ToUpper(s)]; ok {
		return NewCountryCode(id), nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return CountryCode{}, &unknownCountryError{value: s}
	}
	return NewCountryCode(id), nil
}
