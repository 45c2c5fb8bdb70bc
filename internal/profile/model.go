// Package profile reads and writes the single profile document of a user.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/JCUYLLE2/FindFilms/internal/identity"
)

var (
	ErrUnauthenticated   = identity.ErrUnauthenticated
	ErrValidation        = errors.New("invalid profile")
	ErrRemoteUnavailable = errors.New("profile store unavailable")
)

// Document field names. The capitalised names match documents written by the mobile app.
const (
	fieldName     = "Name"
	fieldCity     = "City"
	fieldCountry  = "Country"
	fieldAge      = "age"
	fieldLocation = "Location"
)

// Profile is the users/<uid> document. Missing fields load as zero values.
type Profile struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Age      int    `json:"age"`
	Location string `json:"location,omitempty"`
}

// AgeInput accepts a JSON number or a numeric string.
type AgeInput string

func (a *AgeInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AgeInput(s)
		return nil
	}
	*a = AgeInput(data)
	return nil
}

// Input is a profile edit as submitted by the client.
type Input struct {
	Name    string   `json:"name"`
	City    string   `json:"city"`
	Country string   `json:"country"`
	Age     AgeInput `json:"age"`
}

// Repository persists profile documents.
type Repository interface {
	// Get returns the stored document fields; a missing document yields an empty map.
	Get(ctx context.Context, userID string) (map[string]any, error)
	// Set overwrites the whole document.
	Set(ctx context.Context, userID string, fields map[string]any) error
}

func (p Profile) fields() map[string]any {
	return map[string]any{
		fieldName:    p.Name,
		fieldCity:    p.City,
		fieldCountry: p.Country,
		fieldAge:     int64(p.Age),
	}
}

// decodeProfile maps stored fields onto a Profile, defaulting anything missing
// or of the wrong type. A non-numeric age stored by older clients loads as 0.
func decodeProfile(data map[string]any) Profile {
	var p Profile
	p.Name, _ = data[fieldName].(string)
	p.City, _ = data[fieldCity].(string)
	p.Country, _ = data[fieldCountry].(string)
	p.Location, _ = data[fieldLocation].(string)

	switch v := data[fieldAge].(type) {
	case int64:
		p.Age = int(v)
	case int:
		p.Age = v
	case float64:
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			p.Age = int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			p.Age = n
		}
	}
	return p
}
