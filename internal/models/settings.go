// Package models defines the domain types for iconsync.
package models

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MinTokenLength is the minimum plausible length of a GitHub access token.
// This is a coarse shape check; the remote service is the source of truth.
const MinTokenLength = 20

var repositoryRe = regexp.MustCompile(`^[^/\s]+/[^/\s]+$`)

// SyncSettings is the user-supplied publish-target configuration:
// a repository coordinate ("owner/repo") and an access token.
type SyncSettings struct {
	Repository string `json:"repository" yaml:"repository"`
	Token      string `json:"token" yaml:"token"`
}

// Validate checks the shape of the settings without any network call.
func (s SyncSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Repository, validation.Required,
			validation.Match(repositoryRe).Error(`must be of the form "owner/repo"`)),
		validation.Field(&s.Token, validation.Required,
			validation.Length(MinTokenLength, 0)),
	)
}

// Redacted returns a copy safe to expose over the API: the token is
// masked down to its last four characters.
func (s SyncSettings) Redacted() SyncSettings {
	out := s
	if n := len(s.Token); n > 4 {
		out.Token = strings.Repeat("*", n-4) + s.Token[n-4:]
	}
	return out
}
