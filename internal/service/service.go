// Package service contains the business rules of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services take repository interfaces, never *sqlite.DB, and return
// *apperror.AppError values that the handlers translate into HTTP statuses.
// Nothing in this package knows about HTTP.
//
// ATOMICITY:
// Rules that must hold under concurrent requests (seat capacity, one
// attendance per user and event, one membership per club and user) are
// enforced by single repository calls that run in one transaction. The
// services pre-validate input and ownership, then delegate.
package service

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/chessmeet/chessmeet/internal/repository"
)

// textPolicy strips every HTML element. User-written text is stored as plain
// text and rendered by the client.
var textPolicy = bluemonday.StrictPolicy()

// maxUnescapeRounds bounds how many layers of entity encoding are peeled
// off before sanitizing ("&amp;lt;b&amp;gt;" needs two).
const maxUnescapeRounds = 4

// plainText removes markup from s and trims surrounding whitespace.
//
// Entities are decoded BEFORE the sanitizer runs, so "&lt;script&gt;" is
// seen and stripped as a tag. The sanitizer's own output is decoded once
// more, so "Torre & Alfil" is stored as typed.
func plainText(s string) string {
	for range maxUnescapeRounds {
		u := html.UnescapeString(s)
		if u == s {
			break
		}
		s = u
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// plainTextPtr is plainText for optional fields.
func plainTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := plainText(*s)
	return &v
}

func utcNow() time.Time { return time.Now().UTC() }

// defaultClock is the production time source.
var defaultClock repository.Clock = utcNow
