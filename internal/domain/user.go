/**
 * @description
 * This file defines the user domain model as seen by the storefront-service.
 * Account management lives in the auth tooling; this service only needs the
 * user's identity and country (for regional pricing).
 */
package domain

import "github.com/google/uuid"

// User is the slice of the user record relevant to commerce: identity plus an
// optional country used to resolve regional price overrides.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	CountryID *uuid.UUID `json:"country_id,omitempty"`
}
