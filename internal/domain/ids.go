package domain

// MemberID is an internal identifier for a member record.
type MemberID string

// EventID is an internal identifier for an event record.
type EventID string

// RegistrationID is an internal identifier for an event registration.
type RegistrationID string

// InterestID identifies an entry in the interest catalog.
type InterestID string
