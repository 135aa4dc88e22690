// Package flowrepo keeps the short-lived state of in-progress SSO logins.
package flowrepo

import "time"

// FlowState is everything the callback needs to finish a login started by the same browser.
type FlowState struct {
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, flow *FlowState) error
	// Take returns the flow for state and forgets it, so a state can only be used once.
	Take(state string) (*FlowState, error)
}
