package dto

import "time"

type SavedItem struct {
	ListingID string    `json:"listing_id"`
	SavedAt   time.Time `json:"saved_at"`
	Listing   *Listing  `json:"listing,omitempty"`
}

type SavedList struct {
	Items []SavedItem `json:"items"`
}

type PushSubscription struct {
	Endpoint  string    `json:"endpoint"`
	UserAgent string    `json:"user_agent,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VapidKey struct {
	PublicKey string `json:"public_key"`
}
