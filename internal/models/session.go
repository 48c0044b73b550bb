package models

import "time"

// Session is a logged in user as kept in the session store.
type Session struct {
	Token           string    `json:"token"`
	UserID          int       `json:"userId"`
	Role            Role      `json:"role"`
	RequestCount    int       `json:"requestCount"`
	LastRequestTime time.Time `json:"lastRequestTime"`
	CreatedTime     time.Time `json:"createdTime"`
}
