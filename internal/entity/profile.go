package entity

import "strings"

// AccountProfile is the subset of the auth provider's user metadata the backend reads.
type AccountProfile struct {
	UserID       string
	Email        string
	FirstName    string
	BusinessName string
	CompanyName  string
	Address      string
	City         string
	State        string
	Website      string
	Timezone     string
	Plan         Tier
}

func (p *AccountProfile) DisplayBusinessName() string {
	if s := strings.TrimSpace(p.BusinessName); s != "" {
		return s
	}
	if s := strings.TrimSpace(p.CompanyName); s != "" {
		return s
	}
	first := strings.TrimSpace(p.FirstName)
	if first == "" {
		first = "User"
	}
	return first + "'s Business"
}
