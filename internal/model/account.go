// Package model defines the persisted record types and their document
// encodings.
package model

import (
	"strconv"
	"strings"
)

type AccountID int64

func (id AccountID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Account states. New accounts start idle; Initial is the fallback reported
// for accounts that do not exist.
const (
	StateIdle    = "IDLE"
	StateInitial = "INITIAL"
)

// Profile holds the member-facing attributes of an account.
type Profile struct {
	Codename     string
	Age          int
	AgeConfirmed bool
	Kind         string
	Location     string
	Creator      bool
	Category     string
	Interests    []string
	Onboarded    bool
}

// Agreements records which policies the account holder has accepted.
type Agreements struct {
	Rules      bool
	Privacy    bool
	DataPolicy bool
}

// Monetization holds the payout settings of a creator account.
type Monetization struct {
	Enabled   bool
	PayoutKey string
	Balance   float64
}

type Account struct {
	ID       AccountID
	Username string
	State    string
	Context  map[string]any

	Profile      Profile
	Agreements   Agreements
	Monetization Monetization

	Premium bool
	Admin   bool
}

func NewAccount(id AccountID, username string) *Account {
	return &Account{
		ID:       id,
		Username: username,
		State:    StateIdle,
		Context:  map[string]any{},
	}
}

// SetField applies a single field mutation addressed by a dotted path, for
// example "profile.onboarded". Whole sub-objects may be replaced by passing a
// document map as the value. Unknown or malformed paths are ignored; the
// return value reports whether anything was applied.
func (a *Account) SetField(path string, value any) bool {
	head, rest, nested := strings.Cut(path, ".")

	switch head {
	case "profile":
		if !nested {
			m := asMap(value)
			if m == nil {
				return false
			}
			a.Profile = profileFromDoc(m)
			return true
		}
		return a.Profile.setField(rest, value)
	case "agreements":
		if !nested {
			m := asMap(value)
			if m == nil {
				return false
			}
			a.Agreements = agreementsFromDoc(m)
			return true
		}
		return a.Agreements.setField(rest, value)
	case "monetization":
		if !nested {
			m := asMap(value)
			if m == nil {
				return false
			}
			a.Monetization = monetizationFromDoc(m)
			return true
		}
		return a.Monetization.setField(rest, value)
	case "context":
		if !nested {
			m := asMap(value)
			if m == nil {
				return false
			}
			a.Context = m
			return true
		}
		if strings.Contains(rest, ".") {
			return false
		}
		if a.Context == nil {
			a.Context = map[string]any{}
		}
		a.Context[rest] = value
		return true
	}

	if nested {
		return false
	}

	switch head {
	case "username":
		a.Username = asString(value)
	case "state":
		a.State = asString(value)
	case "premium":
		a.Premium = asBool(value)
	case "admin":
		a.Admin = asBool(value)
	default:
		return false
	}
	return true
}

func (p *Profile) setField(name string, value any) bool {
	switch name {
	case "codename":
		p.Codename = asString(value)
	case "age":
		p.Age = asInt(value)
	case "age_confirmed":
		p.AgeConfirmed = asBool(value)
	case "kind":
		p.Kind = asString(value)
	case "location":
		p.Location = asString(value)
	case "creator":
		p.Creator = asBool(value)
	case "category":
		p.Category = asString(value)
	case "interests":
		p.Interests = asStringSlice(value)
	case "onboarded":
		p.Onboarded = asBool(value)
	default:
		return false
	}
	return true
}

func (g *Agreements) setField(name string, value any) bool {
	switch name {
	case "rules":
		g.Rules = asBool(value)
	case "privacy":
		g.Privacy = asBool(value)
	case "data_policy":
		g.DataPolicy = asBool(value)
	default:
		return false
	}
	return true
}

func (m *Monetization) setField(name string, value any) bool {
	switch name {
	case "enabled":
		m.Enabled = asBool(value)
	case "payout_key":
		m.PayoutKey = asString(value)
	case "balance":
		m.Balance = asFloat(value)
	default:
		return false
	}
	return true
}

// AccountFromDoc decodes an account from its stored document.
func AccountFromDoc(doc map[string]any) *Account {
	a := &Account{
		ID:       AccountID(asInt64(doc["id"])),
		Username: asString(doc["username"]),
		State:    asString(doc["state"]),
		Context:  asMap(doc["context"]),
		Premium:  asBool(doc["premium"]),
		Admin:    asBool(doc["admin"]),
	}
	if a.State == "" {
		a.State = StateIdle
	}
	if a.Context == nil {
		a.Context = map[string]any{}
	}
	a.Profile = profileFromDoc(asMap(doc["profile"]))
	a.Agreements = agreementsFromDoc(asMap(doc["agreements"]))
	a.Monetization = monetizationFromDoc(asMap(doc["monetization"]))
	return a
}

func profileFromDoc(doc map[string]any) Profile {
	return Profile{
		Codename:     asString(doc["codename"]),
		Age:          asInt(doc["age"]),
		AgeConfirmed: asBool(doc["age_confirmed"]),
		Kind:         asString(doc["kind"]),
		Location:     asString(doc["location"]),
		Creator:      asBool(doc["creator"]),
		Category:     asString(doc["category"]),
		Interests:    asStringSlice(doc["interests"]),
		Onboarded:    asBool(doc["onboarded"]),
	}
}

func agreementsFromDoc(doc map[string]any) Agreements {
	return Agreements{
		Rules:      asBool(doc["rules"]),
		Privacy:    asBool(doc["privacy"]),
		DataPolicy: asBool(doc["data_policy"]),
	}
}

func monetizationFromDoc(doc map[string]any) Monetization {
	return Monetization{
		Enabled:   asBool(doc["enabled"]),
		PayoutKey: asString(doc["payout_key"]),
		Balance:   asFloat(doc["balance"]),
	}
}

// Doc encodes the account as a document for the store gateway.
func (a *Account) Doc() map[string]any {
	return map[string]any{
		"id":       int64(a.ID),
		"username": a.Username,
		"state":    a.State,
		"context":  a.Context,
		"profile": map[string]any{
			"codename":      a.Profile.Codename,
			"age":           a.Profile.Age,
			"age_confirmed": a.Profile.AgeConfirmed,
			"kind":          a.Profile.Kind,
			"location":      a.Profile.Location,
			"creator":       a.Profile.Creator,
			"category":      a.Profile.Category,
			"interests":     a.Profile.Interests,
			"onboarded":     a.Profile.Onboarded,
		},
		"agreements": map[string]any{
			"rules":       a.Agreements.Rules,
			"privacy":     a.Agreements.Privacy,
			"data_policy": a.Agreements.DataPolicy,
		},
		"monetization": map[string]any{
			"enabled":    a.Monetization.Enabled,
			"payout_key": a.Monetization.PayoutKey,
			"balance":    a.Monetization.Balance,
		},
		"premium": a.Premium,
		"admin":   a.Admin,
	}
}
