package model

import "time"

// DraftStatus is the only status a live draft ever has; drafts are deleted
// rather than transitioned.
const DraftStatus = "draft"

// DraftPayload is the caller-supplied content of a draft.
type DraftPayload struct {
	Title     string
	Body      string
	Kind      string
	MediaRefs []string
	MediaURLs []string
	Monetized bool
	Price     float64
}

type Draft struct {
	ID      string
	OwnerID AccountID

	DraftPayload

	Status    string
	CreatedAt time.Time
	ExpiresAt time.Time
	// UpdatedAt is zero until the draft is first updated.
	UpdatedAt time.Time
}

// Expired reports whether the draft's expiry timestamp is at or before now.
// An expired draft is logically non-existent even if still stored.
func (d *Draft) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !d.ExpiresAt.After(now)
}

func DraftFromDoc(doc map[string]any) *Draft {
	return &Draft{
		ID:      asString(doc["id"]),
		OwnerID: AccountID(asInt64(doc["owner_id"])),
		DraftPayload: DraftPayload{
			Title:     asString(doc["title"]),
			Body:      asString(doc["body"]),
			Kind:      asString(doc["kind"]),
			MediaRefs: asStringSlice(doc["media_refs"]),
			MediaURLs: asStringSlice(doc["media_urls"]),
			Monetized: asBool(doc["monetized"]),
			Price:     asFloat(doc["price"]),
		},
		Status:    asString(doc["status"]),
		CreatedAt: asTime(doc["created_at"]),
		ExpiresAt: asTime(doc["expires_at"]),
		UpdatedAt: asTime(doc["updated_at"]),
	}
}

func (d *Draft) Doc() map[string]any {
	doc := map[string]any{
		"id":         d.ID,
		"owner_id":   int64(d.OwnerID),
		"title":      d.Title,
		"body":       d.Body,
		"kind":       d.Kind,
		"media_refs": d.MediaRefs,
		"media_urls": d.MediaURLs,
		"monetized":  d.Monetized,
		"price":      d.Price,
		"status":     d.Status,
		"created_at": d.CreatedAt,
		"expires_at": d.ExpiresAt,
	}
	if !d.UpdatedAt.IsZero() {
		doc["updated_at"] = d.UpdatedAt
	}
	return doc
}
