package store

import "time"

// Source channel types.
const (
	SourceTypeWebsite   = "website"
	SourceTypeTwitter   = "twitter"
	SourceTypeInstagram = "instagram"
	SourceTypeMastodon  = "mastodon"
	SourceTypePublisher = "publisher"
	SourceTypeOther     = "other"
)

// Source lifecycle statuses.
const (
	SourceStatusActive   = "active"
	SourceStatusInactive = "inactive"
)

// Person is a tracked public figure.
type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// SourceCount is populated by list queries only.
	SourceCount int `json:"source_count,omitempty"`
}

// Source is a URL channel through which a person announces events.
type Source struct {
	ID               string     `json:"id"`
	PersonID         string     `json:"person_id"`
	Type             string     `json:"type"`
	URL              string     `json:"url"`
	Confidence       string     `json:"confidence"`
	Status           string     `json:"status"`
	LastPostDate     *time.Time `json:"last_post_date,omitempty"`
	AvgPostsPerMonth *float64   `json:"avg_posts_per_month,omitempty"`
	DiscoveredAt     time.Time  `json:"discovered_at"`
	LastChecked      *time.Time `json:"last_checked,omitempty"`
}

// SourceSeed is the insertable subset of Source used by discovery.
type SourceSeed struct {
	Type       string `json:"type"`
	URL        string `json:"url"`
	Confidence string `json:"confidence"`
}

// QueuedCandidate is an extracted event awaiting human review. The four
// check booleans and the error list record the verification outcome; they
// inform the reviewer and never gate admission to the queue.
type QueuedCandidate struct {
	ID                 string    `json:"id"`
	PersonID           string    `json:"person_id"`
	SourceID           *string   `json:"source_id,omitempty"`
	Title              string    `json:"title"`
	EventDate          string    `json:"event_date,omitempty"`
	Location           string    `json:"location,omitempty"`
	URL                string    `json:"url"`
	RegistrationURL    string    `json:"registration_url,omitempty"`
	OriginalPostURL    string    `json:"original_post_url,omitempty"`
	OriginalPostText   string    `json:"original_post_text,omitempty"`
	HTTPCheck          bool      `json:"http_check"`
	ContentCheck       bool      `json:"content_check"`
	DateCheck          bool      `json:"date_check"`
	RegistrationCheck  bool      `json:"registration_check"`
	VerificationErrors []string  `json:"verification_errors,omitempty"`
	ExtractedAt        time.Time `json:"extracted_at"`
}

// Event is a canonical, user-facing appearance record.
type Event struct {
	ID           string     `json:"id"`
	PersonID     string     `json:"person_id"`
	SourceID     *string    `json:"source_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Location     string     `json:"location,omitempty"`
	Venue        string     `json:"venue,omitempty"`
	City         string     `json:"city,omitempty"`
	Country      string     `json:"country,omitempty"`
	URL          string     `json:"url,omitempty"`
	TicketURL    string     `json:"ticket_url,omitempty"`
	Confidence   string     `json:"confidence,omitempty"`
	Status       string     `json:"status"`
	DiscoveredAt time.Time  `json:"discovered_at"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`

	// VerificationStatus is an opaque snapshot of the queue entry's check
	// outcomes, captured at approval time.
	VerificationStatus map[string]any `json:"verification_status,omitempty"`
}
