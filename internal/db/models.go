package db

import (
	"database/sql"
	"strconv"
	"time"
)

// Incident is a base-table row. Anonymous readers never see this shape
// directly; they get PublicIncident through the filtered views.
type Incident struct {
	ID                       string     `json:"id"`
	IncidentCode             *string    `json:"incident_code,omitempty"`
	Date                     string     `json:"date"`
	City                     string     `json:"city"`
	State                    string     `json:"state"`
	LocationType             string     `json:"location_type"`
	Fatalities               int        `json:"fatalities"`
	Injuries                 int        `json:"injuries"`
	InvolvesChildren         bool       `json:"involves_children"`
	InvolvesWomenAndChildren bool       `json:"involves_women_and_children"`
	HateCrime                bool       `json:"hate_crime"`
	HateCrimeTarget          *string    `json:"hate_crime_target,omitempty"`
	Context                  string     `json:"context"`
	Description              string     `json:"description"`
	Notes                    *string    `json:"notes,omitempty"`
	IsPublished              bool       `json:"is_published"`
	LastVerifiedAt           *time.Time `json:"last_verified_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

type Suspect struct {
	ID          string    `json:"id"`
	IncidentID  string    `json:"incident_id"`
	SuspectCode *string   `json:"suspect_code,omitempty"`
	Name        *string   `json:"name,omitempty"`
	Age         *int      `json:"age,omitempty"`
	Gender      string    `json:"gender"`
	Race        string    `json:"race"`
	Nationality *string   `json:"nationality,omitempty"`
	Status      string    `json:"status"`
	Motive      *string   `json:"motive,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Weapon struct {
	ID               int64   `json:"id"`
	SuspectID        string  `json:"suspect_id"`
	Type             string  `json:"type"`
	LegallyPurchased *bool   `json:"legally_purchased"`
	Source           *string `json:"source,omitempty"`
}

// PriorHistory is the zero-or-one background record per suspect. All three
// fields are tri-state: nil means not established either way.
type PriorHistory struct {
	SuspectID               string `json:"suspect_id"`
	CriminalRecord          *bool  `json:"criminal_record"`
	PriorMentalHealthIssues *bool  `json:"prior_mental_health_issues"`
	PriorDomesticViolence   *bool  `json:"prior_domestic_violence"`
}

// SuspectWithDetails is the nested shape the admin API reads and writes:
// one suspect plus its owned weapons and background record.
type SuspectWithDetails struct {
	Suspect
	Weapons []Weapon      `json:"weapons"`
	History *PriorHistory `json:"history"`
}

type Legislation struct {
	ID             string     `json:"id"`
	LawCode        *string    `json:"law_code,omitempty"`
	Date           string     `json:"date"`
	Jurisdiction   string     `json:"jurisdiction"`
	Title          string     `json:"title"`
	Category       string     `json:"category"`
	Summary        string     `json:"summary"`
	Notes          *string    `json:"notes,omitempty"`
	IsPublished    bool       `json:"is_published"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Correction struct {
	ID                  int64      `json:"id"`
	IncidentID          *string    `json:"incident_id,omitempty"`
	LegislationID       *string    `json:"legislation_id,omitempty"`
	CorrectionType      string     `json:"correction_type"`
	Description         string     `json:"description"`
	SuggestedCorrection *string    `json:"suggested_correction,omitempty"`
	Status              string     `json:"status"`
	SubmittedBy         *string    `json:"submitted_by,omitempty"`
	ReviewedBy          *string    `json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
	Notes               *string    `json:"notes,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// CorrectionWithRefs decorates a correction with a short summary of the
// record it points at, for the review queue.
type CorrectionWithRefs struct {
	Correction
	IncidentCode *string `json:"ref_incident_code,omitempty"`
	IncidentCity *string `json:"ref_incident_city,omitempty"`
	LawCode      *string `json:"ref_law_code,omitempty"`
	LawTitle     *string `json:"ref_law_title,omitempty"`
}

type AllowlistEntry struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	AddedBy   *string   `json:"added_by,omitempty"`
}

type AuditEntry struct {
	ID         int64     `json:"id"`
	TableName  string    `json:"table_name"`
	RowID      string    `json:"row_id"`
	Action     string    `json:"action"`
	ActorEmail string    `json:"actor_email"`
	Diff       string    `json:"diff"`
	CreatedAt  time.Time `json:"created_at"`
}

// Source is a cited reference attached to an incident or a legislation record.
type Source struct {
	ID         int64  `json:"id"`
	ParentID   string `json:"parent_id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	Publisher  string `json:"publisher"`
	AccessedAt string `json:"accessed_at"`
}

type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

func nullStr(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func boolPtr(nb sql.NullBool) *bool {
	if !nb.Valid {
		return nil
	}
	b := nb.Bool
	return &b
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}
