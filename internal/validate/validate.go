// Package validate checks decoded payloads against the archive's domain
// rules before anything reaches the database. The database schema repeats
// the closed enums as CHECK constraints, but rejecting here produces a
// field-addressed 400 instead of an opaque constraint error.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// usStates is the 50 states plus DC. Incident rows use these two-letter
// codes; legislation jurisdictions additionally allow FEDERAL.
var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true,
}

var locationTypes = map[string]bool{
	"school": true, "public_space": true, "private_residence": true,
	"workplace": true, "other": true,
}

var genders = map[string]bool{
	"male": true, "female": true, "nonbinary": true, "unknown": true,
}

var races = map[string]bool{
	"White": true, "Black": true, "Latino": true, "Asian": true,
	"Native": true, "Other": true, "Unknown": true,
}

var suspectStatuses = map[string]bool{
	"apprehended": true, "killed_by_self": true, "killed_by_police": true,
	"at_large": true, "deceased_other": true, "unknown": true,
}

var legislationCategories = map[string]bool{
	"regulation": true, "rights_expansion": true, "background_checks": true,
	"assault_weapon_ban": true, "concealed_carry": true, "red_flag": true,
	"other": true,
}

var correctionTypes = map[string]bool{
	"factual_error": true, "missing_info": true, "suggestion": true,
}

// Errors collects per-field failures as "field: rule" strings.
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, "; ")
}

func (e *Errors) add(field, rule string) {
	*e = append(*e, fmt.Sprintf("%s: %s", field, rule))
}

// Err returns the collected failures as an error, or nil if there were none.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// IncidentInput is the decoded admin payload for creating or updating an
// incident.
type IncidentInput struct {
	Date                     string  `json:"date"`
	City                     string  `json:"city"`
	State                    string  `json:"state"`
	LocationType             string  `json:"location_type"`
	Fatalities               int     `json:"fatalities"`
	Injuries                 int     `json:"injuries"`
	InvolvesChildren         bool    `json:"involves_children"`
	InvolvesWomenAndChildren bool    `json:"involves_women_and_children"`
	HateCrime                bool    `json:"hate_crime"`
	HateCrimeTarget          *string `json:"hate_crime_target"`
	Context                  string  `json:"context"`
	Description              string  `json:"description"`
	Notes                    *string `json:"notes"`
	IsPublished              bool    `json:"is_published"`
	MarkVerified             bool    `json:"mark_verified"`
}

func (in *IncidentInput) Validate() error {
	var errs Errors
	if !dateRe.MatchString(in.Date) {
		errs.add("date", "must be YYYY-MM-DD")
	}
	if strings.TrimSpace(in.City) == "" {
		errs.add("city", "required")
	}
	if !usStates[in.State] {
		errs.add("state", "must be a two-letter US state code or DC")
	}
	if !locationTypes[in.LocationType] {
		errs.add("location_type", "unrecognized value")
	}
	if in.Fatalities < 0 {
		errs.add("fatalities", "must be non-negative")
	}
	if in.Injuries < 0 {
		errs.add("injuries", "must be non-negative")
	}
	if strings.TrimSpace(in.Context) == "" {
		errs.add("context", "required")
	}
	if strings.TrimSpace(in.Description) == "" {
		errs.add("description", "required")
	}
	return errs.Err()
}

// SuspectInput is the composite admin payload: one suspect plus its weapons
// and optional background record, written atomically.
type SuspectInput struct {
	IncidentID  string          `json:"incident_id"`
	SuspectCode *string         `json:"suspect_code"`
	Name        *string         `json:"name"`
	Age         *int            `json:"age"`
	Gender      string          `json:"gender"`
	Race        string          `json:"race"`
	Nationality *string         `json:"nationality"`
	Status      string          `json:"status"`
	Motive      *string         `json:"motive"`
	Notes       *string         `json:"notes"`
	Weapons     []WeaponInput   `json:"weapons"`
	History     *HistoryInput   `json:"history"`
}

type WeaponInput struct {
	Type             string  `json:"type"`
	LegallyPurchased *bool   `json:"legally_purchased"`
	Source           *string `json:"source"`
}

type HistoryInput struct {
	CriminalRecord          *bool `json:"criminal_record"`
	PriorMentalHealthIssues *bool `json:"prior_mental_health_issues"`
	PriorDomesticViolence   *bool `json:"prior_domestic_violence"`
}

func (in *SuspectInput) Validate() error {
	var errs Errors
	if strings.TrimSpace(in.IncidentID) == "" {
		errs.add("incident_id", "required")
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > 120) {
		errs.add("age", "must be between 0 and 120")
	}
	if !genders[in.Gender] {
		errs.add("gender", "unrecognized value")
	}
	if !races[in.Race] {
		errs.add("race", "unrecognized value")
	}
	if !suspectStatuses[in.Status] {
		errs.add("status", "unrecognized value")
	}
	for i, w := range in.Weapons {
		if strings.TrimSpace(w.Type) == "" {
			errs.add(fmt.Sprintf("weapons[%d].type", i), "required")
		}
	}
	return errs.Err()
}

func (in *WeaponInput) Validate() error {
	var errs Errors
	if strings.TrimSpace(in.Type) == "" {
		errs.add("type", "required")
	}
	return errs.Err()
}

// LegislationInput is the decoded admin payload for a legislation record.
type LegislationInput struct {
	Date         string  `json:"date"`
	Jurisdiction string  `json:"jurisdiction"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	Summary      string  `json:"summary"`
	Notes        *string `json:"notes"`
	IsPublished  bool    `json:"is_published"`
	MarkVerified bool    `json:"mark_verified"`
}

func (in *LegislationInput) Validate() error {
	var errs Errors
	if !dateRe.MatchString(in.Date) {
		errs.add("date", "must be YYYY-MM-DD")
	}
	if !usStates[in.Jurisdiction] && in.Jurisdiction != "FEDERAL" {
		errs.add("jurisdiction", "must be a state code, DC, or FEDERAL")
	}
	if strings.TrimSpace(in.Title) == "" {
		errs.add("title", "required")
	}
	if !legislationCategories[in.Category] {
		errs.add("category", "unrecognized value")
	}
	if strings.TrimSpace(in.Summary) == "" {
		errs.add("summary", "required")
	}
	return errs.Err()
}

// CorrectionInput is the anonymous public payload. Status is not part of it:
// submissions always enter as pending. Both record references are optional; a
// general suggestion may point at nothing.
type CorrectionInput struct {
	IncidentID          *string `json:"incident_id"`
	LegislationID       *string `json:"legislation_id"`
	CorrectionType      string  `json:"correction_type"`
	Description         string  `json:"description"`
	SuggestedCorrection *string `json:"suggested_correction"`
	SubmittedBy         *string `json:"submitted_by"`
}

func (in *CorrectionInput) Validate() error {
	var errs Errors
	if !correctionTypes[in.CorrectionType] {
		errs.add("correction_type", "unrecognized value")
	}
	if strings.TrimSpace(in.Description) == "" {
		errs.add("description", "required")
	}
	return errs.Err()
}

// SourceInput is a cited reference for an incident or legislation record.
type SourceInput struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Publisher  string `json:"publisher"`
	AccessedAt string `json:"accessed_at"`
}

func (in *SourceInput) Validate() error {
	var errs Errors
	u, err := url.Parse(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.add("url", "must be an absolute http(s) URL")
	}
	if strings.TrimSpace(in.Title) == "" {
		errs.add("title", "required")
	}
	if strings.TrimSpace(in.Publisher) == "" {
		errs.add("publisher", "required")
	}
	if !dateRe.MatchString(in.AccessedAt) {
		errs.add("accessed_at", "must be YYYY-MM-DD")
	}
	return errs.Err()
}

// ValidState reports whether s is an accepted two-letter state code.
func ValidState(s string) bool { return usStates[s] }

// ValidJurisdiction reports whether s is a state code, DC, or FEDERAL.
func ValidJurisdiction(s string) bool { return usStates[s] || s == "FEDERAL" }

// ValidLocationType reports whether s is an accepted location type.
func ValidLocationType(s string) bool { return locationTypes[s] }
