package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func testIncident() *Incident {
	return &Incident{
		Date:         "2024-03-15",
		City:         "Springfield",
		State:        "IL",
		LocationType: "public_space",
		Fatalities:   5,
		Injuries:     3,
		Context:      "Shooting at a downtown festival",
		Description:  "Gunfire broke out during an evening street festival.",
	}
}

func TestIncidentRoundTrip(t *testing.T) {
	database := newTestDB(t)

	created, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Nil(t, created.IncidentCode, "draft should have no code")
	assert.False(t, created.IsPublished)

	got, err := database.GetIncident(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Springfield", got.City)
	assert.Equal(t, 5, got.Fatalities)
}

func TestPublishGuard(t *testing.T) {
	database := newTestDB(t)

	t.Run("BelowThresholdRejected", func(t *testing.T) {
		in := testIncident()
		in.Fatalities = 2
		in.Injuries = 1
		in.IsPublished = true
		_, err := database.CreateIncident(in, "admin@example.com")
		assert.ErrorIs(t, err, ErrPublishGuard)
	})

	t.Run("ExactThresholdAllowed", func(t *testing.T) {
		in := testIncident()
		in.Fatalities = 2
		in.Injuries = 2
		in.IsPublished = true
		created, err := database.CreateIncident(in, "admin@example.com")
		require.NoError(t, err)
		assert.True(t, created.IsPublished)
	})

	t.Run("DraftBelowThresholdAllowed", func(t *testing.T) {
		in := testIncident()
		in.Fatalities = 1
		in.Injuries = 0
		created, err := database.CreateIncident(in, "admin@example.com")
		require.NoError(t, err)
		assert.False(t, created.IsPublished)
	})

	t.Run("UpdateToPublishedChecked", func(t *testing.T) {
		in := testIncident()
		in.Fatalities = 1
		in.Injuries = 1
		created, err := database.CreateIncident(in, "admin@example.com")
		require.NoError(t, err)

		created.IsPublished = true
		_, err = database.UpdateIncident(created, "admin@example.com")
		assert.ErrorIs(t, err, ErrPublishGuard)
	})
}

func TestIncidentCodeAssignedOnFirstPublish(t *testing.T) {
	database := newTestDB(t)

	created, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)
	require.Nil(t, created.IncidentCode)

	created.IsPublished = true
	published, err := database.UpdateIncident(created, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, published.IncidentCode)
	assert.Equal(t, "MS-2024-001", *published.IncidentCode)

	// Unpublishing and republishing must not mint a new code.
	published.IsPublished = false
	draft, err := database.UpdateIncident(published, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, draft.IncidentCode)

	draft.IsPublished = true
	again, err := database.UpdateIncident(draft, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "MS-2024-001", *again.IncidentCode)

	// A second published incident in the same year gets the next sequence.
	other := testIncident()
	other.IsPublished = true
	second, err := database.CreateIncident(other, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, second.IncidentCode)
	assert.Equal(t, "MS-2024-002", *second.IncidentCode)
}

func TestIncidentCodeSequenceSurvivesDeletes(t *testing.T) {
	database := newTestDB(t)

	publish := func() *Incident {
		in := testIncident()
		in.IsPublished = true
		created, err := database.CreateIncident(in, "admin@example.com")
		require.NoError(t, err)
		require.NotNil(t, created.IncidentCode)
		return created
	}

	first := publish()
	second := publish()
	assert.Equal(t, "MS-2024-001", *first.IncidentCode)
	assert.Equal(t, "MS-2024-002", *second.IncidentCode)

	// Deleting an earlier published incident must not free its number:
	// the next publish continues the sequence instead of colliding.
	require.NoError(t, database.DeleteIncident(first.ID, "admin@example.com"))

	third := publish()
	assert.Equal(t, "MS-2024-003", *third.IncidentCode)
}

func TestDeleteIncidentCascades(t *testing.T) {
	database := newTestDB(t)

	incident, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)

	suspect, err := database.CreateSuspect(&SuspectWithDetails{
		Suspect: Suspect{
			IncidentID: incident.ID,
			Gender:     "male",
			Race:       "Unknown",
			Status:     "apprehended",
		},
		Weapons: []Weapon{{Type: "handgun"}},
		History: &PriorHistory{},
	}, "admin@example.com")
	require.NoError(t, err)

	require.NoError(t, database.DeleteIncident(incident.ID, "admin@example.com"))

	_, err = database.GetSuspect(suspect.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	weapons, err := database.ListWeaponsBySuspect(suspect.ID)
	require.NoError(t, err)
	assert.Empty(t, weapons)
}

func TestDeleteIncidentNotFound(t *testing.T) {
	database := newTestDB(t)
	err := database.DeleteIncident("no-such-id", "admin@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSuspectCompositeAtomicity(t *testing.T) {
	database := newTestDB(t)

	incident, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)

	// The second weapon violates the non-empty type constraint; the whole
	// write must roll back, including the suspect row and the first weapon.
	_, err = database.CreateSuspect(&SuspectWithDetails{
		Suspect: Suspect{
			IncidentID: incident.ID,
			Gender:     "unknown",
			Race:       "Unknown",
			Status:     "unknown",
		},
		Weapons: []Weapon{{Type: "rifle"}, {Type: ""}},
	}, "admin@example.com")
	require.Error(t, err)

	suspects, err := database.GetSuspectsByIncident(incident.ID)
	require.NoError(t, err)
	assert.Empty(t, suspects, "failed composite write must leave nothing behind")
}

func TestSuspectUpdateReplacesWeapons(t *testing.T) {
	database := newTestDB(t)

	incident, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)

	yes := true
	suspect, err := database.CreateSuspect(&SuspectWithDetails{
		Suspect: Suspect{
			IncidentID: incident.ID,
			Gender:     "male",
			Race:       "White",
			Status:     "apprehended",
		},
		Weapons: []Weapon{{Type: "handgun", LegallyPurchased: &yes}, {Type: "rifle"}},
	}, "admin@example.com")
	require.NoError(t, err)
	require.Len(t, suspect.Weapons, 2)

	suspect.Weapons = []Weapon{{Type: "shotgun"}}
	updated, err := database.UpdateSuspect(suspect, "admin@example.com")
	require.NoError(t, err)
	require.Len(t, updated.Weapons, 1)
	assert.Equal(t, "shotgun", updated.Weapons[0].Type)
}

func TestSuspectHistoryTriState(t *testing.T) {
	database := newTestDB(t)

	incident, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)

	yes, no := true, false
	suspect, err := database.CreateSuspect(&SuspectWithDetails{
		Suspect: Suspect{
			IncidentID: incident.ID,
			Gender:     "unknown",
			Race:       "Unknown",
			Status:     "unknown",
		},
		History: &PriorHistory{
			CriminalRecord:        &yes,
			PriorDomesticViolence: &no,
		},
	}, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, suspect.History)
	require.NotNil(t, suspect.History.CriminalRecord)
	assert.True(t, *suspect.History.CriminalRecord)
	assert.Nil(t, suspect.History.PriorMentalHealthIssues, "unset stays unknown")
	require.NotNil(t, suspect.History.PriorDomesticViolence)
	assert.False(t, *suspect.History.PriorDomesticViolence)
}

func testLegislation() *Legislation {
	return &Legislation{
		Date:         "2023-06-01",
		Jurisdiction: "CA",
		Title:        "Assault Weapons Registration Act",
		Category:     "assault_weapon_ban",
		Summary:      "Requires registration of assault-style rifles.",
	}
}

func TestLegislationCodeAssignedOnFirstPublish(t *testing.T) {
	database := newTestDB(t)

	created, err := database.CreateLegislation(testLegislation(), "admin@example.com")
	require.NoError(t, err)
	assert.Nil(t, created.LawCode)

	created.IsPublished = true
	published, err := database.UpdateLegislation(created, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, published.LawCode)
	assert.Equal(t, "GL-CA-2023-001", *published.LawCode)

	fed := testLegislation()
	fed.Jurisdiction = "FEDERAL"
	fed.IsPublished = true
	fedLaw, err := database.CreateLegislation(fed, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, fedLaw.LawCode)
	assert.Equal(t, "GL-FEDERAL-2023-001", *fedLaw.LawCode)
}

func TestLawCodeSequenceSurvivesDeletes(t *testing.T) {
	database := newTestDB(t)

	publish := func() *Legislation {
		l := testLegislation()
		l.IsPublished = true
		created, err := database.CreateLegislation(l, "admin@example.com")
		require.NoError(t, err)
		require.NotNil(t, created.LawCode)
		return created
	}

	first := publish()
	second := publish()
	assert.Equal(t, "GL-CA-2023-001", *first.LawCode)
	assert.Equal(t, "GL-CA-2023-002", *second.LawCode)

	require.NoError(t, database.DeleteLegislation(first.ID, "admin@example.com"))

	third := publish()
	assert.Equal(t, "GL-CA-2023-003", *third.LawCode)
}

func TestCorrectionAlwaysPending(t *testing.T) {
	database := newTestDB(t)

	incident, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)

	c := &Correction{
		IncidentID:     &incident.ID,
		CorrectionType: "factual_error",
		Description:    "The injury count is wrong.",
		Status:         "accepted", // must be ignored
	}
	id, err := database.InsertCorrection(c)
	require.NoError(t, err)

	got, err := database.GetCorrection(id)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	assert.Nil(t, got.ReviewedAt)
}

func TestCorrectionTransitions(t *testing.T) {
	database := newTestDB(t)

	incident, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)

	id, err := database.InsertCorrection(&Correction{
		IncidentID:     &incident.ID,
		CorrectionType: "missing_info",
		Description:    "A second suspect was reported.",
	})
	require.NoError(t, err)

	t.Run("InvalidStatusRejected", func(t *testing.T) {
		_, err := database.TransitionCorrection(id, "archived", nil, nil, "admin@example.com")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("AcceptStampsReview", func(t *testing.T) {
		notes := "Confirmed against two sources."
		reviewer := "admin@example.com"
		updated, err := database.TransitionCorrection(id, "accepted", &notes, &reviewer, reviewer)
		require.NoError(t, err)
		assert.Equal(t, "accepted", updated.Status)
		require.NotNil(t, updated.ReviewedAt)
		require.NotNil(t, updated.ReviewedBy)
		assert.Equal(t, reviewer, *updated.ReviewedBy)
		require.NotNil(t, updated.Notes)
		assert.Equal(t, notes, *updated.Notes)
	})

	t.Run("MissingRowIsNoRows", func(t *testing.T) {
		_, err := database.TransitionCorrection(9999, "rejected", nil, nil, "admin@example.com")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestCorrectionListFilters(t *testing.T) {
	database := newTestDB(t)

	incident, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)

	for _, ctype := range []string{"factual_error", "missing_info", "suggestion"} {
		_, err := database.InsertCorrection(&Correction{
			IncidentID:     &incident.ID,
			CorrectionType: ctype,
			Description:    "something about " + ctype,
		})
		require.NoError(t, err)
	}

	all, err := database.ListCorrections("", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// "all" behaves like no filter
	all2, err := database.ListCorrections("all", "all", 0)
	require.NoError(t, err)
	assert.Len(t, all2, 3)

	onlySuggestions, err := database.ListCorrections("pending", "suggestion", 0)
	require.NoError(t, err)
	require.Len(t, onlySuggestions, 1)
	assert.Equal(t, "suggestion", onlySuggestions[0].CorrectionType)

	// Joined reference summary
	require.NotNil(t, onlySuggestions[0].IncidentCity)
	assert.Equal(t, "Springfield", *onlySuggestions[0].IncidentCity)
}

func TestAllowlist(t *testing.T) {
	database := newTestDB(t)

	assert.False(t, database.IsAdmin("nobody@example.com"))

	require.NoError(t, database.AddAllowlistEntry("admin@example.com", "bootstrap"))
	assert.True(t, database.IsAdmin("admin@example.com"))

	entries, err := database.ListAllowlist()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].AddedBy)
	assert.Equal(t, "bootstrap", *entries[0].AddedBy)

	require.NoError(t, database.RemoveAllowlistEntry("admin@example.com", "admin@example.com"))
	assert.False(t, database.IsAdmin("admin@example.com"))

	err = database.RemoveAllowlistEntry("admin@example.com", "admin@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAuditTrail(t *testing.T) {
	database := newTestDB(t)

	incident, err := database.CreateIncident(testIncident(), "curator@example.com")
	require.NoError(t, err)
	incident.City = "Shelbyville"
	_, err = database.UpdateIncident(incident, "curator@example.com")
	require.NoError(t, err)
	require.NoError(t, database.DeleteIncident(incident.ID, "curator@example.com"))

	entries, err := database.ListAuditEntries("incidents", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, "update", entries[1].Action)
	assert.Equal(t, "insert", entries[2].Action)
	for _, e := range entries {
		assert.Equal(t, incident.ID, e.RowID)
		assert.Equal(t, "curator@example.com", e.ActorEmail)
	}
}

func TestAuditTrailPublicActor(t *testing.T) {
	database := newTestDB(t)

	_, err := database.InsertCorrection(&Correction{
		CorrectionType: "suggestion",
		Description:    "Consider adding county data.",
	})
	require.NoError(t, err)

	entries, err := database.ListAuditEntries("corrections", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "public", entries[0].ActorEmail)
}

func TestSources(t *testing.T) {
	database := newTestDB(t)

	incident, err := database.CreateIncident(testIncident(), "admin@example.com")
	require.NoError(t, err)

	src, err := database.AddIncidentSource(&Source{
		ParentID:   incident.ID,
		URL:        "https://news.example.com/story",
		Title:      "Festival shooting leaves five dead",
		Publisher:  "Example News",
		AccessedAt: "2024-03-16",
	}, "admin@example.com")
	require.NoError(t, err)
	require.NotZero(t, src.ID)

	sources, err := database.ListIncidentSources(incident.ID)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Example News", sources[0].Publisher)

	require.NoError(t, database.DeleteIncidentSource(src.ID, "admin@example.com"))
	sources, err = database.ListIncidentSources(incident.ID)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestUsers(t *testing.T) {
	database := newTestDB(t)

	user, err := database.CreateUser(CreateUserInput{
		Email:        "curator@example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	got, hash, err := database.GetUserByEmail("curator@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "$2a$10$fakehashfakehashfakehash", hash)

	_, err = database.CreateUser(CreateUserInput{
		Email:        "curator@example.com",
		PasswordHash: "other",
	})
	assert.Error(t, err, "duplicate email must be rejected")
}
