package db

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    DATETIME DEFAULT (datetime('now')),
    last_seen_at  DATETIME
);

CREATE TABLE IF NOT EXISTS incidents (
    id                          TEXT PRIMARY KEY,
    incident_code               TEXT UNIQUE,
    date                        TEXT NOT NULL,
    city                        TEXT NOT NULL,
    state                       TEXT NOT NULL CHECK(length(state) = 2),
    location_type               TEXT NOT NULL CHECK(location_type IN ('school','public_space','private_residence','workplace','other')),
    fatalities                  INTEGER NOT NULL DEFAULT 0 CHECK(fatalities >= 0),
    injuries                    INTEGER NOT NULL DEFAULT 0 CHECK(injuries >= 0),
    involves_children           INTEGER NOT NULL DEFAULT 0 CHECK(involves_children IN (0,1)),
    involves_women_and_children INTEGER NOT NULL DEFAULT 0 CHECK(involves_women_and_children IN (0,1)),
    hate_crime                  INTEGER NOT NULL DEFAULT 0 CHECK(hate_crime IN (0,1)),
    hate_crime_target           TEXT,
    context                     TEXT NOT NULL,
    description                 TEXT NOT NULL,
    notes                       TEXT,
    is_published                INTEGER NOT NULL DEFAULT 0 CHECK(is_published IN (0,1)),
    last_verified_at            DATETIME,
    created_at                  DATETIME DEFAULT (datetime('now')),
    updated_at                  DATETIME DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_incidents_state ON incidents(state);
CREATE INDEX IF NOT EXISTS idx_incidents_date ON incidents(date);
CREATE INDEX IF NOT EXISTS idx_incidents_published ON incidents(is_published) WHERE is_published = 1;

CREATE TABLE IF NOT EXISTS suspects (
    id            TEXT PRIMARY KEY,
    incident_id   TEXT NOT NULL REFERENCES incidents(id) ON DELETE CASCADE,
    suspect_code  TEXT,
    name          TEXT,
    age           INTEGER CHECK(age IS NULL OR (age >= 0 AND age <= 120)),
    gender        TEXT NOT NULL DEFAULT 'unknown' CHECK(gender IN ('male','female','nonbinary','unknown')),
    race          TEXT NOT NULL DEFAULT 'Unknown' CHECK(race IN ('White','Black','Latino','Asian','Native','Other','Unknown')),
    nationality   TEXT,
    status        TEXT NOT NULL DEFAULT 'unknown' CHECK(status IN ('apprehended','killed_by_self','killed_by_police','at_large','deceased_other','unknown')),
    motive        TEXT,
    notes         TEXT,
    created_at    DATETIME DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_suspects_incident ON suspects(incident_id);

CREATE TABLE IF NOT EXISTS suspect_weapons (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    suspect_id        TEXT NOT NULL REFERENCES suspects(id) ON DELETE CASCADE,
    type              TEXT NOT NULL CHECK(length(type) > 0),
    legally_purchased INTEGER CHECK(legally_purchased IS NULL OR legally_purchased IN (0,1)),
    source            TEXT
);
CREATE INDEX IF NOT EXISTS idx_weapons_suspect ON suspect_weapons(suspect_id);

CREATE TABLE IF NOT EXISTS suspect_prior_history (
    suspect_id                 TEXT PRIMARY KEY REFERENCES suspects(id) ON DELETE CASCADE,
    criminal_record            INTEGER CHECK(criminal_record IS NULL OR criminal_record IN (0,1)),
    prior_mental_health_issues INTEGER CHECK(prior_mental_health_issues IS NULL OR prior_mental_health_issues IN (0,1)),
    prior_domestic_violence    INTEGER CHECK(prior_domestic_violence IS NULL OR prior_domestic_violence IN (0,1))
);

CREATE TABLE IF NOT EXISTS legislation (
    id               TEXT PRIMARY KEY,
    law_code         TEXT UNIQUE,
    date             TEXT NOT NULL,
    jurisdiction     TEXT NOT NULL,
    title            TEXT NOT NULL,
    category         TEXT NOT NULL CHECK(category IN ('regulation','rights_expansion','background_checks','assault_weapon_ban','concealed_carry','red_flag','other')),
    summary          TEXT NOT NULL,
    notes            TEXT,
    is_published     INTEGER NOT NULL DEFAULT 0 CHECK(is_published IN (0,1)),
    last_verified_at DATETIME,
    created_at       DATETIME DEFAULT (datetime('now')),
    updated_at       DATETIME DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_legislation_jurisdiction ON legislation(jurisdiction);

CREATE TABLE IF NOT EXISTS incident_sources (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    incident_id TEXT NOT NULL REFERENCES incidents(id) ON DELETE CASCADE,
    url         TEXT NOT NULL,
    title       TEXT NOT NULL,
    publisher   TEXT NOT NULL,
    accessed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_incident_sources_incident ON incident_sources(incident_id);

CREATE TABLE IF NOT EXISTS legislation_sources (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    legislation_id TEXT NOT NULL REFERENCES legislation(id) ON DELETE CASCADE,
    url            TEXT NOT NULL,
    title          TEXT NOT NULL,
    publisher      TEXT NOT NULL,
    accessed_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_legislation_sources_legislation ON legislation_sources(legislation_id);

CREATE TABLE IF NOT EXISTS corrections (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    incident_id          TEXT REFERENCES incidents(id) ON DELETE SET NULL,
    legislation_id       TEXT REFERENCES legislation(id) ON DELETE SET NULL,
    correction_type      TEXT NOT NULL CHECK(correction_type IN ('factual_error','missing_info','suggestion')),
    description          TEXT NOT NULL CHECK(length(description) > 0),
    suggested_correction TEXT,
    status               TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','reviewed','accepted','rejected')),
    submitted_by         TEXT,
    reviewed_by          TEXT,
    reviewed_at          DATETIME,
    notes                TEXT,
    created_at           DATETIME DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_corrections_status ON corrections(status);

CREATE TABLE IF NOT EXISTS admin_allowlist (
    email      TEXT PRIMARY KEY,
    created_at DATETIME DEFAULT (datetime('now')),
    added_by   TEXT
);

-- Append-only mutation trail. Written by this layer inside the same
-- transaction as every admin mutation; no update or delete path exists.
CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    table_name  TEXT NOT NULL,
    row_id      TEXT NOT NULL,
    action      TEXT NOT NULL CHECK(action IN ('insert','update','delete')),
    actor_email TEXT NOT NULL,
    diff        TEXT NOT NULL DEFAULT '{}',
    created_at  DATETIME DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_audit_log_table ON audit_log(table_name);
CREATE INDEX IF NOT EXISTS idx_audit_log_time ON audit_log(created_at);

-- Public-safe projections. Anonymous reads go through these, never the base
-- tables: incidents additionally require a verification timestamp.
CREATE VIEW IF NOT EXISTS v_incidents AS
    SELECT id, incident_code, date, city, state, location_type, fatalities, injuries,
           involves_children, involves_women_and_children, hate_crime, hate_crime_target,
           context, description, last_verified_at
    FROM incidents
    WHERE is_published = 1 AND last_verified_at IS NOT NULL;

CREATE VIEW IF NOT EXISTS v_legislation AS
    SELECT id, law_code, date, jurisdiction, title, category, summary, last_verified_at
    FROM legislation
    WHERE is_published = 1;

CREATE VIEW IF NOT EXISTS v_suspects AS
    SELECT s.id, s.incident_id, s.suspect_code, s.age, s.gender, s.race, s.status, s.motive
    FROM suspects s
    JOIN v_incidents i ON i.id = s.incident_id;

CREATE VIEW IF NOT EXISTS v_suspect_weapons AS
    SELECT w.id, w.suspect_id, w.type, w.legally_purchased, w.source
    FROM suspect_weapons w
    JOIN v_suspects s ON s.id = w.suspect_id;

-- Aggregates for the stats endpoints. The managed deployment materializes
-- these; here they are plain views over v_incidents.
CREATE VIEW IF NOT EXISTS mv_stats_yearly AS
    SELECT substr(date, 1, 4) AS year,
           COUNT(*) AS incident_count,
           SUM(fatalities) AS fatalities,
           SUM(injuries) AS injuries
    FROM v_incidents
    GROUP BY substr(date, 1, 4)
    ORDER BY year DESC;

CREATE VIEW IF NOT EXISTS mv_stats_by_state AS
    SELECT state,
           COUNT(*) AS incident_count,
           SUM(fatalities) AS fatalities,
           SUM(injuries) AS injuries
    FROM v_incidents
    GROUP BY state
    ORDER BY state;

CREATE VIEW IF NOT EXISTS mv_deadliest_incidents AS
    SELECT id, incident_code, date, city, state, location_type, fatalities, injuries
    FROM v_incidents
    ORDER BY fatalities DESC, injuries DESC;

CREATE VIEW IF NOT EXISTS mv_monthly_trends AS
    SELECT substr(date, 1, 7) AS month,
           COUNT(*) AS incident_count,
           SUM(fatalities) AS fatalities,
           SUM(injuries) AS injuries
    FROM v_incidents
    GROUP BY substr(date, 1, 7)
    ORDER BY month DESC;
`
