package postgres

// Schema contains the SQL statements to create the gazetteer schema.
// Every statement uses IF NOT EXISTS so it can be applied on each start.
const Schema = `
CREATE TABLE IF NOT EXISTS lexicon_entries (
    term TEXT NOT NULL,
    match_kind TEXT NOT NULL DEFAULT 'exact'
        CHECK (match_kind IN ('exact', 'prefix', 'suffix')),
    gender TEXT NOT NULL DEFAULT 'unknown',
    multiplicity TEXT NOT NULL DEFAULT 'unknown',
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (term, match_kind)
);

CREATE INDEX IF NOT EXISTS idx_lexicon_entries_term ON lexicon_entries(term);
`

const upsertEntry = `
INSERT INTO lexicon_entries (term, match_kind, gender, multiplicity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (term, match_kind) DO UPDATE SET
    gender = EXCLUDED.gender,
    multiplicity = EXCLUDED.multiplicity,
    updated_at = NOW()
`
