package storage

const schema = `
-- The 'solves' table is the imported corpus of reconstructed attempts.
-- The SRS engine references these rows but never edits them.
CREATE TABLE IF NOT EXISTS solves (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    solver TEXT NOT NULL,
    result REAL NOT NULL,
    competition TEXT,
    solve_date DATETIME,
    scramble TEXT NOT NULL,
    reconstruction TEXT NOT NULL,
    cross_type TEXT,
    stm_cross INTEGER,
    stm_pair1 INTEGER,
    stm_pair2 INTEGER,
    stm_pair3 INTEGER,
    stm_f2l INTEGER,
    stm_total INTEGER,
    hash TEXT NOT NULL UNIQUE,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- One scheduled unit per (solve, depth). Scheduling fields change only
-- inside a review transaction or an activation toggle.
CREATE TABLE IF NOT EXISTS srs_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    solve_id INTEGER NOT NULL,
    depth INTEGER NOT NULL,
    ease_factor REAL NOT NULL,
    interval_days INTEGER NOT NULL DEFAULT 0,
    next_review_at DATETIME,
    times_correct INTEGER NOT NULL DEFAULT 0,
    times_incorrect INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    notes TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,

    UNIQUE(solve_id, depth),
    FOREIGN KEY(solve_id) REFERENCES solves(id)
);

-- Append-only review history. Rows are never updated.
CREATE TABLE IF NOT EXISTS srs_reviews (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    srs_item_id INTEGER NOT NULL,
    quality INTEGER NOT NULL,
    response_time_ms INTEGER,
    reviewed_at DATETIME NOT NULL,
    user_solution TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',

    FOREIGN KEY(srs_item_id) REFERENCES srs_items(id) ON DELETE CASCADE
);

-- Pre-generated practice scrambles, keyed by cross move count.
CREATE TABLE IF NOT EXISTS scrambles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    moves INTEGER NOT NULL,
    scramble TEXT NOT NULL UNIQUE
);

-- Where corpus solves come from: a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);

CREATE INDEX IF NOT EXISTS idx_srs_items_due ON srs_items(is_active, next_review_at);
CREATE INDEX IF NOT EXISTS idx_srs_reviews_item ON srs_reviews(srs_item_id);
CREATE INDEX IF NOT EXISTS idx_srs_reviews_at ON srs_reviews(reviewed_at);
CREATE INDEX IF NOT EXISTS idx_scrambles_moves ON scrambles(moves);
`
