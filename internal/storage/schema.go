package storage

const schemaSQL = `
-- Site profiles are versioned: every save inserts a new row, and
-- retrieval picks the best one per domain. Never UPDATE in place
-- except for usage feedback.
CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    domain TEXT NOT NULL,
    pattern TEXT,
    main_content_selector TEXT,
    title_selector TEXT,
    comments_selector TEXT,
    extraction_mode TEXT NOT NULL,
    confidence REAL NOT NULL DEFAULT 0,
    use_count INTEGER NOT NULL DEFAULT 0,
    success_rate REAL NOT NULL DEFAULT 1.0,
    created_at DATETIME NOT NULL,
    last_used DATETIME NOT NULL,
    notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_profiles_domain ON profiles(domain);
CREATE INDEX IF NOT EXISTS idx_profiles_confidence ON profiles(confidence DESC);

-- One row per deep-scrape run. Aggregate payloads (config, page results,
-- errors, domains) are stored as JSON; the crawl tree gets its own table.
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    start_time DATETIME NOT NULL,
    end_time DATETIME NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('running', 'completed', 'partially_completed', 'failed')),
    total_pages_crawled INTEGER NOT NULL DEFAULT 0,
    total_links_discovered INTEGER NOT NULL DEFAULT 0,
    total_links_filtered INTEGER NOT NULL DEFAULT 0,
    config_json TEXT NOT NULL,
    page_results_json TEXT NOT NULL,
    domains_json TEXT NOT NULL,
    errors_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_time DESC);

CREATE TABLE IF NOT EXISTS crawl_nodes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    depth INTEGER NOT NULL,
    parent TEXT,
    children_json TEXT NOT NULL,
    scraped INTEGER NOT NULL DEFAULT 0,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_crawl_nodes_session ON crawl_nodes(session_id);
`
