package storage

const schemaPosts = `
CREATE TABLE IF NOT EXISTS posts (
    id              VARCHAR PRIMARY KEY,
    slug            VARCHAR NOT NULL,
    title           VARCHAR NOT NULL,
    subtitle        VARCHAR,
    description     VARCHAR,
    body            VARCHAR,
    cover_image     VARCHAR,
    category        VARCHAR NOT NULL,
    status          VARCHAR NOT NULL DEFAULT 'draft',
    featured        BOOLEAN NOT NULL DEFAULT FALSE,
    popular         BOOLEAN NOT NULL DEFAULT FALSE,
    show_updated_at BOOLEAN NOT NULL DEFAULT FALSE,
    scheduled_at    TIMESTAMP,
    published_at    TIMESTAMP,
    author_id       VARCHAR,
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const schemaLeads = `
CREATE TABLE IF NOT EXISTS leads (
    id              VARCHAR PRIMARY KEY,
    name            VARCHAR NOT NULL,
    whatsapp        VARCHAR NOT NULL,
    article_url     VARCHAR,
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const indexPosts = `
CREATE INDEX IF NOT EXISTS idx_posts_slug ON posts(slug);
CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category);
CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at);
`

const indexLeads = `
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`
