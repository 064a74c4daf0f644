package store

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	owner_id      TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL,
	filename      TEXT NOT NULL DEFAULT '',
	total_pages   INTEGER NOT NULL DEFAULT 0,
	theme         TEXT NOT NULL DEFAULT 'light',
	content_hash  TEXT NOT NULL DEFAULT '',
	toc           TEXT NOT NULL DEFAULT '[]',
	toc_source    TEXT NOT NULL DEFAULT '',
	file_data     BLOB,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(owner_id, content_hash);

CREATE TABLE IF NOT EXISTS blocks (
	id            TEXT PRIMARY KEY,
	doc_id        TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	page_number   INTEGER NOT NULL,
	block_order   INTEGER NOT NULL,
	block_type    TEXT NOT NULL,
	text          TEXT NOT NULL DEFAULT '',
	image_path    TEXT NOT NULL DEFAULT '',
	image_data    BLOB,
	words_meta    TEXT NOT NULL DEFAULT '[]',
	style_runs    TEXT NOT NULL DEFAULT '[]',
	position_meta TEXT NOT NULL DEFAULT '[0,0,0,0]'
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_doc_block ON blocks(doc_id, page_number, block_order);

CREATE TABLE IF NOT EXISTS annotations (
	id               TEXT PRIMARY KEY,
	doc_id           TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	block_id         TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
	start_word_index INTEGER NOT NULL,
	end_word_index   INTEGER NOT NULL,
	annotation_type  TEXT NOT NULL DEFAULT 'highlight',
	color            TEXT NOT NULL DEFAULT '#ffeb3b',
	font_size        TEXT NOT NULL DEFAULT '',
	font_style       TEXT NOT NULL DEFAULT '',
	note             TEXT NOT NULL DEFAULT '',
	user_id          TEXT NOT NULL,
	is_shared        INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_annotations_doc ON annotations(doc_id);
`
