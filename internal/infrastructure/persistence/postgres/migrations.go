package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_profiles",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_progress",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_content",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS profiles (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	job TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	privacy_profile TEXT NOT NULL DEFAULT 'Доступ для всех',
	privacy_stats TEXT NOT NULL DEFAULT 'Доступ для всех',
	privacy_activity TEXT NOT NULL DEFAULT 'Доступ для всех',
	lessons_completed INTEGER NOT NULL DEFAULT 0 CHECK (lessons_completed >= 0),
	tests_completed INTEGER NOT NULL DEFAULT 0 CHECK (tests_completed >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_profiles_username ON profiles (username);
`

const migration001Down = `
DROP TABLE IF EXISTS profiles;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS lesson_progress (
	id BIGSERIAL PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES profiles (id) ON DELETE CASCADE,
	lesson_id BIGINT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_lesson_progress_user ON lesson_progress (user_id, completed_at DESC);
CREATE INDEX IF NOT EXISTS idx_lesson_progress_lesson ON lesson_progress (user_id, lesson_id) WHERE completed;

CREATE TABLE IF NOT EXISTS test_results (
	id BIGSERIAL PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES profiles (id) ON DELETE CASCADE,
	test_id BIGINT NOT NULL,
	score INTEGER NOT NULL CHECK (score >= 0),
	total_questions INTEGER NOT NULL CHECK (total_questions >= 0),
	is_perfect_score BOOLEAN NOT NULL DEFAULT FALSE,
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (score <= total_questions)
);

CREATE INDEX IF NOT EXISTS idx_test_results_user ON test_results (user_id, submitted_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS test_results;
DROP TABLE IF EXISTS lesson_progress;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS lessons (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	level TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0,
	body TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tests (
	id BIGSERIAL PRIMARY KEY,
	lesson_id BIGINT NOT NULL UNIQUE REFERENCES lessons (id) ON DELETE CASCADE,
	title TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS questions (
	id BIGSERIAL PRIMARY KEY,
	test_id BIGINT NOT NULL REFERENCES tests (id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	options JSONB NOT NULL,
	position INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_questions_test ON questions (test_id, position);
`

const migration003Down = `
DROP TABLE IF EXISTS questions;
DROP TABLE IF EXISTS tests;
DROP TABLE IF EXISTS lessons;
`
