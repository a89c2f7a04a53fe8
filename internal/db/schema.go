package db

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'student',
  status TEXT NOT NULL DEFAULT 'pending',
  password_hash TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  level TEXT NOT NULL DEFAULT '',
  tag TEXT NOT NULL DEFAULT '',
  archived INTEGER NOT NULL DEFAULT 0,
  instructor_id TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS modules (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  ordering INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS lessons (
  id TEXT PRIMARY KEY,
  module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL DEFAULT 'article',
  ordering INTEGER NOT NULL DEFAULT 1,
  image_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS enrollments (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  status TEXT NOT NULL DEFAULT 'active',
  enrolled_at INTEGER NOT NULL,
  UNIQUE (user_id, course_id)
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  module_id TEXT REFERENCES modules(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  passing_score INTEGER NOT NULL DEFAULT 70,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_questions (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  prompt_html TEXT NOT NULL DEFAULT '',
  ordering INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS quiz_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES quiz_questions(id) ON DELETE CASCADE,
  text TEXT NOT NULL DEFAULT '',
  is_correct INTEGER NOT NULL DEFAULT 0,
  ordering INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  finished_at INTEGER,
  total_score INTEGER,
  passed INTEGER
);

CREATE TABLE IF NOT EXISTS question_responses (
  id TEXT PRIMARY KEY,
  attempt_id TEXT NOT NULL REFERENCES quiz_attempts(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL,
  option_id TEXT,
  text_answer TEXT,
  is_correct INTEGER,
  answered_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS certificate_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  name_x INTEGER NOT NULL DEFAULT 0,
  name_y INTEGER NOT NULL DEFAULT 0,
  course_x INTEGER NOT NULL DEFAULT 0,
  course_y INTEGER NOT NULL DEFAULT 0,
  date_x INTEGER NOT NULL DEFAULT 0,
  date_y INTEGER NOT NULL DEFAULT 0,
  font_size INTEGER NOT NULL DEFAULT 32,
  font_color TEXT NOT NULL DEFAULT '#000000',
  is_active INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS certificates_issued (
  id TEXT PRIMARY KEY,
  attempt_id TEXT,
  user_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  certificate_url TEXT NOT NULL DEFAULT '',
  issued_at INTEGER NOT NULL,
  UNIQUE (user_id, course_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,
  entity_key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_modules_course ON modules(course_id, ordering);
CREATE INDEX IF NOT EXISTS idx_lessons_module ON lessons(module_id, ordering);
CREATE INDEX IF NOT EXISTS idx_questions_quiz ON quiz_questions(quiz_id, ordering);
CREATE INDEX IF NOT EXISTS idx_options_question ON quiz_options(question_id, ordering);
CREATE INDEX IF NOT EXISTS idx_attempts_quiz_user ON quiz_attempts(quiz_id, user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email_lower ON profiles(LOWER(email));
CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_one_active ON certificate_templates(is_active) WHERE is_active;
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'student',
  status TEXT NOT NULL DEFAULT 'pending',
  password_hash TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  level TEXT NOT NULL DEFAULT '',
  tag TEXT NOT NULL DEFAULT '',
  archived BOOLEAN NOT NULL DEFAULT FALSE,
  instructor_id TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS modules (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  ordering INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS lessons (
  id TEXT PRIMARY KEY,
  module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL DEFAULT 'article',
  ordering INTEGER NOT NULL DEFAULT 1,
  image_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS enrollments (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  status TEXT NOT NULL DEFAULT 'active',
  enrolled_at BIGINT NOT NULL,
  UNIQUE (user_id, course_id)
);

CREATE TABLE IF NOT EXISTS quizzes (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  module_id TEXT REFERENCES modules(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  passing_score INTEGER NOT NULL DEFAULT 70,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_questions (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  prompt_html TEXT NOT NULL DEFAULT '',
  ordering INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS quiz_options (
  id TEXT PRIMARY KEY,
  question_id TEXT NOT NULL REFERENCES quiz_questions(id) ON DELETE CASCADE,
  text TEXT NOT NULL DEFAULT '',
  is_correct BOOLEAN NOT NULL DEFAULT FALSE,
  ordering INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  started_at BIGINT NOT NULL,
  finished_at BIGINT,
  total_score INTEGER,
  passed BOOLEAN
);

CREATE TABLE IF NOT EXISTS question_responses (
  id TEXT PRIMARY KEY,
  attempt_id TEXT NOT NULL REFERENCES quiz_attempts(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL,
  option_id TEXT,
  text_answer TEXT,
  is_correct BOOLEAN,
  answered_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS certificate_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  name_x INTEGER NOT NULL DEFAULT 0,
  name_y INTEGER NOT NULL DEFAULT 0,
  course_x INTEGER NOT NULL DEFAULT 0,
  course_y INTEGER NOT NULL DEFAULT 0,
  date_x INTEGER NOT NULL DEFAULT 0,
  date_y INTEGER NOT NULL DEFAULT 0,
  font_size INTEGER NOT NULL DEFAULT 32,
  font_color TEXT NOT NULL DEFAULT '#000000',
  is_active BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS certificates_issued (
  id TEXT PRIMARY KEY,
  attempt_id TEXT,
  user_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  certificate_url TEXT NOT NULL DEFAULT '',
  issued_at BIGINT NOT NULL,
  UNIQUE (user_id, course_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  entity_key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_modules_course ON modules(course_id, ordering);
CREATE INDEX IF NOT EXISTS idx_lessons_module ON lessons(module_id, ordering);
CREATE INDEX IF NOT EXISTS idx_questions_quiz ON quiz_questions(quiz_id, ordering);
CREATE INDEX IF NOT EXISTS idx_options_question ON quiz_options(question_id, ordering);
CREATE INDEX IF NOT EXISTS idx_attempts_quiz_user ON quiz_attempts(quiz_id, user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email_lower ON profiles(LOWER(email));
CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_one_active ON certificate_templates(is_active) WHERE is_active;
`
