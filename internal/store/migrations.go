package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Recordings table - one row per captured session
		`CREATE TABLE IF NOT EXISTS recordings (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			frame_width INTEGER NOT NULL,
			frame_height INTEGER NOT NULL,
			target_fps REAL NOT NULL DEFAULT 60,
			frames INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Recording frames table - raw estimator output per processed frame
		`CREATE TABLE IF NOT EXISTS recording_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recording_id TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			timestamp_ns INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			hands TEXT NOT NULL DEFAULT '[]',
			UNIQUE(recording_id, sequence)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_recording_frames_recording_id ON recording_frames(recording_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
