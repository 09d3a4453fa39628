// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package record writes samples to a SQLite database, one session per run.
package record

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/relabs-tech/gx3_bridge/internal/imu"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id        TEXT PRIMARY KEY,
		frame_id          TEXT,
		port              TEXT,
		started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		ended_at          TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS samples (
		session_id        TEXT,
		seq               BIGINT,
		stamp_ns          BIGINT,
		device_ticks      BIGINT,
		accel_x           DOUBLE,
		accel_y           DOUBLE,
		accel_z           DOUBLE,
		gyro_x            DOUBLE,
		gyro_y            DOUBLE,
		gyro_z            DOUBLE,
		mag_x             DOUBLE,
		mag_y             DOUBLE,
		mag_z             DOUBLE,
		qw                DOUBLE,
		qx                DOUBLE,
		qy                DOUBLE,
		qz                DOUBLE,
		PRIMARY KEY (session_id, seq),
		FOREIGN KEY(session_id) REFERENCES sessions(session_id)
	);
`

// Recorder is an imu.Sink that stores every sample under one session id.
type Recorder struct {
	mu      sync.Mutex
	db      *sql.DB
	session string
}

// Open creates the tables if needed and starts a new session.
func Open(path, frameID, port string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps :memory: databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("record: create tables: %w", err)
	}

	r := &Recorder{db: db, session: uuid.New().String()}
	if _, err := db.Exec(
		`INSERT INTO sessions (session_id, frame_id, port) VALUES (?, ?, ?)`,
		r.session, frameID, port,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("record: start session: %w", err)
	}
	return r, nil
}

// Session returns the id samples are stored under.
func (r *Recorder) Session() string {
	return r.session
}

// Emit implements imu.Sink.
func (r *Recorder) Emit(s imu.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT INTO samples (
			session_id, seq, stamp_ns, device_ticks,
			accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z,
			mag_x, mag_y, mag_z, qw, qx, qy, qz
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.session, int64(s.Seq), s.Stamp.UnixNano(), s.DeviceTicks,
		s.Acceleration.X, s.Acceleration.Y, s.Acceleration.Z,
		s.AngularVelocity.X, s.AngularVelocity.Y, s.AngularVelocity.Z,
		s.MagneticField.X, s.MagneticField.Y, s.MagneticField.Z,
		s.Orientation.W, s.Orientation.X, s.Orientation.Y, s.Orientation.Z,
	)
	if err != nil {
		return fmt.Errorf("record: insert sample %d: %w", s.Seq, err)
	}
	return nil
}

// Count returns how many samples the current session holds.
func (r *Recorder) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM samples WHERE session_id = ?`, r.session).Scan(&n)
	return n, err
}

// Samples returns the stored samples of the current session in seq order.
// FrameID is not stored per sample and comes back empty.
func (r *Recorder) Samples() ([]imu.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		`SELECT seq, stamp_ns, device_ticks,
			accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z,
			mag_x, mag_y, mag_z, qw, qx, qy, qz
		FROM samples WHERE session_id = ? ORDER BY seq`, r.session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []imu.Sample
	for rows.Next() {
		var s imu.Sample
		var seq, stamp int64
		if err := rows.Scan(&seq, &stamp, &s.DeviceTicks,
			&s.Acceleration.X, &s.Acceleration.Y, &s.Acceleration.Z,
			&s.AngularVelocity.X, &s.AngularVelocity.Y, &s.AngularVelocity.Z,
			&s.MagneticField.X, &s.MagneticField.Y, &s.MagneticField.Z,
			&s.Orientation.W, &s.Orientation.X, &s.Orientation.Y, &s.Orientation.Z,
		); err != nil {
			return nil, err
		}
		s.Seq = uint64(seq)
		s.Stamp = time.Unix(0, stamp)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close ends the session and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`UPDATE sessions SET ended_at = CURRENT_TIMESTAMP WHERE session_id = ?`, r.session)
	if cerr := r.db.Close(); err == nil {
		err = cerr
	}
	return err
}
