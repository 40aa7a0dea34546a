// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store saves flattened benchmark results to a SQL database
// so that frontiers from different experiments can be compared later.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"text/template"

	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/runkey"
)

// DB is a database of experiments. It's safe for concurrent use by
// multiple goroutines.
type DB struct {
	sql *sql.DB
	// prepared statements
	insertExperiment *sql.Stmt
	insertConfig     *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is evaluated with . as a map containing one entry whose
// key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Experiments (
	ExperimentID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Name VARCHAR(255),
	DataSource VARCHAR(1024),
	KeySchema VARCHAR(1024),
	Objectives VARCHAR(1024)
);
CREATE TABLE IF NOT EXISTS Configurations (
	ExperimentID BIGINT UNSIGNED,
	ConfigID BIGINT UNSIGNED,
	ConfigKey VARCHAR(255),
	OnFrontier BOOLEAN,
	PRIMARY KEY (ExperimentID, ConfigID),
	FOREIGN KEY (ExperimentID) REFERENCES Experiments(ExperimentID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS ConfigurationMetrics (
	ExperimentID BIGINT UNSIGNED,
	ConfigID BIGINT UNSIGNED,
	Metric VARCHAR(64),
	Value DOUBLE,
	PRIMARY KEY (ExperimentID, ConfigID, Metric),
	FOREIGN KEY (ExperimentID, ConfigID) REFERENCES Configurations(ExperimentID, ConfigID) ON UPDATE CASCADE ON DELETE CASCADE
);
`))

// createTables creates any missing tables. driverName selects the
// SQL dialect.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

func (db *DB) prepareStatements() error {
	var err error
	db.insertExperiment, err = db.sql.Prepare("INSERT INTO Experiments(Name, DataSource, KeySchema, Objectives) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertConfig, err = db.sql.Prepare("INSERT INTO Configurations(ExperimentID, ConfigID, ConfigKey, OnFrontier) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// An Experiment describes one saved set of rows.
type Experiment struct {
	ID         int64
	Name       string
	DataSource string
	// Schema is the key template, as returned by runkey.Schema.String.
	Schema string
	// Objectives describes the Pareto objectives the frontier flags
	// were computed with.
	Objectives string
}

// SaveRows stores rows as a new experiment and returns its ID. The
// rows must all have keys from the same schema. Non-finite metric
// values are not stored.
func (db *DB) SaveRows(ctx context.Context, exp Experiment, rows []dataset.Row) (id int64, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.StmtContext(ctx, db.insertExperiment).ExecContext(ctx, exp.Name, exp.DataSource, exp.Schema, exp.Objectives)
	if err != nil {
		return 0, err
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	insertConfig := tx.StmtContext(ctx, db.insertConfig)
	for i, row := range rows {
		if _, err := insertConfig.ExecContext(ctx, id, i, row.Key.String(), row.OnFrontier); err != nil {
			return 0, err
		}
		var args []interface{}
		for _, m := range row.Metrics.Metrics() {
			v := row.Metrics[m]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			args = append(args, id, i, m.String(), v)
		}
		if len(args) == 0 {
			continue
		}
		query := "INSERT INTO ConfigurationMetrics(ExperimentID, ConfigID, Metric, Value) VALUES " +
			strings.TrimSuffix(strings.Repeat("(?, ?, ?, ?), ", len(args)/4), ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Experiment returns the experiment with the given ID.
func (db *DB) Experiment(ctx context.Context, id int64) (Experiment, error) {
	exp := Experiment{ID: id}
	err := db.sql.QueryRowContext(ctx, "SELECT Name, DataSource, KeySchema, Objectives FROM Experiments WHERE ExperimentID = ?", id).
		Scan(&exp.Name, &exp.DataSource, &exp.Schema, &exp.Objectives)
	if err == sql.ErrNoRows {
		return exp, fmt.Errorf("experiment %d not found", id)
	}
	return exp, err
}

// Rows returns the rows of experiment id, in the order they were
// saved. If frontierOnly is set, only rows on the frontier are
// returned.
func (db *DB) Rows(ctx context.Context, id int64, frontierOnly bool) ([]dataset.Row, error) {
	exp, err := db.Experiment(ctx, id)
	if err != nil {
		return nil, err
	}
	schema, err := runkey.ParseSchema(exp.Schema)
	if err != nil {
		return nil, fmt.Errorf("experiment %d: %w", id, err)
	}

	query := `SELECT c.ConfigID, c.ConfigKey, c.OnFrontier, m.Metric, m.Value
FROM Configurations c LEFT JOIN ConfigurationMetrics m
ON c.ExperimentID = m.ExperimentID AND c.ConfigID = m.ConfigID
WHERE c.ExperimentID = ?`
	if frontierOnly {
		query += " AND c.OnFrontier"
	}
	query += " ORDER BY c.ConfigID"
	res, err := db.sql.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var rows []dataset.Row
	last := int64(-1)
	for res.Next() {
		var (
			cid        int64
			key        string
			onFrontier bool
			name       sql.NullString
			value      sql.NullFloat64
		)
		if err := res.Scan(&cid, &key, &onFrontier, &name, &value); err != nil {
			return nil, err
		}
		if cid != last {
			k, err := schema.Parse(key)
			if err != nil {
				return nil, fmt.Errorf("experiment %d: %w", id, err)
			}
			rows = append(rows, dataset.Row{Key: k, Metrics: make(metric.Set), OnFrontier: onFrontier})
			last = cid
		}
		if !name.Valid {
			continue
		}
		m, err := metric.Parse(name.String)
		if err != nil {
			return nil, fmt.Errorf("experiment %d: %w", id, err)
		}
		rows[len(rows)-1].Metrics[m] = value.Float64
	}
	return rows, res.Err()
}

// Frontier returns the frontier rows of experiment id.
func (db *DB) Frontier(ctx context.Context, id int64) ([]dataset.Row, error) {
	return db.Rows(ctx, id, true)
}

// CountExperiments returns the number of experiments stored in the
// database.
func (db *DB) CountExperiments() (int, error) {
	var n int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Experiments").Scan(&n)
	return n, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertExperiment.Close(); err != nil {
		return err
	}
	if err := db.insertConfig.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
