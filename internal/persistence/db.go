// Package persistence хранит снапшоты мира в SQLite.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Drew-source/isometric-rpg/internal/domain"
	"github.com/Drew-source/isometric-rpg/internal/engine"
	"github.com/Drew-source/isometric-rpg/pkg/logger"
)

// DB оборачивает соединение SQLite для сохранения состояния мира.
type DB struct {
	conn *sqlx.DB
}

// Open открывает или создает базу по указанному пути.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("открытие базы: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("миграция: %w", err)
	}
	return db, nil
}

// Close закрывает соединение с базой.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY,
		active INTEGER NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot полностью перезаписывает снапшот мира: все активные
// сущности, игровое время и флаги.
func (db *DB) SaveSnapshot(w *engine.World) error {
	entities := w.Entities()
	logger.Log.WithField("entities", len(entities)).Info("Сохранение снапшота мира")

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entities"); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO entities (id, active, data_json) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entities {
		data, err := json.Marshal(e.Serialize())
		if err != nil {
			return fmt.Errorf("сериализация сущности %s: %w", e.ID, err)
		}
		active := 0
		if e.Active {
			active = 1
		}
		if _, err := stmt.Exec(int64(e.ID), active, string(data)); err != nil {
			return fmt.Errorf("запись сущности %s: %w", e.ID, err)
		}
	}

	if err := saveMetaTx(tx, "game_time", strconv.FormatFloat(w.GameTime(), 'g', -1, 64)); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadSnapshot загружает сущности снапшота в мир. Сущности попадают
// в очередь активации и становятся видимыми после первого Update.
func (db *DB) LoadSnapshot(w *engine.World) (int, error) {
	type row struct {
		ID       int64  `db:"id"`
		Active   int    `db:"active"`
		DataJSON string `db:"data_json"`
	}

	var rows []row
	if err := db.conn.Select(&rows, "SELECT id, active, data_json FROM entities ORDER BY id"); err != nil {
		return 0, fmt.Errorf("чтение сущностей: %w", err)
	}

	loaded := 0
	for _, r := range rows {
		var data domain.Record
		if err := json.Unmarshal([]byte(r.DataJSON), &data); err != nil {
			return loaded, fmt.Errorf("разбор сущности %d: %w", r.ID, err)
		}
		e := domain.DeserializeEntity(domain.EntityID(r.ID), data)
		w.ImportEntity(e)
		loaded++
	}

	if raw, err := db.Meta("game_time"); err == nil {
		if t, err := strconv.ParseFloat(raw, 64); err == nil {
			w.SetGameTime(t)
		}
	}

	logger.Log.WithField("entities", loaded).Info("Снапшот мира загружен")
	return loaded, nil
}

// SaveMeta сохраняет пару ключ-значение метаданных мира.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

func saveMetaTx(tx *sqlx.Tx, key, value string) error {
	_, err := tx.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// Meta возвращает значение метаданных. Отсутствующий ключ - ошибка.
func (db *DB) Meta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasSnapshot сообщает, есть ли в базе сохраненный снапшот.
func (db *DB) HasSnapshot() (bool, error) {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM entities"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return count > 0, nil
}
