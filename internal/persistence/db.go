// Package persistence stores world state and the social archive in SQLite,
// with an optional Redis archive for shared deployments.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/engine"
	"github.com/talgya/campfire/internal/social"
	"github.com/talgya/campfire/internal/world"
)

// DB wraps a SQLite connection for world state persistence. It implements
// social.Archive.
type DB struct {
	conn *sqlx.DB
}

var _ social.Archive = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows one writer; a single connection avoids lock contention.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS characters (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		pos_x REAL NOT NULL,
		pos_y REAL NOT NULL,
		hunger REAL NOT NULL,
		thirst REAL NOT NULL,
		energy REAL NOT NULL,
		archetype TEXT NOT NULL DEFAULT '',
		alive INTEGER NOT NULL,
		born_tick INTEGER NOT NULL,
		thoughts TEXT NOT NULL DEFAULT '',
		bubble TEXT NOT NULL DEFAULT '',
		traits_json TEXT NOT NULL,
		inventory_json TEXT NOT NULL,
		memories_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversation_memory (
		pair_key TEXT PRIMARY KEY,
		last_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		initiator TEXT NOT NULL,
		partner TEXT NOT NULL,
		topic TEXT NOT NULL,
		start_at INTEGER NOT NULL,
		end_at INTEGER NOT NULL,
		turns INTEGER NOT NULL,
		end_reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		conversation_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		speaker TEXT NOT NULL,
		listener TEXT NOT NULL,
		text TEXT NOT NULL,
		emotion TEXT NOT NULL,
		at INTEGER NOT NULL,
		PRIMARY KEY (conversation_id, seq)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		at INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_conversations_end ON conversations(end_at);
	CREATE INDEX IF NOT EXISTS idx_characters_alive ON characters(alive);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordMemory stores when a pair last talked. An older time never
// replaces a newer one.
func (db *DB) RecordMemory(pairKey string, at time.Time) error {
	_, err := db.conn.Exec(`INSERT INTO conversation_memory (pair_key, last_at) VALUES (?, ?)
		ON CONFLICT(pair_key) DO UPDATE SET last_at = MAX(last_at, excluded.last_at)`,
		pairKey, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record memory %q: %w", pairKey, err)
	}
	return nil
}

// LoadMemory returns every remembered pair.
func (db *DB) LoadMemory() (map[string]time.Time, error) {
	var rows []struct {
		PairKey string `db:"pair_key"`
		LastAt  int64  `db:"last_at"`
	}
	if err := db.conn.Select(&rows, "SELECT pair_key, last_at FROM conversation_memory"); err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	out := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		out[r.PairKey] = time.UnixMilli(r.LastAt).UTC()
	}
	return out, nil
}

// RecordConversation stores an ended conversation with its messages.
func (db *DB) RecordConversation(c *social.Conversation) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR REPLACE INTO conversations
		(id, initiator, partner, topic, start_at, end_at, turns, end_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Participants[0], c.Participants[1], string(c.Topic),
		c.StartTime.UnixMilli(), c.EndTime.UnixMilli(), len(c.Messages), c.EndReason,
	)
	if err != nil {
		return fmt.Errorf("insert conversation %s: %w", c.ID, err)
	}
	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", c.ID); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO messages
		(conversation_id, seq, speaker, listener, text, emotion, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range c.Messages {
		if _, err := stmt.Exec(c.ID, i, m.Speaker, m.Listener, m.Text, string(m.Emotion), m.At.UnixMilli()); err != nil {
			return fmt.Errorf("insert message %s/%d: %w", c.ID, i, err)
		}
	}

	return tx.Commit()
}

type conversationRow struct {
	ID        string `db:"id"`
	Initiator string `db:"initiator"`
	Partner   string `db:"partner"`
	Topic     string `db:"topic"`
	StartAt   int64  `db:"start_at"`
	EndAt     int64  `db:"end_at"`
	Turns     int    `db:"turns"`
	EndReason string `db:"end_reason"`
}

type messageRow struct {
	Seq      int    `db:"seq"`
	Speaker  string `db:"speaker"`
	Listener string `db:"listener"`
	Text     string `db:"text"`
	Emotion  string `db:"emotion"`
	At       int64  `db:"at"`
}

// RecentConversations returns up to limit archived conversations, most
// recently ended first, with their messages.
func (db *DB) RecentConversations(ctx context.Context, limit int) ([]social.Conversation, error) {
	var rows []conversationRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT * FROM conversations ORDER BY end_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select conversations: %w", err)
	}

	out := make([]social.Conversation, 0, len(rows))
	for _, r := range rows {
		c := social.Conversation{
			ID:           r.ID,
			Participants: [2]string{r.Initiator, r.Partner},
			Topic:        social.Topic(r.Topic),
			StartTime:    time.UnixMilli(r.StartAt).UTC(),
			EndTime:      time.UnixMilli(r.EndAt).UTC(),
			State:        social.StateEnded,
			EndReason:    r.EndReason,
		}

		var msgs []messageRow
		err := db.conn.SelectContext(ctx, &msgs,
			"SELECT seq, speaker, listener, text, emotion, at FROM messages WHERE conversation_id = ? ORDER BY seq",
			r.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("select messages %s: %w", r.ID, err)
		}
		for _, m := range msgs {
			c.Messages = append(c.Messages, social.Message{
				Speaker:  m.Speaker,
				Listener: m.Listener,
				Text:     m.Text,
				Emotion:  social.Emotion(m.Emotion),
				At:       time.UnixMilli(m.At).UTC(),
			})
		}
		out = append(out, c)
	}
	return out, nil
}

// SaveCharacters writes all characters to the database (full replace).
func (db *DB) SaveCharacters(chars []agents.Character) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM characters"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO characters
		(id, name, pos_x, pos_y, hunger, thirst, energy, archetype, alive, born_tick,
		 thoughts, bubble, traits_json, inventory_json, memories_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chars {
		traitsJSON, err := json.Marshal(c.Traits)
		if err != nil {
			return fmt.Errorf("marshal traits of %d: %w", c.ID, err)
		}
		invJSON, err := json.Marshal(c.Inventory)
		if err != nil {
			return fmt.Errorf("marshal inventory of %d: %w", c.ID, err)
		}
		memJSON, err := json.Marshal(c.Memories)
		if err != nil {
			return fmt.Errorf("marshal memories of %d: %w", c.ID, err)
		}

		alive := 0
		if c.Alive {
			alive = 1
		}

		_, err = stmt.Exec(
			c.ID, c.Name, c.Position.X, c.Position.Y,
			c.Hunger, c.Thirst, c.Energy, c.Archetype,
			alive, c.BornTick, c.Thoughts, c.Bubble,
			string(traitsJSON), string(invJSON), string(memJSON),
		)
		if err != nil {
			return fmt.Errorf("insert character %d: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

type characterRow struct {
	ID            uint64  `db:"id"`
	Name          string  `db:"name"`
	PosX          float64 `db:"pos_x"`
	PosY          float64 `db:"pos_y"`
	Hunger        float64 `db:"hunger"`
	Thirst        float64 `db:"thirst"`
	Energy        float64 `db:"energy"`
	Archetype     string  `db:"archetype"`
	Alive         int     `db:"alive"`
	BornTick      uint64  `db:"born_tick"`
	Thoughts      string  `db:"thoughts"`
	Bubble        string  `db:"bubble"`
	TraitsJSON    string  `db:"traits_json"`
	InventoryJSON string  `db:"inventory_json"`
	MemoriesJSON  string  `db:"memories_json"`
}

// LoadCharacters reads every saved character, ordered by id.
func (db *DB) LoadCharacters() ([]*agents.Character, error) {
	var rows []characterRow
	if err := db.conn.Select(&rows, "SELECT * FROM characters ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select characters: %w", err)
	}

	out := make([]*agents.Character, 0, len(rows))
	for _, r := range rows {
		c := &agents.Character{
			ID:        agents.CharacterID(r.ID),
			Name:      r.Name,
			Position:  world.Point{X: r.PosX, Y: r.PosY},
			Hunger:    r.Hunger,
			Thirst:    r.Thirst,
			Energy:    r.Energy,
			Archetype: r.Archetype,
			Alive:     r.Alive != 0,
			BornTick:  r.BornTick,
			Thoughts:  r.Thoughts,
			Bubble:    r.Bubble,
		}
		if err := json.Unmarshal([]byte(r.TraitsJSON), &c.Traits); err != nil {
			return nil, fmt.Errorf("decode traits of %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.InventoryJSON), &c.Inventory); err != nil {
			return nil, fmt.Errorf("decode inventory of %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.MemoriesJSON), &c.Memories); err != nil {
			return nil, fmt.Errorf("decode memories of %d: %w", r.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, at, description, category) VALUES (?, ?, ?, ?)",
			e.Tick, e.At.UnixMilli(), e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(ctx context.Context, limit int) ([]engine.Event, error) {
	var rows []struct {
		Tick        uint64 `db:"tick"`
		At          int64  `db:"at"`
		Description string `db:"description"`
		Category    string `db:"category"`
	}
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT tick, at, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	events := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, engine.Event{
			Tick:        r.Tick,
			At:          time.UnixMilli(r.At).UTC(),
			Description: r.Description,
			Category:    r.Category,
		})
	}
	return events, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. A missing key returns "" and no error.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// Meta keys.
const (
	MetaLastTick = "last_tick"
	MetaSimTime  = "sim_time"
	MetaSeed     = "seed"
)

// SaveWorldState performs a full save of all world state.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	chars := sim.Snapshot()
	slog.Info("saving world state", "characters", len(chars))

	if err := db.SaveCharacters(chars); err != nil {
		return fmt.Errorf("save characters: %w", err)
	}
	if err := db.SaveEvents(sim.TakeUnsavedEvents()); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta(MetaLastTick, strconv.FormatUint(sim.CurrentTick(), 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta(MetaSimTime, sim.Clock.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved")
	return nil
}

// LastTick returns the saved tick counter, or 0 for a fresh database.
func (db *DB) LastTick() (uint64, error) {
	v, err := db.GetMeta(MetaLastTick)
	if err != nil || v == "" {
		return 0, err
	}
	tick, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse last tick %q: %w", v, err)
	}
	return tick, nil
}
