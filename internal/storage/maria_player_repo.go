package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

const upsertPlayerState = `
	INSERT INTO player_states (player_id, x, y, health, max_health, slot)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		x = VALUES(x),
		y = VALUES(y),
		health = VALUES(health),
		max_health = VALUES(max_health),
		slot = VALUES(slot),
		updated_at = CURRENT_TIMESTAMP
`

// MariaPlayerRepo реализует PlayerStateRepo для MariaDB/MySQL (таблица player_states).
type MariaPlayerRepo struct {
	db *sql.DB
}

// NewMariaPlayerRepo подключается к базе и создаёт таблицу, если её нет.
//
//	dsn - строка подключения (user:pass@tcp(host:port)/dbname?parseTime=true)
func NewMariaPlayerRepo(dsn string) (*MariaPlayerRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaPlayerRepo{db: db}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *MariaPlayerRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS player_states (
			player_id  VARCHAR(64) PRIMARY KEY,
			x          DOUBLE      NOT NULL,
			y          DOUBLE      NOT NULL,
			health     DOUBLE      NOT NULL,
			max_health DOUBLE      NOT NULL,
			slot       TINYINT     NOT NULL DEFAULT 0,
			updated_at TIMESTAMP   DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE   CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы player_states: %w", err)
	}
	return nil
}

// Save сохраняет состояние через INSERT ... ON DUPLICATE KEY UPDATE
func (r *MariaPlayerRepo) Save(ctx context.Context, playerID string, st PlayerState) error {
	if err := validatePlayerID(playerID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, upsertPlayerState,
		playerID, st.Position.X, st.Position.Y, st.Health, st.MaxHealth, st.Slot)
	if err != nil {
		return fmt.Errorf("ошибка сохранения игрока %s: %w", playerID, err)
	}
	return nil
}

func (r *MariaPlayerRepo) Load(ctx context.Context, playerID string) (PlayerState, bool, error) {
	if err := validatePlayerID(playerID); err != nil {
		return PlayerState{}, false, err
	}

	query := `SELECT x, y, health, max_health, slot, updated_at FROM player_states WHERE player_id = ?`

	var st PlayerState
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(
		&st.Position.X, &st.Position.Y, &st.Health, &st.MaxHealth, &st.Slot, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerState{}, false, nil
	}
	if err != nil {
		return PlayerState{}, false, fmt.Errorf("ошибка загрузки игрока %s: %w", playerID, err)
	}
	return st, true, nil
}

func (r *MariaPlayerRepo) Delete(ctx context.Context, playerID string) error {
	if err := validatePlayerID(playerID); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM player_states WHERE player_id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("ошибка удаления игрока %s: %w", playerID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return nil
}

// BatchSave сохраняет состояния в одной транзакции
func (r *MariaPlayerRepo) BatchSave(ctx context.Context, states map[string]PlayerState) error {
	if len(states) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPlayerState)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for id, st := range states {
		if err := validatePlayerID(id); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, id, st.Position.X, st.Position.Y, st.Health, st.MaxHealth, st.Slot); err != nil {
			return fmt.Errorf("ошибка сохранения игрока %s в batch: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (r *MariaPlayerRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
