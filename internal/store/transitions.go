package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"towlot/internal/lifecycle"
)

const transitionColumns = "id, vehicle_id, from_stage, to_stage, entered_at, exited_at, notes, actor"

// TransitionsForVehicle returns the full audit trail for a vehicle in entry
// order. The first record is always the intake record and at most one record
// has a nil ExitedAt.
func (s *Store) TransitionsForVehicle(ctx context.Context, vehicleID int64) ([]*StageTransition, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+transitionColumns+` FROM stage_transitions WHERE vehicle_id = ? ORDER BY entered_at, id`,
		vehicleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var records []*StageTransition
	for rows.Next() {
		record, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// OpenTransition returns the currently open audit record for a vehicle, or
// (nil, nil) when every record is closed.
func (s *Store) OpenTransition(ctx context.Context, vehicleID int64) (*StageTransition, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+transitionColumns+` FROM stage_transitions WHERE vehicle_id = ? AND exited_at IS NULL ORDER BY id DESC LIMIT 1`,
		vehicleID,
	)
	record, err := scanTransition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open transition: %w", err)
	}
	return record, nil
}

func scanTransition(scanner interface{ Scan(dest ...any) error }) (*StageTransition, error) {
	var (
		id        int64
		vehicleID int64
		fromStage string
		toStage   string
		entered   sql.NullString
		exited    sql.NullString
		notes     sql.NullString
		actor     sql.NullString
	)
	if err := scanner.Scan(&id, &vehicleID, &fromStage, &toStage, &entered, &exited, &notes, &actor); err != nil {
		return nil, err
	}
	record := &StageTransition{
		ID:        id,
		VehicleID: vehicleID,
		FromStage: lifecycle.Stage(fromStage),
		ToStage:   lifecycle.Stage(toStage),
		ExitedAt:  timePtr(exited),
		Notes:     notes.String,
		Actor:     actor.String,
	}
	if enteredAt, err := parseTimeString(entered.String); err == nil {
		record.EnteredAt = enteredAt
	}
	return record, nil
}
