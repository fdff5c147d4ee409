package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"towlot/internal/lifecycle"
)

const vehicleColumns = "id, call_number, stage, jurisdiction, make, model, plate, intake_at, " +
	"notice_sent_at, response_deadline, auction_date, ad_run_date, scrap_eligible_at, " +
	"pickup_scheduled_at, pickup_confirmed, hearing_requested, hearing_date, auction_notice_doc, " +
	"disposition_kind, disposition_reason, disposed_at, archived, created_at, updated_at"

// ErrStaleStage reports that a vehicle's stage changed between the caller's
// read and its transition write. The caller must reload and revalidate.
var ErrStaleStage = errors.New("vehicle stage changed concurrently")

// NewVehicle inserts a vehicle entering the lot at StageInitialHold and
// writes the opening audit record in the same transaction.
func (s *Store) NewVehicle(ctx context.Context, v *Vehicle) (*Vehicle, error) {
	if v == nil {
		return nil, errors.New("vehicle is nil")
	}
	if strings.TrimSpace(v.CallNumber) == "" {
		return nil, errors.New("call number is required")
	}
	now := time.Now().UTC()
	if v.IntakeAt.IsZero() {
		v.IntakeAt = now
	}
	if v.Stage == "" {
		v.Stage = lifecycle.StageInitialHold
	}

	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin intake tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO vehicles (
            call_number, stage, jurisdiction, make, model, plate, intake_at,
            pickup_confirmed, hearing_requested, archived, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(v.CallNumber),
		v.Stage,
		nullableString(v.Jurisdiction),
		nullableString(v.Make),
		nullableString(v.Model),
		nullableString(v.Plate),
		formatTime(v.IntakeAt),
		boolToInt(v.PickupConfirmed),
		boolToInt(v.HearingRequested),
		boolToInt(v.Archived),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert vehicle: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO stage_transitions (vehicle_id, from_stage, to_stage, entered_at, notes, actor)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		v.Stage,
		v.Stage,
		formatTime(v.IntakeAt),
		"vehicle intake",
		"system",
	); err != nil {
		return nil, fmt.Errorf("insert intake transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit intake: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a vehicle by identifier. Returns (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Vehicle, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)
	vehicle, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return vehicle, nil
}

// GetByCallNumber fetches a vehicle by its unique impound call number.
func (s *Store) GetByCallNumber(ctx context.Context, callNumber string) (*Vehicle, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+vehicleColumns+` FROM vehicles WHERE call_number = ? LIMIT 1`,
		strings.TrimSpace(callNumber),
	)
	vehicle, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle by call number: %w", err)
	}
	return vehicle, nil
}

// Update persists non-stage field changes to an existing vehicle. The stage
// column is deliberately excluded: stage only moves through ApplyTransition.
func (s *Store) Update(ctx context.Context, v *Vehicle) error {
	if v == nil {
		return errors.New("vehicle is nil")
	}
	v.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE vehicles
         SET jurisdiction = ?, make = ?, model = ?, plate = ?,
             notice_sent_at = ?, response_deadline = ?, auction_date = ?, ad_run_date = ?,
             scrap_eligible_at = ?, pickup_scheduled_at = ?, pickup_confirmed = ?,
             hearing_requested = ?, hearing_date = ?, auction_notice_doc = ?,
             disposition_kind = ?, disposition_reason = ?, disposed_at = ?, archived = ?,
             updated_at = ?
         WHERE id = ?`,
		nullableString(v.Jurisdiction),
		nullableString(v.Make),
		nullableString(v.Model),
		nullableString(v.Plate),
		nullableTime(v.NoticeSentAt),
		nullableTime(v.ResponseDeadline),
		nullableTime(v.AuctionDate),
		nullableTime(v.AdRunDate),
		nullableTime(v.ScrapEligibleAt),
		nullableTime(v.PickupScheduledAt),
		boolToInt(v.PickupConfirmed),
		boolToInt(v.HearingRequested),
		nullableTime(v.HearingDate),
		nullableString(v.AuctionNoticeDoc),
		nullableString(string(v.DispositionKind)),
		nullableString(v.DispositionReason),
		nullableTime(v.DisposedAt),
		boolToInt(v.Archived),
		formatTime(v.UpdatedAt),
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}

// ApplyTransition atomically writes the vehicle row, closes the open audit
// record, and appends the new one. Partial application is impossible: either
// all three writes commit or none do. The vehicle write carries an
// optimistic predicate on the record's from-stage; a row already moved past
// that stage rolls the whole transaction back with ErrStaleStage, so two
// writers racing from the same snapshot commit exactly one transition.
func (s *Store) ApplyTransition(ctx context.Context, v *Vehicle, record StageTransition) error {
	if v == nil {
		return errors.New("vehicle is nil")
	}
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	v.Stage = record.ToStage
	v.UpdatedAt = now
	if record.EnteredAt.IsZero() {
		record.EnteredAt = now
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transition tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE stage_transitions SET exited_at = ? WHERE vehicle_id = ? AND exited_at IS NULL`,
			formatTime(record.EnteredAt),
			v.ID,
		); err != nil {
			return fmt.Errorf("close open transition: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO stage_transitions (vehicle_id, from_stage, to_stage, entered_at, notes, actor)
             VALUES (?, ?, ?, ?, ?, ?)`,
			v.ID,
			record.FromStage,
			record.ToStage,
			formatTime(record.EnteredAt),
			nullableString(record.Notes),
			nullableString(record.Actor),
		); err != nil {
			return fmt.Errorf("insert transition: %w", err)
		}

		res, err := tx.ExecContext(
			ctx,
			`UPDATE vehicles
             SET stage = ?, notice_sent_at = ?, response_deadline = ?, auction_date = ?,
                 ad_run_date = ?, scrap_eligible_at = ?, pickup_scheduled_at = ?,
                 pickup_confirmed = ?, hearing_requested = ?, hearing_date = ?,
                 auction_notice_doc = ?, disposition_kind = ?, disposition_reason = ?,
                 disposed_at = ?, archived = ?, updated_at = ?
             WHERE id = ? AND stage = ?`,
			v.Stage,
			nullableTime(v.NoticeSentAt),
			nullableTime(v.ResponseDeadline),
			nullableTime(v.AuctionDate),
			nullableTime(v.AdRunDate),
			nullableTime(v.ScrapEligibleAt),
			nullableTime(v.PickupScheduledAt),
			boolToInt(v.PickupConfirmed),
			boolToInt(v.HearingRequested),
			nullableTime(v.HearingDate),
			nullableString(v.AuctionNoticeDoc),
			nullableString(string(v.DispositionKind)),
			nullableString(v.DispositionReason),
			nullableTime(v.DisposedAt),
			boolToInt(v.Archived),
			formatTime(v.UpdatedAt),
			v.ID,
			record.FromStage,
		)
		if err != nil {
			return fmt.Errorf("update vehicle stage: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("transition rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("vehicle %d no longer in %s: %w", v.ID, record.FromStage, ErrStaleStage)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transition: %w", err)
		}
		return nil
	})
}

// VehiclesByStage returns vehicles in a stage ordered by intake time.
func (s *Store) VehiclesByStage(ctx context.Context, stage lifecycle.Stage) ([]*Vehicle, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+vehicleColumns+` FROM vehicles WHERE stage = ? ORDER BY intake_at`,
		stage,
	)
	if err != nil {
		return nil, fmt.Errorf("query by stage: %w", err)
	}
	defer rows.Close()
	return collectVehicles(rows)
}

// ActiveVehicles returns all non-archived vehicles ordered by intake time.
func (s *Store) ActiveVehicles(ctx context.Context) ([]*Vehicle, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+vehicleColumns+` FROM vehicles WHERE archived = 0 ORDER BY intake_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("query active vehicles: %w", err)
	}
	defer rows.Close()
	return collectVehicles(rows)
}

// List returns vehicles filtered by stage set, or all vehicles when no stage
// is provided.
func (s *Store) List(ctx context.Context, stages ...lifecycle.Stage) ([]*Vehicle, error) {
	baseQuery := `SELECT ` + vehicleColumns + ` FROM vehicles`
	orderClause := ` ORDER BY intake_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(stages) == 0 {
		rows, err = s.db.QueryContext(ensureContext(ctx), baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(stages))
		args := make([]any, len(stages))
		for i, stage := range stages {
			args[i] = stage
		}
		rows, err = s.db.QueryContext(ensureContext(ctx), baseQuery+` WHERE stage IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()
	return collectVehicles(rows)
}

// UpdatedSince returns vehicles touched after the given timestamp. Used by
// importer hand-off checks and dashboards, not by the engine itself.
func (s *Store) UpdatedSince(ctx context.Context, since time.Time) ([]*Vehicle, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+vehicleColumns+` FROM vehicles WHERE updated_at > ? ORDER BY updated_at`,
		formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("query updated since: %w", err)
	}
	defer rows.Close()
	return collectVehicles(rows)
}

// Stats returns a count of vehicles grouped by stage.
func (s *Store) Stats(ctx context.Context) (StageCounts, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT stage, COUNT(1) FROM vehicles GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("vehicle stats: %w", err)
	}
	defer rows.Close()

	stats := make(StageCounts)
	for rows.Next() {
		var stage lifecycle.Stage
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		stats[stage] = count
	}
	return stats, rows.Err()
}

// Health aggregates registry state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	var health HealthSummary
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(CASE WHEN archived = 0 THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN archived = 1 THEN 1 ELSE 0 END), 0)
         FROM vehicles`)
	if err := row.Scan(&health.Vehicles, &health.Active, &health.Archived); err != nil {
		return HealthSummary{}, fmt.Errorf("vehicle health: %w", err)
	}
	row = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM vehicles WHERE stage = ? AND notice_sent_at IS NULL AND archived = 0`,
		lifecycle.StageInitialHold)
	if err := row.Scan(&health.PendingNotices); err != nil {
		return HealthSummary{}, fmt.Errorf("pending notice count: %w", err)
	}
	return health, nil
}

func collectVehicles(rows *sql.Rows) ([]*Vehicle, error) {
	var vehicles []*Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

func scanVehicle(scanner interface{ Scan(dest ...any) error }) (*Vehicle, error) {
	var (
		id               int64
		callNumber       string
		stageStr         string
		jurisdiction     sql.NullString
		makeName         sql.NullString
		modelName        sql.NullString
		plate            sql.NullString
		intakeRaw        sql.NullString
		noticeSentRaw    sql.NullString
		responseRaw      sql.NullString
		auctionRaw       sql.NullString
		adRunRaw         sql.NullString
		scrapEligibleRaw sql.NullString
		pickupRaw        sql.NullString
		pickupConfirmed  sql.NullInt64
		hearingRequested sql.NullInt64
		hearingRaw       sql.NullString
		auctionDoc       sql.NullString
		dispositionKind  sql.NullString
		dispositionWhy   sql.NullString
		disposedRaw      sql.NullString
		archived         sql.NullInt64
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&callNumber,
		&stageStr,
		&jurisdiction,
		&makeName,
		&modelName,
		&plate,
		&intakeRaw,
		&noticeSentRaw,
		&responseRaw,
		&auctionRaw,
		&adRunRaw,
		&scrapEligibleRaw,
		&pickupRaw,
		&pickupConfirmed,
		&hearingRequested,
		&hearingRaw,
		&auctionDoc,
		&dispositionKind,
		&dispositionWhy,
		&disposedRaw,
		&archived,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	vehicle := &Vehicle{
		ID:                id,
		CallNumber:        callNumber,
		Stage:             lifecycle.Stage(stageStr),
		Jurisdiction:      jurisdiction.String,
		Make:              makeName.String,
		Model:             modelName.String,
		Plate:             plate.String,
		NoticeSentAt:      timePtr(noticeSentRaw),
		ResponseDeadline:  timePtr(responseRaw),
		AuctionDate:       timePtr(auctionRaw),
		AdRunDate:         timePtr(adRunRaw),
		ScrapEligibleAt:   timePtr(scrapEligibleRaw),
		PickupScheduledAt: timePtr(pickupRaw),
		HearingDate:       timePtr(hearingRaw),
		AuctionNoticeDoc:  auctionDoc.String,
		DispositionKind:   lifecycle.DispositionKind(dispositionKind.String),
		DispositionReason: dispositionWhy.String,
		DisposedAt:        timePtr(disposedRaw),
	}
	if pickupConfirmed.Valid {
		vehicle.PickupConfirmed = pickupConfirmed.Int64 != 0
	}
	if hearingRequested.Valid {
		vehicle.HearingRequested = hearingRequested.Int64 != 0
	}
	if archived.Valid {
		vehicle.Archived = archived.Int64 != 0
	}
	if intake, err := parseTimeString(intakeRaw.String); err == nil {
		vehicle.IntakeAt = intake
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		vehicle.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		vehicle.UpdatedAt = updated
	}
	return vehicle, nil
}
