package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strayaid-systems/strayaid/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) CreateCase(ctx context.Context, c *models.Case) error {
	// The display reference is allocated from case_ref_seq inside the same
	// statement so case creation stays a single atomic write.
	query := `
		INSERT INTO cases (
			id, ref_num, reporter_id, description, condition, urgency,
			latitude, longitude, location_known, address,
			contact_number, additional_info, photos,
			state, unassignable, reassign_count, responder_id,
			resolution_note, created_at, updated_at
		)
		VALUES ($1, nextval('case_ref_seq'), $2, $3, $4, $5, $6, $7, $8, $9,
		        $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING ref_num
	`

	var refNum uint64
	err := r.pool.QueryRow(ctx, query,
		c.ID, c.ReporterID, c.Description, c.Condition, c.Urgency,
		c.Location.Latitude, c.Location.Longitude, c.Location.Known, c.Location.Address,
		c.ContactNumber, c.AdditionalInfo, c.Photos,
		c.State, c.Unassignable, c.ReassignCount, c.ResponderID,
		c.ResolutionNote, c.CreatedAt, c.UpdatedAt,
	).Scan(&refNum)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}

	c.Ref = FormatCaseRef(refNum)
	return nil
}

const caseColumns = `
	c.id, c.ref_num, c.reporter_id, c.description, c.condition, c.urgency,
	c.latitude, c.longitude, c.location_known, c.address,
	c.contact_number, c.additional_info, c.photos,
	c.state, c.unassignable, c.reassign_count, c.responder_id,
	c.resolution_note, c.created_at, c.updated_at, c.resolved_at
`

func (r *PostgresRepository) scanCase(row pgx.Row) (*models.Case, error) {
	c := &models.Case{}
	var refNum uint64
	err := row.Scan(
		&c.ID, &refNum, &c.ReporterID, &c.Description, &c.Condition, &c.Urgency,
		&c.Location.Latitude, &c.Location.Longitude, &c.Location.Known, &c.Location.Address,
		&c.ContactNumber, &c.AdditionalInfo, &c.Photos,
		&c.State, &c.Unassignable, &c.ReassignCount, &c.ResponderID,
		&c.ResolutionNote, &c.CreatedAt, &c.UpdatedAt, &c.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to scan case: %w", err)
	}
	c.Ref = FormatCaseRef(refNum)
	return c, nil
}

func (r *PostgresRepository) GetCase(ctx context.Context, id string) (*models.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases c WHERE c.id = $1`, caseColumns)
	c, err := r.scanCase(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	history, err := r.ListTransitions(ctx, id)
	if err != nil {
		return nil, err
	}
	c.History = history
	return c, nil
}

func (r *PostgresRepository) GetCaseByRef(ctx context.Context, ref string) (*models.Case, error) {
	refNum, err := parseCaseRef(ref)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM cases c WHERE c.ref_num = $1`, caseColumns)
	c, err := r.scanCase(r.pool.QueryRow(ctx, query, refNum))
	if err != nil {
		return nil, err
	}

	history, err := r.ListTransitions(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.History = history
	return c, nil
}

func (r *PostgresRepository) ListCases(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if req != nil {
		if req.State != "" {
			whereClause += fmt.Sprintf(" AND c.state = $%d", argPos)
			args = append(args, req.State)
			argPos++
		}
		if req.Urgency != "" {
			whereClause += fmt.Sprintf(" AND c.urgency = $%d", argPos)
			args = append(args, req.Urgency)
			argPos++
		}
		if req.ReporterID != "" {
			whereClause += fmt.Sprintf(" AND c.reporter_id = $%d", argPos)
			args = append(args, req.ReporterID)
			argPos++
		}
		if req.ResponderID != "" {
			whereClause += fmt.Sprintf(" AND c.responder_id = $%d", argPos)
			args = append(args, req.ResponderID)
			argPos++
		}
		if req.Unassignable != nil {
			whereClause += fmt.Sprintf(" AND c.unassignable = $%d", argPos)
			args = append(args, *req.Unassignable)
			argPos++
		}
	}

	query := fmt.Sprintf(`SELECT %s FROM cases c %s ORDER BY c.created_at ASC`, caseColumns, whereClause)
	if req != nil && req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, req.Limit)
		argPos++
	}
	if req != nil && req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		c, err := r.scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateCase(ctx context.Context, c *models.Case) error {
	query := `
		UPDATE cases SET
			state = $2, unassignable = $3, reassign_count = $4,
			responder_id = $5, resolution_note = $6,
			updated_at = $7, resolved_at = $8
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		c.ID, c.State, c.Unassignable, c.ReassignCount,
		c.ResponderID, c.ResolutionNote, c.UpdatedAt, c.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCaseNotFound
	}
	return nil
}

func (r *PostgresRepository) AppendTransition(ctx context.Context, caseID string, t models.Transition) error {
	query := `
		INSERT INTO case_transitions (case_id, from_state, to_state, actor, reason, at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, caseID, t.From, t.To, t.Actor, t.Reason, t.At)
	if err != nil {
		return fmt.Errorf("failed to append transition: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListTransitions(ctx context.Context, caseID string) ([]models.Transition, error) {
	query := `
		SELECT from_state, to_state, actor, reason, at
		FROM case_transitions
		WHERE case_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	var out []models.Transition
	for rows.Next() {
		var t models.Transition
		if err := rows.Scan(&t.From, &t.To, &t.Actor, &t.Reason, &t.At); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) NextEventSeq(ctx context.Context, caseID string) (uint64, error) {
	query := `
		INSERT INTO case_event_seqs (case_id, seq)
		VALUES ($1, 1)
		ON CONFLICT (case_id) DO UPDATE SET seq = case_event_seqs.seq + 1
		RETURNING seq
	`

	var seq uint64
	if err := r.pool.QueryRow(ctx, query, caseID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to allocate event seq: %w", err)
	}
	return seq, nil
}

func (r *PostgresRepository) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	query := `
		INSERT INTO assignments (id, case_id, responder_id, state, proposed_at, expires_at, decided_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.CaseID, a.ResponderID, a.State,
		a.ProposedAt, a.ExpiresAt, a.DecidedAt, a.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	query := `
		SELECT id, case_id, responder_id, state, proposed_at, expires_at, decided_at, reason
		FROM assignments WHERE id = $1
	`

	a := &models.Assignment{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.CaseID, &a.ResponderID, &a.State,
		&a.ProposedAt, &a.ExpiresAt, &a.DecidedAt, &a.Reason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	query := `
		UPDATE assignments SET state = $2, decided_at = $3, reason = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, a.ID, a.State, a.DecidedAt, a.Reason)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *PostgresRepository) ListAssignments(ctx context.Context, caseID string) ([]*models.Assignment, error) {
	query := `
		SELECT id, case_id, responder_id, state, proposed_at, expires_at, decided_at, reason
		FROM assignments WHERE case_id = $1
		ORDER BY proposed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.Assignment
	for rows.Next() {
		a := &models.Assignment{}
		if err := rows.Scan(
			&a.ID, &a.CaseID, &a.ResponderID, &a.State,
			&a.ProposedAt, &a.ExpiresAt, &a.DecidedAt, &a.Reason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) AppendMessage(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (thread_id, seq, sender_id, type, content, attachment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ThreadID, m.Seq, m.SenderID, m.Type, m.Content, m.Attachment, m.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on (thread_id, seq) backs the gapless
		// sequence invariant at the storage layer.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSeq
		}
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListMessages(ctx context.Context, threadID string, fromSeq uint64, limit int) ([]*models.Message, error) {
	query := `
		SELECT thread_id, seq, sender_id, type, content, attachment, created_at
		FROM messages
		WHERE thread_id = $1 AND seq >= $2
		ORDER BY seq ASC
	`
	args := []interface{}{threadID, fromSeq}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(
			&m.ThreadID, &m.Seq, &m.SenderID, &m.Type, &m.Content, &m.Attachment, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) LastSeq(ctx context.Context, threadID string) (uint64, error) {
	query := `SELECT COALESCE(MAX(seq), 0) FROM messages WHERE thread_id = $1`

	var seq uint64
	if err := r.pool.QueryRow(ctx, query, threadID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read last seq: %w", err)
	}
	return seq, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
