package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edsim/edsim/internal/scoring"
)

type pgStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const resultCols = `id, case_index, final_score, report, rating, COALESCE(rating_feedback, ''), created_at`

func (s *pgStore) scanRow(row pgx.Row) (*Record, error) {
	var (
		rec       Record
		caseIndex int
		score     int
		report    []byte
	)
	err := row.Scan(&rec.ID, &caseIndex, &score, &report, &rec.Rating, &rec.Feedback, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var res scoring.Result
	if err := json.Unmarshal(report, &res); err != nil {
		return nil, fmt.Errorf("decode stored report: %w", err)
	}
	rec.Result = &res
	return &rec, nil
}

func (s *pgStore) Save(ctx context.Context, res *scoring.Result) (*Record, error) {
	rec := &Record{ID: uuid.New(), CreatedAt: time.Now().UTC(), Result: res}
	report, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_result (id, case_index, case_name, final_score, diagnosis_correct, report, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID, res.CaseIndex, res.CaseName, res.FinalScore, res.DiagnosisCorrect, report, rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *pgStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.scanRow(s.pool.QueryRow(ctx,
		`SELECT `+resultCols+` FROM game_result WHERE id = $1`, id))
}

func (s *pgStore) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+resultCols+` FROM game_result
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := s.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM game_result`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *pgStore) Rate(ctx context.Context, id uuid.UUID, rating int, feedback string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE game_result SET rating = $2, rating_feedback = $3 WHERE id = $1`,
		id, rating, feedback)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) CaseRated(ctx context.Context, caseIndex int) (bool, error) {
	var rated bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM game_result WHERE case_index = $1 AND rating IS NOT NULL
		)`, caseIndex).Scan(&rated)
	return rated, err
}
