package repository

import (
	"database/sql"
	"fmt"
	"time"

	"meritboard/internal/models"
	"meritboard/internal/scoring"
)

// Advisory lock key serializing ranking recomputation across instances.
const rankingLockKey = 874120

// RankingRepository recomputes stored totals and the global ranking. All
// writes of one recompute happen in a single transaction guarded by a
// pg advisory lock, so concurrent submissions serialize instead of
// interleaving partial updates.
type RankingRepository struct {
	db *sql.DB
}

// NewRankingRepository creates a new ranking repository
func NewRankingRepository(db *sql.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

// RecomputeAndRank recomputes total scores for the given students, then
// reassigns the global ranking. A nil or empty studentIDs recomputes every
// student. It returns the number of students whose ranking changed.
func (r *RankingRepository) RecomputeAndRank(studentIDs []uint) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin recompute: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("SELECT pg_advisory_xact_lock($1)", rankingLockKey); err != nil {
		return 0, fmt.Errorf("failed to acquire ranking lock: %w", err)
	}

	limits, err := loadLimits(tx)
	if err != nil {
		return 0, err
	}

	if len(studentIDs) == 0 {
		studentIDs, err = allStudentIDs(tx)
		if err != nil {
			return 0, err
		}
	}

	now := time.Now()
	for _, id := range studentIDs {
		if err := recomputeTotal(tx, id, limits, now); err != nil {
			return 0, err
		}
	}

	changed, err := reassignRankings(tx, now)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit recompute: %w", err)
	}

	return changed, nil
}

func loadLimits(tx *sql.Tx) (scoring.Limits, error) {
	limits := scoring.DefaultLimits()
	err := tx.QueryRow("SELECT a_max, b_max, c_max FROM score_limits ORDER BY id ASC LIMIT 1").
		Scan(&limits.AMax, &limits.BMax, &limits.CMax)
	if err == sql.ErrNoRows {
		return scoring.DefaultLimits(), nil
	}
	if err != nil {
		return limits, fmt.Errorf("failed to load score limits: %w", err)
	}
	return limits, nil
}

func allStudentIDs(tx *sql.Tx) ([]uint, error) {
	rows, err := tx.Query("SELECT id FROM students WHERE role = $1", models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to list student ids: %w", err)
	}
	defer rows.Close()

	var ids []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan student id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// recomputeTotal rebuilds one student's subject score and total from the raw
// inputs under the current limits. The stored calculated_score is refreshed
// as well so a changed a_max takes effect without re-submitting the GPA.
func recomputeTotal(tx *sql.Tx, studentID uint, limits scoring.Limits, now time.Time) error {
	var subject float64
	var gpa, aValue float64
	err := tx.QueryRow("SELECT gpa, a_value FROM subject_scores WHERE student_id = $1", studentID).
		Scan(&gpa, &aValue)
	switch {
	case err == sql.ErrNoRows:
		subject = 0
	case err != nil:
		return fmt.Errorf("failed to load subject score: %w", err)
	default:
		subject = scoring.SubjectScore(gpa, aValue, limits.AMax)
		_, err = tx.Exec(
			"UPDATE subject_scores SET calculated_score = $1, updated_at = $2 WHERE student_id = $3",
			subject, now, studentID,
		)
		if err != nil {
			return fmt.Errorf("failed to refresh calculated subject score: %w", err)
		}
	}

	academic, err := categoryScores(tx, "academic_expertise", studentID)
	if err != nil {
		return err
	}
	comprehensive, err := categoryScores(tx, "comprehensive_performance", studentID)
	if err != nil {
		return err
	}

	total := scoring.TotalScore(subject, academic, comprehensive, limits)
	if _, err := tx.Exec(
		"UPDATE students SET total_score = $1, updated_at = $2 WHERE id = $3",
		total, now, studentID,
	); err != nil {
		return fmt.Errorf("failed to store total score: %w", err)
	}

	return nil
}

func categoryScores(tx *sql.Tx, table string, studentID uint) ([]float64, error) {
	rows, err := tx.Query("SELECT score FROM "+table+" WHERE student_id = $1", studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s scores: %w", table, err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan %s score: %w", table, err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

func reassignRankings(tx *sql.Tx, now time.Time) (int, error) {
	rows, err := tx.Query(
		"SELECT id, total_score, ranking FROM students WHERE role = $1",
		models.RoleStudent,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to load standings: %w", err)
	}
	defer rows.Close()

	var standings []scoring.Standing
	for rows.Next() {
		var s scoring.Standing
		if err := rows.Scan(&s.StudentID, &s.TotalScore, &s.Ranking); err != nil {
			return 0, fmt.Errorf("failed to scan standing: %w", err)
		}
		standings = append(standings, s)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	placements := scoring.Rank(standings)
	for _, p := range placements {
		if _, err := tx.Exec(
			"UPDATE students SET ranking = $1, updated_at = $2 WHERE id = $3",
			p.Ranking, now, p.StudentID,
		); err != nil {
			return 0, fmt.Errorf("failed to store ranking: %w", err)
		}
	}

	return len(placements), nil
}
