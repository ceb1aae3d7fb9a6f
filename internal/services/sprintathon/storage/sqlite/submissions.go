package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sprintathon/sprintathon/internal/services/sprintathon/domain"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/storage"
)

const submissionColumns = "sub.id, sub.member_id, sub.word_count, sub.type, sub.created_at"

func (s *Store) normalizeSubmission(submission domain.Submission) (domain.Submission, error) {
	if submission.MemberID <= 0 {
		return domain.Submission{}, fmt.Errorf("member id is required")
	}
	if !submission.Type.Valid() {
		return domain.Submission{}, fmt.Errorf("submission type %q is invalid", submission.Type)
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = s.now()
	}
	submission.CreatedAt = submission.CreatedAt.UTC()
	return submission, nil
}

func insertSubmission(ctx context.Context, execer sqlExecer, submission domain.Submission) (domain.Submission, error) {
	result, err := execer.ExecContext(ctx,
		"INSERT INTO submissions (member_id, word_count, type, created_at) VALUES (?, ?, ?, ?)",
		submission.MemberID, submission.WordCount, string(submission.Type), toMillis(submission.CreatedAt),
	)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	submission.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Submission{}, fmt.Errorf("submission id: %w", err)
	}
	return submission, nil
}

// CreateSubmission inserts an unattributed submission.
func (s *Store) CreateSubmission(ctx context.Context, submission domain.Submission) (domain.Submission, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Submission{}, err
	}
	submission, err := s.normalizeSubmission(submission)
	if err != nil {
		return domain.Submission{}, err
	}
	return insertSubmission(ctx, s.sqlDB, submission)
}

// GetSubmission loads a submission by id.
func (s *Store) GetSubmission(ctx context.Context, id int64) (domain.Submission, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Submission{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+submissionColumns+" FROM submissions sub WHERE sub.id = ?", id)
	return scanSubmissionRow(row.Scan)
}

// DeleteSubmission removes a submission and its attribution links.
func (s *Store) DeleteSubmission(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return deleteByID(ctx, s.sqlDB, "submissions", id)
}

// AddSprintSubmission inserts a submission and links it to the sprint and,
// when mirrorSprintathonID is set, to that sprintathon, in one transaction.
func (s *Store) AddSprintSubmission(ctx context.Context, sprintID int64, submission domain.Submission, mirrorSprintathonID int64) (domain.Submission, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Submission{}, err
	}
	if sprintID <= 0 {
		return domain.Submission{}, fmt.Errorf("sprint id is required")
	}
	submission, err := s.normalizeSubmission(submission)
	if err != nil {
		return domain.Submission{}, err
	}

	err = s.withTx(ctx, "add sprint submission", func(tx *sql.Tx) error {
		submission, err = insertSubmission(ctx, tx, submission)
		if err != nil {
			return err
		}
		if err := linkSprintSubmission(ctx, tx, sprintID, submission.ID); err != nil {
			return err
		}
		if mirrorSprintathonID > 0 {
			if err := linkSprintathonSubmission(ctx, tx, mirrorSprintathonID, submission.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return submission, nil
}

// AddSprintathonSubmission inserts a submission attributed only to a sprintathon.
func (s *Store) AddSprintathonSubmission(ctx context.Context, sprintathonID int64, submission domain.Submission) (domain.Submission, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Submission{}, err
	}
	if sprintathonID <= 0 {
		return domain.Submission{}, fmt.Errorf("sprintathon id is required")
	}
	submission, err := s.normalizeSubmission(submission)
	if err != nil {
		return domain.Submission{}, err
	}

	err = s.withTx(ctx, "add sprintathon submission", func(tx *sql.Tx) error {
		submission, err = insertSubmission(ctx, tx, submission)
		if err != nil {
			return err
		}
		return linkSprintathonSubmission(ctx, tx, sprintathonID, submission.ID)
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return submission, nil
}

// FinalizeSprint deactivates the sprint and records its deltas and bonus in
// one transaction. Deltas already present for a member are left as they are.
func (s *Store) FinalizeSprint(ctx context.Context, outcome storage.SprintOutcome) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	if outcome.SprintID <= 0 {
		return false, fmt.Errorf("sprint id is required")
	}
	deltas := make([]domain.Submission, 0, len(outcome.Deltas))
	for _, delta := range outcome.Deltas {
		if delta.Type != domain.SubmissionDelta {
			return false, fmt.Errorf("sprint outcome delta has type %q", delta.Type)
		}
		normalized, err := s.normalizeSubmission(delta)
		if err != nil {
			return false, err
		}
		deltas = append(deltas, normalized)
	}
	var bonus domain.Submission
	if outcome.Bonus != nil {
		if outcome.SprintathonID <= 0 {
			return false, fmt.Errorf("bonus requires a sprintathon")
		}
		if outcome.Bonus.Type != domain.SubmissionBonus {
			return false, fmt.Errorf("sprint outcome bonus has type %q", outcome.Bonus.Type)
		}
		var err error
		bonus, err = s.normalizeSubmission(*outcome.Bonus)
		if err != nil {
			return false, err
		}
	}

	var changed bool
	err := s.withTx(ctx, "finalize sprint", func(tx *sql.Tx) error {
		var err error
		changed, err = deactivate(ctx, tx, "sprints", outcome.SprintID)
		if err != nil || !changed {
			return err
		}
		for _, delta := range deltas {
			exists, err := hasSprintDelta(ctx, tx, outcome.SprintID, delta.MemberID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			delta, err = insertSubmission(ctx, tx, delta)
			if err != nil {
				return err
			}
			if err := linkSprintSubmission(ctx, tx, outcome.SprintID, delta.ID); err != nil {
				return err
			}
			if outcome.SprintathonID > 0 {
				if err := linkSprintathonSubmission(ctx, tx, outcome.SprintathonID, delta.ID); err != nil {
					return err
				}
			}
		}
		if outcome.Bonus == nil {
			return nil
		}
		bonus, err = insertSubmission(ctx, tx, bonus)
		if err != nil {
			return err
		}
		return linkSprintathonSubmission(ctx, tx, outcome.SprintathonID, bonus.ID)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func hasSprintDelta(ctx context.Context, tx *sql.Tx, sprintID, memberID int64) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM sprint_submissions ss
JOIN submissions sub ON sub.id = ss.submission_id
WHERE ss.sprint_id = ? AND sub.member_id = ? AND sub.type = ?
`, sprintID, memberID, string(domain.SubmissionDelta)).Scan(&count); err != nil {
		return false, fmt.Errorf("check sprint delta: %w", err)
	}
	return count > 0, nil
}

func linkSprintSubmission(ctx context.Context, execer sqlExecer, sprintID, submissionID int64) error {
	if _, err := execer.ExecContext(ctx,
		"INSERT OR IGNORE INTO sprint_submissions (sprint_id, submission_id) VALUES (?, ?)",
		sprintID, submissionID,
	); err != nil {
		return fmt.Errorf("link sprint submission: %w", err)
	}
	return nil
}

func linkSprintathonSubmission(ctx context.Context, execer sqlExecer, sprintathonID, submissionID int64) error {
	if _, err := execer.ExecContext(ctx,
		"INSERT OR IGNORE INTO sprintathon_submissions (sprintathon_id, submission_id) VALUES (?, ?)",
		sprintathonID, submissionID,
	); err != nil {
		return fmt.Errorf("link sprintathon submission: %w", err)
	}
	return nil
}

// ListSprintSubmissionsForMember returns a member's submissions for a sprint
// in insertion order.
func (s *Store) ListSprintSubmissionsForMember(ctx context.Context, sprintID, memberID int64) ([]domain.Submission, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+submissionColumns+`
FROM sprint_submissions ss
JOIN submissions sub ON sub.id = ss.submission_id
WHERE ss.sprint_id = ? AND sub.member_id = ?
ORDER BY sub.id
`, sprintID, memberID)
	if err != nil {
		return nil, fmt.Errorf("list sprint submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]domain.Submission, 0)
	for rows.Next() {
		submission, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return submissions, nil
}

// CountSprintSubmissionsForMember counts a member's submissions for a sprint.
func (s *Store) CountSprintSubmissionsForMember(ctx context.Context, sprintID, memberID int64) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM sprint_submissions ss
JOIN submissions sub ON sub.id = ss.submission_id
WHERE ss.sprint_id = ? AND sub.member_id = ?
`, sprintID, memberID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sprint submissions: %w", err)
	}
	return count, nil
}

// GetLastSubmissionForMember returns the member's latest START or FINISH
// checkpoint. Derived DELTA and BONUS rows are skipped.
func (s *Store) GetLastSubmissionForMember(ctx context.Context, memberID int64) (domain.Submission, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Submission{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+submissionColumns+`
FROM submissions sub
WHERE sub.member_id = ? AND sub.type IN (?, ?)
ORDER BY sub.created_at DESC, sub.id DESC
LIMIT 1
`, memberID, string(domain.SubmissionStart), string(domain.SubmissionFinish))
	return scanSubmissionRow(row.Scan)
}

func scanSubmissionRow(scan scanner) (domain.Submission, error) {
	submission, err := scanSubmission(scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Submission{}, storage.ErrNotFound
		}
		return domain.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	return submission, nil
}

func scanSubmission(scan scanner) (domain.Submission, error) {
	var (
		submission domain.Submission
		rawType    string
		createdAt  int64
	)
	if err := scan(&submission.ID, &submission.MemberID, &submission.WordCount, &rawType, &createdAt); err != nil {
		return domain.Submission{}, err
	}
	typ, err := domain.ParseSubmissionType(rawType)
	if err != nil {
		return domain.Submission{}, err
	}
	submission.Type = typ
	submission.CreatedAt = fromMillis(createdAt)
	return submission, nil
}
