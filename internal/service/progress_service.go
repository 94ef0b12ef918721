package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

const (
	progressCacheKey     = "progress:matrix"
	progressCachePattern = "progress:*"
)

type progressRosterRepository interface {
	ListRoster(ctx context.Context) ([]models.RosterEntry, error)
}

type progressAssignmentRepository interface {
	List(ctx context.Context) ([]models.Assignment, error)
}

type progressSubmissionRepository interface {
	ListByAssignments(ctx context.Context, assignmentIDs []string) ([]models.Submission, error)
}

// ProgressService builds the roster × assignments completion matrix. Each
// source feed fails soft: a failed feed is reported in Degraded and its
// cells carry the unknown state instead of failing the whole build.
type ProgressService struct {
	users       progressRosterRepository
	assignments progressAssignmentRepository
	submissions progressSubmissionRepository
	cache       *CacheService
	metrics     *MetricsService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewProgressService constructs a ProgressService.
func NewProgressService(
	users progressRosterRepository,
	assignments progressAssignmentRepository,
	submissions progressSubmissionRepository,
	cache *CacheService,
	metrics *MetricsService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &ProgressService{
		users:       users,
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		metrics:     metrics,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Matrix returns the completion matrix, from cache when possible. Degraded
// (partial) matrices are never cached.
func (s *ProgressService) Matrix(ctx context.Context) (*models.ProgressMatrix, error) {
	start := time.Now()

	var cached models.ProgressMatrix
	if hit, err := s.cache.Get(ctx, progressCacheKey, &cached); err == nil && hit {
		s.metrics.ObserveMatrixBuild("cache", time.Since(start))
		return &cached, nil
	}

	matrix, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if len(matrix.Degraded) == 0 {
		if err := s.cache.Set(ctx, progressCacheKey, matrix, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache progress matrix", zap.Error(err))
		}
	}

	s.metrics.ObserveMatrixBuild("db", time.Since(start))
	return matrix, nil
}

// Invalidate drops any cached matrix. Called after submission and
// assignment writes.
func (s *ProgressService) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, progressCachePattern); err != nil {
		s.logger.Warn("failed to invalidate progress cache", zap.Error(err))
	}
}

func (s *ProgressService) build(ctx context.Context) (*models.ProgressMatrix, error) {
	matrix := &models.ProgressMatrix{}

	assignments, err := s.assignments.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "progress build cancelled")
		}
		s.logger.Warn("assignments feed failed", zap.Error(err))
		s.metrics.RecordDegradedFeed(models.FeedAssignments)
		matrix.Degraded = append(matrix.Degraded, models.FeedAssignments)
		assignments = nil
	}
	sortColumns(assignments)

	roster, err := s.users.ListRoster(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "progress build cancelled")
		}
		s.logger.Warn("roster feed failed", zap.Error(err))
		s.metrics.RecordDegradedFeed(models.FeedRoster)
		matrix.Degraded = append(matrix.Degraded, models.FeedRoster)
		roster = nil
	}

	assignmentIDs := make([]string, len(assignments))
	for i, a := range assignments {
		assignmentIDs[i] = a.ID
	}

	submissionsOK := true
	submissions, err := s.submissions.ListByAssignments(ctx, assignmentIDs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "progress build cancelled")
		}
		s.logger.Warn("submissions feed failed", zap.Error(err))
		s.metrics.RecordDegradedFeed(models.FeedSubmissions)
		matrix.Degraded = append(matrix.Degraded, models.FeedSubmissions)
		submissionsOK = false
	}

	// First row wins on duplicates; the upsert write path makes them
	// impossible, but an index build must still be deterministic.
	index := make(map[string]*models.Submission, len(submissions))
	for i := range submissions {
		sub := &submissions[i]
		key := sub.UserID + "\x00" + sub.AssignmentID
		if _, ok := index[key]; !ok {
			index[key] = sub
		}
	}

	matrix.Assignments = make([]models.AssignmentColumn, len(assignments))
	for i, a := range assignments {
		matrix.Assignments[i] = models.AssignmentColumn{ID: a.ID, Title: a.Title}
	}

	matrix.Rows = make([]models.ProgressRow, len(roster))
	for i, entry := range roster {
		row := models.ProgressRow{
			UserID:   entry.ID,
			UserName: entry.Name,
			Cells:    make([]models.ProgressCell, len(assignments)),
		}
		for j, a := range assignments {
			cell := models.ProgressCell{UserID: entry.ID, AssignmentID: a.ID}
			switch {
			case !submissionsOK:
				cell.State = models.CellUnknown
			default:
				if sub, ok := index[entry.ID+"\x00"+a.ID]; ok {
					cell.State = models.CellCompleted
					cell.URL = sub.URL
					status := sub.Status
					cell.Status = &status
				} else {
					cell.State = models.CellNotCompleted
				}
			}
			row.Cells[j] = cell
		}
		matrix.Rows[i] = row
	}

	return matrix, nil
}

// sortColumns orders matrix and sheet columns oldest assignment first, so
// they read day 1, day 2, ... even though listing endpoints serve newest
// first.
func sortColumns(assignments []models.Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].CreatedAt.Before(assignments[j].CreatedAt)
	})
}
