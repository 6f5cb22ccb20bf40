package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"alcyxob/jogging-api/internal/domain"
	"alcyxob/jogging-api/internal/filter"
	"alcyxob/jogging-api/internal/repository"
	"alcyxob/jogging-api/internal/storage"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportExport describes an archived report export.
type ReportExport struct {
	Key     string `json:"key"`
	URL     string `json:"url"`
	Records int    `json:"records"`
}

// ReportService aggregates sessions into weekly average-speed records,
// one per (user, ISO week) pair.
type ReportService interface {
	// Generate builds the report for one user (or all users when userID is
	// nil), optionally post-filtered by a filter expression. Record ids are
	// assigned before filtering and are not renumbered, so a filtered
	// report may have gaps in its id sequence.
	Generate(ctx context.Context, userID *primitive.ObjectID, filterString string) ([]domain.ReportRecord, error)

	// Export generates the report, renders it as CSV and uploads it to the
	// report archive, returning the object key and a download URL.
	Export(ctx context.Context, userID *primitive.ObjectID, filterString string) (*ReportExport, error)
}

type reportService struct {
	sessionRepo repository.SessionRepository
	archive     storage.ReportArchive
}

func NewReportService(sessionRepo repository.SessionRepository, archive storage.ReportArchive) ReportService {
	return &reportService{
		sessionRepo: sessionRepo,
		archive:     archive,
	}
}

type reportGroupKey struct {
	week   int
	userID primitive.ObjectID
}

type reportTotals struct {
	distance int
	duration int
}

func (s *reportService) Generate(ctx context.Context, userID *primitive.ObjectID, filterString string) ([]domain.ReportRecord, error) {
	sessions, err := s.sessionRepo.ListForReport(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Collate totals by (week, user), preserving first-seen group order.
	// The scan order (week desc, user, start desc) fixes which record id
	// each group receives; it does not affect the aggregate values.
	var order []reportGroupKey
	totals := make(map[reportGroupKey]*reportTotals)
	for i := range sessions {
		key := reportGroupKey{week: sessions[i].Week, userID: sessions[i].UserID}
		group, seen := totals[key]
		if !seen {
			group = &reportTotals{}
			totals[key] = group
			order = append(order, key)
		}
		group.distance += sessions[i].Distance
		group.duration += sessions[i].Duration
	}

	// Average speed is total distance over total duration, so missing or
	// skipped days do not reduce a week's average.
	records := make([]domain.ReportRecord, 0, len(order))
	for i, key := range order {
		group := totals[key]
		speed := 0.0
		if group.duration > 0 {
			km := float64(group.distance) / 1000.0
			hr := float64(group.duration) / 60.0
			speed = roundSpeed(km / hr)
		}
		records = append(records, domain.ReportRecord{
			Record:   i + 1,
			UserID:   key.userID.Hex(),
			Week:     key.week,
			Distance: group.distance,
			Duration: group.duration,
			AvgSpeed: speed,
		})
	}

	if filterString == "" {
		return records, nil
	}

	filtered := []domain.ReportRecord{}
	for i := range records {
		if filter.Evaluate(filterString, reportTokens(&records[i])) {
			filtered = append(filtered, records[i])
		}
	}
	return filtered, nil
}

func (s *reportService) Export(ctx context.Context, userID *primitive.ObjectID, filterString string) (*ReportExport, error) {
	records, err := s.Generate(ctx, userID, filterString)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"record", "user", "week", "distance", "duration", "avg_speed"})
	for _, r := range records {
		_ = w.Write([]string{
			strconv.Itoa(r.Record),
			r.UserID,
			strconv.Itoa(r.Week),
			strconv.Itoa(r.Distance),
			strconv.Itoa(r.Duration),
			strconv.FormatFloat(r.AvgSpeed, 'f', 1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	objectKey := "reports/" + uuid.NewString() + ".csv"
	if err := s.archive.Put(ctx, objectKey, "text/csv", buf.Bytes()); err != nil {
		return nil, err
	}

	downloadURL, err := s.archive.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	log.Infof("report export archived as %s (%d records)", objectKey, len(records))

	return &ReportExport{
		Key:     objectKey,
		URL:     downloadURL,
		Records: len(records),
	}, nil
}

// reportTokens builds the per-record substitution map for the filter
// evaluator.
func reportTokens(record *domain.ReportRecord) map[string]string {
	tokens := filter.NewTokens()
	tokens["user"] = "'" + record.UserID + "'"
	tokens["week"] = strconv.Itoa(record.Week)
	tokens["distance"] = strconv.Itoa(record.Distance)
	tokens["duration"] = strconv.Itoa(record.Duration)
	tokens["avg_speed"] = strconv.FormatFloat(record.AvgSpeed, 'f', 1, 64)
	return tokens
}
