package workers

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/atelier-dev/storefrontbackend/database"
	"github.com/atelier-dev/storefrontbackend/media"
	"github.com/atelier-dev/storefrontbackend/models"
	"github.com/atelier-dev/storefrontbackend/repository"
)

// Report summarises one batch job run. Per-row failures are collected, not
// fatal: the operator re-runs the job after fixing what the error list
// names, and the idempotency checks skip everything already done.
type Report struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Removed   int      `json:"removed"`
	Errors    []string `json:"errors"`
}

// reportCollector guards a Report for the parallel backfill path.
type reportCollector struct {
	mu     sync.Mutex
	report Report
}

func (rc *reportCollector) processed() {
	rc.mu.Lock()
	rc.report.Processed++
	rc.mu.Unlock()
}

func (rc *reportCollector) skipped() {
	rc.mu.Lock()
	rc.report.Skipped++
	rc.mu.Unlock()
}

func (rc *reportCollector) removed() {
	rc.mu.Lock()
	rc.report.Removed++
	rc.mu.Unlock()
}

func (rc *reportCollector) failed(err error) {
	rc.mu.Lock()
	rc.report.Failed++
	rc.report.Errors = append(rc.report.Errors, err.Error())
	rc.mu.Unlock()
}

// Migrator runs the migration and consistency jobs over the content tables
// and media records. All jobs are synchronous, single-pass, and safe to
// re-run.
type Migrator struct {
	MediaRepo   *repository.MediaRepository
	ContentRepo *repository.ContentRepository
	Builder     *media.Builder
	Locator     *media.Locator
	Store       media.Store
	SQLDB       *sql.DB // raw handle for the cross-table reference cleanup
	Workers     int     // bounded pool size for backfill; <=1 runs sequentially
}

// Backfill migrates one content table's legacy image references into the
// canonical derivative convention. Rows already carrying a canonical URL
// are skipped, which is what makes a second run a zero-write no-op.
func (m *Migrator) Backfill(ctx context.Context, tableKey string) (Report, error) {
	table, ok := repository.ContentTables[tableKey]
	if !ok {
		return Report{}, fmt.Errorf("unknown content table '%s'", tableKey)
	}

	rows, err := m.ContentRepo.ListRows(table)
	if err != nil {
		return Report{}, err
	}

	canonicalPrefix := media.CanonicalOriginalPrefix(m.Store)

	workers := m.Workers
	if workers < 1 {
		workers = 1
	}

	var rc reportCollector
	jobs := make(chan repository.ContentRow)
	var wg sync.WaitGroup

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for row := range jobs {
				m.backfillRow(ctx, table, row, canonicalPrefix, &rc)
			}
		}()
	}

	for _, row := range rows {
		jobs <- row
	}
	close(jobs)
	wg.Wait()

	log.Printf("workers: Backfill of %s finished: %d processed, %d skipped, %d failed",
		table.Name, rc.report.Processed, rc.report.Skipped, rc.report.Failed)
	return rc.report, nil
}

// backfillRow does the per-row work: locate the best surviving legacy file,
// build a canonical derivative set from it, and repoint the row. One row's
// failure never cancels the others.
func (m *Migrator) backfillRow(ctx context.Context, table repository.ContentTable, row repository.ContentRow, canonicalPrefix string, rc *reportCollector) {
	if row.ImageRef == nil || *row.ImageRef == "" {
		rc.skipped()
		return
	}
	ref := *row.ImageRef
	if strings.HasPrefix(ref, canonicalPrefix) {
		rc.skipped()
		return
	}

	// a deadline expiring mid-batch turns the remaining rows into ordinary
	// per-row failures
	if err := ctx.Err(); err != nil {
		rc.failed(fmt.Errorf("%s row %d: %w", table.Name, row.ID, err))
		return
	}

	srcPath, found := m.Locator.Locate(ref)
	if !found {
		rc.failed(fmt.Errorf("%s row %d: no surviving source file for '%s'", table.Name, row.ID, ref))
		return
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		rc.failed(fmt.Errorf("%s row %d: failed to read %s: %w", table.Name, row.ID, srcPath, err))
		return
	}

	mimeType := media.MimeForFilename(srcPath)
	if mimeType == "" {
		rc.failed(fmt.Errorf("%s row %d: %s is not an allowed image type", table.Name, row.ID, srcPath))
		return
	}

	filename := uuid.New().String() + media.ExtensionForMime(mimeType)
	set, err := m.Builder.Build(ctx, data, filename, mimeType)
	if err != nil {
		rc.failed(fmt.Errorf("%s row %d: %w", table.Name, row.ID, err))
		return
	}

	record := NewMediaRecord(filename, mimeType, data, set)
	if err := m.MediaRepo.Create(record); err != nil {
		rc.failed(fmt.Errorf("%s row %d: %w", table.Name, row.ID, err))
		return
	}

	if err := m.ContentRepo.UpdateImageRef(table, row.ID, set.Original.URL); err != nil {
		rc.failed(fmt.Errorf("%s row %d: %w", table.Name, row.ID, err))
		return
	}

	rc.processed()
}

// FixMissingDimensions re-derives width/height for records that predate
// dimension tracking, from the stored original bytes, without re-encoding.
func (m *Migrator) FixMissingDimensions(ctx context.Context) (Report, error) {
	records, err := m.MediaRepo.ListMissingDimensions()
	if err != nil {
		return Report{}, err
	}

	var rc reportCollector
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}

		data, err := m.Store.Get(ctx, media.StoragePath(rec.Filename, media.TierOriginal))
		if err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}

		width, height, err := media.ProbeDimensions(data)
		if err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}

		if err := m.MediaRepo.UpdateDimensions(rec.ID, width, height); err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}
		rc.processed()
	}

	log.Printf("workers: Dimension repair finished: %d processed, %d failed", rc.report.Processed, rc.report.Failed)
	return rc.report, nil
}

// CleanupBroken removes media records whose original file has gone missing
// out-of-band: derivative files are deleted best-effort, dangling content
// references are cleared, then the record itself is deleted.
func (m *Migrator) CleanupBroken(ctx context.Context) (Report, error) {
	records, err := m.MediaRepo.List()
	if err != nil {
		return Report{}, err
	}

	var rc reportCollector
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}

		exists, err := m.Store.Exists(ctx, media.StoragePath(rec.Filename, media.TierOriginal))
		if err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}
		if exists {
			rc.skipped()
			continue
		}

		// individual not-found errors are expected here; the original is
		// already gone and some tiers may never have existed
		for _, tier := range media.AllTiers {
			if err := m.Store.Delete(ctx, media.StoragePath(rec.Filename, tier)); err != nil {
				log.Printf("workers: cleanup: failed to delete %s tier for record %d: %v", tier, rec.ID, err)
			}
		}

		if err := m.clearDanglingRefs(&rec); err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}

		if err := m.MediaRepo.Delete(rec.ID); err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}

		rc.processed()
		rc.removed()
	}

	log.Printf("workers: Cleanup finished: %d removed, %d skipped, %d failed",
		rc.report.Removed, rc.report.Skipped, rc.report.Failed)
	return rc.report, nil
}

// clearDanglingRefs nulls content-table references to any of the record's
// URLs across every content table.
func (m *Migrator) clearDanglingRefs(rec *models.MediaRecord) error {
	urls := []string{rec.OriginalURL}
	for _, u := range []*string{rec.LargeURL, rec.MediumURL, rec.ThumbURL} {
		if u != nil && *u != "" {
			urls = append(urls, *u)
		}
	}

	for _, table := range repository.ContentTables {
		for _, u := range urls {
			if _, err := database.ClearImageRefs(m.SQLDB, table.Name, table.ImageColumn, u); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReprocessAll rebuilds large/medium/thumb for every record from its stored
// original. Used after a size-policy change; the original is never
// re-uploaded or modified.
func (m *Migrator) ReprocessAll(ctx context.Context) (Report, error) {
	records, err := m.MediaRepo.List()
	if err != nil {
		return Report{}, err
	}

	var rc reportCollector
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}

		data, err := m.Store.Get(ctx, media.StoragePath(rec.Filename, media.TierOriginal))
		if err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}

		set, err := m.Builder.Build(ctx, data, rec.Filename, rec.MimeType)
		if err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}

		if err := m.MediaRepo.UpdateDerivatives(rec.ID, set); err != nil {
			rc.failed(fmt.Errorf("media record %d: %w", rec.ID, err))
			continue
		}
		rc.processed()
	}

	log.Printf("workers: Reprocess finished: %d processed, %d failed", rc.report.Processed, rc.report.Failed)
	return rc.report, nil
}

// NewMediaRecord assembles the record a caller persists after a successful
// build. The pipeline supplies the fields; the repository layer owns the
// write.
func NewMediaRecord(filename, mimeType string, data []byte, set media.DerivativeSet) *models.MediaRecord {
	capture := media.ReadCaptureInfo(data)

	width := set.Original.Width
	height := set.Original.Height
	record := &models.MediaRecord{
		Filename:    filename,
		MimeType:    mimeType,
		OriginalURL: set.Original.URL,
		Width:       &width,
		Height:      &height,
		SizeBytes:   set.Original.Size,
		TakenAt:     capture.TakenAt,
		CameraMake:  capture.CameraMake,
		CameraModel: capture.CameraModel,
	}
	if set.Large != nil {
		record.LargeURL = &set.Large.URL
	}
	if set.Medium != nil {
		record.MediumURL = &set.Medium.URL
	}
	if set.Thumb != nil {
		record.ThumbURL = &set.Thumb.URL
	}
	return record
}
