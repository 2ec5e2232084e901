package workers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atelier-dev/storefrontbackend/database"
	"github.com/atelier-dev/storefrontbackend/media"
	"github.com/atelier-dev/storefrontbackend/models"
	"github.com/atelier-dev/storefrontbackend/repository"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

type testEnv struct {
	db        *gorm.DB
	store     *media.LocalStore
	builder   *media.Builder
	mediaRepo *repository.MediaRepository
	migrator  *Migrator
	legacyDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	store, err := media.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	builder := media.NewBuilder(store, media.DefaultPolicy())

	legacyDir := t.TempDir()
	mediaRepo := repository.NewMediaRepository(db)
	contentRepo := repository.NewContentRepository(db)

	return &testEnv{
		db:        db,
		store:     store,
		builder:   builder,
		mediaRepo: mediaRepo,
		legacyDir: legacyDir,
		migrator: &Migrator{
			MediaRepo:   mediaRepo,
			ContentRepo: contentRepo,
			Builder:     builder,
			Locator:     media.NewLocator([]string{legacyDir}, []string{"/uploads"}),
			Store:       store,
			SQLDB:       sqlDB,
			Workers:     1,
		},
	}
}

// seedRecord builds a real derivative set and persists its record, the way
// an upload would.
func (env *testEnv) seedRecord(t *testing.T, filename string, w, h int) *models.MediaRecord {
	t.Helper()
	data := encodeJPEG(t, w, h)
	set, err := env.builder.Build(context.Background(), data, filename, media.MimeJPEG)
	require.NoError(t, err)
	record := NewMediaRecord(filename, media.MimeJPEG, data, set)
	require.NoError(t, env.mediaRepo.Create(record))
	return record
}

func TestBackfillMigratesLegacyReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// the recorded file is gone, but two suffixed siblings survive; the
	// larger must be chosen as the source
	require.NoError(t, os.WriteFile(filepath.Join(env.legacyDir, "prod-400x400.jpg"), encodeJPEG(t, 400, 200), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(env.legacyDir, "prod-800x800.jpg"), encodeJPEG(t, 800, 400), 0644))

	ref := "/uploads/prod-300x300.jpg"
	require.NoError(t, env.db.Create(&models.Product{Name: "Mug", ImageURL: &ref}).Error)
	require.NoError(t, env.db.Create(&models.Product{Name: "No image"}).Error)

	report, err := env.migrator.Backfill(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	var product models.Product
	require.NoError(t, env.db.Where("name = ?", "Mug").First(&product).Error)
	require.NotNil(t, product.ImageURL)
	assert.True(t, strings.HasPrefix(*product.ImageURL, "/media/original/"))

	records, err := env.mediaRepo.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Width)
	assert.Equal(t, 800, *records[0].Width, "the largest surviving sibling is the source")
}

func TestBackfillIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(env.legacyDir, "slide.jpg"), encodeJPEG(t, 640, 320), 0644))
	ref := "/uploads/slide.jpg"
	require.NoError(t, env.db.Create(&models.HeroSlide{Title: "Sale", ImageURL: &ref}).Error)

	first, err := env.migrator.Backfill(ctx, "hero_slides")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := env.migrator.Backfill(ctx, "hero_slides")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed, "second run must be a no-op")
	assert.Equal(t, 1, second.Skipped)

	records, err := env.mediaRepo.List()
	require.NoError(t, err)
	assert.Len(t, records, 1, "no additional records on re-run")
}

func TestBackfillCollectsPerRowFailures(t *testing.T) {
	env := newTestEnv(t)

	gone := "/uploads/vanished-800x800.jpg"
	require.NoError(t, env.db.Create(&models.NewsPost{Title: "Old news", ImageURL: &gone}).Error)
	require.NoError(t, os.WriteFile(filepath.Join(env.legacyDir, "kept.jpg"), encodeJPEG(t, 320, 160), 0644))
	kept := "/uploads/kept.jpg"
	require.NoError(t, env.db.Create(&models.NewsPost{Title: "Fresh news", ImageURL: &kept}).Error)

	report, err := env.migrator.Backfill(context.Background(), "news_posts")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed, "one row's failure must not cancel the others")
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "no surviving source file")
}

func TestBackfillUnknownTable(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.migrator.Backfill(context.Background(), "users")
	assert.Error(t, err)
}

func TestCleanupBrokenRemovesOrphanedRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	broken := env.seedRecord(t, "broken.jpg", 600, 300)
	intact := env.seedRecord(t, "intact.jpg", 600, 300)

	// the broken record's original is referenced by a product
	require.NoError(t, env.db.Create(&models.Product{Name: "Poster", ImageURL: &broken.OriginalURL}).Error)

	// the original disappears out-of-band
	require.NoError(t, os.Remove(filepath.Join(env.store.BasePath(), "original", "broken.jpg")))

	report, err := env.migrator.CleanupBroken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	_, err = env.mediaRepo.GetByID(broken.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = env.mediaRepo.GetByID(intact.ID)
	assert.NoError(t, err)

	// derivative files are gone, missing ones having been ignored
	exists, err := env.store.Exists(ctx, media.StoragePath("broken.jpg", media.TierMedium))
	require.NoError(t, err)
	assert.False(t, exists)

	// the dangling product reference is cleared
	var product models.Product
	require.NoError(t, env.db.Where("name = ?", "Poster").First(&product).Error)
	assert.Nil(t, product.ImageURL)
}

func TestCleanupIsRerunnable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.seedRecord(t, "gone.jpg", 400, 200)
	require.NoError(t, os.Remove(filepath.Join(env.store.BasePath(), "original", "gone.jpg")))

	first, err := env.migrator.CleanupBroken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Removed)

	second, err := env.migrator.CleanupBroken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Removed)

	_, err = env.mediaRepo.GetByID(rec.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFixMissingDimensions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.seedRecord(t, "nodims.jpg", 500, 250)
	require.NoError(t, env.db.Model(&models.MediaRecord{}).Where("id = ?", rec.ID).
		Updates(map[string]interface{}{"width": nil, "height": nil}).Error)

	report, err := env.migrator.FixMissingDimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Failed)

	fixed, err := env.mediaRepo.GetByID(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, fixed.Width)
	require.NotNil(t, fixed.Height)
	assert.Equal(t, 500, *fixed.Width)
	assert.Equal(t, 250, *fixed.Height)
}

func TestReprocessAllRebuildsDerivatives(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.seedRecord(t, "re.jpg", 2000, 1000)

	// a policy change narrows the medium tier; reprocessing picks it up
	env.migrator.Builder = media.NewBuilder(env.store, media.NewPolicy(media.PolicySettings{MediumShortSide: 250}))

	report, err := env.migrator.ReprocessAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Failed)

	updated, err := env.mediaRepo.GetByID(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.MediumURL)

	data, err := env.store.Get(ctx, media.StoragePath("re.jpg", media.TierMedium))
	require.NoError(t, err)
	w, h, err := media.DecodeDimensions(data)
	require.NoError(t, err)
	assert.Equal(t, 500, w)
	assert.Equal(t, 250, h)
}
