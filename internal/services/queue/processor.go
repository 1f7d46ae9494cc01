package queue

import (
	"context"
	"io"
	"time"

	"github.com/whoyoshome/mini-productos/internal/models"
	"github.com/whoyoshome/mini-productos/internal/services/watchdog"
	"github.com/whoyoshome/mini-productos/pkg/utils"
	"go.uber.org/zap"
)

// processJob loads the job's image through the fetcher the way a browser
// would load it on a product card: a watchdog surface settles on the image
// or on the placeholder. Reading the body to the end fills the proxy cache.
func (q *QueueService) processJob(ctx context.Context, job *models.WarmupJob, opts ...watchdog.Option) models.ImageProbe {
	ctx, cancel := context.WithTimeout(ctx, q.probeTimeout)
	defer cancel()

	surface := watchdog.New(job.ImageURL, job.Name, opts...)
	defer surface.Close()

	target := utils.Normalize(job.ImageURL)
	go func() {
		img, err := q.fetcher.Fetch(ctx, target)
		if err != nil {
			q.logger.Debug("Warm-up fetch failed", zap.String("url", target), zap.Error(err))
			surface.OnError()
			return
		}
		defer img.Body.Close()

		if _, err := io.Copy(io.Discard, img.Body); err != nil {
			surface.OnError()
			return
		}
		surface.OnLoad()
	}()

	select {
	case <-surface.Done():
	case <-ctx.Done():
	}

	return models.ImageProbe{
		ProductID: job.ProductID,
		Source:    surface.Src(),
		Loaded:    surface.Loaded(),
		Failed:    surface.Failed(),
		CheckedAt: time.Now().UTC(),
	}
}
