package artwork

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"

	"github.com/contre95/bandpass/src/features/config"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// Service scales embedded album artwork down to JPEG thumbnails and keeps the
// results in memory.
type Service struct {
	config *config.Manager

	mu    sync.Mutex
	cache map[string][]byte
}

// NewService creates a new artwork service
func NewService(config *config.Manager) *Service {
	return &Service{
		config: config,
		cache:  make(map[string][]byte),
	}
}

// Thumbnail returns artwork resized to fit a size x size box. A size of zero uses the
// configured size. Images already smaller than the box are re-encoded, not upscaled.
func (s *Service) Thumbnail(data []byte, size int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty artwork")
	}
	cfg := s.config.Get().Artwork
	if size <= 0 {
		size = cfg.Size
	}

	hash := md5.Sum(data)
	cacheKey := fmt.Sprintf("%x-%d", hash, size)
	s.mu.Lock()
	cached, ok := s.cache[cacheKey]
	s.mu.Unlock()
	if ok {
		slog.Debug("Using cached artwork thumbnail", "key", cacheKey)
		return cached, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork image: %w", err)
	}
	img = resize.Thumbnail(uint(size), uint(size), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: cfg.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode artwork image: %w", err)
	}
	out := buf.Bytes()
	slog.Debug("Artwork thumbnail created", "source_format", format, "size", size, "bytes", len(out))

	s.mu.Lock()
	s.cache[cacheKey] = out
	s.mu.Unlock()
	return out, nil
}
