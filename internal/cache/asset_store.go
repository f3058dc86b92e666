// Package cache скачивает медиа выгрузки и переиспользует уже
// скачанные файлы между запусками.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// maxStemLength ограничивает имя файла, чтобы путь не упирался в
// платформенные пределы.
const maxStemLength = 42

// AssetStore хранит скачанные медиа в каталоге выгрузки.
// Имя файла выводится из URL и его хеша, поэтому повторный запуск
// с ReuseAssets находит ранее скачанные файлы.
type AssetStore struct {
	dirPath string
	reuse   bool
	http    *http.Client
	log     *slog.Logger

	mutex sync.Mutex
	// paths — разрешенные в этом запуске URL; повторное обращение
	// к тому же URL не трогает диск.
	paths map[string]string
}

// Option настраивает AssetStore.
type Option func(*AssetStore)

// WithHTTPClient задает HTTP-клиент для скачивания.
func WithHTTPClient(c *http.Client) Option {
	return func(s *AssetStore) { s.http = c }
}

// WithLogger задает логгер.
func WithLogger(log *slog.Logger) Option {
	return func(s *AssetStore) { s.log = log }
}

// NewAssetStore создает хранилище медиа в каталоге dirPath.
// При reuse уже существующие файлы не скачиваются заново.
func NewAssetStore(dirPath string, reuse bool, opts ...Option) *AssetStore {
	s := &AssetStore{
		dirPath: dirPath,
		reuse:   reuse,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     slog.Default(),
		paths:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveURL скачивает ресурс в каталог dir и возвращает локальный
// путь. Пустой dir означает каталог по умолчанию из конструктора.
// При любой ошибке скачивания возвращается исходный URL, чтобы
// выгрузка не прерывалась из-за одного недоступного файла.
func (s *AssetStore) ResolveURL(ctx context.Context, dir, rawURL string) string {
	if rawURL == "" {
		return rawURL
	}
	if dir == "" {
		dir = s.dirPath
	}
	key := dir + "\x00" + rawURL

	s.mutex.Lock()
	if p, ok := s.paths[key]; ok {
		s.mutex.Unlock()
		return p
	}
	s.mutex.Unlock()

	localPath := filepath.Join(dir, assetFileName(rawURL))

	if s.reuse {
		if _, err := os.Stat(localPath); err == nil {
			return s.remember(key, localPath)
		}
	}

	if err := s.download(ctx, dir, rawURL, localPath); err != nil {
		s.log.WarnContext(ctx, "Failed to download asset", "url", rawURL, "error", err)
		return s.remember(key, rawURL)
	}
	return s.remember(key, localPath)
}

func (s *AssetStore) remember(key, resolved string) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.paths[key] = resolved
	return resolved
}

func (s *AssetStore) download(ctx context.Context, dir, rawURL, localPath string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create assets directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Скачивание идет во временный файл, чтобы оборванная загрузка
	// не оставила битый файл под финальным именем.
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), localPath)
}

// assetFileName выводит имя локального файла из URL: усеченное имя из
// пути плюс короткий хеш полного URL, различающий одноименные файлы
// с разных адресов.
func assetFileName(rawURL string) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	if base == "" || base == "." || base == "/" {
		base = "asset"
	}

	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}

	hash := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%s-%x%s", sanitizeFileName(stem), hash[:4], ext)
}

func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			return '_'
		}
		return r
	}, s)
}
