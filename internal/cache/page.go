// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed full-page HTML cache (L2).
// When a public page is rendered, the resulting HTML is stored in
// Valkey so subsequent requests skip the DB queries and template
// execution entirely. Admin mutations purge the affected keys.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages full-page HTML caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves cached HTML for a page key. Returns false on miss.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores rendered HTML for a page key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, html []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// Invalidate removes a single page from the cache.
func (pc *PageCache) Invalidate(ctx context.Context, key string) {
	if err := pc.client.Del(ctx, pageKeyPrefix+key).Err(); err != nil {
		slog.Warn("page cache invalidate error", "key", key, "error", err)
	}
	slog.Debug("page cache invalidated", "key", key)
}

// InvalidatePrefix removes every cached page whose key starts with the
// given prefix. The calendar caches one entry per view and date, so a
// single event change purges them all at once.
func (pc *PageCache) InvalidatePrefix(ctx context.Context, prefix string) {
	pc.scanDelete(ctx, pageKeyPrefix+prefix+"*")
}

// InvalidateAll removes all cached pages by scanning for the prefix.
// Used when settings or languages change, since any page could be affected.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	pc.scanDelete(ctx, pageKeyPrefix+"*")
}

func (pc *PageCache) scanDelete(ctx context.Context, pattern string) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache cleared", "pattern", pattern, "deleted", deleted)
	}
}

// Cache keys for the public pages. The language code is part of every
// key so each language caches its own rendition.

// HomeKey returns the cache key for the public home page.
func HomeKey(lang string) string {
	return "inicio:" + lang
}

// HomePrefix returns the key prefix shared by all home renditions.
func HomePrefix() string {
	return "inicio:"
}

// EventsKey returns the cache key for the public events list.
func EventsKey(lang string) string {
	return "eventos:" + lang
}

// EventKey returns the cache key for one public event detail page.
func EventKey(lang, id string) string {
	return "eventos:" + lang + ":" + id
}

// EventsPrefix returns the key prefix shared by all event pages.
func EventsPrefix() string {
	return "eventos:"
}

// CalendarKey returns the cache key for one calendar view and date.
func CalendarKey(lang, view, date string) string {
	return "calendario:" + lang + ":" + view + ":" + date
}

// CalendarPrefix returns the key prefix shared by all calendar pages.
func CalendarPrefix() string {
	return "calendario:"
}

// CallsKey returns the cache key for the public calls list.
func CallsKey(lang string) string {
	return "convocatorias:" + lang
}

// CallKey returns the cache key for one public call detail page.
func CallKey(lang, slug string) string {
	return "convocatorias:" + lang + ":" + slug
}

// CallsPrefix returns the key prefix shared by all call pages.
func CallsPrefix() string {
	return "convocatorias:"
}

// NewsKey returns the cache key for the public news list.
func NewsKey(lang string) string {
	return "noticias:" + lang
}

// NewsArticleKey returns the cache key for one article page.
func NewsArticleKey(lang, slug string) string {
	return "noticias:" + lang + ":" + slug
}

// NewsPrefix returns the key prefix shared by all news pages.
func NewsPrefix() string {
	return "noticias:"
}

// DocumentsKey returns the cache key for the public downloads page.
func DocumentsKey(lang string) string {
	return "documentos:" + lang
}

// DocumentsPrefix returns the key prefix shared by all downloads pages.
func DocumentsPrefix() string {
	return "documentos:"
}

// ICSKey returns the cache key for the public calendar feed.
func ICSKey() string {
	return "calendario:ics"
}
