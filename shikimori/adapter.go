// Package shikimori adapts the Shikimori GraphQL catalog into the game's
// answer source: one round target is a random pick from the most popular
// titles.
package shikimori

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/game"
)

const animesQuery = `
	query($limit: Int, $order: OrderEnum) {
		animes(limit: $limit, order: $order) {
			id
			name
			russian
			poster { originalUrl }
		}
	}
`

const (
	catalogLimit = 50
	catalogOrder = "popularity"

	cacheKey = "shikimori:catalog"
	cacheTTL = 10 * time.Minute
)

var ErrEmptyCatalog = errors.New("shikimori: catalog is empty")

type catalogEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Russian string `json:"russian"`
	Poster  struct {
		OriginalURL string `json:"originalUrl"`
	} `json:"poster"`
}

// Config wires the adapter. Cache is optional: when nil every fetch hits
// the API directly.
type Config struct {
	URL        string
	HTTPClient *http.Client
	Cache      *redis.Client
	Rand       game.Randomizer
}

// Adapter implements game.AnswerSource.
type Adapter struct {
	url    string
	client *http.Client
	cache  *redis.Client
	rand   game.Randomizer
}

func NewAdapter(cfg Config) *Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Rand == nil {
		cfg.Rand = game.SystemRandomizer()
	}
	return &Adapter{
		url:    cfg.URL,
		client: cfg.HTTPClient,
		cache:  cfg.Cache,
		rand:   cfg.Rand,
	}
}

// FetchAnswer produces one round target or reports unavailability.
func (a *Adapter) FetchAnswer(ctx context.Context) (*game.Answer, error) {
	entries, err := a.catalog(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	entry := entries[a.rand.Intn(len(entries))]

	labelParts := make([]string, 0, 2)
	for _, part := range []string{entry.Name, entry.Russian} {
		if part != "" {
			labelParts = append(labelParts, part)
		}
	}

	return &game.Answer{
		Label:     strings.Join(labelParts, " | "),
		Value:     entry.ID,
		PosterURL: entry.Poster.OriginalURL,
	}, nil
}

// catalog returns the cached popular-titles page, refreshing it from the
// API on a miss. Cache failures degrade to a direct fetch.
func (a *Adapter) catalog(ctx context.Context) ([]catalogEntry, error) {
	if a.cache != nil {
		if raw, err := a.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var entries []catalogEntry
			if json.Unmarshal(raw, &entries) == nil && len(entries) > 0 {
				return entries, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("catalog cache read failed")
		}
	}

	entries, err := a.query(ctx)
	if err != nil {
		return nil, err
	}

	if a.cache != nil && len(entries) > 0 {
		if raw, err := json.Marshal(entries); err == nil {
			if err := a.cache.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("catalog cache write failed")
			}
		}
	}
	return entries, nil
}

func (a *Adapter) query(ctx context.Context) ([]catalogEntry, error) {
	body, err := json.Marshal(map[string]any{
		"query": animesQuery,
		"variables": map[string]any{
			"limit": catalogLimit,
			"order": catalogOrder,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shikimori: unexpected status %d", resp.StatusCode)
	}

	var decoded struct {
		Data struct {
			Animes []catalogEntry `json:"animes"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("shikimori: %s", decoded.Errors[0].Message)
	}
	return decoded.Data.Animes, nil
}
