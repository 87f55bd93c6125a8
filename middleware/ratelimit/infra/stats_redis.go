package infra

import (
	"context"
	"errors"
	"strings"
	"time"

	"docsearch-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore agrega as decisões em hashes do Redis. O campo de cada
// hash é o Outcome ("allowed", "rate_limited", "origin_rejected").
//
// Chaves (prefixo padrão "docsearch:guard"):
//
//	<prefix>:total               cumulativo, sem TTL
//	<prefix>:minute:<YYYYMMDDhhmm> série por minuto, com TTL
//	<prefix>:route               campo "<rota>|<outcome>"
//	<prefix>:client:<key>        só com trackKeys, com TTL
//
// A janela do limiter continua em memória. Aqui é só relatório.
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix    string
	ttl       time.Duration
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "docsearch:guard",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Prefix() string { return s.prefix }

func (s *RedisStatsStore) minuteKey(at time.Time) string {
	return s.prefix + ":minute:" + at.UTC().Format("200601021504")
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil || ev.Outcome == "" {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Outcome)

	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

		minute := s.minuteKey(at)
		pipe.HIncrBy(ctx, minute, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, minute, s.ttl)
		}

		if route := strings.TrimSpace(ev.Route); route != "" {
			pipe.HIncrBy(ctx, s.prefix+":route", route+"|"+field, 1)
		}

		// chave anônima é única por request.
		if s.trackKeys && ev.Key != "" && !ev.Key.Anonymous() {
			client := s.prefix + ":client:" + string(ev.Key)
			pipe.HIncrBy(ctx, client, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, client, s.ttl)
			}
		}
		return nil
	})
	return err
}

// Totals lê o hash cumulativo. Destinos ausentes voltam como zero.
func (s *RedisStatsStore) Totals(ctx context.Context) (Tally, error) {
	out := Tally{}
	if s == nil || s.rdb == nil {
		return out, nil
	}
	for _, o := range domain.Outcomes {
		n, err := s.rdb.HGet(ctx, s.prefix+":total", string(o)).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[o] = n
	}
	return out, nil
}
