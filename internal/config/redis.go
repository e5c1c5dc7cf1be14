package config

// This file defines the Redis client constructor for the model cache.
// If the server does not answer a ping the function returns nil and
// callers run without a cache.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from c.  The returned client
// is nil if a connection cannot be established within two seconds.
func NewRedisClient(ctx context.Context, c CacheConfig) *redis.Client {
    var tlsConf *tls.Config
    if c.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      c.Addr,
        Password:  c.Password,
        DB:        c.DB,
        TLSConfig: tlsConf,
    })
    // Ping the server with a short timeout.  Return nil on failure.
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
