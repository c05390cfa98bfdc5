package middleware

// golang-lru evicts the least recently used response once the cache is full.

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"google.golang.org/grpc"
)

// ResponseCache memoizes responses of methods whose result depends only on
// the request.
type ResponseCache struct {
	cache   *lru.Cache
	methods map[string]bool
}

// NewResponseCache creates a cache holding up to size responses for the given
// full method names.
func NewResponseCache(size int, methods ...string) (*ResponseCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(methods))
	for _, m := range methods {
		allowed[m] = true
	}
	return &ResponseCache{cache: cache, methods: allowed}, nil
}

// Interceptor returns the caching middleware. Errors are never cached.
func (c *ResponseCache) Interceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !c.methods[info.FullMethod] {
			return handler(ctx, req)
		}

		key, ok := generateCacheKey(info.FullMethod, req)
		if !ok {
			return handler(ctx, req)
		}
		if cachedResp, hit := c.cache.Get(key); hit {
			return cachedResp, nil
		}

		resp, err := handler(ctx, req)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, resp)
		return resp, nil
	}
}

// Len reports how many responses are cached.
func (c *ResponseCache) Len() int {
	return c.cache.Len()
}

// generateCacheKey derives the key from the method and the JSON form of the
// request. Requests that cannot be encoded are not cached.
func generateCacheKey(method string, req interface{}) (string, bool) {
	reqBytes, err := json.Marshal(req)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s:%s", method, string(reqBytes)), true
}
