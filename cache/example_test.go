package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/selfheal/cache"
)

func ExampleNewMemoryCache() {
	c := cache.NewMemoryCache[string](cache.DefaultPolicy())

	c.Set("check:node-version", "PASS")

	value, ok := c.Get("check:node-version")
	fmt.Println(value, ok)
	fmt.Println(c.Stats().Size, c.Stats().TTL)
	// Output:
	// PASS true
	// 1 5m0s
}

func ExampleDefaultKeyer_Key() {
	k := cache.NewDefaultKeyer()
	key, _ := k.Key("disk-space", nil)
	fmt.Println(key)
	// Output:
	// check:disk-space
}

func ExampleLoader_Load() {
	c := cache.NewMemoryCache[string](cache.Policy{TTL: time.Minute})
	l := cache.NewLoader[string](c, nil)
	ctx := context.Background()

	load := func(context.Context) (string, error) { return "computed", nil }

	v, hit, _ := l.Load(ctx, "k", load)
	fmt.Println(v, hit)
	v, hit, _ = l.Load(ctx, "k", load)
	fmt.Println(v, hit)
	// Output:
	// computed false
	// computed true
}
