package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/fanout/cache"
)

func ExampleMemoryCache_Get() {
	c, err := cache.NewMemoryCache(cache.Config{Capacity: 100})
	if err != nil {
		panic(err)
	}
	defer c.Close()
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	fmt.Println("missing found:", ok)

	_ = c.Set(ctx, "exists", []byte("data"), time.Hour)
	value, ok := c.Get(ctx, "exists")
	fmt.Println("exists found:", ok, string(value))
	// Output:
	// missing found: false
	// exists found: true data
}

func ExampleLoader_Load() {
	c, err := cache.NewMemoryCache(cache.Config{DefaultTTL: time.Minute})
	if err != nil {
		panic(err)
	}
	defer c.Close()

	loader, err := cache.NewLoader[string](c, cache.LoaderConfig{})
	if err != nil {
		panic(err)
	}
	key, _ := cache.NewDefaultKeyer().Key("account", "user-1")

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "**** 4242", nil
	}

	for i := 0; i < 3; i++ {
		v, _ := loader.Load(context.Background(), key, fetch)
		fmt.Println(v)
	}
	fmt.Println("fetches:", calls)
	// Output:
	// **** 4242
	// **** 4242
	// **** 4242
	// fetches: 1
}
