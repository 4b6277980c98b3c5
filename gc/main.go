package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/tidwall/hashmap"

	"github.com/xgzlucario/xtable"
)

var previousPause time.Duration

func gcPause() time.Duration {
	runtime.GC()
	var stats debug.GCStats
	debug.ReadGCStats(&stats)
	pause := stats.PauseTotal - previousPause
	previousPause = stats.PauseTotal
	return pause
}

const keySize = 14

func main() {
	c := ""
	entries := 0
	repeat := 0
	valueSize := 0
	flag.StringVar(&c, "cache", "arena", "cache to bench.")
	flag.IntVar(&entries, "entries", 20000000, "number of entries to test")
	flag.IntVar(&repeat, "repeat", 50, "number of repetitions")
	flag.IntVar(&valueSize, "value-size", 100, "size of single entry value in bytes")
	flag.Parse()

	debug.SetGCPercent(10)
	fmt.Println("Cache:             ", c)
	fmt.Println("Number of entries: ", entries)
	fmt.Println("Number of repeats: ", repeat)
	fmt.Println("Value size:        ", valueSize)

	var benchFunc func(entries, valueSize int)

	switch c {
	case "bigcache":
		benchFunc = bigCache
	case "arena":
		benchFunc = arenaTable
	case "heap":
		benchFunc = heapTable
	case "stdmap":
		benchFunc = stdMap
	case "hashmap":
		benchFunc = hashMap
	default:
		fmt.Printf("unknown cache: %s", c)
		os.Exit(1)
	}

	benchFunc(entries, valueSize)
	fmt.Println("GC pause for startup: ", gcPause())
	for i := 0; i < repeat; i++ {
		benchFunc(entries, valueSize)
	}

	fmt.Printf("GC pause for %s: %s\n", c, gcPause())
}

func stdMap(entries, valueSize int) {
	mapCache := make(map[string][]byte)
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i, valueSize)
		mapCache[key] = val
	}
}

func hashMap(entries, valueSize int) {
	var mapCache hashmap.Map[string, []byte]
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i, valueSize)
		mapCache.Set(key, val)
	}
}

func bigCache(entries, valueSize int) {
	config := bigcache.Config{
		Shards:             256,
		LifeWindow:         100 * time.Minute,
		MaxEntriesInWindow: entries,
		MaxEntrySize:       200,
		Verbose:            true,
	}

	bigcache, _ := bigcache.New(context.Background(), config)
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i, valueSize)
		bigcache.Set(key, val)
	}
}

func arenaTable(entries, valueSize int) {
	arena, err := xtable.NewArena(4 * 1024 * 1024)
	if err != nil {
		panic(err)
	}
	defer arena.Destroy()
	fillTable(entries, valueSize, xtable.Options{Allocator: arena.Allocator()})
}

func heapTable(entries, valueSize int) {
	fillTable(entries, valueSize, xtable.Options{})
}

func fillTable(entries, valueSize int, options xtable.Options) {
	t, err := xtable.NewTable(keySize, valueSize, nil, nil, options)
	if err != nil {
		panic(err)
	}
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i, valueSize)
		if err := t.Set([]byte(key), val); err != nil {
			panic(err)
		}
	}
	t.Destroy()
}

func generateKeyValue(index int, valSize int) (string, []byte) {
	key := fmt.Sprintf("key-%010d", index)
	fixedNumber := []byte(fmt.Sprintf("%010d", index))
	val := append(make([]byte, valSize-10), fixedNumber...)

	return key, val
}
