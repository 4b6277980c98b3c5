package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"github.com/xgzlucario/xtable"
)

func main() {
	hashName := ""
	rounds := 0
	keys := 0
	flag.StringVar(&hashName, "hash", "djb2", "hash function: djb2, xxh3 or collide.")
	flag.IntVar(&rounds, "rounds", 100, "number of rounds")
	flag.IntVar(&keys, "keys", 2000, "key space per round")
	flag.Parse()

	var hash xtable.HashFn
	switch hashName {
	case "djb2":
		hash = xtable.DJB2
	case "xxh3":
		hash = xtable.XXH3
	case "collide":
		hash = xtable.HashTest
	default:
		fmt.Printf("unknown hash: %s", hashName)
		os.Exit(1)
	}

	source := rand.New(rand.NewSource(1))
	for r := 0; r < rounds; r++ {
		if err := round(hash, source, keys); err != nil {
			panic(fmt.Sprintf("round %d: %v", r, err))
		}
		if r%10 == 0 {
			fmt.Println("progress:", r, "/", rounds)
		}
	}
	fmt.Println("ok")
}

// round mixes random sets and removals, then checks every key against a map.
func round(hash xtable.HashFn, source *rand.Rand, keys int) error {
	t, err := xtable.NewTable(8, 8, hash, nil)
	if err != nil {
		return err
	}
	defer t.Destroy()

	want := make(map[uint64]uint64)
	key := make([]byte, 8)
	val := make([]byte, 8)

	for i := 0; i < keys*4; i++ {
		k := source.Uint64()%uint64(keys) + 1
		binary.LittleEndian.PutUint64(key, k)

		if source.Intn(3) == 0 {
			_, ok := want[k]
			if t.Remove(key) != ok {
				return fmt.Errorf("remove %d: want %v", k, ok)
			}
			delete(want, k)
			continue
		}
		v := source.Uint64()
		binary.LittleEndian.PutUint64(val, v)
		if err := t.Set(key, val); err != nil {
			return err
		}
		want[k] = v
	}

	if t.Len() != len(want) {
		return fmt.Errorf("len %d: want %d", t.Len(), len(want))
	}
	for k := uint64(1); k <= uint64(keys); k++ {
		binary.LittleEndian.PutUint64(key, k)
		v, ok := want[k]
		if t.Get(key, val) != ok {
			return fmt.Errorf("get %d: want %v", k, ok)
		}
		if ok && binary.LittleEndian.Uint64(val) != v {
			return fmt.Errorf("value of %d mismatch", k)
		}
	}
	return nil
}
