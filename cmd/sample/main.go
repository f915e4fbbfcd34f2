package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/djeday123/charlstm/checkpoint"
	"github.com/djeday123/charlstm/sample"
)

func main() {
	ckptPath := flag.String("checkpoint", "", "checkpoint file to sample from")
	ckptDir := flag.String("dir", "checkpoints", "checkpoint directory; latest snapshot is used when -checkpoint is empty")
	prime := flag.String("prime", "The ", "priming text")
	n := flag.Int("n", 1000, "number of characters to sample")
	topK := flag.Int("topk", 5, "sample from the k most probable characters")
	seed := flag.Int64("seed", 0, "random seed; 0 uses the current time")
	flag.Parse()

	log := logrus.New()

	path := *ckptPath
	if path == "" {
		store, err := checkpoint.NewStore(*ckptDir, 0)
		if err != nil {
			log.Fatal(err)
		}
		path, err = store.Latest()
		if err != nil {
			log.Fatal(err)
		}
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	sampler, err := sample.FromCheckpoint(path, rng)
	if err != nil {
		log.Fatal(err)
	}

	text, err := sampler.Generate(*prime, *n, *topK)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(text)
}
