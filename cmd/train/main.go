package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/djeday123/charlstm/pkg/config"
	"github.com/djeday123/charlstm/train"
)

func main() {
	dataPath := flag.String("data", "data/corpus.txt", "path to the training corpus")
	configPath := flag.String("config", "", "optional JSON config file")
	checkpointDir := flag.String("checkpoints", "", "override checkpoint directory")
	epochs := flag.Int("epochs", 0, "override number of epochs")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}
	if *checkpointDir != "" {
		cfg.CheckpointDir = *checkpointDir
	}
	if *epochs > 0 {
		cfg.Epochs = *epochs
	}

	text, err := os.ReadFile(*dataPath)
	if err != nil {
		log.WithField("path", *dataPath).Fatalf("reading corpus: %v", err)
	}

	trainer, err := train.New(string(text), cfg, log)
	if err != nil {
		log.Fatal(err)
	}
	if err := trainer.Train(); err != nil {
		log.Fatal(err)
	}
}
