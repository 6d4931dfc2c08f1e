// mot-replay reads detections as JSON lines from stdin and writes every line
// back to stdout with tracked objects attached.
package main

import (
	"bufio"
	"flag"
	"os"

	"github.com/LdDl/mot-tracker/config"
	"github.com/LdDl/mot-tracker/mot"
	"github.com/LdDl/mot-tracker/session"
	"github.com/sirupsen/logrus"
)

var (
	configPath     = flag.String("config", "", "Path to tuning JSON file. Built-in defaults are used when empty")
	algorithm      = flag.Uint("algorithm", uint(mot.AlgorithmByteTrack), "Tracking algorithm: 0 - ByteTrack, 1 - IoU, 2 - Centroid")
	flags          = flag.Uint("flags", uint(session.FlagNone), "Flags bitmask: 1 - greedy matching, 2 - class agnostic, 4 - no motion")
	scoreThreshold = flag.Float64("threshold", 0.1, "Minimum detection score")
	iouThreshold   = flag.Float64("iou", 0.7, "IoU threshold for suppression of overlapping detections")
	verbose        = flag.Bool("v", false, "Verbose logging")
)

func main() {
	flag.Parse()
	logrus.SetOutput(os.Stderr)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logger := logrus.WithField("app", "mot-replay")

	opts := []session.Option{session.WithLogger(logrus.StandardLogger())}
	if *configPath != "" {
		tuning, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			logger.WithError(err).Fatal("can't load tuning")
		}
		opts = append(opts, session.WithTuning(tuning))
	}

	r := newReplayer(mot.Algorithm(*algorithm), session.Flags(*flags), *scoreThreshold, *iouThreshold, logger, opts...)
	defer r.Close()

	scanner := bufio.NewScanner(os.Stdin)
	bufsize := 10 << 20
	scanner.Buffer(make([]byte, bufsize), bufsize)
	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		out, err := r.processLine(scanner.Bytes())
		if err != nil {
			logger.WithError(err).WithField("line", lineNo).Error("frame skipped")
			continue
		}
		if _, err := writer.Write(out); err != nil {
			logger.WithError(err).Error("can't write output")
			return
		}
		if err := writer.WriteByte('\n'); err != nil {
			logger.WithError(err).Error("can't write output")
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.WithError(err).Error("can't read input")
	}
}
