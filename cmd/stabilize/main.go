// Command stabilize runs the stabilizego pipeline over a single video file
// or camera, writing a stabilized output video.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"

	stabilizego "github.com/nmichlo/stabilizego"
)

func main() {
	input := flag.String("input", "", "input video path or camera index")
	output := flag.String("output", "stable.avi", "output video path")
	window := flag.Int("window", 30, "smoothing window size")
	maxFrames := flag.Int("max-frames", 0, "max frames to process (0 = unbounded)")
	borderType := flag.String("border-type", "black", "border fill: black, reflect, replicate")
	borderSize := flag.String("border-size", "0", "border size: integer, or 'auto'")
	fourcc := flag.String("fourcc", "MJPG", "output codec FourCC")
	processingMaxDim := flag.Float64("processing-max-dim", 0, "longest-side cap for motion estimation (0 = unbounded)")
	showProgress := flag.Bool("progress", true, "show a console progress bar")
	flag.Parse()

	if *input == "" {
		log.Fatal("stabilize: -input is required")
	}

	size, err := parseBorderSize(*borderSize)
	if err != nil {
		log.Fatalf("stabilize: %v", err)
	}

	cfg := stabilizego.Config{
		KeypointMethod:   stabilizego.KPGFTT,
		ProcessingMaxDim: *processingMaxDim,
		SmoothingWindow:  *window,
		MaxFrames:        *maxFrames,
		OutputFourCC:     *fourcc,
		ShowProgress:     *showProgress,
	}
	stab := stabilizego.NewStabilizer(cfg)

	opts := stabilizego.StabilizeOptions{
		Input:      *input,
		Output:     *output,
		BorderType: stabilizego.BorderType(*borderType),
		BorderSize: size,
	}

	if err := stab.Stabilize(context.Background(), opts); err != nil {
		log.Fatalf("stabilize: %v", err)
	}

	fmt.Printf("wrote %s\n", *output)
}

func parseBorderSize(s string) (stabilizego.BorderSize, error) {
	if s == "auto" {
		return stabilizego.AutoBorderSize(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return stabilizego.BorderSize{}, fmt.Errorf("invalid -border-size %q: %w", s, err)
	}
	return stabilizego.FixedBorder(n), nil
}
