/*
Package stabilizego stabilizes shaky video.

It estimates frame-to-frame rigid motion (translation + rotation), smooths
the cumulative motion trajectory with a moving-average filter, and rewarps
each frame so that the residual difference between its raw trajectory and
the smoothed trajectory is removed. The result is that high-frequency
handheld shake is suppressed while intentional slow camera motion survives.

- stabilizego is a golang port of the stabilization algorithm used by
  python's vidstab https://github.com/AdamSpannbauer/python_video_stab
- This project is in **no** way associated with the original

# Basic Usage

	stab := stabilizego.NewStabilizer(stabilizego.Config{
		KeypointMethod:  stabilizego.KPGFTT,
		SmoothingWindow: 30,
	})
	err := stab.Stabilize(context.Background(), stabilizego.StabilizeOptions{
		Input:      "shaky.mov",
		Output:     "stable.avi",
		BorderType: stabilizego.BorderBlack,
		BorderSize: stabilizego.FixedBorder(0),
	})

# Core Types

Frame wraps an image with a declared color format (GRAY/BGR/BGRA) and
converts lazily between them.

FrameBuffer is a bounded FIFO of frames paired with monotonic indices,
tracking end-of-stream and supporting push-with-eviction.

MotionEstimator tracks keypoints across frames via sparse pyramidal
Lucas-Kanade optical flow and derives a 3-DOF rigid transform (dx, dy, dtheta)
per frame pair.

TrajectoryStore accumulates raw transforms into a trajectory, smooths it with
a backward-filled moving average (internal/numpy.BfillRollingMean), and
derives the residual transform actually applied to each output frame.

BorderPolicy and AutoBorder resolve how much padding/cropping a warp needs
before Warper applies the affine transform.

Stabilizer composes all of the above into three entry points:
GenerateTransforms (transform-only pass), Stabilize (full file-to-file or
camera-to-file run), and NewStreamingSession, whose StreamingSession.Push
stabilizes one frame at a time with a smoothing-window delay. Streaming
run-state lives in the StreamingSession value; between calls a Stabilizer
keeps only the transform set of its most recent motion-estimating run.
*/
package stabilizego
