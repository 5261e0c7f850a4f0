package renderer

import "time"

// FrameStats describes one rasterized frame
type FrameStats struct {
	Triangles int           // Triangles considered
	Culled    int           // Entirely behind the near plane or outside the view
	Drawn     int           // Screen triangles queued for filling, after near clipping
	Lines     int           // Helper lines drawn
	Bands     int           // Parallel bands used
	Duration  time.Duration // Wall time of Draw
}
