//go:build visualizer

// This file is only built with -tags visualizer. It is explicitly outside
// the simulation core: it consumes snapshots over a ChannelObserver on its
// own goroutine/window loop and never touches kinematics, planner, reward,
// capture, or simulation state directly.
package observer

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	visWindowWidth  = 1000
	visWindowHeight = 720
	visPanelWidth   = 220
)

// RaylibVisualiser renders a 3D point cloud of the most recent Snapshot
// delivered over a ChannelObserver, with a raygui panel to pause and
// control playback speed. It owns its own window/event loop; Run blocks
// until the window is closed or the source channel closes.
type RaylibVisualiser struct {
	source *ChannelObserver
	paused bool
	speed  float32 // snapshots drained per rendered frame; 1.0 = one per frame
	drain  float32 // fractional carryover from speed accumulation between frames
}

// NewRaylibVisualiser wraps source, whose channel the visualiser drains on
// its own goroutine.
func NewRaylibVisualiser(source *ChannelObserver) *RaylibVisualiser {
	return &RaylibVisualiser{source: source, speed: 1}
}

// Run opens a window and renders snapshots as they arrive, until the
// window is closed or source's channel is closed by the producer.
func (v *RaylibVisualiser) Run() {
	rl.InitWindow(visWindowWidth, visWindowHeight, "intercept visualiser")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	camera := rl.Camera3D{
		Position:   rl.Vector3{X: 8000, Y: -8000, Z: 8000},
		Target:     rl.Vector3{X: 5000, Y: 5000, Z: 5000},
		Up:         rl.Vector3{X: 0, Y: 0, Z: 1},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}

	var current Snapshot
	haveSnapshot := false

	for !rl.WindowShouldClose() {
		if !v.paused {
			v.drain += v.speed
			for v.drain >= 1 {
				v.drain--
				select {
				case snap, ok := <-v.source.Channel():
					if !ok {
						return
					}
					current = snap
					haveSnapshot = true
				default:
					v.drain = 0
				}
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.BeginMode3D(camera)
		if haveSnapshot {
			for i := 0; i < current.N; i++ {
				p := current.Positions[i]
				color := rl.Blue
				if i == 0 {
					color = rl.Red
				}
				rl.DrawSphere(rl.Vector3{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}, 60, color)
			}
		}
		rl.DrawGrid(20, 1000)
		rl.EndMode3D()

		v.drawPanel(haveSnapshot, current)

		rl.EndDrawing()
	}
}

func (v *RaylibVisualiser) drawPanel(haveSnapshot bool, snap Snapshot) {
	panelX := float32(visWindowWidth - visPanelWidth - 10)
	panelY := float32(10)

	if haveSnapshot {
		rl.DrawText(fmt.Sprintf("tick %d  agents %d", snap.Timestep, snap.N), int32(panelX), int32(panelY), 16, rl.DarkGray)
	}
	panelY += 30

	toggleText := "Pause"
	if v.paused {
		toggleText = "Resume"
	}
	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: visPanelWidth, Height: 28}, toggleText) {
		v.paused = !v.paused
	}
	panelY += 38

	rl.DrawText("Speed", int32(panelX), int32(panelY), 14, rl.Gray)
	panelY += 18
	v.speed = gui.SliderBar(
		rl.Rectangle{X: panelX, Y: panelY, Width: visPanelWidth, Height: 20},
		"0.1x", "4x",
		v.speed, 0.1, 4.0,
	)
}
