// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/frameflow"
	"github.com/gogpu/frameflow/backend/wgpu"
	"github.com/gogpu/frameflow/scheduler"
	"github.com/gogpu/frameflow/submit"
)

const blitWGSL = `
@group(0) @binding(0) var<storage, read_write> pixels: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    pixels[id.x] = pixels[id.x] + 1u;
}
`

const charset = "The quick brown fox jumps over the lazy dog 0123456789"

func run(ctx context.Context, out io.Writer, cfg frameflow.Config, f flags) error {
	if f.frames < 0 || f.lanes < 0 || f.tasks < 0 {
		return errors.New("framedemo: --frames, --lanes and --tasks must not be negative")
	}

	dev, err := wgpu.OpenNoop()
	if err != nil {
		return err
	}
	defer func() { _ = dev.Close() }()

	pool := dev.NewCommandPool()
	opts := append(cfg.Options(), frameflow.WithShaderDevice(dev.HAL()))
	e := frameflow.NewEngine(dev.Handle(pool), opts...)
	defer e.Close()

	start := time.Now()
	ids, err := enqueueAssets(e)
	if err != nil {
		return err
	}
	synthetic, err := enqueueSynthetic(e, f.tasks)
	if err != nil {
		return err
	}
	ids = append(ids, synthetic...)

	var frameErrs int
	for frame := range f.frames {
		if err := e.SubmitFrame(f.lanes, recordFrame(pool, frame)); err != nil {
			frameErrs++
			frameflow.Logger().Warn("framedemo: frame failed", "frame", frame, "err", err)
		}
	}

	if err := e.Wait(ctx, ids...); err != nil {
		return err
	}

	completed, total := e.Progress()
	failed := 0
	for _, id := range ids {
		if st, _ := e.Status(id); st.State != scheduler.StateCompleted {
			failed++
			frameflow.Logger().Warn("framedemo: task did not complete", "task", id, "state", st.State, "err", st.Err)
		}
	}
	stats := e.Coordinator().Stats()
	store := e.Assets().Store().Stats()

	fmt.Fprintf(out, "tasks:   %d/%d finished, %d not completed\n", completed, total, failed)
	fmt.Fprintf(out, "frames:  %d submitted, %d lanes, %d failed\n", stats.Submissions, stats.Lanes, frameErrs)
	fmt.Fprintf(out, "sync:    %d fences, %d semaphores pooled, %d dropped\n",
		stats.PooledFences, stats.PooledSemaphores, stats.Dropped)
	fmt.Fprintf(out, "assets:  %d shaders, %d textures, %d fonts\n", store.Shaders, store.Textures, store.Fonts)
	fmt.Fprintf(out, "elapsed: %s\n", time.Since(start).Round(time.Microsecond))

	if failed > 0 || frameErrs > 0 {
		return fmt.Errorf("framedemo: %d tasks and %d frames failed", failed, frameErrs)
	}
	return nil
}

// enqueueAssets schedules one asset of each kind.
func enqueueAssets(e *frameflow.Engine) ([]scheduler.TaskID, error) {
	loader := e.Assets()

	texture, err := checkerboard(64)
	if err != nil {
		return nil, err
	}
	shaderID, err := loader.LoadShader("blit", blitWGSL, 0)
	if err != nil {
		return nil, err
	}
	textureID, err := loader.LoadTexture("checker", texture, 1, 0)
	if err != nil {
		return nil, err
	}
	fontID, err := loader.LoadFont("goregular", goregular.TTF, charset, 2)
	if err != nil {
		return nil, err
	}
	return []scheduler.TaskID{shaderID, textureID, fontID}, nil
}

// enqueueSynthetic schedules n short tasks in chains of three, each chain
// link depending on the previous one.
func enqueueSynthetic(e *frameflow.Engine, n int) ([]scheduler.TaskID, error) {
	ids := make([]scheduler.TaskID, 0, n)
	for i := range n {
		var deps []scheduler.TaskID
		if i%3 != 0 {
			deps = append(deps, ids[i-1])
		}
		work := time.Duration(i%5) * 100 * time.Microsecond
		id, err := e.Enqueue(scheduler.ActionFunc(func(ctx context.Context) error {
			select {
			case <-time.After(work):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}), i%4, deps...)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// recordFrame returns a generator recording one command buffer per lane.
func recordFrame(pool *wgpu.CommandPool, frame int) submit.Generator {
	return func(lane int) ([]submit.CommandBuffer, error) {
		label := fmt.Sprintf("frame %d lane %d", frame, lane)
		cb, err := pool.Record(label, nil)
		if err != nil {
			return nil, err
		}
		return []submit.CommandBuffer{cb}, nil
	}
}

// checkerboard encodes a size x size BMP test image.
func checkerboard(size int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			c := color.RGBA{R: 40, G: 40, B: 40, A: 255}
			if (x/8+y/8)%2 == 0 {
				c = color.RGBA{R: 220, G: 220, B: 220, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
