// Package renderer puts the scene on the GPU and drives frames for a
// backend-provided context.
package renderer

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/vkngwrapper/vulkan-renderer/internal/commands"
	"github.com/vkngwrapper/vulkan-renderer/internal/frame"
	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/memory"
	"github.com/vkngwrapper/vulkan-renderer/internal/mesh"
	"github.com/vkngwrapper/vulkan-renderer/internal/upload"
)

const defaultStatsInterval = 5 * time.Second

type Options struct {
	MaxFramesInFlight int
	ClearColor        gpu.ClearColor
	// StatsInterval is how often frame timings are logged. Zero means every
	// five seconds.
	StatsInterval time.Duration
	Logger        *log.Logger
}

type Renderer struct {
	ctx      *gpu.Context
	teardown *gpu.Teardown
	logger   *log.Logger

	meshes    []*mesh.Mesh
	commands  *commands.Set
	scheduler *frame.Scheduler
	timer     *frame.Timer
}

// New uploads scene, records the per-image command buffers and sets up the
// frame slots. On success the renderer registers its resources on teardown
// above everything already there. On failure it releases what it created
// and leaves teardown untouched.
func New(ctx *gpu.Context, teardown *gpu.Teardown, scene []mesh.Data, opts Options) (*Renderer, error) {
	if opts.MaxFramesInFlight == 0 {
		opts.MaxFramesInFlight = frame.DefaultMaxFramesInFlight
	}
	if opts.StatsInterval == 0 {
		opts.StatsInterval = defaultStatsInterval
	}

	r := &Renderer{
		ctx:      ctx,
		teardown: teardown,
		logger:   opts.Logger,
		timer:    frame.NewTimer(opts.StatsInterval, opts.Logger),
	}

	uploader := upload.NewUploader(ctx, memory.NewAllocator(ctx.Device, opts.Logger), opts.Logger)
	for _, data := range scene {
		m, err := mesh.New(uploader, data)
		if err != nil {
			r.release()
			return nil, err
		}
		r.meshes = append(r.meshes, m)
	}

	var err error
	r.commands, err = commands.Record(ctx, r.meshes, opts.ClearColor)
	if err != nil {
		r.release()
		return nil, err
	}

	r.scheduler, err = frame.NewScheduler(ctx, r.commands, opts.MaxFramesInFlight, opts.Logger)
	if err != nil {
		r.release()
		return nil, err
	}

	teardown.Push("scene", r.release)

	if r.logger != nil {
		r.logger.Info("renderer ready",
			"meshes", len(r.meshes),
			"images", ctx.ImageCount(),
			"frames_in_flight", opts.MaxFramesInFlight)
	}
	return r, nil
}

// release frees mesh buffers, then frame slots, then command buffers.
func (r *Renderer) release() {
	for _, m := range r.meshes {
		m.Destroy()
	}
	r.meshes = nil

	if r.scheduler != nil {
		r.scheduler.Destroy()
		r.scheduler = nil
	}

	if r.commands != nil {
		r.commands.Free()
		r.commands = nil
	}
}

// Draw renders one frame.
func (r *Renderer) Draw() error {
	err := r.scheduler.Draw()
	if err != nil {
		return err
	}
	r.timer.Tick()
	return nil
}

func (r *Renderer) Meshes() []*mesh.Mesh {
	return r.meshes
}

func (r *Renderer) Frames() uint64 {
	if r.scheduler == nil {
		return 0
	}
	return r.scheduler.Frames()
}

// Close waits for the device to go idle and then runs the whole teardown,
// backend objects included. Objects are released even when the wait fails;
// the wait error is returned.
func (r *Renderer) Close() error {
	err := r.ctx.Device.WaitIdle()
	if err != nil && r.logger != nil {
		r.logger.Error("device did not go idle before teardown", "err", err)
	}

	r.teardown.Run(func(name string) {
		if r.logger != nil {
			r.logger.Debug("destroying", "object", name)
		}
	})

	if err != nil {
		return gpu.Fail(gpu.ErrQueueSubmissionFailed, err, "wait for device idle")
	}
	return nil
}
