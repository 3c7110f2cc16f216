package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/vulkan-renderer/internal/config"
	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/logging"
	"github.com/vkngwrapper/vulkan-renderer/internal/mesh"
	"github.com/vkngwrapper/vulkan-renderer/internal/renderer"
	"github.com/vkngwrapper/vulkan-renderer/internal/scene"
	"github.com/vkngwrapper/vulkan-renderer/internal/shader"
	"github.com/vkngwrapper/vulkan-renderer/internal/vulkan"
)

func init() {
	// SDL event handling must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration")
	flag.Parse()

	err := run(*configPath)
	if err != nil {
		kind := gpu.KindOf(err)
		if kind == "" {
			kind = "Error"
		}
		log.Fatalf("%s: %+v\n", kind, err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		return err
	}

	data, err := loadScene(cfg.Models)
	if err != nil {
		return err
	}

	vertShader, err := shader.LoadFile(cfg.Renderer.VertexShader)
	if err != nil {
		return err
	}
	fragShader, err := shader.LoadFile(cfg.Renderer.FragmentShader)
	if err != nil {
		return err
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "init sdl")
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(cfg.Window.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Window.Width), int32(cfg.Window.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	defer window.Destroy()

	backend, err := vulkan.New(vulkan.Options{
		Window:          window,
		ApplicationName: cfg.Window.Title,
		Validation:      cfg.Renderer.Validation,
		VertexShader:    vertShader,
		FragmentShader:  fragShader,
		Sink:            logging.LoggerSink{Logger: logger.WithPrefix("vulkan")},
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	var clear gpu.ClearColor
	copy(clear[:], cfg.Renderer.ClearColor)

	r, err := renderer.New(backend.Context, &backend.Teardown, data, renderer.Options{
		MaxFramesInFlight: cfg.Renderer.MaxFramesInFlight,
		ClearColor:        clear,
		Logger:            logger,
	})
	if err != nil {
		backend.Close()
		return err
	}

	err = mainLoop(r)
	closeErr := r.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	logger.Info("shut down", "frames", r.Frames())
	return nil
}

func loadScene(models []config.Model) ([]mesh.Data, error) {
	data := scene.DefaultQuads()
	for _, m := range models {
		color := mgl32.Vec3{1, 1, 1}
		if len(m.Color) == 3 {
			color = mgl32.Vec3{m.Color[0], m.Color[1], m.Color[2]}
		}

		model, err := scene.LoadOBJFile(m.Path, color)
		if err != nil {
			return nil, err
		}
		data = append(data, model)
	}
	return data, nil
}

func mainLoop(r *renderer.Renderer) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	rendering := true

appLoop:
	for {
		select {
		case <-stop:
			break appLoop
		default:
		}

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
				}
			}
		}

		if rendering {
			err := r.Draw()
			if err != nil {
				return err
			}
		} else {
			sdl.Delay(16)
		}
	}

	return nil
}
