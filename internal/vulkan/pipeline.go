package vulkan

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/vulkan-renderer/internal/gpu"
	"github.com/vkngwrapper/vulkan-renderer/internal/mesh"
)

func (b *Backend) createRenderPass() error {
	var err error
	b.renderPass, _, err = b.device.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         b.imageFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		// The image is only writable once acquisition has signaled, which
		// the submit waits for at the color output stage.
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass:    core1_0.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,
				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return gpu.Fail(gpu.ErrPipelineCreationFailed, err, "create render pass")
	}
	b.Teardown.Push("render pass", func() { b.renderPass.Destroy(nil) })

	return nil
}

func (b *Backend) createShaderModule(name string, code []uint32) (core1_0.ShaderModule, error) {
	if len(code) == 0 {
		return nil, gpu.Fail(gpu.ErrShaderModuleCreationFailed, nil, "%s shader is empty", name)
	}
	module, _, err := b.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, gpu.Fail(gpu.ErrShaderModuleCreationFailed, err, "create %s shader module", name)
	}
	return module, nil
}

func vertexInputState() *core1_0.PipelineVertexInputStateCreateInfo {
	return &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions: []core1_0.VertexInputBindingDescription{
			{
				Binding:   0,
				Stride:    mesh.VertexStride,
				InputRate: core1_0.VertexInputRateVertex,
			},
		},
		VertexAttributeDescriptions: []core1_0.VertexInputAttributeDescription{
			{
				Binding:  0,
				Location: 0,
				Format:   core1_0.FormatR32G32B32SignedFloat,
				Offset:   mesh.PositionOffset,
			},
			{
				Binding:  0,
				Location: 1,
				Format:   core1_0.FormatR32G32B32SignedFloat,
				Offset:   mesh.ColorOffset,
			},
		},
	}
}

func (b *Backend) createGraphicsPipeline() error {
	vertShader, err := b.createShaderModule("vertex", b.opts.VertexShader)
	if err != nil {
		return err
	}
	defer vertShader.Destroy(nil)

	fragShader, err := b.createShaderModule("fragment", b.opts.FragmentShader)
	if err != nil {
		return err
	}
	defer fragShader.Destroy(nil)

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(b.extent.Width),
				Height:   float32(b.extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: b.extent,
			},
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	b.pipelineLayout, _, err = b.device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return gpu.Fail(gpu.ErrPipelineCreationFailed, err, "create pipeline layout")
	}
	b.Teardown.Push("pipeline layout", func() { b.pipelineLayout.Destroy(nil) })

	pipelines, _, err := b.device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   vertexInputState(),
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			ColorBlendState:    colorBlend,
			Layout:             b.pipelineLayout,
			RenderPass:         b.renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	})
	if err != nil {
		return gpu.Fail(gpu.ErrPipelineCreationFailed, err, "create graphics pipeline")
	}
	b.pipeline = pipelines[0]
	b.Teardown.Push("pipeline", func() { b.pipeline.Destroy(nil) })

	return nil
}

func (b *Backend) createFramebuffers() error {
	for i, imageView := range b.imageViews {
		fb, _, err := b.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: b.renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
			},
			Width:  b.extent.Width,
			Height: b.extent.Height,
		})
		if err != nil {
			return gpu.Fail(gpu.ErrPipelineCreationFailed, err, "create framebuffer for swapchain image %d", i)
		}
		b.framebuffers = append(b.framebuffers, fb)
		b.Teardown.Push("framebuffer", func() { fb.Destroy(nil) })
	}

	return nil
}

func (b *Backend) createCommandPool() error {
	var err error
	b.commandPool, _, err = b.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: b.families.Graphics,
	})
	if err != nil {
		return gpu.Fail(gpu.ErrCommandRecordingFailed, err, "create command pool")
	}
	b.Teardown.Push("command pool", func() { b.commandPool.Destroy(nil) })

	return nil
}
