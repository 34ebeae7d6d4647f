// Package assets prepares shaders, textures and fonts on a scheduler.
//
// Each Load call turns one asset into scheduler tasks and returns the id of
// the task that publishes the result. Prepared assets land in a Store, an
// LRU-bounded cache shared by the render layer:
//
//	l := assets.NewLoader(sched, assets.WithCapacity(256))
//	id, _ := l.LoadTexture("atlas", pngBytes, 5, 0)
//	_ = sched.Wait(ctx, id)
//	tex, ok := l.Store().Texture("atlas")
//
// Textures are prepared by two dependent tasks: decoding, then mipmap
// generation. Shaders compile WGSL to SPIR-V with naga and, when the
// loader has a HAL device, create the shader module. Fonts are parsed and
// the advances of a prewarm charset are cached.
package assets
