// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package render owns the per-physical-output GL resources: the cached
// drawing surfaces keyed by framebuffer id, the current scan-out size,
// and the fixed-function textured-quad blit used to present an imported
// DMA-BUF texture onto a monitor.
package render

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/shift/hal/dmabuf"
	"github.com/gogpu/shift/hal/gles/gl"
)

const blitVertexSrc = `#version 100
attribute vec2 aPos;
attribute vec2 aUV;
varying vec2 vUV;
void main() {
    vUV = aUV;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
`

const blitFragmentSrc = `#version 100
precision mediump float;
varying vec2 vUV;
uniform sampler2D uTex;
void main() {
    gl_FragColor = texture2D(uTex, vUV);
}
`

// fullscreen quad: position (clip space) interleaved with UV, two
// triangles as a triangle strip.
var blitVertices = [...]float32{
	// x, y, u, v
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, 1, 1, 0,
}

// surface is the drawing target associated with one FBO. Distinct FBOs
// can arise when the DRM driver swaps scan-out targets across frames.
type surface struct {
	fbo uint32
}

// MonitorRenderState owns one monitor's GL resources: its function
// table, current scan-out size, the FBO-keyed surface cache, and the
// compiled blit program used to draw an imported texture.
type MonitorRenderState struct {
	gl   *gl.Context
	name string

	width, height uint32
	surfaces      map[uint32]*surface
	currentFBO    uint32

	program  uint32
	vbo      uint32
	aPos     uint32
	aUV      uint32
	uTex     int32
	compiled bool
}

// NewMonitorRenderState wraps an already-current GL context for one
// monitor.
func NewMonitorRenderState(name string, glCtx *gl.Context) *MonitorRenderState {
	return &MonitorRenderState{
		gl:       glCtx,
		name:     name,
		surfaces: make(map[uint32]*surface),
	}
}

// Name returns the human-readable name this state was constructed with
// (used only in log messages).
func (m *MonitorRenderState) Name() string { return m.name }

// ensureBlitProgram lazily compiles the fixed-function textured-quad
// shader the first time this monitor draws. One compositor never
// compiles client-authored shaders; this is the single fixed program
// every plain blit renders through (transitions compile their own
// programs in the present package).
func (m *MonitorRenderState) ensureBlitProgram() error {
	if m.compiled {
		return nil
	}

	vs := m.gl.CreateShader(gl.VERTEX_SHADER)
	m.gl.ShaderSource(vs, blitVertexSrc)
	m.gl.CompileShader(vs)
	if !shaderCompiled(m.gl, vs) {
		return fmt.Errorf("render: vertex shader compile failed: %s", m.gl.GetShaderInfoLog(vs))
	}

	fs := m.gl.CreateShader(gl.FRAGMENT_SHADER)
	m.gl.ShaderSource(fs, blitFragmentSrc)
	m.gl.CompileShader(fs)
	if !shaderCompiled(m.gl, fs) {
		return fmt.Errorf("render: fragment shader compile failed: %s", m.gl.GetShaderInfoLog(fs))
	}

	prog := m.gl.CreateProgram()
	m.gl.AttachShader(prog, vs)
	m.gl.AttachShader(prog, fs)
	m.gl.LinkProgram(prog)
	m.gl.DeleteShader(vs)
	m.gl.DeleteShader(fs)

	m.program = prog
	m.uTex = m.gl.GetUniformLocation(prog, "uTex")

	m.vbo = m.gl.GenBuffers(1)
	m.gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	m.gl.BufferData(gl.ARRAY_BUFFER, len(blitVertices)*4, uintptr(unsafe.Pointer(&blitVertices[0])), gl.STATIC_DRAW)

	m.compiled = true
	return nil
}

func shaderCompiled(c *gl.Context, shader uint32) bool {
	var status int32
	c.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status != 0
}

// EnsureSurfaceTarget records the current scan-out size and FBO. If size
// changed since the last call, the entire surface cache is evicted (not
// just the stale entry), matching how the original rendering layer
// treats a resize as invalidating every cached drawing target, not only
// the one for the new size. A surface is lazily created for fbo if
// absent.
func (m *MonitorRenderState) EnsureSurfaceTarget(width, height, fbo uint32) {
	if width != m.width || height != m.height {
		m.surfaces = make(map[uint32]*surface)
		m.width, m.height = width, height
	}
	if _, ok := m.surfaces[fbo]; !ok {
		m.surfaces[fbo] = &surface{fbo: fbo}
	}
	m.currentFBO = fbo
}

// SurfaceCount reports how many surfaces are currently cached; exposed
// for the surface-cache-coherency property tests.
func (m *MonitorRenderState) SurfaceCount() int { return len(m.surfaces) }

// DrawTexture draws tex to the current surface at the full monitor
// rect, nearest-neighbour filtered, modulated by opaque white (i.e. an
// unmodified copy).
func (m *MonitorRenderState) DrawTexture(tex *dmabuf.Texture) error {
	if err := m.ensureBlitProgram(); err != nil {
		return err
	}

	m.gl.BindFramebuffer(gl.FRAMEBUFFER, m.currentFBO)
	m.gl.Viewport(0, 0, int32(m.width), int32(m.height))
	m.gl.UseProgram(m.program)

	m.gl.ActiveTexture(gl.TEXTURE0)
	m.gl.BindTexture(gl.TEXTURE_2D, tex.ID())
	m.gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	m.gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	m.gl.Uniform1i(m.uTex, 0)

	m.bindQuadAttribs()
	m.gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	return nil
}

func (m *MonitorRenderState) bindQuadAttribs() {
	m.gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	const stride = 4 * 4 // 4 floats * 4 bytes
	m.gl.EnableVertexAttribArray(0)
	m.gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, 0)
	m.gl.EnableVertexAttribArray(1)
	m.gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, 2*4)
}

// Flush forces the driver to submit pending commands without blocking
// for completion (unlike Finish).
func (m *MonitorRenderState) Flush() {
	m.gl.Flush()
}

// GL returns the underlying GL function table, for collaborators (e.g.
// present.Transition implementations) that need to issue their own draw
// calls through the same context.
func (m *MonitorRenderState) GL() *gl.Context { return m.gl }

// Width returns the current scan-out width in pixels, as last recorded
// by EnsureSurfaceTarget.
func (m *MonitorRenderState) Width() uint32 { return m.width }

// Height returns the current scan-out height in pixels, as last
// recorded by EnsureSurfaceTarget.
func (m *MonitorRenderState) Height() uint32 { return m.height }

// Program returns the compiled blit program, compiling it first if
// needed. Transitions reuse this program's vertex layout (position+UV)
// for their own fragment shaders built against the same attribute
// bindings.
func (m *MonitorRenderState) Program() (uint32, error) {
	if err := m.ensureBlitProgram(); err != nil {
		return 0, err
	}
	return m.program, nil
}

// VBO returns the fullscreen-quad vertex buffer shared by the blit and
// every transition.
func (m *MonitorRenderState) VBO() uint32 { return m.vbo }

// BindQuadAttribs exposes bindQuadAttribs to transitions drawing through
// their own program but the same quad geometry.
func (m *MonitorRenderState) BindQuadAttribs() { m.bindQuadAttribs() }
