// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package present

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gogpu/shift/hal/dmabuf"
	"github.com/gogpu/shift/hal/gles/gl"
	"github.com/gogpu/shift/render"
)

// Transition renders a blend of the outgoing (primary) and incoming
// (secondary) session textures for one animation frame.
type Transition interface {
	// Name is the transition's registry key, also its log identity.
	Name() string
	Render(mon *render.MonitorRenderState, primary, secondary *dmabuf.Texture, frame TransitionFrame) error
}

var (
	crossfadeSingleton  = &crossfadeTransition{}
	slideLeftSingleton  = &slideTransition{name: "slideLeft", dir: [2]float32{-1, 0}}
	slideRightSingleton = &slideTransition{name: "slideRight", dir: [2]float32{1, 0}}
	slideUpSingleton    = &slideTransition{name: "slideUp", dir: [2]float32{0, 1}}
	slideDownSingleton  = &slideTransition{name: "slideDown", dir: [2]float32{0, -1}}
	blurSingleton       = &blurTransition{}
)

// registry maps a lower-cased transition name to its singleton
// instance. Transition identity (pointer equality of the resolved
// singleton) is how callers detect "same kind, continue timeline" vs.
// "kind changed, reset the timeline" — see spec's static transition
// registry design note.
var registry = map[string]Transition{
	"crossfade":  crossfadeSingleton,
	"slideleft":  slideLeftSingleton,
	"slideright": slideRightSingleton,
	"slideup":    slideUpSingleton,
	"slidedown":  slideDownSingleton,
	"blur":       blurSingleton,
}

// Resolve looks up a transition by case-insensitive name, falling back
// to crossfade for anything unrecognised.
func Resolve(name string) Transition {
	if t, ok := registry[strings.ToLower(name)]; ok {
		return t
	}
	return crossfadeSingleton
}

// --- shared GL plumbing -----------------------------------------------

// compositeResources are the GL objects every transition in this file
// shares: the fullscreen-quad attribute layout (borrowed from the
// monitor's own blit VBO) plus each transition's own compiled program,
// cached per monitor since GL objects are not shared across unshared
// EGL contexts.
type compositeResources struct {
	mixProgram  uint32 // samples two textures, mixes by uProgress
	mixUPrimary int32
	mixUSecond  int32
	mixUProg    int32

	slideProgram uint32 // single texture, clip-space translated by uOffset
	slideUTex    int32
	slideUOffset int32

	blurProgram  uint32 // single texture, separable 1D Gaussian
	blurUTex     int32
	blurUDir     int32
	blurFBO      uint32
	blurTex      uint32
	blurW, blurH uint32
}

var resourcesByMonitor = map[*render.MonitorRenderState]*compositeResources{}

const mixFragmentSrc = `#version 100
precision mediump float;
varying vec2 vUV;
uniform sampler2D uPrimary;
uniform sampler2D uSecondary;
uniform float uProgress;
void main() {
    vec4 a = texture2D(uPrimary, vUV);
    vec4 b = texture2D(uSecondary, vUV);
    gl_FragColor = mix(a, b, uProgress);
}
`

const translateVertexSrc = `#version 100
attribute vec2 aPos;
attribute vec2 aUV;
uniform vec2 uOffset;
varying vec2 vUV;
void main() {
    vUV = aUV;
    gl_Position = vec4(aPos + uOffset, 0.0, 1.0);
}
`

const slideFragmentSrc = `#version 100
precision mediump float;
varying vec2 vUV;
uniform sampler2D uTex;
void main() {
    gl_FragColor = texture2D(uTex, vUV);
}
`

const blurFragmentSrc = `#version 100
precision mediump float;
varying vec2 vUV;
uniform sampler2D uTex;
uniform vec2 uDirection; // texel-space step, e.g. (1/width, 0)
void main() {
    vec4 sum = texture2D(uTex, vUV) * 0.38;
    sum += texture2D(uTex, vUV + uDirection) * 0.24;
    sum += texture2D(uTex, vUV - uDirection) * 0.24;
    sum += texture2D(uTex, vUV + 2.0 * uDirection) * 0.07;
    sum += texture2D(uTex, vUV - 2.0 * uDirection) * 0.07;
    gl_FragColor = sum;
}
`

const basicVertexSrc = `#version 100
attribute vec2 aPos;
attribute vec2 aUV;
varying vec2 vUV;
void main() {
    vUV = aUV;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
`

func compile(c *gl.Context, vertexSrc, fragmentSrc string) (uint32, error) {
	vs := c.CreateShader(gl.VERTEX_SHADER)
	c.ShaderSource(vs, vertexSrc)
	c.CompileShader(vs)
	if !compiled(c, vs) {
		return 0, fmt.Errorf("present: vertex shader compile failed: %s", c.GetShaderInfoLog(vs))
	}
	fs := c.CreateShader(gl.FRAGMENT_SHADER)
	c.ShaderSource(fs, fragmentSrc)
	c.CompileShader(fs)
	if !compiled(c, fs) {
		return 0, fmt.Errorf("present: fragment shader compile failed: %s", c.GetShaderInfoLog(fs))
	}
	prog := c.CreateProgram()
	c.AttachShader(prog, vs)
	c.AttachShader(prog, fs)
	c.LinkProgram(prog)
	c.DeleteShader(vs)
	c.DeleteShader(fs)
	return prog, nil
}

func compiled(c *gl.Context, shader uint32) bool {
	var status int32
	c.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status != 0
}

func ensureResources(mon *render.MonitorRenderState) (*compositeResources, error) {
	if r, ok := resourcesByMonitor[mon]; ok {
		return r, nil
	}
	c := mon.GL()

	mixProg, err := compile(c, basicVertexSrc, mixFragmentSrc)
	if err != nil {
		return nil, err
	}
	slideProg, err := compile(c, translateVertexSrc, slideFragmentSrc)
	if err != nil {
		return nil, err
	}
	blurProg, err := compile(c, basicVertexSrc, blurFragmentSrc)
	if err != nil {
		return nil, err
	}

	r := &compositeResources{
		mixProgram:   mixProg,
		mixUPrimary:  c.GetUniformLocation(mixProg, "uPrimary"),
		mixUSecond:   c.GetUniformLocation(mixProg, "uSecondary"),
		mixUProg:     c.GetUniformLocation(mixProg, "uProgress"),
		slideProgram: slideProg,
		slideUTex:    c.GetUniformLocation(slideProg, "uTex"),
		slideUOffset: c.GetUniformLocation(slideProg, "uOffset"),
		blurProgram:  blurProg,
		blurUTex:     c.GetUniformLocation(blurProg, "uTex"),
		blurUDir:     c.GetUniformLocation(blurProg, "uDirection"),
	}
	resourcesByMonitor[mon] = r
	return r, nil
}

// --- crossfade ----------------------------------------------------------

type crossfadeTransition struct{}

func (t *crossfadeTransition) Name() string { return "crossfade" }

func (t *crossfadeTransition) Render(mon *render.MonitorRenderState, primary, secondary *dmabuf.Texture, frame TransitionFrame) error {
	r, err := ensureResources(mon)
	if err != nil {
		return err
	}
	c := mon.GL()
	c.UseProgram(r.mixProgram)

	c.ActiveTexture(gl.TEXTURE0)
	c.BindTexture(gl.TEXTURE_2D, primary.ID())
	c.Uniform1i(r.mixUPrimary, 0)

	c.ActiveTexture(gl.TEXTURE1)
	c.BindTexture(gl.TEXTURE_2D, secondary.ID())
	c.Uniform1i(r.mixUSecond, 1)

	c.Uniform1f(r.mixUProg, float32(frame.Value(transitionAnimationName)))

	mon.BindQuadAttribs()
	c.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	return nil
}

// --- slide ----------------------------------------------------------

type slideTransition struct {
	name string
	dir  [2]float32
}

func (t *slideTransition) Name() string { return t.name }

func (t *slideTransition) Render(mon *render.MonitorRenderState, primary, secondary *dmabuf.Texture, frame TransitionFrame) error {
	r, err := ensureResources(mon)
	if err != nil {
		return err
	}
	c := mon.GL()
	p := float32(frame.Value(transitionAnimationName))

	c.UseProgram(r.slideProgram)
	mon.BindQuadAttribs()

	// Primary slides fully off-screen by progress p.
	c.ActiveTexture(gl.TEXTURE0)
	c.BindTexture(gl.TEXTURE_2D, primary.ID())
	c.Uniform1i(r.slideUTex, 0)
	c.Uniform2f(r.slideUOffset, t.dir[0]*2*p, t.dir[1]*2*p)
	c.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)

	// Secondary slides in from the opposite side.
	c.BindTexture(gl.TEXTURE_2D, secondary.ID())
	c.Uniform2f(r.slideUOffset, -t.dir[0]*2*(1-p), -t.dir[1]*2*(1-p))
	c.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	return nil
}

// --- blur ----------------------------------------------------------

type blurTransition struct{}

func (t *blurTransition) Name() string { return "blur" }

// Render cross-fades primary against a blurred secondary: one horizontal
// Gaussian pass renders secondary into an offscreen texture, and the mix
// shader then cross-fades primary with that texture. The blur is
// horizontal only; no vertical blur pass is applied.
func (t *blurTransition) Render(mon *render.MonitorRenderState, primary, secondary *dmabuf.Texture, frame TransitionFrame) error {
	r, err := ensureResources(mon)
	if err != nil {
		return err
	}
	c := mon.GL()
	w, h := secondary.Width(), secondary.Height()

	if err := ensureBlurTarget(c, r, w, h); err != nil {
		return err
	}

	// Pass 1: horizontal blur of secondary into r.blurTex.
	c.BindFramebuffer(gl.FRAMEBUFFER, r.blurFBO)
	c.Viewport(0, 0, int32(w), int32(h))
	c.UseProgram(r.blurProgram)
	c.ActiveTexture(gl.TEXTURE0)
	c.BindTexture(gl.TEXTURE_2D, secondary.ID())
	c.Uniform1i(r.blurUTex, 0)
	c.Uniform2f(r.blurUDir, 1.0/float32(w), 0)
	mon.BindQuadAttribs()
	c.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)

	// Cross-fade into the default framebuffer: r.blurTex carries the
	// horizontal pass and the mix shader samples it once, unblurred
	// vertically.
	c.BindFramebuffer(gl.FRAMEBUFFER, 0)

	blurredSecond := r.blurTex
	c.UseProgram(r.mixProgram)
	c.ActiveTexture(gl.TEXTURE0)
	c.BindTexture(gl.TEXTURE_2D, primary.ID())
	c.Uniform1i(r.mixUPrimary, 0)
	c.ActiveTexture(gl.TEXTURE1)
	c.BindTexture(gl.TEXTURE_2D, blurredSecond)
	c.Uniform1i(r.mixUSecond, 1)
	c.Uniform1f(r.mixUProg, float32(frame.Value(transitionAnimationName)))
	mon.BindQuadAttribs()
	c.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	return nil
}

func ensureBlurTarget(c *gl.Context, r *compositeResources, w, h uint32) error {
	if r.blurFBO != 0 && r.blurW == w && r.blurH == h {
		return nil
	}
	if r.blurFBO != 0 {
		c.DeleteFramebuffers(r.blurFBO)
		c.DeleteTextures(r.blurTex)
	}

	tex := c.GenTextures(1)
	c.BindTexture(gl.TEXTURE_2D, tex)
	c.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, uintptr(unsafe.Pointer(nil)))
	c.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	c.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	c.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	c.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	fbo := c.GenFramebuffers(1)
	c.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	c.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, 0)
	if status := c.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("present: blur framebuffer incomplete: 0x%x", status)
	}

	r.blurTex = tex
	r.blurFBO = fbo
	r.blurW, r.blurH = w, h
	return nil
}
