// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package dmabuf imports client-provided DMA-BUF file descriptors into
// GPU-sampleable GL textures, using the GL_OES_EGL_image /
// EGL_EXT_image_dma_buf_import extension pair. No CPU-side copy is ever
// made: the texture's storage is the client's buffer, mapped in by the
// display controller's own driver.
package dmabuf

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gogpu/shift/hal/gles/egl"
	"github.com/gogpu/shift/hal/gles/gl"
)

// ErrUnsupportedFourCC is returned when the driver lacks dma-buf import
// support at all (missing EGL_EXT_image_dma_buf_import entry points).
var ErrUnsupportedFourCC = errors.New("dmabuf: fourcc import unsupported by driver")

// ErrImageCreateFailed is returned when eglCreateImageKHR rejects the
// buffer description (bad stride, unsupported fourcc, unsupported
// modifier, ...).
var ErrImageCreateFailed = errors.New("dmabuf: eglCreateImageKHR failed")

// ErrTextureBindFailed is returned when binding the created EGLImage to a
// GL texture fails (missing GL_OES_EGL_image, or the driver refused the
// specific image).
var ErrTextureBindFailed = errors.New("dmabuf: GL texture bind failed")

// PlaneLayout describes a single-plane DMA-BUF-backed buffer as handed
// over the wire in a FramebufferLink/SwapBuffers command.
type PlaneLayout struct {
	Width    uint32
	Height   uint32
	Stride   uint32
	Offset   uint32
	FourCC   uint32
	Modifier uint64 // 0 when the client did not supply an explicit modifier
}

// Texture is a GL texture object backed directly by an imported DMA-BUF.
// It owns both the GL texture name and the EGLImage; Release destroys
// both. The originating file descriptor is NOT owned by Texture — it is
// consumed (duped into the EGLImage by the driver, or closed) by Import
// before Import returns.
type Texture struct {
	gl    *gl.Context
	dpy   egl.EGLDisplay
	image egl.EGLImageKHR
	id    uint32
	w, h  uint32
}

// ID returns the GL texture name, valid for binding to GL_TEXTURE_2D.
func (t *Texture) ID() uint32 { return t.id }

// Width returns the imported buffer's width in pixels.
func (t *Texture) Width() uint32 { return t.w }

// Height returns the imported buffer's height in pixels.
func (t *Texture) Height() uint32 { return t.h }

// Release destroys the GL texture and the backing EGLImage. Safe to call
// once; subsequent calls are no-ops. Safe to call on a nil Texture (a
// slot the caller never actually imported a buffer for).
func (t *Texture) Release() {
	if t == nil {
		return
	}
	if t.id != 0 {
		t.gl.DeleteTextures(t.id)
		t.id = 0
	}
	if t.image != egl.NoImageKHR {
		egl.DestroyImageKHR(t.dpy, t.image)
		t.image = egl.NoImageKHR
	}
}

// Importer binds a single EGL display/context pair to the dma-buf import
// entry points. Must be constructed and used only from the GL-context-
// confined thread; see the module root RenderingLayer for that
// confinement.
type Importer struct {
	dpy egl.EGLDisplay
	ctx egl.EGLContext
	gl  *gl.Context
}

// NewImporter wraps an already-current EGL context and its GL function
// table. Returns ErrUnsupportedFourCC if the driver cannot do dma-buf
// import at all, since nothing downstream of it can ever succeed.
func NewImporter(eglCtx *egl.Context, glCtx *gl.Context) (*Importer, error) {
	if err := egl.InitImageKHR(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFourCC, err)
	}
	if !glCtx.HasEGLImageTargetTexture2DOES() {
		return nil, fmt.Errorf("%w: GL_OES_EGL_image not present", ErrUnsupportedFourCC)
	}
	return &Importer{
		dpy: eglCtx.Display(),
		ctx: eglCtx.EGLContext(),
		gl:  glCtx,
	}, nil
}

// Import takes ownership of fd and produces a GPU-sampleable texture from
// it. On any failure fd is closed and a nil Texture with a wrapped error
// is returned; on success the fd is owned by the kernel DMA-BUF subsystem
// via the created EGLImage, and closing it here (which Import does,
// matching how the EXT_image_dma_buf_import extension works: the driver
// dups what it needs at eglCreateImageKHR time) does not invalidate the
// mapping.
func (im *Importer) Import(fd int, layout PlaneLayout) (tex *Texture, err error) {
	defer func() {
		_ = unix.Close(fd)
	}()

	attribs := []egl.EGLInt{
		egl.Width, egl.EGLInt(layout.Width),
		egl.Height, egl.EGLInt(layout.Height),
		egl.LinuxDRMFourCCEXT, egl.EGLInt(layout.FourCC),
		egl.DMABufPlane0FdEXT, egl.EGLInt(fd),
		egl.DMABufPlane0OffsetEXT, egl.EGLInt(layout.Offset),
		egl.DMABufPlane0PitchEXT, egl.EGLInt(layout.Stride),
	}
	if layout.Modifier != 0 {
		attribs = append(attribs,
			egl.DMABufPlane0ModifierLoEXT, egl.EGLInt(uint32(layout.Modifier)),
			egl.DMABufPlane0ModifierHiEXT, egl.EGLInt(uint32(layout.Modifier>>32)),
		)
	}
	attribs = append(attribs, egl.None)

	image := egl.CreateImageKHR(im.dpy, egl.NoContext, egl.LinuxDMABufEXT, 0, &attribs[0])
	if image == egl.NoImageKHR {
		return nil, fmt.Errorf("%w: egl error 0x%x", ErrImageCreateFailed, egl.GetError())
	}

	id := im.gl.GenTextures(1)
	im.gl.BindTexture(gl.TEXTURE_2D, id)
	im.gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	im.gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	im.gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	im.gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	im.gl.EGLImageTargetTexture2DOES(gl.TEXTURE_2D, unsafe.Pointer(uintptr(image)))

	if glErr := im.gl.GetError(); glErr != 0 {
		im.gl.DeleteTextures(id)
		egl.DestroyImageKHR(im.dpy, image)
		return nil, fmt.Errorf("%w: gl error 0x%x", ErrTextureBindFailed, glErr)
	}

	return &Texture{
		gl:    im.gl,
		dpy:   im.dpy,
		image: image,
		id:    id,
		w:     layout.Width,
		h:     layout.Height,
	}, nil
}
