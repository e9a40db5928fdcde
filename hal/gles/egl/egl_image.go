// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package egl

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// EGLImageKHR represents an EGLImage object created by the EGL_KHR_image_base
// extension. EGL_EXT_image_dma_buf_import builds on it to let a client
// DMA-BUF file descriptor back an EGLImage without a CPU-side copy.
type EGLImageKHR uintptr

// NoImageKHR is the null EGLImageKHR value.
const NoImageKHR EGLImageKHR = 0

// EGL_EXT_image_dma_buf_import target and attribute tokens.
const (
	LinuxDMABufEXT            EGLEnum = 0x3270
	LinuxDRMFourCCEXT         EGLInt  = 0x3271
	DMABufPlane0FdEXT         EGLInt  = 0x3272
	DMABufPlane0OffsetEXT     EGLInt  = 0x3273
	DMABufPlane0PitchEXT      EGLInt  = 0x3274
	DMABufPlane0ModifierLoEXT EGLInt  = 0x3443
	DMABufPlane0ModifierHiEXT EGLInt  = 0x3444
)

// ImageKHR type token for EGL_KHR_image_base; dma-buf import always uses
// LinuxDMABufEXT but this is kept for completeness.
const ImageGLTexture2DKHR EGLEnum = 0x30B1

var (
	symEglCreateImageKHR  unsafe.Pointer
	symEglDestroyImageKHR unsafe.Pointer

	cifEglCreateImageKHR  types.CallInterface
	cifEglDestroyImageKHR types.CallInterface
)

// InitImageKHR resolves the EGL_KHR_image_base / EGL_EXT_image_dma_buf_import
// entry points via eglGetProcAddress. Unlike the EGL 1.4 core functions these
// are extension functions and are never looked up with dlsym; the Mesa and
// proprietary driver stacks in the pack both require eglGetProcAddress for
// them. Call after Init. Returns an error if either entry point is absent,
// which callers should treat as "DMA-BUF import unsupported on this driver".
func InitImageKHR() error {
	symEglCreateImageKHR = unsafe.Pointer(GetProcAddress("eglCreateImageKHR"))
	if symEglCreateImageKHR == nil {
		return fmt.Errorf("eglCreateImageKHR not available")
	}
	symEglDestroyImageKHR = unsafe.Pointer(GetProcAddress("eglDestroyImageKHR"))
	if symEglDestroyImageKHR == nil {
		return fmt.Errorf("eglDestroyImageKHR not available")
	}

	// EGLImageKHR eglCreateImageKHR(EGLDisplay, EGLContext, EGLenum, EGLClientBuffer, const EGLint*)
	err := ffi.PrepareCallInterface(&cifEglCreateImageKHR, types.DefaultCall,
		types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{
			types.PointerTypeDescriptor, // EGLDisplay
			types.PointerTypeDescriptor, // EGLContext
			types.UInt32TypeDescriptor,  // target
			types.PointerTypeDescriptor, // buffer
			types.PointerTypeDescriptor, // attribList*
		})
	if err != nil {
		return fmt.Errorf("failed to prepare eglCreateImageKHR: %w", err)
	}

	// EGLBoolean eglDestroyImageKHR(EGLDisplay, EGLImageKHR)
	err = ffi.PrepareCallInterface(&cifEglDestroyImageKHR, types.DefaultCall,
		types.UInt32TypeDescriptor,
		[]*types.TypeDescriptor{
			types.PointerTypeDescriptor, // EGLDisplay
			types.PointerTypeDescriptor, // EGLImageKHR
		})
	if err != nil {
		return fmt.Errorf("failed to prepare eglDestroyImageKHR: %w", err)
	}

	return nil
}

// HasImageKHR reports whether InitImageKHR resolved both entry points.
func HasImageKHR() bool {
	return symEglCreateImageKHR != nil && symEglDestroyImageKHR != nil
}

// CreateImageKHR creates an EGLImageKHR. For target == LinuxDMABufEXT, ctx
// must be NoContext and buffer must be 0; the DMA-BUF fd and plane layout
// are described entirely through attribList, terminated by None.
func CreateImageKHR(dpy EGLDisplay, ctx EGLContext, target EGLEnum, buffer uintptr, attribList *EGLInt) EGLImageKHR {
	var result EGLImageKHR
	args := [5]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&ctx),
		unsafe.Pointer(&target),
		unsafe.Pointer(&buffer),
		unsafe.Pointer(attribList),
	}
	_ = ffi.CallFunction(&cifEglCreateImageKHR, symEglCreateImageKHR, unsafe.Pointer(&result), args[:])
	return result
}

// DestroyImageKHR destroys an EGLImageKHR previously created with
// CreateImageKHR. The client DMA-BUF fd is not owned by the image and must
// be closed separately by the caller.
func DestroyImageKHR(dpy EGLDisplay, image EGLImageKHR) EGLBoolean {
	var result EGLBoolean
	args := [2]unsafe.Pointer{
		unsafe.Pointer(&dpy),
		unsafe.Pointer(&image),
	}
	_ = ffi.CallFunction(&cifEglDestroyImageKHR, symEglDestroyImageKHR, unsafe.Pointer(&result), args[:])
	return result
}
