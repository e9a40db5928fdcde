// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package egl

// EGL types, based on the EGL 1.4/1.5 specification. Only the handle types
// this package's surfaceless, pbuffer-only surface actually needs are
// declared here; there is no EGLNativeWindowType/EGLNativePixmapType since
// this compositor never creates a window or pixmap surface.
type (
	// EGLBoolean represents a boolean value (EGL_TRUE or EGL_FALSE).
	EGLBoolean uint32
	// EGLInt represents a 32-bit signed integer.
	EGLInt int32
	// EGLEnum represents an enumeration value.
	EGLEnum uint32
	// EGLAttrib represents an attribute value (EGL 1.5+).
	EGLAttrib uintptr
	// EGLDisplay represents an EGL display connection.
	EGLDisplay uintptr
	// EGLConfig represents an EGL frame buffer configuration.
	EGLConfig uintptr
	// EGLSurface represents an EGL rendering surface (here, always a pbuffer).
	EGLSurface uintptr
	// EGLContext represents an EGL rendering context.
	EGLContext uintptr
	// EGLNativeDisplayType represents a native platform display handle, as
	// passed to eglGetDisplay/eglGetPlatformDisplay.
	EGLNativeDisplayType uintptr
)

// Special values.
const (
	False           EGLBoolean           = 0
	True            EGLBoolean           = 1
	DefaultDisplay  EGLNativeDisplayType = 0
	NoContext       EGLContext           = 0
	NoDisplay       EGLDisplay           = 0
	NoSurface       EGLSurface           = 0
)

// Config attributes used when selecting a frame buffer configuration.
const (
	AlphaSize      EGLInt = 0x3021
	BlueSize       EGLInt = 0x3022
	GreenSize      EGLInt = 0x3023
	RedSize        EGLInt = 0x3024
	DepthSize      EGLInt = 0x3025
	StencilSize    EGLInt = 0x3026
	None           EGLInt = 0x3038
	SurfaceType    EGLInt = 0x3033
	RenderableType EGLInt = 0x3040
)

// Pbuffer surface attributes.
const (
	Height EGLInt = 0x3056
	Width  EGLInt = 0x3057
)

// Context creation attributes (EGL_KHR_create_context).
const (
	ContextMajorVersion         EGLInt = 0x3098
	ContextMinorVersion         EGLInt = 0x30FB
	ContextOpenGLProfileMask    EGLInt = 0x30FD
	ContextOpenGLCoreProfileBit EGLInt = 0x00000001
	ContextFlagsKHR             EGLInt = 0x30FC
	ContextOpenGLDebugBitKHR    EGLInt = 0x0001
)

// Renderable type mask bits.
const (
	OpenGLESBit  EGLInt = 0x0001
	OpenGLBit    EGLInt = 0x0008
	OpenGLES2Bit EGLInt = 0x0004
	OpenGLES3Bit EGLInt = 0x0040
)

// Surface type mask bits.
const (
	PbufferBit EGLInt = 0x0001
)

// Client API identifiers, for eglBindAPI.
const (
	OpenGLESAPI EGLEnum = 0x30A0
	OpenGLAPI   EGLEnum = 0x30A2
)

// QueryString targets.
const (
	Extensions EGLInt = 0x3055
)

// Platform types (EGL 1.5 / EGL_EXT_platform_base); only the surfaceless
// Mesa platform is ever requested.
const (
	PlatformSurfacelessMesa EGLEnum = 0x31DD
)
