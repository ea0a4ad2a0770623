// Package ipcchan implements the compositor's single composite event
// channel of spec §4.10/§6: per-client subscription, targeted and
// broadcast emit with bounded non-blocking backpressure, and the two-pass
// fast/slow command dispatch original_source's main.rs uses to batch
// consecutive cheap commands under one lock hold.
//
// Grounded on coprocessor_manager.go's ticket/completion-map pattern
// (a mutex-guarded manager keyed by an incrementing handle, pruning stale
// entries) for the subscription bookkeeping, and directly on
// original_source main.rs's handle_ipc_commands: its two-pass structure
// (poll everything pending into a buffer, then walk it processing slow
// commands with their own lock cycle and runs of fast commands under a
// single lock hold) is dispatch.go's Dispatch.
package ipcchan

// Message is one inbound command or outbound event: a 5-word tuple, code
// in word 0, per spec §6 ("Each command is [code, a, b, c, d]").
type Message [5]uint32

// Subscription identifies one client's channel subscription.
type Subscription uint32

// Command codes, spec §6's client command set.
const (
	CmdCreateWindow     uint32 = 0x1001
	CmdDestroyWindow    uint32 = 0x1002
	CmdPresent          uint32 = 0x1003
	CmdSetTitle         uint32 = 0x1004
	CmdSetWindowPos     uint32 = 0x1005
	CmdResizeSHM        uint32 = 0x1006
	CmdSetMenu          uint32 = 0x1007
	CmdUpdateMenuItem   uint32 = 0x1008
	CmdStatusIcon       uint32 = 0x1009 // add/remove distinguished by word D (spec §6: "ADD_STATUS_ICON / REMOVE")
	CmdFocusByTID       uint32 = 0x100A
	CmdSetTheme         uint32 = 0x100D
	CmdSetWallpaper     uint32 = 0x100E
	CmdHideByTID        uint32 = 0x1014
	CmdSetFontSmoothing uint32 = 0x1015
)

// Outbound response and event codes, spec §6.
const (
	RespWindowCreated     uint32 = 0x2001
	RespWindowDestroyed   uint32 = 0x2002
	EvtKeyDown            uint32 = 0x2010
	EvtKeyUp              uint32 = 0x2011
	EvtMouseDown          uint32 = 0x2012
	EvtMouseUp            uint32 = 0x2013
	EvtMouseMove          uint32 = 0x2014
	EvtMouseScroll        uint32 = 0x2015
	EvtWindowClose        uint32 = 0x2016
	EvtResize             uint32 = 0x2017
	EvtMenuItem           uint32 = 0x2018
	EvtWindowOpened       uint32 = 0x2020
	EvtWindowClosed       uint32 = 0x2021
	EvtThemeChanged       uint32 = 0x2022
	EvtFontSmoothingChg   uint32 = 0x2023
	EvtResolutionChanged  uint32 = 0x2024
)
