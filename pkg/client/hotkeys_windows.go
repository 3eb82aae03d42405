//go:build windows

package client

import (
	"sync"
	"syscall"
	"time"
)

var (
	user32               = syscall.NewLazyDLL("user32.dll")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

var vkCodes = map[string]int{
	"F1": 0x70, "F2": 0x71, "F3": 0x72, "F4": 0x73,
	"F5": 0x74, "F6": 0x75, "F7": 0x76, "F8": 0x77,
	"F9": 0x78, "F10": 0x79, "F11": 0x7A, "F12": 0x7B,
}

// KeyNameToVK converts a key name to a Windows virtual key code.
func KeyNameToVK(name string) int {
	if code, ok := vkCodes[name]; ok {
		return code
	}
	return 0
}

// DictationHotkey polls for the dictation key on Windows using
// GetAsyncKeyState, so recording can be toggled while another window has
// focus.
type DictationHotkey struct {
	OnToggle func()
	vk       int
	mu       sync.Mutex
	stopCh   chan struct{}
	running  bool
}

// NewDictationHotkey creates a hotkey watcher bound to key.
func NewDictationHotkey(key string) *DictationHotkey {
	return &DictationHotkey{
		vk:     KeyNameToVK(key),
		stopCh: make(chan struct{}),
	}
}

// SetKey rebinds the hotkey.
func (g *DictationHotkey) SetKey(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vk = KeyNameToVK(key)
}

func isKeyDown(vk int) bool {
	ret, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return ret&0x8000 != 0
}

// Start begins polling in a background goroutine.
func (g *DictationHotkey) Start() {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return
	}
	g.running = true
	g.mu.Unlock()

	go func() {
		var wasDown bool
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-g.stopCh:
				return
			case <-ticker.C:
				g.mu.Lock()
				vk := g.vk
				g.mu.Unlock()

				if vk == 0 {
					continue
				}
				down := isKeyDown(vk)
				if down && !wasDown && g.OnToggle != nil {
					g.OnToggle()
				}
				wasDown = down
			}
		}
	}()
}

// Stop terminates the hotkey polling loop.
func (g *DictationHotkey) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		close(g.stopCh)
		g.running = false
	}
}
