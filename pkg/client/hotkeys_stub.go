//go:build !windows

package client

// DictationHotkey is a no-op on non-Windows platforms; the Record button in
// the note dialog still works.
type DictationHotkey struct {
	OnToggle func()
}

// NewDictationHotkey creates a DictationHotkey (no-op on non-Windows).
func NewDictationHotkey(key string) *DictationHotkey {
	return &DictationHotkey{}
}

// SetKey is a no-op on non-Windows.
func (g *DictationHotkey) SetKey(key string) {}

// Start is a no-op on non-Windows.
func (g *DictationHotkey) Start() {}

// Stop is a no-op on non-Windows.
func (g *DictationHotkey) Stop() {}

// KeyNameToVK is a no-op on non-Windows.
func KeyNameToVK(name string) int { return 0 }
