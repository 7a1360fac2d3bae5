package strike

import (
	"sync"

	"github.com/gogpu/glyphrun"
)

// Translator maps typeface IDs chosen by a remote process onto local
// registry IDs. It implements glyphrun.TypefaceTranslator.
//
// Translator is safe for concurrent use.
type Translator struct {
	mu  sync.RWMutex
	ids map[uint32]uint32
}

var _ glyphrun.TypefaceTranslator = (*Translator)(nil)

// NewTranslator creates an empty translator.
func NewTranslator() *Translator {
	return &Translator{ids: make(map[uint32]uint32)}
}

// Map records that remote refers to the local typeface.
func (t *Translator) Map(remote, local uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ids[remote] = local
}

// TranslateTypefaceID rewrites desc.TypefaceID to the local ID.
func (t *Translator) TranslateTypefaceID(desc *glyphrun.Descriptor) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	local, ok := t.ids[desc.TypefaceID]
	if !ok {
		return false
	}
	desc.TypefaceID = local
	return true
}
