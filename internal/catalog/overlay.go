package catalog

import (
	"sync"

	"go.uber.org/zap"
)

// SyncTranslator returns a ready translation when it has one.
type SyncTranslator interface {
	TryTranslate(text string) (string, bool)
}

// AsyncTranslator delivers a translation later, on any goroutine, or never.
type AsyncTranslator interface {
	TranslateAsync(text string, deliver func(translated string))
}

// Overlay layers optional translators over source strings.
//
// Resolve always hands the source text to the callback before returning. A translation,
// if one is found, is delivered as a second call: synchronously when the sync
// translator knows it, otherwise from the async translator at some later point.
type Overlay struct {
	syncT  SyncTranslator
	asyncT AsyncTranslator
	logger *zap.Logger
}

func NewOverlay(syncT SyncTranslator, asyncT AsyncTranslator, logger *zap.Logger) *Overlay {
	if logger == nil {
		logger = zap.NewNop()
	}

	if syncT == nil {
		logger.Warn("No synchronous translator configured, item translations will be limited")
	}
	if asyncT == nil {
		logger.Warn("No asynchronous translator configured, item translations will be limited")
	}
	if syncT == nil && asyncT == nil {
		logger.Info("Catalog names will be shown untranslated")
	}

	return &Overlay{
		syncT:  syncT,
		asyncT: asyncT,
		logger: logger,
	}
}

// Passthrough returns an overlay without translators.
func Passthrough() *Overlay {
	return &Overlay{logger: zap.NewNop()}
}

func (o *Overlay) Resolve(text string, onResolved func(string)) {
	onResolved(text)

	if translated, ok := o.trySync(text); ok {
		if translated != text {
			onResolved(translated)
		}
		return
	}

	if o.asyncT == nil {
		return
	}

	var once sync.Once
	o.requestAsync(text, func(translated string) {
		if translated == "" || translated == text {
			return
		}
		once.Do(func() {
			onResolved(translated)
		})
	})
}

func (o *Overlay) trySync(text string) (translated string, ok bool) {
	if o.syncT == nil {
		return "", false
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("Synchronous translator panicked", zap.String("text", text), zap.Any("panic", r))
			translated, ok = "", false
		}
	}()

	translated, ok = o.syncT.TryTranslate(text)
	if translated == "" {
		return "", false
	}
	return translated, ok
}

func (o *Overlay) requestAsync(text string, deliver func(string)) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("Asynchronous translator panicked", zap.String("text", text), zap.Any("panic", r))
		}
	}()

	o.asyncT.TranslateAsync(text, deliver)
}
