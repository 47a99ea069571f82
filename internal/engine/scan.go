package engine

import (
	"fmt"
	"log"
)

// NeedsScan reports whether the store has no discovered actions yet, which
// happens on first run and after a corrupt database was rebuilt.
func (e *Engine) NeedsScan() (bool, error) {
	n, err := e.db.CountDiscovered()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// StartScan launches a background discovery scan. The second return value is
// false when a scan was already running, in which case the returned channel
// belongs to that scan. The channel closes when the scan finishes.
func (e *Engine) StartScan() (<-chan struct{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.scanning {
		return e.scanDone, false
	}
	e.scanning = true
	e.scanDone = make(chan struct{})
	done := e.scanDone

	go func() {
		if err := e.ScanNow(); err != nil {
			log.Printf("scan: %v", err)
		}
		e.mu.Lock()
		e.scanning = false
		e.mu.Unlock()
		close(done)
	}()
	return done, true
}

// ScanNow runs discovery synchronously and inserts everything found.
// Re-inserting known actions is a no-op, so repeated scans only ever add.
func (e *Engine) ScanNow() error {
	programs := 0
	for _, ex := range e.listExecutables() {
		if _, err := e.db.InsertProgram(ex.Name, ex.Path); err != nil {
			return fmt.Errorf("inserting program %s: %w", ex.Name, err)
		}
		programs++
	}

	desktops := 0
	for _, de := range e.listDesktopEntries() {
		if _, err := e.db.InsertDesktop(de.Name, de.Exec, de.AcceptsArgs); err != nil {
			return fmt.Errorf("inserting desktop entry %s: %w", de.Name, err)
		}
		desktops++
	}

	log.Printf("scan: %d programs, %d desktop entries", programs, desktops)
	return nil
}
