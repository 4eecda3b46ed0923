package credential

import "sync"

// Memory is a Store that lives only as long as the process.
type Memory struct {
	mu   sync.Mutex
	cred *Credential
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements Store.
func (m *Memory) Load() (Credential, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return Credential{}, false, nil
	}
	return *m.cred, true, nil
}

// Save implements Store.
func (m *Memory) Save(cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &cred
	return nil
}

// Clear implements Store.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}
