package record

import "sync"

// Memory keeps records in memory. It is used by tests and by the step tool.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Write(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// Functions lists the function name of every record, in order.
func (m *Memory) Functions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.records))
	for i, r := range m.records {
		out[i] = r.Function
	}
	return out
}

func (m *Memory) Flush() error { return nil }
func (m *Memory) Close() error { return nil }
