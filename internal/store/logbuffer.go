package store

// LogBuffer is a fixed-capacity FIFO of log lines. When an append would
// exceed capacity the oldest line is evicted, so the buffer always holds
// the most recent lines in arrival order.
type LogBuffer struct {
	data  []string
	start int
	count int
}

// NewLogBuffer creates a buffer retaining at most capacity lines.
// Capacity must be positive.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &LogBuffer{data: make([]string, capacity)}
}

// Append adds a line, evicting the oldest line if the buffer is full.
func (b *LogBuffer) Append(line string) {
	if b.count == len(b.data) {
		b.data[b.start] = line
		b.start = (b.start + 1) % len(b.data)
		return
	}
	b.data[(b.start+b.count)%len(b.data)] = line
	b.count++
}

// Snapshot returns the retained lines, oldest first.
func (b *LogBuffer) Snapshot() []string {
	out := make([]string, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(b.start+i)%len(b.data)]
	}
	return out
}

// Clear drops all retained lines. Capacity is unchanged.
func (b *LogBuffer) Clear() {
	b.start = 0
	b.count = 0
}

// Len returns the number of retained lines.
func (b *LogBuffer) Len() int {
	return b.count
}

// Cap returns the retention capacity.
func (b *LogBuffer) Cap() int {
	return len(b.data)
}
