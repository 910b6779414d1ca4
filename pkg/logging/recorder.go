package logging

import "sync"

// Recorded is one captured log call
type Recorded struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// Recorder is a Logger that keeps every entry in memory for assertions
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Recorded
	fields  []Field
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, entries: &[]Recorded{}}
}

func (r *Recorder) record(level Level, msg string, fields []Field) {
	m := make(map[string]any, len(r.fields)+len(fields))
	for _, f := range r.fields {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, Recorded{Level: level, Message: msg, Fields: m})
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.record(DebugLevel, msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.record(InfoLevel, msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.record(WarnLevel, msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.record(ErrorLevel, msg, fields) }
func (r *Recorder) SetLevel(level Level)              {}
func (r *Recorder) GetLevel() Level                   { return DebugLevel }

// With returns a child recorder writing into the same entry list
func (r *Recorder) With(fields ...Field) Logger {
	merged := append(append([]Field(nil), r.fields...), fields...)
	return &Recorder{mu: r.mu, entries: r.entries, fields: merged}
}

// Entries returns a copy of the captured entries
func (r *Recorder) Entries() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), *r.entries...)
}

// Count returns how many entries were captured at level
func (r *Recorder) Count(level Level) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
