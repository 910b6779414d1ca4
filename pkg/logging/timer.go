package logging

import "time"

// TimedOperation measures an operation and logs it with its latency
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{logger: logger, msg: msg, start: time.Now(), fields: fields}
}

// Elapsed returns the time since the timer started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at debug level
func (t *TimedOperation) End(fields ...Field) time.Duration {
	elapsed := t.Elapsed()
	t.logger.Debug(t.msg, t.with(elapsed, fields)...)
	return elapsed
}

// EndError logs the operation as an error
func (t *TimedOperation) EndError(err error, fields ...Field) time.Duration {
	elapsed := t.Elapsed()
	t.logger.Error(t.msg, append(t.with(elapsed, fields), Error(err))...)
	return elapsed
}

func (t *TimedOperation) with(elapsed time.Duration, fields []Field) []Field {
	out := make([]Field, 0, len(t.fields)+len(fields)+1)
	out = append(out, t.fields...)
	out = append(out, fields...)
	return append(out, Latency(elapsed))
}
