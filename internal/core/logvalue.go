package core

import "log/slog"

// lazy defers Describe until a handler actually emits the record.
type lazy struct{ v any }

func (l lazy) LogValue() slog.Value {
	return slog.StringValue(Describe(l.v))
}

func describeLazily(v any) slog.LogValuer {
	return lazy{v}
}
