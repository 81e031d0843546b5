package application

import (
	"context"
	"errors"
)

// DocumentSink stores one encoded scenario document under name.
type DocumentSink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// MultiSink writes documents to every configured sink.
type MultiSink struct {
	sinks []DocumentSink
}

// NewMultiSink constructs a MultiSink, skipping nil sinks.
func NewMultiSink(sinks ...DocumentSink) *MultiSink {
	m := &MultiSink{}
	for _, sink := range sinks {
		if sink != nil {
			m.sinks = append(m.sinks, sink)
		}
	}
	return m
}

// Put forwards the document to all sinks and joins their errors.
func (m *MultiSink) Put(ctx context.Context, name string, data []byte) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Put(ctx, name, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
