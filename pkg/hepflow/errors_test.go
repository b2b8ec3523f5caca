package hepflow

import (
	"context"
	"errors"
	"testing"

	"github.com/randalmurphal/hepflow/pkg/hepflow/event"
	"github.com/stretchr/testify/assert"
)

func TestConfigurationErrors_MatchSentinel(t *testing.T) {
	errs := []error{
		&ConfigurationError{Msg: "bad"},
		&DuplicateNameError{Kind: "histogram", Name: "mll"},
		&MissingDependencyError{Module: "a", Dependency: "b"},
		&CycleError{Path: []string{"a", "a"}},
	}
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrConfiguration, "%T", err)
	}

	assert.NotErrorIs(t, &ModuleProcessError{Module: "a", Err: errBoom}, ErrConfiguration)
}

func TestErrorMessages(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{&ConfigurationError{Msg: "module cannot be nil"}, "configuration error: module cannot be nil"},
		{&ConfigurationError{Module: "a b", Msg: "bad name"}, "configuration error: module a b: bad name"},
		{&DuplicateNameError{Kind: "module", Name: "jets"}, `duplicate module name "jets"`},
		{&DuplicateNameError{Kind: "output", Name: "mll", Owners: []string{"a", "b"}}, `duplicate output name "mll" (claimed by a, b)`},
		{&MissingDependencyError{Module: "h", Dependency: "cuts"}, `module h depends on unregistered module "cuts"`},
		{&CycleError{Path: []string{"a", "b", "a"}}, "dependency cycle: a -> b -> a"},
		{&ModuleProcessError{Module: "jets", Event: event.ID{Run: 1, Lumi: 4, Event: 9}, Err: errBoom}, "module jets: event 1:4:9: boom"},
		{&PanicError{Module: "jets", Value: "oops"}, "module jets panicked: oops"},
		{&FinalizeError{Module: "h", Err: errBoom}, "module h: finalize: boom"},
		{&PersistError{Module: "h", Err: errBoom}, "module h: persist: boom"},
		{&PersistError{Err: errBoom}, "persist summary: boom"},
		{&EventAccessError{EventsRead: 12, Err: errBoom}, "event source failed after 12 events: boom"},
		{&CancellationError{EventsRead: 3, Cause: context.Canceled}, "cancelled after 3 events: context canceled"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.err.Error())
	}
}

func TestErrors_Unwrap(t *testing.T) {
	assert.True(t, errors.Is(&ModuleProcessError{Err: errBoom}, errBoom))
	assert.True(t, errors.Is(&FinalizeError{Err: errBoom}, errBoom))
	assert.True(t, errors.Is(&PersistError{Err: errBoom}, errBoom))
	assert.True(t, errors.Is(&EventAccessError{Err: errBoom}, errBoom))
	assert.True(t, errors.Is(&CancellationError{Cause: context.DeadlineExceeded}, context.DeadlineExceeded))
}
