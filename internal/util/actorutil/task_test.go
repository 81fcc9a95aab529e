package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type taskResult struct {
	value int
	err   error
}

func TestBackgroundTaskSuccess(t *testing.T) {
	assert := assert.New(t)

	var got *taskResult
	NewBackgroundTask(nil, func() (*taskResult, error) {
		return &taskResult{value: 42}, nil
	}).OnSuccess(func(r taskResult) {
		got = &r
	}).Run()

	assert.NotNil(got)
	assert.Equal(42, got.value)
}

func TestBackgroundTaskRecover(t *testing.T) {
	assert := assert.New(t)

	failure := errors.New("radio busy")
	var got *taskResult
	NewBackgroundTask(nil, func() (*taskResult, error) {
		return nil, failure
	}).Recover(func(err error) taskResult {
		return taskResult{err: err}
	}).OnSuccess(func(r taskResult) {
		got = &r
	}).Run()

	assert.NotNil(got)
	assert.ErrorIs(got.err, failure)
}

func TestBackgroundTaskTimeout(t *testing.T) {
	assert := assert.New(t)

	var failed error
	succeeded := false
	NewBackgroundTask(nil, func() (*taskResult, error) {
		time.Sleep(500 * time.Millisecond)
		return &taskResult{}, nil
	}).WithTimeout(50 * time.Millisecond).OnError(func(err error) {
		failed = err
	}).OnSuccess(func(r taskResult) {
		succeeded = true
	}).Run()

	assert.Error(failed)
	assert.False(succeeded)
}

func TestBackgroundTaskNilResult(t *testing.T) {
	assert := assert.New(t)

	var got *taskResult
	NewBackgroundTask(nil, func() (*taskResult, error) {
		return nil, nil
	}).Recover(func(err error) taskResult {
		return taskResult{err: err}
	}).OnSuccess(func(r taskResult) {
		got = &r
	}).Run()

	assert.NotNil(got)
	assert.Error(got.err)
}
