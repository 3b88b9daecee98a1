// Package testing_assert provides the small assertion vocabulary used across the tests.
package testing_assert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Assert fails the test if the condition is false.
func Assert(tb testing.TB, condition bool, msg string, v ...interface{}) {
	tb.Helper()
	require.Truef(tb, condition, msg, v...)
}

// SimpleAssert fails the test if the condition is false.
func SimpleAssert(tb testing.TB, condition bool) {
	tb.Helper()
	require.True(tb, condition)
}

// Ok fails the test if an err is not nil.
func Ok(tb testing.TB, err error) {
	tb.Helper()
	require.NoError(tb, err)
}

// Nok fails the test if an err is nil.
func Nok(tb testing.TB, err error) {
	tb.Helper()
	require.Error(tb, err)
}

// Equals fails the test if exp is not equal to act.
func Equals(tb testing.TB, exp, act interface{}) {
	tb.Helper()
	require.Equal(tb, exp, act)
}

// ErrorIs fails the test if err does not match target.
func ErrorIs(tb testing.TB, err, target error) {
	tb.Helper()
	require.ErrorIs(tb, err, target)
}

// Check reports a non fatal mismatch.
func Check(tb testing.TB, exp, act interface{}) bool {
	tb.Helper()
	return assert.Equal(tb, exp, act)
}
