// internal/zookeeper/lock_test.go
package zookeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeq(t *testing.T) {
	seq, err := parseSeq("_c_6b9cf6c3a8114a9daa4a2ef5a3b331f5-lock-0000000042")
	require.NoError(t, err)
	assert.Equal(t, 42, seq)

	seq, err = parseSeq("lock-0000000001")
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	_, err = parseSeq("nodashes")
	assert.Error(t, err)
	_, err = parseSeq("lock-notanumber")
	assert.Error(t, err)
}

func TestPredecessor_OrdersBySequenceNotLexically(t *testing.T) {
	// guid 前缀是随机的: 先来者的 guid 可能字典序更大。
	// 字典序排会把后来者 (ffff... 前的 0000...) 错误地选成持锁者。
	holder := "_c_ffffffffffffffffffffffffffffffff-lock-0000000001"
	latecomer := "_c_00000000000000000000000000000000-lock-0000000002"
	children := []string{latecomer, holder}

	prev, err := predecessor(children, holder)
	require.NoError(t, err)
	assert.Empty(t, prev, "the lowest sequence holds the lock regardless of guid order")

	prev, err = predecessor(children, latecomer)
	require.NoError(t, err)
	assert.Equal(t, holder, prev, "the latecomer must wait on the actual holder")
}

func TestPredecessor_WatchesImmediatePredecessorOnly(t *testing.T) {
	children := []string{
		"_c_aaa0-lock-0000000003",
		"_c_zzz0-lock-0000000001",
		"_c_mmm0-lock-0000000007",
	}

	prev, err := predecessor(children, "_c_mmm0-lock-0000000007")
	require.NoError(t, err)
	assert.Equal(t, "_c_aaa0-lock-0000000003", prev)
}

func TestPredecessor_IgnoresForeignNodes(t *testing.T) {
	children := []string{
		"not-a-sequential-node",
		"_c_bbb0-lock-0000000005",
	}

	prev, err := predecessor(children, "_c_bbb0-lock-0000000005")
	require.NoError(t, err)
	assert.Empty(t, prev)
}
