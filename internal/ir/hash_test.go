package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructKeyDeterminism(t *testing.T) {
	fields := IRObject{"can_comment": IRBool(true), "comment_count": IRInt(4)}

	k1, err := StructKey("comment_info", fields)
	require.NoError(t, err)
	k2, err := StructKey("comment_info", IRObject{"comment_count": IRInt(4), "can_comment": IRBool(true)})
	require.NoError(t, err)

	assert.Equal(t, k1, k2, "key order must not matter")
	assert.Len(t, k1, 64, "SHA-256 hex is 64 characters")
}

func TestStructKeySeparatesKindsAndValues(t *testing.T) {
	fields := IRObject{"min": IRInt(21)}

	base := MustStructKey("age_range", fields)
	assert.NotEqual(t, base, MustStructKey("like_info", fields))
	assert.NotEqual(t, base, MustStructKey("age_range", IRObject{"min": IRInt(18)}))
	assert.NotEqual(t, base, MustStructKey("age_range", IRObject{"min": IRInt(21), "max": IRInt(30)}))
}

func TestStructKeyRejectsNull(t *testing.T) {
	_, err := StructKey("age_range", IRObject{"min": IRNull{}})
	assert.Error(t, err)
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain(DomainStruct, data), hashWithDomain(DomainSnapshot, data))
}

func TestSnapshotDigest(t *testing.T) {
	d1, err := SnapshotDigest(map[string]any{"album": []string{"a1", "a2"}})
	require.NoError(t, err)
	d2, err := SnapshotDigest(map[string]any{"album": []string{"a2", "a1"}})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2, "listing order is part of the snapshot")
}
