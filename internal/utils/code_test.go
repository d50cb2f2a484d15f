package utils

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewCodeLength(t *testing.T) {
    for _, n := range []int{4, 8, 12} {
        code, err := NewCode(n)
        require.NoError(t, err)
        assert.Len(t, code, n)
    }
}

func TestNewCodeDefaultsLength(t *testing.T) {
    code, err := NewCode(0)
    require.NoError(t, err)
    assert.Len(t, code, 8)

    code, err = NewCode(-3)
    require.NoError(t, err)
    assert.Len(t, code, 8)
}

func TestNewCodeAlphabet(t *testing.T) {
    // None of the ambiguous symbols may ever appear.
    for i := 0; i < 200; i++ {
        code, err := NewCode(8)
        require.NoError(t, err)
        for _, r := range code {
            assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected symbol %q in %s", r, code)
        }
        assert.NotContainsf(t, code, "0", "code %s", code)
        assert.NotContainsf(t, code, "O", "code %s", code)
        assert.NotContainsf(t, code, "1", "code %s", code)
        assert.NotContainsf(t, code, "I", "code %s", code)
        assert.NotContainsf(t, code, "L", "code %s", code)
    }
}

func TestNewCodeIsRandom(t *testing.T) {
    seen := make(map[string]bool)
    for i := 0; i < 100; i++ {
        code, err := NewCode(8)
        require.NoError(t, err)
        assert.False(t, seen[code], "code %s generated twice", code)
        seen[code] = true
    }
}
